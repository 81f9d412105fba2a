package agents

import (
	"fmt"
	"math"

	"github.com/iwvelando/pricing-advisor/internal/pricing"
	"github.com/iwvelando/pricing-advisor/internal/winmodel"
	"github.com/iwvelando/pricing-advisor/pkg/constants"
	"github.com/iwvelando/pricing-advisor/pkg/mathutil"
	"go.uber.org/zap"
)

// keyFactorCount is how many global importances a prediction reports.
const keyFactorCount = 3

// Classifier predicts the probability that a quote is won. *winmodel.Model
// satisfies it.
type Classifier interface {
	WinProbability(f winmodel.Features) float64
	TopFeatures(n int) []winmodel.Importance
}

// Prediction is the win-rate agent's view of one price.
type Prediction struct {
	WinProbability float64           `json:"win_probability"`
	Confidence     string            `json:"confidence"`
	KeyFactors     []string          `json:"key_factors"`
	Features       winmodel.Features `json:"model_features"`
	Reasons        []string          `json:"reasons"`
}

// WinRateAgent scores prices with a trained classifier.
type WinRateAgent struct {
	clf    Classifier
	logger *zap.Logger
}

// NewWinRateAgent returns a WinRateAgent backed by clf.
func NewWinRateAgent(logger *zap.Logger, clf Classifier) *WinRateAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WinRateAgent{clf: clf, logger: logger}
}

func (a *WinRateAgent) Name() string { return WinRateAgentName }
func (a *WinRateAgent) sealed()      {}

// Features builds the model input for quoting pc at price. The list price
// is implied from the quote since requests do not carry one.
func Features(pc pricing.Context, price float64) winmodel.Features {
	f := winmodel.NewFeatures(winmodel.Inputs{
		Price:           price,
		COGS:            pc.COGS(),
		CompetitorPrice: pc.CompetitorPrice(),
		Quantity:        pc.Quantity(),
		Segment:         pc.CustomerSegment(),
		Channel:         pc.Channel(),
		Region:          pc.Region(),
		Family:          pc.ProductFamily(),
	})
	f.DiscountDepth = winmodel.DiscountDepth(price, price*constants.ListPriceMarkup)
	return f
}

// Predict returns the win probability of quoting pc at price.
func (a *WinRateAgent) Predict(pc pricing.Context, price float64) Prediction {
	features := Features(pc, price)
	p := mathutil.Clamp(a.clf.WinProbability(features), 0, 1)

	confidence := "Medium"
	if math.Max(p, 1-p) > constants.HighConfidenceCutoff {
		confidence = "High"
	}

	top := a.clf.TopFeatures(keyFactorCount)
	factors := make([]string, 0, len(top))
	for _, imp := range top {
		factors = append(factors, fmt.Sprintf("%s: %.3f", imp.Feature, imp.Weight))
	}

	reasons := []string{fmt.Sprintf("ML model prediction: %.1f%%", p*100)}
	if len(top) > 0 {
		reasons = append(reasons, "Key factor: "+top[0].Feature)
	}
	reasons = append(reasons, fmt.Sprintf("Price vs competitor: %.2f", features.PriceVsCompetitor))

	pred := Prediction{
		WinProbability: mathutil.RoundProbability(p),
		Confidence:     confidence,
		KeyFactors:     factors,
		Features:       features,
		Reasons:        reasons,
	}

	a.logger.Debug("win probability predicted",
		zap.String("op", "agents.WinRateAgent.Predict"),
		zap.Float64("price", price),
		zap.Float64("win_probability", pred.WinProbability),
		zap.String("confidence", confidence),
	)
	return pred
}

// Curve predicts each price in order. No smoothing is applied.
func (a *WinRateAgent) Curve(pc pricing.Context, prices []float64) []pricing.CurvePoint {
	points := make([]pricing.CurvePoint, 0, len(prices))
	for _, price := range prices {
		points = append(points, pricing.CurvePoint{
			Price: mathutil.Round(price),
			PWin:  a.Predict(pc, price).WinProbability,
		})
	}
	return points
}
