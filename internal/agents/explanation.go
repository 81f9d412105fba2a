package agents

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/pricing-advisor/internal/pricing"
	"github.com/iwvelando/pricing-advisor/pkg/format"
	"github.com/iwvelando/pricing-advisor/pkg/mathutil"
	"go.uber.org/zap"
)

// ExplanationInput is the consolidated view the explanation is written from.
// CurrentPrice is optional; zero disables the price-increase warning.
type ExplanationInput struct {
	Floor           float64
	Target          float64
	Stretch         float64
	CurrentPrice    float64
	COGS            float64
	WinProbability  float64
	Elasticity      float64
	ApprovalBand    pricing.ApprovalBand
	CompetitorPrice float64
	Quantity        int
	Channel         string
	Segment         string
	Region          string
}

// NewExplanationInput fills the context-derived fields of an input.
func NewExplanationInput(pc pricing.Context) ExplanationInput {
	return ExplanationInput{
		COGS:            pc.COGS(),
		CompetitorPrice: pc.CompetitorPrice(),
		Quantity:        pc.Quantity(),
		Channel:         pc.Channel(),
		Segment:         pc.CustomerSegment(),
		Region:          pc.Region(),
	}
}

// Explanation is the narrative for a price decision.
type Explanation struct {
	Sentences       []string `json:"sentences"`
	Text            string   `json:"explanation"`
	Recommendations []string `json:"recommendations"`
	KeyInsights     []string `json:"key_insights"`
	Reasons         []string `json:"reasons"`
}

// Scenario is one side of a price comparison.
type Scenario struct {
	TargetPrice    float64 `json:"target_price"`
	WinProbability float64 `json:"win_probability"`
}

// ExplanationAgent turns agent outputs into seller-facing sentences. Its
// output depends only on its input.
type ExplanationAgent struct {
	logger *zap.Logger
}

// NewExplanationAgent returns an ExplanationAgent.
func NewExplanationAgent(logger *zap.Logger) *ExplanationAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExplanationAgent{logger: logger}
}

func (a *ExplanationAgent) Name() string { return ExplanationAgentName }
func (a *ExplanationAgent) sealed()      {}

func pct(p float64) string {
	return format.Percent(p, 0)
}

// marginCOGS mirrors the cost basis used when no cost is known.
func marginCOGS(in ExplanationInput) float64 {
	if in.COGS > 0 {
		return in.COGS
	}
	return in.Target * 0.7
}

// Explain evaluates each rule in a fixed order; a rule adds at most one sentence.
func (a *ExplanationAgent) Explain(in ExplanationInput) Explanation {
	var s []string

	if in.Target > 0 {
		cogs := marginCOGS(in)
		s = append(s, fmt.Sprintf("The target price of %s delivers a %.1f%% margin.",
			format.Currency(in.Target), (in.Target-cogs)/cogs*100))
	}

	switch {
	case in.WinProbability > 0.7:
		s = append(s, fmt.Sprintf("This price has a strong %s probability of winning.", pct(in.WinProbability)))
	case in.WinProbability > 0.4:
		s = append(s, fmt.Sprintf("This price has a moderate %s chance of success.", pct(in.WinProbability)))
	default:
		s = append(s, fmt.Sprintf("This price has a lower %s win probability - consider the floor price.", pct(in.WinProbability)))
	}

	switch {
	case in.Elasticity < -1.5:
		s = append(s, fmt.Sprintf("The %s segment in %s is price-sensitive (elasticity: %.1f), so small price changes have big impact.",
			in.Segment, in.Region, in.Elasticity))
	case in.Elasticity > -1.0:
		s = append(s, fmt.Sprintf("This customer segment shows low price sensitivity (elasticity: %.1f), allowing for premium pricing.", in.Elasticity))
	default:
		s = append(s, fmt.Sprintf("Price sensitivity is moderate (elasticity: %.1f) for this segment.", in.Elasticity))
	}

	if in.CompetitorPrice > 0 && in.Target > 0 {
		gap := (in.Target - in.CompetitorPrice) / in.CompetitorPrice * 100
		switch {
		case math.Abs(gap) < 5:
			s = append(s, "Our price closely matches competitor pricing.")
		case gap > 10:
			s = append(s, fmt.Sprintf("We're pricing %.1f%% above competitors - justify with value proposition.", gap))
		case gap < -10:
			s = append(s, fmt.Sprintf("We're %.1f%% below competitors - opportunity for margin improvement.", math.Abs(gap)))
		}
	}

	switch {
	case in.Quantity > 20:
		s = append(s, "Large volume order - consider additional discount for strategic value.")
	case in.Quantity < 5:
		s = append(s, "Small volume - premium pricing acceptable.")
	}

	switch strings.ToLower(in.Channel) {
	case "direct":
		s = append(s, "Direct sales channel allows for relationship-based pricing.")
	case "partner":
		s = append(s, "Partner channel requires competitive pricing for reseller margins.")
	}

	switch in.ApprovalBand {
	case pricing.Approved:
		s = append(s, "Price meets all policy requirements for automatic approval.")
	case pricing.Review:
		s = append(s, "Price requires management review due to policy thresholds.")
	case pricing.Reject:
		s = append(s, "Price below policy minimums - requires special approval.")
	}

	var risks []string
	if in.WinProbability < 0.3 {
		risks = append(risks, "low win probability")
	}
	if in.Elasticity < -2.0 {
		risks = append(risks, "high price sensitivity")
	}
	if in.COGS > 0 && mathutil.SafeRatio(in.Target, in.COGS) < 0.1 {
		risks = append(risks, "thin margins")
	}
	if len(risks) > 0 {
		s = append(s, fmt.Sprintf("Key risks: %s.", strings.Join(risks, ", ")))
	}

	var recs []string
	if in.WinProbability < 0.4 && in.Target > in.Floor {
		recs = append(recs, "Consider lowering price toward floor for better win rate")
	}
	if in.Elasticity < -1.5 && in.CurrentPrice > 0 && in.Target > in.CurrentPrice {
		recs = append(recs, "Price increase risky due to high elasticity")
	}
	if in.Quantity > 30 {
		recs = append(recs, "Evaluate volume discount for strategic relationship")
	}

	band := in.ApprovalBand
	if band == "" {
		band = "UNKNOWN"
	}
	exp := Explanation{
		Sentences:       s,
		Text:            strings.Join(s, " "),
		Recommendations: recs,
		KeyInsights: []string{
			"Win probability: " + pct(in.WinProbability),
			fmt.Sprintf("Price elasticity: %.2f", in.Elasticity),
			fmt.Sprintf("Approval status: %s", band),
		},
		Reasons: []string{
			"Explanation combines the policy, elasticity and win-rate models",
			"Considers pricing, elasticity, competition and policy",
			"Written for sales team consumption",
		},
	}

	a.logger.Debug("explanation generated",
		zap.String("op", "agents.ExplanationAgent.Explain"),
		zap.Int("sentences", len(s)),
		zap.Int("recommendations", len(recs)),
	)
	return exp
}

// Compare describes the win-probability effect of moving from one scenario to another.
func (a *ExplanationAgent) Compare(from, to Scenario) string {
	priceDiff := to.TargetPrice - from.TargetPrice
	winDiff := to.WinProbability - from.WinProbability
	if winDiff > 0 {
		return fmt.Sprintf("Increasing price by %s improves win probability by %s",
			format.Currency(priceDiff), format.SignedPercent(winDiff, 1))
	}
	return fmt.Sprintf("Increasing price by %s reduces win probability by %s",
		format.Currency(priceDiff), format.Percent(math.Abs(winDiff), 1))
}

// TalkingPoints suggests lines a seller can use to defend the price.
func (a *ExplanationAgent) TalkingPoints(in ExplanationInput) []string {
	var points []string
	if in.CompetitorPrice > 0 && in.Target > in.CompetitorPrice {
		points = append(points, "Our solution offers premium value - price reflects quality and service superiority")
	}
	if in.Quantity > 15 {
		points = append(points, fmt.Sprintf("This volume (%d units) qualifies for our preferred customer pricing", in.Quantity))
	}
	if in.WinProbability > 0.6 {
		points = append(points, "This price point has been successful with similar customers in your industry")
	}
	if in.Segment == "Enterprise" {
		points = append(points, "As an enterprise partner, you have access to our strategic pricing program")
	}
	return points
}
