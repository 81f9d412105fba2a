package agents

import (
	"fmt"
	"math"

	"github.com/iwvelando/pricing-advisor/internal/pricing"
	"github.com/iwvelando/pricing-advisor/pkg/constants"
	"github.com/iwvelando/pricing-advisor/pkg/format"
	"github.com/iwvelando/pricing-advisor/pkg/mathutil"
	"go.uber.org/zap"
)

// volumeNormalizer is the order size at which the volume adjustment saturates.
const volumeNormalizer = 20.0

type segmentRegion struct {
	segment string
	region  string
}

// ElasticityParams are the base elasticity and volume adjustment for a segment.
type ElasticityParams struct {
	BaseElasticity float64
	VolumeAdj      float64
}

var (
	elasticityTable = map[segmentRegion]ElasticityParams{
		{"Enterprise", "EMEA"}:     {BaseElasticity: -1.2, VolumeAdj: 0.1},
		{"Enterprise", "Americas"}: {BaseElasticity: -1.1, VolumeAdj: 0.12},
		{"SMB", "EMEA"}:            {BaseElasticity: -1.8, VolumeAdj: 0.05},
		{"SMB", "Americas"}:        {BaseElasticity: -1.7, VolumeAdj: 0.08},
	}
	defaultElasticity = ElasticityParams{BaseElasticity: -1.5, VolumeAdj: 0.08}
)

// ElasticityResult is the demand response to a price move.
type ElasticityResult struct {
	Elasticity       float64  `json:"price_elasticity"`
	DemandChangePct  float64  `json:"demand_change_pct"`
	NewQuantity      float64  `json:"new_quantity_estimate"`
	RevenueChangePct float64  `json:"revenue_change_pct"`
	SuggestedPrice   float64  `json:"suggested_price"`
	Segment          string   `json:"elasticity_segment"`
	Reasons          []string `json:"reasons"`
}

// ElasticityAgent models demand response with a fixed segment table.
type ElasticityAgent struct {
	logger *zap.Logger
}

// NewElasticityAgent returns an ElasticityAgent.
func NewElasticityAgent(logger *zap.Logger) *ElasticityAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ElasticityAgent{logger: logger}
}

func (a *ElasticityAgent) Name() string { return ElasticityAgentName }
func (a *ElasticityAgent) sealed()      {}

// Params returns the table entry for a segment and region.
func (a *ElasticityAgent) Params(segment, region string) ElasticityParams {
	if p, ok := elasticityTable[segmentRegion{segment, region}]; ok {
		return p
	}
	return defaultElasticity
}

// Evaluate estimates the effect of moving from currentPrice to proposedPrice.
func (a *ElasticityAgent) Evaluate(pc pricing.Context, currentPrice, proposedPrice float64) ElasticityResult {
	params := a.Params(pc.CustomerSegment(), pc.Region())
	quantity := float64(pc.Quantity())

	volumeFactor := math.Min(1, quantity/volumeNormalizer)
	adjusted := params.BaseElasticity * (1 - volumeFactor*params.VolumeAdj)

	priceChange := 0.0
	if currentPrice > 0 {
		priceChange = (proposedPrice - currentPrice) / currentPrice
	}
	demandChange := adjusted * priceChange
	newQuantity := math.Max(1, quantity*(1+demandChange))

	currentRevenue := currentPrice * quantity
	revenueChange := 0.0
	if currentRevenue > 0 {
		revenueChange = (proposedPrice*newQuantity - currentRevenue) / currentRevenue
	}

	suggested := currentPrice
	if adjusted < -1 {
		markup := -1 / (adjusted + 1)
		suggested = pc.COGS() / (1 - markup)
	}

	result := ElasticityResult{
		Elasticity:       mathutil.RoundTo(adjusted, constants.ElasticityPlaces),
		DemandChangePct:  mathutil.RoundTo(demandChange, 3),
		NewQuantity:      mathutil.RoundTo(newQuantity, 1),
		RevenueChangePct: mathutil.RoundTo(revenueChange, 3),
		SuggestedPrice:   mathutil.Round(suggested),
		Segment:          pc.CustomerSegment() + "-" + pc.Region(),
		Reasons: []string{
			fmt.Sprintf("Price elasticity: %.2f", adjusted),
			"Demand impact: " + format.SignedPercent(demandChange, 1),
			"Revenue impact: " + format.SignedPercent(revenueChange, 1),
		},
	}

	a.logger.Debug("elasticity evaluated",
		zap.String("op", "agents.ElasticityAgent.Evaluate"),
		zap.String("segment", result.Segment),
		zap.Float64("elasticity", result.Elasticity),
		zap.Float64("demand_change_pct", result.DemandChangePct),
	)
	return result
}

// DemandCurve estimates quantity and revenue at each price, measured against
// the middle price of the list.
func (a *ElasticityAgent) DemandCurve(pc pricing.Context, prices []float64) []pricing.DemandPoint {
	if len(prices) == 0 {
		return nil
	}
	base := prices[len(prices)/2]
	points := make([]pricing.DemandPoint, 0, len(prices))
	for _, price := range prices {
		r := a.Evaluate(pc, base, price)
		points = append(points, pricing.DemandPoint{
			Price:    mathutil.Round(price),
			Quantity: r.NewQuantity,
			Revenue:  mathutil.Round(price * r.NewQuantity),
		})
	}
	return points
}
