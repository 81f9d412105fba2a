// Package pricing holds the per-request records that flow through the
// pricing pipeline and the enricher that builds a Context from a Request.
package pricing

import (
	"errors"
	"slices"
)

// ErrInvalidRequest is returned when a request fails boundary validation.
var ErrInvalidRequest = errors.New("invalid pricing request")

// Request is a raw quote request.
type Request struct {
	SKU        string `json:"sku"`
	CustomerID string `json:"customer_id"`
	Quantity   int    `json:"quantity"`
	Country    string `json:"country"`
	Channel    string `json:"channel"`
	Currency   string `json:"currency"`
}

// ApprovalBand is the policy compliance classification of a price.
type ApprovalBand string

// Approval bands.
const (
	Approved ApprovalBand = "APPROVED"
	Review   ApprovalBand = "REVIEW"
	Reject   ApprovalBand = "REJECT"
)

// DefaultApprovalBands returns the band list used when no policy row applies.
func DefaultApprovalBands() []ApprovalBand {
	return []ApprovalBand{Approved, Review, Reject}
}

// Confidence is the overall confidence rating of a recommendation.
type Confidence string

// Confidence ratings.
const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// PolicyBounds are the price limits derived from margin policy.
type PolicyBounds struct {
	FloorPrice    float64        `json:"floor_price"`
	CeilingPrice  float64        `json:"ceiling_price"`
	MinMarginPct  float64        `json:"min_margin_pct"`
	CeilingPct    float64        `json:"ceiling_pct"`
	ApprovalBands []ApprovalBand `json:"approval_bands"`
	PolicySource  string         `json:"policy_source"`
	Reasons       []string       `json:"reasons"`
}

// HasBand reports whether band is among the configured approval bands.
func (b PolicyBounds) HasBand(band ApprovalBand) bool {
	for _, configured := range b.ApprovalBands {
		if configured == band {
			return true
		}
	}
	return false
}

// Candidate is one evaluated grid price.
type Candidate struct {
	Price           float64 `json:"price"`
	WinProbability  float64 `json:"win_probability"`
	ExpectedMargin  float64 `json:"expected_margin"`
	Margin          float64 `json:"margin"`
	ElasticityScore float64 `json:"elasticity_score"`
}

// AgentInsights collects the reason lists each agent reported.
type AgentInsights struct {
	Rules       []string `json:"rules"`
	WinRate     []string `json:"winrate"`
	Elasticity  []string `json:"elasticity"`
	Explanation []string `json:"explanation,omitempty"`
}

// Clone returns a copy of i that shares no slices with it.
func (i AgentInsights) Clone() AgentInsights {
	return AgentInsights{
		Rules:       slices.Clone(i.Rules),
		WinRate:     slices.Clone(i.WinRate),
		Elasticity:  slices.Clone(i.Elasticity),
		Explanation: slices.Clone(i.Explanation),
	}
}

// Recommendation is the orchestrator's answer for a quote request.
type Recommendation struct {
	Floor           float64       `json:"floor"`
	Target          float64       `json:"target"`
	Stretch         float64       `json:"stretch"`
	PWinAtTarget    float64       `json:"p_win_at_target"`
	Reasons         []string      `json:"reasons"`
	AgentInsights   AgentInsights `json:"agent_insights"`
	ConfidenceScore Confidence    `json:"confidence_score"`
	Recommendations []string      `json:"recommendations,omitempty"`
	TalkingPoints   []string      `json:"talking_points,omitempty"`
	Cached          bool          `json:"cached"`
}

// Clone returns a copy of r that shares no slices with it.
func (r Recommendation) Clone() Recommendation {
	r.Reasons = slices.Clone(r.Reasons)
	r.AgentInsights = r.AgentInsights.Clone()
	r.Recommendations = slices.Clone(r.Recommendations)
	r.TalkingPoints = slices.Clone(r.TalkingPoints)
	return r
}

// ScoreResult is the evaluation of a single caller-supplied price.
type ScoreResult struct {
	PWin           float64       `json:"p_win"`
	ExpectedMargin float64       `json:"expected_margin"`
	ApprovalBand   ApprovalBand  `json:"approval_band"`
	Reasons        []string      `json:"reasons"`
	AgentInsights  AgentInsights `json:"agent_insights"`
}

// CurvePoint is a win probability at one price.
type CurvePoint struct {
	Price float64 `json:"price"`
	PWin  float64 `json:"p_win"`
}

// DemandPoint is the estimated demand and revenue at one price.
type DemandPoint struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

// ErrorResult is the structured form of a failed pipeline call.
type ErrorResult struct {
	Error string `json:"error"`
}
