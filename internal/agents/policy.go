package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/iwvelando/pricing-advisor/internal/pricing"
	"github.com/iwvelando/pricing-advisor/internal/refdata"
	"github.com/iwvelando/pricing-advisor/pkg/constants"
	"github.com/iwvelando/pricing-advisor/pkg/mathutil"
	"go.uber.org/zap"
)

// PolicyLookup resolves the margin policy for a region and product family.
// refdata.Gateway satisfies it.
type PolicyLookup interface {
	Policy(ctx context.Context, region, family string) (refdata.Policy, bool, error)
}

// PolicyAgent derives price bounds and approval bands from margin policy.
type PolicyAgent struct {
	policies PolicyLookup
	logger   *zap.Logger
}

// NewPolicyAgent returns a PolicyAgent reading policy rows from policies.
func NewPolicyAgent(logger *zap.Logger, policies PolicyLookup) *PolicyAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PolicyAgent{policies: policies, logger: logger}
}

func (a *PolicyAgent) Name() string { return PolicyAgentName }
func (a *PolicyAgent) sealed()      {}

type bandsDocument struct {
	Bands []pricing.ApprovalBand `json:"bands"`
}

// Bounds computes floor and ceiling prices for pc. A missing policy row or
// unreadable band list falls back to the default policy.
func (a *PolicyAgent) Bounds(ctx context.Context, pc pricing.Context) (pricing.PolicyBounds, error) {
	minMargin := constants.DefaultMinMarginPct
	ceilingPct := constants.DefaultCeilingPct
	bands := pricing.DefaultApprovalBands()

	row, found, err := a.policies.Policy(ctx, pc.Region(), pc.ProductFamily())
	if err != nil {
		return pricing.PolicyBounds{}, fmt.Errorf("policy lookup: %w", err)
	}
	if found {
		minMargin = row.MinMarginPct
		ceilingPct = row.CeilingPct
		var doc bandsDocument
		if err := json.Unmarshal([]byte(row.ApprovalBandsJSON), &doc); err != nil || doc.Bands == nil {
			a.logger.Debug("unreadable approval bands, using defaults",
				zap.String("op", "agents.PolicyAgent.Bounds"),
				zap.String("region", pc.Region()),
				zap.String("family", pc.ProductFamily()),
			)
		} else {
			bands = doc.Bands
		}
	}

	cogs := pc.COGS()
	bounds := pricing.PolicyBounds{
		FloorPrice:    mathutil.Round(cogs * (1 + minMargin)),
		CeilingPrice:  mathutil.Round(cogs * ceilingPct),
		MinMarginPct:  minMargin,
		CeilingPct:    ceilingPct,
		ApprovalBands: bands,
		PolicySource:  pc.Region() + "-" + pc.ProductFamily(),
		Reasons: []string{
			fmt.Sprintf("Policy floor: %.1f%% margin", minMargin*100),
			fmt.Sprintf("Policy ceiling: %sx COGS", multiplier(ceilingPct)),
		},
	}

	a.logger.Debug("policy bounds computed",
		zap.String("op", "agents.PolicyAgent.Bounds"),
		zap.String("source", bounds.PolicySource),
		zap.Bool("policy_found", found),
		zap.Float64("floor", bounds.FloorPrice),
		zap.Float64("ceiling", bounds.CeilingPrice),
	)
	return bounds, nil
}

// ApprovalBand recomputes the bounds for pc and classifies price.
func (a *PolicyAgent) ApprovalBand(ctx context.Context, price, cogs float64, pc pricing.Context) (pricing.ApprovalBand, error) {
	bounds, err := a.Bounds(ctx, pc)
	if err != nil {
		return "", err
	}
	return Band(price, cogs, bounds), nil
}

// Band classifies price against already computed bounds: REJECT below the
// minimum margin, APPROVED up to the ceiling, REVIEW above it.
func Band(price, cogs float64, bounds pricing.PolicyBounds) pricing.ApprovalBand {
	switch {
	case mathutil.SafeRatio(price, cogs) < bounds.MinMarginPct:
		return pricing.Reject
	case price <= bounds.CeilingPrice:
		return pricing.Approved
	default:
		return pricing.Review
	}
}

// multiplier prints a ratio with at least one decimal (2 -> "2.0", 1.75 -> "1.75").
func multiplier(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
