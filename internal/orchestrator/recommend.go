package orchestrator

import (
	"context"
	"fmt"
	"math"

	"github.com/iwvelando/pricing-advisor/internal/agents"
	"github.com/iwvelando/pricing-advisor/internal/pricing"
	"github.com/iwvelando/pricing-advisor/pkg/constants"
	"github.com/iwvelando/pricing-advisor/pkg/format"
	"github.com/iwvelando/pricing-advisor/pkg/mathutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Recommend searches the policy price range for the floor, target and
// stretch prices of req.
func (o *Orchestrator) Recommend(ctx context.Context, req pricing.Request) (pricing.Recommendation, error) {
	key := cacheKey(req)
	if rec, ok := o.cache.get(key); ok {
		rec.Cached = true
		o.logger.Debug("recommendation served from cache",
			zap.String("op", "orchestrator.Recommend"),
			zap.String("key", key),
		)
		return rec, nil
	}

	var rec pricing.Recommendation
	err := o.guard("orchestrator.Recommend", func() error {
		var err error
		rec, err = o.recommend(ctx, req)
		return err
	})
	if err != nil {
		return pricing.Recommendation{}, err
	}
	o.cache.put(key, rec)
	return rec, nil
}

func (o *Orchestrator) recommend(ctx context.Context, req pricing.Request) (pricing.Recommendation, error) {
	pc, bounds, err := o.prepare(ctx, req)
	if err != nil {
		return pricing.Recommendation{}, err
	}

	grid := mathutil.Linspace(bounds.FloorPrice, bounds.CeilingPrice, constants.GridSize)
	candidates, err := o.evaluateGrid(ctx, pc, grid)
	if err != nil {
		return pricing.Recommendation{}, err
	}

	best := selectTarget(candidates)
	target := best.Price
	stretch := selectStretch(candidates, bounds.CeilingPrice)

	finalWin := o.winrate.Predict(pc, target)
	finalElasticity := o.elasticity.Evaluate(pc, target, target)
	band := agents.Band(target, pc.COGS(), bounds)

	in := agents.NewExplanationInput(pc)
	in.Floor = bounds.FloorPrice
	in.Target = target
	in.Stretch = stretch
	in.WinProbability = finalWin.WinProbability
	in.Elasticity = finalElasticity.Elasticity
	in.ApprovalBand = band
	exp := o.explainer.Explain(in)

	rec := pricing.Recommendation{
		Floor:        mathutil.Round(bounds.FloorPrice),
		Target:       mathutil.Round(target),
		Stretch:      mathutil.Round(stretch),
		PWinAtTarget: finalWin.WinProbability,
		Reasons: []string{
			exp.Text,
			"Expected margin optimization: " + format.Currency(best.ExpectedMargin),
			fmt.Sprintf("Policy compliance: %s", band),
		},
		AgentInsights: pricing.AgentInsights{
			Rules:       bounds.Reasons,
			WinRate:     finalWin.Reasons,
			Elasticity:  finalElasticity.Reasons,
			Explanation: exp.KeyInsights,
		},
		ConfidenceScore: Confidence(finalWin.WinProbability, finalElasticity.Elasticity, bounds),
		Recommendations: exp.Recommendations,
		TalkingPoints:   o.explainer.TalkingPoints(in),
	}

	o.logger.Info("recommendation complete",
		zap.String("op", "orchestrator.Recommend"),
		zap.String("sku", req.SKU),
		zap.String("customer_id", req.CustomerID),
		zap.Float64("target", rec.Target),
		zap.Float64("p_win", rec.PWinAtTarget),
		zap.String("confidence", string(rec.ConfidenceScore)),
	)
	return rec, nil
}

// evaluateGrid scores every grid price. Results are stored by grid index so
// the outcome does not depend on evaluation order.
func (o *Orchestrator) evaluateGrid(ctx context.Context, pc pricing.Context, grid []float64) ([]pricing.Candidate, error) {
	candidates := make([]pricing.Candidate, len(grid))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.GridWorkers)
	for i, price := range grid {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: candidate %.2f: %v", ErrPipeline, price, r)
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			candidates[i] = o.evaluateCandidate(pc, price)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluate candidates: %w", err)
	}
	return candidates, nil
}

func (o *Orchestrator) evaluateCandidate(pc pricing.Context, price float64) pricing.Candidate {
	win := o.winrate.Predict(pc, price)
	el := o.elasticity.Evaluate(pc, price, price)
	margin := price - pc.COGS()
	return pricing.Candidate{
		Price:           price,
		WinProbability:  win.WinProbability,
		ExpectedMargin:  margin * win.WinProbability,
		Margin:          margin,
		ElasticityScore: el.RevenueChangePct,
	}
}

// selectTarget returns the first candidate with the highest expected margin.
func selectTarget(candidates []pricing.Candidate) pricing.Candidate {
	var best pricing.Candidate
	for i, c := range candidates {
		if i == 0 || c.ExpectedMargin > best.ExpectedMargin {
			best = c
		}
	}
	return best
}

// selectStretch returns the highest price still considered viable, or the
// ceiling when no candidate is.
func selectStretch(candidates []pricing.Candidate, ceiling float64) float64 {
	stretch, found := 0.0, false
	for _, c := range candidates {
		if c.WinProbability > constants.ViabilityThreshold && (!found || c.Price > stretch) {
			stretch, found = c.Price, true
		}
	}
	if !found {
		return ceiling
	}
	return stretch
}

// Confidence averages the win-probability tier, elasticity stability and
// policy presence factors.
func Confidence(pWin, elasticity float64, bounds pricing.PolicyBounds) pricing.Confidence {
	var winFactor float64
	switch {
	case pWin > 0.6:
		winFactor = 1.0
	case pWin > 0.4:
		winFactor = 0.7
	default:
		winFactor = 0.3
	}

	stability := 0.5
	if math.Abs(mathutil.RoundTo(elasticity, constants.ElasticityPlaces)) < 2.0 {
		stability = 0.9
	}

	policy := 0.6
	if bounds.HasBand(pricing.Approved) {
		policy = 1.0
	}

	avg := mathutil.Mean([]float64{winFactor, stability, policy})
	switch {
	case avg > 0.8:
		return pricing.ConfidenceHigh
	case avg > 0.6:
		return pricing.ConfidenceMedium
	default:
		return pricing.ConfidenceLow
	}
}

// Score evaluates all agents at a caller-supplied price without a grid search.
func (o *Orchestrator) Score(ctx context.Context, req pricing.Request, proposedPrice float64) (pricing.ScoreResult, error) {
	var res pricing.ScoreResult
	err := o.guard("orchestrator.Score", func() error {
		pc, bounds, err := o.prepare(ctx, req)
		if err != nil {
			return err
		}

		win := o.winrate.Predict(pc, proposedPrice)
		// Demand impact is measured against the lowest compliant quote.
		el := o.elasticity.Evaluate(pc, bounds.FloorPrice, proposedPrice)
		band := agents.Band(proposedPrice, pc.COGS(), bounds)
		expected := (proposedPrice - pc.COGS()) * win.WinProbability

		in := agents.NewExplanationInput(pc)
		in.Floor = bounds.FloorPrice
		in.Target = proposedPrice
		in.WinProbability = win.WinProbability
		in.Elasticity = el.Elasticity
		in.ApprovalBand = band
		exp := o.explainer.Explain(in)

		res = pricing.ScoreResult{
			PWin:           win.WinProbability,
			ExpectedMargin: mathutil.Round(expected),
			ApprovalBand:   band,
			Reasons: []string{
				exp.Text,
				"ML win probability: " + format.Percent(win.WinProbability, 0),
				"Elasticity impact: " + format.SignedPercent(el.DemandChangePct, 1),
			},
			AgentInsights: pricing.AgentInsights{
				Rules:      bounds.Reasons,
				WinRate:    win.Reasons,
				Elasticity: el.Reasons,
			},
		}
		return nil
	})
	if err != nil {
		return pricing.ScoreResult{}, err
	}
	return res, nil
}

// Curve returns win probabilities over an ascending grid spanning the policy
// price range.
func (o *Orchestrator) Curve(ctx context.Context, req pricing.Request) ([]pricing.CurvePoint, error) {
	var points []pricing.CurvePoint
	err := o.guard("orchestrator.Curve", func() error {
		pc, bounds, err := o.prepare(ctx, req)
		if err != nil {
			return err
		}
		points = o.winrate.Curve(pc, mathutil.Linspace(bounds.FloorPrice, bounds.CeilingPrice, constants.CurveSize))
		return nil
	})
	return points, err
}

// DemandCurve returns estimated demand over the same grid as Curve.
func (o *Orchestrator) DemandCurve(ctx context.Context, req pricing.Request) ([]pricing.DemandPoint, error) {
	var points []pricing.DemandPoint
	err := o.guard("orchestrator.DemandCurve", func() error {
		pc, bounds, err := o.prepare(ctx, req)
		if err != nil {
			return err
		}
		points = o.elasticity.DemandCurve(pc, mathutil.Linspace(bounds.FloorPrice, bounds.CeilingPrice, constants.CurveSize))
		return nil
	})
	return points, err
}

// Comparison contrasts two candidate prices for the same request.
type Comparison struct {
	From    agents.Scenario `json:"from"`
	To      agents.Scenario `json:"to"`
	Summary string          `json:"summary"`
}

// Compare predicts both prices and describes the win-probability trade-off.
func (o *Orchestrator) Compare(ctx context.Context, req pricing.Request, fromPrice, toPrice float64) (Comparison, error) {
	var cmp Comparison
	err := o.guard("orchestrator.Compare", func() error {
		pc, err := o.enricher.Enrich(ctx, req)
		if err != nil {
			return fmt.Errorf("enrich request: %w", err)
		}
		cmp.From = agents.Scenario{TargetPrice: mathutil.Round(fromPrice), WinProbability: o.winrate.Predict(pc, fromPrice).WinProbability}
		cmp.To = agents.Scenario{TargetPrice: mathutil.Round(toPrice), WinProbability: o.winrate.Predict(pc, toPrice).WinProbability}
		cmp.Summary = o.explainer.Compare(cmp.From, cmp.To)
		return nil
	})
	if err != nil {
		return Comparison{}, err
	}
	return cmp, nil
}
