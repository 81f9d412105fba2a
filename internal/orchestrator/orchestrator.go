// Package orchestrator drives the pricing pipeline: enrichment, policy
// bounds, the candidate grid search, final agent evaluation, explanation and
// confidence scoring.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/iwvelando/pricing-advisor/internal/agents"
	"github.com/iwvelando/pricing-advisor/internal/pricing"
	"github.com/iwvelando/pricing-advisor/internal/refdata"
	"github.com/iwvelando/pricing-advisor/pkg/constants"
	"go.uber.org/zap"
)

var (
	// ErrPipeline wraps a failure recovered inside the pipeline.
	ErrPipeline = errors.New("pricing pipeline failed")

	// ErrModelUnavailable is returned when no win-rate classifier is loaded.
	ErrModelUnavailable = errors.New("win-rate model unavailable")
)

// Options tune concurrency and caching.
type Options struct {
	// GridWorkers bounds concurrent candidate evaluations; 1 is sequential.
	GridWorkers int
	// BatchWorkers bounds concurrent requests in Batch.
	BatchWorkers int
	// CacheSize is the number of cached recommendations; 0 disables caching.
	CacheSize int
	CacheTTL  time.Duration
}

// Orchestrator coordinates the agents. It holds no per-request state and is
// safe for concurrent use.
type Orchestrator struct {
	enricher   *pricing.Enricher
	policy     *agents.PolicyAgent
	elasticity *agents.ElasticityAgent
	winrate    *agents.WinRateAgent
	explainer  *agents.ExplanationAgent
	cache      *resultCache
	opts       Options
	logger     *zap.Logger
}

// New wires the agents around gateway and clf.
func New(logger *zap.Logger, gateway refdata.Gateway, clf agents.Classifier, opts Options) (*Orchestrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gateway == nil {
		return nil, errors.New("reference data gateway is required")
	}
	if clf == nil {
		return nil, ErrModelUnavailable
	}
	if opts.GridWorkers <= 0 {
		opts.GridWorkers = 1
	}
	if opts.BatchWorkers <= 0 {
		opts.BatchWorkers = constants.DefaultBatchWorkers
	}

	o := &Orchestrator{
		enricher:   pricing.NewEnricher(logger, gateway),
		policy:     agents.NewPolicyAgent(logger, gateway),
		elasticity: agents.NewElasticityAgent(logger),
		winrate:    agents.NewWinRateAgent(logger, clf),
		explainer:  agents.NewExplanationAgent(logger),
		opts:       opts,
		logger:     logger,
	}
	if opts.CacheSize > 0 && opts.CacheTTL > 0 {
		o.cache = newResultCache(opts.CacheSize, opts.CacheTTL, time.Now)
	}
	return o, nil
}

// Agents returns the agent names in pipeline order.
func (o *Orchestrator) Agents() []string {
	return agents.Names(o.policy, o.elasticity, o.winrate, o.explainer)
}

// guard converts a panic inside fn into an ErrPipeline error.
func (o *Orchestrator) guard(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("recovered pipeline panic",
				zap.String("op", op),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			err = fmt.Errorf("%w: %v", ErrPipeline, r)
		}
	}()
	return fn()
}

// prepare enriches req and computes its policy bounds.
func (o *Orchestrator) prepare(ctx context.Context, req pricing.Request) (pricing.Context, pricing.PolicyBounds, error) {
	pc, err := o.enricher.Enrich(ctx, req)
	if err != nil {
		return pricing.Context{}, pricing.PolicyBounds{}, fmt.Errorf("enrich request: %w", err)
	}
	bounds, err := o.policy.Bounds(ctx, pc)
	if err != nil {
		return pricing.Context{}, pricing.PolicyBounds{}, fmt.Errorf("policy bounds: %w", err)
	}
	return pc, bounds, nil
}
