package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/pricing-advisor/internal/pricing"
	"github.com/iwvelando/pricing-advisor/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchItem is the outcome of one request in a batch.
type BatchItem struct {
	Index          int                     `json:"request_index"`
	Request        pricing.Request         `json:"request"`
	Recommendation *pricing.Recommendation `json:"recommendation,omitempty"`
	Error          string                  `json:"error,omitempty"`
}

// BatchResult summarises a bulk pricing job. Items keep request order.
type BatchResult struct {
	JobID            string      `json:"job_id"`
	Items            []BatchItem `json:"items"`
	Completed        int         `json:"completed"`
	Failed           int         `json:"failed"`
	ProcessingMillis int64       `json:"processing_time_ms"`
}

// Batch recommends prices for independent requests concurrently. A failing
// item is recorded with its error and does not stop the others.
func (o *Orchestrator) Batch(ctx context.Context, reqs []pricing.Request) BatchResult {
	start := time.Now()
	result := BatchResult{
		JobID: uuid.NewString(),
		Items: make([]BatchItem, len(reqs)),
	}

	var g errgroup.Group
	g.SetLimit(o.opts.BatchWorkers)
	for i, req := range reqs {
		g.Go(func() error {
			item := BatchItem{Index: i, Request: req}
			if err := validation.ValidateRequest(req); err != nil {
				item.Error = err.Error()
			} else if err := ctx.Err(); err != nil {
				item.Error = err.Error()
			} else if rec, err := o.Recommend(ctx, req); err != nil {
				item.Error = err.Error()
			} else {
				item.Recommendation = &rec
			}
			result.Items[i] = item
			return nil
		})
	}
	_ = g.Wait()

	for _, item := range result.Items {
		if item.Error != "" {
			result.Failed++
		} else {
			result.Completed++
		}
	}
	result.ProcessingMillis = time.Since(start).Milliseconds()

	o.logger.Info("batch complete",
		zap.String("op", "orchestrator.Batch"),
		zap.String("job_id", result.JobID),
		zap.Int("completed", result.Completed),
		zap.Int("failed", result.Failed),
		zap.Int64("processing_ms", result.ProcessingMillis),
	)
	return result
}
