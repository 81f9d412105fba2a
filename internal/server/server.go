// Package server exposes the pricing pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/pricing-advisor/internal/orchestrator"
	"github.com/iwvelando/pricing-advisor/internal/pricing"
	"github.com/iwvelando/pricing-advisor/pkg/constants"
	"github.com/iwvelando/pricing-advisor/pkg/validation"
	"go.uber.org/zap"
)

// Advisor is the pricing pipeline behind the handlers.
type Advisor interface {
	Recommend(ctx context.Context, req pricing.Request) (pricing.Recommendation, error)
	Score(ctx context.Context, req pricing.Request, proposedPrice float64) (pricing.ScoreResult, error)
	Curve(ctx context.Context, req pricing.Request) ([]pricing.CurvePoint, error)
	DemandCurve(ctx context.Context, req pricing.Request) ([]pricing.DemandPoint, error)
	Compare(ctx context.Context, req pricing.Request, fromPrice, toPrice float64) (orchestrator.Comparison, error)
	Batch(ctx context.Context, reqs []pricing.Request) orchestrator.BatchResult
	Agents() []string
	CachedRecommendations() int
}

// ModelStatus summarizes the loaded win-rate model for the health endpoint.
type ModelStatus struct {
	TrainedAt time.Time `json:"trained_at"`
	Trees     int       `json:"trees"`
	AUC       float64   `json:"auc"`
	Accuracy  float64   `json:"accuracy"`
}

// Options tune the handler.
type Options struct {
	MaxUploadSize  int64
	RequestTimeout time.Duration
	MaxBatch       int
	Version        string
	Model          ModelStatus
}

type handler struct {
	logger  *zap.Logger
	advisor Advisor
	opts    Options
}

// NewHandler constructs the HTTP handler for the pricing API.
func NewHandler(logger *zap.Logger, advisor Advisor, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = constants.DefaultMaxUploadSizeBytes
	}
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = constants.MaxBatchRequests
	}
	opts.Version = strings.TrimSpace(opts.Version)
	if opts.Version == "" {
		opts.Version = "dev"
	}

	h := &handler{logger: logger, advisor: advisor, opts: opts}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/recommend", h.handleRecommend)
	mux.HandleFunc("/api/score", h.handleScore)
	mux.HandleFunc("/api/curve", h.handleCurve)
	mux.HandleFunc("/api/demand-curve", h.handleDemandCurve)
	mux.HandleFunc("/api/compare", h.handleCompare)
	mux.HandleFunc("/api/batch", h.handleBatch)
	mux.HandleFunc("/api/feedback", h.handleFeedback)
	mux.HandleFunc("/api/version", h.handleVersion)
	mux.HandleFunc("/health", h.handleHealth)

	return h.logRequests(mux)
}

type scoreRequest struct {
	pricing.Request
	ProposedPrice float64 `json:"proposed_price"`
}

type compareRequest struct {
	pricing.Request
	FromPrice float64 `json:"from_price"`
	ToPrice   float64 `json:"to_price"`
}

type batchRequest struct {
	Requests []pricing.Request `json:"requests"`
}

type curveResponse struct {
	Curve []pricing.CurvePoint `json:"curve"`
}

type demandResponse struct {
	Demand []pricing.DemandPoint `json:"demand"`
}

type healthResponse struct {
	Status                string      `json:"status"`
	Version               string      `json:"version"`
	Agents                []string    `json:"agents"`
	Model                 ModelStatus `json:"model"`
	CachedRecommendations int         `json:"cached_recommendations"`
}

func (h *handler) handleRecommend(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleRecommend"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req pricing.Request
	if !h.decode(w, r, &req, op) {
		return
	}
	if err := validation.ValidateRequest(req); err != nil {
		h.respondError(w, err, op)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()
	rec, err := h.advisor.Recommend(ctx, req)
	if err != nil {
		h.respondError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

func (h *handler) handleScore(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleScore"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req scoreRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	if err := errors.Join(validation.ValidateRequest(req.Request), validation.ValidateProposedPrice(req.ProposedPrice)); err != nil {
		h.respondError(w, err, op)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()
	res, err := h.advisor.Score(ctx, req.Request, req.ProposedPrice)
	if err != nil {
		h.respondError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *handler) handleCurve(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCurve"
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	req, err := requestFromQuery(r.URL.Query())
	if err != nil {
		h.respondError(w, err, op)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()
	points, err := h.advisor.Curve(ctx, req)
	if err != nil {
		h.respondError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, curveResponse{Curve: points})
}

func (h *handler) handleDemandCurve(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDemandCurve"
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	req, err := requestFromQuery(r.URL.Query())
	if err != nil {
		h.respondError(w, err, op)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()
	points, err := h.advisor.DemandCurve(ctx, req)
	if err != nil {
		h.respondError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, demandResponse{Demand: points})
}

func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompare"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req compareRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	err := errors.Join(
		validation.ValidateRequest(req.Request),
		validation.ValidateProposedPrice(req.FromPrice),
		validation.ValidateProposedPrice(req.ToPrice),
	)
	if err != nil {
		h.respondError(w, err, op)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()
	res, err := h.advisor.Compare(ctx, req.Request, req.FromPrice, req.ToPrice)
	if err != nil {
		h.respondError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleBatch"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req batchRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	if err := validation.ValidateBatchSize(len(req.Requests), h.opts.MaxBatch); err != nil {
		h.respondError(w, err, op)
		return
	}

	// Batches carry their own per-item errors and are not bound by the
	// single-request timeout.
	res := h.advisor.Batch(r.Context(), req.Requests)
	h.writeJSON(w, http.StatusOK, res)
}

func (h *handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleFeedback"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var payload map[string]any
	if !h.decode(w, r, &payload, op) {
		return
	}
	h.logger.Info("quote feedback received",
		zap.String("op", op),
		zap.Any("feedback", payload),
	)
	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "received"})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.opts.Version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	h.writeJSON(w, http.StatusOK, healthResponse{
		Status:                "ok",
		Version:               h.opts.Version,
		Agents:                h.advisor.Agents(),
		Model:                 h.opts.Model,
		CachedRecommendations: h.advisor.CachedRecommendations(),
	})
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (h *handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.opts.RequestTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.opts.RequestTimeout)
}

// decode reads a JSON body into dst, writing the error response itself on failure.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst any, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadSize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.opts.MaxUploadSize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

// requestFromQuery builds a request from curve query parameters.
func requestFromQuery(q url.Values) (pricing.Request, error) {
	req := pricing.Request{
		SKU:        q.Get("sku"),
		CustomerID: q.Get("customer_id"),
		Country:    q.Get("country"),
		Channel:    q.Get("channel"),
		Currency:   q.Get("currency"),
	}
	if raw := q.Get("quantity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return pricing.Request{}, fmt.Errorf("%w: quantity %q is not an integer", pricing.ErrInvalidRequest, raw)
		}
		req.Quantity = n
	}
	if err := validation.ValidateRequest(req); err != nil {
		return pricing.Request{}, err
	}
	return req, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, pricing.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, orchestrator.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) respondError(w http.ResponseWriter, err error, op string) {
	h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("pricing request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)
	h.writeJSON(w, status, pricing.ErrorResult{Error: msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.String("op", "server.writeJSON"), zap.Error(err))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Debug("request served",
			zap.String("op", "server.logRequests"),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// Run serves handler on cfg.Address until ctx is cancelled, then shuts down
// gracefully within the configured shutdown timeout.
func Run(ctx context.Context, logger *zap.Logger, cfg *Config, handler http.Handler) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeoutDuration(),
		WriteTimeout: cfg.WriteTimeoutDuration(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("pricing API listening",
			zap.String("op", "server.Run"),
			zap.String("address", cfg.Address),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen on %s: %w", cfg.Address, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down pricing API", zap.String("op", "server.Run"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeoutDuration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
