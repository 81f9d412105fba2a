package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/pricing-advisor/internal/orchestrator"
	"github.com/iwvelando/pricing-advisor/internal/pricing"
	"github.com/iwvelando/pricing-advisor/internal/refdata"
	"github.com/iwvelando/pricing-advisor/internal/winmodel"
	"go.uber.org/zap"
)

type stubClassifier struct {
	p     float64
	panic bool
}

func (s stubClassifier) WinProbability(winmodel.Features) float64 {
	if s.panic {
		panic("corrupt forest")
	}
	return s.p
}

func (s stubClassifier) TopFeatures(int) []winmodel.Importance { return nil }

func newTestHandler(t *testing.T, clf stubClassifier, opts Options) http.Handler {
	t.Helper()
	gateway := refdata.NewSnapshot(refdata.Tables{})
	o, err := orchestrator.New(zap.NewNop(), gateway, clf, orchestrator.Options{})
	if err != nil {
		t.Fatalf("orchestrator.New() error: %v", err)
	}
	return NewHandler(zap.NewNop(), o, opts)
}

const validRequest = `{"sku":"SKU-1","customer_id":"C1","quantity":10,"country":"DE","channel":"Direct","currency":"EUR"}`

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
}

func TestHandleRecommendSuccess(t *testing.T) {
	h := newTestHandler(t, stubClassifier{p: 0.5}, Options{})
	rr := do(t, h, http.MethodPost, "/api/recommend", validRequest)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var rec pricing.Recommendation
	decodeBody(t, rr, &rec)
	if rec.Floor != 88 || rec.Target != 160 {
		t.Fatalf("floor/target = %v/%v, want 88/160", rec.Floor, rec.Target)
	}
	if len(rec.Reasons) != 3 {
		t.Fatalf("expected three reasons, got %q", rec.Reasons)
	}
}

func TestHandleRecommendErrors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   string
		opts   Options
		status int
		want   string
	}{
		{"wrong method", http.MethodGet, "", Options{}, http.StatusMethodNotAllowed, ""},
		{"malformed json", http.MethodPost, `{"sku":`, Options{}, http.StatusBadRequest, "failed to decode request"},
		{"invalid request", http.MethodPost, `{"sku":"SKU-1","customer_id":"C1","quantity":0}`, Options{}, http.StatusBadRequest, "quantity must be at least 1"},
		{"too large", http.MethodPost, validRequest, Options{MaxUploadSize: 16}, http.StatusRequestEntityTooLarge, "exceeds limit of 16 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, stubClassifier{p: 0.5}, tt.opts)
			rr := do(t, h, tt.method, "/api/recommend", tt.body)
			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
			if tt.want == "" {
				return
			}
			var res pricing.ErrorResult
			decodeBody(t, rr, &res)
			if !strings.Contains(res.Error, tt.want) {
				t.Fatalf("error %q should contain %q", res.Error, tt.want)
			}
		})
	}
}

func TestHandleRecommendPipelineFailure(t *testing.T) {
	h := newTestHandler(t, stubClassifier{panic: true}, Options{})
	rr := do(t, h, http.MethodPost, "/api/recommend", validRequest)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
	var res pricing.ErrorResult
	decodeBody(t, rr, &res)
	if !strings.Contains(res.Error, orchestrator.ErrPipeline.Error()) {
		t.Fatalf("unexpected error payload %q", res.Error)
	}
}

func TestHandleScore(t *testing.T) {
	h := newTestHandler(t, stubClassifier{p: 0.6}, Options{})

	body := strings.TrimSuffix(validRequest, "}") + `,"proposed_price":75}`
	rr := do(t, h, http.MethodPost, "/api/score", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var res pricing.ScoreResult
	decodeBody(t, rr, &res)
	if res.ApprovalBand != pricing.Reject || res.PWin != 0.6 {
		t.Fatalf("unexpected score %+v", res)
	}

	rr = do(t, h, http.MethodPost, "/api/score", validRequest)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing proposed_price should be rejected, got %d", rr.Code)
	}
}

func TestHandleCurves(t *testing.T) {
	h := newTestHandler(t, stubClassifier{p: 0.5}, Options{})
	query := "?sku=SKU-1&customer_id=C1&quantity=10&channel=Direct"

	rr := do(t, h, http.MethodGet, "/api/curve"+query, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var curve curveResponse
	decodeBody(t, rr, &curve)
	if len(curve.Curve) != 15 || curve.Curve[0].Price != 88 {
		t.Fatalf("unexpected curve %+v", curve.Curve)
	}

	rr = do(t, h, http.MethodGet, "/api/demand-curve"+query, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var demand demandResponse
	decodeBody(t, rr, &demand)
	if len(demand.Demand) != 15 {
		t.Fatalf("unexpected demand curve %+v", demand.Demand)
	}

	for _, bad := range []string{"?sku=SKU-1&customer_id=C1&quantity=ten", "?customer_id=C1&quantity=1"} {
		rr = do(t, h, http.MethodGet, "/api/curve"+bad, "")
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("query %q: expected status 400, got %d", bad, rr.Code)
		}
	}
	if rr = do(t, h, http.MethodPost, "/api/curve", validRequest); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rr.Code)
	}
	if got := rr.Header().Get("Allow"); got != http.MethodGet {
		t.Fatalf("Allow = %q, want GET", got)
	}
}

func TestHandleCompare(t *testing.T) {
	h := newTestHandler(t, stubClassifier{p: 0.5}, Options{})
	body := strings.TrimSuffix(validRequest, "}") + `,"from_price":100,"to_price":120}`
	rr := do(t, h, http.MethodPost, "/api/compare", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var res orchestrator.Comparison
	decodeBody(t, rr, &res)
	if res.From.TargetPrice != 100 || res.To.TargetPrice != 120 || res.Summary == "" {
		t.Fatalf("unexpected comparison %+v", res)
	}
}

func TestHandleBatch(t *testing.T) {
	h := newTestHandler(t, stubClassifier{p: 0.5}, Options{MaxBatch: 2})

	rr := do(t, h, http.MethodPost, "/api/batch", `{"requests":[`+validRequest+`,{"sku":"SKU-1"}]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var res orchestrator.BatchResult
	decodeBody(t, rr, &res)
	if res.Completed != 1 || res.Failed != 1 || res.JobID == "" {
		t.Fatalf("unexpected batch result %+v", res)
	}
	if res.Items[1].Error == "" {
		t.Fatalf("second item should carry an error: %+v", res.Items[1])
	}

	tooMany := fmt.Sprintf(`{"requests":[%s,%s,%s]}`, validRequest, validRequest, validRequest)
	for _, body := range []string{`{"requests":[]}`, tooMany} {
		if rr := do(t, h, http.MethodPost, "/api/batch", body); rr.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
		}
	}
}

func TestHandleHealthAndVersion(t *testing.T) {
	trained := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newTestHandler(t, stubClassifier{p: 0.5}, Options{Version: " 1.4.0 ", Model: ModelStatus{TrainedAt: trained, Trees: 100, AUC: 0.81}})

	rr := do(t, h, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var health healthResponse
	decodeBody(t, rr, &health)
	if health.Status != "ok" || health.Version != "1.4.0" || len(health.Agents) != 4 {
		t.Fatalf("unexpected health %+v", health)
	}
	if !health.Model.TrainedAt.Equal(trained) || health.Model.Trees != 100 {
		t.Fatalf("unexpected model status %+v", health.Model)
	}

	rr = do(t, newTestHandler(t, stubClassifier{p: 0.5}, Options{}), http.MethodGet, "/api/version", "")
	var version map[string]string
	decodeBody(t, rr, &version)
	if version["version"] != "dev" {
		t.Fatalf("expected default version dev, got %q", version["version"])
	}
}

func TestHandleFeedback(t *testing.T) {
	h := newTestHandler(t, stubClassifier{p: 0.5}, Options{})
	rr := do(t, h, http.MethodPost, "/api/feedback", `{"quote_id":"Q-1","won":true}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", rr.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", pricing.ErrInvalidRequest), http.StatusBadRequest},
		{orchestrator.ErrModelUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("enrich: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{fmt.Errorf("%w: boom", orchestrator.ErrPipeline), http.StatusInternalServerError},
		{errors.New("database is locked"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	cfg.SetAddress("127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, zap.NewNop(), cfg, http.NotFoundHandler())
	}()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
}

func TestRunReportsListenError(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	cfg.SetAddress("127.0.0.1:99999")

	if err := Run(context.Background(), nil, cfg, http.NotFoundHandler()); err == nil {
		t.Fatal("Run() expected a listen error")
	}
}

func TestWriteJSONEncodesPayload(t *testing.T) {
	h := &handler{logger: zap.NewNop()}
	rr := httptest.NewRecorder()
	h.writeJSON(rr, http.StatusCreated, map[string]int{"n": 1})
	if rr.Code != http.StatusCreated || !bytes.Contains(rr.Body.Bytes(), []byte(`"n":1`)) {
		t.Fatalf("unexpected response %d %q", rr.Code, rr.Body.String())
	}
}
