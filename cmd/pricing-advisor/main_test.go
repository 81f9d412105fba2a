package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/iwvelando/pricing-advisor/internal/config"
	"github.com/iwvelando/pricing-advisor/internal/orchestrator"
	"github.com/iwvelando/pricing-advisor/internal/pricing"
	"github.com/iwvelando/pricing-advisor/pkg/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeTestConfig writes a config whose data section is data, or the sample
// CSV directory when data is empty.
func writeTestConfig(t *testing.T, dir, data string) string {
	t.Helper()
	if data == "" {
		data = fmt.Sprintf("  dir: %q\n", testutil.SampleDataDir())
	}
	contents := fmt.Sprintf(`logging:
  level: error
data:
%smodel:
  path: %q
  trees: 10
  maxDepth: 5
`, data, filepath.Join(dir, "model.json"))
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func decodeJSON(t *testing.T, out string, dst any) {
	t.Helper()
	if err := json.Unmarshal([]byte(out), dst); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
}

func TestCommandsEndToEnd(t *testing.T) {
	dir := t.TempDir()
	conf := writeTestConfig(t, dir, "")
	quote := []string{"--sku", "SKU-1001", "--customer", "C001", "-q", "10", "--country", "DE"}

	out, err := execute(t, "train", "-c", conf, "-o", "json")
	if err != nil {
		t.Fatalf("train error: %v", err)
	}
	var report trainReport
	decodeJSON(t, out, &report)
	if report.Trees != 10 || report.Metrics.TestRows == 0 {
		t.Fatalf("unexpected training report %+v", report)
	}
	if _, err := os.Stat(filepath.Join(dir, "model.json")); err != nil {
		t.Fatalf("model artifact not written: %v", err)
	}

	out, err = execute(t, append([]string{"recommend", "-c", conf, "-o", "json"}, quote...)...)
	if err != nil {
		t.Fatalf("recommend error: %v", err)
	}
	var rec pricing.Recommendation
	decodeJSON(t, out, &rec)
	if rec.Target < rec.Floor || rec.Stretch < rec.Floor {
		t.Fatalf("target/stretch below floor: %+v", rec)
	}

	out, err = execute(t, append([]string{"recommend", "-c", conf}, quote...)...)
	if err != nil {
		t.Fatalf("pretty recommend error: %v", err)
	}
	if !strings.Contains(out, "--- Price recommendation ---") {
		t.Fatalf("unexpected pretty output:\n%s", out)
	}

	out, err = execute(t, append([]string{"score", "-c", conf, "-o", "json", "--price", "150"}, quote...)...)
	if err != nil {
		t.Fatalf("score error: %v", err)
	}
	var score pricing.ScoreResult
	decodeJSON(t, out, &score)
	switch score.ApprovalBand {
	case pricing.Approved, pricing.Review, pricing.Reject:
	default:
		t.Fatalf("unexpected band %q", score.ApprovalBand)
	}

	out, err = execute(t, append([]string{"curve", "-c", conf, "-o", "json"}, quote...)...)
	if err != nil {
		t.Fatalf("curve error: %v", err)
	}
	var curve []pricing.CurvePoint
	decodeJSON(t, out, &curve)
	if len(curve) != 15 || curve[0].Price != rec.Floor {
		t.Fatalf("unexpected curve %+v", curve)
	}

	out, err = execute(t, append([]string{"demand-curve", "-c", conf, "-o", "json"}, quote...)...)
	if err != nil {
		t.Fatalf("demand-curve error: %v", err)
	}
	var demand []pricing.DemandPoint
	decodeJSON(t, out, &demand)
	if len(demand) != 15 {
		t.Fatalf("unexpected demand curve %+v", demand)
	}

	out, err = execute(t, append([]string{"compare", "-c", conf, "-o", "json", "--from", "150", "--to", "180"}, quote...)...)
	if err != nil {
		t.Fatalf("compare error: %v", err)
	}
	var cmpRes orchestrator.Comparison
	decodeJSON(t, out, &cmpRes)
	if cmpRes.Summary == "" {
		t.Fatal("compare should produce a summary")
	}

	batchFile := filepath.Join(dir, "quotes.csv")
	batch := "sku,customer_id,quantity,country,channel,currency\nSKU-1001,C001,10,DE,Direct,EUR\nSKU-1002,C002,3,DE,Online,EUR\n,C003,5,US,Direct,USD\n"
	if err := os.WriteFile(batchFile, []byte(batch), 0600); err != nil {
		t.Fatalf("failed to write batch file: %v", err)
	}
	out, err = execute(t, "batch", "-c", conf, "-o", "json", "-i", batchFile)
	if err != nil {
		t.Fatalf("batch error: %v", err)
	}
	var batchRes orchestrator.BatchResult
	decodeJSON(t, out, &batchRes)
	if batchRes.Completed != 2 || batchRes.Failed != 1 {
		t.Fatalf("unexpected batch counts %+v", batchRes)
	}

	dbPath := filepath.Join(dir, "refdata.db")
	out, err = execute(t, "import", "-c", conf, "--db", dbPath)
	if err != nil {
		t.Fatalf("import error: %v", err)
	}
	if !strings.Contains(out, "Imported 12 products") {
		t.Fatalf("unexpected import output %q", out)
	}

	sqliteDir := t.TempDir()
	sqliteConf := writeTestConfig(t, sqliteDir, fmt.Sprintf("  source: sqlite\n  database: %q\n", dbPath))
	if err := os.Rename(filepath.Join(dir, "model.json"), filepath.Join(sqliteDir, "model.json")); err != nil {
		t.Fatalf("failed to move model: %v", err)
	}
	out, err = execute(t, append([]string{"recommend", "-c", sqliteConf, "-o", "json"}, quote...)...)
	if err != nil {
		t.Fatalf("sqlite recommend error: %v", err)
	}
	var fromSQLite pricing.Recommendation
	decodeJSON(t, out, &fromSQLite)
	if diff := cmp.Diff(rec, fromSQLite); diff != "" {
		t.Fatalf("sqlite-backed recommendation differs (-csv +sqlite):\n%s", diff)
	}
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	conf := writeTestConfig(t, dir, "")

	_, err := execute(t, "recommend", "-c", conf, "--sku", "SKU-1001", "--customer", "C001")
	if !errors.Is(err, orchestrator.ErrModelUnavailable) {
		t.Fatalf("recommend without a model: error = %v, want ErrModelUnavailable", err)
	}
	if err == nil || !strings.Contains(err.Error(), "train") {
		t.Fatalf("error should point at the train command: %v", err)
	}

	_, err = execute(t, "recommend", "-c", conf, "--customer", "C001")
	if !errors.Is(err, pricing.ErrInvalidRequest) {
		t.Fatalf("recommend without sku: error = %v, want ErrInvalidRequest", err)
	}

	_, err = execute(t, "score", "-c", conf, "--sku", "SKU-1001", "--customer", "C001", "--price", "-5")
	if !errors.Is(err, pricing.ErrInvalidRequest) {
		t.Fatalf("score with negative price: error = %v, want ErrInvalidRequest", err)
	}

	if _, err := execute(t, "recommend", "-c", filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("an explicit missing --config should fail")
	}
	if _, err := execute(t, "recommend", "-c", conf, "-o", "xml"); err == nil {
		t.Fatal("an unsupported output format should fail")
	}
	if _, err := execute(t, "recommend", "-c", conf, "--log-level", "chatty"); err == nil {
		t.Fatal("an unsupported log level should fail")
	}
}

func TestDecodeCSVRequests(t *testing.T) {
	reqs, err := decodeCSVRequests(strings.NewReader("\ufeffSKU, customer_id, quantity\nSKU-1, C1, 4\n"))
	if err != nil {
		t.Fatalf("decodeCSVRequests() error: %v", err)
	}
	want := []pricing.Request{{SKU: "SKU-1", CustomerID: "C1", Quantity: 4}}
	if diff := cmp.Diff(want, reqs); diff != "" {
		t.Fatalf("requests mismatch (-want +got):\n%s", diff)
	}

	bad := map[string]string{
		"missing column": "sku,customer_id\nSKU-1,C1\n",
		"bad quantity":   "sku,customer_id,quantity\nSKU-1,C1,many\n",
		"empty":          "",
	}
	for name, input := range bad {
		if _, err := decodeCSVRequests(strings.NewReader(input)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestReadBatchRequestsJSON(t *testing.T) {
	reqs, err := readBatchRequests(strings.NewReader(`[{"sku":"SKU-1","customer_id":"C1","quantity":2}]`), "-")
	if err != nil {
		t.Fatalf("readBatchRequests() error: %v", err)
	}
	if len(reqs) != 1 || reqs[0].Quantity != 2 {
		t.Fatalf("unexpected requests %+v", reqs)
	}
	if _, err := readBatchRequests(nil, filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Fatal("missing batch file should fail")
	}
}

func TestInitializeLogger(t *testing.T) {
	tests := []struct {
		name     string
		conf     config.LoggingConfig
		override string
		wantErr  bool
	}{
		{"defaults", config.LoggingConfig{}, "", false},
		{"console debug", config.LoggingConfig{Level: "debug", Format: "console"}, "", false},
		{"override wins", config.LoggingConfig{Level: "bogus"}, "warn", false},
		{"uppercase level", config.LoggingConfig{Level: "ERROR"}, "", false},
		{"bad level", config.LoggingConfig{Level: "chatty"}, "", true},
		{"bad format", config.LoggingConfig{Format: "xml"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := initializeLogger(tt.conf, tt.override)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil || logger == nil {
				t.Fatalf("initializeLogger() = %v, %v", logger, err)
			}
		})
	}
}

func TestInitializeLoggerOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pricing.log")
	logger, err := initializeLogger(config.LoggingConfig{OutputFile: path}, "")
	if err != nil {
		t.Fatalf("initializeLogger() error: %v", err)
	}
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Fatalf("log file does not contain the entry: %q", data)
	}
}
