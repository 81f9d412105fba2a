// Package testutil provides common utility functions for testing.
package testutil

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/iwvelando/pricing-advisor/internal/pricing"
	"github.com/iwvelando/pricing-advisor/internal/refdata"
	"github.com/iwvelando/pricing-advisor/internal/winmodel"
	"github.com/iwvelando/pricing-advisor/pkg/constants"
	"go.uber.org/zap"
)

// RepoRoot returns the module root directory.
func RepoRoot() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..")
}

// SampleDataDir returns the directory holding the sample CSV tables.
func SampleDataDir() string {
	return filepath.Join(RepoRoot(), constants.DefaultDataDir)
}

// SampleSnapshot loads the sample CSV tables.
func SampleSnapshot(t testing.TB) *refdata.Snapshot {
	t.Helper()
	snap, err := refdata.LoadCSV(zap.NewNop(), SampleDataDir())
	if err != nil {
		t.Fatalf("failed to load sample data: %v", err)
	}
	return snap
}

// SampleTables returns every sample table.
func SampleTables(t testing.TB) refdata.Tables {
	t.Helper()
	tables, err := SampleSnapshot(t).Tables(context.Background())
	if err != nil {
		t.Fatalf("failed to read sample tables: %v", err)
	}
	return tables
}

// SmallTrainOptions keeps forests small enough for unit tests.
func SmallTrainOptions() winmodel.TrainOptions {
	opts := winmodel.DefaultTrainOptions()
	opts.Trees = 15
	opts.MaxDepth = 6
	return opts
}

// TrainSmallModel fits a small forest on the sample orders.
func TrainSmallModel(t testing.TB) *winmodel.Model {
	t.Helper()
	m, err := winmodel.Train(context.Background(), zap.NewNop(), SampleTables(t), SmallTrainOptions())
	if err != nil {
		t.Fatalf("failed to train sample model: %v", err)
	}
	return m
}

// SampleRequest returns a request for a product and customer present in the sample data.
func SampleRequest() pricing.Request {
	return pricing.Request{
		SKU:        "SKU-1001",
		CustomerID: "C001",
		Quantity:   10,
		Country:    "DE",
		Channel:    "Direct",
		Currency:   "EUR",
	}
}

// FindImportance returns the weight reported for feature, if any.
func FindImportance(importances []winmodel.Importance, feature string) (float64, bool) {
	for _, imp := range importances {
		if imp.Feature == feature {
			return imp.Weight, true
		}
	}
	return 0, false
}
