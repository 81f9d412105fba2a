package winmodel

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// FormatVersion is the artifact layout written by Save.
const FormatVersion = 1

// ErrArtifactVersion is returned when an artifact has an unsupported layout.
var ErrArtifactVersion = errors.New("unsupported model artifact version")

// ErrCorruptArtifact is returned when an artifact's trees cannot be walked.
var ErrCorruptArtifact = errors.New("corrupt model artifact")

type artifact struct {
	FormatVersion int                 `json:"format_version"`
	Features      []string            `json:"features"`
	Encoders      map[string][]string `json:"encoders"`
	Forest        Forest              `json:"forest"`
	Importances   []float64           `json:"importances"`
	Metrics       Metrics             `json:"metrics"`
	TrainedAt     time.Time           `json:"trained_at"`
}

// Save writes the model to path, creating parent directories.
func Save(logger *zap.Logger, path string, m *Model) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := artifact{
		FormatVersion: FormatVersion,
		Features:      FeatureNames,
		Encoders:      make(map[string][]string, len(m.encoders)),
		Forest:        m.forest,
		Importances:   m.importances,
		Metrics:       m.metrics,
		TrainedAt:     m.trainedAt,
	}
	for col, enc := range m.encoders {
		a.Encoders[col] = enc.Classes()
	}

	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to move model into place: %w", err)
	}

	logger.Info("model artifact saved",
		zap.String("op", "winmodel.Save"),
		zap.String("path", path),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// Load reads a model written by Save.
func Load(logger *zap.Logger, path string) (*Model, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if a.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrArtifactVersion, a.FormatVersion, FormatVersion)
	}
	if len(a.Features) != len(FeatureNames) {
		return nil, fmt.Errorf("%w: feature schema has %d columns, want %d", ErrArtifactVersion, len(a.Features), len(FeatureNames))
	}
	for i, name := range FeatureNames {
		if a.Features[i] != name {
			return nil, fmt.Errorf("%w: feature %d is %q, want %q", ErrArtifactVersion, i, a.Features[i], name)
		}
	}

	for i, tree := range a.Forest.Trees {
		if err := tree.validate(len(FeatureNames)); err != nil {
			return nil, fmt.Errorf("%w: tree %d: %v", ErrCorruptArtifact, i, err)
		}
	}

	m := &Model{
		encoders:    make(map[string]*Encoder, len(a.Encoders)),
		forest:      a.Forest,
		importances: a.Importances,
		metrics:     a.Metrics,
		trainedAt:   a.TrainedAt,
	}
	for col, classes := range a.Encoders {
		m.encoders[col] = NewEncoder(classes)
	}

	logger.Info("model artifact loaded",
		zap.String("op", "winmodel.Load"),
		zap.String("path", path),
		zap.Int("trees", len(a.Forest.Trees)),
		zap.Float64("auc", a.Metrics.AUC),
	)
	return m, nil
}
