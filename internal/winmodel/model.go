package winmodel

import (
	"sort"
	"time"
)

// Metrics summarise hold-out evaluation at training time.
type Metrics struct {
	AUC       float64 `json:"auc"`
	Accuracy  float64 `json:"accuracy"`
	TrainRows int     `json:"train_rows"`
	TestRows  int     `json:"test_rows"`
	WinRate   float64 `json:"win_rate"`
}

// Importance is the global weight of one input feature.
type Importance struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// Model is a trained forest plus the encoders it was trained with. It is
// read-only after construction and safe for concurrent use.
type Model struct {
	encoders    map[string]*Encoder
	forest      Forest
	importances []float64
	metrics     Metrics
	trainedAt   time.Time
}

// Metrics returns the training report.
func (m *Model) Metrics() Metrics { return m.metrics }

// TrainedAt returns when the model was fitted.
func (m *Model) TrainedAt() time.Time { return m.trainedAt }

// Trees returns the number of trees in the forest.
func (m *Model) Trees() int { return len(m.forest.Trees) }

// Encoder returns the encoder for a categorical column, or nil.
func (m *Model) Encoder(column string) *Encoder { return m.encoders[column] }

// Vector encodes f in FeatureNames order. The returned slice lists the
// categorical columns whose value was not seen in training.
func (m *Model) Vector(f Features) ([]float64, []string) {
	var unknown []string
	encode := func(column string) float64 {
		enc := m.encoders[column]
		if enc == nil {
			unknown = append(unknown, column)
			return UnknownCode
		}
		code, ok := enc.Encode(f.Categorical(column))
		if !ok {
			unknown = append(unknown, column)
		}
		return float64(code)
	}
	return []float64{
		f.MarginPct,
		f.DiscountDepth,
		f.PriceVsCompetitor,
		float64(f.Quantity),
		encode(ColSegment),
		encode(ColChannel),
		encode(ColRegion),
		encode(ColFamily),
		encode(ColVolumeTier),
		encode(ColPricePosition),
	}, unknown
}

// WinProbability returns the predicted probability of the won class.
func (m *Model) WinProbability(f Features) float64 {
	x, _ := m.Vector(f)
	return m.forest.Predict(x)
}

// TopFeatures returns the n most important features, highest first. Ties
// keep schema order.
func (m *Model) TopFeatures(n int) []Importance {
	all := make([]Importance, 0, len(FeatureNames))
	for i, name := range FeatureNames {
		w := 0.0
		if i < len(m.importances) {
			w = m.importances[i]
		}
		all = append(all, Importance{Feature: name, Weight: w})
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Weight > all[j].Weight
	})
	if n < len(all) {
		all = all[:n]
	}
	return all
}
