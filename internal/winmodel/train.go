package winmodel

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/iwvelando/pricing-advisor/internal/refdata"
	"github.com/iwvelando/pricing-advisor/pkg/constants"
	"go.uber.org/zap"
)

// ErrNoTrainingData is returned when no orders are available to train on.
var ErrNoTrainingData = errors.New("no training data")

// missingLabel stands in for categorical values absent from a joined row.
const missingLabel = "Unknown"

// TrainOptions control forest fitting.
type TrainOptions struct {
	Trees        int
	MaxDepth     int
	Seed         int64
	TestFraction float64
	Workers      int
}

// DefaultTrainOptions returns the production training settings.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Trees:        constants.DefaultTrees,
		MaxDepth:     constants.DefaultMaxDepth,
		Seed:         constants.DefaultSeed,
		TestFraction: constants.DefaultTestFraction,
	}
}

type trainingRow struct {
	features Features
	won      int
}

// joinOrders left-joins each order with its customer, product and cost.
func joinOrders(tables refdata.Tables) []trainingRow {
	customers := make(map[string]refdata.Customer, len(tables.Customers))
	for _, c := range tables.Customers {
		if _, ok := customers[c.CustomerID]; !ok {
			customers[c.CustomerID] = c
		}
	}
	products := make(map[string]refdata.Product, len(tables.Products))
	for _, p := range tables.Products {
		if _, ok := products[p.ProductID]; !ok {
			products[p.ProductID] = p
		}
	}
	costs := make(map[string]float64, len(tables.Costs))
	for _, c := range tables.Costs {
		if _, ok := costs[c.ProductID]; !ok {
			costs[c.ProductID] = c.COGS
		}
	}

	label := func(v string, ok bool) string {
		if !ok || v == "" {
			return missingLabel
		}
		return v
	}

	rows := make([]trainingRow, 0, len(tables.Orders))
	for _, o := range tables.Orders {
		c, cok := customers[o.CustomerID]
		p, pok := products[o.ProductID]
		cogs := costs[o.ProductID]
		won := 0
		if o.Won {
			won = 1
		}
		rows = append(rows, trainingRow{
			features: NewFeatures(Inputs{
				Price:           o.NetPrice,
				COGS:            cogs,
				Discount:        o.Discount,
				CompetitorPrice: o.CompetitorPrice,
				Quantity:        o.Quantity,
				Segment:         label(c.Segment, cok),
				Channel:         label(o.Channel, true),
				Region:          label(c.Region, cok),
				Family:          label(p.Family, pok),
			}),
			won: won,
		})
	}
	return rows
}

// Train fits a model on the historical orders in tables and evaluates it on
// a seeded hold-out split.
func Train(ctx context.Context, logger *zap.Logger, tables refdata.Tables, opts TrainOptions) (*Model, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultTrainOptions()
	if opts.Trees <= 0 {
		opts.Trees = defaults.Trees
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaults.MaxDepth
	}
	if opts.TestFraction <= 0 || opts.TestFraction >= 1 {
		opts.TestFraction = defaults.TestFraction
	}

	rows := joinOrders(tables)
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: %d orders", ErrNoTrainingData, len(rows))
	}

	encoders := make(map[string]*Encoder, len(CategoricalColumns))
	for _, col := range CategoricalColumns {
		values := make([]string, len(rows))
		for i, r := range rows {
			values[i] = r.features.Categorical(col)
		}
		encoders[col] = FitEncoder(values)
	}
	m := &Model{encoders: encoders}

	x := make([][]float64, len(rows))
	y := make([]int, len(rows))
	for i, r := range rows {
		x[i], _ = m.Vector(r.features)
		y[i] = r.won
	}

	trainIdx, testIdx := splitIndices(len(rows), opts.TestFraction, opts.Seed)
	xTrain, yTrain := subset(x, y, trainIdx)
	xTest, yTest := subset(x, y, testIdx)

	forest, importances, err := fitForest(ctx, xTrain, yTrain, forestParams{
		trees:    opts.Trees,
		maxDepth: opts.MaxDepth,
		seed:     opts.Seed,
		workers:  opts.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("fit forest: %w", err)
	}
	m.forest = forest
	m.importances = importances

	scores := make([]float64, len(xTest))
	for i, row := range xTest {
		scores[i] = forest.Predict(row)
	}
	m.metrics = Metrics{
		AUC:       ROCAUC(yTest, scores),
		Accuracy:  Accuracy(yTest, scores),
		TrainRows: len(xTrain),
		TestRows:  len(xTest),
		WinRate:   positiveRate(y),
	}
	m.trainedAt = time.Now().UTC()

	logger.Info("win-rate model trained",
		zap.String("op", "winmodel.Train"),
		zap.Int("trees", opts.Trees),
		zap.Int("max_depth", opts.MaxDepth),
		zap.Int("train_rows", m.metrics.TrainRows),
		zap.Int("test_rows", m.metrics.TestRows),
		zap.Float64("auc", m.metrics.AUC),
		zap.Float64("accuracy", m.metrics.Accuracy),
	)
	return m, nil
}

// splitIndices shuffles 0..n-1 with seed and holds out ceil(n*testFraction)
// rows, leaving at least one row on each side.
func splitIndices(n int, testFraction float64, seed int64) ([]int, []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(math.Ceil(float64(n) * testFraction))
	if nTest < 1 {
		nTest = 1
	}
	if nTest > n-1 {
		nTest = n - 1
	}
	test := append([]int(nil), perm[:nTest]...)
	train := append([]int(nil), perm[nTest:]...)
	return train, test
}

func subset(x [][]float64, y []int, idx []int) ([][]float64, []int) {
	xs := make([][]float64, len(idx))
	ys := make([]int, len(idx))
	for i, j := range idx {
		xs[i] = x[j]
		ys[i] = y[j]
	}
	return xs, ys
}

func positiveRate(y []int) float64 {
	if len(y) == 0 {
		return 0
	}
	pos := 0
	for _, v := range y {
		pos += v
	}
	return float64(pos) / float64(len(y))
}

// Accuracy is the share of rows whose thresholded score (> 0.5) matches the label.
func Accuracy(labels []int, scores []float64) float64 {
	if len(labels) == 0 {
		return 0
	}
	correct := 0
	for i, l := range labels {
		pred := 0
		if scores[i] > 0.5 {
			pred = 1
		}
		if pred == l {
			correct++
		}
	}
	return float64(correct) / float64(len(labels))
}

// ROCAUC computes the area under the ROC curve from average ranks. It
// returns 0 when only one class is present.
func ROCAUC(labels []int, scores []float64) float64 {
	n := len(labels)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] < scores[order[b]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && scores[order[j+1]] == scores[order[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}

	var pos, neg int
	var rankSum float64
	for i, l := range labels {
		if l == 1 {
			pos++
			rankSum += ranks[i]
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0
	}
	return (rankSum - float64(pos*(pos+1))/2) / float64(pos*neg)
}
