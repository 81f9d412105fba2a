package winmodel

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

const leaf = -1

// Node is one decision tree node. Leaves have Feature == -1 and carry the
// fraction of positive (won) training samples in Value.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Value     float64 `json:"value"`
}

// Tree is a binary classification tree stored as a flat node list rooted at 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict returns the positive class probability for x.
func (t Tree) Predict(x []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0
	}
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature == leaf || n.Feature >= len(x) {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// validate checks that every split points forward to nodes inside the tree
// and tests a feature below features, so Predict always reaches a leaf.
func (t Tree) validate(features int) error {
	for i, n := range t.Nodes {
		if n.Feature == leaf {
			continue
		}
		if n.Feature < 0 || n.Feature >= features {
			return fmt.Errorf("node %d splits on feature %d of %d", i, n.Feature, features)
		}
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(t.Nodes) {
				return fmt.Errorf("node %d has child %d outside (%d, %d)", i, child, i, len(t.Nodes))
			}
		}
	}
	return nil
}

// Forest is a bagged ensemble of trees.
type Forest struct {
	Trees []Tree `json:"trees"`
}

// Predict averages the trees' positive class probabilities.
func (f Forest) Predict(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range f.Trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(f.Trees))
}

type forestParams struct {
	trees       int
	maxDepth    int
	maxFeatures int
	seed        int64
	workers     int
}

// fitForest grows the trees concurrently. Each tree draws from its own
// generator seeded up front, so the result does not depend on scheduling.
func fitForest(ctx context.Context, x [][]float64, y []int, p forestParams) (Forest, []float64, error) {
	nFeatures := 0
	if len(x) > 0 {
		nFeatures = len(x[0])
	}
	if p.maxFeatures <= 0 || p.maxFeatures > nFeatures {
		p.maxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(nFeatures)))))
	}
	if p.workers <= 0 {
		p.workers = runtime.GOMAXPROCS(0)
	}

	master := rand.New(rand.NewSource(p.seed))
	seeds := make([]int64, p.trees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	trees := make([]Tree, p.trees)
	perTree := make([][]float64, p.trees)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := 0; i < p.trees; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seeds[i]))
			sample := make([]int, len(x))
			for j := range sample {
				sample[j] = rng.Intn(len(x))
			}
			b := &treeBuilder{
				x:           x,
				y:           y,
				maxDepth:    p.maxDepth,
				maxFeatures: p.maxFeatures,
				rng:         rng,
				importance:  make([]float64, nFeatures),
			}
			b.grow(sample, 0)
			trees[i] = Tree{Nodes: b.nodes}
			perTree[i] = b.importance
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Forest{}, nil, err
	}

	importances := make([]float64, nFeatures)
	for _, imp := range perTree {
		total := 0.0
		for _, v := range imp {
			total += v
		}
		if total <= 0 {
			continue
		}
		for j, v := range imp {
			importances[j] += v / total
		}
	}
	normalize(importances)

	return Forest{Trees: trees}, importances, nil
}

func normalize(v []float64) {
	total := 0.0
	for _, x := range v {
		total += x
	}
	if total <= 0 {
		return
	}
	for i := range v {
		v[i] /= total
	}
}

type treeBuilder struct {
	x           [][]float64
	y           []int
	maxDepth    int
	maxFeatures int
	rng         *rand.Rand
	nodes       []Node
	importance  []float64
}

type split struct {
	feature   int
	threshold float64
	impurity  float64
}

func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}

func (b *treeBuilder) positives(idx []int) int {
	pos := 0
	for _, i := range idx {
		pos += b.y[i]
	}
	return pos
}

// grow appends the subtree for idx and returns its root index.
func (b *treeBuilder) grow(idx []int, depth int) int {
	n := len(idx)
	pos := b.positives(idx)
	id := len(b.nodes)
	value := 0.0
	if n > 0 {
		value = float64(pos) / float64(n)
	}
	b.nodes = append(b.nodes, Node{Feature: leaf, Value: value})

	if depth >= b.maxDepth || n < 2 || pos == 0 || pos == n {
		return id
	}

	best, ok := b.bestSplit(idx, pos)
	if !ok {
		return id
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][best.feature] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	b.importance[best.feature] += float64(n)*gini(pos, n) - best.impurity

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[id].Feature = best.feature
	b.nodes[id].Threshold = best.threshold
	b.nodes[id].Left = l
	b.nodes[id].Right = r
	return id
}

// bestSplit tries features in random order. Like the reference CART forest it
// keeps drawing past maxFeatures until at least one valid split is found.
func (b *treeBuilder) bestSplit(idx []int, pos int) (split, bool) {
	n := len(idx)
	parent := float64(n) * gini(pos, n)
	best := split{impurity: parent}
	found := false

	sorted := make([]int, n)
	for tried, f := range b.rng.Perm(len(b.importance)) {
		if tried >= b.maxFeatures && found {
			break
		}
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool {
			return b.x[sorted[a]][f] < b.x[sorted[c]][f]
		})

		leftPos := 0
		for k := 0; k < n-1; k++ {
			leftPos += b.y[sorted[k]]
			lo, hi := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if lo == hi {
				continue
			}
			nl, nr := k+1, n-k-1
			impurity := float64(nl)*gini(leftPos, nl) + float64(nr)*gini(pos-leftPos, nr)
			if impurity < best.impurity-1e-12 {
				threshold := lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				best = split{feature: f, threshold: threshold, impurity: impurity}
				found = true
			}
		}
	}
	return best, found
}
