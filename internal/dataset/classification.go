// Package dataset generates the synthetic inputs of the benchmark workloads
// on the host. Generation is deterministic for a given seed.
package dataset

import (
	"math/rand/v2"

	"github.com/pkg/errors"
)

// ClassificationConfig controls MakeClassification. Field meanings follow the
// usual make_classification generator: clusters of normally distributed
// points around the vertices of a hypercube in the informative subspace,
// linear combinations of them as redundant features, and noise features.
type ClassificationConfig struct {
	Samples          int
	Features         int
	Informative      int
	Redundant        int
	Classes          int
	ClustersPerClass int
	FlipY            float64 // fraction of labels replaced at random
	ClassSep         float64 // half edge length of the hypercube
	Shuffle          bool
	Seed             uint64
}

// DefaultClassificationConfig returns the benchmark dataset: 400000 x 300,
// two classes, seed 0.
func DefaultClassificationConfig() ClassificationConfig {
	return ClassificationConfig{
		Samples:          400_000,
		Features:         300,
		Informative:      2,
		Redundant:        2,
		Classes:          2,
		ClustersPerClass: 2,
		FlipY:            0.01,
		ClassSep:         1.0,
		Shuffle:          true,
		Seed:             0,
	}
}

// Classification is a labeled dataset in row-major float32 layout.
type Classification struct {
	X        []float32 // [Samples, Features]
	Y        []float32 // class index per sample
	Samples  int
	Features int
	Classes  int
}

// Validate checks the configuration for consistency.
func (c ClassificationConfig) Validate() error {
	switch {
	case c.Samples <= 0:
		return errors.Errorf("samples must be positive, got %d", c.Samples)
	case c.Classes < 2:
		return errors.Errorf("need at least 2 classes, got %d", c.Classes)
	case c.ClustersPerClass < 1:
		return errors.Errorf("clusters per class must be positive, got %d", c.ClustersPerClass)
	case c.Informative < 1 || c.Informative > 30:
		return errors.Errorf("informative features must be in [1, 30], got %d", c.Informative)
	case c.Redundant < 0:
		return errors.Errorf("redundant features must be non-negative, got %d", c.Redundant)
	case c.Informative+c.Redundant > c.Features:
		return errors.Errorf("%d features cannot hold %d informative and %d redundant",
			c.Features, c.Informative, c.Redundant)
	case c.Classes*c.ClustersPerClass > 1<<c.Informative:
		return errors.Errorf("%d classes x %d clusters need more than %d informative features",
			c.Classes, c.ClustersPerClass, c.Informative)
	case c.FlipY < 0 || c.FlipY > 1:
		return errors.Errorf("flip fraction must be in [0, 1], got %g", c.FlipY)
	}
	return nil
}

// MakeClassification generates a labeled dataset.
func MakeClassification(cfg ClassificationConfig) (*Classification, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "make classification")
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	n, f, inf := cfg.Samples, cfg.Features, cfg.Informative
	x := make([]float64, n*f)
	y := make([]float32, n)

	clusters := cfg.Classes * cfg.ClustersPerClass
	centroids := hypercubeVertices(rng, clusters, inf, cfg.ClassSep)

	for i := 0; i < n; i++ {
		for j := 0; j < inf; j++ {
			x[i*f+j] = rng.NormFloat64()
		}
	}

	// Each cluster gets an even share; the remainder goes to the first ones.
	start := 0
	for k := 0; k < clusters; k++ {
		size := n / clusters
		if k < n%clusters {
			size++
		}
		mix := uniformMatrix(rng, inf, inf)
		row := make([]float64, inf)
		for i := start; i < start+size; i++ {
			y[i] = float32(k % cfg.Classes)
			point := x[i*f : i*f+inf]
			for c := 0; c < inf; c++ {
				var s float64
				for r := 0; r < inf; r++ {
					s += point[r] * mix[r*inf+c]
				}
				row[c] = s + centroids[k*inf+c]
			}
			copy(point, row)
		}
		start += size
	}

	if cfg.Redundant > 0 {
		mix := uniformMatrix(rng, inf, cfg.Redundant)
		for i := 0; i < n; i++ {
			base := x[i*f : i*f+inf]
			for c := 0; c < cfg.Redundant; c++ {
				var s float64
				for r := 0; r < inf; r++ {
					s += base[r] * mix[r*cfg.Redundant+c]
				}
				x[i*f+inf+c] = s
			}
		}
	}

	for i := 0; i < n; i++ {
		for j := inf + cfg.Redundant; j < f; j++ {
			x[i*f+j] = rng.NormFloat64()
		}
	}

	for i := range y {
		if rng.Float64() < cfg.FlipY {
			y[i] = float32(rng.IntN(cfg.Classes))
		}
	}

	rows := identity(n)
	cols := identity(f)
	if cfg.Shuffle {
		rng.Shuffle(n, func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		rng.Shuffle(f, func(i, j int) { cols[i], cols[j] = cols[j], cols[i] })
	}

	out := &Classification{
		X:        make([]float32, n*f),
		Y:        make([]float32, n),
		Samples:  n,
		Features: f,
		Classes:  cfg.Classes,
	}
	for i, src := range rows {
		out.Y[i] = y[src]
		for j, col := range cols {
			out.X[i*f+j] = float32(x[src*f+col])
		}
	}
	return out, nil
}

// hypercubeVertices picks distinct vertices of {-sep, +sep}^dims, one per cluster.
func hypercubeVertices(rng *rand.Rand, clusters, dims int, sep float64) []float64 {
	picks := rng.Perm(1 << dims)[:clusters]
	out := make([]float64, clusters*dims)
	for k, v := range picks {
		for d := 0; d < dims; d++ {
			bit := float64((v >> d) & 1)
			out[k*dims+d] = bit*2*sep - sep
		}
	}
	return out
}

// uniformMatrix returns a rows x cols matrix with entries in [-1, 1).
func uniformMatrix(rng *rand.Rand, rows, cols int) []float64 {
	m := make([]float64, rows*cols)
	for i := range m {
		m[i] = 2*rng.Float64() - 1
	}
	return m
}

func identity(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
