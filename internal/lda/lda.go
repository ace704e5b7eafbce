// Package lda implements linear discriminant analysis on top of the array
// namespace. The heavy products (class means, scatter matrix, decision
// scores) run on the backend; the small features x features solve runs on
// the host with gonum.
package lda

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/xpbench/internal/tensor"
)

// ridge is added to the covariance diagonal, relative to its mean variance,
// so that exactly collinear features still factorize.
const ridge = 1e-6

// Model is a fitted discriminant. Coef and Intercept live on the backend
// used for fitting.
type Model struct {
	Coef      *tensor.RawTensor // [features, classes]
	Intercept *tensor.RawTensor // [1, classes]
	Classes   []float32         // sorted distinct labels; Predict returns indices into it
	Priors    []float64
}

// Fit estimates class means and the pooled within-class covariance of x
// ([samples, features]) given labels y ([samples]) and derives the linear
// decision function. Backend ops panic on failure, as everywhere in the
// namespace; host-side failures are returned.
func Fit(b tensor.Backend, x, y *tensor.RawTensor) (*Model, error) {
	if len(x.Shape()) != 2 {
		return nil, errors.Errorf("lda: expected 2D samples, got shape %v", x.Shape())
	}
	n, f := x.Shape()[0], x.Shape()[1]
	if y.NumElements() != n {
		return nil, errors.Errorf("lda: %d labels for %d samples", y.NumElements(), n)
	}

	labels := b.ToHost(y)
	classes, index, counts := uniqueInverse(labels)
	c := len(classes)
	if c < 2 {
		return nil, errors.Errorf("lda: need at least 2 classes, got %d", c)
	}
	if n <= c {
		return nil, errors.Errorf("lda: %d samples cannot estimate %d classes", n, c)
	}

	indicator := make([]float32, n*c)
	weights := make([]float32, n*c)
	for i, k := range index {
		indicator[i*c+k] = 1
		weights[i*c+k] = 1 / float32(counts[k])
	}

	ind := b.FromHost(indicator, tensor.Shape{n, c})
	defer ind.Release()
	w := b.FromHost(weights, tensor.Shape{n, c})
	defer w.Release()

	wT := b.Transpose(w)
	defer wT.Release()
	means := b.MatMul(wT, x) // [c, f]
	defer means.Release()

	perSample := b.MatMul(ind, means) // [n, f]
	defer perSample.Release()
	centered := b.Sub(x, perSample)
	defer centered.Release()

	centeredT := b.Transpose(centered)
	defer centeredT.Release()
	scatter := b.MatMul(centeredT, centered) // [f, f]
	defer scatter.Release()
	cov := b.MulScalar(scatter, 1/float32(n-c))
	defer cov.Release()

	covHost := b.ToHost(cov)
	meansHost := b.ToHost(means)

	coef, err := solve(covHost, meansHost, f, c)
	if err != nil {
		return nil, err
	}

	priors := make([]float64, c)
	intercept := make([]float32, c)
	for k := 0; k < c; k++ {
		priors[k] = float64(counts[k]) / float64(n)
		var dot float64
		for j := 0; j < f; j++ {
			dot += coef.At(j, k) * float64(meansHost[k*f+j])
		}
		intercept[k] = float32(-0.5*dot + math.Log(priors[k]))
	}

	coefData := make([]float32, f*c)
	for j := 0; j < f; j++ {
		for k := 0; k < c; k++ {
			coefData[j*c+k] = float32(coef.At(j, k))
		}
	}

	return &Model{
		Coef:      b.FromHost(coefData, tensor.Shape{f, c}),
		Intercept: b.FromHost(intercept, tensor.Shape{1, c}),
		Classes:   classes,
		Priors:    priors,
	}, nil
}

// DecisionFunction returns the linear scores x @ Coef + Intercept, [samples, classes].
func (m *Model) DecisionFunction(b tensor.Backend, x *tensor.RawTensor) *tensor.RawTensor {
	raw := b.MatMul(x, m.Coef)
	defer raw.Release()
	return b.Add(raw, m.Intercept)
}

// Predict returns, per sample, the index into Classes of the highest score.
func (m *Model) Predict(b tensor.Backend, x *tensor.RawTensor) *tensor.RawTensor {
	scores := m.DecisionFunction(b, x)
	defer scores.Release()
	return b.Argmax(scores, 1)
}

// Release frees the model's backend arrays.
func (m *Model) Release() {
	m.Coef.Release()
	m.Intercept.Release()
}

// solve returns cov^-1 @ means^T ([f, c]) via a Cholesky factorization.
func solve(cov, means []float32, f, c int) (*mat.Dense, error) {
	var trace float64
	for j := 0; j < f; j++ {
		trace += float64(cov[j*f+j])
	}
	eps := ridge * math.Max(trace/float64(f), 1e-12)

	sym := mat.NewSymDense(f, nil)
	for i := 0; i < f; i++ {
		for j := i; j < f; j++ {
			v := 0.5 * (float64(cov[i*f+j]) + float64(cov[j*f+i]))
			if i == j {
				v += eps
			}
			sym.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, errors.New("lda: covariance matrix is not positive definite")
	}

	rhs := mat.NewDense(f, c, nil)
	for k := 0; k < c; k++ {
		for j := 0; j < f; j++ {
			rhs.Set(j, k, float64(means[k*f+j]))
		}
	}

	var coef mat.Dense
	if err := chol.SolveTo(&coef, rhs); err != nil {
		return nil, errors.Wrap(err, "lda: solve")
	}
	return &coef, nil
}

// uniqueInverse returns the sorted distinct labels, each sample's index into
// them, and the count per label.
func uniqueInverse(labels []float32) (classes []float32, index []int, counts []int) {
	seen := map[float32]struct{}{}
	for _, v := range labels {
		seen[v] = struct{}{}
	}
	classes = make([]float32, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	pos := make(map[float32]int, len(classes))
	for i, v := range classes {
		pos[v] = i
	}
	index = make([]int, len(labels))
	counts = make([]int, len(classes))
	for i, v := range labels {
		k := pos[v]
		index[i] = k
		counts[k]++
	}
	return classes, index, counts
}
