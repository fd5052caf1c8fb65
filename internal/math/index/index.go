// Package index enumerates the multi-indices of a polynomial chaos basis.
//
// A multi-index holds one exponent per random dimension and identifies one basis term.
// Sets are graded: ascending total degree and, within the same degree,
// descending lexicographic order, so that the zero multi-index always comes first.
// For 2 dimensions and order 2 the set is 00, 10, 01, 20, 11, 02.
package index

import (
	"fmt"
	"math"

	"github.com/drakos74/polychaos/internal/model"
	"gonum.org/v1/gonum/stat/combin"
)

const quasiNormTolerance = 1e-9

// Option configures the generation of a multi-index set.
type Option func(g *generator)

// WithTruncation sets the truncation rule.
func WithTruncation(t model.Truncation) Option {
	return func(g *generator) {
		g.truncation = t
	}
}

// WithQ sets the quasi-norm exponent for the hyperbolic truncation.
func WithQ(q float64) Option {
	return func(g *generator) {
		g.q = q
	}
}

type generator struct {
	truncation model.Truncation
	q          float64
}

// admits checks the truncation constraint, beyond the per-dimension limit.
func (g generator) admits(alpha []int, order int) bool {
	switch g.truncation {
	case model.Hyperbolic:
		s := 0.0
		for _, a := range alpha {
			s += math.Pow(float64(a), g.q)
		}
		return math.Pow(s, 1/g.q) <= float64(order)+quasiNormTolerance
	}
	return true
}

// maxDegree is the largest total degree the truncation can reach.
func (g generator) maxDegree(dim, order int) int {
	if g.truncation == model.TensorProduct {
		return dim * order
	}
	return order
}

// Set is an ordered, immutable set of multi-indices.
type Set struct {
	dim    int
	order  int
	alphas [][]int
}

// Generate creates the multi-index set for the given dimension and order.
func Generate(dim, order int, opts ...Option) (Set, error) {
	g := generator{
		truncation: model.TotalOrder,
		q:          1,
	}
	for _, opt := range opts {
		opt(&g)
	}

	if dim < 1 {
		return Set{}, fmt.Errorf("dimension must be positive but was %d: %w", dim, model.InvalidConfigurationErr)
	}
	if order < 0 {
		return Set{}, fmt.Errorf("order must be non-negative but was %d: %w", order, model.InvalidConfigurationErr)
	}
	switch g.truncation {
	case model.TotalOrder, model.TensorProduct:
	case model.Hyperbolic:
		if g.q <= 0 || g.q > 1 {
			return Set{}, fmt.Errorf("hyperbolic q must be in (0,1] but was %v: %w", g.q, model.InvalidConfigurationErr)
		}
	default:
		return Set{}, fmt.Errorf("unknown truncation %d: %w", g.truncation, model.InvalidConfigurationErr)
	}

	alphas := make([][]int, 0, TotalOrderCount(dim, order))
	for degree := 0; degree <= g.maxDegree(dim, order); degree++ {
		compositions(dim, degree, order, func(alpha []int) {
			if g.admits(alpha, order) {
				a := make([]int, dim)
				copy(a, alpha)
				alphas = append(alphas, a)
			}
		})
	}

	return Set{
		dim:    dim,
		order:  order,
		alphas: alphas,
	}, nil
}

// compositions emits every split of degree into dim non-negative parts not exceeding limit,
// in descending lexicographic order.
// The emitted slice is reused between calls.
func compositions(dim, degree, limit int, emit func(alpha []int)) {
	alpha := make([]int, dim)
	var fill func(pos, rest int)
	fill = func(pos, rest int) {
		if pos == dim-1 {
			if rest <= limit {
				alpha[pos] = rest
				emit(alpha)
			}
			return
		}
		hi := rest
		if hi > limit {
			hi = limit
		}
		for a := hi; a >= 0; a-- {
			alpha[pos] = a
			fill(pos+1, rest-a)
		}
	}
	fill(0, degree)
}

// TotalOrderCount returns the number of multi-indices of total degree up to order in dim dimensions.
func TotalOrderCount(dim, order int) int {
	if dim < 1 || order < 0 {
		return 0
	}
	return combin.Binomial(order+dim, dim)
}

// Len returns the number of multi-indices.
func (s Set) Len() int {
	return len(s.alphas)
}

// Dim returns the number of dimensions.
func (s Set) Dim() int {
	return s.dim
}

// Order returns the order the set was generated for.
func (s Set) Order() int {
	return s.order
}

// At returns a copy of the j-th multi-index.
func (s Set) At(j int) []int {
	a := make([]int, s.dim)
	copy(a, s.alphas[j])
	return a
}

// Exponent returns the exponent of dimension d in the j-th multi-index.
func (s Set) Exponent(j, d int) int {
	return s.alphas[j][d]
}

// Degree returns the total degree of the j-th multi-index.
func (s Set) Degree(j int) int {
	degree := 0
	for _, a := range s.alphas[j] {
		degree += a
	}
	return degree
}

// MaxExponent returns the largest exponent over all multi-indices and dimensions.
func (s Set) MaxExponent() int {
	m := 0
	for _, alpha := range s.alphas {
		for _, a := range alpha {
			if a > m {
				m = a
			}
		}
	}
	return m
}

// Index returns the position of the given multi-index within the set.
func (s Set) Index(alpha []int) (int, bool) {
	if len(alpha) != s.dim {
		return 0, false
	}
	for j, a := range s.alphas {
		if equal(a, alpha) {
			return j, true
		}
	}
	return 0, false
}

func equal(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
