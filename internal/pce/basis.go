// Package pce implements multivariate polynomial chaos expansions.
//
// A Basis combines a multi-index set with a univariate orthogonal polynomial family into
// tensor-product basis terms
//
//	Ψ_j(x) = Π_d p_{α_jd}(x_d)
//
// and supports the forward evaluation of expansions and the recovery of their coefficients
// from scattered samples by least-squares regression.
//
// A Basis is immutable: construct it once and share it between any number of concurrent
// Evaluate and Fit calls.
package pce

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/drakos74/polychaos/internal/math/index"
	"github.com/drakos74/polychaos/internal/math/poly"
	"github.com/drakos74/polychaos/internal/model"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// Basis is a multivariate polynomial chaos basis.
type Basis struct {
	cfg    model.Config
	set    index.Set
	family *poly.Family
	// norms holds <Ψ_j^2> for every term.
	norms []float64
	// constant is the value of Ψ_0.
	constant float64
}

// New creates a new basis for the given config.
func New(cfg model.Config) (*Basis, error) {
	opts := []index.Option{index.WithTruncation(cfg.Truncation)}
	if cfg.Truncation == model.Hyperbolic {
		opts = append(opts, index.WithQ(cfg.Q))
	}
	set, err := index.Generate(cfg.Dim, cfg.Order, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not generate multi-indices for '%s': %w", cfg, err)
	}

	family, err := poly.New(cfg.Family, set.MaxExponent(),
		poly.WithAlpha(cfg.Alpha),
		poly.WithBeta(cfg.Beta),
		poly.WithNormalization(cfg.Normalization))
	if err != nil {
		return nil, fmt.Errorf("could not create polynomial family for '%s': %w", cfg, err)
	}

	norms := make([]float64, set.Len())
	for j := range norms {
		n := 1.0
		for d := 0; d < set.Dim(); d++ {
			n *= family.Norm(set.Exponent(j, d))
		}
		norms[j] = n
	}

	constant := 1.0
	p0 := family.EvalDegree(0, 0)
	for d := 0; d < set.Dim(); d++ {
		constant *= p0
	}

	log.Debug().
		Str("config", cfg.String()).
		Int("terms", set.Len()).
		Msg("created basis")

	return &Basis{
		cfg:      cfg,
		set:      set,
		family:   family,
		norms:    norms,
		constant: constant,
	}, nil
}

// Terms returns the number of basis terms.
func (b *Basis) Terms() int {
	return b.set.Len()
}

// Dim returns the number of random dimensions.
func (b *Basis) Dim() int {
	return b.cfg.Dim
}

// Order returns the order of the basis.
func (b *Basis) Order() int {
	return b.cfg.Order
}

// Family returns the polynomial family tag.
func (b *Basis) Family() model.Family {
	return b.cfg.Family
}

// Config returns the construction config.
func (b *Basis) Config() model.Config {
	return b.cfg
}

// Polynomials returns the univariate family of the basis.
func (b *Basis) Polynomials() *poly.Family {
	return b.family
}

// MultiIndex returns a copy of the multi-index of the j-th term.
func (b *Basis) MultiIndex(j int) []int {
	return b.set.At(j)
}

// Norm returns <Ψ_j^2> under the germ distribution.
func (b *Basis) Norm(j int) float64 {
	return b.norms[j]
}

// Fingerprint identifies the basis, two bases with the same config share the fingerprint.
func (b *Basis) Fingerprint() uint64 {
	return xxhash.Sum64String(b.cfg.String())
}

// Value evaluates the j-th basis term at the given point.
func (b *Basis) Value(j int, point []float64) (float64, error) {
	if j < 0 || j >= b.Terms() {
		return 0, fmt.Errorf("term %d outside of [0,%d): %w", j, b.Terms(), model.DimensionMismatchErr)
	}
	if err := b.checkPoint(point); err != nil {
		return 0, err
	}
	v := 1.0
	for d, x := range point {
		v *= b.family.EvalDegree(b.set.Exponent(j, d), x)
	}
	return v, nil
}

// Row evaluates all basis terms at the given point.
// dst is reused if it has enough capacity.
func (b *Basis) Row(point []float64, dst []float64) ([]float64, error) {
	if err := b.checkPoint(point); err != nil {
		return nil, err
	}
	return b.row(point, dst, nil), nil
}

// row expects a validated point, table is scratch space for the univariate values.
func (b *Basis) row(point []float64, dst []float64, table []float64) []float64 {
	n := b.Terms()
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]

	width := b.family.Degree() + 1
	if cap(table) < width*len(point) {
		table = make([]float64, width*len(point))
	}
	for d, x := range point {
		b.family.Eval(x, table[d*width:(d+1)*width])
	}

	for j := 0; j < n; j++ {
		v := 1.0
		for d := range point {
			v *= table[d*width+b.set.Exponent(j, d)]
		}
		dst[j] = v
	}
	return dst
}

// Design builds the design matrix, one row per point and one column per basis term.
func (b *Basis) Design(points [][]float64) (*mat.Dense, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("no points for design matrix: %w", model.DimensionMismatchErr)
	}
	if err := b.checkPoints(points); err != nil {
		return nil, err
	}
	a := mat.NewDense(len(points), b.Terms(), nil)
	table := make([]float64, (b.family.Degree()+1)*b.Dim())
	for i, point := range points {
		b.row(point, a.RawRowView(i), table)
	}
	return a, nil
}

func (b *Basis) checkPoint(point []float64) error {
	if len(point) != b.Dim() {
		return fmt.Errorf("point has %d coordinates but basis has %d dimensions: %w", len(point), b.Dim(), model.DimensionMismatchErr)
	}
	return nil
}

func (b *Basis) checkPoints(points [][]float64) error {
	for i, point := range points {
		if len(point) != b.Dim() {
			return fmt.Errorf("point %d has %d coordinates but basis has %d dimensions: %w", i, len(point), b.Dim(), model.DimensionMismatchErr)
		}
	}
	return nil
}

func (b *Basis) checkCoefficients(coefficients []float64) error {
	if len(coefficients) != b.Terms() {
		return fmt.Errorf("got %d coefficients for %d basis terms: %w", len(coefficients), b.Terms(), model.DimensionMismatchErr)
	}
	return nil
}

// Restore rebuilds the basis and coefficients of a stored expansion.
func Restore(expansion model.Expansion) (*Basis, []float64, error) {
	b, err := New(expansion.Config)
	if err != nil {
		return nil, nil, err
	}
	if err := b.checkCoefficients(expansion.Coefficients); err != nil {
		return nil, nil, fmt.Errorf("could not restore expansion '%s': %w", expansion.Config, err)
	}
	return b, expansion.Coefficients, nil
}
