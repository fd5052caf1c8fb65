// Package poly provides the univariate orthogonal polynomial families of the supported germ distributions.
//
// Every family is evaluated through its three-term recurrence
//
//	p_{k+1}(x) = (A_k x + B_k) p_k(x) - C_k p_{k-1}(x),  p_{-1} = 0
//
// which stays stable for high degrees, where the power expansion of the same polynomials
// loses all precision to cancellation.
package poly

import (
	"fmt"
	"math"

	"github.com/drakos74/polychaos/internal/model"
)

// Recurrence holds the three-term recurrence coefficients for k = 0..degree-1.
type Recurrence struct {
	A []float64
	B []float64
	C []float64
}

func newRecurrence(degree int) Recurrence {
	return Recurrence{
		A: make([]float64, degree),
		B: make([]float64, degree),
		C: make([]float64, degree),
	}
}

func (r Recurrence) clone() Recurrence {
	c := newRecurrence(len(r.A))
	copy(c.A, r.A)
	copy(c.B, r.B)
	copy(c.C, r.C)
	return c
}

// Option configures a polynomial family.
type Option func(f *Family)

// WithAlpha sets the first shape parameter of the Laguerre and Jacobi families.
func WithAlpha(alpha float64) Option {
	return func(f *Family) {
		f.alpha = alpha
	}
}

// WithBeta sets the second shape parameter of the Jacobi family.
func WithBeta(beta float64) Option {
	return func(f *Family) {
		f.beta = beta
	}
}

// WithNormalization sets the normalization convention.
func WithNormalization(n model.Normalization) Option {
	return func(f *Family) {
		f.normalization = n
	}
}

// Family is an orthogonal polynomial family up to a fixed degree.
// It is immutable once created and safe for concurrent use.
type Family struct {
	family        model.Family
	degree        int
	alpha, beta   float64
	normalization model.Normalization
	p0            float64
	rec           Recurrence
	norms         []float64
}

// New creates the polynomial family of the given tag up to the given degree.
func New(family model.Family, degree int, opts ...Option) (*Family, error) {
	f := &Family{
		family: family,
		degree: degree,
	}
	for _, opt := range opts {
		opt(f)
	}

	if degree < 0 {
		return nil, fmt.Errorf("degree must be non-negative but was %d: %w", degree, model.InvalidConfigurationErr)
	}

	var coefficients func(k int) (a, b, c float64)
	var norm func(k int) float64
	switch family {
	case model.LegendreUniform:
		coefficients, norm = legendre()
	case model.HermiteGauss:
		coefficients, norm = hermite()
	case model.LaguerreGamma:
		if f.alpha <= -1 {
			return nil, fmt.Errorf("laguerre alpha must be greater than -1 but was %v: %w", f.alpha, model.InvalidConfigurationErr)
		}
		coefficients, norm = laguerre(f.alpha)
	case model.JacobiBeta:
		if f.alpha <= -1 || f.beta <= -1 {
			return nil, fmt.Errorf("jacobi alpha and beta must be greater than -1 but were (%v,%v): %w", f.alpha, f.beta, model.InvalidConfigurationErr)
		}
		coefficients, norm = jacobi(f.alpha, f.beta)
	default:
		return nil, fmt.Errorf("no polynomial family for '%s': %w", family, model.UnsupportedDistributionErr)
	}

	f.rec = newRecurrence(degree)
	f.norms = make([]float64, degree+1)
	for k := 0; k <= degree; k++ {
		f.norms[k] = norm(k)
		if k < degree {
			f.rec.A[k], f.rec.B[k], f.rec.C[k] = coefficients(k)
		}
	}
	f.p0 = 1

	if f.normalization == model.Orthonormal {
		f.orthonormalize()
	}

	return f, nil
}

// orthonormalize rescales the recurrence to produce q_k = p_k / sqrt(h_k) directly.
func (f *Family) orthonormalize() {
	s := make([]float64, len(f.norms))
	for k, h := range f.norms {
		s[k] = math.Sqrt(h)
	}
	for k := 0; k < f.degree; k++ {
		f.rec.A[k] *= s[k] / s[k+1]
		f.rec.B[k] *= s[k] / s[k+1]
		if k > 0 {
			f.rec.C[k] *= s[k-1] / s[k+1]
		}
	}
	f.p0 = 1 / s[0]
	for k := range f.norms {
		f.norms[k] = 1
	}
}

// Family returns the family tag.
func (f *Family) Family() model.Family {
	return f.family
}

// Degree returns the highest degree available.
func (f *Family) Degree() int {
	return f.degree
}

// Normalization returns the normalization convention.
func (f *Family) Normalization() model.Normalization {
	return f.normalization
}

// Params returns the shape parameters.
func (f *Family) Params() (alpha, beta float64) {
	return f.alpha, f.beta
}

// Recurrence returns a copy of the recurrence table.
func (f *Family) Recurrence() Recurrence {
	return f.rec.clone()
}

// Norm returns the squared norm E[p_k^2] under the germ distribution.
func (f *Family) Norm(k int) float64 {
	return f.norms[k]
}

// Eval evaluates p_0..p_degree at x.
// dst is reused if it has enough capacity.
func (f *Family) Eval(x float64, dst []float64) []float64 {
	if cap(dst) < f.degree+1 {
		dst = make([]float64, f.degree+1)
	}
	dst = dst[:f.degree+1]

	dst[0] = f.p0
	prev := 0.0
	for k := 0; k < f.degree; k++ {
		dst[k+1] = (f.rec.A[k]*x+f.rec.B[k])*dst[k] - f.rec.C[k]*prev
		prev = dst[k]
	}
	return dst
}

// EvalDegree evaluates p_k at x.
func (f *Family) EvalDegree(k int, x float64) float64 {
	if k < 0 || k > f.degree {
		panic(fmt.Sprintf("degree %d outside of family range [0,%d]", k, f.degree))
	}
	curr, prev := f.p0, 0.0
	for i := 0; i < k; i++ {
		curr, prev = (f.rec.A[i]*x+f.rec.B[i])*curr-f.rec.C[i]*prev, curr
	}
	return curr
}

// Support returns the support of the germ distribution.
func (f *Family) Support() (lo, hi float64) {
	switch f.family {
	case model.HermiteGauss:
		return math.Inf(-1), math.Inf(1)
	case model.LaguerreGamma:
		return 0, math.Inf(1)
	}
	return -1, 1
}

func legendre() (func(k int) (a, b, c float64), func(k int) float64) {
	return func(k int) (a, b, c float64) {
			n := float64(k)
			return (2*n + 1) / (n + 1), 0, n / (n + 1)
		}, func(k int) float64 {
			return 1 / (2*float64(k) + 1)
		}
}

func hermite() (func(k int) (a, b, c float64), func(k int) float64) {
	return func(k int) (a, b, c float64) {
			return 1, 0, float64(k)
		}, func(k int) float64 {
			lg, _ := math.Lgamma(float64(k) + 1)
			return math.Exp(lg)
		}
}

func laguerre(alpha float64) (func(k int) (a, b, c float64), func(k int) float64) {
	return func(k int) (a, b, c float64) {
			n := float64(k)
			return -1 / (n + 1), (2*n + 1 + alpha) / (n + 1), (n + alpha) / (n + 1)
		}, func(k int) float64 {
			n := float64(k)
			return math.Exp(lgamma(n+alpha+1) - lgamma(n+1) - lgamma(alpha+1))
		}
}

func jacobi(alpha, beta float64) (func(k int) (a, b, c float64), func(k int) float64) {
	return func(k int) (a, b, c float64) {
			if k == 0 {
				return (alpha + beta + 2) / 2, (alpha - beta) / 2, 0
			}
			n := float64(k)
			s := 2*n + alpha + beta
			d := 2 * (n + 1) * (n + alpha + beta + 1) * s
			a = (s + 1) * (s + 2) * s / d
			b = (s + 1) * (alpha*alpha - beta*beta) / d
			c = 2 * (n + alpha) * (n + beta) * (s + 2) / d
			return a, b, c
		}, func(k int) float64 {
			if k == 0 {
				return 1
			}
			n := float64(k)
			l := lgamma(n+alpha+1) + lgamma(n+beta+1) + lgamma(alpha+beta+2) -
				lgamma(n+alpha+beta+1) - lgamma(n+1) - lgamma(alpha+1) - lgamma(beta+1)
			return math.Exp(l) / (2*n + alpha + beta + 1)
		}
}

func lgamma(x float64) float64 {
	lg, _ := math.Lgamma(x)
	return lg
}
