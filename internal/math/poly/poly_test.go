package poly

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/drakos74/polychaos/internal/model"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/integrate/quad"
)

func TestFamily_ClosedForm(t *testing.T) {

	type test struct {
		family model.Family
		opts   []Option
		closed map[int]func(x float64) float64
	}

	tests := map[string]test{
		"legendre": {
			family: model.LegendreUniform,
			closed: map[int]func(x float64) float64{
				0: func(x float64) float64 { return 1 },
				1: func(x float64) float64 { return x },
				2: func(x float64) float64 { return (3*x*x - 1) / 2 },
				3: func(x float64) float64 { return (5*x*x*x - 3*x) / 2 },
			},
		},
		"hermite": {
			family: model.HermiteGauss,
			closed: map[int]func(x float64) float64{
				1: func(x float64) float64 { return x },
				2: func(x float64) float64 { return x*x - 1 },
				3: func(x float64) float64 { return x*x*x - 3*x },
				4: func(x float64) float64 { return x*x*x*x - 6*x*x + 3 },
			},
		},
		"laguerre": {
			family: model.LaguerreGamma,
			closed: map[int]func(x float64) float64{
				1: func(x float64) float64 { return 1 - x },
				2: func(x float64) float64 { return (x*x - 4*x + 2) / 2 },
			},
		},
		"laguerre-alpha": {
			family: model.LaguerreGamma,
			opts:   []Option{WithAlpha(1)},
			closed: map[int]func(x float64) float64{
				1: func(x float64) float64 { return 2 - x },
				2: func(x float64) float64 { return (x*x - 6*x + 6) / 2 },
			},
		},
		"jacobi-legendre": {
			family: model.JacobiBeta,
			closed: map[int]func(x float64) float64{
				2: func(x float64) float64 { return (3*x*x - 1) / 2 },
				3: func(x float64) float64 { return (5*x*x*x - 3*x) / 2 },
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f, err := New(tt.family, 4, tt.opts...)
			assert.NoError(t, err)
			for _, x := range []float64{-0.9, -0.3, 0, 0.25, 0.8, 1.7} {
				values := f.Eval(x, nil)
				for k, p := range tt.closed {
					assert.InDelta(t, p(x), values[k], 1e-12, fmt.Sprintf("degree %d at %v", k, x))
					assert.InDelta(t, p(x), f.EvalDegree(k, x), 1e-12, fmt.Sprintf("degree %d at %v", k, x))
				}
			}
		})
	}
}

func TestFamily_Orthogonality(t *testing.T) {

	type test struct {
		family   model.Family
		opts     []Option
		min, max float64
		nodes    int
		weight   func(x float64) float64
	}

	tests := map[string]test{
		"legendre": {
			family: model.LegendreUniform,
			min:    -1,
			max:    1,
			nodes:  40,
			weight: func(x float64) float64 { return 0.5 },
		},
		"hermite": {
			family: model.HermiteGauss,
			min:    -12,
			max:    12,
			nodes:  200,
			weight: func(x float64) float64 { return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi) },
		},
		"laguerre": {
			family: model.LaguerreGamma,
			opts:   []Option{WithAlpha(2)},
			min:    0,
			max:    90,
			nodes:  300,
			weight: func(x float64) float64 { return x * x * math.Exp(-x) / 2 },
		},
		"jacobi": {
			family: model.JacobiBeta,
			opts:   []Option{WithAlpha(2), WithBeta(1)},
			min:    -1,
			max:    1,
			nodes:  40,
			// the integral of (1-x)^2 (1+x) over [-1,1] is 4/3
			weight: func(x float64) float64 { return (1 - x) * (1 - x) * (1 + x) * 3 / 4 },
		},
	}

	for name, tt := range tests {
		for _, n := range []model.Normalization{model.Standard, model.Orthonormal} {
			t.Run(fmt.Sprintf("%s-%s", name, n), func(t *testing.T) {
				f, err := New(tt.family, 5, append(tt.opts, WithNormalization(n))...)
				assert.NoError(t, err)
				for i := 0; i <= f.Degree(); i++ {
					for j := 0; j <= i; j++ {
						inner := quad.Fixed(func(x float64) float64 {
							return f.EvalDegree(i, x) * f.EvalDegree(j, x) * tt.weight(x)
						}, tt.min, tt.max, tt.nodes, nil, 0)
						expected := 0.0
						if i == j {
							expected = f.Norm(i)
						}
						assert.InDelta(t, expected, inner, 1e-8*math.Max(1, expected), fmt.Sprintf("<p_%d,p_%d>", i, j))
					}
				}
			})
		}
	}
}

func TestFamily_Norms(t *testing.T) {
	legendre, err := New(model.LegendreUniform, 3)
	assert.NoError(t, err)
	hermite, err := New(model.HermiteGauss, 5)
	assert.NoError(t, err)
	orthonormal, err := New(model.HermiteGauss, 5, WithNormalization(model.Orthonormal))
	assert.NoError(t, err)

	assert.Equal(t, 1.0, legendre.Norm(0))
	assert.InDelta(t, 1.0/7, legendre.Norm(3), 1e-15)
	assert.InDelta(t, 120, hermite.Norm(5), 1e-9)

	x := 0.7
	values := hermite.Eval(x, nil)
	scaled := orthonormal.Eval(x, nil)
	for k := range values {
		assert.Equal(t, 1.0, orthonormal.Norm(k))
		assert.InDelta(t, values[k]/math.Sqrt(hermite.Norm(k)), scaled[k], 1e-12)
	}
}

func TestFamily_Stability(t *testing.T) {
	f, err := New(model.LegendreUniform, 60)
	assert.NoError(t, err)

	assert.InDelta(t, 1, f.EvalDegree(60, 1), 1e-10)
	assert.InDelta(t, 1, f.EvalDegree(60, -1), 1e-10)
	assert.InDelta(t, -1, f.EvalDegree(59, -1), 1e-10)

	dst := make([]float64, 0, 61)
	for i := -100; i <= 100; i++ {
		x := float64(i) / 100
		dst = f.Eval(x, dst)
		for k, v := range dst {
			assert.False(t, math.IsNaN(v))
			assert.LessOrEqual(t, math.Abs(v), 1+1e-9, fmt.Sprintf("degree %d at %v", k, x))
		}
	}
}

func TestFamily_Recurrence(t *testing.T) {
	f, err := New(model.LegendreUniform, 3)
	assert.NoError(t, err)

	rec := f.Recurrence()
	if diff := cmp.Diff([]float64{1, 1.5, 5.0 / 3}, rec.A, cmpopts.EquateApprox(0, 1e-15)); diff != "" {
		t.Errorf("unexpected A coefficients: %s", diff)
	}
	if diff := cmp.Diff([]float64{0, 0.5, 2.0 / 3}, rec.C, cmpopts.EquateApprox(0, 1e-15)); diff != "" {
		t.Errorf("unexpected C coefficients: %s", diff)
	}

	// the table is a copy
	rec.A[0] = 10
	assert.Equal(t, 0.5, f.EvalDegree(1, 0.5))
}

func TestNew_Invalid(t *testing.T) {

	type test struct {
		family model.Family
		degree int
		opts   []Option
		err    error
	}

	tests := map[string]test{
		"unknown-family": {
			family: model.Family("SW"),
			degree: 3,
			err:    model.UnsupportedDistributionErr,
		},
		"no-family": {
			family: model.NoFamily,
			degree: 3,
			err:    model.UnsupportedDistributionErr,
		},
		"negative-degree": {
			family: model.LegendreUniform,
			degree: -1,
			err:    model.InvalidConfigurationErr,
		},
		"laguerre-alpha": {
			family: model.LaguerreGamma,
			degree: 3,
			opts:   []Option{WithAlpha(-1)},
			err:    model.InvalidConfigurationErr,
		},
		"jacobi-beta": {
			family: model.JacobiBeta,
			degree: 3,
			opts:   []Option{WithBeta(-2)},
			err:    model.InvalidConfigurationErr,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f, err := New(tt.family, tt.degree, tt.opts...)
			assert.ErrorIs(t, err, tt.err)
			assert.Nil(t, f)
		})
	}
}

func TestFamily_Germ(t *testing.T) {

	tests := map[string][]Option{
		string(model.LegendreUniform): nil,
		string(model.HermiteGauss):    nil,
		string(model.LaguerreGamma):   {WithAlpha(0.5)},
		string(model.JacobiBeta):      {WithAlpha(0.5), WithBeta(2)},
	}

	for name, opts := range tests {
		t.Run(name, func(t *testing.T) {
			f, err := New(model.Family(name), 2, opts...)
			assert.NoError(t, err)

			lo, hi := f.Support()
			points := f.Sample(rand.NewPCG(1, 2), 500, 2)
			assert.Equal(t, 500, len(points))
			sum := 0.0
			for _, p := range points {
				assert.Equal(t, 2, len(p))
				for _, x := range p {
					assert.GreaterOrEqual(t, x, lo)
					assert.LessOrEqual(t, x, hi)
					sum += f.EvalDegree(1, x)
				}
			}
			// p_1 has zero mean under the germ
			assert.InDelta(t, 0, sum/1000, 0.15)
		})
	}
}
