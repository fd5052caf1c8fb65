package pce

import (
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	lsq "github.com/drakos74/polychaos/internal/math"
	"github.com/drakos74/polychaos/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}

// roundTrip evaluates the expansion with coefficients 1..npce at n sampled points and fits it back.
func roundTrip(t *testing.T, cfg model.Config, n int, seed uint64, opts ...RegressionOption) ([]float64, *Fit, error) {
	b := newBasis(t, cfg)
	coefficients := sequence(b.Terms())
	points := b.Polynomials().Sample(rand.NewPCG(seed, seed), n, cfg.Dim)
	outputs, err := b.Evaluate(coefficients, points)
	require.NoError(t, err)
	fit, err := b.Fit(points, outputs, opts...)
	return coefficients, fit, err
}

func TestFit_RoundTrip(t *testing.T) {
	// as many samples as basis terms
	coefficients, fit, err := roundTrip(t, model.NewConfig(model.LegendreUniform, 3, 5), 56, 42)
	require.NoError(t, err)
	require.Len(t, fit.Coefficients, 56)

	assert.Equal(t, coefficients[0], round(fit.Coefficients[0], 5))
	for j := 1; j < len(coefficients); j++ {
		assert.Equal(t, coefficients[j], round(fit.Coefficients[j], 5), "coefficient %d", j)
	}
	assert.True(t, fit.Reliable())
	assert.NotEqual(t, uuid.Nil, fit.ID)
	assert.Equal(t, lsq.MethodQR, fit.Diagnostics.Method)
	assert.Equal(t, 56, fit.Diagnostics.Rank)
	assert.Less(t, fit.Residuals.MaxAbs, 1e-6)
}

func TestFit_Families(t *testing.T) {

	type test struct {
		cfg     model.Config
		samples int
	}

	tests := map[string]test{
		"lu-2d-4": {
			cfg:     model.NewConfig(model.LegendreUniform, 2, 4),
			samples: 60,
		},
		"hg-3d-3": {
			cfg:     model.NewConfig(model.HermiteGauss, 3, 3),
			samples: 100,
		},
		"hg-2d-4-orthonormal": {
			cfg:     model.NewConfig(model.HermiteGauss, 2, 4).WithNormalization(model.Orthonormal),
			samples: 60,
		},
		"lg-2d-3": {
			cfg:     model.NewConfig(model.LaguerreGamma, 2, 3).WithParams(1, 0),
			samples: 50,
		},
		"jb-2d-3": {
			cfg:     model.NewConfig(model.JacobiBeta, 2, 3).WithParams(1, 2),
			samples: 50,
		},
		"lu-2d-3-tensor": {
			cfg:     model.NewConfig(model.LegendreUniform, 2, 3).WithTruncation(model.TensorProduct, 0),
			samples: 64,
		},
		"lu-3d-4-hyperbolic": {
			cfg:     model.NewConfig(model.LegendreUniform, 3, 4).WithTruncation(model.Hyperbolic, 0.6),
			samples: 60,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			coefficients, fit, err := roundTrip(t, tt.cfg, tt.samples, 17)
			require.NoError(t, err)
			assert.InDeltaSlice(t, coefficients, fit.Coefficients, 1e-6)
			assert.True(t, fit.Reliable())
		})
	}
}

func TestFit_Solvers(t *testing.T) {
	cfg := model.NewConfig(model.LegendreUniform, 2, 3)
	for name, solver := range map[string]lsq.LeastSquares{
		"qr":  lsq.QR{},
		"svd": lsq.SVD{},
	} {
		t.Run(name, func(t *testing.T) {
			coefficients, fit, err := roundTrip(t, cfg, 30, 5, WithSolver(solver))
			require.NoError(t, err)
			assert.InDeltaSlice(t, coefficients, fit.Coefficients, 1e-9)
			assert.Equal(t, 10, fit.Diagnostics.Rank)
		})
	}
}

func TestFit_Underdetermined(t *testing.T) {
	_, fit, err := roundTrip(t, model.NewConfig(model.LegendreUniform, 3, 5), 20, 42)
	assert.ErrorIs(t, err, model.UnderdeterminedSystemErr)
	assert.True(t, model.IsRecoverable(err))
	require.NotNil(t, fit)
	assert.Len(t, fit.Coefficients, 56)
	assert.True(t, fit.Underdetermined)
	assert.False(t, fit.Reliable())
	// the minimum norm solution interpolates the samples
	assert.Less(t, fit.Residuals.MaxAbs, 1e-8)
}

func TestFit_Empty(t *testing.T) {
	b := newBasis(t, model.NewConfig(model.HermiteGauss, 2, 2))
	fit, err := b.Fit([][]float64{}, []float64{})
	assert.ErrorIs(t, err, model.UnderdeterminedSystemErr)
	assert.ErrorIs(t, err, model.IllConditionedSystemErr)
	require.NotNil(t, fit)
	assert.Equal(t, make([]float64, 6), fit.Coefficients)
	assert.Equal(t, Residuals{}, fit.Residuals)
}

func TestFit_IllConditioned(t *testing.T) {
	b := newBasis(t, model.NewConfig(model.LegendreUniform, 2, 3))

	// 30 rows from 5 distinct points
	distinct := b.Polynomials().Sample(rand.NewPCG(3, 3), 5, 2)
	points := make([][]float64, 0, 30)
	for i := 0; i < 6; i++ {
		points = append(points, distinct...)
	}
	outputs, err := b.Evaluate(sequence(b.Terms()), points)
	require.NoError(t, err)

	for name, solver := range map[string]lsq.LeastSquares{
		"qr":  lsq.QR{},
		"svd": lsq.SVD{},
	} {
		t.Run(name, func(t *testing.T) {
			fit, err := b.Fit(points, outputs, WithSolver(solver))
			assert.ErrorIs(t, err, model.IllConditionedSystemErr)
			assert.NotErrorIs(t, err, model.UnderdeterminedSystemErr)
			assert.True(t, model.IsRecoverable(err))
			require.NotNil(t, fit)
			assert.Len(t, fit.Coefficients, b.Terms())
			assert.True(t, fit.IllConditioned)
			assert.False(t, fit.Underdetermined)
		})
	}

	fit, _ := b.Fit(points, outputs, WithSolver(lsq.SVD{}))
	assert.Equal(t, 5, fit.Diagnostics.Rank)
	assert.Less(t, fit.Residuals.MaxAbs, 1e-8)
}

func TestFit_ConditionThreshold(t *testing.T) {
	cfg := model.NewConfig(model.LegendreUniform, 2, 3)

	coefficients, fit, err := roundTrip(t, cfg, 40, 9, WithConditionThreshold(1))
	assert.ErrorIs(t, err, model.IllConditionedSystemErr)
	require.NotNil(t, fit)
	assert.InDeltaSlice(t, coefficients, fit.Coefficients, 1e-9)

	_, _, err = roundTrip(t, cfg, 40, 9, WithConditionThreshold(math.Inf(1)))
	assert.NoError(t, err)
}

func TestFit_DuplicatePoints(t *testing.T) {
	b := newBasis(t, model.NewConfig(model.LegendreUniform, 2, 3))
	points := b.Polynomials().Sample(rand.NewPCG(21, 21), 30, 2)
	points = append(points, points[:10]...)
	coefficients := sequence(b.Terms())
	outputs, err := b.Evaluate(coefficients, points)
	require.NoError(t, err)

	fit, err := b.Fit(points, outputs)
	require.NoError(t, err)
	assert.InDeltaSlice(t, coefficients, fit.Coefficients, 1e-9)
}

func TestFit_Noise(t *testing.T) {
	b := newBasis(t, model.NewConfig(model.LegendreUniform, 1, 2))
	src := rand.NewPCG(8, 8)
	points := b.Polynomials().Sample(src, 2000, 1)
	noise := rand.New(src)
	outputs := make([]float64, len(points))
	for i, p := range points {
		outputs[i] = 1 + 2*p[0] + 0.01*noise.NormFloat64()
	}

	fit, err := b.Fit(points, outputs)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 2, 0}, fit.Coefficients, 5e-3)
	assert.InDelta(t, 0.01, fit.Residuals.RMSE, 2e-3)
	assert.InDelta(t, 0.0, fit.Residuals.Mean, 2e-3)
}

func TestFit_Invalid(t *testing.T) {

	b := newBasis(t, model.NewConfig(model.LegendreUniform, 2, 1))

	type test struct {
		points  [][]float64
		outputs []float64
	}

	tests := map[string]test{
		"more-outputs": {
			points:  [][]float64{{0, 0}, {1, 0}, {0, 1}},
			outputs: []float64{1, 2, 3, 4},
		},
		"more-points": {
			points:  [][]float64{{0, 0}, {1, 0}, {0, 1}},
			outputs: []float64{1, 2},
		},
		"point-dimension": {
			points:  [][]float64{{0, 0}, {1, 0, 1}, {0, 1}},
			outputs: []float64{1, 2, 3},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			fit, err := b.Fit(tt.points, tt.outputs)
			assert.ErrorIs(t, err, model.DimensionMismatchErr)
			assert.False(t, model.IsRecoverable(err))
			assert.Nil(t, fit)
		})
	}
}

func TestFit_Concurrent(t *testing.T) {
	b := newBasis(t, model.NewConfig(model.HermiteGauss, 2, 3))
	coefficients := sequence(b.Terms())

	var wg sync.WaitGroup
	fits := make([]*Fit, 8)
	errs := make([]error, 8)
	for i := range fits {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			points := b.Polynomials().Sample(rand.NewPCG(uint64(i), 1), 40, 2)
			outputs, err := b.Evaluate(coefficients, points)
			if err != nil {
				errs[i] = err
				return
			}
			fits[i], errs[i] = b.Fit(points, outputs)
		}(i)
	}
	wg.Wait()

	ids := make(map[uuid.UUID]struct{})
	for i, fit := range fits {
		require.NoError(t, errs[i])
		assert.InDeltaSlice(t, coefficients, fit.Coefficients, 1e-8)
		ids[fit.ID] = struct{}{}
	}
	assert.Len(t, ids, len(fits))
}
