package pce

import (
	"errors"
	"fmt"
	"math"

	lsq "github.com/drakos74/polychaos/internal/math"
	"github.com/drakos74/polychaos/internal/metrics"
	"github.com/drakos74/polychaos/internal/model"
	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

// DefaultConditionThreshold is the design matrix condition number above which a fit is flagged as ill-conditioned.
const DefaultConditionThreshold = 1e10

// Residuals summarises the differences between the observed outputs and the fitted expansion.
type Residuals struct {
	RMSE      float64 `json:"rmse"`
	MaxAbs    float64 `json:"max_abs"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"std_dev"`
	MedianAbs float64 `json:"median_abs"`
}

// Fit is the outcome of a regression.
type Fit struct {
	ID              uuid.UUID       `json:"id"`
	Coefficients    []float64       `json:"coefficients"`
	Diagnostics     lsq.Diagnostics `json:"diagnostics"`
	Residuals       Residuals       `json:"residuals"`
	Underdetermined bool            `json:"underdetermined"`
	IllConditioned  bool            `json:"ill_conditioned"`
}

// Reliable returns true if the coefficients are uniquely determined by the samples.
func (f *Fit) Reliable() bool {
	return !f.Underdetermined && !f.IllConditioned
}

// RegressionOption configures a regression.
type RegressionOption func(r *Regression)

// WithSolver sets the least squares solver.
func WithSolver(solver lsq.LeastSquares) RegressionOption {
	return func(r *Regression) {
		r.solver = solver
	}
}

// WithConditionThreshold sets the condition number above which a fit is flagged as ill-conditioned.
func WithConditionThreshold(threshold float64) RegressionOption {
	return func(r *Regression) {
		r.threshold = threshold
	}
}

// Regression recovers expansion coefficients from samples.
// It holds no state beyond its configuration and is safe for concurrent use.
type Regression struct {
	basis     *Basis
	solver    lsq.LeastSquares
	threshold float64
}

// NewRegression creates a new regression over the given basis.
func NewRegression(b *Basis, opts ...RegressionOption) *Regression {
	r := &Regression{
		basis:     b,
		solver:    lsq.QR{},
		threshold: DefaultConditionThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fit fits the basis to the given samples with the default regression.
func (b *Basis) Fit(points [][]float64, outputs []float64, opts ...RegressionOption) (*Fit, error) {
	return NewRegression(b, opts...).Fit(points, outputs)
}

// Fit finds the coefficients minimising the squared residuals between the expansion and the outputs.
//
// With fewer points than basis terms the minimum-norm coefficients are returned
// together with an error wrapping model.UnderdeterminedSystemErr.
// If the design matrix condition number exceeds the threshold the coefficients are returned
// together with an error wrapping model.IllConditionedSystemErr.
// Any other error comes without a fit.
func (r *Regression) Fit(points [][]float64, outputs []float64) (*Fit, error) {
	b := r.basis
	family := string(b.Family())

	if len(points) != len(outputs) {
		metrics.Observer.IncrementFits(family, metrics.StatusFailed)
		return nil, fmt.Errorf("got %d points for %d outputs: %w", len(points), len(outputs), model.DimensionMismatchErr)
	}
	if err := b.checkPoints(points); err != nil {
		metrics.Observer.IncrementFits(family, metrics.StatusFailed)
		return nil, err
	}

	fit := &Fit{
		ID: uuid.New(),
	}

	var coefficients []float64
	if len(points) == 0 {
		// the empty system has the zero vector as its minimum norm solution
		coefficients = make([]float64, b.Terms())
		fit.Diagnostics = lsq.Diagnostics{Cols: b.Terms(), Condition: math.Inf(1)}
	} else {
		a, err := b.Design(points)
		if err != nil {
			metrics.Observer.IncrementFits(family, metrics.StatusFailed)
			return nil, err
		}
		c, d, err := r.solver.Solve(a, outputs)
		if err != nil {
			metrics.Observer.IncrementFits(family, metrics.StatusFailed)
			return nil, fmt.Errorf("could not solve least squares for '%s': %w", b.cfg, err)
		}
		coefficients = c
		fit.Diagnostics = d
		metrics.Observer.ObserveCondition(family, d.Condition)
	}
	fit.Coefficients = coefficients

	residuals := make([]float64, len(points))
	b.evaluate(coefficients, points, residuals)
	floats.Sub(residuals, outputs)
	fit.Residuals = summarize(residuals)

	var errs []error
	status := metrics.StatusOK
	if len(points) < b.Terms() {
		fit.Underdetermined = true
		status = metrics.StatusUnderdetermined
		log.Warn().
			Str("config", b.cfg.String()).
			Int("samples", len(points)).
			Int("terms", b.Terms()).
			Msg("underdetermined regression, returning minimum norm solution")
		errs = append(errs, fmt.Errorf("%d samples for %d basis terms: %w", len(points), b.Terms(), model.UnderdeterminedSystemErr))
	}
	if fit.Diagnostics.Condition > r.threshold || fit.Diagnostics.RankDeficient() {
		fit.IllConditioned = true
		if status == metrics.StatusOK {
			status = metrics.StatusIllConditioned
		}
		log.Warn().
			Str("config", b.cfg.String()).
			Float64("condition", fit.Diagnostics.Condition).
			Float64("threshold", r.threshold).
			Int("rank", fit.Diagnostics.Rank).
			Msg("ill-conditioned design matrix")
		errs = append(errs, fmt.Errorf("condition number %g above %g: %w", fit.Diagnostics.Condition, r.threshold, model.IllConditionedSystemErr))
	}
	metrics.Observer.IncrementFits(family, status)

	return fit, errors.Join(errs...)
}

func summarize(residuals []float64) Residuals {
	if len(residuals) == 0 {
		return Residuals{}
	}
	abs := make([]float64, len(residuals))
	squares := make([]float64, len(residuals))
	for i, r := range residuals {
		abs[i] = math.Abs(r)
		squares[i] = r * r
	}
	// errors only come from empty inputs
	mse, _ := stats.Mean(squares)
	mean, _ := stats.Mean(residuals)
	sd, _ := stats.StandardDeviation(residuals)
	maxAbs, _ := stats.Max(abs)
	median, _ := stats.Median(abs)
	return Residuals{
		RMSE:      math.Sqrt(mse),
		MaxAbs:    maxAbs,
		Mean:      mean,
		StdDev:    sd,
		MedianAbs: median,
	}
}
