package pce

import (
	"context"

	"github.com/drakos74/polychaos/internal/metrics"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// Evaluate evaluates the expansion with the given coefficients at every point.
func (b *Basis) Evaluate(coefficients []float64, points [][]float64) ([]float64, error) {
	if err := b.checkCoefficients(coefficients); err != nil {
		return nil, err
	}
	if err := b.checkPoints(points); err != nil {
		return nil, err
	}
	out := make([]float64, len(points))
	b.evaluate(coefficients, points, out)
	metrics.Observer.IncrementEvaluations(string(b.Family()))
	return out, nil
}

// EvaluateParallel evaluates the expansion like Evaluate, splitting the points over the given number of workers.
func (b *Basis) EvaluateParallel(ctx context.Context, coefficients []float64, points [][]float64, workers int) ([]float64, error) {
	if err := b.checkCoefficients(coefficients); err != nil {
		return nil, err
	}
	if err := b.checkPoints(points); err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}

	out := make([]float64, len(points))
	chunk := (len(points) + workers - 1) / workers
	g, ctx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(points); lo += chunk {
		hi := min(lo+chunk, len(points))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b.evaluate(coefficients, points[lo:hi], out[lo:hi])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	metrics.Observer.IncrementEvaluations(string(b.Family()))
	return out, nil
}

// evaluate expects validated inputs.
func (b *Basis) evaluate(coefficients []float64, points [][]float64, out []float64) {
	row := make([]float64, b.Terms())
	table := make([]float64, (b.family.Degree()+1)*b.Dim())
	for i, point := range points {
		row = b.row(point, row, table)
		out[i] = floats.Dot(row, coefficients)
	}
}
