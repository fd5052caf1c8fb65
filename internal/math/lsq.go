package math

import (
	"errors"
	"fmt"
	"math"

	"github.com/drakos74/polychaos/internal/model"
	"gonum.org/v1/gonum/mat"
)

// Method names the factorisation a solution came from.
type Method string

const (
	MethodQR  Method = "qr"
	MethodLQ  Method = "lq"
	MethodSVD Method = "svd"
)

// Diagnostics reports the numerical state of a least-squares solve.
type Diagnostics struct {
	Method    Method  `json:"method"`
	Rows      int     `json:"rows"`
	Cols      int     `json:"cols"`
	Rank      int     `json:"rank"`
	Condition float64 `json:"condition"`
}

// RankDeficient returns true if the solved system did not have full rank.
func (d Diagnostics) RankDeficient() bool {
	return d.Rank < min(d.Rows, d.Cols)
}

// LeastSquares solves a ≈ b in the least squares sense.
// For wide or rank deficient systems implementations return the minimum-norm solution.
type LeastSquares interface {
	Solve(a *mat.Dense, b []float64) ([]float64, Diagnostics, error)
}

// QR solves tall systems by QR factorisation and wide systems by LQ factorisation.
// If the triangular factor is numerically singular it falls back to the SVD solution.
type QR struct {
	Fallback SVD
}

// Solve solves the given system.
func (q QR) Solve(a *mat.Dense, b []float64) ([]float64, Diagnostics, error) {
	m, n := a.Dims()
	d := Diagnostics{Rows: m, Cols: n}
	if m != len(b) {
		return nil, d, fmt.Errorf("matrix has %d rows but target has %d: %w", m, len(b), model.DimensionMismatchErr)
	}

	bv := mat.NewVecDense(m, b)
	x := mat.NewVecDense(n, nil)

	var err error
	if m >= n {
		qr := new(mat.QR)
		qr.Factorize(a)
		d.Method = MethodQR
		d.Condition = qr.Cond()
		err = qr.SolveVecTo(x, false, bv)
	} else {
		lq := new(mat.LQ)
		lq.Factorize(a)
		d.Method = MethodLQ
		d.Condition = lq.Cond()
		err = lq.SolveVecTo(x, false, bv)
	}
	d.Rank = min(m, n)

	if err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, d, fmt.Errorf("could not solve %s: %w", d.Method, err)
		}
		d.Condition = float64(cond)
	}
	if math.IsNaN(d.Condition) || d.Condition*float64(max(m, n))*epsilon >= 1 {
		return q.Fallback.Solve(a, b)
	}

	return x.RawVector().Data, d, nil
}

// SVD solves the system through the truncated singular value decomposition.
// Singular values below RCond times the largest one are discarded,
// which yields the minimum-norm solution for rank deficient systems.
type SVD struct {
	RCond float64
}

// Solve solves the given system.
func (s SVD) Solve(a *mat.Dense, b []float64) ([]float64, Diagnostics, error) {
	m, n := a.Dims()
	d := Diagnostics{Method: MethodSVD, Rows: m, Cols: n}
	if m != len(b) {
		return nil, d, fmt.Errorf("matrix has %d rows but target has %d: %w", m, len(b), model.DimensionMismatchErr)
	}

	svd := new(mat.SVD)
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, d, fmt.Errorf("could not factorize %dx%d matrix", m, n)
	}

	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	rcond := s.RCond
	if rcond <= 0 {
		rcond = float64(max(m, n)) * epsilon
	}

	ub := mat.NewVecDense(len(values), nil)
	ub.MulVec(u.T(), mat.NewVecDense(m, b))
	for i, sv := range values {
		if sv > rcond*values[0] {
			ub.SetVec(i, ub.AtVec(i)/sv)
			d.Rank++
		} else {
			ub.SetVec(i, 0)
		}
	}

	x := mat.NewVecDense(n, nil)
	x.MulVec(&v, ub)

	d.Condition = svd.Cond()
	return x.RawVector().Data, d, nil
}

const epsilon = 2.220446049250313e-16
