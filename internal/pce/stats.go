package pce

// Sobol holds the variance based sensitivity indices of an expansion.
type Sobol struct {
	Variance float64 `json:"variance"`
	// Main is the fraction of variance due to each dimension alone.
	Main []float64 `json:"main"`
	// Total is the fraction of variance involving each dimension.
	Total []float64 `json:"total"`
	// Joint is the fraction of variance due to exactly each pair of dimensions,
	// with the main indices on the diagonal.
	Joint [][]float64 `json:"joint"`
}

// Mean returns the expectation of the expansion under the germ distribution.
func (b *Basis) Mean(coefficients []float64) (float64, error) {
	if err := b.checkCoefficients(coefficients); err != nil {
		return 0, err
	}
	return coefficients[0] * b.constant, nil
}

// Variance returns the variance of the expansion under the germ distribution.
func (b *Basis) Variance(coefficients []float64) (float64, error) {
	if err := b.checkCoefficients(coefficients); err != nil {
		return 0, err
	}
	return b.variance(coefficients), nil
}

func (b *Basis) variance(coefficients []float64) float64 {
	v := 0.0
	for j := 1; j < b.Terms(); j++ {
		v += coefficients[j] * coefficients[j] * b.norms[j]
	}
	return v
}

// Sensitivity computes the Sobol indices of the expansion.
// A constant expansion has all indices at zero.
func (b *Basis) Sensitivity(coefficients []float64) (Sobol, error) {
	if err := b.checkCoefficients(coefficients); err != nil {
		return Sobol{}, err
	}

	dim := b.Dim()
	s := Sobol{
		Variance: b.variance(coefficients),
		Main:     make([]float64, dim),
		Total:    make([]float64, dim),
		Joint:    make([][]float64, dim),
	}
	for d := range s.Joint {
		s.Joint[d] = make([]float64, dim)
	}
	if s.Variance == 0 {
		return s, nil
	}

	active := make([]int, 0, dim)
	for j := 1; j < b.Terms(); j++ {
		share := coefficients[j] * coefficients[j] * b.norms[j] / s.Variance
		active = active[:0]
		for d := 0; d < dim; d++ {
			if b.set.Exponent(j, d) > 0 {
				active = append(active, d)
				s.Total[d] += share
			}
		}
		switch len(active) {
		case 1:
			s.Main[active[0]] += share
			s.Joint[active[0]][active[0]] += share
		case 2:
			s.Joint[active[0]][active[1]] += share
			s.Joint[active[1]][active[0]] += share
		}
	}
	return s, nil
}
