package poly

import (
	"math/rand/v2"

	"github.com/drakos74/polychaos/internal/model"
	"gonum.org/v1/gonum/stat/distuv"
)

// Germ returns the distribution the family is orthogonal against.
// Callers use it to draw sample designs; the polynomials themselves never sample.
func (f *Family) Germ(src rand.Source) distuv.Rander {
	switch f.family {
	case model.HermiteGauss:
		return distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	case model.LaguerreGamma:
		return distuv.Gamma{Alpha: f.alpha + 1, Beta: 1, Src: src}
	case model.JacobiBeta:
		// (1-x)^alpha (1+x)^beta on [-1,1] is Beta(beta+1, alpha+1) on [0,1]
		return shifted{
			rander: distuv.Beta{Alpha: f.beta + 1, Beta: f.alpha + 1, Src: src},
			scale:  2,
			shift:  -1,
		}
	}
	return distuv.Uniform{Min: -1, Max: 1, Src: src}
}

// shifted maps the draws of a distribution through an affine transform.
type shifted struct {
	rander distuv.Rander
	scale  float64
	shift  float64
}

func (s shifted) Rand() float64 {
	return s.scale*s.rander.Rand() + s.shift
}

// Sample draws n points of the given dimension with independent germs.
func (f *Family) Sample(src rand.Source, n, dim int) [][]float64 {
	germ := f.Germ(src)
	points := make([][]float64, n)
	for i := range points {
		points[i] = make([]float64, dim)
		for d := range points[i] {
			points[i][d] = germ.Rand()
		}
	}
	return points
}
