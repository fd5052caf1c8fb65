package model

import (
	"fmt"
	"strings"
)

// Config characterises a polynomial chaos basis.
// It is the immutable construction record of a basis and the part of an expansion that gets persisted.
type Config struct {
	Family        Family        `json:"family"`
	Dim           int           `json:"dim"`
	Order         int           `json:"order"`
	Alpha         float64       `json:"alpha,omitempty"`
	Beta          float64       `json:"beta,omitempty"`
	Normalization Normalization `json:"normalization"`
	Truncation    Truncation    `json:"truncation"`
	// Q is the quasi-norm exponent of the hyperbolic truncation.
	Q float64 `json:"q,omitempty"`
}

// NewConfig creates a new total order config with standard normalization.
func NewConfig(family Family, dim, order int) Config {
	return Config{
		Family: family,
		Dim:    dim,
		Order:  order,
	}
}

// WithParams sets the shape parameters of the Laguerre and Jacobi families.
func (c Config) WithParams(alpha, beta float64) Config {
	c.Alpha = alpha
	c.Beta = beta
	return c
}

// WithNormalization sets the normalization convention.
func (c Config) WithNormalization(n Normalization) Config {
	c.Normalization = n
	return c
}

// WithTruncation sets the truncation rule and, for hyperbolic sets, the quasi-norm exponent.
func (c Config) WithTruncation(t Truncation, q float64) Config {
	c.Truncation = t
	c.Q = q
	return c
}

// String creates a string representation of the config.
func (c Config) String() string {
	s := []string{
		string(c.Family),
		fmt.Sprintf("d%d", c.Dim),
		fmt.Sprintf("p%d", c.Order),
		c.Truncation.String(),
		c.Normalization.String(),
	}
	switch c.Family {
	case LaguerreGamma:
		s = append(s, fmt.Sprintf("a%g", c.Alpha))
	case JacobiBeta:
		s = append(s, fmt.Sprintf("a%g", c.Alpha), fmt.Sprintf("b%g", c.Beta))
	}
	if c.Truncation == Hyperbolic {
		s = append(s, fmt.Sprintf("q%g", c.Q))
	}
	return strings.Join(s, "-")
}

// Expansion is a basis description together with its coefficients.
type Expansion struct {
	Config       Config    `json:"config"`
	Coefficients []float64 `json:"coefficients"`
}

// NewExpansion creates a new expansion for the given config.
func NewExpansion(cfg Config, coefficients []float64) Expansion {
	cc := make([]float64, len(coefficients))
	copy(cc, coefficients)
	return Expansion{
		Config:       cfg,
		Coefficients: cc,
	}
}
