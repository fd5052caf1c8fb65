package model

import (
	"fmt"
	"sort"
	"strings"
)

// Family defines the orthogonal polynomial family, tagged by the distribution of the germ.
type Family string

const (
	// NoFamily is an undefined family
	NoFamily Family = ""
	// LegendreUniform represents Legendre polynomials of a uniform germ on [-1,1]
	LegendreUniform Family = "LU"
	// HermiteGauss represents probabilists' Hermite polynomials of a standard normal germ
	HermiteGauss Family = "HG"
	// LaguerreGamma represents generalised Laguerre polynomials of a Gamma(alpha+1,1) germ on [0,inf)
	LaguerreGamma Family = "LG"
	// JacobiBeta represents Jacobi polynomials of a Beta germ on [-1,1] with density (1-x)^alpha (1+x)^beta
	JacobiBeta Family = "JB"
)

// Families contains all the supported families.
var Families = map[string]Family{
	"LU": LegendreUniform,
	"HG": HermiteGauss,
	"LG": LaguerreGamma,
	"JB": JacobiBeta,
}

// KnownFamilies returns the tags of all supported families.
func KnownFamilies() []string {
	ff := make([]string, len(Families))
	i := 0
	for f := range Families {
		ff[i] = f
		i++
	}
	sort.Strings(ff)
	return ff
}

// ParseFamily returns the family for the given tag.
func ParseFamily(s string) (Family, bool) {
	f, ok := Families[strings.ToUpper(strings.TrimSpace(s))]
	return f, ok
}

// UnmarshalText accepts the known family tags in any case.
func (f *Family) UnmarshalText(b []byte) error {
	family, ok := ParseFamily(string(b))
	if !ok {
		return fmt.Errorf("unknown family '%s', expected one of %v: %w", string(b), KnownFamilies(), UnsupportedDistributionErr)
	}
	*f = family
	return nil
}

// Normalization defines the scaling convention of the univariate polynomials.
type Normalization byte

const (
	// Standard keeps the classical polynomials, with p_0 = 1 and <p_k^2> = h_k.
	Standard Normalization = iota
	// Orthonormal scales every polynomial to unit norm.
	Orthonormal
)

func (n Normalization) String() string {
	switch n {
	case Standard:
		return "standard"
	case Orthonormal:
		return "orthonormal"
	}
	return "unknown"
}

// MarshalText encodes the normalization by name.
func (n Normalization) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText decodes the normalization from its name.
func (n *Normalization) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "", "standard":
		*n = Standard
	case "orthonormal":
		*n = Orthonormal
	default:
		return fmt.Errorf("unknown normalization '%s': %w", string(b), InvalidConfigurationErr)
	}
	return nil
}

// Truncation defines the rule selecting which multi-indices belong to a basis.
type Truncation byte

const (
	// TotalOrder keeps the multi-indices with a total degree up to the order.
	TotalOrder Truncation = iota
	// TensorProduct keeps the multi-indices with every exponent up to the order.
	TensorProduct
	// Hyperbolic keeps the multi-indices with a q-quasi-norm up to the order.
	Hyperbolic
)

func (t Truncation) String() string {
	switch t {
	case TotalOrder:
		return "total"
	case TensorProduct:
		return "tensor"
	case Hyperbolic:
		return "hyperbolic"
	}
	return "unknown"
}

// MarshalText encodes the truncation by name.
func (t Truncation) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes the truncation from its name.
func (t *Truncation) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "", "total":
		*t = TotalOrder
	case "tensor":
		*t = TensorProduct
	case "hyperbolic":
		*t = Hyperbolic
	default:
		return fmt.Errorf("unknown truncation '%s': %w", string(b), InvalidConfigurationErr)
	}
	return nil
}
