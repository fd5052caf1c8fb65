package model

import "errors"

var (
	// InvalidConfigurationErr signals a basis that cannot be constructed with the given dimension, order or parameters.
	InvalidConfigurationErr = errors.New("invalid configuration")
	// UnsupportedDistributionErr signals a family tag without an implemented polynomial family.
	UnsupportedDistributionErr = errors.New("unsupported distribution")
	// DimensionMismatchErr signals inconsistent coefficient, point or output lengths for a call.
	DimensionMismatchErr = errors.New("dimension mismatch")
	// UnderdeterminedSystemErr signals a regression with fewer samples than basis terms.
	// The minimum-norm solution accompanies it.
	UnderdeterminedSystemErr = errors.New("underdetermined system")
	// IllConditionedSystemErr signals a design matrix with a condition number above the threshold.
	// The computed coefficients accompany it.
	IllConditionedSystemErr = errors.New("ill-conditioned system")
)

// IsRecoverable returns true if the error still comes with a usable regression result.
func IsRecoverable(err error) bool {
	if err == nil {
		return true
	}
	return errors.Is(err, UnderdeterminedSystemErr) || errors.Is(err, IllConditionedSystemErr)
}
