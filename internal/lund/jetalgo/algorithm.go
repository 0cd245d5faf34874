package jetalgo

import (
	"errors"
	"fmt"
)

// UnboundedR is the radius used when a caller asks for a single inclusive
// clustering domain.
const UnboundedR = 1000.0

// ErrInvalidRadius is returned for non-positive or non-finite radii.
var ErrInvalidRadius = errors.New("jet radius must be positive and finite")

// Algorithm selects the distance measure of the generalized-kt family.
type Algorithm int

const (
	// KtAlgorithm clusters softest pairs first (p = 1).
	KtAlgorithm Algorithm = iota
	// CambridgeAlgorithm clusters by angle only (p = 0).
	CambridgeAlgorithm
	// AntiKtAlgorithm clusters around the hardest particles first (p = -1).
	AntiKtAlgorithm
)

// String returns the algorithm name.
func (a Algorithm) String() string {
	switch a {
	case KtAlgorithm:
		return "kt"
	case CambridgeAlgorithm:
		return "cambridge"
	case AntiKtAlgorithm:
		return "antikt"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// momentumScale returns pt^(2p) for the algorithm.
func (a Algorithm) momentumScale(pt2 float64) float64 {
	switch a {
	case KtAlgorithm:
		return pt2
	case AntiKtAlgorithm:
		if pt2 == 0 {
			return infiniteDistance
		}
		return 1 / pt2
	default:
		return 1
	}
}

// Definition pairs an algorithm with a radius.
type Definition struct {
	Algorithm Algorithm
	R         float64
}

// NewDefinition returns a Definition. A negative radius selects UnboundedR.
func NewDefinition(alg Algorithm, r float64) Definition {
	if r < 0 {
		r = UnboundedR
	}
	return Definition{Algorithm: alg, R: r}
}

// String returns a short description such as "kt R=0.8".
func (d Definition) String() string {
	return fmt.Sprintf("%s R=%g", d.Algorithm, d.R)
}
