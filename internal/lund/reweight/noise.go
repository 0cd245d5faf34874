package reweight

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Noise is a pre-drawn ensemble of standard-normal deviates: one value per
// ensemble member per cell of a fixed shape. Reusing the same Noise for
// every jet of a sample correlates the toys across jets.
type Noise struct {
	members int
	size    int
	shape   []int
	strides []int
	values  []float64
}

// NewNoise draws members×Π(shape) deviates from src.
func NewNoise(members int, shape []int, src rand.Source) *Noise {
	n := &Noise{
		members: members,
		shape:   append([]int(nil), shape...),
		strides: make([]int, len(shape)),
	}
	size := 1
	for i := len(shape) - 1; i >= 0; i-- {
		n.strides[i] = size
		size *= shape[i]
	}
	n.size = size
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	n.values = make([]float64, members*size)
	for i := range n.values {
		n.values[i] = norm.Rand()
	}
	return n
}

// Members returns the ensemble size.
func (n *Noise) Members() int { return n.members }

// Shape returns the per-member cell shape.
func (n *Noise) Shape() []int { return append([]int(nil), n.shape...) }

// At returns the deviate of member m at 0-based cell coordinates.
func (n *Noise) At(m int, idx ...int) float64 {
	if m < 0 || m >= n.members || len(idx) != len(n.shape) {
		panic(fmt.Sprintf("reweight: noise index (%d, %v) outside %d×%v", m, idx, n.members, n.shape))
	}
	off := m * n.size
	for i, x := range idx {
		if x < 0 || x >= n.shape[i] {
			panic(fmt.Sprintf("reweight: noise index (%d, %v) outside %d×%v", m, idx, n.members, n.shape))
		}
		off += x * n.strides[i]
	}
	return n.values[off]
}

// covers reports whether every axis of n is at least as long as shape.
func (n *Noise) covers(shape []int) bool {
	if len(shape) != len(n.shape) {
		return false
	}
	for i := range shape {
		if n.shape[i] < shape[i] {
			return false
		}
	}
	return true
}
