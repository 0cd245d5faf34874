package density

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrAxisEdges is returned for axes without at least two strictly
// increasing finite edges.
var ErrAxisEdges = errors.New("axis needs at least two strictly increasing finite edges")

// Axis is a binning along one dimension.
type Axis struct {
	edges []float64
}

// NewUniformAxis returns an axis of n equal-width bins spanning [lo, hi).
func NewUniformAxis(n int, lo, hi float64) Axis {
	edges := make([]float64, n+1)
	width := (hi - lo) / float64(n)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[n] = hi
	return Axis{edges: edges}
}

// NewVariableAxis returns an axis with the given bin edges.
func NewVariableAxis(edges []float64) (Axis, error) {
	if len(edges) < 2 {
		return Axis{}, ErrAxisEdges
	}
	for i, e := range edges {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return Axis{}, fmt.Errorf("%w: edge %d is %v", ErrAxisEdges, i, e)
		}
		if i > 0 && e <= edges[i-1] {
			return Axis{}, fmt.Errorf("%w: edge %d (%v) <= edge %d (%v)", ErrAxisEdges, i, e, i-1, edges[i-1])
		}
	}
	cp := make([]float64, len(edges))
	copy(cp, edges)
	return Axis{edges: cp}, nil
}

// NBins returns the number of in-range bins.
func (a Axis) NBins() int { return len(a.edges) - 1 }

// Low returns the lower edge of the first bin.
func (a Axis) Low() float64 { return a.edges[0] }

// High returns the upper edge of the last bin.
func (a Axis) High() float64 { return a.edges[len(a.edges)-1] }

// Edges returns a copy of the bin edges.
func (a Axis) Edges() []float64 {
	cp := make([]float64, len(a.edges))
	copy(cp, a.edges)
	return cp
}

// BinLowEdge returns the lower edge of in-range bin i (1-based).
func (a Axis) BinLowEdge(i int) float64 { return a.edges[i-1] }

// BinUpEdge returns the upper edge of in-range bin i (1-based).
func (a Axis) BinUpEdge(i int) float64 { return a.edges[i] }

// BinCenter returns the centre of in-range bin i (1-based).
func (a Axis) BinCenter(i int) float64 { return 0.5 * (a.edges[i-1] + a.edges[i]) }

// FindBin returns the bin holding x: 0 below Low, NBins()+1 at or above
// High, otherwise the 1-based bin whose [low, up) range contains x.
func (a Axis) FindBin(x float64) int {
	if x < a.edges[0] {
		return 0
	}
	n := a.NBins()
	if x >= a.edges[n] {
		return n + 1
	}
	// First edge strictly greater than x.
	return sort.Search(len(a.edges), func(i int) bool { return a.edges[i] > x })
}

// Equal reports whether two axes have identical edges.
func (a Axis) Equal(b Axis) bool {
	if len(a.edges) != len(b.edges) {
		return false
	}
	for i := range a.edges {
		if a.edges[i] != b.edges[i] {
			return false
		}
	}
	return true
}
