package density

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/lundplane/internal/lund"
)

var (
	// ErrDimension is returned for maps that are neither 2D nor 3D, or when
	// an operation needs a specific dimensionality.
	ErrDimension = errors.New("density map must be 2D or 3D")
	// ErrBinningMismatch is returned when two maps do not share binning.
	ErrBinningMismatch = errors.New("density maps have different binning")
	// ErrWeightCount is returned when a batch fill has one weight per map
	// missing or extra.
	ErrWeightCount = errors.New("number of weights does not match number of maps")
)

// DefaultLundDR is the jet radius R in the ln(R/ΔR) coordinate.
const DefaultLundDR = 0.8

// Map is a Lund-plane density. 3D maps bin (subjet pt, ln(R/ΔR), ln kt);
// 2D maps bin (ln(R/ΔR), ln kt).
type Map struct {
	axes    []Axis
	strides []int
	content []float64
	sumw2   []float64
	dR      float64
}

// NewMap builds an empty map with two or three axes. dR is the R of the
// ln(R/ΔR) coordinate.
func NewMap(dR float64, axes ...Axis) (*Map, error) {
	if len(axes) != 2 && len(axes) != 3 {
		return nil, fmt.Errorf("%w: got %d axes", ErrDimension, len(axes))
	}
	if !(dR > 0) {
		return nil, fmt.Errorf("lund dR must be positive, got %v", dR)
	}
	m := &Map{
		axes:    make([]Axis, len(axes)),
		strides: make([]int, len(axes)),
		dR:      dR,
	}
	size := 1
	for i := len(axes) - 1; i >= 0; i-- {
		if axes[i].NBins() < 1 {
			return nil, fmt.Errorf("axis %d: %w", i, ErrAxisEdges)
		}
		m.axes[i] = axes[i]
		m.strides[i] = size
		size *= axes[i].NBins() + 2
	}
	m.content = make([]float64, size)
	m.sumw2 = make([]float64, size)
	return m, nil
}

// New2D builds an empty (ln(R/ΔR), ln kt) map.
func New2D(dR float64, angle, kt Axis) (*Map, error) {
	return NewMap(dR, angle, kt)
}

// New3D builds an empty (pt, ln(R/ΔR), ln kt) map.
func New3D(dR float64, pt, angle, kt Axis) (*Map, error) {
	return NewMap(dR, pt, angle, kt)
}

// Dim returns 2 or 3.
func (m *Map) Dim() int { return len(m.axes) }

// LundDR returns the R of the ln(R/ΔR) coordinate.
func (m *Map) LundDR() float64 { return m.dR }

// Axis returns axis i (0-based).
func (m *Map) Axis(i int) Axis { return m.axes[i] }

// NBins returns the in-range bin count of axis i (0-based).
func (m *Map) NBins(i int) int { return m.axes[i].NBins() }

// Shape returns the in-range bin count of every axis.
func (m *Map) Shape() []int {
	s := make([]int, len(m.axes))
	for i, a := range m.axes {
		s[i] = a.NBins()
	}
	return s
}

// index maps bin coordinates to a flat offset. Coordinates outside
// [0, n+1] are a contract violation and panic.
func (m *Map) index(bins ...int) int {
	if len(bins) != len(m.axes) {
		panic(fmt.Sprintf("density: %d bin coordinates for a %dD map", len(bins), len(m.axes)))
	}
	idx := 0
	for i, b := range bins {
		if b < 0 || b > m.axes[i].NBins()+1 {
			panic(fmt.Sprintf("density: bin %d out of range [0, %d] on axis %d", b, m.axes[i].NBins()+1, i))
		}
		idx += b * m.strides[i]
	}
	return idx
}

// Content returns the summed weight of a bin.
func (m *Map) Content(bins ...int) float64 { return m.content[m.index(bins...)] }

// Variance returns the summed squared weight of a bin.
func (m *Map) Variance(bins ...int) float64 { return m.sumw2[m.index(bins...)] }

// Error returns the statistical error of a bin, sqrt(variance).
func (m *Map) Error(bins ...int) float64 { return math.Sqrt(m.sumw2[m.index(bins...)]) }

// SetBin overwrites the content and error of a bin.
func (m *Map) SetBin(content, err float64, bins ...int) {
	i := m.index(bins...)
	m.content[i] = content
	m.sumw2[i] = err * err
}

// LundCoordinates returns (ln(R/ΔR), ln kt) for an emission.
func (m *Map) LundCoordinates(deltaR, kt float64) (float64, float64) {
	return math.Log(m.dR / deltaR), math.Log(kt)
}

// Fill adds w to the bin of an emission. 2D maps ignore subjetPt. Emissions
// with deltaR <= 0 or kt <= 0 are skipped.
func (m *Map) Fill(subjetPt, deltaR, kt, w float64) {
	if !(deltaR > 0 && kt > 0) {
		return
	}
	x, y := m.LundCoordinates(deltaR, kt)
	if m.Dim() == 3 {
		m.FillCoords(w, subjetPt, x, y)
		return
	}
	m.FillCoords(w, x, y)
}

// FillCoords adds w at raw axis coordinates. Fills with a NaN coordinate or
// weight are dropped so that NaN never enters a bin.
func (m *Map) FillCoords(w float64, x ...float64) {
	if len(x) != len(m.axes) || math.IsNaN(w) {
		return
	}
	idx := 0
	for i, v := range x {
		if math.IsNaN(v) {
			return
		}
		idx += m.axes[i].FindBin(v) * m.strides[i]
	}
	m.content[idx] += w
	m.sumw2[idx] += w * w
}

// FillMany fills the same emission into a batch of co-indexed maps, each
// with its own weight: the nominal map plus one map per systematic
// variation.
func FillMany(maps []*Map, weights []float64, subjetPt, deltaR, kt float64) error {
	if len(maps) != len(weights) {
		return fmt.Errorf("%w: %d maps, %d weights", ErrWeightCount, len(maps), len(weights))
	}
	for i, m := range maps {
		m.Fill(subjetPt, deltaR, kt, weights[i])
	}
	return nil
}

// FillTree fills every splitting of tree into maps. A non-negative subjet
// restricts the fill to that subjet's splittings.
func FillTree(maps []*Map, weights []float64, tree lund.SplittingTree, subjet int) error {
	if len(maps) != len(weights) {
		return fmt.Errorf("%w: %d maps, %d weights", ErrWeightCount, len(maps), len(weights))
	}
	for _, s := range tree.Splittings {
		if subjet >= 0 && s.SubjetIndex != subjet {
			continue
		}
		if !s.Valid() || s.SubjetIndex < 0 || s.SubjetIndex >= len(tree.Subjets) {
			continue
		}
		pt := tree.Subjets[s.SubjetIndex].Pt
		for i, m := range maps {
			m.Fill(pt, s.DeltaR, s.Kt, weights[i])
		}
	}
	return nil
}

// Reset zeroes every bin, keeping the binning.
func (m *Map) Reset() {
	clear(m.content)
	clear(m.sumw2)
}

// Clone returns an independent deep copy.
func (m *Map) Clone() *Map {
	c := m.EmptyClone()
	copy(c.content, m.content)
	copy(c.sumw2, m.sumw2)
	return c
}

// EmptyClone returns a map with the same binning and every bin zero.
func (m *Map) EmptyClone() *Map {
	c := &Map{
		axes:    make([]Axis, len(m.axes)),
		strides: make([]int, len(m.strides)),
		content: make([]float64, len(m.content)),
		sumw2:   make([]float64, len(m.sumw2)),
		dR:      m.dR,
	}
	copy(c.axes, m.axes)
	copy(c.strides, m.strides)
	return c
}

// SameBinning reports whether o has the same axes and Lund radius as m.
func (m *Map) SameBinning(o *Map) bool {
	if o == nil || len(m.axes) != len(o.axes) || m.dR != o.dR {
		return false
	}
	for i := range m.axes {
		if !m.axes[i].Equal(o.axes[i]) {
			return false
		}
	}
	return true
}

// Integral returns the summed content of the in-range bins.
func (m *Map) Integral() float64 {
	var sum float64
	m.forEachBin(func(idx int, _ []int) {
		sum += m.content[idx]
	})
	return sum
}

// Entries returns the summed content of every bin including flow bins.
func (m *Map) Entries() float64 {
	return floats.Sum(m.content)
}

// Scale multiplies every content by c and every variance by c².
func (m *Map) Scale(c float64) {
	floats.Scale(c, m.content)
	floats.Scale(c*c, m.sumw2)
}

// Add adds c times o bin by bin, combining variances in quadrature.
func (m *Map) Add(o *Map, c float64) error {
	if !m.SameBinning(o) {
		return ErrBinningMismatch
	}
	floats.AddScaled(m.content, c, o.content)
	floats.AddScaled(m.sumw2, c*c, o.sumw2)
	return nil
}

// Merge sums a partial map into m.
func (m *Map) Merge(o *Map) error {
	return m.Add(o, 1)
}

// Divide replaces m with m / den bin by bin, propagating uncorrelated
// errors. Bins where den is zero are set to zero content and error.
func (m *Map) Divide(den *Map) error {
	if !m.SameBinning(den) {
		return ErrBinningMismatch
	}
	for i := range m.content {
		c1, c2 := m.content[i], den.content[i]
		if c2 == 0 {
			m.content[i] = 0
			m.sumw2[i] = 0
			continue
		}
		c22 := c2 * c2
		m.sumw2[i] = (m.sumw2[i]*c22 + den.sumw2[i]*c1*c1) / (c22 * c22)
		m.content[i] = c1 / c2
	}
	return nil
}

// Normalize scales m to unit in-range integral. It reports false, leaving m
// untouched, when the integral is zero.
func (m *Map) Normalize() bool {
	integral := m.Integral()
	if integral == 0 {
		return false
	}
	m.Scale(1 / integral)
	return true
}

// CleanNegativeBins resets every bin with negative content to zero content
// and zero error.
func (m *Map) CleanNegativeBins() {
	for i, c := range m.content {
		if c < 0 {
			m.content[i] = 0
			m.sumw2[i] = 0
		}
	}
}

// ClampContents limits every in-range content to [lo, hi]. Errors are left
// unchanged.
func (m *Map) ClampContents(lo, hi float64) {
	m.forEachBin(func(idx int, _ []int) {
		m.content[idx] = math.Max(lo, math.Min(m.content[idx], hi))
	})
}

// RelativeUncertainty returns a map whose in-range contents are error /
// content where content is positive and zero elsewhere. Its errors are zero.
func (m *Map) RelativeUncertainty() *Map {
	out := m.EmptyClone()
	m.forEachBin(func(idx int, _ []int) {
		if c := m.content[idx]; c > 0 {
			out.content[idx] = math.Sqrt(m.sumw2[idx]) / c
		}
	})
	return out
}

// Slice returns the 2D (angle, kt) layer of a 3D map at ptBin, flow bins
// included.
func (m *Map) Slice(ptBin int) (*Map, error) {
	if m.Dim() != 3 {
		return nil, fmt.Errorf("%w: slicing a %dD map", ErrDimension, m.Dim())
	}
	out, err := New2D(m.dR, m.axes[1], m.axes[2])
	if err != nil {
		return nil, err
	}
	base := m.index(ptBin, 0, 0)
	copy(out.content, m.content[base:base+m.strides[0]])
	copy(out.sumw2, m.sumw2[base:base+m.strides[0]])
	return out, nil
}

// SetSlice overwrites the ptBin layer of a 3D map with the content and
// errors of a 2D map of matching (angle, kt) binning, flow bins included.
func (m *Map) SetSlice(ptBin int, s *Map) error {
	if m.Dim() != 3 || s.Dim() != 2 {
		return fmt.Errorf("%w: setting a %dD slice of a %dD map", ErrDimension, s.Dim(), m.Dim())
	}
	if !m.axes[1].Equal(s.axes[0]) || !m.axes[2].Equal(s.axes[1]) {
		return ErrBinningMismatch
	}
	base := m.index(ptBin, 0, 0)
	copy(m.content[base:base+m.strides[0]], s.content)
	copy(m.sumw2[base:base+m.strides[0]], s.sumw2)
	return nil
}

// Populated calls fn for every in-range bin with positive content. The
// bins slice is reused between calls and must not be retained.
func (m *Map) Populated(fn func(bins []int, content float64)) {
	m.forEachBin(func(idx int, bins []int) {
		if c := m.content[idx]; c > 0 {
			fn(bins, c)
		}
	})
}

// forEachBin visits every in-range bin in row-major order.
func (m *Map) forEachBin(fn func(idx int, bins []int)) {
	bins := make([]int, len(m.axes))
	for i := range bins {
		bins[i] = 1
	}
	for {
		idx := 0
		for i, b := range bins {
			idx += b * m.strides[i]
		}
		fn(idx, bins)

		d := len(bins) - 1
		for d >= 0 {
			bins[d]++
			if bins[d] <= m.axes[d].NBins() {
				break
			}
			bins[d] = 1
			d--
		}
		if d < 0 {
			return
		}
	}
}
