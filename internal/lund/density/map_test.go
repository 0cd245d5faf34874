package density

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lundplane/internal/lund"
	"github.com/banshee-data/lundplane/internal/testutil"
)

func newTest2D(t *testing.T) *Map {
	t.Helper()
	m, err := New2D(DefaultLundDR, NewUniformAxis(6, 0, 6), NewUniformAxis(10, -5, 5))
	require.NoError(t, err)
	return m
}

func newTest3D(t *testing.T) *Map {
	t.Helper()
	pt, err := NewVariableAxis([]float64{0, 200, 400, 800})
	require.NoError(t, err)
	m, err := New3D(DefaultLundDR, pt, NewUniformAxis(6, 0, 6), NewUniformAxis(10, -5, 5))
	require.NoError(t, err)
	return m
}

func TestNewMap_Dimension(t *testing.T) {
	t.Parallel()

	a := NewUniformAxis(2, 0, 1)
	_, err := NewMap(0.8, a)
	assert.ErrorIs(t, err, ErrDimension)
	_, err = NewMap(0.8, a, a, a, a)
	assert.ErrorIs(t, err, ErrDimension)
	_, err = NewMap(0, a, a)
	assert.Error(t, err)

	m, err := NewMap(0.8, a, a, a)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Dim())
	assert.Equal(t, []int{2, 2, 2}, m.Shape())
}

func TestMap_Fill2D(t *testing.T) {
	t.Parallel()

	m := newTest2D(t)
	// ln(0.8/0.2) = 1.386 -> angle bin 2; ln(2) = 0.693 -> kt bin 6.
	m.Fill(0, 0.2, 2, 1.5)
	m.Fill(0, 0.2, 2, 0.5)
	assert.InDelta(t, 2.0, m.Content(2, 6), 1e-12)
	assert.InDelta(t, 1.5*1.5+0.5*0.5, m.Variance(2, 6), 1e-12)
	assert.InDelta(t, math.Sqrt(2.5), m.Error(2, 6), 1e-12)
	assert.InDelta(t, 2.0, m.Integral(), 1e-12)

	x, y := m.LundCoordinates(0.2, 2)
	assert.InDelta(t, math.Log(4), x, 1e-12)
	assert.InDelta(t, math.Log(2), y, 1e-12)
}

func TestMap_Fill3DUsesSubjetPt(t *testing.T) {
	t.Parallel()

	m := newTest3D(t)
	m.Fill(450, 0.2, 2, 1)
	assert.InDelta(t, 1.0, m.Content(3, 2, 6), 1e-12)
	m.Fill(900, 0.2, 2, 1)
	assert.InDelta(t, 1.0, m.Content(4, 2, 6), 1e-12, "pt above last edge goes to overflow")
	assert.InDelta(t, 1.0, m.Integral(), 1e-12, "overflow is excluded from the integral")
	assert.InDelta(t, 2.0, m.Entries(), 1e-12)
}

func TestMap_FillSkipsDegenerateAndNaN(t *testing.T) {
	t.Parallel()

	m := newTest2D(t)
	m.Fill(0, 0, 2, 1)
	m.Fill(0, 0.2, 0, 1)
	m.Fill(0, -0.1, 2, 1)
	m.Fill(0, 0.2, 2, math.NaN())
	m.FillCoords(1, math.NaN(), 0)
	m.FillCoords(1, 0)
	assert.Zero(t, m.Entries())
}

func TestMap_FlowBins(t *testing.T) {
	t.Parallel()

	m := newTest2D(t)
	// ΔR larger than R gives a negative angle coordinate: underflow.
	m.Fill(0, 2.0, 2, 1)
	assert.InDelta(t, 1.0, m.Content(0, 6), 1e-12)
	assert.Zero(t, m.Integral())
}

func TestMap_IndexPanicsOutOfRange(t *testing.T) {
	t.Parallel()

	m := newTest2D(t)
	assert.Panics(t, func() { m.Content(8, 1) })
	assert.Panics(t, func() { m.Content(-1, 1) })
	assert.Panics(t, func() { m.Content(1) })
	assert.NotPanics(t, func() { m.Content(7, 11) })
}

func TestFillMany_WeightCount(t *testing.T) {
	t.Parallel()

	a, b := newTest2D(t), newTest2D(t)
	err := FillMany([]*Map{a, b}, []float64{1}, 0, 0.2, 2)
	assert.True(t, errors.Is(err, ErrWeightCount))

	require.NoError(t, FillMany([]*Map{a, b}, []float64{1, 3}, 0, 0.2, 2))
	assert.InDelta(t, 1.0, a.Content(2, 6), 1e-12)
	assert.InDelta(t, 3.0, b.Content(2, 6), 1e-12)
}

func TestFillTree(t *testing.T) {
	t.Parallel()

	tree := lund.SplittingTree{
		Subjets: []lund.Subjet{{Pt: 300}, {Pt: 100}},
		Splittings: []lund.Splitting{
			{SubjetIndex: 0, DeltaR: 0.2, Kt: 2},
			{SubjetIndex: 0, DeltaR: 0, Kt: 2},
			{SubjetIndex: 1, DeltaR: 0.2, Kt: 2},
			{SubjetIndex: 5, DeltaR: 0.2, Kt: 2},
		},
	}
	m := newTest3D(t)
	require.NoError(t, FillTree([]*Map{m}, []float64{1}, tree, -1))
	assert.InDelta(t, 1.0, m.Content(2, 2, 6), 1e-12)
	assert.InDelta(t, 1.0, m.Content(1, 2, 6), 1e-12)
	assert.InDelta(t, 2.0, m.Entries(), 1e-12)

	only := newTest3D(t)
	require.NoError(t, FillTree([]*Map{only}, []float64{1}, tree, 1))
	assert.InDelta(t, 1.0, only.Entries(), 1e-12)
	assert.InDelta(t, 1.0, only.Content(1, 2, 6), 1e-12)

	assert.ErrorIs(t, FillTree([]*Map{m}, nil, tree, -1), ErrWeightCount)
}

func TestMap_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	m := newTest2D(t)
	m.Fill(0, 0.2, 2, 1)
	c := m.Clone()
	c.Fill(0, 0.2, 2, 1)
	assert.InDelta(t, 1.0, m.Content(2, 6), 1e-12)
	assert.InDelta(t, 2.0, c.Content(2, 6), 1e-12)

	e := m.EmptyClone()
	assert.True(t, e.SameBinning(m))
	assert.Zero(t, e.Entries())

	m.Reset()
	assert.Zero(t, m.Entries())
	assert.Zero(t, m.Variance(2, 6))
}

func TestMap_ScaleAndAdd(t *testing.T) {
	t.Parallel()

	a, b := newTest2D(t), newTest2D(t)
	a.SetBin(4, 2, 1, 1)
	b.SetBin(1, 1, 1, 1)

	require.NoError(t, a.Add(b, -2))
	assert.InDelta(t, 2.0, a.Content(1, 1), 1e-12)
	assert.InDelta(t, 4.0+4.0, a.Variance(1, 1), 1e-12)

	a.Scale(0.5)
	assert.InDelta(t, 1.0, a.Content(1, 1), 1e-12)
	assert.InDelta(t, 2.0, a.Variance(1, 1), 1e-12)

	require.NoError(t, a.Merge(b))
	assert.InDelta(t, 2.0, a.Content(1, 1), 1e-12)

	other := newTest3D(t)
	assert.ErrorIs(t, a.Add(other, 1), ErrBinningMismatch)
	assert.ErrorIs(t, a.Divide(other), ErrBinningMismatch)
}

func TestMap_Divide(t *testing.T) {
	t.Parallel()

	num, den := newTest2D(t), newTest2D(t)
	num.SetBin(2, 0.2, 1, 1)
	den.SetBin(4, 0.4, 1, 1)
	num.SetBin(3, 1, 2, 2)

	require.NoError(t, num.Divide(den))
	assert.InDelta(t, 0.5, num.Content(1, 1), 1e-12)
	// (0.04*16 + 0.16*4) / 256
	assert.InDelta(t, (0.04*16+0.16*4)/256, num.Variance(1, 1), 1e-12)
	assert.Zero(t, num.Content(2, 2), "zero denominator gives zero")
	assert.Zero(t, num.Error(2, 2))
}

func TestMap_Normalize(t *testing.T) {
	t.Parallel()

	m := newTest2D(t)
	assert.False(t, m.Normalize(), "empty map cannot be normalized")

	m.SetBin(3, 0, 1, 1)
	m.SetBin(1, 0, 2, 2)
	m.SetBin(100, 0, 0, 0)
	require.True(t, m.Normalize())
	assert.InDelta(t, 1.0, m.Integral(), 1e-12)
	assert.InDelta(t, 0.75, m.Content(1, 1), 1e-12)
	assert.InDelta(t, 25.0, m.Content(0, 0), 1e-12, "flow bins scale with the map")
}

func TestMap_CleanNegativeBins(t *testing.T) {
	t.Parallel()

	m := newTest2D(t)
	m.SetBin(-1, 3, 1, 1)
	m.SetBin(2, 3, 2, 2)
	m.SetBin(-5, 1, 7, 11)
	m.CleanNegativeBins()
	assert.Zero(t, m.Content(1, 1))
	assert.Zero(t, m.Error(1, 1))
	assert.Zero(t, m.Content(7, 11))
	assert.InDelta(t, 2.0, m.Content(2, 2), 1e-12)
	assert.InDelta(t, 3.0, m.Error(2, 2), 1e-12)
}

func TestMap_ClampAndRelativeUncertainty(t *testing.T) {
	t.Parallel()

	m := newTest2D(t)
	m.SetBin(5, 1, 1, 1)
	m.SetBin(0.5, 0.25, 2, 2)
	m.SetBin(-1, 1, 3, 3)

	rel := m.RelativeUncertainty()
	assert.InDelta(t, 0.2, rel.Content(1, 1), 1e-12)
	assert.InDelta(t, 0.5, rel.Content(2, 2), 1e-12)
	assert.Zero(t, rel.Content(3, 3))

	m.ClampContents(0, 2)
	assert.InDelta(t, 2.0, m.Content(1, 1), 1e-12)
	assert.InDelta(t, 0.5, m.Content(2, 2), 1e-12)
	assert.Zero(t, m.Content(3, 3))
	assert.InDelta(t, 1.0, m.Error(1, 1), 1e-12, "clamping leaves errors alone")
}

func TestMap_Populated(t *testing.T) {
	t.Parallel()

	m := newTest3D(t)
	m.SetBin(1, 0, 1, 2, 3)
	m.SetBin(2, 0, 3, 6, 10)
	m.SetBin(5, 0, 0, 1, 1)
	m.SetBin(-1, 0, 2, 2, 2)

	var got [][]int
	var sum float64
	m.Populated(func(bins []int, c float64) {
		got = append(got, append([]int(nil), bins...))
		sum += c
	})
	assert.Equal(t, [][]int{{1, 2, 3}, {3, 6, 10}}, got)
	testutil.AssertFloatNear(t, sum, 3, 1e-12)
}

func TestMap_SliceRoundTrip(t *testing.T) {
	t.Parallel()

	m := newTest3D(t)
	m.SetBin(3, 0.5, 2, 4, 5)
	m.SetBin(7, 1, 2, 0, 11)
	m.SetBin(9, 1, 1, 4, 5)

	s, err := m.Slice(2)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Dim())
	assert.InDelta(t, 3.0, s.Content(4, 5), 1e-12)
	assert.InDelta(t, 0.5, s.Error(4, 5), 1e-12)
	assert.InDelta(t, 7.0, s.Content(0, 11), 1e-12, "flow bins are part of the slice")
	assert.InDelta(t, 10.0, s.Entries(), 1e-12)

	s.Scale(2)
	other := newTest3D(t)
	require.NoError(t, other.SetSlice(3, s))
	assert.InDelta(t, 6.0, other.Content(3, 4, 5), 1e-12)
	assert.InDelta(t, 1.0, other.Error(3, 4, 5), 1e-12)
	assert.InDelta(t, 20.0, other.Entries(), 1e-12)

	_, err = s.Slice(1)
	assert.ErrorIs(t, err, ErrDimension)
	assert.ErrorIs(t, other.SetSlice(1, other), ErrDimension)
	wrong, err := New2D(DefaultLundDR, NewUniformAxis(3, 0, 6), NewUniformAxis(10, -5, 5))
	require.NoError(t, err)
	assert.ErrorIs(t, other.SetSlice(1, wrong), ErrBinningMismatch)
}
