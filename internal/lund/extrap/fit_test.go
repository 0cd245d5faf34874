package extrap

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lundplane/internal/lund/density"
	"github.com/banshee-data/lundplane/internal/monitoring"
)

func TestFitPolynomial_ExactLine(t *testing.T) {
	t.Parallel()

	xs := []float64{1, 2, 3, 4}
	ys := []float64{3, 5, 7, 9}
	p, err := FitPolynomial(xs, ys, nil, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, p.Param(0), 1e-9)
	assert.InDelta(t, 2.0, p.Param(1), 1e-9)
	assert.InDelta(t, 11.0, p.Eval(5), 1e-9)
}

func TestFitPolynomial_ParameterErrors(t *testing.T) {
	t.Parallel()

	// Constant fit of n points with equal error σ has error σ/√n.
	p, err := FitPolynomial([]float64{1, 2, 3, 4}, []float64{1, 1, 1, 1}, []float64{0.2, 0.2, 0.2, 0.2}, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, p.Param(0), 1e-12)
	assert.InDelta(t, 0.1, p.ParamError(0), 1e-12)
}

func TestFitPolynomial_Weighted(t *testing.T) {
	t.Parallel()

	// The precise point dominates the weighted mean.
	p, err := FitPolynomial([]float64{1, 2}, []float64{1, 3}, []float64{0.01, 1}, 0)
	require.NoError(t, err)
	want := (1/1e-4*1 + 1*3) / (1/1e-4 + 1)
	assert.InDelta(t, want, p.Param(0), 1e-9)
}

func TestFitPolynomial_Singular(t *testing.T) {
	t.Parallel()

	_, err := FitPolynomial([]float64{1}, []float64{1}, nil, 1)
	assert.True(t, errors.Is(err, ErrSingularFit))

	_, err = FitPolynomial([]float64{2, 2}, []float64{1, 3}, nil, 1)
	assert.ErrorIs(t, err, ErrSingularFit)

	_, err = FitPolynomial([]float64{1, 2}, []float64{1}, nil, 0)
	assert.Error(t, err)
}

func TestFitTable_LinearInPt(t *testing.T) {
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	pt, err := density.NewVariableAxis([]float64{200, 300, 400, 500, 600})
	require.NoError(t, err)
	ratio, err := density.New3D(density.DefaultLundDR, pt, density.NewUniformAxis(2, 0, 2), density.NewUniformAxis(2, 0, 2))
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		c := pt.BinCenter(i)
		ratio.SetBin(0.5+0.001*c, 0.05, i, 1, 1)
		ratio.SetBin(2, 0.05, i, 2, 2)
	}

	table, err := FitTable(ratio, 2, 1, "")
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	f, ok := table.Function("", 1, 1)
	require.True(t, ok)
	assert.InDelta(t, 0.5+0.001*800, f.Eval(800), 1e-6)
	assert.False(t, math.IsNaN(f.ParamError(1)))

	g, ok := table.Function("", 2, 2)
	require.True(t, ok)
	assert.InDelta(t, 2.0, g.Eval(1000), 1e-6)

	_, ok = table.Function("", 1, 2)
	assert.False(t, ok, "empty bins get no function")
}

func TestFitTable_Errors(t *testing.T) {
	t.Parallel()

	m2, err := density.New2D(density.DefaultLundDR, density.NewUniformAxis(2, 0, 2), density.NewUniformAxis(2, 0, 2))
	require.NoError(t, err)
	_, err = FitTable(m2, 1, 1, "")
	assert.ErrorIs(t, err, density.ErrDimension)

	m3, err := density.New3D(density.DefaultLundDR, density.NewUniformAxis(2, 0, 2), density.NewUniformAxis(2, 0, 2), density.NewUniformAxis(2, 0, 2))
	require.NoError(t, err)
	_, err = FitTable(m3, 3, 1, "")
	assert.Error(t, err)
}
