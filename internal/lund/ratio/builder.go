package ratio

import (
	"errors"
	"fmt"

	"github.com/banshee-data/lundplane/internal/lund/density"
	"github.com/banshee-data/lundplane/internal/monitoring"
)

var (
	// ErrEmptyEstimate is returned when background plus simulation has no
	// yield to scale to data.
	ErrEmptyEstimate = errors.New("background plus simulation has zero integral")
	// ErrPtEdges is returned when the pt edges disagree with the maps.
	ErrPtEdges = errors.New("pt bin edges do not match the density pt axis")
	// ErrDimension is returned for inputs that are not 3D maps.
	ErrDimension = errors.New("ratio inputs must be 3D density maps")
)

// Diagnostic ratio display ranges.
const (
	DisplayRatioMax  = 2.0
	DisplayRelUncMax = 1.0
)

// Slice holds the per-pt-bin intermediate maps of a ratio build. All maps
// are 2D (angle, kt). Ratio is clamped to [0, DisplayRatioMax] and
// RelUncertainty to [0, DisplayRelUncMax].
type Slice struct {
	PtBin          int
	PtLow, PtHigh  float64
	DataYield      float64 // Background-subtracted data in this pt bin, before normalization
	Background     *density.Map
	Simulation     *density.Map
	Data           *density.Map
	Ratio          *density.Map
	RelUncertainty *density.Map
}

// BuildRatio returns the calibration ratio (data - background) / simulation
// binned like the inputs.
func BuildRatio(data, bkg, mc *density.Map, ptEdges []float64) (*density.Map, error) {
	r, _, err := build(data, bkg, mc, ptEdges, false)
	return r, err
}

// BuildRatioWithDiagnostics is BuildRatio that also returns the per-pt-bin
// slices.
func BuildRatioWithDiagnostics(data, bkg, mc *density.Map, ptEdges []float64) (*density.Map, []Slice, error) {
	return build(data, bkg, mc, ptEdges, true)
}

func build(data, bkg, mc *density.Map, ptEdges []float64, keep bool) (*density.Map, []Slice, error) {
	if data.Dim() != 3 {
		return nil, nil, ErrDimension
	}
	if !data.SameBinning(bkg) || !data.SameBinning(mc) {
		return nil, nil, density.ErrBinningMismatch
	}
	ptAxis := data.Axis(0)
	if ptEdges != nil {
		want, err := density.NewVariableAxis(ptEdges)
		if err != nil || !want.Equal(ptAxis) {
			return nil, nil, fmt.Errorf("%w: got %v, map has %v", ErrPtEdges, ptEdges, ptAxis.Edges())
		}
	}

	bkgScaled := bkg.Clone()
	mcScaled := mc.Clone()
	bkgScaled.CleanNegativeBins()
	mcScaled.CleanNegativeBins()

	est := bkgScaled.Integral() + mcScaled.Integral()
	if est == 0 {
		return nil, nil, ErrEmptyEstimate
	}
	norm := data.Integral() / est
	monitoring.Logf("ratio: data %.1f, estimate %.1f, normalization %.4f", data.Integral(), est, norm)
	bkgScaled.Scale(norm)
	mcScaled.Scale(norm)

	dataSub := data.Clone()
	if err := dataSub.Add(bkgScaled, -1); err != nil {
		return nil, nil, err
	}
	dataSub.CleanNegativeBins()

	out := data.EmptyClone()
	var slices []Slice
	for i := 1; i <= ptAxis.NBins(); i++ {
		d, err := dataSub.Slice(i)
		if err != nil {
			return nil, nil, err
		}
		s, err := mcScaled.Slice(i)
		if err != nil {
			return nil, nil, err
		}
		yield := d.Integral()
		if !d.Normalize() || !s.Normalize() {
			monitoring.Logf("ratio: pt bin %d [%.0f, %.0f) has an empty slice (data %.1f)", i, ptAxis.BinLowEdge(i), ptAxis.BinUpEdge(i), yield)
		}
		r := d.Clone()
		if err := r.Divide(s); err != nil {
			return nil, nil, err
		}
		if err := out.SetSlice(i, r); err != nil {
			return nil, nil, err
		}

		if !keep {
			continue
		}
		b, err := bkgScaled.Slice(i)
		if err != nil {
			return nil, nil, err
		}
		b.Normalize()
		rel := r.RelativeUncertainty()
		rel.ClampContents(0, DisplayRelUncMax)
		shown := r.Clone()
		shown.ClampContents(0, DisplayRatioMax)
		slices = append(slices, Slice{
			PtBin:          i,
			PtLow:          ptAxis.BinLowEdge(i),
			PtHigh:         ptAxis.BinUpEdge(i),
			DataYield:      yield,
			Background:     b,
			Simulation:     s,
			Data:           d,
			Ratio:          shown,
			RelUncertainty: rel,
		})
	}
	return out, slices, nil
}
