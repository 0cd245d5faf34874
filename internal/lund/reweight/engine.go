package reweight

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/lundplane/internal/lund"
	"github.com/banshee-data/lundplane/internal/lund/density"
	"github.com/banshee-data/lundplane/internal/lund/extrap"
)

// ErrNoiseShape is returned when a noise ensemble does not cover the cells
// it is indexed with.
var ErrNoiseShape = errors.New("noise ensemble shape does not match")

// Options selects the optional outputs of a Reweight call.
type Options struct {
	// Table enables pt extrapolation for 3D ratio maps. Nil always uses
	// the calibrated bins.
	Table    extrap.Table
	SysLabel string

	ComputeUncertainty bool

	// Noise has one cell per in-range ratio bin; PtNoise has shape
	// (angle bins, kt bins, parameters).
	Noise   *Noise
	PtNoise *Noise

	// Scratch is filled with one subjet's splittings at a time. It must have
	// the ratio map's binning and must not be in use by another call. Nil
	// allocates one per call.
	Scratch *density.Map
}

// Engine reweights splitting trees. It holds no mutable state and may be
// used from many goroutines.
type Engine struct {
	params Params
}

// NewEngine returns an engine with the given thresholds.
func NewEngine(p Params) *Engine {
	return &Engine{params: p}
}

// Params returns the engine thresholds.
func (e *Engine) Params() Params { return e.params }

// weightState is the running product of one Reweight call.
type weightState struct {
	res lund.WeightResult
	unc float64
}

// Reweight computes the weight of one jet. Each subjet's splittings are
// binned into the scratch map and every populated bin multiplies the weight
// by the ratio value raised to the bin count. Subjet weights multiply.
func (e *Engine) Reweight(ratio *density.Map, tree lund.SplittingTree, opts Options) (lund.WeightResult, error) {
	scratch := opts.Scratch
	if scratch == nil {
		scratch = ratio.EmptyClone()
	} else if !scratch.SameBinning(ratio) {
		return lund.WeightResult{}, fmt.Errorf("scratch map: %w", density.ErrBinningMismatch)
	}
	if opts.Noise != nil && !opts.Noise.covers(ratio.Shape()) {
		return lund.WeightResult{}, fmt.Errorf("%w: bin noise %v for ratio %v", ErrNoiseShape, opts.Noise.Shape(), ratio.Shape())
	}

	st := weightState{res: lund.WeightResult{Weight: 1, HasUncertainty: opts.ComputeUncertainty}}
	if opts.Noise != nil {
		st.res.Smeared = ones(opts.Noise.Members())
	}
	if opts.PtNoise != nil {
		st.res.PtSmeared = ones(opts.PtNoise.Members())
	}

	extrapolate := opts.Table != nil && ratio.Dim() == 3
	idx := make([]int, ratio.Dim())
	for i, sj := range tree.Subjets {
		scratch.Reset()
		pt := calibratedPt(ratio, sj.Pt)
		for _, s := range tree.Splittings {
			if s.SubjetIndex == i {
				scratch.Fill(pt, s.DeltaR, s.Kt, 1)
			}
		}
		if extrapolate && sj.Pt >= e.params.PtExtrapThreshold {
			if err := e.applyExtrapolated(&st, scratch, sj.Pt, opts); err != nil {
				return lund.WeightResult{}, fmt.Errorf("subjet %d: %w", i, err)
			}
			continue
		}
		e.applyCalibrated(&st, ratio, scratch, idx, opts)
	}

	st.res.Weight = math.Max(st.res.Weight, e.params.WeightFloor)
	if opts.ComputeUncertainty {
		st.res.Uncertainty = st.unc
	}
	return st.res, nil
}

// applyCalibrated multiplies in the ratio bins matching the populated
// scratch bins.
func (e *Engine) applyCalibrated(st *weightState, ratio, scratch *density.Map, idx []int, opts Options) {
	scratch.Populated(func(bins []int, n float64) {
		v, err := ratio.Content(bins...), ratio.Error(bins...)
		if v <= e.params.RatioFloor && err <= e.params.RatioFloor {
			v, err = 1, 1
		}
		vn := math.Pow(v, n)
		if opts.ComputeUncertainty {
			lin := n * st.res.Weight * math.Pow(v, n-1) * err
			st.unc = math.Hypot(lin, vn*st.unc)
		}
		if opts.Noise != nil {
			for d, b := range bins {
				idx[d] = b - 1
			}
			for m := range st.res.Smeared {
				sv := math.Max(v+opts.Noise.At(m, idx...)*err, e.params.SmearFloor)
				st.res.Smeared[m] *= math.Pow(sv, n)
			}
		}
		st.res.Weight *= vn
		// pt toys see the calibrated value unchanged
		for m := range st.res.PtSmeared {
			st.res.PtSmeared[m] *= vn
		}
	})
}

// applyExtrapolated multiplies in the fitted ratio at the subjet pt for
// every populated (angle, kt) cell, summed over the pt axis of the scratch
// map. The uncertainty is not updated on this path.
func (e *Engine) applyExtrapolated(st *weightState, scratch *density.Map, pt float64, opts Options) error {
	nj, nk := scratch.NBins(1), scratch.NBins(2)
	var params []float64
	for j := 1; j <= nj; j++ {
		for k := 1; k <= nk; k++ {
			var n float64
			for i := 0; i <= scratch.NBins(0)+1; i++ {
				n += scratch.Content(i, j, k)
			}
			if n <= 0 {
				continue
			}
			f, ok := opts.Table.Function(opts.SysLabel, j, k)
			if !ok {
				return fmt.Errorf("%w (%q, %d, %d)", extrap.ErrMissingFunction, opts.SysLabel, j, k)
			}
			vn := math.Pow(math.Max(f.Eval(pt), e.params.SmearFloor), n)
			st.res.Weight *= vn
			for m := range st.res.Smeared {
				st.res.Smeared[m] *= vn
			}
			if opts.PtNoise == nil {
				continue
			}
			np := f.NumParams()
			if !opts.PtNoise.covers([]int{j, k, np}) {
				return fmt.Errorf("%w: pt noise %v for cell (%d, %d) with %d parameters", ErrNoiseShape, opts.PtNoise.Shape(), j, k, np)
			}
			if cap(params) < np {
				params = make([]float64, np)
			}
			params = params[:np]
			for m := range st.res.PtSmeared {
				for p := 0; p < np; p++ {
					params[p] = f.Param(p) + f.ParamError(p)*opts.PtNoise.At(m, j-1, k-1, p)
				}
				sv := math.Max(f.EvalParams(pt, params), e.params.SmearFloor)
				st.res.PtSmeared[m] *= math.Pow(sv, n)
			}
		}
	}
	return nil
}

// calibratedPt maps a subjet pt outside the pt axis of a 3D ratio map onto
// its nearest in-range bin, so out-of-range subjets use the edge calibration.
func calibratedPt(ratio *density.Map, pt float64) float64 {
	if ratio.Dim() != 3 {
		return pt
	}
	a := ratio.Axis(0)
	switch {
	case pt >= a.High():
		return a.BinCenter(a.NBins())
	case pt < a.Low():
		return a.BinCenter(1)
	}
	return pt
}

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
