package reweight

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lundplane/internal/lund"
	"github.com/banshee-data/lundplane/internal/lund/density"
)

// BatchOptions configures Batch. Options.Scratch is ignored; every worker
// owns a scratch map.
type BatchOptions struct {
	Options
	Workers int // Non-positive means GOMAXPROCS
}

// BatchResult holds the renormalized weights of a sample, indexed by event.
// Smeared and PtSmeared are indexed [event][member].
type BatchResult struct {
	Weights       []float64
	Uncertainties []float64
	Smeared       [][]float64
	PtSmeared     [][]float64

	Mean    float64 // Mean of the clipped weights before renormalization
	Clipped int     // Weights clipped at WeightMax
}

// Batch reweights every tree, then clips the weights to [0, WeightMax] and
// divides them by their mean so the sample mean is one. Each member of the
// smeared ensembles is clipped and renormalized on its own. Uncertainties
// of weights below UncMinWeight are zeroed; the rest scale with the weight.
func (e *Engine) Batch(ctx context.Context, ratio *density.Map, trees []lund.SplittingTree, opts BatchOptions) (*BatchResult, error) {
	n := len(trees)
	raw := make([]lund.WeightResult, n)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = max(1, min(workers, n))

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			o := opts.Options
			o.Scratch = ratio.EmptyClone()
			for i := w; i < n; i += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				res, err := e.Reweight(ratio, trees[i], o)
				if err != nil {
					return err
				}
				raw[i] = res
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &BatchResult{
		Weights:       make([]float64, n),
		Uncertainties: make([]float64, n),
	}
	for i, r := range raw {
		out.Weights[i] = r.Weight
		if r.HasUncertainty && r.Weight >= e.params.UncMinWeight {
			out.Uncertainties[i] = r.Uncertainty
		}
	}
	if n == 0 {
		return out, nil
	}

	out.Clipped = e.clip(out.Weights)
	out.Mean = stat.Mean(out.Weights, nil)
	if out.Mean > 0 {
		floats.Scale(1/out.Mean, out.Weights)
		floats.Scale(1/out.Mean, out.Uncertainties)
	}

	if opts.Noise != nil {
		out.Smeared = e.normalizeEnsemble(raw, opts.Noise.Members(), func(r lund.WeightResult) []float64 { return r.Smeared })
	}
	if opts.PtNoise != nil {
		out.PtSmeared = e.normalizeEnsemble(raw, opts.PtNoise.Members(), func(r lund.WeightResult) []float64 { return r.PtSmeared })
	}
	return out, nil
}

// clip limits ws to [0, WeightMax] in place and returns how many values hit
// the upper bound.
func (e *Engine) clip(ws []float64) int {
	clipped := 0
	for i, w := range ws {
		switch {
		case w > e.params.WeightMax:
			ws[i] = e.params.WeightMax
			clipped++
		case w < 0:
			ws[i] = 0
		}
	}
	return clipped
}

// normalizeEnsemble clips and mean-normalizes each ensemble member across
// events.
func (e *Engine) normalizeEnsemble(raw []lund.WeightResult, members int, get func(lund.WeightResult) []float64) [][]float64 {
	out := make([][]float64, len(raw))
	for i, r := range raw {
		out[i] = append([]float64(nil), get(r)...)
	}
	col := make([]float64, len(raw))
	for m := 0; m < members; m++ {
		for i := range raw {
			col[i] = out[i][m]
		}
		e.clip(col)
		mean := stat.Mean(col, nil)
		for i := range raw {
			if mean > 0 {
				out[i][m] = col[i] / mean
			} else {
				out[i][m] = col[i]
			}
		}
	}
	return out
}
