package dataset

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/lundplane/internal/lund"
	"github.com/banshee-data/lundplane/internal/lund/density"
	"github.com/banshee-data/lundplane/internal/lund/reweight"
	"github.com/banshee-data/lundplane/internal/monitoring"
)

// FillLundPlane fills the splittings of every selected event into nominal
// with the nominal weights, and into each map of variations with the
// weights of that systematic. Workers fill private partial maps that are
// merged at the end. It returns the trees in event order.
func (d *Dataset) FillLundPlane(ctx context.Context, nominal *density.Map, variations map[string]*density.Map) ([]lund.SplittingTree, error) {
	evs := d.selected()
	nomW, err := d.Weights()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(variations))
	for name := range variations {
		names = append(names, name)
	}
	sort.Strings(names)

	maps := []*density.Map{nominal}
	weights := [][]float64{nomW}
	for _, name := range names {
		if !ValidSystematic(name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSystematic, name)
		}
		w, err := d.variationWeights(evs, nomW, name)
		if err != nil {
			return nil, err
		}
		maps = append(maps, variations[name])
		weights = append(weights, w)
	}

	trees, err := d.trees(ctx, evs)
	if err != nil {
		return nil, err
	}

	acc := density.NewAccumulator(maps...)
	workers := max(1, min(d.workers(), len(trees)))
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			partial := acc.EmptyPartials()
			ew := make([]float64, len(weights))
			for i := w; i < len(trees); i += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				for m := range weights {
					ew[m] = weights[m][i]
				}
				if err := density.FillTree(partial, ew, trees[i], -1); err != nil {
					return err
				}
			}
			return acc.Merge(partial)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	monitoring.Debugf("dataset %s: filled %d events into %d maps", d.cfg.Label, len(trees), len(maps))
	return trees, nil
}

// ReweightOptions configures ReweightLundPlane.
type ReweightOptions struct {
	reweight.Options
	MaxEvents int // Positive values reweight only the first MaxEvents selected events
}

// Report is the outcome of one batch reweighting.
type Report struct {
	RunID     uuid.UUID
	Label     string
	Events    int
	StartedAt time.Time
	Duration  time.Duration
	*reweight.BatchResult
}

// ReweightLundPlane reweights the selected events against ratio and
// returns the mean-normalized weights.
func (d *Dataset) ReweightLundPlane(ctx context.Context, engine *reweight.Engine, ratio *density.Map, opts ReweightOptions) (*Report, error) {
	start := d.clock.Now()
	evs := d.selected()
	if opts.MaxEvents > 0 && len(evs) > opts.MaxEvents {
		evs = evs[:opts.MaxEvents]
	}
	trees, err := d.trees(ctx, evs)
	if err != nil {
		return nil, err
	}
	res, err := engine.Batch(ctx, ratio, trees, reweight.BatchOptions{
		Options: opts.Options,
		Workers: d.cfg.Workers,
	})
	if err != nil {
		return nil, err
	}
	rep := &Report{
		RunID:       uuid.New(),
		Label:       d.cfg.Label,
		Events:      len(trees),
		StartedAt:   start,
		Duration:    d.clock.Since(start),
		BatchResult: res,
	}
	monitoring.Logf("dataset %s: run %s reweighted %d events, mean weight %.4f, %d clipped",
		rep.Label, rep.RunID, rep.Events, res.Mean, res.Clipped)
	return rep, nil
}
