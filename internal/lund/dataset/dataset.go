package dataset

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lundplane/internal/config"
	"github.com/banshee-data/lundplane/internal/lund"
	"github.com/banshee-data/lundplane/internal/lund/decluster"
	"github.com/banshee-data/lundplane/internal/timeutil"
)

// ErrLengthMismatch is returned when a per-event slice does not have one
// entry per event.
var ErrLengthMismatch = errors.New("per-event input has wrong length")

// Event is one selected jet.
type Event struct {
	Particles  lund.FourVectorSet
	NormWeight float64
	SysWeights []float64 // Indexed by SysColumn

	// Tree, when set, is used instead of declustering Particles.
	Tree *lund.SplittingTree
}

// Config holds the sample-level settings of a Dataset.
type Config struct {
	Label      string
	IsData     bool
	NormFactor float64 // Multiplies every NormWeight
	SysPower   float64 // Exponent applied to the selected systematic column
	NormUnc    float64 // Relative size of the background-normalization variations
	WeightMax  float64 // Systematic columns are clipped to [0, WeightMax]
	Workers    int     // Non-positive means GOMAXPROCS
}

// DefaultConfig returns the settings of a simulated sample.
func DefaultConfig() Config {
	return Config{NormFactor: 1, SysPower: 1, NormUnc: 0.1, WeightMax: 10}
}

// ConfigFromLund builds a Config from a loaded LundConfig.
func ConfigFromLund(cfg *config.LundConfig, label string, isData bool) Config {
	return Config{
		Label:      label,
		IsData:     isData,
		NormFactor: 1,
		SysPower:   cfg.GetSysPower(),
		NormUnc:    cfg.GetNormUnc(),
		WeightMax:  cfg.GetWeightMax(),
		Workers:    cfg.GetWorkers(),
	}
}

// Dataset is an in-memory sample with a selection mask and an optional
// active systematic.
type Dataset struct {
	cfg    Config
	events []Event
	mask   []bool
	sysKey string
	decl   *decluster.Declusterer
	clock  timeutil.Clock
}

// New wraps events. Every event starts selected.
func New(events []Event, decl *decluster.Declusterer, cfg Config) *Dataset {
	mask := make([]bool, len(events))
	for i := range mask {
		mask[i] = true
	}
	return &Dataset{cfg: cfg, events: events, mask: mask, decl: decl, clock: timeutil.RealClock{}}
}

// SetClock replaces the clock that stamps reweighting reports.
func (d *Dataset) SetClock(c timeutil.Clock) { d.clock = c }

// Label returns the sample label.
func (d *Dataset) Label() string { return d.cfg.Label }

// N returns the number of selected events.
func (d *Dataset) N() int {
	n := 0
	for _, keep := range d.mask {
		if keep {
			n++
		}
	}
	return n
}

// ApplyCut deselects every event whose entry in keep is false. Cuts
// accumulate.
func (d *Dataset) ApplyCut(keep []bool) error {
	if len(keep) != len(d.events) {
		return fmt.Errorf("%w: cut has %d entries for %d events", ErrLengthMismatch, len(keep), len(d.events))
	}
	for i, k := range keep {
		d.mask[i] = d.mask[i] && k
	}
	return nil
}

// ApplySys selects the systematic used by Weights. The empty name
// restores nominal weights.
func (d *Dataset) ApplySys(name string) error {
	if name != "" && !ValidSystematic(name) {
		return fmt.Errorf("%w: %q", ErrUnknownSystematic, name)
	}
	d.sysKey = name
	return nil
}

// SetNormFactor sets the factor applied to every normalization weight.
func (d *Dataset) SetNormFactor(f float64) { d.cfg.NormFactor = f }

// selected returns the selected events in order.
func (d *Dataset) selected() []Event {
	out := make([]Event, 0, len(d.events))
	for i, e := range d.events {
		if d.mask[i] {
			out = append(out, e)
		}
	}
	return out
}

// Weights returns the per-event weights of the selected events. Data
// weighs one per event. Simulation weighs NormWeight·NormFactor times the
// active systematic: a weight column raised to SysPower, clipped to
// [0, WeightMax] and divided by its mean, or 1 ± NormUnc for the
// background-normalization variations.
func (d *Dataset) Weights() ([]float64, error) {
	evs := d.selected()
	w := make([]float64, len(evs))
	if d.cfg.IsData {
		for i := range w {
			w[i] = 1
		}
		return w, nil
	}
	for i, e := range evs {
		w[i] = e.NormWeight * d.cfg.NormFactor
	}
	switch {
	case d.sysKey == "":
	case d.sysKey == BkgNormUp:
		floats.Scale(1+d.cfg.NormUnc, w)
	case d.sysKey == BkgNormDown:
		floats.Scale(1-d.cfg.NormUnc, w)
	default:
		rw, err := d.sysColumn(evs, d.sysKey)
		if err != nil {
			return nil, err
		}
		for i := range rw {
			rw[i] = math.Max(0, math.Min(math.Pow(rw[i], d.cfg.SysPower), d.cfg.WeightMax))
		}
		if mean := stat.Mean(rw, nil); mean > 0 {
			floats.Scale(1/mean, rw)
		}
		floats.Mul(w, rw)
	}
	return w, nil
}

// sysColumn extracts one systematic column of the given events.
func (d *Dataset) sysColumn(evs []Event, name string) ([]float64, error) {
	col, err := SysColumn(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(evs))
	for i, e := range evs {
		if col >= len(e.SysWeights) {
			return nil, fmt.Errorf("%w: event %d has %d systematic weights, %q needs column %d", ErrLengthMismatch, i, len(e.SysWeights), name, col)
		}
		out[i] = e.SysWeights[col]
	}
	return out, nil
}

// variationWeights returns the weights of one systematic variation built
// on the nominal weights.
func (d *Dataset) variationWeights(evs []Event, nominal []float64, name string) ([]float64, error) {
	out := append([]float64(nil), nominal...)
	switch name {
	case BkgNormUp:
		floats.Scale(1+d.cfg.NormUnc, out)
	case BkgNormDown:
		floats.Scale(1-d.cfg.NormUnc, out)
	default:
		col, err := d.sysColumn(evs, name)
		if err != nil {
			return nil, err
		}
		floats.Mul(out, col)
	}
	return out, nil
}

// Trees returns the splitting tree of every selected event, declustering
// those without a precomputed tree.
func (d *Dataset) Trees(ctx context.Context) ([]lund.SplittingTree, error) {
	return d.trees(ctx, d.selected())
}

func (d *Dataset) trees(ctx context.Context, evs []Event) ([]lund.SplittingTree, error) {
	if d.decl == nil {
		for i, e := range evs {
			if e.Tree == nil {
				return nil, fmt.Errorf("event %d has no tree and the dataset has no declusterer", i)
			}
		}
	}
	out := make([]lund.SplittingTree, len(evs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers())
	for i, e := range evs {
		if e.Tree != nil {
			out[i] = *e.Tree
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tree, err := d.decl.Decluster(e.Particles)
			if err != nil {
				return fmt.Errorf("event %d: %w", i, err)
			}
			out[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Dataset) workers() int {
	if d.cfg.Workers > 0 {
		return d.cfg.Workers
	}
	return runtime.GOMAXPROCS(0)
}
