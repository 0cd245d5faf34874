package density

import (
	"fmt"
	"sync"

	"github.com/banshee-data/lundplane/internal/lund"
)

// Accumulator is a set of co-indexed maps that many goroutines may fill
// at once. Index 0 is conventionally the nominal map and the rest are
// systematic variations.
type Accumulator struct {
	mu   sync.Mutex
	maps []*Map
}

// NewAccumulator wraps maps. The accumulator owns them from here on.
func NewAccumulator(maps ...*Map) *Accumulator {
	return &Accumulator{maps: maps}
}

// Len returns the number of maps.
func (a *Accumulator) Len() int { return len(a.maps) }

// FillTree fills one tree with one weight per map.
func (a *Accumulator) FillTree(weights []float64, tree lund.SplittingTree) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return FillTree(a.maps, weights, tree, -1)
}

// Merge adds partial maps, co-indexed with the accumulator's, into it.
func (a *Accumulator) Merge(partials []*Map) error {
	if len(partials) != len(a.maps) {
		return fmt.Errorf("%w: %d partial maps for %d accumulated", ErrWeightCount, len(partials), len(a.maps))
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, p := range partials {
		if err := a.maps[i].Merge(p); err != nil {
			return fmt.Errorf("map %d: %w", i, err)
		}
	}
	return nil
}

// EmptyPartials returns zeroed maps with the accumulator's binning, for a
// worker to fill privately before Merge.
func (a *Accumulator) EmptyPartials() []*Map {
	out := make([]*Map, len(a.maps))
	for i, m := range a.maps {
		out[i] = m.EmptyClone()
	}
	return out
}

// Maps returns the accumulated maps. Callers must not fill through the
// accumulator while using them.
func (a *Accumulator) Maps() []*Map {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Map, len(a.maps))
	copy(out, a.maps)
	return out
}
