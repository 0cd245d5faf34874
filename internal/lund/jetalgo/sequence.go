package jetalgo

import (
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/lundplane/internal/lund"
)

// History sentinels for parent and child links.
const (
	invalidIndex    = -3
	inexistentIndex = -2
	beamIndex       = -1
)

// infiniteDistance stands in for +Inf so that comparisons stay ordered.
const infiniteDistance = 1e300

// Jet is a pseudojet owned by a ClusterSequence: an input particle or the
// result of a merge. Jets are only meaningful together with the sequence
// that produced them.
type Jet struct {
	lund.FourVector
	hist int
}

// HistoryIndex returns the position of the jet's creation step in the
// sequence history.
func (j Jet) HistoryIndex() int { return j.hist }

type historyStep struct {
	parent1, parent2 int
	child            int
	jet              int // index into jets, invalidIndex for beam steps
	dij              float64
}

// ClusterSequence is the complete clustering of one set of particles.
type ClusterSequence struct {
	def      Definition
	jets     []Jet
	history  []historyStep
	nInitial int
}

// NewClusterSequence clusters particles to completion with def.
func NewClusterSequence(particles []lund.FourVector, def Definition) (*ClusterSequence, error) {
	if !(def.R > 0) || math.IsInf(def.R, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRadius, def.R)
	}

	n := len(particles)
	cs := &ClusterSequence{
		def:      def,
		jets:     make([]Jet, 0, 2*n),
		history:  make([]historyStep, 0, 2*n),
		nInitial: n,
	}
	for i, p := range particles {
		cs.jets = append(cs.jets, Jet{FourVector: p, hist: i})
		cs.history = append(cs.history, historyStep{
			parent1: inexistentIndex,
			parent2: inexistentIndex,
			child:   invalidIndex,
			jet:     i,
		})
	}
	cs.run()
	return cs, nil
}

// Definition returns the jet definition the sequence was built with.
func (cs *ClusterSequence) Definition() Definition { return cs.def }

// NumInitial returns the number of input particles.
func (cs *ClusterSequence) NumInitial() int { return cs.nInitial }

// activeJet caches the per-jet quantities of the pairwise search.
type activeJet struct {
	idx   int
	rap   float64
	phi   float64
	scale float64
}

func (cs *ClusterSequence) newActive(idx int) activeJet {
	j := cs.jets[idx]
	return activeJet{
		idx:   idx,
		rap:   j.Rap(),
		phi:   j.Phi(),
		scale: cs.def.Algorithm.momentumScale(j.Pt2()),
	}
}

// run performs every recombination step. Each step picks the smallest of
// all beam distances diB and pair distances dij, scanning in history order
// with a strict comparison so that the first minimum wins.
func (cs *ClusterSequence) run() {
	invR2 := 1 / (cs.def.R * cs.def.R)

	active := make([]activeJet, 0, cs.nInitial)
	for i := range cs.jets {
		active = append(active, cs.newActive(i))
	}

	for len(active) > 0 {
		best := math.Inf(1)
		ai, bi := 0, -1
		for a := range active {
			if active[a].scale < best {
				best = active[a].scale
				ai, bi = a, -1
			}
			for b := a + 1; b < len(active); b++ {
				dy := active[a].rap - active[b].rap
				dphi := lund.DeltaPhi(active[a].phi, active[b].phi)
				d := math.Min(active[a].scale, active[b].scale) * (dy*dy + dphi*dphi) * invR2
				if d < best {
					best = d
					ai, bi = a, b
				}
			}
		}

		if bi < 0 {
			cs.beamStep(active[ai].idx, best)
			active = append(active[:ai], active[ai+1:]...)
			continue
		}

		merged := cs.mergeStep(active[ai].idx, active[bi].idx, best)
		// bi > ai, so remove bi first to keep ai valid.
		active = append(active[:bi], active[bi+1:]...)
		active[ai] = cs.newActive(merged)
	}
}

func (cs *ClusterSequence) mergeStep(a, b int, dij float64) int {
	ha, hb := cs.jets[a].hist, cs.jets[b].hist
	if ha > hb {
		ha, hb = hb, ha
	}
	newHist := len(cs.history)
	newJet := len(cs.jets)
	cs.jets = append(cs.jets, Jet{FourVector: cs.jets[a].Add(cs.jets[b].FourVector), hist: newHist})
	cs.history = append(cs.history, historyStep{
		parent1: ha,
		parent2: hb,
		child:   invalidIndex,
		jet:     newJet,
		dij:     dij,
	})
	cs.history[ha].child = newHist
	cs.history[hb].child = newHist
	return newJet
}

func (cs *ClusterSequence) beamStep(a int, diB float64) {
	h := cs.jets[a].hist
	newHist := len(cs.history)
	cs.history = append(cs.history, historyStep{
		parent1: h,
		parent2: beamIndex,
		child:   invalidIndex,
		jet:     invalidIndex,
		dij:     diB,
	})
	cs.history[h].child = newHist
}

// InclusiveJets returns every jet that merged with the beam and has pt of
// at least ptMin, in reverse order of their beam step.
func (cs *ClusterSequence) InclusiveJets(ptMin float64) []Jet {
	pt2Min := ptMin * ptMin
	var out []Jet
	for i := len(cs.history) - 1; i >= 0; i-- {
		h := cs.history[i]
		if h.parent2 != beamIndex {
			continue
		}
		j := cs.jets[cs.history[h.parent1].jet]
		if j.Pt2() >= pt2Min {
			out = append(out, j)
		}
	}
	return out
}

// ExclusiveJetsUpTo returns the jets present when the clustering had been
// undone down to n jets, or all input particles when there are fewer than
// n. The result is valid for kt and Cambridge/Aachen, whose merge distances
// grow monotonically.
func (cs *ClusterSequence) ExclusiveJetsUpTo(n int) []Jet {
	if n > cs.nInitial {
		n = cs.nInitial
	}
	if n <= 0 {
		return nil
	}
	stop := 2*cs.nInitial - n
	out := make([]Jet, 0, n)
	for i := stop; i < len(cs.history); i++ {
		h := cs.history[i]
		if h.parent1 >= 0 && h.parent1 < stop {
			out = append(out, cs.jets[cs.history[h.parent1].jet])
		}
		if h.parent2 >= 0 && h.parent2 < stop {
			out = append(out, cs.jets[cs.history[h.parent2].jet])
		}
	}
	return out
}

// Parents returns the two jets merged to form j. ok is false for input
// particles.
func (cs *ClusterSequence) Parents(j Jet) (p1, p2 Jet, ok bool) {
	h := cs.history[j.hist]
	if h.parent1 < 0 || h.parent2 < 0 {
		return Jet{}, Jet{}, false
	}
	return cs.jets[cs.history[h.parent1].jet], cs.jets[cs.history[h.parent2].jet], true
}

// Constituents returns the input particles that make up j, parent1 subtree
// first.
func (cs *ClusterSequence) Constituents(j Jet) []Jet {
	var out []Jet
	cs.addConstituents(j.hist, &out)
	return out
}

func (cs *ClusterSequence) addConstituents(hist int, out *[]Jet) {
	h := cs.history[hist]
	if h.parent1 == inexistentIndex {
		*out = append(*out, cs.jets[h.jet])
		return
	}
	cs.addConstituents(h.parent1, out)
	cs.addConstituents(h.parent2, out)
}

// SortedByPt returns a copy of jets ordered by descending pt. Equal pt keeps
// the input order.
func SortedByPt(jets []Jet) []Jet {
	out := make([]Jet, len(jets))
	copy(out, jets)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Pt2() > out[j].Pt2()
	})
	return out
}
