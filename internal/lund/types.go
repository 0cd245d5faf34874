package lund

import (
	"errors"
	"fmt"
	"math"
)

// Record layout of an input particle row: px, py, pz, E, an opaque
// per-particle weight, then electric charge.
const (
	RecordMinWidth    = 4
	RecordChargeIndex = 5
)

// ErrRecordWidth is returned for particle rows with fewer than four fields.
var ErrRecordWidth = errors.New("particle record needs at least 4 fields")

// ErrNonFiniteEnergy is returned for particle rows whose energy is NaN or Inf.
var ErrNonFiniteEnergy = errors.New("particle energy is not finite")

// Particle is one selected final-state particle.
type Particle struct {
	FourVector
	Charge float64
}

// FourVectorSet is the ordered, immutable particle content of one jet.
// HasCharge reports whether the charge field was supplied for every particle.
type FourVectorSet struct {
	Particles []Particle
	HasCharge bool
}

// NewFourVectorSet builds a set from fixed-width particle rows. Rows of width
// four carry no charge; rows wider than RecordChargeIndex carry one. All rows
// must agree on whether charge is present.
func NewFourVectorSet(records [][]float64) (FourVectorSet, error) {
	set := FourVectorSet{Particles: make([]Particle, 0, len(records))}
	for i, r := range records {
		if len(r) < RecordMinWidth {
			return FourVectorSet{}, fmt.Errorf("row %d: %w (got %d)", i, ErrRecordWidth, len(r))
		}
		if math.IsNaN(r[3]) || math.IsInf(r[3], 0) {
			return FourVectorSet{}, fmt.Errorf("row %d: %w", i, ErrNonFiniteEnergy)
		}
		charged := len(r) > RecordChargeIndex
		if i == 0 {
			set.HasCharge = charged
		} else if charged != set.HasCharge {
			return FourVectorSet{}, fmt.Errorf("row %d: inconsistent charge field presence", i)
		}
		p := Particle{FourVector: NewFourVector(r[0], r[1], r[2], r[3])}
		if charged {
			p.Charge = r[RecordChargeIndex]
		}
		set.Particles = append(set.Particles, p)
	}
	return set, nil
}

// Len returns the number of particles.
func (s FourVectorSet) Len() int { return len(s.Particles) }

// Subjet is a jet from the primary clustering pass. Its index in
// SplittingTree.Subjets is its identity.
type Subjet struct {
	Pt, Eta, Phi, Mass float64
}

// SubjetFrom returns the Subjet kinematics of a four-vector.
func SubjetFrom(v FourVector) Subjet {
	return Subjet{Pt: v.Pt(), Eta: v.Eta(), Phi: v.Phi(), Mass: v.M()}
}

// Splitting is one binary emission along a subjet's declustering history.
type Splitting struct {
	SubjetIndex int
	DeltaR      float64
	Kt          float64
}

// Valid reports whether the emission can be placed on the Lund plane.
// Degenerate emissions stay in the tree but are never filled or reweighted.
func (s Splitting) Valid() bool {
	return s.DeltaR > 0 && s.Kt > 0
}

// SplittingTree is the flat, index-based emission record of one jet.
// Subjets are pt-descending; Splittings are ordered by subjet index, then by
// declustering depth with the outermost emission first.
type SplittingTree struct {
	Subjets    []Subjet
	Splittings []Splitting
}

// PlaceholderTree is the tree of an event without usable particles: one
// all-zero subjet and no splittings.
func PlaceholderTree() SplittingTree {
	return SplittingTree{Subjets: []Subjet{{}}}
}

// SplittingsOf returns the splittings belonging to subjet i, in tree order.
func (t SplittingTree) SplittingsOf(i int) []Splitting {
	var out []Splitting
	for _, s := range t.Splittings {
		if s.SubjetIndex == i {
			out = append(out, s)
		}
	}
	return out
}

// WeightResult is the per-jet outcome of reweighting.
// Smeared holds one weight per bin-noise toy, PtSmeared one per
// extrapolation-parameter toy; both are empty when no toys were requested.
type WeightResult struct {
	Weight         float64
	Uncertainty    float64
	HasUncertainty bool
	Smeared        []float64
	PtSmeared      []float64
}
