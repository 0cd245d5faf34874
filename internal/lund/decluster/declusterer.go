package decluster

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/lundplane/internal/config"
	"github.com/banshee-data/lundplane/internal/lund"
	"github.com/banshee-data/lundplane/internal/lund/jetalgo"
	"github.com/banshee-data/lundplane/internal/monitoring"
)

// ErrChargeMatch is returned when a constituent cannot be matched back to an
// input particle while charge filtering. It signals inconsistent inputs and
// must not be retried.
var ErrChargeMatch = errors.New("constituent has no matching input particle")

// ErrNoChargeInfo is returned when charge filtering is requested for a
// particle set that carries no charge field.
var ErrNoChargeInfo = errors.New("charge filtering requested but particles carry no charge")

// Params controls declustering.
type Params struct {
	JetRadius        float64 // Primary kt radius; negative means unbounded
	NumExclusiveJets int     // Exclusive jets requested; negative takes inclusive jets
	MaxJets          int     // Cap on inclusive jets; non-positive means no cap
	PFPtMin          float64 // Constituents at or below this pt skip the re-clustering pass
	EnergyMin        float64 // Particles at or below this energy are never clustered
	ChargeOnly       bool    // Re-cluster charged constituents only
	ChargeEps        float64 // |charge| above this counts as charged
	MatchTolerance   float64 // Per-component momentum tolerance for charge matching
}

// DefaultParams returns the parameters of the standard two-prong
// configuration.
func DefaultParams() Params {
	return Params{
		JetRadius:        -1,
		NumExclusiveJets: 2,
		MaxJets:          -1,
		PFPtMin:          1.0,
		EnergyMin:        1e-4,
		ChargeEps:        1e-4,
		MatchTolerance:   1e-4,
	}
}

// ParamsFromConfig builds Params from a loaded LundConfig.
func ParamsFromConfig(cfg *config.LundConfig) Params {
	return Params{
		JetRadius:        cfg.GetJetRadius(),
		NumExclusiveJets: cfg.GetNumExclusiveJets(),
		MaxJets:          cfg.GetMaxJets(),
		PFPtMin:          cfg.GetPFPtMin(),
		EnergyMin:        cfg.GetEnergyMin(),
		ChargeOnly:       cfg.GetChargeOnly(),
		ChargeEps:        cfg.GetChargeEps(),
		MatchTolerance:   cfg.GetMatchTolerance(),
	}
}

// Declusterer builds splitting trees. It holds no per-call state and is safe
// for concurrent use.
type Declusterer struct {
	params Params
}

// New creates a Declusterer.
func New(params Params) *Declusterer {
	return &Declusterer{params: params}
}

// Params returns the declusterer's parameters.
func (d *Declusterer) Params() Params { return d.params }

// Decluster is a convenience wrapper that declusters with DefaultParams
// overridden by the given radius, exclusive-jet count and charge filter.
func Decluster(set lund.FourVectorSet, radius float64, numExclusiveJets int, chargeOnly bool) (lund.SplittingTree, error) {
	p := DefaultParams()
	p.JetRadius = radius
	p.NumExclusiveJets = numExclusiveJets
	p.ChargeOnly = chargeOnly
	return New(p).Decluster(set)
}

// Decluster builds the SplittingTree of one jet's particles. An input with
// no usable particles, or whose every candidate subjet is dropped, yields
// lund.PlaceholderTree.
func (d *Declusterer) Decluster(set lund.FourVectorSet) (lund.SplittingTree, error) {
	p := d.params
	if p.ChargeOnly && set.Len() > 0 && !set.HasCharge {
		return lund.SplittingTree{}, ErrNoChargeInfo
	}

	inputs := make([]lund.FourVector, 0, set.Len())
	var candidates []lund.Particle
	for _, part := range set.Particles {
		if !(part.E > p.EnergyMin) {
			continue
		}
		inputs = append(inputs, part.FourVector)
		if part.Pt() > p.PFPtMin {
			candidates = append(candidates, part)
		}
	}
	if len(inputs) == 0 {
		return lund.PlaceholderTree(), nil
	}

	cs, err := jetalgo.NewClusterSequence(inputs, jetalgo.NewDefinition(jetalgo.KtAlgorithm, p.JetRadius))
	if err != nil {
		return lund.SplittingTree{}, fmt.Errorf("primary clustering: %w", err)
	}

	var jets []jetalgo.Jet
	if p.NumExclusiveJets < 0 {
		jets = jetalgo.SortedByPt(cs.InclusiveJets(0))
		if p.MaxJets > 0 && len(jets) > p.MaxJets {
			jets = jets[:p.MaxJets]
		}
	} else {
		jets = jetalgo.SortedByPt(cs.ExclusiveJetsUpTo(p.NumExclusiveJets))
	}

	var tree lund.SplittingTree
	for _, j := range jets {
		kept, err := d.reclusterInputs(cs.Constituents(j), candidates)
		if err != nil {
			return lund.SplittingTree{}, err
		}
		if len(kept) == 0 {
			monitoring.Debugf("decluster: dropping subjet pt=%.2f with no re-clusterable constituents", j.Pt())
			continue
		}

		ca, err := jetalgo.NewClusterSequence(kept, jetalgo.NewDefinition(jetalgo.CambridgeAlgorithm, jetalgo.UnboundedR))
		if err != nil {
			return lund.SplittingTree{}, fmt.Errorf("re-clustering: %w", err)
		}
		caJets := jetalgo.SortedByPt(ca.InclusiveJets(0))

		idx := len(tree.Subjets)
		tree.Subjets = append(tree.Subjets, lund.SubjetFrom(j.FourVector))
		tree.Splittings = appendPrimarySplittings(tree.Splittings, ca, caJets[0], idx)
	}

	if len(tree.Subjets) == 0 {
		return lund.PlaceholderTree(), nil
	}
	return tree, nil
}

// reclusterInputs selects the constituents that enter the Cambridge/Aachen
// pass: pt above PFPtMin and, when charge filtering, charged.
func (d *Declusterer) reclusterInputs(constituents []jetalgo.Jet, candidates []lund.Particle) ([]lund.FourVector, error) {
	p := d.params
	kept := make([]lund.FourVector, 0, len(constituents))
	for _, c := range constituents {
		if !(c.Pt() > p.PFPtMin) {
			continue
		}
		if p.ChargeOnly {
			part, ok := matchParticle(candidates, c.FourVector, p.MatchTolerance)
			if !ok {
				return nil, fmt.Errorf("%w: %v", ErrChargeMatch, c.FourVector)
			}
			if math.Abs(part.Charge) <= p.ChargeEps {
				continue
			}
		}
		kept = append(kept, c.FourVector)
	}
	return kept, nil
}

func matchParticle(candidates []lund.Particle, v lund.FourVector, tol float64) (lund.Particle, bool) {
	for _, c := range candidates {
		if c.NearlyEqual(v, tol) {
			return c, true
		}
	}
	return lund.Particle{}, false
}

// appendPrimarySplittings walks the primary (harder-branch) declustering
// sequence of jet, outermost emission first.
func appendPrimarySplittings(dst []lund.Splitting, cs *jetalgo.ClusterSequence, jet jetalgo.Jet, subjet int) []lund.Splitting {
	cur := jet
	for {
		hard, soft, ok := cs.Parents(cur)
		if !ok {
			return dst
		}
		if soft.Pt2() > hard.Pt2() {
			hard, soft = soft, hard
		}
		delta := hard.DeltaR(soft.FourVector)
		dst = append(dst, lund.Splitting{
			SubjetIndex: subjet,
			DeltaR:      delta,
			Kt:          soft.Pt() * delta,
		})
		cur = hard
	}
}
