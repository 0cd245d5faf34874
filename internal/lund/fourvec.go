package lund

import (
	"fmt"
	"math"
)

// MaxRap is the rapidity assigned to momenta travelling along the beam axis.
const MaxRap = 1e5

// FourVector is a (px, py, pz, E) momentum in consistent units.
type FourVector struct {
	Px, Py, Pz, E float64
}

// NewFourVector builds a FourVector from Cartesian components.
func NewFourVector(px, py, pz, e float64) FourVector {
	return FourVector{Px: px, Py: py, Pz: pz, E: e}
}

// FromPtEtaPhiM converts a (pt, eta, phi, mass) record into Cartesian form.
// Negative masses follow the space-like convention E = sqrt(max(p² - m², 0)).
func FromPtEtaPhiM(pt, eta, phi, m float64) FourVector {
	px := pt * math.Cos(phi)
	py := pt * math.Sin(phi)
	pz := pt * math.Sinh(eta)
	p2 := px*px + py*py + pz*pz
	var e float64
	if m >= 0 {
		e = math.Sqrt(p2 + m*m)
	} else {
		e = math.Sqrt(math.Max(p2-m*m, 0))
	}
	return FourVector{Px: px, Py: py, Pz: pz, E: e}
}

// PtEtaPhiM returns the (pt, eta, phi, mass) representation of v.
func (v FourVector) PtEtaPhiM() (pt, eta, phi, m float64) {
	return v.Pt(), v.Eta(), v.Phi(), v.M()
}

// Pt2 returns the squared transverse momentum.
func (v FourVector) Pt2() float64 { return v.Px*v.Px + v.Py*v.Py }

// Pt returns the transverse momentum.
func (v FourVector) Pt() float64 { return math.Hypot(v.Px, v.Py) }

// P returns the magnitude of the three-momentum.
func (v FourVector) P() float64 { return math.Sqrt(v.Px*v.Px + v.Py*v.Py + v.Pz*v.Pz) }

// M2 returns the squared invariant mass, which may be negative.
func (v FourVector) M2() float64 {
	return (v.E+v.Pz)*(v.E-v.Pz) - v.Pt2()
}

// M returns the invariant mass. Space-like vectors return -sqrt(-m²).
func (v FourVector) M() float64 {
	m2 := v.M2()
	if m2 < 0 {
		return -math.Sqrt(-m2)
	}
	return math.Sqrt(m2)
}

// Phi returns the azimuth in [0, 2π). A vector with zero pt has phi 0.
func (v FourVector) Phi() float64 {
	if v.Px == 0 && v.Py == 0 {
		return 0
	}
	phi := math.Atan2(v.Py, v.Px)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	if phi >= 2*math.Pi {
		phi -= 2 * math.Pi
	}
	return phi
}

// Rap returns the rapidity. Massless momenta along the beam axis get
// ±(MaxRap + |pz|) so that they stay ordered but finite.
func (v FourVector) Rap() float64 {
	pt2 := v.Pt2()
	absPz := math.Abs(v.Pz)
	if v.E == absPz && pt2 == 0 {
		r := MaxRap + absPz
		if v.Pz < 0 {
			return -r
		}
		return r
	}
	m2 := math.Max(v.M2(), 0)
	ePlusPz := v.E + absPz
	rap := 0.5 * math.Log((pt2+m2)/(ePlusPz*ePlusPz))
	if v.Pz > 0 {
		rap = -rap
	}
	return rap
}

// Eta returns the pseudorapidity.
func (v FourVector) Eta() float64 {
	pt := v.Pt()
	if pt == 0 {
		switch {
		case v.Pz > 0:
			return MaxRap + v.Pz
		case v.Pz < 0:
			return -MaxRap + v.Pz
		}
		return 0
	}
	return math.Asinh(v.Pz / pt)
}

// Add returns the E-scheme sum of two four-vectors.
func (v FourVector) Add(o FourVector) FourVector {
	return FourVector{Px: v.Px + o.Px, Py: v.Py + o.Py, Pz: v.Pz + o.Pz, E: v.E + o.E}
}

// DeltaPhi returns the azimuthal separation wrapped into [-π, π].
func DeltaPhi(phi1, phi2 float64) float64 {
	d := math.Mod(phi1-phi2, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	} else if d < -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

// DeltaR2 returns the squared rapidity-azimuth distance between v and o.
func (v FourVector) DeltaR2(o FourVector) float64 {
	dy := v.Rap() - o.Rap()
	dphi := DeltaPhi(v.Phi(), o.Phi())
	return dy*dy + dphi*dphi
}

// DeltaR returns the rapidity-azimuth distance between v and o.
func (v FourVector) DeltaR(o FourVector) float64 {
	return math.Sqrt(v.DeltaR2(o))
}

// NearlyEqual reports whether the three-momenta of v and o agree within tol
// in every Cartesian component.
func (v FourVector) NearlyEqual(o FourVector, tol float64) bool {
	return math.Abs(v.Px-o.Px) < tol && math.Abs(v.Py-o.Py) < tol && math.Abs(v.Pz-o.Pz) < tol
}

func (v FourVector) String() string {
	return fmt.Sprintf("(px=%.4g, py=%.4g, pz=%.4g, E=%.4g)", v.Px, v.Py, v.Pz, v.E)
}
