// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability. It must not import
// any package that tests it.
package testutil

import (
	"math"
	"math/rand/v2"
	"testing"
)

// DefaultTolerance is the absolute tolerance used by numeric assertions
// when callers have no better bound.
const DefaultTolerance = 1e-9

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertFloatNear fails the test if got and want differ by more than tol.
// Two NaNs compare equal.
func AssertFloatNear(t testing.TB, got, want, tol float64) {
	t.Helper()
	if math.IsNaN(got) && math.IsNaN(want) {
		return
	}
	if math.IsNaN(got) || math.IsNaN(want) || math.Abs(got-want) > tol {
		t.Errorf("value = %v, want %v (tol %v)", got, want, tol)
	}
}

// AssertFloatsNear compares two slices element-wise with AssertFloatNear.
func AssertFloatsNear(t testing.TB, got, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("length = %d, want %d", len(got), len(want))
		return
	}
	for i := range got {
		if math.Abs(got[i]-want[i]) > tol || math.IsNaN(got[i]) != math.IsNaN(want[i]) {
			t.Errorf("element %d = %v, want %v (tol %v)", i, got[i], want[i], tol)
		}
	}
}

// NewRand returns a deterministic random source for reproducible tests.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// PtEtaPhiRecord returns a massless (px, py, pz, E) particle row.
func PtEtaPhiRecord(pt, eta, phi float64) []float64 {
	px := pt * math.Cos(phi)
	py := pt * math.Sin(phi)
	pz := pt * math.Sinh(eta)
	return []float64{px, py, pz, math.Sqrt(px*px + py*py + pz*pz)}
}

// WithCharge appends an opaque weight field and a charge field to a row.
func WithCharge(row []float64, charge float64) []float64 {
	out := make([]float64, 0, len(row)+2)
	out = append(out, row...)
	return append(out, 1, charge)
}
