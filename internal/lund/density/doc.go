// Package density implements the binned Lund-plane density map.
//
// A Map is a 2D histogram over (ln(R/ΔR), ln kt) or a 3D histogram that adds
// the subjet pt as its first axis. Every axis carries an underflow bin (0)
// and an overflow bin (n+1) around its n in-range bins, and every bin stores
// its summed weight and summed squared weight.
//
// Maps are not safe for concurrent mutation. Concurrent producers either
// fill through an Accumulator or fill private partial maps and Merge them
// afterwards; sums commute, so the merge order does not matter.
package density
