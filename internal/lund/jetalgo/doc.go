// Package jetalgo provides the sequential-recombination clustering primitive
// used by the declusterer.
//
// Responsibilities: generalized-kt clustering (kt, Cambridge/Aachen,
// anti-kt) with E-scheme recombination, a complete merge history, and the
// queries the declusterer needs: inclusive jets, exclusive jets up to N,
// parent pairs and constituents.
// Key types: Definition, ClusterSequence, Jet.
//
// The implementation is the plain O(N³) pairwise search. Jets are small
// (tens to a few hundred constituents), and every tie is broken by history
// index so that identical inputs always produce identical histories.
package jetalgo
