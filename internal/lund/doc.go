// Package lund holds the shared data model of the Lund-plane reweighting
// engine.
//
// Responsibilities: particle four-vectors and their kinematic helpers, the
// index-based SplittingTree produced by declustering, and the WeightResult
// produced by reweighting.
// Key types: FourVector, Particle, FourVectorSet, Subjet, Splitting,
// SplittingTree, WeightResult.
//
// Dependency rule: this package imports nothing else from the module. The
// algorithm packages (jetalgo, decluster, density, extrap, reweight, ratio,
// dataset) all build on it.
package lund
