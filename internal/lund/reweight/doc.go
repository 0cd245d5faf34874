// Package reweight turns a jet's splitting tree into a multiplicative
// weight using a calibration ratio map.
//
// Responsibilities:
//   - per-jet reweighting: nominal weight, quadrature uncertainty and
//     optional smeared-weight ensembles for bin noise and pt-extrapolation
//     parameter noise;
//   - the pt-extrapolation path for subjets above the calibrated range;
//   - the batch contract: clip, floor and mean-preserving renormalization of
//     the weights of a sample, one mean per ensemble member.
//
// Key types: Engine, Options, Noise, BatchResult.
//
// The scratch map an Engine fills per subjet is owned by the call (or by one
// worker of Batch); it is never shared between concurrent calls.
//
// Dependency rule: reweight may import lund, density and extrap.
package reweight
