// Package extrap provides the pt-extrapolation functions used when a
// subjet is harder than the calibrated pt range of a ratio map.
//
// Responsibilities:
//   - define the Function and Table capabilities the reweighting engine
//     consumes (evaluate, parameters, parameter errors, evaluate with
//     substituted parameters);
//   - supply a polynomial Function and a weighted least-squares fitter;
//   - derive a per-(angle bin, kt bin) Table from the pt layers of a 3D
//     ratio map.
//
// Key types: Function, Table, Polynomial, MapTable.
//
// Dependency rule: extrap may import internal/lund/density and gonum; it
// must not import reweight.
package extrap
