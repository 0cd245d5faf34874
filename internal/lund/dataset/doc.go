// Package dataset applies the Lund-plane engine to a sample of selected
// jets.
//
// Responsibilities:
//   - per-event weights: normalization weights, a named systematic weight
//     column and background-normalization variations;
//   - filling the nominal and systematic Lund-plane maps of a sample;
//   - batch reweighting of a sample against a ratio map.
//
// Events are held in memory; reading them from files is the caller's job.
// Fill and reweight fan events out over a bounded set of workers with
// errgroup, each worker owning its partial maps or scratch map.
//
// Key types: Dataset, Event, Config, Report.
//
// Dependency rule: dataset sits on top of decluster, density and reweight;
// nothing under internal/lund imports it.
package dataset
