// Package ratio builds the data/simulation calibration ratio map that the
// reweighting engine consumes.
//
// The background estimate is subtracted from data after both estimates are
// scaled to the observed yield, and the ratio is formed independently in
// every pt bin from unit-normalized (angle, kt) slices. Inputs are never
// modified.
//
// Dependency rule: ratio may import density and monitoring only.
package ratio
