// Package decluster turns the particles of one jet into a lund.SplittingTree.
//
// A primary kt clustering selects the subjets; each subjet's constituents
// are re-clustered with Cambridge/Aachen at unbounded radius and the
// angular-ordered history is walked from the final pseudojet down the
// harder branch, recording one Splitting per step.
package decluster
