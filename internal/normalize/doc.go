// Package normalize turns sparse published time series into complete
// fixed-cadence price sequences and resolves conflicts between competing
// publications of the same interval.
//
// The source only reports a value when it changes, so a fragment may omit
// slots (repeated prices), start late, or end early. Expand reconstructs the
// dense series; Resolve collapses overlapping fragments by classification
// rank.
package normalize
