// Package report persists screening results and derives labels from them.
//
// Criticality files are headerless CSV with one "src,dst,delta" row per edge
// in edge-index order; they are written per order under
// <dir>/exhaustive_<network>_<order>/edge_global_deltas.csv, the layout the
// downstream classification pipeline reads.
package report
