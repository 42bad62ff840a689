// Package nmf defines the hyperparameter model and the factorization
// boundary for non-negative matrix factorization.
//
// The Fitter interface is the black-box solver contract: given a
// (bins x scans) training matrix and a hyperparameter set, return
// non-negative factors W (bins x k) and H (k x scans) plus the achieved
// training loss. Two built-in fitters are provided: multiplicative
// updates (SolverMU) and alternating projected-gradient least squares
// (SolverPG). Any external numerical backend can be swapped in by
// implementing Fitter.
//
// Search spaces are expressed as tagged parameter specs (Discrete,
// Uniform, LogUniform) resolved once into either a full grid or a
// continuous sampling domain for Bayesian proposals.
package nmf
