// Package errors provides the error taxonomy of the object-graph engine.
//
// Every failure raised while resolving a graph is an *AppError carrying a
// machine-readable code, the contract and instance name it concerns, the
// resolution path from the root contract down to the failing node, and the
// underlying cause. Failures are never retryable: a session is single-use and
// retry policy belongs to the caller.
package errors
