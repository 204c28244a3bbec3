// Package load discovers schema fragments and merges them into one
// canonical schema per table.
//
// The Registry is an explicit value threaded through the pipeline; there
// is no package-level state, so the pipeline can run repeatedly in one
// process.
package load
