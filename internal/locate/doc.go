// Package locate implements the numerical core of the gridloc event
// locator: windowed cross-correlation delay estimation between an array of
// fixed stations, Snell's-law ray tracing through a horizontally layered
// velocity model, and an exhaustive misfit grid search that places each
// recorded event at the search-grid node whose theoretical inter-station
// delays best match the observed ones.
//
// The pipeline runs as three sequential data-parallel stages with a full
// barrier between them:
//
//	signals → EstimateDelays → delay table
//	delay table + model + geometry → ComputeMisfitCube → misfit cube
//	misfit cube → ReduceMinima → best node + error per event
//
// Work items within a stage are independent: each reads shared read-only
// inputs and writes a single output slot it exclusively owns, so stages are
// race-free without locking. Failures are per-slot, never fatal: a work
// item that cannot complete writes the NullValue sentinel (or +Inf for the
// reduction error) and the remaining slots are unaffected.
package locate
