/*
Package observability provides lifecycle hooks for monitoring the Lattice
dispatcher.

Metrics records prometheus counters and latency histograms per grid,
method and outcome. LoggingHooks writes one structured log line per call.
Combine merges several hook sets into one.
*/
package observability
