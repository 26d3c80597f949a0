// Package metric provides Prometheus metrics for the aox client.
//
// It counts request outcomes, authentication expiries, login redirects
// (issued versus suppressed by the cooldown gate) and session transitions.
// All recording methods accept a nil *Registry so components can run
// without metrics wired.
package metric
