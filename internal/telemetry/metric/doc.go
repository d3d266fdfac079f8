// Package metric provides Prometheus metrics for tokenward.
//
// It exposes counters and gauges for token issuance, verification,
// revocation, and pruning, plus HTTP request metrics, in Prometheus
// exposition format.
package metric
