// Package http exposes a read-only admin API: health, version, the latest
// navigation snapshot, connected peers and Prometheus metrics.
package http
