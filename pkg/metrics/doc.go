// Package metrics holds the Prometheus collectors shared by the delivery
// pipeline, the balancing engine and the HTTP surface.
//
// Collectors are package-level values so instrumented code can update them
// without wiring. Call Register once at process start to expose them on the
// default registry; until then updates are recorded but not exported.
package metrics
