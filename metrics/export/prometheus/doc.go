// Package prometheus renders goShop engine metrics in Prometheus text
// exposition format.
//
// [NewExporter] takes any [Source] (the Engine in production) and exposes an
// [http.Handler] for GET /metrics. Counter names are goshop_*_total; the
// single histogram is goshop_authenticate_latency_seconds and is omitted when
// latency histograms are disabled.
//
// # What this package must NOT do
//
//   - Register metrics in a global registry; callers mount the Handler.
//   - Mutate engine state.
package prometheus
