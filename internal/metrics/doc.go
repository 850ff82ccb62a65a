// Package metrics records pipeline observability data.
//
// Components receive a Recorder and default to NoopRecorder, so metrics stay
// optional without nil checks at call sites. PrometheusRecorder registers the
// real collectors on a private registry; a one-shot CI process has no scrape
// endpoint, so the registry is written to a node-exporter textfile at the end
// of a run instead.
package metrics
