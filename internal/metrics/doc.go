// Package metrics records build and page render metrics.
//
// Components receive a Recorder and default to NoopRecorder, so call sites
// never check for nil:
//
//	b := builder.New(builder.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// PrometheusRecorder keeps its own registry and can be flushed to a node
// exporter textfile with WriteTextfile after a one-shot build.
package metrics
