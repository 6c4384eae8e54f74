package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type PrometheusParams struct {
	Namespace   string
	VersionInfo string
	Collectors  []prometheus.Collector
}

// SetupPrometheus creates the registry served on the metrics port. Besides the
// runtime and process collectors it exposes <namespace>_version{commit} = 1.
func SetupPrometheus(params PrometheusParams) *prometheus.Registry {
	promRegistry := prometheus.NewRegistry()

	version := params.VersionInfo
	if version == "" {
		version = "unknown"
	}
	versionGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   params.Namespace,
		Name:        "version",
		Help:        "Running service version, the commit is in the label",
		ConstLabels: prometheus.Labels{"commit": version},
	})
	versionGauge.Set(1)

	promRegistry.MustRegister(
		versionGauge,
		collectors.NewGoCollector(
			collectors.WithGoCollectorRuntimeMetrics(collectors.MetricsGC, collectors.MetricsScheduler),
		),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: params.Namespace}),
	)
	for _, c := range params.Collectors {
		promRegistry.MustRegister(c)
	}

	return promRegistry
}
