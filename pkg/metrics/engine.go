package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IngestEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mes_ingest_events_total",
		Help: "Fact events offered to the event store, by type and outcome.",
	}, []string{"type", "outcome"})

	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mes_cycle_duration_seconds",
		Help:    "Wall time of full aggregation+rollup+publish cycles.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	Cycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mes_cycles_total",
		Help: "Aggregation cycles, by outcome (published, failed, skipped).",
	}, []string{"outcome"})

	DataQualityScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mes_data_quality_score",
		Help: "Latest data-quality score per check (0-100).",
	}, []string{"check"})

	PartitionsProvisioned = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mes_sensor_partitions_provisioned",
		Help: "Number of provisioned monthly sensor partitions.",
	})
)
