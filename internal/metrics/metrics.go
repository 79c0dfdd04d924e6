// Package metrics holds the Prometheus collectors of the pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FilesFound = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sparkify_etl_files_found_total",
		Help: "Number of data files discovered by the ETL",
	}, []string{"kind"})

	FilesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sparkify_etl_files_processed_total",
		Help: "Number of data files processed by the ETL",
	}, []string{"kind", "result"})

	RowsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sparkify_etl_rows_written_total",
		Help: "Number of rows written per table",
	}, []string{"table"})

	UnresolvedSongplays = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sparkify_unresolved_songplays_total",
		Help: "Number of songplays whose song could not be matched",
	})

	FileDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sparkify_etl_file_duration_seconds",
		Help:    "Duration of transforming and loading one data file",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~2s
	}, []string{"kind"})

	DashboardRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sparkify_dashboard_rows",
		Help: "Number of rows loaded into the in-memory dashboard tables",
	}, []string{"table"})
)
