// Package metrics exposes prometheus counters for repository scans.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"challenge-crawler/internal/model"
)

const namespace = "challenge_crawler"

// Metrics groups the scan collectors.
type Metrics struct {
	Files        *prometheus.CounterVec
	Scans        *prometheus.CounterVec
	ScanDuration *prometheus.HistogramVec
	Truncations  *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Files: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Files handled by repository scans, by outcome.",
		}, []string{"repository", "outcome"}),
		Scans: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Repository scans, by status.",
		}, []string{"repository", "status"}),
		ScanDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Wall-clock duration of repository scans.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		}, []string{"repository"}),
		Truncations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "depth_budget_exhausted_total",
			Help:      "Scans that stopped listing subtrees because the depth budget ran out.",
		}, []string{"repository"}),
	}
}

// ObserveScan records one finished scan. A nil receiver is a no-op.
func (m *Metrics) ObserveScan(r model.ScanResult) {
	if m == nil {
		return
	}

	status := "success"
	if r.Err != nil {
		status = "error"
	}
	m.Scans.WithLabelValues(r.Repository, status).Inc()
	m.ScanDuration.WithLabelValues(r.Repository).Observe(r.Duration.Seconds())
	if r.Truncated {
		m.Truncations.WithLabelValues(r.Repository).Inc()
	}

	for outcome, n := range map[string]int{
		"created":   r.Created,
		"existing":  r.Existing,
		"duplicate": r.Duplicates,
		"too_long":  r.TooLong,
		"failed":    r.Failed,
	} {
		if n > 0 {
			m.Files.WithLabelValues(r.Repository, outcome).Add(float64(n))
		}
	}
}
