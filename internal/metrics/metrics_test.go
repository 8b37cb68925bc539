package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"challenge-crawler/internal/model"
)

func TestMetrics_ObserveScan(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveScan(model.ScanResult{
		Repository: "acme/widgets",
		Created:    3,
		Existing:   2,
		TooLong:    1,
		Truncated:  true,
		Duration:   2 * time.Second,
	})
	m.ObserveScan(model.ScanResult{Repository: "acme/widgets", Err: errors.New("metadata unavailable")})

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Files.WithLabelValues("acme/widgets", "created")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Files.WithLabelValues("acme/widgets", "existing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Files.WithLabelValues("acme/widgets", "too_long")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Scans.WithLabelValues("acme/widgets", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Scans.WithLabelValues("acme/widgets", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Truncations.WithLabelValues("acme/widgets")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveScan(model.ScanResult{Repository: "x/y"}) })
}
