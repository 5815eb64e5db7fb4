package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCount(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementSessionsEstablished()
	m.IncrementSessionsEstablished()
	m.IncrementSessionRejections()
	m.ObserveSubmission("succeeded")
	m.ObserveSubmission("configuration_error")
	m.ObserveSubmission("configuration_error")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionsEstablished))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionRejections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues("succeeded")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Submissions.WithLabelValues("configuration_error")))
}

func TestSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
