package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of the portal
type Metrics struct {
	SessionsEstablished prometheus.Counter
	SessionRejections   prometheus.Counter
	Submissions         *prometheus.CounterVec
}

// New creates the metrics and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsEstablished: factory.NewCounter(prometheus.CounterOpts{
			Name: "portal_sessions_established_total",
			Help: "Total number of session markers written after a successful email check",
		}),
		SessionRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "portal_session_rejections_total",
			Help: "Total number of login attempts rejected by the institutional email pattern",
		}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_submissions_total",
			Help: "Application submissions by outcome",
		}, []string{"outcome"}),
	}
}

// IncrementSessionsEstablished increments the established sessions counter by 1
func (m *Metrics) IncrementSessionsEstablished() {
	m.SessionsEstablished.Inc()
}

// IncrementSessionRejections increments the rejected logins counter by 1
func (m *Metrics) IncrementSessionRejections() {
	m.SessionRejections.Inc()
}

// ObserveSubmission counts one submission with the given outcome
func (m *Metrics) ObserveSubmission(outcome string) {
	m.Submissions.WithLabelValues(outcome).Inc()
}
