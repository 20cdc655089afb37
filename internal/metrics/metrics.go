// Package metrics exposes Prometheus counters for account and profile events.
// All methods are safe on a nil *Metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Registry *prometheus.Registry

	signups            *prometheus.CounterVec
	logins             *prometheus.CounterVec
	statusChanges      *prometheus.CounterVec
	approvals          prometheus.Counter
	certificateUploads *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signups_total",
			Help:      "Accounts created, by role.",
		}, []string{"role"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts, by outcome.",
		}, []string{"outcome"}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "astrologer_status_changes_total",
			Help:      "Availability updates, by resulting online state.",
		}, []string{"online"}),
		approvals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "astrologer_approvals_total",
			Help:      "Admin approvals applied.",
		}),
		certificateUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "certificate_uploads_total",
			Help:      "Certificate uploads, by outcome.",
		}, []string{"outcome"}),
	}

	registry.MustRegister(
		m.signups,
		m.logins,
		m.statusChanges,
		m.approvals,
		m.certificateUploads,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) Signup(role string) {
	if m == nil {
		return
	}
	m.signups.WithLabelValues(role).Inc()
}

func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) StatusChanged(online bool) {
	if m == nil {
		return
	}
	label := "false"
	if online {
		label = "true"
	}
	m.statusChanges.WithLabelValues(label).Inc()
}

func (m *Metrics) Approved() {
	if m == nil {
		return
	}
	m.approvals.Inc()
}

func (m *Metrics) CertificateUpload(outcome string) {
	if m == nil {
		return
	}
	m.certificateUploads.WithLabelValues(outcome).Inc()
}
