// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "portfolio_http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "route"},
	)

	PaletteRelays = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_palette_relays_total",
			Help: "Palette extraction requests relayed upstream by outcome",
		},
		[]string{"outcome"},
	)

	ThemeChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_theme_changes_total",
			Help: "Custom theme applications and resets",
		},
		[]string{"action"},
	)

	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_emails_total",
			Help: "Outgoing emails by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	Subscriptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_subscriptions_total",
			Help: "Newsletter subscription attempts by outcome",
		},
		[]string{"outcome"},
	)

	ActiveSSHSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portfolio_ssh_active_sessions",
			Help: "Number of active terminal portfolio sessions",
		},
	)
)
