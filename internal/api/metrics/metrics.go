// Package metrics defines the custom Prometheus metrics of the DevJourney
// blog API. It is the single source of truth for metric names, labels and
// help strings. Metrics register with the default registry on import.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "devjourney"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthEventsTotal counts register, login and logout attempts.
// Labels:
//   - event: "register", "login" or "logout"
//   - result: "success" or "failure"
var AuthEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_events_total",
		Help:      "Total number of authentication events, by event and result.",
	},
	[]string{"event", "result"},
)

// TokenRefreshTotal counts refresh token exchanges.
// Label:
//   - outcome: "ok", "expired", "invalid", "revoked" or "error"
var TokenRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refresh_total",
		Help:      "Total number of refresh token exchanges, by outcome.",
	},
	[]string{"outcome"},
)

// RateLimitRejectedTotal counts requests refused by the rate limiter.
// Label:
//   - scope: the limited route group (e.g. "login", "register")
var RateLimitRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_rejected_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	},
	[]string{"scope"},
)

// ── Content metrics ───────────────────────────────────────────────────────────

// BlogsCreatedTotal counts created blogs.
// Label:
//   - status: "draft" or "published"
var BlogsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blogs_created_total",
		Help:      "Total number of blogs created, by initial status.",
	},
	[]string{"status"},
)

// ── Job metrics ───────────────────────────────────────────────────────────────

// JobsProcessedTotal counts finished job attempts.
// Labels:
//   - name: job name (e.g. "notify-new-blog")
//   - outcome: "completed", "retried" or "failed"
var JobsProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_processed_total",
		Help:      "Total number of job attempts, by job name and outcome.",
	},
	[]string{"name", "outcome"},
)

// JobDuration measures how long one job attempt takes.
var JobDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Duration of job handler runs.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
	},
	[]string{"name"},
)

// ── Email metrics ─────────────────────────────────────────────────────────────

// EmailSendsTotal counts provider calls. One notification batch is one call.
// Labels:
//   - provider: "sendgrid", "mailgun" or "log"
//   - outcome: "sent", "failed" or "rejected" (circuit open)
var EmailSendsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "email_sends_total",
		Help:      "Total number of email provider calls, by provider and outcome.",
	},
	[]string{"provider", "outcome"},
)

// ObserveJob records one finished job attempt.
func ObserveJob(name, outcome string, elapsed time.Duration) {
	JobsProcessedTotal.WithLabelValues(name, outcome).Inc()
	JobDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

// ObserveEmail records one email provider call.
func ObserveEmail(provider, outcome string) {
	EmailSendsTotal.WithLabelValues(provider, outcome).Inc()
}

// AuthResult maps an error to the result label of AuthEventsTotal.
func AuthResult(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
