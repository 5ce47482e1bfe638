// Package metrics holds the Prometheus collectors exported by the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "orgchart"

// UsersRegisteredTotal counts persisted registrations.
// Label:
//   - role: the role assigned to the new user (e.g. "Guest")
var UsersRegisteredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_registered_total",
		Help:      "Total number of users registered, by role.",
	},
	[]string{"role"},
)

// RegistrationRejectedTotal counts registrations that did not produce a user.
// Label:
//   - reason: "validation", "already_exists" or "internal"
var RegistrationRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registration_rejected_total",
		Help:      "Total number of rejected registrations, by reason.",
	},
	[]string{"reason"},
)

// LoginAttemptsTotal counts authentication attempts.
// Label:
//   - result: "success" or "invalid_credentials"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// HTTPRequestDuration measures handler latency.
// Labels:
//   - method: HTTP method
//   - route: chi route pattern (e.g. "/api/v1/user/{publicID}")
//   - status: response status code
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)

const (
	ReasonValidation    = "validation"
	ReasonAlreadyExists = "already_exists"
	ReasonInternal      = "internal"

	LoginSuccess            = "success"
	LoginInvalidCredentials = "invalid_credentials"
)
