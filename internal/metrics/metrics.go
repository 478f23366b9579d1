// Package metrics defines the Prometheus collectors for the registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Verification outcomes used as the "result" label.
const (
	ResultValid      = "valid"
	ResultRevoked    = "issuer_unauthorized"
	ResultTampered   = "tampered"
	ResultNotFound   = "not_found"
	ResultMalformed  = "malformed"
	ResultStoreError = "error"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	UniversitiesRegistered prometheus.Counter
	StudentsRegistered     prometheus.Counter
	RegistrationConflicts  *prometheus.CounterVec
	AuthorizationChanges   *prometheus.CounterVec
	DegreesMinted          prometheus.Counter
	MintRejected           *prometheus.CounterVec
	AnchorFailures         prometheus.Counter
	Verifications          *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer in main and a fresh
// prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		UniversitiesRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "degree_registry_universities_registered_total",
			Help: "Total number of universities registered",
		}),
		StudentsRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "degree_registry_students_registered_total",
			Help: "Total number of students registered",
		}),
		RegistrationConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "degree_registry_registration_conflicts_total",
			Help: "Registrations rejected because a unique key was already taken",
		}, []string{"kind"}),
		AuthorizationChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "degree_registry_authorization_changes_total",
			Help: "University authorization flag changes",
		}, []string{"authorized"}),
		DegreesMinted: f.NewCounter(prometheus.CounterOpts{
			Name: "degree_registry_degrees_minted_total",
			Help: "Total number of degree credentials minted",
		}),
		MintRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "degree_registry_mint_rejected_total",
			Help: "Mint requests rejected before any write",
		}, []string{"reason"}),
		AnchorFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "degree_registry_anchor_failures_total",
			Help: "Post-mint anchor calls that failed",
		}),
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "degree_registry_verifications_total",
			Help: "Verification requests by outcome",
		}, []string{"result"}),
	}
}
