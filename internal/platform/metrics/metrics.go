package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	ProfilesCreated    prometheus.Counter
	ProfilesImported   prometheus.Counter
	MutationsRejected  prometheus.Counter
	ValidationFailures prometheus.Counter
	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		ProfilesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "warden_profiles_created_total",
			Help: "Total number of profiles created in the system",
		}),
		ProfilesImported: promauto.NewCounter(prometheus.CounterOpts{
			Name: "warden_profiles_imported_total",
			Help: "Total number of profiles imported from identity providers",
		}),
		MutationsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "warden_mutations_rejected_total",
			Help: "Total number of profile mutations rejected by content checks",
		}),
		ValidationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "warden_validation_failures_total",
			Help: "Total number of profile validation reports with violations",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "warden_public_cache_hits_total",
			Help: "Total number of public profile cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "warden_public_cache_misses_total",
			Help: "Total number of public profile cache misses",
		}),
	}
}

// IncrementProfilesCreated increments the profiles created counter by 1
func (m *Metrics) IncrementProfilesCreated() {
	m.ProfilesCreated.Inc()
}

// IncrementProfilesImported increments the profiles imported counter by 1
func (m *Metrics) IncrementProfilesImported() {
	m.ProfilesImported.Inc()
}

// IncrementMutationsRejected increments the rejected mutations counter by 1
func (m *Metrics) IncrementMutationsRejected() {
	m.MutationsRejected.Inc()
}

// IncrementValidationFailures increments the validation failures counter by 1
func (m *Metrics) IncrementValidationFailures() {
	m.ValidationFailures.Inc()
}

// IncrementCacheHits increments the cache hit counter by 1
func (m *Metrics) IncrementCacheHits() {
	m.CacheHits.Inc()
}

// IncrementCacheMisses increments the cache miss counter by 1
func (m *Metrics) IncrementCacheMisses() {
	m.CacheMisses.Inc()
}
