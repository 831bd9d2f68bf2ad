// Package metrics holds Prometheus instruments shared by the resolver and
// the fixture reader.  All collectors are registered with the global
// registry, so the status server only has to mount promhttp.Handler().
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ResolverCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "envconfig_cache_hits_total",
			Help: "Environment resolutions served from the resolver cache.",
		})

	ResolverCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "envconfig_cache_misses_total",
			Help: "Environment resolutions that read the environment table.",
		})

	ResolverErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "envconfig_errors_total",
			Help: "Resolver failures by kind.",
		}, []string{"kind"})

	ActiveSwitches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "envconfig_active_switches_total",
			Help: "Successful active-environment changes.",
		})

	FixtureLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixture_loads_total",
			Help: "Fixture files parsed from disk, by format.",
		}, []string{"format"})

	FixtureLoadErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fixture_load_errors_total",
			Help: "Fixture files that failed to load, by format.",
		}, []string{"format"})
)

func init() {
	prometheus.MustRegister(
		ResolverCacheHits,
		ResolverCacheMisses,
		ResolverErrors,
		ActiveSwitches,
		FixtureLoads,
		FixtureLoadErrors,
	)
}
