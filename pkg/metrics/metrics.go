// Package metrics defines the Prometheus counters agent workers increment
// as they route messages and the supervisor increments as it processes
// runtime commands.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry bundles the fleet-wide counters exposed on the metrics HTTP
// endpoint.
type Registry struct {
	MessagesRouted  *prometheus.CounterVec
	CommandsHandled *prometheus.CounterVec
	CrewResizes     prometheus.Counter
	ManagerRelieves prometheus.Counter
}

// NewRegistry constructs the fleet's counters and registers them against
// reg. Pass prometheus.DefaultRegisterer in production; tests pass a
// fresh prometheus.NewRegistry() so repeated construction doesn't panic
// on duplicate registration.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		MessagesRouted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crewctl_messages_routed_total",
				Help: "Total number of agent messages routed between workers, by message kind.",
			},
			[]string{"kind"},
		),
		CommandsHandled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crewctl_commands_handled_total",
				Help: "Total number of runtime commands processed by the supervisor, by command kind.",
			},
			[]string{"kind"},
		),
		CrewResizes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "crewctl_crew_resizes_total",
				Help: "Total number of accepted CREW: directives.",
			},
		),
		ManagerRelieves: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "crewctl_manager_relieves_total",
				Help: "Total number of accepted RELIEVE: directives.",
			},
		),
	}
}
