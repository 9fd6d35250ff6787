package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCountersIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)

	m.MessagesRouted.WithLabelValues("task_assignment").Inc()
	m.CommandsHandled.WithLabelValues("set_crew_size").Inc()
	m.CrewResizes.Inc()
	m.ManagerRelieves.Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	counts := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			counts[mf.GetName()] += metric.GetCounter().GetValue()
		}
	}

	for _, name := range []string{
		"crewctl_messages_routed_total",
		"crewctl_commands_handled_total",
		"crewctl_crew_resizes_total",
		"crewctl_manager_relieves_total",
	} {
		if counts[name] != 1 {
			t.Fatalf("counter %s: got %v, want 1", name, counts[name])
		}
	}
}
