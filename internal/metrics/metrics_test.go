package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistriesAreIndependent(t *testing.T) {
	first := NewRegistry()
	second := NewRegistry()

	CommandsTotal.WithLabelValues("login", ResultOK).Inc()

	if n, err := testutil.GatherAndCount(first, "roomchat_commands_total"); err != nil || n == 0 {
		t.Fatalf("first registry: n=%d err=%v", n, err)
	}
	if n, err := testutil.GatherAndCount(second, "roomchat_commands_total"); err != nil || n == 0 {
		t.Fatalf("second registry: n=%d err=%v", n, err)
	}
}

func TestCounterValues(t *testing.T) {
	before := testutil.ToFloat64(PushesTotal.WithLabelValues("direct"))
	PushesTotal.WithLabelValues("direct").Add(3)
	if got := testutil.ToFloat64(PushesTotal.WithLabelValues("direct")); got != before+3 {
		t.Fatalf("expected %v, got %v", before+3, got)
	}
}
