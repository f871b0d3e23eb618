package observability_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/hearthd/hearthd/pkg/domain"
	"github.com/hearthd/hearthd/pkg/observability"
	"github.com/hearthd/hearthd/pkg/ports"
)

func TestMetrics_CountsLifecycleEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	flowEvent := func(t domain.EventType) domain.Event {
		ev := domain.NewEvent(t)
		ev.Domain = "demo"
		return ev
	}

	m.Notify(flowEvent(domain.EventFlowStarted))
	m.Notify(flowEvent(domain.EventFlowStarted))
	m.Notify(flowEvent(domain.EventFlowFinished))
	m.Notify(flowEvent(domain.EventFlowAborted))
	m.Notify(domain.NewEvent(domain.EventEntryCreated))
	m.Notify(domain.NewEvent(domain.EventEntryCreated))
	m.Notify(domain.NewEvent(domain.EventEntryRemoved))

	count, err := testutil.GatherAndCount(reg,
		"hearthd_flows_started_total",
		"hearthd_flows_finished_total",
		"hearthd_entry_operations_total",
		"hearthd_entries_active",
	)
	assert.NoError(t, err)
	assert.NotZero(t, count)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.EntriesActiveForTest()))
}

func TestFanout_DeliversInOrder(t *testing.T) {
	var got []string
	first := ports.NotifierFunc(func(ev domain.Event) { got = append(got, "first") })
	second := ports.NotifierFunc(func(ev domain.Event) { got = append(got, "second") })

	f := observability.NewFanout(first)
	f.Add(second)
	f.Notify(domain.NewEvent(domain.EventEntryCreated))

	assert.Equal(t, []string{"first", "second"}, got)
}

func TestFanout_AddWhileNotifying(t *testing.T) {
	fan := observability.NewFanout()

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
				fan.Notify(domain.NewEvent(domain.EventFlowStarted))
			}
		}
	}()

	for i := 0; i < 100; i++ {
		fan.Add(ports.NotifierFunc(func(ev domain.Event) {}))
	}
	close(stop)
	<-done

	var delivered int
	fan.Add(ports.NotifierFunc(func(ev domain.Event) { delivered++ }))
	fan.Notify(domain.NewEvent(domain.EventEntryCreated))
	assert.Equal(t, 1, delivered)
}
