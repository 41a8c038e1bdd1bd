package benchmarks

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/randalmurphal/campaignkit/pkg/campaign"
	"github.com/randalmurphal/campaignkit/pkg/campaign/eventlog"
)

// noopHandler does minimal work to measure engine overhead.
func noopHandler(ctx context.Context, ec campaign.EventContext) error {
	return nil
}

// benchRegistry is a private registry so benchmarks do not touch the
// process-wide one.
func benchRegistry() *campaign.HandlerRegistry {
	r := campaign.NewHandlerRegistry()
	r.Register("send_email", campaign.HandlerInfo{Do: noopHandler})
	return r
}

// benchCampaign builds a published campaign with n flat events.
func benchCampaign(n int) *campaign.Campaign {
	c := &campaign.Campaign{ID: "bench", Name: "Bench", Published: true}
	for i := 0; i < n; i++ {
		c.AddEvent(&campaign.Event{
			ID:    fmt.Sprintf("ev-%03d", i),
			Type:  "send_email",
			Order: float64(i + 1),
		})
	}
	return c
}

func benchLead(campaignID string) *campaign.Lead {
	return &campaign.Lead{
		ID:          "lead-1",
		DateAdded:   time.Now(),
		CampaignIDs: []string{campaignID},
	}
}

// BenchmarkTryTrigger measures a single eligible firing.
func BenchmarkTryTrigger(b *testing.B) {
	c := benchCampaign(1)
	event := c.OrderedEvents()[0]
	lead := benchLead(c.ID)
	engine := campaign.New(eventlog.NewMemoryStore(),
		campaign.WithHandlers(benchRegistry()),
	)

	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.TryTrigger(ctx, event, lead, false)
	}
}

// BenchmarkTryTrigger_AppliedCheck includes the per-call applied-set
// query against the store.
func BenchmarkTryTrigger_AppliedCheck(b *testing.B) {
	c := benchCampaign(1)
	event := c.OrderedEvents()[0]
	lead := benchLead(c.ID)
	engine := campaign.New(eventlog.NewMemoryStore(),
		campaign.WithHandlers(benchRegistry()),
	)

	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.TryTrigger(ctx, event, lead, true)
	}
}

// benchmarkTriggerForLead walks an n-event campaign for a fresh lead
// each iteration.
func benchmarkTriggerForLead(b *testing.B, n int) {
	c := benchCampaign(n)
	engine := campaign.New(eventlog.NewMemoryStore(),
		campaign.WithHandlers(benchRegistry()),
		campaign.WithEventSource(campaign.NewMemoryEventSource(c)),
	)

	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		lead := &campaign.Lead{
			ID:          fmt.Sprintf("lead-%d", i),
			CampaignIDs: []string{c.ID},
		}
		if _, err := engine.TriggerForLead(ctx, lead); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkTriggerForLead_10 walks 10 events per lead.
func BenchmarkTriggerForLead_10(b *testing.B) {
	benchmarkTriggerForLead(b, 10)
}

// BenchmarkTriggerForLead_100 walks 100 events per lead.
func BenchmarkTriggerForLead_100(b *testing.B) {
	benchmarkTriggerForLead(b, 100)
}

// BenchmarkTriggerForLead_AllApplied measures the steady state where
// every event is already logged and nothing fires.
func BenchmarkTriggerForLead_AllApplied(b *testing.B) {
	c := benchCampaign(50)
	engine := campaign.New(eventlog.NewMemoryStore(),
		campaign.WithHandlers(benchRegistry()),
		campaign.WithEventSource(campaign.NewMemoryEventSource(c)),
	)

	ctx := context.Background()
	lead := benchLead(c.ID)
	if _, err := engine.TriggerForLead(ctx, lead); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.TriggerForLead(ctx, lead); err != nil {
			b.Fatal(err)
		}
	}
}
