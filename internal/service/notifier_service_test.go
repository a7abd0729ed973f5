package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-gatepass-api/internal/models"
	"github.com/noah-isme/hostel-gatepass-api/pkg/jobs"
)

type mockPublisher struct {
	mu       sync.Mutex
	channels []string
	events   []models.DomainEvent
}

func (m *mockPublisher) Publish(ctx context.Context, channel string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = append(m.channels, channel)
	if event, ok := value.(models.DomainEvent); ok {
		m.events = append(m.events, event)
	}
	return nil
}

func (m *mockPublisher) snapshot() ([]string, []models.DomainEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.channels...), append([]models.DomainEvent(nil), m.events...)
}

func TestNotifierServiceDeliversEvents(t *testing.T) {
	publisher := &mockPublisher{}
	svc := NewNotifierService(publisher, "gatepass:events", jobs.QueueConfig{Workers: 1, BufferSize: 8}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	svc.Notify(
		models.DomainEvent{Type: models.EventPassApproved, PassID: "ABCDE23456"},
		models.DomainEvent{Type: models.EventPassPromoted, PassID: "FGHJK34567"},
	)

	require.Eventually(t, func() bool {
		_, events := publisher.snapshot()
		return len(events) == 2
	}, 2*time.Second, 10*time.Millisecond)
	svc.Stop()

	channels, events := publisher.snapshot()
	assert.Equal(t, []string{"gatepass:events", "gatepass:events"}, channels)
	assert.Equal(t, models.EventPassApproved, events[0].Type)
	assert.Equal(t, models.EventPassPromoted, events[1].Type)
}

func TestNotifierServiceDropsWhenStopped(t *testing.T) {
	publisher := &mockPublisher{}
	svc := NewNotifierService(publisher, "gatepass:events", jobs.QueueConfig{Workers: 1}, zap.NewNop())

	svc.Notify(models.DomainEvent{Type: models.EventPassApproved, PassID: "ABCDE23456"})

	_, events := publisher.snapshot()
	assert.Empty(t, events)
}
