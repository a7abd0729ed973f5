package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-gatepass-api/internal/models"
	"github.com/noah-isme/hostel-gatepass-api/pkg/jobs"
)

type eventPublisher interface {
	Publish(ctx context.Context, channel string, value interface{}) error
}

// NotifierService is the notification sink for domain events. Handlers hand
// it the events an operation returned; delivery happens off the request path
// through a worker queue that fans each event out to a Redis channel.
type NotifierService struct {
	queue   *jobs.Queue
	channel string
	logger  *zap.Logger
}

// NewNotifierService constructs the notifier with its own worker queue.
func NewNotifierService(publisher eventPublisher, channel string, cfg jobs.QueueConfig, logger *zap.Logger) *NotifierService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotifierService{channel: channel, logger: logger}
	s.queue = jobs.NewQueue("notifications", func(ctx context.Context, job jobs.Job) error {
		event, ok := job.Payload.(models.DomainEvent)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		if publisher == nil {
			return nil
		}
		return publisher.Publish(ctx, s.channel, event)
	}, cfg)
	return s
}

// Start launches the delivery workers.
func (s *NotifierService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotifierService) Stop() {
	s.queue.Stop()
}

// Notify queues the given events for delivery. A full or stopped queue is
// logged and dropped; notifications never fail the operation that produced
// them.
func (s *NotifierService) Notify(events ...models.DomainEvent) {
	for _, event := range events {
		job := jobs.Job{
			ID:      uuid.NewString(),
			Type:    string(event.Type),
			Payload: event,
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("dropping domain event",
				zap.String("type", string(event.Type)),
				zap.String("pass_id", event.PassID),
				zap.Error(err))
			continue
		}
		s.logger.Debug("domain event queued",
			zap.String("type", string(event.Type)),
			zap.String("pass_id", event.PassID))
	}
}
