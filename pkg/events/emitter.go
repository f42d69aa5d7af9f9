package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	pkgcontext "github.com/Ramsey-B/thistle/pkg/context"
	"github.com/Ramsey-B/thistle/pkg/kafka"
	"github.com/Ramsey-B/thistle/pkg/metrics"
	"github.com/Ramsey-B/thistle/pkg/tracing"
)

type Publisher interface {
	PublishDomainEvents(ctx context.Context, events []*kafka.DomainEvent) error
}

// Emitter stamps and publishes events. With a nil publisher it drops them,
// which is how the service runs without kafka.
type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
	now       func() time.Time
}

func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Emit must only be called after the transaction that produced the events
// has committed. A failure is counted against operation and returned.
func (e *Emitter) Emit(ctx context.Context, operation string, events []*kafka.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	if e.publisher == nil {
		e.logger.WithContext(ctx).WithFields(map[string]any{
			"operation": operation,
			"events":    len(events),
		}).Debug("No event publisher configured, dropping events")
		return nil
	}

	ctx, span := tracing.StartSpan(ctx, "events.Emitter.Emit")
	defer span.End()

	user := pkgcontext.GetActor(ctx)
	occurredAt := e.now()
	for _, event := range events {
		if event.User == "" {
			event.User = user
		}
		if event.OccurredAt.IsZero() {
			event.OccurredAt = occurredAt
		}
	}

	if err := e.publisher.PublishDomainEvents(ctx, events); err != nil {
		metrics.EventPublishFailures.WithLabelValues(operation).Inc()
		return err
	}

	for _, event := range events {
		metrics.EventsPublished.WithLabelValues(event.EventType).Inc()
	}
	return nil
}
