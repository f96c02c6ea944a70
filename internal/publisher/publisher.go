package publisher

import (
	"context"

	"GarchSentinel/internal/model"
)

// Publisher emits recorded predictions to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, p *model.Prediction) error
	Close() error
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *model.Prediction) error { return nil }
func (NoopPublisher) Close() error                                     { return nil }
