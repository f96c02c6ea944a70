package recorder

import (
	"context"

	"GarchSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordPrediction(context.Context, *model.Prediction) error           { return nil }
func (n *NoopRecorder) RecordNotification(context.Context, *NotificationEvent) error        { return nil }
func (n *NoopRecorder) RecentPredictions(context.Context, int) ([]model.Prediction, error) { return nil, nil }
func (n *NoopRecorder) LastPrediction(context.Context) (*model.Prediction, error)           { return nil, nil }
func (n *NoopRecorder) Close() error                                                        { return nil }
