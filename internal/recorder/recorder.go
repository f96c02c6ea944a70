package recorder

import (
	"context"
	"time"

	"GarchSentinel/internal/model"
)

// NotificationEvent records one delivery attempt to a chat channel.
type NotificationEvent struct {
	Timestamp    time.Time
	PredictionID string
	Channel      string
	Signal       model.Signal
	Delivered    bool
	Error        string
}

// Recorder persists prediction history for replay and analysis.
type Recorder interface {
	RecordPrediction(ctx context.Context, p *model.Prediction) error
	RecordNotification(ctx context.Context, evt *NotificationEvent) error
	// RecentPredictions returns up to limit of the newest predictions, oldest first.
	RecentPredictions(ctx context.Context, limit int) ([]model.Prediction, error)
	// LastPrediction returns nil when nothing has been recorded yet.
	LastPrediction(ctx context.Context) (*model.Prediction, error)
	Close() error
}
