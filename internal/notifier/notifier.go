package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Notifier delivers a chat message to one channel.
type Notifier interface {
	Name() string
	Send(ctx context.Context, text string) error
}

// Delivery is the outcome of sending to one channel.
type Delivery struct {
	Channel string
	Err     error
}

// Multi fans a message out to several notifiers and keeps going past failures.
type Multi struct {
	Notifiers []Notifier
}

func NewMulti(notifiers ...Notifier) *Multi {
	return &Multi{Notifiers: notifiers}
}

func (m *Multi) Name() string { return "multi" }

// Broadcast sends text to every notifier and reports each outcome.
func (m *Multi) Broadcast(ctx context.Context, text string) []Delivery {
	out := make([]Delivery, 0, len(m.Notifiers))
	for _, n := range m.Notifiers {
		err := n.Send(ctx, text)
		if err != nil {
			log.Error().Err(err).Str("channel", n.Name()).Msg("notification failed")
		}
		out = append(out, Delivery{Channel: n.Name(), Err: err})
	}
	return out
}

func (m *Multi) Send(ctx context.Context, text string) error {
	var errs []error
	for _, d := range m.Broadcast(ctx, text) {
		if d.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.Channel, d.Err))
		}
	}
	return errors.Join(errs...)
}

// Empty reports whether no channel is configured.
func (m *Multi) Empty() bool { return len(m.Notifiers) == 0 }
