package service

import (
	"context"
	"time"

	"qr-storefront/storefront-svc/internal/cart"
	"qr-storefront/storefront-svc/internal/domain"

	"github.com/rs/zerolog"
)

// EventForwarder relays cart changes to the publisher from a single
// goroutine, so events of one session keep their order and cart operations
// never wait on the broker.
type EventForwarder struct {
	publisher CartEventPublisher
	events    chan domain.CartEvent
	logger    zerolog.Logger
	now       func() time.Time
}

func NewEventForwarder(publisher CartEventPublisher, buffer int, logger zerolog.Logger) *EventForwarder {
	return &EventForwarder{
		publisher: publisher,
		events:    make(chan domain.CartEvent, buffer),
		logger:    logger,
		now:       time.Now,
	}
}

// Listener returns a cart listener that forwards changes of sessionID.
func (f *EventForwarder) Listener(sessionID string) cart.Listener {
	return func(state domain.CartState, active bool) {
		event := domain.CartEvent{
			Type:      domain.CartEventCleared,
			SessionID: sessionID,
			Timestamp: f.now(),
		}
		if active {
			event.Type = domain.CartEventUpdated
			event.Cart = &state
			event.Total = state.Total()
		}
		f.Enqueue(event)
	}
}

// Enqueue hands the event to the forwarding goroutine. It drops the event
// and returns false when the buffer is full.
func (f *EventForwarder) Enqueue(event domain.CartEvent) bool {
	select {
	case f.events <- event:
		return true
	default:
		f.logger.Warn().Str("session_id", event.SessionID).Str("type", string(event.Type)).Msg("cart event buffer full, dropping event")
		return false
	}
}

func (f *EventForwarder) Run(ctx context.Context) {
	f.logger.Info().Msg("starting cart event forwarder")
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-f.events:
			if err := f.publisher.PublishCartEvent(ctx, event); err != nil {
				f.logger.Error().Err(err).Str("session_id", event.SessionID).Msg("failed to publish cart event")
			}
		}
	}
}
