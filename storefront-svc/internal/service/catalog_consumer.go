package service

import (
	"context"
	"encoding/json"

	"qr-storefront/storefront-svc/internal/domain"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// CatalogConsumer drops cached menus when the back office announces a
// catalog change.
type CatalogConsumer struct {
	Reader MessageReader
	Cache  MenuCache
	Logger zerolog.Logger
}

func NewCatalogConsumer(reader MessageReader, cache MenuCache, logger zerolog.Logger) *CatalogConsumer {
	return &CatalogConsumer{
		Reader: reader,
		Cache:  cache,
		Logger: logger,
	}
}

func (c *CatalogConsumer) Start(ctx context.Context) {
	c.Logger.Info().Msg("starting catalog consumer")
	for {
		message, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.Logger.Error().Err(err).Msg("error reading catalog message")
			continue
		}

		var msg domain.CatalogMessage
		if err := json.Unmarshal(message.Value, &msg); err != nil {
			c.Logger.Warn().Err(err).Msg("error unmarshaling catalog message")
			continue
		}

		c.ProcessMessage(ctx, msg)
	}
}

func (c *CatalogConsumer) ProcessMessage(ctx context.Context, msg domain.CatalogMessage) {
	switch msg.Type {
	case domain.CatalogMenuUpdated, domain.CatalogRestaurantUpdated:
	default:
		return
	}
	if msg.RestaurantID == "" {
		return
	}

	if err := c.Cache.Invalidate(ctx, msg.RestaurantID); err != nil {
		c.Logger.Error().Err(err).Str("restaurant_id", msg.RestaurantID).Msg("error invalidating menu cache")
		return
	}
	c.Logger.Debug().Str("restaurant_id", msg.RestaurantID).Str("type", msg.Type).Msg("menu cache invalidated")
}
