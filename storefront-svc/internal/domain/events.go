package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartEventType string

const (
	CartEventUpdated  CartEventType = "cart_updated"
	CartEventCleared  CartEventType = "cart_cleared"
	CartEventCheckout CartEventType = "checkout"
)

// CartEvent is published to the cart events topic, keyed by browsing session.
type CartEvent struct {
	Type      CartEventType   `json:"type"`
	SessionID string          `json:"session_id"`
	Cart      *CartState      `json:"cart,omitempty"`
	Total     decimal.Decimal `json:"total"`
	Timestamp time.Time       `json:"timestamp"`
}

const (
	CatalogMenuUpdated       = "menu_updated"
	CatalogRestaurantUpdated = "restaurant_updated"
)

// CatalogMessage announces a change to a restaurant or its menu.
type CatalogMessage struct {
	Type         string    `json:"type"`
	RestaurantID string    `json:"restaurant_id"`
	Timestamp    time.Time `json:"timestamp"`
}
