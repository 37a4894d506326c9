package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidOrderType = errors.New("invalid order type")
	ErrNotFound         = errors.New("not found")
)

type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine_in"
	OrderTypeTakeaway OrderType = "takeaway"
)

func ParseOrderType(s string) (OrderType, error) {
	switch OrderType(s) {
	case OrderTypeDineIn, OrderTypeTakeaway:
		return OrderType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOrderType, s)
}

type Restaurant struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	LogoURL            string `json:"logo_url"`
	Address            string `json:"address"`
	OpeningTime        string `json:"opening_time"`
	ClosingTime        string `json:"closing_time"`
	IsAvailable        bool   `json:"is_available"`
	UnavailableMessage string `json:"unavailable_message"`
}

func (r Restaurant) AvailabilityInput() RestaurantAvailabilityInput {
	return RestaurantAvailabilityInput{
		OpeningTime: r.OpeningTime,
		ClosingTime: r.ClosingTime,
		IsAvailable: r.IsAvailable,
	}
}

// RestaurantAvailabilityInput holds the opening hours as "HH:MM:SS" strings
// in 24-hour format plus the operator's manual override.
type RestaurantAvailabilityInput struct {
	OpeningTime string `json:"opening_time"`
	ClosingTime string `json:"closing_time"`
	IsAvailable bool   `json:"is_available"`
}

type AvailabilityResult struct {
	Available    bool   `json:"available"`
	NextOpenTime string `json:"nextOpenTime,omitempty"`
}

type MenuItem struct {
	ID           string          `json:"id"`
	RestaurantID string          `json:"restaurant_id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Description  string          `json:"description"`
	IsVeg        bool            `json:"is_veg"`
	ImageURL     string          `json:"image_url"`
	CategoryName string          `json:"category_name"`
	Available    bool            `json:"available"`
	SortOrder    int             `json:"sort_order"`
}

// Ref snapshots the fields a cart keeps for an item.
func (m MenuItem) Ref() MenuItemRef {
	return MenuItemRef{ItemID: m.ID, Name: m.Name, Price: m.Price}
}

// MenuItemRef is the catalog snapshot taken when an item is added to a cart.
// Later catalog price changes never reach lines already in a cart.
type MenuItemRef struct {
	ItemID string          `json:"item_id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

type CartLineItem struct {
	ItemID   string          `json:"itemId"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

func (l CartLineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type CartScope struct {
	RestaurantID string
	OrderType    OrderType
}

// CartState is an order in progress. It is treated as a value: the cart
// session replaces it wholesale on every mutation.
type CartState struct {
	RestaurantID string         `json:"restaurantId"`
	OrderType    OrderType      `json:"orderType"`
	Items        []CartLineItem `json:"items"`
	MobileNumber string         `json:"mobileNumber,omitempty"`
}

func (c CartState) Scope() CartScope {
	return CartScope{RestaurantID: c.RestaurantID, OrderType: c.OrderType}
}

// Clone returns a copy that shares no backing array with c.
func (c CartState) Clone() CartState {
	items := make([]CartLineItem, len(c.Items))
	copy(items, c.Items)
	c.Items = items
	return c
}

func (c CartState) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (c CartState) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

func (c CartState) IndexOf(itemID string) int {
	for i, item := range c.Items {
		if item.ItemID == itemID {
			return i
		}
	}
	return -1
}
