// Package cart holds the order in progress for one browsing session.
//
// A Session is either uninitialized or active for exactly one
// (restaurant, order type) scope. InitCart is the only way in and ClearCart
// the only way out; every other operation is a no-op until InitCart has run.
// Each change is written through to the session's Slot so the cart survives
// a page reload.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"qr-storefront/storefront-svc/internal/domain"

	"github.com/rs/zerolog"
)

// Listener receives the cart after every change. active is false once the
// cart has been cleared.
type Listener func(state domain.CartState, active bool)

type Session struct {
	mu        sync.Mutex
	slot      Slot
	logger    zerolog.Logger
	state     *domain.CartState
	listeners map[int]Listener
	nextID    int
}

func NewSession(slot Slot, logger zerolog.Logger) *Session {
	return &Session{
		slot:      slot,
		logger:    logger.With().Str("component", "cart").Logger(),
		listeners: make(map[int]Listener),
	}
}

// InitCart resumes the persisted cart when it belongs to the same restaurant
// and order type, and otherwise starts an empty cart for that scope,
// overwriting whatever was persisted.
func (s *Session) InitCart(ctx context.Context, restaurantID string, orderType domain.OrderType) domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()

	scope := domain.CartScope{RestaurantID: restaurantID, OrderType: orderType}

	// The in-memory cart is never older than the slot; it only differs when
	// a write failed.
	if s.state != nil && s.state.Scope() == scope {
		s.notify(*s.state, true)
		return s.state.Clone()
	}

	existing, err := s.readPersisted(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Str("restaurant_id", restaurantID).Msg("discarding unreadable persisted cart")
	}
	if existing != nil && existing.Scope() == scope {
		s.replace(*existing)
		return existing.Clone()
	}

	fresh := domain.CartState{
		RestaurantID: restaurantID,
		OrderType:    orderType,
		Items:        []domain.CartLineItem{},
	}
	s.replace(fresh)
	s.persist(ctx)
	return fresh.Clone()
}

// AddItem bumps the quantity of an item already in the cart by one, or
// appends it with quantity one using the name and price given here.
func (s *Session) AddItem(ctx context.Context, item domain.MenuItemRef) (domain.CartState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return domain.CartState{}, false
	}

	next := s.state.Clone()
	if i := next.IndexOf(item.ItemID); i >= 0 {
		next.Items[i].Quantity++
	} else {
		next.Items = append(next.Items, domain.CartLineItem{
			ItemID:   item.ItemID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: 1,
		})
	}

	s.replace(next)
	s.persist(ctx)
	return next.Clone(), true
}

// UpdateQuantity sets the quantity of a line; zero or less removes it.
// Unknown items are ignored.
func (s *Session) UpdateQuantity(ctx context.Context, itemID string, quantity int) (domain.CartState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return domain.CartState{}, false
	}

	i := s.state.IndexOf(itemID)
	if i < 0 {
		return s.state.Clone(), true
	}

	next := s.state.Clone()
	if quantity <= 0 {
		next.Items = append(next.Items[:i], next.Items[i+1:]...)
	} else {
		next.Items[i].Quantity = quantity
	}

	s.replace(next)
	s.persist(ctx)
	return next.Clone(), true
}

// SetMobileNumber stores the contact number as given, for any order type.
func (s *Session) SetMobileNumber(ctx context.Context, mobile string) (domain.CartState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return domain.CartState{}, false
	}

	next := s.state.Clone()
	next.MobileNumber = mobile

	s.replace(next)
	s.persist(ctx)
	return next.Clone(), true
}

// ClearCart drops the active cart and its persisted copy. Clearing an
// uninitialized session only removes any leftover persisted copy.
func (s *Session) ClearCart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasActive := s.state != nil
	s.state = nil

	if err := s.slot.Delete(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to delete persisted cart")
	}

	if wasActive {
		s.notify(domain.CartState{}, false)
	}
}

// Snapshot returns a copy of the active cart. ok is false when the session
// is uninitialized.
func (s *Session) Snapshot() (domain.CartState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return domain.CartState{}, false
	}
	return s.state.Clone(), true
}

// OnChange registers l and returns a func that unregisters it. Listeners run
// synchronously while the session is locked and must not call back into it.
func (s *Session) OnChange(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, id)
		})
	}
}

func (s *Session) replace(next domain.CartState) {
	s.state = &next
	s.notify(next, true)
}

func (s *Session) notify(state domain.CartState, active bool) {
	for _, l := range s.listeners {
		l(state.Clone(), active)
	}
}

// persist writes the active cart to the slot. A failed write leaves the
// in-memory cart authoritative for the rest of the session.
func (s *Session) persist(ctx context.Context) {
	payload, err := json.Marshal(s.state)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode cart")
		return
	}
	if err := s.slot.Write(ctx, payload); err != nil {
		s.logger.Error().Err(err).Str("restaurant_id", s.state.RestaurantID).Msg("failed to persist cart")
	}
}

func (s *Session) readPersisted(ctx context.Context) (*domain.CartState, error) {
	payload, ok, err := s.slot.Read(ctx)
	if err != nil {
		return nil, &PersistenceReadFailure{Err: err}
	}
	if !ok {
		return nil, nil
	}

	var state domain.CartState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, &PersistenceReadFailure{Err: err}
	}
	if err := validate(state); err != nil {
		return nil, &PersistenceReadFailure{Err: err}
	}
	if state.Items == nil {
		state.Items = []domain.CartLineItem{}
	}
	return &state, nil
}

var errMalformedCart = errors.New("malformed cart")

func validate(state domain.CartState) error {
	if _, err := domain.ParseOrderType(string(state.OrderType)); err != nil {
		return fmt.Errorf("%w: %v", errMalformedCart, err)
	}
	seen := make(map[string]struct{}, len(state.Items))
	for _, item := range state.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %q has quantity %d", errMalformedCart, item.ItemID, item.Quantity)
		}
		if _, dup := seen[item.ItemID]; dup {
			return fmt.Errorf("%w: item %q listed twice", errMalformedCart, item.ItemID)
		}
		seen[item.ItemID] = struct{}{}
	}
	return nil
}
