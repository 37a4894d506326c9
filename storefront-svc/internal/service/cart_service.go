package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qr-storefront/storefront-svc/internal/cart"
	"qr-storefront/storefront-svc/internal/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ErrCartNotActive        = errors.New("cart not initialized")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrMobileNumberRequired = errors.New("mobile number required for takeaway orders")
)

type CheckoutReceipt struct {
	Cart            domain.CartState `json:"cart"`
	Total           decimal.Decimal  `json:"total"`
	PendingPayments int64            `json:"pending_payments"`
}

// CartService runs cart operations on behalf of browsing sessions.
type CartService struct {
	sessions  *SessionRegistry
	catalog   CatalogRepository
	publisher CartEventPublisher
	payments  PaymentCounter
	logger    zerolog.Logger
	now       func() time.Time
}

// NewCartService wires forwarder, when non-nil, as change listener of every
// session the registry creates.
func NewCartService(sessions *SessionRegistry, catalog CatalogRepository, publisher CartEventPublisher,
	payments PaymentCounter, forwarder *EventForwarder, logger zerolog.Logger) *CartService {
	if forwarder != nil {
		sessions.OnCreate(func(sessionID string, s *cart.Session) func() {
			return s.OnChange(forwarder.Listener(sessionID))
		})
	}
	return &CartService{
		sessions:  sessions,
		catalog:   catalog,
		publisher: publisher,
		payments:  payments,
		logger:    logger,
		now:       time.Now,
	}
}

// lock serializes multi-step operations of one browsing session.
func (s *CartService) lock(sessionID string) (*cart.Session, func()) {
	h := s.sessions.handle(sessionID)
	h.mu.Lock()
	return h.session, h.mu.Unlock
}

func (s *CartService) Init(ctx context.Context, sessionID, restaurantID string, orderType domain.OrderType) domain.CartState {
	session, unlock := s.lock(sessionID)
	defer unlock()
	return session.InitCart(ctx, restaurantID, orderType)
}

func (s *CartService) Get(sessionID string) (domain.CartState, bool) {
	session, unlock := s.lock(sessionID)
	defer unlock()
	return session.Snapshot()
}

// AddItem looks the item up in the catalog of the cart's restaurant and adds
// it at its current price. Nothing happens while the cart is uninitialized.
func (s *CartService) AddItem(ctx context.Context, sessionID, itemID string) (domain.CartState, bool, error) {
	session, unlock := s.lock(sessionID)
	defer unlock()

	current, ok := session.Snapshot()
	if !ok {
		return domain.CartState{}, false, nil
	}

	item, err := s.catalog.GetMenuItem(ctx, current.RestaurantID, itemID)
	if errors.Is(err, domain.ErrNotFound) {
		return current, true, ErrMenuItemNotFound
	}
	if err != nil {
		return current, true, fmt.Errorf("look up item %s: %w", itemID, err)
	}
	if !item.Available {
		return current, true, ErrMenuItemNotFound
	}

	state, ok := session.AddItem(ctx, item.Ref())
	return state, ok, nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (domain.CartState, bool) {
	session, unlock := s.lock(sessionID)
	defer unlock()
	return session.UpdateQuantity(ctx, itemID, quantity)
}

func (s *CartService) SetMobileNumber(ctx context.Context, sessionID, mobile string) (domain.CartState, bool) {
	session, unlock := s.lock(sessionID)
	defer unlock()
	return session.SetMobileNumber(ctx, mobile)
}

func (s *CartService) Clear(ctx context.Context, sessionID string) {
	session, unlock := s.lock(sessionID)
	defer unlock()
	session.ClearCart(ctx)
}

// Checkout hands the cart over for payment and clears it. Takeaway orders
// need a mobile number.
func (s *CartService) Checkout(ctx context.Context, sessionID string) (*CheckoutReceipt, error) {
	session, unlock := s.lock(sessionID)
	defer unlock()

	current, ok := session.Snapshot()
	if !ok {
		return nil, ErrCartNotActive
	}
	if len(current.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if current.OrderType == domain.OrderTypeTakeaway && current.MobileNumber == "" {
		return nil, ErrMobileNumberRequired
	}

	receipt := &CheckoutReceipt{Cart: current, Total: current.Total()}

	if s.publisher != nil {
		event := domain.CartEvent{
			Type:      domain.CartEventCheckout,
			SessionID: sessionID,
			Cart:      &current,
			Total:     receipt.Total,
			Timestamp: s.now(),
		}
		if err := s.publisher.PublishCartEvent(ctx, event); err != nil {
			return nil, fmt.Errorf("publish checkout: %w", err)
		}
	}

	if s.payments != nil {
		count, err := s.payments.Increment(ctx, sessionID)
		if err != nil {
			s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to record pending payment")
		}
		receipt.PendingPayments = count
	}

	session.ClearCart(ctx)

	s.logger.Info().
		Str("session_id", sessionID).
		Str("restaurant_id", current.RestaurantID).
		Int("items", current.ItemCount()).
		Str("total", receipt.Total.String()).
		Msg("checkout")
	return receipt, nil
}

func (s *CartService) PendingPayments(ctx context.Context, sessionID string) (int64, error) {
	if s.payments == nil {
		return 0, nil
	}
	return s.payments.Count(ctx, sessionID)
}

var _ CartServiceInterface = (*CartService)(nil)
