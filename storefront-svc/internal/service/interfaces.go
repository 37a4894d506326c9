package service

import (
	"context"
	"io"

	"qr-storefront/storefront-svc/internal/cart"
	"qr-storefront/storefront-svc/internal/domain"
	"qr-storefront/storefront-svc/internal/storage"
)

type CatalogRepository interface {
	GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error)
	ListAvailableMenuItems(ctx context.Context, restaurantID string) ([]domain.MenuItem, error)
	GetMenuItem(ctx context.Context, restaurantID, itemID string) (*domain.MenuItem, error)
	UpdateMenuItemImage(ctx context.Context, restaurantID, itemID, imageURL string) (int64, error)
}

type MenuCache interface {
	Get(ctx context.Context, restaurantID string) ([]domain.MenuItem, bool, error)
	Set(ctx context.Context, restaurantID string, items []domain.MenuItem) error
	Invalidate(ctx context.Context, restaurantID string) error
}

type ImageStore interface {
	SaveMenuImage(ctx context.Context, restaurantID, itemID, filename, contentType string, src io.Reader) (string, error)
}

type CartEventPublisher interface {
	PublishCartEvent(ctx context.Context, event domain.CartEvent) error
}

type PaymentCounter interface {
	Increment(ctx context.Context, sessionID string) (int64, error)
	Count(ctx context.Context, sessionID string) (int64, error)
}

// SlotFactory returns the cart persistence slot of a browsing session.
type SlotFactory func(sessionID string) cart.Slot

type StorefrontServiceInterface interface {
	LoadRestaurant(ctx context.Context, restaurantID string) (*RestaurantPage, error)
	LoadMenu(ctx context.Context, restaurantID string, orderType domain.OrderType) (*MenuPage, error)
	UploadMenuImage(ctx context.Context, restaurantID, itemID, filename, contentType string, src io.Reader) (string, error)
}

type CartServiceInterface interface {
	Init(ctx context.Context, sessionID, restaurantID string, orderType domain.OrderType) domain.CartState
	Get(sessionID string) (domain.CartState, bool)
	AddItem(ctx context.Context, sessionID, itemID string) (domain.CartState, bool, error)
	UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (domain.CartState, bool)
	SetMobileNumber(ctx context.Context, sessionID, mobile string) (domain.CartState, bool)
	Clear(ctx context.Context, sessionID string)
	Checkout(ctx context.Context, sessionID string) (*CheckoutReceipt, error)
	PendingPayments(ctx context.Context, sessionID string) (int64, error)
}

type QRGenerator interface {
	Generate(restaurantID string, orderType domain.OrderType) ([]byte, error)
}

var (
	_ CatalogRepository  = (*storage.PostgresRepository)(nil)
	_ MenuCache          = (*storage.MenuCache)(nil)
	_ ImageStore         = (*storage.FileImageStore)(nil)
	_ CartEventPublisher = (*storage.KafkaPublisher)(nil)
	_ PaymentCounter     = (*storage.PaymentCounter)(nil)
)
