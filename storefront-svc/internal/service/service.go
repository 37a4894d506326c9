package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"qr-storefront/storefront-svc/internal/availability"
	"qr-storefront/storefront-svc/internal/domain"

	"github.com/rs/zerolog"
)

var ErrMenuItemNotFound = errors.New("menu item not found")

// RestaurantPage is what the storefront shows right after a QR scan.
// Restaurant is nil when the id is unknown.
type RestaurantPage struct {
	Restaurant   *domain.Restaurant        `json:"restaurant"`
	Availability domain.AvailabilityResult `json:"availability"`
}

type MenuPage struct {
	RestaurantID string                    `json:"restaurant_id"`
	OrderType    domain.OrderType          `json:"order_type"`
	Availability domain.AvailabilityResult `json:"availability"`
	Menu         []domain.MenuItem         `json:"menu"`
}

type StorefrontService struct {
	catalog CatalogRepository
	cache   MenuCache
	images  ImageStore
	logger  zerolog.Logger
	now     func() time.Time
}

func NewStorefrontService(catalog CatalogRepository, cache MenuCache, images ImageStore, logger zerolog.Logger) *StorefrontService {
	return &StorefrontService{
		catalog: catalog,
		cache:   cache,
		images:  images,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock replaces the wall clock used for availability checks.
func (s *StorefrontService) WithClock(now func() time.Time) *StorefrontService {
	s.now = now
	return s
}

func (s *StorefrontService) LoadRestaurant(ctx context.Context, restaurantID string) (*RestaurantPage, error) {
	rest, err := s.catalog.GetRestaurant(ctx, restaurantID)
	if errors.Is(err, domain.ErrNotFound) {
		return &RestaurantPage{Availability: domain.AvailabilityResult{Available: false}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load restaurant %s: %w", restaurantID, err)
	}

	result, err := availability.Evaluate(rest.AvailabilityInput(), s.now())
	if err != nil {
		return nil, fmt.Errorf("restaurant %s: %w", restaurantID, err)
	}

	return &RestaurantPage{Restaurant: rest, Availability: result}, nil
}

// LoadMenu returns the orderable menu. A closed restaurant gets an empty menu
// without touching the catalog, and a catalog failure is logged and also
// yields an empty menu.
func (s *StorefrontService) LoadMenu(ctx context.Context, restaurantID string, orderType domain.OrderType) (*MenuPage, error) {
	page, err := s.LoadRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	menu := &MenuPage{
		RestaurantID: restaurantID,
		OrderType:    orderType,
		Availability: page.Availability,
		Menu:         []domain.MenuItem{},
	}
	if !page.Availability.Available {
		return menu, nil
	}

	if s.cache != nil {
		items, ok, err := s.cache.Get(ctx, restaurantID)
		if err != nil {
			s.logger.Warn().Err(err).Str("restaurant_id", restaurantID).Msg("menu cache read failed")
		} else if ok {
			menu.Menu = items
			return menu, nil
		}
	}

	items, err := s.catalog.ListAvailableMenuItems(ctx, restaurantID)
	if err != nil {
		s.logger.Error().Err(err).Str("restaurant_id", restaurantID).Msg("menu load failed")
		return menu, nil
	}
	menu.Menu = items

	if s.cache != nil {
		if err := s.cache.Set(ctx, restaurantID, items); err != nil {
			s.logger.Warn().Err(err).Str("restaurant_id", restaurantID).Msg("menu cache write failed")
		}
	}

	s.logger.Debug().Str("restaurant_id", restaurantID).Int("items", len(items)).Msg("menu loaded")
	return menu, nil
}

func (s *StorefrontService) UploadMenuImage(ctx context.Context, restaurantID, itemID, filename, contentType string, src io.Reader) (string, error) {
	if _, err := s.catalog.GetMenuItem(ctx, restaurantID, itemID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", ErrMenuItemNotFound
		}
		return "", err
	}

	imageURL, err := s.images.SaveMenuImage(ctx, restaurantID, itemID, filename, contentType, src)
	if err != nil {
		return "", err
	}

	if _, err := s.catalog.UpdateMenuItemImage(ctx, restaurantID, itemID, imageURL); err != nil {
		return "", fmt.Errorf("record image for item %s: %w", itemID, err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, restaurantID); err != nil {
			s.logger.Warn().Err(err).Str("restaurant_id", restaurantID).Msg("menu cache invalidation failed")
		}
	}
	return imageURL, nil
}

var _ StorefrontServiceInterface = (*StorefrontService)(nil)
