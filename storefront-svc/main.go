package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"qr-storefront/config"
	httpapi "qr-storefront/storefront-svc/internal/api/http"
	"qr-storefront/storefront-svc/internal/cart"
	"qr-storefront/storefront-svc/internal/service"
	"qr-storefront/storefront-svc/internal/storage"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	serviceName   = "storefront-svc"
	eventBuffer   = 1024
	consumerGroup = "storefront-svc"
)

type app struct {
	handler   http.Handler
	forwarder *service.EventForwarder
	cache     *storage.MenuCache
}

func newApp(cf *config.Config, db *sql.DB, rdb *redis.Client, publisher service.CartEventPublisher, logger zerolog.Logger) *app {
	catalog := storage.NewPostgresRepository(db)
	cache := storage.NewMenuCache(rdb, cf.MenuCacheTTL)
	images := storage.NewFileImageStore(cf.UploadDir, cf.PublicBaseURL)
	payments := storage.NewPaymentCounter(rdb, cf.SessionTTL)

	slots := func(sessionID string) cart.Slot {
		return storage.NewRedisSlot(rdb, sessionID, cf.SessionTTL)
	}
	sessions := service.NewSessionRegistry(slots, cf.SessionTTL, logger)
	forwarder := service.NewEventForwarder(publisher, eventBuffer, logger)

	storefront := service.NewStorefrontService(catalog, cache, images, logger)
	carts := service.NewCartService(sessions, catalog, publisher, payments, forwarder, logger)
	qr := service.TableQRGenerator{BaseURL: cf.PublicBaseURL}

	handler := httpapi.NewHandler(storefront, carts, qr, logger)
	return &app{
		handler:   httpapi.NewRouter(handler, cf.UploadDir, logger),
		forwarder: forwarder,
		cache:     cache,
	}
}

func main() {
	cf, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}
	logger := config.NewLogger(cf, os.Stdout).With().Str("svc", serviceName).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := config.MustInitPostgres(cf, logger)
	defer db.Close()

	if err := storage.NewPostgresRepository(db).EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure schema")
	}

	rdb := config.MustInitRedis(cf, logger)
	defer rdb.Close()

	writer := config.NewKafkaWriter(cf, cf.CartEventsTopic)
	defer writer.Close()

	reader := config.NewKafkaReader(cf, cf.CatalogEventsTopic, consumerGroup)
	defer reader.Close()

	a := newApp(cf, db, rdb, storage.NewKafkaPublisher(writer), logger)

	go a.forwarder.Run(ctx)
	go service.NewCatalogConsumer(reader, a.cache, logger).Start(ctx)

	if err := httpapi.StartServer(ctx, ":"+cf.ServerPort, a.handler, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
	logger.Info().Msg("storefront service stopped")
}
