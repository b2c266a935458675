package container

import (
	"fmt"
	"log"

	"catalog-sync-backend/internal/config"
	"catalog-sync-backend/internal/infrastructure/adcatalog"
	"catalog-sync-backend/internal/infrastructure/database"
	"catalog-sync-backend/internal/infrastructure/source"

	authHandler "catalog-sync-backend/internal/domains/auth/handler"
	authRepo "catalog-sync-backend/internal/domains/auth/repository"
	authService "catalog-sync-backend/internal/domains/auth/service"
	"catalog-sync-backend/internal/domains/catalog/mapper"
	feedHandler "catalog-sync-backend/internal/domains/feed/handler"
	feedService "catalog-sync-backend/internal/domains/feed/service"
	productRepo "catalog-sync-backend/internal/domains/product/repository"
	syncHandler "catalog-sync-backend/internal/domains/sync/handler"
	syncRepo "catalog-sync-backend/internal/domains/sync/repository"
	syncService "catalog-sync-backend/internal/domains/sync/service"
	webhookHandler "catalog-sync-backend/internal/domains/webhook/handler"
	webhookRepo "catalog-sync-backend/internal/domains/webhook/repository"
	webhookService "catalog-sync-backend/internal/domains/webhook/service"
)

// Container is the root of the dependency graph. Initialization order:
// config, infrastructure, repositories, services, handlers.
type Container struct {
	Config *config.Config
	DB     *database.DB

	SourceClient  *source.Client
	CatalogClient *adcatalog.Client

	ProductRepo productRepo.Repository
	SyncRepo    syncRepo.Repository
	EventRepo   webhookRepo.Repository
	SessionRepo authRepo.Repository

	SyncService syncService.Service
	FeedService feedService.Service
	AuthService authService.Service
	Processor   *webhookService.Processor

	SyncHandler    *syncHandler.SyncHandler
	FeedHandler    *feedHandler.FeedHandler
	WebhookHandler *webhookHandler.WebhookHandler
	AuthHandler    *authHandler.AuthHandler
}

func NewContainer() (*Container, error) {
	log.Println("🔧 Initializing DI container...")

	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg

	db, err := database.Open(cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache store: %w", err)
	}
	c.DB = db

	c.SourceClient = source.NewClient(cfg.Source.BaseURL, cfg.Source.Key, cfg.Source.Secret)
	c.CatalogClient = adcatalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.ID, cfg.Catalog.Token)

	c.ProductRepo = productRepo.NewSQLiteRepository(db)
	c.SyncRepo = syncRepo.NewSQLiteRepository(db)
	c.EventRepo = webhookRepo.NewSQLiteRepository(db)
	c.SessionRepo = authRepo.NewSQLiteRepository(db)

	mapperOpts := mapper.Options{
		Brand:          cfg.Feed.Brand,
		CurrencySuffix: cfg.Feed.CurrencySuffix,
		ImageRenderURL: cfg.Feed.ImageRenderURL,
	}

	c.SyncService = syncService.NewSyncService(
		c.SourceClient, c.CatalogClient, c.ProductRepo, c.SyncRepo, mapperOpts)
	c.FeedService = feedService.NewFeedService(
		c.ProductRepo, c.SourceClient, mapperOpts, cfg.Feed.PublicDir)
	c.AuthService = authService.NewAuthService(
		cfg.Auth.AdminUser, cfg.Auth.AdminPassword, cfg.Auth.SessionTTL, c.SessionRepo)
	c.Processor = webhookService.NewProcessor(
		cfg.Webhook.Secret, cfg.Source.BaseURL,
		c.ProductRepo, c.SyncRepo, c.EventRepo, c.SyncService)

	c.SyncHandler = syncHandler.NewSyncHandler(c.SyncService, c.ProductRepo, c.SyncRepo, c.EventRepo)
	c.FeedHandler = feedHandler.NewFeedHandler(c.FeedService)
	c.WebhookHandler = webhookHandler.NewWebhookHandler(c.Processor)
	c.AuthHandler = authHandler.NewAuthHandler(c.AuthService)

	log.Println("✅ DI container ready")

	return c, nil
}

// Cleanup drains in-flight webhook work and closes the cache store.
func (c *Container) Cleanup() {
	if c.Processor != nil {
		c.Processor.Wait()
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			log.Printf("⚠️  Failed to close cache store: %v", err)
		}
	}
}
