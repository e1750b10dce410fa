package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"

	"github.com/superc/price-alert/internal/auth"
	"github.com/superc/price-alert/internal/config"
	"github.com/superc/price-alert/internal/database"
	"github.com/superc/price-alert/internal/handler"
	"github.com/superc/price-alert/internal/queue"
	"github.com/superc/price-alert/internal/repository"
	"github.com/superc/price-alert/internal/router"
	"github.com/superc/price-alert/internal/service"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	users := repository.NewUserRepo(db)
	refresh := repository.NewRefreshTokenRepo(db)
	reset := repository.NewResetTokenRepo(db)
	products := repository.NewProductRepo(db)
	tracking := repository.NewTrackingRepo(db)

	// Seed the closed role set before the first registration.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := users.EnsureRoles(ctx); err != nil {
		log.Fatalf("seed roles: %v", err)
	}
	cancel()

	issuer := auth.NewIssuer(cfg.SigningKey, cfg.AccessTTL)
	notifier := &service.AMQPNotifier{ResetBaseURL: "http://localhost:" + cfg.Port + "/reset-password"}

	// Background consumer delivers queued reset links and price alerts.
	go queue.StartEmailConsumer(queue.LogMailer{})

	// Scheduled price sweep; disabled when no cron expression is configured.
	if cfg.PriceCheckCron != "" {
		checker := &service.PriceChecker{
			Tracking: tracking,
			Users:    users,
			Products: products,
			Fetcher:  &service.HTTPFetcher{BaseURL: "https://www.superc.ca/en/search?filter="},
			Notifier: notifier,
		}
		c := cron.New()
		if _, err := c.AddFunc(cfg.PriceCheckCron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			checker.Run(ctx)
		}); err != nil {
			log.Fatalf("price check schedule: %v", err)
		}
		c.Start()
	}

	ah := handler.NewAuthHandler(cfg, issuer, users, refresh, reset, notifier)
	th := handler.NewTrackingHandler(tracking)
	ph := handler.NewProductHandler(products)

	e := echo.New()
	rdb := config.NewRedisClient() // nil disables rate limiting and caching
	router.Register(e, issuer, users, ah, th, ph, rdb,
		config.LoadRateLimitConfig(), config.LoadCacheConfig())

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
