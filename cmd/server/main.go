package main // Entry point package

import (
	"context"
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/seroba/gallery-gate/internal/config"
	"github.com/seroba/gallery-gate/internal/database"
	"github.com/seroba/gallery-gate/internal/entitlement"
	"github.com/seroba/gallery-gate/internal/fanout"
	"github.com/seroba/gallery-gate/internal/handler"
	"github.com/seroba/gallery-gate/internal/ledger"
	"github.com/seroba/gallery-gate/internal/queue"
	"github.com/seroba/gallery-gate/internal/repository"
	"github.com/seroba/gallery-gate/internal/router"
	"github.com/seroba/gallery-gate/internal/service"
	"github.com/seroba/gallery-gate/internal/tokenstore"
	"github.com/seroba/gallery-gate/internal/twitch"
)

func main() {
	// Load .env when present; in real deployments the variables come from
	// the environment itself.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: rate limiting and the entitlement cache switch off
	// and fan-out stays in-process when it is unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; running without cache, rate limit and fan-out bridge")
	}

	hub := fanout.NewHub(rdb)
	go hub.Run(context.Background())

	api := twitch.NewClient(cfg.ClientID, cfg.ClientSecret)

	credRepo := repository.NewCredentialRepo(db)
	photoRepo := repository.NewPhotoRepo(db)
	commentRepo := repository.NewCommentRepo(db)
	ledgerRepo := repository.NewLedgerRepo(db, photoRepo, commentRepo)

	tokens := tokenstore.New(credRepo, api)
	resolver := entitlement.New(tokens, api, rdb)
	ledgerSvc := ledger.New(
		cfg.ReceiptSecret,
		ledgerRepo,
		hub,
		&service.ChatAnnouncer{Tokens: tokens, API: api},
		service.PublishPurchaseApplied,
	)

	// Background consumer mirroring applied purchases into the audit log.
	go func() {
		if err := queue.StartPurchaseConsumer(); err != nil {
			log.Printf("purchase consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e) // Register application routes
	router.RegisterAPI(e, cfg.SessionSecret, config.LoadRateLimitConfig(), rdb, router.Handlers{
		Status:   handler.NewStatusHandler(resolver),
		Gallery:  handler.NewGalleryHandler(resolver, photoRepo),
		Purchase: handler.NewPurchaseHandler(ledgerSvc),
		Comments: handler.NewCommentHandler(resolver, commentRepo),
		OAuth:    handler.NewOAuthHandler(api, tokens, cfg.OAuthRedirectURL),
		Events:   handler.NewEventsHandler(hub),
	})

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
