package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	authflow "github.com/mvalko/go-authflow"
	"github.com/mvalko/go-authflow/provider/google"
	"github.com/mvalko/go-authflow/store/memstore"
	"github.com/mvalko/go-authflow/store/mongostore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := authflow.NewLogger("SERVER")

	cfg, err := authflow.LoadConfig()
	if err != nil {
		logger.Error("load config: %s", err)
		os.Exit(1)
	}

	store, cleanup, err := buildStore(ctx, logger)
	if err != nil {
		logger.Error("initialize identity store: %s", err)
		os.Exit(1)
	}
	defer cleanup()

	tokens := authflow.NewTokenService([]byte(cfg.SigningKey), cfg.TokenTTL, cfg.TokenIssuer, logger)

	auther := authflow.NewAuthenticator(store, tokens).
		WithHasher(authflow.NewHasher(cfg.BcryptCost)).
		WithLogger(logger)

	var federated *authflow.FederatedAuthenticator
	if cfg.GoogleAPIKey != "" {
		provider := google.New(google.Config{APIKey: cfg.GoogleAPIKey})
		federated = authflow.NewFederatedAuthenticator(provider, store).WithLogger(logger)
	}

	app := fiber.New(fiber.Config{AppName: "authflow"})
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	controller := authflow.NewHTTPController(auther, federated, tokens, store).WithLogger(logger)
	controller.RegisterRoutes(app)

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			logger.Error("server stopped: %s", err)
			stop()
		}
	}()
	logger.Info("listening on %s", cfg.ListenAddr)

	<-ctx.Done()
	logger.Info("shutdown signal received")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown: %s", err)
	}
}

// buildStore selects MongoDB when MONGODB_URL is configured and falls back
// to the in-memory store otherwise.
func buildStore(ctx context.Context, logger authflow.Logger) (authflow.IdentityStore, func(), error) {
	var mongoCfg mongostore.Config
	if err := env.Parse(&mongoCfg); err != nil {
		return nil, nil, err
	}

	if mongoCfg.ConnectionURL == "" {
		logger.Warn("MONGODB_URL not set, using in-memory identity store")
		return memstore.New(), func() {}, nil
	}

	db, err := mongostore.Connect(ctx, mongoCfg)
	if err != nil {
		return nil, nil, err
	}

	store := mongostore.New(db).WithLogger(logger)
	if err := store.EnsureIndexes(ctx); err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Client().Disconnect(shutdownCtx)
	}
	return store, cleanup, nil
}
