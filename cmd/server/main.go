package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fitrelay/strava-discord/internal/config"
	"github.com/fitrelay/strava-discord/internal/database"
	"github.com/fitrelay/strava-discord/internal/discord"
	"github.com/fitrelay/strava-discord/internal/handlers"
	"github.com/fitrelay/strava-discord/internal/pubsub"
	"github.com/fitrelay/strava-discord/internal/repositories"
	"github.com/fitrelay/strava-discord/internal/services"
	"github.com/fitrelay/strava-discord/internal/strava"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// Initialize database connections
	postgresPool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to create postgres pool", zap.Error(err))
	}
	defer postgresPool.Close()

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal("failed to create redis client", zap.Error(err))
	}
	defer redisClient.Close()

	// Wire repositories, clients and services
	tokenRepo := repositories.NewPostgresTokenRepository(postgresPool)
	messageRepo := repositories.NewRedisMessageRepository(redisClient)
	topic := pubsub.NewTopic(redisClient, cfg.RelayChannel, logger)
	stravaClient := strava.NewClient(cfg.StravaBaseURL, cfg.StravaClientID, cfg.StravaClientSecret)

	notifier, err := discord.NewNotifier(cfg.DiscordWebhookURL, logger)
	if err != nil {
		logger.Fatal("failed to create discord notifier", zap.Error(err))
	}

	relayService := services.NewRelayService(messageRepo, tokenRepo, topic, stravaClient, notifier, logger)
	authService := services.NewAuthService(tokenRepo, stravaClient, cfg.OAuthRedirectURL, cfg.StateSecret, logger)

	webhookHandler := handlers.NewWebhookHandler(relayService, cfg.StravaVerifyToken, logger)
	authHandler := handlers.NewAuthHandler(authService, logger)

	// Initialize HTTP Server
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	router.Get("/webhook", webhookHandler.Verify)
	router.Post("/webhook", webhookHandler.Receive)
	router.Get("/authorize/start", authHandler.Start)
	router.Get("/authorize", authHandler.Callback)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Consumer half of the relay
	g.Go(func() error {
		err := topic.Subscribe(ctx, relayService.HandleRelay)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		logger.Info("starting server", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// graceful shutdown
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}

	logger.Info("server stopped gracefully")
}
