package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rewear/rewear-api/internal/config"
	"github.com/rewear/rewear-api/internal/domain/item"
	"github.com/rewear/rewear-api/internal/domain/ledger"
	"github.com/rewear/rewear-api/internal/domain/notification"
	"github.com/rewear/rewear-api/internal/domain/payment"
	"github.com/rewear/rewear-api/internal/domain/swap"
	"github.com/rewear/rewear-api/internal/domain/user"
	"github.com/rewear/rewear-api/internal/middleware"
	"github.com/rewear/rewear-api/internal/pkg/database"
	"github.com/rewear/rewear-api/internal/pkg/jwt"
	"github.com/rewear/rewear-api/internal/pkg/razorpay"
	pkgresponse "github.com/rewear/rewear-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting ReWear API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	razorpayClient := razorpay.NewClient(razorpay.Config{
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
	})

	// ---------- WebSocket hub ----------
	hub := notification.NewHub(redisClient)
	go hub.Run()
	defer hub.Shutdown()

	// ---------- Repositories ----------
	ledgerRepo := ledger.NewRepository(db)
	itemRepo := item.NewRepository(db)
	swapRepo := swap.NewRepository(db)
	userRepo := user.NewRepository(db)

	// ---------- Services ----------
	ledgerService := ledger.NewService(ledgerRepo)
	itemService := item.NewService(itemRepo, hub)
	swapService := swap.NewService(swapRepo, itemRepo, ledgerService, hub)
	paymentService := payment.NewService(razorpayClient, ledgerService, hub)

	// ---------- Handlers ----------
	ledgerHandler := ledger.NewHandler(ledgerService)
	itemHandler := item.NewHandler(itemService)
	swapHandler := swap.NewHandler(swapService)
	paymentHandler := payment.NewHandler(paymentService)
	userHandler := user.NewHandler(userRepo)
	wsHandler := notification.NewHandler(hub, cfg.AllowedOrigins)

	authMiddleware := middleware.Auth(jwtService)
	optionalAuthMiddleware := middleware.OptionalAuth(jwtService)
	adminMiddleware := middleware.RequireAdmin()

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	// WebSocket endpoint; browsers cannot set headers on WS requests, so the
	// token arrives as a query parameter
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		authMiddleware(http.HandlerFunc(wsHandler.ServeWS)).ServeHTTP(w, r)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Compress(5))

		r.Mount("/items", itemHandler.Routes(optionalAuthMiddleware, authMiddleware, adminMiddleware))
		r.Mount("/swaps", swapHandler.Routes(authMiddleware))
		r.Mount("/payments", paymentHandler.Routes(authMiddleware))
		r.Mount("/wallet", ledgerHandler.Routes(authMiddleware))
		r.Mount("/transactions", ledgerHandler.HistoryRoutes(authMiddleware))
		r.Mount("/users", userHandler.Routes(authMiddleware))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}
}
