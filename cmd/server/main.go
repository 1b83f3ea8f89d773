package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/vennapp/venner/internal/config"
	"github.com/vennapp/venner/internal/database"
	"github.com/vennapp/venner/internal/handlers"
	"github.com/vennapp/venner/internal/logging"
	"github.com/vennapp/venner/internal/middleware"
	"github.com/vennapp/venner/internal/realtime"
	"github.com/vennapp/venner/internal/services"
	"github.com/vennapp/venner/internal/views"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	logger := logging.New()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("Starting Venner server...")

	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	logger.Info("Running database migrations...")
	migrator, err := database.NewMigrator(cfg.Database.DSN(), "migrations")
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return fmt.Errorf("running migrations: %w", err)
	}
	_ = migrator.Close()
	logger.Info("Migrations completed")

	logger.Info("Connecting to Redis", map[string]interface{}{
		"addr": cfg.Redis.Addr(),
	})
	redisDB, err := database.NewRedisDB(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()
	logger.Info("Connected to Redis")

	// Background workers share one cancellable context.
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	// Realtime plumbing
	bus := realtime.NewBus(redisDB.Client, logger)
	hub := realtime.NewHub(logger)

	// Services
	dbAdapter := services.NewPoolAdapter(db.Pool)
	redisAdapter := services.NewRedisAdapter(redisDB.Client)

	userService := services.NewUserService(dbAdapter)
	authService := services.NewAuthService(dbAdapter, redisAdapter, userService)
	emailService := services.NewEmailService(&cfg.Email, dbAdapter)
	profileService := services.NewProfileService(dbAdapter, bus)
	interestService := services.NewInterestService(dbAdapter)
	friendService := services.NewFriendService(dbAdapter, bus)
	messageService := services.NewMessageService(dbAdapter, bus)
	invitationService := services.NewInvitationService(dbAdapter, bus)
	activityService := services.NewActivityService(dbAdapter)

	// Per-user live views
	registry := views.NewRegistry(views.Services{
		Profiles:    profileService,
		Friends:     friendService,
		Interests:   interestService,
		Messages:    messageService,
		Invitations: invitationService,
	}, bus, hub, logger)

	forwarder := realtime.NewForwarder(bus, hub, profileService, emailService, logger)

	// Presence follows the websocket connection count.
	hub.SetPresenceHooks(
		func(userID uuid.UUID) {
			registry.Retain(userID)
			setPresence(profileService, logger, userID, true)
		},
		func(userID uuid.UUID) {
			registry.Release(userID)
			setPresence(profileService, logger, userID, false)
		},
	)

	go func() {
		if err := bus.Run(runCtx); err != nil && runCtx.Err() == nil {
			logger.Error("Change bus stopped", map[string]interface{}{"error": err.Error()})
		}
	}()
	go hub.Run(runCtx)
	go forwarder.Run(runCtx)
	go registry.Run(runCtx)

	// Handlers
	healthHandler := handlers.NewHealthHandler(db, redisDB)
	authHandler := handlers.NewAuthHandler(userService, authService, cfg.Server.Secure)
	profileHandler := handlers.NewProfileHandler(profileService, interestService, registry)
	friendHandler := handlers.NewFriendHandler(registry, friendService)
	chatHandler := handlers.NewChatHandler(registry, friendService)
	invitationHandler := handlers.NewInvitationHandler(registry)
	activityHandler := handlers.NewActivityHandler(activityService)
	wsHandler := handlers.NewWSHandler(hub, registry)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)
	securityHeaders := middleware.NewSecurityHeaders(cfg.Server.Secure)
	requestLogger := middleware.NewRequestLogger(logger)
	requireAuth := authMiddleware.RequireAuth

	mux := http.NewServeMux()

	// Health endpoints (no auth)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /live", healthHandler.Live)

	// Auth endpoints
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.Handle("GET /api/auth/me", requireAuth(http.HandlerFunc(authHandler.Me)))

	// Profile and interests
	mux.Handle("GET /api/profile", requireAuth(http.HandlerFunc(profileHandler.Get)))
	mux.Handle("PUT /api/profile", requireAuth(http.HandlerFunc(profileHandler.Upsert)))
	mux.Handle("GET /api/interests", requireAuth(http.HandlerFunc(profileHandler.Catalog)))
	mux.Handle("PUT /api/profile/interests", requireAuth(http.HandlerFunc(profileHandler.SetInterests)))

	// Directory and friendships
	mux.Handle("GET /api/directory", requireAuth(http.HandlerFunc(profileHandler.Directory)))
	mux.Handle("POST /api/friends/requests", requireAuth(http.HandlerFunc(friendHandler.SendRequest)))
	mux.Handle("POST /api/friends/requests/accept", requireAuth(http.HandlerFunc(friendHandler.AcceptRequest)))
	mux.Handle("POST /api/friends/requests/reject", requireAuth(http.HandlerFunc(friendHandler.RejectRequest)))
	mux.Handle("POST /api/friends/requests/cancel", requireAuth(http.HandlerFunc(friendHandler.CancelRequest)))
	mux.Handle("POST /api/friends/remove", requireAuth(http.HandlerFunc(friendHandler.RemoveFriend)))
	mux.Handle("GET /api/friends/count", requireAuth(http.HandlerFunc(friendHandler.Count)))

	// Chats
	mux.Handle("GET /api/chats", requireAuth(http.HandlerFunc(chatHandler.List)))
	mux.Handle("GET /api/chats/{peerID}", requireAuth(http.HandlerFunc(chatHandler.Open)))
	mux.Handle("DELETE /api/chats/{peerID}", requireAuth(http.HandlerFunc(chatHandler.Close)))
	mux.Handle("POST /api/chats/{peerID}/messages", requireAuth(http.HandlerFunc(chatHandler.Send)))

	// Activity invitations
	mux.Handle("GET /api/invitations", requireAuth(http.HandlerFunc(invitationHandler.List)))
	mux.Handle("POST /api/invitations", requireAuth(http.HandlerFunc(invitationHandler.Send)))
	mux.Handle("POST /api/invitations/{id}/read", requireAuth(http.HandlerFunc(invitationHandler.MarkRead)))
	mux.Handle("POST /api/invitations/read-all", requireAuth(http.HandlerFunc(invitationHandler.MarkAllRead)))

	// Activity catalog
	mux.Handle("GET /api/activities", requireAuth(http.HandlerFunc(activityHandler.GetAll)))
	mux.Handle("GET /api/activities/categories", requireAuth(http.HandlerFunc(activityHandler.GetCategories)))
	mux.Handle("GET /api/activities/suggestions", requireAuth(http.HandlerFunc(activityHandler.Suggest)))

	// Realtime push socket
	mux.Handle("GET /api/ws", requireAuth(http.HandlerFunc(wsHandler.Connect)))

	// Build middleware chain (order matters: outermost first)
	var handler http.Handler = mux
	handler = authMiddleware.Authenticate(handler)
	handler = securityHeaders.Apply(handler)
	handler = requestLogger.Apply(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")
		cancelRun()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Could not gracefully shutdown the server", map[string]interface{}{
				"error": err.Error(),
			})
		}
		close(done)
	}()

	logger.Info("Server listening", map[string]interface{}{
		"addr": addr,
	})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}

func setPresence(profiles *services.ProfileService, logger *logging.Logger, userID uuid.UUID, online bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := profiles.SetOnline(ctx, userID, online); err != nil {
		logger.Warn("Failed to update presence", map[string]interface{}{
			"user_id": userID.String(),
			"online":  online,
			"error":   err.Error(),
		})
	}
}
