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
	"github.com/rs/zerolog/log"

	"github.com/campuslf/lostfound-api/internal/config"
	"github.com/campuslf/lostfound-api/internal/domain/admin"
	"github.com/campuslf/lostfound-api/internal/domain/auth"
	"github.com/campuslf/lostfound-api/internal/domain/handover"
	"github.com/campuslf/lostfound-api/internal/domain/item"
	"github.com/campuslf/lostfound-api/internal/domain/matching"
	"github.com/campuslf/lostfound-api/internal/domain/message"
	"github.com/campuslf/lostfound-api/internal/domain/moderation"
	"github.com/campuslf/lostfound-api/internal/domain/notification"
	"github.com/campuslf/lostfound-api/internal/domain/user"
	"github.com/campuslf/lostfound-api/internal/middleware"
	"github.com/campuslf/lostfound-api/internal/pkg/database"
	"github.com/campuslf/lostfound-api/internal/pkg/imaging"
	"github.com/campuslf/lostfound-api/internal/pkg/jwt"
	"github.com/campuslf/lostfound-api/internal/pkg/logger"
	pkgresponse "github.com/campuslf/lostfound-api/internal/pkg/response"
	"github.com/campuslf/lostfound-api/internal/pkg/search"
	"github.com/campuslf/lostfound-api/internal/pkg/storage"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		Service:     "lostfound-api",
	})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Lost & Found API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if cfg.MigrateOnStart {
		if err := database.Migrate(context.Background(), db); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	photoStorage, err := storage.New(storage.Config{
		Driver:      cfg.StorageDriver,
		LocalPath:   cfg.StorageLocalPath,
		BaseURL:     cfg.StorageBaseURL,
		S3Endpoint:  cfg.S3Endpoint,
		S3Region:    cfg.S3Region,
		S3Bucket:    cfg.S3Bucket,
		S3AccessKey: cfg.S3AccessKey,
		S3SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create photo storage")
	}

	var index search.Index = search.NoopIndex{}
	if cfg.SearchEnabled() {
		index = search.NewMeiliIndex(cfg.MeiliHost, cfg.MeiliAPIKey)
	}

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	itemRepo := item.NewRepository(db)
	handoverRepo := handover.NewRepository(db)
	messageRepo := message.NewRepository(db)
	notificationRepo := notification.NewRepository(db)
	moderationRepo := moderation.NewRepository(db)
	adminRepo := admin.NewRepository(db)

	// ---------- WebSocket hub ----------
	hub := message.NewHub(redis)
	go hub.Run()

	// ---------- Services ----------
	authService := auth.NewService(userRepo, jwtService, auth.NewRedisTokenStore(redis))
	notificationService := notification.NewService(notificationRepo, notification.NewWSPublisher(hub))

	itemService := item.NewService(itemRepo, index, photoStorage, imaging.NewProcessor(imaging.DefaultConfig()))
	matchingService := matching.NewService(itemRepo, notificationService, cfg.MatchNotifyThreshold)
	itemService.SetMatchNotifier(matchingService)

	handoverService := handover.NewService(handoverRepo, notificationService, userRepo)
	handoverService.SetIndexer(itemService)

	messageLimiter := middleware.NewRateLimiter(redis, "messages", cfg.RateLimitPerMinute, time.Minute)
	messageService := message.NewService(messageRepo, handoverRepo, messageLimiter, notificationService, hub)

	moderationService := moderation.NewService(moderationRepo, itemRepo, messageRepo, handoverRepo, userRepo, notificationService)
	moderationService.SetIndexer(itemService)
	moderationService.SetSessionRevoker(authService)

	statisticsService := admin.NewService(adminRepo, admin.NewRedisCache(redis))

	// ---------- Handlers ----------
	authHandler := auth.NewHandler(authService)
	itemHandler := item.NewHandler(itemService)
	matchingHandler := matching.NewHandler(matchingService)
	handoverHandler := handover.NewHandler(handoverService)
	wsLimiter := middleware.NewRateLimiter(redis, "ws", cfg.RateLimitPerMinute, time.Minute)
	messageHandler := message.NewHandler(messageService, hub, wsLimiter, cfg.AllowedOrigins)
	notificationHandler := notification.NewHandler(notificationService)
	moderationHandler := moderation.NewHandler(moderationService)
	statisticsHandler := admin.NewHandler(statisticsService)

	// login and register attempts per client IP
	authLimiter := middleware.NewRateLimiter(redis, "auth", 20, time.Minute)
	authMiddleware := chainAuth(middleware.Auth(jwtService), middleware.RequireActiveUser(userRepo))

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	// WebSocket endpoint (token in query string)
	r.Handle("/ws", messageHandler.WSRoute(authMiddleware))

	if cfg.StorageDriver != "s3" {
		mountUploads(r, cfg.StorageLocalPath)
	}

	r.Get("/health", health(hub))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Compress(5))

		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]string{"message": "pong"})
		})

		r.With(middleware.RateLimit(authLimiter)).Mount("/auth", authHandler.Routes(authMiddleware))
		r.Mount("/lost", itemHandler.LostRoutes(authMiddleware))
		r.Mount("/found", itemHandler.FoundRoutes(authMiddleware))
		r.Mount("/matching", matchingHandler.Routes(authMiddleware))
		r.Mount("/handovers", handoverHandler.Routes(authMiddleware))
		r.Mount("/messages", messageHandler.Routes(authMiddleware))
		r.Mount("/notifications", notificationHandler.Routes(authMiddleware))
		r.Mount("/admin/statistics", statisticsHandler.Routes(authMiddleware))
		r.Mount("/admin", moderationHandler.Routes(authMiddleware))
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
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Shutdown()

	log.Info().Msg("Server exited properly")
}

// chainAuth runs token validation first, then the remaining gates in order
func chainAuth(authenticate func(http.Handler) http.Handler, gates ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		for i := len(gates) - 1; i >= 0; i-- {
			next = gates[i](next)
		}
		return authenticate(next)
	}
}

// mountUploads serves locally stored photos
func mountUploads(r chi.Router, dir string) {
	fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(dir)))
	r.Get("/uploads/*", fs.ServeHTTP)
}

// connectionCounter reports open websocket connections on this instance
type connectionCounter interface {
	ConnectionCount() int
}

func health(conns connectionCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]interface{}{
			"status":         "ok",
			"version":        version,
			"ws_connections": conns.ConnectionCount(),
		})
	}
}
