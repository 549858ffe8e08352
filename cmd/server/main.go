package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/orchestrate/internal/events"
	"github.com/yourorg/orchestrate/internal/handler"
	"github.com/yourorg/orchestrate/internal/infrastructure/logger"
	"github.com/yourorg/orchestrate/internal/infrastructure/redis"
	"github.com/yourorg/orchestrate/internal/observability/metrics"
	"github.com/yourorg/orchestrate/internal/observability/tracing"
	"github.com/yourorg/orchestrate/internal/repository"
	"github.com/yourorg/orchestrate/internal/security"
	"github.com/yourorg/orchestrate/internal/security/audit"
	"github.com/yourorg/orchestrate/internal/security/auth"
	"github.com/yourorg/orchestrate/internal/security/middleware"
	"github.com/yourorg/orchestrate/internal/security/ratelimit"
	"github.com/yourorg/orchestrate/internal/service"
	"github.com/yourorg/orchestrate/internal/worker"
	"github.com/yourorg/orchestrate/pkg/config"
	"github.com/yourorg/orchestrate/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting Orchestrate server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op without an OTLP endpoint)
	shutdownTracing, err := tracing.Init(ctx, log, "orchestrate", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Initialize database pool
	pool, err := database.NewConnectionPool(ctx, &database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 5. Initialize Redis (optional: booking writes degrade to the
	// database transaction when absent)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
	} else {
		log.Info("redis not configured, distributed room locks disabled")
	}

	// 6. Initialize repositories
	userRepo := repository.NewPostgresUserRepository(pool.GetDB(), log)
	roomRepo := repository.NewPostgresRoomRepository(pool.GetDB(), log)
	bookingRepo := repository.NewPostgresBookingRepository(pool, log)
	projectRepo := repository.NewPostgresProjectRepository(pool.GetDB(), log)
	memberRepo := repository.NewPostgresMemberRepository(pool.GetDB(), log)
	taskRepo := repository.NewPostgresTaskRepository(pool.GetDB(), log)

	// 7. Initialize security components
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "orchestrate")
	authz := security.NewAuthorizationService(log)
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	auditLogger := audit.NewLogger(log)

	// 8. Initialize services
	hub := events.NewHub(log)
	var roomLocker service.RoomLocker
	if redisClient != nil {
		roomLocker = redisClient
	}
	authService := service.NewAuthService(userRepo, tokenManager, cfg.TokenLifetime, log)
	bookingService := service.NewBookingService(bookingRepo, roomRepo, roomLocker, hub, log)
	taskService := service.NewTaskService(taskRepo, projectRepo, memberRepo, authz, log)
	projectService := service.NewProjectService(projectRepo, memberRepo, authz, log)
	workloadService := service.NewWorkloadService(userRepo, taskRepo, projectRepo, log)
	userService := service.NewUserService(userRepo, authz, log)

	// 9. Initialize handlers
	authHandler := handler.NewAuthHandler(authService, rateLimiter, log)
	bookingHandler := handler.NewBookingHandler(bookingService, log)
	taskHandler := handler.NewTaskHandler(taskService, workloadService, log)
	projectHandler := handler.NewProjectHandler(projectService, log)
	userHandler := handler.NewUserHandler(userService, log)
	healthHandler := handler.NewHealthHandler(pool, rawRedis(redisClient), log)
	boardFeedHandler := handler.NewBoardFeedHandler(hub, log, cfg.CORSAllowedOrigins)

	// Per-route middleware: authentication resolves the principal first
	// so rate limiting and auditing can key on it.
	requireAuth := middleware.RequireAuth(tokenManager, userRepo, log)
	optionalAuth := middleware.OptionalAuth(tokenManager, userRepo, log)
	limited := middleware.RateLimitMiddleware(rateLimiter, log)
	audited := middleware.AuditMiddleware(auditLogger)
	jsonBody := middleware.ValidateJSONContentType(log)

	protected := func(h http.HandlerFunc) http.Handler {
		return requireAuth(limited(audited(h)))
	}
	protectedJSON := func(h http.HandlerFunc) http.Handler {
		return requireAuth(limited(audited(jsonBody(h))))
	}
	open := func(h http.HandlerFunc) http.Handler {
		return optionalAuth(limited(audited(h)))
	}
	openJSON := func(h http.HandlerFunc) http.Handler {
		return optionalAuth(limited(audited(jsonBody(h))))
	}

	// 10. Setup HTTP routes
	mux := http.NewServeMux()

	mux.Handle("POST /api/auth/register", openJSON(authHandler.Register))
	mux.Handle("POST /api/auth/login", openJSON(authHandler.Login))

	mux.Handle("POST /api/bookings", openJSON(bookingHandler.Create))
	mux.Handle("GET /api/bookings", open(bookingHandler.List))
	mux.Handle("GET /api/bookings/public", open(bookingHandler.ListPublic))
	mux.Handle("GET /api/bookings/rooms", open(bookingHandler.ListRooms))
	mux.Handle("PUT /api/bookings/{id}", protectedJSON(bookingHandler.Update))
	mux.Handle("DELETE /api/bookings/{id}", protected(bookingHandler.Delete))

	mux.Handle("POST /api/tasks", protectedJSON(taskHandler.Create))
	mux.Handle("GET /api/tasks", protected(taskHandler.List))
	mux.Handle("GET /api/tasks/workload", protected(taskHandler.Workload))
	mux.Handle("PATCH /api/tasks/{id}", protectedJSON(taskHandler.Update))
	mux.Handle("DELETE /api/tasks/{id}", protected(taskHandler.Delete))

	mux.Handle("POST /api/projects", protectedJSON(projectHandler.Create))
	mux.Handle("GET /api/projects", protected(projectHandler.List))
	mux.Handle("POST /api/projects/{projectId}/members", protectedJSON(projectHandler.AddMember))

	mux.Handle("GET /api/users", protected(userHandler.List))
	mux.Handle("POST /api/users", protectedJSON(userHandler.Create))
	mux.Handle("PATCH /api/users/{id}/status", protectedJSON(userHandler.UpdateStatus))
	mux.Handle("DELETE /api/users/{id}", protected(userHandler.Delete))

	mux.Handle("GET /ws/board", boardFeedHandler)

	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	// CORS middleware honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Outer chain: request ID -> tracing -> metrics -> CORS -> mux
	rootHandler := withRequestID(
		otelhttp.NewHandler(
			metrics.HTTPMetricsMiddleware(handlerWithCORS),
			"orchestrate",
		),
		log,
	)

	// 11. Start retention worker in background
	retentionWorker := worker.NewRetentionWorker(bookingRepo, log, cfg.RetentionInterval, cfg.Retention())
	go retentionWorker.Start(ctx)

	// 12. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Int("rate_limit", cfg.RateLimitRequests),
		slog.Duration("rate_limit_window", cfg.RateLimitWindow),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop retention worker
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

// rawRedis unwraps the client for the health handler, tolerating a nil
// wrapper when redis is not configured.
func rawRedis(c *redis.Client) *goredis.Client {
	if c == nil {
		return nil
	}
	return c.Raw()
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
