package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"ridesg/internal/auth"
	"ridesg/internal/cities"
	"ridesg/internal/config"
	"ridesg/internal/geocode"
	"ridesg/internal/handler"
	"ridesg/internal/middleware"
	"ridesg/internal/repository/postgres"
	"ridesg/internal/service/search"

	answerapi "ridesg/internal/answer"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to setup log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"default_city", cfg.DefaultCity,
	)

	// Create JWT verifier for Supabase authentication
	jwtVerifier, err := auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Load city profiles
	cityRegistry, err := cities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load city registry: %v", err)
	}
	logger.Info("city registry loaded", "cities", cityRegistry.IDs())

	// Landmark cache. The cache is optional: without a database URL the
	// cache branch of every search degrades to an empty set.
	var cacheStore search.CacheStore
	if cfg.SupabaseDBURL != "" {
		ctx := context.Background()
		pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		logger.Info("database connected")

		cacheStore = postgres.NewLandmarkRepository(&postgres.RepositoryConfig{
			Pool:   pool,
			Tables: postgres.NewTableNames(cfg.TablePrefix),
			Logger: logger,
		})
	}

	// External clients
	rps, err := strconv.Atoi(cfg.MapboxRPS)
	if err != nil {
		rps = 5
	}
	geocoder := geocode.NewClient(cfg.MapboxToken, cfg.MapboxBaseURL, rps, logger)
	answerClient := answerapi.NewClient(cfg.ExaAPIKey, cfg.ExaBaseURL, logger)

	// Search services
	state := search.NewTracker()
	cacheClient := search.NewCacheClient(cacheStore, logger)
	semantic := search.NewSemanticSearcher(answerClient, geocoder, state, logger)
	orchestrator := search.NewOrchestrator(cacheClient, semantic, cityRegistry, state, cfg.PersistFresh, logger)

	// Handlers
	searchHandler := handler.NewSearchHandler(orchestrator, logger)
	landmarkHandler := handler.NewLandmarkHandler(cacheClient, geocoder, cityRegistry, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", searchHandler.HealthCheck)

	// Search routes
	mux.HandleFunc("POST /api/search", searchHandler.Search)
	mux.HandleFunc("GET /api/search/selection", searchHandler.GetSelection)
	mux.HandleFunc("PUT /api/search/selection", searchHandler.SetSelection)

	// Landmark routes
	mux.HandleFunc("POST /api/landmarks", landmarkHandler.CreateLandmark)
	mux.HandleFunc("GET /api/landmarks/refresh", landmarkHandler.RefreshLandmark)

	// Build middleware chain
	var httpHandler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS -> Recovery -> Auth -> Routes
	httpHandler = middleware.AuthMiddleware(jwtVerifier)(httpHandler)
	httpHandler = middleware.Recovery(logger)(httpHandler)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
