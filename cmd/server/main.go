package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fitquest/internal/authz"
	"fitquest/internal/config"
	"fitquest/internal/database"
	"fitquest/internal/handlers"
	"fitquest/internal/repository"
	"fitquest/internal/security"
	"fitquest/internal/service"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	profileRepo := repository.NewProfileRepository(db)
	relationshipRepo := repository.NewRelationshipRepository(db)
	exerciseRepo := repository.NewExerciseRepository(db)
	adventureRepo := repository.NewAdventureRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	authRepo := repository.NewAuthRepository(db)

	// Initialize services
	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.EmailDebug)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	evaluator := authz.NewEvaluator(relationshipRepo)
	authService := service.NewAuthService(db, profileRepo, progressRepo, authRepo, emailService, cfg.SessionDuration)
	familyService := service.NewFamilyService(db, profileRepo, relationshipRepo, progressRepo, evaluator)
	catalogService := service.NewCatalogService(exerciseRepo, sessionRepo)
	adventureService := service.NewAdventureService(db, adventureRepo, exerciseRepo)
	progressService := service.NewProgressService(db, profileRepo, relationshipRepo, exerciseRepo, adventureRepo, sessionRepo, progressRepo, catalogService, evaluator, emailService)

	oauthProvider := &handlers.OAuthProvider{
		Config: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
	}

	// Initialize handlers
	middleware := handlers.NewMiddleware(authService)
	authHandler := handlers.NewAuthHandler(authService, oauthProvider, cfg.AppBaseURL)
	familyHandler := handlers.NewFamilyHandler(familyService)
	catalogHandler := handlers.NewCatalogHandler(catalogService, adventureService, familyService)
	progressHandler := handlers.NewProgressHandler(progressService)

	// Login and reset endpoints get a per-IP rate limit
	loginLimiter := security.NewRateLimiter(10, time.Minute)

	// Setup routes
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /auth/register", handlers.RateLimit(loginLimiter, authHandler.Register))
	mux.HandleFunc("POST /auth/login", handlers.RateLimit(loginLimiter, authHandler.Login))
	mux.HandleFunc("POST /auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /auth/google/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /auth/google/callback", authHandler.OAuthCallback)
	mux.HandleFunc("POST /auth/password-reset/request", handlers.RateLimit(loginLimiter, authHandler.RequestPasswordReset))
	mux.HandleFunc("POST /auth/password-reset/confirm", handlers.RateLimit(loginLimiter, authHandler.ConfirmPasswordReset))

	// Family routes
	mux.HandleFunc("POST /api/children", middleware.RequireAuth(familyHandler.CreateChild))
	mux.HandleFunc("GET /api/children", middleware.RequireAuth(familyHandler.ListChildren))
	mux.HandleFunc("GET /api/profiles/{id}", middleware.RequireAuth(familyHandler.GetProfile))
	mux.HandleFunc("PUT /api/profiles/{id}/privacy", middleware.RequireAuth(familyHandler.UpdatePrivacy))
	mux.HandleFunc("POST /api/relationships", middleware.RequireAuth(familyHandler.CreateRelationship))
	mux.HandleFunc("DELETE /api/relationships/{id}", middleware.RequireAuth(familyHandler.DeactivateRelationship))

	// Exercise catalog routes
	mux.HandleFunc("POST /api/exercises", middleware.RequireAuth(catalogHandler.CreateExercise))
	mux.HandleFunc("GET /api/exercises", middleware.RequireAuth(catalogHandler.ListExercises))
	mux.HandleFunc("GET /api/exercises/{id}", middleware.RequireAuth(catalogHandler.GetExercise))
	mux.HandleFunc("POST /api/exercises/{id}/prerequisites", middleware.RequireAuth(catalogHandler.AddPrerequisite))
	mux.HandleFunc("GET /api/profiles/{id}/exercises/{exerciseID}/unlocked", middleware.RequireAuth(catalogHandler.GetUnlockState))

	// Adventure path routes
	mux.HandleFunc("POST /api/paths", middleware.RequireAuth(catalogHandler.CreatePath))
	mux.HandleFunc("GET /api/paths", middleware.RequireAuth(catalogHandler.ListPaths))
	mux.HandleFunc("GET /api/paths/{id}", middleware.RequireAuth(catalogHandler.GetPath))
	mux.HandleFunc("POST /api/paths/{id}/exercises", middleware.RequireAuth(catalogHandler.AddPathExercise))
	mux.HandleFunc("DELETE /api/paths/{id}/exercises/{exerciseID}", middleware.RequireAuth(catalogHandler.RemovePathExercise))

	// Session and progress routes
	mux.HandleFunc("POST /api/sessions", middleware.RequireAuth(progressHandler.CompleteSession))
	mux.HandleFunc("GET /api/profiles/{id}/sessions", middleware.RequireAuth(progressHandler.ListSessions))
	mux.HandleFunc("GET /api/profiles/{id}/progress", middleware.RequireAuth(progressHandler.GetAggregate))
	mux.HandleFunc("GET /api/profiles/{id}/paths", middleware.RequireAuth(progressHandler.ListPathProgress))
	mux.HandleFunc("GET /api/profiles/{id}/paths/{pathID}", middleware.RequireAuth(progressHandler.GetPathProgress))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background session cleanup
	go cleanupExpiredSessions(authRepo)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// cleanupExpiredSessions periodically removes expired login sessions
func cleanupExpiredSessions(authRepo *repository.AuthRepository) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := authRepo.DeleteExpiredSessions(); err != nil {
			log.Printf("Error cleaning up expired sessions: %v", err)
		} else {
			log.Println("Expired login sessions cleaned up")
		}
	}
}
