package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	_ "gatehouse/docs" // swagger docs

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"gatehouse/internal/auth"
	"gatehouse/internal/cache"
	"gatehouse/internal/config"
	"gatehouse/internal/db"
	"gatehouse/internal/handler"
	"gatehouse/internal/model"
	"gatehouse/internal/repository"
	"gatehouse/internal/router"
	"gatehouse/internal/service"
)

// @title Gatehouse API
// @version 1.0
// @description Session-based authentication service: signup, login, logout, and session-gated identity endpoints.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(echomw.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Drop tables if RESET_DB environment variable is set
	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, dropping all tables...")
		tables := []interface{}{
			&model.Session{},
			&model.User{},
		}
		for _, table := range tables {
			if err := gormDB.Migrator().DropTable(table); err != nil {
				log.Printf("Warning: Failed to drop table (may not exist): %v", err)
			}
		}
		log.Println("Tables dropped")
	}

	// Run migrations for all models
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Session{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	sessionRepo := repository.NewSessionRepository(gormDB)

	// Initialize auth components
	hasher := auth.NewBcryptHasher()
	sessionCache := auth.NewSessionCache(cacheClient)

	// Initialize service and handler
	authService := service.NewAuthService(userRepo, sessionRepo, hasher, sessionCache, cfg.SessionTTLDays)
	authHandler := handler.NewAuthHandler(authService, cfg)

	// Register routes
	router.Register(e, authService, authHandler)

	// Periodically sweep expired session rows. Validity never depends on
	// this; FindWithUser filters on expiry regardless.
	if cfg.CleanupInterval > 0 {
		go sweepExpiredSessions(sessionRepo, cfg.CleanupInterval)
	}

	if cfg.SwaggerHost != "" {
		log.Printf("Swagger documentation available at: %s/swagger/index.html", cfg.SwaggerHost)
	} else {
		log.Printf("Swagger documentation available at: http://localhost:%s/swagger/index.html", cfg.ServerPort)
	}

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}

func sweepExpiredSessions(sessions repository.SessionRepository, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		deleted, err := sessions.DeleteExpired(ctx)
		cancel()
		if err != nil {
			log.Printf("session cleanup: %v", err)
			continue
		}
		if deleted > 0 {
			log.Printf("session cleanup: removed %d expired sessions", deleted)
		}
	}
}
