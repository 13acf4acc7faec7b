package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/H-H-E/vercelchat/internal/config"
	"github.com/H-H-E/vercelchat/internal/database"
	"github.com/H-H-E/vercelchat/internal/handlers"
	"github.com/H-H-E/vercelchat/internal/middleware"
	"github.com/H-H-E/vercelchat/internal/models"
	"github.com/H-H-E/vercelchat/internal/repository"
	"github.com/H-H-E/vercelchat/internal/router"
	"github.com/H-H-E/vercelchat/internal/services"
)

func main() {
	log.Println("🚀 Starting chat assistant backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis ────
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClient.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	promptRepo := repository.NewPromptRepo(pool)
	messageRepo := repository.NewMessageRepo(pool)
	settingsRepo := repository.NewSettingsRepo(pool)

	// ──── Initialize Services ────
	settingsService := services.NewSettingsService(settingsRepo)
	loadCtx, loadCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = settingsService.Load(loadCtx, models.AppSettings{
		OpenAIAPIKey:     cfg.OpenAIAPIKey,
		DefaultChatModel: cfg.DefaultChatModel,
		AIName:           cfg.AIName,
		AIDescription:    cfg.AIDescription,
		ShowArtifacts:    true,
	})
	loadCancel()
	if err != nil {
		log.Fatalf("✗ Settings load failed: %v", err)
	}
	log.Println("✓ Application settings loaded")

	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	authService := services.NewAuthService(userRepo, redisClient, jwtAuth)
	userService := services.NewUserService(userRepo)
	promptService := services.NewPromptService(promptRepo, settingsService)
	openaiClient := services.NewOpenAIClient(cfg.OpenAIBaseURL, nil)
	upstreamTimeout := time.Duration(cfg.ChatUpstreamTimeoutSeconds) * time.Second

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	promptHandler := handlers.NewPromptHandler(promptService)
	userHandler := handlers.NewUserHandler(userService)
	chatHandler := handlers.NewChatHandler(messageRepo, promptService, settingsService, openaiClient, upstreamTimeout)

	// ──── Step 5: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		settingsHandler,
		promptHandler,
		userHandler,
		chatHandler,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout must exceed the chat upstream timeout or streams
		// get cut off mid-relay
		WriteTimeout: upstreamTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
