package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/codecompass-ai/codecompass/internal/adapter/analysis"
	"github.com/codecompass-ai/codecompass/internal/adapter/github"
	"github.com/codecompass-ai/codecompass/internal/adapter/llm"
	"github.com/codecompass-ai/codecompass/internal/adapter/store"
	"github.com/codecompass-ai/codecompass/internal/handler"
	"github.com/codecompass-ai/codecompass/internal/middleware"
	"github.com/codecompass-ai/codecompass/internal/service"
	"github.com/codecompass-ai/codecompass/pkg/config"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🧭 Starting CodeCompass",
		"port", cfg.Port,
		"model", cfg.OpenRouterModel,
		"redis", cfg.RedisAddr,
	)

	// ── Database ─────────────────────────────────────────────────────────
	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	if err := pgStore.EnsureSchema(context.Background()); err != nil {
		slog.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	// ── Redis ────────────────────────────────────────────────────────────
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	sessionStore := store.NewRedisSessionStore(redisClient, time.Duration(cfg.SessionTTLDays)*24*time.Hour)

	// ── Adapters ─────────────────────────────────────────────────────────
	contentSource := github.NewContentFetcher(cfg.GitHubAPIBaseURL)

	llmClient := llm.NewOpenRouterClient(llm.Config{
		BaseURL:     cfg.OpenRouterBaseURL,
		APIKey:      cfg.OpenRouterAPIKey,
		Model:       cfg.OpenRouterModel,
		Referer:     cfg.OpenRouterReferer,
		Title:       cfg.OpenRouterTitle,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
		MaxAttempts: cfg.LLMMaxAttempts,
		BaseDelay:   time.Duration(cfg.LLMBaseBackoffMS) * time.Millisecond,
	})

	fileAnalyzer := analysis.NewFileAnalyzer(llmClient, cfg.MaxContentChars)
	structureAnalyzer := analysis.NewStructureAnalyzer(llmClient, cfg.MaxContentChars)
	faqSynthesizer := analysis.NewFAQSynthesizer(llmClient)
	fileSelector := analysis.NewFileSelector(llmClient)
	answerGenerator := analysis.NewAnswerGenerator(llmClient)

	// ── Services ─────────────────────────────────────────────────────────
	classifier := service.NewClassifier()
	walker := service.NewWalker(contentSource, classifier, cfg.MaxWalkDepth)

	ingestService := service.NewIngestService(service.IngestConfig{
		Source:    contentSource,
		Walker:    walker,
		Files:     fileAnalyzer,
		Structure: structureAnalyzer,
		FAQ:       faqSynthesizer,
		Snapshots: pgStore,
		Quotas:    pgStore,
		MaxRepos:  cfg.MaxReposPerDay,
		FileDelay: time.Duration(cfg.FileDelayMS) * time.Millisecond,
	})

	chatService := service.NewChatService(service.ChatConfig{
		Snapshots:   pgStore,
		Sessions:    sessionStore,
		Quotas:      pgStore,
		Selector:    fileSelector,
		Generator:   answerGenerator,
		MaxMessages: cfg.MaxMessagesPerDay,
	})

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:     cfg.AppName,
		ReadTimeout: 30 * time.Second,
		// Processing streams stay open for the whole pipeline run.
		WriteTimeout: 30 * time.Minute,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	// Audit middleware (logs all requests)
	app.Use(middleware.AuditMiddleware(pgStore))

	// Health check
	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"app":       cfg.AppName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// ── Protected Routes ─────────────────────────────────────────────────
	jwtMiddleware := middleware.JWTMiddleware(middleware.JWTConfig{
		Secret:    cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
		ExpiresIn: time.Duration(cfg.JWTExpiration) * time.Hour,
	})

	api := app.Group("/api/v1", jwtMiddleware)

	ingestHandler := handler.NewIngestHandler(ingestService)
	ingestHandler.Register(api)

	chatHandler := handler.NewChatHandler(chatService, sessionStore)
	chatHandler.Register(api)

	repoHandler := handler.NewRepoHandler(pgStore, pgStore, cfg.MaxReposPerDay, cfg.MaxMessagesPerDay)
	repoHandler.Register(api)

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
