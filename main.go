package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"battle-room-system/config"
	"battle-room-system/handlers"
	"battle-room-system/middleware"
	"battle-room-system/models"
	"battle-room-system/repository"
	"battle-room-system/services"
	"battle-room-system/utils"
	"battle-room-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration:", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		matchRepo   repository.MatchRepository
		decks       services.DeckProvider
		progression *services.ProgressionService
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Println("⚠️  MATCH_STORE=memory: matches live in process memory; deck checks and progression are off")
		matchRepo = repository.NewMemoryMatchRepository()
	default:
		// One pool for the whole process; repositories borrow connections per call.
		db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
		if err != nil {
			log.Fatal("failed to connect to database:", err)
		}
		if err := db.AutoMigrate(
			&models.Match{},
			&models.Deck{},
			&models.DeckCard{},
			&models.UserProgress{},
		); err != nil {
			log.Fatal("failed to migrate database:", err)
		}
		matchRepo = repository.NewGormMatchRepository(db)
		decks = repository.NewGormDeckRepository(db)
		progression = services.NewProgressionService(db)
	}

	var archiver services.MatchArchiver
	if cfg.ArchiveEnabled() {
		r2, err := utils.NewR2Archiver(ctx, utils.R2Config{
			AccountID:       cfg.CloudflareAccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			Bucket:          cfg.R2BucketName,
			CDNBaseURL:      cfg.CDNBaseURL,
		})
		if err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		archiver = r2
	}

	matchService := services.NewMatchService(matchRepo, decks, archiver, services.MatchServiceConfig{
		SecretHashCost: cfg.SecretHashCost,
		MinDeckSize:    cfg.MinDeckSize,
		ListPageSize:   cfg.ListPageSize,
	})
	if progression != nil {
		matchService.Progress = progression
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 64 * 1024,
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed, no exceptions
	app.Use(middleware.GatewayAuthMiddleware(cfg.GameServiceToken))

	allowedOrigins := strings.Join(cfg.AllowedOrigins, ",")
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, Cache-Control, X-Session-Token, X-User-ID",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	verifier := middleware.NewSessionVerifier(cfg.SessionJWTSecret)
	if verifier == nil {
		log.Println("⚠️  SESSION_JWT_SECRET not set, only gateway X-User-ID identities are accepted")
	}

	// Public routes first: the secured group applies to everything registered after it.
	handlers.SetupRarityRoutes(app)
	handlers.SetupMatchRoutes(app, handlers.NewMatchHandler(matchService, cfg.EventPollInterval), verifier)
	if progression != nil {
		handlers.SetupProgressionRoutes(app, progression, verifier)
	}

	var reaper *workers.StaleMatchReaper
	if cfg.ReaperEnabled() {
		reaper = workers.NewStaleMatchReaper(matchService, cfg.ReaperInterval, cfg.ReaperStaleAfter)
		if err := reaper.Start(ctx); err != nil {
			log.Fatal("failed to start stale match reaper:", err)
		}
	}

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Printf("Server error: %v", err)
			stop()
		}
	}()

	log.Printf("✅ Server running on %s (store: %s)", cfg.ListenAddr, cfg.StoreDriver)
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOrigins)
	if archiver != nil {
		log.Printf("✅ Finished matches archived to R2 bucket %s", cfg.R2BucketName)
	}

	<-ctx.Done()
	log.Println("Shutting down server...")

	if reaper != nil {
		reaper.Stop()
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
