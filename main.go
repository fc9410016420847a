package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"prompt-guess-system/handlers"
	"prompt-guess-system/middleware"
	"prompt-guess-system/models"
	"prompt-guess-system/services"
	"prompt-guess-system/utils"
	"prompt-guess-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Emission defaults, overridable through INITIAL_REWARD / HALVING_THRESHOLD.
const (
	defaultInitialReward    = 10_000
	defaultHalvingThreshold = 10_000_000_000
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 25 * 1024 * 1024, // 25MB — challenge images only
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Wallet-ID, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.EmissionState{},
		&models.UserAccount{},
		&models.Challenge{},
		&models.Guess{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	embedder, err := services.NewOpenAIEmbedder()
	if err != nil {
		log.Printf("⚠️  Embedding provider disabled: %v — semantic scoring unavailable", err)
		embedder = nil
	}

	ledgerService := services.NewLedgerService(db)
	decider := services.NewDecider(loadThresholds())
	guessService := services.NewGuessService(db, ledgerService, decider, embedderOrNil(embedder))
	guessService.FallbackToLexical = os.Getenv("EMBEDDING_FALLBACK_LEXICAL") == "true"
	challengeService := services.NewChallengeService(db, embedderOrNil(embedder))

	// First boot initializes the emission schedule; later boots see the
	// existing row and move on.
	authority := os.Getenv("GAME_AUTHORITY_WALLET")
	if authority == "" {
		log.Fatal("GAME_AUTHORITY_WALLET environment variable not set")
	}
	if _, err := ledgerService.Initialize(authority, envUint("INITIAL_REWARD", defaultInitialReward),
		envUint("HALVING_THRESHOLD", defaultHalvingThreshold)); err != nil {
		if !errors.Is(err, services.ErrAlreadyInitialized) {
			log.Fatal("failed to initialize ledger:", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auditor := workers.NewLedgerAuditor(db, ledgerService)
	go workers.PollAudit(ctx, auditor, 5*time.Minute)

	challengeService.StartPublishScheduler()

	handlers.SetupGuessRoutes(app, guessService)
	handlers.SetupChallengeRoutes(app, challengeService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Ledger audit worker running (every 5m)")
	log.Println("✅ Challenge publish scheduler running")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}

func loadThresholds() services.Thresholds {
	t := services.DefaultThresholds()
	if v := os.Getenv("LEXICAL_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			t.Lexical = f
		}
	}
	if v := os.Getenv("SEMANTIC_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			t.Semantic = f
		}
	}
	return t
}

func envUint(key string, fallback uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil && n > 0 {
			return n
		}
		log.Printf("⚠️  Invalid %s=%q, using default %d", key, os.Getenv(key), fallback)
	}
	return fallback
}

// embedderOrNil keeps a typed-nil *OpenAIEmbedder out of the interface.
func embedderOrNil(e *services.OpenAIEmbedder) services.EmbeddingProvider {
	if e == nil {
		return nil
	}
	return e
}
