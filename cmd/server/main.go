package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/medguardian/backend/internal/config"
	"github.com/medguardian/backend/internal/database"
	"github.com/medguardian/backend/internal/handlers"
	"github.com/medguardian/backend/internal/middleware"
	"github.com/medguardian/backend/internal/models"
	"github.com/medguardian/backend/internal/routes"
	"github.com/medguardian/backend/internal/scorer"
	"github.com/medguardian/backend/internal/services"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	// Connect to PostgreSQL. Pool-creation failure is not fatal: every
	// repository call falls back to a direct connection.
	log.Printf("Connecting to PostgreSQL...")
	if err := database.ConnectPostgres(cfg.PostgresDSN(), cfg.DBPoolSize, cfg.DBConnectTimeout); err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer database.DisconnectPostgres()

	if err := database.InitPostgresTables(); err != nil {
		log.Fatal("Failed to initialize tables:", err)
	}
	log.Println("✅ PostgreSQL tables ready")

	// Redis is optional: without it, chat caching and login rate limiting
	// are simply skipped.
	if cfg.RedisURI != "" {
		log.Printf("Connecting to Redis...")
		if err := database.ConnectRedis(cfg.RedisURI); err != nil {
			log.Printf("⚠️  WARNING: Redis unavailable, continuing without cache: %v", err)
		} else {
			log.Println("✅ Redis connected")
		}
		defer database.DisconnectRedis()
	} else {
		log.Println("REDIS_URI not set, running without Redis")
	}

	// Session slot + reconciliation engine for this instance
	sessions := services.NewSessionManager(cfg.SessionTimeout)
	engine := services.NewReconciliationEngine(services.DeleterFunc(services.DeleteReport))
	sessions.OnClear(func(user *models.User) {
		engine.ClearTransient()
		if user != nil {
			services.InvalidateChatCache(user.ID)
		}
	})

	// External capabilities, both optional
	var sc scorer.Scorer
	if cfg.ScorerURL != "" {
		sc = scorer.NewHTTPScorer(cfg.ScorerURL)
		log.Println("✅ Model scoring service configured")
	} else {
		log.Println("⚠️  WARNING: SCORER_URL not set. Predictions will return the zero-risk default.")
	}

	var responder services.Responder = services.RuleResponder{}
	if cfg.GeminiAPIKey != "" {
		responder = services.ChainResponder{
			services.NewGeminiResponder(cfg.GeminiAPIKey, cfg.GeminiAPIURL),
			services.RuleResponder{},
		}
		log.Println("✅ Gemini chatbot configured (rule-based fallback behind it)")
	} else {
		log.Println("GEMINI_API_KEY not set, chatbot uses rule-based replies")
	}

	h := handlers.New(cfg, sessions, engine, sc, responder)

	// Setup router
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.SessionExpiry(sessions))

	// Health check (no auth)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	routes.SetupRoutes(r, h)

	log.Printf("🚀 MedGuardian backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
