package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/akozlov/fintrack-backend/internal/auth"
	"github.com/akozlov/fintrack-backend/internal/config"
	"github.com/akozlov/fintrack-backend/internal/finance"
	"github.com/akozlov/fintrack-backend/internal/middleware"
	"github.com/akozlov/fintrack-backend/internal/store"
	"github.com/akozlov/fintrack-backend/internal/token"
)

// appStore is the full storage surface the handlers need. Both drivers
// implement it.
type appStore interface {
	auth.UserStore
	finance.Store
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx := context.Background()

	// ── Storage ──────────────────────────────────────────────
	var db appStore
	switch cfg.DBDriver {
	case "memory":
		db = store.NewMemoryStore()
	default:
		sqlStore, err := store.OpenSQL(cfg.DBDriver, cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("%s connect: %v", cfg.DBDriver, err)
		}
		if err := sqlStore.Migrate(ctx); err != nil {
			log.Fatalf("%s migrate: %v", cfg.DBDriver, err)
		}
		db = sqlStore
	}
	defer db.Close()

	// ── Tokens ───────────────────────────────────────────────
	tokens := token.New(cfg.JWTSecret, cfg.TokenTTL)

	// ── Redis (optional, token revocation) ───────────────────
	var revoked *auth.RevocationList
	var revocations middleware.RevocationChecker
	if cfg.RedisAddr != "" {
		rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("redis connect: %v", err)
		}
		defer rdb.Close()
		revoked = auth.NewRevocationList(rdb)
		revocations = revoked
	}

	// ── Handlers ─────────────────────────────────────────────
	authHandler := auth.NewHandler(db, tokens, revoked, cfg.BcryptCost)
	financeHandler := finance.NewHandler(db)
	requireAuth := middleware.RequireAuth(tokens, revocations)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes (register/login public, logout/me behind the guard)
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.With(requireAuth).Post("/logout", authHandler.Logout)
		r.With(requireAuth).Get("/me", authHandler.Me)
	})

	// Resource routes (protected)
	r.Route("/api/transactions", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", financeHandler.ListTransactions)
		r.Post("/", financeHandler.CreateTransaction)
		r.Post("/bulk", financeHandler.CreateTransactionsBulk)
		r.Delete("/bulk", financeHandler.DeleteTransactionsBulk)
		r.Get("/{id}", financeHandler.GetTransaction)
		r.Put("/{id}", financeHandler.UpdateTransaction)
		r.Delete("/{id}", financeHandler.DeleteTransaction)
	})
	r.Route("/api/categories", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", financeHandler.ListCategories)
		r.Post("/", financeHandler.CreateCategory)
		r.Put("/{id}", financeHandler.UpdateCategory)
		r.Delete("/{id}", financeHandler.DeleteCategory)
	})
	r.Route("/api/wallets", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", financeHandler.ListWallets)
		r.Post("/", financeHandler.CreateWallet)
		r.Put("/{id}", financeHandler.UpdateWallet)
		r.Delete("/{id}", financeHandler.DeleteWallet)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("Backend listening on :%s (driver=%s)", cfg.Port, cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
