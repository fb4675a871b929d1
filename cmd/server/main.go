package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"

	"github.com/transactio/transact/internal/database"
	"github.com/transactio/transact/internal/handlers"
	mw "github.com/transactio/transact/internal/middleware"
	"github.com/transactio/transact/internal/services"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.BindEnv("database.host", "TRANSACT_DB_HOST")
	viper.BindEnv("database.port", "TRANSACT_DB_PORT")
	viper.BindEnv("database.user", "TRANSACT_DB_USER")
	viper.BindEnv("database.password", "TRANSACT_DB_PASS")
	viper.BindEnv("database.name", "TRANSACT_DB_NAME")
	viper.BindEnv("database.ssl_mode", "TRANSACT_DB_SSL_MODE")
	viper.BindEnv("server.port", "TRANSACT_PORT")

	if err := viper.ReadInConfig(); err != nil {
		slog.Info("config file not found, using defaults and environment", "error", err)
	}

	db, err := database.Open(database.GetConfig())
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store := services.NewLedgerStore(db)
	ledgerService := services.NewLedgerService(db, store)
	historyService := services.NewHistoryService(store)
	accountService := services.NewAccountService(store)

	accountHandler := handlers.NewAccountHandler(accountService)
	ledgerHandler := handlers.NewLedgerHandler(db, ledgerService, historyService)

	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(mw.RequestLogger(logger))
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/account", accountHandler.CreateAccount)
		r.Get("/account/{accountId}", accountHandler.GetAccount)
		r.Get("/account/{accountId}/history", ledgerHandler.AccountHistory)

		r.Get("/user/{userId}/accounts", accountHandler.ListAccounts)
		r.Get("/user/{userId}/history", ledgerHandler.OwnerHistory)

		r.Post("/deposit", ledgerHandler.Deposit)
		r.Post("/transfer", ledgerHandler.Transfer)
		r.Post("/transfer/user", ledgerHandler.TransferByUser)

		r.Get("/stats", ledgerHandler.Stats)
	})

	viper.SetDefault("server.port", "8080")
	port := viper.GetString("server.port")

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
