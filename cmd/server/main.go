// Package main starts the local FoodsAI store: it opens the SQLite database,
// restores the session, runs background backups and serves the JSON API on
// the configured local address.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/foodsai/internal/client/remote"
	"github.com/atinyakov/foodsai/internal/config"
	"github.com/atinyakov/foodsai/internal/db"
	"github.com/atinyakov/foodsai/internal/logger"
	"github.com/atinyakov/foodsai/internal/repository"
	"github.com/atinyakov/foodsai/internal/server/handler/http"
	"github.com/atinyakov/foodsai/internal/service"
	"github.com/atinyakov/foodsai/internal/session"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// oauthProviders are offered when a remote backend is configured.
var oauthProviders = []string{"google", "apple"}

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmpOr(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmpOr(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqliteDB, err := db.InitSQLite(options.DatabasePath)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer sqliteDB.Close()
	store := repository.NewStore(sqliteDB)

	// The account backend is optional; without it the store runs guest-only.
	var (
		sync   service.RemoteSync
		tokens session.TokenSink
		auth   session.AuthClient
	)
	if options.APIBaseURL != "" {
		httpClient, err := remote.NewHTTPClient(options.CAFile)
		if err != nil {
			zapLogger.Fatal("cannot init remote client", zap.Error(err))
		}
		client := remote.New(options.APIBaseURL, httpClient, zapLogger.Named("remote"))
		sync, tokens, auth = client, client, client
	} else {
		zapLogger.Info("no api base url configured, running offline")
	}

	svc := service.NewDatabaseService(store, sync, zapLogger.Named("service"))

	strategies := []session.Strategy{
		session.EmailCodeStrategy{Client: auth},
		session.TokenExchangeStrategy{Client: auth},
	}
	for _, p := range oauthProviders {
		strategies = append(strategies, session.OAuthStrategy{
			Client:      auth,
			Provider:    p,
			RedirectURL: "http://" + options.Address + "/oauth/callback",
		})
	}
	manager := session.NewManager(store, svc, tokens, options.Locale, zapLogger.Named("session"), strategies...)
	svc.SetSessionProvider(manager)

	st, err := manager.Restore(ctx)
	if err != nil {
		zapLogger.Fatal("cannot restore session", zap.Error(err))
	}
	if m, err := manager.ResumeMigration(ctx); err != nil {
		zapLogger.Warn("pending migration not resumed", zap.Error(err))
	} else if m != nil {
		zapLogger.Info("pending migration resumed", zap.String("migration", m.ID), zap.String("status", string(m.Status)))
	}
	zapLogger.Info("session ready", zap.String("state", string(st.State)))

	interval := time.Duration(options.BackupInterval)
	db.StartBackupPruner(ctx, sqliteDB, interval, time.Duration(options.BackupRetention), zapLogger)
	svc.StartAutoBackup(ctx, interval)

	router := http.NewRouter(http.Handlers{
		Inventory:  &http.InventoryHandler{Service: svc},
		Categories: &http.CategoryHandler{Service: svc, Locale: options.Locale},
		Recipes:    &http.RecipeHandler{Service: svc},
		History:    &http.HistoryHandler{Service: svc},
		Icons:      &http.IconHandler{Service: svc},
		Data:       &http.DataHandler{Service: svc, Sessions: manager},
		Session:    &http.SessionHandler{Sessions: manager, Migrations: svc},
	}, manager, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Address))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}

// cmpOr mirrors cmp.Or (Go 1.22+) for the Go 1.21 toolchain: it returns the
// first argument that is not the zero value.
func cmpOr[T comparable](vals ...T) T {
	var zero T
	for _, v := range vals {
		if v != zero {
			return v
		}
	}
	return zero
}
