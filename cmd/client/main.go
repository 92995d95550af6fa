// Package main runs the interactive FoodsAI shell directly on the local
// database. It shares the server's configuration.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/atinyakov/foodsai/internal/client/remote"
	"github.com/atinyakov/foodsai/internal/client/shell"
	"github.com/atinyakov/foodsai/internal/config"
	"github.com/atinyakov/foodsai/internal/db"
	"github.com/atinyakov/foodsai/internal/logger"
	"github.com/atinyakov/foodsai/internal/repository"
	"github.com/atinyakov/foodsai/internal/service"
	"github.com/atinyakov/foodsai/internal/session"
)

var (
	version   string
	buildDate string
)

func main() {
	options := config.Parse()
	fmt.Printf("FoodsAI shell %s (%s)\n", cmpOr(version, "N/A"), cmpOr(buildDate, "N/A"))

	// Keep the terminal clean: only warnings and errors are logged.
	lg := logger.New()
	if err := lg.Init("warn"); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	conn, err := db.InitSQLite(options.DatabasePath)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()
	store := repository.NewStore(conn)

	var (
		sync   service.RemoteSync
		tokens session.TokenSink
		auth   session.AuthClient
	)
	if options.APIBaseURL != "" {
		httpClient, err := remote.NewHTTPClient(options.CAFile)
		if err != nil {
			log.Fatal(err)
		}
		client := remote.New(options.APIBaseURL, httpClient, lg.Log)
		sync, tokens, auth = client, client, client
	}

	svc := service.NewDatabaseService(store, sync, lg.Log)
	manager := session.NewManager(store, svc, tokens, options.Locale, lg.Log,
		session.EmailCodeStrategy{Client: auth})
	svc.SetSessionProvider(manager)

	st, err := manager.Restore(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if st.State == session.Uninitialized {
		fmt.Println("No session yet. Type 'guest' to start in guest mode or 'login <email>'.")
	}
	if m, err := manager.ResumeMigration(ctx); err != nil {
		lg.Log.Warn("pending migration not resumed", zap.Error(err))
	} else if m != nil {
		fmt.Printf("Migration %s %s\n", m.ID, m.Status)
	}

	shell.New(svc, manager, os.Stdin, os.Stdout).Run(ctx)
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
