package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"thirdcoast.systems/h5video/cmd/web/internal/web"
	"thirdcoast.systems/h5video/internal/application"
	"thirdcoast.systems/h5video/internal/config"
	"thirdcoast.systems/h5video/internal/db"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting web service")

	conf, err := config.LoadConfig(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("configuration loaded", "config", *conf)

	opts := web.Options{PersistLinks: conf.PersistLinks}

	// The database is optional: it backs the postgres file repository and
	// link persistence.
	var dbx db.DBTX
	if conf.DatabaseDSN != "" {
		pool, err := application.OpenDBPoolWithRetry(ctx, *conf)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		dbc, err := db.NewDatabaseConnection(ctx, pool)
		if err != nil {
			slog.Error("failed to create database connection", "error", err)
			os.Exit(1)
		}
		defer dbc.Close()

		dbx = dbc
		opts.DB = dbc
	}

	opts.Files, err = application.NewFiles(ctx, *conf, afero.NewOsFs(), dbx)
	if err != nil {
		slog.Error("failed to create file repository", "error", err)
		os.Exit(1)
	}

	opts.Catalog, err = application.NewCatalog(*conf)
	if err != nil {
		slog.Error("failed to load messages", "error", err)
		os.Exit(1)
	}

	e, err := web.NewWebserver(ctx, opts)
	if err != nil {
		slog.Error("failed to create webserver", "error", err)
		os.Exit(1)
	}

	addr := ":" + strconv.Itoa(conf.WebServerPort)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	slog.Info("Listening", "addr", addr)
	if err := e.Start(addr); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		// Echo returns an error on Shutdown; treat it as normal if context is done.
		if ctx.Err() != nil {
			return
		}
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
