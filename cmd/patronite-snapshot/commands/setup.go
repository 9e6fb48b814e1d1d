package commands

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"patronite-snapshot/internal/chrono"
	"patronite-snapshot/internal/config"
	"patronite-snapshot/internal/db"
	"patronite-snapshot/internal/restyutil"
	"patronite-snapshot/internal/scrapers/patronite"
	"patronite-snapshot/internal/serviceutil"
	"patronite-snapshot/internal/snapshot"
	"patronite-snapshot/internal/telemetry"
)

const serviceName = "patronite-snapshot"

func loadConfig() config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	return cfg
}

// setupTelemetry installs the otel providers, the returned function flushes them.
func setupTelemetry(ctx context.Context, cfg config.Config) func() {
	t, err := telemetry.Setup(ctx, serviceName, cfg.Telemetry)
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := t.Shutdown(ctx)
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	}
}

func newScraper(cfg config.Config, tel telemetry.API) patronite.Scraper {
	var dump restyutil.InstrumentOutput
	if dumpHttp != "" {
		output, err := restyutil.NewFilesystemOutput(dumpHttp)
		if err != nil {
			serviceutil.Fatal("failed to prepare http dump directory", err)
		}
		dump = output
	}

	client, err := patronite.NewClient(cfg.ClientOptions(dump), tel)
	if err != nil {
		serviceutil.Fatal("failed to create client", err)
	}
	return patronite.NewScraper(client, cfg.ScraperOptions(), chrono.NewStandardTime(), tel)
}

func openDB(cfg config.Config) *sql.DB {
	database, err := cfg.Database.OpenDB(db.Schema)
	if err != nil {
		serviceutil.Fatal("failed to open database", err)
	}
	return database
}

func newStore(database *sql.DB, tel telemetry.API) snapshot.Store {
	return snapshot.NewStore(database, chrono.NewStandardTime(), tel)
}
