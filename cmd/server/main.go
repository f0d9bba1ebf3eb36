package main

import (
	"context"
	"log"
	"math/rand"
	"net/http"

	"github.com/namsan/ministry/internal/config"
	"github.com/namsan/ministry/internal/logger"
	"github.com/namsan/ministry/internal/seed"
	"github.com/namsan/ministry/internal/services"
	"github.com/namsan/ministry/internal/store"
	"github.com/namsan/ministry/internal/web"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zlog.Sync()

	ctx := context.Background()
	backend, err := openStore(ctx, cfg)
	if err != nil {
		zlog.Fatal("store init failed", "backend", cfg.StoreBackend, "err", err)
	}

	// Backend unreachable or bad credentials is terminal for the whole
	// session; fail loudly now instead of per-request later.
	if _, err := backend.ListTables(ctx); err != nil {
		zlog.Fatal("store unreachable", "backend", cfg.StoreBackend, "err", err)
	}

	cached := store.NewCached(backend, cfg.CacheTTL)
	dash := services.NewDashboard(cached, zlog)

	r := web.Router(cfg, dash)

	zlog.Info("namsan ministry dashboard listening",
		"addr", cfg.Addr, "backend", cfg.StoreBackend)
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		zlog.Fatal("server stopped", "err", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case "sheets":
		return store.NewSheets(ctx, cfg.SpreadsheetID, cfg.CredentialsFile, cfg.StoreTimeout)
	case "memory":
		mem := store.NewMemory()
		if err := seed.Load(ctx, mem, rand.New(rand.NewSource(1))); err != nil {
			return nil, err
		}
		return mem, nil
	default:
		return store.NewSQLite(cfg.SQLitePath)
	}
}
