package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/plotwise/plotwise/pkg/cache"
	"github.com/plotwise/plotwise/pkg/cache/memory"
	"github.com/plotwise/plotwise/pkg/config"
	"github.com/plotwise/plotwise/pkg/gateway"
	"github.com/plotwise/plotwise/pkg/gemini"
	"github.com/plotwise/plotwise/pkg/listings"
	"github.com/plotwise/plotwise/pkg/models"
	"github.com/plotwise/plotwise/pkg/router"
	"github.com/plotwise/plotwise/pkg/service"
	"github.com/plotwise/plotwise/pkg/tracker"
)

// app is the wired dependency graph shared by the commands.
type app struct {
	cfg     *config.Config
	catalog *listings.Catalog
	svc     *service.Service
	ledger  tracker.Tracker
}

func openApp(opts *rootOptions) (*app, error) {
	cfg, err := config.LoadOrDefault(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	setupLogging(cfg.Log, opts.debug)

	catalog, err := listings.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	client := gemini.NewClient(cfg.Backend.URL, cfg.Backend.APIKey, gemini.WithTimeout(cfg.Backend.Timeout))
	gw := gateway.New(client, router.New(cfg))

	var store cache.Store
	if cfg.Cache.Enabled {
		store = memory.New()
	}

	var svcOpts []service.Option
	if cfg.Cache.Coalesce {
		svcOpts = append(svcOpts, service.WithCoalescing())
	}

	a := &app{cfg: cfg, catalog: catalog}
	if cfg.Ledger.Enabled {
		tr, err := tracker.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("init ledger: %w", err)
		}
		a.ledger = tr
		svcOpts = append(svcOpts, service.WithTracker(tr))
	}
	a.svc = service.New(gw, store, svcOpts...)

	if !client.HasCredential() {
		log.Warn().Strs("env", config.CredentialEnv).Msg("no inference credential configured; serving fallbacks")
	}
	return a, nil
}

func (a *app) listing(id string) (models.Listing, error) {
	return a.catalog.Get(id)
}

func (a *app) Close() error {
	if a.ledger == nil {
		return nil
	}
	return a.ledger.Close()
}
