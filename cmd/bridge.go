package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/lotnotify/lotbridge/internal/monitoring"
	"github.com/lotnotify/lotbridge/internal/pipeline"
	"github.com/lotnotify/lotbridge/internal/profile"
	"github.com/lotnotify/lotbridge/internal/store"
	"github.com/lotnotify/lotbridge/pkg/resolver"
	"github.com/lotnotify/lotbridge/pkg/telegram"
	"github.com/lotnotify/lotbridge/pkg/valuation"
)

// bridge bundles the long-lived components shared by serve and replay.
type bridge struct {
	store     store.Store
	profiles  *profile.Manager
	metrics   *monitoring.Metrics
	pipeline  *pipeline.Pipeline
	startedAt time.Time
}

func initBridge(ctx context.Context) (*bridge, error) {
	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	profiles, err := profile.Load(cfg.Profile.Path)
	if err != nil {
		st.Close()
		return nil, eris.Wrap(err, "load profiles")
	}

	var res resolver.Client
	if cfg.Resolver.URL != "" {
		res = resolver.NewClient(cfg.Resolver.URL, cfg.Resolver.Timeout())
	}
	var val valuation.Client
	if cfg.Valuation.URL != "" {
		val = valuation.NewClient(cfg.Valuation.URL, cfg.Valuation.Timeout())
	}

	tg := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID,
		telegram.WithBaseURL(cfg.Telegram.BaseURL),
		telegram.WithRateLimit(cfg.Telegram.RatePerSecond, cfg.Telegram.Burst),
	)

	metrics := monitoring.New()

	return &bridge{
		store:     st,
		profiles:  profiles,
		metrics:   metrics,
		pipeline:  pipeline.New(cfg, st, res, val, tg, profiles, metrics),
		startedAt: time.Now().UTC(),
	}, nil
}

func (b *bridge) Close() {
	_ = b.store.Close()
}
