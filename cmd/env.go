package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/homematch/internal/extract"
	"github.com/sells-group/homematch/internal/llm"
	"github.com/sells-group/homematch/internal/notify"
	"github.com/sells-group/homematch/internal/pipeline"
	"github.com/sells-group/homematch/internal/rank"
	"github.com/sells-group/homematch/internal/review"
	"github.com/sells-group/homematch/internal/search"
	"github.com/sells-group/homematch/internal/store"
	anthropicpkg "github.com/sells-group/homematch/pkg/anthropic"
	"github.com/sells-group/homematch/pkg/nominatim"
	"github.com/sells-group/homematch/pkg/resend"
	"github.com/sells-group/homematch/pkg/twilio"
)

// matchEnv holds the initialized store and services shared by the run, serve,
// and import commands.
type matchEnv struct {
	Store    store.Store
	Pipeline *pipeline.Service
	Review   *review.Service
	Notify   *notify.Service
}

// Close releases resources held by the environment.
func (e *matchEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv sets up the store, the API clients, and every pipeline service.
// Callers should defer env.Close().
func initEnv(ctx context.Context) (*matchEnv, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic key is required (HOMEMATCH_ANTHROPIC_KEY)")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	for model, p := range cfg.Pricing.Anthropic {
		anthropicpkg.SetModelPricing(model, p.Input, p.Output)
	}

	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
	extractProvider := llm.NewClaude(anthropicClient, cfg.Anthropic, cfg.Anthropic.ExtractModel, "extraction")
	rankProvider := llm.NewClaude(anthropicClient, cfg.Anthropic, cfg.Anthropic.RankModel, "ranking")

	geocoder := nominatim.NewClient(
		nominatim.WithBaseURL(cfg.Nominatim.BaseURL),
		nominatim.WithUserAgent(cfg.Nominatim.UserAgent),
	)

	sources := search.BuildSources(search.Deps{Config: cfg, Geocoder: geocoder})
	if len(sources) == 0 {
		zap.L().Warn("no listing sources available, search will fall back to fixtures")
	}

	extractor := extract.NewService(st, extractProvider)
	aggregator := search.NewAggregator(sources, st, cfg.Search)
	ranker := rank.NewRanker(rankProvider, st, cfg.Ranking)

	// Notification channels are optional. A missing key disables the channel
	// rather than blocking startup.
	var mailer notify.Mailer
	if cfg.Resend.Key != "" {
		m, err := resend.NewClient(cfg.Resend.Key, resend.WithBaseURL(cfg.Resend.BaseURL))
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		mailer = m
	} else {
		zap.L().Warn("resend not configured, email channel disabled")
	}

	var messenger notify.Messenger
	if cfg.Twilio.AccountSID != "" {
		m, err := twilio.NewClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		messenger = m
	} else {
		zap.L().Warn("twilio not configured, whatsapp channel disabled")
	}

	return &matchEnv{
		Store:    st,
		Pipeline: pipeline.NewService(st, extractor, aggregator, ranker),
		Review:   review.NewService(st),
		Notify:   notify.NewService(st, mailer, messenger, cfg.Resend),
	}, nil
}
