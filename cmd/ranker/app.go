package main

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"StockRanker/internal/analysis"
	"StockRanker/internal/cache"
	"StockRanker/internal/collector"
	"StockRanker/internal/config"
	"StockRanker/internal/fred"
	"StockRanker/internal/metrics"
	"StockRanker/internal/model"
	"StockRanker/internal/portfolio"
	"StockRanker/internal/recorder"
	"StockRanker/internal/service"
)

// app holds everything the commands share.
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	svc       *service.Service
	recorder  recorder.Recorder
	metrics   *metrics.Metrics
	portfolio *portfolio.Store
	fred      *fred.Client

	// publish forwards fetch progress to live listeners when set.
	publish collector.ProgressFunc
}

// newApp wires the shared components. reg receives the metrics; nil means
// the default registry served on /metrics.
func newApp(cfg *config.Config, log zerolog.Logger, reg prometheus.Registerer) (*app, error) {
	m := metrics.New(reg)

	col, err := newCollector(cfg, m, log)
	if err != nil {
		return nil, err
	}
	codec, err := cache.CodecFor(cfg.Cache.Format)
	if err != nil {
		return nil, err
	}

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	a := &app{
		cfg:       cfg,
		log:       log,
		recorder:  rec,
		metrics:   m,
		portfolio: portfolio.NewStore(cfg.Portfolio.Path),
	}
	if cfg.Fred.APIKey != "" {
		a.fred = fred.NewClient(cfg.Fred.APIKey, cfg.Proxy, log)
		if cfg.Fred.BaseURL != "" {
			a.fred.BaseURL = cfg.Fred.BaseURL
		}
	}
	a.svc = service.New(service.Deps{
		Collector: col,
		Cache:     cache.New(cfg.Cache.Path, codec, log),
		Engine:    analysis.NewEngine(cfg.Analysis, log),
		Recorder:  rec,
		Metrics:   m,
		Progress:  a.reportProgress,
	}, log)
	return a, nil
}

func (a *app) reportProgress(p model.Progress) error {
	a.log.Debug().Str("symbol", p.Symbol).Int("progress", p.Progress).Msg(model.ProgressEvent)
	if a.publish != nil {
		return a.publish(p)
	}
	return nil
}

func (a *app) Close() error {
	return a.recorder.Close()
}

func retryPolicy(cfg *config.Config, m *metrics.Metrics) collector.RetryPolicy {
	return collector.RetryPolicy{
		MaxRetries: cfg.Retry.MaxRetries,
		Delay:      cfg.Retry.Delay,
		OnRetry:    func(int, error) { m.RecordRetry() },
	}
}

func newCollector(cfg *config.Config, m *metrics.Metrics, log zerolog.Logger) (*collector.Collector, error) {
	ds := cfg.DataSource
	switch ds.Provider {
	case "lse", "yahoo":
		lse := collector.NewLSEClient(cfg.Proxy,
			collector.WithBaseURLs(ds.LSEBaseURL, ds.WidgetsBaseURL),
			collector.WithIndex(ds.Index, ds.Pages),
			collector.WithRateLimit(ds.RateLimit),
			collector.WithRetryPolicy(retryPolicy(cfg, m)),
			collector.WithHTTPClient(collector.NewHTTPClient(cfg.Proxy, ds.Timeout)),
			collector.WithLogger(log),
		)
		if ds.Provider == "lse" {
			return collector.NewCollector(lse, lse, lse, log), nil
		}
		// Yahoo needs no login; the index listing still comes from the LSE.
		yahoo := collector.NewYahooFetcher(cfg.Proxy, log)
		yahoo.Retry = retryPolicy(cfg, m)
		return collector.NewCollector(lse, collector.StaticToken(""), yahoo, log), nil
	case "mock":
		mock := &collector.MockSource{
			Symbols: []model.Symbol{
				{Name: "Mock Alpha plc", Ticker: "MCKA"},
				{Name: "Mock Beta plc", Ticker: "MCKB"},
				{Name: "Mock Gamma Group", Ticker: "MCKG"},
			},
			Days:  2000,
			Start: time.Now().AddDate(0, 0, -2000),
		}
		return collector.NewCollector(mock, mock, mock, log), nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", ds.Provider)
	}
}
