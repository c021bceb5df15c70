// Package service is the invocation surface shared by the CLI, the HTTP
// server and the scheduler.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"StockRanker/internal/analysis"
	"StockRanker/internal/cache"
	"StockRanker/internal/collector"
	"StockRanker/internal/metrics"
	"StockRanker/internal/model"
	"StockRanker/internal/recorder"
)

// Deps are the collaborators of a Service. Recorder and Metrics may be nil.
type Deps struct {
	Collector *collector.Collector
	Cache     *cache.HistoryCache
	Engine    *analysis.Engine
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
	// Progress overrides the collector's progress callback.
	Progress collector.ProgressFunc
}

// Service runs analyses one at a time; the cache has a single writer.
type Service struct {
	deps Deps
	log  zerolog.Logger

	mu sync.Mutex
}

// New creates a Service.
func New(deps Deps, log zerolog.Logger) *Service {
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	return &Service{
		deps: deps,
		log:  log.With().Str("component", "service").Logger(),
	}
}

// RankedAnalysis loads the history (from the cache, or from the network on
// a miss), analyses it and returns the stocks ranked by composite score.
// With useCache false the cache file is deleted first; if there is none
// that is an ErrNotFound failure.
func (s *Service) RankedAnalysis(ctx context.Context, useCache bool) ([]model.AnalysedStock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rank(ctx, useCache)
}

// Refresh drops any cached history and rebuilds the ranking from the
// network. Unlike RankedAnalysis(ctx, false) a missing cache is fine.
func (s *Service) Refresh(ctx context.Context) ([]model.AnalysedStock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.deps.Cache.Invalidate(); err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
	} else {
		s.deps.Metrics.RecordInvalidation()
	}
	return s.rank(ctx, true)
}

func (s *Service) rank(ctx context.Context, useCache bool) ([]model.AnalysedStock, error) {
	runID := uuid.New().String()
	log := s.log.With().Str("run_id", runID).Logger()
	start := time.Now()
	evt := &recorder.RunEvent{RunID: runID, Source: "cache"}

	finish := func(err error) {
		evt.Duration = time.Since(start)
		if err != nil {
			evt.Err = err.Error()
			log.Error().Err(err).Msg("analysis run failed")
		}
		s.deps.Metrics.RecordRun(evt.Source, evt.Analysed, evt.Duration, err)
		if rerr := s.deps.Recorder.RecordRun(evt); rerr != nil {
			log.Warn().Err(rerr).Msg("record run")
		}
	}

	if !useCache {
		if err := s.deps.Cache.Invalidate(); err != nil {
			finish(err)
			return nil, err
		}
		s.deps.Metrics.RecordInvalidation()
	}

	col := s.runCollector(runID, log)
	series, err := s.deps.Cache.LoadOrFetch(ctx, func(ctx context.Context) ([]model.StockSeries, error) {
		evt.Source = "network"
		return col.FetchAll(ctx)
	})
	if err != nil {
		finish(err)
		return nil, err
	}
	s.deps.Metrics.RecordCacheLookup(evt.Source == "cache")

	ranked := s.deps.Engine.Run(series)
	evt.Series = len(series)
	evt.Analysed = len(ranked)
	finish(nil)
	log.Info().Str("source", evt.Source).Int("ranked", len(ranked)).Dur("elapsed", evt.Duration).Msg("analysis run complete")
	return ranked, nil
}

// runCollector returns a copy of the collector whose fetch results are
// logged against runID.
func (s *Service) runCollector(runID string, log zerolog.Logger) *collector.Collector {
	col := *s.deps.Collector
	if s.deps.Progress != nil {
		col.Progress = s.deps.Progress
	}
	col.AfterFetch = func(r collector.FetchResult) {
		s.deps.Metrics.RecordFetch(r.Elapsed, r.Err)
		evt := &recorder.FetchEvent{
			RunID:    runID,
			Symbol:   r.Symbol.Ticker,
			Name:     r.Symbol.Name,
			Points:   r.Points,
			Duration: r.Elapsed,
		}
		if r.Err != nil {
			evt.Err = r.Err.Error()
		}
		if err := s.deps.Recorder.RecordFetch(evt); err != nil {
			log.Warn().Err(err).Str("ticker", r.Symbol.Ticker).Msg("record fetch")
		}
	}
	return &col
}

// StockHistory fetches the full history of one ticker straight from the
// network, bypassing the cache. The name is empty when the source has no
// display name for it.
func (s *Service) StockHistory(ctx context.Context, ticker string) (model.StockSeries, error) {
	col := s.deps.Collector
	token, err := col.Auth.Token(ctx)
	if err != nil {
		return model.StockSeries{}, fmt.Errorf("get token: %w", err)
	}
	start := time.Now()
	points, err := col.Fetcher.FetchHistory(ctx, ticker, token)
	s.deps.Metrics.RecordFetch(time.Since(start), err)
	if err != nil {
		return model.StockSeries{}, err
	}

	var name string
	if d, ok := col.Fetcher.(collector.Describer); ok {
		name, err = d.DisplayName(ctx, ticker, token)
		if err != nil {
			return model.StockSeries{}, err
		}
	}
	return model.StockSeries{Name: name, Symbol: ticker, Data: points}, nil
}

// RecentRuns lists the latest runs from the recorder.
func (s *Service) RecentRuns(limit int) ([]recorder.RunSummary, error) {
	return s.deps.Recorder.RecentRuns(limit)
}
