package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"StockRanker/internal/model"
	"StockRanker/internal/notifier"
)

// Ranker is the part of the service the scheduler drives.
type Ranker interface {
	RankedAnalysis(ctx context.Context, useCache bool) ([]model.AnalysedStock, error)
	Refresh(ctx context.Context) ([]model.AnalysedStock, error)
	StockHistory(ctx context.Context, ticker string) (model.StockSeries, error)
}

// Sender delivers reports.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler refreshes the history cache on a cron schedule and answers
// chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Service  Ranker
	Notifier Sender // nil disables delivery
	TopN     int
	Ctx      context.Context

	now func() time.Time
	log zerolog.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, svc Ranker, sender Sender, topN int, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Service:  svc,
		Notifier: sender,
		TopN:     topN,
		Ctx:      ctx,
		now:      time.Now,
		log:      log.With().Str("component", "scheduler").Logger(),
	}
}

// RegisterAll registers the refresh task.
func (s *Scheduler) RegisterAll(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunRefreshNow executes the refresh task immediately.
func (s *Scheduler) RunRefreshNow() {
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	s.log.Info().Msg("running refresh task")
	ranked, err := s.Service.Refresh(s.Ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("refresh")
		s.trySend(notifier.FormatError("scheduled refresh", err))
		return
	}
	s.trySend(notifier.FormatRanking(ranked, s.TopN, s.now()))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return help
	}
	switch fields[0] {
	case "/top":
		n := s.TopN
		if len(fields) > 1 {
			v, err := strconv.Atoi(fields[1])
			if err != nil || v <= 0 {
				return "usage: /top [N]"
			}
			n = v
		}
		ranked, err := s.Service.RankedAnalysis(ctx, true)
		if err != nil {
			return notifier.FormatError("ranking", err)
		}
		return notifier.FormatRanking(ranked, n, s.now())
	case "/refresh":
		s.refreshTask()
		return ""
	case "/stock":
		if len(fields) != 2 {
			return "usage: /stock TICKER"
		}
		ticker := strings.ToUpper(fields[1])
		series, err := s.Service.StockHistory(ctx, ticker)
		if err != nil {
			return notifier.FormatError("history for "+ticker, err)
		}
		return notifier.FormatHistory(series)
	default:
		return help
	}
}

const help = "Commands:\n• /top [N] ranking from the cache\n• /refresh refetch and rank\n• /stock TICKER raw history"

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}
