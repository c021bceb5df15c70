package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockRanker/internal/model"
)

type fakeRanker struct {
	ranked    []model.AnalysedStock
	err       error
	useCache  []bool
	refreshes int
	tickers   []string
}

func (f *fakeRanker) RankedAnalysis(_ context.Context, useCache bool) ([]model.AnalysedStock, error) {
	f.useCache = append(f.useCache, useCache)
	return f.ranked, f.err
}

func (f *fakeRanker) Refresh(context.Context) ([]model.AnalysedStock, error) {
	f.refreshes++
	return f.ranked, f.err
}

func (f *fakeRanker) StockHistory(_ context.Context, ticker string) (model.StockSeries, error) {
	f.tickers = append(f.tickers, ticker)
	return model.StockSeries{Name: "Vodafone", Symbol: ticker, Data: []model.PricePoint{model.NewPricePoint("2024-01-02", 70)}}, f.err
}

type fakeSender struct{ sent []string }

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.sent = append(f.sent, text)
	return nil
}

func newTestScheduler(r *fakeRanker, s *fakeSender) *Scheduler {
	sch := NewScheduler(context.Background(), r, s, 2, zerolog.Nop())
	sch.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	return sch
}

func ranking() []model.AnalysedStock {
	return []model.AnalysedStock{{Symbol: "AAA", Score: 3}, {Symbol: "BBB", Score: 2}, {Symbol: "CCC", Score: 1}}
}

func TestRunRefreshNow(t *testing.T) {
	r := &fakeRanker{ranked: ranking()}
	s := &fakeSender{}
	newTestScheduler(r, s).RunRefreshNow()

	assert.Equal(t, 1, r.refreshes)
	require.Len(t, s.sent, 1)
	assert.Contains(t, s.sent[0], "AAA")
	assert.Contains(t, s.sent[0], "BBB")
	assert.NotContains(t, s.sent[0], "CCC")
}

func TestRunRefreshNow_Failure(t *testing.T) {
	r := &fakeRanker{err: model.ErrNetwork}
	s := &fakeSender{}
	newTestScheduler(r, s).RunRefreshNow()

	require.Len(t, s.sent, 1)
	assert.Contains(t, s.sent[0], "scheduled refresh failed")
}

func TestRunRefreshNow_NoNotifier(t *testing.T) {
	r := &fakeRanker{ranked: ranking()}
	sch := NewScheduler(context.Background(), r, nil, 2, zerolog.Nop())
	assert.NotPanics(t, sch.RunRefreshNow)
}

func TestHandleCommand(t *testing.T) {
	r := &fakeRanker{ranked: ranking()}
	s := &fakeSender{}
	sch := newTestScheduler(r, s)
	ctx := context.Background()

	reply := sch.HandleCommand(ctx, "/top")
	assert.Contains(t, reply, "2 of 3")
	reply = sch.HandleCommand(ctx, "/top 3")
	assert.Contains(t, reply, "3 of 3")
	assert.Equal(t, []bool{true, true}, r.useCache)
	assert.Equal(t, "usage: /top [N]", sch.HandleCommand(ctx, "/top x"))

	reply = sch.HandleCommand(ctx, "/stock vod")
	assert.Contains(t, reply, "Vodafone")
	assert.Equal(t, []string{"VOD"}, r.tickers)
	assert.Equal(t, "usage: /stock TICKER", sch.HandleCommand(ctx, "/stock"))

	assert.Empty(t, sch.HandleCommand(ctx, "/refresh"))
	assert.Equal(t, 1, r.refreshes)
	assert.Len(t, s.sent, 1)

	assert.Contains(t, sch.HandleCommand(ctx, "hello"), "/top")
	assert.Contains(t, sch.HandleCommand(ctx, ""), "/top")
}

func TestRegisterAll(t *testing.T) {
	sch := NewScheduler(context.Background(), &fakeRanker{}, nil, 5, zerolog.Nop())
	require.NoError(t, sch.RegisterAll("0 0 7 * * 1-5"))
	assert.Len(t, sch.Cron.Entries(), 1)
	assert.Error(t, sch.RegisterAll("not a cron"))
}
