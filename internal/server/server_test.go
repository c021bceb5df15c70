package server

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockRanker/internal/fred"
	"StockRanker/internal/model"
	"StockRanker/internal/recorder"
)

type fakeAnalyser struct {
	ranked   []model.AnalysedStock
	err      error
	useCache []bool
}

func (f *fakeAnalyser) RankedAnalysis(_ context.Context, useCache bool) ([]model.AnalysedStock, error) {
	f.useCache = append(f.useCache, useCache)
	return f.ranked, f.err
}

func (f *fakeAnalyser) StockHistory(_ context.Context, ticker string) (model.StockSeries, error) {
	if f.err != nil {
		return model.StockSeries{}, f.err
	}
	return model.StockSeries{Name: "Vodafone", Symbol: ticker, Data: []model.PricePoint{model.NewPricePoint("2024-01-02", 70.5)}}, nil
}

func (f *fakeAnalyser) RecentRuns(limit int) ([]recorder.RunSummary, error) {
	return nil, nil
}

type memPortfolio struct{ list []string }

func (m *memPortfolio) Load() ([]string, error)  { return m.list, nil }
func (m *memPortfolio) Save(list []string) error { m.list = list; return nil }

type fakeFred struct{}

func (fakeFred) Series(_ context.Context, code string) (*fred.Series, error) {
	return &fred.Series{Title: "Title of " + code, Data: [][2]string{{"2024-01-01", "1.5"}}}, nil
}

type testEnv struct {
	srv       *httptest.Server
	svc       *fakeAnalyser
	portfolio *memPortfolio
	hub       *Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	env := &testEnv{
		svc: &fakeAnalyser{ranked: []model.AnalysedStock{
			{Symbol: "AAA", Score: 3},
			{Symbol: "BBB", Score: 2},
			{Symbol: "CCC", Score: math.NaN()},
		}},
		portfolio: &memPortfolio{list: []string{"VOD"}},
		hub:       NewHub(zerolog.Nop()),
	}
	go env.hub.Run(ctx)

	h := NewAPIHandler(env.svc, env.portfolio, fakeFred{}, env.hub, zerolog.Nop())
	env.srv = httptest.NewServer(NewRouter(h, RouterOptions{Gatherer: prometheus.NewRegistry()}))
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(e.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestAnalysis(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get(t, "/api/analysis")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, 3)
	assert.Equal(t, "AAA", got[0]["symbol"])
	assert.Nil(t, got[2]["score"])

	resp, body = env.get(t, "/api/analysis?cache=false&top=2")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Len(t, got, 2)
	assert.Equal(t, []bool{true, false}, env.svc.useCache)

	resp, _ = env.get(t, "/api/analysis?cache=maybe")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalysis_ErrorStatus(t *testing.T) {
	env := newTestEnv(t)

	env.svc.err = model.ErrNotFound
	resp, body := env.get(t, "/api/analysis?cache=false")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "not found")

	env.svc.err = model.ErrAuth
	resp, _ = env.get(t, "/api/analysis")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	env.svc.err = model.ErrCache
	resp, _ = env.get(t, "/api/analysis")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get(t, "/api/history/vod")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"name":"Vodafone","symbol":"VOD","data":[["2024-01-02",70.5]]}`, string(body))
}

func TestPortfolio(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.get(t, "/api/portfolio")
	assert.JSONEq(t, `["VOD"]`, string(body))

	req, err := http.NewRequest(http.MethodPut, env.srv.URL+"/api/portfolio", strings.NewReader(`["BP.","BT.A"]`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"BP.", "BT.A"}, env.portfolio.list)

	req, err = http.NewRequest(http.MethodPut, env.srv.URL+"/api/portfolio", strings.NewReader(`["a\nb"]`))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFredAndRuns(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.get(t, "/api/fred/GDP")
	assert.JSONEq(t, `{"title":"Title of GDP","data":[["2024-01-01","1.5"]]}`, string(body))

	_, body = env.get(t, "/api/runs")
	assert.JSONEq(t, `[]`, string(body))
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get(t, "/api/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","ws_clients":0}`, string(body))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, _ = env.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProgressWebsocket(t *testing.T) {
	env := newTestEnv(t)

	wsURL := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/ws/progress"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return env.hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, env.hub.Publish(model.Progress{Name: "Vodafone", Symbol: "VOD", Progress: 7}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"downloading-symbol","payload":{"name":"Vodafone","symbol":"VOD","progress":7}}`, string(msg))
}

func TestPublishAfterStop(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	// fill the buffer so the closed hub is the only way out
	for i := 0; i < cap(hub.broadcast); i++ {
		hub.broadcast <- Event{}
	}
	assert.ErrorIs(t, hub.Publish(model.Progress{Progress: 1}), errHubClosed)
}
