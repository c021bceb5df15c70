package fred

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockRanker/internal/model"
)

func newTestClient(t *testing.T, title string) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/series/observations", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GDP", r.URL.Query().Get("series_id"))
		assert.Equal(t, "key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "json", r.URL.Query().Get("file_type"))
		fmt.Fprint(w, `{"observations":[
			{"date":"2024-01-01","value":"100.5"},
			{"date":"2024-04-01","value":"."},
			{"date":"2024-07-01"},
			{"value":"1"}]}`)
	})
	mux.HandleFunc("/series", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, title)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewClient("key", "", zerolog.Nop())
	c.BaseURL = srv.URL
	return c
}

func TestSeries(t *testing.T) {
	c := newTestClient(t, `{"seriess":[{"title":"Gross Domestic Product"}]}`)

	s, err := c.Series(context.Background(), "GDP")
	require.NoError(t, err)
	assert.Equal(t, "Gross Domestic Product", s.Title)
	assert.Equal(t, [][2]string{{"2024-01-01", "100.5"}, {"2024-04-01", "."}}, s.Data)
}

func TestSeries_MissingTitle(t *testing.T) {
	c := newTestClient(t, `{"seriess":[]}`)

	_, err := c.Series(context.Background(), "GDP")
	assert.ErrorIs(t, err, model.ErrParse)
}

func TestSeries_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad series", http.StatusBadRequest)
	}))
	defer srv.Close()
	c := NewClient("key", "", zerolog.Nop())
	c.BaseURL = srv.URL

	_, err := c.Series(context.Background(), "NOPE")
	assert.ErrorIs(t, err, model.ErrNetwork)
}
