package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{srv.URL},
	})
	require.NoError(t, err)
	return client
}

func TestSearchDecodesHits(t *testing.T) {
	response := `{
		"hits": {
			"total": {"value": 2},
			"hits": [
				{"_source": {"symbol": "AAPL", "strategy": "vertical", "notes": "earnings play", "quantity": 1, "strike": 200}},
				{"_source": {"symbol": "SPY", "strategy": "iron_condor", "quantity": -1}}
			]
		}
	}`

	var gotBody map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	})

	total, trades, err := Search(context.Background(), client, "trade", "aapl", 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, trades, 2)

	require.Equal(t, "AAPL", trades[0].Symbol)
	require.Equal(t, "vertical", trades[0].Strategy)
	require.Equal(t, "earnings play", trades[0].Notes)
	require.EqualValues(t, 1, trades[0].Quantity)
	require.EqualValues(t, 200, trades[0].Strike)

	require.Equal(t, "SPY", trades[1].Symbol)
	require.EqualValues(t, -1, trades[1].Quantity)

	query, ok := gotBody["query"].(map[string]interface{})
	require.True(t, ok)
	mm, ok := query["multi_match"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "aapl", mm["query"])
	require.EqualValues(t, 0, gotBody["from"])
	require.EqualValues(t, 10, gotBody["size"])
}

func TestSearchEmptyResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hits": {"total": {"value": 0}, "hits": []}}`))
	})

	total, trades, err := Search(context.Background(), client, "trade", "nothing", 0, 10)
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, trades)
}

func TestSearchServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": "boom"}`))
	})

	_, _, err := Search(context.Background(), client, "trade", "aapl", 0, 10)
	require.Error(t, err)
}
