package vtex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alamesa/catalog-cli/internal/resilience"
)

func testConfig() Config {
	return Config{
		Timeout:    5 * time.Second,
		MaxRetries: 3,
		RetryWait:  time.Millisecond,
	}
}

// newTestClient points a client at a local test server.
func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New("test-account", "key", "token", testConfig())
	c.baseURL = srv.URL
	return c, srv
}

func TestClient_GetJSON_SendsCredentialHeaders(t *testing.T) {
	var gotKey, gotToken string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-VTEX-API-AppKey")
		gotToken = r.Header.Get("X-VTEX-API-AppToken")
		json.NewEncoder(w).Encode(map[string]any{"Id": 1})
	}))

	var out struct{ ID int64 }
	found, err := c.getJSON(context.Background(), "/api/x", &out, false)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "key", gotKey)
	assert.Equal(t, "token", gotToken)
}

func TestClient_GetJSON_RetriesRateLimitThenSucceeds(t *testing.T) {
	// 429, 429, 200: the client must absorb the rate limits and come back
	// with the payload.
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"Id": 42})
	}))

	var out struct {
		ID int64 `json:"Id"`
	}
	found, err := c.getJSON(context.Background(), "/api/x", &out, false)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(42), out.ID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_GetJSON_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := c.getJSON(context.Background(), "/api/x", nil, false)
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, http.StatusServiceUnavailable, resilience.StatusCode(err))
}

func TestClient_GetJSON_Silent404(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))

	found, err := c.getJSON(context.Background(), "/api/x", nil, true)
	require.NoError(t, err)
	assert.False(t, found)
	// A 404 is a definitive answer; it must not be retried.
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_GetJSON_Loud404(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := c.getJSON(context.Background(), "/api/x", nil, false)
	require.Error(t, err)
	assert.True(t, resilience.IsNotFound(err))
}

func TestClient_SKUByID_AbsentIsNil(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	sku, err := c.SKUByID(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, sku)
}

func TestClient_PriceBySKU_AbsentIsNil(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	quote, err := c.PriceBySKU(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, quote)
}
