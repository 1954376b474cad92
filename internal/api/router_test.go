package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/baharkarakas/point-ledger/internal/api/httpx"
	"github.com/baharkarakas/point-ledger/internal/config"
	"github.com/baharkarakas/point-ledger/internal/keylock"
	"github.com/baharkarakas/point-ledger/internal/models"
	"github.com/baharkarakas/point-ledger/internal/repository/memory"
	"github.com/baharkarakas/point-ledger/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestServerWithConfig(t, config.Config{RateRPS: 0})
}

func newTestServerWithConfig(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()
	repos := memory.NewRepositories()
	locks, err := keylock.NewString()
	require.NoError(t, err)
	svc := services.NewLedgerService(repos.Balances, repos.Histories, locks, slog.New(slog.NewTextHandler(io.Discard, nil)))

	srv := httptest.NewServer(NewRouter(cfg, svc))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func decodeBalance(t *testing.T, b []byte) models.Balance {
	t.Helper()
	var bal models.Balance
	require.NoError(t, json.Unmarshal(b, &bal))
	return bal
}

func decodeError(t *testing.T, b []byte) httpx.APIError {
	t.Helper()
	var e httpx.APIError
	require.NoError(t, json.Unmarshal(b, &e))
	return e
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, body := do(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestGetBalance(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/api/v1/points/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	bal := decodeBalance(t, body)
	assert.Equal(t, "1", bal.UserID)
	assert.Zero(t, bal.Amount)
}

func TestChargeUseAndHistories(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/v1/points/1"

	resp, body := do(t, http.MethodPatch, base+"/charge", "5000")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, int64(5000), decodeBalance(t, body).Amount)

	resp, body = do(t, http.MethodPatch, base+"/use", `{"amount": 2000}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, int64(3000), decodeBalance(t, body).Amount)

	resp, body = do(t, http.MethodGet, base+"/histories", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []models.HistoryEntry
	require.NoError(t, json.Unmarshal(body, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, models.TxnCharge, entries[0].Type)
	assert.Equal(t, models.TxnUse, entries[1].Type)
}

func TestHistoriesEmptyIsArray(t *testing.T) {
	srv := newTestServer(t)
	resp, body := do(t, http.MethodGet, srv.URL+"/api/v1/points/nobody/histories", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(body))
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/v1/points/7"

	cases := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"zero amount", "/charge", "0", http.StatusBadRequest, "invalid_amount"},
		{"above cap", "/charge", "2000001", http.StatusBadRequest, "invalid_amount"},
		{"not a number", "/charge", `"abc"`, http.StatusBadRequest, "bad_request"},
		{"empty body", "/use", "", http.StatusBadRequest, "bad_request"},
		{"object without amount", "/use", `{}`, http.StatusBadRequest, "bad_request"},
		{"overdraw", "/use", "1", http.StatusConflict, "insufficient_balance"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPatch, base+tc.path, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, decodeError(t, body).Code)
		})
	}
}

func TestInvalidAmountDetails(t *testing.T) {
	srv := newTestServer(t)
	resp, body := do(t, http.MethodPatch, srv.URL+"/api/v1/points/7/use", "-5")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_amount", decodeError(t, body).Code)
	assert.Contains(t, string(body), `"field":"amount"`)
	assert.Contains(t, string(body), "must be between 1 and 2000000")
}

func TestChargePastLimit(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/v1/points/9"

	for i := 0; i < 5; i++ {
		resp, _ := do(t, http.MethodPatch, base+"/charge", "2000000")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, body := do(t, http.MethodPatch, base+"/charge", "1")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "balance_limit_exceeded", decodeError(t, body).Code)

	_, body = do(t, http.MethodGet, base, "")
	assert.Equal(t, models.MaxBalance, decodeBalance(t, body).Amount)
}

func TestUserIDTooLong(t *testing.T) {
	srv := newTestServer(t)
	resp, body := do(t, http.MethodGet, srv.URL+"/api/v1/points/"+strings.Repeat("x", 129), "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_user", decodeError(t, body).Code)
}

func TestConcurrentChargesOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/v1/points/42"

	var g errgroup.Group
	for i := 0; i < 40; i++ {
		g.Go(func() error {
			resp, err := http.DefaultClient.Do(mustPatch(base+"/charge", "100"))
			if err != nil {
				return err
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("status %d", resp.StatusCode)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	_, body := do(t, http.MethodGet, base, "")
	assert.Equal(t, int64(4000), decodeBalance(t, body).Amount)
}

func mustPatch(url, body string) *http.Request {
	req, err := http.NewRequest(http.MethodPatch, url, strings.NewReader(body))
	if err != nil {
		panic(err)
	}
	return req
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := do(t, http.MethodGet, srv.URL+"/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimitSkipsHealthAndMetrics(t *testing.T) {
	srv := newTestServerWithConfig(t, config.Config{RateRPS: 1})

	resp, _ := do(t, http.MethodGet, srv.URL+"/api/v1/points/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body := do(t, http.MethodGet, srv.URL+"/api/v1/points/1", "")
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "rate_limited", decodeError(t, body).Code)

	for i := 0; i < 3; i++ {
		resp, _ = do(t, http.MethodGet, srv.URL+"/health", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp, _ = do(t, http.MethodGet, srv.URL+"/metrics", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}
