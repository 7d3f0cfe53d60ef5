package httpserver

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/ruteri/account-registry/api"
	"github.com/ruteri/account-registry/chain"
	"github.com/ruteri/account-registry/deploy"
	"github.com/ruteri/account-registry/interfaces"
	"github.com/ruteri/account-registry/metrics"
	"github.com/ruteri/account-registry/registry"
	"github.com/ruteri/account-registry/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthAndDrain(t *testing.T) {
	h := newTestServer(new(registry.MockAccountService), nil)

	steps := []struct {
		path   string
		status int
		body   string
	}{
		{"/livez", http.StatusOK, `{"status":"alive"}`},
		{"/readyz", http.StatusOK, `{"status":"ready"}`},
		{"/drain", http.StatusOK, `{"status":"draining"}`},
		{"/drain", http.StatusOK, `{"status":"already draining"}`},
		{"/readyz", http.StatusServiceUnavailable, `{"status":"not ready"}`},
		{"/undrain", http.StatusOK, `{"status":"ready"}`},
		{"/undrain", http.StatusOK, `{"status":"already ready"}`},
		{"/readyz", http.StatusOK, `{"status":"ready"}`},
	}
	for _, step := range steps {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, step.path, nil))
		assert.Equal(t, step.status, rec.Code, step.path)
		assert.JSONEq(t, step.body, rec.Body.String(), step.path)
	}
}

// TestAPIEndToEnd drives a bootstrapped registry through the HTTP API.
func TestAPIEndToEnd(t *testing.T) {
	env := chain.NewEnv(testLogger())
	d, err := deploy.Bootstrap(env, deploy.Config{
		Owner:  owner,
		Tokens: []deploy.TokenConfig{{Name: "Test Dollar", Symbol: "TUSD"}},
	}, testLogger())
	require.NoError(t, err)

	metricsSrv, err := metrics.New("test", "127.0.0.1:0")
	require.NoError(t, err)

	backend, err := storage.NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)

	svc := registry.NewService(env, d.Registry, metricsSrv, testLogger())
	checkpointer := deploy.NewCheckpointer(env, d, backend, testLogger())
	h := New(testConfig(), NewHandler(svc, checkpointer, testLogger()), metricsSrv).Handler()

	rec := doRequest(t, h, http.MethodGet, "/api/registry", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	info := decodeBody[api.RegistryResponse](t, rec)
	assert.Equal(t, owner, info.Owner)
	assert.Equal(t, d.Tokens, info.ApprovedTokens)

	rec = doRequest(t, h, http.MethodGet, "/api/identities/"+alice.Hex()+"/predicted", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	predicted := decodeBody[api.AccountResponse](t, rec).Account

	rec = doRequest(t, h, http.MethodPost, "/api/accounts", api.CreateAccountRequest{From: bob, Identity: alice})
	require.Equal(t, http.StatusCreated, rec.Code)
	acct := decodeBody[api.AccountResponse](t, rec).Account
	assert.Equal(t, predicted, acct)

	rec = doRequest(t, h, http.MethodPost, "/api/accounts", api.CreateAccountRequest{From: bob, Identity: alice})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/accounts/"+acct.Hex(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	acctInfo := decodeBody[api.AccountInfoResponse](t, rec)
	assert.Equal(t, alice, acctInfo.Owner)
	assert.Equal(t, d.Registry, acctInfo.Controller)

	rec = doRequest(t, h, http.MethodPost, "/api/fund", map[string]string{"to": acct.Hex(), "amount": "0x64"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/api/accounts/"+acct.Hex()+"/execute", map[string]string{
		"from": alice.Hex(), "target": bob.Hex(), "value": "0x10",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[api.CallResultResponse](t, rec).Success)

	rec = doRequest(t, h, http.MethodPost, "/api/accounts/"+acct.Hex()+"/execute", map[string]string{
		"from": bob.Hex(), "target": bob.Hex(),
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Unauthorized", decodeBody[api.ErrorResponse](t, rec).Kind)

	rec = doRequest(t, h, http.MethodPost, "/api/tickets", api.TicketRequest{From: owner, Identity: bob, EventName: "Concert", Seat: "A1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(1), decodeBody[api.TicketResponse](t, rec).TicketID.ToInt().Int64())

	rec = doRequest(t, h, http.MethodPost, "/api/tickets", api.TicketRequest{From: alice, Identity: bob, EventName: "Concert", Seat: "A2"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/balances/"+bob.Hex(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, big.NewInt(16), decodeBody[api.BalanceResponse](t, rec).Balance.ToInt())

	rec = doRequest(t, h, http.MethodPost, "/api/checkpoints", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id, err := interfaces.NewContentIDFromHex(decodeBody[api.CheckpointResponse](t, rec).ContentID)
	require.NoError(t, err)

	restored, _, err := deploy.Restore(context.Background(), backend, id, testLogger())
	require.NoError(t, err)
	bobAccount, ok, err := registry.NewService(restored, d.Registry, nil, testLogger()).GetAccount(bob)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEqual(t, common.Address{}, bobAccount)

	expected := `
# HELP test_accounts_created_total Total number of accounts created through the registry.
# TYPE test_accounts_created_total counter
test_accounts_created_total 2
`
	assert.NoError(t, testutil.GatherAndCompare(metricsSrv.Registry(), strings.NewReader(expected), "test_accounts_created_total"))
}

func TestReadOnly(t *testing.T) {
	svc := new(registry.MockAccountService)
	svc.On("TotalAccounts").Return(uint64(1), nil)

	cfg := testConfig()
	cfg.ReadOnly = true
	cfg.EnableFunding = true
	h := New(cfg, NewHandler(svc, nil, testLogger()), nil).Handler()

	serve := func(method, path string) int {
		req := httptest.NewRequest(method, path, strings.NewReader("{}"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve(http.MethodGet, "/api/accounts/count"))

	assert.Equal(t, http.StatusNotFound, serve(http.MethodPost, "/api/accounts"))
	assert.Equal(t, http.StatusNotFound, serve(http.MethodPost, "/api/accounts/0x0000000000000000000000000000000000000001/execute"))
	assert.Equal(t, http.StatusNotFound, serve(http.MethodPost, "/api/tickets"))
	assert.Equal(t, http.StatusNotFound, serve(http.MethodPost, "/api/transfers"))
	assert.Equal(t, http.StatusNotFound, serve(http.MethodPost, "/api/fund"))
	assert.Equal(t, http.StatusMethodNotAllowed, serve(http.MethodPut, "/api/identities/0x0000000000000000000000000000000000000001/account"))

	svc.AssertExpectations(t)
}

func TestRateLimit(t *testing.T) {
	svc := new(registry.MockAccountService)
	svc.On("TotalAccounts").Return(uint64(1), nil)

	cfg := testConfig()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 2
	h := New(cfg, NewHandler(svc, nil, testLogger()), nil).Handler()

	get := func(path, remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, get("/api/accounts/count", "192.0.2.1:1000").Code)
	assert.Equal(t, http.StatusOK, get("/api/accounts/count", "192.0.2.1:1001").Code)

	rec := get("/api/accounts/count", "192.0.2.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, errRateLimited.Error(), decodeBody[api.ErrorResponse](t, rec).Error)
	assert.Equal(t, http.StatusTooManyRequests, get("/api/registry", "192.0.2.1:1003").Code)

	assert.Equal(t, http.StatusOK, get("/api/accounts/count", "192.0.2.2:1000").Code)
	assert.Equal(t, http.StatusOK, get("/livez", "192.0.2.1:1004").Code)
}
