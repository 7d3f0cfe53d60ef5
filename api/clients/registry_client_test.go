package clients

import (
	"errors"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/account-registry/api"
	"github.com/ruteri/account-registry/chain"
	"github.com/ruteri/account-registry/deploy"
	"github.com/ruteri/account-registry/httpserver"
	"github.com/ruteri/account-registry/interfaces"
	"github.com/ruteri/account-registry/registry"
	"github.com/ruteri/account-registry/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner = common.HexToAddress("0x1000000000000000000000000000000000000001")
	alice = common.HexToAddress("0x2000000000000000000000000000000000000002")
	bob   = common.HexToAddress("0x3000000000000000000000000000000000000003")
	carol = common.HexToAddress("0x4000000000000000000000000000000000000004")
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, withCheckpoints bool) (*RegistryClient, *deploy.Deployment) {
	t.Helper()

	env := chain.NewEnv(testLogger())
	d, err := deploy.Bootstrap(env, deploy.Config{
		Owner:  owner,
		Tokens: []deploy.TokenConfig{{Name: "Test Dollar", Symbol: "TUSD"}},
	}, testLogger())
	require.NoError(t, err)

	var checkpointer interfaces.Checkpointer
	if withCheckpoints {
		backend, err := storage.NewFileBackend(t.TempDir(), testLogger())
		require.NoError(t, err)
		checkpointer = deploy.NewCheckpointer(env, d, backend, testLogger())
	}

	svc := registry.NewService(env, d.Registry, nil, testLogger())
	cfg := &api.HTTPServerConfig{ListenAddr: "127.0.0.1:0", Log: testLogger(), EnableFunding: true}
	srv := httptest.NewServer(httpserver.New(cfg, httpserver.NewHandler(svc, checkpointer, testLogger()), nil).Handler())
	t.Cleanup(srv.Close)

	return NewRegistryClient(srv.URL + "/"), d
}

func TestRegistryClient_Accounts(t *testing.T) {
	client, d := newTestClient(t, false)

	info, err := client.Info()
	require.NoError(t, err)
	assert.Equal(t, d.Registry, info.Address)
	assert.Equal(t, owner, info.Owner)
	assert.Equal(t, d.Tokens, info.ApprovedTokens)

	_, found, err := client.GetAccount(alice)
	require.NoError(t, err)
	assert.False(t, found)

	predicted, err := client.PredictAddress(alice)
	require.NoError(t, err)

	acct, err := client.CreateAccount(bob, alice)
	require.NoError(t, err)
	assert.Equal(t, predicted, acct)

	_, err = client.CreateAccount(bob, alice)
	require.Error(t, err)
	assert.ErrorIs(t, err, interfaces.ErrAlreadyExists)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)

	again, err := client.GetOrCreateAccount(bob, alice)
	require.NoError(t, err)
	assert.Equal(t, acct, again)

	got, found, err := client.GetAccount(alice)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, acct, got)

	isAccount, err := client.IsAccount(acct)
	require.NoError(t, err)
	assert.True(t, isAccount)

	isAccount, err = client.IsAccount(carol)
	require.NoError(t, err)
	assert.False(t, isAccount)

	total, err := client.TotalAccounts()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)

	first, err := client.AccountAt(0)
	require.NoError(t, err)
	assert.Equal(t, acct, first)

	_, err = client.AccountAt(1)
	assert.ErrorIs(t, err, interfaces.ErrIndexOutOfRange)

	acctInfo, err := client.AccountInfo(acct)
	require.NoError(t, err)
	assert.Equal(t, alice, acctInfo.Owner)
	assert.Equal(t, d.Registry, acctInfo.Controller)
}

func TestRegistryClient_Calls(t *testing.T) {
	client, _ := newTestClient(t, false)

	acct, err := client.CreateAccount(alice, alice)
	require.NoError(t, err)

	require.NoError(t, client.Fund(alice, big.NewInt(100)))
	require.NoError(t, client.Transfer(alice, acct, big.NewInt(60)))

	res, err := client.Execute(alice, acct, carol, big.NewInt(10), nil)
	require.NoError(t, err)
	assert.True(t, res.Success)

	_, err = client.Execute(bob, acct, carol, big.NewInt(10), nil)
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	results, err := client.ExecuteBatch(alice, acct, []interfaces.Call{
		{Target: carol, Value: big.NewInt(5)},
		{Target: carol, Value: big.NewInt(1000)},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)

	relayed, err := client.Relay(owner, acct, carol, big.NewInt(5), nil)
	require.NoError(t, err)
	assert.True(t, relayed.Success)

	balance, err := client.Balance(carol)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(20), balance)

	require.NoError(t, client.EmergencyWithdraw(alice, acct, alice, nil))
	emptied, err := client.Balance(acct)
	require.NoError(t, err)
	assert.Equal(t, int64(0), emptied.Int64())

	id, err := client.IssueTicket(owner, bob, "Concert", "A1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.Int64())

	_, err = client.IssueTicket(bob, bob, "Concert", "A2")
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)
}

func TestRegistryClient_Checkpoint(t *testing.T) {
	client, _ := newTestClient(t, false)
	_, err := client.Checkpoint()
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)

	client, _ = newTestClient(t, true)
	id, err := client.Checkpoint()
	require.NoError(t, err)
	assert.NotEqual(t, interfaces.ContentID{}, id)
}

func TestRegistryClient_Unreachable(t *testing.T) {
	client := NewRegistryClient("http://127.0.0.1:1")
	_, err := client.Info()
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
