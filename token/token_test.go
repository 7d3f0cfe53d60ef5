package token

import (
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/account-registry/chain"
	"github.com/ruteri/account-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tokenOwner = common.HexToAddress("0x1000000000000000000000000000000000000001")
	alice      = common.HexToAddress("0x2000000000000000000000000000000000000002")
	bob        = common.HexToAddress("0x3000000000000000000000000000000000000003")
	spender    = common.HexToAddress("0x4000000000000000000000000000000000000004")
)

func deployToken(t *testing.T) (*chain.Env, *Client) {
	t.Helper()
	env := chain.NewEnv(slog.New(slog.NewTextHandler(io.Discard, nil)))

	var addr common.Address
	_, err := env.Run(func(host interfaces.Host) error {
		var err error
		addr, err = host.Deploy(tokenOwner, New("Test Token", "TT", tokenOwner))
		return err
	})
	require.NoError(t, err)
	return env, NewClient(env, addr)
}

func TestMintOnlyOwner(t *testing.T) {
	_, c := deployToken(t)

	require.NoError(t, c.Mint(tokenOwner, alice, big.NewInt(100)))
	bal, err := c.BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal.Int64())

	err = c.Mint(alice, alice, big.NewInt(1))
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)
}

func TestTransferFromReturnsFalse(t *testing.T) {
	_, c := deployToken(t)
	require.NoError(t, c.Mint(tokenOwner, alice, big.NewInt(100)))

	transferFrom := func(amount int64) bool {
		t.Helper()
		_, out, err := c.contract.Transact(spender, nil, "transferFrom", alice, bob, big.NewInt(amount))
		require.NoError(t, err)
		return out[0].(bool)
	}

	t.Run("no allowance", func(t *testing.T) {
		assert.False(t, transferFrom(10))
	})

	require.NoError(t, c.Approve(alice, spender, big.NewInt(500)))

	t.Run("insufficient balance", func(t *testing.T) {
		assert.False(t, transferFrom(200))
		bal, err := c.BalanceOf(alice)
		require.NoError(t, err)
		assert.Equal(t, int64(100), bal.Int64())
	})

	t.Run("success spends allowance", func(t *testing.T) {
		assert.True(t, transferFrom(40))

		bal, err := c.BalanceOf(bob)
		require.NoError(t, err)
		assert.Equal(t, int64(40), bal.Int64())

		allowed, err := c.Allowance(alice, spender)
		require.NoError(t, err)
		assert.Equal(t, int64(460), allowed.Int64())
	})
}

func TestTransfer(t *testing.T) {
	_, c := deployToken(t)
	require.NoError(t, c.Mint(tokenOwner, alice, big.NewInt(10)))

	ok, err := c.Transfer(alice, bob, big.NewInt(11))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.Transfer(alice, bob, big.NewInt(10))
	require.NoError(t, err)
	assert.True(t, ok)

	bal, err := c.BalanceOf(bob)
	require.NoError(t, err)
	assert.Equal(t, int64(10), bal.Int64())
}

func TestRestore(t *testing.T) {
	env, c := deployToken(t)
	require.NoError(t, c.Mint(tokenOwner, alice, big.NewInt(7)))
	require.NoError(t, c.Approve(alice, spender, big.NewInt(3)))

	data, err := env.MarshalDump()
	require.NoError(t, err)

	restored, err := chain.UnmarshalDump(data, map[string]chain.Codec{Kind: Restore}, nil)
	require.NoError(t, err)

	rc := NewClient(restored, c.Address())
	bal, err := rc.BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, int64(7), bal.Int64())

	allowed, err := rc.Allowance(alice, spender)
	require.NoError(t, err)
	assert.Equal(t, int64(3), allowed.Int64())
}

func TestMarshalDumpIsStable(t *testing.T) {
	env, c := deployToken(t)
	for i := 1; i <= 8; i++ {
		holder := common.BigToAddress(big.NewInt(int64(0x100 + i)))
		require.NoError(t, c.Approve(holder, spender, big.NewInt(int64(i))))
		require.NoError(t, c.Approve(holder, bob, big.NewInt(int64(i))))
	}

	first, err := env.MarshalDump()
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := env.MarshalDump()
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}
