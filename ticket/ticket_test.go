package ticket

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
	admin  = common.HexToAddress("0x1000000000000000000000000000000000000001")
	minter = common.HexToAddress("0x2000000000000000000000000000000000000002")
	holder = common.HexToAddress("0x3000000000000000000000000000000000000003")
	other  = common.HexToAddress("0x4000000000000000000000000000000000000004")
)

func deployIssuer(t *testing.T) (*chain.Env, *Client) {
	t.Helper()
	env := chain.NewEnv(slog.New(slog.NewTextHandler(io.Discard, nil)))
	var addr common.Address
	_, err := env.Run(func(host interfaces.Host) error {
		var err error
		addr, err = host.Deploy(admin, New(admin))
		return err
	})
	require.NoError(t, err)

	c := NewClient(env, addr)
	require.NoError(t, c.SetAuthorizedMinter(admin, minter, true))
	return env, c
}

func TestMint(t *testing.T) {
	_, c := deployIssuer(t)

	id, err := c.Mint(minter, holder, "DevCon", "A-12")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.Int64())

	info, err := c.TicketInfo(id)
	require.NoError(t, err)
	assert.Equal(t, &Ticket{Holder: holder, EventName: "DevCon", Seat: "A-12"}, info)

	n, err := c.BalanceOf(holder)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	id2, err := c.Mint(minter, holder, "DevCon", "A-13")
	require.NoError(t, err)
	assert.Equal(t, int64(2), id2.Int64())

	_, err = c.Mint(other, holder, "DevCon", "A-14")
	assert.ErrorIs(t, err, interfaces.ErrNotAuthorizedMinter)

	_, err = c.Mint(minter, common.Address{}, "DevCon", "A-14")
	assert.ErrorIs(t, err, interfaces.ErrInvalidRecipient)
}

func TestPause(t *testing.T) {
	_, c := deployIssuer(t)

	assert.ErrorIs(t, c.Pause(other), interfaces.ErrUnauthorized)
	require.NoError(t, c.Pause(admin))

	_, err := c.Mint(minter, holder, "DevCon", "B-1")
	assert.ErrorIs(t, err, interfaces.ErrPaused)

	require.NoError(t, c.Unpause(admin))
	_, err = c.Mint(minter, holder, "DevCon", "B-1")
	assert.NoError(t, err)
}

func TestUse(t *testing.T) {
	_, c := deployIssuer(t)
	id, err := c.Mint(minter, holder, "DevCon", "C-3")
	require.NoError(t, err)

	tests := []struct {
		name    string
		from    common.Address
		id      *big.Int
		wantErr error
	}{
		{"unknown ticket", holder, big.NewInt(99), interfaces.ErrUnknownTicket},
		{"not holder", other, id, interfaces.ErrNotTicketHolder},
		{"holder", holder, id, nil},
		{"second use", holder, id, interfaces.ErrTicketAlreadyUsed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Use(tt.from, tt.id)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	used, err := c.IsUsed(id)
	require.NoError(t, err)
	assert.True(t, used)
}

func TestRevokeMinter(t *testing.T) {
	_, c := deployIssuer(t)

	assert.ErrorIs(t, c.SetAuthorizedMinter(other, other, true), interfaces.ErrUnauthorized)
	require.NoError(t, c.SetAuthorizedMinter(admin, minter, false))

	ok, err := c.IsAuthorizedMinter(minter)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Mint(minter, holder, "DevCon", "D-4")
	assert.ErrorIs(t, err, interfaces.ErrNotAuthorizedMinter)
}

func TestRestore(t *testing.T) {
	env, c := deployIssuer(t)
	id, err := c.Mint(minter, holder, "DevCon", "E-5")
	require.NoError(t, err)
	require.NoError(t, c.Use(holder, id))

	data, err := env.MarshalDump()
	require.NoError(t, err)
	restored, err := chain.UnmarshalDump(data, map[string]chain.Codec{Kind: Restore}, nil)
	require.NoError(t, err)

	rc := NewClient(restored, c.Address())
	info, err := rc.TicketInfo(id)
	require.NoError(t, err)
	assert.True(t, info.Used)
	assert.Equal(t, holder, info.Holder)

	n, err := rc.BalanceOf(holder)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	next, err := rc.Mint(minter, holder, "DevCon", "E-6")
	require.NoError(t, err)
	assert.Equal(t, int64(2), next.Int64())
}

func TestMarshalDumpIsStable(t *testing.T) {
	env, c := deployIssuer(t)
	for i := 1; i <= 8; i++ {
		require.NoError(t, c.SetAuthorizedMinter(admin, common.BigToAddress(big.NewInt(int64(0x100+i))), true))
	}
	_, err := c.Mint(minter, holder, "DevCon", "F-1")
	require.NoError(t, err)

	first, err := env.MarshalDump()
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := env.MarshalDump()
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}
