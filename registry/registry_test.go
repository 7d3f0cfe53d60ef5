package registry

import (
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/account-registry/account"
	"github.com/ruteri/account-registry/chain"
	"github.com/ruteri/account-registry/interfaces"
	"github.com/ruteri/account-registry/ticket"
	"github.com/ruteri/account-registry/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin    = common.HexToAddress("0x1000000000000000000000000000000000000001")
	alice    = common.HexToAddress("0x2000000000000000000000000000000000000002")
	bob      = common.HexToAddress("0x3000000000000000000000000000000000000003")
	stranger = common.HexToAddress("0x4000000000000000000000000000000000000004")
)

type fixture struct {
	env      *chain.Env
	registry common.Address
	logic    common.Address
	token    common.Address
	issuer   common.Address
	owner    *Client
	anyone   *Client
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{env: chain.NewEnv(slog.New(slog.NewTextHandler(io.Discard, nil)))}

	_, err := f.env.Run(func(host interfaces.Host) error {
		var err error
		if f.token, err = host.Deploy(admin, token.New("Test Token", "TT", admin)); err != nil {
			return err
		}
		if f.issuer, err = host.Deploy(admin, ticket.New(admin)); err != nil {
			return err
		}
		if f.logic, err = host.Deploy(admin, NewLogic()); err != nil {
			return err
		}
		f.registry, err = host.Deploy(admin, NewProxy(f.logic))
		return err
	})
	require.NoError(t, err)

	f.owner = NewClient(f.env, f.registry)
	f.owner.SetSender(admin)
	_, err = f.owner.Initialize(admin, []common.Address{f.token}, f.issuer)
	require.NoError(t, err)

	require.NoError(t, ticket.NewClient(f.env, f.issuer).SetAuthorizedMinter(admin, f.registry, true))

	f.anyone = NewClient(f.env, f.registry)
	f.anyone.SetSender(stranger)
	return f
}

func TestInitialize(t *testing.T) {
	f := setup(t)

	_, err := f.owner.Initialize(alice, nil, common.Address{})
	assert.ErrorIs(t, err, interfaces.ErrAlreadyInitialized)

	t.Run("validation", func(t *testing.T) {
		env := chain.NewEnv(nil)
		var reg common.Address
		_, err := env.Run(func(host interfaces.Host) error {
			logic, err := host.Deploy(admin, NewLogic())
			if err != nil {
				return err
			}
			reg, err = host.Deploy(admin, NewProxy(logic))
			return err
		})
		require.NoError(t, err)

		c := NewClient(env, reg)
		c.SetSender(admin)

		_, err = c.Initialize(common.Address{}, nil, common.Address{})
		assert.ErrorIs(t, err, interfaces.ErrInvalidOwner)

		_, err = c.Initialize(admin, []common.Address{{}}, common.Address{})
		assert.ErrorIs(t, err, interfaces.ErrUnsupportedToken)
	})

	owner, err := f.anyone.Owner()
	require.NoError(t, err)
	assert.Equal(t, admin, owner)

	tokens, err := f.anyone.ApprovedTokens()
	require.NoError(t, err)
	assert.Equal(t, []common.Address{f.token}, tokens)

	version, err := f.anyone.Version()
	require.NoError(t, err)
	assert.Equal(t, Version, version)
}

func TestPredictMatchesCreate(t *testing.T) {
	f := setup(t)

	for _, identity := range []common.Address{alice, bob, stranger} {
		predicted, err := f.anyone.PredictAddress(identity)
		require.NoError(t, err)

		offline, err := PredictAddress(f.registry, []common.Address{f.token}, identity)
		require.NoError(t, err)
		assert.Equal(t, predicted, offline)

		created, receipt, err := f.anyone.CreateAccount(identity)
		require.NoError(t, err)
		assert.Equal(t, predicted, created)
		assert.True(t, f.env.HasCode(created))
		assert.Len(t, chain.FilterLogs(receipt.Logs, ABI.Events["AccountCreated"], &f.registry), 1)

		// The prediction is stable after creation.
		again, err := f.anyone.PredictAddress(identity)
		require.NoError(t, err)
		assert.Equal(t, created, again)
	}

	t.Run("getOrCreateAccount", func(t *testing.T) {
		identity := common.HexToAddress("0x5000000000000000000000000000000000000005")
		predicted, err := f.anyone.PredictAddress(identity)
		require.NoError(t, err)

		created, _, err := f.anyone.GetOrCreateAccount(identity)
		require.NoError(t, err)
		assert.Equal(t, predicted, created)
	})
}

func TestCreatedAccountIsBound(t *testing.T) {
	f := setup(t)

	addr, _, err := f.anyone.CreateAccount(alice)
	require.NoError(t, err)

	acct := account.NewClient(f.env, addr)
	owner, err := acct.Owner()
	require.NoError(t, err)
	assert.Equal(t, alice, owner)

	controller, err := acct.Controller()
	require.NoError(t, err)
	assert.Equal(t, f.registry, controller)

	approved, err := acct.IsApprovedToken(f.token)
	require.NoError(t, err)
	assert.True(t, approved)

	acct.SetSender(stranger)
	_, err = acct.Initialize(stranger, stranger)
	assert.ErrorIs(t, err, interfaces.ErrAlreadyInitialized)
}

func TestCreateAccountErrors(t *testing.T) {
	f := setup(t)

	_, _, err := f.anyone.CreateAccount(alice)
	require.NoError(t, err)

	_, _, err = f.anyone.CreateAccount(alice)
	assert.ErrorIs(t, err, interfaces.ErrAlreadyExists)

	_, _, err = f.anyone.CreateAccount(common.Address{})
	assert.ErrorIs(t, err, interfaces.ErrInvalidOwner)

	total, err := f.anyone.TotalAccounts()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
}

func TestGetOrCreateAccountIdempotent(t *testing.T) {
	f := setup(t)

	before, err := f.anyone.TotalAccounts()
	require.NoError(t, err)

	first, _, err := f.anyone.GetOrCreateAccount(alice)
	require.NoError(t, err)
	second, receipt, err := f.anyone.GetOrCreateAccount(alice)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Empty(t, chain.FilterLogs(receipt.Logs, ABI.Events["AccountCreated"], &f.registry))

	after, err := f.anyone.TotalAccounts()
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	got, ok, err := f.anyone.GetAccount(alice)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, first, got)

	_, ok, err = f.anyone.GetAccount(bob)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnumeration(t *testing.T) {
	f := setup(t)

	identities := []common.Address{bob, alice, stranger}
	var created []common.Address
	for _, identity := range identities {
		addr, _, err := f.anyone.CreateAccount(identity)
		require.NoError(t, err)
		created = append(created, addr)
	}

	total, err := f.anyone.TotalAccounts()
	require.NoError(t, err)
	require.Equal(t, uint64(len(identities)), total)

	for i, want := range created {
		got, err := f.anyone.AccountAt(uint64(i))
		require.NoError(t, err)
		assert.Equal(t, want, got)

		member, err := f.anyone.IsAccount(got)
		require.NoError(t, err)
		assert.True(t, member)
	}

	_, err = f.anyone.AccountAt(total)
	assert.ErrorIs(t, err, interfaces.ErrIndexOutOfRange)

	member, err := f.anyone.IsAccount(alice)
	require.NoError(t, err)
	assert.False(t, member)
}

func TestRelay(t *testing.T) {
	f := setup(t)
	acct, _, err := f.anyone.CreateAccount(alice)
	require.NoError(t, err)
	require.NoError(t, f.env.Fund(acct, big.NewInt(100)))

	_, _, err = f.anyone.Relay(acct, bob, big.NewInt(1), nil)
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	_, _, err = f.owner.Relay(alice, bob, big.NewInt(1), nil)
	assert.ErrorIs(t, err, interfaces.ErrInvalidTarget)

	res, receipt, err := f.owner.Relay(acct, bob, big.NewInt(40), nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int64(40), f.env.Balance(bob).Int64())
	assert.Len(t, chain.FilterLogs(receipt.Logs, account.ABI.Events["Executed"], &acct), 1)

	// Inner failures are reported, not raised.
	res, _, err = f.owner.Relay(acct, bob, big.NewInt(1000), nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, int64(60), f.env.Balance(acct).Int64())
}

func TestIssueTicket(t *testing.T) {
	f := setup(t)
	issuer := ticket.NewClient(f.env, f.issuer)

	_, _, err := f.anyone.IssueTicket(alice, "DevCon", "A-1")
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	id, receipt, err := f.owner.IssueTicket(alice, "DevCon", "A-1")
	require.NoError(t, err)
	assert.Len(t, chain.FilterLogs(receipt.Logs, ABI.Events["AccountCreated"], &f.registry), 1)

	acct, ok, err := f.anyone.GetAccount(alice)
	require.NoError(t, err)
	require.True(t, ok)

	holder, err := issuer.OwnerOf(id)
	require.NoError(t, err)
	assert.Equal(t, acct, holder)

	t.Run("existing account", func(t *testing.T) {
		id2, receipt, err := f.owner.IssueTicket(alice, "DevCon", "A-2")
		require.NoError(t, err)
		assert.Empty(t, chain.FilterLogs(receipt.Logs, ABI.Events["AccountCreated"], &f.registry))
		assert.NotEqual(t, id, id2)
	})

	t.Run("paused issuer aborts", func(t *testing.T) {
		require.NoError(t, issuer.Pause(admin))
		defer func() { require.NoError(t, issuer.Unpause(admin)) }()

		_, _, err := f.owner.IssueTicket(bob, "DevCon", "B-1")
		assert.ErrorIs(t, err, interfaces.ErrPaused)

		// The account creation was rolled back with the request.
		_, ok, err := f.anyone.GetAccount(bob)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("account uses its ticket", func(t *testing.T) {
		data, err := ticket.ABI.Pack("use", id)
		require.NoError(t, err)

		ac := account.NewClient(f.env, acct)
		ac.SetSender(alice)
		res, _, err := ac.Execute(f.issuer, nil, data)
		require.NoError(t, err)
		assert.True(t, res.Success)

		used, err := issuer.IsUsed(id)
		require.NoError(t, err)
		assert.True(t, used)
	})
}

func TestIssueTicketWithoutIssuer(t *testing.T) {
	env := chain.NewEnv(nil)
	var reg common.Address
	_, err := env.Run(func(host interfaces.Host) error {
		logic, err := host.Deploy(admin, NewLogic())
		if err != nil {
			return err
		}
		reg, err = host.Deploy(admin, NewProxy(logic))
		return err
	})
	require.NoError(t, err)

	c := NewClient(env, reg)
	c.SetSender(admin)
	_, err = c.Initialize(admin, nil, common.Address{})
	require.NoError(t, err)

	_, _, err = c.IssueTicket(alice, "DevCon", "A-1")
	assert.ErrorIs(t, err, interfaces.ErrInvalidTarget)
}

func TestUpgrade(t *testing.T) {
	f := setup(t)
	acct, _, err := f.anyone.CreateAccount(alice)
	require.NoError(t, err)

	var v2 common.Address
	_, err = f.env.Run(func(host interfaces.Host) error {
		var err error
		v2, err = host.Deploy(admin, &Logic{version: "2.0.0"})
		return err
	})
	require.NoError(t, err)

	_, err = f.anyone.UpgradeTo(v2)
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	_, err = f.owner.UpgradeTo(f.token)
	assert.ErrorIs(t, err, interfaces.ErrInvalidTarget)

	_, err = f.owner.UpgradeTo(v2)
	require.NoError(t, err)

	impl, err := f.anyone.Implementation()
	require.NoError(t, err)
	assert.Equal(t, v2, impl)

	version, err := f.anyone.Version()
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", version)

	got, ok, err := f.anyone.GetAccount(alice)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, acct, got)

	_, _, err = f.anyone.CreateAccount(alice)
	assert.ErrorIs(t, err, interfaces.ErrAlreadyExists)
}

func TestDirectLogicCall(t *testing.T) {
	f := setup(t)
	data, err := ABI.Pack("createAccount", alice)
	require.NoError(t, err)

	_, err = f.env.Transact(stranger, f.logic, nil, data)
	assert.Error(t, err)
}

func TestCheckpointRoundTrip(t *testing.T) {
	f := setup(t)
	acct, _, err := f.anyone.CreateAccount(alice)
	require.NoError(t, err)
	require.NoError(t, f.env.Fund(acct, big.NewInt(7)))

	data, err := f.env.MarshalDump()
	require.NoError(t, err)

	restored, err := chain.UnmarshalDump(data, map[string]chain.Codec{
		LogicKind:    RestoreLogic,
		ProxyKind:    RestoreProxy,
		account.Kind: account.Restore,
		token.Kind:   token.Restore,
		ticket.Kind:  ticket.Restore,
	}, nil)
	require.NoError(t, err)

	c := NewClient(restored, f.registry)
	c.SetSender(stranger)

	got, ok, err := c.GetAccount(alice)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, acct, got)
	assert.Equal(t, int64(7), restored.Balance(acct).Int64())

	_, _, err = c.CreateAccount(alice)
	assert.ErrorIs(t, err, interfaces.ErrAlreadyExists)

	addr, _, err := c.CreateAccount(bob)
	require.NoError(t, err)
	at, err := c.AccountAt(1)
	require.NoError(t, err)
	assert.Equal(t, addr, at)
}
