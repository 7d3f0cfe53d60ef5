package chain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ruteri/account-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storeABI = `[
	{"type":"function","name":"get","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"set","stateMutability":"nonpayable","inputs":[{"name":"v","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"fail","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"event","name":"Stored","inputs":[{"name":"v","type":"uint256","indexed":false}]}
]`

var storeContractABI = MustParseABI(storeABI)

// valueStore keeps one number and rejects everything it does not know.
type valueStore struct {
	value *big.Int
}

func (s *valueStore) Receive(host interfaces.Host, msg interfaces.Message) ([]byte, error) {
	method, args, matched, err := Dispatch(&storeContractABI, msg)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, interfaces.ErrInvalidTarget
	}
	switch method.Name {
	case "get":
		return method.Outputs.Pack(s.value)
	case "set":
		Set(host, &s.value, args[0].(*big.Int))
		return nil, EmitEvent(host, msg.To, storeContractABI.Events["Stored"], nil, s.value)
	default:
		return nil, interfaces.ErrUnauthorized
	}
}

func TestBoundContract(t *testing.T) {
	env := newTestEnv(t)
	store := &valueStore{value: new(big.Int)}
	var bound *BoundContract
	_, err := env.Run(func(host interfaces.Host) error {
		addr, err := host.Deploy(alice, store)
		bound = NewBoundContract(env, addr, &storeContractABI)
		return err
	})
	require.NoError(t, err)

	receipt, out, err := bound.Transact(alice, nil, "set", big.NewInt(7))
	require.NoError(t, err)
	assert.Nil(t, out)

	addr := bound.Address()
	logs := FilterLogs(receipt.Logs, storeContractABI.Events["Stored"], &addr)
	require.Len(t, logs, 1)
	assert.Empty(t, FilterLogs(receipt.Logs, storeContractABI.Events["Stored"], &alice))

	got, err := bound.Call(alice, "get")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), abi.ConvertType(got[0], new(big.Int)))

	_, _, err = bound.Transact(alice, nil, "fail")
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	_, err = bound.Send(alice, nil)
	assert.ErrorIs(t, err, interfaces.ErrInvalidTarget)

	_, err = bound.Call(alice, "missing")
	assert.Error(t, err)
}

func TestDispatch_MalformedCalldata(t *testing.T) {
	sel := storeContractABI.Methods["set"].ID
	_, _, matched, err := Dispatch(&storeContractABI, interfaces.Message{Data: append(append([]byte{}, sel...), 0x01)})
	assert.True(t, matched)
	assert.ErrorIs(t, err, ErrMalformedCalldata)

	_, _, matched, err = Dispatch(&storeContractABI, interfaces.Message{Data: []byte{1, 2}})
	assert.False(t, matched)
	assert.NoError(t, err)
}
