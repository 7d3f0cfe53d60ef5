package interfaces

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Message is one message call delivered to a contract.
type Message struct {
	From  common.Address
	To    common.Address
	Value *big.Int
	Data  []byte
}

// Selector returns the 4-byte function selector of the payload, if any.
func (m Message) Selector() ([]byte, bool) {
	if len(m.Data) < 4 {
		return nil, false
	}
	return m.Data[:4], true
}

// Host is the execution environment as seen from inside a contract.
// Every state change a contract makes must be paired with a Journal entry
// so the environment can undo it when the surrounding request fails.
type Host interface {
	// Call delivers a nested message call. A returned error means the callee
	// reverted and all of its effects have already been undone.
	Call(from, to common.Address, value *big.Int, data []byte) ([]byte, error)

	// Balance returns the native value held at addr.
	Balance(addr common.Address) *big.Int

	// Code returns the contract installed at addr.
	Code(addr common.Address) (Contract, bool)

	// Deploy installs code at the next nonce-derived address of deployer.
	Deploy(deployer common.Address, code Contract) (common.Address, error)

	// Deploy2 installs code at the content-derived address of
	// (deployer, salt, initPayload).
	Deploy2(deployer common.Address, salt [32]byte, initPayload []byte, code Contract) (common.Address, error)

	// Emit appends an event log to the current request.
	Emit(log *types.Log)

	// Journal registers an undo action for a state change just made.
	Journal(undo func())
}

// Contract is executable logic installed at an address.
type Contract interface {
	Receive(host Host, msg Message) ([]byte, error)
}

// Persistent is implemented by contracts whose state is part of a checkpoint.
type Persistent interface {
	Kind() string
	MarshalState() ([]byte, error)
}

// Receipt describes a committed top-level request.
type Receipt struct {
	ReturnData []byte
	Logs       []*types.Log
}

// Backend submits top-level requests to the execution environment.
// Each Transact either commits entirely or has no effect.
type Backend interface {
	Transact(from, to common.Address, value *big.Int, data []byte) (*Receipt, error)
	CallView(from, to common.Address, data []byte) ([]byte, error)
	Balance(addr common.Address) *big.Int
}

// Call is one element of a batch execution.
type Call struct {
	Target common.Address
	Value  *big.Int
	Data   []byte
}

// CallResult is the reported outcome of a proxied call.
type CallResult struct {
	Success    bool
	ReturnData []byte
}

// Err decodes the revert data of a failed call, or returns nil on success.
func (r CallResult) Err() error {
	if r.Success {
		return nil
	}
	return DecodeRevert(r.ReturnData)
}
