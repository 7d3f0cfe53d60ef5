package chain

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/account-registry/interfaces"
)

// ErrNoSender is returned by typed clients when a state-changing call is
// attempted before a sender has been set.
var ErrNoSender = errors.New("no sender configured")

// BoundContract pairs a deployed contract with its ABI so that typed
// clients can pack calls and unpack results through a Backend.
type BoundContract struct {
	backend interfaces.Backend
	abi     *abi.ABI
	address common.Address
}

// NewBoundContract binds the contract at address.
func NewBoundContract(backend interfaces.Backend, address common.Address, contractABI *abi.ABI) *BoundContract {
	return &BoundContract{backend: backend, abi: contractABI, address: address}
}

// Address returns the bound contract address.
func (c *BoundContract) Address() common.Address {
	return c.address
}

// Call invokes a view method and returns its unpacked outputs.
func (c *BoundContract) Call(from common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("could not pack %s: %w", method, err)
	}

	ret, err := c.backend.CallView(from, c.address, data)
	if err != nil {
		return nil, err
	}
	return c.abi.Unpack(method, ret)
}

// Transact submits a state-changing method call as one request and returns
// the receipt together with the unpacked outputs.
func (c *BoundContract) Transact(from common.Address, value *big.Int, method string, args ...interface{}) (*interfaces.Receipt, []interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("could not pack %s: %w", method, err)
	}

	receipt, err := c.backend.Transact(from, c.address, value, data)
	if err != nil {
		return nil, nil, err
	}

	if m, ok := c.abi.Methods[method]; ok && len(m.Outputs) == 0 {
		return receipt, nil, nil
	}
	out, err := c.abi.Unpack(method, receipt.ReturnData)
	if err != nil {
		return receipt, nil, fmt.Errorf("could not unpack %s result: %w", method, err)
	}
	return receipt, out, nil
}

// Send transfers plain value to the bound contract with an empty payload.
func (c *BoundContract) Send(from common.Address, value *big.Int) (*interfaces.Receipt, error) {
	return c.backend.Transact(from, c.address, value, nil)
}
