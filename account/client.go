package account

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/account-registry/chain"
	"github.com/ruteri/account-registry/interfaces"
)

// Client is a typed binding to an account deployed in an environment.
type Client struct {
	contract *chain.BoundContract
	from     *common.Address
}

// NewClient binds the account at address.
func NewClient(backend interfaces.Backend, address common.Address) *Client {
	return &Client{contract: chain.NewBoundContract(backend, address, &ABI)}
}

// SetSender sets the caller used for state-changing methods.
func (c *Client) SetSender(from common.Address) {
	c.from = &from
}

// Address returns the account address.
func (c *Client) Address() common.Address {
	return c.contract.Address()
}

func (c *Client) sender() common.Address {
	if c.from == nil {
		return common.Address{}
	}
	return *c.from
}

// Owner returns the identity owning the account.
func (c *Client) Owner() (common.Address, error) {
	out, err := c.contract.Call(c.sender(), "owner")
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

// Controller returns the privileged caller of the account, normally the registry.
func (c *Client) Controller() (common.Address, error) {
	out, err := c.contract.Call(c.sender(), "controller")
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

// GetBalance returns the native value held by the account.
func (c *Client) GetBalance() (*big.Int, error) {
	out, err := c.contract.Call(c.sender(), "getBalance")
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (c *Client) IsApprovedToken(token common.Address) (bool, error) {
	out, err := c.contract.Call(c.sender(), "isApprovedToken", token)
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

func (c *Client) ApprovedTokens() ([]common.Address, error) {
	out, err := c.contract.Call(c.sender(), "approvedTokens")
	if err != nil {
		return nil, err
	}
	return out[0].([]common.Address), nil
}

// Initialize binds the account to its owner and controller.
func (c *Client) Initialize(owner, controller common.Address) (*interfaces.Receipt, error) {
	if c.from == nil {
		return nil, chain.ErrNoSender
	}
	receipt, _, err := c.contract.Transact(*c.from, nil, "initialize", owner, controller)
	return receipt, err
}

// Execute performs a single call through the account. A failing target is
// reported in the result rather than as an error.
func (c *Client) Execute(target common.Address, value *big.Int, data []byte) (*interfaces.CallResult, *interfaces.Receipt, error) {
	if c.from == nil {
		return nil, nil, chain.ErrNoSender
	}
	if value == nil {
		value = new(big.Int)
	}
	receipt, out, err := c.contract.Transact(*c.from, nil, "execute", target, value, nonNil(data))
	if err != nil {
		return nil, nil, err
	}
	return &interfaces.CallResult{Success: out[0].(bool), ReturnData: out[1].([]byte)}, receipt, nil
}

// ExecuteBatch performs calls in order. Each element succeeds or fails on
// its own; earlier successes are kept when a later element fails.
func (c *Client) ExecuteBatch(calls []interfaces.Call) ([]interfaces.CallResult, *interfaces.Receipt, error) {
	if c.from == nil {
		return nil, nil, chain.ErrNoSender
	}

	targets, values, data := SplitCalls(calls)
	receipt, out, err := c.contract.Transact(*c.from, nil, "executeBatch", targets, values, data)
	if err != nil {
		return nil, nil, err
	}

	successes := out[0].([]bool)
	returnData := out[1].([][]byte)
	results := make([]interfaces.CallResult, len(successes))
	for i := range successes {
		results[i] = interfaces.CallResult{Success: successes[i], ReturnData: returnData[i]}
	}
	return results, receipt, nil
}

// PayWithApprovedToken moves amount of an approved token from the owner to
// recipient, using the allowance the owner granted the account.
func (c *Client) PayWithApprovedToken(token, recipient common.Address, amount *big.Int) (*interfaces.Receipt, error) {
	if c.from == nil {
		return nil, chain.ErrNoSender
	}
	receipt, _, err := c.contract.Transact(*c.from, nil, "payWithApprovedToken", token, recipient, amount)
	return receipt, err
}

// EmergencyWithdraw sends amount of native value to `to`. Zero withdraws
// the full balance.
func (c *Client) EmergencyWithdraw(to common.Address, amount *big.Int) (*interfaces.Receipt, error) {
	if c.from == nil {
		return nil, chain.ErrNoSender
	}
	if amount == nil {
		amount = new(big.Int)
	}
	receipt, _, err := c.contract.Transact(*c.from, nil, "emergencyWithdraw", to, amount)
	return receipt, err
}

// Deposit sends plain value to the account.
func (c *Client) Deposit(value *big.Int) (*interfaces.Receipt, error) {
	if c.from == nil {
		return nil, chain.ErrNoSender
	}
	return c.contract.Send(*c.from, value)
}

// SplitCalls converts calls into the parallel argument lists of executeBatch.
func SplitCalls(calls []interfaces.Call) ([]common.Address, []*big.Int, [][]byte) {
	targets := make([]common.Address, len(calls))
	values := make([]*big.Int, len(calls))
	data := make([][]byte, len(calls))
	for i, call := range calls {
		targets[i] = call.Target
		values[i] = call.Value
		if values[i] == nil {
			values[i] = new(big.Int)
		}
		data[i] = nonNil(call.Data)
	}
	return targets, values, data
}
