package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/account-registry/chain"
	"github.com/ruteri/account-registry/interfaces"
)

// Client is a typed binding to a deployed token.
type Client struct {
	contract *chain.BoundContract
}

func NewClient(backend interfaces.Backend, address common.Address) *Client {
	return &Client{contract: chain.NewBoundContract(backend, address, &ABI)}
}

func (c *Client) Address() common.Address {
	return c.contract.Address()
}

func (c *Client) BalanceOf(holder common.Address) (*big.Int, error) {
	out, err := c.contract.Call(common.Address{}, "balanceOf", holder)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (c *Client) Allowance(holder, spender common.Address) (*big.Int, error) {
	out, err := c.contract.Call(common.Address{}, "allowance", holder, spender)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// Mint creates amount new tokens for `to`. from must be the token owner.
func (c *Client) Mint(from, to common.Address, amount *big.Int) error {
	_, _, err := c.contract.Transact(from, nil, "mint", to, amount)
	return err
}

// Approve lets spender move up to amount of from's tokens.
func (c *Client) Approve(from, spender common.Address, amount *big.Int) error {
	_, _, err := c.contract.Transact(from, nil, "approve", spender, amount)
	return err
}

// Transfer moves amount from `from` to `to` and reports whether it happened.
func (c *Client) Transfer(from, to common.Address, amount *big.Int) (bool, error) {
	_, out, err := c.contract.Transact(from, nil, "transfer", to, amount)
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}
