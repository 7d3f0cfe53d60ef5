package ticket

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/account-registry/chain"
	"github.com/ruteri/account-registry/interfaces"
)

// Client is a typed binding to a deployed ticket issuer.
type Client struct {
	contract *chain.BoundContract
}

func NewClient(backend interfaces.Backend, address common.Address) *Client {
	return &Client{contract: chain.NewBoundContract(backend, address, &ABI)}
}

func (c *Client) Address() common.Address {
	return c.contract.Address()
}

// Mint issues a ticket to `to` and returns its id. from must be an
// authorized minter.
func (c *Client) Mint(from, to common.Address, eventName, seat string) (*big.Int, error) {
	_, out, err := c.contract.Transact(from, nil, "mint", to, eventName, seat)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// Use redeems a ticket. from must be its holder.
func (c *Client) Use(from common.Address, id *big.Int) error {
	_, _, err := c.contract.Transact(from, nil, "use", id)
	return err
}

func (c *Client) SetAuthorizedMinter(from, minter common.Address, authorized bool) error {
	_, _, err := c.contract.Transact(from, nil, "setAuthorizedMinter", minter, authorized)
	return err
}

func (c *Client) Pause(from common.Address) error {
	_, _, err := c.contract.Transact(from, nil, "pause")
	return err
}

func (c *Client) Unpause(from common.Address) error {
	_, _, err := c.contract.Transact(from, nil, "unpause")
	return err
}

func (c *Client) IsUsed(id *big.Int) (bool, error) {
	out, err := c.contract.Call(common.Address{}, "isUsed", id)
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

func (c *Client) OwnerOf(id *big.Int) (common.Address, error) {
	out, err := c.contract.Call(common.Address{}, "ownerOf", id)
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

func (c *Client) BalanceOf(holder common.Address) (uint64, error) {
	out, err := c.contract.Call(common.Address{}, "balanceOf", holder)
	if err != nil {
		return 0, err
	}
	return out[0].(*big.Int).Uint64(), nil
}

// TicketInfo returns the stored details of a ticket.
func (c *Client) TicketInfo(id *big.Int) (*Ticket, error) {
	out, err := c.contract.Call(common.Address{}, "ticketInfo", id)
	if err != nil {
		return nil, err
	}
	holder, err := c.OwnerOf(id)
	if err != nil {
		return nil, err
	}
	return &Ticket{
		Holder:    holder,
		EventName: out[0].(string),
		Seat:      out[1].(string),
		Used:      out[2].(bool),
	}, nil
}

func (c *Client) IsAuthorizedMinter(minter common.Address) (bool, error) {
	out, err := c.contract.Call(common.Address{}, "isAuthorizedMinter", minter)
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}
