package registry

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/account-registry/chain"
	"github.com/ruteri/account-registry/interfaces"
	"github.com/ruteri/account-registry/proxy"
)

// Client is a typed binding to a registry deployed behind a proxy.
// State-changing methods require a sender, set with SetSender.
type Client struct {
	contract *chain.BoundContract
	proxy    *chain.BoundContract
	from     *common.Address
}

// NewClient binds the registry proxy at address.
func NewClient(backend interfaces.Backend, address common.Address) *Client {
	return &Client{
		contract: chain.NewBoundContract(backend, address, &ABI),
		proxy:    chain.NewBoundContract(backend, address, &proxy.ABI),
	}
}

// SetSender sets the caller used for state-changing methods.
func (c *Client) SetSender(from common.Address) {
	c.from = &from
}

// Address returns the stable registry address.
func (c *Client) Address() common.Address {
	return c.contract.Address()
}

func (c *Client) sender() common.Address {
	if c.from == nil {
		return common.Address{}
	}
	return *c.from
}

func (c *Client) callAddress(method string, args ...interface{}) (common.Address, error) {
	out, err := c.contract.Call(c.sender(), method, args...)
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

// Initialize sets up registry storage. It succeeds once.
func (c *Client) Initialize(owner common.Address, approvedTokens []common.Address, ticketIssuer common.Address) (*interfaces.Receipt, error) {
	if c.from == nil {
		return nil, chain.ErrNoSender
	}
	if approvedTokens == nil {
		approvedTokens = []common.Address{}
	}
	receipt, _, err := c.contract.Transact(*c.from, nil, "initialize", owner, approvedTokens, ticketIssuer)
	return receipt, err
}

// CreateAccount deploys and registers the account of identity. It fails
// with AlreadyExists if identity already has one.
func (c *Client) CreateAccount(identity common.Address) (common.Address, *interfaces.Receipt, error) {
	return c.transactAddress("createAccount", identity)
}

// GetOrCreateAccount returns the account of identity, creating it if needed.
func (c *Client) GetOrCreateAccount(identity common.Address) (common.Address, *interfaces.Receipt, error) {
	return c.transactAddress("getOrCreateAccount", identity)
}

func (c *Client) transactAddress(method string, identity common.Address) (common.Address, *interfaces.Receipt, error) {
	if c.from == nil {
		return common.Address{}, nil, chain.ErrNoSender
	}
	receipt, out, err := c.contract.Transact(*c.from, nil, method, identity)
	if err != nil {
		return common.Address{}, nil, err
	}
	return out[0].(common.Address), receipt, nil
}

// PredictAddress returns the address the account of identity has or will have.
func (c *Client) PredictAddress(identity common.Address) (common.Address, error) {
	return c.callAddress("predictAddress", identity)
}

// GetAccount returns the account of identity, if one has been created.
func (c *Client) GetAccount(identity common.Address) (common.Address, bool, error) {
	addr, err := c.callAddress("getAccount", identity)
	if err != nil {
		return common.Address{}, false, err
	}
	return addr, addr != (common.Address{}), nil
}

func (c *Client) IsAccount(addr common.Address) (bool, error) {
	out, err := c.contract.Call(c.sender(), "isAccount", addr)
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

func (c *Client) TotalAccounts() (uint64, error) {
	out, err := c.contract.Call(c.sender(), "totalAccounts")
	if err != nil {
		return 0, err
	}
	return out[0].(*big.Int).Uint64(), nil
}

// AccountAt returns the account created at position index.
func (c *Client) AccountAt(index uint64) (common.Address, error) {
	return c.callAddress("accountAt", new(big.Int).SetUint64(index))
}

func (c *Client) Owner() (common.Address, error) {
	return c.callAddress("owner")
}

func (c *Client) TicketIssuer() (common.Address, error) {
	return c.callAddress("ticketIssuer")
}

func (c *Client) ApprovedTokens() ([]common.Address, error) {
	out, err := c.contract.Call(c.sender(), "approvedTokens")
	if err != nil {
		return nil, err
	}
	return out[0].([]common.Address), nil
}

func (c *Client) Version() (string, error) {
	out, err := c.contract.Call(c.sender(), "version")
	if err != nil {
		return "", err
	}
	return out[0].(string), nil
}

// Relay executes a call through a registered account on behalf of the
// registry owner.
func (c *Client) Relay(acct, target common.Address, value *big.Int, data []byte) (*interfaces.CallResult, *interfaces.Receipt, error) {
	if c.from == nil {
		return nil, nil, chain.ErrNoSender
	}
	if value == nil {
		value = new(big.Int)
	}
	if data == nil {
		data = []byte{}
	}
	receipt, out, err := c.contract.Transact(*c.from, nil, "relay", acct, target, value, data)
	if err != nil {
		return nil, nil, err
	}
	return &interfaces.CallResult{Success: out[0].(bool), ReturnData: out[1].([]byte)}, receipt, nil
}

// IssueTicket mints a ticket to the account of identity.
func (c *Client) IssueTicket(identity common.Address, eventName, seat string) (*big.Int, *interfaces.Receipt, error) {
	if c.from == nil {
		return nil, nil, chain.ErrNoSender
	}
	receipt, out, err := c.contract.Transact(*c.from, nil, "issueTicket", identity, eventName, seat)
	if err != nil {
		return nil, nil, err
	}
	return out[0].(*big.Int), receipt, nil
}

// Implementation returns the logic address the proxy currently uses.
func (c *Client) Implementation() (common.Address, error) {
	out, err := c.proxy.Call(c.sender(), "implementation")
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

// UpgradeTo repoints the proxy at newLogic. Only the registry owner may.
func (c *Client) UpgradeTo(newLogic common.Address) (*interfaces.Receipt, error) {
	if c.from == nil {
		return nil, chain.ErrNoSender
	}
	receipt, _, err := c.proxy.Transact(*c.from, nil, "upgradeTo", newLogic)
	return receipt, err
}
