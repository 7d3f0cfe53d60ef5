package registry

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/account-registry/account"
	"github.com/ruteri/account-registry/chain"
	"github.com/ruteri/account-registry/derive"
	"github.com/ruteri/account-registry/interfaces"
	"github.com/ruteri/account-registry/proxy"
	"github.com/ruteri/account-registry/ticket"
)

const (
	// Version is the version reported by the current registry logic.
	Version = "1.0.0"

	// LogicKind and ProxyKind name the registry contracts in checkpoints.
	LogicKind = "RegistryLogic"
	ProxyKind = "AccountRegistry"
)

// Logic is the registry implementation installed behind a proxy.Proxy.
// It keeps no state of its own; every call operates on the proxy's Storage.
type Logic struct {
	version string
}

// NewLogic returns the current registry logic.
func NewLogic() *Logic {
	return &Logic{version: Version}
}

// NewProxy returns registry storage behind a proxy pointing at logic.
func NewProxy(logic common.Address) *proxy.Proxy[Storage] {
	return proxy.New(ProxyKind, logic, NewStorage())
}

// Receive implements interfaces.Contract. Logic only runs through a proxy, so
// a direct call fails.
func (l *Logic) Receive(interfaces.Host, interfaces.Message) ([]byte, error) {
	return nil, proxy.ErrDirectCall
}

// AuthorizeUpgrade allows only the registry owner to swap the logic.
func (l *Logic) AuthorizeUpgrade(s *Storage, caller common.Address) error {
	return onlyOwner(s, caller)
}

func onlyOwner(s *Storage, caller common.Address) error {
	if !s.Initialized || caller != s.Owner {
		return interfaces.ErrUnauthorized
	}
	return nil
}

// Handle implements proxy.Logic, dispatching a registry call against the
// proxy's storage.
func (l *Logic) Handle(host interfaces.Host, msg interfaces.Message, s *Storage) ([]byte, error) {
	s.ensureMaps()

	method, args, matched, err := chain.Dispatch(&ABI, msg)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, fmt.Errorf("%w: registry does not accept plain calls", chain.ErrMalformedCalldata)
	}
	self := msg.To

	switch method.Name {
	case "initialize":
		return nil, l.initialize(host, self, s, args[0].(common.Address), args[1].([]common.Address), args[2].(common.Address))
	case "createAccount":
		addr, err := l.createAccount(host, self, s, args[0].(common.Address))
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(addr)
	case "getOrCreateAccount":
		addr, err := l.getOrCreateAccount(host, self, s, args[0].(common.Address))
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(addr)
	case "predictAddress":
		addr, err := PredictAddress(self, s.ApprovedTokens, args[0].(common.Address))
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(addr)
	case "getAccount":
		return method.Outputs.Pack(s.Accounts[args[0].(common.Address)])
	case "isAccount":
		return method.Outputs.Pack(s.Members[args[0].(common.Address)])
	case "totalAccounts":
		return method.Outputs.Pack(big.NewInt(int64(len(s.List))))
	case "accountAt":
		index := args[0].(*big.Int)
		if !index.IsInt64() || index.Int64() >= int64(len(s.List)) {
			return nil, interfaces.ErrIndexOutOfRange
		}
		return method.Outputs.Pack(s.List[index.Int64()])
	case "owner":
		return method.Outputs.Pack(s.Owner)
	case "approvedTokens":
		return method.Outputs.Pack(append([]common.Address{}, s.ApprovedTokens...))
	case "ticketIssuer":
		return method.Outputs.Pack(s.TicketIssuer)
	case "version":
		return method.Outputs.Pack(l.version)
	case "relay":
		res, err := l.relay(host, msg, s, args[0].(common.Address), args[1].(common.Address), args[2].(*big.Int), args[3].([]byte))
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(res.Success, res.ReturnData)
	case "issueTicket":
		id, err := l.issueTicket(host, msg, s, args[0].(common.Address), args[1].(string), args[2].(string))
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(id)
	}
	return nil, fmt.Errorf("%w: unhandled method %s", chain.ErrMalformedCalldata, method.Name)
}

func (l *Logic) initialize(host interfaces.Host, self common.Address, s *Storage, owner common.Address, tokens []common.Address, issuer common.Address) error {
	if s.Initialized {
		return interfaces.ErrAlreadyInitialized
	}
	if owner == (common.Address{}) {
		return interfaces.ErrInvalidOwner
	}
	for _, token := range tokens {
		if token == (common.Address{}) {
			return interfaces.ErrUnsupportedToken
		}
	}

	chain.Set(host, &s.Owner, owner)
	chain.Set(host, &s.ApprovedTokens, append([]common.Address{}, tokens...))
	chain.Set(host, &s.TicketIssuer, issuer)
	chain.Set(host, &s.Initialized, true)

	return chain.EmitEvent(host, self, ABI.Events["Initialized"], []common.Hash{chain.AddressTopic(owner)}, issuer)
}

// deployment is everything needed to place an identity's account. Creation
// and prediction both go through accountDeployment so they cannot disagree.
type deployment struct {
	salt    [32]byte
	payload []byte
	address common.Address
}

func accountDeployment(registry common.Address, approvedTokens []common.Address, identity common.Address) (*deployment, error) {
	payload, err := account.InitPayload(approvedTokens)
	if err != nil {
		return nil, err
	}
	salt := derive.Salt(identity)
	return &deployment{
		salt:    salt,
		payload: payload,
		address: derive.Address(registry, salt, payload),
	}, nil
}

// PredictAddress computes the address at which the registry deployed at
// registry places the account of identity, whether or not it exists yet.
func PredictAddress(registry common.Address, approvedTokens []common.Address, identity common.Address) (common.Address, error) {
	d, err := accountDeployment(registry, approvedTokens, identity)
	if err != nil {
		return common.Address{}, err
	}
	return d.address, nil
}

func (l *Logic) createAccount(host interfaces.Host, self common.Address, s *Storage, identity common.Address) (common.Address, error) {
	if identity == (common.Address{}) {
		return common.Address{}, interfaces.ErrInvalidOwner
	}
	if _, exists := s.Accounts[identity]; exists {
		return common.Address{}, interfaces.ErrAlreadyExists
	}

	d, err := accountDeployment(self, s.ApprovedTokens, identity)
	if err != nil {
		return common.Address{}, err
	}
	addr, err := host.Deploy2(self, d.salt, d.payload, account.New(s.ApprovedTokens))
	if err != nil {
		return common.Address{}, err
	}

	initData, err := account.ABI.Pack("initialize", identity, self)
	if err != nil {
		return common.Address{}, err
	}
	if _, err := host.Call(self, addr, nil, initData); err != nil {
		return common.Address{}, err
	}

	index := big.NewInt(int64(len(s.List)))
	chain.SetKey(host, s.Accounts, identity, addr)
	chain.SetKey(host, s.Members, addr, true)
	chain.Push(host, &s.List, addr)

	err = chain.EmitEvent(host, self, ABI.Events["AccountCreated"],
		[]common.Hash{chain.AddressTopic(identity), chain.AddressTopic(addr)}, index)
	return addr, err
}

func (l *Logic) getOrCreateAccount(host interfaces.Host, self common.Address, s *Storage, identity common.Address) (common.Address, error) {
	if addr, exists := s.Accounts[identity]; exists {
		return addr, nil
	}
	return l.createAccount(host, self, s, identity)
}

// relay executes a call through a registered account, with the registry
// acting as the account's controller.
func (l *Logic) relay(host interfaces.Host, msg interfaces.Message, s *Storage, acct, target common.Address, value *big.Int, data []byte) (*interfaces.CallResult, error) {
	if err := onlyOwner(s, msg.From); err != nil {
		return nil, err
	}
	if !s.Members[acct] {
		return nil, interfaces.ErrInvalidTarget
	}

	calldata, err := account.ABI.Pack("execute", target, value, data)
	if err != nil {
		return nil, err
	}
	ret, err := host.Call(msg.To, acct, nil, calldata)
	if err != nil {
		return nil, err
	}
	out, err := account.ABI.Unpack("execute", ret)
	if err != nil {
		return nil, fmt.Errorf("could not unpack execute result: %w", err)
	}
	return &interfaces.CallResult{Success: out[0].(bool), ReturnData: out[1].([]byte)}, nil
}

// issueTicket mints a ticket to the identity's account, creating the
// account first if needed.
func (l *Logic) issueTicket(host interfaces.Host, msg interfaces.Message, s *Storage, identity common.Address, eventName, seat string) (*big.Int, error) {
	if err := onlyOwner(s, msg.From); err != nil {
		return nil, err
	}
	if s.TicketIssuer == (common.Address{}) {
		return nil, interfaces.ErrInvalidTarget
	}

	acct, err := l.getOrCreateAccount(host, msg.To, s, identity)
	if err != nil {
		return nil, err
	}

	calldata, err := ticket.ABI.Pack("mint", acct, eventName, seat)
	if err != nil {
		return nil, err
	}
	ret, err := host.Call(msg.To, s.TicketIssuer, nil, calldata)
	if err != nil {
		return nil, err
	}
	out, err := ticket.ABI.Unpack("mint", ret)
	if err != nil {
		return nil, fmt.Errorf("could not unpack mint result: %w", err)
	}
	id := out[0].(*big.Int)

	err = chain.EmitEvent(host, msg.To, ABI.Events["TicketIssued"],
		[]common.Hash{chain.AddressTopic(identity), chain.AddressTopic(acct)}, id)
	return id, err
}

type persistedLogic struct {
	Version string `json:"version"`
}

// Kind implements interfaces.Persistent.
func (l *Logic) Kind() string { return LogicKind }

// MarshalState implements interfaces.Persistent. Only the version is kept;
// registry state lives in the proxy.
func (l *Logic) MarshalState() ([]byte, error) {
	return json.Marshal(persistedLogic{Version: l.version})
}

// RestoreLogic rebuilds registry logic from a checkpoint.
func RestoreLogic(state []byte) (interfaces.Contract, error) {
	var p persistedLogic
	if err := json.Unmarshal(state, &p); err != nil {
		return nil, fmt.Errorf("could not decode registry logic: %w", err)
	}
	return &Logic{version: p.Version}, nil
}

// RestoreProxy rebuilds the registry proxy and its storage from a checkpoint.
func RestoreProxy(state []byte) (interfaces.Contract, error) {
	p, err := proxy.Restore[Storage](ProxyKind, state)
	if err != nil {
		return nil, err
	}
	return p, nil
}

var (
	_ proxy.Logic[Storage]  = (*Logic)(nil)
	_ interfaces.Persistent = (*Logic)(nil)
)
