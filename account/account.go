package account

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/account-registry/chain"
	"github.com/ruteri/account-registry/derive"
	"github.com/ruteri/account-registry/interfaces"
)

// Kind names the account in environment checkpoints.
const Kind = "SmartAccount"

// Account is a per-identity smart account. It holds native value and
// performs calls on behalf of its owner or its controller.
type Account struct {
	owner       common.Address
	controller  common.Address
	initialized bool

	tokens     []common.Address
	isApproved map[common.Address]bool

	// executing is the re-entrancy guard. It never outlives a single call
	// and is not part of the persisted state.
	executing bool
}

// New returns an uninitialized account whose approved-token allow-list is
// fixed to approvedTokens.
func New(approvedTokens []common.Address) *Account {
	a := &Account{
		tokens:     make([]common.Address, 0, len(approvedTokens)),
		isApproved: make(map[common.Address]bool, len(approvedTokens)),
	}
	for _, token := range approvedTokens {
		if a.isApproved[token] {
			continue
		}
		a.isApproved[token] = true
		a.tokens = append(a.tokens, token)
	}
	return a
}

// ConstructorArgs ABI-encodes the constructor arguments of an account.
func ConstructorArgs(approvedTokens []common.Address) ([]byte, error) {
	if approvedTokens == nil {
		approvedTokens = []common.Address{}
	}
	args, err := ABI.Pack("", approvedTokens)
	if err != nil {
		return nil, fmt.Errorf("could not pack constructor arguments: %w", err)
	}
	return args, nil
}

// InitPayload returns the creation payload of an account with the given
// allow-list: Bytecode followed by the encoded constructor arguments.
func InitPayload(approvedTokens []common.Address) ([]byte, error) {
	args, err := ConstructorArgs(approvedTokens)
	if err != nil {
		return nil, err
	}
	return derive.InitPayload(Bytecode, args), nil
}

// Receive implements interfaces.Contract.
func (a *Account) Receive(host interfaces.Host, msg interfaces.Message) ([]byte, error) {
	method, args, matched, err := chain.Dispatch(&ABI, msg)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, a.receive(host, msg)
	}

	switch method.Name {
	case "initialize":
		return nil, a.initialize(host, msg.To, args[0].(common.Address), args[1].(common.Address))
	case "execute":
		res, err := a.execute(host, msg, args[0].(common.Address), args[1].(*big.Int), args[2].([]byte))
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(res.Success, res.ReturnData)
	case "executeBatch":
		results, err := a.executeBatch(host, msg, args[0].([]common.Address), args[1].([]*big.Int), args[2].([][]byte))
		if err != nil {
			return nil, err
		}
		successes := make([]bool, len(results))
		returnData := make([][]byte, len(results))
		for i, res := range results {
			successes[i] = res.Success
			returnData[i] = res.ReturnData
		}
		return method.Outputs.Pack(successes, returnData)
	case "payWithApprovedToken":
		return nil, a.payWithApprovedToken(host, msg, args[0].(common.Address), args[1].(common.Address), args[2].(*big.Int))
	case "emergencyWithdraw":
		return nil, a.emergencyWithdraw(host, msg, args[0].(common.Address), args[1].(*big.Int))
	case "getBalance":
		return method.Outputs.Pack(host.Balance(msg.To))
	case "owner":
		return method.Outputs.Pack(a.owner)
	case "controller":
		return method.Outputs.Pack(a.controller)
	case "isApprovedToken":
		return method.Outputs.Pack(a.isApproved[args[0].(common.Address)])
	case "approvedTokens":
		return method.Outputs.Pack(a.approvedTokens())
	}
	return nil, fmt.Errorf("%w: unhandled method %s", chain.ErrMalformedCalldata, method.Name)
}

func (a *Account) initialize(host interfaces.Host, self, owner, controller common.Address) error {
	if a.initialized {
		return interfaces.ErrAlreadyInitialized
	}
	if owner == (common.Address{}) {
		return interfaces.ErrInvalidOwner
	}
	if controller == (common.Address{}) {
		return interfaces.ErrInvalidController
	}

	chain.Set(host, &a.owner, owner)
	chain.Set(host, &a.controller, controller)
	chain.Set(host, &a.initialized, true)

	return chain.EmitEvent(host, self, ABI.Events["Initialized"],
		[]common.Hash{chain.AddressTopic(owner), chain.AddressTopic(controller)})
}

// enter acquires the re-entrancy guard. The caller must defer the returned
// release func.
func (a *Account) enter() (release func(), err error) {
	if a.executing {
		return nil, interfaces.ErrReentrantCall
	}
	a.executing = true
	return func() { a.executing = false }, nil
}

func (a *Account) onlyOwnerOrController(caller common.Address) error {
	if !a.initialized || (caller != a.owner && caller != a.controller) {
		return interfaces.ErrUnauthorized
	}
	return nil
}

func (a *Account) onlyOwner(caller common.Address) error {
	if !a.initialized || caller != a.owner {
		return interfaces.ErrUnauthorized
	}
	return nil
}

func (a *Account) execute(host interfaces.Host, msg interfaces.Message, target common.Address, value *big.Int, data []byte) (interfaces.CallResult, error) {
	if err := a.onlyOwnerOrController(msg.From); err != nil {
		return interfaces.CallResult{}, err
	}
	if target == (common.Address{}) {
		return interfaces.CallResult{}, interfaces.ErrInvalidTarget
	}

	release, err := a.enter()
	if err != nil {
		return interfaces.CallResult{}, err
	}
	defer release()

	res := a.call(host, msg.To, target, value, data)
	if err := a.emitExecuted(host, msg.To, target, value, data, res); err != nil {
		return interfaces.CallResult{}, err
	}
	return res, nil
}

func (a *Account) executeBatch(host interfaces.Host, msg interfaces.Message, targets []common.Address, values []*big.Int, data [][]byte) ([]interfaces.CallResult, error) {
	if err := a.onlyOwnerOrController(msg.From); err != nil {
		return nil, err
	}
	if len(targets) != len(values) || len(targets) != len(data) {
		return nil, interfaces.ErrLengthMismatch
	}
	if len(targets) == 0 {
		return nil, interfaces.ErrEmptyBatch
	}
	for _, target := range targets {
		if target == (common.Address{}) {
			return nil, interfaces.ErrInvalidTarget
		}
	}

	release, err := a.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	results := make([]interfaces.CallResult, len(targets))
	for i := range targets {
		results[i] = a.call(host, msg.To, targets[i], values[i], data[i])
		if err := a.emitExecuted(host, msg.To, targets[i], values[i], data[i], results[i]); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// call performs one proxied call. A failing callee is reported, not
// propagated: its revert data becomes the returned data.
func (a *Account) call(host interfaces.Host, self, target common.Address, value *big.Int, data []byte) interfaces.CallResult {
	ret, err := host.Call(self, target, value, data)
	if err != nil {
		return interfaces.CallResult{Success: false, ReturnData: interfaces.EncodeRevert(err)}
	}
	if ret == nil {
		ret = []byte{}
	}
	return interfaces.CallResult{Success: true, ReturnData: ret}
}

func (a *Account) emitExecuted(host interfaces.Host, self, target common.Address, value *big.Int, data []byte, res interfaces.CallResult) error {
	if value == nil {
		value = new(big.Int)
	}
	return chain.EmitEvent(host, self, ABI.Events["Executed"],
		[]common.Hash{chain.AddressTopic(target)},
		value, nonNil(data), res.Success, nonNil(res.ReturnData))
}

func (a *Account) payWithApprovedToken(host interfaces.Host, msg interfaces.Message, token, recipient common.Address, amount *big.Int) error {
	if err := a.onlyOwnerOrController(msg.From); err != nil {
		return err
	}
	if !a.isApproved[token] {
		return interfaces.ErrUnsupportedToken
	}
	if recipient == (common.Address{}) {
		return interfaces.ErrInvalidRecipient
	}
	if amount == nil || amount.Sign() <= 0 {
		return interfaces.ErrInvalidAmount
	}

	release, err := a.enter()
	if err != nil {
		return err
	}
	defer release()

	calldata, err := tokenABI.Pack("transferFrom", a.owner, recipient, amount)
	if err != nil {
		return fmt.Errorf("could not pack transferFrom: %w", err)
	}
	ret, err := host.Call(msg.To, token, nil, calldata)
	if err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrTransferFailed, err)
	}
	out, err := tokenABI.Unpack("transferFrom", ret)
	if err != nil || len(out) != 1 {
		return fmt.Errorf("%w: malformed transferFrom result", interfaces.ErrTransferFailed)
	}
	if ok, _ := out[0].(bool); !ok {
		return interfaces.ErrTransferFailed
	}

	return chain.EmitEvent(host, msg.To, ABI.Events["TokenPayment"],
		[]common.Hash{chain.AddressTopic(token), chain.AddressTopic(recipient)}, amount)
}

func (a *Account) emergencyWithdraw(host interfaces.Host, msg interfaces.Message, to common.Address, amount *big.Int) error {
	if err := a.onlyOwner(msg.From); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return interfaces.ErrInvalidRecipient
	}

	balance := host.Balance(msg.To)
	if amount == nil || amount.Sign() == 0 {
		amount = balance
	}
	if amount.Cmp(balance) > 0 {
		return interfaces.ErrInsufficientBalance
	}

	release, err := a.enter()
	if err != nil {
		return err
	}
	defer release()

	if _, err := host.Call(msg.To, to, amount, nil); err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrWithdrawalFailed, err)
	}

	return chain.EmitEvent(host, msg.To, ABI.Events["EmergencyWithdrawal"],
		[]common.Hash{chain.AddressTopic(to)}, amount)
}

// receive accepts plain value transfers and any call without a known selector.
func (a *Account) receive(host interfaces.Host, msg interfaces.Message) error {
	return chain.EmitEvent(host, msg.To, ABI.Events["Received"],
		[]common.Hash{chain.AddressTopic(msg.From)}, msg.Value)
}

func (a *Account) approvedTokens() []common.Address {
	out := make([]common.Address, len(a.tokens))
	copy(out, a.tokens)
	return out
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

type persistedAccount struct {
	Owner          common.Address   `json:"owner"`
	Controller     common.Address   `json:"controller"`
	Initialized    bool             `json:"initialized"`
	ApprovedTokens []common.Address `json:"approvedTokens"`
}

// Kind implements interfaces.Persistent.
func (a *Account) Kind() string { return Kind }

// MarshalState implements interfaces.Persistent.
func (a *Account) MarshalState() ([]byte, error) {
	return json.Marshal(persistedAccount{
		Owner:          a.owner,
		Controller:     a.controller,
		Initialized:    a.initialized,
		ApprovedTokens: a.approvedTokens(),
	})
}

// Restore rebuilds an account from its checkpointed state.
func Restore(state []byte) (interfaces.Contract, error) {
	var p persistedAccount
	if err := json.Unmarshal(state, &p); err != nil {
		return nil, fmt.Errorf("could not decode account state: %w", err)
	}
	a := New(p.ApprovedTokens)
	a.owner = p.Owner
	a.controller = p.Controller
	a.initialized = p.Initialized
	return a, nil
}

var (
	_ interfaces.Contract   = (*Account)(nil)
	_ interfaces.Persistent = (*Account)(nil)
)
