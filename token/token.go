// Package token implements the approved-token value-transfer medium: a
// minimal fungible token with allowances. transferFrom reports a missing
// balance or allowance by returning false instead of reverting.
package token

import (
	"encoding/json"
	"fmt"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/account-registry/chain"
	"github.com/ruteri/account-registry/interfaces"
)

// Kind names the token in environment checkpoints.
const Kind = "ApprovedToken"

const ABIJSON = `[
	{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"holder","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view",
	 "inputs":[{"name":"holder","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"mint","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable",
	 "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"transferFrom","stateMutability":"nonpayable",
	 "inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"event","name":"Transfer","inputs":[
		{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"Approval","inputs":[
		{"name":"holder","type":"address","indexed":true},{"name":"spender","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false}]}
]`

var ABI = chain.MustParseABI(ABIJSON)

type allowanceKey struct {
	Holder  common.Address
	Spender common.Address
}

// Token is a fungible token contract.
type Token struct {
	name   string
	symbol string
	owner  common.Address

	supply     *big.Int
	balances   map[common.Address]*big.Int
	allowances map[allowanceKey]*big.Int
}

// New creates a token with no supply. Only owner may mint.
func New(name, symbol string, owner common.Address) *Token {
	return &Token{
		name:       name,
		symbol:     symbol,
		owner:      owner,
		supply:     new(big.Int),
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[allowanceKey]*big.Int),
	}
}

// Receive implements interfaces.Contract.
func (t *Token) Receive(host interfaces.Host, msg interfaces.Message) ([]byte, error) {
	method, args, matched, err := chain.Dispatch(&ABI, msg)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, fmt.Errorf("%w: token does not accept plain calls", chain.ErrMalformedCalldata)
	}
	if msg.Value.Sign() != 0 {
		return nil, interfaces.ErrInvalidAmount
	}

	switch method.Name {
	case "name":
		return method.Outputs.Pack(t.name)
	case "symbol":
		return method.Outputs.Pack(t.symbol)
	case "owner":
		return method.Outputs.Pack(t.owner)
	case "totalSupply":
		return method.Outputs.Pack(new(big.Int).Set(t.supply))
	case "balanceOf":
		return method.Outputs.Pack(t.balanceOf(args[0].(common.Address)))
	case "allowance":
		return method.Outputs.Pack(t.allowance(args[0].(common.Address), args[1].(common.Address)))
	case "mint":
		return nil, t.mint(host, msg, args[0].(common.Address), args[1].(*big.Int))
	case "transfer":
		ok, err := t.move(host, msg.To, msg.From, args[0].(common.Address), args[1].(*big.Int))
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(ok)
	case "approve":
		spender, amount := args[0].(common.Address), args[1].(*big.Int)
		chain.SetKey(host, t.allowances, allowanceKey{msg.From, spender}, new(big.Int).Set(amount))
		if err := chain.EmitEvent(host, msg.To, ABI.Events["Approval"],
			[]common.Hash{chain.AddressTopic(msg.From), chain.AddressTopic(spender)}, amount); err != nil {
			return nil, err
		}
		return method.Outputs.Pack(true)
	case "transferFrom":
		ok, err := t.transferFrom(host, msg, args[0].(common.Address), args[1].(common.Address), args[2].(*big.Int))
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(ok)
	}
	return nil, fmt.Errorf("%w: unhandled method %s", chain.ErrMalformedCalldata, method.Name)
}

func (t *Token) balanceOf(holder common.Address) *big.Int {
	if b, ok := t.balances[holder]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (t *Token) allowance(holder, spender common.Address) *big.Int {
	if a, ok := t.allowances[allowanceKey{holder, spender}]; ok {
		return new(big.Int).Set(a)
	}
	return new(big.Int)
}

func (t *Token) mint(host interfaces.Host, msg interfaces.Message, to common.Address, amount *big.Int) error {
	if msg.From != t.owner {
		return interfaces.ErrUnauthorized
	}
	if to == (common.Address{}) {
		return interfaces.ErrInvalidRecipient
	}

	chain.Set(host, &t.supply, new(big.Int).Add(t.supply, amount))
	chain.SetKey(host, t.balances, to, new(big.Int).Add(t.balanceOf(to), amount))
	return chain.EmitEvent(host, msg.To, ABI.Events["Transfer"],
		[]common.Hash{chain.AddressTopic(common.Address{}), chain.AddressTopic(to)}, amount)
}

// move transfers amount between holders. It returns false, without any
// state change, when from holds less than amount.
func (t *Token) move(host interfaces.Host, self, from, to common.Address, amount *big.Int) (bool, error) {
	if to == (common.Address{}) {
		return false, nil
	}
	fromBalance := t.balanceOf(from)
	if fromBalance.Cmp(amount) < 0 {
		return false, nil
	}

	chain.SetKey(host, t.balances, from, new(big.Int).Sub(fromBalance, amount))
	chain.SetKey(host, t.balances, to, new(big.Int).Add(t.balanceOf(to), amount))
	err := chain.EmitEvent(host, self, ABI.Events["Transfer"],
		[]common.Hash{chain.AddressTopic(from), chain.AddressTopic(to)}, amount)
	return err == nil, err
}

func (t *Token) transferFrom(host interfaces.Host, msg interfaces.Message, from, to common.Address, amount *big.Int) (bool, error) {
	allowed := t.allowance(from, msg.From)
	if allowed.Cmp(amount) < 0 {
		return false, nil
	}

	ok, err := t.move(host, msg.To, from, to, amount)
	if err != nil || !ok {
		return ok, err
	}
	chain.SetKey(host, t.allowances, allowanceKey{from, msg.From}, new(big.Int).Sub(allowed, amount))
	return true, nil
}

type persistedAllowance struct {
	Holder  common.Address `json:"holder"`
	Spender common.Address `json:"spender"`
	Amount  *big.Int       `json:"amount"`
}

type persistedToken struct {
	Name       string                      `json:"name"`
	Symbol     string                      `json:"symbol"`
	Owner      common.Address              `json:"owner"`
	Supply     *big.Int                    `json:"supply"`
	Balances   map[common.Address]*big.Int `json:"balances"`
	Allowances []persistedAllowance        `json:"allowances"`
}

// Kind implements interfaces.Persistent.
func (t *Token) Kind() string { return Kind }

// MarshalState implements interfaces.Persistent. Allowances are ordered by
// holder, then spender, so equal state encodes to equal bytes.
func (t *Token) MarshalState() ([]byte, error) {
	p := persistedToken{
		Name:     t.name,
		Symbol:   t.symbol,
		Owner:    t.owner,
		Supply:   t.supply,
		Balances: t.balances,
	}
	for k, v := range t.allowances {
		p.Allowances = append(p.Allowances, persistedAllowance{Holder: k.Holder, Spender: k.Spender, Amount: v})
	}
	slices.SortFunc(p.Allowances, func(a, b persistedAllowance) int {
		if c := a.Holder.Cmp(b.Holder); c != 0 {
			return c
		}
		return a.Spender.Cmp(b.Spender)
	})
	return json.Marshal(p)
}

// Restore rebuilds a token from its checkpointed state.
func Restore(state []byte) (interfaces.Contract, error) {
	var p persistedToken
	if err := json.Unmarshal(state, &p); err != nil {
		return nil, fmt.Errorf("could not decode token state: %w", err)
	}
	t := New(p.Name, p.Symbol, p.Owner)
	if p.Supply != nil {
		t.supply = p.Supply
	}
	for holder, bal := range p.Balances {
		t.balances[holder] = bal
	}
	for _, a := range p.Allowances {
		t.allowances[allowanceKey{a.Holder, a.Spender}] = a.Amount
	}
	return t, nil
}

var (
	_ interfaces.Contract   = (*Token)(nil)
	_ interfaces.Persistent = (*Token)(nil)
)
