// Package proxy implements a stable-address indirection in front of
// swappable logic. The proxy owns the storage; the logic module it
// currently points at is looked up in the environment on every call and
// operates on that storage. upgradeTo repoints the proxy and is gated by
// the current logic's own authorization rule.
package proxy

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/account-registry/chain"
	"github.com/ruteri/account-registry/interfaces"
)

// ErrDirectCall is returned by logic modules called at their own address
// rather than through a proxy.
var ErrDirectCall = errors.New("logic module called directly")

const ABIJSON = `[
	{"type":"function","name":"upgradeTo","stateMutability":"nonpayable",
	 "inputs":[{"name":"newImplementation","type":"address"}],"outputs":[]},
	{"type":"function","name":"implementation","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"event","name":"Upgraded","inputs":[{"name":"implementation","type":"address","indexed":true}]}
]`

var ABI = chain.MustParseABI(ABIJSON)

// Logic is an implementation that can sit behind a Proxy holding storage S.
type Logic[S any] interface {
	interfaces.Contract

	// Handle serves a call made to the proxy.
	Handle(host interfaces.Host, msg interfaces.Message, store *S) ([]byte, error)

	// AuthorizeUpgrade fails unless caller may repoint the proxy.
	AuthorizeUpgrade(store *S, caller common.Address) error
}

// Proxy forwards calls to the logic installed at its implementation address.
type Proxy[S any] struct {
	kind  string
	impl  common.Address
	store *S
}

// New creates a proxy pointing at impl. kind names the proxy in checkpoints.
func New[S any](kind string, impl common.Address, store *S) *Proxy[S] {
	if store == nil {
		store = new(S)
	}
	return &Proxy[S]{kind: kind, impl: impl, store: store}
}

// Implementation returns the current logic address.
func (p *Proxy[S]) Implementation() common.Address {
	return p.impl
}

// Receive implements interfaces.Contract.
func (p *Proxy[S]) Receive(host interfaces.Host, msg interfaces.Message) ([]byte, error) {
	if sel, ok := msg.Selector(); ok {
		if method, err := ABI.MethodById(sel); err == nil {
			args, err := method.Inputs.Unpack(msg.Data[4:])
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", chain.ErrMalformedCalldata, method.Name, err)
			}
			switch method.Name {
			case "upgradeTo":
				return nil, p.upgradeTo(host, msg, args[0].(common.Address))
			case "implementation":
				return method.Outputs.Pack(p.impl)
			}
		}
	}

	logic, err := p.resolve(host, p.impl)
	if err != nil {
		return nil, err
	}
	return logic.Handle(host, msg, p.store)
}

func (p *Proxy[S]) resolve(host interfaces.Host, addr common.Address) (Logic[S], error) {
	code, ok := host.Code(addr)
	if !ok {
		return nil, fmt.Errorf("%w: no logic at %s", interfaces.ErrInvalidTarget, addr)
	}
	logic, ok := code.(Logic[S])
	if !ok {
		return nil, fmt.Errorf("%w: incompatible logic at %s", interfaces.ErrInvalidTarget, addr)
	}
	return logic, nil
}

func (p *Proxy[S]) upgradeTo(host interfaces.Host, msg interfaces.Message, next common.Address) error {
	current, err := p.resolve(host, p.impl)
	if err != nil {
		return err
	}
	if err := current.AuthorizeUpgrade(p.store, msg.From); err != nil {
		return err
	}
	if _, err := p.resolve(host, next); err != nil {
		return err
	}

	chain.Set(host, &p.impl, next)
	return chain.EmitEvent(host, msg.To, ABI.Events["Upgraded"], []common.Hash{chain.AddressTopic(next)})
}

type persistedProxy[S any] struct {
	Implementation common.Address `json:"implementation"`
	Storage        *S             `json:"storage"`
}

// Kind implements interfaces.Persistent.
func (p *Proxy[S]) Kind() string { return p.kind }

// MarshalState implements interfaces.Persistent.
func (p *Proxy[S]) MarshalState() ([]byte, error) {
	return json.Marshal(persistedProxy[S]{Implementation: p.impl, Storage: p.store})
}

// Restore rebuilds a proxy from its checkpointed state.
func Restore[S any](kind string, state []byte) (*Proxy[S], error) {
	var pp persistedProxy[S]
	if err := json.Unmarshal(state, &pp); err != nil {
		return nil, fmt.Errorf("could not decode %s state: %w", kind, err)
	}
	return New(kind, pp.Implementation, pp.Storage), nil
}
