package chain

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ruteri/account-registry/interfaces"
)

// Dump is the persisted layout of an environment.
type Dump struct {
	Accounts map[common.Address]DumpAccount `json:"accounts"`
}

// DumpAccount is the persisted state of one address.
type DumpAccount struct {
	Balance  *hexutil.Big    `json:"balance,omitempty"`
	Nonce    uint64          `json:"nonce,omitempty"`
	CodeHash *common.Hash    `json:"codeHash,omitempty"`
	Kind     string          `json:"kind,omitempty"`
	State    json.RawMessage `json:"state,omitempty"`
}

// Codec rebuilds a contract of one kind from its persisted state.
type Codec func(state []byte) (interfaces.Contract, error)

// Dump captures the committed state. Every installed contract must
// implement interfaces.Persistent.
func (e *Env) Dump() (*Dump, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := &Dump{Accounts: make(map[common.Address]DumpAccount)}
	for addr, bal := range e.st.balances {
		if bal.Sign() == 0 {
			continue
		}
		acc := d.Accounts[addr]
		acc.Balance = (*hexutil.Big)(new(big.Int).Set(bal))
		d.Accounts[addr] = acc
	}
	for addr, nonce := range e.st.nonces {
		acc := d.Accounts[addr]
		acc.Nonce = nonce
		d.Accounts[addr] = acc
	}
	for addr, code := range e.st.code {
		p, ok := code.(interfaces.Persistent)
		if !ok {
			return nil, fmt.Errorf("%w: %s (%T)", ErrNotPersistent, addr, code)
		}
		raw, err := p.MarshalState()
		if err != nil {
			return nil, fmt.Errorf("could not marshal state of %s: %w", addr, err)
		}
		acc := d.Accounts[addr]
		acc.Kind = p.Kind()
		acc.State = raw
		if h, ok := e.st.codeHash[addr]; ok {
			acc.CodeHash = &h
		}
		d.Accounts[addr] = acc
	}
	return d, nil
}

// Load rebuilds an environment from a dump using one codec per contract kind.
func Load(d *Dump, codecs map[string]Codec, log *slog.Logger) (*Env, error) {
	env := NewEnv(log)
	st := env.st

	for addr, acc := range d.Accounts {
		if acc.Balance != nil {
			st.balances[addr] = new(big.Int).Set(acc.Balance.ToInt())
		}
		if acc.Nonce != 0 {
			st.nonces[addr] = acc.Nonce
		}
		if acc.Kind == "" {
			continue
		}

		codec, ok := codecs[acc.Kind]
		if !ok {
			return nil, fmt.Errorf("%w: %q at %s", ErrUnknownKind, acc.Kind, addr)
		}
		contract, err := codec(acc.State)
		if err != nil {
			return nil, fmt.Errorf("could not restore %s at %s: %w", acc.Kind, addr, err)
		}
		st.code[addr] = contract
		if acc.CodeHash != nil {
			st.codeHash[addr] = *acc.CodeHash
		}
	}
	return env, nil
}

// MarshalDump serializes the environment state to JSON.
func (e *Env) MarshalDump() ([]byte, error) {
	d, err := e.Dump()
	if err != nil {
		return nil, err
	}
	return json.Marshal(d)
}

// UnmarshalDump rebuilds an environment from MarshalDump output.
func UnmarshalDump(data []byte, codecs map[string]Codec, log *slog.Logger) (*Env, error) {
	var d Dump
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("could not parse dump: %w", err)
	}
	return Load(&d, codecs, log)
}
