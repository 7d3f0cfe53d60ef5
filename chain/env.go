// Package chain provides an in-process execution environment for contracts.
//
// Env processes one request at a time. Every request runs under a journal
// snapshot: if it fails, all state changes and logs it produced are undone
// before the error is returned. Nested message calls are plain Go calls, so
// a callee may call back into its caller before the outer call returns;
// contracts protect themselves against that with their own guards.
package chain

import (
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/account-registry/interfaces"
)

// Env is the request-serializing front of the world state.
type Env struct {
	mu  sync.Mutex
	st  *state
	log *slog.Logger
}

// NewEnv creates an empty environment.
func NewEnv(log *slog.Logger) *Env {
	if log == nil {
		log = slog.Default()
	}
	return &Env{st: newState(), log: log}
}

// Transact executes a message call as a top-level request and commits it.
func (e *Env) Transact(from, to common.Address, value *big.Int, data []byte) (*interfaces.Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ret, err := e.st.Call(from, to, value, data)
	if err != nil {
		e.st.commit()
		e.log.Debug("Request reverted", "from", from, "to", to, "err", err)
		return nil, err
	}

	return &interfaces.Receipt{ReturnData: ret, Logs: e.st.commit()}, nil
}

// CallView executes a message call and discards all of its effects.
func (e *Env) CallView(from, to common.Address, data []byte) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ret, err := e.st.Call(from, to, nil, data)
	e.st.revertTo(0)
	e.st.commit()
	return ret, err
}

// Run executes fn as a single atomic request. fn sees the environment as a
// contract would; returning an error or panicking undoes everything fn did.
func (e *Env) Run(fn func(host interfaces.Host) error) (receipt *interfaces.Receipt, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrExecutionPanic, r)
		}
		if err != nil {
			e.st.revertTo(0)
			e.st.commit()
			receipt = nil
		}
	}()

	if err = fn(e.st); err != nil {
		return nil, err
	}
	return &interfaces.Receipt{Logs: e.st.commit()}, nil
}

// Fund credits amount to addr out of thin air. Used to seed development
// and test environments.
func (e *Env) Fund(addr common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrNegativeValue
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.st.setBalance(addr, new(big.Int).Add(e.st.Balance(addr), amount))
	e.st.commit()
	return nil
}

// Balance returns the value held at addr.
func (e *Env) Balance(addr common.Address) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.Balance(addr)
}

// Nonce returns the number of plain deployments made by addr.
func (e *Env) Nonce(addr common.Address) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.nonces[addr]
}

// CodeHash returns the init code hash of a content-addressed deployment.
func (e *Env) CodeHash(addr common.Address) (common.Hash, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h, ok := e.st.codeHash[addr]
	return h, ok
}

// HasCode reports whether a contract is installed at addr.
func (e *Env) HasCode(addr common.Address) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.st.code[addr]
	return ok
}

// Contracts lists the addresses holding code, in ascending order.
func (e *Env) Contracts() []common.Address {
	e.mu.Lock()
	defer e.mu.Unlock()

	addrs := make([]common.Address, 0, len(e.st.code))
	for addr := range e.st.code {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Cmp(addrs[j]) < 0 })
	return addrs
}
