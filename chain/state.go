package chain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ruteri/account-registry/derive"
	"github.com/ruteri/account-registry/interfaces"
)

// MaxCallDepth bounds nested message calls within one request.
const MaxCallDepth = 1024

// state is the journaled world state. It implements interfaces.Host and is
// only ever touched while Env holds its lock.
type state struct {
	balances map[common.Address]*big.Int
	nonces   map[common.Address]uint64
	code     map[common.Address]interfaces.Contract
	codeHash map[common.Address]common.Hash

	journal []func()
	logs    []*types.Log
	depth   int
}

func newState() *state {
	return &state{
		balances: make(map[common.Address]*big.Int),
		nonces:   make(map[common.Address]uint64),
		code:     make(map[common.Address]interfaces.Contract),
		codeHash: make(map[common.Address]common.Hash),
	}
}

func (s *state) snapshot() int {
	return len(s.journal)
}

func (s *state) revertTo(snap int) {
	for i := len(s.journal) - 1; i >= snap; i-- {
		s.journal[i]()
	}
	s.journal = s.journal[:snap]
}

// commit forgets the journal and returns the logs of the finished request.
func (s *state) commit() []*types.Log {
	logs := s.logs
	s.journal = nil
	s.logs = nil
	return logs
}

// Call delivers value and payload to `to`. Any failure, including a panic in
// contract code, reverts every change made since the call started.
func (s *state) Call(from, to common.Address, value *big.Int, data []byte) (ret []byte, err error) {
	if s.depth >= MaxCallDepth {
		return nil, ErrCallDepth
	}
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() < 0 {
		return nil, ErrNegativeValue
	}

	snap := s.snapshot()
	s.depth++
	defer func() {
		s.depth--
		if r := recover(); r != nil {
			ret, err = nil, fmt.Errorf("%w: %v", ErrExecutionPanic, r)
		}
		if err != nil {
			s.revertTo(snap)
		}
	}()

	if err := s.transfer(from, to, value); err != nil {
		return nil, err
	}

	contract, ok := s.code[to]
	if !ok {
		return nil, nil
	}

	return contract.Receive(s, interfaces.Message{
		From:  from,
		To:    to,
		Value: new(big.Int).Set(value),
		Data:  common.CopyBytes(data),
	})
}

func (s *state) transfer(from, to common.Address, value *big.Int) error {
	if value.Sign() == 0 {
		return nil
	}
	fromBalance := s.Balance(from)
	if fromBalance.Cmp(value) < 0 {
		return fmt.Errorf("%w: have %s, want %s", ErrInsufficientFunds, fromBalance, value)
	}
	s.setBalance(from, new(big.Int).Sub(fromBalance, value))
	s.setBalance(to, new(big.Int).Add(s.Balance(to), value))
	return nil
}

func (s *state) setBalance(addr common.Address, amount *big.Int) {
	SetKey(s, s.balances, addr, amount)
}

// Balance returns a copy of the value held at addr.
func (s *state) Balance(addr common.Address) *big.Int {
	if b, ok := s.balances[addr]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (s *state) Code(addr common.Address) (interfaces.Contract, bool) {
	c, ok := s.code[addr]
	return c, ok
}

func (s *state) Deploy(deployer common.Address, code interfaces.Contract) (common.Address, error) {
	nonce := s.nonces[deployer]
	addr := derive.NonceAddress(deployer, nonce)
	if err := s.install(addr, code, common.Hash{}); err != nil {
		return common.Address{}, err
	}
	SetKey(s, s.nonces, deployer, nonce+1)
	return addr, nil
}

func (s *state) Deploy2(deployer common.Address, salt [32]byte, initPayload []byte, code interfaces.Contract) (common.Address, error) {
	addr := derive.Address(deployer, salt, initPayload)
	if err := s.install(addr, code, derive.InitCodeHash(initPayload)); err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

func (s *state) install(addr common.Address, code interfaces.Contract, codeHash common.Hash) error {
	if code == nil {
		return ErrNoCode
	}
	if _, taken := s.code[addr]; taken {
		return fmt.Errorf("%w: %s", ErrContractCollision, addr)
	}
	SetKey(s, s.code, addr, code)
	if codeHash != (common.Hash{}) {
		SetKey(s, s.codeHash, addr, codeHash)
	}
	return nil
}

func (s *state) Emit(log *types.Log) {
	log.Index = uint(len(s.logs))
	Push(s, &s.logs, log)
}

func (s *state) Journal(undo func()) {
	s.journal = append(s.journal, undo)
}
