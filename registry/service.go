package registry

import (
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/account-registry/account"
	"github.com/ruteri/account-registry/chain"
	"github.com/ruteri/account-registry/interfaces"
)

// Backend is the environment a Service runs against.
type Backend interface {
	interfaces.Backend
	Fund(addr common.Address, amount *big.Int) error
}

// Service implements interfaces.AccountService on top of a registry deployed
// in an environment. Every call is made as the given from address.
type Service struct {
	backend  Backend
	registry common.Address
	observer interfaces.Observer
	log      *slog.Logger
}

// NewService creates a service for the registry proxy at registry.
// observer may be nil.
func NewService(backend Backend, registry common.Address, observer interfaces.Observer, log *slog.Logger) *Service {
	if observer == nil {
		observer = noopObserver{}
	}
	return &Service{
		backend:  backend,
		registry: registry,
		observer: observer,
		log:      log,
	}
}

// Registry returns the address of the registry proxy.
func (s *Service) Registry() common.Address {
	return s.registry
}

func (s *Service) client(from common.Address) *Client {
	c := NewClient(s.backend, s.registry)
	c.SetSender(from)
	return c
}

func (s *Service) accountClient(from, acct common.Address) (*account.Client, error) {
	ok, err := s.client(from).IsAccount(acct)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a registered account", interfaces.ErrInvalidTarget, acct)
	}
	c := account.NewClient(s.backend, acct)
	c.SetSender(from)
	return c, nil
}

func (s *Service) reverted(op string, err error) error {
	if err != nil {
		s.observer.RequestReverted(op, err)
		s.log.Debug("Request failed", "op", op, "kind", interfaces.ErrorKind(err), "err", err)
	}
	return err
}

func (s *Service) Info() (*interfaces.RegistryInfo, error) {
	c := s.client(common.Address{})
	info := &interfaces.RegistryInfo{Address: s.registry}

	var err error
	if info.Implementation, err = c.Implementation(); err != nil {
		return nil, err
	}
	if info.Owner, err = c.Owner(); err != nil {
		return nil, err
	}
	if info.Version, err = c.Version(); err != nil {
		return nil, err
	}
	if info.ApprovedTokens, err = c.ApprovedTokens(); err != nil {
		return nil, err
	}
	if info.TicketIssuer, err = c.TicketIssuer(); err != nil {
		return nil, err
	}
	if info.TotalAccounts, err = c.TotalAccounts(); err != nil {
		return nil, err
	}
	return info, nil
}

func (s *Service) CreateAccount(from, identity common.Address) (common.Address, error) {
	addr, receipt, err := s.client(from).CreateAccount(identity)
	if err != nil {
		return common.Address{}, s.reverted("createAccount", err)
	}
	s.recordCreated(receipt)
	s.log.Info("Account created", "identity", identity, "account", addr)
	return addr, nil
}

func (s *Service) GetOrCreateAccount(from, identity common.Address) (common.Address, error) {
	addr, receipt, err := s.client(from).GetOrCreateAccount(identity)
	if err != nil {
		return common.Address{}, s.reverted("getOrCreateAccount", err)
	}
	if s.recordCreated(receipt) > 0 {
		s.log.Info("Account created", "identity", identity, "account", addr)
	}
	return addr, nil
}

// recordCreated reports every account the request created to the observer.
func (s *Service) recordCreated(receipt *interfaces.Receipt) int {
	registry := s.registry
	created := chain.FilterLogs(receipt.Logs, ABI.Events["AccountCreated"], &registry)
	for range created {
		s.observer.AccountCreated()
	}
	return len(created)
}

func (s *Service) GetAccount(identity common.Address) (common.Address, bool, error) {
	return s.client(common.Address{}).GetAccount(identity)
}

func (s *Service) PredictAddress(identity common.Address) (common.Address, error) {
	return s.client(common.Address{}).PredictAddress(identity)
}

func (s *Service) IsAccount(addr common.Address) (bool, error) {
	return s.client(common.Address{}).IsAccount(addr)
}

func (s *Service) TotalAccounts() (uint64, error) {
	return s.client(common.Address{}).TotalAccounts()
}

func (s *Service) AccountAt(index uint64) (common.Address, error) {
	return s.client(common.Address{}).AccountAt(index)
}

func (s *Service) AccountInfo(acct common.Address) (*interfaces.AccountInfo, error) {
	c, err := s.accountClient(common.Address{}, acct)
	if err != nil {
		return nil, err
	}

	info := &interfaces.AccountInfo{Address: acct}
	if info.Owner, err = c.Owner(); err != nil {
		return nil, err
	}
	if info.Controller, err = c.Controller(); err != nil {
		return nil, err
	}
	if info.Balance, err = c.GetBalance(); err != nil {
		return nil, err
	}
	if info.ApprovedTokens, err = c.ApprovedTokens(); err != nil {
		return nil, err
	}
	return info, nil
}

func (s *Service) Execute(from, acct, target common.Address, value *big.Int, data []byte) (*interfaces.CallResult, error) {
	c, err := s.accountClient(from, acct)
	if err != nil {
		return nil, err
	}
	res, _, err := c.Execute(target, value, data)
	if err != nil {
		return nil, s.reverted("execute", err)
	}
	s.observer.CallExecuted(res.Success)
	return res, nil
}

func (s *Service) ExecuteBatch(from, acct common.Address, calls []interfaces.Call) ([]interfaces.CallResult, error) {
	c, err := s.accountClient(from, acct)
	if err != nil {
		return nil, err
	}
	results, _, err := c.ExecuteBatch(calls)
	if err != nil {
		return nil, s.reverted("executeBatch", err)
	}
	for _, res := range results {
		s.observer.CallExecuted(res.Success)
	}
	return results, nil
}

func (s *Service) Relay(from, acct, target common.Address, value *big.Int, data []byte) (*interfaces.CallResult, error) {
	res, _, err := s.client(from).Relay(acct, target, value, data)
	if err != nil {
		return nil, s.reverted("relay", err)
	}
	s.observer.CallExecuted(res.Success)
	return res, nil
}

func (s *Service) PayWithApprovedToken(from, acct, token, recipient common.Address, amount *big.Int) error {
	c, err := s.accountClient(from, acct)
	if err != nil {
		return err
	}
	_, err = c.PayWithApprovedToken(token, recipient, amount)
	return s.reverted("payWithApprovedToken", err)
}

func (s *Service) EmergencyWithdraw(from, acct, to common.Address, amount *big.Int) error {
	c, err := s.accountClient(from, acct)
	if err != nil {
		return err
	}
	_, err = c.EmergencyWithdraw(to, amount)
	if err != nil {
		return s.reverted("emergencyWithdraw", err)
	}
	s.log.Info("Emergency withdrawal", "account", acct, "to", to)
	return nil
}

func (s *Service) IssueTicket(from, identity common.Address, eventName, seat string) (*big.Int, error) {
	id, receipt, err := s.client(from).IssueTicket(identity, eventName, seat)
	if err != nil {
		return nil, s.reverted("issueTicket", err)
	}
	s.recordCreated(receipt)
	s.log.Info("Ticket issued", "identity", identity, "ticket", id)
	return id, nil
}

func (s *Service) Balance(addr common.Address) (*big.Int, error) {
	return s.backend.Balance(addr), nil
}

// Transfer sends plain value from one address to another.
func (s *Service) Transfer(from, to common.Address, value *big.Int) error {
	_, err := s.backend.Transact(from, to, value, nil)
	return s.reverted("transfer", err)
}

// Fund mints native value to `to`. Intended for development networks.
func (s *Service) Fund(to common.Address, amount *big.Int) error {
	return s.backend.Fund(to, amount)
}

type noopObserver struct{}

func (noopObserver) AccountCreated() {}

func (noopObserver) CallExecuted(bool) {}

func (noopObserver) RequestReverted(string, error) {}

var _ interfaces.AccountService = (*Service)(nil)
