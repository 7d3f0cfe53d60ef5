package registry

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/account-registry/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockAccountService mocks the AccountService interface
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Info() (*interfaces.RegistryInfo, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.RegistryInfo), args.Error(1)
}

func (m *MockAccountService) CreateAccount(from, identity common.Address) (common.Address, error) {
	args := m.Called(from, identity)
	return args.Get(0).(common.Address), args.Error(1)
}

func (m *MockAccountService) GetOrCreateAccount(from, identity common.Address) (common.Address, error) {
	args := m.Called(from, identity)
	return args.Get(0).(common.Address), args.Error(1)
}

func (m *MockAccountService) GetAccount(identity common.Address) (common.Address, bool, error) {
	args := m.Called(identity)
	return args.Get(0).(common.Address), args.Bool(1), args.Error(2)
}

func (m *MockAccountService) PredictAddress(identity common.Address) (common.Address, error) {
	args := m.Called(identity)
	return args.Get(0).(common.Address), args.Error(1)
}

func (m *MockAccountService) IsAccount(addr common.Address) (bool, error) {
	args := m.Called(addr)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountService) TotalAccounts() (uint64, error) {
	args := m.Called()
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockAccountService) AccountAt(index uint64) (common.Address, error) {
	args := m.Called(index)
	return args.Get(0).(common.Address), args.Error(1)
}

func (m *MockAccountService) AccountInfo(acct common.Address) (*interfaces.AccountInfo, error) {
	args := m.Called(acct)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.AccountInfo), args.Error(1)
}

func (m *MockAccountService) Execute(from, acct, target common.Address, value *big.Int, data []byte) (*interfaces.CallResult, error) {
	args := m.Called(from, acct, target, value, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.CallResult), args.Error(1)
}

func (m *MockAccountService) ExecuteBatch(from, acct common.Address, calls []interfaces.Call) ([]interfaces.CallResult, error) {
	args := m.Called(from, acct, calls)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interfaces.CallResult), args.Error(1)
}

func (m *MockAccountService) Relay(from, acct, target common.Address, value *big.Int, data []byte) (*interfaces.CallResult, error) {
	args := m.Called(from, acct, target, value, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.CallResult), args.Error(1)
}

func (m *MockAccountService) PayWithApprovedToken(from, acct, token, recipient common.Address, amount *big.Int) error {
	args := m.Called(from, acct, token, recipient, amount)
	return args.Error(0)
}

func (m *MockAccountService) EmergencyWithdraw(from, acct, to common.Address, amount *big.Int) error {
	args := m.Called(from, acct, to, amount)
	return args.Error(0)
}

func (m *MockAccountService) IssueTicket(from, identity common.Address, eventName, seat string) (*big.Int, error) {
	args := m.Called(from, identity, eventName, seat)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockAccountService) Balance(addr common.Address) (*big.Int, error) {
	args := m.Called(addr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockAccountService) Transfer(from, to common.Address, value *big.Int) error {
	args := m.Called(from, to, value)
	return args.Error(0)
}

func (m *MockAccountService) Fund(to common.Address, amount *big.Int) error {
	args := m.Called(to, amount)
	return args.Error(0)
}

var _ interfaces.AccountService = (*MockAccountService)(nil)
