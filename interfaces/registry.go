package interfaces

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RegistryInfo describes a deployed registry.
type RegistryInfo struct {
	Address        common.Address
	Implementation common.Address
	Owner          common.Address
	Version        string
	ApprovedTokens []common.Address
	TicketIssuer   common.Address
	TotalAccounts  uint64
}

// AccountInfo describes a registered account.
type AccountInfo struct {
	Address        common.Address
	Owner          common.Address
	Controller     common.Address
	Balance        *big.Int
	ApprovedTokens []common.Address
}

// AccountService exposes registry and account operations as seen by an
// external caller identified by the from address.
type AccountService interface {
	Info() (*RegistryInfo, error)

	CreateAccount(from, identity common.Address) (common.Address, error)
	GetOrCreateAccount(from, identity common.Address) (common.Address, error)
	GetAccount(identity common.Address) (common.Address, bool, error)
	PredictAddress(identity common.Address) (common.Address, error)
	IsAccount(addr common.Address) (bool, error)
	TotalAccounts() (uint64, error)
	AccountAt(index uint64) (common.Address, error)
	AccountInfo(account common.Address) (*AccountInfo, error)

	Execute(from, account, target common.Address, value *big.Int, data []byte) (*CallResult, error)
	ExecuteBatch(from, account common.Address, calls []Call) ([]CallResult, error)
	Relay(from, account, target common.Address, value *big.Int, data []byte) (*CallResult, error)
	PayWithApprovedToken(from, account, token, recipient common.Address, amount *big.Int) error
	EmergencyWithdraw(from, account, to common.Address, amount *big.Int) error
	IssueTicket(from, identity common.Address, eventName, seat string) (*big.Int, error)

	Balance(addr common.Address) (*big.Int, error)
	Transfer(from, to common.Address, value *big.Int) error
	Fund(to common.Address, amount *big.Int) error
}

// Observer is notified of service outcomes, typically to record metrics.
type Observer interface {
	AccountCreated()
	CallExecuted(success bool)
	RequestReverted(operation string, err error)
}

// Checkpointer persists the environment state and returns its content id.
type Checkpointer interface {
	Checkpoint(ctx context.Context) (ContentID, error)
}
