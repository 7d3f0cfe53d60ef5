package registry

import (
	"github.com/ethereum/go-ethereum/common"
)

// Storage is the registry state. It lives in the proxy and survives logic
// upgrades. The identity mapping is injective and append-only: entries are
// never reassigned or removed, and List holds the accounts in creation order.
type Storage struct {
	Initialized    bool                              `json:"initialized"`
	Owner          common.Address                    `json:"owner"`
	ApprovedTokens []common.Address                  `json:"approvedTokens"`
	TicketIssuer   common.Address                    `json:"ticketIssuer"`
	Accounts       map[common.Address]common.Address `json:"accounts"`
	Members        map[common.Address]bool           `json:"members"`
	List           []common.Address                  `json:"list"`
}

// NewStorage returns empty registry storage.
func NewStorage() *Storage {
	return &Storage{
		Accounts: make(map[common.Address]common.Address),
		Members:  make(map[common.Address]bool),
	}
}

func (s *Storage) ensureMaps() {
	if s.Accounts == nil {
		s.Accounts = make(map[common.Address]common.Address)
	}
	if s.Members == nil {
		s.Members = make(map[common.Address]bool)
	}
}
