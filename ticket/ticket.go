// Package ticket implements the ticket issuer: non-fungible event tickets
// minted by authorized minters and redeemed once by their holder.
package ticket

import (
	"encoding/json"
	"fmt"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/account-registry/chain"
	"github.com/ruteri/account-registry/interfaces"
)

// Kind names the issuer in environment checkpoints.
const Kind = "TicketIssuer"

const ABIJSON = `[
	{"type":"function","name":"mint","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"eventName","type":"string"},{"name":"seat","type":"string"}],
	 "outputs":[{"name":"id","type":"uint256"}]},
	{"type":"function","name":"use","stateMutability":"nonpayable","inputs":[{"name":"id","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"isUsed","stateMutability":"view",
	 "inputs":[{"name":"id","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"ownerOf","stateMutability":"view",
	 "inputs":[{"name":"id","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"holder","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"ticketInfo","stateMutability":"view",
	 "inputs":[{"name":"id","type":"uint256"}],
	 "outputs":[{"name":"eventName","type":"string"},{"name":"seat","type":"string"},{"name":"used","type":"bool"}]},
	{"type":"function","name":"setAuthorizedMinter","stateMutability":"nonpayable",
	 "inputs":[{"name":"minter","type":"address"},{"name":"authorized","type":"bool"}],"outputs":[]},
	{"type":"function","name":"isAuthorizedMinter","stateMutability":"view",
	 "inputs":[{"name":"minter","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"pause","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"unpause","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"paused","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"event","name":"TicketMinted","inputs":[
		{"name":"id","type":"uint256","indexed":true},{"name":"to","type":"address","indexed":true},
		{"name":"eventName","type":"string","indexed":false},{"name":"seat","type":"string","indexed":false}]},
	{"type":"event","name":"TicketUsed","inputs":[
		{"name":"id","type":"uint256","indexed":true},{"name":"holder","type":"address","indexed":true}]},
	{"type":"event","name":"MinterUpdated","inputs":[
		{"name":"minter","type":"address","indexed":true},{"name":"authorized","type":"bool","indexed":false}]},
	{"type":"event","name":"Paused","inputs":[{"name":"account","type":"address","indexed":false}]},
	{"type":"event","name":"Unpaused","inputs":[{"name":"account","type":"address","indexed":false}]}
]`

var ABI = chain.MustParseABI(ABIJSON)

// Ticket is one issued ticket.
type Ticket struct {
	Holder    common.Address `json:"holder"`
	EventName string         `json:"eventName"`
	Seat      string         `json:"seat"`
	Used      bool           `json:"used"`
}

// Issuer is the ticket issuer contract.
type Issuer struct {
	owner   common.Address
	paused  bool
	minters map[common.Address]bool

	nextID   uint64
	tickets  map[uint64]Ticket
	balances map[common.Address]uint64
}

// New creates an issuer administered by owner. No minter is authorized.
func New(owner common.Address) *Issuer {
	return &Issuer{
		owner:    owner,
		minters:  make(map[common.Address]bool),
		nextID:   1,
		tickets:  make(map[uint64]Ticket),
		balances: make(map[common.Address]uint64),
	}
}

// Receive implements interfaces.Contract.
func (is *Issuer) Receive(host interfaces.Host, msg interfaces.Message) ([]byte, error) {
	method, args, matched, err := chain.Dispatch(&ABI, msg)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, fmt.Errorf("%w: ticket issuer does not accept plain calls", chain.ErrMalformedCalldata)
	}

	switch method.Name {
	case "mint":
		id, err := is.mint(host, msg, args[0].(common.Address), args[1].(string), args[2].(string))
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(new(big.Int).SetUint64(id))
	case "use":
		return nil, is.use(host, msg, args[0].(*big.Int))
	case "isUsed":
		t, err := is.lookup(args[0].(*big.Int))
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(t.Used)
	case "ownerOf":
		t, err := is.lookup(args[0].(*big.Int))
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(t.Holder)
	case "balanceOf":
		return method.Outputs.Pack(new(big.Int).SetUint64(is.balances[args[0].(common.Address)]))
	case "ticketInfo":
		t, err := is.lookup(args[0].(*big.Int))
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(t.EventName, t.Seat, t.Used)
	case "setAuthorizedMinter":
		return nil, is.setAuthorizedMinter(host, msg, args[0].(common.Address), args[1].(bool))
	case "isAuthorizedMinter":
		return method.Outputs.Pack(is.minters[args[0].(common.Address)])
	case "pause":
		return nil, is.setPaused(host, msg, true)
	case "unpause":
		return nil, is.setPaused(host, msg, false)
	case "paused":
		return method.Outputs.Pack(is.paused)
	case "owner":
		return method.Outputs.Pack(is.owner)
	}
	return nil, fmt.Errorf("%w: unhandled method %s", chain.ErrMalformedCalldata, method.Name)
}

func (is *Issuer) lookup(id *big.Int) (Ticket, error) {
	if !id.IsUint64() {
		return Ticket{}, interfaces.ErrUnknownTicket
	}
	t, ok := is.tickets[id.Uint64()]
	if !ok {
		return Ticket{}, interfaces.ErrUnknownTicket
	}
	return t, nil
}

func (is *Issuer) mint(host interfaces.Host, msg interfaces.Message, to common.Address, eventName, seat string) (uint64, error) {
	if !is.minters[msg.From] {
		return 0, interfaces.ErrNotAuthorizedMinter
	}
	if is.paused {
		return 0, interfaces.ErrPaused
	}
	if to == (common.Address{}) {
		return 0, interfaces.ErrInvalidRecipient
	}

	id := is.nextID
	chain.Set(host, &is.nextID, id+1)
	chain.SetKey(host, is.tickets, id, Ticket{Holder: to, EventName: eventName, Seat: seat})
	chain.SetKey(host, is.balances, to, is.balances[to]+1)

	err := chain.EmitEvent(host, msg.To, ABI.Events["TicketMinted"],
		[]common.Hash{common.BigToHash(new(big.Int).SetUint64(id)), chain.AddressTopic(to)}, eventName, seat)
	return id, err
}

func (is *Issuer) use(host interfaces.Host, msg interfaces.Message, id *big.Int) error {
	t, err := is.lookup(id)
	if err != nil {
		return err
	}
	if t.Holder != msg.From {
		return interfaces.ErrNotTicketHolder
	}
	if t.Used {
		return interfaces.ErrTicketAlreadyUsed
	}

	t.Used = true
	chain.SetKey(host, is.tickets, id.Uint64(), t)
	return chain.EmitEvent(host, msg.To, ABI.Events["TicketUsed"],
		[]common.Hash{common.BigToHash(id), chain.AddressTopic(msg.From)})
}

func (is *Issuer) setAuthorizedMinter(host interfaces.Host, msg interfaces.Message, minter common.Address, authorized bool) error {
	if msg.From != is.owner {
		return interfaces.ErrUnauthorized
	}
	chain.SetKey(host, is.minters, minter, authorized)
	return chain.EmitEvent(host, msg.To, ABI.Events["MinterUpdated"],
		[]common.Hash{chain.AddressTopic(minter)}, authorized)
}

func (is *Issuer) setPaused(host interfaces.Host, msg interfaces.Message, paused bool) error {
	if msg.From != is.owner {
		return interfaces.ErrUnauthorized
	}
	chain.Set(host, &is.paused, paused)

	event := "Unpaused"
	if paused {
		event = "Paused"
	}
	return chain.EmitEvent(host, msg.To, ABI.Events[event], nil, msg.From)
}

type persistedIssuer struct {
	Owner   common.Address    `json:"owner"`
	Paused  bool              `json:"paused"`
	Minters []common.Address  `json:"minters"`
	NextID  uint64            `json:"nextId"`
	Tickets map[uint64]Ticket `json:"tickets"`
}

// Kind implements interfaces.Persistent.
func (is *Issuer) Kind() string { return Kind }

// MarshalState implements interfaces.Persistent. Minters are sorted so equal
// state encodes to equal bytes.
func (is *Issuer) MarshalState() ([]byte, error) {
	p := persistedIssuer{
		Owner:   is.owner,
		Paused:  is.paused,
		NextID:  is.nextID,
		Tickets: is.tickets,
	}
	for m, ok := range is.minters {
		if ok {
			p.Minters = append(p.Minters, m)
		}
	}
	slices.SortFunc(p.Minters, func(a, b common.Address) int { return a.Cmp(b) })
	return json.Marshal(p)
}

// Restore rebuilds an issuer from its checkpointed state. Holder balances
// are recomputed from the tickets.
func Restore(state []byte) (interfaces.Contract, error) {
	var p persistedIssuer
	if err := json.Unmarshal(state, &p); err != nil {
		return nil, fmt.Errorf("could not decode ticket issuer state: %w", err)
	}
	is := New(p.Owner)
	is.paused = p.Paused
	if p.NextID > 0 {
		is.nextID = p.NextID
	}
	for _, m := range p.Minters {
		is.minters[m] = true
	}
	for id, t := range p.Tickets {
		is.tickets[id] = t
		is.balances[t.Holder]++
	}
	return is, nil
}

var (
	_ interfaces.Contract   = (*Issuer)(nil)
	_ interfaces.Persistent = (*Issuer)(nil)
)
