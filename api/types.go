package api

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ruteri/account-registry/interfaces"
)

// ErrorResponse is the body of every failed API request. Kind carries the
// contract error kind when the failure has one.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// RegistryResponse describes the deployed registry.
type RegistryResponse struct {
	Address        common.Address   `json:"address"`
	Implementation common.Address   `json:"implementation"`
	Owner          common.Address   `json:"owner"`
	Version        string           `json:"version"`
	ApprovedTokens []common.Address `json:"approvedTokens"`
	TicketIssuer   common.Address   `json:"ticketIssuer"`
	TotalAccounts  hexutil.Uint64   `json:"totalAccounts"`
}

func NewRegistryResponse(info *interfaces.RegistryInfo) *RegistryResponse {
	return &RegistryResponse{
		Address:        info.Address,
		Implementation: info.Implementation,
		Owner:          info.Owner,
		Version:        info.Version,
		ApprovedTokens: nonNilAddresses(info.ApprovedTokens),
		TicketIssuer:   info.TicketIssuer,
		TotalAccounts:  hexutil.Uint64(info.TotalAccounts),
	}
}

// CreateAccountRequest asks the registry to deploy the account of Identity.
// From pays for nothing; account creation is open to any caller.
type CreateAccountRequest struct {
	From     common.Address `json:"from"`
	Identity common.Address `json:"identity"`
}

// AccountResponse carries an account address, and whether the identity has
// one where that is in question.
type AccountResponse struct {
	Identity common.Address `json:"identity,omitempty"`
	Account  common.Address `json:"account"`
	Exists   *bool          `json:"exists,omitempty"`
}

// AccountInfoResponse describes a registered account.
type AccountInfoResponse struct {
	Address        common.Address   `json:"address"`
	Owner          common.Address   `json:"owner"`
	Controller     common.Address   `json:"controller"`
	Balance        *hexutil.Big     `json:"balance"`
	ApprovedTokens []common.Address `json:"approvedTokens"`
}

func NewAccountInfoResponse(info *interfaces.AccountInfo) *AccountInfoResponse {
	return &AccountInfoResponse{
		Address:        info.Address,
		Owner:          info.Owner,
		Controller:     info.Controller,
		Balance:        (*hexutil.Big)(info.Balance),
		ApprovedTokens: nonNilAddresses(info.ApprovedTokens),
	}
}

// TotalAccountsResponse is the number of registered accounts.
type TotalAccountsResponse struct {
	Total hexutil.Uint64 `json:"total"`
}

// CallRequest is one call an account makes on behalf of From.
type CallRequest struct {
	From   common.Address `json:"from"`
	Target common.Address `json:"target"`
	Value  *hexutil.Big   `json:"value,omitempty"`
	Data   hexutil.Bytes  `json:"data,omitempty"`
}

// BatchCall is one element of a batch request.
type BatchCall struct {
	Target common.Address `json:"target"`
	Value  *hexutil.Big   `json:"value,omitempty"`
	Data   hexutil.Bytes  `json:"data,omitempty"`
}

// BatchRequest executes Calls in order from one account.
type BatchRequest struct {
	From  common.Address `json:"from"`
	Calls []BatchCall    `json:"calls"`
}

// ToCalls converts the request to service calls.
func (r *BatchRequest) ToCalls() []interfaces.Call {
	calls := make([]interfaces.Call, len(r.Calls))
	for i, c := range r.Calls {
		calls[i] = interfaces.Call{Target: c.Target, Value: c.Value.ToInt(), Data: c.Data}
	}
	return calls
}

// CallResultResponse reports the outcome of one executed call. Error holds
// the decoded revert reason of a failed call.
type CallResultResponse struct {
	Success    bool          `json:"success"`
	ReturnData hexutil.Bytes `json:"returnData"`
	Error      string        `json:"error,omitempty"`
}

func NewCallResultResponse(res interfaces.CallResult) CallResultResponse {
	out := CallResultResponse{Success: res.Success, ReturnData: nonNilBytes(res.ReturnData)}
	if err := res.Err(); err != nil {
		out.Error = err.Error()
	}
	return out
}

// BatchResponse holds one result per call, in request order.
type BatchResponse struct {
	Results []CallResultResponse `json:"results"`
}

// PaymentRequest pays Amount of Token from the account owner to Recipient.
type PaymentRequest struct {
	From      common.Address `json:"from"`
	Token     common.Address `json:"token"`
	Recipient common.Address `json:"recipient"`
	Amount    *hexutil.Big   `json:"amount"`
}

// WithdrawRequest moves native value out of an account. A zero or missing
// Amount withdraws the whole balance.
type WithdrawRequest struct {
	From   common.Address `json:"from"`
	To     common.Address `json:"to"`
	Amount *hexutil.Big   `json:"amount,omitempty"`
}

// TicketRequest issues a ticket to the account of Identity.
type TicketRequest struct {
	From      common.Address `json:"from"`
	Identity  common.Address `json:"identity"`
	EventName string         `json:"eventName"`
	Seat      string         `json:"seat"`
}

// TicketResponse carries the id of an issued ticket.
type TicketResponse struct {
	TicketID *hexutil.Big `json:"ticketId"`
}

// BalanceResponse is the native balance of an address.
type BalanceResponse struct {
	Address common.Address `json:"address"`
	Balance *hexutil.Big   `json:"balance"`
}

// TransferRequest sends native value between addresses.
type TransferRequest struct {
	From  common.Address `json:"from"`
	To    common.Address `json:"to"`
	Value *hexutil.Big   `json:"value"`
}

// FundRequest credits development funds.
type FundRequest struct {
	To     common.Address `json:"to"`
	Amount *hexutil.Big   `json:"amount"`
}

// CheckpointResponse carries the content id of a stored checkpoint.
type CheckpointResponse struct {
	ContentID string `json:"contentId"`
}

func nonNilAddresses(addrs []common.Address) []common.Address {
	if addrs == nil {
		return []common.Address{}
	}
	return addrs
}

func nonNilBytes(b []byte) hexutil.Bytes {
	if b == nil {
		return hexutil.Bytes{}
	}
	return b
}
