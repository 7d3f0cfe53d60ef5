package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
	"github.com/ruteri/account-registry/api"
	"github.com/ruteri/account-registry/interfaces"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

var (
	errAccountNotFound     = errors.New("account not found")
	errCheckpointsDisabled = errors.New("checkpoints are not configured")
	errMissingAmount       = errors.New("amount is required")
)

// Handler serves the JSON API over an AccountService.
type Handler struct {
	service      interfaces.AccountService
	checkpointer interfaces.Checkpointer
	log          *slog.Logger
}

// NewHandler creates a handler. checkpointer may be nil, in which case the
// checkpoint endpoint answers 503.
func NewHandler(service interfaces.AccountService, checkpointer interfaces.Checkpointer, log *slog.Logger) *Handler {
	return &Handler{
		service:      service,
		checkpointer: checkpointer,
		log:          log,
	}
}

// HandleRegistry returns the registry description.
//
// URL format: GET /api/registry
func (h *Handler) HandleRegistry(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Info()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.NewRegistryResponse(info))
}

// HandleCreateAccount deploys the account of an identity.
//
// URL format: POST /api/accounts
func (h *Handler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req api.CreateAccountRequest
	if !h.decode(w, r, &req) {
		return
	}

	addr, err := h.service.CreateAccount(req.From, req.Identity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, &api.AccountResponse{Identity: req.Identity, Account: addr})
}

// HandleGetOrCreateAccount returns the account of an identity, deploying it
// first if needed.
//
// URL format: PUT /api/identities/{identity}/account
func (h *Handler) HandleGetOrCreateAccount(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.addressParam(w, r, "identity")
	if !ok {
		return
	}
	var req api.CreateAccountRequest
	if !h.decode(w, r, &req) {
		return
	}

	addr, err := h.service.GetOrCreateAccount(req.From, identity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, &api.AccountResponse{Identity: identity, Account: addr})
}

// HandleGetAccount looks up the account of an identity.
//
// URL format: GET /api/identities/{identity}/account
func (h *Handler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.addressParam(w, r, "identity")
	if !ok {
		return
	}

	addr, exists, err := h.service.GetAccount(identity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !exists {
		h.writeError(w, r, &RequestError{StatusCode: http.StatusNotFound, Err: errAccountNotFound})
		return
	}
	h.writeJSON(w, http.StatusOK, &api.AccountResponse{Identity: identity, Account: addr, Exists: &exists})
}

// HandlePredictAddress returns where the account of an identity is or will
// be deployed.
//
// URL format: GET /api/identities/{identity}/predicted
func (h *Handler) HandlePredictAddress(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.addressParam(w, r, "identity")
	if !ok {
		return
	}

	addr, err := h.service.PredictAddress(identity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	exists, err := h.service.IsAccount(addr)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, &api.AccountResponse{Identity: identity, Account: addr, Exists: &exists})
}

// HandleTotalAccounts returns the number of registered accounts.
//
// URL format: GET /api/accounts/count
func (h *Handler) HandleTotalAccounts(w http.ResponseWriter, r *http.Request) {
	total, err := h.service.TotalAccounts()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, &api.TotalAccountsResponse{Total: hexutil.Uint64(total)})
}

// HandleAccountAt returns the account registered at a creation index.
//
// URL format: GET /api/accounts/index/{index}
func (h *Handler) HandleAccountAt(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 64)
	if err != nil {
		h.writeError(w, r, badRequest(fmt.Errorf("invalid index: %w", err)))
		return
	}

	addr, err := h.service.AccountAt(index)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, &api.AccountResponse{Account: addr})
}

// HandleAccountInfo describes a registered account.
//
// URL format: GET /api/accounts/{account}
func (h *Handler) HandleAccountInfo(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.accountParam(w, r)
	if !ok {
		return
	}

	info, err := h.service.AccountInfo(acct)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.NewAccountInfoResponse(info))
}

// HandleExecute makes an account call a target. A failing target call is
// reported in the result with status 200.
//
// URL format: POST /api/accounts/{account}/execute
func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.accountParam(w, r)
	if !ok {
		return
	}
	var req api.CallRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.service.Execute(req.From, acct, req.Target, amountOrZero(req.Value), req.Data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.NewCallResultResponse(*res))
}

// HandleExecuteBatch makes an account perform several calls in order.
//
// URL format: POST /api/accounts/{account}/execute-batch
func (h *Handler) HandleExecuteBatch(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.accountParam(w, r)
	if !ok {
		return
	}
	var req api.BatchRequest
	if !h.decode(w, r, &req) {
		return
	}

	results, err := h.service.ExecuteBatch(req.From, acct, req.ToCalls())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := &api.BatchResponse{Results: make([]api.CallResultResponse, len(results))}
	for i, res := range results {
		resp.Results[i] = api.NewCallResultResponse(res)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleRelay has the registry owner execute a call through an account.
//
// URL format: POST /api/accounts/{account}/relay
func (h *Handler) HandleRelay(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.accountParam(w, r)
	if !ok {
		return
	}
	var req api.CallRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.service.Relay(req.From, acct, req.Target, amountOrZero(req.Value), req.Data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.NewCallResultResponse(*res))
}

// HandlePay pays with an approved token on behalf of the account owner.
//
// URL format: POST /api/accounts/{account}/pay
func (h *Handler) HandlePay(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.accountParam(w, r)
	if !ok {
		return
	}
	var req api.PaymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Amount == nil {
		h.writeError(w, r, badRequest(errMissingAmount))
		return
	}

	if err := h.service.PayWithApprovedToken(req.From, acct, req.Token, req.Recipient, req.Amount.ToInt()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleWithdraw moves native value out of an account.
//
// URL format: POST /api/accounts/{account}/withdraw
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.accountParam(w, r)
	if !ok {
		return
	}
	var req api.WithdrawRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.EmergencyWithdraw(req.From, acct, req.To, amountOrZero(req.Amount)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleIssueTicket issues an event ticket to the account of an identity.
//
// URL format: POST /api/tickets
func (h *Handler) HandleIssueTicket(w http.ResponseWriter, r *http.Request) {
	var req api.TicketRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.service.IssueTicket(req.From, req.Identity, req.EventName, req.Seat)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, &api.TicketResponse{TicketID: (*hexutil.Big)(id)})
}

// HandleBalance returns the native balance of any address.
//
// URL format: GET /api/balances/{address}
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	addr, ok := h.addressParam(w, r, "address")
	if !ok {
		return
	}

	balance, err := h.service.Balance(addr)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, &api.BalanceResponse{Address: addr, Balance: (*hexutil.Big)(balance)})
}

// HandleTransfer sends native value between two addresses.
//
// URL format: POST /api/transfers
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	var req api.TransferRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Value == nil {
		h.writeError(w, r, badRequest(errMissingAmount))
		return
	}

	if err := h.service.Transfer(req.From, req.To, req.Value.ToInt()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleFund credits development funds to an address.
//
// URL format: POST /api/fund
func (h *Handler) HandleFund(w http.ResponseWriter, r *http.Request) {
	var req api.FundRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Amount == nil {
		h.writeError(w, r, badRequest(errMissingAmount))
		return
	}

	if err := h.service.Fund(req.To, req.Amount.ToInt()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.log.Info("Funded address", "to", req.To, "amount", req.Amount.ToInt())
	w.WriteHeader(http.StatusNoContent)
}

// HandleCheckpoint stores the current state and returns its content id.
//
// URL format: POST /api/checkpoints
func (h *Handler) HandleCheckpoint(w http.ResponseWriter, r *http.Request) {
	if h.checkpointer == nil {
		h.writeError(w, r, &RequestError{StatusCode: http.StatusServiceUnavailable, Err: errCheckpointsDisabled})
		return
	}

	id, err := h.checkpointer.Checkpoint(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, &api.CheckpointResponse{ContentID: id.String()})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, r, badRequest(fmt.Errorf("invalid request body: %w", err)))
		return false
	}
	return true
}

func (h *Handler) addressParam(w http.ResponseWriter, r *http.Request, name string) (common.Address, bool) {
	raw := chi.URLParam(r, name)
	if !common.IsHexAddress(raw) {
		h.writeError(w, r, badRequest(fmt.Errorf("invalid %s address %q", name, raw)))
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

// accountParam parses the {account} URL parameter and checks that it names
// a registered account.
func (h *Handler) accountParam(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	acct, ok := h.addressParam(w, r, "account")
	if !ok {
		return common.Address{}, false
	}
	isAccount, err := h.service.IsAccount(acct)
	if err != nil {
		h.writeError(w, r, err)
		return common.Address{}, false
	}
	if !isAccount {
		h.writeError(w, r, &RequestError{StatusCode: http.StatusNotFound, Err: errAccountNotFound})
		return common.Address{}, false
	}
	return acct, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", "path", r.URL.Path, "status", status, "err", err)
	} else {
		h.log.Debug("Request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	h.writeJSON(w, status, &api.ErrorResponse{Error: err.Error(), Kind: interfaces.ErrorKind(err)})
}

// amountOrZero is used where a missing amount means "nothing".
func amountOrZero(v *hexutil.Big) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v.ToInt()
}
