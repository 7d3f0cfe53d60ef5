package clients

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ruteri/account-registry/api"
	"github.com/ruteri/account-registry/interfaces"
)

// APIError is a non-2xx response of the registry API.
type APIError struct {
	StatusCode int
	Kind       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("registry API returned %d", e.StatusCode)
	}
	return fmt.Sprintf("registry API returned %d: %s", e.StatusCode, e.Message)
}

// Unwrap exposes the error kind, so errors.Is matches the kinds of
// package interfaces on the client side too.
func (e *APIError) Unwrap() error {
	if e.Kind == "" {
		return nil
	}
	return &interfaces.Error{Kind: e.Kind}
}

// RegistryClient talks to the registry HTTP API. It implements
// interfaces.AccountService.
type RegistryClient struct {
	// ServerAddr is the base URL of the registry server.
	ServerAddr string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

var _ interfaces.AccountService = (*RegistryClient)(nil)

func NewRegistryClient(serverAddr string) *RegistryClient {
	return &RegistryClient{ServerAddr: strings.TrimSuffix(serverAddr, "/")}
}

func (c *RegistryClient) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("could not encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.ServerAddr+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp api.ErrorResponse
		if raw, err := io.ReadAll(resp.Body); err == nil {
			if json.Unmarshal(raw, &errResp) == nil {
				apiErr.Kind = errResp.Kind
				apiErr.Message = errResp.Error
			} else {
				apiErr.Message = string(raw)
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not parse response of %s: %w", path, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound && apiErr.Kind == ""
}

func (c *RegistryClient) Info() (*interfaces.RegistryInfo, error) {
	var resp api.RegistryResponse
	if err := c.do(http.MethodGet, "/api/registry", nil, &resp); err != nil {
		return nil, err
	}
	return &interfaces.RegistryInfo{
		Address:        resp.Address,
		Implementation: resp.Implementation,
		Owner:          resp.Owner,
		Version:        resp.Version,
		ApprovedTokens: resp.ApprovedTokens,
		TicketIssuer:   resp.TicketIssuer,
		TotalAccounts:  uint64(resp.TotalAccounts),
	}, nil
}

func (c *RegistryClient) CreateAccount(from, identity common.Address) (common.Address, error) {
	var resp api.AccountResponse
	err := c.do(http.MethodPost, "/api/accounts", &api.CreateAccountRequest{From: from, Identity: identity}, &resp)
	return resp.Account, err
}

func (c *RegistryClient) GetOrCreateAccount(from, identity common.Address) (common.Address, error) {
	var resp api.AccountResponse
	err := c.do(http.MethodPut, "/api/identities/"+identity.Hex()+"/account", &api.CreateAccountRequest{From: from, Identity: identity}, &resp)
	return resp.Account, err
}

// GetAccount returns false, without error, when identity has no account.
func (c *RegistryClient) GetAccount(identity common.Address) (common.Address, bool, error) {
	var resp api.AccountResponse
	err := c.do(http.MethodGet, "/api/identities/"+identity.Hex()+"/account", nil, &resp)
	if isNotFound(err) {
		return common.Address{}, false, nil
	}
	if err != nil {
		return common.Address{}, false, err
	}
	return resp.Account, true, nil
}

func (c *RegistryClient) PredictAddress(identity common.Address) (common.Address, error) {
	var resp api.AccountResponse
	err := c.do(http.MethodGet, "/api/identities/"+identity.Hex()+"/predicted", nil, &resp)
	return resp.Account, err
}

func (c *RegistryClient) IsAccount(addr common.Address) (bool, error) {
	_, err := c.AccountInfo(addr)
	if isNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

func (c *RegistryClient) TotalAccounts() (uint64, error) {
	var resp api.TotalAccountsResponse
	err := c.do(http.MethodGet, "/api/accounts/count", nil, &resp)
	return uint64(resp.Total), err
}

func (c *RegistryClient) AccountAt(index uint64) (common.Address, error) {
	var resp api.AccountResponse
	err := c.do(http.MethodGet, fmt.Sprintf("/api/accounts/index/%d", index), nil, &resp)
	return resp.Account, err
}

func (c *RegistryClient) AccountInfo(acct common.Address) (*interfaces.AccountInfo, error) {
	var resp api.AccountInfoResponse
	if err := c.do(http.MethodGet, "/api/accounts/"+acct.Hex(), nil, &resp); err != nil {
		return nil, err
	}
	return &interfaces.AccountInfo{
		Address:        resp.Address,
		Owner:          resp.Owner,
		Controller:     resp.Controller,
		Balance:        resp.Balance.ToInt(),
		ApprovedTokens: resp.ApprovedTokens,
	}, nil
}

func (c *RegistryClient) Execute(from, acct, target common.Address, value *big.Int, data []byte) (*interfaces.CallResult, error) {
	var resp api.CallResultResponse
	req := &api.CallRequest{From: from, Target: target, Value: (*hexutil.Big)(value), Data: data}
	if err := c.do(http.MethodPost, "/api/accounts/"+acct.Hex()+"/execute", req, &resp); err != nil {
		return nil, err
	}
	return &interfaces.CallResult{Success: resp.Success, ReturnData: resp.ReturnData}, nil
}

func (c *RegistryClient) ExecuteBatch(from, acct common.Address, calls []interfaces.Call) ([]interfaces.CallResult, error) {
	req := &api.BatchRequest{From: from, Calls: make([]api.BatchCall, len(calls))}
	for i, call := range calls {
		req.Calls[i] = api.BatchCall{Target: call.Target, Value: (*hexutil.Big)(call.Value), Data: call.Data}
	}

	var resp api.BatchResponse
	if err := c.do(http.MethodPost, "/api/accounts/"+acct.Hex()+"/execute-batch", req, &resp); err != nil {
		return nil, err
	}
	results := make([]interfaces.CallResult, len(resp.Results))
	for i, res := range resp.Results {
		results[i] = interfaces.CallResult{Success: res.Success, ReturnData: res.ReturnData}
	}
	return results, nil
}

func (c *RegistryClient) Relay(from, acct, target common.Address, value *big.Int, data []byte) (*interfaces.CallResult, error) {
	var resp api.CallResultResponse
	req := &api.CallRequest{From: from, Target: target, Value: (*hexutil.Big)(value), Data: data}
	if err := c.do(http.MethodPost, "/api/accounts/"+acct.Hex()+"/relay", req, &resp); err != nil {
		return nil, err
	}
	return &interfaces.CallResult{Success: resp.Success, ReturnData: resp.ReturnData}, nil
}

func (c *RegistryClient) PayWithApprovedToken(from, acct, token, recipient common.Address, amount *big.Int) error {
	req := &api.PaymentRequest{From: from, Token: token, Recipient: recipient, Amount: (*hexutil.Big)(amount)}
	return c.do(http.MethodPost, "/api/accounts/"+acct.Hex()+"/pay", req, nil)
}

func (c *RegistryClient) EmergencyWithdraw(from, acct, to common.Address, amount *big.Int) error {
	req := &api.WithdrawRequest{From: from, To: to, Amount: (*hexutil.Big)(amount)}
	return c.do(http.MethodPost, "/api/accounts/"+acct.Hex()+"/withdraw", req, nil)
}

func (c *RegistryClient) IssueTicket(from, identity common.Address, eventName, seat string) (*big.Int, error) {
	var resp api.TicketResponse
	req := &api.TicketRequest{From: from, Identity: identity, EventName: eventName, Seat: seat}
	if err := c.do(http.MethodPost, "/api/tickets", req, &resp); err != nil {
		return nil, err
	}
	return resp.TicketID.ToInt(), nil
}

func (c *RegistryClient) Balance(addr common.Address) (*big.Int, error) {
	var resp api.BalanceResponse
	if err := c.do(http.MethodGet, "/api/balances/"+addr.Hex(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Balance.ToInt(), nil
}

func (c *RegistryClient) Transfer(from, to common.Address, value *big.Int) error {
	return c.do(http.MethodPost, "/api/transfers", &api.TransferRequest{From: from, To: to, Value: (*hexutil.Big)(value)}, nil)
}

// Fund requires a server started with funding enabled.
func (c *RegistryClient) Fund(to common.Address, amount *big.Int) error {
	return c.do(http.MethodPost, "/api/fund", &api.FundRequest{To: to, Amount: (*hexutil.Big)(amount)}, nil)
}

// Checkpoint asks the server to store a checkpoint and returns its content id.
func (c *RegistryClient) Checkpoint() (interfaces.ContentID, error) {
	var resp api.CheckpointResponse
	if err := c.do(http.MethodPost, "/api/checkpoints", nil, &resp); err != nil {
		return interfaces.ContentID{}, err
	}
	return interfaces.NewContentIDFromHex(resp.ContentID)
}
