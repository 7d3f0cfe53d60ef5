package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ruteri/account-registry/api"
	"github.com/ruteri/account-registry/api/clients"
	"github.com/ruteri/account-registry/cmd/flags"
	"github.com/ruteri/account-registry/interfaces"
	"github.com/urfave/cli/v2"
)

var flagFrom = &cli.StringFlag{
	Name:     "from",
	Required: true,
	Usage:    "address of the caller",
}
var flagIdentity = &cli.StringFlag{
	Name:     "identity",
	Required: true,
	Usage:    "identity address owning the account",
}
var flagAccount = &cli.StringFlag{
	Name:     "account",
	Required: true,
	Usage:    "account address",
}
var flagTarget = &cli.StringFlag{
	Name:     "target",
	Required: true,
	Usage:    "call target address",
}
var flagTo = &cli.StringFlag{
	Name:     "to",
	Required: true,
	Usage:    "recipient address",
}
var flagValue = &cli.StringFlag{
	Name:  "value",
	Value: "0",
	Usage: "native value, decimal or 0x-prefixed hex",
}
var flagData = &cli.StringFlag{
	Name:  "data",
	Usage: "0x-prefixed call data",
}
var flagToken = &cli.StringFlag{
	Name:     "token",
	Required: true,
	Usage:    "approved token address",
}
var flagEvent = &cli.StringFlag{
	Name:     "event",
	Required: true,
	Usage:    "ticket event name",
}
var flagSeat = &cli.StringFlag{
	Name:     "seat",
	Required: true,
	Usage:    "ticket seat",
}
var flagIndex = &cli.Uint64Flag{
	Name:     "index",
	Required: true,
	Usage:    "account index",
}
var flagCalls = &cli.StringFlag{
	Name:     "calls",
	Required: true,
	Usage:    `JSON array of calls: [{"target":"0x..","value":"0x0","data":"0x"}]`,
}

const usage string = `command line client for the account registry API`

type action func(c *clients.RegistryClient, cCtx *cli.Context) (interface{}, error)

// command wraps an action that prints its result as JSON.
func command(name, help string, cmdFlags []cli.Flag, fn action) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: help,
		Flags: cmdFlags,
		Action: func(cCtx *cli.Context) error {
			c := clients.NewRegistryClient(cCtx.String(flags.ServerAddrFlag.Name))
			out, err := fn(c, cCtx)
			if err != nil {
				return fmt.Errorf("%s failed: %w", name, err)
			}
			if out == nil {
				return nil
			}
			encoded, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
			return nil
		},
	}
}

func main() {
	app := &cli.App{
		Name:  "registry-client",
		Usage: usage,
		Flags: []cli.Flag{
			flags.ServerAddrFlag,
		},
		Commands: []*cli.Command{
			command("info", "show the registry", nil, func(c *clients.RegistryClient, _ *cli.Context) (interface{}, error) {
				info, err := c.Info()
				if err != nil {
					return nil, err
				}
				return api.NewRegistryResponse(info), nil
			}),
			command("create-account", "create the account of an identity", []cli.Flag{flagFrom, flagIdentity}, func(c *clients.RegistryClient, cCtx *cli.Context) (interface{}, error) {
				from, identity, err := addressPair(cCtx, flagFrom, flagIdentity)
				if err != nil {
					return nil, err
				}
				acct, err := c.CreateAccount(from, identity)
				return &api.AccountResponse{Identity: identity, Account: acct}, err
			}),
			command("get-or-create-account", "return the account of an identity, creating it if needed", []cli.Flag{flagFrom, flagIdentity}, func(c *clients.RegistryClient, cCtx *cli.Context) (interface{}, error) {
				from, identity, err := addressPair(cCtx, flagFrom, flagIdentity)
				if err != nil {
					return nil, err
				}
				acct, err := c.GetOrCreateAccount(from, identity)
				return &api.AccountResponse{Identity: identity, Account: acct}, err
			}),
			command("get-account", "look up the account of an identity", []cli.Flag{flagIdentity}, func(c *clients.RegistryClient, cCtx *cli.Context) (interface{}, error) {
				identity, err := address(cCtx, flagIdentity)
				if err != nil {
					return nil, err
				}
				acct, found, err := c.GetAccount(identity)
				return &api.AccountResponse{Identity: identity, Account: acct, Exists: &found}, err
			}),
			command("predict", "compute the account address of an identity", []cli.Flag{flagIdentity}, func(c *clients.RegistryClient, cCtx *cli.Context) (interface{}, error) {
				identity, err := address(cCtx, flagIdentity)
				if err != nil {
					return nil, err
				}
				acct, err := c.PredictAddress(identity)
				return &api.AccountResponse{Identity: identity, Account: acct}, err
			}),
			command("total", "count registered accounts", nil, func(c *clients.RegistryClient, _ *cli.Context) (interface{}, error) {
				total, err := c.TotalAccounts()
				return &api.TotalAccountsResponse{Total: hexutil.Uint64(total)}, err
			}),
			command("account-at", "return the account at an index", []cli.Flag{flagIndex}, func(c *clients.RegistryClient, cCtx *cli.Context) (interface{}, error) {
				acct, err := c.AccountAt(cCtx.Uint64(flagIndex.Name))
				return &api.AccountResponse{Account: acct}, err
			}),
			command("account-info", "describe an account", []cli.Flag{flagAccount}, func(c *clients.RegistryClient, cCtx *cli.Context) (interface{}, error) {
				acct, err := address(cCtx, flagAccount)
				if err != nil {
					return nil, err
				}
				info, err := c.AccountInfo(acct)
				if err != nil {
					return nil, err
				}
				return api.NewAccountInfoResponse(info), nil
			}),
			command("execute", "execute a call from an account", []cli.Flag{flagFrom, flagAccount, flagTarget, flagValue, flagData}, callAction(false)),
			command("relay", "relay a call through the registry", []cli.Flag{flagFrom, flagAccount, flagTarget, flagValue, flagData}, callAction(true)),
			command("execute-batch", "execute a batch of calls from an account", []cli.Flag{flagFrom, flagAccount, flagCalls}, func(c *clients.RegistryClient, cCtx *cli.Context) (interface{}, error) {
				from, acct, err := addressPair(cCtx, flagFrom, flagAccount)
				if err != nil {
					return nil, err
				}
				var batch []api.BatchCall
				if err := json.Unmarshal([]byte(cCtx.String(flagCalls.Name)), &batch); err != nil {
					return nil, fmt.Errorf("could not parse calls: %w", err)
				}
				req := api.BatchRequest{Calls: batch}
				results, err := c.ExecuteBatch(from, acct, req.ToCalls())
				if err != nil {
					return nil, err
				}
				resp := &api.BatchResponse{Results: make([]api.CallResultResponse, len(results))}
				for i, res := range results {
					resp.Results[i] = api.NewCallResultResponse(res)
				}
				return resp, nil
			}),
			command("pay", "pay with an approved token", []cli.Flag{flagFrom, flagAccount, flagToken, flagTo, flagValue}, func(c *clients.RegistryClient, cCtx *cli.Context) (interface{}, error) {
				addrs, err := addressList(cCtx, flagFrom, flagAccount, flagToken, flagTo)
				if err != nil {
					return nil, err
				}
				amount, err := value(cCtx)
				if err != nil {
					return nil, err
				}
				return nil, c.PayWithApprovedToken(addrs[0], addrs[1], addrs[2], addrs[3], amount)
			}),
			command("withdraw", "withdraw native value from an account, 0 for all", []cli.Flag{flagFrom, flagAccount, flagTo, flagValue}, func(c *clients.RegistryClient, cCtx *cli.Context) (interface{}, error) {
				addrs, err := addressList(cCtx, flagFrom, flagAccount, flagTo)
				if err != nil {
					return nil, err
				}
				amount, err := value(cCtx)
				if err != nil {
					return nil, err
				}
				return nil, c.EmergencyWithdraw(addrs[0], addrs[1], addrs[2], amount)
			}),
			command("issue-ticket", "issue a ticket to the account of an identity", []cli.Flag{flagFrom, flagIdentity, flagEvent, flagSeat}, func(c *clients.RegistryClient, cCtx *cli.Context) (interface{}, error) {
				from, identity, err := addressPair(cCtx, flagFrom, flagIdentity)
				if err != nil {
					return nil, err
				}
				id, err := c.IssueTicket(from, identity, cCtx.String(flagEvent.Name), cCtx.String(flagSeat.Name))
				return &api.TicketResponse{TicketID: (*hexutil.Big)(id)}, err
			}),
			command("balance", "show the native balance of an address", []cli.Flag{flagAccount}, func(c *clients.RegistryClient, cCtx *cli.Context) (interface{}, error) {
				addr, err := address(cCtx, flagAccount)
				if err != nil {
					return nil, err
				}
				balance, err := c.Balance(addr)
				return &api.BalanceResponse{Address: addr, Balance: (*hexutil.Big)(balance)}, err
			}),
			command("transfer", "send native value", []cli.Flag{flagFrom, flagTo, flagValue}, func(c *clients.RegistryClient, cCtx *cli.Context) (interface{}, error) {
				from, to, err := addressPair(cCtx, flagFrom, flagTo)
				if err != nil {
					return nil, err
				}
				amount, err := value(cCtx)
				if err != nil {
					return nil, err
				}
				return nil, c.Transfer(from, to, amount)
			}),
			command("fund", "credit development funds", []cli.Flag{flagTo, flagValue}, func(c *clients.RegistryClient, cCtx *cli.Context) (interface{}, error) {
				to, err := address(cCtx, flagTo)
				if err != nil {
					return nil, err
				}
				amount, err := value(cCtx)
				if err != nil {
					return nil, err
				}
				return nil, c.Fund(to, amount)
			}),
			command("checkpoint", "store a checkpoint of the server state", nil, func(c *clients.RegistryClient, _ *cli.Context) (interface{}, error) {
				id, err := c.Checkpoint()
				return &api.CheckpointResponse{ContentID: id.String()}, err
			}),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func callAction(relay bool) action {
	return func(c *clients.RegistryClient, cCtx *cli.Context) (interface{}, error) {
		addrs, err := addressList(cCtx, flagFrom, flagAccount, flagTarget)
		if err != nil {
			return nil, err
		}
		amount, err := value(cCtx)
		if err != nil {
			return nil, err
		}
		var data []byte
		if raw := cCtx.String(flagData.Name); raw != "" {
			if data, err = hexutil.Decode(raw); err != nil {
				return nil, fmt.Errorf("invalid data: %w", err)
			}
		}

		var res *interfaces.CallResult
		if relay {
			res, err = c.Relay(addrs[0], addrs[1], addrs[2], amount, data)
		} else {
			res, err = c.Execute(addrs[0], addrs[1], addrs[2], amount, data)
		}
		if err != nil {
			return nil, err
		}
		resp := api.NewCallResultResponse(*res)
		return &resp, nil
	}
}

func address(cCtx *cli.Context, flag *cli.StringFlag) (common.Address, error) {
	raw := cCtx.String(flag.Name)
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("invalid %s address %q", flag.Name, raw)
	}
	return common.HexToAddress(raw), nil
}

func addressList(cCtx *cli.Context, fs ...*cli.StringFlag) ([]common.Address, error) {
	out := make([]common.Address, len(fs))
	for i, f := range fs {
		addr, err := address(cCtx, f)
		if err != nil {
			return nil, err
		}
		out[i] = addr
	}
	return out, nil
}

func addressPair(cCtx *cli.Context, a, b *cli.StringFlag) (common.Address, common.Address, error) {
	out, err := addressList(cCtx, a, b)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	return out[0], out[1], nil
}

func value(cCtx *cli.Context) (*big.Int, error) {
	raw := cCtx.String(flagValue.Name)
	v, ok := new(big.Int).SetString(raw, 0)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid value %q", raw)
	}
	return v, nil
}
