// Package deploy bootstraps a complete account registry into an environment
// and checkpoints it through content-addressed storage.
package deploy

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/account-registry/account"
	"github.com/ruteri/account-registry/chain"
	"github.com/ruteri/account-registry/interfaces"
	"github.com/ruteri/account-registry/registry"
	"github.com/ruteri/account-registry/ticket"
	"github.com/ruteri/account-registry/token"
)

// ErrInvalidConfig is returned for configurations Bootstrap cannot deploy.
var ErrInvalidConfig = errors.New("invalid deployment config")

// TokenConfig describes one approved token to deploy.
type TokenConfig struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// Config describes a registry deployment.
type Config struct {
	// Owner deploys every contract and owns the registry, the tokens and
	// the ticket issuer.
	Owner  common.Address `json:"owner"`
	Tokens []TokenConfig  `json:"tokens"`

	// WithoutTicketIssuer skips the ticket issuer; IssueTicket then fails
	// with InvalidTarget.
	WithoutTicketIssuer bool `json:"withoutTicketIssuer,omitempty"`
}

// Deployment holds the addresses of a bootstrapped registry.
type Deployment struct {
	Registry     common.Address   `json:"registry"`
	Logic        common.Address   `json:"logic"`
	TicketIssuer common.Address   `json:"ticketIssuer"`
	Tokens       []common.Address `json:"tokens"`
	Owner        common.Address   `json:"owner"`
}

// Bootstrap deploys the tokens, the ticket issuer, the registry logic and its
// proxy, initializes the registry and authorizes it as ticket minter. It is
// one request: on failure nothing is left behind.
func Bootstrap(env *chain.Env, cfg Config, log *slog.Logger) (*Deployment, error) {
	if cfg.Owner == (common.Address{}) {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidConfig)
	}

	d := &Deployment{Owner: cfg.Owner, Tokens: []common.Address{}}
	_, err := env.Run(func(host interfaces.Host) error {
		for _, tc := range cfg.Tokens {
			addr, err := host.Deploy(cfg.Owner, token.New(tc.Name, tc.Symbol, cfg.Owner))
			if err != nil {
				return fmt.Errorf("could not deploy token %s: %w", tc.Symbol, err)
			}
			d.Tokens = append(d.Tokens, addr)
		}

		if !cfg.WithoutTicketIssuer {
			addr, err := host.Deploy(cfg.Owner, ticket.New(cfg.Owner))
			if err != nil {
				return fmt.Errorf("could not deploy ticket issuer: %w", err)
			}
			d.TicketIssuer = addr
		}

		var err error
		if d.Logic, err = host.Deploy(cfg.Owner, registry.NewLogic()); err != nil {
			return fmt.Errorf("could not deploy registry logic: %w", err)
		}
		if d.Registry, err = host.Deploy(cfg.Owner, registry.NewProxy(d.Logic)); err != nil {
			return fmt.Errorf("could not deploy registry proxy: %w", err)
		}

		if err := call(host, cfg.Owner, d.Registry, &registry.ABI, "initialize", cfg.Owner, d.Tokens, d.TicketIssuer); err != nil {
			return err
		}
		if d.TicketIssuer != (common.Address{}) {
			return call(host, cfg.Owner, d.TicketIssuer, &ticket.ABI, "setAuthorizedMinter", d.Registry, true)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap failed: %w", err)
	}

	log.Info("Registry deployed",
		"registry", d.Registry,
		"logic", d.Logic,
		"ticketIssuer", d.TicketIssuer,
		"tokens", len(d.Tokens))
	return d, nil
}

func call(host interfaces.Host, from, to common.Address, contractABI *abi.ABI, method string, args ...interface{}) error {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("could not pack %s: %w", method, err)
	}
	if _, err := host.Call(from, to, nil, data); err != nil {
		return fmt.Errorf("%s on %s failed: %w", method, to, err)
	}
	return nil
}

// Codecs returns the checkpoint codec of every contract kind a deployment
// installs.
func Codecs() map[string]chain.Codec {
	return map[string]chain.Codec{
		registry.LogicKind: registry.RestoreLogic,
		registry.ProxyKind: registry.RestoreProxy,
		account.Kind:       account.Restore,
		token.Kind:         token.Restore,
		ticket.Kind:        ticket.Restore,
	}
}
