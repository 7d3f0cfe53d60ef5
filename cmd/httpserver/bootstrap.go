package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/account-registry/chain"
	"github.com/ruteri/account-registry/deploy"
	"github.com/ruteri/account-registry/interfaces"
	"github.com/ruteri/account-registry/storage"
	"github.com/urfave/cli/v2"
)

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

var DeployConfigFlag = &cli.StringFlag{
	Name:    "deploy-config",
	EnvVars: []string{"REGISTRY_DEPLOY_CONFIG"},
	Usage:   "YAML deployment config; owner and token flags extend it",
}

var OwnerFlag = &cli.StringFlag{
	Name:    "owner",
	EnvVars: []string{"REGISTRY_OWNER"},
	Usage:   "registry owner address, required unless restoring a checkpoint",
}

var TokenFlag = &cli.StringSliceFlag{
	Name:  "token",
	Usage: "approved token to deploy as NAME:SYMBOL, may be repeated",
}

var WithoutTicketIssuerFlag = &cli.BoolFlag{
	Name:  "without-ticket-issuer",
	Usage: "do not deploy the ticket issuer",
}

var StorageFlag = &cli.StringSliceFlag{
	Name:  "storage",
	Usage: "storage backend URI for checkpoints and artifacts (file, s3, ipfs, vault), may be repeated",
}

var RestoreCheckpointFlag = &cli.StringFlag{
	Name:  "restore-checkpoint",
	Usage: "content id of a checkpoint to restore instead of deploying a new registry",
}

var PublishArtifactFlag = &cli.BoolFlag{
	Name:  "publish-account-artifact",
	Usage: "publish the account init payload to storage at startup",
}

var CheckpointOnExitFlag = &cli.BoolFlag{
	Name:  "checkpoint-on-exit",
	Value: true,
	Usage: "store a checkpoint on shutdown when storage is configured",
}

var RegistryFlags = []cli.Flag{
	ListenAddrFlag,
	DeployConfigFlag,
	OwnerFlag,
	TokenFlag,
	WithoutTicketIssuerFlag,
	StorageFlag,
	RestoreCheckpointFlag,
	PublishArtifactFlag,
	CheckpointOnExitFlag,
}

// SetupStorage builds the storage backend from the storage flags. It returns
// nil when no storage is configured.
func SetupStorage(cCtx *cli.Context, logger *slog.Logger) (interfaces.StorageBackend, error) {
	uris := cCtx.StringSlice(StorageFlag.Name)
	if len(uris) == 0 {
		return nil, nil
	}

	factory := storage.NewStorageBackendFactory(logger)
	if len(uris) == 1 {
		return factory.StorageBackendFor(interfaces.StorageBackendLocation(uris[0]))
	}

	locations := make([]interfaces.StorageBackendLocation, len(uris))
	for i, uri := range uris {
		locations[i] = interfaces.StorageBackendLocation(uri)
	}
	return factory.CreateMultiBackend(locations)
}

// SetupRegistry restores the environment from a checkpoint or deploys a new
// registry into a fresh one.
func SetupRegistry(ctx context.Context, cCtx *cli.Context, backend interfaces.StorageBackend, logger *slog.Logger) (*chain.Env, *deploy.Deployment, error) {
	if restore := cCtx.String(RestoreCheckpointFlag.Name); restore != "" {
		if backend == nil {
			return nil, nil, errors.New("restore-checkpoint requires a storage backend")
		}
		id, err := interfaces.NewContentIDFromHex(restore)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid checkpoint id: %w", err)
		}
		logger.Info("Restoring checkpoint", "id", restore, "storage", backend.LocationURI())
		return deploy.Restore(ctx, backend, id, logger)
	}

	cfg, err := deployConfig(cCtx)
	if err != nil {
		return nil, nil, err
	}

	env := chain.NewEnv(logger)
	d, err := deploy.Bootstrap(env, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return env, d, nil
}

func deployConfig(cCtx *cli.Context) (deploy.Config, error) {
	var cfg deploy.Config
	if path := cCtx.String(DeployConfigFlag.Name); path != "" {
		var err error
		if cfg, err = deploy.LoadConfig(path); err != nil {
			return deploy.Config{}, err
		}
	}

	if owner := cCtx.String(OwnerFlag.Name); owner != "" {
		if !common.IsHexAddress(owner) {
			return deploy.Config{}, fmt.Errorf("invalid owner address %q", owner)
		}
		cfg.Owner = common.HexToAddress(owner)
	}
	if cCtx.Bool(WithoutTicketIssuerFlag.Name) {
		cfg.WithoutTicketIssuer = true
	}
	for _, spec := range cCtx.StringSlice(TokenFlag.Name) {
		name, symbol, ok := strings.Cut(spec, ":")
		if !ok || name == "" || symbol == "" {
			return deploy.Config{}, fmt.Errorf("invalid token %q, expected NAME:SYMBOL", spec)
		}
		cfg.Tokens = append(cfg.Tokens, deploy.TokenConfig{Name: name, Symbol: symbol})
	}
	return cfg, nil
}
