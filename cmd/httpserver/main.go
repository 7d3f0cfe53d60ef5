package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ruteri/account-registry/cmd/flags"
	"github.com/ruteri/account-registry/common"
	"github.com/ruteri/account-registry/deploy"
	"github.com/ruteri/account-registry/httpserver"
	"github.com/ruteri/account-registry/interfaces"
	"github.com/ruteri/account-registry/metrics"
	"github.com/ruteri/account-registry/registry"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "registry-server",
		Usage: "Serve the account registry API",
		Flags: append(append(RegistryFlags, flags.CommonFlags...),
			flags.EnableFundingFlag,
			flags.ReadOnlyFlag,
			flags.LogServiceFlagFn("registry-server"),
		),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)
			cfg := flags.ConfigureServer(cCtx, logger, cCtx.String(ListenAddrFlag.Name))

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			backend, err := SetupStorage(cCtx, logger)
			if err != nil {
				logger.Error("Failed to set up storage", "err", err)
				return err
			}

			env, deployment, err := SetupRegistry(ctx, cCtx, backend, logger)
			if err != nil {
				logger.Error("Failed to set up registry", "err", err)
				return err
			}
			logger.Info("Registry ready",
				"registry", deployment.Registry,
				"owner", deployment.Owner,
				"tokens", len(deployment.Tokens))

			if cCtx.Bool(PublishArtifactFlag.Name) && backend != nil {
				id, err := deploy.PublishAccountArtifact(ctx, backend, deployment)
				if err != nil {
					logger.Error("Failed to publish account artifact", "err", err)
					return err
				}
				logger.Info("Published account artifact", "id", id.String())
			}

			var metricsSrv *metrics.MetricsServer
			var observer interfaces.Observer
			if cfg.MetricsAddr != "" {
				metricsSrv, err = metrics.New(common.PackageName, cfg.MetricsAddr)
				if err != nil {
					logger.Error("Failed to create metrics server", "err", err)
					return err
				}
				observer = metricsSrv
			}

			var checkpointer *deploy.Checkpointer
			var checkpoints interfaces.Checkpointer
			if backend != nil {
				checkpointer = deploy.NewCheckpointer(env, deployment, backend, logger)
				checkpoints = checkpointer
			}

			service := registry.NewService(env, deployment.Registry, observer, logger)
			server := httpserver.New(cfg, httpserver.NewHandler(service, checkpoints, logger), metricsSrv)

			logger.Info("Starting server", "listenAddr", cfg.ListenAddr)
			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()

			if checkpointer != nil && cCtx.Bool(CheckpointOnExitFlag.Name) {
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				defer cancel()
				id, err := checkpointer.Checkpoint(ctx)
				if err != nil {
					logger.Error("Failed to store final checkpoint", "err", err)
					return err
				}
				logger.Info("Stored final checkpoint", "id", id.String())
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
