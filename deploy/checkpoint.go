package deploy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ruteri/account-registry/account"
	"github.com/ruteri/account-registry/chain"
	"github.com/ruteri/account-registry/interfaces"
	"github.com/ruteri/account-registry/storage"
)

// Snapshot is the checkpoint document: where the registry lives and the
// environment it lives in.
type Snapshot struct {
	Deployment *Deployment `json:"deployment"`
	State      *chain.Dump `json:"state"`
}

// Checkpointer stores snapshots of a running deployment.
type Checkpointer struct {
	env        *chain.Env
	deployment *Deployment
	backend    interfaces.StorageBackend
	log        *slog.Logger
}

var _ interfaces.Checkpointer = (*Checkpointer)(nil)

func NewCheckpointer(env *chain.Env, deployment *Deployment, backend interfaces.StorageBackend, log *slog.Logger) *Checkpointer {
	return &Checkpointer{env: env, deployment: deployment, backend: backend, log: log}
}

// Checkpoint stores the current committed state and returns its content id.
func (c *Checkpointer) Checkpoint(ctx context.Context) (interfaces.ContentID, error) {
	dump, err := c.env.Dump()
	if err != nil {
		return interfaces.ContentID{}, fmt.Errorf("could not dump environment: %w", err)
	}

	data, err := json.Marshal(&Snapshot{Deployment: c.deployment, State: dump})
	if err != nil {
		return interfaces.ContentID{}, fmt.Errorf("could not encode snapshot: %w", err)
	}

	id, err := storage.SaveCheckpoint(ctx, c.backend, data)
	if err != nil {
		return id, err
	}

	c.log.Info("Checkpoint stored",
		"contentID", id.String(),
		"backend", c.backend.Name(),
		"size", len(data))
	return id, nil
}

// Restore loads the snapshot stored under id and rebuilds its environment.
func Restore(ctx context.Context, backend interfaces.StorageBackend, id interfaces.ContentID, log *slog.Logger) (*chain.Env, *Deployment, error) {
	data, err := storage.LoadCheckpoint(ctx, backend, id)
	if err != nil {
		return nil, nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, nil, fmt.Errorf("could not decode snapshot %s: %w", id, err)
	}
	if snap.Deployment == nil || snap.State == nil {
		return nil, nil, fmt.Errorf("snapshot %s is incomplete", id)
	}

	env, err := chain.Load(snap.State, Codecs(), log)
	if err != nil {
		return nil, nil, fmt.Errorf("could not restore snapshot %s: %w", id, err)
	}
	if !env.HasCode(snap.Deployment.Registry) {
		return nil, nil, fmt.Errorf("snapshot %s has no registry at %s", id, snap.Deployment.Registry)
	}

	log.Info("Checkpoint restored", "contentID", id.String(), "registry", snap.Deployment.Registry)
	return env, snap.Deployment, nil
}

// PublishAccountArtifact stores the account init payload of a deployment.
// Anyone holding it can check account addresses against the registry
// without access to the environment.
func PublishAccountArtifact(ctx context.Context, backend interfaces.StorageBackend, d *Deployment) (interfaces.ContentID, error) {
	payload, err := account.InitPayload(d.Tokens)
	if err != nil {
		return interfaces.ContentID{}, fmt.Errorf("could not build account init payload: %w", err)
	}
	return storage.PublishArtifact(ctx, backend, payload)
}
