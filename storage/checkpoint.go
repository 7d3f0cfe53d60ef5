package storage

import (
	"context"
	"fmt"

	"github.com/ruteri/account-registry/interfaces"
)

// SaveCheckpoint stores a serialized environment and returns its content id.
func SaveCheckpoint(ctx context.Context, backend interfaces.StorageBackend, data []byte) (interfaces.ContentID, error) {
	return store(ctx, backend, data, interfaces.CheckpointType)
}

// LoadCheckpoint fetches a checkpoint and checks that it hashes to id.
func LoadCheckpoint(ctx context.Context, backend interfaces.StorageBackend, id interfaces.ContentID) ([]byte, error) {
	data, err := backend.Fetch(ctx, id, interfaces.CheckpointType)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch checkpoint %s: %w", id, err)
	}
	if interfaces.ComputeID(data) != id {
		return nil, fmt.Errorf("checkpoint %s: %w", id, ErrContentMismatch)
	}
	return data, nil
}

// PublishArtifact stores a contract artifact and returns its content id.
func PublishArtifact(ctx context.Context, backend interfaces.StorageBackend, data []byte) (interfaces.ContentID, error) {
	return store(ctx, backend, data, interfaces.ArtifactType)
}

func store(ctx context.Context, backend interfaces.StorageBackend, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	id, err := backend.Store(ctx, data, contentType)
	if err != nil {
		return id, fmt.Errorf("failed to store %s: %w", contentType, err)
	}
	if expected := interfaces.ComputeID(data); id != expected {
		return id, fmt.Errorf("%s stored as %s, expected %s: %w", contentType, id, expected, ErrContentMismatch)
	}
	return id, nil
}
