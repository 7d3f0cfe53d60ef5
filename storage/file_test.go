package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruteri/account-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileBackend(t *testing.T) (*FileBackend, string) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return backend, dir
}

func TestFileBackend_StoreFetch(t *testing.T) {
	backend, dir := newTestFileBackend(t)
	ctx := context.Background()

	data := []byte(`{"accounts":{}}`)
	id, err := backend.Store(ctx, data, interfaces.CheckpointType)
	require.NoError(t, err)
	assert.Equal(t, interfaces.ComputeID(data), id)
	assert.FileExists(t, filepath.Join(dir, "checkpoints", id.String()))

	fetched, err := backend.Fetch(ctx, id, interfaces.CheckpointType)
	require.NoError(t, err)
	assert.Equal(t, data, fetched)

	// Content types are separate namespaces.
	_, err = backend.Fetch(ctx, id, interfaces.ArtifactType)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)

	assert.True(t, backend.Available(ctx))
	assert.Equal(t, "file://"+dir, backend.LocationURI())
}

func TestFileBackend_Unavailable(t *testing.T) {
	backend, dir := newTestFileBackend(t)
	require.NoError(t, os.RemoveAll(dir))
	assert.False(t, backend.Available(context.Background()))
}

func TestCheckpointHelpers(t *testing.T) {
	backend, dir := newTestFileBackend(t)
	ctx := context.Background()

	data := []byte("checkpoint")
	id, err := SaveCheckpoint(ctx, backend, data)
	require.NoError(t, err)

	loaded, err := LoadCheckpoint(ctx, backend, id)
	require.NoError(t, err)
	assert.Equal(t, data, loaded)

	t.Run("tampered checkpoint is rejected", func(t *testing.T) {
		path := filepath.Join(dir, "checkpoints", id.String())
		require.NoError(t, os.WriteFile(path, []byte("tampered"), 0644))

		_, err := LoadCheckpoint(ctx, backend, id)
		assert.ErrorIs(t, err, ErrContentMismatch)
	})

	t.Run("missing checkpoint", func(t *testing.T) {
		_, err := LoadCheckpoint(ctx, backend, interfaces.ComputeID([]byte("other")))
		assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
	})

	t.Run("artifacts", func(t *testing.T) {
		artifact := []byte("init payload")
		id, err := PublishArtifact(ctx, backend, artifact)
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, "artifacts", id.String()))
	})
}

func TestStorageBackendFactory(t *testing.T) {
	factory := NewStorageBackendFactory(slog.New(slog.NewTextHandler(io.Discard, nil)))

	t.Run("file", func(t *testing.T) {
		dir := t.TempDir()
		backend, err := factory.StorageBackendFor(interfaces.StorageBackendLocation("file://" + dir))
		require.NoError(t, err)
		assert.IsType(t, &FileBackend{}, backend)
		assert.Equal(t, "file://"+dir, backend.LocationURI())
	})

	t.Run("ipfs", func(t *testing.T) {
		backend, err := factory.StorageBackendFor("ipfs://localhost:5001/?timeout=5s")
		require.NoError(t, err)
		assert.IsType(t, &IPFSBackend{}, backend)
	})

	t.Run("vault", func(t *testing.T) {
		backend, err := factory.StorageBackendFor("vault://root@localhost:8200/secret/registry?tls=false")
		require.NoError(t, err)
		vault, ok := backend.(*VaultBackend)
		require.True(t, ok)
		assert.Equal(t, "secret", vault.mountPath)
		assert.Equal(t, "registry", vault.dataPath)
	})

	invalid := []struct {
		name string
		uri  interfaces.StorageBackendLocation
	}{
		{"unsupported scheme", "github://owner/repo"},
		{"bad ipfs timeout", "ipfs://localhost:5001/?timeout=soon"},
		{"vault without mount", "vault://localhost:8200"},
		{"s3 without bucket", "s3:///prefix"},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			_, err := factory.StorageBackendFor(tc.uri)
			assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
		})
	}

	t.Run("multi backend skips invalid locations", func(t *testing.T) {
		dir := t.TempDir()
		backend, err := factory.CreateMultiBackend([]interfaces.StorageBackendLocation{
			"github://owner/repo",
			interfaces.StorageBackendLocation("file://" + dir),
		})
		require.NoError(t, err)
		assert.Equal(t, "multi:[file://"+dir+"]", backend.LocationURI())

		_, err = factory.CreateMultiBackend([]interfaces.StorageBackendLocation{"github://owner/repo"})
		assert.Error(t, err)
	})
}
