// Package storage provides content-addressed storage for environment
// checkpoints and contract artifacts.
//
// Content is identified by the SHA-256 hash of its data. Checkpoints and
// artifacts live in separate namespaces of each backend:
//
//   - file:///var/lib/account-registry/
//   - s3://[ACCESS_KEY:SECRET_KEY@]bucket/prefix/?region=us-west-2&endpoint=minio:9000
//   - ipfs://localhost:5001/?timeout=30s
//   - vault://[token@]vault.example.com:8200/secret/account-registry?tls=false
//
// StorageBackendFactory turns location URIs into backends, and
// CreateMultiBackend combines several of them: writes go to every available
// backend, reads return the first result whose hash matches the requested id.
//
//	factory := storage.NewStorageBackendFactory(logger)
//	backend, err := factory.CreateMultiBackend([]interfaces.StorageBackendLocation{
//	    "file:///var/lib/account-registry/",
//	    "s3://checkpoints/registry/?region=eu-west-1",
//	})
//	id, err := storage.SaveCheckpoint(ctx, backend, dump)
//
// The IPFS backend writes through the node's mutable file system so content
// can be read back by id without tracking CIDs. The Vault backend keeps data
// base64-encoded in a KV v2 secret per content id.
package storage
