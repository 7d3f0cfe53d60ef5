// Package interfaces defines the types shared across the account registry:
//
// # Execution
//
// Host and Contract describe the execution environment from inside a
// contract. Messages are ABI-encoded; every state change is journaled so a
// failing request can be undone as a whole.
//
// Backend is the outside view: Transact commits a request or discards it,
// CallView executes without committing.
//
// # Errors
//
// Error carries one of the failure kinds (Unauthorized, AlreadyExists, ...).
// EncodeRevert and DecodeRevert translate kinds to and from revert data
// using custom error selectors, so callers can assert on the exact kind even
// when a failure is reported as data instead of returned.
//
// # Services
//
// AccountService is the registry and account API consumed by the HTTP
// server. StorageBackend and StorageBackendFactory provide content-addressed
// storage for checkpoints and artifacts.
package interfaces
