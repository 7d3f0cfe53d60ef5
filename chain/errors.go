package chain

import "errors"

var (
	// ErrInsufficientFunds is returned when a call carries more value than the sender holds.
	ErrInsufficientFunds = errors.New("insufficient funds for transfer")

	// ErrNegativeValue is returned for calls carrying a negative value.
	ErrNegativeValue = errors.New("negative call value")

	// ErrContractCollision is returned when a deployment targets an occupied address.
	ErrContractCollision = errors.New("contract address collision")

	// ErrCallDepth is returned when nested calls exceed MaxCallDepth.
	ErrCallDepth = errors.New("max call depth exceeded")

	// ErrExecutionPanic wraps a panic raised by contract code.
	ErrExecutionPanic = errors.New("contract execution panicked")

	// ErrNoCode is returned when deploying a nil contract.
	ErrNoCode = errors.New("no contract code")

	// ErrMalformedCalldata is returned when a payload matches a selector but its arguments do not decode.
	ErrMalformedCalldata = errors.New("malformed calldata")

	// ErrNotPersistent is returned when dumping a contract that cannot be checkpointed.
	ErrNotPersistent = errors.New("contract is not persistent")

	// ErrUnknownKind is returned when loading a contract kind without a registered codec.
	ErrUnknownKind = errors.New("unknown contract kind")
)
