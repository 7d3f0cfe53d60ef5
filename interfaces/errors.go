package interfaces

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// Error is an aborting contract failure identified by its kind. When it
// crosses a call boundary it is encoded as a Solidity custom error without
// arguments, so the kind survives as the 4-byte selector of "Kind()".
type Error struct {
	Kind string
}

func (e *Error) Error() string {
	return e.Kind
}

// Is matches any *Error of the same kind, so wrapped and decoded errors
// compare equal to the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Selector returns keccak256("Kind()")[:4].
func (e *Error) Selector() [4]byte {
	var sel [4]byte
	copy(sel[:], crypto.Keccak256([]byte(e.Kind + "()"))[:4])
	return sel
}

var errorsBySelector = map[[4]byte]*Error{}

func newError(kind string) *Error {
	e := &Error{Kind: kind}
	errorsBySelector[e.Selector()] = e
	return e
}

// Core error kinds.
var (
	ErrUnauthorized        = newError("Unauthorized")
	ErrAlreadyExists       = newError("AlreadyExists")
	ErrAlreadyInitialized  = newError("AlreadyInitialized")
	ErrInvalidOwner        = newError("InvalidOwner")
	ErrInvalidController   = newError("InvalidController")
	ErrInvalidTarget       = newError("InvalidTarget")
	ErrInvalidRecipient    = newError("InvalidRecipient")
	ErrInvalidAmount       = newError("InvalidAmount")
	ErrLengthMismatch      = newError("LengthMismatch")
	ErrEmptyBatch          = newError("EmptyBatch")
	ErrReentrantCall       = newError("ReentrantCall")
	ErrUnsupportedToken    = newError("UnsupportedToken")
	ErrTransferFailed      = newError("TransferFailed")
	ErrInsufficientBalance = newError("InsufficientBalance")
	ErrWithdrawalFailed    = newError("WithdrawalFailed")
	ErrIndexOutOfRange     = newError("IndexOutOfRange")
)

// Ticket issuer error kinds.
var (
	ErrNotAuthorizedMinter = newError("NotAuthorizedMinter")
	ErrNotTicketHolder     = newError("NotTicketHolder")
	ErrTicketAlreadyUsed   = newError("TicketAlreadyUsed")
	ErrUnknownTicket       = newError("UnknownTicket")
	ErrPaused              = newError("Paused")
)

// ErrorKind returns the kind of the first *Error in err's chain, or "" if
// err carries none.
func ErrorKind(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// revertSelector is the selector of the builtin Error(string).
var revertSelector = crypto.Keccak256([]byte("Error(string)"))[:4]

var revertArgs = func() abi.Arguments {
	stringTy, err := abi.NewType("string", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: stringTy}}
}()

// EncodeRevert converts a call failure into revert data. Kinds map to their
// custom error selector; anything else becomes Error(string).
func EncodeRevert(err error) []byte {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		sel := e.Selector()
		return sel[:]
	}

	packed, packErr := revertArgs.Pack(err.Error())
	if packErr != nil {
		return append([]byte{}, revertSelector...)
	}
	return append(append([]byte{}, revertSelector...), packed...)
}

// DecodeRevert maps revert data back to an error. Known kinds decode to
// their sentinel so errors.Is works across call boundaries.
func DecodeRevert(data []byte) error {
	if len(data) < 4 {
		return errors.New("execution reverted")
	}

	var sel [4]byte
	copy(sel[:], data[:4])
	if e, ok := errorsBySelector[sel]; ok {
		return e
	}

	if reason, err := abi.UnpackRevert(data); err == nil {
		return fmt.Errorf("execution reverted: %s", reason)
	}
	return fmt.Errorf("execution reverted: unknown error 0x%08x", binary.BigEndian.Uint32(sel[:]))
}
