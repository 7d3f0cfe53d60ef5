package httpserver

import (
	"errors"
	"net/http"

	"github.com/ruteri/account-registry/chain"
	"github.com/ruteri/account-registry/interfaces"
)

// RequestError provides structured error information for HTTP responses.
type RequestError struct {
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func badRequest(err error) *RequestError {
	return &RequestError{StatusCode: http.StatusBadRequest, Err: err}
}

var kindStatus = map[string]int{
	interfaces.ErrUnauthorized.Kind:        http.StatusForbidden,
	interfaces.ErrNotAuthorizedMinter.Kind: http.StatusForbidden,
	interfaces.ErrNotTicketHolder.Kind:     http.StatusForbidden,

	interfaces.ErrAlreadyExists.Kind:      http.StatusConflict,
	interfaces.ErrAlreadyInitialized.Kind: http.StatusConflict,
	interfaces.ErrReentrantCall.Kind:      http.StatusConflict,
	interfaces.ErrTicketAlreadyUsed.Kind:  http.StatusConflict,
	interfaces.ErrPaused.Kind:             http.StatusConflict,

	interfaces.ErrIndexOutOfRange.Kind: http.StatusNotFound,
	interfaces.ErrUnknownTicket.Kind:   http.StatusNotFound,

	interfaces.ErrInvalidOwner.Kind:      http.StatusBadRequest,
	interfaces.ErrInvalidController.Kind: http.StatusBadRequest,
	interfaces.ErrInvalidTarget.Kind:     http.StatusBadRequest,
	interfaces.ErrInvalidRecipient.Kind:  http.StatusBadRequest,
	interfaces.ErrInvalidAmount.Kind:     http.StatusBadRequest,
	interfaces.ErrLengthMismatch.Kind:    http.StatusBadRequest,
	interfaces.ErrEmptyBatch.Kind:        http.StatusBadRequest,
	interfaces.ErrUnsupportedToken.Kind:  http.StatusBadRequest,

	interfaces.ErrTransferFailed.Kind:      http.StatusUnprocessableEntity,
	interfaces.ErrInsufficientBalance.Kind: http.StatusUnprocessableEntity,
	interfaces.ErrWithdrawalFailed.Kind:    http.StatusUnprocessableEntity,
}

// statusFor maps a service error to the HTTP status reported to the caller.
func statusFor(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	if status, ok := kindStatus[interfaces.ErrorKind(err)]; ok {
		return status
	}

	switch {
	case errors.Is(err, chain.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, chain.ErrNegativeValue), errors.Is(err, chain.ErrMalformedCalldata):
		return http.StatusBadRequest
	case errors.Is(err, interfaces.ErrContentNotFound):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
