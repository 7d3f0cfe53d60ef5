/*
Package httpserver serves the account registry over a JSON HTTP API.

Addresses and quantities use the Ethereum JSON conventions: addresses are
0x-prefixed hex, values and amounts are hex quantities ("0x10"), call data
is 0x-prefixed hex bytes.

# Authentication

There is none. The API is a development simulator: every mutating route
acts as the "from" address given in the request body, so any client can act
as any owner, controller or registry owner. Do not expose it publicly. With
ReadOnly set (--read-only) only the GET routes are served.

# Endpoints

  - GET  /api/registry - registry address, implementation, owner, version, tokens, ticket issuer, account count
  - POST /api/accounts - create the account of an identity
  - GET  /api/accounts/count - number of registered accounts
  - GET  /api/accounts/index/{index} - account at a creation index
  - GET  /api/accounts/{account} - owner, controller, balance and tokens of an account
  - POST /api/accounts/{account}/execute - execute one call from the account
  - POST /api/accounts/{account}/execute-batch - execute several calls in order
  - POST /api/accounts/{account}/relay - registry owner executes through the account
  - POST /api/accounts/{account}/pay - pay with an approved token
  - POST /api/accounts/{account}/withdraw - emergency withdrawal of native value
  - GET  /api/identities/{identity}/account - account of an identity
  - PUT  /api/identities/{identity}/account - account of an identity, created if missing
  - GET  /api/identities/{identity}/predicted - address the account has or will have
  - POST /api/tickets - issue an event ticket to the account of an identity
  - GET  /api/balances/{address} - native balance
  - POST /api/transfers - native value transfer
  - POST /api/checkpoints - store a checkpoint, returns its content id
  - POST /api/fund - development funding, only when enabled and not read-only
  - GET  /livez, /readyz, /drain, /undrain - health and draining

# Errors

Failed requests return {"error": "...", "kind": "..."} where kind is the
contract error kind, if any. Kinds map to statuses:

  - 403: Unauthorized, NotAuthorizedMinter, NotTicketHolder
  - 409: AlreadyExists, AlreadyInitialized, ReentrantCall, TicketAlreadyUsed, Paused
  - 404: IndexOutOfRange, UnknownTicket, unknown account or identity
  - 400: InvalidOwner, InvalidController, InvalidTarget, InvalidRecipient, InvalidAmount,
    LengthMismatch, EmptyBatch, UnsupportedToken, malformed input
  - 422: TransferFailed, InsufficientBalance, WithdrawalFailed, insufficient funds
  - 429: per-client rate limit exceeded, when a rate limit is configured

A call that an account makes and that fails is not a failed request: execute,
execute-batch and relay answer 200 with success false and the decoded
revert reason.
*/
package httpserver
