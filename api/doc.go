/*
Package api defines the wire types of the account registry HTTP API and the
server configuration shared by cmd and httpserver.

Addresses are 0x-prefixed hex strings, amounts and counters are hex
quantities and call data is 0x-prefixed hex bytes, following the JSON
encodings of go-ethereum's common and hexutil packages.

Failed requests return an ErrorResponse. When the failure is a contract
error its kind (for example "AlreadyExists" or "Unauthorized") is set, so
clients can tell failure kinds apart without parsing messages.

The clients subpackage provides a Go client for the API.
*/
package api
