// Package main (cmd/registry_client) is a command line client for the
// account registry API.
//
// Every command maps to one API operation and prints the response as JSON.
// Addresses are 0x-prefixed hex; values are decimal or 0x-prefixed hex.
//
//	registry-client --server-addr=http://127.0.0.1:8080 info
//	registry-client create-account --from=0x.. --identity=0x..
//	registry-client execute --from=0x.. --account=0x.. --target=0x.. --value=10
//	registry-client execute-batch --from=0x.. --account=0x.. \
//	    --calls='[{"target":"0x..","value":"0xa"}]'
//	registry-client checkpoint
//
// Errors that carry a contract error kind are reported with it, for
// example "create-account failed: registry API returned 409: AlreadyExists".
package main
