// Package registry implements the account registry: a singleton contract
// that maps each identity to exactly one smart account, deploying accounts
// on demand at addresses that can be computed before they exist.
//
// The registry is split in two, following the proxy package:
//
//   - Storage holds the identity mapping, the membership set, the creation
//     order list and the registry configuration (owner, approved tokens,
//     ticket issuer). It lives in a proxy.Proxy at the registry's stable
//     address.
//   - Logic serves calls made to the proxy and can be replaced by the
//     registry owner with upgradeTo without losing Storage.
//
// # Account Placement
//
// An identity's account is deployed with the content-addressed primitive:
//
//	salt    = keccak256(identity)
//	payload = account.Bytecode || abi.encode(approvedTokens)
//	address = keccak256(0xff || registry || salt || keccak256(payload))[12:]
//
// createAccount and predictAddress both build (salt, payload) through the
// same helper, so a prediction always matches the eventual deployment.
// After deployment the registry initializes the account with
// (identity, registry), which makes the registry the account's controller.
//
// # Operations
//
//	createAccount(identity)             fails AlreadyExists if mapped
//	getOrCreateAccount(identity)        idempotent
//	predictAddress(identity)            view
//	getAccount(identity)                view, zero if none
//	isAccount(address)                  view
//	totalAccounts(), accountAt(index)   views, accountAt fails IndexOutOfRange
//	relay(account, target, value, data) owner only, executes as controller
//	issueTicket(identity, event, seat)  owner only, mints to the account
//
// # Clients
//
// Client is a typed binding over an interfaces.Backend. Service wraps a
// Client per caller and implements interfaces.AccountService for the HTTP
// server, reporting outcomes to an interfaces.Observer.
package registry
