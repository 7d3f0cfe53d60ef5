// Package clients provides an HTTP client for the account registry API.
//
// RegistryClient implements interfaces.AccountService against a remote
// server, so code written against the service works the same in process
// and over the network. Errors carrying a contract error kind unwrap to
// that kind:
//
//	client := clients.NewRegistryClient("http://127.0.0.1:8080")
//	_, err := client.CreateAccount(from, identity)
//	if errors.Is(err, interfaces.ErrAlreadyExists) {
//	    ...
//	}
package clients
