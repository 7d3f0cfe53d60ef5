package registry

import "github.com/ruteri/account-registry/chain"

const ABIJSON = `[
	{"type":"function","name":"initialize","stateMutability":"nonpayable",
	 "inputs":[{"name":"owner","type":"address"},{"name":"approvedTokens","type":"address[]"},{"name":"ticketIssuer","type":"address"}],
	 "outputs":[]},
	{"type":"function","name":"createAccount","stateMutability":"nonpayable",
	 "inputs":[{"name":"identity","type":"address"}],"outputs":[{"name":"account","type":"address"}]},
	{"type":"function","name":"getOrCreateAccount","stateMutability":"nonpayable",
	 "inputs":[{"name":"identity","type":"address"}],"outputs":[{"name":"account","type":"address"}]},
	{"type":"function","name":"predictAddress","stateMutability":"view",
	 "inputs":[{"name":"identity","type":"address"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"getAccount","stateMutability":"view",
	 "inputs":[{"name":"identity","type":"address"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"isAccount","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"totalAccounts","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"accountAt","stateMutability":"view",
	 "inputs":[{"name":"index","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"approvedTokens","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address[]"}]},
	{"type":"function","name":"ticketIssuer","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"version","stateMutability":"pure","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"relay","stateMutability":"nonpayable",
	 "inputs":[{"name":"account","type":"address"},{"name":"target","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"}],
	 "outputs":[{"name":"success","type":"bool"},{"name":"result","type":"bytes"}]},
	{"type":"function","name":"issueTicket","stateMutability":"nonpayable",
	 "inputs":[{"name":"identity","type":"address"},{"name":"eventName","type":"string"},{"name":"seat","type":"string"}],
	 "outputs":[{"name":"ticketId","type":"uint256"}]},
	{"type":"event","name":"Initialized","inputs":[
		{"name":"owner","type":"address","indexed":true},{"name":"ticketIssuer","type":"address","indexed":false}]},
	{"type":"event","name":"AccountCreated","inputs":[
		{"name":"identity","type":"address","indexed":true},{"name":"account","type":"address","indexed":true},
		{"name":"index","type":"uint256","indexed":false}]},
	{"type":"event","name":"TicketIssued","inputs":[
		{"name":"identity","type":"address","indexed":true},{"name":"account","type":"address","indexed":true},
		{"name":"ticketId","type":"uint256","indexed":false}]}
]`

// ABI is the registry interface served through the proxy.
var ABI = chain.MustParseABI(ABIJSON)
