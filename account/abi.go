package account

import (
	"github.com/ruteri/account-registry/chain"
)

// ABIJSON describes the account's external interface. The constructor takes
// the fixed allow-list of token contracts usable with payWithApprovedToken.
const ABIJSON = `[
	{"type":"constructor","inputs":[{"name":"approvedTokens","type":"address[]"}]},
	{"type":"function","name":"initialize","stateMutability":"nonpayable",
	 "inputs":[{"name":"owner","type":"address"},{"name":"controller","type":"address"}],"outputs":[]},
	{"type":"function","name":"execute","stateMutability":"payable",
	 "inputs":[{"name":"target","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"}],
	 "outputs":[{"name":"success","type":"bool"},{"name":"result","type":"bytes"}]},
	{"type":"function","name":"executeBatch","stateMutability":"payable",
	 "inputs":[{"name":"targets","type":"address[]"},{"name":"values","type":"uint256[]"},{"name":"data","type":"bytes[]"}],
	 "outputs":[{"name":"successes","type":"bool[]"},{"name":"results","type":"bytes[]"}]},
	{"type":"function","name":"payWithApprovedToken","stateMutability":"nonpayable",
	 "inputs":[{"name":"token","type":"address"},{"name":"recipient","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"emergencyWithdraw","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"getBalance","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"controller","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"isApprovedToken","stateMutability":"view",
	 "inputs":[{"name":"token","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"approvedTokens","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address[]"}]},
	{"type":"event","name":"Initialized","inputs":[
		{"name":"owner","type":"address","indexed":true},{"name":"controller","type":"address","indexed":true}]},
	{"type":"event","name":"Executed","inputs":[
		{"name":"target","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false},
		{"name":"data","type":"bytes","indexed":false},{"name":"success","type":"bool","indexed":false},
		{"name":"result","type":"bytes","indexed":false}]},
	{"type":"event","name":"Received","inputs":[
		{"name":"from","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]},
	{"type":"event","name":"TokenPayment","inputs":[
		{"name":"token","type":"address","indexed":true},{"name":"recipient","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"EmergencyWithdrawal","inputs":[
		{"name":"to","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]}
]`

// ABI is the parsed account interface.
var ABI = chain.MustParseABI(ABIJSON)

// tokenABI is the part of the approved-token interface the account relies on.
var tokenABI = chain.MustParseABI(`[
	{"type":"function","name":"transferFrom","stateMutability":"nonpayable",
	 "inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]}
]`)

// codeVersion identifies the account logic baked into Bytecode.
const codeVersion = "SmartAccount/1.0.0"

// Bytecode stands in for the account's creation code: it identifies the
// logic version and interface, and is the prefix of every init payload.
var Bytecode = append([]byte(codeVersion+"\x00"), []byte(ABIJSON)...)
