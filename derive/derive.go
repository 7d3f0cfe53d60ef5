// Package derive computes content-addressed deployment addresses.
//
// The same helpers serve the execution environment when it places a
// contract and the registry when it predicts where a contract will be
// placed, so the two cannot drift apart.
package derive

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

// Salt returns keccak256(identity), the per-identity CREATE2 salt.
func Salt(identity common.Address) [32]byte {
	return crypto.Keccak256Hash(identity.Bytes())
}

// InitPayload concatenates contract bytecode with its encoded constructor
// arguments.
func InitPayload(bytecode, args []byte) []byte {
	payload := make([]byte, 0, len(bytecode)+len(args))
	payload = append(payload, bytecode...)
	return append(payload, args...)
}

// InitCodeHash hashes the concatenation of parts without materializing it.
func InitCodeHash(parts ...[]byte) common.Hash {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	var out common.Hash
	h.Sum(out[:0])
	return out
}

// Address returns keccak256(0xff ‖ deployer ‖ salt ‖ keccak256(initPayload))[12:].
func Address(deployer common.Address, salt [32]byte, initPayload []byte) common.Address {
	return crypto.CreateAddress2(deployer, salt, InitCodeHash(initPayload).Bytes())
}

// NonceAddress returns the address of the nonce-th plain deployment by deployer.
func NonceAddress(deployer common.Address, nonce uint64) common.Address {
	return crypto.CreateAddress(deployer, nonce)
}
