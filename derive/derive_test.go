package derive

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddress_MatchesCreate2Construction(t *testing.T) {
	deployer := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	identity := common.HexToAddress("0x1111111111111111111111111111111111111111")
	payload := InitPayload([]byte("bytecode"), []byte{0x01, 0x02})

	salt := Salt(identity)
	expected := crypto.Keccak256(
		[]byte{0xff},
		deployer.Bytes(),
		salt[:],
		crypto.Keccak256(payload),
	)[12:]

	assert.Equal(t, common.BytesToAddress(expected), Address(deployer, salt, payload))
}

func TestAddress_Deterministic(t *testing.T) {
	deployer := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	payload := InitPayload([]byte("bytecode"), nil)

	alice := common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob := common.HexToAddress("0x2222222222222222222222222222222222222222")

	first := Address(deployer, Salt(alice), payload)
	second := Address(deployer, Salt(alice), payload)
	assert.Equal(t, first, second, "same identity must re-derive the same address")

	assert.NotEqual(t, first, Address(deployer, Salt(bob), payload), "identities must not collide")

	otherDeployer := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	assert.NotEqual(t, first, Address(otherDeployer, Salt(alice), payload))

	otherPayload := InitPayload([]byte("bytecode"), []byte{0x01})
	assert.NotEqual(t, first, Address(deployer, Salt(alice), otherPayload))
}

func TestInitCodeHash_StreamsParts(t *testing.T) {
	bytecode := []byte("some contract code")
	args := []byte{0xde, 0xad, 0xbe, 0xef}

	require.Equal(t, crypto.Keccak256Hash(InitPayload(bytecode, args)), InitCodeHash(bytecode, args))
	assert.Equal(t, crypto.Keccak256Hash(nil), InitCodeHash())
}

func TestNonceAddress(t *testing.T) {
	deployer := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	assert.NotEqual(t, NonceAddress(deployer, 0), NonceAddress(deployer, 1))
	assert.Equal(t, crypto.CreateAddress(deployer, 7), NonceAddress(deployer, 7))
}
