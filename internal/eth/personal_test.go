package eth

import (
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyText(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey).Hex()

	msg := []byte("challenge-token")
	sig, err := SignText(key, msg)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])

	require.NoError(t, VerifyText(msg, hexutil.Encode(sig), signer))

	other, err := crypto.GenerateKey()
	require.NoError(t, err)
	err = VerifyText(msg, hexutil.Encode(sig), crypto.PubkeyToAddress(other.PublicKey).Hex())
	assert.ErrorIs(t, err, ErrSignatureMismatch)

	err = VerifyText([]byte("another message"), hexutil.Encode(sig), signer)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerifyTextRejectsMalformedInput(t *testing.T) {
	assert.Error(t, VerifyText([]byte("m"), "0x1234", "0x000000000000000000000000000000000000dEaD"))
	assert.Error(t, VerifyText([]byte("m"), "not-hex", "0x000000000000000000000000000000000000dEaD"))
	assert.Error(t, VerifyText([]byte("m"), "0x00", "nope"))
}

func TestNormalizeAddress(t *testing.T) {
	got, err := NormalizeAddress(" 0x000000000000000000000000000000000000dead ")
	require.NoError(t, err)
	assert.Equal(t, "0x000000000000000000000000000000000000dEaD", got)

	_, err = NormalizeAddress("0xzz")
	assert.Error(t, err)
}
