package tokenizer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/taskchain/core"
	"github.com/layer-3/taskchain/internal/eth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenizer(t *testing.T) *JWTTokenizer {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return NewJWTTokenizer(key).(*JWTTokenizer)
}

func TestSessionTokenRoundTrip(t *testing.T) {
	tok := newTestTokenizer(t)
	now := time.Now().Truncate(time.Second)

	session := &core.LedgerSession{
		ID:        "sess-1",
		AccountID: "acc-1",
		Signer:    "0x000000000000000000000000000000000000dEaD",
		Flags:     []string{core.DefaultSessionFlag},
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}

	token, err := tok.SessionToToken(session)
	require.NoError(t, err)

	parsed, err := tok.TokenToSession(token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, parsed.ID)
	assert.Equal(t, session.AccountID, parsed.AccountID)
	assert.Equal(t, session.Signer, parsed.Signer)
	assert.Equal(t, session.Flags, parsed.Flags)
	assert.True(t, parsed.ExpiresAt.Equal(session.ExpiresAt))
}

func TestTokenAudienceIsEnforced(t *testing.T) {
	tok := newTestTokenizer(t)
	now := time.Now()

	challengeToken, err := tok.ChallengeToToken(&core.Challenge{
		ID: "c1", Signer: "0xabc", Nonce: "n", IssuedAt: now, ExpiresAt: now.Add(time.Minute),
	})
	require.NoError(t, err)

	_, err = tok.TokenToSession(challengeToken)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestExpiredSessionToken(t *testing.T) {
	tok := newTestTokenizer(t)
	past := time.Now().Add(-2 * time.Hour)

	token, err := tok.SessionToToken(&core.LedgerSession{
		ID: "s", AccountID: "a", IssuedAt: past, ExpiresAt: past.Add(time.Minute),
	})
	require.NoError(t, err)

	_, err = tok.TokenToSession(token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestTokenFromAnotherKeyIsRejected(t *testing.T) {
	issuer := newTestTokenizer(t)
	verifier := newTestTokenizer(t)
	now := time.Now()

	token, err := issuer.SessionToToken(&core.LedgerSession{ID: "s", IssuedAt: now, ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)

	_, err = verifier.TokenToSession(token)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestVerifySignature(t *testing.T) {
	tok := newTestTokenizer(t)
	wallet, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(wallet.PublicKey).Hex()
	now := time.Now()

	challengeToken, err := tok.ChallengeToToken(&core.Challenge{
		ID: "c1", Signer: signer, Nonce: "abc", IssuedAt: now, ExpiresAt: now.Add(time.Minute),
	})
	require.NoError(t, err)

	sig, err := eth.SignText(wallet, []byte(challengeToken))
	require.NoError(t, err)

	require.NoError(t, tok.VerifySignature(challengeToken, hexutil.Encode(sig), signer))

	err = tok.VerifySignature(challengeToken, hexutil.Encode(sig), "0x000000000000000000000000000000000000dEaD")
	assert.ErrorIs(t, err, core.ErrInvalidSignature)

	sig[10] ^= 0xff
	err = tok.VerifySignature(challengeToken, hexutil.Encode(sig), signer)
	assert.ErrorIs(t, err, core.ErrInvalidSignature)
}
