package ports

import "github.com/layer-3/taskchain/core"

// Tokenizer converts between ledger records and signed tokens
type Tokenizer interface {
	// Challenge token operations
	ChallengeToToken(challenge *core.Challenge) (string, error)
	TokenToChallenge(token string) (*core.Challenge, error)

	// Session token operations
	SessionToToken(session *core.LedgerSession) (string, error)
	TokenToSession(token string) (*core.LedgerSession, error)

	// VerifySignature checks that signer produced signature over the challenge token
	VerifySignature(challengeToken string, signature string, signer string) error
}
