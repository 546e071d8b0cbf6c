package tokenizer

import "github.com/golang-jwt/jwt/v5"

// ChallengeClaims combines standard claims with challenge-specific ones
type ChallengeClaims struct {
	jwt.RegisteredClaims
	Nonce string `json:"nonce"`
}

// SessionClaims carry the account a session acts for
type SessionClaims struct {
	jwt.RegisteredClaims
	AccountID string   `json:"acc"`
	Flags     []string `json:"flags,omitempty"`
}
