package core

import "time"

// Challenge is a one-time nonce a key store signs to prove control of its key
type Challenge struct {
	ID        string    // Unique identifier for the challenge
	Signer    string    // Address the challenge was issued to
	Nonce     string    // Random nonce to be signed
	IssuedAt  time.Time // When the challenge was created
	ExpiresAt time.Time // When the challenge expires
}

// LedgerSession is the ledger's record of an issued session
type LedgerSession struct {
	ID        string    // Unique session identifier, also the token id
	AccountID string    // Account the session acts for
	Signer    string    // Address of the key store that logged in
	Flags     []string  // Capability flags from the session config
	IssuedAt  time.Time // When the session was created
	ExpiresAt time.Time // When the session stops being accepted
}
