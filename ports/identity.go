package ports

import "context"

// IdentityProvider is the external signer that owns the user's wallet keys
type IdentityProvider interface {
	// RequestAccounts asks the user for access and returns the approved account ids in order
	RequestAccounts(ctx context.Context) ([]string, error)

	// SignMessage signs arbitrary challenge bytes with the given account
	SignMessage(ctx context.Context, account string, msg []byte) ([]byte, error)
}

// ProviderDetector locates the identity provider, failing with core.ErrNotDetected
type ProviderDetector func(ctx context.Context) (IdentityProvider, error)

// KeyStore is a ledger-compatible signer derived from an identity provider
type KeyStore interface {
	ID() string
	Sign(ctx context.Context, msg []byte) ([]byte, error)
}

// KeyStoreBinder derives a key store for one external account
type KeyStoreBinder func(provider IdentityProvider, account string) (KeyStore, error)
