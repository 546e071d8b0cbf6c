package ports

import (
	"context"
	"time"
)

// Store tracks revoked session tokens on the ledger side
type Store interface {
	InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error
	IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error)
}
