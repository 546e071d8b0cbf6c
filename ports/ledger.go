package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/layer-3/taskchain/core"
)

// Ledger is the remote service issuing sessions and persisting tasks
type Ledger interface {
	// Interactor binds the ledger's key store operations to ks
	Interactor(ks KeyStore) KeyStoreInteractor

	// RegisterAccount opens a new account for ks and returns its first session
	RegisterAccount(ctx context.Context, ks KeyStore, strategy core.RegistrationStrategy, op core.Operation) (RemoteSession, error)
}

// KeyStoreInteractor runs the ledger operations authorized by a single key store
type KeyStoreInteractor interface {
	GetAccounts(ctx context.Context) ([]core.Account, error)
	Login(ctx context.Context, accountID string, config core.SessionConfig) (RemoteSession, error)
	DeleteAuthDescriptor(ctx context.Context, accountID string) error
}

// RemoteSession is a time-bounded handle permitting named procedure calls
type RemoteSession interface {
	Account() core.Account
	ExpiresAt() time.Time
	Call(ctx context.Context, op core.Operation) (json.RawMessage, error)

	// Close revokes the session on the ledger
	Close(ctx context.Context) error
}
