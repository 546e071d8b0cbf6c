package service

import (
	"context"

	"github.com/layer-3/taskchain/core"
	"github.com/layer-3/taskchain/ports"
)

// AccountResolver asks the ledger which accounts a key store is bound to
type AccountResolver struct {
	ledger ports.Ledger
}

func NewAccountResolver(ledger ports.Ledger) *AccountResolver {
	return &AccountResolver{ledger: ledger}
}

// ResolveAccounts returns the bound accounts in ledger order, possibly none
func (r *AccountResolver) ResolveAccounts(ctx context.Context, ks ports.KeyStore) ([]core.Account, error) {
	return r.ledger.Interactor(ks).GetAccounts(ctx)
}
