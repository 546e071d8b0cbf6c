package wallet

import (
	"context"

	"github.com/layer-3/taskchain/internal/eth"
	"github.com/layer-3/taskchain/ports"
)

// EvmKeyStore is a ledger key store whose signatures come from an identity provider
type EvmKeyStore struct {
	provider ports.IdentityProvider
	id       string
}

// BindKeyStore derives the key store for one account of provider
func BindKeyStore(provider ports.IdentityProvider, account string) (ports.KeyStore, error) {
	id, err := eth.NormalizeAddress(account)
	if err != nil {
		return nil, err
	}
	return &EvmKeyStore{provider: provider, id: id}, nil
}

var _ ports.KeyStoreBinder = BindKeyStore

// ID is the checksummed address of the account
func (k *EvmKeyStore) ID() string {
	return k.id
}

// Sign asks the provider to sign msg with the bound account
func (k *EvmKeyStore) Sign(ctx context.Context, msg []byte) ([]byte, error) {
	return k.provider.SignMessage(ctx, k.id, msg)
}
