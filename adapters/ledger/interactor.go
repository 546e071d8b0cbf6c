package ledger

import (
	"context"
	"net/http"

	"github.com/layer-3/taskchain/core"
	"github.com/layer-3/taskchain/ledgerapi"
	"github.com/layer-3/taskchain/ports"
)

type interactor struct {
	client *Client
	ks     ports.KeyStore
}

// GetAccounts lists the accounts the key store is bound to, in ledger order
func (i *interactor) GetAccounts(ctx context.Context) ([]core.Account, error) {
	var resp ledgerapi.LookupResponse
	if err := i.client.do(ctx, http.MethodPost, ledgerapi.PathAccountsLookup, "", ledgerapi.LookupRequest{Signer: i.ks.ID()}, &resp); err != nil {
		return nil, err
	}

	accounts := make([]core.Account, 0, len(resp.Accounts))
	for _, account := range resp.Accounts {
		accounts = append(accounts, core.Account{ID: account.ID})
	}
	return accounts, nil
}

// Login opens a session for accountID signed by the key store
func (i *interactor) Login(ctx context.Context, accountID string, config core.SessionConfig) (ports.RemoteSession, error) {
	signed, err := i.client.sign(ctx, i.ks)
	if err != nil {
		return nil, err
	}

	req := ledgerapi.LoginRequest{
		SignedRequest: signed,
		AccountID:     accountID,
		Config:        wireConfig(config),
	}

	var resp ledgerapi.SessionResponse
	if err := i.client.do(ctx, http.MethodPost, ledgerapi.PathLogin, "", req, &resp); err != nil {
		return nil, err
	}

	return i.client.newSession(resp), nil
}

// DeleteAuthDescriptor removes the key store's auth descriptor from accountID
func (i *interactor) DeleteAuthDescriptor(ctx context.Context, accountID string) error {
	signed, err := i.client.sign(ctx, i.ks)
	if err != nil {
		return err
	}

	return i.client.do(ctx, http.MethodPost, ledgerapi.DeleteDescriptorPath(accountID), "", signed, nil)
}
