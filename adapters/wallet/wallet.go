package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/taskchain/core"
	"github.com/layer-3/taskchain/internal/eth"
	"github.com/layer-3/taskchain/ports"
)

// Wallet is a single-key identity provider backed by a local secp256k1 key
type Wallet struct {
	key      *ecdsa.PrivateKey
	address  common.Address
	approver Approver
}

// New creates a wallet for key that asks approver before exposing its account
func New(key *ecdsa.PrivateKey, approver Approver) *Wallet {
	if approver == nil {
		approver = AutoApprove
	}
	return &Wallet{
		key:      key,
		address:  crypto.PubkeyToAddress(key.PublicKey),
		approver: approver,
	}
}

var _ ports.IdentityProvider = (*Wallet)(nil)

// Address returns the wallet's account address
func (w *Wallet) Address() common.Address {
	return w.address
}

// RequestAccounts prompts for access and returns the wallet's single account
func (w *Wallet) RequestAccounts(ctx context.Context) ([]string, error) {
	approved, err := w.approver.Approve(ctx, w.address.Hex())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUserDenied, err)
	}
	if !approved {
		return nil, core.ErrUserDenied
	}
	return []string{w.address.Hex()}, nil
}

// SignMessage signs msg with personal_sign if account is the wallet's own
func (w *Wallet) SignMessage(ctx context.Context, account string, msg []byte) ([]byte, error) {
	if !common.IsHexAddress(account) || common.HexToAddress(account) != w.address {
		return nil, fmt.Errorf("unknown account %q", account)
	}
	return eth.SignText(w.key, msg)
}
