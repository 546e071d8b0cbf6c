package wallet

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/taskchain/core"
	"github.com/layer-3/taskchain/ports"
)

// Source says where the wallet key lives
type Source struct {
	PrivateKeyHex string // Raw secp256k1 key, with or without 0x
	KeyFile       string // Encrypted V3 keystore file
	Passphrase    string // Passphrase for KeyFile
}

// Detector returns a ProviderDetector loading the wallet from src.
// It fails with core.ErrNotDetected when src names no key at all.
func Detector(src Source, approver Approver) ports.ProviderDetector {
	return func(ctx context.Context) (ports.IdentityProvider, error) {
		switch {
		case strings.TrimSpace(src.PrivateKeyHex) != "":
			key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(src.PrivateKeyHex), "0x"))
			if err != nil {
				return nil, fmt.Errorf("failed to parse wallet key: %w", err)
			}
			return New(key, approver), nil

		case strings.TrimSpace(src.KeyFile) != "":
			keyJSON, err := os.ReadFile(src.KeyFile)
			if err != nil {
				if os.IsNotExist(err) {
					return nil, fmt.Errorf("%w: keystore file %s is missing", core.ErrNotDetected, src.KeyFile)
				}
				return nil, fmt.Errorf("failed to read keystore file: %w", err)
			}
			key, err := keystore.DecryptKey(keyJSON, src.Passphrase)
			if err != nil {
				return nil, fmt.Errorf("failed to decrypt keystore file: %w", err)
			}
			return New(key.PrivateKey, approver), nil
		}

		return nil, core.ErrNotDetected
	}
}
