package wallet

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

// DeriveKey khôi phục private key từ mnemonic theo đường dẫn m/44'/60'/0'/0/0,
// giống các ví Ethereum thông dụng.
func DeriveKey(mnemonic string) (*ecdsa.PrivateKey, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}
	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}
	path := accounts.DefaultBaseDerivationPath
	for _, idx := range path {
		if key, err = key.Derive(idx); err != nil {
			return nil, fmt.Errorf("failed to derive %s: %w", path, err)
		}
	}
	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return crypto.ToECDSA(priv.Serialize())
}
