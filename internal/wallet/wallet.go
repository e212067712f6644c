// internal/wallet/wallet.go
package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/tyler-smith/go-bip39"

	"cattle-certification-api-server/internal/blockchain"
	"cattle-certification-api-server/internal/models"
	"cattle-certification-api-server/internal/store"
)

// Provisioner tạo và mở khóa ví blockchain cho hồ sơ producer/veterinarian.
type Provisioner struct {
	vault   *Vault
	wallets store.Wallets
	now     func() time.Time
}

func NewProvisioner(vault *Vault, wallets store.Wallets) *Provisioner {
	return &Provisioner{vault: vault, wallets: wallets, now: time.Now}
}

// Provision sinh mnemonic 12 từ, suy ra keypair và địa chỉ từ mnemonic đó, mã hóa rồi lưu lại.
// Ràng buộc duy nhất trên địa chỉ (và trên ví của hồ sơ) đảm bảo mỗi hồ sơ chỉ có một ví.
func (p *Provisioner) Provision(ctx context.Context) (models.BlockchainWallet, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return models.BlockchainWallet{}, fmt.Errorf("failed to generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return models.BlockchainWallet{}, fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	key, err := DeriveKey(mnemonic)
	if err != nil {
		return models.BlockchainWallet{}, err
	}

	encKey, err := p.vault.Seal([]byte(hexutil.Encode(crypto.FromECDSA(key))))
	if err != nil {
		return models.BlockchainWallet{}, err
	}
	encMnemonic, err := p.vault.Seal([]byte(mnemonic))
	if err != nil {
		return models.BlockchainWallet{}, err
	}

	w := models.BlockchainWallet{
		ID:                  uuid.NewString(),
		Address:             crypto.PubkeyToAddress(key.PublicKey).Hex(),
		EncryptedPrivateKey: encKey,
		EncryptedMnemonic:   encMnemonic,
		CreatedAt:           p.now().UTC(),
	}
	if err := p.wallets.Create(ctx, w); err != nil {
		return models.BlockchainWallet{}, fmt.Errorf("failed to save wallet: %w", err)
	}
	return w, nil
}

// Unlock giải mã private key của ví để ký.
func (p *Provisioner) Unlock(w models.BlockchainWallet) (blockchain.WalletKey, error) {
	key, err := p.vault.Open(w.EncryptedPrivateKey)
	if err != nil {
		return blockchain.WalletKey{}, fmt.Errorf("wallet %s: %w", w.Address, err)
	}
	return blockchain.WalletKey{Address: w.Address, PrivateKey: string(key)}, nil
}

// UnlockByID đọc ví theo ID rồi giải mã.
func (p *Provisioner) UnlockByID(ctx context.Context, walletID string) (blockchain.WalletKey, error) {
	w, err := p.wallets.GetByID(ctx, walletID)
	if err != nil {
		return blockchain.WalletKey{}, err
	}
	return p.Unlock(w)
}
