// internal/models/wallet.go
package models

import "time"

// BlockchainWallet lưu khóa của một hồ sơ. Private key và mnemonic luôn được mã hóa.
type BlockchainWallet struct {
	ID                  string    `bson:"_id" json:"id"`
	Address             string    `bson:"address" json:"address"`
	EncryptedPrivateKey string    `bson:"encryptedPrivateKey" json:"-"`
	EncryptedMnemonic   string    `bson:"encryptedMnemonic" json:"-"`
	CreatedAt           time.Time `bson:"createdAt" json:"createdAt"`
}
