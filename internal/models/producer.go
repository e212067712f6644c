// internal/models/producer.go
package models

import "time"

// ProducerProfile là hồ sơ của nhà sản xuất (chủ lô bò).
type ProducerProfile struct {
	ID           string    `bson:"_id" json:"id"`
	UserID       string    `bson:"userID" json:"userID"`
	Name         string    `bson:"name" json:"name"`
	IdentityCard string    `bson:"identityCard" json:"identityCard"`
	CUIGNumber   string    `bson:"cuigNumber" json:"cuigNumber"`
	RenspaNumber string    `bson:"renspaNumber" json:"renspaNumber"`
	WalletID     string    `bson:"walletID" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}
