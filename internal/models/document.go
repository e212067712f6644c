// internal/models/document.go
package models

import (
	"strings"
	"time"

	"cattle-certification-api-server/internal/apperror"
)

// CertificationDocument là tài liệu PDF của một quan sát, được neo trên blockchain qua Hash.
type CertificationDocument struct {
	ID                    string        `bson:"_id" json:"id"`
	CattleCertificationID string        `bson:"cattleCertificationID" json:"cattleCertificationID"`
	TransactionID         string        `bson:"transactionID" json:"transactionID"`
	Hash                  string        `bson:"hash" json:"hash"`
	Filename              string        `bson:"filename" json:"filename"`
	File                  *MediaPointer `bson:"file,omitempty" json:"file,omitempty"`
	CreatedAt             time.Time     `bson:"createdAt" json:"createdAt"`
}

// Validate kiểm tra các trường bắt buộc; nếu có nội dung đính kèm thì hash phải khớp.
func (d CertificationDocument) Validate(attached []byte) error {
	switch {
	case strings.TrimSpace(d.CattleCertificationID) == "":
		return apperror.Validation("certification_required", "cattle certification is required")
	case strings.TrimSpace(d.TransactionID) == "":
		return apperror.Validation("transaction_required", "blockchain transaction is required")
	case strings.TrimSpace(d.Hash) == "":
		return apperror.Validation("hash_required", "document hash is required")
	case strings.TrimSpace(d.Filename) == "":
		return apperror.Validation("filename_required", "document filename is required")
	}
	if attached != nil && HashContent(attached) != d.Hash {
		return apperror.ErrHashMismatch
	}
	return nil
}

type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxConfirmed TxStatus = "confirmed"
	TxFailed    TxStatus = "failed"
)

// BlockchainTransaction ghi lại một lần gửi giao dịch lên contract.
type BlockchainTransaction struct {
	ID              string         `bson:"_id" json:"id"`
	TxHash          string         `bson:"txHash" json:"txHash"`
	Status          TxStatus       `bson:"status" json:"status"`
	BlockNumber     uint64         `bson:"blockNumber,omitempty" json:"blockNumber,omitempty"`
	GasUsed         uint64         `bson:"gasUsed,omitempty" json:"gasUsed,omitempty"`
	Network         string         `bson:"network" json:"network"`
	ContractAddress string         `bson:"contractAddress" json:"contractAddress"`
	RawResponse     map[string]any `bson:"rawResponse,omitempty" json:"rawResponse,omitempty"`
	ErrorMessage    string         `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	CreatedAt       time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time      `bson:"updatedAt" json:"updatedAt"`
}
