package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cattle-certification-api-server/internal/apperror"
	"cattle-certification-api-server/internal/blockchain"
	"cattle-certification-api-server/internal/models"
	"cattle-certification-api-server/internal/store"
)

// Verifier là phần đọc của contract CertificationRegistry.
type Verifier interface {
	Verify(ctx context.Context, contentHash string) (*blockchain.Verification, error)
	AnimalHistory(ctx context.Context, animalID string) ([]blockchain.HistoryEntry, error)
	AnimalCertificationCount(ctx context.Context, animalID string) (uint64, error)
}

type DocumentHandler struct {
	Ledger    Verifier
	Documents store.Documents
}

type VerificationResponse struct {
	Hash         string                        `json:"hash"`
	Verification *blockchain.Verification      `json:"verification"`
	Document     *models.CertificationDocument `json:"document,omitempty"`
}

// Verify tra cứu content hash trên blockchain; 404 nếu hash chưa từng được chứng nhận.
func (h *DocumentHandler) Verify(c *gin.Context) {
	hash := c.Param("hash")
	v, err := h.Ledger.Verify(c.Request.Context(), hash)
	if err != nil {
		respondError(c, err)
		return
	}
	if v == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "document is not certified on-chain", "code": "not_certified"})
		return
	}

	resp := VerificationResponse{Hash: hash, Verification: v}
	doc, err := h.Documents.GetByHash(c.Request.Context(), hash)
	switch {
	case err == nil:
		resp.Document = &doc
	case !errors.Is(err, apperror.ErrNotFound):
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AnimalHistory trả về các tài liệu đã chứng nhận on-chain cho một mã CUIG.
func (h *DocumentHandler) AnimalHistory(c *gin.Context) {
	animalID := c.Param("cuig")
	entries, err := h.Ledger.AnimalHistory(c.Request.Context(), animalID)
	if err != nil {
		respondError(c, err)
		return
	}
	count, err := h.Ledger.AnimalCertificationCount(c.Request.Context(), animalID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"animalID": animalID, "count": count, "history": entries})
}
