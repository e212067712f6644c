// internal/api/handlers/locality_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cattle-certification-api-server/internal/store"
)

type LocalityHandler struct {
	Localities store.Localities
}

// GetAllLocalities lấy danh sách tất cả các địa phương
func (h *LocalityHandler) GetAllLocalities(c *gin.Context) {
	localities, err := h.Localities.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, localities)
}
