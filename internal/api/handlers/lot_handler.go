package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cattle-certification-api-server/internal/api/middleware"
	"cattle-certification-api-server/internal/lots"
	"cattle-certification-api-server/internal/models"
	"cattle-certification-api-server/internal/store"
)

type LotHandler struct {
	Lots *lots.Service
}

// List trả về các lô đã chứng nhận của producer hoặc bác sĩ đang đăng nhập.
func (h *LotHandler) List(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	var f store.RequestFilter
	if p.Role == models.RoleVeterinarian {
		f.VetProfileID = p.ProfileID
	} else {
		f.ProducerProfileID = p.ProfileID
	}
	list, err := h.Lots.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
