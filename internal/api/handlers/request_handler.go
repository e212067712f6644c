// internal/api/handlers/request_handler.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cattle-certification-api-server/internal/api/middleware"
	"cattle-certification-api-server/internal/apperror"
	"cattle-certification-api-server/internal/lots"
	"cattle-certification-api-server/internal/models"
	"cattle-certification-api-server/internal/requests"
)

type CertificationRequestHandler struct {
	Requests *requests.Service
	Lots     *lots.Service
}

// CreateCertificationRequest là form multipart producer gửi lên, kèm ảnh lô ở trường "file".
type CreateCertificationRequest struct {
	Address                 string    `form:"address" binding:"required"`
	LocalityID              string    `form:"locality_id" binding:"required"`
	IntendedAnimalGroup     int       `form:"intended_animal_group" binding:"required,gt=0"`
	DeclaredLotWeight       int       `form:"declared_lot_weight" binding:"required,gt=0"`
	DeclaredLotAge          int       `form:"declared_lot_age" binding:"required,gt=0"`
	CattleBreed             string    `form:"cattle_breed" binding:"required"`
	PreferredTimeRangeStart time.Time `form:"preferred_time_range_start" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	PreferredTimeRangeEnd   time.Time `form:"preferred_time_range_end" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

// Create tạo request chứng nhận cho producer đang đăng nhập và thử gán bác sĩ ngay.
func (h *CertificationRequestHandler) Create(c *gin.Context) {
	var req CreateCertificationRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, apperror.ErrFileRequired)
		return
	}
	file, err := readUpload(fh)
	if err != nil {
		respondError(c, err)
		return
	}

	p := middleware.CurrentPrincipal(c)
	created, err := h.Requests.Create(c.Request.Context(), p.ProfileID, requests.CreateInput{
		LocalityID:          req.LocalityID,
		Address:             req.Address,
		IntendedAnimalGroup: req.IntendedAnimalGroup,
		DeclaredLotWeight:   req.DeclaredLotWeight,
		DeclaredLotAge:      req.DeclaredLotAge,
		CattleBreed:         models.CattleBreed(req.CattleBreed),
		PreferredTimeRange:  models.TimeRange{Start: req.PreferredTimeRangeStart, End: req.PreferredTimeRangeEnd},
		File:                file,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// List trả về các request đang mở của producer hoặc bác sĩ đang đăng nhập.
func (h *CertificationRequestHandler) List(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)
	list, err := h.Requests.ListOpen(c.Request.Context(), p.Role, p.ProfileID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get trả về một request; chỉ producer sở hữu hoặc bác sĩ được gán mới xem được.
func (h *CertificationRequestHandler) Get(c *gin.Context) {
	req, err := h.Requests.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	p := middleware.CurrentPrincipal(c)
	if req.ProducerProfileID != p.ProfileID && req.VetProfileID != p.ProfileID {
		respondError(c, apperror.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, req)
}

// Assign chạy lại bộ lập lịch cho một request chưa có bác sĩ.
func (h *CertificationRequestHandler) Assign(c *gin.Context) {
	current, err := h.Requests.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if current.ProducerProfileID != middleware.CurrentPrincipal(c).ProfileID {
		respondError(c, apperror.ErrNotRequestOwner)
		return
	}
	req, err := h.Requests.Assign(c.Request.Context(), current.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *CertificationRequestHandler) Cancel(c *gin.Context) {
	req, err := h.Requests.Cancel(c.Request.Context(), middleware.CurrentPrincipal(c).ProfileID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *CertificationRequestHandler) Reject(c *gin.Context) {
	req, err := h.Requests.Reject(c.Request.Context(), middleware.CurrentPrincipal(c).ProfileID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// Certify nhận kết quả khám của bác sĩ cho cả lô và chứng nhận từng con lên blockchain.
func (h *CertificationRequestHandler) Certify(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, err)
		return
	}
	inputs, err := parseCertifications(form)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.Lots.Certify(c.Request.Context(), middleware.CurrentPrincipal(c).ProfileID, c.Param("id"), inputs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
