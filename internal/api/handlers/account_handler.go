// internal/api/handlers/account_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cattle-certification-api-server/internal/accounts"
	"cattle-certification-api-server/internal/api/middleware"
	"cattle-certification-api-server/internal/apperror"
	"cattle-certification-api-server/internal/models"
)

type AccountHandler struct {
	Accounts *accounts.Service
}

type RegistrationRequest struct {
	Role         models.Role `json:"role" binding:"required,oneof=producer veterinarian"`
	Email        string      `json:"email" binding:"required,email"`
	Password     string      `json:"password" binding:"required,min=8"`
	IdentityCard string      `json:"identityCard" binding:"required"`

	// Producer
	Name         string `json:"name"`
	CUIGNumber   string `json:"cuigNumber"`
	RenspaNumber string `json:"renspaNumber"`

	// Veterinarian
	FirstName     string               `json:"firstName"`
	LastName      string               `json:"lastName"`
	LicenseNumber string               `json:"licenseNumber"`
	WorkSchedule  *models.WorkSchedule `json:"workSchedule"`
	LocalityIDs   []string             `json:"localityIDs"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register tạo tài khoản producer hoặc bác sĩ thú y kèm ví blockchain.
func (h *AccountHandler) Register(c *gin.Context) {
	var req RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var (
		acc accounts.Account
		err error
	)
	switch req.Role {
	case models.RoleProducer:
		acc, err = h.Accounts.RegisterProducer(c.Request.Context(), accounts.ProducerInput{
			Email:        req.Email,
			Password:     req.Password,
			Name:         req.Name,
			IdentityCard: req.IdentityCard,
			CUIGNumber:   req.CUIGNumber,
			RenspaNumber: req.RenspaNumber,
		})
	case models.RoleVeterinarian:
		acc, err = h.Accounts.RegisterVet(c.Request.Context(), accounts.VetInput{
			Email:         req.Email,
			Password:      req.Password,
			FirstName:     req.FirstName,
			LastName:      req.LastName,
			IdentityCard:  req.IdentityCard,
			LicenseNumber: req.LicenseNumber,
			Schedule:      req.WorkSchedule,
			LocalityIDs:   req.LocalityIDs,
		})
	default:
		err = apperror.Validation("invalid_role", "role must be producer or veterinarian")
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, acc)
}

// Login kiểm tra email/mật khẩu và trả về JWT.
func (h *AccountHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	token, acc, err := h.Accounts.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "account": acc})
}

// Viewer trả về tài khoản của user đang đăng nhập.
func (h *AccountHandler) Viewer(c *gin.Context) {
	acc, err := h.Accounts.Viewer(c.Request.Context(), middleware.CurrentPrincipal(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}
