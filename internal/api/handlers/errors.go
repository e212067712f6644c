package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cattle-certification-api-server/internal/apperror"
)

var statusByKind = map[apperror.Kind]int{
	apperror.KindValidation: http.StatusBadRequest,
	apperror.KindDomain:     http.StatusUnprocessableEntity,
	apperror.KindNotFound:   http.StatusNotFound,
	apperror.KindConflict:   http.StatusConflict,
	apperror.KindCrypto:     http.StatusBadRequest,
	apperror.KindLedger:     http.StatusBadGateway,
}

// respondError trả lỗi về client theo Kind; lỗi nội bộ chỉ trả thông báo chung.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var appErr *apperror.Error
	status, ok := statusByKind[apperror.KindOf(err)]
	if !ok || !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	switch {
	case errors.Is(err, apperror.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, apperror.ErrAlreadyCertifiedOnChain):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": appErr.Message, "code": appErr.Code})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
