// internal/models/file_upload.go
package models

import (
	"time"

	"github.com/gabriel-vasile/mimetype"

	"cattle-certification-api-server/internal/apperror"
)

// FileUpload là ảnh đính kèm request cùng kết quả ước lượng (AI) từ ảnh đó.
type FileUpload struct {
	ID              string       `bson:"_id" json:"id"`
	RequestID       string       `bson:"requestID" json:"requestID"`
	File            MediaPointer `bson:"file" json:"file"`
	Processed       bool         `bson:"processed" json:"processed"`
	EstimatedAge    float64      `bson:"estimatedAge,omitempty" json:"estimatedAge,omitempty"`
	EstimatedWeight float64      `bson:"estimatedWeight,omitempty" json:"estimatedWeight,omitempty"`
	EstimatedBreed  string       `bson:"estimatedBreed,omitempty" json:"estimatedBreed,omitempty"`
	CreatedAt       time.Time    `bson:"createdAt" json:"createdAt"`
}

// MaxUploadSize là kích thước tối đa của một ảnh tải lên.
const MaxUploadSize = 10 << 20

// ValidateImage chỉ nhận ảnh JPEG hoặc PNG không quá MaxUploadSize; ContentType được xác định lại từ nội dung.
func ValidateImage(u *Upload) error {
	if len(u.Data) > MaxUploadSize {
		return apperror.ErrInvalidFile.Withf("file is %d bytes, limit is %d", len(u.Data), MaxUploadSize)
	}
	mt := mimetype.Detect(u.Data)
	if !mt.Is("image/jpeg") && !mt.Is("image/png") {
		return apperror.ErrInvalidFile.Withf("unsupported file type %s", mt.String())
	}
	u.ContentType = mt.String()
	return nil
}
