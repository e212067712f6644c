// Package lots ghi nhận các quan sát của bác sĩ thú y cho một lô và hoàn tất certification request.
package lots

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"cattle-certification-api-server/internal/apperror"
	"cattle-certification-api-server/internal/models"
	"cattle-certification-api-server/internal/store"
)

// Recorder lưu quan sát dưới một lô, giữ số quan sát không vượt quá số con đã khai báo.
type Recorder struct {
	certifications store.Certifications
	files          store.FileStore
	now            func() time.Time
}

func NewRecorder(certifications store.Certifications, files store.FileStore) *Recorder {
	return &Recorder{certifications: certifications, files: files, now: time.Now}
}

// Record lưu quan sát rồi đính kèm ảnh (JPEG/PNG, tối đa MaxUploadSize). headcount là số con producer đã khai báo cho request.
// Khi cập nhật sau lúc tải ảnh thất bại, ảnh vừa tải bị xóa.
func (r *Recorder) Record(ctx context.Context, lot models.CertifiedLot, headcount int, obs models.CattleCertification, photo models.Upload) (models.CattleCertification, error) {
	if !photo.Present() {
		return models.CattleCertification{}, apperror.ErrPhotoRequired
	}
	if err := models.ValidateImage(&photo); err != nil {
		return models.CattleCertification{}, err
	}

	count, err := r.certifications.CountByLot(ctx, lot.ID)
	if err != nil {
		return models.CattleCertification{}, err
	}
	if count >= headcount {
		return models.CattleCertification{}, apperror.ErrTooManyCertifications.Withf(
			"lot %s already has %d of %d declared animals", lot.ID, count, headcount)
	}

	now := r.now().UTC()
	if err := obs.Validate(now); err != nil {
		return models.CattleCertification{}, err
	}
	if obs.ID == "" {
		obs.ID = uuid.NewString()
	}
	obs.LotID = lot.ID
	obs.Photo = nil
	obs.CreatedAt = now
	if err := r.certifications.Create(ctx, obs); err != nil {
		return models.CattleCertification{}, err
	}

	key := "cattle_certifications/" + obs.ID + "/" + path.Base(photoName(photo))
	ptr, err := r.files.Put(ctx, key, photo)
	if err != nil {
		return models.CattleCertification{}, fmt.Errorf("attach photo: %w", err)
	}
	obs.Photo = &ptr
	if err := r.certifications.Update(ctx, obs); err != nil {
		_ = r.files.Delete(context.WithoutCancel(ctx), ptr.Key)
		return models.CattleCertification{}, err
	}
	return obs, nil
}

func photoName(u models.Upload) string {
	if u.FileName != "" {
		return u.FileName
	}
	if u.ContentType == "image/png" {
		return "photo.png"
	}
	return "photo.jpg"
}
