// Package requests quản lý vòng đời certification request: tạo, gán bác sĩ, hủy và từ chối.
package requests

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"cattle-certification-api-server/internal/apperror"
	"cattle-certification-api-server/internal/events"
	"cattle-certification-api-server/internal/logger"
	"cattle-certification-api-server/internal/models"
	"cattle-certification-api-server/internal/scheduler"
	"cattle-certification-api-server/internal/store"
)

// MaxFileSize là kích thước tối đa của ảnh đính kèm request.
const MaxFileSize = models.MaxUploadSize

// CreateInput là dữ liệu producer gửi khi tạo request.
type CreateInput struct {
	LocalityID          string
	Address             string
	IntendedAnimalGroup int
	DeclaredLotWeight   int
	DeclaredLotAge      int
	CattleBreed         models.CattleBreed
	PreferredTimeRange  models.TimeRange
	File                models.Upload
}

type Service struct {
	store     store.Store
	files     store.FileStore
	scheduler *scheduler.Scheduler
	estimator Estimator
	events    events.Publisher
	log       logger.Logger
	now       func() time.Time
}

type Deps struct {
	Store     store.Store
	Files     store.FileStore
	Scheduler *scheduler.Scheduler
	Estimator Estimator
	Events    events.Publisher
	Log       logger.Logger
}

func NewService(d Deps) *Service {
	if d.Estimator == nil {
		d.Estimator = StaticEstimator{}
	}
	if d.Events == nil {
		d.Events = events.Nop()
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return &Service{
		store:     d.Store,
		files:     d.Files,
		scheduler: d.Scheduler,
		estimator: d.Estimator,
		events:    d.Events,
		log:       d.Log.With(map[string]any{"component": "requests"}),
		now:       time.Now,
	}
}

// ValidateFile chỉ nhận ảnh JPEG hoặc PNG không quá MaxFileSize; ContentType được xác định lại từ nội dung.
func ValidateFile(u *models.Upload) error {
	if !u.Present() {
		return apperror.ErrFileRequired
	}
	return models.ValidateImage(u)
}

// Create lưu request cùng ảnh và kết quả ước lượng trong một unit of work, sau đó thử gán bác sĩ.
// Không tìm được bác sĩ thì request vẫn ở trạng thái created.
func (s *Service) Create(ctx context.Context, producerProfileID string, in CreateInput) (models.CertificationRequest, error) {
	if err := ValidateFile(&in.File); err != nil {
		return models.CertificationRequest{}, err
	}

	now := s.now().UTC()
	req := models.CertificationRequest{
		ID:                  uuid.NewString(),
		ProducerProfileID:   producerProfileID,
		LocalityID:          strings.TrimSpace(in.LocalityID),
		Address:             strings.TrimSpace(in.Address),
		IntendedAnimalGroup: in.IntendedAnimalGroup,
		DeclaredLotWeight:   in.DeclaredLotWeight,
		DeclaredLotAge:      in.DeclaredLotAge,
		CattleBreed:         in.CattleBreed,
		PreferredTimeRange:  in.PreferredTimeRange,
		Status:              models.RequestCreated,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := req.Validate(); err != nil {
		return models.CertificationRequest{}, err
	}
	if _, err := s.store.Localities.GetByID(ctx, req.LocalityID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return models.CertificationRequest{}, apperror.Validation("unknown_locality", "locality %s does not exist", req.LocalityID)
		}
		return models.CertificationRequest{}, err
	}

	var fileKey string
	err := s.store.UoW.Do(ctx, func(ctx context.Context) error {
		if err := s.store.Requests.Create(ctx, req); err != nil {
			return err
		}

		upload := models.FileUpload{ID: uuid.NewString(), RequestID: req.ID, CreatedAt: now}
		if err := s.store.FileUploads.Create(ctx, upload); err != nil {
			return err
		}
		name := path.Base(in.File.FileName)
		if name == "." || name == "/" {
			name = "lot" + extension(in.File.ContentType)
		}
		ptr, err := s.files.Put(ctx, "file_uploads/"+upload.ID+"/"+name, in.File)
		if err != nil {
			return fmt.Errorf("store request file: %w", err)
		}
		fileKey = ptr.Key
		upload.File = ptr

		est, err := s.estimator.Estimate(ctx, req.CattleBreed, in.File)
		if err != nil {
			return fmt.Errorf("estimate lot attributes: %w", err)
		}
		upload.EstimatedAge = est.Age
		upload.EstimatedWeight = est.Weight
		upload.EstimatedBreed = est.Breed
		upload.Processed = true
		return s.store.FileUploads.Update(ctx, upload)
	})
	if err != nil {
		if fileKey != "" {
			if derr := s.files.Delete(context.WithoutCancel(ctx), fileKey); derr != nil {
				s.log.Warn("failed to delete orphaned request file", map[string]any{"key": fileKey, "error": derr})
			}
		}
		return models.CertificationRequest{}, err
	}
	s.log.Info("certification request created", map[string]any{"requestId": req.ID, "producerId": producerProfileID})

	// Slot được giữ bằng ràng buộc unique của storage nên việc gán chạy sau khi unit of work đã commit.
	assigned, err := s.Assign(ctx, req.ID)
	if err != nil {
		s.log.Error("assignment after creation failed", map[string]any{"requestId": req.ID, "error": err})
		return req, nil
	}
	return assigned, nil
}

// Assign chạy lại scheduler cho request; thông báo cho bác sĩ nếu request vừa được gán.
func (s *Service) Assign(ctx context.Context, requestID string) (models.CertificationRequest, error) {
	before, err := s.store.Requests.GetByID(ctx, requestID)
	if err != nil {
		return models.CertificationRequest{}, err
	}
	after, err := s.scheduler.Assign(ctx, requestID)
	if err != nil {
		return before, err
	}
	if !before.Assigned() && after.Assigned() {
		s.notifyAssigned(ctx, after)
	}
	return after, nil
}

func (s *Service) notifyAssigned(ctx context.Context, req models.CertificationRequest) {
	vet, err := s.store.Vets.GetByID(ctx, req.VetProfileID)
	if err != nil {
		s.log.Warn("cannot notify veterinarian", map[string]any{"requestId": req.ID, "error": err})
		return
	}
	e := events.New(events.RequestAssigned, map[string]any{
		"requestId":     req.ID,
		"localityId":    req.LocalityID,
		"address":       req.Address,
		"scheduledDate": req.ScheduledDate.Format(time.DateOnly),
		"scheduledTime": string(req.ScheduledTime),
	}, vet.UserID)
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn("failed to publish event", map[string]any{"type": e.Type, "error": err})
	}
}

// Cancel cho phép producer sở hữu hủy request chưa kết thúc.
func (s *Service) Cancel(ctx context.Context, producerProfileID, requestID string) (models.CertificationRequest, error) {
	return s.finish(ctx, requestID, models.RequestCanceled, func(req models.CertificationRequest) error {
		if req.ProducerProfileID != producerProfileID {
			return apperror.ErrNotRequestOwner
		}
		return nil
	})
}

// Reject cho phép bác sĩ được gán từ chối request.
func (s *Service) Reject(ctx context.Context, vetProfileID, requestID string) (models.CertificationRequest, error) {
	return s.finish(ctx, requestID, models.RequestRejected, func(req models.CertificationRequest) error {
		if req.VetProfileID == "" || req.VetProfileID != vetProfileID {
			return apperror.ErrVeterinarianNotAssigned
		}
		return nil
	})
}

func (s *Service) finish(ctx context.Context, requestID string, to models.RequestStatus, allowed func(models.CertificationRequest) error) (models.CertificationRequest, error) {
	for attempt := 0; attempt < 2; attempt++ {
		req, err := s.store.Requests.GetByID(ctx, requestID)
		if err != nil {
			return models.CertificationRequest{}, err
		}
		if err := allowed(req); err != nil {
			return models.CertificationRequest{}, err
		}
		if !req.Status.CanTransition(to) {
			return models.CertificationRequest{}, apperror.ErrRequestAlreadyFinalized
		}

		now := s.now().UTC()
		err = s.store.Requests.Transition(ctx, req.ID, req.Status, to, now)
		if errors.Is(err, apperror.ErrStale) {
			continue
		}
		if err != nil {
			return models.CertificationRequest{}, err
		}
		req.Status = to
		req.UpdatedAt = now
		s.log.Info("certification request closed", map[string]any{"requestId": req.ID, "status": string(to)})
		return req, nil
	}
	return models.CertificationRequest{}, apperror.ErrStale
}

func (s *Service) Get(ctx context.Context, id string) (models.CertificationRequest, error) {
	return s.store.Requests.GetByID(ctx, id)
}

// ListOpen trả về các request created/assigned chưa qua ngày hẹn của producer hoặc bác sĩ.
func (s *Service) ListOpen(ctx context.Context, role models.Role, profileID string) ([]models.CertificationRequest, error) {
	today := models.DateOf(s.now().UTC())
	f := store.RequestFilter{
		Statuses:  []models.RequestStatus{models.RequestCreated, models.RequestAssigned},
		NotBefore: &today,
	}
	switch role {
	case models.RoleProducer:
		f.ProducerProfileID = profileID
	case models.RoleVeterinarian:
		f.VetProfileID = profileID
	default:
		return nil, apperror.Validation("invalid_role", "unknown role %q", role)
	}
	return s.store.Requests.List(ctx, f)
}

func extension(contentType string) string {
	if contentType == "image/png" {
		return ".png"
	}
	return ".jpg"
}
