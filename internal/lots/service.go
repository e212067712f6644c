package lots

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"cattle-certification-api-server/internal/apperror"
	"cattle-certification-api-server/internal/blockchain"
	"cattle-certification-api-server/internal/documents"
	"cattle-certification-api-server/internal/events"
	"cattle-certification-api-server/internal/logger"
	"cattle-certification-api-server/internal/models"
	"cattle-certification-api-server/internal/store"
)

// Certifier chạy pipeline chứng nhận cho một quan sát.
type Certifier interface {
	Certify(ctx context.Context, rc documents.RenderContext) (models.CertificationDocument, error)
}

// Input là dữ liệu một quan sát do bác sĩ gửi lên kèm ảnh.
type Input struct {
	Certification models.CattleCertification
	Photo         models.Upload
}

// Result là kết quả của một lần certify thành công.
type Result struct {
	Request        models.CertificationRequest    `json:"request"`
	Lot            models.CertifiedLot            `json:"lot"`
	Certifications []models.CattleCertification   `json:"certifications"`
	Documents      []models.CertificationDocument `json:"documents"`
}

type Service struct {
	store    store.Store
	files    store.FileStore
	recorder *Recorder
	pipeline Certifier
	events   events.Publisher
	log      logger.Logger
	now      func() time.Time
}

type Deps struct {
	Store    store.Store
	Files    store.FileStore
	Pipeline Certifier
	Events   events.Publisher
	Log      logger.Logger
}

func NewService(d Deps) *Service {
	if d.Events == nil {
		d.Events = events.Nop()
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return &Service{
		store:    d.Store,
		files:    d.Files,
		recorder: NewRecorder(d.Store.Certifications, d.Files),
		pipeline: d.Pipeline,
		events:   d.Events,
		log:      d.Log.With(map[string]any{"component": "lots"}),
		now:      time.Now,
	}
}

// Certify ghi nhận toàn bộ quan sát của request, tạo tài liệu cho từng quan sát và chuyển request sang executed.
// Mọi thứ chạy trong một unit of work tách khỏi cancellation của caller; khi lỗi, các file đã tải lên trong lượt chạy bị xóa.
func (s *Service) Certify(ctx context.Context, vetProfileID, requestID string, inputs []Input) (Result, error) {
	req, err := s.store.Requests.GetByID(ctx, requestID)
	if err != nil {
		return Result{}, err
	}
	if err := req.EnsureCertifiable(); err != nil {
		return Result{}, err
	}
	if req.VetProfileID != vetProfileID {
		return Result{}, apperror.ErrVeterinarianNotAssigned
	}
	if len(inputs) == 0 {
		return Result{}, apperror.Validation("certifications_required", "at least one cattle certification is required")
	}
	if len(inputs) > req.IntendedAnimalGroup {
		return Result{}, apperror.ErrTooManyCertifications.Withf(
			"%d certifications submitted for a declared group of %d", len(inputs), req.IntendedAnimalGroup)
	}
	now := s.now().UTC()
	for i := range inputs {
		if !inputs[i].Photo.Present() {
			return Result{}, apperror.ErrPhotoRequired.Withf("certification %d is missing its photo", i)
		}
		if err := models.ValidateImage(&inputs[i].Photo); err != nil {
			return Result{}, err
		}
		if err := inputs[i].Certification.Validate(now); err != nil {
			return Result{}, err
		}
	}

	if lot, err := s.store.Lots.GetByRequest(ctx, req.ID); err == nil {
		return Result{}, apperror.ErrRequestAlreadyFinalized.Withf("request %s already has certified lot %s", req.ID, lot.ID)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return Result{}, err
	}

	// Giao dịch on-chain đã gửi không thể thu hồi; hủy request HTTP giữa chừng không được làm rollback DB.
	ctx = context.WithoutCancel(ctx)
	rc, err := s.renderContext(ctx, req)
	if err != nil {
		return Result{}, err
	}

	var (
		result  Result
		written []string
	)
	err = s.store.UoW.Do(ctx, func(ctx context.Context) error {
		lot := models.CertifiedLot{ID: uuid.NewString(), RequestID: req.ID, CreatedAt: now}
		if err := s.store.Lots.Create(ctx, lot); err != nil {
			if errors.Is(err, apperror.ErrDuplicate) {
				return apperror.ErrRequestAlreadyFinalized.Withf("request %s already has a certified lot", req.ID)
			}
			return err
		}
		result = Result{Lot: lot}

		for _, in := range inputs {
			obs, err := s.recorder.Record(ctx, lot, req.IntendedAnimalGroup, in.Certification, in.Photo)
			if err != nil {
				return err
			}
			if obs.Photo != nil {
				written = append(written, obs.Photo.Key)
			}

			rc := rc
			rc.Lot = lot
			rc.Certification = obs
			rc.Photo = in.Photo.Data
			rc.IssuedAt = now
			doc, err := s.pipeline.Certify(ctx, rc)
			if err != nil {
				return err
			}
			if doc.File != nil {
				written = append(written, doc.File.Key)
			}
			result.Certifications = append(result.Certifications, obs)
			result.Documents = append(result.Documents, doc)
		}

		if err := s.store.Requests.Transition(ctx, req.ID, models.RequestAssigned, models.RequestExecuted, now); err != nil {
			if errors.Is(err, apperror.ErrStale) {
				return apperror.ErrRequestAlreadyFinalized.Wrap(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		s.discard(ctx, written)
		s.log.Warn("certification aborted", map[string]any{"requestId": req.ID, "error": err})
		return Result{}, err
	}

	req.Status = models.RequestExecuted
	req.UpdatedAt = now
	result.Request = req
	s.log.Info("certification request executed", map[string]any{
		"requestId":      req.ID,
		"lotId":          result.Lot.ID,
		"certifications": len(result.Certifications),
	})
	s.notifyExecuted(ctx, rc.Producer, result)
	return result, nil
}

func (s *Service) renderContext(ctx context.Context, req models.CertificationRequest) (documents.RenderContext, error) {
	producer, err := s.store.Producers.GetByID(ctx, req.ProducerProfileID)
	if err != nil {
		return documents.RenderContext{}, err
	}
	vet, err := s.store.Vets.GetByID(ctx, req.VetProfileID)
	if err != nil {
		return documents.RenderContext{}, err
	}
	locality, err := s.store.Localities.GetByID(ctx, req.LocalityID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return documents.RenderContext{}, err
	}
	return documents.RenderContext{Request: req, Producer: producer, Vet: vet, Locality: locality}, nil
}

func (s *Service) discard(ctx context.Context, keys []string) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		if err := s.files.Delete(ctx, key); err != nil {
			s.log.Warn("failed to delete orphaned file", map[string]any{"key": key, "error": err})
		}
	}
}

func (s *Service) notifyExecuted(ctx context.Context, producer models.ProducerProfile, r Result) {
	e := events.New(events.RequestExecuted, map[string]any{
		"requestId":      r.Request.ID,
		"lotId":          r.Lot.ID,
		"certifications": len(r.Certifications),
	}, producer.UserID)
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn("failed to publish event", map[string]any{"type": e.Type, "error": err})
	}
}

// DocumentView là tài liệu kèm trạng thái giao dịch để hiển thị.
type DocumentView struct {
	models.CertificationDocument
	TxHash            string          `json:"txHash"`
	TransactionStatus models.TxStatus `json:"transactionStatus"`
	Network           string          `json:"network"`
	NetworkName       string          `json:"networkName"`
	ExplorerURL       string          `json:"explorerURL,omitempty"`
}

type CertificationView struct {
	models.CattleCertification
	Document *DocumentView `json:"document,omitempty"`
}

type LotView struct {
	models.CertifiedLot
	Request        models.CertificationRequest `json:"request"`
	Certifications []CertificationView         `json:"certifications"`
}

// List trả về các lô đã chứng nhận của những request khớp filter.
func (s *Service) List(ctx context.Context, f store.RequestFilter) ([]LotView, error) {
	f.Statuses = []models.RequestStatus{models.RequestExecuted}
	reqs, err := s.store.Requests.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return []LotView{}, nil
	}

	byID := make(map[string]models.CertificationRequest, len(reqs))
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		byID[r.ID] = r
		ids = append(ids, r.ID)
	}
	lots, err := s.store.Lots.ListByRequests(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]LotView, 0, len(lots))
	for _, lot := range lots {
		certs, err := s.store.Certifications.ListByLot(ctx, lot.ID)
		if err != nil {
			return nil, err
		}
		view := LotView{CertifiedLot: lot, Request: byID[lot.RequestID], Certifications: make([]CertificationView, 0, len(certs))}
		for _, c := range certs {
			cv := CertificationView{CattleCertification: c}
			if cv.Document, err = s.documentView(ctx, c.ID); err != nil {
				return nil, err
			}
			view.Certifications = append(view.Certifications, cv)
		}
		out = append(out, view)
	}
	return out, nil
}

func (s *Service) documentView(ctx context.Context, certificationID string) (*DocumentView, error) {
	doc, err := s.store.Documents.GetByCertification(ctx, certificationID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	view := &DocumentView{CertificationDocument: doc}
	tx, err := s.store.Transactions.GetByID(ctx, doc.TransactionID)
	if errors.Is(err, apperror.ErrNotFound) {
		return view, nil
	}
	if err != nil {
		return nil, err
	}
	view.TxHash = tx.TxHash
	view.TransactionStatus = tx.Status
	view.Network = tx.Network
	view.NetworkName = blockchain.DisplayName(tx.Network)
	if tx.Status != models.TxPending {
		view.ExplorerURL = blockchain.ExplorerURL(tx.Network, tx.TxHash)
	}
	return view, nil
}
