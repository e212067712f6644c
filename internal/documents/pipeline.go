// Package documents tạo tài liệu chứng nhận cho từng quan sát và neo hash của nó lên blockchain.
package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cattle-certification-api-server/internal/apperror"
	"cattle-certification-api-server/internal/blockchain"
	"cattle-certification-api-server/internal/events"
	"cattle-certification-api-server/internal/logger"
	"cattle-certification-api-server/internal/models"
	"cattle-certification-api-server/internal/store"
)

// RenderContext là toàn bộ dữ liệu cần để dựng tài liệu của một quan sát.
type RenderContext struct {
	Request       models.CertificationRequest
	Producer      models.ProducerProfile
	Vet           models.VetProfile
	Locality      models.Locality
	Lot           models.CertifiedLot
	Certification models.CattleCertification
	// Photo là nội dung ảnh của quan sát, rỗng nếu không tải được.
	Photo    []byte
	IssuedAt time.Time
}

type Renderer interface {
	Render(ctx context.Context, rc RenderContext) ([]byte, error)
}

type Ledger interface {
	CertifyDocument(ctx context.Context, in blockchain.CertifyInput) (blockchain.Result, error)
	Network() blockchain.Network
	ContractAddress() string
}

// KeyRing mở khóa ví theo ID.
type KeyRing interface {
	UnlockByID(ctx context.Context, walletID string) (blockchain.WalletKey, error)
}

type Pipeline struct {
	uow          store.UnitOfWork
	documents    store.Documents
	transactions store.Transactions
	files        store.FileStore
	renderer     Renderer
	ledger       Ledger
	keys         KeyRing
	events       events.Publisher
	log          logger.Logger
	now          func() time.Time
}

type Deps struct {
	Store    store.Store
	Files    store.FileStore
	Renderer Renderer
	Ledger   Ledger
	Keys     KeyRing
	Events   events.Publisher
	Log      logger.Logger
}

func NewPipeline(d Deps) *Pipeline {
	if d.Events == nil {
		d.Events = events.Nop()
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return &Pipeline{
		uow:          d.Store.UoW,
		documents:    d.Store.Documents,
		transactions: d.Store.Transactions,
		files:        d.Files,
		renderer:     d.Renderer,
		ledger:       d.Ledger,
		keys:         d.Keys,
		events:       d.Events,
		log:          d.Log.With(map[string]any{"component": "certification_pipeline"}),
		now:          time.Now,
	}
}

// Certify chạy toàn bộ quy trình cho một quan sát trong một unit of work.
// Khi thất bại, mọi bản ghi của lượt chạy bị rollback và file PDF đã tải lên bị xóa.
func (p *Pipeline) Certify(ctx context.Context, rc RenderContext) (models.CertificationDocument, error) {
	var (
		doc         models.CertificationDocument
		uploadedKey string
	)
	err := p.uow.Do(ctx, func(ctx context.Context) error {
		var err error
		doc, uploadedKey, err = p.run(ctx, rc)
		return err
	})
	if err != nil {
		if uploadedKey != "" {
			if derr := p.files.Delete(context.WithoutCancel(ctx), uploadedKey); derr != nil {
				p.log.Warn("failed to delete orphaned document file", map[string]any{"key": uploadedKey, "error": derr})
			}
		}
		return models.CertificationDocument{}, err
	}
	return doc, nil
}

func (p *Pipeline) run(ctx context.Context, rc RenderContext) (models.CertificationDocument, string, error) {
	cert := rc.Certification
	now := p.now().UTC()
	if rc.IssuedAt.IsZero() {
		rc.IssuedAt = now
	}

	// 1. Mỗi quan sát chỉ có một tài liệu.
	if _, err := p.documents.GetByCertification(ctx, cert.ID); err == nil {
		return models.CertificationDocument{}, "", apperror.ErrDocumentExists
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return models.CertificationDocument{}, "", err
	}

	// 2-4. Dựng PDF, tính hash và tên file.
	if len(rc.Photo) == 0 && cert.Photo != nil {
		if photo, err := p.files.Get(ctx, cert.Photo.Key); err == nil {
			rc.Photo = photo
		} else {
			p.log.Warn("photo unavailable for document", map[string]any{"certificationId": cert.ID, "error": err})
		}
	}
	pdf, err := p.renderer.Render(ctx, rc)
	if err != nil {
		return models.CertificationDocument{}, "", fmt.Errorf("render certification document: %w", err)
	}
	hash := models.HashContent(pdf)
	filename := Filename(cert.CUIGCode, cert.DataTakenAt, rc.Producer.CUIGNumber, now)

	// 5. Từ đây giao dịch có bản ghi pending.
	tx := models.BlockchainTransaction{
		ID:              uuid.NewString(),
		TxHash:          PlaceholderTxHash(),
		Status:          models.TxPending,
		Network:         p.ledger.Network().Name,
		ContractAddress: p.ledger.ContractAddress(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := p.transactions.Create(ctx, tx); err != nil {
		return models.CertificationDocument{}, "", err
	}

	// 6. Tạo document, đính kèm PDF rồi kiểm tra lại hash trên nội dung đã lưu.
	doc := models.CertificationDocument{
		ID:                    uuid.NewString(),
		CattleCertificationID: cert.ID,
		TransactionID:         tx.ID,
		Hash:                  hash,
		Filename:              filename,
		CreatedAt:             now,
	}
	if err := p.documents.Create(ctx, doc); err != nil {
		if errors.Is(err, apperror.ErrDuplicate) {
			return models.CertificationDocument{}, "", apperror.ErrDocumentExists.Withf("a certification document with hash %s already exists", hash)
		}
		return models.CertificationDocument{}, "", err
	}

	ptr, err := p.files.Put(ctx, "certification_documents/"+doc.ID+"/"+filename, models.Upload{
		FileName:    filename,
		ContentType: "application/pdf",
		Data:        pdf,
	})
	if err != nil {
		return models.CertificationDocument{}, "", fmt.Errorf("attach certification document: %w", err)
	}
	uploaded := ptr.Key
	doc.File = &ptr
	if err := p.documents.Update(ctx, doc); err != nil {
		return models.CertificationDocument{}, uploaded, err
	}
	attached, err := p.files.Get(ctx, ptr.Key)
	if err != nil {
		return models.CertificationDocument{}, uploaded, fmt.Errorf("read back certification document: %w", err)
	}
	if err := doc.Validate(attached); err != nil {
		return models.CertificationDocument{}, uploaded, err
	}

	// 7. Hai chữ ký trên cùng thông điệp (hash, owner, vet).
	if rc.Producer.WalletID == "" || rc.Vet.WalletID == "" {
		return models.CertificationDocument{}, uploaded, apperror.ErrMissingWallet
	}
	ownerKey, err := p.keys.UnlockByID(ctx, rc.Producer.WalletID)
	if err != nil {
		return models.CertificationDocument{}, uploaded, apperror.ErrMissingWallet.Wrap(err)
	}
	vetKey, err := p.keys.UnlockByID(ctx, rc.Vet.WalletID)
	if err != nil {
		return models.CertificationDocument{}, uploaded, apperror.ErrMissingWallet.Wrap(err)
	}
	sigs, err := blockchain.SignCertification(hash, ownerKey, vetKey)
	if err != nil {
		return models.CertificationDocument{}, uploaded, err
	}

	// 8. Gửi lên contract.
	res, err := p.ledger.CertifyDocument(ctx, blockchain.CertifyInput{
		ContentHash:    hash,
		AnimalID:       cert.AnimalID(),
		OwnerAddress:   ownerKey.Address,
		VetAddress:     vetKey.Address,
		OwnerSignature: sigs.Owner,
		VetSignature:   sigs.Vet,
	})
	if err != nil {
		// 10. Ghi nhận thất bại rồi trả lỗi để rollback cả unit of work.
		p.fail(ctx, tx, rc, err)
		return models.CertificationDocument{}, uploaded, err
	}

	// 9. Cập nhật giao dịch bằng kết quả thật.
	tx.TxHash = res.TxHash
	tx.BlockNumber = res.BlockNumber
	tx.GasUsed = res.GasUsed
	tx.Status = res.Status
	tx.RawResponse = res.Raw
	tx.UpdatedAt = p.now().UTC()
	if err := p.transactions.Update(ctx, tx); err != nil {
		return models.CertificationDocument{}, uploaded, err
	}
	if res.Status == models.TxFailed {
		err := apperror.ErrLedgerSubmission.Withf("transaction %s was reverted", res.TxHash)
		p.fail(ctx, tx, rc, err)
		return models.CertificationDocument{}, uploaded, err
	}

	p.log.Info("document certified", map[string]any{
		"certificationId": cert.ID,
		"hash":            hash,
		"txHash":          tx.TxHash,
		"blockNumber":     tx.BlockNumber,
	})
	return doc, uploaded, nil
}

// fail đánh dấu giao dịch failed. Bản ghi này rollback cùng unit of work,
// nên lần thử được giữ lại qua log lỗi và sự kiện certification_failed.
func (p *Pipeline) fail(ctx context.Context, tx models.BlockchainTransaction, rc RenderContext, cause error) {
	tx.Status = models.TxFailed
	tx.ErrorMessage = cause.Error()
	tx.UpdatedAt = p.now().UTC()
	if err := p.transactions.Update(ctx, tx); err != nil {
		p.log.Warn("failed to record failed transaction", map[string]any{"transactionId": tx.ID, "error": err})
	}

	fields := map[string]any{
		"certificationId": rc.Certification.ID,
		"requestId":       rc.Request.ID,
		"transactionId":   tx.ID,
		"network":         tx.Network,
		"error":           cause,
	}
	p.log.Error("ledger submission failed", fields)

	audit := events.New(events.CertificationFailed, map[string]any{
		"certificationId": rc.Certification.ID,
		"requestId":       rc.Request.ID,
		"network":         tx.Network,
		"contractAddress": tx.ContractAddress,
		"error":           cause.Error(),
	})
	if err := p.events.Publish(context.WithoutCancel(ctx), audit); err != nil {
		p.log.Warn("failed to publish audit event", map[string]any{"error": err})
	}
}
