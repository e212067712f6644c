// internal/store/store.go
package store

import (
	"context"
	"time"

	"cattle-certification-api-server/internal/models"
)

// UnitOfWork chạy fn trong một giao dịch. Lời gọi Do lồng nhau (cùng ctx) tham gia giao dịch ngoài.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type Users interface {
	Create(ctx context.Context, u models.User) error
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
}

type Producers interface {
	Create(ctx context.Context, p models.ProducerProfile) error
	GetByID(ctx context.Context, id string) (models.ProducerProfile, error)
}

type Vets interface {
	Create(ctx context.Context, v models.VetProfile) error
	GetByID(ctx context.Context, id string) (models.VetProfile, error)
	// ListByLocality trả về các bác sĩ phục vụ địa phương và có lịch làm việc,
	// sắp xếp theo CreatedAt rồi ID.
	ListByLocality(ctx context.Context, localityID string) ([]models.VetProfile, error)
}

type ServiceAreas interface {
	Create(ctx context.Context, a models.ServiceArea) error
	ListByVet(ctx context.Context, vetProfileID string) ([]models.ServiceArea, error)
}

type Wallets interface {
	Create(ctx context.Context, w models.BlockchainWallet) error
	GetByID(ctx context.Context, id string) (models.BlockchainWallet, error)
}

type Localities interface {
	UpsertProvince(ctx context.Context, p models.Province) error
	Upsert(ctx context.Context, l models.Locality) error
	GetByID(ctx context.Context, id string) (models.Locality, error)
	List(ctx context.Context) ([]models.Locality, error)
}

// RequestFilter lọc danh sách request. Các trường rỗng bị bỏ qua.
type RequestFilter struct {
	ProducerProfileID string
	VetProfileID      string
	Statuses          []models.RequestStatus
	// NotBefore giữ lại request chưa có lịch hoặc có lịch từ ngày này trở đi.
	NotBefore *time.Time
}

type Requests interface {
	Create(ctx context.Context, r models.CertificationRequest) error
	GetByID(ctx context.Context, id string) (models.CertificationRequest, error)
	// Assign chỉ cập nhật request còn ở trạng thái created và chưa có bác sĩ;
	// trả về ErrStale nếu không còn như vậy, ErrDuplicate nếu bác sĩ đã có lịch trong ngày.
	Assign(ctx context.Context, id, vetProfileID string, date time.Time, slot models.TimeSlot, at time.Time) error
	// Transition đổi trạng thái khi trạng thái hiện tại là from; ngược lại trả về ErrStale.
	Transition(ctx context.Context, id string, from, to models.RequestStatus, at time.Time) error
	HasActiveOnDate(ctx context.Context, vetProfileID string, date time.Time) (bool, error)
	List(ctx context.Context, f RequestFilter) ([]models.CertificationRequest, error)
}

type FileUploads interface {
	Create(ctx context.Context, f models.FileUpload) error
	Update(ctx context.Context, f models.FileUpload) error
	ListByRequest(ctx context.Context, requestID string) ([]models.FileUpload, error)
}

type Lots interface {
	Create(ctx context.Context, l models.CertifiedLot) error
	GetByRequest(ctx context.Context, requestID string) (models.CertifiedLot, error)
	ListByRequests(ctx context.Context, requestIDs []string) ([]models.CertifiedLot, error)
}

type Certifications interface {
	Create(ctx context.Context, c models.CattleCertification) error
	Update(ctx context.Context, c models.CattleCertification) error
	CountByLot(ctx context.Context, lotID string) (int, error)
	ListByLot(ctx context.Context, lotID string) ([]models.CattleCertification, error)
}

type Documents interface {
	Create(ctx context.Context, d models.CertificationDocument) error
	Update(ctx context.Context, d models.CertificationDocument) error
	GetByCertification(ctx context.Context, certificationID string) (models.CertificationDocument, error)
	GetByHash(ctx context.Context, hash string) (models.CertificationDocument, error)
}

type Transactions interface {
	Create(ctx context.Context, t models.BlockchainTransaction) error
	Update(ctx context.Context, t models.BlockchainTransaction) error
	GetByID(ctx context.Context, id string) (models.BlockchainTransaction, error)
}

// FileStore lưu trữ blob (ảnh, PDF) theo key.
type FileStore interface {
	Put(ctx context.Context, key string, u models.Upload) (models.MediaPointer, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Store gom các repository và unit of work của một backend.
type Store struct {
	UoW            UnitOfWork
	Users          Users
	Producers      Producers
	Vets           Vets
	ServiceAreas   ServiceAreas
	Wallets        Wallets
	Localities     Localities
	Requests       Requests
	FileUploads    FileUploads
	Lots           Lots
	Certifications Certifications
	Documents      Documents
	Transactions   Transactions
}
