// Package memory là backend lưu trữ trong bộ nhớ, dùng cho môi trường dev và test.
// Unit of work được tuần tự hóa; khi fn lỗi, toàn bộ trạng thái được khôi phục từ snapshot.
package memory

import (
	"context"
	"maps"
	"sync"

	"cattle-certification-api-server/internal/models"
	"cattle-certification-api-server/internal/store"
)

type state struct {
	users      map[string]models.User
	producers  map[string]models.ProducerProfile
	vets       map[string]models.VetProfile
	areas      map[string]models.ServiceArea
	wallets    map[string]models.BlockchainWallet
	provinces  map[string]models.Province
	localities map[string]models.Locality
	requests   map[string]models.CertificationRequest
	uploads    map[string]models.FileUpload
	lots       map[string]models.CertifiedLot
	certs      map[string]models.CattleCertification
	docs       map[string]models.CertificationDocument
	txs        map[string]models.BlockchainTransaction
}

func newState() state {
	return state{
		users:      map[string]models.User{},
		producers:  map[string]models.ProducerProfile{},
		vets:       map[string]models.VetProfile{},
		areas:      map[string]models.ServiceArea{},
		wallets:    map[string]models.BlockchainWallet{},
		provinces:  map[string]models.Province{},
		localities: map[string]models.Locality{},
		requests:   map[string]models.CertificationRequest{},
		uploads:    map[string]models.FileUpload{},
		lots:       map[string]models.CertifiedLot{},
		certs:      map[string]models.CattleCertification{},
		docs:       map[string]models.CertificationDocument{},
		txs:        map[string]models.BlockchainTransaction{},
	}
}

func (s state) clone() state {
	return state{
		users:      maps.Clone(s.users),
		producers:  maps.Clone(s.producers),
		vets:       maps.Clone(s.vets),
		areas:      maps.Clone(s.areas),
		wallets:    maps.Clone(s.wallets),
		provinces:  maps.Clone(s.provinces),
		localities: maps.Clone(s.localities),
		requests:   maps.Clone(s.requests),
		uploads:    maps.Clone(s.uploads),
		lots:       maps.Clone(s.lots),
		certs:      maps.Clone(s.certs),
		docs:       maps.Clone(s.docs),
		txs:        maps.Clone(s.txs),
	}
}

// DB giữ toàn bộ dữ liệu; các repository chỉ là view trên DB.
type DB struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	s    state
}

func NewDB() *DB {
	return &DB{s: newState()}
}

type txKey struct{}

// Do chạy fn trong một unit of work. Lời gọi lồng nhau dùng chung unit of work ngoài cùng.
func (db *DB) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.RLock()
	snapshot := db.s.clone()
	db.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		db.mu.Lock()
		db.s = snapshot
		db.mu.Unlock()
		return err
	}
	return nil
}

// Store trả về tập repository dựa trên db.
func (db *DB) Store() store.Store {
	return store.Store{
		UoW:            db,
		Users:          userRepo{db},
		Producers:      producerRepo{db},
		Vets:           vetRepo{db},
		ServiceAreas:   serviceAreaRepo{db},
		Wallets:        walletRepo{db},
		Localities:     localityRepo{db},
		Requests:       requestRepo{db},
		FileUploads:    fileUploadRepo{db},
		Lots:           lotRepo{db},
		Certifications: certificationRepo{db},
		Documents:      documentRepo{db},
		Transactions:   transactionRepo{db},
	}
}

func (db *DB) read(fn func(s *state)) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	fn(&db.s)
}

func (db *DB) write(fn func(s *state) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(&db.s)
}
