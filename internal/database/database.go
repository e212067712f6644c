// Package database là backend MongoDB của store: kết nối, unit of work theo session, repository và index.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"cattle-certification-api-server/config"
	"cattle-certification-api-server/internal/apperror"
	"cattle-certification-api-server/internal/models"
	"cattle-certification-api-server/internal/store"
)

// Tên các collection
const (
	colUsers          = "users"
	colProducers      = "producer_profiles"
	colVets           = "vet_profiles"
	colServiceAreas   = "service_areas"
	colWallets        = "blockchain_wallets"
	colProvinces      = "provinces"
	colLocalities     = "localities"
	colRequests       = "certification_requests"
	colFileUploads    = "file_uploads"
	colLots           = "certified_lots"
	colCertifications = "cattle_certifications"
	colDocuments      = "certification_documents"
	colTransactions   = "blockchain_transactions"
)

// Connect mở kết nối tới MongoDB và kiểm tra bằng ping.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, client.Database(cfg.DBName), nil
}

// NewStore trả về tập repository dựa trên db.
func NewStore(db *mongo.Database) store.Store {
	return store.Store{
		UoW:            UnitOfWork{client: db.Client()},
		Users:          userRepo{newCollection[models.User](db, colUsers)},
		Producers:      producerRepo{db: db, c: newCollection[models.ProducerProfile](db, colProducers)},
		Vets:           vetRepo{db: db, c: newCollection[models.VetProfile](db, colVets)},
		ServiceAreas:   serviceAreaRepo{newCollection[models.ServiceArea](db, colServiceAreas)},
		Wallets:        walletRepo{newCollection[models.BlockchainWallet](db, colWallets)},
		Localities:     localityRepo{provinces: newCollection[models.Province](db, colProvinces), localities: newCollection[models.Locality](db, colLocalities)},
		Requests:       requestRepo{newCollection[requestDoc](db, colRequests)},
		FileUploads:    fileUploadRepo{newCollection[models.FileUpload](db, colFileUploads)},
		Lots:           lotRepo{newCollection[models.CertifiedLot](db, colLots)},
		Certifications: certificationRepo{newCollection[models.CattleCertification](db, colCertifications)},
		Documents:      documentRepo{newCollection[models.CertificationDocument](db, colDocuments)},
		Transactions:   transactionRepo{newCollection[models.BlockchainTransaction](db, colTransactions)},
	}
}

// translate chuyển lỗi của driver sang lỗi lưu trữ của ứng dụng.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperror.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return apperror.ErrDuplicate.Wrap(err)
	}
	return err
}
