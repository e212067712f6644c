package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cattle-certification-api-server/internal/apperror"
	"cattle-certification-api-server/internal/models"
	"cattle-certification-api-server/internal/store"
)

// --- users ---

type userRepo struct{ c collection[models.User] }

func (r userRepo) Create(ctx context.Context, u models.User) error { return r.c.insert(ctx, u) }

func (r userRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	return r.c.byID(ctx, id)
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return r.c.findOne(ctx, bson.M{"email": email})
}

// --- profiles ---

// walletTaken kiểm tra ví đã thuộc về hồ sơ producer hoặc bác sĩ nào chưa.
// Index unique chỉ bảo vệ trong từng collection nên cần kiểm tra chéo.
func walletTaken(ctx context.Context, db *mongo.Database, walletID string) (bool, error) {
	for _, name := range []string{colProducers, colVets} {
		n, err := db.Collection(name).CountDocuments(ctx, bson.M{"walletID": walletID})
		if err != nil {
			return false, err
		}
		if n > 0 {
			return true, nil
		}
	}
	return false, nil
}

type producerRepo struct {
	db *mongo.Database
	c  collection[models.ProducerProfile]
}

func (r producerRepo) Create(ctx context.Context, p models.ProducerProfile) error {
	taken, err := walletTaken(ctx, r.db, p.WalletID)
	if err != nil {
		return err
	}
	if taken {
		return apperror.ErrDuplicate.Withf("wallet %s already belongs to a profile", p.WalletID)
	}
	return r.c.insert(ctx, p)
}

func (r producerRepo) GetByID(ctx context.Context, id string) (models.ProducerProfile, error) {
	return r.c.byID(ctx, id)
}

type vetRepo struct {
	db *mongo.Database
	c  collection[models.VetProfile]
}

func (r vetRepo) Create(ctx context.Context, v models.VetProfile) error {
	taken, err := walletTaken(ctx, r.db, v.WalletID)
	if err != nil {
		return err
	}
	if taken {
		return apperror.ErrDuplicate.Withf("wallet %s already belongs to a profile", v.WalletID)
	}
	return r.c.insert(ctx, v)
}

func (r vetRepo) GetByID(ctx context.Context, id string) (models.VetProfile, error) {
	return r.c.byID(ctx, id)
}

func (r vetRepo) ListByLocality(ctx context.Context, localityID string) ([]models.VetProfile, error) {
	vetIDs, err := r.db.Collection(colServiceAreas).Distinct(ctx, "vetProfileID", bson.M{"localityID": localityID})
	if err != nil {
		return nil, err
	}
	if len(vetIDs) == 0 {
		return []models.VetProfile{}, nil
	}
	return r.c.find(ctx, bson.M{
		"_id":      bson.M{"$in": vetIDs},
		"schedule": bson.M{"$exists": true, "$ne": nil},
	}, byCreation())
}

type serviceAreaRepo struct{ c collection[models.ServiceArea] }

func (r serviceAreaRepo) Create(ctx context.Context, a models.ServiceArea) error {
	return r.c.insert(ctx, a)
}

func (r serviceAreaRepo) ListByVet(ctx context.Context, vetProfileID string) ([]models.ServiceArea, error) {
	return r.c.find(ctx, bson.M{"vetProfileID": vetProfileID}, byCreation())
}

type walletRepo struct{ c collection[models.BlockchainWallet] }

func (r walletRepo) Create(ctx context.Context, w models.BlockchainWallet) error {
	return r.c.insert(ctx, w)
}

func (r walletRepo) GetByID(ctx context.Context, id string) (models.BlockchainWallet, error) {
	return r.c.byID(ctx, id)
}

// --- localities ---

type localityRepo struct {
	provinces  collection[models.Province]
	localities collection[models.Locality]
}

func (r localityRepo) UpsertProvince(ctx context.Context, p models.Province) error {
	return r.provinces.upsert(ctx, p.ID, p)
}

func (r localityRepo) Upsert(ctx context.Context, l models.Locality) error {
	return r.localities.upsert(ctx, l.ID, l)
}

func (r localityRepo) GetByID(ctx context.Context, id string) (models.Locality, error) {
	return r.localities.byID(ctx, id)
}

func (r localityRepo) List(ctx context.Context) ([]models.Locality, error) {
	return r.localities.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}))
}

// --- certification requests ---

// requestDoc lưu thêm slotHeld để index unique một phần chỉ áp dụng cho request đang giữ lịch.
type requestDoc struct {
	models.CertificationRequest `bson:",inline"`
	SlotHeld                    bool `bson:"slotHeld"`
}

func toRequestDoc(r models.CertificationRequest) requestDoc {
	return requestDoc{CertificationRequest: r, SlotHeld: r.HoldsSlot()}
}

type requestRepo struct{ c collection[requestDoc] }

func (r requestRepo) Create(ctx context.Context, req models.CertificationRequest) error {
	return r.c.insert(ctx, toRequestDoc(req))
}

func (r requestRepo) GetByID(ctx context.Context, id string) (models.CertificationRequest, error) {
	doc, err := r.c.byID(ctx, id)
	return doc.CertificationRequest, err
}

func (r requestRepo) Assign(ctx context.Context, id, vetProfileID string, date time.Time, slot models.TimeSlot, at time.Time) error {
	filter := bson.M{
		"_id":          id,
		"status":       models.RequestCreated,
		"vetProfileID": bson.M{"$in": bson.A{nil, ""}},
	}
	update := bson.M{"$set": bson.M{
		"vetProfileID":  vetProfileID,
		"scheduledDate": models.DateOf(date),
		"scheduledTime": slot,
		"status":        models.RequestAssigned,
		"slotHeld":      true,
		"updatedAt":     at,
	}}
	res, err := r.c.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return apperror.ErrStale
	}
	return nil
}

func (r requestRepo) Transition(ctx context.Context, id string, from, to models.RequestStatus, at time.Time) error {
	set := bson.M{"status": to, "updatedAt": at}
	if !to.Active() {
		set["slotHeld"] = false
	}
	res, err := r.c.c.UpdateOne(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": set})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return apperror.ErrStale
	}
	return nil
}

func (r requestRepo) HasActiveOnDate(ctx context.Context, vetProfileID string, date time.Time) (bool, error) {
	n, err := r.c.count(ctx, bson.M{
		"vetProfileID":  vetProfileID,
		"scheduledDate": models.DateOf(date),
		"slotHeld":      true,
	})
	return n > 0, err
}

func (r requestRepo) List(ctx context.Context, f store.RequestFilter) ([]models.CertificationRequest, error) {
	docs, err := r.c.find(ctx, requestFilter(f), byCreation())
	if err != nil {
		return nil, err
	}
	out := make([]models.CertificationRequest, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.CertificationRequest)
	}
	return out, nil
}

func requestFilter(f store.RequestFilter) bson.M {
	filter := bson.M{}
	if f.ProducerProfileID != "" {
		filter["producerProfileID"] = f.ProducerProfileID
	}
	if f.VetProfileID != "" {
		filter["vetProfileID"] = f.VetProfileID
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	if f.NotBefore != nil {
		filter["$or"] = bson.A{
			bson.M{"scheduledDate": bson.M{"$exists": false}},
			bson.M{"scheduledDate": bson.M{"$gte": models.DateOf(*f.NotBefore)}},
		}
	}
	return filter
}

// --- uploads, lots, observations ---

type fileUploadRepo struct{ c collection[models.FileUpload] }

func (r fileUploadRepo) Create(ctx context.Context, f models.FileUpload) error {
	return r.c.insert(ctx, f)
}

func (r fileUploadRepo) Update(ctx context.Context, f models.FileUpload) error {
	return r.c.replace(ctx, f.ID, f)
}

func (r fileUploadRepo) ListByRequest(ctx context.Context, requestID string) ([]models.FileUpload, error) {
	return r.c.find(ctx, bson.M{"requestID": requestID}, byCreation())
}

type lotRepo struct{ c collection[models.CertifiedLot] }

func (r lotRepo) Create(ctx context.Context, l models.CertifiedLot) error { return r.c.insert(ctx, l) }

func (r lotRepo) GetByRequest(ctx context.Context, requestID string) (models.CertifiedLot, error) {
	return r.c.findOne(ctx, bson.M{"requestID": requestID})
}

func (r lotRepo) ListByRequests(ctx context.Context, requestIDs []string) ([]models.CertifiedLot, error) {
	if len(requestIDs) == 0 {
		return []models.CertifiedLot{}, nil
	}
	return r.c.find(ctx, bson.M{"requestID": bson.M{"$in": requestIDs}}, byCreation())
}

type certificationRepo struct{ c collection[models.CattleCertification] }

func (r certificationRepo) Create(ctx context.Context, c models.CattleCertification) error {
	return r.c.insert(ctx, c)
}

func (r certificationRepo) Update(ctx context.Context, c models.CattleCertification) error {
	return r.c.replace(ctx, c.ID, c)
}

func (r certificationRepo) CountByLot(ctx context.Context, lotID string) (int, error) {
	n, err := r.c.count(ctx, bson.M{"lotID": lotID})
	return int(n), err
}

func (r certificationRepo) ListByLot(ctx context.Context, lotID string) ([]models.CattleCertification, error) {
	return r.c.find(ctx, bson.M{"lotID": lotID}, byCreation())
}

// --- documents, transactions ---

type documentRepo struct{ c collection[models.CertificationDocument] }

func (r documentRepo) Create(ctx context.Context, d models.CertificationDocument) error {
	return r.c.insert(ctx, d)
}

func (r documentRepo) Update(ctx context.Context, d models.CertificationDocument) error {
	return r.c.replace(ctx, d.ID, d)
}

func (r documentRepo) GetByCertification(ctx context.Context, certificationID string) (models.CertificationDocument, error) {
	return r.c.findOne(ctx, bson.M{"cattleCertificationID": certificationID})
}

func (r documentRepo) GetByHash(ctx context.Context, hash string) (models.CertificationDocument, error) {
	return r.c.findOne(ctx, bson.M{"hash": hash})
}

type transactionRepo struct{ c collection[models.BlockchainTransaction] }

func (r transactionRepo) Create(ctx context.Context, t models.BlockchainTransaction) error {
	return r.c.insert(ctx, t)
}

func (r transactionRepo) Update(ctx context.Context, t models.BlockchainTransaction) error {
	return r.c.replace(ctx, t.ID, t)
}

func (r transactionRepo) GetByID(ctx context.Context, id string) (models.BlockchainTransaction, error) {
	return r.c.byID(ctx, id)
}
