package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func unique(keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
}

func key(field string) bson.D { return bson.D{{Key: field, Value: 1}} }

// indexModels là các ràng buộc unique và index truy vấn của từng collection.
func indexModels() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colUsers: {unique(key("email"))},
		colProducers: {
			unique(key("userID")),
			unique(key("walletID")),
			unique(key("identityCard")),
			unique(key("cuigNumber")),
			unique(key("renspaNumber")),
		},
		colVets: {
			unique(key("userID")),
			unique(key("walletID")),
			unique(key("identityCard")),
			unique(key("licenseNumber")),
		},
		colServiceAreas: {
			unique(bson.D{{Key: "vetProfileID", Value: 1}, {Key: "localityID", Value: 1}}),
			{Keys: key("localityID")},
		},
		colWallets: {{
			Keys: key("address"),
			Options: options.Index().SetUnique(true).
				SetCollation(&options.Collation{Locale: "en", Strength: 2}),
		}},
		colLocalities: {{Keys: key("provinceID")}},
		colRequests: {
			// Một bác sĩ chỉ có một request created/assigned trong mỗi ngày.
			{
				Keys: bson.D{{Key: "vetProfileID", Value: 1}, {Key: "scheduledDate", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"slotHeld": true}).
					SetName("vet_slot_unique"),
			},
			{Keys: bson.D{{Key: "producerProfileID", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "vetProfileID", Value: 1}, {Key: "status", Value: 1}}},
		},
		colFileUploads:    {{Keys: key("requestID")}},
		colLots:           {unique(key("requestID"))},
		colCertifications: {{Keys: key("lotID")}},
		colDocuments: {
			unique(key("hash")),
			unique(key("cattleCertificationID")),
		},
		colTransactions: {unique(key("txHash"))},
	}
}

// EnsureIndexes tạo các index cần thiết; gọi lại nhiều lần không gây lỗi.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for name, models := range indexModels() {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes for %s: %w", name, err)
		}
	}
	return nil
}
