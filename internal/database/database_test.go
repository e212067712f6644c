package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"cattle-certification-api-server/internal/apperror"
	"cattle-certification-api-server/internal/logger"
	"cattle-certification-api-server/internal/models"
	"cattle-certification-api-server/internal/store"
	"cattle-certification-api-server/internal/store/memory"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(mongo.ErrNoDocuments), apperror.ErrNotFound)

	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}
	assert.ErrorIs(t, translate(dup), apperror.ErrDuplicate)

	other := errors.New("connection reset")
	assert.Equal(t, other, translate(other))
}

func TestRequestFilter(t *testing.T) {
	day := time.Date(2024, 12, 2, 15, 30, 0, 0, time.UTC)
	f := requestFilter(store.RequestFilter{
		ProducerProfileID: "p-1",
		Statuses:          []models.RequestStatus{models.RequestCreated, models.RequestAssigned},
		NotBefore:         &day,
	})

	assert.Equal(t, "p-1", f["producerProfileID"])
	assert.NotContains(t, f, "vetProfileID")
	assert.Equal(t, bson.M{"$in": []models.RequestStatus{models.RequestCreated, models.RequestAssigned}}, f["status"])
	or, ok := f["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	assert.Equal(t, bson.M{"scheduledDate": bson.M{"$gte": time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC)}}, or[1])

	assert.Empty(t, requestFilter(store.RequestFilter{}))
}

func TestRequestDocTracksSlot(t *testing.T) {
	day := time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC)
	req := models.CertificationRequest{ID: "r-1", VetProfileID: "v-1", ScheduledDate: &day, ScheduledTime: models.SlotMorning, Status: models.RequestAssigned}
	assert.True(t, toRequestDoc(req).SlotHeld)

	req.Status = models.RequestCanceled
	assert.False(t, toRequestDoc(req).SlotHeld)

	raw, err := bson.Marshal(toRequestDoc(req))
	require.NoError(t, err)
	var decoded bson.M
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	assert.Equal(t, "r-1", decoded["_id"])
	assert.Equal(t, false, decoded["slotHeld"])
}

func TestIndexModelsCoverUniqueConstraints(t *testing.T) {
	idx := indexModels()
	for _, name := range []string{colUsers, colProducers, colVets, colServiceAreas, colWallets, colRequests, colLots, colDocuments, colTransactions} {
		assert.NotEmpty(t, idx[name], name)
	}
	slot := idx[colRequests][0]
	require.NotNil(t, slot.Options)
	require.NotNil(t, slot.Options.Unique)
	assert.True(t, *slot.Options.Unique)
	assert.Equal(t, bson.M{"slotHeld": true}, slot.Options.PartialFilterExpression)
}

func TestSeedReferenceDataIsIdempotent(t *testing.T) {
	st := memory.NewDB().Store()
	ctx := context.Background()

	require.NoError(t, SeedReferenceData(ctx, st.Localities, logger.Nop()))
	first, err := st.Localities.List(ctx)
	require.NoError(t, err)
	require.NoError(t, SeedReferenceData(ctx, st.Localities, logger.Nop()))
	second, err := st.Localities.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	tandil, err := st.Localities.GetByID(ctx, "tandil")
	require.NoError(t, err)
	assert.Equal(t, "buenos-aires", tandil.ProvinceID)
}
