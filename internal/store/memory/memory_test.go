package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cattle-certification-api-server/internal/apperror"
	"cattle-certification-api-server/internal/models"
)

func newRequest(id string) models.CertificationRequest {
	start := time.Date(2024, 12, 2, 9, 0, 0, 0, time.UTC)
	return models.CertificationRequest{
		ID:                  id,
		ProducerProfileID:   "producer-1",
		LocalityID:          "loc-1",
		Address:             "Ruta 5 km 30",
		IntendedAnimalGroup: 3,
		DeclaredLotWeight:   400,
		DeclaredLotAge:      24,
		CattleBreed:         models.BreedAngus,
		PreferredTimeRange:  models.TimeRange{Start: start, End: start.Add(2 * time.Hour)},
		Status:              models.RequestCreated,
		CreatedAt:           start,
	}
}

func TestDoRollsBackOnError(t *testing.T) {
	db := NewDB()
	st := db.Store()
	ctx := context.Background()

	boom := errors.New("boom")
	err := st.UoW.Do(ctx, func(ctx context.Context) error {
		require.NoError(t, st.Requests.Create(ctx, newRequest("req-1")))
		require.NoError(t, st.Lots.Create(ctx, models.CertifiedLot{ID: "lot-1", RequestID: "req-1"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = st.Requests.GetByID(ctx, "req-1")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = st.Lots.GetByRequest(ctx, "req-1")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestNestedDoJoinsOuterUnit(t *testing.T) {
	db := NewDB()
	st := db.Store()
	ctx := context.Background()

	boom := errors.New("boom")
	err := st.UoW.Do(ctx, func(ctx context.Context) error {
		inner := st.UoW.Do(ctx, func(ctx context.Context) error {
			return st.Requests.Create(ctx, newRequest("req-1"))
		})
		require.NoError(t, inner)
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = st.Requests.GetByID(ctx, "req-1")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestAssignGuardsSlotAndState(t *testing.T) {
	db := NewDB()
	st := db.Store()
	ctx := context.Background()
	day := time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, st.Requests.Create(ctx, newRequest("req-1")))
	require.NoError(t, st.Requests.Create(ctx, newRequest("req-2")))

	require.NoError(t, st.Requests.Assign(ctx, "req-1", "vet-1", day, models.SlotMorning, day))
	assert.ErrorIs(t, st.Requests.Assign(ctx, "req-1", "vet-2", day, models.SlotMorning, day), apperror.ErrStale)
	assert.ErrorIs(t, st.Requests.Assign(ctx, "req-2", "vet-1", day, models.SlotAfternoon, day), apperror.ErrDuplicate)

	busy, err := st.Requests.HasActiveOnDate(ctx, "vet-1", day.Add(15*time.Hour))
	require.NoError(t, err)
	assert.True(t, busy)

	// Hủy request giải phóng lịch của bác sĩ.
	require.NoError(t, st.Requests.Transition(ctx, "req-1", models.RequestAssigned, models.RequestCanceled, day))
	require.NoError(t, st.Requests.Assign(ctx, "req-2", "vet-1", day, models.SlotAfternoon, day))
}

func TestTransitionRequiresCurrentStatus(t *testing.T) {
	db := NewDB()
	st := db.Store()
	ctx := context.Background()

	require.NoError(t, st.Requests.Create(ctx, newRequest("req-1")))
	err := st.Requests.Transition(ctx, "req-1", models.RequestAssigned, models.RequestExecuted, time.Now())
	assert.ErrorIs(t, err, apperror.ErrStale)
}

func TestUniqueConstraints(t *testing.T) {
	db := NewDB()
	st := db.Store()
	ctx := context.Background()

	require.NoError(t, st.Wallets.Create(ctx, models.BlockchainWallet{ID: "w-1", Address: "0xAbC"}))
	assert.ErrorIs(t, st.Wallets.Create(ctx, models.BlockchainWallet{ID: "w-2", Address: "0xabc"}), apperror.ErrDuplicate)

	require.NoError(t, st.ServiceAreas.Create(ctx, models.ServiceArea{ID: "a-1", VetProfileID: "vet-1", LocalityID: "loc-1"}))
	assert.ErrorIs(t, st.ServiceAreas.Create(ctx, models.ServiceArea{ID: "a-2", VetProfileID: "vet-1", LocalityID: "loc-1"}), apperror.ErrDuplicate)

	require.NoError(t, st.Vets.Create(ctx, models.VetProfile{ID: "vet-1", UserID: "u-1", IdentityCard: "1", LicenseNumber: "L1", WalletID: "w-1"}))
	err := st.Producers.Create(ctx, models.ProducerProfile{ID: "p-1", UserID: "u-2", IdentityCard: "2", CUIGNumber: "C", RenspaNumber: "R", WalletID: "w-1"})
	assert.ErrorIs(t, err, apperror.ErrDuplicate)

	require.NoError(t, st.Documents.Create(ctx, models.CertificationDocument{ID: "d-1", CattleCertificationID: "c-1", Hash: "0x01"}))
	assert.ErrorIs(t, st.Documents.Create(ctx, models.CertificationDocument{ID: "d-2", CattleCertificationID: "c-2", Hash: "0x01"}), apperror.ErrDuplicate)
	assert.ErrorIs(t, st.Documents.Create(ctx, models.CertificationDocument{ID: "d-3", CattleCertificationID: "c-1", Hash: "0x02"}), apperror.ErrDuplicate)
}

func TestListByLocalityOrdersCandidates(t *testing.T) {
	db := NewDB()
	st := db.Store()
	ctx := context.Background()
	schedule := &models.WorkSchedule{Monday: models.WorkBoth}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, st.Vets.Create(ctx, models.VetProfile{ID: "vet-b", UserID: "u-b", IdentityCard: "b", LicenseNumber: "b", WalletID: "w-b", Schedule: schedule, CreatedAt: base}))
	require.NoError(t, st.Vets.Create(ctx, models.VetProfile{ID: "vet-a", UserID: "u-a", IdentityCard: "a", LicenseNumber: "a", WalletID: "w-a", Schedule: schedule, CreatedAt: base}))
	require.NoError(t, st.Vets.Create(ctx, models.VetProfile{ID: "vet-0", UserID: "u-0", IdentityCard: "0", LicenseNumber: "0", WalletID: "w-0", Schedule: schedule, CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, st.Vets.Create(ctx, models.VetProfile{ID: "vet-none", UserID: "u-n", IdentityCard: "n", LicenseNumber: "n", WalletID: "w-n", CreatedAt: base}))

	for _, id := range []string{"vet-b", "vet-a", "vet-0", "vet-none"} {
		require.NoError(t, st.ServiceAreas.Create(ctx, models.ServiceArea{ID: "area-" + id, VetProfileID: id, LocalityID: "loc-1"}))
	}

	vets, err := st.Vets.ListByLocality(ctx, "loc-1")
	require.NoError(t, err)
	ids := make([]string, 0, len(vets))
	for _, v := range vets {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []string{"vet-a", "vet-b", "vet-0"}, ids)
}
