package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cattle-certification-api-server/internal/apperror"
	"cattle-certification-api-server/internal/models"
)

func TestRequestStatusTransitions(t *testing.T) {
	all := []models.RequestStatus{
		models.RequestCreated, models.RequestAssigned, models.RequestExecuted,
		models.RequestCanceled, models.RequestRejected,
	}
	allowed := map[models.RequestStatus][]models.RequestStatus{
		models.RequestCreated:  {models.RequestAssigned, models.RequestCanceled, models.RequestRejected},
		models.RequestAssigned: {models.RequestExecuted, models.RequestCanceled, models.RequestRejected},
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, contains(allowed[from], to), from.CanTransition(to), "%s -> %s", from, to)
		}
		assert.Equal(t, len(allowed[from]) == 0, from.Terminal(), from)
	}
}

func contains(list []models.RequestStatus, s models.RequestStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestEnsureCertifiable(t *testing.T) {
	tests := []struct {
		status models.RequestStatus
		want   error
	}{
		{models.RequestAssigned, nil},
		{models.RequestCreated, apperror.ErrRequestNotAssigned},
		{models.RequestExecuted, apperror.ErrRequestAlreadyFinalized},
		{models.RequestCanceled, apperror.ErrRequestAlreadyFinalized},
		{models.RequestRejected, apperror.ErrRequestAlreadyFinalized},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			err := models.CertificationRequest{Status: tt.status}.EnsureCertifiable()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func validRequest() models.CertificationRequest {
	start := time.Date(2024, 12, 2, 9, 0, 0, 0, time.UTC)
	return models.CertificationRequest{
		ProducerProfileID:   "p-1",
		LocalityID:          "loc-1",
		Address:             "Ruta 3 km 120",
		IntendedAnimalGroup: 10,
		DeclaredLotWeight:   450,
		DeclaredLotAge:      20,
		CattleBreed:         models.BreedAngus,
		PreferredTimeRange:  models.TimeRange{Start: start, End: start.Add(2 * time.Hour)},
		Status:              models.RequestCreated,
	}
}

func TestCertificationRequestValidate(t *testing.T) {
	require.NoError(t, validRequest().Validate())

	day := time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		mutate func(r *models.CertificationRequest)
		code   string
	}{
		{"zero headcount", func(r *models.CertificationRequest) { r.IntendedAnimalGroup = 0 }, "invalid_animal_group"},
		{"weight too high", func(r *models.CertificationRequest) { r.DeclaredLotWeight = 2001 }, "invalid_lot_weight"},
		{"age too high", func(r *models.CertificationRequest) { r.DeclaredLotAge = 241 }, "invalid_lot_age"},
		{"unknown breed", func(r *models.CertificationRequest) { r.CattleBreed = "wagyu" }, "invalid_breed"},
		{"inverted range", func(r *models.CertificationRequest) {
			r.PreferredTimeRange.End = r.PreferredTimeRange.Start.Add(-time.Hour)
		}, "invalid_time_range"},
		{"assigned without schedule", func(r *models.CertificationRequest) {
			r.Status = models.RequestAssigned
			r.VetProfileID = "v-1"
		}, "schedule_required"},
		{"schedule without vet", func(r *models.CertificationRequest) {
			r.ScheduledDate = &day
			r.ScheduledTime = models.SlotMorning
		}, "schedule_without_vet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest()
			tt.mutate(&r)
			var appErr *apperror.Error
			require.ErrorAs(t, r.Validate(), &appErr)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestTimeRangeDates(t *testing.T) {
	start := time.Date(2024, 12, 2, 22, 0, 0, 0, time.UTC)
	r := models.TimeRange{Start: start, End: start.Add(28 * time.Hour)}
	dates := r.Dates()
	require.Len(t, dates, 3)
	assert.Equal(t, time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC), dates[0])
	assert.Equal(t, time.Date(2024, 12, 4, 0, 0, 0, 0, time.UTC), dates[2])

	assert.Nil(t, models.TimeRange{Start: start}.Dates())
}

func TestWorkSchedule(t *testing.T) {
	s := models.WorkSchedule{Monday: models.WorkMorning, Friday: models.WorkBoth}
	assert.Equal(t, models.WorkNone, s.On(time.Tuesday))
	assert.True(t, s.AnyWorkTime())
	assert.NoError(t, s.Validate())
	assert.Equal(t, models.WorkNone, s.Normalize().Sunday)

	assert.True(t, models.WorkMorning.Matches(9))
	assert.False(t, models.WorkMorning.Matches(14))
	slot, ok := models.WorkBoth.Slot(14)
	assert.True(t, ok)
	assert.Equal(t, models.SlotAfternoon, slot)
	_, ok = models.WorkNone.Slot(9)
	assert.False(t, ok)

	assert.False(t, models.WorkSchedule{}.AnyWorkTime())
	assert.Error(t, models.WorkSchedule{Monday: "sometimes"}.Validate())
}

func TestCattleCertificationValidate(t *testing.T) {
	now := time.Date(2024, 12, 2, 12, 0, 0, 0, time.UTC)
	base := models.CattleCertification{Gender: models.GenderMale, Category: models.CategoryWeanedSteer}
	require.NoError(t, base.Validate(now))

	future := now.Add(time.Hour)
	tests := []struct {
		name   string
		mutate func(c *models.CattleCertification)
		code   string
	}{
		{"gender", func(c *models.CattleCertification) { c.Gender = "" }, "invalid_gender"},
		{"category", func(c *models.CattleCertification) { c.Category = "bull" }, "invalid_category"},
		{"dental chronology", func(c *models.CattleCertification) { c.DentalChronology = "2_teeth" }, "invalid_dental_chronology"},
		{"data taken in future", func(c *models.CattleCertification) { c.DataTakenAt = &future }, "data_taken_in_future"},
		{"service range ends in future", func(c *models.CattleCertification) {
			c.PregnancyServiceRange = &models.TimeRange{Start: now.Add(-time.Hour), End: future}
		}, "service_range_in_future"},
		{"geolocation", func(c *models.CattleCertification) {
			c.Geolocation = []models.GeoPoint{{Lat: 91, Lng: 0}}
		}, "invalid_geolocation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			var appErr *apperror.Error
			require.ErrorAs(t, c.Validate(now), &appErr)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestAnimalIDPrefersCUIG(t *testing.T) {
	assert.Equal(t, "AR1", models.CattleCertification{ID: "id", CUIGCode: " AR1 ", AlternativeCode: "ALT"}.AnimalID())
	assert.Equal(t, "ALT", models.CattleCertification{ID: "id", AlternativeCode: "ALT"}.AnimalID())
	assert.Equal(t, "id", models.CattleCertification{ID: "id"}.AnimalID())
}

func TestHashContent(t *testing.T) {
	h := models.HashContent([]byte("abc"))
	assert.Equal(t, "0xba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", h)
}
