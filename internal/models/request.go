// internal/models/request.go
package models

import (
	"strings"
	"time"

	"cattle-certification-api-server/internal/apperror"
)

type RequestStatus string

const (
	RequestCreated  RequestStatus = "created"
	RequestAssigned RequestStatus = "assigned"
	RequestExecuted RequestStatus = "executed"
	RequestCanceled RequestStatus = "canceled"
	RequestRejected RequestStatus = "rejected"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestCreated, RequestAssigned, RequestExecuted, RequestCanceled, RequestRejected:
		return true
	}
	return false
}

// Terminal báo trạng thái kết thúc, không thể chuyển tiếp.
func (s RequestStatus) Terminal() bool {
	switch s {
	case RequestExecuted, RequestCanceled, RequestRejected:
		return true
	}
	return false
}

// Active là trạng thái còn giữ lịch của bác sĩ thú y.
func (s RequestStatus) Active() bool {
	return s == RequestCreated || s == RequestAssigned
}

// CanTransition: created → assigned → executed; created|assigned → canceled|rejected.
func (s RequestStatus) CanTransition(to RequestStatus) bool {
	switch s {
	case RequestCreated:
		switch to {
		case RequestAssigned, RequestCanceled, RequestRejected:
			return true
		}
	case RequestAssigned:
		switch to {
		case RequestExecuted, RequestCanceled, RequestRejected:
			return true
		}
	case RequestExecuted, RequestCanceled, RequestRejected:
		return false
	}
	return false
}

type TimeSlot string

const (
	SlotMorning   TimeSlot = "morning"
	SlotAfternoon TimeSlot = "afternoon"
)

// SlotForHour: trước 12:00 là buổi sáng.
func SlotForHour(hour int) TimeSlot {
	if hour < 12 {
		return SlotMorning
	}
	return SlotAfternoon
}

type CattleBreed string

const (
	BreedAngus     CattleBreed = "angus"
	BreedHereford  CattleBreed = "hereford"
	BreedBrahman   CattleBreed = "brahman"
	BreedCharolais CattleBreed = "charolais"
	BreedLimousin  CattleBreed = "limousin"
	BreedSimmental CattleBreed = "simmental"
	BreedHolstein  CattleBreed = "holstein"
	BreedJersey    CattleBreed = "jersey"
	BreedShorthorn CattleBreed = "shorthorn"
	BreedOther     CattleBreed = "other"
)

var cattleBreeds = []CattleBreed{
	BreedAngus, BreedHereford, BreedBrahman, BreedCharolais, BreedLimousin,
	BreedSimmental, BreedHolstein, BreedJersey, BreedShorthorn, BreedOther,
}

func (b CattleBreed) Valid() bool {
	for _, known := range cattleBreeds {
		if b == known {
			return true
		}
	}
	return false
}

// CertificationRequest là yêu cầu chứng nhận một lô bò của nhà sản xuất.
type CertificationRequest struct {
	ID                  string        `bson:"_id" json:"id"`
	ProducerProfileID   string        `bson:"producerProfileID" json:"producerProfileID"`
	LocalityID          string        `bson:"localityID" json:"localityID"`
	VetProfileID        string        `bson:"vetProfileID,omitempty" json:"vetProfileID,omitempty"`
	Address             string        `bson:"address" json:"address"`
	IntendedAnimalGroup int           `bson:"intendedAnimalGroup" json:"intendedAnimalGroup"`
	DeclaredLotWeight   int           `bson:"declaredLotWeight" json:"declaredLotWeight"`
	DeclaredLotAge      int           `bson:"declaredLotAge" json:"declaredLotAge"`
	CattleBreed         CattleBreed   `bson:"cattleBreed" json:"cattleBreed"`
	PreferredTimeRange  TimeRange     `bson:"preferredTimeRange" json:"preferredTimeRange"`
	ScheduledDate       *time.Time    `bson:"scheduledDate,omitempty" json:"scheduledDate,omitempty"`
	ScheduledTime       TimeSlot      `bson:"scheduledTime,omitempty" json:"scheduledTime,omitempty"`
	Status              RequestStatus `bson:"status" json:"status"`
	CreatedAt           time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time     `bson:"updatedAt" json:"updatedAt"`
}

func (r CertificationRequest) Assigned() bool {
	return r.VetProfileID != ""
}

// HoldsSlot báo request đang chiếm lịch (bác sĩ, ngày) của bác sĩ thú y.
func (r CertificationRequest) HoldsSlot() bool {
	return r.Status.Active() && r.VetProfileID != "" && r.ScheduledDate != nil
}

// Validate kiểm tra dữ liệu khai báo và bất biến lịch hẹn trước khi lưu.
func (r CertificationRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.ProducerProfileID) == "":
		return apperror.Validation("producer_required", "producer profile is required")
	case strings.TrimSpace(r.LocalityID) == "":
		return apperror.Validation("locality_required", "locality is required")
	case strings.TrimSpace(r.Address) == "":
		return apperror.Validation("address_required", "address is required")
	case r.IntendedAnimalGroup <= 0:
		return apperror.Validation("invalid_animal_group", "intended animal group must be greater than 0")
	case r.DeclaredLotWeight <= 0 || r.DeclaredLotWeight > 2000:
		return apperror.Validation("invalid_lot_weight", "declared lot weight must be greater than 0 and at most 2000")
	case r.DeclaredLotAge <= 0 || r.DeclaredLotAge > 240:
		return apperror.Validation("invalid_lot_age", "declared lot age must be greater than 0 and at most 240")
	case !r.CattleBreed.Valid():
		return apperror.Validation("invalid_breed", "unknown cattle breed %q", r.CattleBreed)
	case !r.PreferredTimeRange.Valid():
		return apperror.Validation("invalid_time_range", "preferred time range must have a start before its end")
	case !r.Status.Valid():
		return apperror.Validation("invalid_status", "unknown status %q", r.Status)
	}

	scheduled := r.ScheduledDate != nil && r.ScheduledTime != ""
	unscheduled := r.ScheduledDate == nil && r.ScheduledTime == ""
	if r.Assigned() && !scheduled {
		return apperror.Validation("schedule_required", "an assigned request needs a scheduled date and time")
	}
	if !r.Assigned() && !unscheduled {
		return apperror.Validation("schedule_without_vet", "a scheduled date and time require an assigned veterinarian")
	}
	if r.ScheduledTime != "" && r.ScheduledTime != SlotMorning && r.ScheduledTime != SlotAfternoon {
		return apperror.Validation("invalid_time_slot", "unknown scheduled time %q", r.ScheduledTime)
	}
	return nil
}

// EnsureCertifiable chỉ cho phép chứng nhận request đang ở trạng thái assigned.
func (r CertificationRequest) EnsureCertifiable() error {
	switch r.Status {
	case RequestAssigned:
		return nil
	case RequestExecuted, RequestCanceled, RequestRejected:
		return apperror.ErrRequestAlreadyFinalized
	default:
		return apperror.ErrRequestNotAssigned
	}
}
