// internal/models/vet.go
package models

import (
	"time"

	"cattle-certification-api-server/internal/apperror"
)

// WorkTime là khung làm việc của bác sĩ thú y trong một ngày.
type WorkTime string

const (
	WorkNone      WorkTime = "none"
	WorkMorning   WorkTime = "morning"
	WorkAfternoon WorkTime = "afternoon"
	WorkBoth      WorkTime = "both"
)

func (w WorkTime) Valid() bool {
	switch w {
	case WorkNone, WorkMorning, WorkAfternoon, WorkBoth:
		return true
	}
	return false
}

func (w WorkTime) Works() bool {
	return w == WorkMorning || w == WorkAfternoon || w == WorkBoth
}

// Matches báo khung làm việc có phù hợp với giờ bắt đầu mong muốn không.
func (w WorkTime) Matches(hour int) bool {
	switch w {
	case WorkBoth:
		return true
	case WorkMorning:
		return hour < 12
	case WorkAfternoon:
		return hour >= 12
	case WorkNone:
		return false
	}
	return false
}

// Slot chọn buổi hẹn; với "both" buổi được chọn theo giờ bắt đầu mong muốn.
func (w WorkTime) Slot(hour int) (TimeSlot, bool) {
	switch w {
	case WorkMorning:
		return SlotMorning, true
	case WorkAfternoon:
		return SlotAfternoon, true
	case WorkBoth:
		return SlotForHour(hour), true
	case WorkNone:
		return "", false
	}
	return "", false
}

// WorkSchedule là lịch làm việc theo ngày trong tuần.
type WorkSchedule struct {
	Monday    WorkTime `bson:"monday" json:"monday"`
	Tuesday   WorkTime `bson:"tuesday" json:"tuesday"`
	Wednesday WorkTime `bson:"wednesday" json:"wednesday"`
	Thursday  WorkTime `bson:"thursday" json:"thursday"`
	Friday    WorkTime `bson:"friday" json:"friday"`
	Saturday  WorkTime `bson:"saturday" json:"saturday"`
	Sunday    WorkTime `bson:"sunday" json:"sunday"`
}

func (s WorkSchedule) On(day time.Weekday) WorkTime {
	var w WorkTime
	switch day {
	case time.Monday:
		w = s.Monday
	case time.Tuesday:
		w = s.Tuesday
	case time.Wednesday:
		w = s.Wednesday
	case time.Thursday:
		w = s.Thursday
	case time.Friday:
		w = s.Friday
	case time.Saturday:
		w = s.Saturday
	case time.Sunday:
		w = s.Sunday
	}
	if w == "" {
		return WorkNone
	}
	return w
}

func (s WorkSchedule) AnyWorkTime() bool {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.On(d).Works() {
			return true
		}
	}
	return false
}

// Normalize điền "none" cho các ngày bỏ trống.
func (s WorkSchedule) Normalize() WorkSchedule {
	for _, w := range []*WorkTime{&s.Monday, &s.Tuesday, &s.Wednesday, &s.Thursday, &s.Friday, &s.Saturday, &s.Sunday} {
		if *w == "" {
			*w = WorkNone
		}
	}
	return s
}

func (s WorkSchedule) Validate() error {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if !s.On(d).Valid() {
			return apperror.Validation("invalid_work_schedule", "invalid work time for %s", d)
		}
	}
	return nil
}

type VetProfile struct {
	ID            string        `bson:"_id" json:"id"`
	UserID        string        `bson:"userID" json:"userID"`
	FirstName     string        `bson:"firstName" json:"firstName"`
	LastName      string        `bson:"lastName" json:"lastName"`
	IdentityCard  string        `bson:"identityCard" json:"identityCard"`
	LicenseNumber string        `bson:"licenseNumber" json:"licenseNumber"`
	WalletID      string        `bson:"walletID" json:"-"`
	Schedule      *WorkSchedule `bson:"schedule,omitempty" json:"schedule,omitempty"`
	CreatedAt     time.Time     `bson:"createdAt" json:"createdAt"`
}

func (v VetProfile) FullName() string {
	return v.FirstName + " " + v.LastName
}

// ServiceArea liên kết bác sĩ thú y với một địa phương; duy nhất theo cặp.
type ServiceArea struct {
	ID           string    `bson:"_id" json:"id"`
	VetProfileID string    `bson:"vetProfileID" json:"vetProfileID"`
	LocalityID   string    `bson:"localityID" json:"localityID"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}
