// internal/models/lot.go
package models

import (
	"strings"
	"time"

	"cattle-certification-api-server/internal/apperror"
)

// CertifiedLot gom các quan sát của một request đã được chứng nhận.
type CertifiedLot struct {
	ID        string    `bson:"_id" json:"id"`
	RequestID string    `bson:"requestID" json:"requestID"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type CattleCategory string

const (
	CategoryUnweanedCalf CattleCategory = "unweaned_calf"
	CategoryWeanedHeifer CattleCategory = "weaned_heifer"
	CategoryWeanedSteer  CattleCategory = "weaned_steer"
)

type DentalChronology string

var dentalChronologies = map[DentalChronology]bool{
	"milk_incisors_first_medians": true,
	"milk_second_medians":         true,
	"milk_corners":                true,
	"leveling_incisors":           true,
	"leveling_first_medians":      true,
	"leveling_second_medians":     true,
	"leveling_corners":            true,
	"permanent_incisors":          true,
	"permanent_first_medians":     true,
	"permanent_second_medians":    true,
	"permanent_corners":           true,
	"full_dentition":              true,
}

func (d DentalChronology) Valid() bool {
	return dentalChronologies[d]
}

type PregnancyMethod string

const (
	PregnancyPalpation  PregnancyMethod = "palpation"
	PregnancyUltrasound PregnancyMethod = "ultrasound"
	PregnancyBloodTest  PregnancyMethod = "blood_test"
)

// CattleCertification là quan sát của bác sĩ thú y cho một con bò trong lô.
type CattleCertification struct {
	ID                       string           `bson:"_id" json:"id"`
	LotID                    string           `bson:"lotID" json:"lotID"`
	CUIGCode                 string           `bson:"cuigCode,omitempty" json:"cuigCode,omitempty"`
	AlternativeCode          string           `bson:"alternativeCode,omitempty" json:"alternativeCode,omitempty"`
	Gender                   Gender           `bson:"gender" json:"gender"`
	Category                 CattleCategory   `bson:"category" json:"category"`
	DentalChronology         DentalChronology `bson:"dentalChronology,omitempty" json:"dentalChronology,omitempty"`
	EstimatedWeight          float64          `bson:"estimatedWeight,omitempty" json:"estimatedWeight,omitempty"`
	Pregnant                 *bool            `bson:"pregnant,omitempty" json:"pregnant,omitempty"`
	PregnancyDiagnosisMethod PregnancyMethod  `bson:"pregnancyDiagnosisMethod,omitempty" json:"pregnancyDiagnosisMethod,omitempty"`
	PregnancyServiceRange    *TimeRange       `bson:"pregnancyServiceRange,omitempty" json:"pregnancyServiceRange,omitempty"`
	CorporalCondition        string           `bson:"corporalCondition,omitempty" json:"corporalCondition,omitempty"`
	BrucellosisDiagnosis     string           `bson:"brucellosisDiagnosis,omitempty" json:"brucellosisDiagnosis,omitempty"`
	Comments                 string           `bson:"comments,omitempty" json:"comments,omitempty"`
	DataTakenAt              *time.Time       `bson:"dataTakenAt,omitempty" json:"dataTakenAt,omitempty"`
	Geolocation              []GeoPoint       `bson:"geolocation,omitempty" json:"geolocation,omitempty"`
	Photo                    *MediaPointer    `bson:"photo,omitempty" json:"photo,omitempty"`
	CreatedAt                time.Time        `bson:"createdAt" json:"createdAt"`
}

// AnimalID là định danh con vật gửi lên contract: ưu tiên CUIG, sau đó mã thay thế, cuối cùng là ID.
func (c CattleCertification) AnimalID() string {
	if code := strings.TrimSpace(c.CUIGCode); code != "" {
		return code
	}
	if code := strings.TrimSpace(c.AlternativeCode); code != "" {
		return code
	}
	return c.ID
}

// Validate kiểm tra các trường của quan sát; now dùng để chặn thời điểm trong tương lai.
func (c CattleCertification) Validate(now time.Time) error {
	switch c.Gender {
	case GenderMale, GenderFemale:
	default:
		return apperror.Validation("invalid_gender", "gender must be male or female")
	}
	switch c.Category {
	case CategoryUnweanedCalf, CategoryWeanedHeifer, CategoryWeanedSteer:
	default:
		return apperror.Validation("invalid_category", "unknown category %q", c.Category)
	}
	if c.DentalChronology != "" && !c.DentalChronology.Valid() {
		return apperror.Validation("invalid_dental_chronology", "unknown dental chronology %q", c.DentalChronology)
	}
	if c.EstimatedWeight < 0 {
		return apperror.Validation("invalid_weight", "estimated weight cannot be negative")
	}
	switch c.PregnancyDiagnosisMethod {
	case "", PregnancyPalpation, PregnancyUltrasound, PregnancyBloodTest:
	default:
		return apperror.Validation("invalid_pregnancy_method", "unknown pregnancy diagnosis method %q", c.PregnancyDiagnosisMethod)
	}
	if r := c.PregnancyServiceRange; r != nil {
		if !r.Valid() {
			return apperror.Validation("invalid_service_range", "pregnancy service range must have a start before its end")
		}
		if r.End.After(now) {
			return apperror.Validation("service_range_in_future", "pregnancy service range cannot end in the future")
		}
	}
	if c.DataTakenAt != nil && c.DataTakenAt.After(now) {
		return apperror.Validation("data_taken_in_future", "data taken at cannot be in the future")
	}
	for _, p := range c.Geolocation {
		if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
			return apperror.Validation("invalid_geolocation", "geolocation point out of range")
		}
	}
	return nil
}
