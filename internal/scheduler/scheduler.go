// Package scheduler tìm bác sĩ thú y còn trống lịch cho một certification request.
package scheduler

import (
	"context"
	"errors"
	"time"

	"cattle-certification-api-server/internal/apperror"
	"cattle-certification-api-server/internal/logger"
	"cattle-certification-api-server/internal/models"
	"cattle-certification-api-server/internal/store"
)

const defaultMaxAttempts = 3

// Match là một cặp (bác sĩ, ngày, buổi) thỏa mãn request.
type Match struct {
	VetProfileID string
	Date         time.Time
	Slot         models.TimeSlot
}

type Scheduler struct {
	vets        store.Vets
	requests    store.Requests
	loc         *time.Location
	now         func() time.Time
	log         logger.Logger
	maxAttempts int
}

// New tạo scheduler; ngày và giờ của khoảng thời gian mong muốn được tính theo múi giờ loc.
func New(vets store.Vets, requests store.Requests, loc *time.Location, log logger.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		vets:        vets,
		requests:    requests,
		loc:         loc,
		now:         time.Now,
		log:         log.With(map[string]any{"component": "scheduler"}),
		maxAttempts: defaultMaxAttempts,
	}
}

// Find duyệt các ứng viên theo thứ tự ổn định và trả về cặp đầu tiên phù hợp, nil nếu không có.
func (s *Scheduler) Find(ctx context.Context, req models.CertificationRequest) (*Match, error) {
	if !req.PreferredTimeRange.Valid() {
		return nil, nil
	}
	candidates, err := s.vets.ListByLocality(ctx, req.LocalityID)
	if err != nil {
		return nil, err
	}

	rng := req.PreferredTimeRange.In(s.loc)
	hour := rng.Start.Hour()
	dates := rng.Dates()

	for _, vet := range candidates {
		if vet.Schedule == nil {
			continue
		}
		for _, day := range dates {
			work := vet.Schedule.On(day.Weekday())
			if !work.Works() {
				continue
			}
			busy, err := s.requests.HasActiveOnDate(ctx, vet.ID, day)
			if err != nil {
				return nil, err
			}
			if busy {
				continue
			}
			if !work.Matches(hour) {
				continue
			}
			slot, _ := work.Slot(hour)
			return &Match{VetProfileID: vet.ID, Date: day, Slot: slot}, nil
		}
	}
	return nil, nil
}

// Assign gán bác sĩ cho request đang ở trạng thái created. Không tìm được lịch không phải là lỗi:
// request được trả về nguyên trạng. Với request đã được gán hoặc đã kết thúc, Assign không làm gì.
func (s *Scheduler) Assign(ctx context.Context, requestID string) (models.CertificationRequest, error) {
	for attempt := 1; ; attempt++ {
		req, err := s.requests.GetByID(ctx, requestID)
		if err != nil {
			return models.CertificationRequest{}, err
		}
		if req.Status != models.RequestCreated || req.Assigned() {
			return req, nil
		}

		match, err := s.Find(ctx, req)
		if err != nil {
			return req, err
		}
		if match == nil {
			s.log.Info("no veterinarian available", map[string]any{"requestId": req.ID, "localityId": req.LocalityID})
			return req, nil
		}

		err = s.requests.Assign(ctx, req.ID, match.VetProfileID, match.Date, match.Slot, s.now().UTC())
		switch {
		case err == nil:
			s.log.Info("request assigned", map[string]any{
				"requestId": req.ID,
				"vetId":     match.VetProfileID,
				"date":      match.Date.Format(time.DateOnly),
				"slot":      string(match.Slot),
			})
			return s.requests.GetByID(ctx, req.ID)
		case errors.Is(err, apperror.ErrStale):
			return s.requests.GetByID(ctx, req.ID)
		case errors.Is(err, apperror.ErrDuplicate):
			// Một lượt gán khác vừa chiếm lịch này; tìm lại.
			s.log.Warn("slot taken concurrently, searching again", map[string]any{
				"requestId": req.ID,
				"vetId":     match.VetProfileID,
				"attempt":   attempt,
			})
			if attempt >= s.maxAttempts {
				return req, nil
			}
		default:
			return req, err
		}
	}
}
