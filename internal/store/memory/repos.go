// internal/store/memory/repos.go
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"cattle-certification-api-server/internal/apperror"
	"cattle-certification-api-server/internal/models"
	"cattle-certification-api-server/internal/store"
)

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apperror.Validation("id_required", "id is required")
	}
	return nil
}

// insert thêm v vào m; clash trả về true khi v vi phạm ràng buộc duy nhất với bản ghi có sẵn.
func insert[T any](m map[string]T, id string, v T, clash func(existing T) bool) error {
	if err := requireID(id); err != nil {
		return err
	}
	if _, ok := m[id]; ok {
		return apperror.ErrDuplicate
	}
	if clash != nil {
		for _, existing := range m {
			if clash(existing) {
				return apperror.ErrDuplicate
			}
		}
	}
	m[id] = v
	return nil
}

func replace[T any](m map[string]T, id string, v T) error {
	if _, ok := m[id]; !ok {
		return apperror.ErrNotFound
	}
	m[id] = v
	return nil
}

func get[T any](m map[string]T, id string) (T, error) {
	v, ok := m[id]
	if !ok {
		var zero T
		return zero, apperror.ErrNotFound
	}
	return v, nil
}

// --- users ---

type userRepo struct{ db *DB }

func (r userRepo) Create(_ context.Context, u models.User) error {
	return r.db.write(func(s *state) error {
		email := strings.ToLower(u.Email)
		return insert(s.users, u.ID, u, func(e models.User) bool {
			return strings.ToLower(e.Email) == email
		})
	})
}

func (r userRepo) GetByID(_ context.Context, id string) (u models.User, err error) {
	r.db.read(func(s *state) { u, err = get(s.users, id) })
	return
}

func (r userRepo) GetByEmail(_ context.Context, email string) (models.User, error) {
	var (
		out   models.User
		found bool
	)
	r.db.read(func(s *state) {
		for _, u := range s.users {
			if strings.EqualFold(u.Email, email) {
				out, found = u, true
				return
			}
		}
	})
	if !found {
		return models.User{}, apperror.ErrNotFound
	}
	return out, nil
}

// --- profiles ---

type producerRepo struct{ db *DB }

func (r producerRepo) Create(_ context.Context, p models.ProducerProfile) error {
	return r.db.write(func(s *state) error {
		if walletTaken(s, p.WalletID) {
			return apperror.ErrDuplicate
		}
		return insert(s.producers, p.ID, p, func(e models.ProducerProfile) bool {
			return e.UserID == p.UserID || e.IdentityCard == p.IdentityCard ||
				e.CUIGNumber == p.CUIGNumber || e.RenspaNumber == p.RenspaNumber
		})
	})
}

func (r producerRepo) GetByID(_ context.Context, id string) (p models.ProducerProfile, err error) {
	r.db.read(func(s *state) { p, err = get(s.producers, id) })
	return
}

// walletTaken kiểm tra ví đã thuộc về một hồ sơ khác chưa.
func walletTaken(s *state, walletID string) bool {
	for _, p := range s.producers {
		if p.WalletID == walletID {
			return true
		}
	}
	for _, v := range s.vets {
		if v.WalletID == walletID {
			return true
		}
	}
	return false
}

type vetRepo struct{ db *DB }

func (r vetRepo) Create(_ context.Context, v models.VetProfile) error {
	return r.db.write(func(s *state) error {
		if walletTaken(s, v.WalletID) {
			return apperror.ErrDuplicate
		}
		return insert(s.vets, v.ID, v, func(e models.VetProfile) bool {
			return e.UserID == v.UserID || e.IdentityCard == v.IdentityCard || e.LicenseNumber == v.LicenseNumber
		})
	})
}

func (r vetRepo) GetByID(_ context.Context, id string) (v models.VetProfile, err error) {
	r.db.read(func(s *state) { v, err = get(s.vets, id) })
	return
}

func (r vetRepo) ListByLocality(_ context.Context, localityID string) ([]models.VetProfile, error) {
	out := make([]models.VetProfile, 0)
	r.db.read(func(s *state) {
		for _, a := range s.areas {
			if a.LocalityID != localityID {
				continue
			}
			if v, ok := s.vets[a.VetProfileID]; ok && v.Schedule != nil {
				out = append(out, v)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type serviceAreaRepo struct{ db *DB }

func (r serviceAreaRepo) Create(_ context.Context, a models.ServiceArea) error {
	return r.db.write(func(s *state) error {
		return insert(s.areas, a.ID, a, func(e models.ServiceArea) bool {
			return e.VetProfileID == a.VetProfileID && e.LocalityID == a.LocalityID
		})
	})
}

func (r serviceAreaRepo) ListByVet(_ context.Context, vetProfileID string) ([]models.ServiceArea, error) {
	out := make([]models.ServiceArea, 0)
	r.db.read(func(s *state) {
		for _, a := range s.areas {
			if a.VetProfileID == vetProfileID {
				out = append(out, a)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].LocalityID < out[j].LocalityID })
	return out, nil
}

type walletRepo struct{ db *DB }

func (r walletRepo) Create(_ context.Context, w models.BlockchainWallet) error {
	return r.db.write(func(s *state) error {
		addr := strings.ToLower(w.Address)
		return insert(s.wallets, w.ID, w, func(e models.BlockchainWallet) bool {
			return strings.ToLower(e.Address) == addr
		})
	})
}

func (r walletRepo) GetByID(_ context.Context, id string) (w models.BlockchainWallet, err error) {
	r.db.read(func(s *state) { w, err = get(s.wallets, id) })
	return
}

// --- localities ---

type localityRepo struct{ db *DB }

func (r localityRepo) UpsertProvince(_ context.Context, p models.Province) error {
	return r.db.write(func(s *state) error {
		if err := requireID(p.ID); err != nil {
			return err
		}
		s.provinces[p.ID] = p
		return nil
	})
}

func (r localityRepo) Upsert(_ context.Context, l models.Locality) error {
	return r.db.write(func(s *state) error {
		if err := requireID(l.ID); err != nil {
			return err
		}
		s.localities[l.ID] = l
		return nil
	})
}

func (r localityRepo) GetByID(_ context.Context, id string) (l models.Locality, err error) {
	r.db.read(func(s *state) { l, err = get(s.localities, id) })
	return
}

func (r localityRepo) List(_ context.Context) ([]models.Locality, error) {
	out := make([]models.Locality, 0)
	r.db.read(func(s *state) {
		for _, l := range s.localities {
			out = append(out, l)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// --- requests ---

type requestRepo struct{ db *DB }

// slotClash báo r chiếm cùng (bác sĩ, ngày) với một request đang giữ lịch khác.
func slotClash(s *state, r models.CertificationRequest) bool {
	if !r.HoldsSlot() {
		return false
	}
	for _, e := range s.requests {
		if e.ID != r.ID && e.HoldsSlot() && e.VetProfileID == r.VetProfileID && e.ScheduledDate.Equal(*r.ScheduledDate) {
			return true
		}
	}
	return false
}

func (r requestRepo) Create(_ context.Context, req models.CertificationRequest) error {
	return r.db.write(func(s *state) error {
		if slotClash(s, req) {
			return apperror.ErrDuplicate
		}
		return insert(s.requests, req.ID, req, nil)
	})
}

func (r requestRepo) GetByID(_ context.Context, id string) (req models.CertificationRequest, err error) {
	r.db.read(func(s *state) { req, err = get(s.requests, id) })
	return
}

func (r requestRepo) Assign(_ context.Context, id, vetProfileID string, date time.Time, slot models.TimeSlot, at time.Time) error {
	return r.db.write(func(s *state) error {
		req, err := get(s.requests, id)
		if err != nil {
			return err
		}
		if req.Status != models.RequestCreated || req.VetProfileID != "" {
			return apperror.ErrStale
		}
		day := models.DateOf(date)
		req.VetProfileID = vetProfileID
		req.ScheduledDate = &day
		req.ScheduledTime = slot
		req.Status = models.RequestAssigned
		req.UpdatedAt = at
		if slotClash(s, req) {
			return apperror.ErrDuplicate
		}
		s.requests[id] = req
		return nil
	})
}

func (r requestRepo) Transition(_ context.Context, id string, from, to models.RequestStatus, at time.Time) error {
	return r.db.write(func(s *state) error {
		req, err := get(s.requests, id)
		if err != nil {
			return err
		}
		if req.Status != from {
			return apperror.ErrStale
		}
		req.Status = to
		req.UpdatedAt = at
		s.requests[id] = req
		return nil
	})
}

func (r requestRepo) HasActiveOnDate(_ context.Context, vetProfileID string, date time.Time) (bool, error) {
	day := models.DateOf(date)
	var busy bool
	r.db.read(func(s *state) {
		for _, e := range s.requests {
			if e.HoldsSlot() && e.VetProfileID == vetProfileID && e.ScheduledDate.Equal(day) {
				busy = true
				return
			}
		}
	})
	return busy, nil
}

func (r requestRepo) List(_ context.Context, f store.RequestFilter) ([]models.CertificationRequest, error) {
	out := make([]models.CertificationRequest, 0)
	r.db.read(func(s *state) {
		for _, e := range s.requests {
			if f.ProducerProfileID != "" && e.ProducerProfileID != f.ProducerProfileID {
				continue
			}
			if f.VetProfileID != "" && e.VetProfileID != f.VetProfileID {
				continue
			}
			if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, e.Status) {
				continue
			}
			if f.NotBefore != nil && e.ScheduledDate != nil && e.ScheduledDate.Before(models.DateOf(*f.NotBefore)) {
				continue
			}
			out = append(out, e)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// --- uploads ---

type fileUploadRepo struct{ db *DB }

func (r fileUploadRepo) Create(_ context.Context, f models.FileUpload) error {
	return r.db.write(func(s *state) error { return insert(s.uploads, f.ID, f, nil) })
}

func (r fileUploadRepo) Update(_ context.Context, f models.FileUpload) error {
	return r.db.write(func(s *state) error { return replace(s.uploads, f.ID, f) })
}

func (r fileUploadRepo) ListByRequest(_ context.Context, requestID string) ([]models.FileUpload, error) {
	out := make([]models.FileUpload, 0)
	r.db.read(func(s *state) {
		for _, f := range s.uploads {
			if f.RequestID == requestID {
				out = append(out, f)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// --- lots ---

type lotRepo struct{ db *DB }

func (r lotRepo) Create(_ context.Context, l models.CertifiedLot) error {
	return r.db.write(func(s *state) error {
		return insert(s.lots, l.ID, l, func(e models.CertifiedLot) bool { return e.RequestID == l.RequestID })
	})
}

func (r lotRepo) GetByRequest(_ context.Context, requestID string) (models.CertifiedLot, error) {
	var (
		out   models.CertifiedLot
		found bool
	)
	r.db.read(func(s *state) {
		for _, l := range s.lots {
			if l.RequestID == requestID {
				out, found = l, true
				return
			}
		}
	})
	if !found {
		return models.CertifiedLot{}, apperror.ErrNotFound
	}
	return out, nil
}

func (r lotRepo) ListByRequests(_ context.Context, requestIDs []string) ([]models.CertifiedLot, error) {
	out := make([]models.CertifiedLot, 0)
	r.db.read(func(s *state) {
		for _, l := range s.lots {
			if slices.Contains(requestIDs, l.RequestID) {
				out = append(out, l)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type certificationRepo struct{ db *DB }

func (r certificationRepo) Create(_ context.Context, c models.CattleCertification) error {
	return r.db.write(func(s *state) error { return insert(s.certs, c.ID, c, nil) })
}

func (r certificationRepo) Update(_ context.Context, c models.CattleCertification) error {
	return r.db.write(func(s *state) error { return replace(s.certs, c.ID, c) })
}

func (r certificationRepo) CountByLot(_ context.Context, lotID string) (int, error) {
	var n int
	r.db.read(func(s *state) {
		for _, c := range s.certs {
			if c.LotID == lotID {
				n++
			}
		}
	})
	return n, nil
}

func (r certificationRepo) ListByLot(_ context.Context, lotID string) ([]models.CattleCertification, error) {
	out := make([]models.CattleCertification, 0)
	r.db.read(func(s *state) {
		for _, c := range s.certs {
			if c.LotID == lotID {
				out = append(out, c)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// --- documents ---

type documentRepo struct{ db *DB }

func (r documentRepo) Create(_ context.Context, d models.CertificationDocument) error {
	return r.db.write(func(s *state) error {
		return insert(s.docs, d.ID, d, func(e models.CertificationDocument) bool {
			return e.Hash == d.Hash || e.CattleCertificationID == d.CattleCertificationID
		})
	})
}

func (r documentRepo) Update(_ context.Context, d models.CertificationDocument) error {
	return r.db.write(func(s *state) error { return replace(s.docs, d.ID, d) })
}

func (r documentRepo) find(match func(models.CertificationDocument) bool) (models.CertificationDocument, error) {
	var (
		out   models.CertificationDocument
		found bool
	)
	r.db.read(func(s *state) {
		for _, d := range s.docs {
			if match(d) {
				out, found = d, true
				return
			}
		}
	})
	if !found {
		return models.CertificationDocument{}, apperror.ErrNotFound
	}
	return out, nil
}

func (r documentRepo) GetByCertification(_ context.Context, certificationID string) (models.CertificationDocument, error) {
	return r.find(func(d models.CertificationDocument) bool { return d.CattleCertificationID == certificationID })
}

func (r documentRepo) GetByHash(_ context.Context, hash string) (models.CertificationDocument, error) {
	return r.find(func(d models.CertificationDocument) bool { return d.Hash == hash })
}

type transactionRepo struct{ db *DB }

func (r transactionRepo) Create(_ context.Context, t models.BlockchainTransaction) error {
	return r.db.write(func(s *state) error {
		return insert(s.txs, t.ID, t, func(e models.BlockchainTransaction) bool { return e.TxHash == t.TxHash })
	})
}

func (r transactionRepo) Update(_ context.Context, t models.BlockchainTransaction) error {
	return r.db.write(func(s *state) error { return replace(s.txs, t.ID, t) })
}

func (r transactionRepo) GetByID(_ context.Context, id string) (t models.BlockchainTransaction, err error) {
	r.db.read(func(s *state) { t, err = get(s.txs, id) })
	return
}
