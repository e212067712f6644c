// Package accounts đăng ký producer và bác sĩ thú y, cấp ví blockchain và phát hành JWT.
package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"cattle-certification-api-server/internal/apperror"
	"cattle-certification-api-server/internal/auth"
	"cattle-certification-api-server/internal/logger"
	"cattle-certification-api-server/internal/models"
	"cattle-certification-api-server/internal/store"
)

const minPasswordLength = 8

// WalletProvisioner cấp ví mới cho một hồ sơ.
type WalletProvisioner interface {
	Provision(ctx context.Context) (models.BlockchainWallet, error)
}

type ProducerInput struct {
	Email        string
	Password     string
	Name         string
	IdentityCard string
	CUIGNumber   string
	RenspaNumber string
}

type VetInput struct {
	Email         string
	Password      string
	FirstName     string
	LastName      string
	IdentityCard  string
	LicenseNumber string
	Schedule      *models.WorkSchedule
	LocalityIDs   []string
}

// Account là user cùng hồ sơ và địa chỉ ví, không chứa khóa bí mật.
type Account struct {
	User          models.User             `json:"user"`
	Producer      *models.ProducerProfile `json:"producer,omitempty"`
	Vet           *models.VetProfile      `json:"veterinarian,omitempty"`
	ServiceAreas  []models.ServiceArea    `json:"serviceAreas,omitempty"`
	WalletAddress string                  `json:"walletAddress,omitempty"`
}

type Service struct {
	store   store.Store
	wallets WalletProvisioner
	tokens  *auth.Manager
	log     logger.Logger
	now     func() time.Time
}

func NewService(st store.Store, wallets WalletProvisioner, tokens *auth.Manager, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:   st,
		wallets: wallets,
		tokens:  tokens,
		log:     log.With(map[string]any{"component": "accounts"}),
		now:     time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkCredentials(email, password string) error {
	if email == "" || !strings.Contains(email, "@") {
		return apperror.Validation("invalid_email", "a valid email is required")
	}
	if len(password) < minPasswordLength {
		return apperror.Validation("weak_password", "password must have at least %d characters", minPasswordLength)
	}
	return nil
}

func required(fields map[string]string) error {
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			return apperror.Validation("field_required", "%s is required", name)
		}
	}
	return nil
}

// newUser tạo ví và user cho hồ sơ sắp tạo; phải được gọi trong unit of work.
func (s *Service) newUser(ctx context.Context, email, password string, role models.Role, profileID string) (models.User, models.BlockchainWallet, error) {
	w, err := s.wallets.Provision(ctx)
	if err != nil {
		return models.User{}, models.BlockchainWallet{}, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, models.BlockchainWallet{}, err
	}
	u := models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Password:  hash,
		Role:      role,
		ProfileID: profileID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Users.Create(ctx, u); err != nil {
		if errors.Is(err, apperror.ErrDuplicate) {
			return models.User{}, models.BlockchainWallet{}, apperror.ErrDuplicate.Withf("email %s is already registered", email)
		}
		return models.User{}, models.BlockchainWallet{}, err
	}
	return u, w, nil
}

// RegisterProducer tạo ví, user và hồ sơ producer trong cùng một unit of work.
func (s *Service) RegisterProducer(ctx context.Context, in ProducerInput) (Account, error) {
	email := normalizeEmail(in.Email)
	if err := checkCredentials(email, in.Password); err != nil {
		return Account{}, err
	}
	if err := required(map[string]string{
		"name": in.Name, "identity card": in.IdentityCard, "CUIG number": in.CUIGNumber, "RENSPA number": in.RenspaNumber,
	}); err != nil {
		return Account{}, err
	}

	var acc Account
	err := s.store.UoW.Do(ctx, func(ctx context.Context) error {
		profileID := uuid.NewString()
		u, w, err := s.newUser(ctx, email, in.Password, models.RoleProducer, profileID)
		if err != nil {
			return err
		}
		p := models.ProducerProfile{
			ID:           profileID,
			UserID:       u.ID,
			Name:         strings.TrimSpace(in.Name),
			IdentityCard: strings.TrimSpace(in.IdentityCard),
			CUIGNumber:   strings.TrimSpace(in.CUIGNumber),
			RenspaNumber: strings.TrimSpace(in.RenspaNumber),
			WalletID:     w.ID,
			CreatedAt:    u.CreatedAt,
		}
		if err := s.store.Producers.Create(ctx, p); err != nil {
			return err
		}
		acc = Account{User: u, Producer: &p, WalletAddress: w.Address}
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	s.log.Info("producer registered", map[string]any{"userId": acc.User.ID, "wallet": acc.WalletAddress})
	return acc, nil
}

// RegisterVet tạo ví, user, hồ sơ bác sĩ và các khu vực phục vụ trong cùng một unit of work.
func (s *Service) RegisterVet(ctx context.Context, in VetInput) (Account, error) {
	email := normalizeEmail(in.Email)
	if err := checkCredentials(email, in.Password); err != nil {
		return Account{}, err
	}
	if err := required(map[string]string{
		"first name": in.FirstName, "last name": in.LastName, "identity card": in.IdentityCard, "license number": in.LicenseNumber,
	}); err != nil {
		return Account{}, err
	}
	var schedule *models.WorkSchedule
	if in.Schedule != nil {
		normalized := in.Schedule.Normalize()
		if err := normalized.Validate(); err != nil {
			return Account{}, err
		}
		if !normalized.AnyWorkTime() {
			return Account{}, apperror.Validation("empty_schedule", "work schedule must include at least one working shift")
		}
		schedule = &normalized
	}

	var acc Account
	err := s.store.UoW.Do(ctx, func(ctx context.Context) error {
		profileID := uuid.NewString()
		u, w, err := s.newUser(ctx, email, in.Password, models.RoleVeterinarian, profileID)
		if err != nil {
			return err
		}
		v := models.VetProfile{
			ID:            profileID,
			UserID:        u.ID,
			FirstName:     strings.TrimSpace(in.FirstName),
			LastName:      strings.TrimSpace(in.LastName),
			IdentityCard:  strings.TrimSpace(in.IdentityCard),
			LicenseNumber: strings.TrimSpace(in.LicenseNumber),
			WalletID:      w.ID,
			Schedule:      schedule,
			CreatedAt:     u.CreatedAt,
		}
		if err := s.store.Vets.Create(ctx, v); err != nil {
			return err
		}

		areas := make([]models.ServiceArea, 0, len(in.LocalityIDs))
		for _, localityID := range in.LocalityIDs {
			if _, err := s.store.Localities.GetByID(ctx, localityID); err != nil {
				if errors.Is(err, apperror.ErrNotFound) {
					return apperror.Validation("unknown_locality", "locality %s does not exist", localityID)
				}
				return err
			}
			a := models.ServiceArea{ID: uuid.NewString(), VetProfileID: v.ID, LocalityID: localityID, CreatedAt: u.CreatedAt}
			if err := s.store.ServiceAreas.Create(ctx, a); err != nil {
				if errors.Is(err, apperror.ErrDuplicate) {
					return apperror.Validation("duplicate_service_area", "locality %s is listed more than once", localityID)
				}
				return err
			}
			areas = append(areas, a)
		}
		acc = Account{User: u, Vet: &v, ServiceAreas: areas, WalletAddress: w.Address}
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	s.log.Info("veterinarian registered", map[string]any{"userId": acc.User.ID, "wallet": acc.WalletAddress})
	return acc, nil
}

// Authenticate kiểm tra mật khẩu và trả về JWT cùng tài khoản.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, Account, error) {
	u, err := s.store.Users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", Account{}, apperror.ErrInvalidCredentials
		}
		return "", Account{}, err
	}
	if !auth.CheckPasswordHash(password, u.Password) {
		return "", Account{}, apperror.ErrInvalidCredentials
	}
	token, err := s.tokens.GenerateJWT(u)
	if err != nil {
		return "", Account{}, err
	}
	acc, err := s.account(ctx, u)
	if err != nil {
		return "", Account{}, err
	}
	return token, acc, nil
}

// Viewer trả về tài khoản của user đang đăng nhập.
func (s *Service) Viewer(ctx context.Context, userID string) (Account, error) {
	u, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return Account{}, err
	}
	return s.account(ctx, u)
}

func (s *Service) account(ctx context.Context, u models.User) (Account, error) {
	acc := Account{User: u}
	var walletID string
	switch u.Role {
	case models.RoleProducer:
		p, err := s.store.Producers.GetByID(ctx, u.ProfileID)
		if err != nil {
			return Account{}, err
		}
		acc.Producer, walletID = &p, p.WalletID
	case models.RoleVeterinarian:
		v, err := s.store.Vets.GetByID(ctx, u.ProfileID)
		if err != nil {
			return Account{}, err
		}
		areas, err := s.store.ServiceAreas.ListByVet(ctx, v.ID)
		if err != nil {
			return Account{}, err
		}
		acc.Vet, acc.ServiceAreas, walletID = &v, areas, v.WalletID
	}
	if walletID != "" {
		w, err := s.store.Wallets.GetByID(ctx, walletID)
		if err != nil {
			return Account{}, err
		}
		acc.WalletAddress = w.Address
	}
	return acc, nil
}
