package accounts_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cattle-certification-api-server/internal/accounts"
	"cattle-certification-api-server/internal/apperror"
	"cattle-certification-api-server/internal/auth"
	"cattle-certification-api-server/internal/models"
	"cattle-certification-api-server/internal/testutil"
)

func newService(t *testing.T) (*accounts.Service, *testutil.Env, *auth.Manager) {
	env := testutil.NewEnv(t)
	env.Locality(t, "loc-1", "Tandil")
	tokens, err := auth.NewManager("test-secret", time.Hour)
	require.NoError(t, err)
	return accounts.NewService(env.Store, env.Keys, tokens, nil), env, tokens
}

func producerInput() accounts.ProducerInput {
	return accounts.ProducerInput{
		Email:        "Owner@Estancia.test ",
		Password:     "pampas-2024",
		Name:         "Estancia La Aurora",
		IdentityCard: "20123456",
		CUIGNumber:   "AB123",
		RenspaNumber: "01.001.0.00001/00",
	}
}

func TestRegisterProducerProvisionsWallet(t *testing.T) {
	svc, env, tokens := newService(t)
	ctx := context.Background()

	acc, err := svc.RegisterProducer(ctx, producerInput())
	require.NoError(t, err)
	require.NotNil(t, acc.Producer)
	assert.Equal(t, "owner@estancia.test", acc.User.Email)
	assert.Equal(t, models.RoleProducer, acc.User.Role)
	assert.Equal(t, acc.Producer.ID, acc.User.ProfileID)
	assert.NotEqual(t, "pampas-2024", acc.User.Password)

	w, err := env.Store.Wallets.GetByID(ctx, acc.Producer.WalletID)
	require.NoError(t, err)
	assert.Equal(t, w.Address, acc.WalletAddress)
	key, err := env.Keys.Unlock(w)
	require.NoError(t, err)
	assert.Equal(t, w.Address, key.Address)

	token, viewer, err := svc.Authenticate(ctx, "owner@estancia.test", "pampas-2024")
	require.NoError(t, err)
	assert.Equal(t, acc.WalletAddress, viewer.WalletAddress)
	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, acc.Producer.ID, claims.ProfileID)

	_, _, err = svc.Authenticate(ctx, "owner@estancia.test", "wrong-password")
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
	_, _, err = svc.Authenticate(ctx, "nobody@estancia.test", "pampas-2024")
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestRegisterProducerDuplicateRollsBack(t *testing.T) {
	svc, env, _ := newService(t)
	ctx := context.Background()
	_, err := svc.RegisterProducer(ctx, producerInput())
	require.NoError(t, err)

	in := producerInput()
	in.Email = "second@estancia.test"
	_, err = svc.RegisterProducer(ctx, in)
	assert.ErrorIs(t, err, apperror.ErrDuplicate)

	_, err = env.Store.Users.GetByEmail(ctx, "second@estancia.test")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRegisterVet(t *testing.T) {
	svc, env, _ := newService(t)
	ctx := context.Background()

	acc, err := svc.RegisterVet(ctx, accounts.VetInput{
		Email:         "vet@campo.test",
		Password:      "rumiantes1",
		FirstName:     "Lucía",
		LastName:      "Pereyra",
		IdentityCard:  "27999888",
		LicenseNumber: "MP-4412",
		Schedule:      &models.WorkSchedule{Monday: models.WorkBoth, Thursday: models.WorkAfternoon},
		LocalityIDs:   []string{"loc-1"},
	})
	require.NoError(t, err)
	require.NotNil(t, acc.Vet)
	require.NotNil(t, acc.Vet.Schedule)
	assert.Equal(t, models.WorkNone, acc.Vet.Schedule.Tuesday)
	require.Len(t, acc.ServiceAreas, 1)

	vets, err := env.Store.Vets.ListByLocality(ctx, "loc-1")
	require.NoError(t, err)
	require.Len(t, vets, 1)
	assert.Equal(t, acc.Vet.ID, vets[0].ID)

	viewer, err := svc.Viewer(ctx, acc.User.ID)
	require.NoError(t, err)
	assert.Equal(t, acc.WalletAddress, viewer.WalletAddress)
	assert.Len(t, viewer.ServiceAreas, 1)
}

func TestRegisterVetValidation(t *testing.T) {
	base := accounts.VetInput{
		Email: "vet@campo.test", Password: "rumiantes1", FirstName: "Lucía", LastName: "Pereyra",
		IdentityCard: "27999888", LicenseNumber: "MP-4412", LocalityIDs: []string{"loc-1"},
	}
	cases := map[string]func(*accounts.VetInput){
		"short password":    func(in *accounts.VetInput) { in.Password = "short" },
		"missing license":   func(in *accounts.VetInput) { in.LicenseNumber = " " },
		"unknown locality":  func(in *accounts.VetInput) { in.LocalityIDs = []string{"loc-404"} },
		"repeated locality": func(in *accounts.VetInput) { in.LocalityIDs = []string{"loc-1", "loc-1"} },
		"bad schedule": func(in *accounts.VetInput) {
			in.Schedule = &models.WorkSchedule{Monday: models.WorkTime("evening")}
		},
		"schedule without working shifts": func(in *accounts.VetInput) {
			in.Schedule = &models.WorkSchedule{Monday: models.WorkNone, Friday: models.WorkNone}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			svc, env, _ := newService(t)
			in := base
			mutate(&in)
			_, err := svc.RegisterVet(context.Background(), in)
			require.Error(t, err)
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

			_, err = env.Store.Users.GetByEmail(context.Background(), "vet@campo.test")
			assert.ErrorIs(t, err, apperror.ErrNotFound)
		})
	}
}
