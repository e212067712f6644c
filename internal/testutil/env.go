// Package testutil dựng môi trường in-memory đầy đủ (store, ví, contract giả) cho test.
package testutil

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"cattle-certification-api-server/config"
	"cattle-certification-api-server/internal/blockchain"
	"cattle-certification-api-server/internal/blockchain/blockchaintest"
	"cattle-certification-api-server/internal/logger"
	"cattle-certification-api-server/internal/models"
	"cattle-certification-api-server/internal/store"
	"cattle-certification-api-server/internal/store/memory"
	"cattle-certification-api-server/internal/wallet"
)

const EncryptionKey = "8f1c2d3e4a5b6c7d8e9fa0b1c2d3e4f5061728394a5b6c7d8e9f0a1b2c3d4e5f"

const ContractAddress = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

// Monday là 2024-12-02, một ngày thứ Hai.
var Monday = time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC)

type Env struct {
	DB     *memory.DB
	Store  store.Store
	Files  *memory.FileStore
	Keys   *wallet.Provisioner
	RPC    *blockchaintest.RPC
	Ledger *blockchain.CertificationService
}

func NewEnv(t *testing.T) *Env {
	t.Helper()
	db := memory.NewDB()
	st := db.Store()

	vault, err := wallet.NewVault(EncryptionKey)
	require.NoError(t, err)

	companyKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	rpc := blockchaintest.New()
	ledger, err := blockchain.NewCertificationService(rpc, config.BlockchainConfig{
		Network:           "amoy",
		ContractAddress:   ContractAddress,
		CompanyPrivateKey: common.Bytes2Hex(crypto.FromECDSA(companyKey)),
	}, logger.Nop())
	require.NoError(t, err)

	return &Env{
		DB:     db,
		Store:  st,
		Files:  memory.NewFileStore(),
		Keys:   wallet.NewProvisioner(vault, st.Wallets),
		RPC:    rpc,
		Ledger: ledger,
	}
}

func (e *Env) Producer(t *testing.T, cuig string) models.ProducerProfile {
	t.Helper()
	ctx := context.Background()
	w, err := e.Keys.Provision(ctx)
	require.NoError(t, err)

	userID := uuid.NewString()
	p := models.ProducerProfile{
		ID:           uuid.NewString(),
		UserID:       userID,
		Name:         "Estancia " + cuig,
		IdentityCard: "dni-" + cuig,
		CUIGNumber:   cuig,
		RenspaNumber: "renspa-" + cuig,
		WalletID:     w.ID,
		CreatedAt:    Monday.AddDate(0, -1, 0),
	}
	require.NoError(t, e.Store.Users.Create(ctx, models.User{
		ID: userID, Email: cuig + "@producer.test", Role: models.RoleProducer, ProfileID: p.ID,
	}))
	require.NoError(t, e.Store.Producers.Create(ctx, p))
	return p
}

func (e *Env) Vet(t *testing.T, license string, schedule *models.WorkSchedule, localities ...string) models.VetProfile {
	t.Helper()
	ctx := context.Background()
	w, err := e.Keys.Provision(ctx)
	require.NoError(t, err)

	userID := uuid.NewString()
	v := models.VetProfile{
		ID:            uuid.NewString(),
		UserID:        userID,
		FirstName:     "Vet",
		LastName:      license,
		IdentityCard:  "dni-" + license,
		LicenseNumber: license,
		WalletID:      w.ID,
		Schedule:      schedule,
		CreatedAt:     Monday.AddDate(0, -1, 0),
	}
	require.NoError(t, e.Store.Users.Create(ctx, models.User{
		ID: userID, Email: license + "@vet.test", Role: models.RoleVeterinarian, ProfileID: v.ID,
	}))
	require.NoError(t, e.Store.Vets.Create(ctx, v))
	for _, loc := range localities {
		require.NoError(t, e.Store.ServiceAreas.Create(ctx, models.ServiceArea{
			ID: uuid.NewString(), VetProfileID: v.ID, LocalityID: loc,
		}))
	}
	return v
}

func (e *Env) Locality(t *testing.T, id, name string) models.Locality {
	t.Helper()
	l := models.Locality{ID: id, Name: name, ProvinceID: "prov-1"}
	require.NoError(t, e.Store.Localities.Upsert(context.Background(), l))
	return l
}

// AssignedRequest tạo request đã được gán cho vet vào sáng thứ Hai.
func (e *Env) AssignedRequest(t *testing.T, producer models.ProducerProfile, vet models.VetProfile, headcount int) models.CertificationRequest {
	t.Helper()
	day := Monday
	req := models.CertificationRequest{
		ID:                  uuid.NewString(),
		ProducerProfileID:   producer.ID,
		LocalityID:          "loc-1",
		VetProfileID:        vet.ID,
		Address:             "Ruta 3 km 120",
		IntendedAnimalGroup: headcount,
		DeclaredLotWeight:   450,
		DeclaredLotAge:      20,
		CattleBreed:         models.BreedHereford,
		PreferredTimeRange:  models.TimeRange{Start: Monday.Add(9 * time.Hour), End: Monday.Add(11 * time.Hour)},
		ScheduledDate:       &day,
		ScheduledTime:       models.SlotMorning,
		Status:              models.RequestAssigned,
		CreatedAt:           Monday.AddDate(0, 0, -7),
		UpdatedAt:           Monday.AddDate(0, 0, -7),
	}
	require.NoError(t, req.Validate())
	require.NoError(t, e.Store.Requests.Create(context.Background(), req))
	return req
}

// Photo trả về một ảnh PNG nhỏ hợp lệ.
func Photo(t *testing.T) models.Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 120, G: 80, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return models.Upload{FileName: "cow.png", ContentType: "image/png", Data: buf.Bytes()}
}
