// internal/blockchain/certification.go
package blockchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"cattle-certification-api-server/config"
	"cattle-certification-api-server/internal/apperror"
	"cattle-certification-api-server/internal/logger"
	"cattle-certification-api-server/internal/models"
)

// SubmitOptions mô tả khóa ký và phí gas của một giao dịch ghi.
type SubmitOptions struct {
	Key      *ecdsa.PrivateKey
	GasLimit uint64
	GasPrice *big.Int
}

// Receipt là kết quả gửi giao dịch. Status nil nghĩa là adapter chỉ trả về hash.
type Receipt struct {
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
	Status      *uint64
	Raw         map[string]any
}

// RPC là client gọi contract: Call để đọc, Submit để ghi (chặn tới khi có receipt).
type RPC interface {
	Call(ctx context.Context, method string, args ...any) ([]any, error)
	Submit(ctx context.Context, method string, opts SubmitOptions, args ...any) (Receipt, error)
}

// CertifyInput là tham số của certifyDocument. Chữ ký là 130 ký tự hex, không có 0x.
type CertifyInput struct {
	ContentHash    string
	AnimalID       string
	OwnerAddress   string
	VetAddress     string
	OwnerSignature string
	VetSignature   string
}

type Result struct {
	TxHash          string
	BlockNumber     uint64
	GasUsed         uint64
	Status          models.TxStatus
	Network         string
	ContractAddress string
	Raw             map[string]any
}

// Verification là bản ghi chứng nhận on-chain của một content hash.
type Verification struct {
	Owner        string    `json:"owner"`
	Veterinarian string    `json:"veterinarian"`
	Registrar    string    `json:"registrar"`
	Timestamp    uint64    `json:"timestamp"`
	CertifiedAt  time.Time `json:"certifiedAt"`
}

type HistoryEntry struct {
	DocumentHash string    `json:"documentHash"`
	CertifiedAt  time.Time `json:"certifiedAt"`
}

// CertificationService đóng gói các lời gọi tới contract CertificationRegistry.
type CertificationService struct {
	rpc      RPC
	network  Network
	contract common.Address
	company  *ecdsa.PrivateKey
	gasLimit uint64
	gasPrice *big.Int
	log      logger.Logger
}

func NewCertificationService(rpc RPC, cfg config.BlockchainConfig, log logger.Logger) (*CertificationService, error) {
	network, err := ResolveNetwork(cfg.Network)
	if err != nil {
		return nil, err
	}
	contract, err := ParseAddress(cfg.ContractAddress)
	if err != nil {
		return nil, fmt.Errorf("contract address: %w", err)
	}
	company, err := NormalizePrivateKey(cfg.CompanyPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("company key: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}

	gasPrice := cfg.GasPrice
	if gasPrice <= 0 {
		gasPrice = 30_000_000_000
	}
	gasLimit := cfg.GasLimit
	if gasLimit == 0 {
		gasLimit = 300_000
	}

	return &CertificationService{
		rpc:      rpc,
		network:  network,
		contract: contract,
		company:  company,
		gasLimit: gasLimit,
		gasPrice: big.NewInt(gasPrice),
		log:      log.With(map[string]any{"component": "blockchain", "network": network.Name}),
	}, nil
}

func (s *CertificationService) Network() Network { return s.network }

func (s *CertificationService) ContractAddress() string { return s.contract.Hex() }

// CertifyDocument kiểm tra định dạng, từ chối hash đã được chứng nhận rồi mới gửi giao dịch.
func (s *CertificationService) CertifyDocument(ctx context.Context, in CertifyInput) (Result, error) {
	owner, err := ParseAddress(in.OwnerAddress)
	if err != nil {
		return Result{}, err
	}
	vet, err := ParseAddress(in.VetAddress)
	if err != nil {
		return Result{}, err
	}
	ownerSig, err := ValidateSignatureHex(in.OwnerSignature)
	if err != nil {
		return Result{}, err
	}
	vetSig, err := ValidateSignatureHex(in.VetSignature)
	if err != nil {
		return Result{}, err
	}
	hash, err := ParseContentHash(in.ContentHash)
	if err != nil {
		return Result{}, err
	}

	existing, err := s.Verify(ctx, in.ContentHash)
	if err != nil {
		return Result{}, err
	}
	if existing != nil {
		return Result{}, apperror.ErrAlreadyCertifiedOnChain.Withf("document %s is already certified on-chain", in.ContentHash)
	}

	s.log.Info("submitting certifyDocument", map[string]any{
		"hash":     in.ContentHash,
		"animalId": in.AnimalID,
		"gasPrice": s.gasPrice.String(),
		"gasLimit": s.gasLimit,
	})

	receipt, err := s.rpc.Submit(ctx, MethodCertifyDocument,
		SubmitOptions{Key: s.company, GasLimit: s.gasLimit, GasPrice: new(big.Int).Set(s.gasPrice)},
		hash, in.AnimalID, owner, vet, ownerSig, vetSig,
	)
	if err != nil {
		return Result{}, apperror.ErrLedgerSubmission.Wrap(err)
	}

	res := Result{
		TxHash:          receipt.TxHash,
		BlockNumber:     receipt.BlockNumber,
		GasUsed:         receipt.GasUsed,
		Network:         s.network.Name,
		ContractAddress: s.contract.Hex(),
		Raw:             receipt.Raw,
	}
	if res.Raw == nil {
		res.Raw = map[string]any{}
	}
	switch {
	case receipt.Status == nil:
		// Adapter chỉ trả về hash: coi như confirmed và đánh dấu trong raw response.
		res.Status = models.TxConfirmed
		res.Raw["optimistic"] = true
	case *receipt.Status == 1:
		res.Status = models.TxConfirmed
	default:
		res.Status = models.TxFailed
	}
	return res, nil
}

// Verify đọc certifications(hash). Trả về nil nếu timestamp = 0 (chưa được chứng nhận).
func (s *CertificationService) Verify(ctx context.Context, contentHash string) (*Verification, error) {
	hash, err := ParseContentHash(contentHash)
	if err != nil {
		return nil, err
	}
	out, err := s.rpc.Call(ctx, MethodCertifications, hash)
	if err != nil {
		return nil, apperror.ErrLedgerCall.Wrap(err)
	}
	if len(out) != 4 {
		return nil, apperror.ErrLedgerCall.Withf("certifications returned %d values", len(out))
	}

	owner, ok1 := out[0].(common.Address)
	vet, ok2 := out[1].(common.Address)
	registrar, ok3 := out[2].(common.Address)
	ts, ok4 := out[3].(*big.Int)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, apperror.ErrLedgerCall.Withf("unexpected certifications output %v", out)
	}
	if ts == nil || ts.Sign() == 0 {
		return nil, nil
	}
	return &Verification{
		Owner:        owner.Hex(),
		Veterinarian: vet.Hex(),
		Registrar:    registrar.Hex(),
		Timestamp:    ts.Uint64(),
		CertifiedAt:  time.Unix(ts.Int64(), 0).UTC(),
	}, nil
}

func (s *CertificationService) AnimalHistory(ctx context.Context, animalID string) ([]HistoryEntry, error) {
	out, err := s.rpc.Call(ctx, MethodGetAnimalHistory, animalID)
	if err != nil {
		return nil, apperror.ErrLedgerCall.Wrap(err)
	}
	if len(out) != 2 {
		return nil, apperror.ErrLedgerCall.Withf("getAnimalHistory returned %d values", len(out))
	}
	hashes, ok1 := out[0].([][32]byte)
	stamps, ok2 := out[1].([]*big.Int)
	if !ok1 || !ok2 || len(hashes) != len(stamps) {
		return nil, apperror.ErrLedgerCall.Withf("unexpected getAnimalHistory output %v", out)
	}

	entries := make([]HistoryEntry, 0, len(hashes))
	for i, h := range hashes {
		entries = append(entries, HistoryEntry{
			DocumentHash: common.Hash(h).Hex(),
			CertifiedAt:  time.Unix(stamps[i].Int64(), 0).UTC(),
		})
	}
	return entries, nil
}

func (s *CertificationService) AnimalCertificationCount(ctx context.Context, animalID string) (uint64, error) {
	out, err := s.rpc.Call(ctx, MethodGetAnimalCertificationCount, animalID)
	if err != nil {
		return 0, apperror.ErrLedgerCall.Wrap(err)
	}
	if len(out) != 1 {
		return 0, apperror.ErrLedgerCall.Withf("getAnimalCertificationCount returned %d values", len(out))
	}
	n, ok := out[0].(*big.Int)
	if !ok {
		return 0, apperror.ErrLedgerCall.Withf("unexpected getAnimalCertificationCount output %v", out)
	}
	return n.Uint64(), nil
}
