package blockchain_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cattle-certification-api-server/config"
	"cattle-certification-api-server/internal/apperror"
	"cattle-certification-api-server/internal/blockchain"
	"cattle-certification-api-server/internal/blockchain/blockchaintest"
	"cattle-certification-api-server/internal/logger"
	"cattle-certification-api-server/internal/models"
)

func walletKey(t *testing.T) blockchain.WalletKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return blockchain.WalletKey{
		Address:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
		PrivateKey: common.Bytes2Hex(crypto.FromECDSA(key)),
	}
}

func newService(t *testing.T, rpc blockchain.RPC) *blockchain.CertificationService {
	t.Helper()
	company := walletKey(t)
	svc, err := blockchain.NewCertificationService(rpc, config.BlockchainConfig{
		Network:           "amoy",
		ContractAddress:   "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		CompanyPrivateKey: company.PrivateKey,
	}, logger.Nop())
	require.NoError(t, err)
	return svc
}

func signedInput(t *testing.T, pdf []byte) blockchain.CertifyInput {
	t.Helper()
	owner, vet := walletKey(t), walletKey(t)
	hash := models.HashContent(pdf)
	sigs, err := blockchain.SignCertification(hash, owner, vet)
	require.NoError(t, err)
	return blockchain.CertifyInput{
		ContentHash:    hash,
		AnimalID:       "AR123",
		OwnerAddress:   owner.Address,
		VetAddress:     vet.Address,
		OwnerSignature: sigs.Owner,
		VetSignature:   sigs.Vet,
	}
}

func TestCertifyDocumentSubmitsRawSignatures(t *testing.T) {
	rpc := blockchaintest.New()
	svc := newService(t, rpc)
	in := signedInput(t, []byte("pdf-1"))

	res, err := svc.CertifyDocument(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.TxConfirmed, res.Status)
	assert.Equal(t, "amoy", res.Network)
	assert.NotEmpty(t, res.TxHash)

	require.Equal(t, 1, rpc.SubmitCount())
	call := rpc.Submits[0]
	assert.Equal(t, blockchain.MethodCertifyDocument, call.Method)
	assert.Equal(t, uint64(300_000), call.Opts.GasLimit)
	assert.Equal(t, big.NewInt(30_000_000_000), call.Opts.GasPrice)
	require.Len(t, call.Args, 6)
	assert.Equal(t, "AR123", call.Args[1])
	assert.Len(t, call.Args[4], 65)
	assert.Len(t, call.Args[5], 65)

	// Tham số phải khớp ABI của contract.
	parsed, err := blockchain.RegistryABI()
	require.NoError(t, err)
	packed, err := parsed.Pack(blockchain.MethodCertifyDocument, call.Args...)
	require.NoError(t, err)
	decoded, err := parsed.Methods[blockchain.MethodCertifyDocument].Inputs.Unpack(packed[4:])
	require.NoError(t, err)
	assert.Len(t, decoded[4], 65)
	assert.Len(t, decoded[5], 65)

	v, err := svc.Verify(context.Background(), in.ContentHash)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, in.OwnerAddress, v.Owner)
	assert.Equal(t, in.VetAddress, v.Veterinarian)
}

func TestCertifyDocumentRejectsAlreadyCertifiedHash(t *testing.T) {
	rpc := blockchaintest.New()
	svc := newService(t, rpc)
	in := signedInput(t, []byte("pdf-2"))

	hash, err := blockchain.ParseContentHash(in.ContentHash)
	require.NoError(t, err)
	rpc.MarkCertified(hash, common.HexToAddress(in.OwnerAddress), common.HexToAddress(in.VetAddress))

	_, err = svc.CertifyDocument(context.Background(), in)
	assert.ErrorIs(t, err, apperror.ErrAlreadyCertifiedOnChain)
	assert.Zero(t, rpc.SubmitCount())
}

func TestCertifyDocumentRejectsBadSignatureBeforeAnyCall(t *testing.T) {
	rpc := blockchaintest.New()
	rpc.CallErr = errors.New("must not be called")
	svc := newService(t, rpc)

	for _, sig := range []string{strings.Repeat("ab", 64), strings.Repeat("ab", 66)} {
		in := signedInput(t, []byte("pdf-3"))
		in.VetSignature = sig
		_, err := svc.CertifyDocument(context.Background(), in)
		assert.ErrorIs(t, err, apperror.ErrInvalidSignature)
	}
	assert.Zero(t, rpc.SubmitCount())
}

func TestCertifyDocumentWrapsSubmissionError(t *testing.T) {
	rpc := blockchaintest.New()
	rpc.SubmitErr = errors.New("execution reverted")
	svc := newService(t, rpc)

	_, err := svc.CertifyDocument(context.Background(), signedInput(t, []byte("pdf-4")))
	assert.ErrorIs(t, err, apperror.ErrLedgerSubmission)
	assert.Equal(t, apperror.KindLedger, apperror.KindOf(err))
}

func TestCertifyDocumentReceiptStatus(t *testing.T) {
	t.Run("hash only is optimistic", func(t *testing.T) {
		rpc := blockchaintest.New()
		rpc.Status = nil
		res, err := newService(t, rpc).CertifyDocument(context.Background(), signedInput(t, []byte("pdf-5")))
		require.NoError(t, err)
		assert.Equal(t, models.TxConfirmed, res.Status)
		assert.Equal(t, true, res.Raw["optimistic"])
	})

	t.Run("reverted receipt", func(t *testing.T) {
		rpc := blockchaintest.New()
		zero := uint64(0)
		rpc.Status = &zero
		res, err := newService(t, rpc).CertifyDocument(context.Background(), signedInput(t, []byte("pdf-6")))
		require.NoError(t, err)
		assert.Equal(t, models.TxFailed, res.Status)
	})
}

func TestVerifyUncertifiedHashReturnsNil(t *testing.T) {
	svc := newService(t, blockchaintest.New())
	v, err := svc.Verify(context.Background(), models.HashContent([]byte("never certified")))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestNewCertificationServiceRejectsUnsupportedNetwork(t *testing.T) {
	_, err := blockchain.NewCertificationService(blockchaintest.New(), config.BlockchainConfig{
		Network:           "solana",
		ContractAddress:   "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		CompanyPrivateKey: walletKey(t).PrivateKey,
	}, nil)
	assert.ErrorIs(t, err, apperror.ErrUnsupportedNetwork)
}

func TestAnimalHistoryListsCertifiedDocuments(t *testing.T) {
	rpc := blockchaintest.New()
	svc := newService(t, rpc)
	ctx := context.Background()

	first := signedInput(t, []byte("pdf-a"))
	second := signedInput(t, []byte("pdf-b"))
	_, err := svc.CertifyDocument(ctx, first)
	require.NoError(t, err)
	_, err = svc.CertifyDocument(ctx, second)
	require.NoError(t, err)

	history, err := svc.AnimalHistory(ctx, "AR123")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, strings.ToLower(first.ContentHash), strings.ToLower(history[0].DocumentHash))
	assert.Equal(t, int64(1733130000), history[0].CertifiedAt.Unix())

	count, err := svc.AnimalCertificationCount(ctx, "AR123")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	none, err := svc.AnimalHistory(ctx, "AR999")
	require.NoError(t, err)
	assert.Empty(t, none)
}
