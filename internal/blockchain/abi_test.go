package blockchain_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cattle-certification-api-server/internal/blockchain"
	"cattle-certification-api-server/internal/blockchain/blockchaintest"
)

// abiRPC mã hóa mọi lời gọi qua ABI của contract như bind.BoundContract:
// tham số được pack/unpack, kết quả của contract giả được pack rồi unpack lại.
type abiRPC struct {
	t      *testing.T
	parsed abi.ABI
	inner  *blockchaintest.RPC
}

func newABIRPC(t *testing.T) *abiRPC {
	parsed, err := blockchain.RegistryABI()
	require.NoError(t, err)
	return &abiRPC{t: t, parsed: parsed, inner: blockchaintest.New()}
}

func (r *abiRPC) decodeArgs(method string, args []any) []any {
	data, err := r.parsed.Pack(method, args...)
	require.NoError(r.t, err, "pack %s", method)
	decoded, err := r.parsed.Methods[method].Inputs.Unpack(data[4:])
	require.NoError(r.t, err, "unpack %s inputs", method)
	return decoded
}

func (r *abiRPC) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	out, err := r.inner.Call(ctx, method, r.decodeArgs(method, args)...)
	if err != nil {
		return nil, err
	}
	data, err := r.parsed.Methods[method].Outputs.Pack(out...)
	require.NoError(r.t, err, "pack %s outputs", method)
	return r.parsed.Unpack(method, data)
}

func (r *abiRPC) Submit(ctx context.Context, method string, opts blockchain.SubmitOptions, args ...any) (blockchain.Receipt, error) {
	return r.inner.Submit(ctx, method, opts, r.decodeArgs(method, args)...)
}

func TestRegistryABIRoundTrip(t *testing.T) {
	rpc := newABIRPC(t)
	svc := newService(t, rpc)
	ctx := context.Background()

	in := signedInput(t, []byte("pdf-abi"))
	_, err := svc.CertifyDocument(ctx, in)
	require.NoError(t, err)
	require.Equal(t, 1, rpc.inner.SubmitCount())
	assert.Equal(t, in.AnimalID, rpc.inner.Submits[0].Args[1])

	v, err := svc.Verify(ctx, in.ContentHash)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, in.OwnerAddress, v.Owner)
	assert.Equal(t, in.VetAddress, v.Veterinarian)
	assert.Equal(t, uint64(rpc.inner.Timestamp), v.Timestamp)

	history, err := svc.AnimalHistory(ctx, in.AnimalID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, in.ContentHash, history[0].DocumentHash)
	assert.Equal(t, rpc.inner.Timestamp, history[0].CertifiedAt.Unix())

	n, err := svc.AnimalCertificationCount(ctx, in.AnimalID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	empty, err := svc.AnimalHistory(ctx, "AR-unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)

	missing, err := svc.Verify(ctx, signedInput(t, []byte("never submitted")).ContentHash)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
