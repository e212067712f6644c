// Package blockchaintest cung cấp RPC giả lập contract CertificationRegistry cho test.
package blockchaintest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"cattle-certification-api-server/internal/blockchain"
)

type record struct {
	owner, vet common.Address
	timestamp  int64
}

// SubmitCall ghi lại tham số của một lần Submit.
type SubmitCall struct {
	Method string
	Opts   blockchain.SubmitOptions
	Args   []any
}

// RPC lưu trạng thái contract trong bộ nhớ.
type RPC struct {
	mu        sync.Mutex
	certified map[[32]byte]record
	history   map[string][][32]byte
	nonce     uint64

	// SubmitErr khiến mọi lần Submit thất bại.
	SubmitErr error
	// CallErr khiến mọi lần Call thất bại.
	CallErr error
	// Status là trạng thái receipt trả về; nil mô phỏng adapter chỉ trả về hash.
	Status *uint64
	// Timestamp dùng cho các chứng nhận mới.
	Timestamp int64
	// OnSubmit chạy sau khi giao dịch đã vào "chain", trước lúc chờ receipt.
	OnSubmit func()

	Submits []SubmitCall
}

func New() *RPC {
	one := uint64(1)
	return &RPC{
		certified: map[[32]byte]record{},
		history:   map[string][][32]byte{},
		Status:    &one,
		Timestamp: 1733130000,
	}
}

// MarkCertified đánh dấu hash đã được chứng nhận on-chain.
func (r *RPC) MarkCertified(hash [32]byte, owner, vet common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.certified[hash] = record{owner: owner, vet: vet, timestamp: r.Timestamp}
}

func (r *RPC) SubmitCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Submits)
}

func (r *RPC) Call(_ context.Context, method string, args ...any) ([]any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CallErr != nil {
		return nil, r.CallErr
	}
	switch method {
	case blockchain.MethodCertifications:
		hash, ok := args[0].([32]byte)
		if !ok {
			return nil, fmt.Errorf("certifications: unexpected argument %T", args[0])
		}
		rec := r.certified[hash]
		return []any{rec.owner, rec.vet, common.Address{}, big.NewInt(rec.timestamp)}, nil
	case blockchain.MethodGetAnimalHistory:
		hashes := append([][32]byte{}, r.history[animalArg(args)]...)
		stamps := make([]*big.Int, len(hashes))
		for i, h := range hashes {
			stamps[i] = big.NewInt(r.certified[h].timestamp)
		}
		return []any{hashes, stamps}, nil
	case blockchain.MethodGetAnimalCertificationCount:
		return []any{big.NewInt(int64(len(r.history[animalArg(args)])))}, nil
	}
	return nil, fmt.Errorf("unsupported method %s", method)
}

func (r *RPC) Submit(ctx context.Context, method string, opts blockchain.SubmitOptions, args ...any) (blockchain.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Submits = append(r.Submits, SubmitCall{Method: method, Opts: opts, Args: args})
	if r.SubmitErr != nil {
		return blockchain.Receipt{}, r.SubmitErr
	}
	hash, ok := args[0].([32]byte)
	if !ok {
		return blockchain.Receipt{}, fmt.Errorf("certifyDocument: unexpected hash argument %T", args[0])
	}
	owner, _ := args[2].(common.Address)
	vet, _ := args[3].(common.Address)

	r.nonce++
	txHash := crypto.Keccak256Hash(hash[:], new(big.Int).SetUint64(r.nonce).Bytes()).Hex()

	receipt := blockchain.Receipt{TxHash: txHash, Raw: map[string]any{"transactionHash": txHash}}
	if r.Status != nil {
		status := *r.Status
		receipt.Status = &status
		receipt.BlockNumber = 1000 + r.nonce
		receipt.GasUsed = 120_000
		if status != 1 {
			return receipt, nil
		}
	}
	r.certified[hash] = record{owner: owner, vet: vet, timestamp: r.Timestamp}
	if animal, _ := args[1].(string); animal != "" {
		r.history[animal] = append(r.history[animal], hash)
	}
	if r.OnSubmit != nil {
		r.OnSubmit()
	}
	// Như bind.WaitMined: context bị hủy thì không còn receipt dù giao dịch đã được ghi.
	if err := ctx.Err(); err != nil {
		return blockchain.Receipt{}, fmt.Errorf("waiting for receipt of %s: %w", txHash, err)
	}
	return receipt, nil
}

func animalArg(args []any) string {
	if len(args) == 0 {
		return ""
	}
	s, _ := args[0].(string)
	return s
}
