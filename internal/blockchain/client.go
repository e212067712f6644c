// internal/blockchain/client.go
package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"cattle-certification-api-server/config"
)

// Client là RPC thật, nói chuyện với node EVM qua JSON-RPC.
type Client struct {
	eth            *ethclient.Client
	contract       *bind.BoundContract
	chainID        *big.Int
	receiptTimeout time.Duration
}

// Initialize kết nối tới node của mạng đã cấu hình và bind contract CertificationRegistry.
func Initialize(ctx context.Context, cfg config.BlockchainConfig) (*Client, error) {
	network, err := ResolveNetwork(cfg.Network)
	if err != nil {
		return nil, err
	}
	rpcURL := cfg.RPCURL
	if rpcURL == "" {
		rpcURL = network.DefaultRPCURL
	}
	if rpcURL == "" {
		return nil, fmt.Errorf("no rpc url configured for network %s", network.Name)
	}
	address, err := ParseAddress(cfg.ContractAddress)
	if err != nil {
		return nil, err
	}
	wait, err := cfg.ReceiptWait()
	if err != nil {
		return nil, err
	}
	parsed, err := RegistryABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract abi: %w", err)
	}

	ec, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", rpcURL, err)
	}

	return &Client{
		eth:            ec,
		contract:       bind.NewBoundContract(address, parsed, ec, ec, ec),
		chainID:        big.NewInt(network.ChainID),
		receiptTimeout: wait,
	}, nil
}

func (c *Client) Close() {
	c.eth.Close()
}

func (c *Client) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	var out []any
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	return out, nil
}

// Submit ký giao dịch legacy bằng opts.Key, gửi và chờ receipt trong receiptTimeout.
func (c *Client) Submit(ctx context.Context, method string, opts SubmitOptions, args ...any) (Receipt, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(opts.Key, c.chainID)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to create transactor: %w", err)
	}
	auth.Context = ctx
	auth.GasLimit = opts.GasLimit
	auth.GasPrice = opts.GasPrice

	tx, err := c.contract.Transact(auth, method, args...)
	if err != nil {
		return Receipt{}, fmt.Errorf("transact %s: %w", method, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.receiptTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, c.eth, tx)
	if err != nil {
		return Receipt{}, fmt.Errorf("waiting for receipt of %s: %w", tx.Hash().Hex(), err)
	}
	return receiptFrom(receipt), nil
}

func receiptFrom(r *types.Receipt) Receipt {
	status := r.Status
	var block uint64
	if r.BlockNumber != nil {
		block = r.BlockNumber.Uint64()
	}
	return Receipt{
		TxHash:      r.TxHash.Hex(),
		BlockNumber: block,
		GasUsed:     r.GasUsed,
		Status:      &status,
		Raw: map[string]any{
			"transactionHash":   r.TxHash.Hex(),
			"blockHash":         r.BlockHash.Hex(),
			"blockNumber":       block,
			"gasUsed":           r.GasUsed,
			"cumulativeGasUsed": r.CumulativeGasUsed,
			"status":            r.Status,
			"logs":              len(r.Logs),
		},
	}
}
