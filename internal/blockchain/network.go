// internal/blockchain/network.go
package blockchain

import (
	"strings"

	"cattle-certification-api-server/internal/apperror"
)

// Network mô tả một mạng EVM mà contract CertificationRegistry được triển khai.
type Network struct {
	Name          string
	ChainID       int64
	DefaultRPCURL string
	ExplorerTxURL string
	DisplayName   string
}

var networks = []struct {
	aliases []string
	net     Network
}{
	{
		aliases: []string{"amoy", "polygon-amoy"},
		net: Network{
			Name:          "amoy",
			ChainID:       80002,
			DefaultRPCURL: "https://rpc-amoy.polygon.technology/",
			ExplorerTxURL: "https://amoy.polygonscan.com/tx/",
			DisplayName:   "Polygon Amoy Testnet",
		},
	},
	{
		aliases: []string{"polygon", "matic"},
		net: Network{
			Name:          "polygon",
			ChainID:       137,
			DefaultRPCURL: "https://polygon-rpc.com/",
			ExplorerTxURL: "https://polygonscan.com/tx/",
			DisplayName:   "Polygon Mainnet",
		},
	},
	{
		// Mainnet không có RPC mặc định, cần cấu hình blockchain.rpcURL.
		aliases: []string{"ethereum", "mainnet"},
		net: Network{
			Name:          "ethereum",
			ChainID:       1,
			ExplorerTxURL: "https://etherscan.io/tx/",
			DisplayName:   "Ethereum Mainnet",
		},
	},
}

// ResolveNetwork trả về mạng tương ứng với tên (không phân biệt hoa thường).
func ResolveNetwork(name string) (Network, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, n := range networks {
		for _, alias := range n.aliases {
			if alias == key {
				return n.net, nil
			}
		}
	}
	return Network{}, apperror.ErrUnsupportedNetwork.Withf("unsupported blockchain network %q", name)
}

func (n Network) ExplorerURL(txHash string) string {
	if n.ExplorerTxURL == "" || txHash == "" {
		return ""
	}
	return n.ExplorerTxURL + txHash
}

// ExplorerURL trả về link explorer cho giao dịch, rỗng nếu mạng không được hỗ trợ.
func ExplorerURL(network, txHash string) string {
	n, err := ResolveNetwork(network)
	if err != nil {
		return ""
	}
	return n.ExplorerURL(txHash)
}

// DisplayName trả về tên hiển thị của mạng; mạng lạ được viết hoa chữ cái đầu.
func DisplayName(network string) string {
	if n, err := ResolveNetwork(network); err == nil {
		return n.DisplayName
	}
	words := strings.FieldsFunc(network, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
