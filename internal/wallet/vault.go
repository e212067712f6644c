// internal/wallet/vault.go
package wallet

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var errDecrypt = errors.New("wallet: failed to decrypt secret")

// Vault mã hóa khóa bí mật của ví bằng secretbox (XSalsa20-Poly1305).
type Vault struct {
	key [32]byte
}

// NewVault nhận khóa mã hóa 32 byte dạng hex (có hoặc không có 0x).
func NewVault(hexKey string) (*Vault, error) {
	k := strings.TrimSpace(hexKey)
	if !strings.HasPrefix(k, "0x") {
		k = "0x" + k
	}
	b, err := hexutil.Decode(k)
	if err != nil {
		return nil, fmt.Errorf("wallet: invalid encryption key: %w", err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("wallet: encryption key must be 32 bytes, got %d", len(b))
	}
	v := &Vault{}
	copy(v.key[:], b)
	return v, nil
}

// Seal trả về nonce ∥ ciphertext, mã hóa base64.
func (v *Vault) Seal(plaintext []byte) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("wallet: failed to generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, &v.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (v *Vault) Open(sealed string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return nil, errDecrypt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	out, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &v.key)
	if !ok {
		return nil, errDecrypt
	}
	return out, nil
}
