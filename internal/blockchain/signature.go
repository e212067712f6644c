// internal/blockchain/signature.go
package blockchain

import (
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"cattle-certification-api-server/internal/apperror"
)

// SignatureHexLength: 65 byte (r ∥ s ∥ v) viết dưới dạng hex, không có tiền tố 0x.
const SignatureHexLength = 130

// WalletKey là khóa đã giải mã của một ví, chỉ tồn tại trong bộ nhớ khi ký.
type WalletKey struct {
	Address    string
	PrivateKey string
}

// Signatures là cặp chữ ký của chủ lô và bác sĩ thú y trên cùng một thông điệp.
type Signatures struct {
	Owner string
	Vet   string
}

// NormalizePrivateKey chấp nhận private key hex có hoặc không có tiền tố 0x.
func NormalizePrivateKey(key string) (*ecdsa.PrivateKey, error) {
	k := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(key), "0x"), "0X")
	pk, err := crypto.HexToECDSA(k)
	if err != nil {
		return nil, apperror.ErrInvalidPrivateKey.Wrap(err)
	}
	return pk, nil
}

func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, apperror.ErrInvalidAddress.Withf("invalid ethereum address %q", s)
	}
	return common.HexToAddress(s), nil
}

// ParseContentHash đọc content hash dạng 0x + 64 ký tự hex thành bytes32.
func ParseContentHash(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != 32 {
		return out, apperror.ErrInvalidContentHash.Withf("invalid content hash %q", s)
	}
	copy(out[:], b)
	return out, nil
}

// PackedMessageHash = keccak256(abi.encodePacked(hash, owner, vet)); mỗi địa chỉ đóng góp 20 byte thô.
func PackedMessageHash(hash [32]byte, owner, vet common.Address) common.Hash {
	return crypto.Keccak256Hash(hash[:], owner.Bytes(), vet.Bytes())
}

// EthSignedMessageHash áp dụng tiền tố "\x19Ethereum Signed Message:\n32" lên message hash.
func EthSignedMessageHash(msg common.Hash) common.Hash {
	return common.BytesToHash(accounts.TextHash(msg.Bytes()))
}

// ValidateSignatureHex kiểm tra chữ ký đúng 130 ký tự hex và trả về 65 byte thô.
func ValidateSignatureHex(sig string) ([]byte, error) {
	if len(sig) != SignatureHexLength {
		return nil, apperror.ErrInvalidSignature.Withf("signature must be exactly %d hex characters, got %d", SignatureHexLength, len(sig))
	}
	b, err := hexutil.Decode("0x" + sig)
	if err != nil {
		return nil, apperror.ErrInvalidSignature.Wrap(err)
	}
	return b, nil
}

func signDigest(digest common.Hash, key *ecdsa.PrivateKey) (string, error) {
	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		return "", apperror.ErrInvalidSignature.Wrap(err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	out := common.Bytes2Hex(sig)
	if _, err := ValidateSignatureHex(out); err != nil {
		return "", err
	}
	return out, nil
}

func unlock(w WalletKey) (*ecdsa.PrivateKey, common.Address, error) {
	addr, err := ParseAddress(w.Address)
	if err != nil {
		return nil, common.Address{}, err
	}
	key, err := NormalizePrivateKey(w.PrivateKey)
	if err != nil {
		return nil, common.Address{}, err
	}
	if crypto.PubkeyToAddress(key.PublicKey) != addr {
		return nil, common.Address{}, apperror.ErrInvalidPrivateKey.Withf("private key does not match wallet %s", addr.Hex())
	}
	return key, addr, nil
}

// SignCertification tạo hai chữ ký độc lập trên cùng thông điệp (contentHash, owner, vet).
func SignCertification(contentHash string, owner, vet WalletKey) (Signatures, error) {
	hash, err := ParseContentHash(contentHash)
	if err != nil {
		return Signatures{}, err
	}
	ownerKey, ownerAddr, err := unlock(owner)
	if err != nil {
		return Signatures{}, err
	}
	vetKey, vetAddr, err := unlock(vet)
	if err != nil {
		return Signatures{}, err
	}

	digest := EthSignedMessageHash(PackedMessageHash(hash, ownerAddr, vetAddr))

	ownerSig, err := signDigest(digest, ownerKey)
	if err != nil {
		return Signatures{}, err
	}
	vetSig, err := signDigest(digest, vetKey)
	if err != nil {
		return Signatures{}, err
	}
	return Signatures{Owner: ownerSig, Vet: vetSig}, nil
}

// RecoverSigner khôi phục địa chỉ đã ký (contentHash, owner, vet) từ chữ ký hex.
func RecoverSigner(contentHash, owner, vet, sig string) (common.Address, error) {
	hash, err := ParseContentHash(contentHash)
	if err != nil {
		return common.Address{}, err
	}
	ownerAddr, err := ParseAddress(owner)
	if err != nil {
		return common.Address{}, err
	}
	vetAddr, err := ParseAddress(vet)
	if err != nil {
		return common.Address{}, err
	}
	raw, err := ValidateSignatureHex(sig)
	if err != nil {
		return common.Address{}, err
	}
	if raw[crypto.RecoveryIDOffset] >= 27 {
		raw[crypto.RecoveryIDOffset] -= 27
	}

	digest := EthSignedMessageHash(PackedMessageHash(hash, ownerAddr, vetAddr))
	pub, err := crypto.SigToPub(digest.Bytes(), raw)
	if err != nil {
		return common.Address{}, apperror.ErrInvalidSignature.Wrap(err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
