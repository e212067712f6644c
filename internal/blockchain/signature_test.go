package blockchain

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cattle-certification-api-server/internal/apperror"
	"cattle-certification-api-server/internal/models"
)

func newWalletKey(t *testing.T) WalletKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return WalletKey{
		Address:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
		PrivateKey: "0x" + common.Bytes2Hex(crypto.FromECDSA(key)),
	}
}

func TestPackedMessageUsesRawAddressBytes(t *testing.T) {
	hash, err := ParseContentHash(models.HashContent([]byte("pdf")))
	require.NoError(t, err)
	owner := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	vet := common.HexToAddress("0x00000000000000000000000000000000000000bb")

	packed := append(append(append([]byte{}, hash[:]...), owner.Bytes()...), vet.Bytes()...)
	require.Len(t, packed, 72)
	assert.Equal(t, crypto.Keccak256Hash(packed), PackedMessageHash(hash, owner, vet))

	prefixed := append([]byte("\x19Ethereum Signed Message:\n32"), PackedMessageHash(hash, owner, vet).Bytes()...)
	assert.Equal(t, crypto.Keccak256Hash(prefixed), EthSignedMessageHash(PackedMessageHash(hash, owner, vet)))
}

func TestSignCertificationRecoversBothSigners(t *testing.T) {
	owner := newWalletKey(t)
	vet := newWalletKey(t)
	contentHash := models.HashContent([]byte("certificate bytes"))

	sigs, err := SignCertification(contentHash, owner, vet)
	require.NoError(t, err)

	for _, sig := range []string{sigs.Owner, sigs.Vet} {
		assert.Len(t, sig, SignatureHexLength)
		assert.False(t, strings.HasPrefix(sig, "0x"))
		raw, err := ValidateSignatureHex(sig)
		require.NoError(t, err)
		assert.Len(t, raw, 65)
		assert.Contains(t, []byte{27, 28}, raw[64])
	}

	signer, err := RecoverSigner(contentHash, owner.Address, vet.Address, sigs.Owner)
	require.NoError(t, err)
	assert.Equal(t, owner.Address, signer.Hex())

	signer, err = RecoverSigner(contentHash, owner.Address, vet.Address, sigs.Vet)
	require.NoError(t, err)
	assert.Equal(t, vet.Address, signer.Hex())
}

func TestSignCertificationAcceptsKeysWithoutPrefix(t *testing.T) {
	owner := newWalletKey(t)
	vet := newWalletKey(t)
	owner.PrivateKey = strings.TrimPrefix(owner.PrivateKey, "0x")

	_, err := SignCertification(models.HashContent([]byte("x")), owner, vet)
	require.NoError(t, err)
}

func TestSignCertificationRejectsMismatchedKey(t *testing.T) {
	owner := newWalletKey(t)
	vet := newWalletKey(t)
	owner.Address = vet.Address

	_, err := SignCertification(models.HashContent([]byte("x")), owner, vet)
	assert.ErrorIs(t, err, apperror.ErrInvalidPrivateKey)
}

func TestSignCertificationRejectsMalformedInput(t *testing.T) {
	owner := newWalletKey(t)
	vet := newWalletKey(t)

	_, err := SignCertification("0x1234", owner, vet)
	assert.ErrorIs(t, err, apperror.ErrInvalidContentHash)

	bad := owner
	bad.Address = "not-an-address"
	_, err = SignCertification(models.HashContent([]byte("x")), bad, vet)
	assert.ErrorIs(t, err, apperror.ErrInvalidAddress)
}

func TestValidateSignatureHexLength(t *testing.T) {
	cases := map[string]struct {
		sig     string
		wantErr bool
	}{
		"128 chars":        {sig: strings.Repeat("a", 128), wantErr: true},
		"132 chars":        {sig: strings.Repeat("a", 132), wantErr: true},
		"0x prefixed":      {sig: "0x" + strings.Repeat("a", 128), wantErr: true},
		"non hex":          {sig: strings.Repeat("z", 130), wantErr: true},
		"empty":            {sig: "", wantErr: true},
		"exactly 65 bytes": {sig: strings.Repeat("1b", 65)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateSignatureHex(tc.sig)
			if tc.wantErr {
				assert.ErrorIs(t, err, apperror.ErrInvalidSignature)
				return
			}
			assert.NoError(t, err)
		})
	}
}
