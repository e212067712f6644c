// internal/apperror/apperror.go
package apperror

import (
	"errors"
	"fmt"
)

// Kind phân loại lỗi để tầng HTTP quyết định status code mà không cần so khớp chuỗi.
type Kind string

const (
	KindValidation Kind = "validation"
	KindDomain     Kind = "domain"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindCrypto     Kind = "crypto"
	KindLedger     Kind = "ledger"
	KindInternal   Kind = "internal"
)

// Error là lỗi có phân loại. Hai Error được coi là bằng nhau (errors.Is) khi cùng Code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Wrap trả về bản sao của e mang theo nguyên nhân err.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// Withf trả về bản sao của e với message chi tiết hơn, giữ nguyên Code.
func (e *Error) Withf(format string, args ...any) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// Validation tạo nhanh một lỗi dữ liệu đầu vào.
func Validation(code, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

// KindOf trả về Kind của lỗi đầu tiên có phân loại trong chuỗi, mặc định KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Lỗi lưu trữ
var (
	ErrNotFound  = New(KindNotFound, "not_found", "record not found")
	ErrDuplicate = New(KindConflict, "duplicate", "record violates a uniqueness constraint")
	ErrStale     = New(KindConflict, "stale_record", "record was modified concurrently")
)

// Lỗi nghiệp vụ của quy trình chứng nhận
var (
	ErrRequestNotAssigned      = New(KindDomain, "request_not_assigned", "certification request is not assigned to a veterinarian yet")
	ErrRequestAlreadyFinalized = New(KindDomain, "request_already_finalized", "certification request is already finalized")
	ErrVeterinarianNotAssigned = New(KindDomain, "veterinarian_not_assigned", "veterinarian is not assigned to this certification request")
	ErrTooManyCertifications   = New(KindDomain, "too_many_certifications", "number of certifications exceeds the declared animal group")
	ErrPhotoRequired           = New(KindDomain, "photo_required", "a photo is required for every cattle certification")
	ErrProducerRequired        = New(KindDomain, "producer_required", "only producers can perform this action")
	ErrVeterinarianRequired    = New(KindDomain, "veterinarian_required", "only veterinarians can perform this action")
	ErrNotRequestOwner         = New(KindDomain, "not_request_owner", "certification request belongs to another producer")
	ErrDocumentExists          = New(KindConflict, "document_already_exists", "a certification document already exists for this cattle certification")
	ErrFileRequired            = New(KindValidation, "file_required", "an image file is required")
	ErrInvalidFile             = New(KindValidation, "invalid_file", "file must be a JPEG or PNG image under 10MB")
	ErrHashMismatch            = New(KindValidation, "hash_mismatch", "document hash does not match the attached file")
	ErrInvalidCredentials      = New(KindDomain, "invalid_credentials", "invalid email or password")
)

// Lỗi mật mã và blockchain
var (
	ErrInvalidAddress          = New(KindCrypto, "invalid_address", "invalid ethereum address")
	ErrInvalidSignature        = New(KindCrypto, "invalid_signature", "signature must be exactly 130 hex characters")
	ErrInvalidContentHash      = New(KindCrypto, "invalid_content_hash", "content hash must be 32 bytes of hex")
	ErrInvalidPrivateKey       = New(KindCrypto, "invalid_private_key", "invalid private key")
	ErrUnsupportedNetwork      = New(KindCrypto, "unsupported_network", "unsupported blockchain network")
	ErrMissingWallet           = New(KindDomain, "missing_blockchain_wallets", "producer and veterinarian wallets are required")
	ErrAlreadyCertifiedOnChain = New(KindLedger, "document_already_certified", "document is already certified on-chain")
	ErrLedgerSubmission        = New(KindLedger, "ledger_submission_failed", "blockchain submission failed")
	ErrLedgerCall              = New(KindLedger, "ledger_call_failed", "blockchain read failed")
)
