// internal/documents/filename.go
package documents

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
	"unicode"
)

const (
	noCUIG     = "NOCUIG"
	noProducer = "NOPROD"
)

// Filename tạo tên file cert_<CUIG>_<YYYYMMDD>_<CUIG nhà sản xuất>.pdf.
// Ngày lấy từ thời điểm lấy dữ liệu, nếu không có thì dùng today.
func Filename(animalCUIG string, takenAt *time.Time, producerCUIG string, today time.Time) string {
	date := today
	if takenAt != nil && !takenAt.IsZero() {
		date = *takenAt
	}
	return "cert_" + sanitize(animalCUIG, noCUIG) + "_" + date.Format("20060102") + "_" + sanitize(producerCUIG, noProducer) + ".pdf"
}

func sanitize(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		s = placeholder
	}
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// PlaceholderTxHash là hash tạm của giao dịch trước khi gửi lên blockchain.
func PlaceholderTxHash() string {
	b := make([]byte, 20)
	_, _ = rand.Read(b)
	return "temp_" + hex.EncodeToString(b)
}
