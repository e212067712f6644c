// internal/models/common.go
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// TimeRange là khoảng thời gian đóng [Start, End].
type TimeRange struct {
	Start time.Time `bson:"start" json:"start"`
	End   time.Time `bson:"end" json:"end"`
}

func (r TimeRange) Valid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && !r.End.Before(r.Start)
}

// In chuyển cả hai đầu mút sang múi giờ loc.
func (r TimeRange) In(loc *time.Location) TimeRange {
	return TimeRange{Start: r.Start.In(loc), End: r.End.In(loc)}
}

// Dates liệt kê các ngày lịch từ ngày bắt đầu đến ngày kết thúc (bao gồm hai đầu),
// tính theo múi giờ của Start.
func (r TimeRange) Dates() []time.Time {
	if !r.Valid() {
		return nil
	}
	first := DateOf(r.Start)
	last := DateOf(r.End.In(r.Start.Location()))

	var out []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// DateOf trả về ngày lịch của t, biểu diễn bằng nửa đêm UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// GeoPoint là một tọa độ ghi nhận tại hiện trường.
type GeoPoint struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// MediaPointer đại diện cho một file được lưu trữ trên S3 hoặc dịch vụ tương tự.
type MediaPointer struct {
	Key         string `bson:"key" json:"key"`
	URL         string `bson:"url" json:"url"`
	FileName    string `bson:"fileName" json:"fileName"`
	ContentType string `bson:"contentType" json:"contentType"`
	Size        int64  `bson:"size" json:"size"`
}

// Upload là nội dung file nhận từ client, chưa được lưu trữ.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

func (u *Upload) Present() bool {
	return u != nil && len(u.Data) > 0
}

// HashContent tính content hash (SHA-256, tiền tố 0x) của một tài liệu.
func HashContent(b []byte) string {
	sum := sha256.Sum256(b)
	return "0x" + hex.EncodeToString(sum[:])
}
