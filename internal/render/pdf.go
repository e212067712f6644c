// Package render dựng file PDF chứng nhận của một con bò bằng fpdf.
package render

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"cattle-certification-api-server/internal/documents"
	"cattle-certification-api-server/internal/models"
)

const notAvailable = "N/A"

// PDFRenderer dựng tài liệu A4. Với cùng RenderContext, kết quả là cùng một dãy byte.
type PDFRenderer struct {
	Title string
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{Title: "Cattle Certification"}
}

func (r *PDFRenderer) Render(ctx context.Context, rc documents.RenderContext) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(rc.IssuedAt)
	pdf.SetModificationDate(rc.IssuedAt)
	pdf.SetTitle(r.Title, true)
	pdf.SetAuthor(rc.Vet.FullName(), true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	r.header(pdf, tr, rc)
	section(pdf, tr, "Producer", [][2]string{
		{"Name", rc.Producer.Name},
		{"CUIG number", rc.Producer.CUIGNumber},
		{"RENSPA number", orNA(rc.Producer.RenspaNumber)},
		{"Farm address", rc.Request.Address},
		{"Locality", orNA(rc.Locality.Name)},
	})
	section(pdf, tr, "Veterinarian", [][2]string{
		{"Name", rc.Vet.FullName()},
		{"License number", rc.Vet.LicenseNumber},
		{"Certification date", formatDate(certificationDate(rc))},
	})

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, tr("Animal"), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	photo(pdf, tr, rc.Photo)
	table(pdf, tr, animalRows(rc.Certification))

	r.footer(pdf, tr, rc)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) header(pdf *fpdf.Fpdf, tr func(string) string, rc documents.RenderContext) {
	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 12, tr(r.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, tr("Field observation anchored on a public ledger"), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, tr("Generated at "+rc.IssuedAt.UTC().Format("January 2, 2006 15:04 MST")), "", 1, "C", false, 0, "")
	rule(pdf)
}

func (r *PDFRenderer) footer(pdf *fpdf.Fpdf, tr func(string) string, rc documents.RenderContext) {
	rule(pdf)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, tr("Digital signature"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, tr("The SHA-256 fingerprint of this document is signed by the producer and the veterinarian "+
		"and registered on the certification smart contract."), "", "C", false)
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 5, tr("Request "+rc.Request.ID+" / Lot "+rc.Lot.ID), "", 1, "C", false, 0, "")
}

func section(pdf *fpdf.Fpdf, tr func(string) string, title string, rows [][2]string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	table(pdf, tr, rows)
	pdf.Ln(4)
}

func table(pdf *fpdf.Fpdf, tr func(string) string, rows [][2]string) {
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(55, 7, tr(row[0]), "B", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 7, tr(row[1]), "B", 1, "L", false, 0, "")
	}
}

func rule(pdf *fpdf.Fpdf) {
	pdf.Ln(4)
	left, _, right, _ := pdf.GetMargins()
	w, _ := pdf.GetPageSize()
	y := pdf.GetY()
	pdf.Line(left, y, w-right, y)
	pdf.Ln(6)
}

// photo chèn ảnh JPEG/PNG; ảnh không đọc được chỉ để lại một dòng ghi chú.
func photo(pdf *fpdf.Fpdf, tr func(string) string, data []byte) {
	if len(data) == 0 {
		return
	}
	var imageType string
	switch http.DetectContentType(data) {
	case "image/jpeg":
		imageType = "JPG"
	case "image/png":
		imageType = "PNG"
	default:
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 6, tr("Photo unavailable"), "", 1, "C", false, 0, "")
		return
	}

	opts := fpdf.ImageOptions{ImageType: imageType}
	info := pdf.RegisterImageOptionsReader("animal-photo", opts, bytes.NewReader(data))
	if pdf.Error() != nil || info == nil {
		pdf.ClearError()
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 6, tr("Photo unavailable"), "", 1, "C", false, 0, "")
		return
	}
	w, _ := pdf.GetPageSize()
	pdf.ImageOptions("animal-photo", (w-70)/2, pdf.GetY(), 70, 52, true, opts, 0, "")
	pdf.Ln(4)
}

func animalRows(c models.CattleCertification) [][2]string {
	rows := [][2]string{
		{"CUIG code", orNA(c.CUIGCode)},
		{"Alternative code", orNA(c.AlternativeCode)},
		{"Gender", humanize(string(c.Gender))},
		{"Category", humanize(string(c.Category))},
		{"Estimated weight", formatWeight(c.EstimatedWeight)},
	}
	if c.DentalChronology != "" {
		rows = append(rows, [2]string{"Dental chronology", humanize(string(c.DentalChronology))})
	}
	if c.Pregnant != nil {
		rows = append(rows, [2]string{"Pregnant", yesNo(*c.Pregnant)})
	}
	if c.PregnancyDiagnosisMethod != "" {
		rows = append(rows, [2]string{"Pregnancy diagnosis", humanize(string(c.PregnancyDiagnosisMethod))})
	}
	if r := c.PregnancyServiceRange; r != nil {
		rows = append(rows, [2]string{"Service range", formatDate(r.Start) + " - " + formatDate(r.End)})
	}
	if c.CorporalCondition != "" {
		rows = append(rows, [2]string{"Body condition", c.CorporalCondition})
	}
	if c.BrucellosisDiagnosis != "" {
		rows = append(rows, [2]string{"Brucellosis diagnosis", c.BrucellosisDiagnosis})
	}
	if len(c.Geolocation) > 0 {
		points := make([]string, 0, len(c.Geolocation))
		for _, p := range c.Geolocation {
			points = append(points, fmt.Sprintf("%.6f, %.6f", p.Lat, p.Lng))
		}
		rows = append(rows, [2]string{"Geolocation", strings.Join(points, "; ")})
	}
	if c.Comments != "" {
		rows = append(rows, [2]string{"Comments", c.Comments})
	}
	return rows
}

func certificationDate(rc documents.RenderContext) time.Time {
	if rc.Certification.DataTakenAt != nil {
		return *rc.Certification.DataTakenAt
	}
	return rc.Certification.CreatedAt
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

func humanize(s string) string {
	if s == "" {
		return notAvailable
	}
	s = strings.ReplaceAll(s, "_", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func formatWeight(kg float64) string {
	if kg <= 0 {
		return notAvailable
	}
	return strconv.FormatFloat(kg, 'f', -1, 64) + " kg"
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return notAvailable
	}
	return t.Format("January 2, 2006")
}
