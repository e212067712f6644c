package render

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cattle-certification-api-server/internal/documents"
	"cattle-certification-api-server/internal/models"
)

func renderContext() documents.RenderContext {
	taken := time.Date(2024, 12, 2, 10, 30, 0, 0, time.UTC)
	pregnant := true
	return documents.RenderContext{
		Request:  models.CertificationRequest{ID: "req-1", Address: "Ruta 3 km 120"},
		Producer: models.ProducerProfile{Name: "Estancia La Paz", CUIGNumber: "AB123", RenspaNumber: "01.001.0.00001/00"},
		Vet:      models.VetProfile{FirstName: "Ana", LastName: "Gómez", LicenseNumber: "MP-4411"},
		Locality: models.Locality{Name: "Tandil"},
		Lot:      models.CertifiedLot{ID: "lot-1"},
		Certification: models.CattleCertification{
			ID:               "cert-1",
			CUIGCode:         "AR0001",
			Gender:           models.GenderFemale,
			Category:         models.CategoryWeanedHeifer,
			DentalChronology: "full_dentition",
			EstimatedWeight:  412.5,
			Pregnant:         &pregnant,
			DataTakenAt:      &taken,
			Geolocation:      []models.GeoPoint{{Lat: -37.32, Lng: -59.13}},
		},
		IssuedAt: taken,
	}
}

func TestRenderProducesDeterministicPDF(t *testing.T) {
	r := NewPDFRenderer()
	rc := renderContext()

	first, err := r.Render(context.Background(), rc)
	require.NoError(t, err)
	second, err := r.Render(context.Background(), rc)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(first, []byte("%PDF-")))
	assert.Equal(t, models.HashContent(first), models.HashContent(second))
}

func TestRenderDiffersPerObservation(t *testing.T) {
	r := NewPDFRenderer()
	a := renderContext()
	b := renderContext()
	b.Certification.CUIGCode = "AR0002"

	pa, err := r.Render(context.Background(), a)
	require.NoError(t, err)
	pb, err := r.Render(context.Background(), b)
	require.NoError(t, err)
	assert.NotEqual(t, models.HashContent(pa), models.HashContent(pb))
}

func TestRenderToleratesUnreadablePhoto(t *testing.T) {
	rc := renderContext()
	rc.Photo = []byte("not an image")

	out, err := NewPDFRenderer().Render(context.Background(), rc)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
