package routes_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cattle-certification-api-server/config"
	"cattle-certification-api-server/internal/accounts"
	"cattle-certification-api-server/internal/api/handlers"
	"cattle-certification-api-server/internal/api/routes"
	"cattle-certification-api-server/internal/auth"
	"cattle-certification-api-server/internal/documents"
	"cattle-certification-api-server/internal/events"
	"cattle-certification-api-server/internal/lots"
	"cattle-certification-api-server/internal/models"
	"cattle-certification-api-server/internal/render"
	"cattle-certification-api-server/internal/requests"
	"cattle-certification-api-server/internal/scheduler"
	"cattle-certification-api-server/internal/socket"
	"cattle-certification-api-server/internal/testutil"
)

type server struct {
	t      *testing.T
	env    *testutil.Env
	router *gin.Engine
}

func newServer(t *testing.T) *server {
	gin.SetMode(gin.TestMode)
	env := testutil.NewEnv(t)
	env.Locality(t, "loc-1", "Tandil")

	tokens, err := auth.NewManager("router-secret", time.Hour)
	require.NoError(t, err)
	hub := socket.NewHub(nil)
	publisher := events.HubPublisher{Hub: hub}

	pipeline := documents.NewPipeline(documents.Deps{
		Store:    env.Store,
		Files:    env.Files,
		Renderer: render.NewPDFRenderer(),
		Ledger:   env.Ledger,
		Keys:     env.Keys,
		Events:   publisher,
	})
	router := routes.SetupRouter(routes.Deps{
		Config:   config.Config{},
		Store:    env.Store,
		Tokens:   tokens,
		Accounts: accounts.NewService(env.Store, env.Keys, tokens, nil),
		Requests: requests.NewService(requests.Deps{
			Store:     env.Store,
			Files:     env.Files,
			Scheduler: scheduler.New(env.Store.Vets, env.Store.Requests, time.UTC, nil),
			Events:    publisher,
		}),
		Lots: lots.NewService(lots.Deps{
			Store:    env.Store,
			Files:    env.Files,
			Pipeline: pipeline,
			Events:   publisher,
		}),
		Ledger: env.Ledger,
		Hub:    hub,
	})
	return &server{t: t, env: env, router: router}
}

func (s *server) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	s.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *server) json(method, path, token string, payload any) *httptest.ResponseRecorder {
	s.t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(s.t, err)
	return s.do(method, path, token, bytes.NewReader(b), "application/json")
}

func (s *server) multipart(path, token string, fields map[string]string, files map[string][]byte) *httptest.ResponseRecorder {
	s.t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(s.t, w.WriteField(k, v))
	}
	for k, data := range files {
		fw, err := w.CreateFormFile(k, "lot.png")
		require.NoError(s.t, err)
		_, err = fw.Write(data)
		require.NoError(s.t, err)
	}
	require.NoError(s.t, w.Close())
	return s.do(http.MethodPost, path, token, &body, w.FormDataContentType())
}

// register đăng ký rồi đăng nhập, trả về token.
func (s *server) register(payload map[string]any) string {
	s.t.Helper()
	w := s.json(http.MethodPost, "/api/v1/registrations", "", payload)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	w = s.json(http.MethodPost, "/api/v1/sessions", "", map[string]string{
		"email":    payload["email"].(string),
		"password": payload["password"].(string),
	})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(s.t, resp.Token)
	return resp.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func nextMonday() time.Time {
	today := models.DateOf(time.Now().UTC())
	days := (8 - int(today.Weekday())) % 7
	if days == 0 {
		days = 7
	}
	return today.AddDate(0, 0, days)
}

func TestCertificationFlow(t *testing.T) {
	s := newServer(t)

	producerToken := s.register(map[string]any{
		"role":         "producer",
		"email":        "owner@estancia.test",
		"password":     "pampas-2024",
		"identityCard": "20123456",
		"name":         "Estancia La Aurora",
		"cuigNumber":   "AB123",
		"renspaNumber": "01.001.0.00001/00",
	})
	vetToken := s.register(map[string]any{
		"role":          "veterinarian",
		"email":         "vet@tandil.test",
		"password":      "brucella-2024",
		"identityCard":  "27999888",
		"firstName":     "Ana",
		"lastName":      "Ruiz",
		"licenseNumber": "MP-1001",
		"workSchedule":  map[string]string{"monday": "both", "tuesday": "morning"},
		"localityIDs":   []string{"loc-1"},
	})

	w := s.do(http.MethodGet, "/api/v1/localities", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Locality](t, w), 1)

	monday := nextMonday()
	w = s.multipart("/api/v1/certification_requests", producerToken, map[string]string{
		"address":                    "Ruta 226 km 150",
		"locality_id":                "loc-1",
		"intended_animal_group":      "5",
		"declared_lot_weight":        "420",
		"declared_lot_age":           "18",
		"cattle_breed":               "hereford",
		"preferred_time_range_start": monday.Add(9 * time.Hour).Format(time.RFC3339),
		"preferred_time_range_end":   monday.Add(11 * time.Hour).Format(time.RFC3339),
	}, map[string][]byte{"file": testutil.Photo(t).Data})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.CertificationRequest](t, w)
	assert.Equal(t, models.RequestAssigned, created.Status)
	assert.Equal(t, models.SlotMorning, created.ScheduledTime)

	w = s.do(http.MethodGet, "/api/v1/certification_requests", vetToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	open := decode[[]models.CertificationRequest](t, w)
	require.Len(t, open, 1)
	assert.Equal(t, created.ID, open[0].ID)

	certifyPath := "/api/v1/certification_requests/" + created.ID + "/certify"
	fields := map[string]string{
		"certifications[0][cuig_code]":         "AR0001",
		"certifications[0][gender]":            "female",
		"certifications[0][category]":          "weaned_heifer",
		"certifications[0][dental_chronology]": "permanent_incisors",
		"certifications[0][estimated_weight]":  "310",
		"certifications[0][data_taken_at]":     time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
		"certifications[0][geolocation]":       `[{"lat":-37.32,"lng":-59.13}]`,
	}
	photo := map[string][]byte{"certifications[0][photo]": testutil.Photo(t).Data}

	w = s.multipart(certifyPath, producerToken, fields, photo)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.multipart(certifyPath, vetToken, fields, photo)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	result := decode[lots.Result](t, w)
	assert.Equal(t, models.RequestExecuted, result.Request.Status)
	require.Len(t, result.Documents, 1)
	hash := result.Documents[0].Hash

	w = s.do(http.MethodGet, "/api/v1/certified_lots", producerToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	lotViews := decode[[]lots.LotView](t, w)
	require.Len(t, lotViews, 1)
	require.Len(t, lotViews[0].Certifications, 1)
	doc := lotViews[0].Certifications[0].Document
	require.NotNil(t, doc)
	assert.Equal(t, models.TxConfirmed, doc.TransactionStatus)
	assert.Equal(t, "Polygon Amoy Testnet", doc.NetworkName)

	w = s.do(http.MethodGet, "/api/v1/certification_documents/"+hash+"/verification", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	verification := decode[handlers.VerificationResponse](t, w)
	require.NotNil(t, verification.Verification)
	require.NotNil(t, verification.Document)
	assert.Equal(t, result.Documents[0].ID, verification.Document.ID)

	w = s.do(http.MethodGet, "/api/v1/animals/AR0001/certifications", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = s.json(http.MethodPost, "/api/v1/certification_requests/"+created.ID+"/cancel", producerToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "request_already_finalized")
}

func TestRouterErrors(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodGet, "/api/v1/viewer", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/v1/viewer", "not-a-jwt", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.json(http.MethodPost, "/api/v1/sessions", "", map[string]string{"email": "ghost@test.io", "password": "whatever-1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_credentials")

	w = s.json(http.MethodPost, "/api/v1/registrations", "", map[string]string{"role": "admin", "email": "x@y.z", "password": "12345678", "identityCard": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	unknown := "0x" + strings.Repeat("0", 64)
	w = s.do(http.MethodGet, "/api/v1/certification_documents/"+unknown+"/verification", "", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/v1/certification_documents/not-a-hash/verification", "", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/health", "", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
