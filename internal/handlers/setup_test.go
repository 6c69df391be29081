package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shipit/shipit-backend/internal/config"
	"github.com/shipit/shipit-backend/internal/database"
	"github.com/shipit/shipit-backend/internal/models"
	"github.com/shipit/shipit-backend/internal/services"
	"github.com/shipit/shipit-backend/pkg/utils"
)

const (
	senderAddr = "0x1111111111111111111111111111111111111111"
	driverAddr = "0x2222222222222222222222222222222222222222"
	otherAddr  = "0x3333333333333333333333333333333333333333"
	escrowAddr = "0x4444444444444444444444444444444444444444"
	testSecret = "test-secret"
)

var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 64)...)
	jpegBytes = append([]byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"), bytes.Repeat([]byte{0}, 64)...)
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	hub    *services.Hub
	cfg    *config.Config
}

type envOption func(*handlersSetup)

type handlersSetup struct {
	reconciler func(db *gorm.DB) *services.Reconciler
	cfg        func(cfg *config.Config)
}

func withReconciler(build func(db *gorm.DB) *services.Reconciler) envOption {
	return func(s *handlersSetup) { s.reconciler = build }
}

func withConfig(mutate func(cfg *config.Config)) envOption {
	return func(s *handlersSetup) { s.cfg = mutate }
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))

	// one connection keeps shared-cache sqlite from reporting table locks
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func setupEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	setup := &handlersSetup{}
	for _, opt := range opts {
		opt(setup)
	}

	db := setupTestDB(t)
	cfg := &config.Config{
		JWTSecret:             testSecret,
		UploadDir:             t.TempDir(),
		BaseURL:               "http://localhost:5006",
		MaxUploadBytes:        5 << 20,
		AVAXPerINR:            0.0003,
		EscrowContractAddress: escrowAddr,
	}
	if setup.cfg != nil {
		setup.cfg(cfg)
	}

	storage, err := services.NewStorage(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := services.NewHub()
	go hub.Run(ctx)

	var reconciler *services.Reconciler
	if setup.reconciler != nil {
		reconciler = setup.reconciler(db)
	}

	r := gin.New()
	RegisterRoutes(r, Deps{
		DB:         db,
		Hub:        hub,
		Storage:    storage,
		Reconciler: reconciler,
		Mailer:     utils.NewMailer(utils.SMTPConfig{}, cfg.BaseURL),
		Config:     cfg,
	})

	return &testEnv{router: r, db: db, hub: hub, cfg: cfg}
}

func (e *testEnv) request(method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) upload(t *testing.T, path, field, filename string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

// seedParcel inserts a pending parcel; mutate adjusts it before insert.
func seedParcel(t *testing.T, db *gorm.DB, mutate func(p *models.Parcel)) *models.Parcel {
	t.Helper()
	p := &models.Parcel{
		SenderAddress:   senderAddr,
		FromAddress:     "Pune Station",
		ToAddress:       "Mumbai Central",
		ItemDescription: "Books",
		ItemValue:       1500,
		SizeTier:        models.SizeMedium,
		FeeInINR:        200,
		Status:          models.ParcelStatusPending,
	}
	if mutate != nil {
		mutate(p)
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func strPtr(s string) *string { return &s }

func reloadParcel(t *testing.T, db *gorm.DB, id uint) models.Parcel {
	t.Helper()
	var p models.Parcel
	require.NoError(t, db.First(&p, id).Error)
	return p
}
