package setup

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Badsnus/qrstudio/internal/adapters/controller/http/handlers"
	"github.com/Badsnus/qrstudio/internal/domain/common/errorz"
	"github.com/Badsnus/qrstudio/internal/domain/dto"
	"github.com/Badsnus/qrstudio/internal/domain/entity"
	"github.com/Badsnus/qrstudio/internal/domain/service"
	"github.com/Badsnus/qrstudio/pkg/logger"
	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
)

type memorySink struct{}

func (memorySink) Name() string { return "memory" }

func (memorySink) Put(_ context.Context, artifact qr.Artifact) (string, error) {
	return "memory://" + artifact.Filename(), nil
}

type memoryStorage struct {
	exports []entity.Export
}

func (m *memoryStorage) Create(_ context.Context, export *entity.Export) (*entity.Export, error) {
	m.exports = append(m.exports, *export)
	return export, nil
}

func (m *memoryStorage) GetByKey(_ context.Context, key string) (*entity.Export, error) {
	for _, e := range m.exports {
		if e.Key == key {
			return &e, nil
		}
	}
	return nil, errorz.ErrExportNotFound
}

func (m *memoryStorage) Count(context.Context) (int64, error) {
	return int64(len(m.exports)), nil
}

func (m *memoryStorage) GetWithPagination(_ context.Context, offset, limit int, _ string) ([]entity.Export, error) {
	if offset >= len(m.exports) {
		return []entity.Export{}, nil
	}
	end := offset + limit
	if end > len(m.exports) {
		end = len(m.exports)
	}
	return m.exports[offset:end], nil
}

func newTestApp(opts Options) *testApp {
	storage := &memoryStorage{}
	svc := service.NewQrService(service.QrServiceConfig{
		Storage:  storage,
		Sinks:    []qr.Sink{memorySink{}},
		Defaults: qr.DefaultOptions(),
	})
	return &testApp{app: New(handlers.New(svc, logger.Nop()), opts), storage: storage}
}

type testApp struct {
	app     *fiber.App
	storage *memoryStorage
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.app.Test(req, 10000)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response, data interface{}) dto.Response {
	t.Helper()
	raw := struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	if data != nil {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return raw.Response
}

func TestHealth(t *testing.T) {
	resp := newTestApp(Options{}).do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decodeEnvelope(t, resp, nil).Success)
}

func TestRender_PNG(t *testing.T) {
	resp := newTestApp(Options{}).do(t, http.MethodPost, "/api/qr", dto.RenderRequest{Content: "https://example.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Len(t, resp.Header.Get("X-QR-Key"), 64)
	assert.Equal(t, "miss", resp.Header.Get("X-QR-Cache"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))
}

func TestRender_SVGWithWarnings(t *testing.T) {
	req := dto.RenderRequest{
		Content: "warn",
		Format:  "svg",
		Logo:    &dto.LogoRequest{Data: []byte("not an image")},
	}
	resp := newTestApp(Options{}).do(t, http.MethodPost, "/api/qr", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("X-QR-Warnings"), "cannot be decoded")
}

func TestRender_Store(t *testing.T) {
	app := newTestApp(Options{})

	resp := app.do(t, http.MethodPost, "/api/qr", dto.RenderRequest{Content: "stored", Format: "svg", Store: true})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var result dto.RenderResult
	envelope := decodeEnvelope(t, resp, &result)
	assert.True(t, envelope.Success)
	assert.Equal(t, []string{"memory://" + result.Key + ".svg"}, result.Locations)

	resp = app.do(t, http.MethodGet, "/api/exports/"+result.Key, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var export entity.Export
	decodeEnvelope(t, resp, &export)
	assert.Equal(t, "stored", export.Content)

	resp = app.do(t, http.MethodGet, "/api/exports?offset=0&limit=500", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		Total int64           `json:"total"`
		Limit int             `json:"limit"`
		Items []entity.Export `json:"items"`
	}
	decodeEnvelope(t, resp, &page)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 100, page.Limit)
	assert.Len(t, page.Items, 1)
}

func TestRender_Errors(t *testing.T) {
	app := newTestApp(Options{})
	tests := map[string]struct {
		body   interface{}
		status int
	}{
		"validation":    {body: dto.RenderRequest{Content: "x", Foreground: "nope"}, status: http.StatusBadRequest},
		"missing":       {body: dto.RenderRequest{}, status: http.StatusBadRequest},
		"options":       {body: dto.RenderRequest{Content: "x", SizePx: 100, CornerRadiusPx: intPtr(60)}, status: http.StatusBadRequest},
		"too long":      {body: dto.RenderRequest{Content: string(bytes.Repeat([]byte("x"), 2900))}, status: http.StatusRequestEntityTooLarge},
		"not json body": {body: "plain string", status: http.StatusBadRequest},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			resp := app.do(t, http.MethodPost, "/api/qr", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			envelope := decodeEnvelope(t, resp, nil)
			assert.False(t, envelope.Success)
			assert.NotEmpty(t, envelope.Error)
		})
	}
}

func TestExports_NotFoundAndBadPaging(t *testing.T) {
	app := newTestApp(Options{})

	resp := app.do(t, http.MethodGet, "/api/exports/unknown", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = app.do(t, http.MethodGet, "/api/exports?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPresets(t *testing.T) {
	resp := newTestApp(Options{}).do(t, http.MethodGet, "/api/qr/presets", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var presets []dto.Preset
	decodeEnvelope(t, resp, &presets)
	require.Len(t, presets, 3)
	assert.Equal(t, "classic", presets[0].Name)
}

func TestRateLimit(t *testing.T) {
	app := newTestApp(Options{RateLimit: 2, RateWindow: time.Minute})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/health", nil).StatusCode)
	}
	assert.Equal(t, http.StatusTooManyRequests, app.do(t, http.MethodGet, "/health", nil).StatusCode)
}

func TestUnknownRoute(t *testing.T) {
	resp := newTestApp(Options{}).do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func intPtr(v int) *int {
	return &v
}
