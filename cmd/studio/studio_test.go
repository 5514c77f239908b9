package studio

import (
	"context"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Badsnus/qrstudio/internal/adapters/config"
	"github.com/Badsnus/qrstudio/pkg/logger"
	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.Config{}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestRenderDefaults(t *testing.T) {
	opts, err := RenderDefaults(config.Render{
		SizePx:          512,
		Foreground:      "navy",
		Background:      "#fff",
		CornerRadiusPx:  4,
		MarginModules:   2,
		ErrorCorrection: "q",
	})
	require.NoError(t, err)
	assert.Equal(t, 512, opts.SizePx)
	assert.Equal(t, "navy", opts.Foreground)
	assert.Equal(t, 4, opts.CornerRadiusPx)
	assert.Equal(t, 2.0, opts.MarginModules)
	assert.Equal(t, qr.ECLevelQ, opts.ErrorCorrection)
	assert.Nil(t, opts.Logo)

	opts, err = RenderDefaults(config.Render{})
	require.NoError(t, err)
	assert.Equal(t, qr.DefaultOptions().SizePx, opts.SizePx)
}

func TestRenderDefaults_Invalid(t *testing.T) {
	for name, cfg := range map[string]config.Render{
		"level":  {ErrorCorrection: "X"},
		"color":  {Foreground: "not-a-color"},
		"radius": {SizePx: 100, CornerRadiusPx: 80},
		"margin": {MarginModules: -1},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := RenderDefaults(cfg)
			assert.Error(t, err)
		})
	}
}

func TestNew_HTTPOnly(t *testing.T) {
	cfg := &config.Config{
		HTTP: config.HTTP{Enabled: true, Host: "127.0.0.1", BodyLimitBytes: 1 << 20},
	}
	s, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, s.Bot())
	require.NotNil(t, s.App())
	require.NotNil(t, s.QrService)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestStart_NothingConfigured(t *testing.T) {
	s, err := New(context.Background(), &config.Config{})
	require.NoError(t, err)
	assert.Nil(t, s.App())
	assert.Error(t, s.Start(context.Background()))
}
