package qr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresets(t *testing.T) {
	assert.Equal(t, []string{"classic", "midnight", "rounded"}, PresetNames())

	renderer := NewRenderer(RendererConfig{})
	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			opts, ok := Preset(name)
			require.True(t, ok)
			require.NoError(t, opts.Validate())
			assert.Nil(t, opts.Logo)

			data, err := renderer.ExportPNG("preset "+name, opts, 1)
			require.NoError(t, err)
			decode := decodePNG
			if fg, _ := ParseColor(opts.Foreground); fg.R > 128 {
				decode = decodeInvertedPNG
			}
			assert.Equal(t, "preset "+name, decode(t, data))
		})
	}

	_, ok := Preset("neon")
	assert.False(t, ok)
}

func TestPreset_ReturnsCopy(t *testing.T) {
	opts, ok := Preset("midnight")
	require.True(t, ok)
	opts.SizePx = 1

	again, _ := Preset("midnight")
	assert.Equal(t, 512, again.SizePx)
}
