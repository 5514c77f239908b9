package qr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundCorners(t *testing.T) {
	symbol, err := Encode("corners", ECLevelQ, 1)
	require.NoError(t, err)

	t.Run("zero radius is a no-op", func(t *testing.T) {
		img := symbol.Image(240)
		before := serialize(t, img)
		RoundCorners(img, 0)
		assert.Equal(t, before, serialize(t, img))
	})

	t.Run("modules only", func(t *testing.T) {
		img := symbol.Image(240)
		RoundCorners(img, 3)

		modules := elementsWithClass(img, ClassModule)
		require.NotEmpty(t, modules)
		for _, el := range modules {
			assert.Equal(t, "3", el.SelectAttrValue("rx", ""))
			assert.Equal(t, "3", el.SelectAttrValue("ry", ""))
		}
		bg := elementsWithClass(img, ClassBackground)[0]
		assert.Nil(t, bg.SelectAttr("rx"))
	})

	t.Run("repeated calls converge", func(t *testing.T) {
		img := symbol.Image(240)
		RoundCorners(img, 5)
		once := serialize(t, img)
		RoundCorners(img, 5)
		assert.Equal(t, once, serialize(t, img))
	})
}
