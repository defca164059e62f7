package imaging

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRRendererPNG(t *testing.T) {
	r := NewQRRenderer(QRConfig{Margin: 8})

	data, err := r.PNG(`{"type":"user","userId":1,"utorid":"user0001"}`, 200)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestQRRendererClampsSize(t *testing.T) {
	r := NewQRRenderer(QRConfig{})

	data, err := r.PNG("hello", 5000)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, MaxQRSize, img.Bounds().Dx())
}

func TestQRRendererEmpty(t *testing.T) {
	_, err := NewQRRenderer(QRConfig{}).PNG("", 0)
	assert.ErrorIs(t, err, ErrEmptyContent)
}
