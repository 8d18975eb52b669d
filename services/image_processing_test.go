package services

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"wardrobeapi/stylist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// garmentPhoto is a light grey studio background with a solid garment in the middle.
func garmentPhoto(w, h int, garment color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{R: 245, G: 245, B: 245, A: 255}
			if x >= w/4 && x < w*3/4 && y >= h/4 && y < h*3/4 {
				c = garment
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestDominantCenterColor(t *testing.T) {
	data := encodePNG(t, garmentPhoto(100, 100, color.RGBA{R: 0, G: 0, B: 128, A: 255}))
	hex, err := DominantCenterColor(data)
	require.NoError(t, err)
	assert.Equal(t, "#000080", hex)
	assert.Equal(t, "Navy", stylist.NearestColorName(hex))

	_, err = DominantCenterColor([]byte("plain text"))
	assert.Error(t, err)
}

func TestPrepareGarmentPhotoDownscales(t *testing.T) {
	data := encodePNG(t, garmentPhoto(2048, 1024, color.RGBA{R: 200, G: 30, B: 30, A: 255}))
	out, err := PrepareGarmentPhoto(data, false)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, MaxPhotoDimension, img.Bounds().Dx())
	assert.Equal(t, 512, img.Bounds().Dy())
}

func TestPrepareGarmentPhotoWhitensBackground(t *testing.T) {
	data := encodePNG(t, garmentPhoto(64, 64, color.RGBA{R: 20, G: 20, B: 20, A: 255}))
	out, err := PrepareGarmentPhoto(data, true)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	r, g, b, _ := img.At(1, 1).RGBA()
	assert.Greater(t, r>>8, uint32(250))
	assert.Greater(t, g>>8, uint32(250))
	assert.Greater(t, b>>8, uint32(250))
	// the garment itself stays dark
	r, _, _, _ = img.At(32, 32).RGBA()
	assert.Less(t, r>>8, uint32(60))
}

func TestPrepareGarmentPhotoRejectsNonImages(t *testing.T) {
	_, err := PrepareGarmentPhoto([]byte("%PDF-1.4"), false)
	assert.Error(t, err)
}

func TestWhitenBackgroundFeathered(t *testing.T) {
	data := encodePNG(t, garmentPhoto(40, 40, color.RGBA{R: 10, G: 10, B: 10, A: 255}))
	out, err := WhitenBackgroundFeathered(data, 200, 240, 0.2)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	r, _, _, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(255), r>>8)

	_, err = WhitenBackgroundFeathered(data, 240, 200, 0.2)
	assert.Error(t, err)
	_, err = WhitenBackgroundFeathered(data, 200, 240, 1.5)
	assert.Error(t, err)
}

func TestWhitenBackgroundSmooth(t *testing.T) {
	data := encodePNG(t, garmentPhoto(40, 40, color.RGBA{R: 10, G: 10, B: 10, A: 255}))
	out, err := WhitenBackgroundSmooth(data, 240, 2)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	r, _, _, _ := img.At(0, 0).RGBA()
	assert.Greater(t, r>>8, uint32(250))
}

func TestSampleSkin(t *testing.T) {
	// dark hair band on top, warm mid-tone face below
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			c := color.RGBA{R: 200, G: 150, B: 100, A: 255}
			if y < 20 {
				c = color.RGBA{R: 30, G: 30, B: 30, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	sample, err := SampleSkin(encodePNG(t, img))
	require.NoError(t, err)
	assert.InDelta(t, 200, sample.Value, 0.01)
	assert.InDelta(t, 127.5, sample.Saturation, 0.01)
	assert.InDelta(t, 170, sample.Contrast, 0.01)

	_, err = SampleSkin([]byte("nope"))
	assert.Error(t, err)
}
