package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

// testImage builds a solid-color RGBA image.
func testImage(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := testImage(32, 24, color.RGBA{R: 200, G: 50, B: 10, A: 255})

	data, err := EncodeJPEG(src, MaxQuality)
	assert.NoError(t, err)
	assert.NotEmpty(t, data)

	decoded, err := Decode(data)
	assert.NoError(t, err)
	assert.Equal(t, 32, decoded.Bounds().Dx())
	assert.Equal(t, 24, decoded.Bounds().Dy())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("definitely not a jpeg"))
	assert.Error(t, err)
}

func TestResize(t *testing.T) {
	src := testImage(800, 600, color.RGBA{R: 128, G: 128, B: 128, A: 255})

	dst := Resize(src, 640, 480)
	assert.Equal(t, 640, dst.Bounds().Dx())
	assert.Equal(t, 480, dst.Bounds().Dy())
}

func TestResizeUpscale(t *testing.T) {
	src := testImage(320, 240, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	dst := Resize(src, 1280, 960)
	assert.Equal(t, 1280, dst.Bounds().Dx())
	assert.Equal(t, 960, dst.Bounds().Dy())
}

func TestGrayscaleEqualizesChannels(t *testing.T) {
	src := testImage(4, 4, color.RGBA{R: 255, G: 0, B: 0, A: 255})

	gray := Grayscale(src)
	r, g, b, a := gray.At(2, 2).RGBA()
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
	assert.Equal(t, uint32(0xffff), a)

	// Pure red maps to the Rec. 709 red coefficient, well below mid-gray.
	assert.Less(t, r, uint32(0x8000))
	assert.Greater(t, r, uint32(0))
}

func TestGrayscaleKeepsDimensions(t *testing.T) {
	src := testImage(17, 9, color.RGBA{R: 40, G: 90, B: 200, A: 255})

	gray := Grayscale(src)
	assert.Equal(t, src.Bounds(), gray.Bounds())
}
