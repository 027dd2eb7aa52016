package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// MaxQuality is the JPEG quality used for re-encoding published frames. The
// camera already compressed once; a second lossy pass should lose as little
// as possible.
const MaxQuality = 100

// Decode parses encoded JPEG bytes into a pixel buffer.
func Decode(data []byte) (image.Image, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("jpeg decode: %w", err)
	}
	return img, nil
}

// Resize scales an image to width x height using nearest-neighbor sampling.
// Only the spatial resolution changes, never the pixel format.
func Resize(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// Grayscale zeroes the saturation of an image: every pixel becomes its
// Rec. 709 luminance written back to all three channels. The result stays
// RGBA, visually monochrome but with the channel depth unchanged.
func Grayscale(img image.Image) image.Image {
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()

			// Rec. 709 luma coefficients scaled to 1<<16.
			lum := (13933*r + 46871*g + 4732*b) >> 16
			gray := uint8(lum >> 8)

			offset := dst.PixOffset(x, y)
			dst.Pix[offset+0] = gray
			dst.Pix[offset+1] = gray
			dst.Pix[offset+2] = gray
			dst.Pix[offset+3] = uint8(a >> 8)
		}
	}

	return dst
}

// EncodeJPEG re-encodes a pixel buffer as JPEG at the given quality (1-100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	return buf.Bytes(), nil
}
