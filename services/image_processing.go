package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"net/http"

	"wardrobeapi/stylist"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// MaxPhotoDimension bounds the stored garment photo on its longer side.
	MaxPhotoDimension = 1024
	photoJPEGQuality  = 85

	whitenThreshold uint8 = 240
	whitenBlurSigma       = 4.0
)

var allowedPhotoMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

func decodePhoto(data []byte) (image.Image, error) {
	detected := http.DetectContentType(data)
	if !allowedPhotoMIME[detected] {
		return nil, fmt.Errorf("unsupported image format: %s", detected)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func luminance(r8, g8, b8 uint8) float64 {
	return 0.299*float64(r8) + 0.587*float64(g8) + 0.114*float64(b8)
}

func rgb8(c color.Color) (uint8, uint8, uint8, uint8) {
	r, g, b, a := c.RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)
}

// WhitenBackgroundFeathered blends bright pixels towards white between the two
// thresholds. The central area given by centralProtectionRatio is never touched.
func WhitenBackgroundFeathered(imageBytes []byte, lowerThreshold, upperThreshold uint8, centralProtectionRatio float64) ([]byte, error) {
	if lowerThreshold >= upperThreshold {
		return nil, fmt.Errorf("lowerThreshold must be less than upperThreshold")
	}
	if centralProtectionRatio < 0.0 || centralProtectionRatio > 1.0 {
		return nil, fmt.Errorf("centralProtectionRatio must be between 0.0 and 1.0")
	}

	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	newImg := image.NewRGBA(image.Rect(0, 0, width, height))

	protectedWidth := int(float64(width) * centralProtectionRatio)
	protectedHeight := int(float64(height) * centralProtectionRatio)
	x0 := (width - protectedWidth) / 2
	y0 := (height - protectedHeight) / 2
	x1 := x0 + protectedWidth
	y1 := y0 + protectedHeight

	transitionRange := float64(upperThreshold - lowerThreshold)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			originalColor := img.At(bounds.Min.X+x, bounds.Min.Y+y)

			if x >= x0 && x < x1 && y >= y0 && y < y1 {
				newImg.Set(x, y, originalColor)
				continue
			}

			r8, g8, b8, a8 := rgb8(originalColor)
			lum := luminance(r8, g8, b8)

			switch {
			case lum <= float64(lowerThreshold):
				newImg.Set(x, y, originalColor)
			case lum >= float64(upperThreshold):
				newImg.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: a8})
			default:
				blend := (lum - float64(lowerThreshold)) / transitionRange
				mix := func(c uint8) uint8 {
					return uint8(math.Round(float64(c)*(1.0-blend) + 255.0*blend))
				}
				newImg.Set(x, y, color.RGBA{R: mix(r8), G: mix(g8), B: mix(b8), A: a8})
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, newImg); err != nil {
		return nil, fmt.Errorf("failed to encode image to png: %w", err)
	}
	return buf.Bytes(), nil
}

// whitenSmooth composites img over white through a blurred background mask,
// which gives soft edges instead of a hard cut-out.
func whitenSmooth(img image.Image, threshold uint8, blurSigma float64) *image.NRGBA {
	src := imaging.Clone(img)
	bounds := src.Bounds()

	mask := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r8, g8, b8, _ := rgb8(src.At(x, y))
			if luminance(r8, g8, b8) >= float64(threshold) {
				mask.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	blurred := imaging.Blur(mask, blurSigma)

	out := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := src.At(x, y).RGBA()
			m, _, _, _ := blurred.At(x-bounds.Min.X, y-bounds.Min.Y).RGBA()
			// white in the mask is background
			keep := 1.0 - float64(m)/65535.0
			blend := func(c uint32) uint8 {
				return uint8((float64(c)*keep + 65535.0*(1.0-keep)) / 257)
			}
			out.SetNRGBA(x, y, color.NRGBA{R: blend(r), G: blend(g), B: blend(b), A: uint8(a / 257)})
		}
	}
	return out
}

// WhitenBackgroundSmooth replaces a bright studio background with clean white and returns a PNG.
func WhitenBackgroundSmooth(imageBytes []byte, threshold uint8, blurSigma float64) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, whitenSmooth(img, threshold, blurSigma)); err != nil {
		return nil, fmt.Errorf("failed to encode final image: %w", err)
	}
	return buf.Bytes(), nil
}

// downscale keeps the aspect ratio and never upsizes.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}
	newW = max(newW, 1)
	newH = max(newH, 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// PrepareGarmentPhoto downsizes an upload and optionally whitens its background.
// The result is always a JPEG.
func PrepareGarmentPhoto(data []byte, whiten bool) ([]byte, error) {
	img, err := decodePhoto(data)
	if err != nil {
		return nil, err
	}
	img = downscale(img, MaxPhotoDimension)
	if whiten {
		img = whitenSmooth(img, whitenThreshold, whitenBlurSigma)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: photoJPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// relativeRect picks a region by fractions of the image size.
func relativeRect(b image.Rectangle, x0, y0, x1, y1 float64) image.Rectangle {
	w, h := float64(b.Dx()), float64(b.Dy())
	return image.Rect(
		b.Min.X+int(w*x0), b.Min.Y+int(h*y0),
		b.Min.X+int(w*x1), b.Min.Y+int(h*y1),
	)
}

func meanRGB(img image.Image) (stylist.RGB, bool) {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return stylist.RGB{}, false
	}
	var sr, sg, sb int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r8, g8, b8, _ := rgb8(img.At(x, y))
			sr += int(r8)
			sg += int(g8)
			sb += int(b8)
		}
	}
	return stylist.RGB{R: sr / n, G: sg / n, B: sb / n}, true
}

// DominantCenterColor averages the middle 40% of the photo, where the garment usually sits.
func DominantCenterColor(data []byte) (string, error) {
	img, err := decodePhoto(data)
	if err != nil {
		return "", err
	}
	center := imaging.Crop(img, relativeRect(img.Bounds(), 0.3, 0.3, 0.7, 0.7))
	avg, ok := meanRGB(center)
	if !ok {
		return "", fmt.Errorf("image too small to sample")
	}
	return avg.Hex(), nil
}

// hsvStats returns mean saturation and value on the 0..255 scale.
func hsvStats(img image.Image) (float64, float64, bool) {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0, 0, false
	}
	var sumS, sumV float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r8, g8, b8, _ := rgb8(img.At(x, y))
			hi := max(r8, g8, b8)
			lo := min(r8, g8, b8)
			if hi > 0 {
				sumS += 255 * float64(hi-lo) / float64(hi)
			}
			sumV += float64(hi)
		}
	}
	return sumS / float64(n), sumV / float64(n), true
}

func meanGray(img image.Image) (float64, bool) {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0, false
	}
	var sum float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r8, g8, b8, _ := rgb8(img.At(x, y))
			sum += luminance(r8, g8, b8)
		}
	}
	return sum / float64(n), true
}

// SampleSkin measures a selfie that is framed with the face in the middle.
// Skin is read from the cheeks of the face box and hair from the band above it.
func SampleSkin(data []byte) (stylist.SkinSample, error) {
	img, err := decodePhoto(data)
	if err != nil {
		return stylist.SkinSample{}, err
	}
	src := imaging.Clone(img)
	face := relativeRect(src.Bounds(), 0.2, 0.2, 0.8, 0.8)
	if face.Dx() < 4 || face.Dy() < 4 {
		return stylist.SkinSample{}, fmt.Errorf("selfie too small to sample")
	}

	fw, fh := face.Dx(), face.Dy()
	skinRegion := image.Rect(
		face.Min.X+int(float64(fw)*0.3), face.Min.Y+int(float64(fh)*0.3),
		face.Min.X+int(float64(fw)*0.7), face.Min.Y+int(float64(fh)*0.6),
	)
	saturation, value, ok := hsvStats(imaging.Crop(src, skinRegion))
	if !ok {
		return stylist.SkinSample{}, fmt.Errorf("empty skin region")
	}

	hairTop := max(src.Bounds().Min.Y, face.Min.Y-int(float64(fh)*0.4))
	hairValue, ok := meanGray(imaging.Crop(src, image.Rect(face.Min.X, hairTop, face.Max.X, face.Min.Y)))
	if !ok {
		hairValue = value
	}

	return stylist.SkinSample{
		Value:      value,
		Saturation: saturation,
		Contrast:   math.Abs(value - hairValue),
	}, nil
}
