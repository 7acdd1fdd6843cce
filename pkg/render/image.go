// Package render turns pipeline outputs (point sets, slices, overlay
// masks) into files a viewer can open: JPEG slice images, binary PLY
// point clouds and an ECharts 3D scatter page. All color and opacity
// choices live here, never in the pipeline packages.
package render

import (
	"image"
	"image/color"
	"image/jpeg"
	"os"

	"mrivolviz/pkg/slicer"
)

// jpegQuality matches typical medical preview output quality.
const jpegQuality = 90

// overlayColor is the highlight used for the high-intensity region on
// slice images.
var overlayColor = color.RGBA{R: 255, G: 48, B: 48, A: 255}

// SliceImage renders a normalized slice as a grayscale image with the
// overlay mask composited on top in red. Slice values are expected in
// [0, 1]; out-of-range values are clamped.
func SliceImage(s *slicer.Slice, m *slicer.Mask) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.Cols, s.Rows))
	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			if m != nil && m.At(r, c) {
				img.SetRGBA(c, r, overlayColor)
				continue
			}
			v := s.At(r, c)
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			g := uint8(v * 255)
			img.SetRGBA(c, r, color.RGBA{R: g, G: g, B: g, A: 255})
		}
	}
	return img
}

// SaveSliceJPEG writes the composited slice image to a JPEG file.
func SaveSliceJPEG(s *slicer.Slice, m *slicer.Mask, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, SliceImage(s, m), &jpeg.Options{Quality: jpegQuality})
}
