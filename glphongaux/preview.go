package glphongaux

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glphong"
)

// PreviewDistance is the view space distance from the camera to the center of the preview sphere.
const PreviewDistance = 3

// RenderPreview shades a unit sphere centered at (0, 0, -PreviewDistance) in
// view space with m evaluated on the CPU, seen orthographically by a camera at
// the origin looking down -Z. Pixels off the sphere are left untouched. The
// material must be built with its current lights.
func RenderPreview(m *glphong.PhongMaterial, img *image.RGBA) error {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return errors.New("empty preview image")
	}
	inv := 2 / float32(min(w, h))
	for j := range h {
		y := 1 - (float32(j)+0.5)*inv
		for i := range w {
			x := (float32(i)+0.5)*inv - 1
			r2 := x*x + y*y
			if r2 > 1 {
				continue
			}
			normal := ms3.Vec{X: x, Y: y, Z: math32.Sqrt(1 - r2)}
			pos := ms3.Add(normal, ms3.Vec{Z: -PreviewDistance})
			shade, err := m.ShadeCPU(normal, ms3.Scale(-1, pos))
			if err != nil {
				return err
			}
			img.SetRGBA(bounds.Min.X+i, bounds.Min.Y+j, toRGBA(shade.Color))
		}
	}
	return nil
}

// RenderPreviewPNGFile renders a preview of m as in [RenderPreview] to a square PNG file.
func RenderPreviewPNGFile(filename string, m *glphong.PhongMaterial, size int) error {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	err := RenderPreview(m, img)
	if err != nil {
		return err
	}
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	err = png.Encode(fp, img)
	if err != nil {
		return err
	}
	return fp.Sync()
}

// toRGBA clamps c to [0,1] for display. Material colors themselves are never clamped.
func toRGBA(c [4]float32) color.RGBA {
	var out [4]uint8
	for i, v := range c {
		if math32.IsNaN(v) {
			return color.RGBA{R: 255, A: 255}
		}
		out[i] = uint8(math32.Round(255 * math32.Max(0, math32.Min(1, v))))
	}
	return color.RGBA{R: out[0], G: out[1], B: out[2], A: out[3]}
}
