package preview

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Opaque returns the bounds of pixels with nonzero alpha, or an empty rectangle.
func Opaque(img *image.NRGBA) image.Rectangle {
	b := img.Bounds()
	box := image.Rectangle{}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.Pix[img.PixOffset(x, y)+3] == 0 {
				continue
			}
			box = box.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return box
}

// Frame crops img to its opaque pixels and centers them on a transparent size x size
// canvas, scaled so the longer side covers fill of the canvas.
func Frame(img *image.NRGBA, size int, fill float64) *image.NRGBA {
	canvas := image.NewNRGBA(image.Rect(0, 0, size, size))
	box := Opaque(img)
	if box.Empty() {
		return canvas
	}
	if fill <= 0 || fill > 1 {
		fill = 1
	}

	scale := float64(size) * fill / math.Max(float64(box.Dx()), float64(box.Dy()))
	w := max(int(float64(box.Dx())*scale+0.5), 1)
	h := max(int(float64(box.Dy())*scale+0.5), 1)
	at := image.Pt((size-w)/2, (size-h)/2)
	draw.Draw(canvas, image.Rectangle{Min: at, Max: at.Add(image.Pt(w, h))}, resample(img, box, w, h), image.Point{}, draw.Src)
	return canvas
}
