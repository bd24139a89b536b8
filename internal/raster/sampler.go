package raster

import "image"

// Sample returns the bilinearly filtered texel at (u, v), wrapping both coordinates.
func Sample(tex *image.NRGBA, u, v float64) [4]uint8 {
	w, h := tex.Rect.Dx(), tex.Rect.Dy()
	if w == 0 || h == 0 {
		return [4]uint8{}
	}

	u -= float64(int(u))
	if u < 0 {
		u++
	}
	v -= float64(int(v))
	if v < 0 {
		v++
	}

	fx := u * float64(w-1)
	fy := v * float64(h-1)
	x0, y0 := int(fx), int(fy)
	x1, y1 := (x0+1)%w, (y0+1)%h
	dx, dy := fx-float64(x0), fy-float64(y0)

	row0 := tex.Pix[y0*tex.Stride:]
	row1 := tex.Pix[y1*tex.Stride:]
	w00 := (1 - dx) * (1 - dy)
	w10 := dx * (1 - dy)
	w01 := (1 - dx) * dy
	w11 := dx * dy

	var out [4]uint8
	for c := 0; c < 4; c++ {
		f := float64(row0[x0*4+c])*w00 + float64(row0[x1*4+c])*w10 +
			float64(row1[x0*4+c])*w01 + float64(row1[x1*4+c])*w11
		out[c] = uint8(f + 0.5)
	}
	return out
}

// AverageColor returns the mean opaque color of tex, used where a triangle has no UVs.
func AverageColor(tex *image.NRGBA) [4]uint8 {
	b := tex.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return DefaultColor
	}
	var sum [3]float64
	for y := 0; y < h; y++ {
		row := tex.Pix[y*tex.Stride:]
		for x := 0; x < w; x++ {
			sum[0] += float64(row[x*4])
			sum[1] += float64(row[x*4+1])
			sum[2] += float64(row[x*4+2])
		}
	}
	n := float64(w * h)
	return [4]uint8{uint8(sum[0]/n + 0.5), uint8(sum[1]/n + 0.5), uint8(sum[2]/n + 0.5), 255}
}
