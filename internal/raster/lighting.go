package raster

import (
	"math"

	"mesh-dismember/internal/mathutil"
)

// Light is a fixed three-point studio setup in view space.
type Light struct {
	Key      mathutil.Vec3
	Rim      mathutil.Vec3
	Half     mathutil.Vec3 // Blinn-Phong half vector of Key and the view direction
	Ambient  float64
	Hemi     float64
	Direct   float64
	RimGain  float64
	Specular float64
	Shine    float64
	Exposure float64
	InvGamma float64
}

// DefaultLight returns the preview lighting.
func DefaultLight() Light {
	key := mathutil.Vec3{180, 260, 140}.Normalize()
	view := mathutil.Vec3{0, -110, -400}.Normalize()
	return Light{
		Key:      key,
		Rim:      mathutil.Vec3{-160, 130, -210}.Normalize(),
		Half:     key.Sub(view).Normalize(),
		Ambient:  0.55,
		Hemi:     0.50,
		Direct:   1.50,
		RimGain:  0.60,
		Specular: 0.45,
		Shine:    12,
		Exposure: 1.05,
		InvGamma: 1 / 2.2,
	}
}

// Shade returns the light intensity for a unit face normal. Faces are lit from both sides.
func (l *Light) Shade(n mathutil.Vec3) float64 {
	hemi := ((1-math.Abs(n[1]))*0.5 + 0.5) * l.Hemi
	spec := math.Max(n.Dot(l.Half), 0)
	return l.Ambient + hemi +
		math.Abs(n.Dot(l.Key))*l.Direct +
		math.Abs(n.Dot(l.Rim))*l.RimGain +
		math.Pow(spec, l.Shine)*l.Specular
}

// Apply lights an sRGB color: decode, scale, ACES tone map, encode.
func (l *Light) Apply(c [4]uint8, shade float64) [4]uint8 {
	k := shade * l.Exposure
	return [4]uint8{
		clamp255(math.Pow(aces(srgbToLinear[c[0]]*k), l.InvGamma) * 255),
		clamp255(math.Pow(aces(srgbToLinear[c[1]]*k), l.InvGamma) * 255),
		clamp255(math.Pow(aces(srgbToLinear[c[2]]*k), l.InvGamma) * 255),
		c[3],
	}
}

var srgbToLinear [256]float64

func init() {
	for i := range srgbToLinear {
		srgbToLinear[i] = math.Pow(float64(i)/255, 2.2)
	}
}

// aces is the ACES filmic curve.
func aces(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
