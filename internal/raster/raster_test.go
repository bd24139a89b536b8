package raster

import (
	"bytes"
	"image"
	"image/color"
	"log"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"mesh-dismember/internal/dismember"
	"mesh-dismember/internal/humanoid"
	"mesh-dismember/internal/mathutil"
	"mesh-dismember/internal/rig"
)

type stubResolver map[string]*image.NRGBA

func (s stubResolver) Resolve(name string) *image.NRGBA { return s[name] }

func TestTriangleDepthTest(t *testing.T) {
	fb := NewFrameBuffer(8, 8)
	l := DefaultLight()
	n := mathutil.Vec3{0, 0, 1}
	far := Surface{Color: [4]uint8{0, 0, 255, 255}}
	near := Surface{Color: [4]uint8{255, 0, 0, 255}}

	fb.Triangle(Vertex{X: 0, Y: 0, Z: 1}, Vertex{X: 8, Y: 0, Z: 1}, Vertex{X: 0, Y: 8, Z: 1}, n, near, &l)
	fb.Triangle(Vertex{X: 0, Y: 0}, Vertex{X: 8, Y: 0}, Vertex{X: 0, Y: 8}, n, far, &l)

	px := fb.Color[(1*8+1)*4:]
	if px[0] == 0 || px[2] != 0 {
		t.Errorf("far triangle overwrote near one: %v", px[:4])
	}
	if fb.Coverage() == 0 || fb.Coverage() == 64 {
		t.Errorf("coverage %d, want a partial triangle", fb.Coverage())
	}
}

func TestTriangleSkipsTransparentTexels(t *testing.T) {
	tex := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	fb := NewFrameBuffer(4, 4)
	l := DefaultLight()
	fb.Triangle(Vertex{}, Vertex{X: 4}, Vertex{Y: 4}, mathutil.Vec3{0, 0, 1}, Surface{Tex: tex}, &l)
	if fb.Coverage() != 0 {
		t.Errorf("transparent texture drew %d pixels", fb.Coverage())
	}
}

func TestSampleWraps(t *testing.T) {
	tex := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	tex.SetNRGBA(0, 0, color.NRGBA{100, 0, 0, 255})
	tex.SetNRGBA(1, 0, color.NRGBA{200, 0, 0, 255})
	if got := Sample(tex, 0, 0); got[0] != 100 {
		t.Errorf("Sample(0,0) = %v", got)
	}
	if got := Sample(tex, -0.5, 0); got[0] != 150 {
		t.Errorf("Sample(-0.5,0) = %v, want the wrapped midpoint", got)
	}
	if got := AverageColor(tex); got != [4]uint8{150, 0, 0, 255} {
		t.Errorf("AverageColor = %v", got)
	}
}

func TestRenderEmpty(t *testing.T) {
	img := Render(nil, nil, Options{Size: 16})
	if img.Bounds().Dx() != 16 {
		t.Fatalf("size %v", img.Bounds())
	}
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			t.Fatalf("empty scene drew pixels")
		}
	}
}

func TestRenderCutCube(t *testing.T) {
	c, err := rig.Cube().Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	capMat := &dismember.Material{Name: "cap", Texture: "flesh"}
	e, err := dismember.New(c, c, dismember.StaticMaterial{Material: capMat},
		dismember.Config{Logger: log.New(&bytes.Buffer{}, "", 0)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := e.Cut(dismember.Request{Joint: humanoid.LeftUpperArm, Threshold: 0.5}); err != nil {
		t.Fatalf("Cut: %v", err)
	}

	flesh := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	flesh.SetNRGBA(0, 0, color.NRGBA{220, 30, 30, 255})
	items := Scene(c, e.Fragments(), 2)
	if len(items) != 2 {
		t.Fatalf("scene has %d items", len(items))
	}
	if items[1].Placement == mgl32.Ident4() {
		t.Errorf("fragment was not pushed away from the body")
	}

	img := Render(items, stubResolver{"flesh": flesh}, Options{Size: 64, Supersample: 2})
	if img.Bounds().Dx() != 128 {
		t.Fatalf("buffer size %v", img.Bounds())
	}
	covered := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			covered++
		}
	}
	if covered == 0 {
		t.Fatalf("nothing rendered")
	}
}

func TestRenderSmallSizesKeepSubject(t *testing.T) {
	c, err := rig.Cube().Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, tc := range []struct{ size, ss int }{{8, 1}, {16, 2}, {32, 1}, {32, 3}} {
		img := Render(Scene(c, nil, 0), nil, Options{Size: tc.size, Supersample: tc.ss})
		covered := 0
		for i := 3; i < len(img.Pix); i += 4 {
			if img.Pix[i] != 0 {
				covered++
			}
		}
		// The default margin must shrink with the image instead of swallowing it.
		if total := len(img.Pix) / 4; covered < total/10 {
			t.Errorf("size %d x%d: %d of %d pixels covered", tc.size, tc.ss, covered, total)
		}
	}
}
