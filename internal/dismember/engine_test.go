package dismember_test

import (
	"bytes"
	"log"
	"sort"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"mesh-dismember/internal/dismember"
	"mesh-dismember/internal/humanoid"
	"mesh-dismember/internal/rig"
)

var capMat = dismember.StaticMaterial{Material: &dismember.Material{Name: "cap", Color: [4]float32{0.6, 0, 0, 1}}}

func build(t *testing.T, d *rig.Description) *dismember.Character {
	t.Helper()
	c, err := d.Build()
	if err != nil {
		t.Fatalf("build %s: %v", d.Name, err)
	}
	return c
}

func engine(t *testing.T, c *dismember.Character, cfg dismember.Config) *dismember.Engine {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = log.New(&bytes.Buffer{}, "", 0)
	}
	e, err := dismember.New(c, c, capMat, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func tris(lists ...[][]int) [][3]int {
	var out [][3]int
	for _, subs := range lists {
		for _, l := range subs {
			for i := 0; i+2 < len(l); i += 3 {
				out = append(out, [3]int{l[i], l[i+1], l[i+2]})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[2] < b[2]
	})
	return out
}

func TestCubeEndToEnd(t *testing.T) {
	c := build(t, rig.Cube())
	r := c.Renderer()
	before := tris(r.Mesh.Submeshes)

	calls := 0
	e := engine(t, c, dismember.Config{OnDismembered: func(dismember.Result) { calls++ }})
	res, err := e.Cut(dismember.Request{Joint: humanoid.LeftUpperArm, Threshold: 0.5})
	if err != nil {
		t.Fatalf("Cut: %v", err)
	}
	if !res.OK() || calls != 1 {
		t.Fatalf("result %+v, %d notifications", res, calls)
	}

	frag := res.Root
	outer, inner := r.Mesh.Submeshes, frag.Renderer.Mesh.Submeshes
	after := tris(outer, inner)
	if len(after) != len(before) {
		t.Fatalf("%d triangles after the cut, want %d", len(after), len(before))
	}
	for i := range before {
		if after[i] != before[i] {
			t.Fatalf("triangle %v lost or duplicated", before[i])
		}
	}
	// only the bottom face is entirely Root-weighted
	if got := len(tris(outer)); got != 2 {
		t.Errorf("outer keeps %d triangles, want 2", got)
	}
	for _, tri := range tris(outer) {
		for _, v := range tri {
			if v >= 4 {
				t.Errorf("outer triangle %v uses a Limb vertex", tri)
			}
		}
	}

	if len(r.Children) != 1 || len(frag.Renderer.Children) != 1 {
		t.Fatalf("caps: %d outer, %d inner", len(r.Children), len(frag.Renderer.Children))
	}
	outerCap, innerCap := r.Children[0].Mesh, frag.Renderer.Children[0].Mesh
	if n := outerCap.VertexCount(); n == 0 || n%2 != 0 || n != innerCap.VertexCount() {
		t.Fatalf("cap vertex counts %d / %d", n, innerCap.VertexCount())
	}
	if outerCap.VertexCount() != 16 {
		t.Errorf("cap has %d vertices, want one per edge index (16)", outerCap.VertexCount())
	}
	if r.Children[0].Materials[0] != capMat.Material {
		t.Errorf("outer cap not drawn with the cap material")
	}

	if frag.Skeleton.Nodes[frag.Root].Name != "Limb" {
		t.Errorf("fragment root is %q", frag.Skeleton.Nodes[frag.Root].Name)
	}
	if res.TargetBone < 0 || frag.Skeleton.Nodes[res.TargetBone].Name != "Limb" || res.TargetBone == frag.Root {
		t.Errorf("target bone %d is not the Limb clone", res.TargetBone)
	}
	if frag.Renderer.Binding.Skeleton != frag.Skeleton {
		t.Errorf("inner mesh is not bound to the fragment skeleton")
	}
	if len(frag.Renderer.Binding.Bones) != len(r.Binding.Bones) {
		t.Errorf("fragment bones array has %d slots, want %d", len(frag.Renderer.Binding.Bones), len(r.Binding.Bones))
	}
}

func TestCutIsIdempotent(t *testing.T) {
	c := build(t, rig.Cube())
	calls := 0
	e := engine(t, c, dismember.Config{OnDismembered: func(dismember.Result) { calls++ }})
	req := dismember.Request{Joint: humanoid.LeftUpperArm, Threshold: 0.5}
	if _, err := e.Cut(req); err != nil {
		t.Fatalf("first Cut: %v", err)
	}
	r := c.Renderer()
	subs, children := len(r.Mesh.Submeshes[0]), len(r.Children)

	res, err := e.Cut(req)
	if err != nil {
		t.Fatalf("second Cut: %v", err)
	}
	if res.Status != dismember.StatusAlreadyCut || res.Root != nil || res.TargetBone != -1 {
		t.Fatalf("second cut = %+v", res)
	}
	if len(r.Mesh.Submeshes[0]) != subs || len(r.Children) != children || len(e.Fragments()) != 1 || calls != 1 {
		t.Fatalf("second cut changed state")
	}
}

func TestEmptyCutChangesNothing(t *testing.T) {
	for _, mode := range []dismember.Mode{dismember.ModeMask, dismember.ModeThreshold} {
		t.Run(mode.String(), func(t *testing.T) {
			c := build(t, rig.Cube())
			r := c.Renderer()
			// nothing carries the Head bit; nothing is weighted above 1
			req := dismember.Request{Joint: humanoid.LeftUpperArm, Mode: mode, Bitmask: humanoid.Head.Bit(), Threshold: 1}
			before := append([]int(nil), r.Mesh.Submeshes[0]...)

			e := engine(t, c, dismember.Config{})
			res, err := e.Cut(req)
			if err != nil {
				t.Fatalf("Cut: %v", err)
			}
			if res.Status != dismember.StatusEmptyCut || res.Root != nil {
				t.Fatalf("result = %+v, want empty cut", res)
			}
			if len(r.Mesh.Submeshes) != 1 || len(r.Mesh.Submeshes[0]) != len(before) || len(r.Children) != 0 || len(r.Materials) != 1 {
				t.Fatalf("empty cut mutated the renderer")
			}
			if len(e.Cuts()) != 0 {
				t.Fatalf("empty cut was recorded: %v", e.Cuts())
			}
		})
	}
}

func TestInvalidTargetIsLogged(t *testing.T) {
	c := build(t, rig.Cube())
	var buf bytes.Buffer
	e := engine(t, c, dismember.Config{Logger: log.New(&buf, "", 0)})

	_, err := e.Cut(dismember.Request{Joint: humanoid.Head})
	if !errors.Is(err, dismember.ErrInvalidTarget) {
		t.Fatalf("error = %v, want ErrInvalidTarget", err)
	}
	if !strings.Contains(buf.String(), "Head") {
		t.Errorf("log %q does not name the joint", buf.String())
	}

	c.Human = false
	if _, err := e.Cut(dismember.Request{Joint: humanoid.LeftUpperArm}); !errors.Is(err, dismember.ErrInvalidTarget) {
		t.Fatalf("non-humanoid error = %v", err)
	}
	if _, err := e.CutBone(42, dismember.ModeThreshold, 0.5, 0); !errors.Is(err, dismember.ErrInvalidTarget) {
		t.Fatalf("CutBone(42) error = %v", err)
	}
	if len(c.Renderer().Children) != 0 || len(e.Fragments()) != 0 {
		t.Fatalf("invalid target mutated state")
	}
}

func TestMaskNotConfigured(t *testing.T) {
	asset := humanoid.NewMaskAsset()
	asset.Set(humanoid.Hips, humanoid.Hips.Bit())
	tests := []struct {
		name string
		cfg  dismember.Config
		req  dismember.Request
	}{
		{"no asset", dismember.Config{Mode: dismember.ModeMask}, dismember.Request{Joint: humanoid.LeftUpperArm}},
		{"no entry", dismember.Config{Mode: dismember.ModeMask, MaskAsset: asset}, dismember.Request{Joint: humanoid.LeftUpperArm}},
		{"no channel", dismember.Config{Mode: dismember.ModeMask}, dismember.Request{Joint: humanoid.LeftUpperArm, Bitmask: 1, UVChannel: 3}},
		{"not sliceable", dismember.Config{SliceableOnly: true, Sliceable: []dismember.SliceableJoint{{Joint: humanoid.Hips}}}, dismember.Request{Joint: humanoid.LeftUpperArm}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := build(t, rig.Cube())
			e := engine(t, c, tt.cfg)
			res, err := e.Cut(tt.req)
			if err != nil {
				t.Fatalf("Cut: %v", err)
			}
			if res.Status != dismember.StatusNotConfigured || res.Root != nil {
				t.Fatalf("result = %+v, want not configured", res)
			}
			if len(c.Renderer().Children) != 0 {
				t.Fatalf("unconfigured cut mutated the renderer")
			}
		})
	}
}

func TestMaskCutUsesAsset(t *testing.T) {
	asset := humanoid.NewMaskAsset()
	asset.Set(humanoid.LeftUpperArm, humanoid.LeftUpperArm.Bit())
	c := build(t, rig.Cube())
	e := engine(t, c, dismember.Config{Mode: dismember.ModeMask, MaskAsset: asset})
	res, err := e.Cut(dismember.Request{Joint: humanoid.LeftUpperArm})
	if err != nil || !res.OK() {
		t.Fatalf("Cut = %+v, %v", res, err)
	}
	limb, _ := c.BoneTransform(humanoid.LeftUpperArm)
	if !e.IsCut(dismember.CutRecord{Bone: limb, Mask: humanoid.LeftUpperArm.Bit()}) {
		t.Fatalf("cut record = %v", e.Cuts())
	}
	if got := len(tris(c.Renderer().Mesh.Submeshes)); got != 2 {
		t.Errorf("outer keeps %d triangles, want 2", got)
	}
}

func TestPerJointThreshold(t *testing.T) {
	c := build(t, rig.Cube())
	// a threshold of 1 matches nothing, so the cut must come out empty
	e := engine(t, c, dismember.Config{Sliceable: []dismember.SliceableJoint{{Joint: humanoid.LeftUpperArm, Threshold: 1}}})
	res, err := e.Cut(dismember.Request{Joint: humanoid.LeftUpperArm})
	if err != nil || res.Status != dismember.StatusEmptyCut {
		t.Fatalf("Cut = %+v, %v; want empty cut", res, err)
	}
	// the global default 0.01 does match
	res, err = engine(t, c, dismember.Config{}).Cut(dismember.Request{Joint: humanoid.LeftUpperArm})
	if err != nil || !res.OK() {
		t.Fatalf("Cut = %+v, %v", res, err)
	}
}

func columnAsset() *humanoid.MaskAsset {
	a := humanoid.NewMaskAsset()
	a.Set(humanoid.Chest, humanoid.Chest.Bit())
	a.Set(humanoid.Spine, humanoid.Spine.Bit()|humanoid.Chest.Bit())
	return a
}

func TestMaskOverlapReparentsCap(t *testing.T) {
	c := build(t, rig.Column())
	r := c.Renderer()
	e := engine(t, c, dismember.Config{Mode: dismember.ModeMask, MaskAsset: columnAsset()})

	first, err := e.Cut(dismember.Request{Joint: humanoid.Chest})
	if err != nil || !first.OK() {
		t.Fatalf("Chest cut = %+v, %v", first, err)
	}
	if len(r.Children) != 1 {
		t.Fatalf("%d caps on the character after the first cut", len(r.Children))
	}
	chestCap := r.Children[0]

	second, err := e.Cut(dismember.Request{Joint: humanoid.Spine})
	if err != nil || !second.OK() {
		t.Fatalf("Spine cut = %+v, %v", second, err)
	}
	if len(r.Children) != 1 || r.Children[0] == chestCap {
		t.Fatalf("character still holds the Chest cap")
	}
	found := false
	for _, ch := range second.Root.Renderer.Children {
		if ch == chestCap {
			found = true
		}
	}
	if !found {
		t.Fatalf("Chest cap not moved onto the Spine fragment")
	}
	if chestCap.Binding.Skeleton != second.Root.Skeleton {
		t.Errorf("moved cap still skins against the character skeleton")
	}
	// the first fragment keeps its own inner cap
	if len(first.Root.Renderer.Children) != 1 {
		t.Errorf("first fragment has %d caps", len(first.Root.Renderer.Children))
	}
}

func TestThresholdNestedCutReparentsCap(t *testing.T) {
	c := build(t, rig.Column())
	r := c.Renderer()
	e := engine(t, c, dismember.Config{})

	if res, err := e.Cut(dismember.Request{Joint: humanoid.Chest, Threshold: 0.5}); err != nil || !res.OK() {
		t.Fatalf("Chest cut = %+v, %v", res, err)
	}
	chestCap := r.Children[0]
	res, err := e.Cut(dismember.Request{Joint: humanoid.Spine, Threshold: 0.5})
	if err != nil || !res.OK() {
		t.Fatalf("Spine cut = %+v, %v", res, err)
	}
	if r.Children[0] == chestCap || len(r.Children) != 1 {
		t.Fatalf("Chest cap still on the character")
	}
	if n := len(res.Root.Renderer.Children); n != 2 {
		t.Fatalf("Spine fragment has %d caps, want its own and the Chest cap", n)
	}
}

func TestCutWithoutBorderRecordsNoCaps(t *testing.T) {
	c := build(t, rig.Column())
	r := c.Renderer()
	e := engine(t, c, dismember.Config{})
	res, err := e.Cut(dismember.Request{Joint: humanoid.Hips, Threshold: 0.5})
	if err != nil || !res.OK() {
		t.Fatalf("Cut = %+v, %v", res, err)
	}
	if len(r.Children) != 0 || len(res.Root.Renderer.Children) != 0 || len(r.Materials) != 1 {
		t.Fatalf("cut without a border made caps or materials")
	}
	if len(tris(r.Mesh.Submeshes)) != 0 {
		t.Fatalf("outer kept triangles after cutting the whole column")
	}
}

func TestAppendCapMode(t *testing.T) {
	c := build(t, rig.Cube())
	r := c.Renderer()
	e := engine(t, c, dismember.Config{CapMode: dismember.CapAppend})
	res, err := e.Cut(dismember.Request{Joint: humanoid.LeftUpperArm, Threshold: 0.5})
	if err != nil || !res.OK() {
		t.Fatalf("Cut = %+v, %v", res, err)
	}
	inner := res.Root.Renderer
	if len(r.Mesh.Submeshes) != 2 || len(r.Materials) != 2 || r.Materials[1] != capMat.Material {
		t.Fatalf("outer: %d submeshes, %d materials", len(r.Mesh.Submeshes), len(r.Materials))
	}
	if len(inner.Mesh.Submeshes) != 2 || len(inner.Materials) != 2 {
		t.Fatalf("inner: %d submeshes, %d materials", len(inner.Mesh.Submeshes), len(inner.Materials))
	}
	if r.Mesh.VertexCount() != 8 || len(r.Children) != 0 {
		t.Fatalf("append mode added vertices or cap renderers")
	}
}

func TestCutBone(t *testing.T) {
	c := build(t, rig.Cube())
	limb, _ := c.Skeleton.Find("Limb")
	e := engine(t, c, dismember.Config{})
	res, err := e.CutBone(limb, dismember.ModeMask, 0, humanoid.LeftUpperArm.Bit())
	if err != nil || !res.OK() {
		t.Fatalf("CutBone = %+v, %v", res, err)
	}
	if res.Root.Cut.Mask != humanoid.LeftUpperArm.Bit() {
		t.Errorf("cut record %+v", res.Root.Cut)
	}
}

func TestFragmentKeepsPlacement(t *testing.T) {
	c := build(t, rig.Cube())
	c.Place.Position = mgl32.Vec3{5, 0, 0}
	e := engine(t, c, dismember.Config{})
	res, err := e.Cut(dismember.Request{Joint: humanoid.LeftUpperArm, Threshold: 0.5})
	if err != nil || !res.OK() {
		t.Fatalf("Cut = %+v, %v", res, err)
	}
	w := res.Root.World()[res.TargetBone]
	if got := w.Col(3); got[0] != 5 || got[1] != 1 {
		t.Errorf("Limb clone at %v, want (5,1,0)", got)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	c := build(t, rig.Cube())
	if _, err := dismember.New(nil, c, capMat, dismember.Config{}); !errors.Is(err, dismember.ErrPrecondition) {
		t.Fatalf("error = %v", err)
	}
	e := engine(t, c, dismember.Config{})
	if _, err := dismember.New(c, c, dismember.StaticMaterial{}, dismember.Config{}); err != nil {
		t.Fatalf("New: %v", err)
	}
	noCap, _ := dismember.New(c, c, dismember.StaticMaterial{}, dismember.Config{Logger: e.Config().Logger})
	if _, err := noCap.Cut(dismember.Request{Joint: humanoid.LeftUpperArm, Threshold: 0.5}); !errors.Is(err, dismember.ErrPrecondition) {
		t.Fatalf("missing cap material error = %v", err)
	}
	if len(c.Renderer().Children) != 0 {
		t.Fatalf("failed cut mutated the renderer")
	}
}
