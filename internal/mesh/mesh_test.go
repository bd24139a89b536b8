package mesh

import (
	"testing"

	"github.com/pkg/errors"
)

func quad() *Mesh {
	return &Mesh{
		Name:      "quad",
		Verts:     [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Weights:   []BoneWeight{Single(0), Single(0), Single(1), Single(1)},
		Submeshes: [][]int{{0, 1, 2, 0, 2, 3}},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Mesh)
		ok     bool
	}{
		{"valid", func(m *Mesh) {}, true},
		{"weight count", func(m *Mesh) { m.Weights = m.Weights[:3] }, false},
		{"index range", func(m *Mesh) { m.Submeshes[0][5] = 4 }, false},
		{"partial triangle", func(m *Mesh) { m.Submeshes[0] = m.Submeshes[0][:4] }, false},
		{"uv length", func(m *Mesh) { m.UVs[1] = make([][2]float32, 2) }, false},
		{"weight sum", func(m *Mesh) { m.Weights[0].Weight = [4]float32{0.7, 0.7, 0, 0} }, false},
		{"negative weight", func(m *Mesh) { m.Weights[0].Weight = [4]float32{1, -0.1, 0, 0} }, false},
	}
	for _, tt := range tests {
		m := quad()
		tt.mutate(m)
		err := m.Validate()
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.ok && !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: got %v, want ErrInvalid", tt.name, err)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	m := quad()
	m.UVs[1] = [][2]float32{{1, 0}, {2, 0}, {3, 0}, {4, 0}}
	c, err := m.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	c.Verts[0][0] = 42
	c.Submeshes[0][0] = 3
	c.UVs[1][0][0] = 99
	c.Weights[0].Index[0] = 7

	if m.Verts[0][0] != 0 || m.Submeshes[0][0] != 0 || m.UVs[1][0][0] != 1 || m.Weights[0].Index[0] != 0 {
		t.Fatalf("clone shares data with source")
	}
	if c.TriangleCount() != 2 {
		t.Fatalf("clone has %d triangles, want 2", c.TriangleCount())
	}
}

func TestUVChannel(t *testing.T) {
	m := quad()
	if _, ok := m.UVChannel(2); ok {
		t.Fatalf("uv2 reported present on a mesh without uvs")
	}
	m.UVs[1] = make([][2]float32, 4)
	if _, ok := m.UVChannel(2); !ok {
		t.Fatalf("uv2 missing")
	}
	if _, ok := m.UVChannel(5); ok {
		t.Fatalf("channel 5 should not exist")
	}
}

func TestRecalculateNormals(t *testing.T) {
	m := quad()
	m.RecalculateNormals()
	for i, n := range m.Normals {
		if n != [3]float32{0, 0, 1} {
			t.Errorf("normal %d = %v, want +Z", i, n)
		}
	}
}
