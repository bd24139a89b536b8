package gltfio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"mesh-dismember/internal/dismember"
	"mesh-dismember/internal/skeleton"
)

// Exporter accumulates characters and fragments into one glTF document.
// Skeletons and materials shared between renderers are written once.
type Exporter struct {
	doc       *gltf.Document
	skeletons map[*skeleton.Skeleton][]uint32
	materials map[*dismember.Material]uint32
	images    map[string]uint32
}

// NewExporter returns an exporter over an empty document.
func NewExporter() *Exporter {
	return &Exporter{
		doc:       gltf.NewDocument(),
		skeletons: make(map[*skeleton.Skeleton][]uint32),
		materials: make(map[*dismember.Material]uint32),
		images:    make(map[string]uint32),
	}
}

// Document returns the document built so far.
func (x *Exporter) Document() *gltf.Document { return x.doc }

// AddCharacter writes the character's skeleton under a node carrying its placement, then its
// renderer and every child renderer (caps).
func (x *Exporter) AddCharacter(c *dismember.Character) error {
	r := c.Renderer()
	if r == nil {
		return errors.Errorf("gltfio: character %s has no renderer", c.Name)
	}
	t, q, s := toTRS(c.Placement())
	holder := x.addNode(&gltf.Node{Name: c.Name, Translation: t, Rotation: q, Scale: s}, nil)
	x.addSkeleton(r.Binding.Skeleton, &holder)
	return x.addRenderer(r)
}

// AddFragment writes a severed piece. Its skeleton already carries the world placement.
func (x *Exporter) AddFragment(f *dismember.Fragment) error {
	x.addSkeleton(f.Skeleton, nil)
	return x.addRenderer(f.Renderer)
}

func (x *Exporter) addNode(n *gltf.Node, parent *uint32) uint32 {
	idx := uint32(len(x.doc.Nodes))
	x.doc.Nodes = append(x.doc.Nodes, n)
	if parent != nil {
		p := x.doc.Nodes[*parent]
		p.Children = append(p.Children, idx)
	} else {
		x.doc.Scenes[0].Nodes = append(x.doc.Scenes[0].Nodes, idx)
	}
	return idx
}

func (x *Exporter) addSkeleton(s *skeleton.Skeleton, parent *uint32) []uint32 {
	if nodes, ok := x.skeletons[s]; ok {
		return nodes
	}
	nodes := make([]uint32, s.Len())
	for i, n := range s.Nodes {
		t, q, sc := toTRS(n.Local)
		p := parent
		if n.Parent >= 0 {
			p = &nodes[n.Parent]
		}
		nodes[i] = x.addNode(&gltf.Node{Name: n.Name, Translation: t, Rotation: q, Scale: sc}, p)
	}
	x.skeletons[s] = nodes
	return nodes
}

func (x *Exporter) addRenderer(r *dismember.Renderer) error {
	if err := x.addSkinnedMesh(r); err != nil {
		return err
	}
	for _, c := range r.Children {
		if err := x.addRenderer(c); err != nil {
			return err
		}
	}
	return nil
}

func (x *Exporter) addSkinnedMesh(r *dismember.Renderer) error {
	m := r.Mesh
	if m == nil || m.TriangleCount() == 0 {
		return nil
	}
	if err := m.Validate(); err != nil {
		return errors.Wrapf(err, "gltfio: export %s", r.Name)
	}
	nodes, ok := x.skeletons[r.Binding.Skeleton]
	if !ok {
		nodes = x.addSkeleton(r.Binding.Skeleton, nil)
	}
	doc := x.doc

	attrs := map[string]uint32{
		"POSITION": modeler.WritePosition(doc, m.Verts),
	}
	if len(m.Normals) == len(m.Verts) {
		attrs["NORMAL"] = modeler.WriteNormal(doc, m.Normals)
	}
	for ch, uvs := range m.UVs {
		if len(uvs) == len(m.Verts) {
			attrs[fmt.Sprintf("TEXCOORD_%d", ch)] = modeler.WriteTextureCoord(doc, uvs)
		}
	}
	joints := make([][4]uint16, len(m.Weights))
	weights := make([][4]float32, len(m.Weights))
	for i, w := range m.Weights {
		for k := 0; k < 4; k++ {
			if w.Weight[k] > 0 {
				joints[i][k] = uint16(w.Index[k])
				weights[i][k] = w.Weight[k]
			}
		}
	}
	attrs["JOINTS_0"] = modeler.WriteJoints(doc, joints)
	attrs["WEIGHTS_0"] = modeler.WriteWeights(doc, weights)

	gm := &gltf.Mesh{Name: m.Name}
	for si, tris := range m.Submeshes {
		if len(tris) == 0 {
			continue
		}
		indices := make([]uint32, len(tris))
		for i, idx := range tris {
			indices[i] = uint32(idx)
		}
		prim := &gltf.Primitive{
			Indices:    gltf.Index(modeler.WriteIndices(doc, indices)),
			Attributes: attrs,
		}
		if si < len(r.Materials) && r.Materials[si] != nil {
			prim.Material = gltf.Index(x.addMaterial(r.Materials[si]))
		}
		gm.Primitives = append(gm.Primitives, prim)
	}
	doc.Meshes = append(doc.Meshes, gm)

	skin := &gltf.Skin{Name: r.Name, Joints: make([]uint32, len(r.Binding.Bones))}
	for slot, n := range r.Binding.Bones {
		skin.Joints[slot] = nodes[n]
	}
	if len(m.BindPoses) == len(r.Binding.Bones) {
		ibm := make([][4][4]float32, len(m.BindPoses))
		for i, bp := range m.BindPoses {
			ibm[i] = toGltfMat(bp)
		}
		skin.InverseBindMatrices = gltf.Index(modeler.WriteAccessor(doc, gltf.TargetNone, ibm))
	}
	doc.Skins = append(doc.Skins, skin)

	x.addNode(&gltf.Node{
		Name: r.Name,
		Mesh: gltf.Index(uint32(len(doc.Meshes) - 1)),
		Skin: gltf.Index(uint32(len(doc.Skins) - 1)),
	}, nil)
	return nil
}

func (x *Exporter) addMaterial(mat *dismember.Material) uint32 {
	if idx, ok := x.materials[mat]; ok {
		return idx
	}
	color := mat.Color
	pbr := &gltf.PBRMetallicRoughness{BaseColorFactor: &color}
	if mat.Texture != "" {
		img, ok := x.images[mat.Texture]
		if !ok {
			x.doc.Images = append(x.doc.Images, &gltf.Image{URI: filepath.ToSlash(mat.Texture)})
			img = uint32(len(x.doc.Images) - 1)
			x.images[mat.Texture] = img
		}
		x.doc.Textures = append(x.doc.Textures, &gltf.Texture{Source: gltf.Index(img)})
		pbr.BaseColorTexture = &gltf.TextureInfo{Index: uint32(len(x.doc.Textures) - 1)}
	}
	x.doc.Materials = append(x.doc.Materials, &gltf.Material{
		Name:                 mat.Name,
		PBRMetallicRoughness: pbr,
		DoubleSided:          true,
	})
	idx := uint32(len(x.doc.Materials) - 1)
	x.materials[mat] = idx
	return idx
}

// Encode writes the document as a binary glTF (.glb) stream.
func (x *Exporter) Encode(w io.Writer) error {
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	return errors.Wrap(enc.Encode(x.doc), "gltfio: encode")
}

// Save writes the document to path, as .glb unless the extension is .gltf.
func (x *Exporter) Save(path string) error {
	if strings.EqualFold(filepath.Ext(path), ".gltf") {
		return errors.Wrapf(gltf.Save(x.doc, path), "gltfio: save %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "gltfio: create %s", path)
	}
	if err := x.Encode(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "gltfio: close %s", path)
}
