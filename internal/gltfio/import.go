package gltfio

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"mesh-dismember/internal/dismember"
	"mesh-dismember/internal/mesh"
	"mesh-dismember/internal/skeleton"
)

// ErrNoSkin is returned when a document has no node carrying both a mesh and a skin.
var ErrNoSkin = errors.New("gltfio: no skinned mesh")

// Load opens a .gltf or .glb file and imports its first skinned mesh.
func Load(path string) (*dismember.Character, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "gltfio: open %s", path)
	}
	c, err := Import(doc)
	if err != nil {
		return nil, errors.Wrapf(err, "gltfio: %s", path)
	}
	return c, nil
}

// Import builds a character from the first node with both a mesh and a skin.
//
// The skin's joints become the skeleton. When the topmost joint is not named Root, a Root
// node is added above the top-level joints. Primitives become submeshes of one mesh.
func Import(doc *gltf.Document) (*dismember.Character, error) {
	var holder *gltf.Node
	for _, n := range doc.Nodes {
		if n.Mesh != nil && n.Skin != nil {
			holder = n
			break
		}
	}
	if holder == nil {
		return nil, ErrNoSkin
	}
	skin := doc.Skins[*holder.Skin]

	s, nodeOf, err := importSkeleton(doc, skin)
	if err != nil {
		return nil, err
	}
	binding := skeleton.Binding{Skeleton: s, Bones: make([]int, len(skin.Joints))}
	for slot, j := range skin.Joints {
		binding.Bones[slot] = nodeOf[j]
	}

	gm := doc.Meshes[*holder.Mesh]
	m, mats, err := importMesh(doc, gm)
	if err != nil {
		return nil, err
	}
	if skin.InverseBindMatrices != nil {
		raw, err := modeler.ReadAccessor(doc, doc.Accessors[*skin.InverseBindMatrices], nil)
		if err != nil {
			return nil, errors.Wrap(err, "gltfio: inverse bind matrices")
		}
		ibm, ok := raw.([][4][4]float32)
		if !ok || len(ibm) != len(skin.Joints) {
			return nil, errors.Errorf("gltfio: inverse bind matrices: unexpected %T", raw)
		}
		m.BindPoses = make([]mgl32.Mat4, len(ibm))
		for i := range ibm {
			m.BindPoses[i] = fromGltfMat(ibm[i])
		}
	} else {
		m.BindPoses = binding.BindPoses(mgl32.Ident4())
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	name := holder.Name
	if name == "" {
		name = gm.Name
	}
	return dismember.NewCharacter(name, m, binding, skeleton.IdentityTransform(), mats), nil
}

func importSkeleton(doc *gltf.Document, skin *gltf.Skin) (*skeleton.Skeleton, map[uint32]int, error) {
	if len(skin.Joints) == 0 {
		return nil, nil, errors.Wrap(ErrNoSkin, "skin has no joints")
	}
	isJoint := make(map[uint32]bool, len(skin.Joints))
	for _, j := range skin.Joints {
		isJoint[j] = true
	}
	parentOf := make(map[uint32]uint32)
	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			parentOf[c] = uint32(i)
		}
	}
	var tops []uint32
	for _, j := range skin.Joints {
		if p, ok := parentOf[j]; !ok || !isJoint[p] {
			tops = append(tops, j)
		}
	}

	s := skeleton.New()
	nodeOf := make(map[uint32]int, len(skin.Joints))
	root := -1
	if len(tops) != 1 || doc.Nodes[tops[0]].Name != skeleton.RootName {
		root = s.Add(skeleton.RootName, -1, skeleton.IdentityTransform())
	}
	var add func(j uint32, parent int)
	add = func(j uint32, parent int) {
		n := doc.Nodes[j]
		name := n.Name
		if name == "" {
			name = fmt.Sprintf("joint%d", j)
		}
		idx := s.Add(name, parent, fromTRS(n.Translation, n.Rotation, n.Scale))
		nodeOf[j] = idx
		for _, c := range n.Children {
			if isJoint[c] {
				add(c, idx)
			}
		}
	}
	for _, t := range tops {
		add(t, root)
	}
	return s, nodeOf, nil
}

func importMesh(doc *gltf.Document, gm *gltf.Mesh) (*mesh.Mesh, []*dismember.Material, error) {
	m := &mesh.Mesh{Name: gm.Name}
	var mats []*dismember.Material
	var hasNormals bool
	var hasUV [mesh.UVChannels]bool

	for pi, p := range gm.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			return nil, nil, errors.Errorf("gltfio: %s primitive %d is not a triangle list", gm.Name, pi)
		}
		pos, ok := p.Attributes["POSITION"]
		if !ok || p.Indices == nil {
			return nil, nil, errors.Errorf("gltfio: %s primitive %d needs positions and indices", gm.Name, pi)
		}
		verts, err := modeler.ReadPosition(doc, doc.Accessors[pos], nil)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "gltfio: %s primitive %d positions", gm.Name, pi)
		}
		base := len(m.Verts)
		n := len(verts)
		m.Verts = append(m.Verts, verts...)

		normals := make([][3]float32, n)
		if acr, ok := p.Attributes["NORMAL"]; ok {
			if normals, err = modeler.ReadNormal(doc, doc.Accessors[acr], nil); err != nil {
				return nil, nil, errors.Wrapf(err, "gltfio: %s primitive %d normals", gm.Name, pi)
			}
			hasNormals = true
		}
		m.Normals = append(m.Normals, normals...)

		for ch := 0; ch < mesh.UVChannels; ch++ {
			uvs := make([][2]float32, n)
			if acr, ok := p.Attributes[fmt.Sprintf("TEXCOORD_%d", ch)]; ok {
				if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[acr], nil); err != nil {
					return nil, nil, errors.Wrapf(err, "gltfio: %s primitive %d uv%d", gm.Name, pi, ch+1)
				}
				hasUV[ch] = true
			}
			m.UVs[ch] = append(m.UVs[ch], uvs...)
		}

		weights := make([]mesh.BoneWeight, n)
		if ja, ok := p.Attributes["JOINTS_0"]; ok {
			joints, err := modeler.ReadJoints(doc, doc.Accessors[ja], nil)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "gltfio: %s primitive %d joints", gm.Name, pi)
			}
			var ws [][4]float32
			if wa, ok := p.Attributes["WEIGHTS_0"]; ok {
				if ws, err = modeler.ReadWeights(doc, doc.Accessors[wa], nil); err != nil {
					return nil, nil, errors.Wrapf(err, "gltfio: %s primitive %d weights", gm.Name, pi)
				}
			}
			for i := range weights {
				for k := 0; k < 4; k++ {
					if i < len(joints) {
						weights[i].Index[k] = int(joints[i][k])
					}
					if i < len(ws) {
						weights[i].Weight[k] = ws[i][k]
					}
				}
				normalizeWeight(&weights[i])
			}
		}
		m.Weights = append(m.Weights, weights...)

		indices, err := modeler.ReadIndices(doc, doc.Accessors[*p.Indices], nil)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "gltfio: %s primitive %d indices", gm.Name, pi)
		}
		tris := make([]int, len(indices))
		for i, idx := range indices {
			tris[i] = base + int(idx)
		}
		m.AddSubmesh(tris)
		mats = append(mats, importMaterial(doc, p.Material))
	}

	if !hasNormals {
		m.Normals = nil
	}
	for ch := range hasUV {
		if !hasUV[ch] {
			m.UVs[ch] = nil
		}
	}
	return m, mats, nil
}

// normalizeWeight scales weights summing slightly above 1 back to 1; exporters often round up.
func normalizeWeight(w *mesh.BoneWeight) {
	var sum float32
	for _, x := range w.Weight {
		sum += x
	}
	if sum > 1 {
		for k := range w.Weight {
			w.Weight[k] /= sum
		}
	}
}

func importMaterial(doc *gltf.Document, idx *uint32) *dismember.Material {
	mat := &dismember.Material{Name: "default", Color: [4]float32{1, 1, 1, 1}}
	if idx == nil || int(*idx) >= len(doc.Materials) {
		return mat
	}
	gmat := doc.Materials[*idx]
	mat.Name = gmat.Name
	if pbr := gmat.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			mat.Color = *pbr.BaseColorFactor
		}
		if ti := pbr.BaseColorTexture; ti != nil && int(ti.Index) < len(doc.Textures) {
			if src := doc.Textures[ti.Index].Source; src != nil && int(*src) < len(doc.Images) {
				mat.Texture = doc.Images[*src].URI
			}
		}
	}
	return mat
}
