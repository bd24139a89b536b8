package dismember

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"mesh-dismember/internal/bucket"
	"mesh-dismember/internal/capmesh"
	"mesh-dismember/internal/classify"
	"mesh-dismember/internal/mesh"
	"mesh-dismember/internal/skeleton"
)

// Engine cuts one character. It owns the cut record, the cap ownership table and the scratch
// buffers, so an Engine must not be used from more than one goroutine. Engines of different
// characters are independent.
type Engine struct {
	cfg       Config
	anim      Animator
	data      CharacterData
	materials MaterialProvider

	capMaterial *Material
	bucketer    bucket.Bucketer
	caps        capmesh.Builder

	cuts      map[CutRecord]struct{}
	owners    capOwners
	fragments []*Fragment
}

// New returns an engine for one character.
func New(anim Animator, data CharacterData, materials MaterialProvider, cfg Config) (*Engine, error) {
	if anim == nil || data == nil || materials == nil {
		return nil, errors.Wrap(ErrPrecondition, "dismember: animator, character data and material provider are required")
	}
	return &Engine{
		cfg:       cfg.withDefaults(),
		anim:      anim,
		data:      data,
		materials: materials,
		cuts:      make(map[CutRecord]struct{}),
	}, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Fragments returns every fragment cut so far, oldest first.
func (e *Engine) Fragments() []*Fragment { return e.fragments }

// IsCut reports whether the cut was already made.
func (e *Engine) IsCut(key CutRecord) bool {
	_, ok := e.cuts[key]
	return ok
}

// Cuts lists the cut record ordered by bone, then mask.
func (e *Engine) Cuts() []CutRecord {
	out := make([]CutRecord, 0, len(e.cuts))
	for k := range e.cuts {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bone != out[j].Bone {
			return out[i].Bone < out[j].Bone
		}
		return out[i].Mask < out[j].Mask
	})
	return out
}

// Cut severs the character at a humanoid joint.
//
// Unresolvable joints return ErrInvalidTarget. Unconfigured, repeated and empty cuts return
// a Result with the matching Status and a nil error; none of them change anything.
func (e *Engine) Cut(req Request) (Result, error) {
	if !req.Joint.Valid() {
		e.cfg.Logger.Printf("dismember: cannot cut %s: unknown joint", req.Joint)
		return empty(StatusFailed), errors.Wrapf(ErrInvalidTarget, "joint %s", req.Joint)
	}
	if !e.anim.IsHuman() {
		e.cfg.Logger.Printf("dismember: cannot cut %s: skeleton is not humanoid", req.Joint)
		return empty(StatusFailed), errors.Wrapf(ErrInvalidTarget, "joint %s", req.Joint)
	}
	bone, ok := e.anim.BoneTransform(req.Joint)
	if !ok {
		e.cfg.Logger.Printf("dismember: cannot cut %s: joint has no bone", req.Joint)
		return empty(StatusFailed), errors.Wrapf(ErrInvalidTarget, "joint %s", req.Joint)
	}

	sj, listed := e.cfg.sliceable(req.Joint)
	if e.cfg.SliceableOnly && !listed {
		return empty(StatusNotConfigured), nil
	}

	mode := req.Mode
	if mode == ModeDefault {
		mode = e.cfg.Mode
	}
	if mode == ModeMask {
		mask := req.Bitmask
		if mask == 0 {
			if e.cfg.MaskAsset == nil {
				return empty(StatusNotConfigured), nil
			}
			if mask, ok = e.cfg.MaskAsset.Mask(req.Joint); !ok {
				return empty(StatusNotConfigured), nil
			}
		}
		return e.cut(bone, ModeMask, 0, mask, req.UVChannel)
	}

	threshold := req.Threshold
	if threshold <= 0 {
		threshold = sj.Threshold
	}
	if threshold <= 0 {
		threshold = e.cfg.GlobalThreshold
	}
	return e.cut(bone, ModeThreshold, threshold, 0, 0)
}

// CutBone severs the character at a bone of its skeleton, bypassing the joint table and the
// sliceable gate. Mask mode uses bitmask against the configured UV channel; threshold mode
// uses threshold, or the global threshold when it is 0.
func (e *Engine) CutBone(bone int, mode Mode, threshold float32, bitmask uint32) (Result, error) {
	r := e.data.Renderer()
	if r == nil || r.Binding.Skeleton == nil || !r.Binding.Skeleton.Valid(bone) {
		e.cfg.Logger.Printf("dismember: cannot cut bone %d: not in the character's skeleton", bone)
		return empty(StatusFailed), errors.Wrapf(ErrInvalidTarget, "bone %d", bone)
	}
	if mode == ModeDefault {
		mode = e.cfg.Mode
	}
	if mode == ModeMask {
		return e.cut(bone, ModeMask, 0, bitmask, 0)
	}
	if threshold <= 0 {
		threshold = e.cfg.GlobalThreshold
	}
	return e.cut(bone, ModeThreshold, threshold, 0, 0)
}

func (e *Engine) cut(bone int, mode Mode, threshold float32, bitmask uint32, channel int) (Result, error) {
	r := e.data.Renderer()
	if r == nil || r.Mesh == nil {
		return empty(StatusFailed), errors.Wrap(ErrPrecondition, "dismember: character has no skinned renderer")
	}
	key := CutRecord{Bone: bone}
	if mode == ModeMask {
		key.Mask = bitmask
	}
	if e.IsCut(key) {
		return empty(StatusAlreadyCut), nil
	}

	m := r.Mesh
	if err := m.Validate(); err != nil {
		return empty(StatusFailed), errors.Wrapf(ErrPrecondition, "%v", err)
	}
	if err := r.Binding.Validate(); err != nil {
		return empty(StatusFailed), errors.Wrapf(ErrPrecondition, "%v", err)
	}
	src := r.Binding.Skeleton
	if !src.Valid(bone) {
		e.cfg.Logger.Printf("dismember: cannot cut bone %d: not in the renderer's skeleton", bone)
		return empty(StatusFailed), errors.Wrapf(ErrInvalidTarget, "bone %d", bone)
	}

	inner, status, err := e.classify(m, r.Binding, bone, mode, threshold, bitmask, channel)
	if err != nil || status != StatusCut {
		return empty(status), err
	}

	split, err := e.bucketer.Split(m.Submeshes, inner)
	if err != nil {
		return empty(StatusFailed), errors.Wrapf(ErrPrecondition, "%v", err)
	}
	if !split.HasInner() {
		return empty(StatusEmptyCut), nil
	}

	// Everything that can fail happens before the character is touched.
	frag, err := e.newFragment(r, bone, key, split)
	if err != nil {
		return empty(StatusFailed), err
	}
	edges := append([]int(nil), split.Edges...)
	outerTris := bucket.Copy(split.Outer)

	var capMat *Material
	var outerCap, innerCap *mesh.Mesh
	if len(edges) >= 2 {
		if capMat, err = e.capMat(); err != nil {
			return empty(StatusFailed), err
		}
		if e.cfg.CapMode == CapFull {
			opts := capmesh.Options{RecalculateNormals: e.cfg.RecalculateNormals}
			if outerCap, err = e.caps.Build(m, edges, true, opts); err != nil {
				return empty(StatusFailed), errors.Wrapf(ErrPrecondition, "%v", err)
			}
			if innerCap, err = e.caps.Build(frag.Renderer.Mesh, edges, false, opts); err != nil {
				return empty(StatusFailed), errors.Wrapf(ErrPrecondition, "%v", err)
			}
		}
	}

	m.Submeshes = outerTris
	e.seal(r, frag, key, edges, capMat, outerCap, innerCap)

	e.cuts[key] = struct{}{}
	e.fragments = append(e.fragments, frag)
	res := Result{Root: frag, TargetBone: frag.targetBone, Status: StatusCut}
	if e.cfg.OnDismembered != nil {
		e.cfg.OnDismembered(res)
	}
	return res, nil
}

func (e *Engine) classify(m *mesh.Mesh, b skeleton.Binding, bone int, mode Mode, threshold float32, bitmask uint32, channel int) ([]bool, Status, error) {
	if mode == ModeMask {
		if channel < 1 || channel > mesh.UVChannels {
			channel = e.cfg.UVChannel
		}
		uvs, ok := m.UVChannel(channel)
		if !ok {
			return nil, StatusNotConfigured, nil
		}
		inner, err := classify.ByMask(uvs, m.VertexCount(), bitmask, e.cfg.MaskEncoding)
		if errors.Is(err, classify.ErrMissingMaskChannel) {
			return nil, StatusNotConfigured, nil
		}
		if err != nil {
			return nil, StatusFailed, err
		}
		return inner, StatusCut, nil
	}

	boneMask, err := classify.BoneMask(b, bone)
	if err != nil {
		return nil, StatusFailed, err
	}
	inner, err := classify.ByThreshold(m.Weights, boneMask, threshold)
	if err != nil {
		return nil, StatusFailed, errors.Wrapf(ErrPrecondition, "%v", err)
	}
	return inner, StatusCut, nil
}

// newFragment clones the mesh and the whole skeleton for the inner piece.
func (e *Engine) newFragment(r *Renderer, bone int, key CutRecord, split *bucket.Result) (*Fragment, error) {
	src := r.Binding.Skeleton
	name := src.Nodes[bone].Name

	innerMesh, err := r.Mesh.Clone()
	if err != nil {
		return nil, errors.Wrapf(ErrPrecondition, "%v", err)
	}
	innerMesh.Name = r.Mesh.Name + "_" + name
	innerMesh.Submeshes = bucket.Copy(split.Inner)

	place := skeleton.IdentityTransform()
	if p, ok := e.data.(Placer); ok {
		place = p.Placement()
	}
	dst := skeleton.New()
	top := dst.Add(name, -1, place)
	root, ok := src.Root()
	if !ok {
		return nil, errors.Wrap(ErrPrecondition, "dismember: skeleton has no root")
	}
	cl, err := skeleton.Clone(src, root, r.Binding.Bones, bone, dst, top)
	if err != nil {
		return nil, errors.Wrapf(ErrPrecondition, "%v", err)
	}

	return &Fragment{
		Name:     name,
		Skeleton: dst,
		Root:     top,
		Cut:      key,
		Renderer: &Renderer{
			Name:      innerMesh.Name,
			Mesh:      innerMesh,
			Binding:   skeleton.Binding{Skeleton: dst, Bones: cl.Bones},
			Materials: append([]*Material(nil), r.Materials...),
		},
		targetBone: cl.Target,
		remap:      cl.Remap,
	}, nil
}

// seal attaches the caps and moves older caps that now sit on the detached piece.
func (e *Engine) seal(r *Renderer, frag *Fragment, key CutRecord, edges []int, capMat *Material, outerCap, innerCap *mesh.Mesh) {
	if capMat == nil {
		return
	}
	inner := frag.Renderer

	if e.cfg.CapMode == CapAppend {
		capmesh.AppendFan(r.Mesh, edges, true)
		capmesh.AppendFan(inner.Mesh, edges, false)
		r.Materials = append(r.Materials, capMat)
		inner.Materials = append(inner.Materials, capMat)
		return
	}

	for _, o := range e.owners.claim(key, r, r.Binding.Skeleton) {
		r.RemoveChild(o.cap)
		o.cap.Binding = skeleton.Binding{Skeleton: frag.Skeleton, Bones: remapBones(o.cap.Binding.Bones, frag.remap)}
		inner.Children = append(inner.Children, o.cap)
		o.owner = inner
		e.cfg.Logger.Printf("dismember: cap %s moved to fragment %s", o.cap.Name, frag.Name)
	}

	outer := &Renderer{
		Name:      "Cap_" + frag.Name,
		Mesh:      outerCap,
		Binding:   skeleton.Binding{Skeleton: r.Binding.Skeleton, Bones: append([]int(nil), r.Binding.Bones...)},
		Materials: []*Material{capMat},
	}
	r.Children = append(r.Children, outer)
	e.owners.add(key, outer, r)

	inner.Children = append(inner.Children, &Renderer{
		Name:      "Cap_" + frag.Name,
		Mesh:      innerCap,
		Binding:   skeleton.Binding{Skeleton: frag.Skeleton, Bones: append([]int(nil), inner.Binding.Bones...)},
		Materials: []*Material{capMat},
	})
}

func (e *Engine) capMat() (*Material, error) {
	if e.capMaterial == nil {
		e.capMaterial = e.materials.CapMaterial()
		if e.capMaterial == nil {
			return nil, errors.Wrap(ErrPrecondition, "dismember: no cap material")
		}
	}
	return e.capMaterial, nil
}

func remapBones(bones, remap []int) []int {
	out := make([]int, len(bones))
	for i, n := range bones {
		out[i] = n
		if n >= 0 && n < len(remap) && remap[n] >= 0 {
			out[i] = remap[n]
		}
	}
	return out
}

// World returns the fragment's node world matrices.
func (f *Fragment) World() []mgl32.Mat4 {
	return f.Skeleton.WorldMatrices(mgl32.Ident4())
}
