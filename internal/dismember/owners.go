package dismember

import "mesh-dismember/internal/skeleton"

// capOwner tracks the outer cap created by a cut and the renderer it currently hangs under.
type capOwner struct {
	key   CutRecord
	cap   *Renderer
	owner *Renderer
}

// capOwners is the table of outer caps. When a later cut detaches the region an older cap
// sits on, the cap moves to the new fragment.
type capOwners struct {
	entries []capOwner
}

func (o *capOwners) add(key CutRecord, cap, owner *Renderer) {
	o.entries = append(o.entries, capOwner{key: key, cap: cap, owner: owner})
}

// supersedes reports whether cut detaches the region older cut old was made in.
//
// Mask cuts: old's mask is a strict subset of cut's mask.
// Threshold cuts: old's bone lies strictly inside cut's bone subtree.
func supersedes(old, cut CutRecord, s *skeleton.Skeleton) bool {
	if cut.Mask != 0 {
		return old.Mask != 0 && old.Mask&cut.Mask == old.Mask && old.Mask != cut.Mask
	}
	return old.Mask == 0 && old.Bone != cut.Bone && s.InSubtree(cut.Bone, old.Bone)
}

// claim returns the entries owned by from that cut supersedes.
func (o *capOwners) claim(cut CutRecord, from *Renderer, s *skeleton.Skeleton) []*capOwner {
	var out []*capOwner
	for i := range o.entries {
		e := &o.entries[i]
		if e.owner == from && supersedes(e.key, cut, s) {
			out = append(out, e)
		}
	}
	return out
}

