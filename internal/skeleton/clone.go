package skeleton

// CloneResult describes a cloned subtree inside the destination skeleton.
type CloneResult struct {
	// Root is the clone of the source subtree root.
	Root int
	// Remap maps source node index to clone index, -1 for nodes outside the subtree.
	Remap []int
	// Bones is the source bones array re-resolved against the clone.
	Bones []int
	// Target is the clone of the requested target node, -1 when it lies outside the subtree.
	Target int
}

// Clone copies the subtree of src rooted at root into dst under parent, preserving local
// transforms and child order. Every slot of bones whose node was cloned is redirected to the
// clone; duplicate slots resolve independently. Slots outside the subtree pass through unchanged.
func Clone(src *Skeleton, root int, bones []int, target int, dst *Skeleton, parent int) (CloneResult, error) {
	if !src.Valid(root) {
		return CloneResult{}, ErrUnknownBone
	}

	res := CloneResult{
		Remap:  make([]int, src.Len()),
		Bones:  make([]int, len(bones)),
		Target: -1,
	}
	for i := range res.Remap {
		res.Remap[i] = -1
	}

	// Subtree is parent-first, so a node's parent is always remapped before the node.
	for _, n := range src.Subtree(root) {
		node := &src.Nodes[n]
		p := parent
		if n != root {
			p = res.Remap[node.Parent]
		}
		res.Remap[n] = dst.Add(node.Name, p, node.Local)
	}
	res.Root = res.Remap[root]

	for slot, n := range bones {
		if n >= 0 && n < len(res.Remap) && res.Remap[n] >= 0 {
			res.Bones[slot] = res.Remap[n]
		} else {
			res.Bones[slot] = n
		}
	}
	if target >= 0 && target < len(res.Remap) {
		res.Target = res.Remap[target]
	}
	return res, nil
}
