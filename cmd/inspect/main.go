package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"mesh-dismember/internal/batch"
	"mesh-dismember/internal/classify"
	"mesh-dismember/internal/debugdump"
	"mesh-dismember/internal/dismember"
	"mesh-dismember/internal/humanoid"
	"mesh-dismember/internal/skeleton"
)

func main() {
	channel := flag.Int("channel", dismember.DefaultUVChannel, "UV channel holding vertex masks (1-4)")
	encoding := flag.String("encoding", "", "Mask encoding: truncate or bits")
	threshold := flag.Float64("threshold", dismember.DefaultThreshold, "Bone-weight threshold for the per-joint cut sizes")
	dump := flag.Bool("dump", false, "Dump the loaded character")
	depth := flag.Int("depth", 4, "Maximum nesting for -dump (0 = unlimited)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: inspect [flags] <rig.yaml|character.glb>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	c, err := batch.LoadCharacter(flag.Arg(0))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	enc, err := classify.ParseEncoding(*encoding)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Character %q, humanoid: %v, joints mapped: %d/%d\n", c.Name, c.IsHuman(), len(c.Joints), humanoid.JointCount)
	p := c.Place
	fmt.Printf("  Placement: pos %v rot %v scale %v\n", p.Position, p.Rotation, p.Scale)

	fmt.Printf("\nSkeleton: %d nodes\n", c.Skeleton.Len())
	jointOf := map[int]humanoid.Joint{}
	for j, b := range c.Joints {
		jointOf[b] = j
	}
	if root, ok := c.Skeleton.Root(); ok {
		printTree(c.Skeleton, root, 1, jointOf)
	}

	r := c.Renderer()
	m := r.Mesh
	fmt.Printf("\nMesh %q: verts=%d, tris=%d, submeshes=%d, bones=%d\n", m.Name, m.VertexCount(), m.TriangleCount(), len(m.Submeshes), len(r.Binding.Bones))
	for i, s := range m.Submeshes {
		mat := "-"
		if i < len(r.Materials) && r.Materials[i] != nil {
			mat = r.Materials[i].Name
		}
		fmt.Printf("  Submesh[%d]: tris=%d material=%s\n", i, len(s)/3, mat)
	}
	lo, hi := bounds(m.Verts)
	fmt.Printf("  BBox: X[%.2f, %.2f] Y[%.2f, %.2f] Z[%.2f, %.2f]\n", lo[0], hi[0], lo[1], hi[1], lo[2], hi[2])
	var present []string
	for ch := 1; ch <= 4; ch++ {
		if _, ok := m.UVChannel(ch); ok {
			present = append(present, fmt.Sprint(ch))
		}
	}
	fmt.Printf("  UV channels: %s\n", strings.Join(present, ","))

	if err := m.Validate(); err != nil {
		fmt.Printf("  Invalid: %v\n", err)
	}

	uvs, ok := m.UVChannel(*channel)
	if !ok {
		fmt.Printf("\nNo mask channel %d\n", *channel)
	} else {
		bits, unmasked := classify.BitCounts(uvs, enc)
		fmt.Printf("\nMask channel %d (%s): %d vertices unmasked\n", *channel, enc, unmasked)
		for b, n := range bits {
			if n == 0 {
				continue
			}
			name := fmt.Sprintf("bit %d", b)
			if j := humanoid.Joint(b); j.Valid() {
				name = j.String()
			}
			fmt.Printf("  %-16s %d\n", name, n)
		}
	}

	fmt.Printf("\nThreshold cuts (> %g): inner vertices per joint\n", *threshold)
	for _, j := range humanoid.Joints() {
		bone, ok := c.BoneTransform(j)
		if !ok {
			continue
		}
		bones, err := classify.BoneMask(r.Binding, bone)
		if err != nil {
			fmt.Printf("  %-16s %v\n", j, err)
			continue
		}
		inner, err := classify.ByThreshold(m.Weights, bones, float32(*threshold))
		if err != nil {
			fmt.Printf("  %-16s %v\n", j, err)
			continue
		}
		fmt.Printf("  %-16s %d/%d\n", j, classify.Count(inner), m.VertexCount())
	}

	if *dump {
		fmt.Println()
		debugdump.Fdump(os.Stdout, *depth, c)
	}
}

func printTree(s *skeleton.Skeleton, n, indent int, jointOf map[int]humanoid.Joint) {
	node := s.Nodes[n]
	label := node.Name
	if j, ok := jointOf[n]; ok && !strings.EqualFold(j.String(), node.Name) {
		label += " (" + j.String() + ")"
	}
	fmt.Printf("%s[%d] %s\n", strings.Repeat("  ", indent), n, label)
	for _, c := range node.Children {
		printTree(s, c, indent+1, jointOf)
	}
}

func bounds(verts [][3]float32) (lo, hi [3]float64) {
	lo = [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi = [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, v := range verts {
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], float64(v[k]))
			hi[k] = math.Max(hi[k], float64(v[k]))
		}
	}
	return lo, hi
}
