package bucket

import (
	"sort"
	"testing"

	"github.com/pkg/errors"
)

// quad strip: 0-1-2-3 along the bottom, 4-5-6-7 along the top
var strip = []int{
	0, 1, 5, 0, 5, 4,
	1, 2, 6, 1, 6, 5,
	2, 3, 7, 2, 7, 6,
}

func triangles(lists ...[]int) [][3]int {
	var out [][3]int
	for _, l := range lists {
		for i := 0; i+2 < len(l); i += 3 {
			out = append(out, [3]int{l[i], l[i+1], l[i+2]})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		for k := 0; k < 3; k++ {
			if out[i][k] != out[j][k] {
				return out[i][k] < out[j][k]
			}
		}
		return false
	})
	return out
}

func TestSplitPartitionIsComplete(t *testing.T) {
	inner := []bool{false, false, true, true, false, false, true, true}
	var b Bucketer
	r, err := b.Split([][]int{strip}, inner)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	got := triangles(r.Outer[0], r.Inner[0])
	want := triangles(strip)
	if len(got) != len(want) {
		t.Fatalf("%d triangles after split, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("triangle %d = %v, want %v", i, got[i], want[i])
		}
	}
	if len(r.Outer[0]) != 6 || len(r.Inner[0]) != 12 {
		t.Errorf("outer %d inner %d indices, want 6 and 12", len(r.Outer[0]), len(r.Inner[0]))
	}
}

func TestSplitMixedGoesInner(t *testing.T) {
	inner := []bool{false, false, true, true, false, false, true, true}
	var b Bucketer
	r, err := b.Split([][]int{strip}, inner)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	// the middle quad is mixed: 1,2,6 has one outer vertex, 1,6,5 has one inner vertex
	if r.MixedTriangles != 2 || r.InnerTriangles != 4 {
		t.Fatalf("mixed %d inner %d, want 2 and 4", r.MixedTriangles, r.InnerTriangles)
	}
	want := []int{2, 6, 5, 1}
	if len(r.Edges) != len(want) {
		t.Fatalf("edges = %v, want %v", r.Edges, want)
	}
	for i := range want {
		if r.Edges[i] != want[i] {
			t.Fatalf("edges = %v, want %v", r.Edges, want)
		}
	}
}

func TestSplitUniform(t *testing.T) {
	var b Bucketer
	r, err := b.Split([][]int{strip}, make([]bool, 8))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if r.HasInner() || len(r.Edges) != 0 || len(r.Outer[0]) != len(strip) {
		t.Fatalf("all-outer split: inner=%d edges=%v", r.InnerTriangles, r.Edges)
	}

	all := []bool{true, true, true, true, true, true, true, true}
	r, err = b.Split([][]int{strip}, all)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(r.Outer[0]) != 0 || len(r.Edges) != 0 || r.InnerTriangles != 6 {
		t.Fatalf("all-inner split: outer=%v edges=%v", r.Outer[0], r.Edges)
	}
}

func TestSplitEdgesFollowSubmeshOrder(t *testing.T) {
	inner := []bool{true, false, false, true}
	subs := [][]int{{0, 1, 2}, {3, 1, 2}}
	var b Bucketer
	r, err := b.Split(subs, inner)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	want := []int{1, 2, 1, 2}
	for i := range want {
		if r.Edges[i] != want[i] {
			t.Fatalf("edges = %v, want %v", r.Edges, want)
		}
	}
	if r.EdgeCount() != 2 {
		t.Errorf("EdgeCount = %d", r.EdgeCount())
	}
}

func TestSplitReusesBuffersAcrossCalls(t *testing.T) {
	var b Bucketer
	if _, err := b.Split([][]int{strip, strip}, make([]bool, 8)); err != nil {
		t.Fatalf("Split: %v", err)
	}
	r, err := b.Split([][]int{{0, 1, 2}}, []bool{true, true, true})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(r.Outer) != 1 || len(r.Outer[0]) != 0 || len(r.Inner[0]) != 3 {
		t.Fatalf("stale buffers: outer=%v inner=%v", r.Outer, r.Inner)
	}
	detached := Copy(r.Inner)
	if _, err := b.Split([][]int{{0, 1, 2}}, []bool{false, false, false}); err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(detached[0]) != 3 {
		t.Fatalf("Copy shares the scratch buffer")
	}
}

func TestSplitRejectsBadIndices(t *testing.T) {
	var b Bucketer
	if _, err := b.Split([][]int{{0, 1, 9}}, make([]bool, 3)); !errors.Is(err, ErrIndex) {
		t.Fatalf("error = %v, want ErrIndex", err)
	}
	if _, err := b.Split([][]int{{0, 1}}, make([]bool, 3)); !errors.Is(err, ErrIndex) {
		t.Fatalf("error = %v, want ErrIndex", err)
	}
}
