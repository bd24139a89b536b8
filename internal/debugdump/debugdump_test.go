package debugdump

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

type node struct {
	Name     string
	Children []*node
}

func TestFdumpDepth(t *testing.T) {
	tree := &node{Name: "Hips", Children: []*node{{Name: "Spine", Children: []*node{{Name: "Chest"}}}}}

	var full, shallow bytes.Buffer
	Fdump(&full, 0, tree)
	Fdump(&shallow, 2, tree)
	if !strings.Contains(full.String(), "Chest") {
		t.Errorf("full dump misses nested node:\n%s", full.String())
	}
	if strings.Contains(shallow.String(), "Chest") {
		t.Errorf("depth-limited dump reached the leaf:\n%s", shallow.String())
	}
	if strings.Contains(full.String(), "0x") {
		t.Errorf("dump leaks pointer addresses:\n%s", full.String())
	}
}

func TestLogDump(t *testing.T) {
	var buf bytes.Buffer
	LogDump(log.New(&buf, "", 0), map[string]int{"b": 2, "a": 1})
	out := buf.String()
	if strings.Index(out, `"a"`) > strings.Index(out, `"b"`) {
		t.Errorf("keys not sorted:\n%s", out)
	}
	if SDump(1) == "" {
		t.Errorf("SDump returned nothing")
	}
}
