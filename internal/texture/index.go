package texture

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Index maps lowercase file stems to paths. When several files share a stem, the format
// listed first in Extensions wins, so a .tga with alpha beats a .jpg of the same name.
type Index struct {
	entries map[string]string
}

// BuildIndex scans dirs recursively for texture files. Missing directories are skipped.
func BuildIndex(dirs ...string) *Index {
	idx := &Index{entries: make(map[string]string)}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !Supported(path) {
				return nil
			}
			idx.add(path)
			return nil
		})
	}
	return idx
}

func (idx *Index) add(path string) {
	stem := stemOf(path)
	if existing, ok := idx.entries[stem]; ok && rank(filepath.Ext(existing)) <= rank(filepath.Ext(path)) {
		return
	}
	idx.entries[stem] = path
}

func stemOf(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// ResolvePath returns the indexed file for a texture reference. Directory prefixes and the
// extension of name are ignored.
func (idx *Index) ResolvePath(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	path, ok := idx.entries[stemOf(name)]
	return path, ok
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	return len(idx.entries)
}
