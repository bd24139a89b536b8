package batch

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Manifest is the summary written next to the exported models.
type Manifest struct {
	Rigs      int      `json:"rigs"`
	Succeeded int      `json:"succeeded"`
	Fragments int      `json:"fragments"`
	Results   []Result `json:"results"`
}

// NewManifest summarizes results.
func NewManifest(results []Result) Manifest {
	m := Manifest{Rigs: len(results), Results: results}
	for _, r := range results {
		if r.Success {
			m.Succeeded++
		}
		m.Fragments += r.Fragments
	}
	return m
}

// WriteManifest writes the manifest as indented JSON.
func WriteManifest(path string, results []Result) error {
	data, err := json.MarshalIndent(NewManifest(results), "", "  ")
	if err != nil {
		return errors.Wrap(err, "batch: encode manifest")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "batch: write %s", path)
}
