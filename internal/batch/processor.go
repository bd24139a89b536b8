// Package batch runs a cut plan over many characters in parallel.
package batch

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"mesh-dismember/internal/dismember"
	"mesh-dismember/internal/gltfio"
	"mesh-dismember/internal/preview"
	"mesh-dismember/internal/rig"
	"mesh-dismember/internal/texture"
)

// Config holds the resources shared by every job. Engine is copied per job; its mask asset
// is only read.
type Config struct {
	Engine      dismember.Config
	CapMaterial *dismember.Material
	Cuts        []dismember.Request
	OutputDir   string
	Textures    texture.Resolver
	Preview     preview.Options
	Format      preview.Format
	NoPreview   bool
	Workers     int
	Logger      *log.Logger
	Progress    time.Duration // ticker interval; 0 means 2s
}

// CutOutcome records what one request did to one character.
type CutOutcome struct {
	Joint      string `json:"joint"`
	Status     string `json:"status"`
	Fragment   string `json:"fragment,omitempty"`
	TargetBone int    `json:"target_bone"`
	Error      string `json:"error,omitempty"`
}

// Result holds the outcome of processing one rig.
type Result struct {
	Rig       string       `json:"rig"`
	Name      string       `json:"name"`
	Model     string       `json:"model,omitempty"`
	Preview   string       `json:"preview,omitempty"`
	Fragments int          `json:"fragments"`
	Cuts      []CutOutcome `json:"cuts"`
	Success   bool         `json:"success"`
	Error     string       `json:"error,omitempty"`
}

// Run processes all rigs using a worker pool. Results keep the order of rigs.
func Run(cfg Config, rigs []string) []Result {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Progress <= 0 {
		cfg.Progress = 2 * time.Second
	}

	total := len(rigs)
	results := make([]Result, total)
	var processed atomic.Int64
	start := time.Now()

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.Progress)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if p := processed.Load(); p > 0 {
					fmt.Printf("  [%d/%d] %.1f rigs/sec\n", p, total, float64(p)/time.Since(start).Seconds())
				}
			}
		}
	}()

	jobs := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = processRig(cfg, rigs[idx])
				processed.Add(1)
			}
		}()
	}
	for i := range rigs {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(done)
	return results
}

// LoadCharacter reads a YAML rig description or a skinned glTF file.
func LoadCharacter(path string) (*dismember.Character, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return rig.LoadCharacter(path)
	case ".gltf", ".glb":
		return gltfio.Load(path)
	}
	return nil, errors.Errorf("batch: unsupported rig file %s", path)
}

func processRig(cfg Config, path string) Result {
	res := Result{Rig: path, Name: stem(path)}
	fail := func(err error) Result {
		res.Error = err.Error()
		return res
	}

	c, err := LoadCharacter(path)
	if err != nil {
		return fail(err)
	}
	if c.Name != "" {
		res.Name = c.Name
	}

	ec := cfg.Engine
	ec.Logger = log.New(cfg.Logger.Writer(), cfg.Logger.Prefix()+res.Name+": ", cfg.Logger.Flags())
	ec.OnDismembered = nil
	e, err := dismember.New(c, c, dismember.StaticMaterial{Material: cfg.CapMaterial}, ec)
	if err != nil {
		return fail(err)
	}

	for _, req := range cfg.Cuts {
		out := CutOutcome{Joint: req.Joint.String(), TargetBone: -1}
		r, err := e.Cut(req)
		out.Status = r.Status.String()
		if err != nil {
			out.Error = err.Error()
			// Precondition failures mean the character data is unusable; stop cutting it.
			if errors.Is(err, dismember.ErrPrecondition) {
				res.Cuts = append(res.Cuts, out)
				return fail(err)
			}
		}
		if r.OK() {
			out.Fragment = r.Root.Name
			out.TargetBone = r.TargetBone
		}
		res.Cuts = append(res.Cuts, out)
	}
	res.Fragments = len(e.Fragments())

	dir := filepath.Join(cfg.OutputDir, res.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(errors.Wrapf(err, "batch: create %s", dir))
	}

	x := gltfio.NewExporter()
	if err := x.AddCharacter(c); err != nil {
		return fail(err)
	}
	for _, f := range e.Fragments() {
		if err := x.AddFragment(f); err != nil {
			return fail(err)
		}
	}
	model := filepath.Join(dir, res.Name+".glb")
	if err := x.Save(model); err != nil {
		return fail(err)
	}
	res.Model = rel(cfg.OutputDir, model)

	if !cfg.NoPreview {
		img := preview.Render(c, e.Fragments(), cfg.Textures, cfg.Preview)
		format := cfg.Format
		if format == "" {
			format = preview.WebP
		}
		out := filepath.Join(dir, res.Name+format.Ext())
		if err := preview.Save(out, img); err != nil {
			return fail(err)
		}
		res.Preview = rel(cfg.OutputDir, out)
	}

	res.Success = true
	return res
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func rel(base, path string) string {
	if r, err := filepath.Rel(base, path); err == nil {
		return filepath.ToSlash(r)
	}
	return path
}
