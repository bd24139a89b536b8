// Package config loads the dismember run configuration.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"mesh-dismember/internal/classify"
	"mesh-dismember/internal/dismember"
	"mesh-dismember/internal/humanoid"
	"mesh-dismember/internal/preview"
)

// Config holds paths, the cut plan, engine settings and preview settings.
// Relative paths are resolved against BaseDir, which defaults to the config file's directory.
type Config struct {
	// Paths
	BaseDir     string   `yaml:"base_dir"`
	Rigs        []string `yaml:"rigs"` // files or glob patterns; .yaml/.yml rigs or .gltf/.glb characters
	MaskAsset   string   `yaml:"mask_asset"`
	TextureDirs []string `yaml:"texture_dirs"`
	OutputDir   string   `yaml:"output_dir"`

	// Cut plan, applied in order to every rig
	Cuts []Cut `yaml:"cuts"`

	// Engine
	Mode               string      `yaml:"mode"`
	Threshold          float32     `yaml:"threshold"`
	Sliceable          []Sliceable `yaml:"sliceable"`
	SliceableOnly      bool        `yaml:"sliceable_only"`
	UVChannel          int         `yaml:"uv_channel"`
	MaskEncoding       string      `yaml:"mask_encoding"`
	CapMode            string      `yaml:"cap_mode"`
	RecalculateNormals bool        `yaml:"recalculate_normals"`
	CapMaterial        Material    `yaml:"cap_material"`

	Preview Preview `yaml:"preview"`
	Workers int     `yaml:"workers"`
}

// Cut is one step of the cut plan. Zero fields fall back to the engine settings.
type Cut struct {
	Joint     string  `yaml:"joint"`
	Mode      string  `yaml:"mode"`
	Threshold float32 `yaml:"threshold"`
	UVChannel int     `yaml:"uv_channel"`
	Bitmask   uint32  `yaml:"bitmask"`
}

// Sliceable names a cuttable joint with an optional threshold override.
type Sliceable struct {
	Joint     string  `yaml:"joint"`
	Threshold float32 `yaml:"threshold"`
}

// Material describes the cap material.
type Material struct {
	Name    string     `yaml:"name"`
	Texture string     `yaml:"texture"`
	Color   [4]float32 `yaml:"color"`
}

// Preview holds render settings for the still image written next to each model.
type Preview struct {
	Disabled    bool    `yaml:"disabled"`
	Format      string  `yaml:"format"`
	Size        int     `yaml:"size"`
	Supersample int     `yaml:"supersample"`
	Fill        float64 `yaml:"fill"`
	Spread      float32 `yaml:"spread"`
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	BaseDir   string
	Rigs      []string
	OutputDir string
	Joints    []string // replaces the cut plan
	Mode      string
	Threshold float32
	Workers   int
	NoPreview bool
}

// DefaultCapColor is a dark red used when no cap material is configured.
var DefaultCapColor = [4]float32{0.45, 0.05, 0.05, 1}

// Load reads a YAML config file. Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: read %s", path)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "config: parse %s", path)
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = filepath.Dir(path)
	}
	return cfg, nil
}

// Resolve applies flag overrides, makes paths absolute against BaseDir and fills defaults.
func (c *Config) Resolve(flags Flags) {
	if flags.BaseDir != "" {
		c.BaseDir = flags.BaseDir
	}
	if len(flags.Rigs) > 0 {
		c.Rigs = flags.Rigs
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if len(flags.Joints) > 0 {
		c.Cuts = c.Cuts[:0]
		for _, j := range flags.Joints {
			c.Cuts = append(c.Cuts, Cut{Joint: j})
		}
	}
	if flags.Mode != "" {
		c.Mode = flags.Mode
	}
	if flags.Threshold > 0 {
		c.Threshold = flags.Threshold
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.NoPreview {
		c.Preview.Disabled = true
	}

	if c.BaseDir == "" {
		c.BaseDir, _ = os.Getwd()
	}
	for i, r := range c.Rigs {
		c.Rigs[i] = c.abs(r)
	}
	for i, d := range c.TextureDirs {
		c.TextureDirs[i] = c.abs(d)
	}
	if c.MaskAsset != "" {
		c.MaskAsset = c.abs(c.MaskAsset)
	}
	if c.OutputDir == "" {
		c.OutputDir = "out"
	}
	c.OutputDir = c.abs(c.OutputDir)

	if c.CapMaterial.Name == "" {
		c.CapMaterial.Name = "Cap"
	}
	if c.CapMaterial.Color == ([4]float32{}) {
		c.CapMaterial.Color = DefaultCapColor
	}
	if c.CapMaterial.Texture != "" && len(c.TextureDirs) == 0 {
		c.TextureDirs = []string{c.BaseDir}
	}

	if c.Preview.Size <= 0 {
		c.Preview.Size = preview.DefaultSize
	}
	if c.Preview.Supersample <= 0 {
		c.Preview.Supersample = preview.DefaultSupersample
	}
	if c.Preview.Fill <= 0 || c.Preview.Fill > 1 {
		c.Preview.Fill = preview.DefaultFill
	}
	if c.Preview.Spread == 0 {
		c.Preview.Spread = preview.DefaultSpread
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

func (c *Config) abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// RigFiles expands the rig list. Patterns without matches are an error.
func (c *Config) RigFiles() ([]string, error) {
	var out []string
	for _, pattern := range c.Rigs {
		if !strings.ContainsAny(pattern, "*?[") {
			out = append(out, pattern)
			continue
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "config: rig pattern %s", pattern)
		}
		if len(matches) == 0 {
			return nil, errors.Errorf("config: no rigs match %s", pattern)
		}
		out = append(out, matches...)
	}
	if len(out) == 0 {
		return nil, errors.New("config: no rigs configured")
	}
	return out, nil
}

// Engine converts the engine settings, loading the mask asset if one is configured.
func (c *Config) Engine() (dismember.Config, error) {
	var ec dismember.Config
	var err error
	if ec.Mode, err = dismember.ParseMode(c.Mode); err != nil {
		return ec, errors.Wrap(err, "config")
	}
	if ec.MaskEncoding, err = classify.ParseEncoding(c.MaskEncoding); err != nil {
		return ec, errors.Wrap(err, "config")
	}
	if ec.CapMode, err = dismember.ParseCapMode(c.CapMode); err != nil {
		return ec, errors.Wrap(err, "config")
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return ec, errors.Errorf("config: threshold %v outside (0, 1]", c.Threshold)
	}
	ec.GlobalThreshold = c.Threshold
	ec.UVChannel = c.UVChannel
	ec.SliceableOnly = c.SliceableOnly
	ec.RecalculateNormals = c.RecalculateNormals

	for _, s := range c.Sliceable {
		j, err := humanoid.ParseJoint(s.Joint)
		if err != nil {
			return ec, errors.Wrap(err, "config: sliceable")
		}
		ec.Sliceable = append(ec.Sliceable, dismember.SliceableJoint{Joint: j, Threshold: s.Threshold})
	}

	if c.MaskAsset != "" {
		if ec.MaskAsset, err = humanoid.LoadMaskAsset(c.MaskAsset); err != nil {
			return ec, err
		}
	}
	return ec, nil
}

// Requests converts the cut plan.
func (c *Config) Requests() ([]dismember.Request, error) {
	out := make([]dismember.Request, 0, len(c.Cuts))
	for i, cut := range c.Cuts {
		j, err := humanoid.ParseJoint(cut.Joint)
		if err != nil {
			return nil, errors.Wrapf(err, "config: cut %d", i)
		}
		mode, err := dismember.ParseMode(cut.Mode)
		if err != nil {
			return nil, errors.Wrapf(err, "config: cut %d", i)
		}
		out = append(out, dismember.Request{
			Joint:     j,
			Mode:      mode,
			Threshold: cut.Threshold,
			UVChannel: cut.UVChannel,
			Bitmask:   cut.Bitmask,
		})
	}
	return out, nil
}

// Cap returns the cap material.
func (c *Config) Cap() *dismember.Material {
	return &dismember.Material{Name: c.CapMaterial.Name, Texture: c.CapMaterial.Texture, Color: c.CapMaterial.Color}
}

// PreviewOptions returns the preview renderer settings and output format.
func (c *Config) PreviewOptions() (preview.Options, preview.Format, error) {
	f, err := preview.ParseFormat(c.Preview.Format)
	if err != nil {
		return preview.Options{}, "", errors.Wrap(err, "config")
	}
	return preview.Options{
		Size:        c.Preview.Size,
		Supersample: c.Preview.Supersample,
		Fill:        c.Preview.Fill,
		Spread:      c.Preview.Spread,
	}, f, nil
}
