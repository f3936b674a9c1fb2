package glphongaux

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glphong"
	"github.com/soypat/glphong/glbuild"
	"gopkg.in/yaml.v3"
)

// SceneConfig describes a Phong material and the lights illuminating it.
type SceneConfig struct {
	Material MaterialConfig `toml:"material" yaml:"material"`
	// Lights are indexed by their position in the list.
	Lights []LightConfig `toml:"lights" yaml:"lights"`
	// Dir is the directory template paths are relative to. Set by [LoadScene].
	Dir string `toml:"-" yaml:"-"`
}

// MaterialConfig configures material colors and templates. Colors are
// "#RGB", "#RRGGBB", "#RRGGBBAA" hex strings or CSS color names.
type MaterialConfig struct {
	Specular         string   `toml:"specular" yaml:"specular"`
	Shininess        *float32 `toml:"shininess" yaml:"shininess"`
	Ambient          string   `toml:"ambient" yaml:"ambient"`
	AmbientIntensity *float32 `toml:"ambient_intensity" yaml:"ambient_intensity"`
	Diffuse          string   `toml:"diffuse" yaml:"diffuse"`
	// VertexTemplate and FragmentTemplate are template file paths. Empty selects the default templates.
	VertexTemplate   string `toml:"vertex_template" yaml:"vertex_template"`
	FragmentTemplate string `toml:"fragment_template" yaml:"fragment_template"`
	LegacyVaryings   bool   `toml:"legacy_varyings" yaml:"legacy_varyings"`
	Strict           bool   `toml:"strict" yaml:"strict"`
}

// LightConfig configures a light. Unset fields take the light constructor defaults.
type LightConfig struct {
	Kind        string      `toml:"kind" yaml:"kind"`
	Position    [3]float32  `toml:"position" yaml:"position"`
	Direction   *[3]float32 `toml:"direction" yaml:"direction"`
	Color       string      `toml:"color" yaml:"color"`
	Power       *float32    `toml:"power" yaml:"power"`
	Attenuation *[4]float32 `toml:"attenuation" yaml:"attenuation"`
	Cutoff      *float32    `toml:"cutoff" yaml:"cutoff"`
	Falloff     *float32    `toml:"falloff" yaml:"falloff"`
}

// Format is a scene configuration file format.
type Format uint8

const (
	FormatTOML Format = iota
	FormatYAML
)

// FormatFromPath selects the format from the file extension of path.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return 0, fmt.Errorf("unknown scene config extension %q, want .toml, .yaml or .yml", filepath.Ext(path))
}

// LoadScene reads a scene config file in the format given by its extension.
func LoadScene(path string) (*SceneConfig, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	cfg, err := DecodeScene(fp, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Dir = filepath.Dir(path)
	return cfg, nil
}

// DecodeScene decodes a scene config from r. Unknown fields are an error.
func DecodeScene(r io.Reader, format Format) (*SceneConfig, error) {
	var cfg SceneConfig
	var err error
	switch format {
	case FormatTOML:
		err = toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg)
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		err = dec.Decode(&cfg)
		if errors.Is(err, io.EOF) {
			err = nil // Empty document.
		}
	default:
		err = fmt.Errorf("unknown format %d", format)
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewLights builds the configured lights indexed in list order.
func (cfg *SceneConfig) NewLights() ([]*glphong.Light, error) {
	lights := make([]*glphong.Light, len(cfg.Lights))
	var errs []error
	for i, lc := range cfg.Lights {
		l, err := lc.newLight(i)
		if err != nil {
			errs = append(errs, fmt.Errorf("light %d: %w", i, err))
			continue
		}
		lights[i] = l
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return lights, nil
}

func (lc *LightConfig) newLight(index int) (*glphong.Light, error) {
	kind, err := glbuild.ParseLightKind(lc.Kind)
	if err != nil {
		return nil, err
	}
	pos := toVec(lc.Position)
	var l *glphong.Light
	switch kind {
	case glphong.LightPoint:
		l = glphong.NewPointLight(index, pos)
	case glphong.LightSpot:
		l = glphong.NewSpotLight(index, pos, ms3.Vec{Z: -1})
	default:
		l = glphong.NewDirectionalLight(index, ms3.Vec{Z: -1})
	}
	if lc.Direction != nil {
		l.Direction = toVec(*lc.Direction)
	}
	if lc.Color != "" {
		c, err := ParseColor(lc.Color)
		if err != nil {
			return nil, err
		}
		l.Color = ms3.Vec{X: c[0], Y: c[1], Z: c[2]}
	}
	if lc.Power != nil {
		l.Power = *lc.Power
	}
	if lc.Attenuation != nil {
		l.Attenuation = *lc.Attenuation
	}
	if lc.Cutoff != nil {
		l.SpotCutoffAngle = *lc.Cutoff
	}
	if lc.Falloff != nil {
		l.SpotFalloff = *lc.Falloff
	}
	return l, l.Validate()
}

// NewMaterial builds the configured material with its lights set. The
// material is not built; call [glphong.PhongMaterial.Rebuild] to compile it.
func (cfg *SceneConfig) NewMaterial(log *slog.Logger) (*glphong.PhongMaterial, error) {
	mc := &cfg.Material
	vertex, err := cfg.readTemplate(mc.VertexTemplate)
	if err != nil {
		return nil, err
	}
	fragment, err := cfg.readTemplate(mc.FragmentTemplate)
	if err != nil {
		return nil, err
	}
	lights, err := cfg.NewLights()
	if err != nil {
		return nil, err
	}
	m := glphong.NewPhongMaterial(glphong.MaterialConfig{
		VertexTemplate:   vertex,
		FragmentTemplate: fragment,
		ExtraUniforms:    glphong.TransformUniforms(),
		LegacyVaryings:   mc.LegacyVaryings,
		Strict:           mc.Strict,
		Logger:           log,
	})
	if mc.Specular != "" {
		c, err := ParseColor(mc.Specular)
		if err != nil {
			return nil, fmt.Errorf("specular: %w", err)
		}
		m.SetSpecularColor(c)
	}
	if mc.Shininess != nil {
		m.SetShininess(*mc.Shininess)
	}
	if mc.Ambient != "" {
		m.AmbientColor, err = ParseColor(mc.Ambient)
		if err != nil {
			return nil, fmt.Errorf("ambient: %w", err)
		}
	}
	if mc.AmbientIntensity != nil {
		k := *mc.AmbientIntensity
		m.AmbientIntensity = [4]float32{k, k, k, 1}
	}
	if mc.Diffuse != "" {
		m.DiffuseColor, err = ParseColor(mc.Diffuse)
		if err != nil {
			return nil, fmt.Errorf("diffuse: %w", err)
		}
	}
	m.SetLights(lights...)
	return m, nil
}

// readTemplate returns the contents of the template at path or "" for an empty path.
func (cfg *SceneConfig) readTemplate(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if !filepath.IsAbs(path) && cfg.Dir != "" {
		path = filepath.Join(cfg.Dir, path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading template: %w", err)
	}
	return string(b), nil
}

func toVec(v [3]float32) ms3.Vec { return ms3.Vec{X: v[0], Y: v[1], Z: v[2]} }
