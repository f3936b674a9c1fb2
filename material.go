package glphong

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glphong/glbuild"
	"github.com/soypat/glphong/glprog"
)

// ProgramState is the shader lifecycle state of a [PhongMaterial].
type ProgramState uint8

const (
	// StateUninitialized materials have no generated code nor program.
	StateUninitialized ProgramState = iota
	// StateBuilt materials have generated light code for their light composition but no program.
	StateBuilt
	// StateCompiled materials own a linked program with resolved uniform handles.
	StateCompiled
	// StateBound materials have had their program bound by [PhongMaterial.Use].
	StateBound
)

func (s ProgramState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateBuilt:
		return "built"
	case StateCompiled:
		return "compiled"
	case StateBound:
		return "bound"
	}
	return fmt.Sprintf("ProgramState(%d)", uint8(s))
}

var (
	// ErrStaleProgram is returned when uploading through a [Bound] of a program replaced by a rebuild.
	ErrStaleProgram = errors.New("stale program: material was rebuilt or released")
	// ErrNeedsRebuild is returned when the light composition changed since the last build.
	ErrNeedsRebuild = errors.New("light composition changed: material needs rebuild")
	// ErrNotCompiled is returned when using a material without a compiled program.
	ErrNotCompiled = errors.New("material has no compiled program")
)

const defaultShininess = 96

// MaterialConfig configures a [PhongMaterial]. The zero value uses the default Phong templates.
type MaterialConfig struct {
	// VertexTemplate and FragmentTemplate are shader templates containing the
	// light code placeholder. Empty templates select the defaults.
	VertexTemplate   string
	FragmentTemplate string
	// ExtraUniforms are resolved alongside material uniforms so callers can
	// upload uniforms the material does not own, such as transform matrices.
	ExtraUniforms []string
	// LegacyVaryings declares generated varyings with the GLSL ES 1.0 "varying" qualifier.
	LegacyVaryings bool
	// Strict checks templates host generated code before compiling.
	Strict bool
	// Logger receives debug logs of the shader lifecycle. Nil discards logs.
	Logger *slog.Logger
}

// PhongMaterial is a Phong shaded material over a list of lights. Its shader
// code depends on the kinds and indices of its lights and is regenerated and
// recompiled by [PhongMaterial.Rebuild] when that composition changes.
//
// PhongMaterial is not safe for concurrent use. Methods that compile or bind
// programs must be called from the thread owning the graphics context.
type PhongMaterial struct {
	AdvancedBase
	specular  [4]float32
	shininess float32

	cfg        MaterialConfig
	log        *slog.Logger
	programmer *glbuild.Programmer
	scratch    []glbuild.Light

	state ProgramState
	frag  glbuild.Fragment
	prog  glprog.Program
	// handles and names belong to prog.
	handles glprog.Handles
	names   []lightNames
	// generation increments whenever prog is replaced or released.
	generation uint64
}

// NewPhongMaterial returns an uninitialized material with opaque white
// specular color and shininess 96.
func NewPhongMaterial(cfg MaterialConfig) *PhongMaterial {
	if cfg.VertexTemplate == "" {
		cfg.VertexTemplate = DefaultVertexTemplate()
	}
	if cfg.FragmentTemplate == "" {
		cfg.FragmentTemplate = DefaultFragmentTemplate()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := &PhongMaterial{
		AdvancedBase: makeAdvancedBase(),
		specular:     [4]float32{1, 1, 1, 1},
		shininess:    defaultShininess,
		cfg:          cfg,
		log:          log,
		programmer:   glbuild.NewDefaultProgrammer(),
	}
	m.programmer.SetLegacyVaryings(cfg.LegacyVaryings)
	return m
}

// NewPhongMaterialColors returns an uninitialized material like [NewPhongMaterial]
// with the given specular color, ambient color and shininess.
func NewPhongMaterialColors(cfg MaterialConfig, specular, ambient [4]float32, shininess float32) *PhongMaterial {
	m := NewPhongMaterial(cfg)
	m.specular = specular
	m.AmbientColor = ambient
	m.shininess = shininess
	return m
}

// SetSpecularColor sets the RGBA specular color. Values are not clamped.
func (m *PhongMaterial) SetSpecularColor(color [4]float32) { m.specular = color }

// SetSpecularColorVec sets the RGB specular color with alpha 1.
func (m *PhongMaterial) SetSpecularColorVec(color ms3.Vec) {
	m.specular = [4]float32{color.X, color.Y, color.Z, 1}
}

// SetSpecularColorRGBA sets the specular color from its components.
func (m *PhongMaterial) SetSpecularColorRGBA(r, g, b, a float32) {
	m.specular = [4]float32{r, g, b, a}
}

// SetSpecularColorPacked sets the specular color from a packed 0xAARRGGBB color.
// Channels are stored as their raw 0..255 values, not normalized to 0..1.
func (m *PhongMaterial) SetSpecularColorPacked(argb uint32) {
	m.specular = [4]float32{
		float32(argb >> 16 & 0xff),
		float32(argb >> 8 & 0xff),
		float32(argb & 0xff),
		float32(argb >> 24),
	}
}

// SpecularColor returns the RGBA specular color.
func (m *PhongMaterial) SpecularColor() [4]float32 { return m.specular }

// SetShininess sets the specular exponent.
func (m *PhongMaterial) SetShininess(shininess float32) { m.shininess = shininess }

// Shininess returns the specular exponent.
func (m *PhongMaterial) Shininess() float32 { return m.shininess }

// State returns the shader lifecycle state.
func (m *PhongMaterial) State() ProgramState { return m.state }

// SetLights sets the material's lights. Changing the kinds or indices of the
// lights requires a call to [PhongMaterial.Rebuild] before the next use.
func (m *PhongMaterial) SetLights(lights ...*Light) {
	m.lights = slices.Clone(lights)
	if m.state != StateUninitialized && m.NeedsRebuild() {
		m.log.Debug("light composition changed", slog.Int("lights", len(lights)), slog.String("state", m.state.String()))
	}
}

// NeedsRebuild reports whether the material has no generated code or its lights'
// composition differs from that of the last build.
func (m *PhongMaterial) NeedsRebuild() bool {
	if m.state == StateUninitialized {
		return true
	}
	lights, ok := m.buildLights()
	return !ok || glbuild.LightConfigHash(lights) != m.frag.Key
}

func (m *PhongMaterial) buildLights() (lights []glbuild.Light, ok bool) {
	m.scratch = m.scratch[:0]
	ok = true
	for _, l := range m.lights {
		if l == nil {
			ok = false
			m.scratch = append(m.scratch, nil)
			continue
		}
		m.scratch = append(m.scratch, l)
	}
	return m.scratch, ok
}

// Build generates light code for the current lights, releasing any program
// of a previous build. On success the material is [StateBuilt].
func (m *PhongMaterial) Build() error {
	frag, err := m.build()
	m.release()
	if err != nil {
		return err
	}
	m.frag = frag
	m.state = StateBuilt
	return nil
}

// Compile links the code of the last [PhongMaterial.Build] with c and resolves
// uniform handles. On failure the material is released to [StateUninitialized].
func (m *PhongMaterial) Compile(c glprog.Compiler) error {
	if m.state != StateBuilt {
		return fmt.Errorf("compile in state %s: want %s", m.state, StateBuilt)
	}
	frag := m.frag
	prog, handles, names, err := m.link(c, &frag)
	m.release()
	if err != nil {
		return err
	}
	m.install(frag, prog, handles, names)
	return nil
}

// Rebuild generates light code, links it with c and resolves uniform handles
// as a unit. The previous program is released either way: on success the new
// program replaces it and the material is [StateCompiled], on failure the
// material is [StateUninitialized]. Failures are not retried.
func (m *PhongMaterial) Rebuild(c glprog.Compiler) error {
	frag, err := m.build()
	var prog glprog.Program
	var handles glprog.Handles
	var names []lightNames
	if err == nil {
		prog, handles, names, err = m.link(c, &frag)
	}
	m.release()
	if err != nil {
		m.log.Debug("rebuild failed", slog.Any("err", err))
		return err
	}
	m.install(frag, prog, handles, names)
	return nil
}

func (m *PhongMaterial) build() (glbuild.Fragment, error) {
	lights, _ := m.buildLights()
	frag, err := m.programmer.Build(lights)
	if err != nil {
		return glbuild.Fragment{}, fmt.Errorf("generating light code: %w", err)
	}
	m.log.Debug("generated light code", slog.Int("lights", len(lights)), slog.Uint64("key", frag.Key), slog.Int("uniforms", len(frag.Vars)))
	return frag, nil
}

func (m *PhongMaterial) link(c glprog.Compiler, frag *glbuild.Fragment) (glprog.Program, glprog.Handles, []lightNames, error) {
	prog, err := glprog.Link(c, glprog.LinkConfig{
		VertexTemplate:   m.cfg.VertexTemplate,
		FragmentTemplate: m.cfg.FragmentTemplate,
		Strict:           m.cfg.Strict,
		Logger:           m.log,
	}, frag)
	if err != nil {
		return nil, glprog.Handles{}, nil, err
	}
	uniforms := m.uniformNames(nil)
	uniforms = append(uniforms, UniformSpecularColor, UniformShininess)
	uniforms = append(uniforms, m.cfg.ExtraUniforms...)
	uniforms = append(uniforms, frag.Uniforms()...)
	handles, err := glprog.Resolve(prog, m.log, uniforms...)
	if err != nil {
		prog.Delete()
		return nil, glprog.Handles{}, nil, err
	}
	names := make([]lightNames, len(m.lights))
	for i := range names {
		names[i] = makeLightNames(i)
	}
	return prog, handles, names, nil
}

func (m *PhongMaterial) install(frag glbuild.Fragment, prog glprog.Program, handles glprog.Handles, names []lightNames) {
	m.frag = frag
	m.prog = prog
	m.handles = handles
	m.names = names
	m.state = StateCompiled
	m.generation++
	m.log.Debug("installed program", slog.Uint64("id", uint64(prog.ID())), slog.Uint64("generation", m.generation), slog.Int("absent", handles.Absent()))
}

// release deletes the current program, invalidating outstanding [Bound] values.
func (m *PhongMaterial) release() {
	if m.prog != nil {
		m.prog.Delete()
		m.generation++
	}
	m.prog = nil
	m.handles = glprog.Handles{}
	m.names = nil
	m.frag = glbuild.Fragment{}
	m.state = StateUninitialized
}

// Release deletes the material's program. The material must be rebuilt before further use.
func (m *PhongMaterial) Release() { m.release() }

// Fragment returns the light code of the last build.
func (m *PhongMaterial) Fragment() glbuild.Fragment { return m.frag }

// Sources returns the templates merged with the light code of the last build.
func (m *PhongMaterial) Sources() (vertex, fragment string, err error) {
	if m.state == StateUninitialized {
		return "", "", errors.New("material not built")
	}
	return m.frag.MergeVertex(m.cfg.VertexTemplate), m.frag.MergeFragment(m.cfg.FragmentTemplate), nil
}

// Use binds the material's program for drawing and returns the binding
// through which the material state is uploaded. Use may be called any number
// of times per build. It fails with [ErrNeedsRebuild] if the light
// composition changed since the last build.
func (m *PhongMaterial) Use() (*Bound, error) {
	if m.state < StateCompiled {
		return nil, ErrNotCompiled
	}
	if m.NeedsRebuild() {
		return nil, ErrNeedsRebuild
	}
	err := m.prog.Bind()
	if err != nil {
		return nil, fmt.Errorf("binding program: %w", err)
	}
	m.state = StateBound
	return &Bound{m: m, generation: m.generation}, nil
}

// Bound is a material bound for drawing by [PhongMaterial.Use]. It is
// invalidated when the material is rebuilt or released.
type Bound struct {
	m          *PhongMaterial
	generation uint64
}

// Valid reports whether b still refers to the material's current program.
func (b *Bound) Valid() bool {
	return b.m.generation == b.generation && b.m.state == StateBound
}

// Upload pushes the material state through up: ambient, diffuse and light
// uniforms first, then specular color and shininess. Call once per draw.
func (b *Bound) Upload(up glprog.Uploader) error {
	if !b.Valid() {
		return ErrStaleProgram
	}
	m := b.m
	if m.NeedsRebuild() {
		return ErrNeedsRebuild
	}
	m.AdvancedBase.upload(&m.handles, up, m.names)
	m.handles.Uniform4f(up, UniformSpecularColor, m.specular)
	m.handles.Uniform1f(up, UniformShininess, m.shininess)
	return nil
}

// Handle returns the location of a resolved uniform, such as one named in
// [MaterialConfig.ExtraUniforms], or [glprog.InvalidHandle].
func (b *Bound) Handle(name string) int32 {
	if !b.Valid() {
		return glprog.InvalidHandle
	}
	return b.m.handles.Handle(name)
}
