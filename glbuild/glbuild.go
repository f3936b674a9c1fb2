package glbuild

import (
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// Placeholder tokens replaced in base shader templates by [Merge].
const (
	// LightCodePlaceholder is replaced by the generated per-light statements.
	LightCodePlaceholder = "%LIGHT_CODE%"
	// LightVarsPlaceholder is replaced by declarations of the uniforms and
	// varyings the generated statements reference. Templates that declare
	// light variables themselves need not contain it.
	LightVarsPlaceholder = "%LIGHT_VARS%"
)

// ErrInvalidLightIndex is returned when light indices within one build are duplicated or not dense.
var ErrInvalidLightIndex = errors.New("invalid light index")

// Light describes a light to generate shader code for. The generated code
// depends only on the kind and index of each light; light parameters are
// uploaded as uniforms.
type Light interface {
	// LightKind returns the lighting model of the light.
	LightKind() LightKind
	// LightIndex returns the 0-based index used to suffix the light's uniform and variable names.
	// Indices must be unique and dense within a single build.
	LightIndex() int
	// Validate returns an error if the light's parameters cannot produce valid shading.
	Validate() error
}

// Stage is a bit set of shader stages.
type Stage uint8

const (
	StageVertex Stage = 1 << iota
	StageFragment
)

// VarDecl is a per-light uniform or varying referenced by generated code.
type VarDecl struct {
	Name    string // Full name including the light index suffix, i.e: uLightPosition0.
	Base    string // Name without suffix, i.e: uLightPosition.
	Index   int
	Type    string // GLSL type.
	Varying bool
	Stages  Stage
}

// AppendDecl appends the GLSL declaration of the variable for the stage.
// legacy selects the GLSL ES 1.0 "varying" qualifier over in/out.
func (v VarDecl) AppendDecl(b []byte, stage Stage, legacy bool) []byte {
	switch {
	case !v.Varying:
		b = append(b, "uniform "...)
	case legacy:
		b = append(b, "varying "...)
	case stage == StageVertex:
		b = append(b, "out "...)
	default:
		b = append(b, "in "...)
	}
	b = append(b, v.Type...)
	b = append(b, ' ')
	b = append(b, v.Name...)
	return append(b, ";\n"...)
}

// Reference is an identifier generated code uses but expects the base template to declare.
type Reference struct {
	Name   Ident
	Stages Stage
}

var lightVarTypes = map[string]string{
	UniformLightPosition:    "vec3",
	UniformLightDirection:   "vec3",
	UniformLightColor:       "vec3",
	UniformLightPower:       "float",
	UniformLightAttenuation: "vec4",
	UniformSpotCutoffAngle:  "float",
	UniformSpotFalloff:      "float",
	VaryingAttenuation:      "float",
}

// Fragment is the generated light code for one ordered light list.
type Fragment struct {
	// Vertex and Fragment are the statements to substitute for [LightCodePlaceholder]
	// in the vertex and fragment templates. Both are empty for an empty light list.
	Vertex   string
	Fragment string
	// VertexDecls and FragmentDecls declare the per-light variables used by each stage.
	VertexDecls   string
	FragmentDecls string

	VertexStmts   []Stmt
	FragmentStmts []Stmt
	// Vars lists per-light uniforms and varyings in order of first use.
	Vars []VarDecl
	// Requires lists identifiers the templates must declare.
	Requires []Reference
	// Key identifies the light list composition (kinds and indices). See [LightConfigHash].
	Key uint64
}

// Uniforms returns the names of the per-light uniforms referenced by the generated code.
func (f *Fragment) Uniforms() []string {
	var names []string
	for _, v := range f.Vars {
		if !v.Varying {
			names = append(names, v.Name)
		}
	}
	return names
}

// MergeVertex returns the vertex template with placeholders replaced by generated vertex code.
func (f *Fragment) MergeVertex(template string) string {
	return Merge(template, f.Vertex, f.VertexDecls)
}

// MergeFragment returns the fragment template with placeholders replaced by generated fragment code.
func (f *Fragment) MergeFragment(template string) string {
	return Merge(template, f.Fragment, f.FragmentDecls)
}

// Merge replaces every occurrence of [LightCodePlaceholder] in template with
// code and every occurrence of [LightVarsPlaceholder] with decls.
func Merge(template, code, decls string) string {
	merged := strings.ReplaceAll(template, LightVarsPlaceholder, decls)
	return strings.ReplaceAll(merged, LightCodePlaceholder, code)
}

// Programmer implements light shader code generation.
type Programmer struct {
	scratch []byte
	idents  []Ident
	legacy  bool
}

// NewDefaultProgrammer returns a Programmer that declares varyings with GLSL 1.30+ in/out qualifiers.
func NewDefaultProgrammer() *Programmer {
	return &Programmer{
		scratch: make([]byte, 0, 1024),
	}
}

// SetLegacyVaryings selects the GLSL ES 1.0 "varying" qualifier for generated declarations.
func (p *Programmer) SetLegacyVaryings(legacy bool) { p.legacy = legacy }

// Build generates the light code for lights in order. Output is a pure function
// of the kinds and indices of lights: identical input yields byte-identical output.
func (p *Programmer) Build(lights []Light) (Fragment, error) {
	err := ValidateLights(lights)
	if err != nil {
		return Fragment{}, err
	}
	frag := Fragment{Key: LightConfigHash(lights)}
	for _, light := range lights {
		gen := codegens[light.LightKind()]
		idx := light.LightIndex()
		frag.VertexStmts = gen.vertex(frag.VertexStmts, idx)
		frag.FragmentStmts = gen.fragment(frag.FragmentStmts, idx)
		frag.FragmentStmts = AppendContribution(frag.FragmentStmts, idx)
	}
	frag.Vars, frag.Requires, err = p.collectVars(frag.Vars, frag.Requires, StageVertex, frag.VertexStmts)
	if err != nil {
		return Fragment{}, err
	}
	frag.Vars, frag.Requires, err = p.collectVars(frag.Vars, frag.Requires, StageFragment, frag.FragmentStmts)
	if err != nil {
		return Fragment{}, err
	}

	p.scratch = AppendStmts(p.scratch[:0], 0, frag.VertexStmts...)
	frag.Vertex = string(p.scratch)
	p.scratch = AppendStmts(p.scratch[:0], 0, frag.FragmentStmts...)
	frag.Fragment = string(p.scratch)
	p.scratch = p.AppendDecls(p.scratch[:0], StageVertex, frag.Vars)
	frag.VertexDecls = string(p.scratch)
	p.scratch = p.AppendDecls(p.scratch[:0], StageFragment, frag.Vars)
	frag.FragmentDecls = string(p.scratch)
	return frag, nil
}

// AppendDecls appends declarations of the vars used in stage.
func (p *Programmer) AppendDecls(b []byte, stage Stage, vars []VarDecl) []byte {
	for _, v := range vars {
		if v.Stages&stage != 0 {
			b = v.AppendDecl(b, stage, p.legacy)
		}
	}
	return b
}

// collectVars walks stmts and appends the per-light variables and template
// references it finds that are not yet present. An identifier with a light
// index suffix whose base name has no known type is an error, since no
// declaration could be generated for it.
func (p *Programmer) collectVars(vars []VarDecl, refs []Reference, stage Stage, stmts []Stmt) ([]VarDecl, []Reference, error) {
	p.idents = AppendDeclared(p.idents[:0], stmts...)
	nlocal := len(p.idents)
	p.idents = AppendIdents(p.idents, stmts...)
	locals := p.idents[:nlocal]
NEXTIDENT:
	for _, id := range p.idents[nlocal:] {
		if slices.Contains(locals, id) {
			continue
		}
		base, index, isLightVar := splitLightName(string(id))
		if !isLightVar {
			for i := range refs {
				if refs[i].Name == id {
					refs[i].Stages |= stage
					continue NEXTIDENT
				}
			}
			refs = append(refs, Reference{Name: id, Stages: stage})
			continue
		}
		typ, ok := lightVarTypes[base]
		if !ok {
			return vars, refs, fmt.Errorf("identifier %q has a light index suffix but no known declaration", id)
		}
		for i := range vars {
			if vars[i].Name == string(id) {
				vars[i].Stages |= stage
				continue NEXTIDENT
			}
		}
		vars = append(vars, VarDecl{
			Name:    string(id),
			Base:    base,
			Index:   index,
			Type:    typ,
			Varying: base == VaryingAttenuation,
			Stages:  stage,
		})
	}
	return vars, refs, nil
}

// splitLightName splits a name ending in a decimal index into base and index.
func splitLightName(name string) (base string, index int, ok bool) {
	end := len(name)
	for end > 0 && name[end-1] >= '0' && name[end-1] <= '9' {
		end--
	}
	if end == len(name) || end == 0 || len(name)-end > 9 {
		return "", 0, false
	}
	for _, c := range name[end:] {
		index = index*10 + int(c-'0')
	}
	return name[:end], index, true
}

// ValidateLights checks light kinds, that indices are unique and dense within
// [0, len(lights)) and each light's own parameter validation. All problems
// found are joined in the returned error. A nil light, including a nil pointer
// stored in the interface, is reported as an error.
func ValidateLights(lights []Light) error {
	seen := make([]bool, len(lights))
	var errs []error
	for pos, light := range lights {
		if isNilLight(light) {
			errs = append(errs, fmt.Errorf("nil light at position %d", pos))
			continue
		}
		kind := light.LightKind()
		if !kind.IsValid() {
			errs = append(errs, fmt.Errorf("light at position %d: unknown kind %s", pos, kind))
		}
		idx := light.LightIndex()
		if idx < 0 || idx >= len(lights) {
			errs = append(errs, fmt.Errorf("%w: light at position %d has index %d, want index in [0,%d)", ErrInvalidLightIndex, pos, idx, len(lights)))
		} else if seen[idx] {
			errs = append(errs, fmt.Errorf("%w: duplicate index %d at position %d", ErrInvalidLightIndex, idx, pos))
		} else {
			seen[idx] = true
		}
		err := light.Validate()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s light %d: %w", kind, idx, err))
		}
	}
	return errors.Join(errs...)
}

func isNilLight(light Light) bool {
	if light == nil {
		return true
	}
	v := reflect.ValueOf(light)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// LightConfigHash returns a key for the composition of lights: their kinds and
// indices in order. Lights differing only in parameters hash equally since
// they generate identical code. Lights must be non-nil.
func LightConfigHash(lights []Light) uint64 {
	const seed = 0xff51afd7ed558ccd
	buf := make([]byte, 0, 8*len(lights))
	for _, light := range lights {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(light.LightKind()))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(light.LightIndex()))
	}
	return hash(buf, seed^uint64(len(lights)))
}

func hash(b []byte, in uint64) uint64 {
	x := in
	for len(b) >= 8 {
		x ^= binary.LittleEndian.Uint64(b)
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
		b = b[8:]
	}
	if len(b) > 0 {
		var buf [8]byte
		copy(buf[:], b)
		x ^= binary.LittleEndian.Uint64(buf[:])
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
	}
	return x
}
