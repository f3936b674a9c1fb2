// Package glprog links generated Phong shader sources into GPU programs and
// resolves and uploads their uniforms.
package glprog

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/soypat/glphong/glbuild"
)

// InvalidHandle is the handle of a uniform absent from the program. Uploads to it are no-ops.
const InvalidHandle int32 = -1

// ErrUniformNotFound is reported (never returned by uploads) for uniform names
// the program does not declare or the GLSL compiler optimized away.
var ErrUniformNotFound = errors.New("uniform not found")

// Compiler compiles and links a vertex and fragment shader into a program.
type Compiler interface {
	CompileProgram(vertex, fragment string) (Program, error)
}

// Program is a compiled and linked shader program owned by a material.
type Program interface {
	// ID is a nonzero identifier of the program for the program's lifetime.
	ID() uint32
	// UniformLocation returns the location of the named uniform or an error if it is absent.
	UniformLocation(name string) (int32, error)
	// Bind makes the program current for subsequent draws and uploads.
	Bind() error
	// Delete releases the program. The program must not be used afterwards.
	Delete()
}

// Uploader pushes uniform values to the currently bound program.
type Uploader interface {
	Uniform1f(handle int32, v float32)
	Uniform3f(handle int32, v [3]float32)
	Uniform4f(handle int32, v [4]float32)
}

// ShaderCompileError is returned when the compiler rejects merged shader sources.
// It carries both sources since generated light code is not visible to callers otherwise.
type ShaderCompileError struct {
	Err            error
	VertexSource   string
	FragmentSource string
}

func (e *ShaderCompileError) Error() string {
	return "shader compile: " + e.Err.Error()
}

func (e *ShaderCompileError) Unwrap() error { return e.Err }

// Source returns both sources with line numbers for diagnosis.
func (e *ShaderCompileError) Source() string {
	var sb strings.Builder
	sb.WriteString("// vertex\n")
	appendNumbered(&sb, e.VertexSource)
	sb.WriteString("// fragment\n")
	appendNumbered(&sb, e.FragmentSource)
	return sb.String()
}

func appendNumbered(sb *strings.Builder, src string) {
	for i, line := range strings.Split(src, "\n") {
		fmt.Fprintf(sb, "%4d %s\n", i+1, line)
	}
}

// LinkConfig configures [Link].
type LinkConfig struct {
	VertexTemplate   string
	FragmentTemplate string
	// Strict checks that templates contain the light code placeholder and
	// mention every identifier generated light code requires before compiling.
	Strict bool
	Logger *slog.Logger
}

// Link merges generated light code into the templates and compiles them.
// Compile failures are returned as [*ShaderCompileError] and are not retried.
func Link(c Compiler, cfg LinkConfig, frag *glbuild.Fragment) (Program, error) {
	if c == nil {
		return nil, errors.New("nil compiler")
	}
	if cfg.Strict {
		err := CheckTemplates(cfg.VertexTemplate, cfg.FragmentTemplate, frag)
		if err != nil {
			return nil, err
		}
	}
	vertex := frag.MergeVertex(cfg.VertexTemplate)
	fragment := frag.MergeFragment(cfg.FragmentTemplate)
	prog, err := c.CompileProgram(vertex, fragment)
	if err != nil {
		return nil, &ShaderCompileError{Err: err, VertexSource: vertex, FragmentSource: fragment}
	}
	if cfg.Logger != nil {
		cfg.Logger.Debug("linked program", slog.Uint64("id", uint64(prog.ID())), slog.Int("vertexlen", len(vertex)), slog.Int("fragmentlen", len(fragment)))
	}
	return prog, nil
}

// CheckTemplates reports templates that cannot host the generated code of frag:
// a missing light code placeholder or required identifiers that never appear in
// the template of the stage using them. An empty light list needs no placeholder.
func CheckTemplates(vertexTemplate, fragmentTemplate string, frag *glbuild.Fragment) error {
	var errs []error
	if frag.Vertex != "" && !strings.Contains(vertexTemplate, glbuild.LightCodePlaceholder) {
		errs = append(errs, fmt.Errorf("vertex template missing %s", glbuild.LightCodePlaceholder))
	}
	if frag.Fragment != "" && !strings.Contains(fragmentTemplate, glbuild.LightCodePlaceholder) {
		errs = append(errs, fmt.Errorf("fragment template missing %s", glbuild.LightCodePlaceholder))
	}
	for _, ref := range frag.Requires {
		if ref.Stages&glbuild.StageVertex != 0 && !containsWord(vertexTemplate, string(ref.Name)) {
			errs = append(errs, fmt.Errorf("vertex template does not declare %q", ref.Name))
		}
		if ref.Stages&glbuild.StageFragment != 0 && !containsWord(fragmentTemplate, string(ref.Name)) {
			errs = append(errs, fmt.Errorf("fragment template does not declare %q", ref.Name))
		}
	}
	return errors.Join(errs...)
}

// containsWord reports whether word appears in src delimited by non-identifier characters.
func containsWord(src, word string) bool {
	for off := 0; ; {
		i := strings.Index(src[off:], word)
		if i < 0 {
			return false
		}
		start := off + i
		end := start + len(word)
		if (start == 0 || !isIdentChar(src[start-1])) && (end == len(src) || !isIdentChar(src[end])) {
			return true
		}
		off = end
	}
}

func isIdentChar(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
