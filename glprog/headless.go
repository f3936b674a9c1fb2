package glprog

import (
	"errors"
	"fmt"
	"strings"
)

// HeadlessCompiler checks merged sources without a GPU: it rejects leftover
// placeholders, unbalanced delimiters, missing main functions and conflicting
// uniform declarations. Uniforms declared in the sources receive locations in
// order of declaration, mimicking a GL driver that keeps every uniform.
// Programs are valid until deleted. The zero value is ready to use.
type HeadlessCompiler struct {
	lastID   uint32
	compiled int
	live     int
}

var _ Compiler = (*HeadlessCompiler)(nil)

// CompileProgram implements [Compiler].
func (hc *HeadlessCompiler) CompileProgram(vertex, fragment string) (Program, error) {
	prog := &HeadlessProgram{compiler: hc, uniforms: make(map[string]uniformDecl)}
	err := prog.addStage("vertex", vertex)
	if err != nil {
		return nil, err
	}
	err = prog.addStage("fragment", fragment)
	if err != nil {
		return nil, err
	}
	hc.lastID++
	hc.compiled++
	hc.live++
	prog.id = hc.lastID
	return prog, nil
}

// Compiled returns the number of successful compilations.
func (hc *HeadlessCompiler) Compiled() int { return hc.compiled }

// Live returns the number of compiled programs not yet deleted.
func (hc *HeadlessCompiler) Live() int { return hc.live }

type uniformDecl struct {
	typ string
	loc int32
}

// HeadlessProgram is a [Program] returned by [HeadlessCompiler].
type HeadlessProgram struct {
	compiler *HeadlessCompiler
	id       uint32
	uniforms map[string]uniformDecl
	order    []string
	bound    bool
	Vertex   string
	Fragment string
}

func (p *HeadlessProgram) ID() uint32 { return p.id }

func (p *HeadlessProgram) UniformLocation(name string) (int32, error) {
	if p.id == 0 {
		return InvalidHandle, errors.New("program deleted")
	}
	u, ok := p.uniforms[name]
	if !ok {
		return InvalidHandle, fmt.Errorf("%w: %q", ErrUniformNotFound, name)
	}
	return u.loc, nil
}

func (p *HeadlessProgram) Bind() error {
	if p.id == 0 {
		return errors.New("bind of deleted program")
	}
	p.bound = true
	return nil
}

func (p *HeadlessProgram) Delete() {
	if p.id == 0 {
		return
	}
	p.id = 0
	p.bound = false
	p.compiler.live--
}

// Bound reports whether [HeadlessProgram.Bind] was called since creation.
func (p *HeadlessProgram) Bound() bool { return p.bound }

// Uniforms returns declared uniform names in location order.
func (p *HeadlessProgram) Uniforms() []string { return p.order }

func (p *HeadlessProgram) addStage(stage, src string) error {
	if i := placeholderIndex(src); i >= 0 {
		end := min(len(src), i+16)
		return fmt.Errorf("%s: unreplaced placeholder at offset %d: %q", stage, i, src[i:end])
	}
	if !containsWord(src, "main") {
		return fmt.Errorf("%s: missing main function", stage)
	}
	err := checkDelimiters(src)
	if err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}
	switch stage {
	case "vertex":
		p.Vertex = src
	default:
		p.Fragment = src
	}
	seen := make(map[string]bool)
	for _, line := range strings.Split(src, "\n") {
		typ, name, ok := parseUniform(line)
		if !ok {
			continue
		}
		if seen[name] {
			return fmt.Errorf("%s: uniform %q redeclared", stage, name)
		}
		seen[name] = true
		if prev, ok := p.uniforms[name]; ok {
			if prev.typ != typ {
				return fmt.Errorf("uniform %q declared as %s and %s across stages", name, prev.typ, typ)
			}
			continue
		}
		p.uniforms[name] = uniformDecl{typ: typ, loc: int32(len(p.order))}
		p.order = append(p.order, name)
	}
	return nil
}

// placeholderIndex returns the offset of the first %NAME% token in src or -1.
func placeholderIndex(src string) int {
	for off := 0; off < len(src); {
		i := strings.IndexByte(src[off:], '%')
		if i < 0 {
			return -1
		}
		start := off + i
		end := start + 1
		for end < len(src) && (src[end] == '_' || src[end] >= 'A' && src[end] <= 'Z') {
			end++
		}
		if end > start+1 && end < len(src) && src[end] == '%' {
			return start
		}
		off = start + 1
	}
	return -1
}

// parseUniform parses a line of the form "uniform <type> <name>;".
func parseUniform(line string) (typ, name string, ok bool) {
	line = strings.TrimSpace(line)
	rest, ok := strings.CutPrefix(line, "uniform ")
	if !ok {
		return "", "", false
	}
	rest, ok = strings.CutSuffix(rest, ";")
	if !ok {
		return "", "", false
	}
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return "", "", false
	}
	name, _, _ = strings.Cut(fields[1], "[")
	return fields[0], name, true
}

func checkDelimiters(src string) error {
	var stack []byte
	line := 1
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch c {
		case '\n':
			line++
		case '(', '{', '[':
			stack = append(stack, c)
		case ')', '}', ']':
			open := map[byte]byte{')': '(', '}': '{', ']': '['}[c]
			if len(stack) == 0 || stack[len(stack)-1] != open {
				return fmt.Errorf("line %d: unbalanced %q", line, c)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return fmt.Errorf("unclosed %q at end of source", stack[len(stack)-1])
	}
	return nil
}

// Upload is a uniform upload captured by [Recorder].
type Upload struct {
	Handle int32
	N      int // Number of components.
	V      [4]float32
}

// Recorder is an [Uploader] that records uploads in order.
type Recorder struct {
	Uploads []Upload
}

var _ Uploader = (*Recorder)(nil)

func (r *Recorder) Uniform1f(handle int32, v float32) {
	r.Uploads = append(r.Uploads, Upload{Handle: handle, N: 1, V: [4]float32{v}})
}

func (r *Recorder) Uniform3f(handle int32, v [3]float32) {
	r.Uploads = append(r.Uploads, Upload{Handle: handle, N: 3, V: [4]float32{v[0], v[1], v[2]}})
}

func (r *Recorder) Uniform4f(handle int32, v [4]float32) {
	r.Uploads = append(r.Uploads, Upload{Handle: handle, N: 4, V: v})
}

// Last returns the last upload to handle.
func (r *Recorder) Last(handle int32) (Upload, bool) {
	for i := len(r.Uploads) - 1; i >= 0; i-- {
		if r.Uploads[i].Handle == handle {
			return r.Uploads[i], true
		}
	}
	return Upload{}, false
}

// Reset discards recorded uploads.
func (r *Recorder) Reset() { r.Uploads = r.Uploads[:0] }
