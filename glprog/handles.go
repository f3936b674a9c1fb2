package glprog

import (
	"fmt"
	"log/slog"
)

// Handles caches uniform locations of one program build. A Handles value must
// not be used with a program other than the one it was resolved against.
type Handles struct {
	prog   uint32
	names  []string
	locs   map[string]int32
	absent int
}

// Resolve looks up the location of every name in prog. Names absent from the
// program resolve to [InvalidHandle] and are logged at debug level when log is not nil.
func Resolve(prog Program, log *slog.Logger, names ...string) (Handles, error) {
	if prog == nil {
		return Handles{}, fmt.Errorf("resolve uniforms: nil program")
	}
	h := Handles{
		prog: prog.ID(),
		locs: make(map[string]int32, len(names)),
	}
	for _, name := range names {
		if _, ok := h.locs[name]; ok {
			continue
		}
		loc, err := prog.UniformLocation(name)
		if err != nil || loc < 0 {
			loc = InvalidHandle
			h.absent++
			if log != nil {
				log.Debug("uniform handle unresolved", slog.String("uniform", name), slog.Any("err", fmt.Errorf("%w: %v", ErrUniformNotFound, err)))
			}
		}
		h.locs[name] = loc
		h.names = append(h.names, name)
	}
	return h, nil
}

// Program returns the ID of the program the handles were resolved against.
func (h *Handles) Program() uint32 { return h.prog }

// Handle returns the location of name or [InvalidHandle] if it was absent or never resolved.
func (h *Handles) Handle(name string) int32 {
	loc, ok := h.locs[name]
	if !ok {
		return InvalidHandle
	}
	return loc
}

// Names returns resolved names in resolution order.
func (h *Handles) Names() []string { return h.names }

// Absent returns the number of names that resolved to [InvalidHandle].
func (h *Handles) Absent() int { return h.absent }

// Uniform1f uploads v to name through up. Absent uniforms are skipped.
func (h *Handles) Uniform1f(up Uploader, name string, v float32) {
	if loc := h.Handle(name); loc != InvalidHandle {
		up.Uniform1f(loc, v)
	}
}

// Uniform3f uploads v to name through up. Absent uniforms are skipped.
func (h *Handles) Uniform3f(up Uploader, name string, v [3]float32) {
	if loc := h.Handle(name); loc != InvalidHandle {
		up.Uniform3f(loc, v)
	}
}

// Uniform4f uploads v to name through up. Absent uniforms are skipped.
func (h *Handles) Uniform4f(up Uploader, name string, v [4]float32) {
	if loc := h.Handle(name); loc != InvalidHandle {
		up.Uniform4f(loc, v)
	}
}
