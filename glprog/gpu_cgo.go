//go:build !tinygo && cgo

package glprog

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/glgl/v4.6-core/glgl"
)

// InitContext creates a hidden 1x1 GLFW window with a current OpenGL 4.6 core
// context so programs can be compiled. The calling goroutine must be locked
// to its OS thread with [runtime.LockOSThread] for the lifetime of the context.
func InitContext() (terminate func(), err error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("initializing GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	window, err := glfw.CreateWindow(1, 1, "glphong", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("creating GLFW window: %w", err)
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("initializing OpenGL: %w", err)
	}
	return func() {
		window.Destroy()
		glfw.Terminate()
	}, nil
}

// GPUCompiler compiles programs with the current OpenGL context.
type GPUCompiler struct{}

var _ Compiler = GPUCompiler{}

// CompileProgram implements [Compiler].
func (GPUCompiler) CompileProgram(vertex, fragment string) (Program, error) {
	prog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   vertex + "\x00",
		Fragment: fragment + "\x00",
	})
	if err != nil {
		return nil, err
	}
	return &gpuProgram{prog: prog}, nil
}

type gpuProgram struct {
	prog glgl.Program
}

func (p *gpuProgram) ID() uint32 { return p.prog.ID() }

func (p *gpuProgram) UniformLocation(name string) (int32, error) {
	return p.prog.UniformLocation(name + "\x00")
}

func (p *gpuProgram) Bind() error {
	if p.prog.ID() == 0 {
		return errors.New("bind of deleted program")
	}
	p.prog.Bind()
	return glgl.Err()
}

// Delete releases the program. glgl does not reset the program ID on delete
// so it is zeroed here, which makes Delete idempotent and Bind fail afterwards.
func (p *gpuProgram) Delete() {
	if p.prog.ID() == 0 {
		return
	}
	p.prog.Delete()
	p.prog = glgl.Program{}
}

// GPUUploader uploads uniforms to the currently bound OpenGL program.
type GPUUploader struct{}

var _ Uploader = GPUUploader{}

func (GPUUploader) Uniform1f(handle int32, v float32) { gl.Uniform1f(handle, v) }

func (GPUUploader) Uniform3f(handle int32, v [3]float32) { gl.Uniform3f(handle, v[0], v[1], v[2]) }

func (GPUUploader) Uniform4f(handle int32, v [4]float32) { gl.Uniform4fv(handle, 1, &v[0]) }
