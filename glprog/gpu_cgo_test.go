//go:build !tinygo && cgo

package glprog

import (
	"errors"
	"log"
	"os"
	"runtime"
	"testing"
)

const gpuTestVertex = `#version 330 core
in vec3 aPosition;
void main() {
	gl_Position = vec4(aPosition, 1.0);
}
`

const gpuTestFragment = `#version 330 core
uniform float uShininess;
out vec4 fragColor;
void main() {
	fragColor = vec4(uShininess);
}
`

// OpenGL calls must run on the main thread so GPU checks run before the test suite.
func TestMain(m *testing.M) {
	runtime.LockOSThread()
	var exit int
	err := testGPUProgramLifetime()
	if err != nil {
		exit = 1
		log.Println(err)
	}
	runtime.UnlockOSThread()
	os.Exit(m.Run() | exit)
}

func testGPUProgramLifetime() error {
	terminate, err := InitContext()
	if err != nil {
		log.Println("skipping GPU tests:", err)
		return nil
	}
	defer terminate()
	prog, err := GPUCompiler{}.CompileProgram(gpuTestVertex, gpuTestFragment)
	if err != nil {
		return err
	}
	if prog.ID() == 0 {
		return errors.New("compiled program has zero ID")
	}
	err = prog.Bind()
	if err != nil {
		return err
	}
	loc, err := prog.UniformLocation("uShininess")
	if err != nil {
		return err
	}
	GPUUploader{}.Uniform1f(loc, 96)
	prog.Delete()
	if prog.ID() != 0 {
		return errors.New("deleted program must report zero ID")
	}
	prog.Delete() // Second delete must not reach OpenGL.
	if err := prog.Bind(); err == nil {
		return errors.New("bind of deleted program must fail")
	}
	return nil
}
