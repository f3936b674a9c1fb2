//go:build tinygo || !cgo

package glprog

import "errors"

var errNoCGO = errors.New("GPU shader compilation requires CGo and is not supported on TinyGo")

func InitContext() (terminate func(), err error) {
	return nil, errNoCGO
}

type GPUCompiler struct{}

func (GPUCompiler) CompileProgram(vertex, fragment string) (Program, error) {
	return nil, errNoCGO
}

type GPUUploader struct{}

func (GPUUploader) Uniform1f(handle int32, v float32)    {}
func (GPUUploader) Uniform3f(handle int32, v [3]float32) {}
func (GPUUploader) Uniform4f(handle int32, v [4]float32) {}
