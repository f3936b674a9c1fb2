// Package glphongaux wires scene configuration files to Phong materials and
// writes their generated shader sources.
package glphongaux

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/soypat/glphong"
	"github.com/soypat/glphong/glprog"
)

// GenerateConfig configures [Generate].
type GenerateConfig struct {
	// VertexOut and FragmentOut receive the merged shader sources. Nil writers are skipped.
	VertexOut   io.Writer
	FragmentOut io.Writer
	// Compiler links the generated sources. Nil selects a [glprog.HeadlessCompiler].
	Compiler glprog.Compiler
	Logger   *slog.Logger
}

// Generate builds and compiles the scene's material, then writes its
// generated sources. The returned material is compiled and may be used to draw
// if cfg.Compiler is a GPU compiler.
func Generate(scene *SceneConfig, cfg GenerateConfig) (*glphong.PhongMaterial, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if scene == nil {
		return nil, errors.New("nil scene config")
	}
	compiler := cfg.Compiler
	if compiler == nil {
		compiler = new(glprog.HeadlessCompiler)
	}
	m, err := scene.NewMaterial(log)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	err = m.Rebuild(compiler)
	if err != nil {
		var compileErr *glprog.ShaderCompileError
		if errors.As(err, &compileErr) {
			log.Error("shader compilation failed", slog.String("source", compileErr.Source()))
		}
		return nil, err
	}
	vertex, fragment, err := m.Sources()
	if err != nil {
		return nil, err
	}
	frag := m.Fragment()
	log.Info("compiled material",
		slog.Int("lights", len(m.Lights())),
		slog.Int("uniforms", len(frag.Uniforms())),
		slog.String("key", fmt.Sprintf("%016x", frag.Key)),
		slog.Duration("elapsed", time.Since(start)),
	)
	if cfg.VertexOut != nil {
		_, err = io.WriteString(cfg.VertexOut, vertex)
		if err != nil {
			return nil, fmt.Errorf("writing vertex source: %w", err)
		}
	}
	if cfg.FragmentOut != nil {
		_, err = io.WriteString(cfg.FragmentOut, fragment)
		if err != nil {
			return nil, fmt.Errorf("writing fragment source: %w", err)
		}
	}
	return m, nil
}
