// Package glphong implements a Phong shaded material whose GLSL light code is
// generated for an ordered list of point, spot and directional lights.
//
// Light code is spliced into vertex and fragment templates at the
// %LIGHT_CODE% placeholder and per-light declarations at %LIGHT_VARS%. The
// templates must declare and zero-initialize the accumulators the generated
// code uses; see [glbuild.TemplateIdents] and the default templates.
package glphong

import (
	_ "embed"
)

//go:embed phong_vertex.glsl
var defaultVertex string

//go:embed phong_fragment.glsl
var defaultFragment string

// DefaultVertexTemplate returns the default Phong vertex shader template. It
// expects callers to upload the uMVPMatrix, uMMatrix, uVMatrix and uNMatrix
// transform uniforms.
func DefaultVertexTemplate() string { return defaultVertex }

// DefaultFragmentTemplate returns the default Phong fragment shader template.
func DefaultFragmentTemplate() string { return defaultFragment }

// TransformUniforms lists the transform uniforms of the default vertex
// template, suitable for [MaterialConfig.ExtraUniforms].
func TransformUniforms() []string {
	return []string{"uMVPMatrix", "uMMatrix", "uVMatrix", "uNMatrix"}
}
