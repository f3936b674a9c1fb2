package glphong

import (
	"errors"
	"fmt"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glphong/glbuild"
)

// Shade is the result of evaluating the material's light code for one surface point.
type Shade struct {
	// Intensity is the summed light power over all lights.
	Intensity float32
	// Kd is the accumulated diffuse light color. Alpha is left at 0.
	Kd [4]float32
	// Ks is the accumulated specular term.
	Ks float32
	// Color combines ambient, diffuse and specular terms as the default
	// fragment template does, with the alpha of the diffuse color.
	Color [4]float32
}

// ShadeCPU evaluates the generated light code of the last build on the CPU
// for a surface with the given normal. eyeVec is the negated view space
// position of the surface point, as passed between shader stages in vEyeVec.
// The material must be built with its current lights.
func (m *PhongMaterial) ShadeCPU(normal, eyeVec ms3.Vec) (Shade, error) {
	if m.state == StateUninitialized {
		return Shade{}, errors.New("material not built")
	} else if m.NeedsRebuild() {
		return Shade{}, ErrNeedsRebuild
	}
	names := m.names
	if len(names) != len(m.lights) {
		names = make([]lightNames, len(m.lights))
		for i := range names {
			names[i] = makeLightNames(i)
		}
	}
	env := glbuild.Env{
		"vEyeVec": glbuild.Vec3(eyeVec.X, eyeVec.Y, eyeVec.Z),
		"dist":    glbuild.Scalar(0),
	}
	m.setLightEnv(env, names)
	err := glbuild.Exec(env, m.frag.VertexStmts...)
	if err != nil {
		return Shade{}, fmt.Errorf("evaluating vertex light code: %w", err)
	}
	n := ms3.Unit(normal)
	env["N"] = glbuild.Vec3(n.X, n.Y, n.Z)
	env["L"] = glbuild.Vec3(0, 0, 0)
	env["Kd"] = glbuild.Vec4([4]float32{})
	env["Ks"] = glbuild.Scalar(0)
	env["intensity"] = glbuild.Scalar(0)
	env["NdotL"] = glbuild.Scalar(0)
	env["power"] = glbuild.Scalar(0)
	env[UniformShininess] = glbuild.Scalar(m.shininess)
	err = glbuild.Exec(env, m.frag.FragmentStmts...)
	if err != nil {
		return Shade{}, fmt.Errorf("evaluating fragment light code: %w", err)
	}
	shade := Shade{
		Intensity: env["intensity"].Float(),
		Kd:        env["Kd"].V,
		Ks:        env["Ks"].Float(),
	}
	for i := range shade.Color {
		shade.Color[i] = m.AmbientColor[i]*m.AmbientIntensity[i] + m.DiffuseColor[i]*shade.Kd[i] + m.specular[i]*shade.Ks
	}
	shade.Color[3] = m.DiffuseColor[3]
	return shade, nil
}
