package glphong

import (
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glphong/glbuild"
	"github.com/soypat/glphong/glprog"
)

// Uniform names of the material state. Light uniform names are those of
// [glbuild] suffixed with the light index.
const (
	UniformAmbientColor     = "uAmbientColor"
	UniformAmbientIntensity = "uAmbientIntensity"
	UniformDiffuseColor     = "uDiffuseColor"
	UniformSpecularColor    = "uSpecularColor"
	UniformShininess        = "uShininess"
)

// lightUniforms is the order of per-light uniform names in lightNames.
var lightUniforms = [...]string{
	glbuild.UniformLightPosition,
	glbuild.UniformLightDirection,
	glbuild.UniformLightColor,
	glbuild.UniformLightPower,
	glbuild.UniformLightAttenuation,
	glbuild.UniformSpotCutoffAngle,
	glbuild.UniformSpotFalloff,
}

type lightNames [len(lightUniforms)]string

func makeLightNames(index int) (names lightNames) {
	var buf []byte
	for i, base := range lightUniforms {
		buf = glbuild.AppendLightName(buf[:0], base, index)
		names[i] = string(buf)
	}
	return names
}

// AdvancedBase holds the material state shared by lit materials: ambient and
// diffuse colors and the lights illuminating the material.
type AdvancedBase struct {
	AmbientColor     [4]float32
	AmbientIntensity [4]float32
	DiffuseColor     [4]float32

	lights []*Light
}

func makeAdvancedBase() AdvancedBase {
	return AdvancedBase{
		AmbientColor:     [4]float32{0.2, 0.2, 0.2, 1},
		AmbientIntensity: [4]float32{0.3, 0.3, 0.3, 1},
		DiffuseColor:     [4]float32{1, 1, 1, 1},
	}
}

// Lights returns the material's lights. Modifying light parameters takes effect
// on the next upload. Modifying a light's kind or index requires a rebuild.
func (b *AdvancedBase) Lights() []*Light { return b.lights }

func (b *AdvancedBase) uniformNames(dst []string) []string {
	return append(dst, UniformAmbientColor, UniformAmbientIntensity, UniformDiffuseColor)
}

// upload pushes ambient, diffuse and light state. names[i] holds the uniform
// names of the light with index i.
func (b *AdvancedBase) upload(h *glprog.Handles, up glprog.Uploader, names []lightNames) {
	h.Uniform4f(up, UniformAmbientColor, b.AmbientColor)
	h.Uniform4f(up, UniformAmbientIntensity, b.AmbientIntensity)
	h.Uniform4f(up, UniformDiffuseColor, b.DiffuseColor)
	for _, l := range b.lights {
		if l.Index < 0 || l.Index >= len(names) {
			continue // Composition validated on use.
		}
		n := &names[l.Index]
		h.Uniform3f(up, n[0], vec3(l.Position))
		h.Uniform3f(up, n[1], vec3(l.Direction))
		h.Uniform3f(up, n[2], vec3(l.Color))
		h.Uniform1f(up, n[3], l.Power)
		h.Uniform4f(up, n[4], l.Attenuation)
		h.Uniform1f(up, n[5], l.SpotCutoffAngle)
		h.Uniform1f(up, n[6], l.SpotFalloff)
	}
}

// setLightEnv stores the uniform values of the lights in env for CPU evaluation of generated code.
func (b *AdvancedBase) setLightEnv(env glbuild.Env, names []lightNames) {
	for _, l := range b.lights {
		n := &names[l.Index]
		env[n[0]] = glbuild.Vec3(l.Position.X, l.Position.Y, l.Position.Z)
		env[n[1]] = glbuild.Vec3(l.Direction.X, l.Direction.Y, l.Direction.Z)
		env[n[2]] = glbuild.Vec3(l.Color.X, l.Color.Y, l.Color.Z)
		env[n[3]] = glbuild.Scalar(l.Power)
		env[n[4]] = glbuild.Vec4(l.Attenuation)
		env[n[5]] = glbuild.Scalar(l.SpotCutoffAngle)
		env[n[6]] = glbuild.Scalar(l.SpotFalloff)
	}
}

func vec3(v ms3.Vec) [3]float32 { return [3]float32{v.X, v.Y, v.Z} }
