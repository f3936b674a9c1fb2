package glphong

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glphong/glbuild"
)

// LightKind selects the lighting model of a [Light].
type LightKind = glbuild.LightKind

const (
	LightPoint       = glbuild.LightPoint
	LightSpot        = glbuild.LightSpot
	LightDirectional = glbuild.LightDirectional
)

// Default light parameters.
const (
	DefaultLightPower      = 0.5
	DefaultSpotCutoffAngle = 40 // degrees
	DefaultSpotFalloff     = 0.4
)

// DefaultAttenuation is the attenuation of new lights: range 50 (unused by
// generated code), constant 1, linear 0.09 and quadratic 0.032.
var DefaultAttenuation = [4]float32{50, 1, 0.09, 0.032}

var errZeroDirection = errors.New("zero direction")

// Light describes a light illuminating a [PhongMaterial]. Only Kind and Index
// affect generated shader code; the remaining fields are uploaded as uniforms
// every draw and may change freely between draws.
type Light struct {
	Kind LightKind
	// Index suffixes the light's uniform names. Indices of a material's lights
	// must be unique and dense starting at 0.
	Index int
	// Position in view space. Unused by directional lights.
	Position ms3.Vec
	// Direction the light points to. Unused by point lights.
	Direction ms3.Vec
	// Color is the linear RGB color of the light.
	Color ms3.Vec
	Power float32
	// Attenuation holds range, constant, linear and quadratic attenuation factors.
	// The range at index 0 is not used by generated code.
	Attenuation [4]float32
	// SpotCutoffAngle is the half aperture of the spot cone in degrees.
	// Values of 180 or more light the full sphere.
	SpotCutoffAngle float32
	// SpotFalloff controls the spot intensity falloff towards the cone edge.
	SpotFalloff float32
}

var _ glbuild.Light = (*Light)(nil)

func newLight(kind LightKind, index int) *Light {
	return &Light{
		Kind:            kind,
		Index:           index,
		Direction:       ms3.Vec{Z: -1},
		Color:           ms3.Vec{X: 1, Y: 1, Z: 1},
		Power:           DefaultLightPower,
		Attenuation:     DefaultAttenuation,
		SpotCutoffAngle: DefaultSpotCutoffAngle,
		SpotFalloff:     DefaultSpotFalloff,
	}
}

// NewPointLight returns a white point light at position with default power and attenuation.
func NewPointLight(index int, position ms3.Vec) *Light {
	l := newLight(LightPoint, index)
	l.Position = position
	return l
}

// NewSpotLight returns a white spot light at position pointing in direction
// with a 40 degree cutoff angle and default falloff.
func NewSpotLight(index int, position, direction ms3.Vec) *Light {
	l := newLight(LightSpot, index)
	l.Position = position
	l.Direction = direction
	return l
}

// NewDirectionalLight returns a white directional light pointing in direction.
func NewDirectionalLight(index int, direction ms3.Vec) *Light {
	l := newLight(LightDirectional, index)
	l.Direction = direction
	return l
}

func (l *Light) LightKind() LightKind { return l.Kind }
func (l *Light) LightIndex() int      { return l.Index }

// Validate checks the light's parameters are usable for its kind. It does not
// check the light index, which depends on the material's other lights.
func (l *Light) Validate() error {
	var errs []error
	if !finiteVec(l.Color) || !finite(l.Power) {
		errs = append(errs, errors.New("non-finite color or power"))
	}
	for i, a := range l.Attenuation {
		if !finite(a) {
			errs = append(errs, fmt.Errorf("non-finite attenuation[%d]", i))
		}
	}
	if l.Kind != LightDirectional && !finiteVec(l.Position) {
		errs = append(errs, errors.New("non-finite position"))
	}
	if l.Kind != LightPoint {
		if !finiteVec(l.Direction) {
			errs = append(errs, errors.New("non-finite direction"))
		} else if l.Direction == (ms3.Vec{}) {
			errs = append(errs, errZeroDirection)
		}
	}
	if l.Kind == LightSpot {
		if !finite(l.SpotFalloff) || l.SpotFalloff <= 0 {
			errs = append(errs, fmt.Errorf("spot falloff must be finite and positive, got %v", l.SpotFalloff))
		}
		if !finite(l.SpotCutoffAngle) || l.SpotCutoffAngle <= 0 {
			errs = append(errs, fmt.Errorf("spot cutoff angle must be finite and positive, got %v", l.SpotCutoffAngle))
		}
	}
	return errors.Join(errs...)
}

func finite(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}

func finiteVec(v ms3.Vec) bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}
