package glbuild

import (
	"fmt"
	"strconv"
	"strings"
)

// LightKind selects the lighting model code generated for a light.
type LightKind uint8

const (
	LightPoint LightKind = iota
	LightSpot
	LightDirectional
	numLightKinds
)

func (k LightKind) String() string {
	switch k {
	case LightPoint:
		return "point"
	case LightSpot:
		return "spot"
	case LightDirectional:
		return "directional"
	}
	return "LightKind(" + strconv.Itoa(int(k)) + ")"
}

// IsValid reports whether k is one of the defined light kinds.
func (k LightKind) IsValid() bool { return k < numLightKinds }

// ParseLightKind parses the case-insensitive name of a light kind as returned by [LightKind.String].
// "dir" is accepted as shorthand for directional.
func ParseLightKind(s string) (LightKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "point":
		return LightPoint, nil
	case "spot":
		return LightSpot, nil
	case "directional", "dir":
		return LightDirectional, nil
	}
	return 0, fmt.Errorf("unknown light kind %q", s)
}

// Names of uniforms and varyings referenced by generated light code. Each is
// suffixed with the light index in generated source, i.e: uLightPosition0.
const (
	UniformLightPosition    = "uLightPosition"
	UniformLightDirection   = "uLightDirection"
	UniformLightColor       = "uLightColor"
	UniformLightPower       = "uLightPower"
	UniformLightAttenuation = "uLightAttenuation"
	UniformSpotCutoffAngle  = "uSpotCutoffAngle"
	UniformSpotFalloff      = "uSpotFalloff"
	VaryingAttenuation      = "vAttenuation"
)

// Identifiers the base templates must declare (and zero-initialize where they
// are accumulators) for generated light code to compile.
const (
	identEyeVec    = Ident("vEyeVec")
	identDist      = Ident("dist")
	identN         = Ident("N")
	identL         = Ident("L")
	identNdotL     = Ident("NdotL")
	identPower     = Ident("power")
	identInten     = Ident("intensity")
	identKd        = Ident("Kd")
	identKs        = Ident("Ks")
	identShininess = Ident("uShininess")
)

// TemplateIdents lists the identifiers generated light code expects the base
// templates to declare. Accumulators must be zero-initialized by the template.
var TemplateIdents = []Ident{
	identEyeVec, identDist, identN, identL, identNdotL,
	identPower, identInten, identKd, identKs, identShininess,
}

// lightCodegen appends the kind specific statements of light index to the vertex and fragment stage.
type lightCodegen struct {
	vertex   func(dst []Stmt, index int) []Stmt
	fragment func(dst []Stmt, index int) []Stmt
}

var codegens = [numLightKinds]lightCodegen{
	LightPoint:       {vertex: appendAttenuationStmts, fragment: appendPointFragment},
	LightSpot:        {vertex: appendAttenuationStmts, fragment: appendSpotFragment},
	LightDirectional: {vertex: appendDirectionalVertex, fragment: appendDirectionalFragment},
}

// appendAttenuationStmts computes distance based attenuation. Attenuation slot 0 is unused.
//
//	dist = distance(-vEyeVec, uLightPosition0);
//	vAttenuation0 = 1.0 / (uLightAttenuation0[1] + uLightAttenuation0[2] * dist + uLightAttenuation0[3] * dist * dist);
func appendAttenuationStmts(dst []Stmt, index int) []Stmt {
	pos := LightIdent(UniformLightPosition, index)
	att := LightIdent(UniformLightAttenuation, index)
	return append(dst,
		Set(identDist, Fn("distance", Neg{X: identEyeVec}, pos)),
		Set(LightIdent(VaryingAttenuation, index), Div(Float(1),
			Add(
				Add(Index{X: att, I: 1}, Mul(Index{X: att, I: 2}, identDist)),
				Mul(Mul(Index{X: att, I: 3}, identDist), identDist),
			),
		)),
	)
}

// appendPointFragment sets L from the light position in view space.
//
//	L = normalize(uLightPosition0 + vEyeVec);
func appendPointFragment(dst []Stmt, index int) []Stmt {
	return append(dst, Set(identL, Fn("normalize", Add(LightIdent(UniformLightPosition, index), identEyeVec))))
}

// appendSpotFragment restricts the point light vector to the spot cone. A
// cutoff of 180 degrees or more lights the full sphere. The cutoff is a
// uniform, so the cone block is always emitted and the full sphere case is
// decided when the shader runs rather than when the code is generated. The
// falloff rescale divides by (1 - cos(cutoff)) and by the spot factor itself unguarded.
func appendSpotFragment(dst []Stmt, index int) []Stmt {
	dst = appendPointFragment(dst, index)
	spotDir := LightIdent("spotDir", index)
	factor := LightIdent("spotFactor", index)
	cutoff := LightIdent(UniformSpotCutoffAngle, index)
	cosCutoff := Fn("cos", Fn("radians", cutoff))
	return append(dst,
		Decl{Type: "vec3", Name: spotDir, Init: Fn("normalize", Neg{X: LightIdent(UniformLightDirection, index)})},
		Decl{Type: "float", Name: factor, Init: Fn("dot", identL, spotDir)},
		If{
			Cond: Less(cutoff, Float(180)),
			Then: []Stmt{
				If{
					Cond: GreaterEq(factor, cosCutoff),
					Then: []Stmt{
						Set(factor, Sub(Float(1), Div(Mul(Sub(Float(1), factor), Float(1)), Sub(Float(1), cosCutoff)))),
						Set(factor, Fn("pow", factor, Div(Mul(LightIdent(UniformSpotFalloff, index), Float(1)), factor))),
					},
					Else: []Stmt{
						Set(factor, Float(0)),
					},
				},
				Set(identL, Mul(identL, factor)),
			},
		},
	)
}

// appendDirectionalVertex: directional lights do not attenuate.
//
//	vAttenuation0 = 1.0;
func appendDirectionalVertex(dst []Stmt, index int) []Stmt {
	return append(dst, Set(LightIdent(VaryingAttenuation, index), Float(1)))
}

// appendDirectionalFragment:
//
//	L = normalize(-uLightDirection0);
func appendDirectionalFragment(dst []Stmt, index int) []Stmt {
	return append(dst, Set(identL, Fn("normalize", Neg{X: LightIdent(UniformLightDirection, index)})))
}

// AppendContribution appends the Phong diffuse and specular accumulation shared by all light kinds.
// NdotL is floored at 0.1 so faces facing away from every light are not fully black.
func AppendContribution(dst []Stmt, index int) []Stmt {
	lightPower := LightIdent(UniformLightPower, index)
	attenuation := LightIdent(VaryingAttenuation, index)
	return append(dst,
		Set(identNdotL, Fn("max", Fn("dot", identN, identL), Float(0.1))),
		Set(identPower, Mul(Mul(lightPower, identNdotL), attenuation)),
		Accumulate(identInten, identPower),
		Accumulate(Swizzle{X: identKd, Sel: "rgb"}, Mul(LightIdent(UniformLightColor, index), identPower)),
		Accumulate(identKs, Mul(Mul(Fn("pow", identNdotL, identShininess), attenuation), lightPower)),
	)
}
