package glbuild_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/glphong/glbuild"
)

type testLight struct {
	kind glbuild.LightKind
	idx  int
	err  error
}

func (l testLight) LightKind() glbuild.LightKind { return l.kind }
func (l testLight) LightIndex() int              { return l.idx }
func (l testLight) Validate() error              { return l.err }

func lightsOf(kinds ...glbuild.LightKind) []glbuild.Light {
	lights := make([]glbuild.Light, len(kinds))
	for i, k := range kinds {
		lights[i] = testLight{kind: k, idx: i}
	}
	return lights
}

func TestBuildEmpty(t *testing.T) {
	p := glbuild.NewDefaultProgrammer()
	frag, err := p.Build(nil)
	if err != nil {
		t.Fatal(err)
	}
	if frag.Vertex != "" || frag.Fragment != "" {
		t.Errorf("expected empty code, got vertex %q fragment %q", frag.Vertex, frag.Fragment)
	}
	if frag.VertexDecls != "" || frag.FragmentDecls != "" || len(frag.Vars) != 0 {
		t.Error("expected no declarations for empty light list")
	}
	const tmpl = "void main(){ %LIGHT_CODE% }"
	got := frag.MergeFragment(tmpl)
	want := strings.ReplaceAll(tmpl, glbuild.LightCodePlaceholder, "")
	if got != want {
		t.Errorf("merged empty light code mismatch:\n%q\n%q", got, want)
	}
}

func TestMergeRepeatedPlaceholders(t *testing.T) {
	p := glbuild.NewDefaultProgrammer()
	frag, err := p.Build(lightsOf(glbuild.LightDirectional))
	if err != nil {
		t.Fatal(err)
	}
	sep := "\n//sep\n"
	tmpl := glbuild.LightVarsPlaceholder + sep + glbuild.LightCodePlaceholder + sep + glbuild.LightVarsPlaceholder + sep + glbuild.LightCodePlaceholder
	got := frag.MergeVertex(tmpl)
	if strings.Contains(got, "%") {
		t.Fatalf("placeholder left after merge:\n%s", got)
	}
	parts := strings.Split(got, sep)
	if len(parts) != 4 {
		t.Fatalf("want 4 merged sections, got %d:\n%s", len(parts), got)
	}
	if parts[0] != frag.VertexDecls || parts[2] != frag.VertexDecls {
		t.Errorf("each %s must receive the declarations:\n%s", glbuild.LightVarsPlaceholder, got)
	}
	if parts[1] != frag.Vertex || parts[3] != frag.Vertex {
		t.Errorf("each %s must receive the light code:\n%s", glbuild.LightCodePlaceholder, got)
	}
	if n := strings.Count(got, "vAttenuation0 = 1.0;"); n != 2 {
		t.Errorf("want directional attenuation twice, got %d:\n%s", n, got)
	}
}

func TestBuildPointLight(t *testing.T) {
	p := glbuild.NewDefaultProgrammer()
	frag, err := p.Build(lightsOf(glbuild.LightPoint))
	if err != nil {
		t.Fatal(err)
	}
	for _, token := range []string{"vAttenuation0", "uLightPosition0"} {
		if !strings.Contains(frag.Fragment, token) {
			t.Errorf("fragment code missing %q:\n%s", token, frag.Fragment)
		}
	}
	merged := frag.MergeFragment("void main(){ %LIGHT_CODE% }")
	if n := strings.Count(merged, glbuild.LightCodePlaceholder); n != 0 {
		t.Errorf("placeholder remains %d times in merged source:\n%s", n, merged)
	}
	const wantVertex = `dist = distance(-vEyeVec, uLightPosition0);
vAttenuation0 = 1.0 / (uLightAttenuation0[1] + uLightAttenuation0[2] * dist + uLightAttenuation0[3] * dist * dist);
`
	if frag.Vertex != wantVertex {
		t.Errorf("point vertex code mismatch, got:\n%s\nwant:\n%s", frag.Vertex, wantVertex)
	}
}

func TestBuildSpotLightSource(t *testing.T) {
	const want = `L = normalize(uLightPosition0 + vEyeVec);
vec3 spotDir0 = normalize(-uLightDirection0);
float spotFactor0 = dot(L, spotDir0);
if (uSpotCutoffAngle0 < 180.0) {
	if (spotFactor0 >= cos(radians(uSpotCutoffAngle0))) {
		spotFactor0 = 1.0 - (1.0 - spotFactor0) * 1.0 / (1.0 - cos(radians(uSpotCutoffAngle0)));
		spotFactor0 = pow(spotFactor0, uSpotFalloff0 * 1.0 / spotFactor0);
	} else {
		spotFactor0 = 0.0;
	}
	L = L * spotFactor0;
}
NdotL = max(dot(N, L), 0.1);
power = uLightPower0 * NdotL * vAttenuation0;
intensity += power;
Kd.rgb += uLightColor0 * power;
Ks += pow(NdotL, uShininess) * vAttenuation0 * uLightPower0;
`
	p := glbuild.NewDefaultProgrammer()
	frag, err := p.Build(lightsOf(glbuild.LightSpot))
	if err != nil {
		t.Fatal(err)
	}
	if frag.Fragment != want {
		t.Errorf("spot fragment code mismatch, got:\n%s\nwant:\n%s", frag.Fragment, want)
	}
	if !strings.Contains(frag.Vertex, "dist = distance(") || !strings.Contains(frag.Vertex, "vAttenuation0 = 1.0 / (") {
		t.Errorf("spot light must share point attenuation:\n%s", frag.Vertex)
	}
}

func TestBuildDirectional(t *testing.T) {
	p := glbuild.NewDefaultProgrammer()
	frag, err := p.Build(lightsOf(glbuild.LightDirectional, glbuild.LightDirectional))
	if err != nil {
		t.Fatal(err)
	}
	const wantVertex = "vAttenuation0 = 1.0;\nvAttenuation1 = 1.0;\n"
	if frag.Vertex != wantVertex {
		t.Errorf("got directional vertex code %q, want %q", frag.Vertex, wantVertex)
	}
	if strings.Contains(frag.Vertex+frag.Fragment, "dist") {
		t.Error("directional light code must not reference dist")
	}
	if !strings.Contains(frag.Fragment, "L = normalize(-uLightDirection1);\n") {
		t.Errorf("missing directional light vector:\n%s", frag.Fragment)
	}
}

func TestBuildOrdering(t *testing.T) {
	const N = 4
	kinds := []glbuild.LightKind{glbuild.LightPoint, glbuild.LightPoint, glbuild.LightPoint, glbuild.LightPoint}
	p := glbuild.NewDefaultProgrammer()
	frag, err := p.Build(lightsOf(kinds...))
	if err != nil {
		t.Fatal(err)
	}
	families := []string{
		"L = normalize(uLightPosition%[1]d + vEyeVec);",
		"power = uLightPower%[1]d * NdotL * vAttenuation%[1]d;",
		"Kd.rgb += uLightColor%[1]d * power;",
		"Ks += pow(NdotL, uShininess) * vAttenuation%[1]d * uLightPower%[1]d;",
	}
	for _, family := range families {
		last := -1
		for i := range N {
			stmt := fmt.Sprintf(family, i)
			if c := strings.Count(frag.Fragment, stmt); c != 1 {
				t.Errorf("want 1 occurrence of %q, got %d", stmt, c)
			}
			pos := strings.Index(frag.Fragment, stmt)
			if pos <= last {
				t.Errorf("statement %q out of input order", stmt)
			}
			last = pos
		}
	}
	if c := strings.Count(frag.Fragment, "intensity += power;"); c != N {
		t.Errorf("want %d intensity accumulations, got %d", N, c)
	}
	if c := strings.Count(frag.Vertex, "dist = distance("); c != N {
		t.Errorf("want %d distance computations, got %d", N, c)
	}
}

func TestBuildDeterministic(t *testing.T) {
	lights := []glbuild.Light{
		testLight{kind: glbuild.LightSpot, idx: 1},
		testLight{kind: glbuild.LightDirectional, idx: 0},
		testLight{kind: glbuild.LightPoint, idx: 2},
	}
	p := glbuild.NewDefaultProgrammer()
	first, err := p.Build(lights)
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Build(lights)
	if err != nil {
		t.Fatal(err)
	}
	third, err := glbuild.NewDefaultProgrammer().Build(lights)
	if err != nil {
		t.Fatal(err)
	}
	for _, other := range []glbuild.Fragment{second, third} {
		if first.Vertex != other.Vertex || first.Fragment != other.Fragment ||
			first.VertexDecls != other.VertexDecls || first.FragmentDecls != other.FragmentDecls {
			t.Fatal("rebuild with unchanged lights yielded different code")
		}
		if first.Key != other.Key {
			t.Error("rebuild with unchanged lights yielded different key")
		}
	}
	// Light at position 0 has index 1: its code comes first.
	if strings.Index(first.Fragment, "spotFactor1") > strings.Index(first.Fragment, "uLightDirection0") {
		t.Error("generated code does not follow input order")
	}
}

func TestBuildInvalidIndices(t *testing.T) {
	p := glbuild.NewDefaultProgrammer()
	duplicate := []glbuild.Light{testLight{idx: 0}, testLight{idx: 0}}
	_, err := p.Build(duplicate)
	if !errors.Is(err, glbuild.ErrInvalidLightIndex) {
		t.Errorf("duplicate indices: want ErrInvalidLightIndex, got %v", err)
	}
	gap := []glbuild.Light{testLight{idx: 0}, testLight{idx: 2}}
	_, err = p.Build(gap)
	if !errors.Is(err, glbuild.ErrInvalidLightIndex) {
		t.Errorf("non-dense indices: want ErrInvalidLightIndex, got %v", err)
	}
	negative := []glbuild.Light{testLight{idx: -1}}
	_, err = p.Build(negative)
	if !errors.Is(err, glbuild.ErrInvalidLightIndex) {
		t.Errorf("negative index: want ErrInvalidLightIndex, got %v", err)
	}
	_, err = p.Build([]glbuild.Light{testLight{kind: 200}})
	if err == nil {
		t.Error("expected error for unknown light kind")
	}
}

type ptrLight struct{ idx int }

func (l *ptrLight) LightKind() glbuild.LightKind { return glbuild.LightPoint }
func (l *ptrLight) LightIndex() int              { return l.idx }
func (l *ptrLight) Validate() error              { return nil }

func TestBuildNilLights(t *testing.T) {
	p := glbuild.NewDefaultProgrammer()
	for _, lights := range [][]glbuild.Light{
		{nil},
		{(*ptrLight)(nil)},
		{&ptrLight{idx: 0}, (*ptrLight)(nil)},
	} {
		_, err := p.Build(lights)
		if err == nil || !strings.Contains(err.Error(), "nil light at position") {
			t.Errorf("want nil light error for %v, got %v", lights, err)
		}
	}
}

func TestBuildLightValidation(t *testing.T) {
	errFalloff := errors.New("missing falloff")
	lights := []glbuild.Light{
		testLight{kind: glbuild.LightPoint, idx: 0},
		testLight{kind: glbuild.LightSpot, idx: 1, err: errFalloff},
	}
	frag, err := glbuild.NewDefaultProgrammer().Build(lights)
	if !errors.Is(err, errFalloff) {
		t.Fatalf("want light validation error, got %v", err)
	}
	if frag.Fragment != "" {
		t.Error("no code must be generated for invalid lights")
	}
	if !strings.Contains(err.Error(), "spot light 1") {
		t.Errorf("error should name the failing light: %v", err)
	}
}

func TestBuildDeclarations(t *testing.T) {
	p := glbuild.NewDefaultProgrammer()
	frag, err := p.Build(lightsOf(glbuild.LightPoint, glbuild.LightSpot))
	if err != nil {
		t.Fatal(err)
	}
	wantVertex := []string{
		"uniform vec3 uLightPosition0;\n",
		"uniform vec4 uLightAttenuation0;\n",
		"out float vAttenuation0;\n",
		"out float vAttenuation1;\n",
	}
	for _, decl := range wantVertex {
		if strings.Count(frag.VertexDecls, decl) != 1 {
			t.Errorf("vertex declarations missing %q:\n%s", decl, frag.VertexDecls)
		}
	}
	wantFragment := []string{
		"uniform vec3 uLightPosition1;\n",
		"uniform vec3 uLightDirection1;\n",
		"uniform float uSpotCutoffAngle1;\n",
		"uniform float uSpotFalloff1;\n",
		"uniform vec3 uLightColor0;\n",
		"uniform float uLightPower0;\n",
		"in float vAttenuation0;\n",
	}
	for _, decl := range wantFragment {
		if strings.Count(frag.FragmentDecls, decl) != 1 {
			t.Errorf("fragment declarations missing %q:\n%s", decl, frag.FragmentDecls)
		}
	}
	if strings.Contains(frag.FragmentDecls, "spotDir1") || strings.Contains(frag.FragmentDecls, "uLightAttenuation") {
		t.Errorf("fragment declarations contain variables it does not use:\n%s", frag.FragmentDecls)
	}
	uniforms := frag.Uniforms()
	for _, u := range uniforms {
		if strings.HasPrefix(u, glbuild.VaryingAttenuation) {
			t.Errorf("varying %q listed as uniform", u)
		}
	}
	if len(uniforms) != 4+7 {
		t.Errorf("want 11 per-light uniforms, got %d: %v", len(uniforms), uniforms)
	}

	p.SetLegacyVaryings(true)
	frag, err = p.Build(lightsOf(glbuild.LightDirectional))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(frag.VertexDecls, "varying float vAttenuation0;") || !strings.Contains(frag.FragmentDecls, "varying float vAttenuation0;") {
		t.Errorf("legacy varyings not used:\n%s\n%s", frag.VertexDecls, frag.FragmentDecls)
	}
	merged := frag.MergeVertex("%LIGHT_VARS%void main(){%LIGHT_CODE%}")
	if merged != "varying float vAttenuation0;\nvoid main(){vAttenuation0 = 1.0;\n}" {
		t.Errorf("unexpected merged vertex source %q", merged)
	}
}

func TestBuildRequires(t *testing.T) {
	frag, err := glbuild.NewDefaultProgrammer().Build(lightsOf(glbuild.LightPoint))
	if err != nil {
		t.Fatal(err)
	}
	required := make(map[glbuild.Ident]glbuild.Stage)
	for _, ref := range frag.Requires {
		required[ref.Name] = ref.Stages
	}
	for _, id := range glbuild.TemplateIdents {
		if _, ok := required[id]; !ok {
			t.Errorf("expected %q in template requirements", id)
		}
	}
	if required["vEyeVec"] != glbuild.StageVertex|glbuild.StageFragment {
		t.Error("vEyeVec is required by both stages")
	}
	if required["dist"] != glbuild.StageVertex {
		t.Error("dist is only required by the vertex stage")
	}
}

func TestLightConfigHash(t *testing.T) {
	a := glbuild.LightConfigHash([]glbuild.Light{testLight{kind: glbuild.LightPoint}})
	b := glbuild.LightConfigHash([]glbuild.Light{testLight{kind: glbuild.LightPoint, err: errors.New("params differ")}})
	if a != b {
		t.Error("lights of same composition must hash equally")
	}
	c := glbuild.LightConfigHash([]glbuild.Light{testLight{kind: glbuild.LightSpot}})
	if a == c {
		t.Error("different kinds hashed equally")
	}
	if glbuild.LightConfigHash(nil) == a {
		t.Error("empty list hashed equal to single light")
	}
}

func fragmentEnv() glbuild.Env {
	return glbuild.Env{
		"N":               glbuild.Vec3(0, 0, 1),
		"vEyeVec":         glbuild.Vec3(0, 0, 0),
		"Kd":              glbuild.Vec4([4]float32{0, 0, 0, 1}),
		"Ks":              glbuild.Scalar(0),
		"intensity":       glbuild.Scalar(0),
		"uShininess":      glbuild.Scalar(96),
		"uLightPosition0": glbuild.Vec3(0, 0, 1),
		"uLightColor0":    glbuild.Vec3(1, 1, 1),
		"uLightPower0":    glbuild.Scalar(1),
		"vAttenuation0":   glbuild.Scalar(1),
		"uSpotFalloff0":   glbuild.Scalar(0.4),
	}
}

func TestSpotBelowCutoff(t *testing.T) {
	frag, err := glbuild.NewDefaultProgrammer().Build(lightsOf(glbuild.LightSpot))
	if err != nil {
		t.Fatal(err)
	}
	env := fragmentEnv()
	env["uSpotCutoffAngle0"] = glbuild.Scalar(40)
	env["uLightDirection0"] = glbuild.Vec3(-1, 0, 0) // Spot axis perpendicular to L.
	err = glbuild.Exec(env, frag.FragmentStmts...)
	if err != nil {
		t.Fatal(err)
	}
	if got := env["spotFactor0"].Float(); got != 0 {
		t.Errorf("spot factor outside cone: want 0, got %v", got)
	}
	if got := env["L"]; got != glbuild.Vec3(0, 0, 0) {
		t.Errorf("L outside cone: want zero vector, got %v", got)
	}
	if got := env["NdotL"].Float(); got != 0.1 {
		t.Errorf("NdotL should be floored at 0.1, got %v", got)
	}
}

func TestSpotInsideCone(t *testing.T) {
	frag, err := glbuild.NewDefaultProgrammer().Build(lightsOf(glbuild.LightSpot))
	if err != nil {
		t.Fatal(err)
	}
	const cutoff, falloff = 40, 0.4
	env := fragmentEnv()
	env["uSpotCutoffAngle0"] = glbuild.Scalar(cutoff)
	env["uLightDirection0"] = glbuild.Vec3(0, -0.5, -1)
	err = glbuild.Exec(env, frag.FragmentStmts...)
	if err != nil {
		t.Fatal(err)
	}
	factor := 1 / math32.Sqrt(1.25) // dot((0,0,1), normalize(0,0.5,1))
	cosCutoff := math32.Cos(cutoff * math32.Pi / 180)
	factor = 1 - (1-factor)*1/(1-cosCutoff)
	factor = math32.Pow(factor, falloff*1/factor)
	got := env["spotFactor0"].Float()
	if math32.Abs(got-factor) > 1e-5 {
		t.Errorf("spot factor inside cone: want %v, got %v", factor, got)
	}
	if L := env["L"]; math32.Abs(L.V[2]-factor) > 1e-5 {
		t.Errorf("L should be scaled by spot factor, got %v", L)
	}
}

func TestSpotFullSphere(t *testing.T) {
	frag, err := glbuild.NewDefaultProgrammer().Build(lightsOf(glbuild.LightSpot))
	if err != nil {
		t.Fatal(err)
	}
	env := fragmentEnv()
	env["uSpotCutoffAngle0"] = glbuild.Scalar(180)
	env["uLightDirection0"] = glbuild.Vec3(-1, 0, 0)
	err = glbuild.Exec(env, frag.FragmentStmts...)
	if err != nil {
		t.Fatal(err)
	}
	if got := env["spotFactor0"].Float(); got != 0 {
		t.Errorf("full sphere spot factor must stay dot(L, spotDir)=0, got %v", got)
	}
	if got := env["L"]; got != glbuild.Vec3(0, 0, 1) {
		t.Errorf("full sphere must not scale L, got %v", got)
	}
	if got := env["intensity"].Float(); got != 1 {
		t.Errorf("want intensity 1 for unrestricted spot, got %v", got)
	}
}
