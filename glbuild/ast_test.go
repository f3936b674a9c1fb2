package glbuild

import (
	"testing"
)

func TestAppendExprParens(t *testing.T) {
	a, b, c := Ident("a"), Ident("b"), Ident("c")
	for _, test := range []struct {
		x    Expr
		want string
	}{
		{x: Sub(a, Sub(b, c)), want: "a - (b - c)"},
		{x: Sub(Sub(a, b), c), want: "a - b - c"},
		{x: Mul(Add(a, b), c), want: "(a + b) * c"},
		{x: Add(a, Mul(b, c)), want: "a + b * c"},
		{x: Div(a, Mul(b, c)), want: "a / (b * c)"},
		{x: Neg{X: Add(a, b)}, want: "-(a + b)"},
		{x: Neg{X: Neg{X: a}}, want: "-(-a)"},
		{x: Mul(a, Float(-2)), want: "a * -2.0"},
		{x: Index{X: Neg{X: a}, I: 1}, want: "(-a)[1]"},
		{x: Swizzle{X: Fn("normalize", a), Sel: "xy"}, want: "normalize(a).xy"},
		{x: Less(Add(a, b), c), want: "a + b < c"},
		{x: Fn("pow", a, Float(0.25)), want: "pow(a, 0.25)"},
		{x: LightIdent("uLightPower", 12), want: "uLightPower12"},
	} {
		got := string(test.x.AppendExpr(nil))
		if got != test.want {
			t.Errorf("got %q, want %q", got, test.want)
		}
	}
}

func TestAppendFloatLiteral(t *testing.T) {
	for _, test := range []struct {
		v    float32
		want string
	}{
		{v: 0, want: "0.0"},
		{v: 1, want: "1.0"},
		{v: 180, want: "180.0"},
		{v: 0.1, want: "0.1"},
		{v: -0.5, want: "-0.5"},
	} {
		got := string(AppendFloatLiteral(nil, test.v))
		if got != test.want {
			t.Errorf("AppendFloatLiteral(%v)=%q, want %q", test.v, got, test.want)
		}
	}
}

func TestExecAssign(t *testing.T) {
	env := Env{
		"Kd": Vec4([4]float32{0, 0, 0, 1}),
		"c":  Vec3(1, 2, 3),
		"k":  Scalar(2),
	}
	err := Exec(env,
		Accumulate(Swizzle{X: Ident("Kd"), Sel: "rgb"}, Mul(Ident("c"), Ident("k"))),
		Assign{LHS: Ident("k"), Op: AssignMul, RHS: Float(3)},
		Set(Ident("fresh"), Fn("dot", Ident("c"), Ident("c"))),
	)
	if err != nil {
		t.Fatal(err)
	}
	if got := env["Kd"]; got != Vec4([4]float32{2, 4, 6, 1}) {
		t.Errorf("Kd.rgb accumulation: got %v", got)
	}
	if got := env["k"].Float(); got != 6 {
		t.Errorf("k *= 3: got %v", got)
	}
	if got := env["fresh"].Float(); got != 14 {
		t.Errorf("dot(c, c): got %v", got)
	}
}

func TestExecErrors(t *testing.T) {
	env := Env{"v": Vec3(1, 0, 0), "s": Scalar(1)}
	for _, stmt := range []Stmt{
		Set(Ident("x"), Ident("undefined")),
		Accumulate(Ident("undefined"), Float(1)),
		Set(Ident("s"), Ident("v")),
		If{Cond: Ident("s")},
		Set(Ident("x"), Less(Ident("v"), Float(1))),
		Set(Ident("x"), Fn("noise", Ident("s"))),
		Set(Ident("x"), Index{X: Ident("v"), I: 3}),
	} {
		err := stmt.Exec(env)
		if err == nil {
			t.Errorf("expected error executing %q", stmt.AppendStmt(nil, 0))
		}
	}
}

func TestSplitLightName(t *testing.T) {
	base, idx, ok := splitLightName("uLightPosition10")
	if !ok || base != "uLightPosition" || idx != 10 {
		t.Errorf("got %q %d %v", base, idx, ok)
	}
	for _, name := range []string{"N", "NdotL", "123", ""} {
		if _, _, ok := splitLightName(name); ok {
			t.Errorf("%q is not a light name", name)
		}
	}
}
