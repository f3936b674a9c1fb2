package glbuild

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chewxy/math32"
)

// Value is the CPU representation of a GLSL float, vector or bool value.
type Value struct {
	V [4]float32
	// N is the number of components: 1 for float, 2..4 for vectors. Zero for bool.
	N uint8
	B bool
}

// Scalar returns a float value.
func Scalar(f float32) Value { return Value{V: [4]float32{f}, N: 1} }

// Vec3 returns a vec3 value.
func Vec3(x, y, z float32) Value { return Value{V: [4]float32{x, y, z}, N: 3} }

// Vec4 returns a vec4 value.
func Vec4(v [4]float32) Value { return Value{V: v, N: 4} }

// Bool returns a bool value.
func Bool(b bool) Value { return Value{B: b} }

// Float returns the scalar value. It returns NaN for non-scalar values.
func (v Value) Float() float32 {
	if v.N != 1 {
		return math32.NaN()
	}
	return v.V[0]
}

func (v Value) String() string {
	switch v.N {
	case 0:
		return fmt.Sprint(v.B)
	case 1:
		return fmt.Sprint(v.V[0])
	}
	return fmt.Sprintf("vec%d%v", v.N, v.V[:v.N])
}

// Env holds the current values of variables while evaluating statements on the CPU.
type Env map[string]Value

// Exec executes stmts in order over env.
func Exec(env Env, stmts ...Stmt) error {
	for _, s := range stmts {
		err := s.Exec(env)
		if err != nil {
			return err
		}
	}
	return nil
}

var errNotNumeric = errors.New("expected numeric operand")

func (id Ident) Eval(env Env) (Value, error) {
	v, ok := env[string(id)]
	if !ok {
		return Value{}, fmt.Errorf("undefined identifier %q", id)
	}
	return v, nil
}

func (f Float) Eval(Env) (Value, error) { return Scalar(float32(f)), nil }

func (n Neg) Eval(env Env) (Value, error) {
	v, err := n.X.Eval(env)
	if err != nil {
		return v, err
	} else if v.N == 0 {
		return v, errNotNumeric
	}
	for i := range v.N {
		v.V[i] = -v.V[i]
	}
	return v, nil
}

func (ix Index) Eval(env Env) (Value, error) {
	v, err := ix.X.Eval(env)
	if err != nil {
		return v, err
	} else if v.N < 2 || ix.I < 0 || ix.I >= int(v.N) {
		return Value{}, fmt.Errorf("index %d out of range for %s", ix.I, v)
	}
	return Scalar(v.V[ix.I]), nil
}

func (s Swizzle) Eval(env Env) (Value, error) {
	v, err := s.X.Eval(env)
	if err != nil {
		return v, err
	} else if len(s.Sel) < 1 || len(s.Sel) > 4 {
		return Value{}, fmt.Errorf("invalid swizzle %q", s.Sel)
	}
	var result Value
	result.N = uint8(len(s.Sel))
	for i := range s.Sel {
		c, err := swizzleComponent(s.Sel[i], v.N)
		if err != nil {
			return Value{}, err
		}
		result.V[i] = v.V[c]
	}
	return result, nil
}

func swizzleComponent(c byte, n uint8) (int, error) {
	idx := strings.IndexByte("xyzw", c)
	if idx < 0 {
		idx = strings.IndexByte("rgba", c)
	}
	if idx < 0 || idx >= int(n) {
		return 0, fmt.Errorf("swizzle component %q invalid for vec%d", c, n)
	}
	return idx, nil
}

func (bin Binary) Eval(env Env) (Value, error) {
	x, err := bin.X.Eval(env)
	if err != nil {
		return x, err
	}
	y, err := bin.Y.Eval(env)
	if err != nil {
		return y, err
	}
	switch bin.Op {
	case OpLess, OpGreaterEq:
		if x.N != 1 || y.N != 1 {
			return Value{}, fmt.Errorf("comparison %s requires scalars, got %s and %s", bin.Op, x, y)
		}
		if bin.Op == OpLess {
			return Bool(x.V[0] < y.V[0]), nil
		}
		return Bool(x.V[0] >= y.V[0]), nil
	}
	return componentwise(x, y, func(a, b float32) float32 {
		switch bin.Op {
		case OpAdd:
			return a + b
		case OpSub:
			return a - b
		case OpMul:
			return a * b
		}
		return a / b // Unguarded as in GLSL: division by zero yields Inf/NaN.
	})
}

// componentwise applies fn to each component pair. A scalar operand is broadcast.
func componentwise(x, y Value, fn func(a, b float32) float32) (Value, error) {
	if x.N == 0 || y.N == 0 {
		return Value{}, errNotNumeric
	}
	n := max(x.N, y.N)
	if x.N != y.N && x.N != 1 && y.N != 1 {
		return Value{}, fmt.Errorf("mismatched operand sizes %s and %s", x, y)
	}
	var result Value
	result.N = n
	for i := range n {
		a, b := x.V[0], y.V[0]
		if x.N > 1 {
			a = x.V[i]
		}
		if y.N > 1 {
			b = y.V[i]
		}
		result.V[i] = fn(a, b)
	}
	return result, nil
}

func (c Call) Eval(env Env) (Value, error) {
	var args [4]Value
	if len(c.Args) > len(args) {
		return Value{}, fmt.Errorf("too many arguments to %s", c.Fn)
	}
	for i, arg := range c.Args {
		v, err := arg.Eval(env)
		if err != nil {
			return v, err
		} else if v.N == 0 {
			return v, fmt.Errorf("%s: %w", c.Fn, errNotNumeric)
		}
		args[i] = v
	}
	wantArgs := 1
	switch c.Fn {
	case "distance", "dot", "max", "min", "pow":
		wantArgs = 2
	}
	if len(c.Args) != wantArgs {
		return Value{}, fmt.Errorf("%s expects %d arguments, got %d", c.Fn, wantArgs, len(c.Args))
	}
	a, b := args[0], args[1]
	switch c.Fn {
	case "length":
		return Scalar(length(a)), nil
	case "normalize":
		l := length(a)
		for i := range a.N {
			a.V[i] /= l
		}
		return a, nil
	case "distance":
		d, err := componentwise(a, b, func(x, y float32) float32 { return x - y })
		if err != nil {
			return d, err
		}
		return Scalar(length(d)), nil
	case "dot":
		if a.N != b.N {
			return Value{}, fmt.Errorf("dot of mismatched sizes %s and %s", a, b)
		}
		var sum float32
		for i := range a.N {
			sum += a.V[i] * b.V[i]
		}
		return Scalar(sum), nil
	case "max":
		return componentwise(a, b, math32.Max)
	case "min":
		return componentwise(a, b, math32.Min)
	case "pow":
		return componentwise(a, b, math32.Pow)
	case "cos":
		return componentwise(a, Scalar(0), func(x, _ float32) float32 { return math32.Cos(x) })
	case "radians":
		return componentwise(a, Scalar(math32.Pi/180), func(x, k float32) float32 { return x * k })
	}
	return Value{}, fmt.Errorf("unsupported function %q", c.Fn)
}

func length(v Value) float32 {
	var sum float32
	for i := range v.N {
		sum += v.V[i] * v.V[i]
	}
	return math32.Sqrt(sum)
}

func (a Assign) Exec(env Env) error {
	rhs, err := a.RHS.Eval(env)
	if err != nil {
		return err
	}
	var name Ident
	sel := ""
	switch lhs := a.LHS.(type) {
	case Ident:
		name = lhs
	case Swizzle:
		id, ok := lhs.X.(Ident)
		if !ok {
			return errors.New("swizzle assignment target must be an identifier")
		}
		name, sel = id, lhs.Sel
	default:
		return fmt.Errorf("invalid assignment target %T", a.LHS)
	}
	current, defined := env[string(name)]
	if sel != "" || a.Op != AssignSet {
		if !defined {
			return fmt.Errorf("assignment to undefined identifier %q", name)
		}
		old, err := a.LHS.Eval(env)
		if err != nil {
			return err
		}
		switch a.Op {
		case AssignAdd:
			rhs, err = componentwise(old, rhs, func(x, y float32) float32 { return x + y })
		case AssignMul:
			rhs, err = componentwise(old, rhs, func(x, y float32) float32 { return x * y })
		}
		if err != nil {
			return err
		}
	}
	if sel == "" {
		if defined && current.N != rhs.N {
			return fmt.Errorf("cannot assign %s to %q of size %d", rhs, name, current.N)
		}
		env[string(name)] = rhs
		return nil
	}
	if rhs.N != uint8(len(sel)) && rhs.N != 1 {
		return fmt.Errorf("cannot assign %s to %s.%s", rhs, name, sel)
	}
	for i := range sel {
		c, err := swizzleComponent(sel[i], current.N)
		if err != nil {
			return err
		}
		if rhs.N == 1 {
			current.V[c] = rhs.V[0]
		} else {
			current.V[c] = rhs.V[i]
		}
	}
	env[string(name)] = current
	return nil
}

func (d Decl) Exec(env Env) error {
	v, err := d.Init.Eval(env)
	if err != nil {
		return err
	}
	env[string(d.Name)] = v
	return nil
}

func (s If) Exec(env Env) error {
	cond, err := s.Cond.Eval(env)
	if err != nil {
		return err
	} else if cond.N != 0 {
		return fmt.Errorf("if condition must be bool, got %s", cond)
	}
	if cond.B {
		return Exec(env, s.Then...)
	}
	return Exec(env, s.Else...)
}
