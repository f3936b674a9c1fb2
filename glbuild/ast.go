package glbuild

import (
	"bytes"
	"strconv"
)

// Expr is a node of a GLSL expression tree. Expressions render to text with
// [Expr.AppendExpr] and can be evaluated on the CPU with [Expr.Eval].
type Expr interface {
	// AppendExpr appends the GLSL text of the expression to b and returns the result.
	AppendExpr(b []byte) []byte
	// Eval evaluates the expression against the variables in env.
	Eval(env Env) (Value, error)
	precedence() int
}

// Stmt is a GLSL statement.
type Stmt interface {
	// AppendStmt appends the GLSL text of the statement indented by depth tabs.
	AppendStmt(b []byte, depth int) []byte
	// Exec executes the statement over env, mutating it.
	Exec(env Env) error
}

// Operator precedence levels used to decide parenthesization.
const (
	precRelational = 5
	precAdditive   = 7
	precMultiply   = 8
	precUnary      = 9
	precPrimary    = 10
)

// Ident is a variable or uniform name.
type Ident string

// LightIdent returns the identifier for a per-light variable: base suffixed with the light index.
func LightIdent(base string, index int) Ident {
	return Ident(AppendLightName(nil, base, index))
}

// AppendLightName appends base followed by the decimal light index, i.e: "uLightPosition3".
func AppendLightName(b []byte, base string, index int) []byte {
	b = append(b, base...)
	return strconv.AppendInt(b, int64(index), 10)
}

func (id Ident) AppendExpr(b []byte) []byte { return append(b, id...) }
func (id Ident) precedence() int            { return precPrimary }

// Float is a float literal. It always renders with a decimal point so GLSL types it as float.
type Float float32

func (f Float) AppendExpr(b []byte) []byte { return AppendFloatLiteral(b, float32(f)) }
func (f Float) precedence() int {
	if f < 0 {
		return precUnary
	}
	return precPrimary
}

// AppendFloatLiteral appends v as a GLSL float literal with the shortest
// representation that round-trips, i.e: 1 -> "1.0", 0.1 -> "0.1".
func AppendFloatLiteral(b []byte, v float32) []byte {
	start := len(b)
	b = strconv.AppendFloat(b, float64(v), 'f', -1, 32)
	if bytes.IndexByte(b[start:], '.') < 0 {
		b = append(b, ".0"...)
	}
	return b
}

// Call is a function call such as normalize(x).
type Call struct {
	Fn   string
	Args []Expr
}

// Fn returns a call expression to the named GLSL builtin.
func Fn(name string, args ...Expr) Call { return Call{Fn: name, Args: args} }

func (c Call) AppendExpr(b []byte) []byte {
	b = append(b, c.Fn...)
	b = append(b, '(')
	for i, arg := range c.Args {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = arg.AppendExpr(b)
	}
	return append(b, ')')
}

func (c Call) precedence() int { return precPrimary }

// BinaryOp is a GLSL binary operator.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpLess
	OpGreaterEq
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpLess:
		return "<"
	case OpGreaterEq:
		return ">="
	}
	return "BinaryOp(" + strconv.Itoa(int(op)) + ")"
}

func (op BinaryOp) precedence() int {
	switch op {
	case OpMul, OpDiv:
		return precMultiply
	case OpAdd, OpSub:
		return precAdditive
	}
	return precRelational
}

// Binary is a binary operation X Op Y.
type Binary struct {
	Op   BinaryOp
	X, Y Expr
}

func Add(x, y Expr) Binary       { return Binary{Op: OpAdd, X: x, Y: y} }
func Sub(x, y Expr) Binary       { return Binary{Op: OpSub, X: x, Y: y} }
func Mul(x, y Expr) Binary       { return Binary{Op: OpMul, X: x, Y: y} }
func Div(x, y Expr) Binary       { return Binary{Op: OpDiv, X: x, Y: y} }
func Less(x, y Expr) Binary      { return Binary{Op: OpLess, X: x, Y: y} }
func GreaterEq(x, y Expr) Binary { return Binary{Op: OpGreaterEq, X: x, Y: y} }

func (bin Binary) AppendExpr(b []byte) []byte {
	prec := bin.Op.precedence()
	// Operators are left associative: right operands of equal precedence keep their parentheses.
	b = appendOperand(b, bin.X, bin.X.precedence() < prec)
	b = append(b, ' ')
	b = append(b, bin.Op.String()...)
	b = append(b, ' ')
	b = appendOperand(b, bin.Y, bin.Y.precedence() <= prec)
	return b
}

func (bin Binary) precedence() int { return bin.Op.precedence() }

func appendOperand(b []byte, x Expr, paren bool) []byte {
	if !paren {
		return x.AppendExpr(b)
	}
	b = append(b, '(')
	b = x.AppendExpr(b)
	return append(b, ')')
}

// Neg is the unary negation -X.
type Neg struct {
	X Expr
}

func (n Neg) AppendExpr(b []byte) []byte {
	b = append(b, '-')
	return appendOperand(b, n.X, n.X.precedence() <= precUnary)
}

func (n Neg) precedence() int { return precUnary }

// Index is an array or vector subscript X[I].
type Index struct {
	X Expr
	I int
}

func (ix Index) AppendExpr(b []byte) []byte {
	b = appendOperand(b, ix.X, ix.X.precedence() < precPrimary)
	b = append(b, '[')
	b = strconv.AppendInt(b, int64(ix.I), 10)
	return append(b, ']')
}

func (ix Index) precedence() int { return precPrimary }

// Swizzle selects vector components, i.e: Kd.rgb.
type Swizzle struct {
	X   Expr
	Sel string
}

func (s Swizzle) AppendExpr(b []byte) []byte {
	b = appendOperand(b, s.X, s.X.precedence() < precPrimary)
	b = append(b, '.')
	return append(b, s.Sel...)
}

func (s Swizzle) precedence() int { return precPrimary }

// AssignOp is an assignment operator.
type AssignOp uint8

const (
	AssignSet AssignOp = iota // =
	AssignAdd                 // +=
	AssignMul                 // *=
)

func (op AssignOp) String() string {
	switch op {
	case AssignSet:
		return "="
	case AssignAdd:
		return "+="
	case AssignMul:
		return "*="
	}
	return "AssignOp(" + strconv.Itoa(int(op)) + ")"
}

// Assign assigns RHS to LHS. LHS must be an [Ident] or a [Swizzle] of an [Ident].
type Assign struct {
	LHS Expr
	Op  AssignOp
	RHS Expr
}

// Set returns the statement lhs = rhs.
func Set(lhs, rhs Expr) Assign { return Assign{LHS: lhs, Op: AssignSet, RHS: rhs} }

// Accumulate returns the statement lhs += rhs.
func Accumulate(lhs, rhs Expr) Assign { return Assign{LHS: lhs, Op: AssignAdd, RHS: rhs} }

func (a Assign) AppendStmt(b []byte, depth int) []byte {
	b = appendIndent(b, depth)
	b = a.LHS.AppendExpr(b)
	b = append(b, ' ')
	b = append(b, a.Op.String()...)
	b = append(b, ' ')
	b = a.RHS.AppendExpr(b)
	return append(b, ";\n"...)
}

// Decl declares and initializes a local variable: Type Name = Init;
type Decl struct {
	Type string
	Name Ident
	Init Expr
}

func (d Decl) AppendStmt(b []byte, depth int) []byte {
	b = appendIndent(b, depth)
	b = append(b, d.Type...)
	b = append(b, ' ')
	b = append(b, d.Name...)
	b = append(b, " = "...)
	b = d.Init.AppendExpr(b)
	return append(b, ";\n"...)
}

// If is a conditional statement. Else may be empty.
type If struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
}

func (s If) AppendStmt(b []byte, depth int) []byte {
	b = appendIndent(b, depth)
	b = append(b, "if ("...)
	b = s.Cond.AppendExpr(b)
	b = append(b, ") {\n"...)
	b = AppendStmts(b, depth+1, s.Then...)
	b = appendIndent(b, depth)
	b = append(b, '}')
	if len(s.Else) > 0 {
		b = append(b, " else {\n"...)
		b = AppendStmts(b, depth+1, s.Else...)
		b = appendIndent(b, depth)
		b = append(b, '}')
	}
	return append(b, '\n')
}

// AppendStmts appends the GLSL text of stmts in order, each indented by depth tabs.
func AppendStmts(b []byte, depth int, stmts ...Stmt) []byte {
	for _, s := range stmts {
		b = s.AppendStmt(b, depth)
	}
	return b
}

func appendIndent(b []byte, depth int) []byte {
	for range depth {
		b = append(b, '\t')
	}
	return b
}

// AppendIdents appends every identifier referenced by stmts in order of first
// appearance, including repeated ones. Declared local names are included.
func AppendIdents(dst []Ident, stmts ...Stmt) []Ident {
	for _, s := range stmts {
		switch s := s.(type) {
		case Assign:
			dst = appendExprIdents(dst, s.LHS)
			dst = appendExprIdents(dst, s.RHS)
		case Decl:
			dst = append(dst, s.Name)
			dst = appendExprIdents(dst, s.Init)
		case If:
			dst = appendExprIdents(dst, s.Cond)
			dst = AppendIdents(dst, s.Then...)
			dst = AppendIdents(dst, s.Else...)
		}
	}
	return dst
}

// AppendDeclared appends the names declared by [Decl] statements in stmts.
func AppendDeclared(dst []Ident, stmts ...Stmt) []Ident {
	for _, s := range stmts {
		switch s := s.(type) {
		case Decl:
			dst = append(dst, s.Name)
		case If:
			dst = AppendDeclared(dst, s.Then...)
			dst = AppendDeclared(dst, s.Else...)
		}
	}
	return dst
}

func appendExprIdents(dst []Ident, x Expr) []Ident {
	switch x := x.(type) {
	case Ident:
		dst = append(dst, x)
	case Call:
		for _, arg := range x.Args {
			dst = appendExprIdents(dst, arg)
		}
	case Binary:
		dst = appendExprIdents(dst, x.X)
		dst = appendExprIdents(dst, x.Y)
	case Neg:
		dst = appendExprIdents(dst, x.X)
	case Index:
		dst = appendExprIdents(dst, x.X)
	case Swizzle:
		dst = appendExprIdents(dst, x.X)
	}
	return dst
}
