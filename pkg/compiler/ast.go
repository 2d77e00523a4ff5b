package compiler

// Expr is any node that produces a value. Every concrete Expr carries a
// Type field, populated by elaboration before codegen ever inspects it.
// The interface is closed to this file's node kinds via the unexported
// marker method.
type Expr interface {
	exprNode()
	typ() *Type
	setType(*Type)
}

// Stmt is any node that performs an action without itself yielding a value.
type Stmt interface {
	stmtNode()
}

type exprBase struct {
	Type *Type
}

func (e *exprBase) exprNode()       {}
func (e *exprBase) typ() *Type      { return e.Type }
func (e *exprBase) setType(t *Type) { e.Type = t }

// Num is a compile-time integer constant. sizeof folds into a Num (the
// type-name form at parse time, the expression form during elaboration), as
// do case labels once their constant expression is evaluated, leaving no
// trace of the original form.
type Num struct {
	exprBase
	Value int64
}

// Var references a declared symbol by name.
type Var struct {
	exprBase
	Sym *Symbol
}

// BinaryExpr covers arithmetic, bitwise, and comparison operators: Add Sub
// Mul Div Mod And Or Xor Shl Shr Eq Ne Lt Le Gt Ge.
type BinaryExpr struct {
	exprBase
	Op          TokenKind
	Left, Right Expr
}

// LogicalExpr is LAnd/LOr, kept distinct from BinaryExpr so codegen can
// short-circuit them instead of always evaluating both operands.
type LogicalExpr struct {
	exprBase
	Op          TokenKind // LAND or LOR
	Left, Right Expr
}

// UnaryExpr covers Addr (&), Deref (*), LNot (!), Not (~), and unary minus.
type UnaryExpr struct {
	exprBase
	Op      TokenKind
	Operand Expr
}

// MemberExpr is operand.Name; p->name is parsed as (*p).name so this is the
// only field-access node kind.
type MemberExpr struct {
	exprBase
	Operand Expr
	Name    string
	Field   *Member
}

// AssignExpr is target = value. Compound assignment is not parsed: the
// lexer produces += and -= tokens, but no grammar rule consumes them.
type AssignExpr struct {
	exprBase
	Target Expr
	Value  Expr
}

// CommaExpr is (left, right); its value and type are right's.
type CommaExpr struct {
	exprBase
	Left, Right Expr
}

// CondExpr is the ternary cond ? then : els.
type CondExpr struct {
	exprBase
	Cond, Then, Else Expr
}

// CastExpr reinterprets Operand as Type.
type CastExpr struct {
	exprBase
	Operand Expr
}

// Call invokes the function named Name with Args evaluated left to right.
// Only direct calls to a named function are supported.
type Call struct {
	exprBase
	Name string
	Args []Expr
}

// SizeofExpr is sizeof applied to an expression whose type isn't known until
// elaboration (sizeof(type-name) instead folds straight to a Num at parse
// time, since a type name carries its size with no typing needed). It never
// survives past Elaborate: the elaborator types Operand, then replaces this
// node with a Num holding Operand's size.
type SizeofExpr struct {
	exprBase
	Operand Expr
}

// Statements

type stmtBase struct{}

func (stmtBase) stmtNode() {}

// ReturnStmt returns Expr's value (nil for a void function).
type ReturnStmt struct {
	stmtBase
	Expr Expr
}

// ExprStmt evaluates Expr and discards its value.
type ExprStmt struct {
	stmtBase
	Expr Expr
}

// NullStmt is a bare ';'.
type NullStmt struct{ stmtBase }

type IfStmt struct {
	stmtBase
	Cond       Expr
	Then, Else Stmt
}

// loopLabels carries the targets Break/Continue inside a loop or switch
// resolve to, assigned by the parser when the enclosing construct is built.
type loopLabels struct {
	BreakLabel    string
	ContinueLabel string
}

type WhileStmt struct {
	stmtBase
	loopLabels
	Cond Expr
	Body Stmt
}

type ForStmt struct {
	stmtBase
	loopLabels
	Init Stmt
	Cond Expr
	Post Expr
	Body Stmt
}

type BlockStmt struct {
	stmtBase
	Stmts []Stmt
}

// CaseClause is one `case Value:` or `default:` arm of a SwitchStmt. Value
// is nil for the default arm.
type CaseClause struct {
	Value Expr
	Label string
	Body  []Stmt
}

type SwitchStmt struct {
	stmtBase
	loopLabels
	Target  Expr
	Cases   []*CaseClause
	Default *CaseClause
}

type BreakStmt struct {
	stmtBase
	Label string
}

type ContinueStmt struct {
	stmtBase
	Label string
}

// DeclStmt introduces one or more local Symbols declared in a block.
type DeclStmt struct {
	stmtBase
	Syms []*Symbol
}

// FuncDef is a function definition (a declaration with a body); function
// declarations without a body are recorded in the symbol table but produce
// no FuncDef and are never codegen'd.
type FuncDef struct {
	stmtBase
	Sym  *Symbol
	Body *BlockStmt
}
