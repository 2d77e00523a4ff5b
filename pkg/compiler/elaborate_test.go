package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func elaborateSource(t *testing.T, src string) (*CompilationUnit, []Stmt) {
	t.Helper()
	cu, stmts := parseSource(t, src)
	require.NoError(t, Elaborate(cu, stmts))
	return cu, stmts
}

func TestElaborateAssignsArithmeticResultType(t *testing.T) {
	_, stmts := elaborateSource(t, `int f(int a, char b) { return a + b; }`)
	fn := stmts[0].(*FuncDef)
	ret := fn.Body.Stmts[0].(*ReturnStmt)
	bin := ret.Expr.(*BinaryExpr)
	require.Equal(t, TyInt, bin.Type.Kind, "int + char takes the left operand's type")
}

func TestElaborateComparisonAlwaysYieldsInt(t *testing.T) {
	_, stmts := elaborateSource(t, `int f(char a, char b) { return a < b; }`)
	fn := stmts[0].(*FuncDef)
	ret := fn.Body.Stmts[0].(*ReturnStmt)
	require.Equal(t, intType, ret.Expr.typ())
}

func TestElaborateArrayDecaysInPointerArithmetic(t *testing.T) {
	_, stmts := elaborateSource(t, `
int f() {
	int a[10];
	return *(a + 1);
}
`)
	fn := stmts[0].(*FuncDef)
	// a[10]; return *(a+1);
	ret := fn.Body.Stmts[1].(*ReturnStmt)
	deref := ret.Expr.(*UnaryExpr)
	add := deref.Operand.(*BinaryExpr)
	require.Equal(t, TyArray, add.Left.typ().Kind, "the variable itself keeps its array type")
	require.Equal(t, TyPointer, add.Type.Kind, "array operand of + must decay: the sum is a pointer")
}

func TestElaborateArrayDeclarationKeepsArrayType(t *testing.T) {
	_, stmts := elaborateSource(t, `
int f() {
	int a[10];
	return 0;
}
`)
	fn := stmts[0].(*FuncDef)
	decl := fn.Body.Stmts[0].(*DeclStmt)
	require.Equal(t, TyArray, decl.Syms[0].Type.Kind)
	require.Equal(t, 10, decl.Syms[0].Type.ArrayLen)
}

func TestElaborateMemberAccessResolvesFieldType(t *testing.T) {
	_, stmts := elaborateSource(t, `
struct Point { int x; int y; };
int f(struct Point *p) { return p->y; }
`)
	fn := stmts[len(stmts)-1].(*FuncDef)
	ret := fn.Body.Stmts[0].(*ReturnStmt)
	member := ret.Expr.(*MemberExpr)
	require.NotNil(t, member.Field)
	require.Equal(t, "y", member.Field.Name)
	require.Equal(t, 4, member.Field.Offset)
	require.Equal(t, intType, member.Type)
}

func TestElaborateAssignToNonLvalueIsAnError(t *testing.T) {
	cu, stmts := parseSource(t, `int f(int a, int b) { return a + b = 1; }`)
	err := Elaborate(cu, stmts)
	require.Error(t, err)
}

func TestElaborateCallToUndeclaredFunctionIsAnError(t *testing.T) {
	cu, stmts := parseSource(t, `int f() { return g(); }`)
	err := Elaborate(cu, stmts)
	require.Error(t, err)
}

func TestElaborateSkipsAlreadyTypedFoldedSizeof(t *testing.T) {
	_, stmts := elaborateSource(t, `int f() { return sizeof(int) + 1; }`)
	fn := stmts[0].(*FuncDef)
	ret := fn.Body.Stmts[0].(*ReturnStmt)
	bin := ret.Expr.(*BinaryExpr)
	left := bin.Left.(*Num)
	require.EqualValues(t, 4, left.Value)
	require.Equal(t, intType, left.Type)
}

func TestElaborateFoldsSizeofOfVariableUsingItsDeclaredType(t *testing.T) {
	_, stmts := elaborateSource(t, `
struct S { int a; int b; };
int f() {
	struct S s;
	char *p;
	return sizeof(s) + sizeof(p);
}
`)
	fn := stmts[0].(*FuncDef)
	ret := fn.Body.Stmts[len(fn.Body.Stmts)-1].(*ReturnStmt)
	bin := ret.Expr.(*BinaryExpr)

	sOfS, ok := bin.Left.(*Num)
	require.True(t, ok, "sizeof(s) must fold to a Num once elaboration types s")
	require.EqualValues(t, 8, sOfS.Value, "two packed 4-byte int members")

	sOfP, ok := bin.Right.(*Num)
	require.True(t, ok, "sizeof(p) must fold to a Num once elaboration types p")
	require.EqualValues(t, 8, sOfP.Value, "pointers are 8 bytes")
}

func TestElaborateFoldsSizeofOfMemberAccess(t *testing.T) {
	_, stmts := elaborateSource(t, `
struct S { char a; int b; };
int f() {
	struct S s;
	return sizeof(s.b);
}
`)
	fn := stmts[0].(*FuncDef)
	ret := fn.Body.Stmts[len(fn.Body.Stmts)-1].(*ReturnStmt)
	num, ok := ret.Expr.(*Num)
	require.True(t, ok, "sizeof(s.b) must fold to a Num once elaboration types the member access")
	require.EqualValues(t, 4, num.Value)
}
