package compiler

import (
	"fmt"

	"github.com/samber/lo"
)

// loopFrame is one entry of the parser's break/continue target stack.
type loopFrame struct {
	breakLabel    string
	continueLabel string
}

// Parser bundles every piece of mutable state a single parse needs into one
// value, rather than scattering globals across free functions.
type Parser struct {
	cu     *CompilationUnit
	tokens []Token
	pos    int

	labelSeq int
	loops    []loopFrame
}

func newParser(cu *CompilationUnit, tokens []Token) *Parser {
	return &Parser{cu: cu, tokens: tokens}
}

// Parse runs the full grammar over tokens and returns the translation
// unit's top-level statements (function definitions and global
// declarations) in source order.
func Parse(cu *CompilationUnit, tokens []Token) ([]Stmt, error) {
	p := newParser(cu, tokens)
	var out []Stmt
	for !p.at(EOF) {
		stmt, err := p.parseTopLevel()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			out = append(out, stmt)
		}
	}
	return out, nil
}

// --- token stream helpers ---

func (p *Parser) cur() Token      { return p.tokens[p.pos] }
func (p *Parser) at(k TokenKind) bool { return p.cur().Kind == k }
func (p *Parser) atAny(ks ...TokenKind) bool {
	return lo.Contains(ks, p.cur().Kind)
}

func (p *Parser) peekAt(offset int) Token {
	i := p.pos + offset
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) advance() Token {
	t := p.cur()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k TokenKind) (Token, error) {
	if !p.at(k) {
		return Token{}, p.errorf("expected %s, got %s %q", k, p.cur().Kind, p.cur().Text)
	}
	return p.advance(), nil
}

func (p *Parser) consume(k TokenKind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) errorf(format string, args ...any) error {
	return p.cu.errorAtToken(p.cur(), format, args...)
}

func (p *Parser) newLabel(prefix string) string {
	p.labelSeq++
	return fmt.Sprintf(".L.%s.%d", prefix, p.labelSeq)
}

// --- type-specifier / declarator parsing ---

// isTypeStart reports whether the current token could begin a declaration
// (as opposed to an expression statement), used to disambiguate statement
// and top-level parsing.
func (p *Parser) isTypeStart() bool {
	switch p.cur().Kind {
	case INT, CHAR, VOID, STRUCT, ENUM, TYPEDEF, STATIC, EXTERN, CONST:
		return true
	case IDENT:
		_, ok := p.cu.Symbols.LookupTypedef(p.cur().Text)
		return ok
	}
	return false
}

// parseDeclSpec consumes storage-class keywords and the base type, returning
// the base Type and the storage class implied (Global/Static/Extern); the
// caller narrows Global to Local when declaring inside a function.
func (p *Parser) parseDeclSpec() (*Type, StorageClass, error) {
	storage := Global
	isTypedef := false
	for {
		switch p.cur().Kind {
		case TYPEDEF:
			isTypedef = true
			p.advance()
			continue
		case STATIC:
			storage = Static
			p.advance()
			continue
		case EXTERN:
			storage = Extern
			p.advance()
			continue
		case CONST:
			p.advance() // recognized, has no effect on codegen
			continue
		}
		break
	}

	var base *Type
	switch p.cur().Kind {
	case INT:
		p.advance()
		base = intType
	case CHAR:
		p.advance()
		base = charType
	case VOID:
		p.advance()
		base = voidType
	case STRUCT:
		var err error
		base, err = p.parseStructSpec()
		if err != nil {
			return nil, 0, err
		}
	case ENUM:
		var err error
		base, err = p.parseEnumSpec()
		if err != nil {
			return nil, 0, err
		}
	case IDENT:
		ty, ok := p.cu.Symbols.LookupTypedef(p.cur().Text)
		if !ok {
			return nil, 0, p.errorf("unknown type name %q", p.cur().Text)
		}
		p.advance()
		base = ty
	default:
		return nil, 0, p.errorf("expected a type, got %s", p.cur().Kind)
	}

	if isTypedef {
		return base, storage, errTypedefSentinel
	}
	return base, storage, nil
}

// errTypedefSentinel signals parseDeclSpec saw `typedef`; callers that care
// compare the returned error against it directly, and callers that do not
// use parseDeclSpecIgnoreTypedef (below) to discard it, instead of plumbing
// an extra bool through every call site.
var errTypedefSentinel = fmt.Errorf("typedef")

func (p *Parser) parseStructSpec() (*Type, error) {
	if _, err := p.expect(STRUCT); err != nil {
		return nil, err
	}
	tag := ""
	if p.at(IDENT) {
		tag = p.advance().Text
	}
	if !p.at(LBRACE) {
		// reference to a previously declared tag
		ty, ok := p.cu.Symbols.LookupStruct(tag)
		if !ok {
			return nil, p.errorf("undefined struct %q", tag)
		}
		return ty, nil
	}
	p.advance() // {
	var fields []*Member
	for !p.at(RBRACE) {
		base, _, err := p.parseDeclSpecIgnoreTypedef()
		if err != nil {
			return nil, err
		}
		for {
			ty, name, err := p.parseDeclarator(base)
			if err != nil {
				return nil, err
			}
			fields = append(fields, &Member{Name: name, Type: ty})
			if !p.consume(COMMA) {
				break
			}
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
	}
	p.advance() // }
	// The trailing ';' is left for the caller: parseTopLevel/parseLocalDecl
	// consume it whether this spec stood alone or was followed by a
	// declarator naming an instance of the struct.
	ty := newStructType(tag, fields)
	if tag != "" {
		p.cu.Symbols.DeclareStruct(tag, ty)
	}
	return ty, nil
}

// parseDeclSpecIgnoreTypedef parses a decl-spec where typedef/extern/static
// are not meaningful (struct fields, parameters); it still accepts `const`.
func (p *Parser) parseDeclSpecIgnoreTypedef() (*Type, StorageClass, error) {
	base, storage, err := p.parseDeclSpec()
	if err != nil && err != errTypedefSentinel {
		return nil, 0, err
	}
	return base, storage, nil
}

func (p *Parser) parseEnumSpec() (*Type, error) {
	if _, err := p.expect(ENUM); err != nil {
		return nil, err
	}
	if p.at(IDENT) {
		p.advance() // enum tags are not separately tracked; constants are flat
	}
	if _, err := p.expect(LBRACE); err != nil {
		return nil, err
	}
	var next int64
	for !p.at(RBRACE) {
		name, err := p.expect(IDENT)
		if err != nil {
			return nil, err
		}
		val := next
		if p.consume(ASSIGN) {
			n, err := p.parseConstExpr()
			if err != nil {
				return nil, err
			}
			val = n
		}
		p.cu.Symbols.DeclareEnumConst(name.Text, val)
		next = val + 1
		if !p.consume(COMMA) {
			break
		}
	}
	if _, err := p.expect(RBRACE); err != nil {
		return nil, err
	}
	return enumType(), nil
}

// parseDeclarator consumes pointer stars, the declared name, and any array
// dimensions, wrapping base accordingly. Array sizes are required here
// (this language does not infer array length from an initializer).
func (p *Parser) parseDeclarator(base *Type) (*Type, string, error) {
	for p.consume(STAR) {
		base = pointerTo(base)
	}
	name, err := p.expect(IDENT)
	if err != nil {
		return nil, "", err
	}
	ty := base
	var dims []int
	for p.consume(LBRACKET) {
		n, err := p.parseConstExpr()
		if err != nil {
			return nil, "", err
		}
		dims = append(dims, int(n))
		if _, err := p.expect(RBRACKET); err != nil {
			return nil, "", err
		}
	}
	for i := len(dims) - 1; i >= 0; i-- {
		ty = arrayOf(ty, dims[i])
	}
	return ty, name.Text, nil
}

// parseConstExpr evaluates a small constant-expression grammar (Num, Add,
// Sub, Mul, Div, and enum-constant references) used for array sizes, case
// labels, and enum initializers. It does not run the parser's normal
// expression grammar, since arbitrary expressions are not constant.
func (p *Parser) parseConstExpr() (int64, error) {
	return p.parseConstAdd()
}

func (p *Parser) parseConstAdd() (int64, error) {
	v, err := p.parseConstMul()
	if err != nil {
		return 0, err
	}
	for p.atAny(PLUS, MINUS) {
		op := p.advance().Kind
		rhs, err := p.parseConstMul()
		if err != nil {
			return 0, err
		}
		if op == PLUS {
			v += rhs
		} else {
			v -= rhs
		}
	}
	return v, nil
}

func (p *Parser) parseConstMul() (int64, error) {
	v, err := p.parseConstPrimary()
	if err != nil {
		return 0, err
	}
	for p.atAny(STAR, SLASH) {
		op := p.advance().Kind
		rhs, err := p.parseConstPrimary()
		if err != nil {
			return 0, err
		}
		if op == STAR {
			v *= rhs
		} else {
			if rhs == 0 {
				return 0, p.errorf("division by zero in constant expression")
			}
			v /= rhs
		}
	}
	return v, nil
}

func (p *Parser) parseConstPrimary() (int64, error) {
	switch p.cur().Kind {
	case NUM:
		return p.advance().IntValue, nil
	case IDENT:
		name := p.advance().Text
		v, ok := p.cu.Symbols.LookupEnumConst(name)
		if !ok {
			return 0, p.errorf("%q is not a constant", name)
		}
		return v, nil
	case LPAREN:
		p.advance()
		v, err := p.parseConstExpr()
		if err != nil {
			return 0, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return 0, err
		}
		return v, nil
	case MINUS:
		p.advance()
		v, err := p.parseConstPrimary()
		if err != nil {
			return 0, err
		}
		return -v, nil
	}
	return 0, p.errorf("expected a constant expression")
}

// --- top level ---

func (p *Parser) parseTopLevel() (Stmt, error) {
	base, storage, err := p.parseDeclSpec()
	isTypedef := err == errTypedefSentinel
	if err != nil && !isTypedef {
		return nil, err
	}

	// A bare `struct Tag { ... };` with no declarator.
	if p.at(SEMICOLON) {
		p.advance()
		return nil, nil
	}

	ty, name, err := p.parseDeclarator(base)
	if err != nil {
		return nil, err
	}

	if isTypedef {
		p.cu.Symbols.DeclareTypedef(name, ty)
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if p.at(LPAREN) {
		return p.parseFunction(ty, name, storage)
	}

	return p.parseGlobalTail(ty, name, storage)
}

func (p *Parser) parseFunction(retType *Type, name string, storage StorageClass) (Stmt, error) {
	p.advance() // (
	var params []*Type
	var paramNames []string
	variadic := false
	if !p.at(RPAREN) {
		for {
			if p.consume(ELLIPSIS) {
				variadic = true
				break
			}
			base, _, err := p.parseDeclSpecIgnoreTypedef()
			if err != nil {
				return nil, err
			}
			ty, pname, err := p.parseDeclarator(base)
			if err != nil {
				return nil, err
			}
			params = append(params, ty.decay())
			paramNames = append(paramNames, pname)
			if !p.consume(COMMA) {
				break
			}
		}
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}

	fnType := functionType(retType, params, variadic)
	sym := &Symbol{Name: name, Type: fnType, Storage: storage, IsFunc: true}

	if p.consume(SEMICOLON) {
		// declaration only; recorded but never codegen'd
		p.cu.Symbols.DeclareGlobal(sym)
		return nil, nil
	}

	p.cu.Symbols.EnterFunction(sym)
	for i, pname := range paramNames {
		psym := p.cu.Symbols.DeclareLocal(pname, params[i])
		sym.Params = append(sym.Params, psym)
	}
	body, err := p.parseBlock()
	if err != nil {
		p.cu.Symbols.ExitFunction()
		return nil, err
	}
	sym.Body = body
	p.cu.Symbols.ExitFunction()
	p.cu.Symbols.DeclareGlobal(sym)

	return &FuncDef{Sym: sym, Body: body}, nil
}

// parseGlobalTail parses the remainder of a global variable declaration
// (further comma-separated declarators, an optional initializer) after the
// first declarator has already been read.
func (p *Parser) parseGlobalTail(ty *Type, name string, storage StorageClass) (Stmt, error) {
	for {
		sym := &Symbol{Name: name, Type: ty, Storage: storage}
		if p.consume(ASSIGN) {
			init, err := p.parseGlobalInitializer(ty)
			if err != nil {
				return nil, err
			}
			if il, ok := init.(*initList); ok {
				sym.InitList = il.Elements
			} else {
				sym.Init = init
			}
		}
		p.cu.Symbols.DeclareGlobal(sym)
		if !p.consume(COMMA) {
			break
		}
		var err error
		ty, name, err = p.parseDeclarator(ty)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return nil, nil
}

// parseGlobalInitializer accepts a constant expression, a string literal (for
// a char* or char[] global), or a brace-enclosed list of constant
// expressions; globals cannot run code before main, so anything else is a
// parse error.
func (p *Parser) parseGlobalInitializer(ty *Type) (Expr, error) {
	if p.at(LBRACE) {
		p.advance()
		var elems []Expr
		for !p.at(RBRACE) {
			v, err := p.parseConstExpr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, &Num{exprBase: exprBase{Type: intType}, Value: v})
			if !p.consume(COMMA) {
				break
			}
		}
		if _, err := p.expect(RBRACE); err != nil {
			return nil, err
		}
		return &initList{exprBase: exprBase{Type: ty}, Elements: elems}, nil
	}
	if p.at(STRING) {
		tok := p.advance()
		sym := p.cu.Symbols.InternString(tok.StrValue)
		return &UnaryExpr{Op: AMP, Operand: &Var{Sym: sym}}, nil
	}
	v, err := p.parseConstExpr()
	if err != nil {
		return nil, err
	}
	return &Num{exprBase: exprBase{Type: intType}, Value: v}, nil
}

// initList is a brace-enclosed constant initializer for an array or struct
// global; it never appears inside a function body (locals are initialized
// with ordinary assignment statements built by the parser at the call site).
type initList struct {
	exprBase
	Elements []Expr
}

// --- statements ---

func (p *Parser) parseStatement() (Stmt, error) {
	switch p.cur().Kind {
	case LBRACE:
		return p.parseBlock()
	case RETURN:
		return p.parseReturn()
	case IF:
		return p.parseIf()
	case WHILE:
		return p.parseWhile()
	case FOR:
		return p.parseFor()
	case SWITCH:
		return p.parseSwitch()
	case BREAK:
		p.advance()
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		if len(p.loops) == 0 {
			return nil, p.errorf("break outside loop or switch")
		}
		return &BreakStmt{Label: p.loops[len(p.loops)-1].breakLabel}, nil
	case CONTINUE:
		p.advance()
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		lbl := p.nearestContinueLabel()
		if lbl == "" {
			return nil, p.errorf("continue outside loop")
		}
		return &ContinueStmt{Label: lbl}, nil
	case SEMICOLON:
		p.advance()
		return &NullStmt{}, nil
	}

	if p.isTypeStart() {
		return p.parseLocalDecl()
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &ExprStmt{Expr: expr}, nil
}

// nearestContinueLabel walks the loop stack from the top looking for a
// frame with a continue target; switch frames push an empty one so a
// continue inside a switch still reaches its enclosing loop.
func (p *Parser) nearestContinueLabel() string {
	for i := len(p.loops) - 1; i >= 0; i-- {
		if p.loops[i].continueLabel != "" {
			return p.loops[i].continueLabel
		}
	}
	return ""
}

func (p *Parser) parseBlock() (*BlockStmt, error) {
	if _, err := p.expect(LBRACE); err != nil {
		return nil, err
	}
	var stmts []Stmt
	for !p.at(RBRACE) {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if s != nil {
			stmts = append(stmts, s)
		}
	}
	if _, err := p.expect(RBRACE); err != nil {
		return nil, err
	}
	return &BlockStmt{Stmts: stmts}, nil
}

func (p *Parser) parseReturn() (Stmt, error) {
	p.advance()
	if p.consume(SEMICOLON) {
		return &ReturnStmt{}, nil
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &ReturnStmt{Expr: e}, nil
}

func (p *Parser) parseIf() (Stmt, error) {
	p.advance()
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	var els Stmt
	if p.consume(ELSE) {
		els, err = p.parseStatement()
		if err != nil {
			return nil, err
		}
	}
	return &IfStmt{Cond: cond, Then: then, Else: els}, nil
}

func (p *Parser) parseWhile() (Stmt, error) {
	p.advance()
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	end := p.newLabel("end")
	cont := p.newLabel("continue")
	p.loops = append(p.loops, loopFrame{breakLabel: end, continueLabel: cont})
	body, err := p.parseStatement()
	p.loops = p.loops[:len(p.loops)-1]
	if err != nil {
		return nil, err
	}
	return &WhileStmt{loopLabels: loopLabels{BreakLabel: end, ContinueLabel: cont}, Cond: cond, Body: body}, nil
}

func (p *Parser) parseFor() (Stmt, error) {
	p.advance()
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	var init Stmt
	switch {
	case p.at(SEMICOLON):
		p.advance()
	case p.isTypeStart():
		// parseLocalDecl already consumes the trailing ';'
		var err error
		init, err = p.parseLocalDecl()
		if err != nil {
			return nil, err
		}
	default:
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		init = &ExprStmt{Expr: e}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
	}

	var cond Expr
	if !p.at(SEMICOLON) {
		var err error
		cond, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}

	var post Expr
	if !p.at(RPAREN) {
		var err error
		post, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}

	end := p.newLabel("end")
	cont := p.newLabel("continue")
	p.loops = append(p.loops, loopFrame{breakLabel: end, continueLabel: cont})
	body, err := p.parseStatement()
	p.loops = p.loops[:len(p.loops)-1]
	if err != nil {
		return nil, err
	}

	return &ForStmt{
		loopLabels: loopLabels{BreakLabel: end, ContinueLabel: cont},
		Init:       init, Cond: cond, Post: post, Body: body,
	}, nil
}

func (p *Parser) parseSwitch() (Stmt, error) {
	p.advance()
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	target, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	end := p.newLabel("end")
	p.loops = append(p.loops, loopFrame{breakLabel: end})
	defer func() { p.loops = p.loops[:len(p.loops)-1] }()

	if _, err := p.expect(LBRACE); err != nil {
		return nil, err
	}
	sw := &SwitchStmt{loopLabels: loopLabels{BreakLabel: end}, Target: target}
	var haveDefault bool
	for !p.at(RBRACE) {
		switch p.cur().Kind {
		case CASE:
			p.advance()
			val, err := p.parseConstExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(COLON); err != nil {
				return nil, err
			}
			body, err := p.parseCaseBody()
			if err != nil {
				return nil, err
			}
			sw.Cases = append(sw.Cases, &CaseClause{
				Value: &Num{exprBase: exprBase{Type: intType}, Value: val},
				Label: p.newLabel("case"),
				Body:  body,
			})
		case DEFAULT:
			if haveDefault {
				return nil, p.errorf("multiple default labels in one switch")
			}
			haveDefault = true
			p.advance()
			if _, err := p.expect(COLON); err != nil {
				return nil, err
			}
			body, err := p.parseCaseBody()
			if err != nil {
				return nil, err
			}
			sw.Default = &CaseClause{Label: p.newLabel("default"), Body: body}
		default:
			return nil, p.errorf("expected case or default inside switch body")
		}
	}
	if _, err := p.expect(RBRACE); err != nil {
		return nil, err
	}
	return sw, nil
}

func (p *Parser) parseCaseBody() ([]Stmt, error) {
	var body []Stmt
	for !p.atAny(CASE, DEFAULT, RBRACE) {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if s != nil {
			body = append(body, s)
		}
	}
	return body, nil
}

func (p *Parser) parseLocalDecl() (Stmt, error) {
	base, storage, err := p.parseDeclSpec()
	isTypedef := err == errTypedefSentinel
	if err != nil && !isTypedef {
		return nil, err
	}
	if isTypedef {
		ty, name, err := p.parseDeclarator(base)
		if err != nil {
			return nil, err
		}
		p.cu.Symbols.DeclareTypedef(name, ty)
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if storage == Global {
		storage = Local
	}

	var syms []*Symbol
	var inits []Stmt
	for {
		ty, name, err := p.parseDeclarator(base)
		if err != nil {
			return nil, err
		}
		sym := p.cu.Symbols.DeclareLocal(name, ty)
		syms = append(syms, sym)
		if p.consume(ASSIGN) {
			if p.at(LBRACE) {
				elems, err := p.parseBraceInitializer()
				if err != nil {
					return nil, err
				}
				for i, el := range elems {
					var target Expr
					if ty.Kind == TyStruct && i < len(ty.Members) {
						target = &MemberExpr{Operand: &Var{Sym: sym}, Name: ty.Members[i].Name}
					} else {
						idx := &Num{exprBase: exprBase{Type: intType}, Value: int64(i)}
						target = &UnaryExpr{Op: STAR, Operand: &BinaryExpr{Op: PLUS, Left: &Var{Sym: sym}, Right: idx}}
					}
					inits = append(inits, &ExprStmt{Expr: &AssignExpr{Target: target, Value: el}})
				}
			} else {
				v, err := p.parseAssign()
				if err != nil {
					return nil, err
				}
				inits = append(inits, &ExprStmt{Expr: &AssignExpr{
					Target: &Var{Sym: sym},
					Value:  v,
				}})
			}
		}
		if !p.consume(COMMA) {
			break
		}
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	if len(inits) == 0 {
		return &DeclStmt{Syms: syms}, nil
	}
	stmts := append([]Stmt{&DeclStmt{Syms: syms}}, inits...)
	return &BlockStmt{Stmts: stmts}, nil
}

func (p *Parser) parseBraceInitializer() ([]Expr, error) {
	if _, err := p.expect(LBRACE); err != nil {
		return nil, err
	}
	var elems []Expr
	for !p.at(RBRACE) {
		e, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if !p.consume(COMMA) {
			break
		}
	}
	if _, err := p.expect(RBRACE); err != nil {
		return nil, err
	}
	return elems, nil
}

// --- expressions: comma -> assign -> conditional -> log_or -> log_and ->
// bitwise_or -> bitwise_xor -> bitwise_and -> equality -> relational ->
// shift -> add -> mul -> unary -> postfix -> primary ---

func (p *Parser) parseExpr() (Expr, error) {
	e, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	for p.consume(COMMA) {
		rhs, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		e = &CommaExpr{Left: e, Right: rhs}
	}
	return e, nil
}

func (p *Parser) parseAssign() (Expr, error) {
	lhs, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	if p.consume(ASSIGN) {
		rhs, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return &AssignExpr{Target: lhs, Value: rhs}, nil
	}
	return lhs, nil
}

func (p *Parser) parseConditional() (Expr, error) {
	cond, err := p.parseLogOr()
	if err != nil {
		return nil, err
	}
	if p.consume(QUESTION) {
		then, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(COLON); err != nil {
			return nil, err
		}
		els, err := p.parseConditional()
		if err != nil {
			return nil, err
		}
		return &CondExpr{Cond: cond, Then: then, Else: els}, nil
	}
	return cond, nil
}

func (p *Parser) parseLogOr() (Expr, error) {
	lhs, err := p.parseLogAnd()
	if err != nil {
		return nil, err
	}
	for p.at(LOR) {
		p.advance()
		rhs, err := p.parseLogAnd()
		if err != nil {
			return nil, err
		}
		lhs = &LogicalExpr{Op: LOR, Left: lhs, Right: rhs}
	}
	return lhs, nil
}

func (p *Parser) parseLogAnd() (Expr, error) {
	lhs, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	for p.at(LAND) {
		p.advance()
		rhs, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		lhs = &LogicalExpr{Op: LAND, Left: lhs, Right: rhs}
	}
	return lhs, nil
}

func (p *Parser) parseBitOr() (Expr, error) {
	return p.parseBinaryLevel(p.parseBitXor, PIPE)
}
func (p *Parser) parseBitXor() (Expr, error) {
	return p.parseBinaryLevel(p.parseBitAnd, CARET)
}
func (p *Parser) parseBitAnd() (Expr, error) {
	return p.parseBinaryLevel(p.parseEquality, AMP)
}
func (p *Parser) parseEquality() (Expr, error) {
	return p.parseBinaryLevel(p.parseRelational, EQ, NE)
}
func (p *Parser) parseRelational() (Expr, error) {
	return p.parseBinaryLevel(p.parseShift, LT, LE, GT, GE)
}
func (p *Parser) parseShift() (Expr, error) {
	return p.parseBinaryLevel(p.parseAdd, SHL, SHR)
}
func (p *Parser) parseAdd() (Expr, error) {
	return p.parseBinaryLevel(p.parseMul, PLUS, MINUS)
}
func (p *Parser) parseMul() (Expr, error) {
	return p.parseBinaryLevel(p.parseUnary, STAR, SLASH, PERCENT)
}

// parseBinaryLevel implements one left-associative precedence level: parse
// next, then fold in as many `op next` pairs as match ops.
func (p *Parser) parseBinaryLevel(next func() (Expr, error), ops ...TokenKind) (Expr, error) {
	lhs, err := next()
	if err != nil {
		return nil, err
	}
	for p.atAny(ops...) {
		op := p.advance().Kind
		rhs, err := next()
		if err != nil {
			return nil, err
		}
		lhs = &BinaryExpr{Op: op, Left: lhs, Right: rhs}
	}
	return lhs, nil
}

// parseUnary handles prefix operators, a parenthesized-type cast, sizeof,
// and prefix ++/-- (desugared to assignment here, per this language's rule
// that pre/post increment never survive as their own node kind).
func (p *Parser) parseUnary() (Expr, error) {
	switch p.cur().Kind {
	case PLUS:
		p.advance()
		return p.parseUnary()
	case MINUS:
		p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: MINUS, Operand: e}, nil
	case AMP:
		p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: AMP, Operand: e}, nil
	case STAR:
		p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: STAR, Operand: e}, nil
	case TILDE:
		p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: TILDE, Operand: e}, nil
	case LNOT:
		p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: LNOT, Operand: e}, nil
	case INCR:
		p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		one := &Num{exprBase: exprBase{Type: intType}, Value: 1}
		return &AssignExpr{Target: e, Value: &BinaryExpr{Op: PLUS, Left: e, Right: one}}, nil
	case DECR:
		p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		one := &Num{exprBase: exprBase{Type: intType}, Value: 1}
		return &AssignExpr{Target: e, Value: &BinaryExpr{Op: MINUS, Left: e, Right: one}}, nil
	case SIZEOF:
		return p.parseSizeof()
	case LPAREN:
		if p.isCastAhead() {
			return p.parseCast()
		}
	}
	return p.parsePostfix()
}

// isCastAhead reports whether the '(' at the current position opens a type
// name rather than a parenthesized expression.
func (p *Parser) isCastAhead() bool {
	save := p.pos
	defer func() { p.pos = save }()
	p.advance() // (
	isType := false
	switch p.cur().Kind {
	case INT, CHAR, VOID, STRUCT:
		isType = true
	case IDENT:
		_, isType = p.cu.Symbols.LookupTypedef(p.cur().Text)
	}
	return isType
}

func (p *Parser) parseTypeName() (*Type, error) {
	base, _, err := p.parseDeclSpecIgnoreTypedef()
	if err != nil {
		return nil, err
	}
	for p.consume(STAR) {
		base = pointerTo(base)
	}
	return base, nil
}

func (p *Parser) parseCast() (Expr, error) {
	p.advance() // (
	ty, err := p.parseTypeName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &CastExpr{exprBase: exprBase{Type: ty}, Operand: operand}, nil
}

// parseSizeof handles both sizeof(type) and sizeof expr. The type-name form
// folds to a compile-time Num immediately, since a type name carries its
// size with no typing needed. The expression form cannot: an arbitrary
// operand (a variable, a member access, an arithmetic expression) has no
// type until Elaborate runs as a separate pass over the whole function, so
// this produces a SizeofExpr node that Elaborate later folds to a Num once
// Operand is typed.
func (p *Parser) parseSizeof() (Expr, error) {
	p.advance() // sizeof
	if p.at(LPAREN) && p.isCastAhead() {
		p.advance()
		ty, err := p.parseTypeName()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return &Num{exprBase: exprBase{Type: intType}, Value: int64(ty.Size)}, nil
	}
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &SizeofExpr{Operand: operand}, nil
}

// parsePostfix handles array subscript (desugared to *(base+index)),
// member access . and ->, function calls, and postfix ++/--  (desugared to
// the BinaryExpr trees (x = x+1) - 1 / (x = x-1) + 1, so the expression's
// value is the old one).
func (p *Parser) parsePostfix() (Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Kind {
		case LBRACKET:
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RBRACKET); err != nil {
				return nil, err
			}
			e = &UnaryExpr{Op: STAR, Operand: &BinaryExpr{Op: PLUS, Left: e, Right: idx}}
		case DOT:
			p.advance()
			name, err := p.expect(IDENT)
			if err != nil {
				return nil, err
			}
			e = &MemberExpr{Operand: e, Name: name.Text}
		case ARROW:
			p.advance()
			name, err := p.expect(IDENT)
			if err != nil {
				return nil, err
			}
			e = &MemberExpr{Operand: &UnaryExpr{Op: STAR, Operand: e}, Name: name.Text}
		case INCR:
			p.advance()
			one := &Num{exprBase: exprBase{Type: intType}, Value: 1}
			e = &BinaryExpr{Op: MINUS,
				Left:  &AssignExpr{Target: e, Value: &BinaryExpr{Op: PLUS, Left: e, Right: one}},
				Right: one,
			}
		case DECR:
			p.advance()
			one := &Num{exprBase: exprBase{Type: intType}, Value: 1}
			e = &BinaryExpr{Op: PLUS,
				Left:  &AssignExpr{Target: e, Value: &BinaryExpr{Op: MINUS, Left: e, Right: one}},
				Right: one,
			}
		default:
			return e, nil
		}
	}
}

func (p *Parser) parsePrimary() (Expr, error) {
	switch p.cur().Kind {
	case NUM:
		v := p.advance().IntValue
		return &Num{exprBase: exprBase{Type: intType}, Value: v}, nil
	case CHARLIT:
		v := p.advance().IntValue
		return &Num{exprBase: exprBase{Type: intType}, Value: v}, nil
	case STRING:
		tok := p.advance()
		sym := p.cu.Symbols.InternString(tok.StrValue)
		return &Var{Sym: sym}, nil
	case LPAREN:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	case IDENT:
		name := p.advance()
		if p.at(LPAREN) {
			return p.parseCall(name.Text)
		}
		sym, ok := p.cu.Symbols.Lookup(name.Text)
		if !ok {
			return nil, p.errorf("undeclared identifier %q", name.Text)
		}
		return &Var{Sym: sym}, nil
	}
	return nil, p.errorf("unexpected token %s %q", p.cur().Kind, p.cur().Text)
}

func (p *Parser) parseCall(name string) (Expr, error) {
	p.advance() // (
	var args []Expr
	if !p.at(RPAREN) {
		for {
			a, err := p.parseAssign()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if !p.consume(COMMA) {
				break
			}
		}
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return &Call{Name: name, Args: args}, nil
}
