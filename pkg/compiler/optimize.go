package compiler

import "github.com/samber/lo"

// eliminateDeadFunctions drops FuncDef nodes for `static` functions that are
// never referenced by anything reachable from the translation unit's
// external interface. Every non-static function is always kept: it is part
// of this unit's linkage surface and may be called from elsewhere. This is
// an AST-level, optional optimization; nothing downstream depends on it
// having run.
func eliminateDeadFunctions(cu *CompilationUnit, stmts []Stmt) []Stmt {
	defs := map[string]*FuncDef{}
	for _, s := range stmts {
		if fn, ok := s.(*FuncDef); ok {
			defs[fn.Sym.Name] = fn
		}
	}

	reachable := map[string]bool{}
	var worklist []string
	for name, fn := range defs {
		if fn.Sym.Storage != Static {
			reachable[name] = true
			worklist = append(worklist, name)
		}
	}
	for _, g := range cu.Symbols.GlobalVars() {
		if g.Init != nil {
			for _, callee := range findCallsExpr(g.Init) {
				if !reachable[callee] {
					reachable[callee] = true
					worklist = append(worklist, callee)
				}
			}
		}
	}

	for len(worklist) > 0 {
		name := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		fn, ok := defs[name]
		if !ok {
			continue
		}
		for _, callee := range findCallsStmt(fn.Body) {
			if !reachable[callee] {
				reachable[callee] = true
				worklist = append(worklist, callee)
			}
		}
	}

	return lo.Filter(stmts, func(s Stmt, _ int) bool {
		fn, ok := s.(*FuncDef)
		if !ok {
			return true
		}
		return reachable[fn.Sym.Name]
	})
}

func findCallsStmt(s Stmt) []string {
	switch n := s.(type) {
	case nil, *NullStmt, *DeclStmt, *BreakStmt, *ContinueStmt:
		return nil
	case *BlockStmt:
		var out []string
		for _, c := range n.Stmts {
			out = append(out, findCallsStmt(c)...)
		}
		return out
	case *ExprStmt:
		return findCallsExpr(n.Expr)
	case *ReturnStmt:
		return findCallsExpr(n.Expr)
	case *IfStmt:
		out := findCallsExpr(n.Cond)
		out = append(out, findCallsStmt(n.Then)...)
		out = append(out, findCallsStmt(n.Else)...)
		return out
	case *WhileStmt:
		return append(findCallsExpr(n.Cond), findCallsStmt(n.Body)...)
	case *ForStmt:
		out := findCallsStmt(n.Init)
		out = append(out, findCallsExpr(n.Cond)...)
		out = append(out, findCallsExpr(n.Post)...)
		out = append(out, findCallsStmt(n.Body)...)
		return out
	case *SwitchStmt:
		out := findCallsExpr(n.Target)
		for _, c := range n.Cases {
			for _, b := range c.Body {
				out = append(out, findCallsStmt(b)...)
			}
		}
		if n.Default != nil {
			for _, b := range n.Default.Body {
				out = append(out, findCallsStmt(b)...)
			}
		}
		return out
	default:
		return nil
	}
}

func findCallsExpr(e Expr) []string {
	switch n := e.(type) {
	case nil:
		return nil
	case *Call:
		out := []string{n.Name}
		for _, a := range n.Args {
			out = append(out, findCallsExpr(a)...)
		}
		return out
	case *BinaryExpr:
		return append(findCallsExpr(n.Left), findCallsExpr(n.Right)...)
	case *LogicalExpr:
		return append(findCallsExpr(n.Left), findCallsExpr(n.Right)...)
	case *UnaryExpr:
		return findCallsExpr(n.Operand)
	case *MemberExpr:
		return findCallsExpr(n.Operand)
	case *AssignExpr:
		return append(findCallsExpr(n.Target), findCallsExpr(n.Value)...)
	case *CommaExpr:
		return append(findCallsExpr(n.Left), findCallsExpr(n.Right)...)
	case *CondExpr:
		out := findCallsExpr(n.Cond)
		out = append(out, findCallsExpr(n.Then)...)
		out = append(out, findCallsExpr(n.Else)...)
		return out
	case *CastExpr:
		return findCallsExpr(n.Operand)
	default:
		return nil
	}
}
