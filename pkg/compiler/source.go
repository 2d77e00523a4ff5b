package compiler

import (
	"fmt"
	"strings"
)

// SourceError is a fatal, located compiler diagnostic. The compiler aborts
// the current compilation at the first one raised; there is no recovery.
type SourceError struct {
	Pos     Position
	Message string
	Line    string // the full source line the error occurred on, for the caret
}

func (e *SourceError) Error() string {
	if e.Line == "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Message)
	}
	caret := strings.Repeat(" ", e.Pos.Col-1) + "^"
	return fmt.Sprintf("%s: %s\n%s\n%s", e.Pos, e.Message, e.Line, caret)
}

// errorAt builds a SourceError pointing at pos within src, reproducing the
// offending line and a caret under the offending column.
func errorAt(src string, pos Position, format string, args ...any) *SourceError {
	lines := strings.Split(src, "\n")
	var line string
	if pos.Line-1 >= 0 && pos.Line-1 < len(lines) {
		line = lines[pos.Line-1]
	}
	return &SourceError{Pos: pos, Message: fmt.Sprintf(format, args...), Line: line}
}

// errorAtToken builds a SourceError located at tok, using tok.Pos and the
// owning CompilationUnit's source text to recover the offending line.
func (cu *CompilationUnit) errorAtToken(tok Token, format string, args ...any) *SourceError {
	return errorAt(cu.Source, tok.Pos, format, args...)
}

// CompilationUnit owns every long-lived value produced while compiling a
// single translation unit: its source text, interned types, and the global
// symbol table. Nothing here is freed before the unit is discarded; a fresh
// CompilationUnit is created for each call to Compile so that concurrent
// invocations never share mutable state.
type CompilationUnit struct {
	File   string
	Source string

	Types   []*Type
	Symbols *SymbolTable
}

func newCompilationUnit(file, src string) *CompilationUnit {
	return &CompilationUnit{
		File:    file,
		Source:  src,
		Symbols: newSymbolTable(),
	}
}
