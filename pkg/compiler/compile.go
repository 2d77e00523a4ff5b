package compiler

import (
	"fmt"
	"os"
	"os/exec"
)

// Options configures a single call to Compile.
type Options struct {
	IncludePaths []string // searched, in order, for quoted includes not found alongside the source
	Optimize     bool     // run the dead-static-function elimination pass
}

// Compile runs the full pipeline — preprocess, lex, parse, elaborate,
// generate — over src and returns the resulting GNU assembler text. It never
// calls os.Exit; callers decide how to report a returned error.
func Compile(file, src string, opts Options) (string, error) {
	expanded, err := Preprocess(file, src, opts.IncludePaths)
	if err != nil {
		return "", err
	}

	tokens, err := Lex(file, expanded)
	if err != nil {
		return "", err
	}

	cu := newCompilationUnit(file, expanded)
	stmts, err := Parse(cu, tokens)
	if err != nil {
		return "", err
	}

	if err := Elaborate(cu, stmts); err != nil {
		return "", err
	}

	return Generate(cu, stmts, opts.Optimize)
}

// ParseSource builds a CompilationUnit for file/src and parses tokens
// against it, returning both so callers (such as a debug driver) can run
// later stages by hand instead of through Compile's fixed pipeline.
func ParseSource(file, src string, tokens []Token) (*CompilationUnit, []Stmt, error) {
	cu := newCompilationUnit(file, src)
	stmts, err := Parse(cu, tokens)
	if err != nil {
		return nil, nil, err
	}
	return cu, stmts, nil
}

// Assemble invokes the host toolchain's assembler and linker to turn
// generated assembly into an object file or executable, mirroring the
// external collaborator this compiler always delegates final machine-code
// production to. assemble-only (-c) produces an object file at outPath;
// otherwise outPath is linked into an executable.
func Assemble(asm, outPath string, objectOnly bool) error {
	tmp, err := os.CreateTemp("", "mycc-*.s")
	if err != nil {
		return fmt.Errorf("creating temporary assembly file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(asm); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temporary assembly file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary assembly file: %w", err)
	}

	args := []string{tmp.Name(), "-o", outPath}
	if objectOnly {
		args = append([]string{"-c"}, args...)
	}

	cmd := exec.Command("cc", args...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running host assembler/linker: %w", err)
	}
	return nil
}
