package main

import (
	"fmt"
	"os"

	"mycc/pkg/compiler"
)

// runDump prints one intermediate stage of the pipeline and stops, for
// interactive inspection while working on the compiler itself.
func runDump(file, src string, includePaths []string) error {
	expanded, err := compiler.Preprocess(file, src, includePaths)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if dump == "source" {
		fmt.Print(expanded)
		return nil
	}

	tokens, err := compiler.Lex(file, expanded)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if dump == "tokens" {
		for _, t := range tokens {
			fmt.Println(t)
		}
		return nil
	}

	cu, stmts, err := compiler.ParseSource(file, expanded, tokens)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if dump == "ast" {
		for _, s := range stmts {
			fmt.Printf("%#v\n", s)
		}
		return nil
	}

	if err := compiler.Elaborate(cu, stmts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if dump == "symbols" {
		for _, f := range cu.Symbols.Functions() {
			fmt.Println("func", f.Name)
		}
		for _, g := range cu.Symbols.GlobalVars() {
			fmt.Println("global", g.Name)
		}
		return nil
	}

	asm, err := compiler.Generate(cu, stmts, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if dump == "asm" {
		fmt.Print(asm)
		return nil
	}

	return fmt.Errorf("unknown --dump stage %q (want source|tokens|ast|asm|symbols)", dump)
}
