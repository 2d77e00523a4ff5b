// Command cc compiles a single translation unit of this language's C subset
// to x86-64 assembly, and optionally assembles and links it using the host
// toolchain.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mycc/pkg/compiler"
	"mycc/pkg/utils"
)

var (
	outputPath   string
	assemblyOnly bool
	compileOnly  bool
	includeDirs  []string
	dump         string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(2) // cobra usage error; compiler errors are reported and exited from RunE
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cc <input.c>",
		Short:         "compile a C subset source file to x86-64 assembly",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          run,
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output path (default: a.out, or <input>.s in -S mode)")
	cmd.Flags().BoolVarP(&assemblyOnly, "assembly", "S", false, "emit assembly and stop")
	cmd.Flags().BoolVarP(&compileOnly, "compile-only", "c", false, "compile and assemble, do not link")
	cmd.Flags().StringArrayVarP(&includeDirs, "include", "I", nil, "prepend to include search path (repeatable)")
	cmd.Flags().StringVar(&dump, "dump", "", "print an intermediate stage instead of compiling: source|tokens|ast|asm|symbols")
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	data, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Resolve the source's own directory so a quoted #include finds its
	// neighbors even when cc is invoked from somewhere other than that
	// directory.
	fullPath, parentDir, err := utils.GetPathInfo(inputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	includePaths := append(append([]string{}, includeDirs...), parentDir, ".", "/usr/include", "/usr/local/include")

	if dump != "" {
		return runDump(fullPath, string(data), includePaths)
	}

	asm, err := compiler.Compile(fullPath, string(data), compiler.Options{
		IncludePaths: includePaths,
		Optimize:     true,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if assemblyOnly {
		out := outputPath
		if out == "" {
			out = replaceExt(inputPath, ".s")
		}
		if err := os.WriteFile(out, []byte(asm), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return nil
	}

	out := outputPath
	if out == "" {
		if compileOnly {
			out = replaceExt(inputPath, ".o")
		} else {
			out = "a.out"
		}
	}
	if err := compiler.Assemble(asm, out, compileOnly); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return nil
}

func replaceExt(path, ext string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[:i] + ext
		}
	}
	return path + ext
}
