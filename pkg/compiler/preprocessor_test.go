package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPreprocessExpandsObjectLikeDefine(t *testing.T) {
	src := "#define SIZE 10\nint xs[SIZE];\n"
	out, err := Preprocess("test.c", src, nil)
	require.NoError(t, err)
	require.Contains(t, out, "int xs[10];")
	require.NotContains(t, out, "SIZE")
}

func TestPreprocessDefineDoesNotTouchStringLiterals(t *testing.T) {
	src := "#define SIZE 10\nchar *s = \"SIZE\";\n"
	out, err := Preprocess("test.c", src, nil)
	require.NoError(t, err)
	require.Contains(t, out, `"SIZE"`)
}

func TestPreprocessIfdefTakesTrueBranch(t *testing.T) {
	src := "#define FOO\n#ifdef FOO\nint a;\n#else\nint b;\n#endif\n"
	out, err := Preprocess("test.c", src, nil)
	require.NoError(t, err)
	require.Contains(t, out, "int a;")
	require.NotContains(t, out, "int b;")
}

func TestPreprocessIfndefTakesFalseBranchAsElse(t *testing.T) {
	src := "#define FOO\n#ifndef FOO\nint a;\n#else\nint b;\n#endif\n"
	out, err := Preprocess("test.c", src, nil)
	require.NoError(t, err)
	require.NotContains(t, out, "int a;")
	require.Contains(t, out, "int b;")
}

func TestPreprocessRecognizedSystemHeaderExpandsDeclarations(t *testing.T) {
	src := "#include <stdio.h>\n"
	out, err := Preprocess("test.c", src, nil)
	require.NoError(t, err)
	require.Contains(t, out, "int printf")
}

func TestPreprocessUnrecognizedSystemHeaderIsSilentlyDropped(t *testing.T) {
	src := "#include <nonexistent.h>\nint x;\n"
	out, err := Preprocess("test.c", src, nil)
	require.NoError(t, err)
	require.Contains(t, out, "int x;")
}

func TestPreprocessQuotedIncludeResolvesAlongsideSource(t *testing.T) {
	dir := t.TempDir()
	header := filepath.Join(dir, "defs.h")
	require.NoError(t, os.WriteFile(header, []byte("int shared_global;\n"), 0o644))

	mainFile := filepath.Join(dir, "main.c")
	src := "#include \"defs.h\"\nint f() { return 0; }\n"
	out, err := Preprocess(mainFile, src, nil)
	require.NoError(t, err)
	require.Contains(t, out, "int shared_global;")
}

func TestPreprocessIgnoredDirectivesDoNotAppearInOutput(t *testing.T) {
	src := "#pragma once\n#undef FOO\nint x;\n"
	out, err := Preprocess("test.c", src, nil)
	require.NoError(t, err)
	require.Contains(t, out, "int x;")
	require.NotContains(t, out, "#pragma")
}
