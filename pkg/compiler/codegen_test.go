package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func compileSource(t *testing.T, src string) string {
	t.Helper()
	asm, err := Compile("test.c", src, Options{Optimize: true})
	require.NoError(t, err)
	return asm
}

func TestGenerateEmitsPrologueAndEpilogue(t *testing.T) {
	asm := compileSource(t, `int main() { return 0; }`)
	require.Contains(t, asm, ".intel_syntax noprefix")
	require.Contains(t, asm, "main:")
	require.Contains(t, asm, "push rbp")
	require.Contains(t, asm, "mov rbp, rsp")
	require.Contains(t, asm, ".L.return.main:")
	require.Contains(t, asm, "pop rbp")
	require.Contains(t, asm, "ret")
}

func TestGenerateNonStaticFunctionIsExported(t *testing.T) {
	asm := compileSource(t, `int main() { return 0; }`)
	require.Contains(t, asm, ".globl main")
}

func TestGenerateStaticFunctionIsNotExported(t *testing.T) {
	asm := compileSource(t, `
static int helper() { return 1; }
int main() { return helper(); }
`)
	require.NotContains(t, asm, ".globl helper")
	require.Contains(t, asm, ".globl main")
	require.Contains(t, asm, "helper:")
}

func TestGenerateFrameSizeIsRoundedUpTo16(t *testing.T) {
	// one char local: running=1 -> roundUp(1,8)=8 -> frame roundUp(8,16)=16
	asm := compileSource(t, `int main() { char c; return 0; }`)
	require.Contains(t, asm, "sub rsp, 16")
}

func TestGenerateFrameSizeForTwoIntLocals(t *testing.T) {
	// two int locals: 4->roundUp8=8, 8+4=12->roundUp8=16 -> frame roundUp(16,16)=16
	asm := compileSource(t, `int main() { int a; int b; return 0; }`)
	require.Contains(t, asm, "sub rsp, 16")
}

func TestGenerateBinaryOperatorNormalizesOperandOrder(t *testing.T) {
	asm := compileSource(t, `int main() { return 10 - 3; }`)
	require.Contains(t, asm, "xchg rax, rdi")
	require.Contains(t, asm, "sub rax, rdi")
}

func TestGenerateStringLiteralHoistedToDataSection(t *testing.T) {
	asm := compileSource(t, `
int puts(char *s);
int main() { return puts("hi"); }
`)
	dataIdx := strings.Index(asm, ".data")
	lcIdx := strings.Index(asm, ".LC0:")
	require.True(t, dataIdx >= 0 && lcIdx > dataIdx, "hoisted string must appear in the .data section")
	require.Contains(t, asm, `.string "hi"`)
	require.NotContains(t, asm, ".globl .LC0", "string literal globals are never exported")
}

func TestGenerateSwitchEmitsCompareChainAndFallthrough(t *testing.T) {
	asm := compileSource(t, `
int main() {
	int x;
	x = 1;
	switch (x) {
	case 1:
	case 2:
		return 2;
	default:
		return 0;
	}
	return 9;
}
`)
	require.Contains(t, asm, "cmp rax, 1")
	require.Contains(t, asm, "cmp rax, 2")
}

func TestGenerateGlobalArrayInitializerEmitsDataDirectives(t *testing.T) {
	asm := compileSource(t, `int xs[3] = {1, 2, 3};`)
	dataSection := asm[strings.Index(asm, ".data"):]
	require.Contains(t, dataSection, "xs:")
	require.Contains(t, dataSection, ".long 1")
	require.Contains(t, dataSection, ".long 2")
	require.Contains(t, dataSection, ".long 3")
}

func TestGenerateUninitializedGlobalIsZeroFilled(t *testing.T) {
	asm := compileSource(t, `int counter;`)
	dataSection := asm[strings.Index(asm, ".data"):]
	require.Contains(t, dataSection, "counter:")
	require.Contains(t, dataSection, ".zero 4")
}

func TestGenerateDeadStaticFunctionIsEliminated(t *testing.T) {
	asm := compileSource(t, `
static int unused() { return 1; }
int main() { return 0; }
`)
	require.NotContains(t, asm, "unused:")
}

func TestGenerateStaticFunctionCalledFromMainSurvives(t *testing.T) {
	asm := compileSource(t, `
static int used() { return 1; }
int main() { return used(); }
`)
	require.Contains(t, asm, "used:")
}

func TestGenerateWithOptimizeDisabledKeepsDeadStaticFunction(t *testing.T) {
	asm, err := Compile("test.c", `
static int unused() { return 1; }
int main() { return 0; }
`, Options{Optimize: false})
	require.NoError(t, err)
	require.Contains(t, asm, "unused:", "Optimize: false must leave dead-code elimination off")
}
