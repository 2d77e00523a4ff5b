package compiler

import "embed"

//go:embed headers/*.h
var systemHeaders embed.FS

// systemHeaderNames is the closed set of system headers the preprocessor
// recognizes. Any other angle-bracket include is silently dropped, per this
// language's minimal preprocessor contract.
var systemHeaderNames = map[string]bool{
	"stdio.h":   true,
	"stdlib.h":  true,
	"string.h":  true,
	"ctype.h":   true,
	"stdarg.h":  true,
	"errno.h":   true,
	"unistd.h":  true,
	"stdbool.h": true,
	"stddef.h":  true,
	"stdint.h":  true,
}

// readSystemHeader returns the synthetic declaration block substituted for
// a recognized system header, or ("", false) if name isn't one of them.
func readSystemHeader(name string) (string, bool) {
	if !systemHeaderNames[name] {
		return "", false
	}
	data, err := systemHeaders.ReadFile("headers/" + name)
	if err != nil {
		return "", false
	}
	return string(data), true
}
