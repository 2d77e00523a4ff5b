package compiler

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/logutils"
)

var preprocessorLog = log.New(&logutils.LevelFilter{
	Levels:   []logutils.LogLevel{"DEBUG", "WARN"},
	MinLevel: "WARN",
	Writer:   os.Stderr,
}, "", 0)

const maxIncludeDepth = 10

// Preprocessor expands object-like #define macros and #include directives,
// and resolves #ifdef/#ifndef/#else/#endif blocks, producing a single
// buffer of ordinary source text. Function-like macros, stringification,
// and token pasting are not supported.
type Preprocessor struct {
	includePaths []string
	defines      map[string]string
	visited      map[string]bool
}

func newPreprocessor(includePaths []string) *Preprocessor {
	return &Preprocessor{
		includePaths: includePaths,
		defines:      map[string]string{},
		visited:      map[string]bool{},
	}
}

// Preprocess expands file (whose text is src) and returns the fully
// expanded source. includePaths are searched, in order, for a quoted
// include that the including file's own directory doesn't contain.
func Preprocess(file, src string, includePaths []string) (string, error) {
	p := newPreprocessor(includePaths)
	return p.process(file, src, 0)
}

func (p *Preprocessor) process(file, src string, depth int) (string, error) {
	if depth > maxIncludeDepth {
		return "", fmt.Errorf("%s: include depth exceeds %d, likely a cycle", file, maxIncludeDepth)
	}

	abs, err := filepath.Abs(file)
	if err == nil {
		if p.visited[abs] {
			return "", nil // idempotent re-inclusion, no header guards needed
		}
		p.visited[abs] = true
	}

	var out strings.Builder
	type condFrame struct {
		active     bool // whether lines at this depth should be emitted
		everActive bool // whether any branch so far was taken, for #else
		parent     bool
	}
	var stack []condFrame
	activeNow := func() bool {
		for _, f := range stack {
			if !f.active {
				return false
			}
		}
		return true
	}

	lines := strings.Split(src, "\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "#") {
			directive := strings.TrimSpace(trimmed[1:])
			switch {
			case strings.HasPrefix(directive, "ifdef"):
				name := strings.TrimSpace(strings.TrimPrefix(directive, "ifdef"))
				_, defined := p.defines[name]
				active := activeNow() && defined
				stack = append(stack, condFrame{active: active, everActive: active, parent: activeNow()})
				continue
			case strings.HasPrefix(directive, "ifndef"):
				name := strings.TrimSpace(strings.TrimPrefix(directive, "ifndef"))
				_, defined := p.defines[name]
				active := activeNow() && !defined
				stack = append(stack, condFrame{active: active, everActive: active, parent: activeNow()})
				continue
			case strings.HasPrefix(directive, "else"):
				if len(stack) == 0 {
					return "", fmt.Errorf("%s: #else without #ifdef/#ifndef", file)
				}
				top := &stack[len(stack)-1]
				top.active = top.parent && !top.everActive
				top.everActive = top.everActive || top.active
				continue
			case strings.HasPrefix(directive, "endif"):
				if len(stack) == 0 {
					return "", fmt.Errorf("%s: #endif without #ifdef/#ifndef", file)
				}
				stack = stack[:len(stack)-1]
				continue
			}

			if !activeNow() {
				continue
			}

			switch {
			case strings.HasPrefix(directive, "include"):
				inc, err := p.handleInclude(file, directive, depth)
				if err != nil {
					return "", err
				}
				out.WriteString(inc)
				out.WriteByte('\n')
				continue
			case strings.HasPrefix(directive, "define"):
				p.handleDefine(directive)
				continue
			case strings.HasPrefix(directive, "undef"),
				strings.HasPrefix(directive, "pragma"),
				strings.HasPrefix(directive, "error"),
				strings.HasPrefix(directive, "warning"),
				strings.HasPrefix(directive, "line"):
				continue // recognized and silently ignored
			default:
				continue
			}
		}

		if !activeNow() {
			continue
		}
		out.WriteString(p.applyDefines(line))
		out.WriteByte('\n')
	}

	return out.String(), nil
}

func (p *Preprocessor) handleInclude(fromFile, directive string, depth int) (string, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(directive, "include"))
	if len(rest) < 2 {
		return "", fmt.Errorf("%s: malformed #include", fromFile)
	}
	system := rest[0] == '<'
	name := rest[1 : len(rest)-1]

	if system {
		if body, ok := readSystemHeader(name); ok {
			return p.process(name, body, depth+1)
		}
		preprocessorLog.Printf("[DEBUG] unrecognized system header %q, ignoring", name)
		return "", nil
	}

	path := filepath.Join(filepath.Dir(fromFile), name)
	data, err := os.ReadFile(path)
	if err != nil {
		for _, dir := range p.includePaths {
			candidate := filepath.Join(dir, name)
			if d, err2 := os.ReadFile(candidate); err2 == nil {
				return p.process(candidate, string(d), depth+1)
			}
		}
		preprocessorLog.Printf("[WARN] could not find include file %q", name)
		return "", nil
	}
	return p.process(path, string(data), depth+1)
}

func (p *Preprocessor) handleDefine(directive string) {
	rest := strings.TrimSpace(strings.TrimPrefix(directive, "define"))
	fields := strings.SplitN(rest, " ", 2)
	name := fields[0]
	value := ""
	if len(fields) == 2 {
		value = strings.TrimSpace(fields[1])
	}
	p.defines[name] = value
}

// applyDefines performs a single left-to-right identifier scan, substituting
// any identifier found in the macro table with its object-like body, while
// leaving string and character literal contents untouched.
func (p *Preprocessor) applyDefines(line string) string {
	if len(p.defines) == 0 {
		return line
	}
	var out strings.Builder
	i := 0
	for i < len(line) {
		c := line[i]
		if c == '"' || c == '\'' {
			end := i + 1
			for end < len(line) && line[end] != c {
				if line[end] == '\\' {
					end++
				}
				end++
			}
			if end < len(line) {
				end++
			}
			out.WriteString(line[i:end])
			i = end
			continue
		}
		if isIdentStart(c) {
			end := i + 1
			for end < len(line) && isIdentPart(line[end]) {
				end++
			}
			word := line[i:end]
			if body, ok := p.defines[word]; ok {
				out.WriteString(body)
			} else {
				out.WriteString(word)
			}
			i = end
			continue
		}
		out.WriteByte(c)
		i++
	}
	return out.String()
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
