package compiler

import (
	"reflect"
	"testing"
)

// kindsAndText strips positions from a token slice so test tables can focus
// on what was recognized, not where, mirroring the comparison granularity
// the original lexer tests used.
func kindsAndText(tokens []Token) []Token {
	out := make([]Token, len(tokens))
	for i, t := range tokens {
		out[i] = Token{Kind: t.Kind, Text: t.Text, IntValue: t.IntValue}
	}
	return out
}

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
		wantErr  bool
	}{
		{
			name:     "Empty",
			input:    "",
			expected: []Token{{Kind: EOF}},
		},
		{
			name:  "Basic Tokens",
			input: "+ - * / & = == != < > ; , { } ( )",
			expected: []Token{
				{Kind: PLUS, Text: "+"},
				{Kind: MINUS, Text: "-"},
				{Kind: STAR, Text: "*"},
				{Kind: SLASH, Text: "/"},
				{Kind: AMP, Text: "&"},
				{Kind: ASSIGN, Text: "="},
				{Kind: EQ, Text: "=="},
				{Kind: NE, Text: "!="},
				{Kind: LT, Text: "<"},
				{Kind: GT, Text: ">"},
				{Kind: SEMICOLON, Text: ";"},
				{Kind: COMMA, Text: ","},
				{Kind: LBRACE, Text: "{"},
				{Kind: RBRACE, Text: "}"},
				{Kind: LPAREN, Text: "("},
				{Kind: RPAREN, Text: ")"},
				{Kind: EOF},
			},
		},
		{
			name:  "Keywords and identifiers",
			input: "int if else while return variableName _under_score",
			expected: []Token{
				{Kind: INT, Text: "int"},
				{Kind: IF, Text: "if"},
				{Kind: ELSE, Text: "else"},
				{Kind: WHILE, Text: "while"},
				{Kind: RETURN, Text: "return"},
				{Kind: IDENT, Text: "variableName"},
				{Kind: IDENT, Text: "_under_score"},
				{Kind: EOF},
			},
		},
		{
			name:  "Multi-char operators",
			input: "a->b a.b a++ a-- ++a --a && || << >> <= >= ... ?: a+=1 a-=1",
			expected: []Token{
				{Kind: IDENT, Text: "a"}, {Kind: ARROW, Text: "->"}, {Kind: IDENT, Text: "b"},
				{Kind: IDENT, Text: "a"}, {Kind: DOT, Text: "."}, {Kind: IDENT, Text: "b"},
				{Kind: IDENT, Text: "a"}, {Kind: INCR, Text: "++"},
				{Kind: IDENT, Text: "a"}, {Kind: DECR, Text: "--"},
				{Kind: INCR, Text: "++"}, {Kind: IDENT, Text: "a"},
				{Kind: DECR, Text: "--"}, {Kind: IDENT, Text: "a"},
				{Kind: LAND, Text: "&&"}, {Kind: LOR, Text: "||"},
				{Kind: SHL, Text: "<<"}, {Kind: SHR, Text: ">>"},
				{Kind: LE, Text: "<="}, {Kind: GE, Text: ">="},
				{Kind: ELLIPSIS, Text: "..."},
				{Kind: QUESTION, Text: "?"}, {Kind: COLON, Text: ":"},
				{Kind: IDENT, Text: "a"}, {Kind: PLUSEQ, Text: "+="}, {Kind: NUM, Text: "1", IntValue: 1},
				{Kind: IDENT, Text: "a"}, {Kind: MINUSEQ, Text: "-="}, {Kind: NUM, Text: "1", IntValue: 1},
				{Kind: EOF},
			},
		},
		{
			name:  "Integer literal wraps to signed 32-bit",
			input: "4294967296",
			expected: []Token{
				{Kind: NUM, Text: "4294967296", IntValue: 0},
				{Kind: EOF},
			},
		},
		{
			name:  "String literal with escapes",
			input: `"hi\n"`,
			expected: []Token{
				{Kind: STRING, Text: "hi\n"},
				{Kind: EOF},
			},
		},
		{
			name:  "Character literal",
			input: `'a' '\n' '\0'`,
			expected: []Token{
				{Kind: CHARLIT, Text: "a", IntValue: 'a'},
				{Kind: CHARLIT, Text: "\n", IntValue: '\n'},
				{Kind: CHARLIT, Text: "\x00", IntValue: 0},
				{Kind: EOF},
			},
		},
		{
			name:  "Comments are skipped",
			input: "1 // line comment\n/* block\ncomment */ 2",
			expected: []Token{
				{Kind: NUM, Text: "1", IntValue: 1},
				{Kind: NUM, Text: "2", IntValue: 2},
				{Kind: EOF},
			},
		},
		{
			name:    "Unterminated string is an error",
			input:   `"unterminated`,
			wantErr: true,
		},
		{
			name:    "Unknown character is an error",
			input:   "$",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex("test.c", tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Lex(%q) expected an error, got none", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lex(%q) unexpected error: %v", tt.input, err)
			}
			got := kindsAndText(tokens)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Fatalf("Lex(%q) = %+v, want %+v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLexTracksLineAndColumn(t *testing.T) {
	tokens, err := Lex("test.c", "a\nbb c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Position{
		{File: "test.c", Line: 1, Col: 1}, // a
		{File: "test.c", Line: 2, Col: 1}, // bb
		{File: "test.c", Line: 2, Col: 4}, // c
		{File: "test.c", Line: 2, Col: 5}, // EOF
	}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(tokens), len(want))
	}
	for i, tok := range tokens {
		if tok.Pos != want[i] {
			t.Errorf("token %d: Pos = %+v, want %+v", i, tok.Pos, want[i])
		}
	}
}
