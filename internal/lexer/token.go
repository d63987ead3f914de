// Package lexer splits C and C++ source text into categorized preprocessing
// tokens. The token stream is lossless: concatenating every token's Text
// reproduces the input exactly, whitespace and comments included.
package lexer

import "fmt"

// Category classifies a token.
type Category int

const (
	EOF            Category = iota // end of input stream
	Keyword                        // reserved words: int, return, class, ...
	Identifier                     // [A-Za-z_$][A-Za-z0-9_$]* and Unicode letters
	StringLiteral                  // "...", L"...", u8"...", R"x(...)x"
	CharLiteral                    // 'a', L'a', u'\n'
	IntegerLiteral                 // 42, 0x2a, 10ULL, 1'000
	FloatLiteral                   // 1.5, 1e9, .5f, 0x1p-3
	BoolLiteral                    // true, false
	Operator                       // + - ( ) , -> <<= ...
	Whitespace                     // runs of blanks and backslash line continuations
	Newline                        // \n or \r\n
	LineComment                    // // ...
	BlockComment                   // /* ... */
	MacroDefine                    // #define
	Directive                      // any other preprocessor directive marker
	Punctuation                    // # ## ... and characters the scanner does not know
)

var categoryNames = [...]string{
	EOF:            "EOF",
	Keyword:        "Keyword",
	Identifier:     "Identifier",
	StringLiteral:  "StringLiteral",
	CharLiteral:    "CharLiteral",
	IntegerLiteral: "IntegerLiteral",
	FloatLiteral:   "FloatLiteral",
	BoolLiteral:    "BoolLiteral",
	Operator:       "Operator",
	Whitespace:     "Whitespace",
	Newline:        "Newline",
	LineComment:    "LineComment",
	BlockComment:   "BlockComment",
	MacroDefine:    "MacroDefine",
	Directive:      "Directive",
	Punctuation:    "Punctuation",
}

func (c Category) String() string {
	if c >= 0 && int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// IsWordLike reports whether tokens of this category are candidates for
// aliasing: keywords, identifiers, every literal kind and operators.
func (c Category) IsWordLike() bool {
	switch c {
	case Keyword, Identifier, StringLiteral, CharLiteral, IntegerLiteral,
		FloatLiteral, BoolLiteral, Operator:
		return true
	}
	return false
}

// IsComment reports whether c is a line or block comment.
func (c Category) IsComment() bool {
	return c == LineComment || c == BlockComment
}

// Position of a token in the input. Line and Column start at 1; Column
// counts bytes.
type Position struct {
	Filename string
	Line     int
	Column   int
}

func (p Position) String() string {
	switch {
	case p.Filename == "":
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	default:
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
}

// Token is a single preprocessing token.
type Token struct {
	Category Category
	Text     string
	Pos      Position
}

// Is reports whether t is an operator with the given spelling.
func (t Token) Is(op string) bool {
	return t.Category == Operator && t.Text == op
}

func (t Token) String() string {
	return fmt.Sprintf("%s %s %q", t.Pos, t.Category, t.Text)
}

// Error is returned for input the scanner cannot tokenize.
type Error struct {
	Pos Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}
