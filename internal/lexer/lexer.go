package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Options tune the scanner.
type Options struct {
	// Filename is recorded in token positions and errors.
	Filename string
	// KeepPunctuation classifies every operator except ( ) and , as
	// Punctuation instead of Operator.
	KeepPunctuation bool
}

var keywords = map[string]bool{
	// C11
	"auto": true, "break": true, "case": true, "char": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"enum": true, "extern": true, "float": true, "for": true, "goto": true,
	"if": true, "inline": true, "int": true, "long": true, "register": true,
	"restrict": true, "return": true, "short": true, "signed": true,
	"sizeof": true, "static": true, "struct": true, "switch": true,
	"typedef": true, "union": true, "unsigned": true, "void": true,
	"volatile": true, "while": true, "_Alignas": true, "_Alignof": true,
	"_Atomic": true, "_Bool": true, "_Complex": true, "_Generic": true,
	"_Imaginary": true, "_Noreturn": true, "_Static_assert": true,
	"_Thread_local": true, "asm": true, "__asm__": true, "__attribute__": true,
	"typeof": true, "__typeof__": true,
	// C++11
	"alignas": true, "alignof": true, "bool": true, "catch": true,
	"char16_t": true, "char32_t": true, "class": true, "constexpr": true,
	"const_cast": true, "decltype": true, "delete": true, "dynamic_cast": true,
	"explicit": true, "export": true, "friend": true, "mutable": true,
	"namespace": true, "new": true, "noexcept": true, "nullptr": true,
	"operator": true, "private": true, "protected": true, "public": true,
	"reinterpret_cast": true, "static_assert": true, "static_cast": true,
	"template": true, "this": true, "thread_local": true, "throw": true,
	"try": true, "typeid": true, "typename": true, "using": true,
	"virtual": true, "wchar_t": true,
}

// punctuators is ordered longest first so the scanner takes the longest match.
var punctuators = []string{
	"%:%:",
	"...", "<<=", ">>=", "->*", "<=>",
	"##", "%:", "->", "++", "--", "<<", ">>", "<=", ">=", "==", "!=", "&&",
	"||", "*=", "/=", "%=", "+=", "-=", "&=", "^=", "|=", "::", ".*", "<:",
	":>", "<%", "%>",
	"[", "]", "(", ")", "{", "}", ".", "&", "*", "+", "-", "~", "!", "/",
	"%", "<", ">", "^", "|", "?", ":", ";", "=", ",", "#",
}

// Stringizing, pasting and variadic markers must reach the preprocessor
// verbatim, so they are never operators.
var literalPunctuators = map[string]bool{
	"#": true, "##": true, "%:": true, "%:%:": true, "...": true,
}

// Directives whose remaining line is kept as part of the directive token.
var opaqueDirectives = map[string]bool{
	"include": true, "include_next": true, "import": true, "pragma": true,
	"error": true, "warning": true, "line": true, "ident": true, "sccs": true,
}

var encodingPrefixes = map[string]bool{"L": true, "u": true, "U": true, "u8": true}

var rawPrefixes = map[string]bool{"R": true, "LR": true, "uR": true, "UR": true, "u8R": true}

// Tokenize scans src into tokens. The returned slice always ends with an EOF
// token.
func Tokenize(src string, opts Options) ([]Token, error) {
	lx := &scanner{src: src, opts: opts, line: 1, bol: true}
	for lx.pos < len(lx.src) {
		if err := lx.scan(); err != nil {
			return nil, err
		}
	}
	lx.emit(EOF, lx.pos)
	return lx.toks, nil
}

type scanner struct {
	src  string
	opts Options
	toks []Token

	pos       int // offset of the next unread byte
	start     int // offset where the current token started
	line      int
	lineStart int  // offset of the first byte of the current line
	bol       bool // only blanks and block comments seen since the last newline
}

func (lx *scanner) position(off int) Position {
	return Position{Filename: lx.opts.Filename, Line: lx.line, Column: off - lx.lineStart + 1}
}

func (lx *scanner) errorf(msg string) error {
	return &Error{Pos: lx.position(lx.start), Msg: msg}
}

// emit records src[start:end] as a token and moves past it.
func (lx *scanner) emit(cat Category, end int) {
	text := lx.src[lx.start:end]
	lx.toks = append(lx.toks, Token{Category: cat, Text: text, Pos: lx.position(lx.start)})
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lx.line++
			lx.lineStart = lx.start + i + 1
		}
	}
	switch cat {
	case Newline:
		lx.bol = true
	case Whitespace, BlockComment, EOF:
	default:
		lx.bol = false
	}
	lx.pos = end
	lx.start = end
}

func (lx *scanner) peek(off int) byte {
	if i := lx.pos + off; i < len(lx.src) {
		return lx.src[i]
	}
	return 0
}

func (lx *scanner) scan() error {
	lx.start = lx.pos
	c := lx.src[lx.pos]
	switch {
	case c == '\n':
		lx.emit(Newline, lx.pos+1)
	case c == '\r' && lx.peek(1) == '\n':
		lx.emit(Newline, lx.pos+2)
	case c == '\r':
		lx.emit(Newline, lx.pos+1)
	case isBlank(c) || lx.continuation(lx.pos) > 0:
		lx.emit(Whitespace, lx.blanks(lx.pos))
	case c == '/' && lx.peek(1) == '/':
		lx.emit(LineComment, lx.lineEnd(lx.pos+2))
	case c == '/' && lx.peek(1) == '*':
		end := strings.Index(lx.src[lx.pos+2:], "*/")
		if end < 0 {
			return lx.errorf("unterminated block comment")
		}
		lx.emit(BlockComment, lx.pos+2+end+2)
	case lx.bol && (c == '#' || strings.HasPrefix(lx.src[lx.pos:], "%:")):
		return lx.directive()
	case isDigit(c) || (c == '.' && isDigit(lx.peek(1))):
		lx.number()
	case c == '"':
		return lx.quoted(lx.pos, '"', StringLiteral)
	case c == '\'':
		return lx.quoted(lx.pos, '\'', CharLiteral)
	case isIdentStart(lx.src[lx.pos:]):
		return lx.identifier()
	default:
		lx.punctuator()
	}
	return nil
}

// continuation returns the length of a backslash-newline at off, or 0.
func (lx *scanner) continuation(off int) int {
	if off >= len(lx.src) || lx.src[off] != '\\' {
		return 0
	}
	rest := lx.src[off+1:]
	switch {
	case strings.HasPrefix(rest, "\r\n"):
		return 3
	case strings.HasPrefix(rest, "\n"):
		return 2
	}
	return 0
}

// blanks returns the end of the run of blanks and continuations at off.
func (lx *scanner) blanks(off int) int {
	for off < len(lx.src) {
		if isBlank(lx.src[off]) {
			off++
		} else if n := lx.continuation(off); n > 0 {
			off += n
		} else {
			break
		}
	}
	return off
}

// gap returns the end of the blanks, continuations and block comments at
// off. An unterminated comment ends the gap.
func (lx *scanner) gap(off int) int {
	for {
		off = lx.blanks(off)
		if !strings.HasPrefix(lx.src[off:], "/*") {
			return off
		}
		end := strings.Index(lx.src[off+2:], "*/")
		if end < 0 {
			return off
		}
		off += 2 + end + 2
	}
}

// lineEnd returns the offset of the newline ending the logical line that
// contains off. Continued lines are part of the logical line.
func (lx *scanner) lineEnd(off int) int {
	for off < len(lx.src) {
		if n := lx.continuation(off); n > 0 {
			off += n
			continue
		}
		if lx.src[off] == '\n' || lx.src[off] == '\r' {
			break
		}
		off++
	}
	return off
}

func (lx *scanner) directive() error {
	off := lx.pos + 1
	if lx.src[lx.pos] == '%' {
		off++
	}
	off = lx.gap(off)
	nameStart := off
	for off < len(lx.src) && isIdentByte(lx.src[off]) {
		off++
	}
	name := lx.src[nameStart:off]

	switch {
	case name == "define":
		lx.emit(MacroDefine, off)
	case name == "include" || name == "include_next" || name == "import":
		// Keep the header name with the directive; whatever follows it is
		// scanned normally so trailing comments are still recognized.
		hdr := lx.blanks(off)
		if end, ok := lx.headerName(hdr); ok {
			off = end
		}
		lx.emit(Directive, off)
	case opaqueDirectives[name] || (name == "" && off < len(lx.src) && isDigit(lx.src[off])):
		lx.emit(Directive, lx.directiveEnd(off))
	default:
		lx.emit(Directive, off)
	}
	return nil
}

// headerName scans <...> or "..." starting at off.
func (lx *scanner) headerName(off int) (int, bool) {
	if off >= len(lx.src) {
		return off, false
	}
	var closer byte
	switch lx.src[off] {
	case '<':
		closer = '>'
	case '"':
		closer = '"'
	default:
		return off, false
	}
	for i := off + 1; i < len(lx.src); i++ {
		switch lx.src[i] {
		case closer:
			return i + 1, true
		case '\n', '\r':
			return off, false
		}
	}
	return off, false
}

// directiveEnd returns where the text of an opaque directive stops: at the
// end of the logical line or at the first comment outside of quotes.
func (lx *scanner) directiveEnd(off int) int {
	end := lx.lineEnd(off)
	var quote byte
	for i := off; i < end; i++ {
		c := lx.src[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '/' && i+1 < end && (lx.src[i+1] == '/' || lx.src[i+1] == '*'):
			return trimBlanks(lx.src, off, i)
		}
	}
	return end
}

func trimBlanks(src string, lo, hi int) int {
	for hi > lo && isBlank(src[hi-1]) {
		hi--
	}
	return hi
}

// number scans a preprocessing number and classifies it as an integer or a
// floating constant.
func (lx *scanner) number() {
	off := lx.pos
	for off < len(lx.src) {
		c := lx.src[off]
		switch {
		case (c == '+' || c == '-') && off > lx.pos && isExponent(lx.src[off-1]):
			off++
		case c == '\'' && off+1 < len(lx.src) && isIdentByte(lx.src[off+1]):
			off += 2
		case isIdentByte(c) || c == '.':
			off++
		default:
			lx.emit(numberCategory(lx.src[lx.pos:off]), off)
			return
		}
	}
	lx.emit(numberCategory(lx.src[lx.pos:off]), off)
}

func isExponent(c byte) bool {
	return c == 'e' || c == 'E' || c == 'p' || c == 'P'
}

func numberCategory(s string) Category {
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "0x") {
		if strings.ContainsAny(lower, ".p") {
			return FloatLiteral
		}
		return IntegerLiteral
	}
	if strings.ContainsAny(lower, ".e") {
		return FloatLiteral
	}
	return IntegerLiteral
}

// quoted scans a string or character literal whose opening quote is at off.
// Any encoding prefix is already part of the token.
func (lx *scanner) quoted(off int, quote byte, cat Category) error {
	for i := off + 1; i < len(lx.src); i++ {
		switch lx.src[i] {
		case '\\':
			i++
		case quote:
			lx.emit(cat, i+1)
			return nil
		case '\n':
			return lx.errorf("unterminated " + literalName(cat))
		}
	}
	return lx.errorf("unterminated " + literalName(cat))
}

func literalName(cat Category) string {
	if cat == CharLiteral {
		return "character literal"
	}
	return "string literal"
}

// rawString scans R"delim( ... )delim" with the opening quote at off.
func (lx *scanner) rawString(off int) error {
	open := strings.IndexByte(lx.src[off+1:], '(')
	if open < 0 || open > 16 {
		return lx.errorf("invalid raw string delimiter")
	}
	delim := lx.src[off+1 : off+1+open]
	if strings.ContainsAny(delim, " \t\n\r\\)\"") {
		return lx.errorf("invalid raw string delimiter")
	}
	body := off + 1 + open + 1
	closer := ")" + delim + "\""
	end := strings.Index(lx.src[body:], closer)
	if end < 0 {
		return lx.errorf("unterminated raw string literal")
	}
	lx.emit(StringLiteral, body+end+len(closer))
	return nil
}

func (lx *scanner) identifier() error {
	off := lx.pos
	for off < len(lx.src) {
		r, size := utf8.DecodeRuneInString(lx.src[off:])
		if !isIdentRune(r) {
			break
		}
		off += size
	}
	word := lx.src[lx.pos:off]
	next := byte(0)
	if off < len(lx.src) {
		next = lx.src[off]
	}

	switch {
	case next == '"' && rawPrefixes[word]:
		return lx.rawString(off)
	case next == '"' && encodingPrefixes[word]:
		return lx.quoted(off, '"', StringLiteral)
	case next == '\'' && encodingPrefixes[word]:
		return lx.quoted(off, '\'', CharLiteral)
	case word == "true" || word == "false":
		lx.emit(BoolLiteral, off)
	case keywords[word]:
		lx.emit(Keyword, off)
	default:
		lx.emit(Identifier, off)
	}
	return nil
}

func (lx *scanner) punctuator() {
	rest := lx.src[lx.pos:]
	for _, p := range punctuators {
		if strings.HasPrefix(rest, p) {
			lx.emit(lx.punctuatorCategory(p), lx.pos+len(p))
			return
		}
	}
	_, size := utf8.DecodeRuneInString(rest)
	lx.emit(Punctuation, lx.pos+size)
}

func (lx *scanner) punctuatorCategory(p string) Category {
	switch {
	case literalPunctuators[p]:
		return Punctuation
	case lx.opts.KeepPunctuation && p != "(" && p != ")" && p != ",":
		return Punctuation
	}
	return Operator
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\v' || c == '\f'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || isDigit(c) || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentRune(r rune) bool {
	if r < utf8.RuneSelf {
		return isIdentByte(byte(r))
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isIdentStart(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return isIdentRune(r) && !unicode.IsDigit(r)
}
