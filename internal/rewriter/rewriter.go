// Package rewriter replaces the tokens of a C source file with aliases.
//
// Identifiers, keywords, literals and operators are each replaced by the
// alias the shared alias.Table assigns to their text. An identifier directly
// followed by a parenthesized group is replaced as one unit: the group is
// rewritten recursively and the identifier text plus the rendered group
// becomes a single alias. Function-like macros are only invoked by a literal
// "(", so a call must be hidden whole or not at all.
//
// Comments are dropped, runs of blanks collapse to one space and newlines are
// kept, so the output has the line structure of the input. Consecutive
// aliases are always separated by a space so they stay two tokens after
// expansion.
package rewriter

import (
	"log"
	"strings"

	"github.com/whit3rabbit/bleachcode/internal/alias"
	"github.com/whit3rabbit/bleachcode/internal/lexer"
)

// Options tune an Engine.
type Options struct {
	// Preserve lists identifiers emitted verbatim, never aliased.
	Preserve []string
	// PreservePrefixes preserves every identifier starting with one of them.
	PreservePrefixes []string
	// ExemptDirectives names directives besides #define ("undef",
	// "ifdef", ...) whose following name is emitted verbatim.
	ExemptDirectives []string
	// Debug logs every consumed token to Logger.
	Debug  bool
	Logger *log.Logger
}

// Engine rewrites token streams. All rewrites done by one Engine share its
// alias table.
type Engine struct {
	table    *alias.Table
	preserve map[string]bool
	prefixes []string
	exempt   map[string]bool
	debug    bool
	logger   *log.Logger
}

// New returns an engine that resolves aliases through table.
func New(table *alias.Table, opts Options) *Engine {
	e := &Engine{
		table:    table,
		preserve: make(map[string]bool, len(opts.Preserve)),
		prefixes: opts.PreservePrefixes,
		exempt:   make(map[string]bool, len(opts.ExemptDirectives)),
		debug:    opts.Debug,
		logger:   opts.Logger,
	}
	for _, id := range opts.Preserve {
		e.preserve[id] = true
	}
	for _, d := range opts.ExemptDirectives {
		e.exempt[strings.ToLower(d)] = true
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	return e
}

// Table returns the engine's alias table.
func (e *Engine) Table() *alias.Table { return e.table }

// Rewrite consumes tokens from cur up to the end of the stream and returns
// the rewritten text.
func (e *Engine) Rewrite(cur *lexer.Cursor) string {
	var out strings.Builder
	e.rewrite(cur, &out, false)
	return out.String()
}

// frame is the state of one rewrite call. Nested calls get their own frame.
type frame struct {
	callMode    bool // stop after one balanced parenthesized group
	depth       int  // open parentheses, counted in call mode only
	lastSpace   bool // the last thing written was a space or newline
	afterDefine bool // the previous token was an exempting directive
}

// rewrite writes the rewritten form of the tokens at cur to out. In call
// mode it returns right after the ")" that balances the first "(".
func (e *Engine) rewrite(cur *lexer.Cursor, out *strings.Builder, callMode bool) {
	// Nothing written yet, so nothing the first token could fuse with.
	f := frame{callMode: callMode, lastSpace: true}
	for {
		tok := cur.Next()
		if e.debug {
			e.logger.Printf("rewrite: call=%t %s", callMode, tok)
		}

		switch {
		case tok.Category == lexer.EOF:
			return
		case tok.Category.IsWordLike():
			if e.word(cur, out, &f, tok) {
				return
			}
		case tok.Category.IsComment():
			// Dropped. lastSpace is left alone so the neighbors behave as if
			// the comment was never there.
		case tok.Category == lexer.Newline:
			if callMode {
				out.WriteByte(' ')
			} else {
				out.WriteString(tok.Text)
			}
			f.lastSpace = true
		case tok.Category == lexer.Whitespace:
			out.WriteByte(' ')
			f.lastSpace = true
		case tok.Category == lexer.MacroDefine || tok.Category == lexer.Directive:
			out.WriteString(directiveText(tok.Text))
			f.lastSpace = false
			f.afterDefine = e.exempts(tok)
		default:
			out.WriteString(tok.Text)
			f.lastSpace = false
			f.afterDefine = e.exempts(tok)
		}
	}
}

// word handles a word-like token. It reports whether the current call-mode
// frame is complete.
func (e *Engine) word(cur *lexer.Cursor, out *strings.Builder, f *frame, tok lexer.Token) bool {
	if f.callMode && isGlue(tok) {
		// Structural parts of a fused call stay literal and unspaced.
		out.WriteString(tok.Text)
		f.lastSpace = false
		f.afterDefine = false
		return f.count(tok)
	}

	if !f.lastSpace {
		out.WriteByte(' ')
	}
	verbatim := f.afterDefine || e.preserved(tok)
	f.lastSpace = false
	f.afterDefine = false

	if tok.Category == lexer.Identifier && cur.PeekSkipWhitespace().Is("(") {
		// The nested call starts right after the identifier, so blanks
		// before "(" are rendered as part of the group. That keeps
		// "#define F (x)" an object-like macro.
		var group strings.Builder
		e.rewrite(cur, &group, true)
		key := tok.Text + group.String()
		if verbatim {
			out.WriteString(key)
		} else {
			out.WriteString(e.table.Resolve(key))
		}
		return false
	}

	if verbatim {
		out.WriteString(tok.Text)
	} else {
		out.WriteString(e.table.Resolve(tok.Text))
	}
	return f.count(tok)
}

// count tracks parenthesis depth in call mode and reports whether the group
// that opened the frame has just been closed.
func (f *frame) count(tok lexer.Token) bool {
	if !f.callMode {
		return false
	}
	switch {
	case tok.Is("("):
		f.depth++
	case tok.Is(")"):
		f.depth--
		return f.depth == 0
	}
	return false
}

func isGlue(tok lexer.Token) bool {
	return tok.Is("(") || tok.Is(")") || tok.Is(",")
}

func (e *Engine) preserved(tok lexer.Token) bool {
	if tok.Category != lexer.Identifier {
		return false
	}
	if e.preserve[tok.Text] {
		return true
	}
	for _, p := range e.prefixes {
		if p != "" && strings.HasPrefix(tok.Text, p) {
			return true
		}
	}
	return false
}

// exempts reports whether tok is a directive whose following name must not
// be aliased.
func (e *Engine) exempts(tok lexer.Token) bool {
	switch tok.Category {
	case lexer.MacroDefine:
		return true
	case lexer.Directive:
		return e.exempt[directiveName(tok.Text)]
	}
	return false
}

// directiveName returns "ifdef" for "#  ifdef", "%:ifdef" and "#/**/ifdef".
func directiveName(text string) string {
	_, _, rest := splitDirective(text)
	end := 0
	for end < len(rest) && isNameByte(rest[end]) {
		end++
	}
	return rest[:end]
}

// directiveText returns a directive token with the comments between its
// marker and its name replaced by a space each.
func directiveText(text string) string {
	marker, gap, rest := splitDirective(text)
	if !strings.Contains(gap, "/*") {
		return text
	}
	var sb strings.Builder
	sb.WriteString(marker)
	for gap != "" {
		if strings.HasPrefix(gap, "/*") {
			end := strings.Index(gap[2:], "*/")
			gap = gap[2+end+2:]
			sb.WriteByte(' ')
			continue
		}
		sb.WriteByte(gap[0])
		gap = gap[1:]
	}
	sb.WriteString(rest)
	return sb.String()
}

// splitDirective splits a directive token into its marker, the blanks and
// block comments that follow it, and the rest starting at the name.
func splitDirective(text string) (marker, gap, rest string) {
	switch {
	case strings.HasPrefix(text, "#"):
		marker = "#"
	case strings.HasPrefix(text, "%:"):
		marker = "%:"
	}
	rest = text[len(marker):]
	i := 0
	for i < len(rest) {
		if strings.IndexByte(" \t\v\f\\\r\n", rest[i]) >= 0 {
			i++
			continue
		}
		if !strings.HasPrefix(rest[i:], "/*") {
			break
		}
		end := strings.Index(rest[i+2:], "*/")
		if end < 0 {
			break
		}
		i += 2 + end + 2
	}
	return marker, rest[:i], rest[i:]
}

func isNameByte(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
