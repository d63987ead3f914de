package lexer

// Cursor is a position in a token slice. It is a small value: copying it
// saves a position, and passing a *Cursor lets a callee advance the caller's
// position.
//
// The zero Cursor and a Cursor that has run off the end both yield an EOF
// token forever.
type Cursor struct {
	toks []Token
	pos  int
}

// NewCursor returns a cursor at the first token of toks.
func NewCursor(toks []Token) Cursor {
	return Cursor{toks: toks}
}

// Pos returns the index of the next token.
func (c Cursor) Pos() int { return c.pos }

// Done reports whether the cursor is at the end of the stream.
func (c Cursor) Done() bool { return c.Peek().Category == EOF }

// Peek returns the next token without consuming it.
func (c Cursor) Peek() Token {
	if c.pos >= len(c.toks) {
		return c.eof()
	}
	return c.toks[c.pos]
}

// Next consumes and returns the next token. The cursor never moves past an
// EOF token.
func (c *Cursor) Next() Token {
	tok := c.Peek()
	if tok.Category != EOF {
		c.pos++
	}
	return tok
}

// PeekSkipWhitespace returns the first token that is neither Whitespace nor
// a comment, without consuming anything. Newline tokens are not skipped.
func (c Cursor) PeekSkipWhitespace() Token {
	for {
		tok := c.Next()
		if tok.Category != Whitespace && !tok.Category.IsComment() {
			return tok
		}
	}
}

func (c Cursor) eof() Token {
	if n := len(c.toks); n > 0 && c.toks[n-1].Category == EOF {
		return c.toks[n-1]
	}
	return Token{Category: EOF}
}
