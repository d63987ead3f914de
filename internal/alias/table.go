package alias

import (
	"bufio"
	"fmt"
	"io"
)

// Pair is one alias definition.
type Pair struct {
	Alias    string `yaml:"alias"`
	Original string `yaml:"original"`
}

// Table maps original token text to aliases. The same text always gets the
// same alias and no alias is handed out twice. A Table belongs to a single
// run and is not safe for concurrent use.
type Table struct {
	alphabet Alphabet
	aliases  map[string]string // original -> alias
	origins  map[string]string // alias -> original
	pairs    []Pair            // first-use order
	nextID   int
}

// NewTable returns an empty table that spells aliases with a.
func NewTable(a Alphabet) *Table {
	return &Table{
		alphabet: a,
		aliases:  make(map[string]string),
		origins:  make(map[string]string),
	}
}

// Resolve returns the alias of text, creating one on first use.
func (t *Table) Resolve(text string) string {
	if a, ok := t.aliases[text]; ok {
		return a
	}
	a := t.alphabet.Encode(t.nextID)
	t.nextID++
	t.aliases[text] = a
	t.origins[a] = text
	t.pairs = append(t.pairs, Pair{Alias: a, Original: text})
	return a
}

// Lookup returns the alias of text without creating one.
func (t *Table) Lookup(text string) (string, bool) {
	a, ok := t.aliases[text]
	return a, ok
}

// Original returns the text an alias stands for.
func (t *Table) Original(alias string) (string, bool) {
	o, ok := t.origins[alias]
	return o, ok
}

// Pairs returns the definitions in first-use order.
func (t *Table) Pairs() []Pair {
	return append([]Pair(nil), t.pairs...)
}

// Len returns the number of distinct aliases.
func (t *Table) Len() int { return len(t.pairs) }

// Alphabet returns the alphabet aliases are spelled with.
func (t *Table) Alphabet() Alphabet { return t.alphabet }

// WritePrologue writes one "#define alias original" line per pair, in
// first-use order.
func (t *Table) WritePrologue(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, p := range t.pairs {
		if _, err := fmt.Fprintf(bw, "#define %s %s\n", p.Alias, p.Original); err != nil {
			return err
		}
	}
	return bw.Flush()
}
