// Package alias generates the invisible names that replace source tokens and
// keeps the table mapping each alias back to the text it stands for.
package alias

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/whit3rabbit/bleachcode/internal/config"
)

// Radix is the number of symbols in an alphabet.
const Radix = 4

// Alphabet spells alias numbers as positional base-4 numerals over four
// symbols. Every nonnegative integer maps to exactly one string, and no
// string other than the zero symbol itself starts with the zero symbol.
type Alphabet struct {
	symbols [Radix]string
	prefix  string
}

var (
	// Invisible uses zero-width code points, accepted in identifiers by GCC
	// and Clang.
	Invisible = Alphabet{symbols: [Radix]string{"\u200b", "\u200c", "\u200d", "\ufeff"}}

	// Visible is a readable alphabet for inspecting output.
	Visible = Alphabet{symbols: [Radix]string{"a", "b", "c", "d"}, prefix: "bleached_"}
)

// NewAlphabet validates symbols and prefix and returns the alphabet they
// describe.
func NewAlphabet(symbols []string, prefix string) (Alphabet, error) {
	var a Alphabet
	if len(symbols) != Radix {
		return a, fmt.Errorf("alphabet needs exactly %d symbols, got %d", Radix, len(symbols))
	}
	seen := make(map[string]bool, Radix)
	for i, s := range symbols {
		if utf8.RuneCountInString(s) != 1 {
			return a, fmt.Errorf("alphabet symbol %d (%q) must be a single character", i, s)
		}
		r, _ := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError || unicode.IsSpace(r) || unicode.IsControl(r) {
			return a, fmt.Errorf("alphabet symbol %d (%q) cannot appear in a macro name", i, s)
		}
		if r < utf8.RuneSelf && !isIdentByte(byte(r)) {
			return a, fmt.Errorf("alphabet symbol %d (%q) cannot appear in a macro name", i, s)
		}
		if seen[s] {
			return a, fmt.Errorf("alphabet symbol %q is repeated", s)
		}
		seen[s] = true
		a.symbols[i] = s
	}
	for i := 0; i < len(prefix); i++ {
		if !isIdentByte(prefix[i]) || (i == 0 && '0' <= prefix[i] && prefix[i] <= '9') {
			return a, fmt.Errorf("alias prefix %q is not an identifier", prefix)
		}
	}
	if prefix == "" && startsWithDigit(a.symbols[:]) {
		return a, fmt.Errorf("aliases would start with a digit; set an alias prefix")
	}
	a.prefix = prefix
	return a, nil
}

// FromConfig returns the alphabet selected by cfg.
func FromConfig(cfg config.AliasConfig) (Alphabet, error) {
	switch strings.ToLower(cfg.Alphabet) {
	case "", config.AlphabetInvisible:
		if cfg.Prefix != "" {
			return NewAlphabet(Invisible.Symbols(), cfg.Prefix)
		}
		return Invisible, nil
	case config.AlphabetVisible:
		if cfg.Prefix != "" {
			return NewAlphabet(Visible.Symbols(), cfg.Prefix)
		}
		return Visible, nil
	case config.AlphabetCustom:
		return NewAlphabet(cfg.Symbols, cfg.Prefix)
	}
	return Alphabet{}, fmt.Errorf("unknown alphabet %q", cfg.Alphabet)
}

// Symbols returns the four digit symbols, zero first.
func (a Alphabet) Symbols() []string {
	return append([]string(nil), a.symbols[:]...)
}

// Prefix returns the text placed before every alias.
func (a Alphabet) Prefix() string { return a.prefix }

// Encode returns the alias for n. Encode panics if n is negative.
func (a Alphabet) Encode(n int) string {
	if n < 0 {
		panic(fmt.Sprintf("alias: negative id %d", n))
	}
	if n == 0 {
		return a.prefix + a.symbols[0]
	}
	var digits []string
	for rem := n; rem != 0; rem /= Radix {
		digits = append(digits, a.symbols[rem%Radix])
	}
	var sb strings.Builder
	sb.WriteString(a.prefix)
	for i := len(digits) - 1; i >= 0; i-- {
		sb.WriteString(digits[i])
	}
	return sb.String()
}

// Decode is the inverse of Encode. It reports false for strings Encode
// never produces.
func (a Alphabet) Decode(s string) (int, bool) {
	if !strings.HasPrefix(s, a.prefix) {
		return 0, false
	}
	s = s[len(a.prefix):]
	if s == "" {
		return 0, false
	}
	n, first := 0, true
	for len(s) > 0 {
		d := a.digit(s)
		if d < 0 {
			return 0, false
		}
		if d == 0 && first && len(s) > len(a.symbols[0]) {
			return 0, false // leading zero
		}
		if n > (math.MaxInt-d)/Radix {
			return 0, false
		}
		n = n*Radix + d
		s = s[len(a.symbols[d]):]
		first = false
	}
	return n, true
}

func (a Alphabet) digit(s string) int {
	for d, sym := range a.symbols {
		if strings.HasPrefix(s, sym) {
			return d
		}
	}
	return -1
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func startsWithDigit(symbols []string) bool {
	for _, s := range symbols {
		if s != "" && '0' <= s[0] && s[0] <= '9' {
			return true
		}
	}
	return false
}
