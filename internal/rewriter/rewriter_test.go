package rewriter

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whit3rabbit/bleachcode/internal/alias"
	"github.com/whit3rabbit/bleachcode/internal/lexer"
)

// bleach rewrites src with the visible alphabet so results are readable.
func bleach(t *testing.T, src string, keepPunct bool, opts Options) (string, *alias.Table) {
	t.Helper()
	toks, err := lexer.Tokenize(src, lexer.Options{KeepPunctuation: keepPunct})
	require.NoError(t, err)
	tab := alias.NewTable(alias.Visible)
	cur := lexer.NewCursor(toks)
	body := New(tab, opts).Rewrite(&cur)
	assert.True(t, cur.Done(), "rewrite must consume the whole stream")
	return body, tab
}

func originals(tab *alias.Table) []string {
	var out []string
	for _, p := range tab.Pairs() {
		out = append(out, p.Original)
	}
	return out
}

func TestPlainDeclaration(t *testing.T) {
	body, tab := bleach(t, "int x = 5;", true, Options{})
	assert.Equal(t, "bleached_a bleached_b = bleached_c;", body)
	assert.Equal(t, []string{"int", "x", "5"}, originals(tab))
}

func TestOperatorsAreAliased(t *testing.T) {
	body, tab := bleach(t, "int x = 5;", false, Options{})
	assert.Equal(t, "bleached_a bleached_b bleached_c bleached_d bleached_ba", body)
	assert.Equal(t, []string{"int", "x", "=", "5", ";"}, originals(tab))
}

func TestSeparatorBetweenAdjacentAliases(t *testing.T) {
	body, _ := bleach(t, "a+b", false, Options{})
	assert.Equal(t, "bleached_a bleached_b bleached_c", body)
}

func TestCallFusion(t *testing.T) {
	body, tab := bleach(t, "foo(bar, baz)", false, Options{})

	require.Equal(t, 3, tab.Len())
	assert.Equal(t, "bleached_c", body, "the whole call must become one alias")
	assert.Equal(t, []alias.Pair{
		{Alias: "bleached_a", Original: "bar"},
		{Alias: "bleached_b", Original: "baz"},
		{Alias: "bleached_c", Original: "foo( bleached_a, bleached_b)"},
	}, tab.Pairs())
}

func TestNestedCalls(t *testing.T) {
	body, tab := bleach(t, "a(b(c))", false, Options{})
	assert.Equal(t, "bleached_c", body)
	assert.Equal(t, []string{"c", "b( bleached_a)", "a( bleached_b)"}, originals(tab))
}

func TestCallWithBlanksBeforeParen(t *testing.T) {
	_, tab := bleach(t, "f \t(a)", false, Options{})
	assert.Equal(t, []string{"a", "f ( bleached_a)"}, originals(tab))
}

func TestCallSpanningLines(t *testing.T) {
	body, tab := bleach(t, "f(a,\n  b)\nc", false, Options{})
	assert.Equal(t, "bleached_c\nbleached_d", body)
	assert.Equal(t, "f( bleached_a,  bleached_b)", originals(tab)[2])
}

func TestCommentBeforeParenIsFused(t *testing.T) {
	body, tab := bleach(t, "#define f(x) x\nint y = f /* c */ (1);", true, Options{})
	assert.Equal(t, "#define f( bleached_a) bleached_a\nbleached_b bleached_c = bleached_e;", body)
	assert.Equal(t, []string{"x", "int", "y", "1", "f  ( bleached_d)"}, originals(tab))

	_, tab = bleach(t, "f // c\n(a)", false, Options{})
	assert.Equal(t, []string{"f", "(", "a", ")"}, originals(tab), "a line comment still ends at a newline")
}

func TestNewlineBeforeParenIsNotFused(t *testing.T) {
	body, tab := bleach(t, "f\n(a)", false, Options{})
	assert.Equal(t, "bleached_a\nbleached_b bleached_c bleached_d", body)
	assert.Equal(t, []string{"f", "(", "a", ")"}, originals(tab))
}

func TestKeywordsAreNotFused(t *testing.T) {
	_, tab := bleach(t, "if (x) return;", true, Options{})
	assert.Equal(t, []string{"if", "(", "x", ")", "return"}, originals(tab))
}

func TestUnterminatedCallStopsAtEOF(t *testing.T) {
	body, tab := bleach(t, "f(a", false, Options{})
	assert.Equal(t, "bleached_b", body)
	assert.Equal(t, []string{"a", "f( bleached_a"}, originals(tab))
}

func TestDefineNameIsLiteral(t *testing.T) {
	body, tab := bleach(t, "#define FOO 1\nint y = FOO;\n", true, Options{})
	assert.Equal(t, "#define FOO bleached_a\nbleached_b bleached_c = bleached_d;\n", body)
	assert.Equal(t, []string{"1", "int", "y", "FOO"}, originals(tab))
}

func TestFunctionLikeDefineKeepsSignature(t *testing.T) {
	body, tab := bleach(t, "#define SQ(x) x*x\n", true, Options{})
	assert.Equal(t, "#define SQ( bleached_a) bleached_a* bleached_a\n", body)
	assert.Equal(t, []string{"x"}, originals(tab))
}

func TestObjectLikeDefineWithParens(t *testing.T) {
	body, _ := bleach(t, "#define F (1)\n", false, Options{})
	assert.Equal(t, "#define F ( bleached_a)\n", body)
}

func TestExemptDirectives(t *testing.T) {
	src := "#ifdef FOO\n#undef FOO\n#endif\n"
	body, tab := bleach(t, src, false, Options{ExemptDirectives: []string{"ifdef", "undef"}})
	assert.Equal(t, src, body)
	assert.Equal(t, 0, tab.Len())

	body, _ = bleach(t, src, false, Options{})
	assert.Equal(t, "#ifdef bleached_a\n#undef bleached_a\n#endif\n", body)
}

func TestCommentsAreErased(t *testing.T) {
	src := "a /* secret */ b // hidden\nc/**/d"
	body, tab := bleach(t, src, false, Options{})
	assert.Equal(t, "bleached_a  bleached_b \nbleached_c bleached_d", body)
	for _, p := range tab.Pairs() {
		assert.NotContains(t, p.Original, "secret")
		assert.NotContains(t, p.Original, "hidden")
	}
	assert.NotContains(t, body, "secret")
	assert.NotContains(t, body, "hidden")
}

func TestCommentBeforeDirectiveName(t *testing.T) {
	body, tab := bleach(t, "#/**/define FOO 1\n# /* x */ undef FOO\n", false, Options{ExemptDirectives: []string{"undef"}})
	assert.Equal(t, "# define FOO bleached_a\n#   undef FOO\n", body)
	assert.Equal(t, []string{"1"}, originals(tab))
}

func TestCommentInsideCallIsErased(t *testing.T) {
	_, tab := bleach(t, "f(a /* why */, b)", false, Options{})
	assert.Equal(t, "f( bleached_a , bleached_b)", originals(tab)[2])
}

func TestPreserve(t *testing.T) {
	body, tab := bleach(t, "int main(void) { return __builtin_expect(x, 0); }", true, Options{
		Preserve:         []string{"main"},
		PreservePrefixes: []string{"__builtin_"},
	})
	assert.Equal(t,
		"bleached_a main( bleached_b) { bleached_c __builtin_expect( bleached_d, bleached_ba); }",
		body)
	assert.Equal(t, []string{"int", "void", "return", "x", "0"}, originals(tab))
}

func TestDirectivesPassThrough(t *testing.T) {
	body, tab := bleach(t, "#include <stdio.h>\n#pragma once\n", false, Options{})
	assert.Equal(t, "#include <stdio.h>\n#pragma once\n", body)
	assert.Equal(t, 0, tab.Len())
}

func TestSameTextSameAlias(t *testing.T) {
	_, tab := bleach(t, "x = x + f(x) + f(x);", false, Options{})
	assert.Equal(t, []string{"x", "=", "+", "f( bleached_a)", ";"}, originals(tab))
}

func TestDeterministic(t *testing.T) {
	src := "int main(int argc, char **argv) { return printf(\"%d\", argc); }"
	first, _ := bleach(t, src, false, Options{})
	second, _ := bleach(t, src, false, Options{})
	assert.Equal(t, first, second)
}

func TestDebugLogging(t *testing.T) {
	var buf bytes.Buffer
	bleach(t, "a", false, Options{Debug: true, Logger: log.New(&buf, "", 0)})
	assert.Contains(t, buf.String(), `rewrite: call=false 1:1 Identifier "a"`)
	assert.Contains(t, buf.String(), "EOF")
}

func TestDirectiveName(t *testing.T) {
	assert.Equal(t, "ifdef", directiveName("#ifdef"))
	assert.Equal(t, "ifdef", directiveName("#  ifdef"))
	assert.Equal(t, "ifndef", directiveName("%:ifndef"))
	assert.Equal(t, "define", directiveName("# /* c */ define"))
	assert.Equal(t, "", directiveName("#"))
}

const roundTripSource = `#include <stdio.h>
#define MAX(a, b) ((a) > (b) ? (a) : (b))
#define LIMIT 3

static int counter = 0;

int add(int x, int y) { return x + y; }

int main(void) {
	int values[LIMIT] = {1, 2, 3};
	for (int i = 0; i < LIMIT; i++) {
		counter += add(values[i], MAX(i, 2));
	}
	printf("%d\n", counter);
	return counter > 0 ? 0 : 1;
}
`

// expand substitutes aliases in text with their definitions, recursively,
// and returns the resulting token texts without blanks.
func expand(t *testing.T, tab *alias.Table, text string) []string {
	t.Helper()
	toks, err := lexer.Tokenize(text, lexer.Options{})
	require.NoError(t, err)
	var out []string
	for _, tok := range toks {
		switch tok.Category {
		case lexer.Whitespace, lexer.Newline, lexer.EOF:
			continue
		}
		if original, ok := tab.Original(tok.Text); ok && tok.Category == lexer.Identifier {
			out = append(out, expand(t, tab, original)...)
			continue
		}
		out = append(out, tok.Text)
	}
	return out
}

func significant(t *testing.T, src string) []string {
	t.Helper()
	toks, err := lexer.Tokenize(src, lexer.Options{})
	require.NoError(t, err)
	var out []string
	for _, tok := range toks {
		switch tok.Category {
		case lexer.Whitespace, lexer.Newline, lexer.EOF, lexer.LineComment, lexer.BlockComment:
			continue
		}
		out = append(out, tok.Text)
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	for _, keep := range []bool{false, true} {
		body, tab := bleach(t, roundTripSource, keep, Options{})
		if diff := cmp.Diff(significant(t, roundTripSource), expand(t, tab, body)); diff != "" {
			t.Errorf("keepPunctuation=%t: expanded output differs (-want +got):\n%s", keep, diff)
		}
	}
}

func TestRoundTripKeepsLineStructure(t *testing.T) {
	body, _ := bleach(t, roundTripSource, false, Options{})
	assert.Equal(t, strings.Count(roundTripSource, "\n"), strings.Count(body, "\n"))
}
