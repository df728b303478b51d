package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisthorpe1994/pipeline-foundry/internal/lexer"
)

func tokens(t *testing.T, src string) []lexer.Token {
	t.Helper()
	l := lexer.New(src)
	var out []lexer.Token
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		if tok.Kind == lexer.TokEOF {
			return out
		}
		out = append(out, tok)
	}
}

func TestNext_IdentsAndPunct(t *testing.T) {
	toks := tokens(t, "CREATE MODEL analytics.orders")
	require.Len(t, toks, 5)
	assert.Equal(t, lexer.TokIdent, toks[0].Kind)
	assert.Equal(t, "CREATE", toks[0].Text)
	assert.Equal(t, lexer.TokPunct, toks[3].Kind)
	assert.Equal(t, ".", toks[3].Text)
}

func TestNext_QuotedStringAndIdent(t *testing.T) {
	toks := tokens(t, `'hello' "Weird Name"`)
	require.Len(t, toks, 2)
	assert.Equal(t, lexer.TokString, toks[0].Kind)
	assert.Equal(t, "'hello'", toks[0].Text)
	assert.Equal(t, lexer.TokQuotedIdent, toks[1].Kind)
	assert.Equal(t, `"Weird Name"`, toks[1].Text)
}

func TestNext_EscapedQuoteInString(t *testing.T) {
	toks := tokens(t, `'it''s fine'`)
	require.Len(t, toks, 1)
	assert.Equal(t, "'it''s fine'", toks[0].Text)
}

func TestNext_UnterminatedStringErrors(t *testing.T) {
	l := lexer.New(`'unterminated`)
	_, err := l.Next()
	require.Error(t, err)
	var lexErr *lexer.LexError
	require.ErrorAs(t, err, &lexErr)
}

func TestNext_MultiCharPunct(t *testing.T) {
	toks := tokens(t, "a <= b <> c :: int")
	var puncts []string
	for _, tok := range toks {
		if tok.Kind == lexer.TokPunct {
			puncts = append(puncts, tok.Text)
		}
	}
	assert.Equal(t, []string{"<=", "<>", "::"}, puncts)
}

func TestNext_SkipsLineAndBlockComments(t *testing.T) {
	toks := tokens(t, "select 1 -- trailing comment\n/* block\ncomment */, 2")
	var texts []string
	for _, tok := range toks {
		texts = append(texts, tok.Text)
	}
	assert.Equal(t, []string{"select", "1", ",", "2"}, texts)
}

func TestSource_RecoversExactSubstring(t *testing.T) {
	src := "ref('analytics','orders')"
	l := lexer.New(src)
	var first, last lexer.Token
	for i := 0; ; i++ {
		tok, err := l.Next()
		require.NoError(t, err)
		if tok.Kind == lexer.TokEOF {
			break
		}
		if i == 0 {
			first = tok
		}
		last = tok
	}
	assert.Equal(t, src, l.Source(first.Start, last.End))
}

func TestNext_NumberToken(t *testing.T) {
	toks := tokens(t, "3.14 42")
	require.Len(t, toks, 2)
	assert.Equal(t, lexer.TokNumber, toks[0].Kind)
	assert.Equal(t, "3.14", toks[0].Text)
	assert.Equal(t, "42", toks[1].Text)
}
