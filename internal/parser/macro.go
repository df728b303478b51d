package parser

import (
	"strings"

	"github.com/lewisthorpe1994/pipeline-foundry/internal/lexer"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/sqlast"
)

// CollectMacroCalls walks a token span belonging to a single query and
// extracts every ref()/source() call found in a table position (FROM,
// JOIN, or a parenthesized join/derived-table at the same nesting
// level) while skipping calls that appear in scalar positions (the
// select list, WHERE, ON, HAVING, GROUP BY, ORDER BY).
//
// It operates on the token stream rather than a full relational AST:
// the dialect only needs the flat, ordered list of calls (§4.2), not a
// complete SQL grammar, and no general-purpose SQL parsing library is
// available to this project's dependency set.
func CollectMacroCalls(toks []lexer.Token, lx *lexer.Lexer) ([]sqlast.MacroFnCall, error) {
	var calls []sqlast.MacroFnCall

	depth := 0
	tableCtx := []bool{false}

	isKw := func(t lexer.Token, kw string) bool {
		return t.Kind == lexer.TokIdent && strings.EqualFold(t.Text, kw)
	}

	i := 0
	for i < len(toks) {
		t := toks[i]

		switch {
		case t.Kind == lexer.TokEOF:
			i++

		case isKw(t, "FROM") || isKw(t, "JOIN"):
			tableCtx[depth] = true
			i++

		case isKw(t, "SELECT") || isKw(t, "WHERE") || isKw(t, "ON") ||
			isKw(t, "HAVING") || isKw(t, "GROUP") || isKw(t, "ORDER") ||
			isKw(t, "QUALIFY") || isKw(t, "WINDOW"):
			tableCtx[depth] = false
			i++

		case t.Kind == lexer.TokIdent && (strings.EqualFold(t.Text, "ref") || strings.EqualFold(t.Text, "source")) &&
			i+1 < len(toks) && toks[i+1].Kind == lexer.TokPunct && toks[i+1].Text == "(":
			call, next, err := parseMacroCallAt(toks, i, lx)
			if err != nil {
				return nil, err
			}
			if tableCtx[depth] {
				calls = append(calls, call)
			}
			i = next

		case t.Kind == lexer.TokPunct && t.Text == "(":
			depth++
			if depth < len(tableCtx) {
				tableCtx[depth] = false
			} else {
				tableCtx = append(tableCtx, false)
			}
			i++

		case t.Kind == lexer.TokPunct && t.Text == ")":
			if depth > 0 {
				tableCtx = tableCtx[:depth]
				depth--
			}
			i++

		default:
			i++
		}
	}

	return calls, nil
}

// parseMacroCallAt parses a ref(...)/source(...) call starting at
// toks[i] (the function-name identifier) and returns the call plus the
// index of the token following the closing paren.
func parseMacroCallAt(toks []lexer.Token, i int, lx *lexer.Lexer) (sqlast.MacroFnCall, int, error) {
	nameTok := toks[i]
	kind := sqlast.MacroRef
	if strings.EqualFold(nameTok.Text, "source") {
		kind = sqlast.MacroSource
	}

	j := i + 1 // the '('
	j++        // first arg

	var args [2]string
	for argIdx := 0; argIdx < 2; argIdx++ {
		if j >= len(toks) {
			return sqlast.MacroFnCall{}, i + 1, &ParserError{Message: "truncated macro call"}
		}
		argTok := toks[j]
		args[argIdx] = sqlast.Value{Raw: argTok.Text}.FormattedString()
		j++
		if argIdx == 0 {
			if j < len(toks) && toks[j].Kind == lexer.TokPunct && toks[j].Text == "," {
				j++
			}
		}
	}
	if j >= len(toks) || !(toks[j].Kind == lexer.TokPunct && toks[j].Text == ")") {
		return sqlast.MacroFnCall{}, i + 1, &ParserError{Message: "macro call missing closing paren"}
	}
	closeTok := toks[j]
	j++

	callDef := lx.Source(nameTok.Start, closeTok.End)

	return sqlast.MacroFnCall{Kind: kind, Args: args, CallDef: callDef}, j, nil
}
