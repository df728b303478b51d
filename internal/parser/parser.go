// Package parser implements the hand-written recursive-descent parser
// for the dialect extensions: CREATE MODEL, CREATE KAFKA CONNECTOR,
// CREATE SIMPLE MESSAGE TRANSFORM [PIPELINE|PREDICATE]. It also
// implements the macro-call collector (ref()/source()) for the query
// text embedded in a model.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lewisthorpe1994/pipeline-foundry/internal/lexer"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/sqlast"
)

// ParserError is a structured parse failure with a precise location.
type ParserError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParserError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

type Parser struct {
	lx   *lexer.Lexer
	toks []lexer.Token
	pos  int
}

// New tokenizes src eagerly (the dialect's statements are short enough
// that streaming offers no benefit, and eager tokenization lets the
// parser backtrack freely).
func New(src string) (*Parser, error) {
	lx := lexer.New(src)
	var toks []lexer.Token
	for {
		t, err := lx.Next()
		if err != nil {
			if le, ok := err.(*lexer.LexError); ok {
				return nil, &ParserError{Line: le.Line, Column: le.Column, Message: le.Message}
			}
			return nil, err
		}
		toks = append(toks, t)
		if t.Kind == lexer.TokEOF {
			break
		}
	}
	return &Parser{lx: lx, toks: toks, pos: 0}, nil
}

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) at(off int) lexer.Token {
	idx := p.pos + off
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) errf(format string, args ...any) error {
	t := p.cur()
	return &ParserError{Line: t.Line, Column: t.Column, Message: fmt.Sprintf(format, args...)}
}

// isKeyword reports whether the current token is an identifier matching
// kw case-insensitively.
func (p *Parser) isKeyword(kw string) bool {
	t := p.cur()
	return t.Kind == lexer.TokIdent && strings.EqualFold(t.Text, kw)
}

func (p *Parser) isKeywordSeq(kws ...string) bool {
	for i, kw := range kws {
		t := p.at(i)
		if t.Kind != lexer.TokIdent || !strings.EqualFold(t.Text, kw) {
			return false
		}
	}
	return true
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.isKeyword(kw) {
		return p.errf("expected keyword %q, got %q", kw, p.cur().Text)
	}
	p.advance()
	return nil
}

func (p *Parser) expectPunct(s string) error {
	t := p.cur()
	if t.Kind != lexer.TokPunct || t.Text != s {
		return p.errf("expected %q, got %q", s, t.Text)
	}
	p.advance()
	return nil
}

func (p *Parser) parseIdent() (sqlast.Ident, error) {
	t := p.cur()
	switch t.Kind {
	case lexer.TokIdent:
		p.advance()
		return sqlast.Ident{Name: t.Text, Quoted: false}, nil
	case lexer.TokQuotedIdent:
		p.advance()
		inner := t.Text
		if len(inner) >= 2 {
			inner = inner[1 : len(inner)-1]
		}
		return sqlast.Ident{Name: inner, Quoted: true}, nil
	default:
		return sqlast.Ident{}, p.errf("expected identifier, got %q", t.Text)
	}
}

func (p *Parser) parseObjectName() (sqlast.ObjectName, error) {
	first, err := p.parseIdent()
	if err != nil {
		return sqlast.ObjectName{}, err
	}
	parts := []sqlast.Ident{first}
	for p.cur().Kind == lexer.TokPunct && p.cur().Text == "." {
		p.advance()
		next, err := p.parseIdent()
		if err != nil {
			return sqlast.ObjectName{}, err
		}
		parts = append(parts, next)
	}
	return sqlast.ObjectName{Parts: parts}, nil
}

func (p *Parser) parseValue() (sqlast.Value, error) {
	t := p.cur()
	switch t.Kind {
	case lexer.TokString, lexer.TokNumber:
		p.advance()
		return sqlast.Value{Raw: t.Text, Pos: sqlast.Pos{Line: t.Line, Column: t.Column}}, nil
	case lexer.TokIdent:
		// bare keyword-like value, e.g. TRUE/FALSE or an unquoted token
		p.advance()
		return sqlast.Value{Raw: t.Text, Pos: sqlast.Pos{Line: t.Line, Column: t.Column}}, nil
	default:
		return sqlast.Value{}, p.errf("expected a value, got %q", t.Text)
	}
}

// ParseStatement parses exactly one top-level statement from the given
// source string (an artifact file). It returns a *ParserError if the
// leading keywords don't match a known production.
func ParseStatement(src string) (sqlast.Statement, error) {
	p, err := New(src)
	if err != nil {
		return nil, err
	}
	return p.parseTopLevel()
}

func (p *Parser) parseTopLevel() (sqlast.Statement, error) {
	if !p.isKeyword("CREATE") {
		return nil, p.errf("expected CREATE, got %q", p.cur().Text)
	}

	switch {
	case p.isKeywordSeq("CREATE", "MODEL"):
		return p.parseCreateModel()
	case p.isKeywordSeq("CREATE", "KAFKA", "SIMPLE", "MESSAGE", "TRANSFORM", "PIPELINE"):
		return p.parseCreateSMTPipeline(5)
	case p.isKeywordSeq("CREATE", "SIMPLE", "MESSAGE", "TRANSFORM", "PIPELINE"):
		return p.parseCreateSMTPipeline(4)
	case p.isKeywordSeq("CREATE", "KAFKA", "SIMPLE", "MESSAGE", "TRANSFORM", "PREDICATE"):
		return p.parseCreateSMTPredicate(5)
	case p.isKeywordSeq("CREATE", "KAFKA", "SIMPLE", "MESSAGE", "TRANSFORM"):
		return p.parseCreateSMT(2)
	case p.isKeywordSeq("CREATE", "SIMPLE", "MESSAGE", "TRANSFORM"):
		return p.parseCreateSMT(1)
	case p.isKeywordSeq("CREATE", "KAFKA"):
		return p.parseCreateKafkaConnector()
	default:
		return nil, p.errf("unrecognized statement starting at %q", p.cur().Text)
	}
}

// parseKVList parses "( "key" = value, ... )" used by WITH/EXTEND clauses.
func (p *Parser) parseKVList() ([]sqlast.KVProperty, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var props []sqlast.KVProperty
	for {
		key, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct("="); err != nil {
			return nil, err
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		props = append(props, sqlast.KVProperty{Key: key.Name, Value: val})
		if p.cur().Kind == lexer.TokPunct && p.cur().Text == "," {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return props, nil
}

func propsMap(props []sqlast.KVProperty) map[string]string {
	m := make(map[string]string, len(props))
	for _, kv := range props {
		m[kv.Key] = kv.Value.FormattedString()
	}
	return m
}

// PropertiesToMap exposes propsMap for callers outside this package.
func PropertiesToMap(props []sqlast.KVProperty) map[string]string { return propsMap(props) }

func (p *Parser) skipKeywords(n int) {
	for i := 0; i < n; i++ {
		p.advance()
	}
}

// --- CREATE MODEL ---

func (p *Parser) parseCreateModel() (*sqlast.CreateModel, error) {
	startTok := p.cur()
	if err := p.expectKeyword("CREATE"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("MODEL"); err != nil {
		return nil, err
	}
	name, err := p.parseObjectName()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("AS"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("DROP"); err != nil {
		return nil, err
	}
	dropKindStart := p.cur()
	dropKind, err := p.parseMaterializeKeyword()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("IF"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("EXISTS"); err != nil {
		return nil, err
	}
	dropName, err := p.parseObjectName()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("CASCADE"); err != nil {
		return nil, err
	}
	if err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("CREATE"); err != nil {
		return nil, err
	}
	createKind, err := p.parseMaterializeKeyword()
	if err != nil {
		return nil, err
	}
	createName, err := p.parseObjectName()
	if err != nil {
		return nil, err
	}
	if createKind != dropKind {
		return nil, &ParserError{Line: dropKindStart.Line, Column: dropKindStart.Column,
			Message: "DROP object type must match CREATE object type"}
	}
	if createName.String() != dropName.String() || createName.String() != name.String() {
		return nil, &ParserError{Line: startTok.Line, Column: startTok.Column,
			Message: "DROP/CREATE target name must equal the model name"}
	}
	if err := p.expectKeyword("AS"); err != nil {
		return nil, err
	}
	queryStart := p.pos
	// consume the remainder of the statement (up to ';' or EOF) as the
	// query text; the trailing SELECT is out of this dialect's grammar.
	for p.cur().Kind != lexer.TokEOF && !(p.cur().Kind == lexer.TokPunct && p.cur().Text == ";") {
		p.advance()
	}
	queryEnd := p.pos
	startOffset := p.toks[queryStart].Start
	endOffset := p.toks[queryEnd-1].End
	queryText := p.lx.Source(startOffset, endOffset)

	calls, err := CollectMacroCalls(p.toks[queryStart:queryEnd], p.lx)
	if err != nil {
		return nil, err
	}

	return &sqlast.CreateModel{
		Name:        name,
		Materialize: createKind,
		Query:       sqlast.Query{Text: queryText, MacroCalls: calls},
		Pos:         sqlast.Pos{Line: startTok.Line, Column: startTok.Column},
	}, nil
}

func (p *Parser) parseMaterializeKeyword() (sqlast.Materialize, error) {
	switch {
	case p.isKeywordSeq("MATERIALIZED", "VIEW"):
		p.skipKeywords(2)
		return sqlast.MaterializeMaterializedView, nil
	case p.isKeyword("VIEW"):
		p.advance()
		return sqlast.MaterializeView, nil
	case p.isKeyword("TABLE"):
		p.advance()
		return sqlast.MaterializeTable, nil
	default:
		return 0, p.errf("expected TABLE, VIEW or MATERIALIZED VIEW, got %q", p.cur().Text)
	}
}

// --- CREATE KAFKA CONNECTOR ---

func (p *Parser) parseCreateKafkaConnector() (*sqlast.CreateKafkaConnector, error) {
	startTok := p.cur()
	p.skipKeywords(2) // CREATE KAFKA

	out := &sqlast.CreateKafkaConnector{Pos: sqlast.Pos{Line: startTok.Line, Column: startTok.Column}}

	// optional "<provider> <db>"
	if provider, ok := sqlast.ParseProvider(p.cur().Text); ok && p.cur().Kind == lexer.TokIdent {
		out.Provider = provider
		p.advance()
		dbIdent, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		out.SupportedDB = strings.ToUpper(dbIdent.Name)
	} else {
		out.Provider = sqlast.ProviderDebezium
	}

	switch {
	case p.isKeyword("SOURCE"):
		out.ConnectorType = sqlast.ConnectorSource
		p.advance()
	case p.isKeyword("SINK"):
		out.ConnectorType = sqlast.ConnectorSink
		p.advance()
	default:
		return nil, p.errf("expected SOURCE or SINK, got %q", p.cur().Text)
	}

	if err := p.expectKeyword("CONNECTOR"); err != nil {
		return nil, err
	}
	if p.isKeywordSeq("IF", "NOT", "EXISTS") {
		out.IfNotExists = true
		p.skipKeywords(3)
	}
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	out.Name = name.Name

	if err := p.expectKeyword("USING"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("KAFKA"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("CLUSTER"); err != nil {
		return nil, err
	}
	clusterIdent, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	out.ClusterIdent = clusterIdent.Name

	props, err := p.parseKVList()
	if err != nil {
		return nil, err
	}
	out.WithProperties = props

	if err := p.expectKeyword("WITH"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("CONNECTOR"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("VERSION"); err != nil {
		return nil, err
	}
	version, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	out.Version = version

	if p.isKeywordSeq("AND", "PIPELINES") {
		p.skipKeywords(2)
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		for {
			pid, err := p.parseIdent()
			if err != nil {
				return nil, err
			}
			out.Pipelines = append(out.Pipelines, pid.Name)
			if p.cur().Kind == lexer.TokPunct && p.cur().Text == "," {
				p.advance()
				continue
			}
			break
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
	}

	switch {
	case p.isKeywordSeq("FROM", "SOURCE", "DATABASE"):
		p.skipKeywords(3)
		adapter, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		out.SourceAdapter = adapter.Name
	case p.isKeywordSeq("INTO", "WAREHOUSE", "DATABASE"):
		p.skipKeywords(3)
		adapter, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		out.WarehouseAdapter = adapter.Name
		if err := p.expectKeyword("USING"); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("SCHEMA"); err != nil {
			return nil, err
		}
		schemaVal, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out.SchemaIdent = schemaVal.FormattedString()
	default:
		return nil, p.errf("expected FROM SOURCE DATABASE or INTO WAREHOUSE DATABASE, got %q", p.cur().Text)
	}

	return out, nil
}

// --- CREATE SIMPLE MESSAGE TRANSFORM ---

func (p *Parser) parseCreateSMT(createKeywords int) (*sqlast.CreateSMT, error) {
	startTok := p.cur()
	p.skipKeywords(createKeywords + 4) // CREATE [KAFKA] SIMPLE MESSAGE TRANSFORM

	out := &sqlast.CreateSMT{Pos: sqlast.Pos{Line: startTok.Line, Column: startTok.Column}}
	if p.isKeywordSeq("IF", "NOT", "EXISTS") {
		out.IfNotExists = true
		p.skipKeywords(3)
	}
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	out.Name = name.Name

	if p.cur().Kind == lexer.TokPunct && p.cur().Text == "(" {
		props, err := p.parseKVList()
		if err != nil {
			return nil, err
		}
		out.Config = props
	}

	if p.isKeyword("PRESET") {
		p.advance()
		preset, err := p.parseObjectNameAsString()
		if err != nil {
			return nil, err
		}
		out.Preset = preset
	}

	if p.isKeyword("EXTEND") {
		p.advance()
		props, err := p.parseKVList()
		if err != nil {
			return nil, err
		}
		out.Extend = props
	}

	if p.isKeywordSeq("WITH", "PREDICATE") {
		p.skipKeywords(2)
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out.Predicate = val.FormattedString()
		if p.isKeyword("NEGATE") {
			p.advance()
			out.Negate = true
		}
	}

	return out, nil
}

func (p *Parser) parseObjectNameAsString() (string, error) {
	on, err := p.parseObjectName()
	if err != nil {
		return "", err
	}
	return on.String(), nil
}

// --- CREATE SIMPLE MESSAGE TRANSFORM PIPELINE ---

func (p *Parser) parseCreateSMTPipeline(createKeywords int) (*sqlast.CreateSMTPipeline, error) {
	startTok := p.cur()
	p.skipKeywords(createKeywords + 5) // CREATE [KAFKA] SIMPLE MESSAGE TRANSFORM PIPELINE

	out := &sqlast.CreateSMTPipeline{Pos: sqlast.Pos{Line: startTok.Line, Column: startTok.Column}}
	if p.isKeywordSeq("IF", "NOT", "EXISTS") {
		out.IfNotExists = true
		p.skipKeywords(3)
	}
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	out.Name = name.Name

	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	for {
		step, err := p.parsePipelineStep()
		if err != nil {
			return nil, err
		}
		out.Steps = append(out.Steps, step)
		if p.cur().Kind == lexer.TokPunct && p.cur().Text == "," {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}

	if p.isKeywordSeq("WITH", "PIPELINE", "PREDICATE") {
		p.skipKeywords(3)
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out.Predicate = val.FormattedString()
	}

	return out, nil
}

func (p *Parser) parsePipelineStep() (sqlast.PipelineStep, error) {
	name, err := p.parseIdent()
	if err != nil {
		return sqlast.PipelineStep{}, err
	}
	step := sqlast.PipelineStep{TransformName: name.Name}

	if p.cur().Kind == lexer.TokPunct && p.cur().Text == "(" {
		p.advance()
		for {
			keyName, err := p.parseObjectName()
			if err != nil {
				return sqlast.PipelineStep{}, err
			}
			keyParts := make([]string, len(keyName.Parts))
			for i, part := range keyName.Parts {
				keyParts[i] = part.Name
			}
			if err := p.expectPunct("="); err != nil {
				return sqlast.PipelineStep{}, err
			}
			val, err := p.parseValue()
			if err != nil {
				return sqlast.PipelineStep{}, err
			}
			step.Args = append(step.Args, sqlast.PipelineStepArg{Key: strings.Join(keyParts, "."), Value: val})
			if p.cur().Kind == lexer.TokPunct && p.cur().Text == "," {
				p.advance()
				continue
			}
			break
		}
		if err := p.expectPunct(")"); err != nil {
			return sqlast.PipelineStep{}, err
		}
	}

	if p.isKeyword("AS") {
		p.advance()
		alias, err := p.parseIdent()
		if err != nil {
			return sqlast.PipelineStep{}, err
		}
		step.Alias = alias.Name
	}

	return step, nil
}

// --- CREATE SIMPLE MESSAGE TRANSFORM PREDICATE ---

func (p *Parser) parseCreateSMTPredicate(createKeywords int) (*sqlast.CreateSMTPredicate, error) {
	startTok := p.cur()
	p.skipKeywords(createKeywords + 5) // CREATE KAFKA SIMPLE MESSAGE TRANSFORM PREDICATE

	out := &sqlast.CreateSMTPredicate{Pos: sqlast.Pos{Line: startTok.Line, Column: startTok.Column}}
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	out.Name = name.Name

	if p.isKeywordSeq("USING", "PATTERN") {
		p.skipKeywords(2)
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out.Pattern = val.FormattedString()
		out.HasPattern = true
	}

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("KIND"); err != nil {
		return nil, err
	}
	class, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	out.ClassName = class.Name

	return out, nil
}

// unused helper retained for numeric literal coercion in config values.
func asInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
