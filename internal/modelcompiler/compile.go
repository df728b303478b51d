// Package modelcompiler implements the model SQL compiler (C7):
// rewriting a registered model's macro calls into qualified table
// names and wrapping the result in a drop-then-create pair.
package modelcompiler

import (
	"fmt"
	"strings"

	"github.com/lewisthorpe1994/pipeline-foundry/internal/catalog"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/sqlast"
)

// SourceResolver maps a source() call's (name, table) pair to the
// fully-qualified "database.schema.table" the compiled SQL should
// reference. WarehouseSourceResolver backs this by the catalog's
// registered warehouse sources.
type SourceResolver func(sourceName, sourceTable string) (string, error)

// Compile rewrites decl's query text, substituting every captured
// macro call, then wraps it in the drop-then-create pair this
// dialect's CREATE MODEL statement always expands to.
func Compile(store *catalog.Store, decl catalog.ModelDecl, resolveSource SourceResolver) (string, error) {
	rewritten, err := rewriteQuery(store, decl, resolveSource)
	if err != nil {
		return "", fmt.Errorf("compile model %q: %w", decl.Name, err)
	}

	qualified := decl.Schema + "." + decl.Table
	materializeKind := decl.Materialize.SQL()

	var b strings.Builder
	fmt.Fprintf(&b, "DROP %s IF EXISTS %s CASCADE;\n", materializeKind, qualified)
	fmt.Fprintf(&b, "CREATE %s %s AS %s", materializeKind, qualified, rewritten)
	return b.String(), nil
}

// rewriteQuery substitutes each MacroFnCall's original CallDef
// substring with its resolved replacement, left to right. Calls are
// captured with exact rune offsets at parse time, so substitution is a
// straight string replace of that recorded substring; it's safe only
// because the parser's macro-call collector records the full original
// call text, not an approximation of it.
func rewriteQuery(store *catalog.Store, decl catalog.ModelDecl, resolveSource SourceResolver) (string, error) {
	text := decl.AST.Query.Text
	for _, call := range decl.AST.Query.MacroCalls {
		replacement, err := resolveCall(store, call, resolveSource)
		if err != nil {
			return "", err
		}
		text = strings.Replace(text, call.CallDef, replacement, 1)
	}
	return text, nil
}

func resolveCall(store *catalog.Store, call sqlast.MacroFnCall, resolveSource SourceResolver) (string, error) {
	switch call.Kind {
	case sqlast.MacroRef:
		schema, table := call.Args[0], call.Args[1]
		name := catalog.DeriveModelName(schema, table)
		if model, err := store.GetModel(name); err == nil {
			return model.Schema + "." + model.Table, nil
		}
		return schema + "." + table, nil
	case sqlast.MacroSource:
		if resolveSource == nil {
			return "", fmt.Errorf("source(%q, %q): no source resolver configured", call.Args[0], call.Args[1])
		}
		return resolveSource(call.Args[0], call.Args[1])
	default:
		return "", fmt.Errorf("unknown macro call kind %v", call.Kind)
	}
}

// WarehouseSourceResolver adapts the catalog's registered warehouse
// sources to a SourceResolver.
func WarehouseSourceResolver(store *catalog.Store) SourceResolver {
	return func(sourceName, sourceTable string) (string, error) {
		w, err := store.ResolveWarehouseSource(catalog.SourceRef{SourceName: sourceName, SourceTable: sourceTable})
		if err != nil {
			return "", err
		}
		return w.QualifiedName(), nil
	}
}
