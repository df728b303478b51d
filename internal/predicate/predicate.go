// Package predicate implements the predicate resolver (C5): turning a
// registered PredicateDecl, or a bare predicate name referenced from a
// transform/pipeline, into a runtime Predicate the connector compiler
// can attach to a transform.
package predicate

import (
	"fmt"
	"strings"

	"github.com/lewisthorpe1994/pipeline-foundry/internal/catalog"
)

// Kind discriminates the built-in Kafka Connect predicate classes this
// dialect recognizes by name; anything else falls back to Custom,
// carrying the declared class verbatim.
type Kind int

const (
	TopicNameMatches Kind = iota
	RecordIsTombstone
	HasHeaderKey
	Custom
)

var builtinClasses = map[string]Kind{
	"org.apache.kafka.connect.transforms.predicates.TopicNameMatches":  TopicNameMatches,
	"org.apache.kafka.connect.transforms.predicates.RecordIsTombstone": RecordIsTombstone,
	"org.apache.kafka.connect.transforms.predicates.HasHeaderKey":      HasHeaderKey,
}

// Predicate is the resolved, attachable form of a PredicateDecl.
type Predicate struct {
	Name      string
	Kind      Kind
	ClassName string // always set, even for builtins, for serialization
	Pattern   string
	HasPattern bool
	Negate    bool
}

// Resolve looks up name in the catalog and classifies it.
func Resolve(store *catalog.Store, name string, negate bool) (Predicate, error) {
	decl, err := store.GetSMTPredicate(name)
	if err != nil {
		return Predicate{}, fmt.Errorf("resolve predicate %q: %w", name, err)
	}

	kind := Custom
	if k, ok := builtinClasses[decl.ClassName]; ok {
		kind = k
	}

	return Predicate{
		Name:       decl.Name,
		Kind:       kind,
		ClassName:  decl.ClassName,
		Pattern:    decl.Pattern,
		HasPattern: decl.HasPattern,
		Negate:     negate,
	}, nil
}

// ResolveRef resolves a catalog.PredicateRef (the form attached to a
// single transform).
func ResolveRef(store *catalog.Store, ref *catalog.PredicateRef) (*Predicate, error) {
	if ref == nil {
		return nil, nil
	}
	p, err := Resolve(store, ref.Name, ref.Negate)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ResolvePipelineWide resolves the bare predicate-name string a pipeline
// declares (§13 open-question decision 4: treated as a name reference
// with negate defaulting to false — the dialect gives a pipeline no
// syntax to negate its own wide predicate).
func ResolvePipelineWide(store *catalog.Store, name string) (*Predicate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	return ResolveRef(store, &catalog.PredicateRef{Name: name, Negate: false})
}
