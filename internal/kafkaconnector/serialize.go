package kafkaconnector

import (
	"fmt"

	"github.com/lewisthorpe1994/pipeline-foundry/internal/predicate"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/version"
	"github.com/tidwall/sjson"
)

// TypedConnectorConfig is the final compiled output: a flat set of
// Kafka Connect worker keys ready for submission to a connect cluster,
// held as a JSON document; the typed struct it was derived from is not
// kept.
type TypedConnectorConfig struct {
	JSON string
}

// serializeCommon writes the shared worker-level settings into doc at
// its root, filtering by v.
func serializeCommon(doc string, v version.Version, c CommonFields) (string, error) {
	fields, err := version.ToVersionedMap(v, c)
	if err != nil {
		return "", fmt.Errorf("serialize common fields: %w", err)
	}
	return setFlat(doc, fields)
}

// serializeStruct writes every compat-accepted field of value into doc
// at its root.
func serializeStruct(doc string, v version.Version, value any) (string, error) {
	fields, err := version.ToVersionedMap(v, value)
	if err != nil {
		return "", fmt.Errorf("serialize connector fields: %w", err)
	}
	return setFlat(doc, fields)
}

func setFlat(doc string, fields map[string]string) (string, error) {
	for k, val := range fields {
		next, err := sjson.Set(doc, k, val)
		if err != nil {
			return "", fmt.Errorf("set %q: %w", k, err)
		}
		doc = next
	}
	return doc, nil
}

// transformPlacement is one named step in the connector's
// "transforms" chain, with its ordering preserved by the caller.
type transformPlacement struct {
	Name      string
	Config    map[string]string
	Predicate *predicate.Predicate
}

// serializeTransforms writes the Kafka Connect flattened
// "transforms"/"transforms.<name>.*"/"predicates.<name>.*" key family,
// the one part of a connector config Kafka Connect itself expects as
// dotted flat keys rather than nested JSON, which is why this uses
// sjson directly instead of struct tags: there is no fixed Go
// struct shape for "however many named transforms this pipeline has".
func serializeTransforms(doc string, placements []transformPlacement) (string, error) {
	if len(placements) == 0 {
		return doc, nil
	}

	names := make([]string, len(placements))
	for i, p := range placements {
		names[i] = p.Name
	}
	doc, err := sjson.Set(doc, "transforms", joinComma(names))
	if err != nil {
		return "", fmt.Errorf("set transforms chain: %w", err)
	}

	seenPredicates := map[string]bool{}
	for _, p := range placements {
		for k, v := range p.Config {
			doc, err = sjson.Set(doc, "transforms."+p.Name+"."+k, v)
			if err != nil {
				return "", fmt.Errorf("set transform %q key %q: %w", p.Name, k, err)
			}
		}
		if p.Predicate == nil {
			continue
		}
		doc, err = sjson.Set(doc, "transforms."+p.Name+".predicate", p.Predicate.Name)
		if err != nil {
			return "", fmt.Errorf("set transform %q predicate: %w", p.Name, err)
		}
		if p.Predicate.Negate {
			doc, err = sjson.Set(doc, "transforms."+p.Name+".negate", "true")
			if err != nil {
				return "", fmt.Errorf("set transform %q negate: %w", p.Name, err)
			}
		}
		if seenPredicates[p.Predicate.Name] {
			continue
		}
		seenPredicates[p.Predicate.Name] = true
		doc, err = sjson.Set(doc, "predicates."+p.Predicate.Name+".type", p.Predicate.ClassName)
		if err != nil {
			return "", fmt.Errorf("set predicate %q type: %w", p.Predicate.Name, err)
		}
		if p.Predicate.HasPattern {
			doc, err = sjson.Set(doc, "predicates."+p.Predicate.Name+".pattern", p.Predicate.Pattern)
			if err != nil {
				return "", fmt.Errorf("set predicate %q pattern: %w", p.Predicate.Name, err)
			}
		}
	}

	if len(seenPredicates) > 0 {
		names := make([]string, 0, len(seenPredicates))
		for n := range seenPredicates {
			names = append(names, n)
		}
		doc, err = sjson.Set(doc, "predicates", joinComma(names))
		if err != nil {
			return "", fmt.Errorf("set predicates chain: %w", err)
		}
	}

	return doc, nil
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}
