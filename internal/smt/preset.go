// Package smt implements the SMT preset & config resolver (C4):
// expanding a transform declaration against a named preset (builtin or
// catalog-defined) plus per-step overrides into an effective
// map[string]string configuration.
package smt

import (
	"fmt"

	"github.com/lewisthorpe1994/pipeline-foundry/internal/catalog"
)

// ErrMissingType is returned when the final resolved config lacks a
// "type" key.
var ErrMissingType = fmt.Errorf("missing required key %q", "type")

// BuiltinPreset is a recognized Debezium SMT alias with its default keys.
type BuiltinPreset struct {
	Aliases      []string
	DefaultProps map[string]string
}

// builtinPresets mirrors original_source/crates/components/src/kafka/smt.rs's
// SmtPreset::aliases()/builtin_preset_config.
var builtinPresets = []BuiltinPreset{
	{
		Aliases: []string{"debezium.unwrap_default", "debezium.extract_new_record_state"},
		DefaultProps: map[string]string{
			"type":                   "io.debezium.transforms.ExtractNewRecordState",
			"drop.tombstones":        "true",
			"delete.handling.mode":   "rewrite",
		},
	},
	{
		Aliases: []string{"debezium.route_by_field", "debezium.by_logical_table_router"},
		DefaultProps: map[string]string{
			"type": "io.debezium.transforms.ByLogicalTableRouter",
		},
	},
}

func lookupBuiltin(name string) (BuiltinPreset, bool) {
	for _, p := range builtinPresets {
		for _, alias := range p.Aliases {
			if alias == name {
				return p, true
			}
		}
	}
	return BuiltinPreset{}, false
}

// Resolve assembles the effective config map for transform t, applying
// stepArgs last (the per-pipeline-step override, empty outside pipeline
// context).
func Resolve(store *catalog.Store, t catalog.TransformDecl, stepArgs map[string]string) (map[string]string, error) {
	visited := map[string]bool{t.Name: true}

	base := map[string]string{}
	if t.Preset != "" {
		resolved, err := resolvePresetByName(store, t.Preset, visited)
		if err != nil {
			return nil, err
		}
		base = resolved
	}

	merge(base, t.Config)
	merge(base, t.Extend)
	merge(base, stepArgs)

	if _, ok := base["type"]; !ok {
		return nil, ErrMissingType
	}
	return base, nil
}

// resolvePresetByName implements step 2 of §4.4: either recurse into
// another registered transform (cycle-checked) or seed from a builtin
// alias.
func resolvePresetByName(store *catalog.Store, presetName string, visited map[string]bool) (map[string]string, error) {
	if other, err := store.GetKafkaSMT(catalog.KeyByName(presetName)); err == nil {
		if visited[other.Name] {
			return nil, &catalog.DuplicateError{Kind: "preset", Name: presetName, Reason: "preset cycle"}
		}
		visited[other.Name] = true

		base := map[string]string{}
		if other.Preset != "" {
			resolved, err := resolvePresetByName(store, other.Preset, visited)
			if err != nil {
				return nil, err
			}
			base = resolved
		}
		merge(base, other.Config)
		merge(base, other.Extend)
		return base, nil
	} else if !catalog.IsNotFound(err) {
		return nil, err
	}

	if builtin, ok := lookupBuiltin(presetName); ok {
		out := make(map[string]string, len(builtin.DefaultProps))
		merge(out, builtin.DefaultProps)
		return out, nil
	}

	return nil, fmt.Errorf("preset %q: %w", presetName, catalog.ErrNotFound)
}

func merge(dst, src map[string]string) {
	for k, v := range src {
		dst[k] = v
	}
}
