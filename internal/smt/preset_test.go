package smt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisthorpe1994/pipeline-foundry/internal/catalog"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/smt"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/sqlast"
)

func val(raw string) sqlast.Value { return sqlast.Value{Raw: raw} }

func TestResolve_BuiltinPreset(t *testing.T) {
	store := catalog.New()
	_, err := store.RegisterKafkaSMT(&sqlast.CreateSMT{
		Name:   "unwrap",
		Preset: "debezium.unwrap_default",
	})
	require.NoError(t, err)

	decl, err := store.GetKafkaSMT(catalog.KeyByName("unwrap"))
	require.NoError(t, err)

	cfg, err := smt.Resolve(store, decl, nil)
	require.NoError(t, err)
	assert.Equal(t, "io.debezium.transforms.ExtractNewRecordState", cfg["type"])
	assert.Equal(t, "true", cfg["drop.tombstones"])
}

func TestResolve_StepArgsOverrideOwnConfig(t *testing.T) {
	store := catalog.New()
	_, err := store.RegisterKafkaSMT(&sqlast.CreateSMT{
		Name: "route",
		Config: []sqlast.KVProperty{
			{Key: "type", Value: val("'io.debezium.transforms.ByLogicalTableRouter'")},
			{Key: "topic.regex", Value: val("'orders_.*'")},
		},
	})
	require.NoError(t, err)
	decl, err := store.GetKafkaSMT(catalog.KeyByName("route"))
	require.NoError(t, err)

	cfg, err := smt.Resolve(store, decl, map[string]string{"topic.regex": "customers_.*"})
	require.NoError(t, err)
	assert.Equal(t, "customers_.*", cfg["topic.regex"])
}

func TestResolve_MissingTypeRejected(t *testing.T) {
	store := catalog.New()
	_, err := store.RegisterKafkaSMT(&sqlast.CreateSMT{Name: "bare"})
	require.NoError(t, err)
	decl, err := store.GetKafkaSMT(catalog.KeyByName("bare"))
	require.NoError(t, err)

	_, err = smt.Resolve(store, decl, nil)
	assert.ErrorIs(t, err, smt.ErrMissingType)
}

func TestResolve_PresetCycleDetected(t *testing.T) {
	store := catalog.New()
	_, err := store.RegisterKafkaSMT(&sqlast.CreateSMT{Name: "a", Preset: "b"})
	require.NoError(t, err)
	_, err = store.RegisterKafkaSMT(&sqlast.CreateSMT{Name: "b", Preset: "a"})
	require.NoError(t, err)

	decl, err := store.GetKafkaSMT(catalog.KeyByName("a"))
	require.NoError(t, err)

	_, err = smt.Resolve(store, decl, nil)
	require.Error(t, err)
	assert.True(t, catalog.IsDuplicate(err))
}

func TestResolve_PresetChainsThroughRegisteredTransform(t *testing.T) {
	store := catalog.New()
	_, err := store.RegisterKafkaSMT(&sqlast.CreateSMT{
		Name:   "base",
		Preset: "debezium.route_by_field",
		Extend: []sqlast.KVProperty{{Key: "topic.regex", Value: val("'orders_.*'")}},
	})
	require.NoError(t, err)
	_, err = store.RegisterKafkaSMT(&sqlast.CreateSMT{
		Name:   "derived",
		Preset: "base",
	})
	require.NoError(t, err)

	decl, err := store.GetKafkaSMT(catalog.KeyByName("derived"))
	require.NoError(t, err)

	cfg, err := smt.Resolve(store, decl, nil)
	require.NoError(t, err)
	assert.Equal(t, "io.debezium.transforms.ByLogicalTableRouter", cfg["type"])
	assert.Equal(t, "orders_.*", cfg["topic.regex"])
}
