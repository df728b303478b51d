package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisthorpe1994/pipeline-foundry/internal/catalog"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/sqlast"
)

func val(raw string) sqlast.Value { return sqlast.Value{Raw: raw} }

func objectName(parts ...string) sqlast.ObjectName {
	idents := make([]sqlast.Ident, len(parts))
	for i, p := range parts {
		idents[i] = sqlast.Ident{Name: p}
	}
	return sqlast.ObjectName{Parts: idents}
}

func TestDeriveModelName(t *testing.T) {
	cases := []struct {
		schema, table, want string
	}{
		{"orders", "orders_2024", "orders_2024"},
		{"orders", "_staging", "orders_staging"},
		{"orders", "customers", "orders_customers"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, catalog.DeriveModelName(c.schema, c.table))
	}
}

func TestRegisterKafkaSMT_DuplicateRejected(t *testing.T) {
	store := catalog.New()
	ast := &sqlast.CreateSMT{Name: "unwrap", Config: []sqlast.KVProperty{{Key: "type", Value: val("'x'")}}}

	_, err := store.RegisterKafkaSMT(ast)
	require.NoError(t, err)

	_, err = store.RegisterKafkaSMT(ast)
	require.Error(t, err)
	assert.True(t, catalog.IsDuplicate(err))
}

func TestRegisterSMTPipeline_UnknownTransformRejected(t *testing.T) {
	store := catalog.New()
	ast := &sqlast.CreateSMTPipeline{
		Name:  "p1",
		Steps: []sqlast.PipelineStep{{TransformName: "missing"}},
	}

	_, err := store.RegisterSMTPipeline(ast)
	require.Error(t, err)
	assert.True(t, catalog.IsNotFound(err))
}

func TestRegisterSMTPipeline_ResolvesTransformID(t *testing.T) {
	store := catalog.New()
	smt, err := store.RegisterKafkaSMT(&sqlast.CreateSMT{
		Name:   "unwrap",
		Config: []sqlast.KVProperty{{Key: "type", Value: val("'x'")}},
	})
	require.NoError(t, err)

	pipeline, err := store.RegisterSMTPipeline(&sqlast.CreateSMTPipeline{
		Name:  "p1",
		Steps: []sqlast.PipelineStep{{TransformName: "unwrap", Alias: "step1"}},
	})
	require.NoError(t, err)
	require.Len(t, pipeline.Steps, 1)
	assert.Equal(t, smt.ID, pipeline.Steps[0].TransformID)
	assert.Equal(t, "step1", pipeline.Steps[0].Alias)
}

func TestRegisterModel_PartitionsRefsAndSources(t *testing.T) {
	store := catalog.New()
	ast := &sqlast.CreateModel{
		Name: objectName("analytics", "orders_enriched"),
		Query: sqlast.Query{
			Text: "select * from ref('analytics','orders') join source('pg','customers')",
			MacroCalls: []sqlast.MacroFnCall{
				{Kind: sqlast.MacroRef, Args: [2]string{"analytics", "orders"}},
				{Kind: sqlast.MacroSource, Args: [2]string{"pg", "customers"}},
			},
		},
	}

	decl, err := store.RegisterModel(ast, "warehouse_a")
	require.NoError(t, err)
	assert.Equal(t, "analytics_orders_enriched", decl.Name)
	require.Len(t, decl.Refs, 1)
	require.Len(t, decl.Sources, 1)
	assert.Equal(t, "analytics_orders", decl.Refs[0].Name)
	assert.Equal(t, "pg", decl.Sources[0].SourceName)
}

func TestResolveWarehouseSource_NotFound(t *testing.T) {
	store := catalog.New()
	_, err := store.ResolveWarehouseSource(catalog.SourceRef{SourceName: "pg", SourceTable: "customers"})
	require.Error(t, err)
	assert.True(t, catalog.IsNotFound(err))
}

func TestCollectCatalogNodes_CoversEveryKind(t *testing.T) {
	store := catalog.New()
	_, err := store.RegisterKafkaSMT(&sqlast.CreateSMT{Name: "t1", Config: []sqlast.KVProperty{{Key: "type", Value: val("'x'")}}})
	require.NoError(t, err)
	_, err = store.RegisterSMTPipeline(&sqlast.CreateSMTPipeline{Name: "p1", Steps: []sqlast.PipelineStep{{TransformName: "t1"}}})
	require.NoError(t, err)
	_, err = store.RegisterSMTPredicate(&sqlast.CreateSMTPredicate{Name: "pred1", ClassName: "TopicNameMatches"})
	require.NoError(t, err)
	_, err = store.RegisterKafkaConnector(&sqlast.CreateKafkaConnector{Name: "c1", Version: val("'1.0'")})
	require.NoError(t, err)
	_, err = store.RegisterModel(&sqlast.CreateModel{Name: objectName("analytics", "orders")}, "warehouse_a")
	require.NoError(t, err)
	_, err = store.RegisterPythonNode(&catalog.PythonDecl{Name: "job1"})
	require.NoError(t, err)

	nodes := store.CollectCatalogNodes()
	kinds := map[catalog.ArtifactKind]int{}
	for _, n := range nodes {
		kinds[n.Kind]++
	}
	assert.Equal(t, 1, kinds[catalog.KindKafkaSmt])
	assert.Equal(t, 1, kinds[catalog.KindKafkaSmtPipeline])
	assert.Equal(t, 1, kinds[catalog.KindKafkaPredicate])
	assert.Equal(t, 1, kinds[catalog.KindKafkaConnector])
	assert.Equal(t, 1, kinds[catalog.KindModel])
	assert.Equal(t, 1, kinds[catalog.KindPython])
}
