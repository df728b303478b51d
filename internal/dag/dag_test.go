package dag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisthorpe1994/pipeline-foundry/internal/catalog"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/dag"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/sqlast"
)

func objectName(parts ...string) sqlast.ObjectName {
	idents := make([]sqlast.Ident, len(parts))
	for i, p := range parts {
		idents[i] = sqlast.Ident{Name: p}
	}
	return sqlast.ObjectName{Parts: idents}
}

func modelStmt(schema, table string, refs ...[2]string) *sqlast.CreateModel {
	var calls []sqlast.MacroFnCall
	for _, r := range refs {
		calls = append(calls, sqlast.MacroFnCall{Kind: sqlast.MacroRef, Args: r})
	}
	return &sqlast.CreateModel{
		Name:  objectName(schema, table),
		Query: sqlast.Query{MacroCalls: calls},
	}
}

func TestBuild_TracksModelDependencyOrder(t *testing.T) {
	store := catalog.New()
	_, err := store.RegisterModel(modelStmt("analytics", "customers"), "warehouse_a")
	require.NoError(t, err)
	_, err = store.RegisterModel(modelStmt("analytics", "orders", [2]string{"analytics", "customers"}), "warehouse_a")
	require.NoError(t, err)

	g, err := dag.Build(store)
	require.NoError(t, err)

	order, err := g.Toposort()
	require.NoError(t, err)

	idxCustomers := indexOf(order, "analytics_customers")
	idxOrders := indexOf(order, "analytics_orders")
	require.GreaterOrEqual(t, idxCustomers, 0)
	require.GreaterOrEqual(t, idxOrders, 0)
	assert.Less(t, idxCustomers, idxOrders)
}

func TestBuild_CycleDetected(t *testing.T) {
	store := catalog.New()
	_, err := store.RegisterModel(modelStmt("analytics", "a", [2]string{"analytics", "b"}), "")
	require.NoError(t, err)
	_, err = store.RegisterModel(modelStmt("analytics", "b", [2]string{"analytics", "a"}), "")
	require.NoError(t, err)

	_, err = dag.Build(store)
	require.Error(t, err)
	var cycleErr *dag.CycleError
	require.ErrorAs(t, err, &cycleErr)
}

func TestGetModelExecutionOrder_IncludesUpstreamAndDownstream(t *testing.T) {
	store := catalog.New()
	_, err := store.RegisterModel(modelStmt("analytics", "customers"), "")
	require.NoError(t, err)
	_, err = store.RegisterModel(modelStmt("analytics", "orders", [2]string{"analytics", "customers"}), "")
	require.NoError(t, err)

	g, err := dag.Build(store)
	require.NoError(t, err)

	nodes, err := g.GetModelExecutionOrder("analytics_customers")
	require.NoError(t, err)

	var names []string
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	assert.Contains(t, names, "analytics_customers")
	assert.Contains(t, names, "analytics_orders")
}

func TestBuild_SourceConnectorMergesDuplicateTopicNode(t *testing.T) {
	store := catalog.New()

	_, err := store.RegisterKafkaConnector(&sqlast.CreateKafkaConnector{
		Name:          "conn-a",
		ConnectorType: sqlast.ConnectorSource,
		WithProperties: []sqlast.KVProperty{
			{Key: "table.include.list", Value: sqlast.Value{Raw: "'public.orders'"}},
			{Key: "topic.prefix", Value: sqlast.Value{Raw: "'pg'"}},
		},
	})
	require.NoError(t, err)
	_, err = store.RegisterKafkaConnector(&sqlast.CreateKafkaConnector{
		Name:          "conn-b",
		ConnectorType: sqlast.ConnectorSource,
		WithProperties: []sqlast.KVProperty{
			{Key: "table.include.list", Value: sqlast.Value{Raw: "'public.orders'"}},
			{Key: "topic.prefix", Value: sqlast.Value{Raw: "'pg'"}},
		},
	})
	require.NoError(t, err)

	g, err := dag.Build(store)
	require.NoError(t, err)

	topic, ok := g.Get("pg.public.orders")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"conn-a", "conn-b"}, topic.Relations)
}

func TestBuild_SinkConnectorUsesTopicsKey(t *testing.T) {
	store := catalog.New()
	_, err := store.RegisterKafkaConnector(&sqlast.CreateKafkaConnector{
		Name:          "sink-a",
		ConnectorType: sqlast.ConnectorSink,
		WithProperties: []sqlast.KVProperty{
			{Key: "topics", Value: sqlast.Value{Raw: "'pg.public.orders'"}},
			{Key: "collection.name.format", Value: sqlast.Value{Raw: "'warehouse.orders'"}},
		},
	})
	require.NoError(t, err)
	_, err = store.RegisterKafkaConnector(&sqlast.CreateKafkaConnector{
		Name:          "conn-a",
		ConnectorType: sqlast.ConnectorSource,
		WithProperties: []sqlast.KVProperty{
			{Key: "table.include.list", Value: sqlast.Value{Raw: "'public.orders'"}},
			{Key: "topic.prefix", Value: sqlast.Value{Raw: "'pg'"}},
		},
	})
	require.NoError(t, err)

	g, err := dag.Build(store)
	require.NoError(t, err)

	n, ok := g.Get("sink-a")
	require.True(t, ok)
	assert.Contains(t, n.Relations, "pg.public.orders")
}

func TestBuild_SinkConnectorUsesTopicsRegexKey(t *testing.T) {
	store := catalog.New()
	_, err := store.RegisterKafkaConnector(&sqlast.CreateKafkaConnector{
		Name:          "sink-a",
		ConnectorType: sqlast.ConnectorSink,
		WithProperties: []sqlast.KVProperty{
			{Key: "topics.regex", Value: sqlast.Value{Raw: "'pg.public.orders'"}},
			{Key: "collection.name.format", Value: sqlast.Value{Raw: "'warehouse.orders'"}},
		},
	})
	require.NoError(t, err)
	_, err = store.RegisterKafkaConnector(&sqlast.CreateKafkaConnector{
		Name:          "conn-a",
		ConnectorType: sqlast.ConnectorSource,
		WithProperties: []sqlast.KVProperty{
			{Key: "table.include.list", Value: sqlast.Value{Raw: "'public.orders'"}},
			{Key: "topic.prefix", Value: sqlast.Value{Raw: "'pg'"}},
		},
	})
	require.NoError(t, err)

	g, err := dag.Build(store)
	require.NoError(t, err)

	n, ok := g.Get("sink-a")
	require.True(t, ok)
	assert.Equal(t, []string{"pg.public.orders"}, n.Relations)
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
