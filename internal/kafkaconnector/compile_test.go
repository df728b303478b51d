package kafkaconnector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/lewisthorpe1994/pipeline-foundry/internal/catalog"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/kafkaconnector"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/pconfig"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/sqlast"
)

func val(raw string) sqlast.Value { return sqlast.Value{Raw: raw} }

func localCluster() map[string]pconfig.KafkaClusterConfig {
	return map[string]pconfig.KafkaClusterConfig{
		"local": {Name: "local", BootstrapServers: "broker:9092"},
	}
}

func TestCompile_DebeziumPostgresSource(t *testing.T) {
	store := catalog.New()
	meta := catalog.KafkaConnectorMeta{
		Name:          "pg-source",
		ConnectorType: sqlast.ConnectorSource,
		Provider:      sqlast.ProviderDebezium,
		Version:       "3.0",
		ClusterIdent:  "local",
		DBIdent:       "pg_main",
		WithProperties: map[string]string{
			"topic.prefix":       "pg",
			"table.include.list": "public.orders",
			"slot.name":          "orders_slot",
		},
	}

	adapters := map[string]pconfig.AdapterConnectionConfig{
		"pg_main": {Host: "db.internal", Port: "5432", User: "replicator", Password: "secret", Database: "app"},
	}

	out, err := kafkaconnector.Compile(store, meta, localCluster(), adapters)
	require.NoError(t, err)

	assert.Equal(t, "io.debezium.connector.postgresql.PostgresConnector", gjson.Get(out.JSON, "connector.class").String())
	assert.Equal(t, "pg", gjson.Get(out.JSON, "topic.prefix").String())
	assert.Equal(t, "db.internal", gjson.Get(out.JSON, "database.hostname").String())
	assert.Equal(t, "public.orders", gjson.Get(out.JSON, "table.include.list").String())
	assert.Equal(t, "pg-source", gjson.Get(out.JSON, "name").String())
	assert.Equal(t, "broker:9092", gjson.Get(out.JSON, "kafka.bootstrap.servers").String())

	// compat "since=3.1" field must be absent at version 3.0.
	assert.False(t, gjson.Get(out.JSON, "slot.failover").Exists())
}

func TestCompile_DebeziumPostgresSource_SinceVersionFieldIncluded(t *testing.T) {
	store := catalog.New()
	meta := catalog.KafkaConnectorMeta{
		Name:          "pg-source",
		ConnectorType: sqlast.ConnectorSource,
		Provider:      sqlast.ProviderDebezium,
		Version:       "3.1",
		ClusterIdent:  "local",
		DBIdent:       "pg_main",
		WithProperties: map[string]string{
			"topic.prefix":  "pg",
			"slot.failover": "true",
		},
	}

	adapters := map[string]pconfig.AdapterConnectionConfig{"pg_main": {}}

	out, err := kafkaconnector.Compile(store, meta, localCluster(), adapters)
	require.NoError(t, err)
	assert.Equal(t, "true", gjson.Get(out.JSON, "slot.failover").String())
}

func TestCompile_DebeziumPostgresSink(t *testing.T) {
	store := catalog.New()
	meta := catalog.KafkaConnectorMeta{
		Name:          "wh-sink",
		ConnectorType: sqlast.ConnectorSink,
		Provider:      sqlast.ProviderDebezium,
		Version:       "3.0",
		ClusterIdent:  "local",
		DBIdent:       "warehouse",
		SchemaIdent:   "bronze",
		WithProperties: map[string]string{
			"insert.mode":      "upsert",
			"primary.key.mode": "record_key",
			"topics":           "pg.public.orders",
		},
	}

	adapters := map[string]pconfig.AdapterConnectionConfig{
		"warehouse": {Host: "warehouse", Database: "app", User: "loader", Password: "secret"},
	}

	out, err := kafkaconnector.Compile(store, meta, localCluster(), adapters)
	require.NoError(t, err)

	assert.Equal(t, "io.debezium.connector.jdbc.JdbcSinkConnector", gjson.Get(out.JSON, "connector.class").String())
	assert.Equal(t, "jdbc:postgresql://warehouse/app", gjson.Get(out.JSON, "connection.url").String())
	assert.Equal(t, "upsert", gjson.Get(out.JSON, "insert.mode").String())
	assert.Equal(t, "bronze.${source.table}", gjson.Get(out.JSON, "collection.name.format").String())
}

func TestCompile_UnsupportedCombinationRejected(t *testing.T) {
	store := catalog.New()
	meta := catalog.KafkaConnectorMeta{
		Name:          "weird",
		ConnectorType: sqlast.ConnectorSink,
		Provider:      sqlast.KafkaConnectorProvider(99),
		Version:       "3.0",
		ClusterIdent:  "local",
		DBIdent:       "warehouse",
	}

	adapters := map[string]pconfig.AdapterConnectionConfig{"warehouse": {}}

	_, err := kafkaconnector.Compile(store, meta, localCluster(), adapters)
	assert.Error(t, err)
}

func TestCompile_ResolvesPipelineTransformsAndPredicates(t *testing.T) {
	store := catalog.New()
	_, err := store.RegisterSMTPredicate(&sqlast.CreateSMTPredicate{
		Name:       "is-orders",
		ClassName:  "org.apache.kafka.connect.transforms.predicates.TopicNameMatches",
		Pattern:    "orders_.*",
		HasPattern: true,
	})
	require.NoError(t, err)
	_, err = store.RegisterKafkaSMT(&sqlast.CreateSMT{
		Name: "unwrap",
		Config: []sqlast.KVProperty{
			{Key: "type", Value: val("'io.debezium.transforms.ExtractNewRecordState'")},
		},
		Predicate: "is-orders",
		Negate:    true,
	})
	require.NoError(t, err)
	_, err = store.RegisterSMTPipeline(&sqlast.CreateSMTPipeline{
		Name:  "pipe1",
		Steps: []sqlast.PipelineStep{{TransformName: "unwrap"}},
	})
	require.NoError(t, err)

	meta := catalog.KafkaConnectorMeta{
		Name:           "pg-source",
		ConnectorType:  sqlast.ConnectorSource,
		Provider:       sqlast.ProviderDebezium,
		Version:        "3.0",
		ClusterIdent:   "local",
		DBIdent:        "pg_main",
		Pipelines:      []string{"pipe1"},
		WithProperties: map[string]string{"topic.prefix": "pg"},
	}

	adapters := map[string]pconfig.AdapterConnectionConfig{"pg_main": {}}

	out, err := kafkaconnector.Compile(store, meta, localCluster(), adapters)
	require.NoError(t, err)

	assert.Equal(t, "pipe1_unwrap", gjson.Get(out.JSON, "transforms").String())
	assert.Equal(t, "io.debezium.transforms.ExtractNewRecordState", gjson.Get(out.JSON, "transforms.pipe1_unwrap.type").String())
	assert.Equal(t, "is-orders", gjson.Get(out.JSON, "transforms.pipe1_unwrap.predicate").String())
	assert.Equal(t, "true", gjson.Get(out.JSON, "transforms.pipe1_unwrap.negate").String())
	assert.Equal(t, "org.apache.kafka.connect.transforms.predicates.TopicNameMatches", gjson.Get(out.JSON, "predicates.is-orders.type").String())
}

// TestCompile_PipelineWithTwoTransformsNamesEachByPipelineAndStep mirrors
// the two-transform pipeline scenario: transform names default to
// "{pipeline}_{step}" and per-transform property keys are preserved.
func TestCompile_PipelineWithTwoTransformsNamesEachByPipelineAndStep(t *testing.T) {
	store := catalog.New()
	_, err := store.RegisterKafkaSMT(&sqlast.CreateSMT{
		Name: "mask",
		Config: []sqlast.KVProperty{
			{Key: "type", Value: val("'org.apache.kafka.connect.transforms.MaskField$Value'")},
			{Key: "fields", Value: val("'ssn'")},
		},
	})
	require.NoError(t, err)
	_, err = store.RegisterKafkaSMT(&sqlast.CreateSMT{
		Name: "drop_id",
		Config: []sqlast.KVProperty{
			{Key: "type", Value: val("'org.apache.kafka.connect.transforms.ReplaceField$Value'")},
			{Key: "blacklist", Value: val("'id'")},
		},
	})
	require.NoError(t, err)
	_, err = store.RegisterSMTPipeline(&sqlast.CreateSMTPipeline{
		Name: "pii",
		Steps: []sqlast.PipelineStep{
			{TransformName: "mask"},
			{TransformName: "drop_id"},
		},
		Predicate: "only_customers",
	})
	require.NoError(t, err)

	meta := catalog.KafkaConnectorMeta{
		Name:           "pg-source",
		ConnectorType:  sqlast.ConnectorSource,
		Provider:       sqlast.ProviderDebezium,
		Version:        "3.0",
		ClusterIdent:   "local",
		DBIdent:        "pg_main",
		Pipelines:      []string{"pii"},
		WithProperties: map[string]string{"topic.prefix": "pg"},
	}

	adapters := map[string]pconfig.AdapterConnectionConfig{"pg_main": {}}

	out, err := kafkaconnector.Compile(store, meta, localCluster(), adapters)
	require.NoError(t, err)

	assert.Equal(t, "pii_mask,pii_drop_id", gjson.Get(out.JSON, "transforms").String())
	assert.Equal(t, "only_customers", gjson.Get(out.JSON, "transforms.pii_mask.predicate").String())
	assert.Equal(t, "ssn", gjson.Get(out.JSON, "transforms.pii_mask.fields").String())
	assert.Equal(t, "id", gjson.Get(out.JSON, "transforms.pii_drop_id.blacklist").String())
}

func TestCompile_SinkMissingSchemaAndCollectionFormatFailsMissingConfig(t *testing.T) {
	store := catalog.New()
	meta := catalog.KafkaConnectorMeta{
		Name:           "wh-sink",
		ConnectorType:  sqlast.ConnectorSink,
		Provider:       sqlast.ProviderDebezium,
		Version:        "3.0",
		ClusterIdent:   "local",
		DBIdent:        "warehouse",
		WithProperties: map[string]string{"topics": "pg.public.orders"},
	}

	adapters := map[string]pconfig.AdapterConnectionConfig{"warehouse": {}}

	_, err := kafkaconnector.Compile(store, meta, localCluster(), adapters)
	require.Error(t, err)
	assert.ErrorIs(t, err, kafkaconnector.ErrMissingConfig)
}

func TestCompile_SinkDerivesCollectionNameFormatFromSchema(t *testing.T) {
	store := catalog.New()
	meta := catalog.KafkaConnectorMeta{
		Name:           "wh-sink",
		ConnectorType:  sqlast.ConnectorSink,
		Provider:       sqlast.ProviderDebezium,
		Version:        "3.0",
		ClusterIdent:   "local",
		DBIdent:        "warehouse",
		SchemaIdent:    "bronze",
		WithProperties: map[string]string{"topics": "pg.public.orders"},
	}

	adapters := map[string]pconfig.AdapterConnectionConfig{"warehouse": {}}

	out, err := kafkaconnector.Compile(store, meta, localCluster(), adapters)
	require.NoError(t, err)
	assert.Equal(t, "bronze.${source.table}", gjson.Get(out.JSON, "collection.name.format").String())
}

func TestCompile_SinkMissingTopicsAndTopicsRegexFailsMissingConfig(t *testing.T) {
	store := catalog.New()
	meta := catalog.KafkaConnectorMeta{
		Name:          "wh-sink",
		ConnectorType: sqlast.ConnectorSink,
		Provider:      sqlast.ProviderDebezium,
		Version:       "3.0",
		ClusterIdent:  "local",
		DBIdent:       "warehouse",
		SchemaIdent:   "bronze",
	}

	adapters := map[string]pconfig.AdapterConnectionConfig{"warehouse": {}}

	_, err := kafkaconnector.Compile(store, meta, localCluster(), adapters)
	require.Error(t, err)
	assert.ErrorIs(t, err, kafkaconnector.ErrMissingConfig)
}

func TestCompile_UnknownPipelineRejected(t *testing.T) {
	store := catalog.New()
	meta := catalog.KafkaConnectorMeta{
		Name:          "pg-source",
		ConnectorType: sqlast.ConnectorSource,
		Provider:      sqlast.ProviderDebezium,
		Version:       "3.0",
		Pipelines:     []string{"missing"},
	}

	_, err := kafkaconnector.Compile(store, meta, nil, nil)
	assert.Error(t, err)
	assert.True(t, catalog.IsNotFound(err))
}

func TestCompile_InvalidVersionRejected(t *testing.T) {
	store := catalog.New()
	meta := catalog.KafkaConnectorMeta{
		Name:          "pg-source",
		ConnectorType: sqlast.ConnectorSource,
		Provider:      sqlast.ProviderDebezium,
		Version:       "not-a-version",
	}

	_, err := kafkaconnector.Compile(store, meta, nil, nil)
	assert.Error(t, err)
}

func TestCompile_UnknownClusterFailsNotFound(t *testing.T) {
	store := catalog.New()
	meta := catalog.KafkaConnectorMeta{
		Name:          "pg-source",
		ConnectorType: sqlast.ConnectorSource,
		Provider:      sqlast.ProviderDebezium,
		Version:       "3.0",
		ClusterIdent:  "missing-cluster",
		DBIdent:       "pg_main",
	}

	_, err := kafkaconnector.Compile(store, meta, localCluster(), map[string]pconfig.AdapterConnectionConfig{"pg_main": {}})
	require.Error(t, err)
	assert.True(t, catalog.IsNotFound(err))
}

func TestCompile_UnknownAdapterFailsNotFound(t *testing.T) {
	store := catalog.New()
	meta := catalog.KafkaConnectorMeta{
		Name:          "pg-source",
		ConnectorType: sqlast.ConnectorSource,
		Provider:      sqlast.ProviderDebezium,
		Version:       "3.0",
		ClusterIdent:  "local",
		DBIdent:       "missing-adapter",
	}

	_, err := kafkaconnector.Compile(store, meta, localCluster(), map[string]pconfig.AdapterConnectionConfig{"pg_main": {}})
	require.Error(t, err)
	assert.True(t, catalog.IsNotFound(err))
}

func TestCompile_MutuallyExclusiveSchemaFiltersFailValidation(t *testing.T) {
	store := catalog.New()
	meta := catalog.KafkaConnectorMeta{
		Name:          "pg-source",
		ConnectorType: sqlast.ConnectorSource,
		Provider:      sqlast.ProviderDebezium,
		Version:       "3.0",
		ClusterIdent:  "local",
		DBIdent:       "pg_main",
		WithProperties: map[string]string{
			"topic.prefix":         "pg",
			"schema.include.list":  "public",
			"schema.exclude.list":  "internal",
		},
	}

	adapters := map[string]pconfig.AdapterConnectionConfig{"pg_main": {}}

	_, err := kafkaconnector.Compile(store, meta, localCluster(), adapters)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestCompile_DisallowedPluginNameFailsValidation(t *testing.T) {
	store := catalog.New()
	meta := catalog.KafkaConnectorMeta{
		Name:          "pg-source",
		ConnectorType: sqlast.ConnectorSource,
		Provider:      sqlast.ProviderDebezium,
		Version:       "3.0",
		ClusterIdent:  "local",
		DBIdent:       "pg_main",
		WithProperties: map[string]string{
			"topic.prefix": "pg",
			"plugin.name":  "wal2json",
		},
	}

	adapters := map[string]pconfig.AdapterConnectionConfig{"pg_main": {}}

	_, err := kafkaconnector.Compile(store, meta, localCluster(), adapters)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not one of")
}

func TestCompile_UnsupportedVersionFailsValidation(t *testing.T) {
	store := catalog.New()
	meta := catalog.KafkaConnectorMeta{
		Name:           "pg-source",
		ConnectorType:  sqlast.ConnectorSource,
		Provider:       sqlast.ProviderDebezium,
		Version:        "9.9",
		ClusterIdent:   "local",
		DBIdent:        "pg_main",
		WithProperties: map[string]string{"topic.prefix": "pg"},
	}

	adapters := map[string]pconfig.AdapterConnectionConfig{"pg_main": {}}

	_, err := kafkaconnector.Compile(store, meta, localCluster(), adapters)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not one of the supported versions")
}

func TestValidationErrors_AccumulatesAndFinishes(t *testing.T) {
	var errs kafkaconnector.ValidationErrors
	assert.NoError(t, errs.Finish())

	a := "x"
	b := "y"
	errs.CheckMutuallyExclusive("a", &a, "b", &b)
	errs.CheckAllowed("mode", &a, []string{"y", "z"})

	require.True(t, errs.HasErrors())
	err := errs.Finish()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
	assert.Contains(t, err.Error(), "not one of")
}
