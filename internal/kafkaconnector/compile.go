package kafkaconnector

import (
	"errors"
	"fmt"

	"github.com/lewisthorpe1994/pipeline-foundry/internal/catalog"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/pconfig"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/predicate"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/smt"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/sqlast"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/version"
)

// debeziumPostgresSourceSupportedVersions is the Postgres source
// connector's version allow-list: a declared WITH CONNECTOR VERSION
// outside this set fails validation even though its individual fields
// may each be compat-tagged "always".
var debeziumPostgresSourceSupportedVersions = []version.Version{
	{Major: 3, Minor: 0},
	{Major: 3, Minor: 1},
	{Major: 3, Minor: 2},
	{Major: 3, Minor: 3},
}

// compileState names the stages a connector passes through while being
// compiled, mirroring the "Declared / Resolving / Assembling /
// Validating / Compiled" lifecycle.
type compileState int

const (
	stateDeclared compileState = iota
	stateResolving
	stateAssembling
	stateValidating
	stateCompiled
)

func (s compileState) String() string {
	switch s {
	case stateDeclared:
		return "declared"
	case stateResolving:
		return "resolving"
	case stateAssembling:
		return "assembling"
	case stateValidating:
		return "validating"
	case stateCompiled:
		return "compiled"
	default:
		return "unknown"
	}
}

// SourceConnection is the resolved connection detail for a Postgres
// source adapter, built by Compile from the project config's named
// adapter once meta.DBIdent has been looked up.
type SourceConnection struct {
	Hostname string
	Port     string
	User     string
	Password string
	Dbname   string
}

// SinkConnection is the resolved JDBC connection detail for a
// warehouse adapter.
type SinkConnection struct {
	URL      string
	Username string
	Password string
}

// Compile assembles a typed, version-filtered, flat connector config
// from meta plus its resolved transform pipelines. clusters and
// adapters are the project's named Kafka clusters and adapter
// connections (§4.6 steps 3-4): meta.ClusterIdent and meta.DBIdent are
// looked up against them here, failing catalog.ErrNotFound when either
// name isn't declared in the project config.
func Compile(store *catalog.Store, meta catalog.KafkaConnectorMeta, clusters map[string]pconfig.KafkaClusterConfig, adapters map[string]pconfig.AdapterConnectionConfig) (TypedConnectorConfig, error) {
	state := stateDeclared
	v, err := version.Parse(meta.Version)
	if err != nil {
		return TypedConnectorConfig{}, fmt.Errorf("compile connector %q at %s: %w", meta.Name, state, err)
	}

	state = stateResolving
	placements, err := resolvePlacements(store, meta)
	if err != nil {
		return TypedConnectorConfig{}, fmt.Errorf("compile connector %q at %s: %w", meta.Name, state, err)
	}

	cluster, ok := clusters[meta.ClusterIdent]
	if !ok {
		return TypedConnectorConfig{}, fmt.Errorf("compile connector %q at %s: kafka cluster %q: %w", meta.Name, state, meta.ClusterIdent, catalog.ErrNotFound)
	}
	adapter, ok := adapters[meta.DBIdent]
	if !ok {
		return TypedConnectorConfig{}, fmt.Errorf("compile connector %q at %s: adapter %q: %w", meta.Name, state, meta.DBIdent, catalog.ErrNotFound)
	}

	var src *SourceConnection
	var sink *SinkConnection
	switch meta.ConnectorType {
	case sqlast.ConnectorSource:
		src = &SourceConnection{Hostname: adapter.Host, Port: adapter.Port, User: adapter.User, Password: adapter.Password, Dbname: adapter.Database}
	case sqlast.ConnectorSink:
		sink = &SinkConnection{URL: adapter.JDBCURL(), Username: adapter.User, Password: adapter.Password}
	}

	state = stateAssembling
	doc := "{}"
	switch {
	case meta.ConnectorType == sqlast.ConnectorSource && meta.Provider == sqlast.ProviderDebezium:
		typed := buildDebeziumPostgresSource(meta, src)
		doc, err = serializeStruct(doc, v, typed)
	case meta.ConnectorType == sqlast.ConnectorSink && meta.Provider == sqlast.ProviderDebezium:
		typed, buildErr := buildDebeziumPostgresSink(meta, sink)
		if buildErr != nil {
			return TypedConnectorConfig{}, fmt.Errorf("compile connector %q at %s: %w", meta.Name, state, buildErr)
		}
		doc, err = serializeStruct(doc, v, typed)
	default:
		err = fmt.Errorf("unsupported connector provider/type combination for %q", meta.Name)
	}
	if err != nil {
		return TypedConnectorConfig{}, fmt.Errorf("compile connector %q at %s: %w", meta.Name, state, err)
	}

	doc, err = serializeCommon(doc, v, commonFromWith(meta, cluster.BootstrapServers))
	if err != nil {
		return TypedConnectorConfig{}, fmt.Errorf("compile connector %q at %s: %w", meta.Name, state, err)
	}

	doc, err = serializeTransforms(doc, placements)
	if err != nil {
		return TypedConnectorConfig{}, fmt.Errorf("compile connector %q at %s: %w", meta.Name, state, err)
	}

	state = stateValidating
	if verrErr := validateConnector(meta, v); verrErr != nil {
		return TypedConnectorConfig{}, fmt.Errorf("compile connector %q at %s: %w", meta.Name, state, verrErr)
	}

	state = stateCompiled
	return TypedConnectorConfig{JSON: doc}, nil
}

// validateConnector runs the mutual-exclusion, enumerated-value and
// version-compatibility checks the Validating stage requires, per
// §4.8's allow-lists for the Debezium Postgres source connector.
func validateConnector(meta catalog.KafkaConnectorMeta, v version.Version) error {
	var verrs ValidationErrors
	if meta.Name == "" {
		verrs.Add("connector name is required")
	}

	if meta.ConnectorType == sqlast.ConnectorSource && meta.Provider == sqlast.ProviderDebezium {
		w := meta.WithProperties
		verrs.CheckMutuallyExclusive("schema.include.list", optional(w, "schema.include.list"), "schema.exclude.list", optional(w, "schema.exclude.list"))
		verrs.CheckMutuallyExclusive("table.include.list", optional(w, "table.include.list"), "table.exclude.list", optional(w, "table.exclude.list"))
		verrs.CheckAllowed("plugin.name", optional(w, "plugin.name"), []string{"pgoutput", "decoderbufs"})
		verrs.CheckAllowed("time.precision.mode", optional(w, "time.precision.mode"), []string{"adaptive", "adaptive_time_microseconds", "connect"})
		verrs.CheckAllowed("decimal.handling.mode", optional(w, "decimal.handling.mode"), []string{"precise", "double", "string"})
		verrs.CheckAllowed("hstore.handling.mode", optional(w, "hstore.handling.mode"), []string{"json", "map"})
		verrs.CheckAllowed("interval.handling.mode", optional(w, "interval.handling.mode"), []string{"numeric", "string"})
		verrs.CheckAllowed("binary.handling.mode", optional(w, "binary.handling.mode"), []string{"bytes", "base64", "base64-url-safe", "hex"})
		verrs.CheckAllowed("schema.name.adjustment.mode", optional(w, "schema.name.adjustment.mode"), []string{"none", "avro", "avro_unicode"})
		verrs.CheckAllowed("field.name.adjustment.mode", optional(w, "field.name.adjustment.mode"), []string{"none", "avro", "avro_unicode"})
		verrs.CheckAllowed("publication.autocreate.mode", optional(w, "publication.autocreate.mode"), []string{"all_tables", "disabled", "filtered", "no_tables"})

		if !versionSupported(debeziumPostgresSourceSupportedVersions, v) {
			verrs.Add("connector version %s is not one of the supported versions %v", v, debeziumPostgresSourceSupportedVersions)
		}
	}

	return verrs.Finish()
}

func versionSupported(supported []version.Version, v version.Version) bool {
	for _, s := range supported {
		if s == v {
			return true
		}
	}
	return false
}

// ErrMissingConfig is returned when a connector's declared WITH(...)
// properties and project config leave a required value unset.
var ErrMissingConfig = errors.New("missing required connector config")

// resolvePlacements walks every SMT pipeline this connector references,
// resolving each step's transform config and predicate in order.
func resolvePlacements(store *catalog.Store, meta catalog.KafkaConnectorMeta) ([]transformPlacement, error) {
	var placements []transformPlacement
	for _, pipelineName := range meta.Pipelines {
		pipeline, err := store.GetSMTPipeline(pipelineName)
		if err != nil {
			return nil, err
		}
		for _, step := range pipeline.Steps {
			transform, err := store.GetKafkaSMT(catalog.KeyByID(step.TransformID))
			if err != nil {
				return nil, err
			}
			cfg, err := smt.Resolve(store, transform, step.Args)
			if err != nil {
				return nil, fmt.Errorf("transform %q: %w", transform.Name, err)
			}
			pred, err := predicate.ResolveRef(store, transform.Predicate)
			if err != nil {
				return nil, err
			}
			name := pipelineName + "_" + transform.Name
			if step.Alias != "" {
				name = step.Alias
			}
			placements = append(placements, transformPlacement{Name: name, Config: cfg, Predicate: pred})
		}

		if pipeline.Predicate != "" {
			wide, err := predicate.ResolvePipelineWide(store, pipeline.Predicate)
			if err != nil {
				return nil, err
			}
			if wide != nil {
				for i := range placements {
					if placements[i].Predicate == nil {
						placements[i].Predicate = wide
					}
				}
			}
		}
	}
	return placements, nil
}

func commonFromWith(meta catalog.KafkaConnectorMeta, bootstrapServers string) CommonFields {
	w := meta.WithProperties
	return CommonFields{
		Name:                  strPtr(meta.Name),
		TasksMax:              optional(w, "tasks.max"),
		ConnectorPluginVersion: optional(w, "connector.plugin.version"),
		KeyConverter:          optional(w, "key.converter"),
		ValueConverter:        optional(w, "value.converter"),
		HeaderConverter:       optional(w, "header.converter"),
		ErrorsRetryTimeout:    optional(w, "errors.retry.timeout"),
		ErrorsTolerance:       optional(w, "errors.tolerance"),
		ErrorsDeadLetterQueueTopicName: optional(w, "errors.deadletterqueue.topic.name"),
		Topics:                optional(w, "topics"),
		TopicsRegex:           optional(w, "topics.regex"),
		KafkaBootstrapServers: strPtr(bootstrapServers),
	}
}

func buildDebeziumPostgresSource(meta catalog.KafkaConnectorMeta, conn *SourceConnection) DebeziumPostgresSource {
	w := meta.WithProperties
	out := DebeziumPostgresSource{
		ConnectorClass:  "io.debezium.connector.postgresql.PostgresConnector",
		TopicPrefix:     w["topic.prefix"],
		PluginName:      optional(w, "plugin.name"),
		SlotName:        optional(w, "slot.name"),
		SlotDropOnStop:  optional(w, "slot.drop.on.stop"),
		SlotFailover:    optional(w, "slot.failover"),
		PublicationName: optional(w, "publication.name"),
		PublicationAutocreateMode: optional(w, "publication.autocreate.mode"),
		DatabaseSslmode: optional(w, "database.sslmode"),
		SchemaIncludeList: optional(w, "schema.include.list"),
		SchemaExcludeList: optional(w, "schema.exclude.list"),
		TableIncludeList:  optional(w, "table.include.list"),
		TableExcludeList:  optional(w, "table.exclude.list"),
		TombstonesOnDelete: optional(w, "tombstones.on.delete"),
		DecimalHandlingMode: optional(w, "decimal.handling.mode"),
		SnapshotMode:       optional(w, "snapshot.mode"),
		TimePrecisionMode:        optional(w, "time.precision.mode"),
		HstoreHandlingMode:       optional(w, "hstore.handling.mode"),
		IntervalHandlingMode:     optional(w, "interval.handling.mode"),
		BinaryHandlingMode:       optional(w, "binary.handling.mode"),
		SchemaNameAdjustmentMode: optional(w, "schema.name.adjustment.mode"),
		FieldNameAdjustmentMode:  optional(w, "field.name.adjustment.mode"),
	}
	if conn != nil {
		out.DatabaseHostname = conn.Hostname
		out.DatabasePort = conn.Port
		out.DatabaseUser = conn.User
		out.DatabasePassword = conn.Password
		out.DatabaseDbname = conn.Dbname
	}
	return out
}

func buildDebeziumPostgresSink(meta catalog.KafkaConnectorMeta, conn *SinkConnection) (DebeziumPostgresSink, error) {
	w := meta.WithProperties
	out := DebeziumPostgresSink{
		ConnectorClass: "io.debezium.connector.jdbc.JdbcSinkConnector",
		ConnectionProvider: optional(w, "connection.provider"),
		ConnectionPoolMinSize: optional(w, "connection.pool.min_size"),
		ConnectionPoolMaxSize: optional(w, "connection.pool.max_size"),
		ConnectionRestartOnErrors: optional(w, "connection.restart.on.errors"),
		UseTimeZone:     optional(w, "use.time.zone"),
		InsertMode:      optional(w, "insert.mode"),
		DeleteEnabled:   optional(w, "delete.enabled"),
		PrimaryKeyMode:  optional(w, "primary.key.mode"),
		SchemaEvolution: optional(w, "schema.evolution"),
		CollectionNameFormat: optional(w, "collection.name.format"),
	}
	if out.CollectionNameFormat == nil {
		if meta.SchemaIdent == "" {
			return DebeziumPostgresSink{}, fmt.Errorf("connector %q: %w: collection.name.format requires USING SCHEMA", meta.Name, ErrMissingConfig)
		}
		out.CollectionNameFormat = strPtr(meta.SchemaIdent + ".${source.table}")
	}
	if _, hasTopics := w["topics"]; !hasTopics {
		if _, hasTopicsRegex := w["topics.regex"]; !hasTopicsRegex {
			return DebeziumPostgresSink{}, fmt.Errorf("connector %q: %w: one of topics or topics.regex is required", meta.Name, ErrMissingConfig)
		}
	}
	if conn != nil {
		out.ConnectionURL = conn.URL
		out.ConnectionUsername = conn.Username
		out.ConnectionPassword = conn.Password
	}
	return out, nil
}

func optional(m map[string]string, key string) *string {
	if v, ok := m[key]; ok {
		return &v
	}
	return nil
}

func strPtr(s string) *string { return &s }
