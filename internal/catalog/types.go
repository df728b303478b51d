package catalog

import (
	"strings"
	"time"

	"github.com/lewisthorpe1994/pipeline-foundry/internal/sqlast"
)

// ArtifactKind discriminates the catalog's stored declaration types. It
// doubles as the registration priority discriminant used by the
// registration pipeline (C10): KafkaSmt < KafkaSmtPipeline <
// KafkaConnector < anything else.
type ArtifactKind int

const (
	KindKafkaSmt ArtifactKind = iota
	KindKafkaSmtPipeline
	KindKafkaConnector
	KindKafkaPredicate
	KindModel
	KindPython
)

// Priority implements the registration ordering from §4.3/§4.9/§4.10:
// KafkaSmt(0) < KafkaSmtPipeline(1) < KafkaConnector(2) < other(equal).
func (k ArtifactKind) Priority() int {
	switch k {
	case KindKafkaSmt:
		return 0
	case KindKafkaSmtPipeline:
		return 1
	case KindKafkaConnector:
		return 2
	default:
		return 3
	}
}

// TransformDecl is a registered "CREATE SIMPLE MESSAGE TRANSFORM".
type TransformDecl struct {
	ID        string
	Name      string
	Config    map[string]string
	Preset    string
	Extend    map[string]string
	CreatedAt time.Time
	Predicate *PredicateRef
	AST       *sqlast.CreateSMT
}

// PredicateRef is a named predicate reference carried by a transform or
// a pipeline; negation is normalized to bool, default false, per
// SPEC_FULL.md §13 open-question decision 4.
type PredicateRef struct {
	Name   string
	Negate bool
}

// PipelineTransformStep is one step of a registered SMT pipeline.
type PipelineTransformStep struct {
	TransformName string
	TransformID   string
	Args          map[string]string
	Alias         string
}

// PipelineDecl is a registered "CREATE SIMPLE MESSAGE TRANSFORM PIPELINE".
type PipelineDecl struct {
	Name      string
	Steps     []PipelineTransformStep
	Predicate string // pipeline-wide predicate name, empty if none
	AST       *sqlast.CreateSMTPipeline
}

// KafkaConnectorMeta is a registered "CREATE KAFKA ... CONNECTOR".
type KafkaConnectorMeta struct {
	Name           string
	ConnectorType  sqlast.KafkaConnectorType
	Provider       sqlast.KafkaConnectorProvider
	SupportedDB    string
	ClusterIdent   string
	DBIdent        string // source adapter (Source) or warehouse adapter (Sink)
	SchemaIdent    string // sinks only
	Pipelines      []string
	WithProperties map[string]string
	Version        string
	AST            *sqlast.CreateKafkaConnector
}

// PredicateDecl is a registered "CREATE ... PREDICATE".
type PredicateDecl struct {
	Name       string
	ClassName  string
	Pattern    string
	HasPattern bool
}

// ModelRef is a reference produced by a ref() macro. Name is the
// unique key the DAG resolves a model by.
type ModelRef struct {
	Schema string
	Table  string
	Name   string
}

// NewModelRef derives Name per §3's invariant.
func NewModelRef(schema, table string) ModelRef {
	return ModelRef{Schema: schema, Table: table, Name: DeriveModelName(schema, table)}
}

// DeriveModelName implements the §3 derivation rule: if table starts
// with schema, use table; else if table starts with "_", concatenate
// without separator; else join with "_".
func DeriveModelName(schema, table string) string {
	switch {
	case strings.HasPrefix(table, schema):
		return table
	case strings.HasPrefix(table, "_"):
		return schema + table
	default:
		return schema + "_" + table
	}
}

// SourceRef is a reference produced by a source() macro.
type SourceRef struct {
	SourceName  string
	SourceTable string
}

// Key returns the catalog's warehouse-source lookup key for this ref.
func (s SourceRef) Key() string { return s.SourceName + "." + s.SourceTable }

// ModelDecl is a registered "CREATE MODEL".
type ModelDecl struct {
	Schema      string
	Table       string
	Name        string // derived via DeriveModelName
	Materialize sqlast.Materialize
	Refs        []ModelRef
	Sources     []SourceRef
	Target      string
	AST         *sqlast.CreateModel
}

// WarehouseSourceDec is produced by the warehouse-source configuration,
// never by SQL.
type WarehouseSourceDec struct {
	Database string
	Schema   string
	Table    string
}

// QualifiedName is "{database}.{schema}.{table}", the substitution the
// model compiler's source() resolver produces.
func (w WarehouseSourceDec) QualifiedName() string {
	return w.Database + "." + w.Schema + "." + w.Table
}

// EndpointType types a Python job's declared data endpoints.
type EndpointType int

const (
	EndpointSourceDb EndpointType = iota
	EndpointWarehouseDb
	EndpointApi
	EndpointKafka
)

// PythonDecl is a registered Python job directory declaration.
type PythonDecl struct {
	Name         string
	JobDir       string
	Workspace    string
	Sources      map[string]EndpointType
	Destinations map[string]EndpointType
}

// CatalogNode is the enumeration unit produced by CollectCatalogNodes,
// used to drive DAG construction (C9).
type CatalogNode struct {
	Name        string
	Kind        ArtifactKind
	Target      string
	Transform   *TransformDecl
	Pipeline    *PipelineDecl
	Connector   *KafkaConnectorMeta
	Predicate   *PredicateDecl
	Model       *ModelDecl
	Python      *PythonDecl
}
