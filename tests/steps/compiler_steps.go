// Package steps implements the godog step definitions backing the
// scenarios under tests/features. Every step drives the compiler
// packages directly: there is no running service, broker, or database
// for this project to spin up, so SetupResources/CleanupResources are
// no-ops kept only to satisfy the suite-runner shape the rest of the
// pack's test suites follow.
package steps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"github.com/lewisthorpe1994/pipeline-foundry/internal/catalog"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/dag"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/kafkaconnector"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/modelcompiler"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/parser"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/pconfig"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/smt"
)

// CompilerSteps exercises catalog registration and compilation against
// the in-memory store, the same surface the CLI and the metadata API
// sit on top of.
type CompilerSteps struct {
	store *catalog.Store

	effectiveConfig map[string]string
	compiled        kafkaconnector.TypedConnectorConfig
	compiledModel   string
	lastErr         error
}

func NewCompilerSteps() *CompilerSteps {
	return &CompilerSteps{store: catalog.New()} //nolint:exhaustruct // populated as scenarios run
}

func (c *CompilerSteps) SetupResources() error   { return nil }
func (c *CompilerSteps) CleanupResources() error { return nil }

func (c *CompilerSteps) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		c.store = catalog.New()
		c.effectiveConfig = nil
		c.compiled = kafkaconnector.TypedConnectorConfig{}
		c.compiledModel = ""
		c.lastErr = nil
		return ctx, nil
	})

	sc.Step(`^a registered kafka transform "([^"]*)" with config:$`, c.aRegisteredTransformWithConfig)
	sc.Step(`^a registered kafka transform "([^"]*)" with preset "([^"]*)" extended by:$`, c.aRegisteredTransformWithPreset)
	sc.Step(`^a registered predicate "([^"]*)" from kind "([^"]*)" using pattern "([^"]*)"$`, c.aRegisteredPredicate)
	sc.Step(`^a registered transform pipeline "([^"]*)" with steps "([^"]*)" and pipeline predicate "([^"]*)"$`, c.aRegisteredPipeline)
	sc.Step(`^a registered kafka source connector "([^"]*)" using pipelines "([^"]*)" with properties:$`, c.aRegisteredSourceConnector)
	sc.Step(`^a registered kafka sink connector "([^"]*)" with properties:$`, c.aRegisteredSinkConnectorNoSchema)
	sc.Step(`^a registered kafka sink connector "([^"]*)" with schema "([^"]*)" and properties:$`, c.aRegisteredSinkConnectorWithSchema)
	sc.Step(`^a warehouse source "([^"]*)" table "([^"]*)" resolving to database "([^"]*)" schema "([^"]*)" table "([^"]*)"$`, c.aWarehouseSource)
	sc.Step(`^a registered model "([^"]*)" with query "([^"]*)"$`, c.aRegisteredModel)
	sc.Step(`^a registered model "([^"]*)" referencing model "([^"]*)"$`, c.aRegisteredModelReferencing)

	sc.Step(`^I resolve the effective config of transform "([^"]*)"$`, c.iResolveEffectiveConfig)
	sc.Step(`^I compile kafka connector "([^"]*)"$`, c.iCompileConnector)
	sc.Step(`^I compile model "([^"]*)"$`, c.iCompileModel)
	sc.Step(`^I register a second model "([^"]*)" with query "([^"]*)"$`, c.iRegisterSecondModel)
	sc.Step(`^I build the dependency graph$`, c.iBuildTheDependencyGraph)

	sc.Step(`^the effective config key "([^"]*)" equals "([^"]*)"$`, c.theEffectiveConfigKeyEquals)
	sc.Step(`^the compiled connector field "([^"]*)" equals "([^"]*)"$`, c.theCompiledConnectorFieldEquals)
	sc.Step(`^compilation fails with missing config$`, c.compilationFailsWithMissingConfig)
	sc.Step(`^the compiled model SQL equals:$`, c.theCompiledModelSQLEquals)
	sc.Step(`^the registration fails with duplicate$`, c.theRegistrationFailsWithDuplicate)
	sc.Step(`^the catalog model "([^"]*)" still has query "([^"]*)"$`, c.theCatalogModelStillHasQuery)
	sc.Step(`^graph construction fails with a cycle containing "([^"]*)" and "([^"]*)"$`, c.graphConstructionFailsWithCycle)
}

func kvTableToSQL(table *godog.Table) string {
	var b strings.Builder
	b.WriteString("(")
	for i, row := range table.Rows[1:] {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q = '%s'", row.Cells[0].Value, row.Cells[1].Value)
	}
	b.WriteString(")")
	return b.String()
}

func (c *CompilerSteps) registerStatement(src string) error {
	stmt, err := parser.ParseStatement(src)
	if err != nil {
		return fmt.Errorf("parse statement: %w", err)
	}
	return c.store.RegisterObject(stmt, "")
}

func (c *CompilerSteps) aRegisteredTransformWithConfig(name string, table *godog.Table) error {
	return c.registerStatement(fmt.Sprintf("CREATE SIMPLE MESSAGE TRANSFORM %s %s", name, kvTableToSQL(table)))
}

func (c *CompilerSteps) aRegisteredTransformWithPreset(name, preset string, table *godog.Table) error {
	return c.registerStatement(fmt.Sprintf("CREATE SIMPLE MESSAGE TRANSFORM %s PRESET %s EXTEND %s", name, preset, kvTableToSQL(table)))
}

func (c *CompilerSteps) aRegisteredPredicate(name, className, pattern string) error {
	return c.registerStatement(fmt.Sprintf(
		"CREATE KAFKA SIMPLE MESSAGE TRANSFORM PREDICATE %s USING PATTERN '%s' FROM KIND %s",
		name, pattern, className))
}

func (c *CompilerSteps) aRegisteredPipeline(name, stepsCSV, predicate string) error {
	steps := strings.Split(stepsCSV, ",")
	return c.registerStatement(fmt.Sprintf(
		"CREATE SIMPLE MESSAGE TRANSFORM PIPELINE %s (%s) WITH PIPELINE PREDICATE '%s'",
		name, strings.Join(steps, ", "), predicate))
}

func (c *CompilerSteps) aRegisteredSourceConnector(name, pipelinesCSV string, table *godog.Table) error {
	src := fmt.Sprintf(
		"CREATE KAFKA SOURCE CONNECTOR %s USING KAFKA CLUSTER main_cluster %s WITH CONNECTOR VERSION '3.0' AND PIPELINES (%s) FROM SOURCE DATABASE pg_adapter",
		name, kvTableToSQL(table), pipelinesCSV)
	return c.registerStatement(src)
}

func (c *CompilerSteps) aRegisteredSinkConnectorNoSchema(name string, table *godog.Table) error {
	src := fmt.Sprintf(
		"CREATE KAFKA SINK CONNECTOR %s USING KAFKA CLUSTER main_cluster %s WITH CONNECTOR VERSION '3.0' INTO WAREHOUSE DATABASE wh_adapter USING SCHEMA ''",
		name, kvTableToSQL(table))
	return c.registerStatement(src)
}

func (c *CompilerSteps) aRegisteredSinkConnectorWithSchema(name, schema string, table *godog.Table) error {
	src := fmt.Sprintf(
		"CREATE KAFKA SINK CONNECTOR %s USING KAFKA CLUSTER main_cluster %s WITH CONNECTOR VERSION '3.0' INTO WAREHOUSE DATABASE wh_adapter USING SCHEMA '%s'",
		name, kvTableToSQL(table), schema)
	return c.registerStatement(src)
}

func (c *CompilerSteps) aWarehouseSource(sourceName, sourceTable, database, schema, table string) error {
	c.store.RegisterWarehouseSources(map[string]catalog.WarehouseSourceDec{
		sourceName + "." + sourceTable: {Database: database, Schema: schema, Table: table},
	})
	return nil
}

func (c *CompilerSteps) aRegisteredModel(qualifiedName, query string) error {
	src := fmt.Sprintf(
		"CREATE MODEL %s AS DROP TABLE IF EXISTS %s CASCADE; CREATE TABLE %s AS %s",
		qualifiedName, qualifiedName, qualifiedName, query)
	return c.registerStatement(src)
}

func (c *CompilerSteps) aRegisteredModelReferencing(qualifiedName, refTarget string) error {
	parts := strings.SplitN(refTarget, ".", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid ref target %q", refTarget)
	}
	query := fmt.Sprintf("select * from ref('%s','%s')", parts[0], parts[1])
	return c.aRegisteredModel(qualifiedName, query)
}

func (c *CompilerSteps) iResolveEffectiveConfig(name string) error {
	decl, err := c.store.GetKafkaSMT(catalog.KeyByName(name))
	if err != nil {
		return err
	}
	cfg, err := smt.Resolve(c.store, decl, nil)
	c.effectiveConfig = cfg
	c.lastErr = err
	return nil
}

func (c *CompilerSteps) iCompileConnector(name string) error {
	meta, err := c.store.GetKafkaConnector(name)
	if err != nil {
		return err
	}
	clusters := map[string]pconfig.KafkaClusterConfig{
		"main_cluster": {Name: "main_cluster", BootstrapServers: "broker:9092"},
	}
	adapters := map[string]pconfig.AdapterConnectionConfig{
		"pg_adapter": {Host: "db", Port: "5432", User: "u", Password: "p", Database: "d"},
		"wh_adapter": {Host: "warehouse", Database: "app", User: "loader", Password: "secret"},
	}
	compiled, err := kafkaconnector.Compile(c.store, meta, clusters, adapters)
	c.compiled = compiled
	c.lastErr = err
	return nil
}

func (c *CompilerSteps) iCompileModel(name string) error {
	decl, err := c.store.GetModel(name)
	if err != nil {
		return err
	}
	sql, err := modelcompiler.Compile(c.store, decl, modelcompiler.WarehouseSourceResolver(c.store))
	c.compiledModel = sql
	c.lastErr = err
	return err
}

func (c *CompilerSteps) iRegisterSecondModel(qualifiedName, query string) error {
	c.lastErr = c.aRegisteredModel(qualifiedName, query)
	return nil
}

func (c *CompilerSteps) iBuildTheDependencyGraph() error {
	_, err := dag.Build(c.store)
	c.lastErr = err
	return nil
}

func (c *CompilerSteps) theEffectiveConfigKeyEquals(key, want string) error {
	got, ok := c.effectiveConfig[key]
	if !ok {
		return fmt.Errorf("effective config has no key %q (config: %v)", key, c.effectiveConfig)
	}
	if got != want {
		return fmt.Errorf("effective config key %q = %q, want %q", key, got, want)
	}
	return nil
}

func (c *CompilerSteps) theCompiledConnectorFieldEquals(path, want string) error {
	if c.lastErr != nil {
		return fmt.Errorf("compile failed before field assertion: %w", c.lastErr)
	}
	got := jsonGet(c.compiled.JSON, path)
	if got != want {
		return fmt.Errorf("connector field %q = %q, want %q", path, got, want)
	}
	return nil
}

func (c *CompilerSteps) compilationFailsWithMissingConfig() error {
	if !errors.Is(c.lastErr, kafkaconnector.ErrMissingConfig) {
		return fmt.Errorf("expected compilation to fail with missing config, got %v", c.lastErr)
	}
	return nil
}

func (c *CompilerSteps) theCompiledModelSQLEquals(doc *godog.DocString) error {
	want := strings.TrimSpace(doc.Content)
	got := strings.TrimSpace(c.compiledModel)
	if got != want {
		return fmt.Errorf("compiled model SQL mismatch:\n got:  %q\n want: %q", got, want)
	}
	return nil
}

func (c *CompilerSteps) theRegistrationFailsWithDuplicate() error {
	if c.lastErr == nil || !catalog.IsDuplicate(c.lastErr) {
		return fmt.Errorf("expected a duplicate error, got %v", c.lastErr)
	}
	return nil
}

func (c *CompilerSteps) theCatalogModelStillHasQuery(name, want string) error {
	decl, err := c.store.GetModel(name)
	if err != nil {
		return err
	}
	if decl.AST.Query.Text != want {
		return fmt.Errorf("model %q query = %q, want %q", name, decl.AST.Query.Text, want)
	}
	return nil
}

func (c *CompilerSteps) graphConstructionFailsWithCycle(nodeA, nodeB string) error {
	if c.lastErr == nil {
		return fmt.Errorf("expected graph construction to fail")
	}
	var cycleErr *dag.CycleError
	if !asCycleError(c.lastErr, &cycleErr) {
		return fmt.Errorf("expected a *dag.CycleError, got %v", c.lastErr)
	}
	joined := strings.Join(cycleErr.Nodes, ",")
	if !strings.Contains(joined, nodeA) || !strings.Contains(joined, nodeB) {
		return fmt.Errorf("cycle %v does not contain both %q and %q", cycleErr.Nodes, nodeA, nodeB)
	}
	return nil
}
