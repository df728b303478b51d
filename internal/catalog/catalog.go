// Package catalog is the in-memory, reader-writer-locked store of
// registered artifacts (C3). Writers hold the write lock for the
// duration of a single registration; readers hold the read lock only
// for the duration of a single lookup and never retain it across a
// call back into the Store, so re-entrant pipeline registration can
// never deadlock (§5).
package catalog

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/sqlast"
)

// Store is the catalog. The zero value is not usable; construct with New.
type Store struct {
	mu sync.RWMutex

	transformsByID    map[string]*TransformDecl
	transformNameToID map[string]string
	pipelines         map[string]*PipelineDecl
	connectors        map[string]*KafkaConnectorMeta
	predicates        map[string]*PredicateDecl
	models            map[string]*ModelDecl
	pythons           map[string]*PythonDecl
	warehouseSources  map[string]WarehouseSourceDec // keyed by SourceRef.Key()
}

func New() *Store {
	return &Store{
		transformsByID:    make(map[string]*TransformDecl),
		transformNameToID: make(map[string]string),
		pipelines:         make(map[string]*PipelineDecl),
		connectors:        make(map[string]*KafkaConnectorMeta),
		predicates:        make(map[string]*PredicateDecl),
		models:            make(map[string]*ModelDecl),
		pythons:           make(map[string]*PythonDecl),
		warehouseSources:  make(map[string]WarehouseSourceDec),
	}
}

// Key identifies a transform lookup by either its stable id or its name.
type Key struct {
	byID  bool
	value string
}

func KeyByID(id string) Key     { return Key{byID: true, value: id} }
func KeyByName(name string) Key { return Key{byID: false, value: name} }

// RegisterWarehouseSources replaces any prior warehouse-source map with
// a new one, as the first step of register_nodes (§4.3).
func (s *Store) RegisterWarehouseSources(sources map[string]WarehouseSourceDec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := make(map[string]WarehouseSourceDec, len(sources))
	for k, v := range sources {
		m[k] = v
	}
	s.warehouseSources = m
}

// ResolveWarehouseSource looks up a (source_name, source_table) pair.
func (s *Store) ResolveWarehouseSource(ref SourceRef) (WarehouseSourceDec, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.warehouseSources[ref.Key()]
	if !ok {
		return WarehouseSourceDec{}, newNotFound("warehouse source", ref.Key())
	}
	return w, nil
}

// RegisterObject routes a single parsed statement to its kind-specific
// registrar. target is consulted only for CreateModel (§4.3).
func (s *Store) RegisterObject(stmt sqlast.Statement, target string) error {
	switch v := stmt.(type) {
	case *sqlast.CreateSMT:
		_, err := s.RegisterKafkaSMT(v)
		return err
	case *sqlast.CreateSMTPipeline:
		_, err := s.RegisterSMTPipeline(v)
		return err
	case *sqlast.CreateKafkaConnector:
		_, err := s.RegisterKafkaConnector(v)
		return err
	case *sqlast.CreateSMTPredicate:
		_, err := s.RegisterSMTPredicate(v)
		return err
	case *sqlast.CreateModel:
		_, err := s.RegisterModel(v, target)
		return err
	default:
		return fmt.Errorf("register_object: unsupported statement type %T", stmt)
	}
}

// RegisterKafkaSMT registers a transform declaration (§4.3).
func (s *Store) RegisterKafkaSMT(ast *sqlast.CreateSMT) (*TransformDecl, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transformNameToID[ast.Name]; exists {
		return nil, newDuplicate("transform", ast.Name, "")
	}

	decl := &TransformDecl{
		ID:        uuid.NewString(),
		Name:      ast.Name,
		Config:    kvToMap(ast.Config),
		Preset:    ast.Preset,
		Extend:    kvToMap(ast.Extend),
		CreatedAt: time.Now(),
		AST:       ast,
	}
	if ast.Predicate != "" {
		decl.Predicate = &PredicateRef{Name: ast.Predicate, Negate: ast.Negate}
	}

	s.transformsByID[decl.ID] = decl
	s.transformNameToID[decl.Name] = decl.ID
	return decl, nil
}

// RegisterSMTPipeline registers a pipeline, resolving every step's
// transform name to its stable id immediately (§3 invariant).
func (s *Store) RegisterSMTPipeline(ast *sqlast.CreateSMTPipeline) (*PipelineDecl, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pipelines[ast.Name]; exists {
		return nil, newDuplicate("pipeline", ast.Name, "")
	}

	steps := make([]PipelineTransformStep, 0, len(ast.Steps))
	for _, st := range ast.Steps {
		id, ok := s.transformNameToID[st.TransformName]
		if !ok {
			return nil, newNotFound("transform", st.TransformName)
		}
		args := make(map[string]string, len(st.Args))
		for _, a := range st.Args {
			args[a.Key] = a.Value.FormattedString()
		}
		steps = append(steps, PipelineTransformStep{
			TransformName: st.TransformName,
			TransformID:   id,
			Args:          args,
			Alias:         st.Alias,
		})
	}

	decl := &PipelineDecl{Name: ast.Name, Steps: steps, Predicate: ast.Predicate, AST: ast}
	s.pipelines[decl.Name] = decl
	return decl, nil
}

// RegisterKafkaConnector registers a connector declaration.
func (s *Store) RegisterKafkaConnector(ast *sqlast.CreateKafkaConnector) (*KafkaConnectorMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.connectors[ast.Name]; exists {
		return nil, newDuplicate("connector", ast.Name, "")
	}

	dbIdent := ast.SourceAdapter
	if ast.ConnectorType == sqlast.ConnectorSink {
		dbIdent = ast.WarehouseAdapter
	}

	decl := &KafkaConnectorMeta{
		Name:           ast.Name,
		ConnectorType:  ast.ConnectorType,
		Provider:       ast.Provider,
		SupportedDB:    ast.SupportedDB,
		ClusterIdent:   ast.ClusterIdent,
		DBIdent:        dbIdent,
		SchemaIdent:    ast.SchemaIdent,
		Pipelines:      append([]string(nil), ast.Pipelines...),
		WithProperties: kvToMap(ast.WithProperties),
		Version:        ast.Version.FormattedString(),
		AST:            ast,
	}
	s.connectors[decl.Name] = decl
	return decl, nil
}

// RegisterSMTPredicate registers a predicate declaration.
func (s *Store) RegisterSMTPredicate(ast *sqlast.CreateSMTPredicate) (*PredicateDecl, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.predicates[ast.Name]; exists {
		return nil, newDuplicate("predicate", ast.Name, "")
	}
	decl := &PredicateDecl{Name: ast.Name, ClassName: ast.ClassName, Pattern: ast.Pattern, HasPattern: ast.HasPattern}
	s.predicates[decl.Name] = decl
	return decl, nil
}

// RegisterModel registers a model declaration, partitioning its macro
// calls into refs and sources.
func (s *Store) RegisterModel(ast *sqlast.CreateModel, target string) (*ModelDecl, error) {
	schema := ast.Name.Schema()
	table := ast.Name.Table()
	name := DeriveModelName(schema, table)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.models[name]; exists {
		return nil, newDuplicate("model", name, "")
	}

	var refs []ModelRef
	var sources []SourceRef
	for _, call := range ast.Query.MacroCalls {
		switch call.Kind {
		case sqlast.MacroRef:
			refs = append(refs, NewModelRef(call.Args[0], call.Args[1]))
		case sqlast.MacroSource:
			sources = append(sources, SourceRef{SourceName: call.Args[0], SourceTable: call.Args[1]})
		}
	}

	decl := &ModelDecl{
		Schema:      schema,
		Table:       table,
		Name:        name,
		Materialize: ast.Materialize,
		Refs:        refs,
		Sources:     sources,
		Target:      target,
		AST:         ast,
	}
	s.models[decl.Name] = decl
	return decl, nil
}

// RegisterPythonNode registers a Python job declaration.
func (s *Store) RegisterPythonNode(decl *PythonDecl) (*PythonDecl, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pythons[decl.Name]; exists {
		return nil, newDuplicate("python", decl.Name, "")
	}
	s.pythons[decl.Name] = decl
	return decl, nil
}

// --- Getters: every getter returns a copy, never an interior pointer
// into the Store's own maps, so callers may freely mutate what they
// receive (§5's "shared-resource policy"). ---

func (s *Store) GetKafkaConnector(name string) (KafkaConnectorMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.connectors[name]
	if !ok {
		return KafkaConnectorMeta{}, newNotFound("connector", name)
	}
	return *c, nil
}

func (s *Store) GetKafkaSMT(key Key) (TransformDecl, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id := key.value
	if !key.byID {
		resolved, ok := s.transformNameToID[key.value]
		if !ok {
			return TransformDecl{}, newNotFound("transform", key.value)
		}
		id = resolved
	}
	t, ok := s.transformsByID[id]
	if !ok {
		return TransformDecl{}, newNotFound("transform", key.value)
	}
	return *t, nil
}

func (s *Store) GetSMTPipeline(name string) (PipelineDecl, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pipelines[name]
	if !ok {
		return PipelineDecl{}, newNotFound("pipeline", name)
	}
	return *p, nil
}

func (s *Store) GetModel(name string) (ModelDecl, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[name]
	if !ok {
		return ModelDecl{}, newNotFound("model", name)
	}
	return *m, nil
}

func (s *Store) GetSMTPredicate(name string) (PredicateDecl, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.predicates[name]
	if !ok {
		return PredicateDecl{}, newNotFound("predicate", name)
	}
	return *p, nil
}

// GetTransformIDsByName resolves a batch of transform names to ids,
// failing NotFound on the first miss.
func (s *Store) GetTransformIDsByName(names []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(names))
	for _, n := range names {
		id, ok := s.transformNameToID[n]
		if !ok {
			return nil, newNotFound("transform", n)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CollectCatalogNodes enumerates every registered artifact, used to
// drive DAG construction (C9).
func (s *Store) CollectCatalogNodes() []CatalogNode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var nodes []CatalogNode
	for _, t := range s.transformsByID {
		t := t
		nodes = append(nodes, CatalogNode{Name: t.Name, Kind: KindKafkaSmt, Transform: t})
	}
	for _, p := range s.pipelines {
		p := p
		nodes = append(nodes, CatalogNode{Name: p.Name, Kind: KindKafkaSmtPipeline, Pipeline: p})
	}
	for _, c := range s.connectors {
		c := c
		nodes = append(nodes, CatalogNode{Name: c.Name, Kind: KindKafkaConnector, Target: c.ClusterIdent, Connector: c})
	}
	for _, pr := range s.predicates {
		pr := pr
		nodes = append(nodes, CatalogNode{Name: pr.Name, Kind: KindKafkaPredicate, Predicate: pr})
	}
	for _, m := range s.models {
		m := m
		nodes = append(nodes, CatalogNode{Name: m.Name, Kind: KindModel, Target: m.Target, Model: m})
	}
	for _, py := range s.pythons {
		py := py
		nodes = append(nodes, CatalogNode{Name: py.Name, Kind: KindPython, Python: py})
	}
	return nodes
}

func kvToMap(props []sqlast.KVProperty) map[string]string {
	m := make(map[string]string, len(props))
	for _, kv := range props {
		m[kv.Key] = kv.Value.FormattedString()
	}
	return m
}
