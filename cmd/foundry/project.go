package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lewisthorpe1994/pipeline-foundry/internal/catalog"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/pconfig"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/parser"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/registration"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/sqlast"
)

// pythonJobFile is the on-disk shape of a Python job declaration; the
// catalog's EndpointType enum has no natural YAML representation, so
// this mirrors PythonDecl with string endpoint kinds and is converted
// after load.
type pythonJobFile struct {
	Name         string            `yaml:"name"`
	JobDir       string            `yaml:"job_dir"`
	Workspace    string            `yaml:"workspace"`
	Sources      map[string]string `yaml:"sources"`
	Destinations map[string]string `yaml:"destinations"`
}

func parseEndpointType(s string) (catalog.EndpointType, error) {
	switch strings.ToLower(s) {
	case "source_db":
		return catalog.EndpointSourceDb, nil
	case "warehouse_db":
		return catalog.EndpointWarehouseDb, nil
	case "api":
		return catalog.EndpointApi, nil
	case "kafka":
		return catalog.EndpointKafka, nil
	default:
		return 0, fmt.Errorf("unknown endpoint type %q", s)
	}
}

// discoverSourceNodes walks root for ".sql" files and for ".yml"/".yaml"
// files whose parent directory is named "jobs", and classifies each
// one; other files are skipped. Walking a project tree by convention
// is this CLI's job, not the config loader's: pconfig only reads files
// a caller already named.
func discoverSourceNodes(root string) ([]registration.SourceNode, error) {
	var nodes []registration.SourceNode

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".sql":
			node, err := classifySQLFile(path)
			if err != nil {
				return fmt.Errorf("classify %q: %w", path, err)
			}
			nodes = append(nodes, node)
		case ".yml", ".yaml":
			if filepath.Base(filepath.Dir(path)) == "jobs" {
				node, err := classifyPythonFile(path)
				if err != nil {
					return fmt.Errorf("classify %q: %w", path, err)
				}
				nodes = append(nodes, node)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk project %q: %w", root, err)
	}
	return nodes, nil
}

func classifySQLFile(path string) (registration.SourceNode, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return registration.SourceNode{}, err
	}

	stmt, err := parser.ParseStatement(string(raw))
	if err != nil {
		return registration.SourceNode{}, fmt.Errorf("parse: %w", err)
	}

	node := registration.SourceNode{Path: path}
	switch s := stmt.(type) {
	case *sqlast.CreateSMT:
		node.Kind, node.Name = catalog.KindKafkaSmt, s.Name
	case *sqlast.CreateSMTPipeline:
		node.Kind, node.Name = catalog.KindKafkaSmtPipeline, s.Name
	case *sqlast.CreateSMTPredicate:
		node.Kind, node.Name = catalog.KindKafkaPredicate, s.Name
	case *sqlast.CreateKafkaConnector:
		node.Kind, node.Name = catalog.KindKafkaConnector, s.Name
	case *sqlast.CreateModel:
		node.Kind, node.Name = catalog.KindModel, s.Name.String()
		node.Target = modelTargetFromFilename(path)
	default:
		return registration.SourceNode{}, fmt.Errorf("unrecognized statement type %T", stmt)
	}
	return node, nil
}

// modelTargetFromFilename maps a model file to its warehouse
// connection by the name of the directory immediately above it,
// e.g. "models/warehouse_a/orders.sql" targets "warehouse_a".
func modelTargetFromFilename(path string) string {
	return filepath.Base(filepath.Dir(path))
}

func classifyPythonFile(path string) (registration.SourceNode, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return registration.SourceNode{}, err
	}

	var jf pythonJobFile
	if err := yaml.Unmarshal(raw, &jf); err != nil {
		return registration.SourceNode{}, fmt.Errorf("parse python job: %w", err)
	}

	decl := &catalog.PythonDecl{
		Name:         jf.Name,
		JobDir:       jf.JobDir,
		Workspace:    jf.Workspace,
		Sources:      make(map[string]catalog.EndpointType, len(jf.Sources)),
		Destinations: make(map[string]catalog.EndpointType, len(jf.Destinations)),
	}
	for name, kind := range jf.Sources {
		et, err := parseEndpointType(kind)
		if err != nil {
			return registration.SourceNode{}, fmt.Errorf("source %q: %w", name, err)
		}
		decl.Sources[name] = et
	}
	for name, kind := range jf.Destinations {
		et, err := parseEndpointType(kind)
		if err != nil {
			return registration.SourceNode{}, fmt.Errorf("destination %q: %w", name, err)
		}
		decl.Destinations[name] = et
	}

	return registration.SourceNode{
		Path:   path,
		Kind:   catalog.KindPython,
		Name:   jf.Name,
		Python: decl,
	}, nil
}

func loadWarehouseSources(path string) (map[string]pconfig.WarehouseSourceConfig, error) {
	if path == "" {
		return nil, nil
	}
	list, err := pconfig.LoadWarehouseSources(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]pconfig.WarehouseSourceConfig, len(list))
	for _, s := range list {
		out[s.Name] = s
	}
	return out, nil
}

func loadKafkaClusters(path string) (map[string]pconfig.KafkaClusterConfig, error) {
	if path == "" {
		return nil, nil
	}
	list, err := pconfig.LoadKafkaClusters(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]pconfig.KafkaClusterConfig, len(list))
	for _, c := range list {
		out[c.Name] = c
	}
	return out, nil
}

func buildCatalog(projectDir, warehouseSourcesPath string) (*catalog.Store, error) {
	nodes, err := discoverSourceNodes(projectDir)
	if err != nil {
		return nil, err
	}

	sources, err := loadWarehouseSources(warehouseSourcesPath)
	if err != nil {
		return nil, fmt.Errorf("load warehouse sources: %w", err)
	}

	store := catalog.New()
	if err := registration.Run(store, nodes, sources, nil); err != nil {
		return nil, fmt.Errorf("register project %q: %w", projectDir, err)
	}
	return store, nil
}
