// Package registration implements the registration pipeline (C10):
// given a set of parsed source nodes and warehouse-source
// declarations, registers them into the catalog in priority order so
// that a transform a pipeline depends on is always registered before
// the pipeline itself.
package registration

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/catalog"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/parser"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/pconfig"
)

// SourceNode is one file this pipeline will parse and register. Python
// job nodes carry no SQL file to parse; RegisterPythonNode handles
// those directly.
type SourceNode struct {
	Path   string
	Kind   catalog.ArtifactKind
	Name   string
	Target string // model target connection name, empty otherwise
	Python *catalog.PythonDecl
}

// Options configures how source files are read.
type Options struct {
	// RetryAttempts bounds the number of times a transient file-read
	// failure (e.g. a network filesystem hiccup) is retried before the
	// node is reported as failed.
	RetryAttempts uint
}

func defaultOptions() Options { return Options{RetryAttempts: 3} }

// Run registers warehouse sources first, then every source node in
// priority order (KafkaSmt < KafkaSmtPipeline < KafkaConnector <
// everything else), matching the ordering invariant that a pipeline's
// transform references must already be resolvable when the pipeline
// itself is registered.
func Run(store *catalog.Store, nodes []SourceNode, warehouseSources map[string]pconfig.WarehouseSourceConfig, opts *Options) error {
	o := defaultOptions()
	if opts != nil {
		o = *opts
	}

	store.RegisterWarehouseSources(toCatalogWarehouseSources(warehouseSources))

	sorted := append([]SourceNode(nil), nodes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Kind.Priority() < sorted[j].Kind.Priority()
	})

	for _, node := range sorted {
		if err := registerOne(store, node, o); err != nil {
			return fmt.Errorf("register node %q (%s): %w", node.Name, node.Path, err)
		}
	}
	return nil
}

func registerOne(store *catalog.Store, node SourceNode, o Options) error {
	if node.Kind == catalog.KindPython {
		_, err := store.RegisterPythonNode(node.Python)
		return err
	}

	text, err := readSourceFile(node.Path, o.RetryAttempts)
	if err != nil {
		return err
	}

	stmt, err := parser.ParseStatement(text)
	if err != nil {
		return fmt.Errorf("parse %q: %w", node.Path, err)
	}

	return store.RegisterObject(stmt, node.Target)
}

// readSourceFile retries a transient read failure; a missing file is
// not retried, since retrying can't fix that.
func readSourceFile(path string, attempts uint) (string, error) {
	if attempts == 0 {
		attempts = 1
	}
	var content []byte
	err := retry.Do(
		func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				if os.IsNotExist(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			content = data
			return nil
		},
		retry.Attempts(attempts),
		retry.Delay(50*time.Millisecond),
	)
	if err != nil {
		return "", fmt.Errorf("read %q: %w", path, err)
	}
	return string(content), nil
}

func toCatalogWarehouseSources(in map[string]pconfig.WarehouseSourceConfig) map[string]catalog.WarehouseSourceDec {
	out := make(map[string]catalog.WarehouseSourceDec, len(in))
	for name, cfg := range in {
		out[name+"."+cfg.Table] = catalog.WarehouseSourceDec{
			Database: cfg.Database,
			Schema:   cfg.Schema,
			Table:    cfg.Table,
		}
	}
	return out
}
