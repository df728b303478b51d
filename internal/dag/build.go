package dag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lewisthorpe1994/pipeline-foundry/internal/catalog"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/sqlast"
)

// Build runs the two-pass construction described in §9: first every
// catalog artifact becomes a node (synthesizing the warehouse-source,
// source-db, and Kafka-topic nodes a connector implies), then a second
// pass wires edges from each node's declared relations.
func Build(store *catalog.Store) (*Graph, error) {
	g := newGraph()

	for _, cn := range store.CollectCatalogNodes() {
		if err := addCatalogNode(g, cn); err != nil {
			return nil, err
		}
	}

	if err := wireEdges(g); err != nil {
		return nil, err
	}

	if cycle := detectCycle(g); len(cycle) > 0 {
		return nil, &CycleError{Nodes: cycle}
	}

	return g, nil
}

func addCatalogNode(g *Graph, cn catalog.CatalogNode) error {
	switch cn.Kind {
	case catalog.KindModel:
		return addModelNode(g, cn.Model)
	case catalog.KindKafkaSmtPipeline:
		return addPipelineNode(g, cn.Pipeline)
	case catalog.KindKafkaSmt:
		// A standalone transform not wrapped in a pipeline carries no
		// DAG-visible dependency of its own; its preset/extend chain is
		// resolved at compile time (internal/smt), not modeled as an
		// edge here.
		return g.addNode(cn.Name, &Node{Name: cn.Name, Type: NodeKafkaSmt, IsExecutable: false}, true)
	case catalog.KindKafkaConnector:
		return addConnectorNode(g, cn.Connector)
	case catalog.KindKafkaPredicate, catalog.KindPython:
		return g.addNode(cn.Name, &Node{Name: cn.Name, Type: NodeOther, IsExecutable: false}, true)
	default:
		return fmt.Errorf("unhandled catalog node kind %v", cn.Kind)
	}
}

func addModelNode(g *Graph, m *catalog.ModelDecl) error {
	var rels []string
	for _, ref := range m.Refs {
		rels = append(rels, ref.Name)
	}
	for _, src := range m.Sources {
		rels = append(rels, src.Key())
	}
	if err := g.addNode(m.Name, &Node{Name: m.Name, Type: NodeModel, IsExecutable: true, Relations: rels}, true); err != nil {
		return err
	}
	for _, src := range m.Sources {
		key := src.Key()
		if err := g.addNode(key, &Node{Name: key, Type: NodeWarehouseSourceDb}, false); err != nil {
			return err
		}
	}
	return nil
}

func addPipelineNode(g *Graph, p *catalog.PipelineDecl) error {
	var rels []string
	for _, step := range p.Steps {
		rels = append(rels, step.TransformName)
	}
	return g.addNode(p.Name, &Node{Name: p.Name, Type: NodeKafkaSmtPipeline, IsExecutable: false, Relations: rels}, true)
}

func addConnectorNode(g *Graph, c *catalog.KafkaConnectorMeta) error {
	switch c.ConnectorType {
	case sqlast.ConnectorSource:
		return addSourceConnectorNode(g, c)
	default:
		return addSinkConnectorNode(g, c)
	}
}

func addSourceConnectorNode(g *Graph, c *catalog.KafkaConnectorMeta) error {
	rawRels, ok := c.WithProperties["table.include.list"]
	if !ok || rawRels == "" {
		return &MissingExpectedDependencyError{Node: c.Name, Relation: "table.include.list"}
	}
	rels := splitCSV(rawRels)

	if err := g.addNode(c.Name, &Node{Name: c.Name, Type: NodeKafkaSourceConnector, IsExecutable: true, Relations: rels}, true); err != nil {
		return err
	}
	for _, r := range rels {
		if err := g.addNode(r, &Node{Name: r, Type: NodeSourceDb}, false); err != nil {
			return err
		}
	}

	prefix, ok := c.WithProperties["topic.prefix"]
	if !ok || prefix == "" {
		return &MissingExpectedDependencyError{Node: c.Name, Relation: "topic.prefix"}
	}

	var topics []string
	for k, v := range c.WithProperties {
		if strings.HasSuffix(k, ".topic.replacement") {
			topics = append(topics, v)
		}
	}
	if len(topics) == 0 {
		for _, r := range rels {
			topics = append(topics, prefix+"."+r)
		}
	}
	sort.Strings(topics)

	for _, topic := range topics {
		err := g.addNode(topic, &Node{Name: topic, Type: NodeKafkaTopic, Relations: []string{c.Name}}, true)
		if err != nil {
			return err
		}
	}
	return nil
}

func addSinkConnectorNode(g *Graph, c *catalog.KafkaConnectorMeta) error {
	var topicRels []string
	if rawTopics, ok := c.WithProperties["topics"]; ok && rawTopics != "" {
		topicRels = splitCSV(rawTopics)
	} else if rawRegex, ok := c.WithProperties["topics.regex"]; ok && rawRegex != "" {
		topicRels = []string{rawRegex}
	} else {
		return &MissingExpectedDependencyError{Node: c.Name, Relation: "topics"}
	}

	if err := g.addNode(c.Name, &Node{Name: c.Name, Type: NodeKafkaSinkConnector, IsExecutable: true, Relations: topicRels}, true); err != nil {
		return err
	}

	warehouseTarget, ok := c.WithProperties["collection.name.format"]
	if !ok || warehouseTarget == "" {
		return &MissingExpectedDependencyError{Node: c.Name, Relation: "collection.name.format"}
	}
	return g.addNode(warehouseTarget, &Node{Name: warehouseTarget, Type: NodeWarehouseSourceDb, Relations: []string{c.Name}}, true)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// addNode inserts a node. For a duplicate KafkaTopic node (the one
// place two independent connectors are allowed to emit to the same
// topic name), the relation sets are merged instead of erroring; any
// other duplicate is rejected.
func (g *Graph) addNode(name string, n *Node, raiseOnDuplicate bool) error {
	existing, exists := g.nodes[name]
	if !exists {
		g.nodes[name] = n
		g.order = append(g.order, name)
		return nil
	}
	if n.Type == NodeKafkaTopic && existing.Type == NodeKafkaTopic {
		existing.Relations = mergeUnique(existing.Relations, n.Relations)
		return nil
	}
	if raiseOnDuplicate {
		return &DuplicateNodeError{Name: name}
	}
	return nil
}

func mergeUnique(a, b []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func wireEdges(g *Graph) error {
	for _, name := range g.order {
		n := g.nodes[name]
		for _, rel := range n.Relations {
			if _, ok := g.nodes[rel]; !ok {
				return &MissingExpectedDependencyError{Node: name, Relation: rel}
			}
			g.outEdges[rel] = append(g.outEdges[rel], name)
			g.inDegree[name]++
		}
	}
	return nil
}
