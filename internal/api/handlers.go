package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/catalog"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/kafkaconnector"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/modelcompiler"
)

// CatalogNodeView is the read-only projection of a catalog.CatalogNode
// this API exposes; it drops the AST pointers embedded in the
// underlying declarations since those have no useful JSON shape.
type CatalogNodeView struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Target string `json:"target,omitempty"`
}

func kindName(k catalog.ArtifactKind) string {
	switch k {
	case catalog.KindKafkaSmt:
		return "kafka_smt"
	case catalog.KindKafkaSmtPipeline:
		return "kafka_smt_pipeline"
	case catalog.KindKafkaConnector:
		return "kafka_connector"
	case catalog.KindKafkaPredicate:
		return "kafka_predicate"
	case catalog.KindModel:
		return "model"
	case catalog.KindPython:
		return "python"
	default:
		return "unknown"
	}
}

func ListCatalogNodesDocs() huma.Operation {
	return huma.Operation{
		OperationID: "list-catalog-nodes",
		Method:      http.MethodGet,
		Summary:     "List registered catalog artifacts",
	}
}

type ListCatalogNodesInput struct{}

type ListCatalogNodesResponse struct {
	Body []CatalogNodeView
}

func (h *handler) listCatalogNodes(_ context.Context, _ *ListCatalogNodesInput) (*ListCatalogNodesResponse, error) {
	nodes := h.store.CollectCatalogNodes()
	out := make([]CatalogNodeView, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, CatalogNodeView{Name: n.Name, Kind: kindName(n.Kind), Target: n.Target})
	}
	return &ListCatalogNodesResponse{Body: out}, nil
}

func GetDagToposortDocs() huma.Operation {
	return huma.Operation{
		OperationID: "get-dag-toposort",
		Method:      http.MethodGet,
		Summary:     "Return the global dependency order of every registered node",
	}
}

type GetDagToposortInput struct{}

type GetDagToposortResponse struct {
	Body []string
}

func (h *handler) getDagToposort(_ context.Context, _ *GetDagToposortInput) (*GetDagToposortResponse, error) {
	g, err := h.builder.Build(h.store)
	if err != nil {
		return nil, &ErrorDetail{Status: http.StatusUnprocessableEntity, Code: "dag_build_failed", Message: err.Error()}
	}
	order, err := g.Toposort()
	if err != nil {
		return nil, &ErrorDetail{Status: http.StatusUnprocessableEntity, Code: "cycle_detected", Message: err.Error()}
	}
	return &GetDagToposortResponse{Body: order}, nil
}

func GetDagPlanDocs() huma.Operation {
	return huma.Operation{
		OperationID: "get-dag-plan",
		Method:      http.MethodGet,
		Summary:     "Return the execution plan (upstream + downstream) for one model",
	}
}

type GetDagPlanInput struct {
	Model string `path:"model" minLength:"1" doc:"Model name"`
}

type GetDagPlanResponse struct {
	Body []string
}

func (h *handler) getDagPlan(_ context.Context, input *GetDagPlanInput) (*GetDagPlanResponse, error) {
	g, err := h.builder.Build(h.store)
	if err != nil {
		return nil, &ErrorDetail{Status: http.StatusUnprocessableEntity, Code: "dag_build_failed", Message: err.Error()}
	}
	nodes, err := g.GetModelExecutionOrder(input.Model)
	if err != nil {
		return nil, &ErrorDetail{Status: http.StatusUnprocessableEntity, Code: "cycle_detected", Message: err.Error()}
	}
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name
	}
	return &GetDagPlanResponse{Body: names}, nil
}

func CompileModelDocs() huma.Operation {
	return huma.Operation{
		OperationID: "compile-model",
		Method:      http.MethodPost,
		Summary:     "Compile a registered model's SQL",
	}
}

type CompileModelInput struct {
	Name string `path:"name" minLength:"1"`
}

type CompileModelResponse struct {
	Body struct {
		SQL string `json:"sql"`
	}
}

func (h *handler) compileModel(_ context.Context, input *CompileModelInput) (*CompileModelResponse, error) {
	model, err := h.store.GetModel(input.Name)
	if err != nil {
		return nil, &ErrorDetail{Status: http.StatusNotFound, Code: "not_found", Message: err.Error()}
	}

	sql, err := modelcompiler.Compile(h.store, model, modelcompiler.WarehouseSourceResolver(h.store))
	if err != nil {
		return nil, &ErrorDetail{Status: http.StatusUnprocessableEntity, Code: "compile_failed", Message: err.Error()}
	}

	resp := &CompileModelResponse{}
	resp.Body.SQL = sql
	return resp, nil
}

func CompileConnectorDocs() huma.Operation {
	return huma.Operation{
		OperationID: "compile-connector",
		Method:      http.MethodPost,
		Summary:     "Compile a registered Kafka connector into a worker config",
	}
}

type CompileConnectorInput struct {
	Name string `path:"name" minLength:"1"`
}

type CompileConnectorResponse struct {
	Body struct {
		Config string `json:"config"`
	}
}

func (h *handler) compileConnector(_ context.Context, input *CompileConnectorInput) (*CompileConnectorResponse, error) {
	meta, err := h.store.GetKafkaConnector(input.Name)
	if err != nil {
		return nil, &ErrorDetail{Status: http.StatusNotFound, Code: "not_found", Message: err.Error()}
	}

	compiled, err := kafkaconnector.Compile(h.store, meta, h.clusters, h.adapters)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if catalog.IsNotFound(err) {
			status = http.StatusNotFound
		}
		return nil, &ErrorDetail{Status: status, Code: "compile_failed", Message: err.Error()}
	}

	resp := &CompileConnectorResponse{}
	resp.Body.Config = compiled.JSON
	return resp, nil
}
