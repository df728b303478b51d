// Package api exposes a read-only HTTP surface over a catalog.Store:
// listing registered artifacts, inspecting dependency order, and
// compiling a single model or connector on demand. It never mutates
// the catalog — registration happens once at process startup via
// the registration package.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humamux"
	"github.com/gorilla/mux"

	"github.com/lewisthorpe1994/pipeline-foundry/internal/catalog"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/dag"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/pconfig"
)

type handler struct {
	log      *slog.Logger
	store    *catalog.Store
	builder  dag.Builder
	api      huma.API
	clusters map[string]pconfig.KafkaClusterConfig
	adapters map[string]pconfig.AdapterConnectionConfig
}

// NewRouter builds the HTTP handler serving the read-only catalog API
// backed by store. clusters and adapters resolve a connector's
// USING KAFKA CLUSTER / FROM SOURCE DATABASE / INTO WAREHOUSE DATABASE
// idents on every compile request; either may be nil for a server that
// only ever compiles models.
func NewRouter(log *slog.Logger, store *catalog.Store, clusters map[string]pconfig.KafkaClusterConfig, adapters map[string]pconfig.AdapterConnectionConfig) http.Handler {
	r := mux.NewRouter()

	config := huma.DefaultConfig("Pipeline Foundry API", "1.0.0")
	config.Info.Description = "Read-only inspection and on-demand compilation of a registered pipeline catalog"
	config.CreateHooks = nil

	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		if len(errs) >= 1 {
			log.Error("request failed", "status", status, "message", message, "errors", errs)
		}
		return &ErrorDetail{Status: status, Message: message}
	}

	humaAPI := humamux.New(r, config)

	h := handler{log: log, store: store, builder: dag.DefaultBuilder{}, api: humaAPI, clusters: clusters, adapters: adapters}

	registerHumaHandler("/catalog/nodes", h.listCatalogNodes, log, ListCatalogNodesDocs(), humaAPI)
	registerHumaHandler("/dag/toposort", h.getDagToposort, log, GetDagToposortDocs(), humaAPI)
	registerHumaHandler("/dag/plan/{model}", h.getDagPlan, log, GetDagPlanDocs(), humaAPI)
	registerHumaHandler("/compile/model/{name}", h.compileModel, log, CompileModelDocs(), humaAPI)
	registerHumaHandler("/compile/connector/{name}", h.compileConnector, log, CompileConnectorDocs(), humaAPI)

	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)

	r.Use(Recovery(log), RequestLogging(log))

	return r
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func registerHumaHandler[I, O any](
	path string,
	fn func(context.Context, *I) (*O, error),
	log *slog.Logger,
	op huma.Operation,
	api huma.API,
) {
	op.Path = path
	huma.Register(api, op, func(ctx context.Context, input *I) (*O, error) {
		output, err := fn(ctx, input)
		if err == nil {
			return output, nil
		}

		var detail *ErrorDetail
		if !errors.As(err, &detail) {
			log.ErrorContext(ctx, err.Error())
			return output, err
		}

		log.ErrorContext(ctx, detail.Error(), slog.Any("details", detail.Details), slog.Int("status", detail.Status))

		if detail.Status == http.StatusInternalServerError {
			detail.Details = nil
			detail.Message = "internal server error"
		}

		return output, detail
	})
}
