package api

import (
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lewisthorpe1994/pipeline-foundry/internal/catalog"
	"github.com/lewisthorpe1994/pipeline-foundry/internal/dag"
)

func TestGetDagToposort_BuildFailurePropagatesAsUnprocessable(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := NewMockBuilder(ctrl)
	store := catalog.New()
	builder.EXPECT().Build(store).Return(nil, &dag.MissingExpectedDependencyError{Node: "sink-a", Relation: "collection.name.format"})

	h := &handler{log: slog.Default(), store: store, builder: builder}

	resp, err := h.getDagToposort(context.Background(), &GetDagToposortInput{})
	require.Nil(t, resp)
	require.Error(t, err)

	var detail *ErrorDetail
	require.ErrorAs(t, err, &detail)
	assert.Equal(t, http.StatusUnprocessableEntity, detail.Status)
	assert.Equal(t, "dag_build_failed", detail.Code)
}

func TestGetDagToposort_ReturnsBuilderOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := NewMockBuilder(ctrl)
	store := catalog.New()

	emptyGraph, err := dag.Build(store)
	require.NoError(t, err)
	builder.EXPECT().Build(store).Return(emptyGraph, nil)

	h := &handler{log: slog.Default(), store: store, builder: builder}

	resp, err := h.getDagToposort(context.Background(), &GetDagToposortInput{})
	require.NoError(t, err)
	assert.Empty(t, resp.Body)
}
