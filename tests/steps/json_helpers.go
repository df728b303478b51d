package steps

import (
	"errors"

	"github.com/tidwall/gjson"

	"github.com/lewisthorpe1994/pipeline-foundry/internal/dag"
)

func jsonGet(doc, path string) string {
	return gjson.Get(doc, path).String()
}

func asCycleError(err error, target **dag.CycleError) bool {
	return errors.As(err, target)
}
