// Package backend provides the execution stage of the pipeline.
package backend

import (
	"github.com/funvibe/funphp/internal/pipeline"
	"github.com/funvibe/funphp/internal/value"
)

// Backend is the interface for execution backends
type Backend interface {
	// Run executes the program from pipeline context and returns the value
	// of a top-level return, or Null.
	Run(ctx *pipeline.PipelineContext) (value.Value, error)

	// Name returns the backend name for display
	Name() string
}
