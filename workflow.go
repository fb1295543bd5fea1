package labflow

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Operation is one declared step of a workflow: an id unique within the
// workflow, a type selecting a registered handler, and parameters whose
// string values may reference the outputs of earlier operations.
type Operation struct {
	ID     string         `json:"id" yaml:"id" validate:"required"`
	Type   string         `json:"type" yaml:"type" validate:"required"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Options are used to configure a new workflow.
type Options struct {
	Name        string       `json:"name" yaml:"name" validate:"required"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Operations  []*Operation `json:"operations" yaml:"operations" validate:"required,min=1,dive,required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Workflow defines a repeatable process as an ordered list of operations.
// It is immutable once constructed and carries no execution state, so one
// workflow may back any number of executions.
type Workflow struct {
	name        string
	description string
	operations  []*Operation
}

// New returns a new Workflow configured with the given options.
func New(opts Options) (*Workflow, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid workflow definition: %w", err)
	}
	return &Workflow{
		name:        opts.Name,
		description: opts.Description,
		operations:  opts.Operations,
	}, nil
}

// Name returns the workflow name
func (w *Workflow) Name() string {
	return w.name
}

// Description returns the workflow description
func (w *Workflow) Description() string {
	return w.description
}

// Operations returns the workflow operations in declaration order
func (w *Workflow) Operations() []*Operation {
	return w.operations
}

// OperationIDs returns the operation ids in declaration order
func (w *Workflow) OperationIDs() []string {
	ids := make([]string, 0, len(w.operations))
	for _, op := range w.operations {
		ids = append(ids, op.ID)
	}
	return ids
}

// LoadFile loads a workflow definition from a JSON or YAML file.
func LoadFile(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}
	return LoadString(string(data))
}

// LoadString loads a workflow definition from a JSON or YAML document.
// JSON is a subset of YAML, so a single decoder handles both.
func LoadString(data string) (*Workflow, error) {
	var opts Options
	if err := yaml.Unmarshal([]byte(data), &opts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow: %w", err)
	}
	return New(opts)
}
