package labflow

import (
	"fmt"
	"sort"
)

// OperationHandler validates an operation's resolved parameters and maps
// them to the request shape the task service expects for its kind.
type OperationHandler interface {
	// Type returns the operation type string the handler serves.
	Type() string

	// TaskKind returns the remote task kind requests are submitted under.
	TaskKind() string

	// Validate checks resolved parameters for presence and type. It is
	// called strictly after reference resolution.
	Validate(operationID string, params map[string]any) error

	// BuildRequest maps validated parameters into the remote request body,
	// applying the handler's defaults. The mapping is pure.
	BuildRequest(operationID string, params map[string]any) (map[string]any, error)
}

// Registry is a fixed lookup table of operation handlers keyed by type. It
// is immutable once constructed.
type Registry struct {
	handlers map[string]OperationHandler
}

// NewRegistry builds a registry from the given handlers. Registering two
// handlers for the same type is a construction error.
func NewRegistry(handlers ...OperationHandler) (*Registry, error) {
	if len(handlers) == 0 {
		return nil, fmt.Errorf("at least one handler is required")
	}
	byType := make(map[string]OperationHandler, len(handlers))
	for _, handler := range handlers {
		opType := handler.Type()
		if opType == "" {
			return nil, fmt.Errorf("handler has empty operation type")
		}
		if _, exists := byType[opType]; exists {
			return nil, fmt.Errorf("handler for type %q already registered", opType)
		}
		byType[opType] = handler
	}
	return &Registry{handlers: byType}, nil
}

// Handler returns the handler for an operation's type.
func (r *Registry) Handler(operationID, operationType string) (OperationHandler, error) {
	handler, ok := r.handlers[operationType]
	if !ok {
		return nil, &UnsupportedOperationError{OperationID: operationID, Type: operationType}
	}
	return handler, nil
}

// Types returns the registered operation types in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.handlers))
	for opType := range r.handlers {
		types = append(types, opType)
	}
	sort.Strings(types)
	return types
}
