package operations

import "github.com/deepnoodle-ai/labflow"

// Parameter readers shared by the handlers. Values arrive from JSON or YAML
// decoding, so numbers may be float64, int, or int64 depending on the
// decoder and the literal.

func requiredStringParam(operationID string, params map[string]any, name string) (string, error) {
	value, ok := params[name]
	if !ok || value == nil {
		return "", &labflow.MissingParameterError{OperationID: operationID, Parameter: name}
	}
	s, ok := value.(string)
	if !ok {
		return "", &labflow.InvalidParameterTypeError{OperationID: operationID, Parameter: name, Expected: "a string"}
	}
	return s, nil
}

func stringParam(operationID string, params map[string]any, name, fallback string) (string, error) {
	value, ok := params[name]
	if !ok || value == nil {
		return fallback, nil
	}
	s, ok := value.(string)
	if !ok {
		return "", &labflow.InvalidParameterTypeError{OperationID: operationID, Parameter: name, Expected: "a string"}
	}
	return s, nil
}

func floatParam(operationID string, params map[string]any, name string, fallback float64) (float64, error) {
	value, ok := params[name]
	if !ok || value == nil {
		return fallback, nil
	}
	f, ok := asFloat(value)
	if !ok {
		return 0, &labflow.InvalidParameterTypeError{OperationID: operationID, Parameter: name, Expected: "a number"}
	}
	return f, nil
}

func optionalFloatParam(operationID string, params map[string]any, name string) (float64, bool, error) {
	value, ok := params[name]
	if !ok || value == nil {
		return 0, false, nil
	}
	f, ok := asFloat(value)
	if !ok {
		return 0, false, &labflow.InvalidParameterTypeError{OperationID: operationID, Parameter: name, Expected: "a number"}
	}
	return f, true, nil
}

func intParam(operationID string, params map[string]any, name string, fallback int) (int, error) {
	value, ok := params[name]
	if !ok || value == nil {
		return fallback, nil
	}
	n, ok := asInt(value)
	if !ok {
		return 0, &labflow.InvalidParameterTypeError{OperationID: operationID, Parameter: name, Expected: "an integer"}
	}
	return n, nil
}

func optionalIntParam(operationID string, params map[string]any, name string) (int, bool, error) {
	value, ok := params[name]
	if !ok || value == nil {
		return 0, false, nil
	}
	n, ok := asInt(value)
	if !ok {
		return 0, false, &labflow.InvalidParameterTypeError{OperationID: operationID, Parameter: name, Expected: "an integer"}
	}
	return n, true, nil
}

func floatSliceParam(operationID string, params map[string]any, name string, fallback []float64) ([]float64, error) {
	value, ok := params[name]
	if !ok || value == nil {
		return fallback, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, &labflow.InvalidParameterTypeError{OperationID: operationID, Parameter: name, Expected: "an array of numbers"}
	}
	result := make([]float64, len(items))
	for i, item := range items {
		f, ok := asFloat(item)
		if !ok {
			return nil, &labflow.InvalidParameterTypeError{OperationID: operationID, Parameter: name, Expected: "an array of numbers"}
		}
		result[i] = f
	}
	return result, nil
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// asInt accepts integral values, including whole floats produced by JSON
// decoding.
func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}
