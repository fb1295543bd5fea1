package labflow

import (
	"regexp"
	"strconv"
	"strings"
)

// referencePattern matches parameter values that point into a prior
// operation's output, e.g. "$measure.output.id" or
// "$analyze.output.peaks.0.voltage".
var referencePattern = regexp.MustCompile(`^\$([A-Za-z0-9_]+)\.output\.(.+)$`)

// ResolveParams resolves every parameter value against the outputs of
// previously completed operations. Literal values pass through unchanged.
func ResolveParams(params map[string]any, priorOutputs map[string]map[string]any) (map[string]any, error) {
	resolved := make(map[string]any, len(params))
	for name, value := range params {
		v, err := ResolveValue(value, priorOutputs)
		if err != nil {
			return nil, err
		}
		resolved[name] = v
	}
	return resolved, nil
}

// ResolveValue resolves one parameter value. A string matching the reference
// grammar is replaced with the referenced output field. Arrays and objects
// are resolved element by element. Everything else is returned unchanged.
func ResolveValue(value any, priorOutputs map[string]map[string]any) (any, error) {
	switch v := value.(type) {
	case string:
		match := referencePattern.FindStringSubmatch(v)
		if match == nil {
			return v, nil
		}
		return resolveReference(v, match[1], match[2], priorOutputs)
	case []any:
		resolved := make([]any, len(v))
		for i, item := range v {
			r, err := ResolveValue(item, priorOutputs)
			if err != nil {
				return nil, err
			}
			resolved[i] = r
		}
		return resolved, nil
	case map[string]any:
		resolved := make(map[string]any, len(v))
		for name, item := range v {
			r, err := ResolveValue(item, priorOutputs)
			if err != nil {
				return nil, err
			}
			resolved[name] = r
		}
		return resolved, nil
	default:
		return value, nil
	}
}

// resolveReference walks the dotted field path through the referenced
// operation's entry. The grammar guarantees the walk starts under "output".
func resolveReference(reference, operationID, fieldPath string, priorOutputs map[string]map[string]any) (any, error) {
	entry, ok := priorOutputs[operationID]
	if !ok {
		return nil, &UnknownReferenceError{Reference: reference, TargetID: operationID}
	}
	var current any = entry
	segments := append([]string{"output"}, strings.Split(fieldPath, ".")...)
	for _, segment := range segments {
		next, ok := walkSegment(current, segment)
		if !ok {
			return nil, &InvalidFieldPathError{Reference: reference, TargetID: operationID, Segment: segment}
		}
		current = next
	}
	return current, nil
}

// walkSegment indexes one path segment into a mapping, or into a sequence
// when the segment parses as a non-negative integer.
func walkSegment(value any, segment string) (any, bool) {
	switch v := value.(type) {
	case map[string]any:
		item, ok := v[segment]
		return item, ok
	case []any:
		index, err := strconv.Atoi(segment)
		if err != nil || index < 0 || index >= len(v) {
			return nil, false
		}
		return v[index], true
	default:
		return nil, false
	}
}
