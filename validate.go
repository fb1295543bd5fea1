package labflow

// ValidateWorkflow checks a workflow against a registry without executing
// anything: operation ids must be unique, every operation type must have a
// handler, and every reference must target an operation declared earlier in
// the workflow. Field paths are not checked; they depend on remote output.
func ValidateWorkflow(workflow *Workflow, registry *Registry) error {
	operations := workflow.Operations()
	if err := checkDuplicateIDs(operations); err != nil {
		return err
	}
	declared := make(map[string]struct{}, len(operations))
	for _, op := range operations {
		if _, err := registry.Handler(op.ID, op.Type); err != nil {
			return err
		}
		for _, value := range op.Params {
			if err := checkReferences(value, declared); err != nil {
				return err
			}
		}
		declared[op.ID] = struct{}{}
	}
	return nil
}

// checkReferences walks a parameter value and verifies that every reference
// targets a previously declared operation.
func checkReferences(value any, declared map[string]struct{}) error {
	switch v := value.(type) {
	case string:
		match := referencePattern.FindStringSubmatch(v)
		if match == nil {
			return nil
		}
		if _, ok := declared[match[1]]; !ok {
			return &UnknownReferenceError{Reference: v, TargetID: match[1]}
		}
		return nil
	case []any:
		for _, item := range v {
			if err := checkReferences(item, declared); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		for _, item := range v {
			if err := checkReferences(item, declared); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}
