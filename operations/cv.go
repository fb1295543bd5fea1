package operations

import "github.com/deepnoodle-ai/labflow"

// CVHandler maps cyclic voltammetry operations onto "cv" tasks. The
// measurement sweeps the cell voltage across a range at a fixed frequency
// and records the resulting current trace as a CSV.
type CVHandler struct{}

func NewCVHandler() *CVHandler {
	return &CVHandler{}
}

func (h *CVHandler) Type() string {
	return "uo_sdl2_cv"
}

func (h *CVHandler) TaskKind() string {
	return "cv"
}

type cvParams struct {
	vRange []float64
	freq   float64
}

func (h *CVHandler) parse(operationID string, params map[string]any) (*cvParams, error) {
	vRange, err := floatSliceParam(operationID, params, "v_range", []float64{-0.5, 0.5})
	if err != nil {
		return nil, err
	}
	if len(vRange) != 2 {
		return nil, &labflow.InvalidParameterTypeError{
			OperationID: operationID,
			Parameter:   "v_range",
			Expected:    "an array of two numbers",
		}
	}
	freq, err := floatParam(operationID, params, "freq", 0.1)
	if err != nil {
		return nil, err
	}
	return &cvParams{vRange: vRange, freq: freq}, nil
}

func (h *CVHandler) Validate(operationID string, params map[string]any) error {
	_, err := h.parse(operationID, params)
	return err
}

func (h *CVHandler) BuildRequest(operationID string, params map[string]any) (map[string]any, error) {
	p, err := h.parse(operationID, params)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"v_range": p.vRange,
		"freq":    p.freq,
	}, nil
}
