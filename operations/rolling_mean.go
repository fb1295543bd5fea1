package operations

// RollingMeanHandler maps rolling mean operations onto "rolling_mean" tasks.
// The analysis smooths a recorded trace by averaging the y column over a
// sliding window.
type RollingMeanHandler struct{}

func NewRollingMeanHandler() *RollingMeanHandler {
	return &RollingMeanHandler{}
}

func (h *RollingMeanHandler) Type() string {
	return "uo_sdl2_rolling_mean"
}

func (h *RollingMeanHandler) TaskKind() string {
	return "rolling_mean"
}

type rollingMeanParams struct {
	csvID         string
	xCol          string
	yCol          string
	windowSize    int
	minPeriods    int
	hasMinPeriods bool
}

func (h *RollingMeanHandler) parse(operationID string, params map[string]any) (*rollingMeanParams, error) {
	csvID, err := requiredStringParam(operationID, params, "csv_id")
	if err != nil {
		return nil, err
	}
	xCol, err := stringParam(operationID, params, "x_col", "time")
	if err != nil {
		return nil, err
	}
	yCol, err := stringParam(operationID, params, "y_col", "current")
	if err != nil {
		return nil, err
	}
	windowSize, err := intParam(operationID, params, "window_size", 20)
	if err != nil {
		return nil, err
	}
	minPeriods, hasMinPeriods, err := optionalIntParam(operationID, params, "min_periods")
	if err != nil {
		return nil, err
	}
	return &rollingMeanParams{
		csvID:         csvID,
		xCol:          xCol,
		yCol:          yCol,
		windowSize:    windowSize,
		minPeriods:    minPeriods,
		hasMinPeriods: hasMinPeriods,
	}, nil
}

func (h *RollingMeanHandler) Validate(operationID string, params map[string]any) error {
	_, err := h.parse(operationID, params)
	return err
}

func (h *RollingMeanHandler) BuildRequest(operationID string, params map[string]any) (map[string]any, error) {
	p, err := h.parse(operationID, params)
	if err != nil {
		return nil, err
	}
	request := map[string]any{
		"csv_id":      p.csvID,
		"x_col":       p.xCol,
		"y_col":       p.yCol,
		"window_size": p.windowSize,
	}
	// min_periods is only forwarded when the workflow sets it; the service
	// applies its own default otherwise.
	if p.hasMinPeriods {
		request["min_periods"] = p.minPeriods
	}
	return request, nil
}
