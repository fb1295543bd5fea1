package operations

// PeakDetectionHandler maps peak detection operations onto "peak_detection"
// tasks. The analysis locates current peaks in a voltammogram trace.
type PeakDetectionHandler struct{}

func NewPeakDetectionHandler() *PeakDetectionHandler {
	return &PeakDetectionHandler{}
}

func (h *PeakDetectionHandler) Type() string {
	return "uo_sdl2_peak_detection"
}

func (h *PeakDetectionHandler) TaskKind() string {
	return "peak_detection"
}

type peakDetectionParams struct {
	csvID      string
	xCol       string
	yCol       string
	prominence float64

	height       float64
	hasHeight    bool
	distance     float64
	hasDistance  bool
	width        float64
	hasWidth     bool
	threshold    float64
	hasThreshold bool
}

func (h *PeakDetectionHandler) parse(operationID string, params map[string]any) (*peakDetectionParams, error) {
	csvID, err := requiredStringParam(operationID, params, "csv_id")
	if err != nil {
		return nil, err
	}
	xCol, err := stringParam(operationID, params, "x_col", "voltage")
	if err != nil {
		return nil, err
	}
	yCol, err := stringParam(operationID, params, "y_col", "current")
	if err != nil {
		return nil, err
	}
	prominence, err := floatParam(operationID, params, "prominence", 0.02)
	if err != nil {
		return nil, err
	}
	p := &peakDetectionParams{
		csvID:      csvID,
		xCol:       xCol,
		yCol:       yCol,
		prominence: prominence,
	}
	if p.height, p.hasHeight, err = optionalFloatParam(operationID, params, "height"); err != nil {
		return nil, err
	}
	if p.distance, p.hasDistance, err = optionalFloatParam(operationID, params, "distance"); err != nil {
		return nil, err
	}
	if p.width, p.hasWidth, err = optionalFloatParam(operationID, params, "width"); err != nil {
		return nil, err
	}
	if p.threshold, p.hasThreshold, err = optionalFloatParam(operationID, params, "threshold"); err != nil {
		return nil, err
	}
	return p, nil
}

func (h *PeakDetectionHandler) Validate(operationID string, params map[string]any) error {
	_, err := h.parse(operationID, params)
	return err
}

func (h *PeakDetectionHandler) BuildRequest(operationID string, params map[string]any) (map[string]any, error) {
	p, err := h.parse(operationID, params)
	if err != nil {
		return nil, err
	}
	request := map[string]any{
		"csv_id":     p.csvID,
		"x_col":      p.xCol,
		"y_col":      p.yCol,
		"prominence": p.prominence,
	}
	// Tuning parameters are only forwarded when the workflow sets them.
	if p.hasHeight {
		request["height"] = p.height
	}
	if p.hasDistance {
		request["distance"] = p.distance
	}
	if p.hasWidth {
		request["width"] = p.width
	}
	if p.hasThreshold {
		request["threshold"] = p.threshold
	}
	return request, nil
}
