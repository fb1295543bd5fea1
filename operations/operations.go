// Package operations provides the built-in operation handlers for the lab
// task service: cyclic voltammetry measurement, rolling mean smoothing, and
// peak detection.
package operations

import "github.com/deepnoodle-ai/labflow"

// Builtin returns the full set of built-in operation handlers.
func Builtin() []labflow.OperationHandler {
	return []labflow.OperationHandler{
		NewCVHandler(),
		NewRollingMeanHandler(),
		NewPeakDetectionHandler(),
	}
}
