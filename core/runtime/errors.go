package runtime

import (
	"errors"
	"fmt"
)

var (
	// ErrDepthUnsafe is the reason of an InvalidPlanSpecError raised by a
	// maneuver going deeper than allowed.
	ErrDepthUnsafe = errors.New("maneuver depth beyond limits")
	// ErrUnsupportedManeuver is the reason of an InvalidPlanSpecError raised
	// by a maneuver kind the vehicle cannot execute.
	ErrUnsupportedManeuver = errors.New("maneuver is not supported")
)

// InvalidPlanSpecError rejects a plan because of one of its maneuvers.
type InvalidPlanSpecError struct {
	ManeuverID string
	Reason     error
}

func (e *InvalidPlanSpecError) Error() string {
	return fmt.Sprintf("%s: %v", e.ManeuverID, e.Reason)
}

func (e *InvalidPlanSpecError) Unwrap() error { return e.Reason }
