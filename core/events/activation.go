package events

import "time"

// ActivationEvent requests an entity to change activation state. Reason
// tells which plan step triggered it.
type ActivationEvent struct {
	PlanID string
	Entity string
	Active bool
	Reason string
	Time   time.Time
}
