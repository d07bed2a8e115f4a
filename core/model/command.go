package model

// PlanOp is an operator request on the plan runtime.
type PlanOp string

const (
	PlanOpLoad  PlanOp = "load"
	PlanOpStart PlanOp = "start"
	PlanOpStop  PlanOp = "stop"
	PlanOpClear PlanOp = "clear"
)

// PlanCommand asks the vehicle to load, start, stop or clear a plan. Spec
// is required by PlanOpLoad and optional for PlanOpStart, which then loads
// it first.
type PlanCommand struct {
	RequestID string             `json:"request_id,omitempty"`
	Op        PlanOp             `json:"op"`
	Spec      *PlanSpecification `json:"spec,omitempty"`
}

// EntityStateReport is an entity activation state tagged with the entity
// label.
type EntityStateReport struct {
	Label string `json:"label"`
	EntityActivationState
}
