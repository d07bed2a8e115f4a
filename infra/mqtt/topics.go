package mqtt

import "strings"

// Topics lists the topics the bridge uses under a common prefix.
type Topics struct {
	EstimatedState string
	VehicleState   string
	ManeuverState  string
	FuelLevel      string
	EntityState    string
	PlanCommand    string

	Progress   string
	Statistics string
	PlanState  string
	prefix     string
}

// NewTopics builds the topic set under prefix, "auv" when empty.
func NewTopics(prefix string) Topics {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		prefix = "auv"
	}
	return Topics{
		EstimatedState: prefix + "/telemetry/estimated_state",
		VehicleState:   prefix + "/telemetry/vehicle_state",
		ManeuverState:  prefix + "/telemetry/maneuver_state",
		FuelLevel:      prefix + "/telemetry/fuel_level",
		EntityState:    prefix + "/telemetry/entity_state",
		PlanCommand:    prefix + "/plan/command",
		Progress:       prefix + "/plan/progress",
		Statistics:     prefix + "/plan/statistics",
		PlanState:      prefix + "/plan/state",
		prefix:         prefix,
	}
}

// Activation returns the activation request topic of an entity.
func (t Topics) Activation(entity string) string {
	return t.prefix + "/entity/" + entity + "/activation"
}
