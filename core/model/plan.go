package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// TransitionDone is the destination marking plan completion.
const TransitionDone = "_done_"

// EntityAction requests an entity to be activated or deactivated.
type EntityAction struct {
	Entity string `json:"entity" yaml:"entity"`
	Active bool   `json:"active" yaml:"active"`
}

// PlanManeuver is a maneuver node of a plan specification.
type PlanManeuver struct {
	ID           string         `json:"maneuver_id" yaml:"maneuver_id"`
	Data         Maneuver       `json:"data" yaml:"data"`
	StartActions []EntityAction `json:"start_actions,omitempty" yaml:"start_actions,omitempty"`
	EndActions   []EntityAction `json:"end_actions,omitempty" yaml:"end_actions,omitempty"`
}

// PlanTransition links two maneuvers. Dest may be TransitionDone.
type PlanTransition struct {
	Source     string `json:"source_man" yaml:"source_man"`
	Dest       string `json:"dest_man" yaml:"dest_man"`
	Conditions string `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// PlanSpecification is a complete mission plan as received from an operator.
type PlanSpecification struct {
	ID            string           `json:"plan_id" yaml:"plan_id"`
	Description   string           `json:"description,omitempty" yaml:"description,omitempty"`
	StartManeuver string           `json:"start_man_id" yaml:"start_man_id"`
	Maneuvers     []PlanManeuver   `json:"maneuvers" yaml:"maneuvers"`
	Transitions   []PlanTransition `json:"transitions" yaml:"transitions"`
	StartActions  []EntityAction   `json:"start_actions,omitempty" yaml:"start_actions,omitempty"`
	EndActions    []EntityAction   `json:"end_actions,omitempty" yaml:"end_actions,omitempty"`
}

type kindHeader struct {
	Type ManeuverKind `json:"type" yaml:"type"`
}

// MarshalJSON writes the maneuver data with its kind under "type".
func (p PlanManeuver) MarshalJSON() ([]byte, error) {
	type alias struct {
		ID           string          `json:"maneuver_id"`
		Data         json.RawMessage `json:"data,omitempty"`
		StartActions []EntityAction  `json:"start_actions,omitempty"`
		EndActions   []EntityAction  `json:"end_actions,omitempty"`
	}
	out := alias{ID: p.ID, StartActions: p.StartActions, EndActions: p.EndActions}
	if p.Data != nil {
		body, err := json.Marshal(p.Data)
		if err != nil {
			return nil, err
		}
		head := fmt.Sprintf(`{"type":%q`, p.Data.Kind())
		body = bytes.TrimSpace(body)
		if len(body) > 2 {
			out.Data = append([]byte(head+","), body[1:]...)
		} else {
			out.Data = []byte(head + "}")
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the maneuver data according to its "type".
func (p *PlanManeuver) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID           string          `json:"maneuver_id"`
		Data         json.RawMessage `json:"data"`
		StartActions []EntityAction  `json:"start_actions"`
		EndActions   []EntityAction  `json:"end_actions"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var head kindHeader
	if err := json.Unmarshal(raw.Data, &head); err != nil {
		return fmt.Errorf("maneuver %s: %w", raw.ID, err)
	}
	m, err := NewManeuver(head.Type)
	if err != nil {
		return fmt.Errorf("maneuver %s: %w", raw.ID, err)
	}
	if err := json.Unmarshal(raw.Data, m); err != nil {
		return fmt.Errorf("maneuver %s: %w", raw.ID, err)
	}
	*p = PlanManeuver{ID: raw.ID, Data: m, StartActions: raw.StartActions, EndActions: raw.EndActions}
	return nil
}

// UnmarshalYAML decodes the maneuver data according to its "type".
func (p *PlanManeuver) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		ID           string         `yaml:"maneuver_id"`
		Data         yaml.Node      `yaml:"data"`
		StartActions []EntityAction `yaml:"start_actions"`
		EndActions   []EntityAction `yaml:"end_actions"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	var head kindHeader
	if err := raw.Data.Decode(&head); err != nil {
		return fmt.Errorf("maneuver %s: %w", raw.ID, err)
	}
	m, err := NewManeuver(head.Type)
	if err != nil {
		return fmt.Errorf("maneuver %s: %w", raw.ID, err)
	}
	if err := raw.Data.Decode(m); err != nil {
		return fmt.Errorf("maneuver %s: %w", raw.ID, err)
	}
	*p = PlanManeuver{ID: raw.ID, Data: m, StartActions: raw.StartActions, EndActions: raw.EndActions}
	return nil
}
