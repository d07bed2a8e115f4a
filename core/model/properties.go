package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PlanProperties is a set of named plan property flags. Flags are only ever
// added; a fresh load starts from the empty set.
type PlanProperties uint8

const (
	PropNonLinear PlanProperties = 1 << iota
	PropInfinite
	PropCyclical
)

var propertyNames = []struct {
	flag PlanProperties
	name string
}{
	{PropNonLinear, "non-linear"},
	{PropInfinite, "infinite"},
	{PropCyclical, "cyclical"},
}

// Has reports whether every flag in f is set.
func (p PlanProperties) Has(f PlanProperties) bool { return p&f == f }

// Set adds the flags in f.
func (p *PlanProperties) Set(f PlanProperties) { *p |= f }

// IsLinear reports whether the non-linear flag is unset.
func (p PlanProperties) IsLinear() bool { return !p.Has(PropNonLinear) }

// Names lists the set flags in a stable order.
func (p PlanProperties) Names() []string {
	var out []string
	for _, pn := range propertyNames {
		if p.Has(pn.flag) {
			out = append(out, pn.name)
		}
	}
	return out
}

func (p PlanProperties) String() string {
	names := p.Names()
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

func (p PlanProperties) MarshalJSON() ([]byte, error) {
	names := p.Names()
	if names == nil {
		names = []string{}
	}
	return json.Marshal(names)
}

func (p *PlanProperties) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	var out PlanProperties
	for _, n := range names {
		found := false
		for _, pn := range propertyNames {
			if pn.name == n {
				out.Set(pn.flag)
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown plan property %q", n)
		}
	}
	*p = out
	return nil
}
