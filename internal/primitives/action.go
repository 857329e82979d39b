package primitives

import (
	"encoding/json"
	"fmt"
)

// ActionKind tags the variant held by an ActionRef.
type ActionKind int

const (
	// NamedAction is a bare name resolved through the registry.
	NamedAction ActionKind = iota
	// DescriptorAction carries a type discriminant plus parameters.
	DescriptorAction
	// InvalidAction is an entry that is neither; the pipeline reports and skips it.
	InvalidAction
)

func (k ActionKind) String() string {
	switch k {
	case NamedAction:
		return "named"
	case DescriptorAction:
		return "descriptor"
	case InvalidAction:
		return "invalid"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

// ActionRef references one entry of an action list.
type ActionRef struct {
	Kind   ActionKind
	Name   string         // NamedAction
	Type   string         // DescriptorAction
	Params map[string]any // DescriptorAction, discriminant removed
	Raw    any            // InvalidAction, as written in the document
}

// Named creates a NamedAction reference.
func Named(name string) ActionRef {
	return ActionRef{Kind: NamedAction, Name: name}
}

// Descriptor creates a DescriptorAction reference. params is copied; an empty map is stored as nil.
func Descriptor(typ string, params map[string]any) ActionRef {
	var p map[string]any
	if len(params) > 0 {
		p = make(map[string]any, len(params))
		for k, v := range params {
			p[k] = v
		}
	}
	return ActionRef{Kind: DescriptorAction, Type: typ, Params: p}
}

// Invalid wraps a malformed entry.
func Invalid(raw any) ActionRef {
	return ActionRef{Kind: InvalidAction, Raw: raw}
}

// Key returns the registry key: the name for named actions, the type for descriptors.
func (a ActionRef) Key() string {
	switch a.Kind {
	case NamedAction:
		return a.Name
	case DescriptorAction:
		return a.Type
	default:
		return ""
	}
}

func (a ActionRef) String() string {
	switch a.Kind {
	case NamedAction:
		return a.Name
	case DescriptorAction:
		return fmt.Sprintf("%s%v", a.Type, a.Params)
	default:
		return fmt.Sprintf("invalid(%v)", a.Raw)
	}
}

// Canonical renders the entry in document form: a string for named actions,
// {type: ..., params...} for descriptors and the raw value for invalid entries.
func (a ActionRef) Canonical() any {
	switch a.Kind {
	case NamedAction:
		return a.Name
	case DescriptorAction:
		m := make(map[string]any, len(a.Params)+1)
		for k, v := range a.Params {
			m[k] = v
		}
		m[TypeKey] = a.Type
		return m
	default:
		return a.Raw
	}
}

func (a ActionRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Canonical())
}

func (a ActionRef) MarshalYAML() (any, error) {
	return a.Canonical(), nil
}
