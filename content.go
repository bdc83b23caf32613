package twinmodel

import (
	"encoding/json"
	"fmt"
)

// ContentKind discriminates the members an interface may declare.
type ContentKind string

const (
	Property     ContentKind = "Property"
	Telemetry    ContentKind = "Telemetry"
	Command      ContentKind = "Command"
	Relationship ContentKind = "Relationship"
)

// A ContentItem is one declared member of an interface: a property, a
// telemetry channel, a command, or a relationship to another interface.
//
// Name is unique within the interface's own locally declared contents.
// Uniqueness across inherited contents is not enforced here; the Resolver
// flattens collisions according to its override rule.
type ContentItem struct {
	Kind        ContentKind `json:"@type"`
	Name        string      `json:"name"`
	DisplayName LocaleText  `json:"displayName,omitempty"`
	// Schema names the value type of a Property or Telemetry item (e.g.
	// "double", "string"). Complex schemas (enums and the like) decode to
	// their raw JSON form; this package treats them as opaque.
	Schema   json.RawMessage `json:"schema,omitempty"`
	Writable bool            `json:"writable,omitempty"`
	Unit     string          `json:"unit,omitempty"`
	// Target names the interface a Relationship item points at.
	Target string `json:"target,omitempty"`
}

// SchemaName returns the schema as a plain type name when it is one (the
// common case), or "" for complex or absent schemas.
func (c ContentItem) SchemaName() string {
	var s string
	if err := json.Unmarshal(c.Schema, &s); err != nil {
		return ""
	}
	return s
}

// LocaleText is a display string that model authors may supply either as a
// plain string or as a map from locale tag to string. The map form collapses
// to the "en" entry, or any entry when "en" is absent.
type LocaleText string

func (t *LocaleText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = LocaleText(s)
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("locale text is neither string nor map: %w", err)
	}
	if s, ok := m["en"]; ok {
		*t = LocaleText(s)
		return nil
	}
	for _, v := range m {
		*t = LocaleText(v)
		return nil
	}
	*t = ""
	return nil
}

func (t LocaleText) MarshalJSON() ([]byte, error) { return json.Marshal(string(t)) }

func (t LocaleText) String() string { return string(t) }
