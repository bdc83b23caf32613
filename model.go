package twinmodel

import (
	"encoding/json"
	"fmt"
	"strings"
)

// An Interface is a named, inheritable schema for a class of twins. It is
// supplied to the Registry as already-parsed structured data; reading raw
// model files is a collaborator concern.
//
// Interfaces are treated as immutable once registered: the Resolver observes
// a consistent value for the duration of a resolve call.
type Interface struct {
	// ID is an opaque identifier, globally unique within a Registry.
	ID          string     `json:"@id"`
	DisplayName LocaleText `json:"displayName,omitempty"`
	Description LocaleText `json:"description,omitempty"`
	// Extends lists the parent interfaces, in declaration order. Model
	// authors may encode a single id or an ordered list; both decode here.
	Extends ExtendsList `json:"extends,omitempty"`
	// Contents are the interface's own locally declared members, in
	// declaration order.
	Contents []ContentItem `json:"contents,omitempty"`
}

// Label returns a short human-readable name for the interface: the display
// name when present, otherwise the last segment of the id. For example,
// "dtmi:com:industrial:Pump;1" labels as "Pump".
func (f Interface) Label() string {
	if f.DisplayName != "" {
		return string(f.DisplayName)
	}
	id := f.ID
	if i := strings.LastIndexByte(id, ':'); i >= 0 {
		id = id[i+1:]
	}
	if i := strings.IndexByte(id, ';'); i >= 0 {
		id = id[:i]
	}
	return id
}

// ExtendsList is an ordered list of parent interface ids that decodes from
// either a single JSON string or an array of strings.
type ExtendsList []string

func (e *ExtendsList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*e = ExtendsList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("extends is neither id nor id list: %w", err)
	}
	*e = ExtendsList(many)
	return nil
}

// A ResolvedInterface is an interface's content list after merging in all
// inherited content. It is derived, never stored: purely a function of the
// Registry at a point in time.
type ResolvedInterface struct {
	ID string
	// Contents holds the flattened content list: ancestors' items first (in
	// declared extends order), then the interface's own items, with name
	// collisions already resolved in favour of the item declared closer to
	// this interface.
	Contents []ContentItem
}

// Content returns the flattened content item with the given name.
func (r ResolvedInterface) Content(name string) (ContentItem, bool) {
	for _, c := range r.Contents {
		if c.Name == name {
			return c, true
		}
	}
	return ContentItem{}, false
}

// OfKind returns the flattened content items of the given kind, preserving
// their flattened order.
func (r ResolvedInterface) OfKind(kind ContentKind) []ContentItem {
	var items []ContentItem
	for _, c := range r.Contents {
		if c.Kind == kind {
			items = append(items, c)
		}
	}
	return items
}
