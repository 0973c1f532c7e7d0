package server

import (
	"fmt"
	"strings"
)

// ResourceType represents the kind of resource a request path names
type ResourceType int

const (
	ResourceUnknown     ResourceType = iota
	ResourcePreview                  // /preview
	ResourceRules                    // /rules
	ResourceRule                     // /rules/<id>
	ResourceOccurrences              // /rules/<id>/occurrences
	ResourceCalendar                 // /rules/<id>.ics
)

// String returns the string representation of the ResourceType
func (rt ResourceType) String() string {
	switch rt {
	case ResourcePreview:
		return "preview"
	case ResourceRules:
		return "rules"
	case ResourceRule:
		return "rule"
	case ResourceOccurrences:
		return "occurrences"
	case ResourceCalendar:
		return "calendar"
	default:
		return "unknown"
	}
}

// Resource is a parsed request path, relative to the server's base URI
type Resource struct {
	Type   ResourceType
	RuleID string
}

// String returns the path the Resource was parsed from
func (r Resource) String() string {
	switch r.Type {
	case ResourcePreview:
		return "/preview"
	case ResourceRules:
		return "/rules"
	case ResourceRule:
		return fmt.Sprintf("/rules/%s", r.RuleID)
	case ResourceOccurrences:
		return fmt.Sprintf("/rules/%s/occurrences", r.RuleID)
	case ResourceCalendar:
		return fmt.Sprintf("/rules/%s.ics", r.RuleID)
	default:
		return ""
	}
}

// ParsePath parses a path relative to the base URI into a Resource
func ParsePath(path string) (Resource, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return Resource{}, fmt.Errorf("empty path")
	}

	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1 && parts[0] == "preview":
		return Resource{Type: ResourcePreview}, nil
	case parts[0] != "rules":
		return Resource{}, fmt.Errorf("invalid path format")
	case len(parts) == 1:
		return Resource{Type: ResourceRules}, nil
	}

	id := parts[1]
	if id == "" {
		return Resource{}, fmt.Errorf("invalid rule ID")
	}

	switch len(parts) {
	case 2:
		// Calendar export: /rules/<id>.ics
		if trimmed, ok := strings.CutSuffix(id, ".ics"); ok {
			if trimmed == "" {
				return Resource{}, fmt.Errorf("invalid rule ID")
			}
			return Resource{Type: ResourceCalendar, RuleID: trimmed}, nil
		}
		return Resource{Type: ResourceRule, RuleID: id}, nil
	case 3:
		if parts[2] == "occurrences" {
			return Resource{Type: ResourceOccurrences, RuleID: id}, nil
		}
	}

	return Resource{}, fmt.Errorf("invalid path format")
}
