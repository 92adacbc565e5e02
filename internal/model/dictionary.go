package model

import (
	"fmt"
	"sort"
)

// Kind names one of the two server-side dictionaries.
type Kind string

const (
	KindCorrection Kind = "correction" // wrong term -> correct term
	KindProtection Kind = "protection" // terms exempt from correction
)

// Kinds lists both dictionaries in a stable order.
var Kinds = []Kind{KindCorrection, KindProtection}

// ParseKind validates a dictionary name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindCorrection, KindProtection:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown dictionary type %q (want correction or protection)", s)
}

// Dictionary maps a term to its value. Protection entries carry an empty value.
// An empty correction value means occurrences are deleted.
type Dictionary map[string]string

// Keys returns the terms sorted.
func (d Dictionary) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy; nil becomes an empty dictionary.
func (d Dictionary) Clone() Dictionary {
	out := make(Dictionary, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Action is the verb of a single-term mutation.
type Action string

const (
	ActionAdd    Action = "add"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ParseAction validates a mutation verb.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionAdd, ActionUpdate, ActionDelete:
		return Action(s), nil
	}
	return "", fmt.Errorf("unknown action %q (want add, update or delete)", s)
}

// TermMutation is a single-term command sent to /dictionaries/update-term.
type TermMutation struct {
	PIN    string `json:"pin"`
	Kind   Kind   `json:"type"`
	Term   string `json:"term"`
	Value  string `json:"value"`
	Action Action `json:"action"`
}

// SearchScope limits a term search.
type SearchScope string

const (
	ScopeAll        SearchScope = "all"
	ScopeCorrection SearchScope = "correction"
	ScopeProtection SearchScope = "protection"
)

// ParseScope validates a search scope; empty means all.
func ParseScope(s string) (SearchScope, error) {
	switch SearchScope(s) {
	case "":
		return ScopeAll, nil
	case ScopeAll, ScopeCorrection, ScopeProtection:
		return SearchScope(s), nil
	}
	return "", fmt.Errorf("unknown search type %q (want all, correction or protection)", s)
}

// Includes reports whether the scope covers kind.
func (s SearchScope) Includes(kind Kind) bool {
	return s == ScopeAll || s == "" || string(s) == string(kind)
}

// SearchResults partitions matches by dictionary.
type SearchResults struct {
	Correction Dictionary `json:"correction"`
	Protection Dictionary `json:"protection"`
}

// EmptySearchResults returns results with both partitions present and empty.
func EmptySearchResults() SearchResults {
	return SearchResults{Correction: Dictionary{}, Protection: Dictionary{}}
}

// SaveResponse is the server answer to a bulk dictionary save.
type SaveResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// MutationResponse is the server answer to a single-term mutation.
type MutationResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
