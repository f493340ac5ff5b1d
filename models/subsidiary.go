package models

// ConsolidatedSuffix is appended to a parent subsidiary's display name so the
// add-in can ask for the consolidated view; it never reaches a SQL literal.
const ConsolidatedSuffix = " (Consolidated)"

// Subsidiary is one legal entity in the consolidation tree
type Subsidiary struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	ParentID      int64  `json:"parent,omitempty"`
	IsInactive    bool   `json:"isinactive,omitempty"`
	IsElimination bool   `json:"iselimination,omitempty"`
}

// LookupItem is the {id,name} pair every dimension lookup returns
type LookupItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
