package view

import (
	"encoding/json"
	"time"
)

const (
	StorageLimit         = 50
	MaxNameLength        = 100
	MaxDescriptionLength = 500

	RecentWindow = 7 * 24 * time.Hour
	RecentLimit  = 5
)

type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// FilterCondition is one predicate of a table filter. Value is kept as raw
// JSON because its shape depends on the operator.
type FilterCondition struct {
	ColumnID string          `json:"columnId"`
	Operator string          `json:"operator"`
	Value    json.RawMessage `json:"value,omitempty"`
}

type SortConfig struct {
	ColumnID  string        `json:"columnId"`
	Direction SortDirection `json:"direction"`
}

// TableConfig is the table state a view captures. The store never looks
// inside it.
type TableConfig struct {
	Filters        []FilterCondition `json:"filters"`
	Sort           *SortConfig       `json:"sort,omitempty"`
	VisibleColumns []string          `json:"visibleColumns"`
	ColumnOrder    []string          `json:"columnOrder"`
	ColumnWidths   map[string]int    `json:"columnWidths"`
	PageSize       int               `json:"pageSize"`
	Grouping       []string          `json:"grouping"`
}

// SavedView is a named, persisted table configuration.
type SavedView struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	Config        TableConfig `json:"config"`
	OriginalQuery string      `json:"originalQuery,omitempty"`
	CreatedAt     int64       `json:"createdAt"`
	UpdatedAt     int64       `json:"updatedAt"`
	UsageCount    int         `json:"usageCount"`
	LastUsed      int64       `json:"lastUsed"`
}

// SavedViewInput is what a caller supplies to create a view. Identity,
// timestamps and usage are filled in by the store.
type SavedViewInput struct {
	Name          string      `json:"name" validate:"required,max=100"`
	Description   string      `json:"description,omitempty" validate:"max=500"`
	Config        TableConfig `json:"config"`
	OriginalQuery string      `json:"originalQuery,omitempty"`
}

// ViewPatch holds the fields Update replaces. Nil fields are left alone.
type ViewPatch struct {
	Name          *string      `json:"name,omitempty"`
	Description   *string      `json:"description,omitempty"`
	Config        *TableConfig `json:"config,omitempty"`
	OriginalQuery *string      `json:"originalQuery,omitempty"`
}

type StorageStats struct {
	Count       int `json:"count"`
	Limit       int `json:"limit"`
	PercentFull int `json:"percentFull"`
}

// Snapshot is a consistent read of the whole store state. It is what
// subscribers receive after every change.
type Snapshot struct {
	Views              []SavedView  `json:"views"`
	Recent             []SavedView  `json:"recent"`
	Active             *SavedView   `json:"active"`
	ActiveViewID       string       `json:"activeViewId"`
	ActiveViewModified bool         `json:"activeViewModified"`
	Stats              StorageStats `json:"stats"`
}

func (c TableConfig) clone() TableConfig {
	out := c
	if c.Filters != nil {
		out.Filters = make([]FilterCondition, len(c.Filters))
		for i, f := range c.Filters {
			out.Filters[i] = f
			if f.Value != nil {
				out.Filters[i].Value = append(json.RawMessage(nil), f.Value...)
			}
		}
	}
	if c.Sort != nil {
		s := *c.Sort
		out.Sort = &s
	}
	out.VisibleColumns = cloneStrings(c.VisibleColumns)
	out.ColumnOrder = cloneStrings(c.ColumnOrder)
	out.Grouping = cloneStrings(c.Grouping)
	if c.ColumnWidths != nil {
		out.ColumnWidths = make(map[string]int, len(c.ColumnWidths))
		for k, v := range c.ColumnWidths {
			out.ColumnWidths[k] = v
		}
	}
	return out
}

func (v SavedView) clone() SavedView {
	out := v
	out.Config = v.Config.clone()
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneViews(views []SavedView) []SavedView {
	out := make([]SavedView, len(views))
	for i, v := range views {
		out[i] = v.clone()
	}
	return out
}
