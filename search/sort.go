package search

import "strings"

// SortField names a field results can be ordered by.
type SortField string

const (
	SortByScore     SortField = "_score"
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
	SortByTitle     SortField = "title"
)

// Sort is a single field ordering.
type Sort struct {
	Field      SortField
	Descending bool
}

// DefaultSort is newest first.
var DefaultSort = Sort{Field: SortByCreatedAt, Descending: true}

// ParseSort parses "field:direction", e.g. "createdAt:desc". The direction
// defaults to desc. Unknown fields or directions yield DefaultSort.
func ParseSort(raw string) Sort {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultSort
	}

	field, dir, _ := strings.Cut(raw, ":")
	s := Sort{Field: SortField(strings.TrimSpace(field)), Descending: true}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "desc":
	case "asc":
		s.Descending = false
	default:
		return DefaultSort
	}

	if !s.valid() {
		return DefaultSort
	}
	return s
}

func (s Sort) valid() bool {
	switch s.Field {
	case SortByCreatedAt, SortByUpdatedAt, SortByTitle:
		return true
	}
	return false
}

func (s Sort) String() string {
	if s.Descending {
		return string(s.Field) + ":desc"
	}
	return string(s.Field) + ":asc"
}
