package enums

import "strings"

// SortField names an advert attribute the search pipeline can sort on.
// An unrecognised field leaves the storage order untouched.
type SortField string

const (
	SortFieldRating SortField = "rating"
	SortFieldPrice  SortField = "price"
	SortFieldTitle  SortField = "title"
)

// IsValid reports whether the value is a sortable field.
func (s SortField) IsValid() bool {
	switch s {
	case SortFieldRating, SortFieldPrice, SortFieldTitle:
		return true
	}
	return false
}

// SortOrder is the direction applied to a sort field.
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// ParseSortOrder normalises raw input, defaulting to descending.
func ParseSortOrder(value string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(value), string(SortOrderAsc)) {
		return SortOrderAsc
	}
	return SortOrderDesc
}
