package summary

import "time"

// QueryType classifies the listing a summary is produced for.
type QueryType int

const (
	TypeNone QueryType = iota
	TypeSearch
	TypeDate
	TypeCategory
	TypeTag
	TypeAuthor
)

// Types lists the query types that have a template, in selection order.
var Types = []QueryType{TypeSearch, TypeDate, TypeCategory, TypeTag, TypeAuthor}

func (t QueryType) String() string {
	switch t {
	case TypeSearch:
		return "search"
	case TypeDate:
		return "date"
	case TypeCategory:
		return "category"
	case TypeTag:
		return "tag"
	case TypeAuthor:
		return "author"
	default:
		return "none"
	}
}

// Granularity of a date archive.
type Granularity int

const (
	GranularityDay Granularity = iota
	GranularityMonth
	GranularityYear
)

func (g Granularity) String() string {
	switch g {
	case GranularityYear:
		return "year"
	case GranularityMonth:
		return "month"
	default:
		return "day"
	}
}

// QueryContext is what the host knows about the current listing. It is
// read, never modified, while a summary is computed.
type QueryContext struct {
	Type     QueryType
	Total    int
	PageSize int
	// Page is 1-based; zero or negative means the first page.
	Page int

	// Search is the raw search string of a search query.
	Search string
	// Granularity and Date describe a date archive. Date is rendered with the
	// formatter's year, month or day pattern.
	Granularity Granularity
	Date        time.Time
	// Category, Tag and Author are display names.
	Category string
	Tag      string
	Author   string
}
