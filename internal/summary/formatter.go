// Package summary builds the "Results 1 - 10 of about 42 for X" line shown
// above a paginated listing.
package summary

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pders01/qrsum/internal/datefmt"
)

// Placeholder tokens recognised in templates.
const (
	TokenFirstIndex = "%firstPostIndex%"
	TokenLastIndex  = "%lastPostIndex%"
	TokenTotal      = "%totalPosts%"
	TokenSearch     = "%searchString%"
	TokenDate       = "%date%"
	TokenCategory   = "%cat%"
	TokenTag        = "%tag%"
	TokenAuthor     = "%auth%"
)

const (
	DefaultPrefix       = "<p>"
	DefaultSuffix       = "</p>"
	DefaultYearFormat   = "Y"
	DefaultMonthFormat  = "F, Y"
	DefaultDayFormat    = "l, F jS, Y"
	DefaultEmptyMessage = "There is no relevant post."

	resultsHead = "Results <b>" + TokenFirstIndex + " - " + TokenLastIndex + "</b> of about <b>" + TokenTotal + "</b>"

	DefaultSearchTemplate   = resultsHead + " for <b>" + TokenSearch + "</b>."
	DefaultDateTemplate     = resultsHead + " in <b>" + TokenDate + "</b>."
	DefaultCategoryTemplate = resultsHead + " by <b>the category: " + TokenCategory + "</b>."
	DefaultTagTemplate      = resultsHead + " by <b>the tag: " + TokenTag + "</b>."
	DefaultAuthorTemplate   = resultsHead + " by <b>the author: " + TokenAuthor + "</b>."
)

// DateRenderer renders t with a date pattern from the formatter configuration.
type DateRenderer func(pattern string, t time.Time) string

// Formatter holds the summary configuration. It is not safe for concurrent
// mutation; share a Formatter across goroutines only if it is no longer written.
type Formatter struct {
	enabled        map[QueryType]bool
	summarizeEmpty bool

	prefix string
	suffix string

	yearFormat  string
	monthFormat string
	dayFormat   string

	templates    map[QueryType]string
	emptyMessage string

	renderDate DateRenderer
}

// Option customises a Formatter at construction.
type Option func(*Formatter)

// WithDateRenderer replaces the PHP-style date renderer.
func WithDateRenderer(r DateRenderer) Option {
	return func(f *Formatter) {
		if r != nil {
			f.renderDate = r
		}
	}
}

// New returns a Formatter with every query type enabled and the default templates.
func New(opts ...Option) *Formatter {
	f := &Formatter{
		enabled:    make(map[QueryType]bool, len(Types)),
		templates:  make(map[QueryType]string, len(Types)),
		renderDate: datefmt.Format,
	}
	f.Reset()
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Reset restores the default configuration. The date renderer is kept.
func (f *Formatter) Reset() {
	for _, t := range Types {
		f.enabled[t] = true
	}
	f.summarizeEmpty = false

	f.prefix = DefaultPrefix
	f.suffix = DefaultSuffix

	f.yearFormat = DefaultYearFormat
	f.monthFormat = DefaultMonthFormat
	f.dayFormat = DefaultDayFormat

	f.templates[TypeSearch] = DefaultSearchTemplate
	f.templates[TypeDate] = DefaultDateTemplate
	f.templates[TypeCategory] = DefaultCategoryTemplate
	f.templates[TypeTag] = DefaultTagTemplate
	f.templates[TypeAuthor] = DefaultAuthorTemplate
	f.emptyMessage = DefaultEmptyMessage
}

// Enabled reports whether listings of type t are summarized. TypeNone never is.
func (f *Formatter) Enabled(t QueryType) bool { return f.enabled[t] }

// SetEnabled toggles summarizing for t. TypeNone cannot be enabled.
func (f *Formatter) SetEnabled(t QueryType, v bool) {
	if t == TypeNone {
		return
	}
	f.enabled[t] = v
}

func (f *Formatter) SummarizeEmpty() bool     { return f.summarizeEmpty }
func (f *Formatter) SetSummarizeEmpty(v bool) { f.summarizeEmpty = v }

func (f *Formatter) Prefix() string     { return f.prefix }
func (f *Formatter) SetPrefix(s string) { f.prefix = s }
func (f *Formatter) Suffix() string     { return f.suffix }
func (f *Formatter) SetSuffix(s string) { f.suffix = s }

func (f *Formatter) YearFormat() string      { return f.yearFormat }
func (f *Formatter) SetYearFormat(s string)  { f.yearFormat = s }
func (f *Formatter) MonthFormat() string     { return f.monthFormat }
func (f *Formatter) SetMonthFormat(s string) { f.monthFormat = s }
func (f *Formatter) DayFormat() string       { return f.dayFormat }
func (f *Formatter) SetDayFormat(s string)   { f.dayFormat = s }

// DateFormat returns the pattern used for a date archive of granularity g.
func (f *Formatter) DateFormat(g Granularity) string {
	switch g {
	case GranularityYear:
		return f.yearFormat
	case GranularityMonth:
		return f.monthFormat
	default:
		return f.dayFormat
	}
}

// Template returns the message template for t, or "" for TypeNone.
func (f *Formatter) Template(t QueryType) string { return f.templates[t] }

// SetTemplate replaces the message template for t.
func (f *Formatter) SetTemplate(t QueryType, s string) {
	if t == TypeNone {
		return
	}
	f.templates[t] = s
}

func (f *Formatter) EmptyMessage() string     { return f.emptyMessage }
func (f *Formatter) SetEmptyMessage(s string) { f.emptyMessage = s }

// Window returns the 1-based indexes of the first and last item on page.
// A page below 1 is treated as the first page and a non-positive page size
// as a single page holding everything. The last index never exceeds total.
func Window(pageSize, page, total int) (first, last int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		return 1, total
	}
	first = pageSize*page - pageSize + 1
	last = first + pageSize - 1
	if last > total {
		last = total
	}
	return first, last
}

// Summarize returns the wrapped summary for qc, or "" when the query type is
// unknown or disabled, or when there are no results and empty results are not
// summarized.
func (f *Formatter) Summarize(qc QueryContext) string {
	if !f.Enabled(qc.Type) {
		return ""
	}

	var text string
	if qc.Total > 0 {
		text = f.fill(qc)
	} else if f.summarizeEmpty {
		text = f.emptyMessage
	}

	if text == "" {
		return ""
	}
	return f.prefix + text + f.suffix
}

// fill substitutes every token present in the template in one pass, so a
// replacement value containing a token is never expanded again.
func (f *Formatter) fill(qc QueryContext) string {
	tmpl := f.templates[qc.Type]
	first, last := Window(qc.PageSize, qc.Page, qc.Total)

	pairs := make([]string, 0, 8)
	add := func(token string, value func() string) {
		if strings.Contains(tmpl, token) {
			pairs = append(pairs, token, value())
		}
	}

	add(TokenFirstIndex, func() string { return humanize.Comma(int64(first)) })
	add(TokenLastIndex, func() string { return humanize.Comma(int64(last)) })
	add(TokenTotal, func() string { return humanize.Comma(int64(qc.Total)) })

	switch qc.Type {
	case TypeSearch:
		add(TokenSearch, func() string { return qc.Search })
	case TypeDate:
		add(TokenDate, func() string { return f.renderDate(f.DateFormat(qc.Granularity), qc.Date) })
	case TypeCategory:
		add(TokenCategory, func() string { return qc.Category })
	case TypeTag:
		add(TokenTag, func() string { return qc.Tag })
	case TypeAuthor:
		add(TokenAuthor, func() string { return qc.Author })
	}

	if len(pairs) == 0 {
		return tmpl
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
