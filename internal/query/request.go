// Package query turns WordPress style archive requests into post listings
// and the context the summary formatter needs to describe them.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/pders01/qrsum/internal/summary"
)

// ErrBadRequest is wrapped by every parse failure.
var ErrBadRequest = errors.New("bad query request")

// Query variable names.
const (
	VarSearch       = "s"
	VarM            = "m"
	VarYear         = "year"
	VarMonth        = "monthnum"
	VarDay          = "day"
	VarCat          = "cat"
	VarCategoryName = "category_name"
	VarTag          = "tag"
	VarAuthorName   = "author_name"
	VarAuthor       = "author"
	VarPaged        = "paged"
)

// Request is an archive request. Zero fields are unset.
type Request struct {
	Search string
	// Year, Month and Day come from year/monthnum/day, with m (YYYY,
	// YYYYMM or YYYYMMDD) filling whatever those leave unset.
	Year  int
	Month int
	Day   int
	// Category and Tag are slugs or display names.
	Category string
	Tag      string
	// AuthorName is a login and takes precedence over AuthorID.
	AuthorName string
	AuthorID   uint64
	Page       int
}

// ParseQueryString parses a raw query string such as "s=cats&paged=2".
func ParseQueryString(raw string) (Request, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(strings.TrimSpace(raw), "?"))
	if err != nil {
		return Request{}, errors.Wrapf(ErrBadRequest, "%v", err)
	}
	return ParseRequest(values)
}

// ParseRequest reads the known query variables from values, ignoring
// any others.
func ParseRequest(values url.Values) (Request, error) {
	var req Request
	var err error

	req.Search = strings.TrimSpace(values.Get(VarSearch))
	req.Tag = strings.TrimSpace(values.Get(VarTag))
	req.AuthorName = strings.TrimSpace(values.Get(VarAuthorName))

	req.Category = strings.TrimSpace(values.Get(VarCategoryName))
	if req.Category == "" {
		req.Category = strings.TrimSpace(values.Get(VarCat))
	}

	if req.Year, err = intVar(values, VarYear); err != nil {
		return Request{}, err
	}
	if req.Month, err = intVar(values, VarMonth); err != nil {
		return Request{}, err
	}
	if req.Day, err = intVar(values, VarDay); err != nil {
		return Request{}, err
	}
	if req.Page, err = intVar(values, VarPaged); err != nil {
		return Request{}, err
	}

	if v := strings.TrimSpace(values.Get(VarAuthor)); v != "" {
		if req.AuthorID, err = cast.ToUint64E(v); err != nil {
			return Request{}, errors.Wrapf(ErrBadRequest, "%s=%q is not an id", VarAuthor, v)
		}
	}

	if m := strings.TrimSpace(values.Get(VarM)); m != "" {
		if err := req.applyM(m); err != nil {
			return Request{}, err
		}
	}

	if err := req.validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

func intVar(values url.Values, name string) (int, error) {
	v := strings.TrimSpace(values.Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.Wrapf(ErrBadRequest, "%s=%q is not a number", name, v)
	}
	return n, nil
}

func (r *Request) applyM(m string) error {
	if len(m) < 4 || len(m) > 8 || len(m)%2 != 0 {
		return errors.Wrapf(ErrBadRequest, "%s=%q is not YYYY, YYYYMM or YYYYMMDD", VarM, m)
	}
	parts := []*int{&r.Year, &r.Month, &r.Day}
	for i, start := 0, 0; start < len(m); i++ {
		end := 4
		if i > 0 {
			end = start + 2
		}
		n, err := strconv.Atoi(m[start:end])
		if err != nil || n < 0 {
			return errors.Wrapf(ErrBadRequest, "%s=%q is not a number", VarM, m)
		}
		if *parts[i] == 0 {
			*parts[i] = n
		}
		start = end
	}
	return nil
}

func (r *Request) validate() error {
	if r.Month > 12 {
		return errors.Wrapf(ErrBadRequest, "month %d out of range", r.Month)
	}
	if r.Day > 31 {
		return errors.Wrapf(ErrBadRequest, "day %d out of range", r.Day)
	}
	return nil
}

// IsDate reports whether any date part is set.
func (r Request) IsDate() bool {
	return r.Year > 0 || r.Month > 0 || r.Day > 0
}

// Type classifies the request. Search wins over date, date over category,
// category over tag and tag over author.
func (r Request) Type() summary.QueryType {
	switch {
	case r.Search != "":
		return summary.TypeSearch
	case r.IsDate():
		return summary.TypeDate
	case r.Category != "":
		return summary.TypeCategory
	case r.Tag != "":
		return summary.TypeTag
	case r.AuthorName != "" || r.AuthorID > 0:
		return summary.TypeAuthor
	default:
		return summary.TypeNone
	}
}

// Granularity is day when a day is set, month when a month is set and
// year otherwise.
func (r Request) Granularity() summary.Granularity {
	switch {
	case r.Day > 0:
		return summary.GranularityDay
	case r.Month > 0:
		return summary.GranularityMonth
	default:
		return summary.GranularityYear
	}
}

// Values encodes the request back into query variables.
func (r Request) Values() url.Values {
	v := url.Values{}
	set := func(name, value string) {
		if value != "" {
			v.Set(name, value)
		}
	}
	setInt := func(name string, n int) {
		if n > 0 {
			v.Set(name, strconv.Itoa(n))
		}
	}
	set(VarSearch, r.Search)
	setInt(VarYear, r.Year)
	setInt(VarMonth, r.Month)
	setInt(VarDay, r.Day)
	set(VarCategoryName, r.Category)
	set(VarTag, r.Tag)
	set(VarAuthorName, r.AuthorName)
	if r.AuthorID > 0 {
		v.Set(VarAuthor, strconv.FormatUint(r.AuthorID, 10))
	}
	setInt(VarPaged, r.Page)
	return v
}
