package query

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/pders01/qrsum/internal/debuglog"
	"github.com/pders01/qrsum/internal/search"
	"github.com/pders01/qrsum/internal/storage"
	"github.com/pders01/qrsum/internal/summary"
)

const DefaultPageSize = 10

// Result is one page of a resolved request.
type Result struct {
	Request Request
	Context summary.QueryContext
	Posts   []*storage.Article
}

// Pages is the number of pages the result spans.
func (r *Result) Pages() int {
	if r.Context.Total == 0 || r.Context.PageSize <= 0 {
		return 0
	}
	return (r.Context.Total + r.Context.PageSize - 1) / r.Context.PageSize
}

// Resolver answers requests from the store and a searcher.
type Resolver struct {
	store    *storage.Store
	searcher search.Searcher
	pageSize int
	loc      *time.Location
	now      func() time.Time
}

type ResolverOption func(*Resolver)

// WithPageSize sets the posts per page; values below one are ignored.
func WithPageSize(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.pageSize = n
		}
	}
}

// WithLocation sets the zone date archives are cut in.
func WithLocation(loc *time.Location) ResolverOption {
	return func(r *Resolver) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithClock overrides the clock used to fill a missing archive year.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

func NewResolver(store *storage.Store, searcher search.Searcher, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:    store,
		searcher: searcher,
		pageSize: DefaultPageSize,
		loc:      time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs req and returns the requested page together with the
// summary context describing the whole result set.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * r.pageSize

	res := &Result{
		Request: req,
		Context: summary.QueryContext{
			Type:     req.Type(),
			PageSize: r.pageSize,
			Page:     page,
		},
	}
	qc := &res.Context

	log := debuglog.WithFields(map[string]any{"type": qc.Type.String(), "page": page})

	var err error
	switch qc.Type {
	case summary.TypeSearch:
		qc.Search = req.Search
		err = r.search(req.Search, offset, res)

	case summary.TypeDate:
		year := req.Year
		if year == 0 {
			year = r.now().In(r.loc).Year()
		}
		month, day := req.Month, req.Day
		qc.Granularity = req.Granularity()
		qc.Date = time.Date(year, time.Month(max(month, 1)), max(day, 1), 0, 0, 0, 0, r.loc)
		err = r.list(storage.Filter{Year: year, Month: month, Day: day, Location: r.loc}, offset, res)
		// A day without a month matches that day in every month, so the
		// requested date names no real day; describe the first post's instead.
		if err == nil && day > 0 && month == 0 && len(res.Posts) > 0 {
			qc.Date = res.Posts[0].Published.In(r.loc)
		}

	case summary.TypeCategory:
		qc.Category = req.Category
		err = r.listTerm(storage.TaxonomyCategory, req.Category, &qc.Category, offset, res)

	case summary.TypeTag:
		qc.Tag = req.Tag
		err = r.listTerm(storage.TaxonomyTag, req.Tag, &qc.Tag, offset, res)

	case summary.TypeAuthor:
		err = r.listAuthor(req, offset, res)

	default:
		err = r.list(storage.Filter{}, offset, res)
	}
	if err != nil {
		return nil, err
	}

	log.Debugf("resolved %d of %d posts", len(res.Posts), qc.Total)
	return res, nil
}

// Summary resolves req and renders its summary line with f.
func (r *Resolver) Summary(ctx context.Context, req Request, f *summary.Formatter) (string, *Result, error) {
	res, err := r.Resolve(ctx, req)
	if err != nil {
		return "", nil, err
	}
	return f.Summarize(res.Context), res, nil
}

func (r *Resolver) search(q string, offset int, res *Result) error {
	if r.searcher == nil {
		return errors.New("search is not available")
	}
	found, err := r.searcher.Search(q, r.pageSize, offset)
	if err != nil {
		return errors.Wrap(err, "searching posts")
	}
	res.Context.Total = found.Total
	res.Posts = make([]*storage.Article, 0, len(found.Hits))
	for _, h := range found.Hits {
		res.Posts = append(res.Posts, h.Article)
	}
	return nil
}

func (r *Resolver) list(filter storage.Filter, offset int, res *Result) error {
	posts, total, err := r.store.ListArticles(filter, offset, r.pageSize)
	if err != nil {
		return errors.Wrap(err, "listing posts")
	}
	res.Posts = posts
	res.Context.Total = total
	return nil
}

// listTerm lists posts of a category or tag, replacing *name with the
// term's display name. Unknown terms yield an empty result.
func (r *Resolver) listTerm(taxonomy, raw string, name *string, offset int, res *Result) error {
	slug := storage.Slugify(raw)
	term, err := r.store.GetTerm(taxonomy, slug)
	if errors.Is(err, storage.ErrNotFound) {
		res.Posts = []*storage.Article{}
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "looking up %s", taxonomy)
	}
	*name = term.Name

	filter := storage.Filter{Category: slug}
	if taxonomy == storage.TaxonomyTag {
		filter = storage.Filter{Tag: slug}
	}
	return r.list(filter, offset, res)
}

// listAuthor looks the author up by login when a name was requested and
// by id otherwise.
func (r *Resolver) listAuthor(req Request, offset int, res *Result) error {
	var (
		author *storage.Author
		err    error
	)
	if req.AuthorName != "" {
		res.Context.Author = req.AuthorName
		author, err = r.store.GetAuthorByLogin(storage.Slugify(req.AuthorName))
	} else {
		res.Context.Author = strconv.FormatUint(req.AuthorID, 10)
		author, err = r.store.GetAuthor(req.AuthorID)
	}
	if errors.Is(err, storage.ErrNotFound) {
		res.Posts = []*storage.Article{}
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "looking up author")
	}

	res.Context.Author = author.DisplayName
	return r.list(storage.Filter{AuthorID: author.ID}, offset, res)
}
