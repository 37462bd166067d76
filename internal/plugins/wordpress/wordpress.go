// Package wordpress maps WordPress archive URLs to their feeds.
package wordpress

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/pders01/qrsum/internal/plugins"
)

// Metadata keys set on FeedInfo.
const (
	MetaArchive = "archive"
	MetaTerm    = "term"
)

// archives are the path prefixes WordPress uses for filtered archives.
var archives = map[string]string{
	"category": "category",
	"tag":      "tag",
	"author":   "author",
}

// Plugin handles category, tag, author and search URLs and URLs ending in
// /feed. A bare site root is left alone, since it may serve a feed itself.
type Plugin struct{}

func New() *Plugin {
	return &Plugin{}
}

func (p *Plugin) Name() string {
	return "wordpress"
}

func (p *Plugin) Priority() int {
	return 10
}

// CanHandle accepts archive paths, ?s= searches and URLs already pointing
// at a /feed/ endpoint.
func (p *Plugin) CanHandle(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Query().Has("s") {
		return true
	}
	segs := segments(u.Path)
	if len(segs) >= 2 {
		if _, ok := archives[segs[0]]; ok {
			return true
		}
	}
	return len(segs) > 0 && segs[len(segs)-1] == "feed"
}

// EnhanceFeed appends /feed/ to archive URLs and turns searches into
// ?s=...&feed=rss2.
func (p *Plugin) EnhanceFeed(_ context.Context, rawURL string, _ *http.Client) (*plugins.FeedInfo, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing WordPress URL")
	}

	info := &plugins.FeedInfo{
		OriginalURL: rawURL,
		Metadata:    map[string]string{"plugin": p.Name()},
	}

	feed := *u
	feed.Fragment = ""

	q := u.Query()
	if s := q.Get("s"); s != "" {
		q.Set("feed", "rss2")
		feed.RawQuery = q.Encode()
		info.FeedURL = feed.String()
		info.Title = u.Host + " - search: " + s
		info.Metadata[MetaArchive] = "search"
		info.Metadata[MetaTerm] = s
		return info, nil
	}

	segs := segments(u.Path)
	if len(segs) == 0 || segs[len(segs)-1] != "feed" {
		segs = append(segs, "feed")
	}
	feed.Path = "/" + strings.Join(segs, "/") + "/"
	feed.RawQuery = ""
	info.FeedURL = feed.String()
	info.Title = u.Host

	if len(segs) >= 3 {
		if archive, ok := archives[segs[0]]; ok {
			info.Metadata[MetaArchive] = archive
			info.Metadata[MetaTerm] = segs[1]
			info.Title = u.Host + " - " + archive + ": " + segs[1]
		}
	}
	return info, nil
}

func segments(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
