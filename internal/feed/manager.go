package feed

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/pders01/qrsum/internal/config"
	"github.com/pders01/qrsum/internal/debuglog"
	"github.com/pders01/qrsum/internal/plugins"
	"github.com/pders01/qrsum/internal/plugins/wordpress"
	"github.com/pders01/qrsum/internal/search"
	"github.com/pders01/qrsum/internal/storage"
	"github.com/pders01/qrsum/internal/validation"
)

const maxConcurrentRefresh = 5

// ErrNotModified is returned by AddFeed when the server sent 304.
var ErrNotModified = errors.New("feed not modified")

// Manager subscribes to feeds and keeps their posts, authors and terms in
// the store, notifying registered search listeners on every change.
type Manager struct {
	store        *storage.Store
	fetcher      *Fetcher
	parser       *Parser
	config       *config.Config
	urlValidator *validation.FeedURLValidator
	plugins      *plugins.Registry
	force        bool

	listenersMu sync.RWMutex
	updates     []search.UpdateListener
	deletes     []search.DeleteListener
}

func NewManager(store *storage.Store, cfg *config.Config) *Manager {
	registry := plugins.NewRegistry(cfg.Feed.HTTPTimeout)
	registry.Register(wordpress.New())

	return &Manager{
		store:        store,
		fetcher:      NewFetcher(cfg),
		parser:       NewParser(),
		config:       cfg,
		urlValidator: validation.NewFeedURLValidator(),
		plugins:      registry,
	}
}

// SetForceRefresh ignores the refresh interval and conditional headers.
func (m *Manager) SetForceRefresh(force bool) {
	m.force = force
	m.fetcher.SetIgnoreCache(force)
}

// SetPermissiveValidation allows localhost and private addresses.
func (m *Manager) SetPermissiveValidation(permissive bool) {
	if permissive {
		m.urlValidator = validation.NewPermissiveFeedURLValidator()
	} else {
		m.urlValidator = validation.NewFeedURLValidator()
	}
}

// Plugins exposes the plugin registry so callers can register more.
func (m *Manager) Plugins() *plugins.Registry {
	return m.plugins
}

// AddListener registers l for updates and deletions, depending on which
// of the search listener interfaces it implements.
func (m *Manager) AddListener(l any) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	if u, ok := l.(search.UpdateListener); ok {
		m.updates = append(m.updates, u)
	}
	if d, ok := l.(search.DeleteListener); ok {
		m.deletes = append(m.deletes, d)
	}
}

func (m *Manager) notifyUpdated(feed *storage.Feed, articles []*storage.Article) {
	m.listenersMu.RLock()
	defer m.listenersMu.RUnlock()
	for _, l := range m.updates {
		l.OnDataUpdated(feed, articles)
	}
}

// AddFeed validates rawURL, lets plugins rewrite it, then fetches and
// stores the feed with its posts.
func (m *Manager) AddFeed(ctx context.Context, rawURL string) (*storage.Feed, error) {
	normalized, err := m.urlValidator.ValidateAndNormalize(rawURL)
	if err != nil {
		return nil, err
	}

	info, err := m.plugins.EnhanceFeed(ctx, normalized)
	if err != nil {
		return nil, errors.Wrap(err, "resolving feed URL")
	}
	feedURL := normalized
	if info.FeedURL != "" && info.FeedURL != normalized {
		if feedURL, err = m.urlValidator.ValidateAndNormalize(info.FeedURL); err != nil {
			return nil, err
		}
	}

	feed := &storage.Feed{
		ID:          generateFeedID(feedURL),
		URL:         feedURL,
		Title:       info.Title,
		Description: info.Description,
		UpdatedAt:   time.Now(),
	}

	log := debuglog.WithFields(map[string]any{"feed": feed.ID, "url": feed.URL})
	log.Infof("adding feed")

	resp, updated, err := m.fetcher.Fetch(ctx, feed)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrNotModified
	}
	defer resp.Body.Close()

	parsed, err := m.parser.Parse(resp.Body, feed.ID)
	if err != nil {
		return nil, err
	}

	if parsed.Title != "" {
		feed.Title = parsed.Title
	} else if feed.Title == "" {
		feed.Title = hostOf(feed.URL)
	}
	if parsed.Description != "" {
		feed.Description = parsed.Description
	}
	m.fetcher.UpdateFeedMetadata(feed, resp)

	if err := m.save(feed, parsed.Articles); err != nil {
		return nil, err
	}
	log.Infof("stored %d posts", len(parsed.Articles))
	return feed, nil
}

// RefreshFeed refetches one feed and returns the number of posts stored.
// Feeds fetched within the refresh interval are skipped unless forced.
func (m *Manager) RefreshFeed(ctx context.Context, feedID string) (int, error) {
	feed, err := m.store.GetFeed(feedID)
	if err != nil {
		return 0, err
	}

	log := debuglog.WithFields(map[string]any{"feed": feed.ID})
	if !m.force && time.Since(feed.LastFetched) < m.config.Feed.RefreshInterval {
		log.Debugf("skipping, fetched %s ago", time.Since(feed.LastFetched).Round(time.Second))
		return 0, nil
	}

	resp, updated, err := m.fetcher.Fetch(ctx, feed)
	if err != nil {
		return 0, errors.Wrapf(err, "refreshing %s", feed.URL)
	}
	if !updated {
		log.Debugf("not modified")
		feed.LastFetched = time.Now()
		return 0, m.store.SaveFeed(feed)
	}
	defer resp.Body.Close()

	parsed, err := m.parser.Parse(resp.Body, feed.ID)
	if err != nil {
		return 0, errors.Wrapf(err, "refreshing %s", feed.URL)
	}

	if parsed.Title != "" {
		feed.Title = parsed.Title
	}
	m.fetcher.UpdateFeedMetadata(feed, resp)
	feed.UpdatedAt = time.Now()

	if err := m.save(feed, parsed.Articles); err != nil {
		return 0, err
	}
	log.Infof("refreshed %d posts", len(parsed.Articles))
	return len(parsed.Articles), nil
}

// RefreshAllFeeds refreshes every feed with a bounded worker pool. It
// returns the number of posts stored and the combined errors.
func (m *Manager) RefreshAllFeeds(ctx context.Context) (int, error) {
	feeds, err := m.store.GetAllFeeds()
	if err != nil {
		return 0, errors.Wrap(err, "getting feeds")
	}
	if len(feeds) == 0 {
		return 0, nil
	}

	feedChan := make(chan *storage.Feed, len(feeds))
	type outcome struct {
		n   int
		err error
	}
	results := make(chan outcome, len(feeds))

	var wg sync.WaitGroup
	for i := 0; i < maxConcurrentRefresh && i < len(feeds); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for feed := range feedChan {
				if ctx.Err() != nil {
					results <- outcome{err: ctx.Err()}
					continue
				}
				n, err := m.RefreshFeed(ctx, feed.ID)
				results <- outcome{n: n, err: err}
			}
		}()
	}

	for _, feed := range feeds {
		feedChan <- feed
	}
	close(feedChan)
	wg.Wait()
	close(results)

	total := 0
	var errs []error
	for r := range results {
		total += r.n
		if r.err != nil {
			errs = append(errs, r.err)
		}
	}
	if len(errs) > 0 {
		return total, errors.Errorf("refresh errors: %v", errs)
	}
	return total, nil
}

// FindFeed looks a feed up by id or by a URL it was added with. URLs go
// through the same plugin rewrite as AddFeed, so a WordPress archive page
// finds the feed stored under its /feed/ URL.
func (m *Manager) FindFeed(ctx context.Context, ref string) (*storage.Feed, error) {
	if f, err := m.store.GetFeed(ref); err == nil {
		return f, nil
	}

	normalized, err := validation.NewPermissiveFeedURLValidator().ValidateAndNormalize(ref)
	if err != nil {
		return nil, errors.Wrapf(storage.ErrNotFound, "feed %q", ref)
	}
	candidates := []string{normalized}
	if info, err := m.plugins.EnhanceFeed(ctx, normalized); err == nil && info.FeedURL != "" {
		candidates = append(candidates, info.FeedURL)
	}
	for _, u := range candidates {
		if f, err := m.store.GetFeed(generateFeedID(u)); err == nil {
			return f, nil
		}
	}
	return nil, errors.Wrapf(storage.ErrNotFound, "feed %q", ref)
}

// DeleteFeed removes the feed, its posts and their index entries.
func (m *Manager) DeleteFeed(feedID string) error {
	if err := m.store.DeleteFeed(feedID); err != nil {
		return errors.Wrap(err, "deleting feed")
	}
	m.listenersMu.RLock()
	defer m.listenersMu.RUnlock()
	for _, l := range m.deletes {
		l.OnFeedDeleted(feedID)
	}
	return nil
}

// save links authors, keeps read state of known posts and writes
// everything to the store.
func (m *Manager) save(feed *storage.Feed, articles []*storage.Article) error {
	for _, a := range articles {
		if existing, err := m.store.GetArticle(a.ID); err == nil {
			a.Read = existing.Read
		}
		if a.Author == "" {
			continue
		}
		author, err := m.store.EnsureAuthor(a.Author)
		if err != nil {
			debuglog.Warnf("feed %s: author %q: %v", feed.ID, a.Author, err)
			continue
		}
		a.AuthorID = author.ID
	}

	if err := m.store.SaveFeed(feed); err != nil {
		return errors.Wrap(err, "saving feed")
	}
	if err := m.store.SaveArticles(articles); err != nil {
		return errors.Wrap(err, "saving posts")
	}
	m.notifyUpdated(feed, articles)
	return nil
}

func generateFeedID(feedURL string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(feedURL)))
}

func hostOf(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return u.Host
	}
	return "Unknown Feed"
}
