package plugins

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// FeedInfo is what a plugin learned about a URL the user asked to follow.
type FeedInfo struct {
	// OriginalURL is the URL as given.
	OriginalURL string
	// FeedURL is the URL to fetch.
	FeedURL string
	Title   string
	// Description is shown until the first fetch fills in the feed's own.
	Description string
	// Metadata carries plugin specific facts, e.g. the archive a URL points at.
	Metadata map[string]string
}

// Plugin turns a site specific URL into a fetchable feed.
type Plugin interface {
	Name() string
	CanHandle(url string) bool
	// EnhanceFeed may use client to inspect the site.
	EnhanceFeed(ctx context.Context, url string, client *http.Client) (*FeedInfo, error)
	// Priority breaks ties when several plugins handle a URL; higher wins.
	Priority() int
}

// Registry picks the plugin for a URL.
type Registry struct {
	plugins []Plugin
	client  *http.Client
}

func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{
		plugins: make([]Plugin, 0),
		client:  &http.Client{Timeout: timeout},
	}
}

func (r *Registry) Register(plugin Plugin) {
	r.plugins = append(r.plugins, plugin)
}

// FindPlugin returns the highest priority plugin that handles url, or nil.
func (r *Registry) FindPlugin(url string) Plugin {
	var best Plugin
	highest := -1
	for _, p := range r.plugins {
		if p.CanHandle(url) && p.Priority() > highest {
			best = p
			highest = p.Priority()
		}
	}
	return best
}

// EnhanceFeed runs the matching plugin, passing url through untouched when
// none matches.
func (r *Registry) EnhanceFeed(ctx context.Context, url string) (*FeedInfo, error) {
	p := r.FindPlugin(url)
	if p == nil {
		return &FeedInfo{
			OriginalURL: url,
			FeedURL:     url,
			Metadata:    make(map[string]string),
		}, nil
	}
	return p.EnhanceFeed(ctx, url, r.client)
}

// Names lists the registered plugin names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.plugins))
	for _, p := range r.plugins {
		names = append(names, p.Name())
	}
	sort.Strings(names)
	return names
}
