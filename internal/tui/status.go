package tui

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Canonical short status messages used across the app.
const (
	MsgRefreshing     = "Refreshing…"
	MsgLoading        = "Loading…"
	MsgLoadingArticle = "Loading article…"
	MsgNoResults      = "No results"
	MsgFirstPage      = "Already on the first page"
	MsgLastPage       = "Already on the last page"
	MsgOpened         = "Opened in browser"
	MsgNoLink         = "Post has no link"
)

// MsgPage describes the current page position.
func MsgPage(page, pages int) string {
	if pages <= 1 {
		return "page 1 of 1"
	}
	return fmt.Sprintf("page %d of %d", page, pages)
}

func MsgRefreshSummary(posts int) string {
	if posts == 1 {
		return "Refreshed: 1 post"
	}
	return "Refreshed: " + humanize.Comma(int64(posts)) + " posts"
}
