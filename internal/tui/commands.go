package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/pders01/qrsum/internal/debuglog"
	"github.com/pders01/qrsum/internal/query"
	"github.com/pders01/qrsum/internal/storage"
)

const commandTimeout = 30 * time.Second

// resolve runs req and renders its summary.
func (a *App) resolve(req query.Request) tea.Cmd {
	resolver, formatter := a.services.Resolver, a.services.Formatter
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		line, res, err := resolver.Summary(ctx, req, formatter)
		if err != nil {
			return errorMsg{err: errors.Wrap(err, "running query")}
		}
		return resultMsg{result: res, summary: line}
	}
}

// renderSummary turns the HTML summary line into styled terminal text.
// Markup that cannot be converted is shown as is.
func (a *App) renderSummary(html string) string {
	if html == "" {
		return ""
	}
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		debuglog.Warnf("tui: converting summary: %v", err)
		return html
	}
	r, err := a.summaryRenderer()
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

func (a *App) renderArticle(article *storage.Article) tea.Cmd {
	width := wrapWidth(a.width)
	store := a.services.Store
	return func() tea.Msg {
		var content strings.Builder
		fmt.Fprintf(&content, "# %s\n\n", article.Title)

		var meta []string
		if !article.Published.IsZero() {
			meta = append(meta, article.Published.Format(time.RFC1123))
		}
		if article.Author != "" {
			meta = append(meta, "by "+article.Author)
		}
		if len(meta) > 0 {
			fmt.Fprintf(&content, "*%s*\n\n", strings.Join(meta, " · "))
		}
		if article.URL != "" {
			fmt.Fprintf(&content, "[Read Online](%s)\n\n", article.URL)
		}
		content.WriteString("---\n\n")

		body := article.Content
		if body == "" {
			body = article.Description
		}
		if md, err := htmltomarkdown.ConvertString(body); err == nil {
			body = md
		}
		content.WriteString(body)

		r, err := newRenderer(width)
		if err != nil {
			return articleRenderedMsg{content: "Error initializing renderer: " + err.Error()}
		}
		rendered, err := r.Render(content.String())
		if err != nil {
			return articleRenderedMsg{content: fmt.Sprintf("Failed to render article: %v\n\nPress Escape to go back.", err)}
		}

		if store != nil {
			if err := store.MarkArticleRead(article.ID, true); err != nil {
				debuglog.Warnf("tui: marking %s read: %v", article.ID, err)
			}
		}
		return articleRenderedMsg{content: rendered}
	}
}

func (a *App) refreshFeeds() tea.Cmd {
	manager := a.services.Manager
	return func() tea.Msg {
		if manager == nil {
			return refreshedMsg{err: errors.New("refresh is not available")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		n, err := manager.RefreshAllFeeds(ctx)
		return refreshedMsg{posts: n, err: err}
	}
}
