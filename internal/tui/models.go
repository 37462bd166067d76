package tui

import (
	"strings"

	"github.com/pders01/qrsum/internal/query"
	"github.com/pders01/qrsum/internal/storage"
)

type View int

const (
	ViewResults View = iota
	ViewReader
	ViewSearch
)

// postItem is a post in the results list.
type postItem struct {
	article *storage.Article
}

func (i postItem) Title() string {
	title := i.article.Title
	if title == "" {
		title = "(untitled)"
	}
	if !i.article.Read {
		return "● " + title
	}
	return title
}

func (i postItem) Description() string {
	var parts []string
	if !i.article.Published.IsZero() {
		parts = append(parts, i.article.Published.Format("2006-01-02"))
	}
	if i.article.Author != "" {
		parts = append(parts, i.article.Author)
	}
	if len(i.article.Categories) > 0 {
		parts = append(parts, strings.Join(i.article.Categories, ", "))
	}
	if len(i.article.Tags) > 0 {
		parts = append(parts, "#"+strings.Join(i.article.Tags, " #"))
	}
	return strings.Join(parts, " • ")
}

func (i postItem) FilterValue() string { return i.article.Title }

type resultMsg struct {
	result  *query.Result
	summary string
}

type articleRenderedMsg struct {
	content string
}

type refreshedMsg struct {
	posts int
	err   error
}

type errorMsg struct {
	err error
}
