package tui

// truncateEnd shortens s to at most limit characters, appending an ellipsis
// if truncation occurs.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	return string(r[:limit-1]) + "…"
}

// wrapWidth picks a readable word wrap width for a terminal width.
func wrapWidth(width int) int {
	w := (width * 9) / 10
	if w > 120 {
		w = 120
	}
	if w < 40 {
		w = 40
	}
	if width < 50 {
		w = max(width-4, 20)
	}
	return w
}
