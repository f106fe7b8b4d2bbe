// Package codectx derives the code context around an editor cursor.
package codectx

import "strings"

// DefaultWindow is the number of lines taken on each side of the cursor
const DefaultWindow = 5

// CursorMarker marks the cursor position in Render output
const CursorMarker = "<$cursor$>"

// Cursor is a zero-based line and column. Column counts runes.
type Cursor struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// Context is the text around the cursor
type Context struct {
	// Prefix holds the lines before the current line
	Prefix string `json:"prefix"`
	// Suffix holds the lines after the current line
	Suffix string `json:"suffix"`
	// PrefixWithMid is Prefix followed by the current line up to the cursor
	PrefixWithMid string `json:"prefixWithMid"`
	// SuffixWithMid is the current line after the cursor followed by Suffix
	SuffixWithMid string `json:"suffixWithMid"`
	// PrefixOnCursor is the current line up to the cursor
	PrefixOnCursor string `json:"prefixOnCursor"`
	// SuffixOnCursor is the current line after the cursor
	SuffixOnCursor string `json:"suffixOnCursor"`
	Cursor         Cursor `json:"cursor"`
}

// Extract builds the context for a cursor in document. Out of range
// positions are clamped. A window <= 0 uses DefaultWindow.
func Extract(document string, line, col, window int) Context {
	if window <= 0 {
		window = DefaultWindow
	}

	lines := splitLines(document)
	line = clamp(line, 0, len(lines)-1)
	current := []rune(lines[line])
	col = clamp(col, 0, len(current))

	before := lines[max(0, line-window):line]
	after := lines[line+1 : min(len(lines), line+1+window)]

	ctx := Context{
		Prefix:         strings.Join(before, "\n"),
		Suffix:         strings.Join(after, "\n"),
		PrefixOnCursor: string(current[:col]),
		SuffixOnCursor: string(current[col:]),
		Cursor:         Cursor{Line: line, Col: col},
	}
	ctx.PrefixWithMid = ctx.PrefixOnCursor
	if len(before) > 0 {
		ctx.PrefixWithMid = ctx.Prefix + "\n" + ctx.PrefixOnCursor
	}
	ctx.SuffixWithMid = ctx.SuffixOnCursor
	if len(after) > 0 {
		ctx.SuffixWithMid = ctx.SuffixOnCursor + "\n" + ctx.Suffix
	}
	return ctx
}

// Render returns the window with CursorMarker inserted at the cursor
func (c Context) Render() string {
	return c.PrefixWithMid + CursorMarker + c.SuffixWithMid
}

func splitLines(document string) []string {
	lines := strings.Split(document, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
