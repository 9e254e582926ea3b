package usecase

import (
	"fmt"
	"html"
	"strings"

	"imagehound/internal/domain"
)

// HTML tag helpers for the chat transport's HTML parse mode.

func bold(s string) string { return "<b>" + html.EscapeString(s) + "</b>" }

func link(text, url string) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(url), text)
}

func code(s string) string { return "<code>" + html.EscapeString(s) + "</code>" }

// hiddenLink renders a zero-width anchor so the client shows a preview of
// url above the message without visible link text.
func hiddenLink(url string) string {
	return fmt.Sprintf(`<a href="%s">&#8203;</a>`, html.EscapeString(url))
}

func fieldTitle(key string) string { return bold(key) + ": " }

// RenderReply formats one best-match result into a displayable HTML block.
// Pure and deterministic: no I/O, same input gives same output.
func RenderReply(fields domain.ResultFields, meta *domain.ResultMeta) string {
	var sb strings.Builder

	if meta.Thumbnail != "" {
		sb.WriteString(hiddenLink(meta.Thumbnail))
	}

	sb.WriteString("Provided by: ")
	sb.WriteString(link(bold(meta.Provider), meta.ProviderURL))

	if meta.Via != "" {
		via := bold(meta.Via)
		if meta.ViaURL != "" {
			via = link(via, meta.ViaURL)
		}
		sb.WriteString(" with ")
		sb.WriteString(via)
	}

	if meta.Similarity != nil {
		sb.WriteString(" with ")
		sb.WriteString(bold(fmt.Sprintf("%d%%", *meta.Similarity)))
		sb.WriteString(" similarity")
	}

	sb.WriteString("\n\n")

	for _, f := range fields {
		sb.WriteString(fieldTitle(f.Key))
		if strings.HasPrefix(f.Value, "#") {
			// Tag-like values render as plain tag text.
			sb.WriteString(html.EscapeString(f.Value))
		} else if f.Value != "" {
			sb.WriteString(code(f.Value))
		}
		sb.WriteString("\n")
	}

	for _, e := range meta.Errors {
		sb.WriteString(html.EscapeString(e))
		sb.WriteString("\n")
	}

	return sb.String()
}

// chunkButtons splits a flat button list into rows of at most n.
func chunkButtons(buttons []domain.Button, n int) [][]domain.Button {
	if n <= 0 || len(buttons) == 0 {
		return nil
	}
	rows := make([][]domain.Button, 0, (len(buttons)+n-1)/n)
	for len(buttons) > 0 {
		row := buttons
		if len(row) > n {
			row = row[:n]
		}
		rows = append(rows, row)
		buttons = buttons[len(row):]
	}
	return rows
}
