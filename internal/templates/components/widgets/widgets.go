// Package widgets renders the htmx fragments used by the site header and the
// chat box.
package widgets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/codr1/plantfloor/internal/chatbot"
	"github.com/codr1/plantfloor/internal/search"
)

// ChatExchange renders the visitor message followed by the bot reply. It is
// appended to the chat log.
func ChatExchange(message string, resp chatbot.Response) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<div class="chat-message chat-visitor">%s</div>`, templ.EscapeString(message))
		fmt.Fprintf(&b, `<div class="chat-message chat-bot">%s`, templ.EscapeString(resp.Reply))
		if len(resp.Suggestions) > 0 {
			b.WriteString(`<div class="chat-suggestions">`)
			for _, suggestion := range resp.Suggestions {
				vals, err := json.Marshal(map[string]string{"message": suggestion})
				if err != nil {
					return fmt.Errorf("encode chat suggestion: %w", err)
				}
				fmt.Fprintf(&b, `<button type="button" hx-post="/api/v1/chat" hx-vals='%s' hx-target="#chat-log" hx-swap="beforeend">%s</button>`,
					templ.EscapeString(string(vals)), templ.EscapeString(suggestion))
			}
			b.WriteString(`</div>`)
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// SearchResults renders the header search dropdown.
func SearchResults(query string, results []search.Result) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		if strings.TrimSpace(query) == "" {
			_, err := io.WriteString(w, "")
			return err
		}
		if len(results) == 0 {
			fmt.Fprintf(&b, `<p class="search-empty">No results for &ldquo;%s&rdquo;</p>`, templ.EscapeString(query))
			_, err := io.WriteString(w, b.String())
			return err
		}
		b.WriteString(`<ul class="search-results">`)
		for _, result := range results {
			fmt.Fprintf(&b, `<li><a href="%s"><strong>%s</strong><span>%s</span></a></li>`,
				templ.EscapeString(result.URL), templ.EscapeString(result.Title), templ.EscapeString(result.Summary))
		}
		b.WriteString(`</ul>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
