package layouts

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/codr1/plantfloor/internal/models"
)

// PageMeta describes the shell around a page body.
type PageMeta struct {
	Title       string
	Description string
	Theme       models.ThemeRecord
	SignedIn    bool
}

var navLinks = []struct {
	Href  string
	Label string
}{
	{Href: "/", Label: "Home"},
	{Href: "/products", Label: "Products"},
	{Href: "/blog", Label: "Blog"},
	{Href: "/gallery", Label: "Gallery"},
	{Href: "/contact", Label: "Contact"},
	{Href: "/quote", Label: "Request a Quote"},
}

// Base renders the full HTML document with the theme inlined so the first
// paint already uses the site colors.
func Base(meta PageMeta, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := strings.TrimSpace(meta.Title)
		if title == "" {
			title = "PlantFloor Automation"
		} else {
			title += " | PlantFloor Automation"
		}

		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		fmt.Fprintf(&b, `<title>%s</title>`, templ.EscapeString(title))
		if meta.Description != "" {
			fmt.Fprintf(&b, `<meta name="description" content="%s">`, templ.EscapeString(meta.Description))
		}
		fmt.Fprintf(&b, `<style id="theme-vars">%s</style>`, ThemeCSS(meta.Theme))
		b.WriteString(`<link rel="stylesheet" href="/static/css/main.css">`)
		b.WriteString(`<script src="https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js" defer></script>`)
		b.WriteString(`</head><body class="bg-background text-foreground">`)
		b.WriteString(Header(meta.SignedIn))
		b.WriteString(`<main id="main-content" class="container mx-auto px-4 py-8">`)
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}

		if content != nil {
			if err := content.Render(ctx, w); err != nil {
				return err
			}
		}

		b.Reset()
		b.WriteString(`</main>`)
		b.WriteString(`<footer class="border-t border-border py-6 text-center text-sm text-muted-foreground">`)
		b.WriteString(`Industrial automation parts, repair and integration.</footer>`)
		b.WriteString(chatWidgetHTML)
		b.WriteString(`</body></html>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// Header renders the site navigation bar.
func Header(signedIn bool) string {
	var b strings.Builder
	b.WriteString(`<header class="bg-primary text-primary-foreground"><nav class="container mx-auto flex items-center gap-6 px-4 py-3">`)
	b.WriteString(`<a href="/" class="text-lg font-semibold">PlantFloor</a>`)
	b.WriteString(`<ul id="site-menu" class="flex gap-4">`)
	b.WriteString(MenuItemsHTML())
	b.WriteString(`</ul>`)
	b.WriteString(`<form class="ml-auto" hx-get="/api/v1/nav/search" hx-target="#search-results" hx-trigger="input changed delay:300ms from:#site-search">`)
	b.WriteString(`<input id="site-search" type="search" name="q" placeholder="Search" class="rounded border-input px-2 py-1 text-foreground"></form>`)
	if signedIn {
		b.WriteString(`<button hx-post="/api/v1/auth/logout" hx-swap="none" class="text-sm">Sign out</button>`)
	}
	b.WriteString(`</nav><div id="search-results"></div></header>`)
	return b.String()
}

// MenuItemsHTML renders the navigation links as list items.
func MenuItemsHTML() string {
	var b strings.Builder
	for _, link := range navLinks {
		fmt.Fprintf(&b, `<li><a href="%s" class="hover:text-accent">%s</a></li>`, link.Href, templ.EscapeString(link.Label))
	}
	return b.String()
}

const chatWidgetHTML = `<aside id="chat-widget" class="fixed bottom-4 right-4 w-80 rounded border border-border bg-card text-card-foreground shadow">` +
	`<div id="chat-log" class="max-h-64 overflow-y-auto p-3 text-sm"></div>` +
	`<form hx-post="/api/v1/chat" hx-target="#chat-log" hx-swap="beforeend" hx-on::after-request="this.reset()" class="flex border-t border-border">` +
	`<input name="message" maxlength="500" placeholder="Ask about parts, repairs, quotes" class="flex-1 px-2 py-1" required>` +
	`<button type="submit" class="bg-primary px-3 text-primary-foreground">Send</button></form></aside>`
