// Package site renders the public page bodies placed inside layouts.Base.
package site

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/codr1/plantfloor/internal/models"
)

func render(fn func(b *strings.Builder)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fn(&b)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// Home lists featured products and the latest blog posts.
func Home(featured []models.Product, posts []models.Page) templ.Component {
	return render(func(b *strings.Builder) {
		b.WriteString(`<section class="hero"><h1>Automation parts, repair and integration</h1>`)
		b.WriteString(`<p>PLCs, drives, HMIs and sensors in stock and ready to ship.</p>`)
		b.WriteString(`<a class="btn btn-primary" href="/quote">Request a Quote</a></section>`)

		b.WriteString(`<section><h2>Featured products</h2>`)
		writeProductGrid(b, featured)
		b.WriteString(`</section>`)

		b.WriteString(`<section><h2>Latest from the blog</h2>`)
		writePageList(b, posts, "No posts yet.")
		b.WriteString(`</section>`)
	})
}

// ProductList renders the catalog with a category filter bar.
func ProductList(categories []models.Category, active string, products []models.Product) templ.Component {
	return render(func(b *strings.Builder) {
		b.WriteString(`<h1>Products</h1><nav class="category-filter">`)
		writeFilterLink(b, "/products", "All", active == "")
		for _, category := range categories {
			writeFilterLink(b, "/products?category="+category.Slug, category.Name, category.Slug == active)
		}
		b.WriteString(`</nav>`)
		writeProductGrid(b, products)
	})
}

func ProductDetail(product models.Product) templ.Component {
	return render(func(b *strings.Builder) {
		b.WriteString(`<article class="product-detail">`)
		if product.ImageURL != "" {
			fmt.Fprintf(b, `<img src="%s" alt="%s">`, templ.EscapeString(product.ImageURL), templ.EscapeString(product.Name))
		}
		fmt.Fprintf(b, `<h1>%s</h1>`, templ.EscapeString(product.Name))
		if product.Manufacturer != "" {
			fmt.Fprintf(b, `<p class="manufacturer">%s</p>`, templ.EscapeString(product.Manufacturer))
		}
		fmt.Fprintf(b, `<p><a href="/products?category=%s">%s</a></p>`, templ.EscapeString(product.CategorySlug), templ.EscapeString(product.CategoryName))
		writeParagraphs(b, product.Description)
		fmt.Fprintf(b, `<a class="btn btn-primary" href="/quote?product=%s">Request a quote for this item</a>`, templ.EscapeString(product.Slug))
		b.WriteString(`</article>`)
	})
}

// PageList renders blog posts or gallery items.
func PageList(title string, pages []models.Page) templ.Component {
	return render(func(b *strings.Builder) {
		fmt.Fprintf(b, `<h1>%s</h1>`, templ.EscapeString(title))
		writePageList(b, pages, "Nothing here yet.")
	})
}

func PageDetail(page models.Page) templ.Component {
	return render(func(b *strings.Builder) {
		b.WriteString(`<article class="page">`)
		fmt.Fprintf(b, `<h1>%s</h1>`, templ.EscapeString(page.Title))
		if page.Kind == models.PageKindBlog {
			fmt.Fprintf(b, `<p class="meta">%s</p>`, page.CreatedAt.Format("January 2, 2006"))
		}
		if page.ImageURL != "" {
			fmt.Fprintf(b, `<img src="%s" alt="%s">`, templ.EscapeString(page.ImageURL), templ.EscapeString(page.Title))
		}
		writeParagraphs(b, page.Body)
		b.WriteString(`</article>`)
	})
}

func ContactForm() templ.Component {
	return render(func(b *strings.Builder) {
		b.WriteString(`<h1>Contact us</h1>`)
		b.WriteString(`<form hx-post="/api/v1/contact" hx-target="#form-feedback" hx-swap="innerHTML" class="inquiry-form">`)
		writeInput(b, "name", "Name", "text", "", true)
		writeInput(b, "email", "Email", "email", "", true)
		writeInput(b, "phone", "Phone", "tel", "", false)
		writeInput(b, "company", "Company", "text", "", false)
		b.WriteString(`<label>Message<textarea name="message" rows="5" required></textarea></label>`)
		b.WriteString(`<button type="submit" class="btn btn-primary">Send</button>`)
		b.WriteString(`<div id="form-feedback"></div></form>`)
	})
}

// QuoteForm preselects productSlug when the visitor came from a product page.
func QuoteForm(products []models.Product, productSlug string) templ.Component {
	return render(func(b *strings.Builder) {
		b.WriteString(`<h1>Request a quote</h1>`)
		b.WriteString(`<form hx-post="/api/v1/quote" hx-target="#form-feedback" hx-swap="innerHTML" class="inquiry-form">`)
		writeInput(b, "name", "Name", "text", "", true)
		writeInput(b, "email", "Email", "email", "", true)
		writeInput(b, "phone", "Phone", "tel", "", true)
		writeInput(b, "company", "Company", "text", "", false)
		b.WriteString(`<label>Product<select name="product_slug"><option value="">Other / not listed</option>`)
		for _, product := range products {
			selected := ""
			if product.Slug == productSlug {
				selected = " selected"
			}
			fmt.Fprintf(b, `<option value="%s"%s>%s</option>`, templ.EscapeString(product.Slug), selected, templ.EscapeString(product.Name))
		}
		b.WriteString(`</select></label>`)
		writeInput(b, "quantity", "Quantity", "number", "1", true)
		b.WriteString(`<label>Details<textarea name="message" rows="4"></textarea></label>`)
		b.WriteString(`<button type="submit" class="btn btn-primary">Request quote</button>`)
		b.WriteString(`<div id="form-feedback"></div></form>`)
	})
}

func NotFound() templ.Component {
	return render(func(b *strings.Builder) {
		b.WriteString(`<h1>Page not found</h1><p>The page you were looking for does not exist. <a href="/">Back to the home page</a>.</p>`)
	})
}

func writeProductGrid(b *strings.Builder, products []models.Product) {
	if len(products) == 0 {
		b.WriteString(`<p class="empty">No products to show.</p>`)
		return
	}
	b.WriteString(`<ul class="product-grid">`)
	for _, product := range products {
		fmt.Fprintf(b, `<li class="card"><a href="/products/%s"><h3>%s</h3><p>%s</p></a></li>`,
			templ.EscapeString(product.Slug), templ.EscapeString(product.Name), templ.EscapeString(product.Summary))
	}
	b.WriteString(`</ul>`)
}

func writePageList(b *strings.Builder, pages []models.Page, empty string) {
	if len(pages) == 0 {
		fmt.Fprintf(b, `<p class="empty">%s</p>`, templ.EscapeString(empty))
		return
	}
	b.WriteString(`<ul class="page-list">`)
	for _, page := range pages {
		b.WriteString(`<li class="card">`)
		if page.Kind == models.PageKindGallery && page.ImageURL != "" {
			fmt.Fprintf(b, `<img src="%s" alt="%s" loading="lazy">`, templ.EscapeString(page.ImageURL), templ.EscapeString(page.Title))
		}
		fmt.Fprintf(b, `<a href="/pages/%s"><h3>%s</h3></a><p>%s</p></li>`,
			templ.EscapeString(page.Slug), templ.EscapeString(page.Title), templ.EscapeString(page.Summary))
	}
	b.WriteString(`</ul>`)
}

func writeFilterLink(b *strings.Builder, href, label string, active bool) {
	class := "filter"
	if active {
		class = "filter filter-active"
	}
	fmt.Fprintf(b, `<a class="%s" href="%s">%s</a>`, class, templ.EscapeString(href), templ.EscapeString(label))
}

func writeInput(b *strings.Builder, name, label, kind, value string, required bool) {
	attrs := ""
	if required {
		attrs = " required"
	}
	if kind == "number" {
		attrs += ` min="1"`
	}
	fmt.Fprintf(b, `<label>%s<input name="%s" type="%s" value="%s"%s></label>`, label, name, kind, templ.EscapeString(value), attrs)
}

// writeParagraphs escapes text and splits it into paragraphs on blank lines.
func writeParagraphs(b *strings.Builder, text string) {
	for _, paragraph := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		fmt.Fprintf(b, `<p>%s</p>`, templ.EscapeString(paragraph))
	}
}
