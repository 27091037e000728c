// internal/api/site/handlers.go
package site

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/rs/zerolog/log"

	"github.com/codr1/plantfloor/internal/api/authz"
	"github.com/codr1/plantfloor/internal/api/catalog"
	"github.com/codr1/plantfloor/internal/api/pages"
	"github.com/codr1/plantfloor/internal/api/themes"
	"github.com/codr1/plantfloor/internal/models"
	sitetempl "github.com/codr1/plantfloor/internal/templates/components/site"
	"github.com/codr1/plantfloor/internal/templates/layouts"
)

const (
	siteQueryTimeout = 5 * time.Second
	homePostLimit    = 3
)

// GET /{$}
func HandleHome(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), siteQueryTimeout)
	defer cancel()

	featured, err := catalog.ListProducts(ctx, "", true)
	if err != nil {
		serverError(w, r, err, "Failed to load featured products")
		return
	}
	posts, err := pages.ListPages(ctx, models.PageKindBlog, false)
	if err != nil {
		serverError(w, r, err, "Failed to load blog posts")
		return
	}
	if len(posts) > homePostLimit {
		posts = posts[:homePostLimit]
	}

	renderPage(w, r, http.StatusOK, layouts.PageMeta{
		Description: "Industrial automation parts, repair and integration.",
	}, sitetempl.Home(featured, posts))
}

// GET /products
func HandleProducts(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category != "" && !models.IsSlug(category) {
		renderNotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), siteQueryTimeout)
	defer cancel()

	categories, err := catalog.ListCategories(ctx)
	if err != nil {
		serverError(w, r, err, "Failed to load categories")
		return
	}
	products, err := catalog.ListProducts(ctx, category, false)
	if err != nil {
		serverError(w, r, err, "Failed to load products")
		return
	}

	renderPage(w, r, http.StatusOK, layouts.PageMeta{Title: "Products"}, sitetempl.ProductList(categories, category, products))
}

// GET /products/{slug}
func HandleProduct(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(r.PathValue("slug"))
	if !models.IsSlug(slug) {
		renderNotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), siteQueryTimeout)
	defer cancel()

	product, err := catalog.GetProduct(ctx, slug)
	if err != nil {
		serverError(w, r, err, "Failed to load product")
		return
	}
	if product == nil {
		renderNotFound(w, r)
		return
	}

	renderPage(w, r, http.StatusOK, layouts.PageMeta{Title: product.Name, Description: product.Summary}, sitetempl.ProductDetail(*product))
}

// GET /blog
func HandleBlog(w http.ResponseWriter, r *http.Request) {
	handlePageList(w, r, models.PageKindBlog, "Blog")
}

// GET /gallery
func HandleGallery(w http.ResponseWriter, r *http.Request) {
	handlePageList(w, r, models.PageKindGallery, "Gallery")
}

// GET /pages/{slug}
func HandlePage(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(r.PathValue("slug"))
	if !models.IsSlug(slug) {
		renderNotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), siteQueryTimeout)
	defer cancel()

	page, err := pages.GetPage(ctx, slug, isStaff(r))
	if err != nil {
		serverError(w, r, err, "Failed to load page")
		return
	}
	if page == nil {
		renderNotFound(w, r)
		return
	}

	renderPage(w, r, http.StatusOK, layouts.PageMeta{Title: page.Title, Description: page.Summary}, sitetempl.PageDetail(*page))
}

// GET /contact
func HandleContact(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, http.StatusOK, layouts.PageMeta{Title: "Contact"}, sitetempl.ContactForm())
}

// GET /quote
func HandleQuote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), siteQueryTimeout)
	defer cancel()

	products, err := catalog.ListProducts(ctx, "", false)
	if err != nil {
		serverError(w, r, err, "Failed to load products")
		return
	}

	selected := strings.TrimSpace(r.URL.Query().Get("product"))
	renderPage(w, r, http.StatusOK, layouts.PageMeta{Title: "Request a Quote"}, sitetempl.QuoteForm(products, selected))
}

// HandleNotFound answers every unmatched path.
func HandleNotFound(w http.ResponseWriter, r *http.Request) {
	renderNotFound(w, r)
}

func handlePageList(w http.ResponseWriter, r *http.Request, kind, title string) {
	ctx, cancel := context.WithTimeout(r.Context(), siteQueryTimeout)
	defer cancel()

	list, err := pages.ListPages(ctx, kind, false)
	if err != nil {
		serverError(w, r, err, "Failed to load "+strings.ToLower(title))
		return
	}

	renderPage(w, r, http.StatusOK, layouts.PageMeta{Title: title}, sitetempl.PageList(title, list))
}

func renderNotFound(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, http.StatusNotFound, layouts.PageMeta{Title: "Not found"}, sitetempl.NotFound())
}

func renderPage(w http.ResponseWriter, r *http.Request, status int, meta layouts.PageMeta, content templ.Component) {
	meta.Theme = themes.ResolveTheme(r.Context())
	meta.SignedIn = authz.UserFromContext(r.Context()) != nil

	var buf bytes.Buffer
	if err := layouts.Base(meta, content).Render(r.Context(), &buf); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to render page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write page")
	}
}

func serverError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	log.Ctx(r.Context()).Error().Err(err).Msg(msg)
	http.Error(w, "Something went wrong. Please try again later.", http.StatusInternalServerError)
}

func isStaff(r *http.Request) bool {
	return authz.RequireRole(r.Context(), authz.RoleAdmin, authz.RoleEditor) == nil
}
