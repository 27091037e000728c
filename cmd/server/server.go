// cmd/server/server.go
package main

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/plantfloor/assets"
	"github.com/codr1/plantfloor/internal/api"
	"github.com/codr1/plantfloor/internal/api/auth"
	"github.com/codr1/plantfloor/internal/api/catalog"
	"github.com/codr1/plantfloor/internal/api/chat"
	"github.com/codr1/plantfloor/internal/api/inquiries"
	"github.com/codr1/plantfloor/internal/api/nav"
	"github.com/codr1/plantfloor/internal/api/pages"
	"github.com/codr1/plantfloor/internal/api/site"
	"github.com/codr1/plantfloor/internal/api/themes"
	"github.com/codr1/plantfloor/internal/api/users"
	"github.com/codr1/plantfloor/internal/chatbot"
	"github.com/codr1/plantfloor/internal/config"
	"github.com/codr1/plantfloor/internal/db"
	"github.com/codr1/plantfloor/internal/email"
	"github.com/codr1/plantfloor/internal/ratelimit"
	"github.com/codr1/plantfloor/internal/search"
)

func newServer(cfg *config.Config, database *db.DB, sender email.EmailSender, limiter *ratelimit.Limiter) (*http.Server, error) {
	bot, err := chatbot.Load()
	if err != nil {
		return nil, fmt.Errorf("load chatbot: %w", err)
	}
	index, err := search.Load()
	if err != nil {
		return nil, fmt.Errorf("load search index: %w", err)
	}

	auth.InitHandlers(database.Queries, cfg, limiter)
	themes.InitHandlers(database.ThemeStore())
	catalog.InitHandlers(database.Queries)
	pages.InitHandlers(database.Queries)
	users.InitHandlers(database.Queries)
	inquiries.InitHandlers(database.Queries, cfg, sender, limiter)
	chat.InitHandlers(bot)
	nav.InitHandlers(index)

	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithAuth,
		api.WithSecurityHeaders,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	// Register routes
	if err := registerRoutes(router); err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, nil
}

func registerRoutes(mux *http.ServeMux) error {
	// Public pages
	mux.HandleFunc("GET /{$}", site.HandleHome)
	mux.HandleFunc("GET /products", site.HandleProducts)
	mux.HandleFunc("GET /products/{slug}", site.HandleProduct)
	mux.HandleFunc("GET /blog", site.HandleBlog)
	mux.HandleFunc("GET /gallery", site.HandleGallery)
	mux.HandleFunc("GET /contact", site.HandleContact)
	mux.HandleFunc("GET /quote", site.HandleQuote)
	mux.HandleFunc("GET /pages/{slug}", site.HandlePage)
	mux.HandleFunc("/", site.HandleNotFound)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Auth routes
	mux.HandleFunc("POST /api/v1/auth/login", auth.HandleLogin)
	mux.HandleFunc("POST /api/v1/auth/logout", auth.HandleLogout)
	mux.HandleFunc("GET /api/v1/auth/me", auth.HandleMe)

	// Theme routes
	mux.HandleFunc("GET /api/v1/themes", themes.HandleThemesList)
	mux.HandleFunc("POST /api/v1/themes", themes.HandleThemeSave)
	mux.HandleFunc("GET /api/v1/themes/active", themes.HandleActiveTheme)
	mux.HandleFunc("GET /themes", themes.HandleThemesList)
	mux.HandleFunc("POST /themes", themes.HandleThemeSave)
	mux.HandleFunc("GET /theme.css", themes.HandleThemeCSS)

	// Catalog routes
	mux.HandleFunc("GET /api/v1/categories", catalog.HandleCategoriesList)
	mux.HandleFunc("POST /api/v1/categories", catalog.HandleCategorySave)
	mux.HandleFunc("DELETE /api/v1/categories/{slug}", catalog.HandleCategoryDelete)
	mux.HandleFunc("GET /api/v1/products", catalog.HandleProductsList)
	mux.HandleFunc("GET /api/v1/products/{slug}", catalog.HandleProductDetail)
	mux.HandleFunc("POST /api/v1/products", catalog.HandleProductSave)
	mux.HandleFunc("DELETE /api/v1/products/{slug}", catalog.HandleProductDelete)

	// Page routes
	mux.HandleFunc("GET /api/v1/pages", pages.HandlePagesList)
	mux.HandleFunc("GET /api/v1/pages/{slug}", pages.HandlePageDetail)
	mux.HandleFunc("POST /api/v1/pages", pages.HandlePageSave)
	mux.HandleFunc("DELETE /api/v1/pages/{slug}", pages.HandlePageDelete)

	// User routes
	mux.HandleFunc("GET /api/v1/users", users.HandleUsersList)
	mux.HandleFunc("POST /api/v1/users", users.HandleUserCreate)
	mux.HandleFunc("DELETE /api/v1/users/{id}", users.HandleUserDelete)

	// Inquiry routes
	mux.HandleFunc("POST /api/v1/contact", inquiries.HandleContact)
	mux.HandleFunc("POST /api/v1/quote", inquiries.HandleQuote)
	mux.HandleFunc("GET /api/v1/inquiries", inquiries.HandleInquiriesList)

	// Chat, search and navigation routes
	mux.HandleFunc("POST /api/v1/chat", chat.HandleChat)
	mux.HandleFunc("GET /api/v1/search", nav.HandleSearch)
	mux.HandleFunc("GET /api/v1/nav/search", nav.HandleSearch)
	mux.HandleFunc("GET /api/v1/nav/menu", nav.HandleMenu)
	mux.HandleFunc("GET /api/v1/nav/menu/close", nav.HandleMenuClose)

	// Static files ship embedded; STATIC_DIR points at a directory on disk instead.
	static, err := staticHandler(os.Getenv("STATIC_DIR"))
	if err != nil {
		return err
	}
	mux.Handle("GET /static/", static)
	return nil
}

func staticHandler(dir string) (http.Handler, error) {
	var root http.FileSystem
	if dir != "" {
		root = http.Dir(dir)
	} else {
		sub, err := fs.Sub(assets.StaticFS, assets.StaticRoot)
		if err != nil {
			return nil, fmt.Errorf("open embedded static files: %w", err)
		}
		root = http.FS(sub)
	}

	files := http.StripPrefix("/static/", http.FileServer(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debug().
			Str("path", r.URL.Path).
			Str("static_dir", dir).
			Msg("Static file request")
		files.ServeHTTP(w, r)
	}), nil
}
