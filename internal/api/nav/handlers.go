// internal/api/nav/handlers.go
package nav

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/codr1/plantfloor/internal/api/apiutil"
	"github.com/codr1/plantfloor/internal/api/htmx"
	"github.com/codr1/plantfloor/internal/search"
	"github.com/codr1/plantfloor/internal/templates/components/widgets"
	"github.com/codr1/plantfloor/internal/templates/layouts"
)

var index *search.Index

func InitHandlers(idx *search.Index) {
	index = idx
}

// GET /api/v1/nav/menu
func HandleMenu(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(layouts.MenuItemsHTML())); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write menu")
	}
}

// GET /api/v1/nav/menu/close
func HandleMenuClose(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(""))
}

// GET /api/v1/search
func HandleSearch(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if index == nil {
		logger.Error().Msg("Search index not initialized")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := search.DefaultLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			apiutil.WriteJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	results := index.Search(query, limit)

	if htmx.IsRequest(r) {
		apiutil.RenderHTMLComponent(r.Context(), w, widgets.SearchResults(query, results), nil, "Failed to render search results", "Search failed")
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"results": results}); err != nil {
		logger.Error().Err(err).Msg("Failed to write search response")
	}
}
