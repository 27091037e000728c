// internal/api/pages/handlers.go
package pages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/plantfloor/internal/api/apiutil"
	"github.com/codr1/plantfloor/internal/api/authz"
	dbgen "github.com/codr1/plantfloor/internal/db/generated"
	"github.com/codr1/plantfloor/internal/models"
)

const (
	pageQueryTimeout = 5 * time.Second
	slugParam        = "slug"
)

var queries pageQueries

type pageQueries interface {
	DeletePage(ctx context.Context, slug string) (int64, error)
	GetPageBySlug(ctx context.Context, slug string) (dbgen.Page, error)
	ListPages(ctx context.Context, arg dbgen.ListPagesParams) ([]dbgen.Page, error)
	UpsertPage(ctx context.Context, arg dbgen.UpsertPageParams) (dbgen.Page, error)
}

type pageRequest struct {
	Slug        string `json:"slug" validate:"required,slug"`
	Kind        string `json:"kind" validate:"required,pagekind"`
	Title       string `json:"title" validate:"required,max=200"`
	Summary     string `json:"summary" validate:"max=1000"`
	Body        string `json:"body" validate:"max=100000"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,max=500"`
	IsPublished bool   `json:"isPublished"`
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(q *dbgen.Queries) {
	if q == nil {
		return
	}
	queries = q
}

// GET /api/v1/pages?kind=blog|gallery|page
func HandlePagesList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if loadQueries() == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	kind := strings.TrimSpace(r.URL.Query().Get("kind"))
	if kind != "" && !models.IsValidPageKind(kind) {
		apiutil.WriteJSONError(w, http.StatusBadRequest, "kind must be page, blog, or gallery")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pageQueryTimeout)
	defer cancel()

	pages, err := ListPages(ctx, kind, canSeeDrafts(r))
	if err != nil {
		logger.Error().Err(err).Str("kind", kind).Msg("Failed to list pages")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Failed to load pages")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"pages": pages}); err != nil {
		logger.Error().Err(err).Msg("Failed to write pages response")
	}
}

// GET /api/v1/pages/{slug}
func HandlePageDetail(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if loadQueries() == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	slug, err := slugFromRequest(r)
	if err != nil {
		apiutil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pageQueryTimeout)
	defer cancel()

	page, err := GetPage(ctx, slug, canSeeDrafts(r))
	if err != nil {
		logger.Error().Err(err).Str("slug", slug).Msg("Failed to load page")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Failed to load page")
		return
	}
	if page == nil {
		apiutil.WriteJSONError(w, http.StatusNotFound, "Page not found")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"page": page}); err != nil {
		logger.Error().Err(err).Msg("Failed to write page response")
	}
}

// POST /api/v1/pages
func HandlePageSave(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if !apiutil.RequireRole(w, r, authz.RoleAdmin, authz.RoleEditor) {
		return
	}
	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req pageRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteJSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := apiutil.ValidateStruct(req); err != nil {
		apiutil.WriteHandlerError(w, r, err, "Invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pageQueryTimeout)
	defer cancel()

	user := authz.UserFromContext(r.Context())
	now := time.Now().UTC()
	saved, err := q.UpsertPage(ctx, dbgen.UpsertPageParams{
		Slug:        req.Slug,
		Kind:        req.Kind,
		Title:       strings.TrimSpace(req.Title),
		Summary:     req.Summary,
		Body:        req.Body,
		ImageUrl:    req.ImageURL,
		IsPublished: req.IsPublished,
		UpdatedBy:   user.Actor(),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		logger.Error().Err(err).Str("slug", req.Slug).Msg("Failed to save page")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Failed to save page")
		return
	}

	logger.Info().
		Str("slug", saved.Slug).
		Str("kind", saved.Kind).
		Bool("published", saved.IsPublished).
		Int64("user_id", user.ID).
		Msg("Page saved")
	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"page": models.PageFromDB(saved)}); err != nil {
		logger.Error().Err(err).Msg("Failed to write page response")
	}
}

// DELETE /api/v1/pages/{slug}
func HandlePageDelete(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if !apiutil.RequireRole(w, r, authz.RoleAdmin, authz.RoleEditor) {
		return
	}
	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	slug, err := slugFromRequest(r)
	if err != nil {
		apiutil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), pageQueryTimeout)
	defer cancel()

	deleted, err := q.DeletePage(ctx, slug)
	if err != nil {
		logger.Error().Err(err).Str("slug", slug).Msg("Failed to delete page")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Failed to delete page")
		return
	}
	if deleted == 0 {
		apiutil.WriteJSONError(w, http.StatusNotFound, "Page not found")
		return
	}

	logger.Info().Str("slug", slug).Msg("Page deleted")
	w.WriteHeader(http.StatusNoContent)
}

// ListPages returns pages newest first. An empty kind lists every kind.
func ListPages(ctx context.Context, kind string, includeDrafts bool) ([]models.Page, error) {
	q := loadQueries()
	if q == nil {
		return nil, errors.New("page queries not initialized")
	}
	rows, err := q.ListPages(ctx, dbgen.ListPagesParams{
		Kind:          apiutil.ToNullString(kind),
		IncludeDrafts: includeDrafts,
	})
	if err != nil {
		return nil, err
	}
	return models.PagesFromDB(rows), nil
}

// GetPage returns nil, nil when the page is missing or is a draft the caller
// may not see.
func GetPage(ctx context.Context, slug string, includeDrafts bool) (*models.Page, error) {
	q := loadQueries()
	if q == nil {
		return nil, errors.New("page queries not initialized")
	}
	row, err := q.GetPageBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if !row.IsPublished && !includeDrafts {
		return nil, nil
	}
	page := models.PageFromDB(row)
	return &page, nil
}

func canSeeDrafts(r *http.Request) bool {
	return authz.RequireRole(r.Context(), authz.RoleAdmin, authz.RoleEditor) == nil
}

func slugFromRequest(r *http.Request) (string, error) {
	slug := strings.TrimSpace(r.PathValue(slugParam))
	if !models.IsSlug(slug) {
		return "", fmt.Errorf("invalid slug")
	}
	return slug, nil
}

func loadQueries() pageQueries {
	return queries
}
