// internal/api/themes/handlers.go
package themes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/plantfloor/internal/api/apiutil"
	"github.com/codr1/plantfloor/internal/api/authz"
	"github.com/codr1/plantfloor/internal/api/htmx"
	"github.com/codr1/plantfloor/internal/models"
	"github.com/codr1/plantfloor/internal/templates/layouts"
)

const themeQueryTimeout = 5 * time.Second

var (
	store     models.ThemeStore
	storeOnce sync.Once
)

type themeRequest struct {
	Name      string          `json:"name"`
	Label     string          `json:"label"`
	Config    json.RawMessage `json:"config"`
	IsActive  *bool           `json:"isActive"`
	IsDefault *bool           `json:"isDefault"`
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(s models.ThemeStore) {
	if s == nil {
		return
	}
	storeOnce.Do(func() {
		store = s
	})
}

// GET /api/v1/themes
func HandleThemesList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	s := loadStore()
	if s == nil {
		logger.Error().Msg("Theme store not initialized")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), themeQueryTimeout)
	defer cancel()

	themes, err := models.ListThemes(ctx, s)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list themes")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Failed to load themes")
		return
	}

	isAdmin := authz.IsAdmin(authz.UserFromContext(r.Context()))
	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"themes":  themes,
		"isAdmin": isAdmin,
	}); err != nil {
		logger.Error().Err(err).Msg("Failed to write themes list response")
	}
}

// POST /api/v1/themes
func HandleThemeSave(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	user := authz.UserFromContext(r.Context())
	if !authz.IsAdmin(user) {
		logEvent := logger.Warn()
		if user != nil {
			logEvent = logEvent.Int64("user_id", user.ID).Str("role", user.Role)
		}
		logEvent.Msg("Theme save rejected: admin required")
		apiutil.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	s := loadStore()
	if s == nil {
		logger.Error().Msg("Theme store not initialized")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	req, err := decodeThemeRequest(r)
	if err != nil {
		apiutil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Label) == "" || isMissingConfig(req.Config) {
		apiutil.WriteJSONError(w, http.StatusBadRequest, "name, label, and config are required")
		return
	}

	config, err := models.ParseThemeConfig(req.Config)
	if err != nil {
		apiutil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), themeQueryTimeout)
	defer cancel()

	saved, err := models.SaveTheme(ctx, s, models.SaveThemeInput{
		Name:       req.Name,
		Label:      req.Label,
		Config:     config,
		IsActive:   req.IsActive != nil && *req.IsActive,
		IsDefault:  req.IsDefault != nil && *req.IsDefault,
		ActingUser: user.Actor(),
	})
	if err != nil {
		if errors.Is(err, models.ErrInvalidThemeInput) {
			apiutil.WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error().Err(err).Str("theme", req.Name).Int64("user_id", user.ID).Msg("Failed to save theme")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Failed to save theme")
		return
	}

	logger.Info().
		Str("theme", saved.Name).
		Bool("is_active", saved.IsActive).
		Bool("is_default", saved.IsDefault).
		Int64("user_id", user.ID).
		Msg("Theme saved")

	if htmx.IsRequest(r) {
		w.Header().Set("HX-Trigger", "refreshTheme")
		apiutil.WriteHTMLFeedback(w, http.StatusOK, fmt.Sprintf("Theme %q saved.", saved.Label))
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"theme": saved}); err != nil {
		logger.Error().Err(err).Str("theme", saved.Name).Msg("Failed to write theme save response")
	}
}

// GET /api/v1/themes/active
func HandleActiveTheme(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	theme := ResolveTheme(r.Context())
	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"theme": theme}); err != nil {
		logger.Error().Err(err).Msg("Failed to write active theme response")
	}
}

// GET /theme.css
func HandleThemeCSS(w http.ResponseWriter, r *http.Request) {
	theme := ResolveTheme(r.Context())

	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(layouts.ThemeCSS(theme))); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write theme stylesheet")
	}
}

// ResolveTheme returns the theme the public site renders with. Lookup failures
// are logged and fall back to the built-in palette so pages always render.
func ResolveTheme(ctx context.Context) models.ThemeRecord {
	s := loadStore()
	if s == nil {
		return models.BuiltinTheme()
	}

	queryCtx, cancel := context.WithTimeout(ctx, themeQueryTimeout)
	defer cancel()

	theme, err := models.ResolveActiveTheme(queryCtx, s)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to resolve active theme")
		return models.BuiltinTheme()
	}
	return theme
}

func isMissingConfig(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`))
}

func decodeThemeRequest(r *http.Request) (themeRequest, error) {
	if apiutil.IsJSONRequest(r) {
		var req themeRequest
		if err := apiutil.DecodeJSON(r, &req); err != nil {
			return themeRequest{}, fmt.Errorf("invalid JSON body")
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return themeRequest{}, fmt.Errorf("invalid form body")
	}

	req := themeRequest{
		Name:  apiutil.FirstNonEmpty(r.FormValue("name")),
		Label: apiutil.FirstNonEmpty(r.FormValue("label")),
	}
	if raw := strings.TrimSpace(r.FormValue("config")); raw != "" {
		req.Config = json.RawMessage(raw)
	}
	isActive, err := apiutil.ParseBool(apiutil.FirstNonEmpty(r.FormValue("is_active"), r.FormValue("isActive")))
	if err != nil {
		return themeRequest{}, fmt.Errorf("isActive: %w", err)
	}
	isDefault, err := apiutil.ParseBool(apiutil.FirstNonEmpty(r.FormValue("is_default"), r.FormValue("isDefault")))
	if err != nil {
		return themeRequest{}, fmt.Errorf("isDefault: %w", err)
	}
	req.IsActive = &isActive
	req.IsDefault = &isDefault
	return req, nil
}

func loadStore() models.ThemeStore {
	return store
}
