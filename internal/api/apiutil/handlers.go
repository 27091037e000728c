package apiutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/rs/zerolog/log"

	"github.com/codr1/plantfloor/internal/api/authz"
)

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteJSONError writes {"error": message} with the given status.
func WriteJSONError(w http.ResponseWriter, status int, message string) {
	_ = WriteJSON(w, status, map[string]string{"error": message})
}

// WriteHandlerError maps err to a JSON error response. HandlerError keeps its
// status and message, FieldError becomes a 400, anything else a 500 with
// fallback as the message.
func WriteHandlerError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var handlerErr HandlerError
	if errors.As(err, &handlerErr) {
		if handlerErr.Status >= http.StatusInternalServerError {
			log.Ctx(r.Context()).Error().Err(err).Msg(handlerErr.Message)
		}
		WriteJSONError(w, handlerErr.Status, handlerErr.Message)
		return
	}
	var fieldErr FieldError
	if errors.As(err, &fieldErr) {
		WriteJSONError(w, http.StatusBadRequest, fieldErr.Error())
		return
	}
	log.Ctx(r.Context()).Error().Err(err).Msg(fallback)
	WriteJSONError(w, http.StatusInternalServerError, fallback)
}

// IsJSONRequest reports whether the client sent or expects JSON.
func IsJSONRequest(r *http.Request) bool {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "application/json") {
		return true
	}
	return strings.Contains(strings.ToLower(r.Header.Get("Accept")), "application/json")
}

// RenderHTMLComponent renders component to w as HTML. On failure it logs
// logMsg and answers 500 with userMsg. extraHeaders are set before writing.
func RenderHTMLComponent(ctx context.Context, w http.ResponseWriter, component templ.Component, extraHeaders map[string]string, logMsg, userMsg string) bool {
	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg(logMsg)
		http.Error(w, userMsg, http.StatusInternalServerError)
		return false
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	for key, value := range extraHeaders {
		w.Header().Set(key, value)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to write HTML response")
		return false
	}
	return true
}

// WriteHTMLFeedback writes a small status fragment for htmx form targets.
func WriteHTMLFeedback(w http.ResponseWriter, status int, message string) {
	class := "feedback feedback-success"
	if status >= http.StatusBadRequest {
		class = "feedback feedback-error"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `<div class="%s" role="status">%s</div>`, class, html.EscapeString(message))
}

// RequireRole writes a 401 or 403 JSON error and returns false when the
// request's session user holds none of roles.
func RequireRole(w http.ResponseWriter, r *http.Request, roles ...string) bool {
	err := authz.RequireRole(r.Context(), roles...)
	if err == nil {
		return true
	}
	logger := log.Ctx(r.Context())
	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		logger.Warn().Str("path", r.URL.Path).Msg("Access denied: unauthenticated")
		WriteJSONError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, authz.ErrForbidden):
		logger.Warn().Str("path", r.URL.Path).Msg("Access denied: forbidden")
		WriteJSONError(w, http.StatusForbidden, "Forbidden")
	default:
		logger.Error().Err(err).Msg("Access check failed")
		WriteJSONError(w, http.StatusInternalServerError, "Failed to authorize request")
	}
	return false
}
