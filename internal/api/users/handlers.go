// internal/api/users/handlers.go
package users

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/plantfloor/internal/api/apiutil"
	"github.com/codr1/plantfloor/internal/api/auth"
	"github.com/codr1/plantfloor/internal/api/authz"
	dbgen "github.com/codr1/plantfloor/internal/db/generated"
	"github.com/codr1/plantfloor/internal/models"
)

const (
	userQueryTimeout = 5 * time.Second
	userIDParam      = "id"
)

var queries userQueries

type userQueries interface {
	CreateUser(ctx context.Context, arg dbgen.CreateUserParams) (dbgen.User, error)
	DeleteUser(ctx context.Context, id int64) (int64, error)
	ListUsers(ctx context.Context) ([]dbgen.User, error)
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"required,max=120"`
	Password string `json:"password" validate:"required,min=10,max=256"`
	Role     string `json:"role" validate:"required,role"`
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(q *dbgen.Queries) {
	if q == nil {
		return
	}
	queries = q
}

// GET /api/v1/users
func HandleUsersList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if !apiutil.RequireRole(w, r, authz.RoleAdmin) {
		return
	}
	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), userQueryTimeout)
	defer cancel()

	rows, err := q.ListUsers(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list users")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Failed to load users")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"users": models.UsersFromDB(rows)}); err != nil {
		logger.Error().Err(err).Msg("Failed to write users response")
	}
}

// POST /api/v1/users
func HandleUserCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if !apiutil.RequireRole(w, r, authz.RoleAdmin) {
		return
	}
	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req createUserRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteJSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	req.Email = models.NormalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if err := apiutil.ValidateStruct(req); err != nil {
		apiutil.WriteHandlerError(w, r, err, "Invalid request")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to hash password")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), userQueryTimeout)
	defer cancel()

	now := time.Now().UTC()
	created, err := q.CreateUser(ctx, dbgen.CreateUserParams{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if apiutil.IsSQLiteUniqueViolation(err) {
			apiutil.WriteJSONError(w, http.StatusConflict, "A user with that email already exists")
			return
		}
		logger.Error().Err(err).Msg("Failed to create user")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	actor := authz.UserFromContext(r.Context())
	logger.Info().
		Int64("user_id", created.ID).
		Str("role", created.Role).
		Int64("created_by", actor.ID).
		Msg("User created")
	if err := apiutil.WriteJSON(w, http.StatusCreated, map[string]any{"user": models.UserFromDB(created)}); err != nil {
		logger.Error().Err(err).Msg("Failed to write user response")
	}
}

// DELETE /api/v1/users/{id}
func HandleUserDelete(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if !apiutil.RequireRole(w, r, authz.RoleAdmin) {
		return
	}
	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	userID, err := userIDFromRequest(r)
	if err != nil {
		apiutil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	actor := authz.UserFromContext(r.Context())
	if actor.ID == userID {
		apiutil.WriteJSONError(w, http.StatusBadRequest, "You cannot delete your own account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), userQueryTimeout)
	defer cancel()

	deleted, err := q.DeleteUser(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to delete user")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	if deleted == 0 {
		apiutil.WriteJSONError(w, http.StatusNotFound, "User not found")
		return
	}

	logger.Info().Int64("user_id", userID).Int64("deleted_by", actor.ID).Msg("User deleted")
	w.WriteHeader(http.StatusNoContent)
}

func userIDFromRequest(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(userIDParam))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id")
	}
	return id, nil
}

func loadQueries() userQueries {
	return queries
}
