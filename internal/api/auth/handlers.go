package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/codr1/plantfloor/internal/api/apiutil"
	"github.com/codr1/plantfloor/internal/api/authz"
	"github.com/codr1/plantfloor/internal/config"
	dbgen "github.com/codr1/plantfloor/internal/db/generated"
	"github.com/codr1/plantfloor/internal/models"
	"github.com/codr1/plantfloor/internal/ratelimit"
)

const authQueryTimeout = 5 * time.Second

var (
	limiter      *rate.Limiter
	loginLimiter *ratelimit.Limiter
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=256"`
}

type sessionUser struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
}

type loginResponse struct {
	User      sessionUser `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(q *dbgen.Queries, cfg *config.Config, attempts *ratelimit.Limiter) {
	var aq authQueries
	if q != nil {
		aq = q
	}
	initHandlers(aq, cfg, attempts)
}

func initHandlers(q authQueries, cfg *config.Config, attempts *ratelimit.Limiter) {
	queries = q
	appConfig = cfg
	loginLimiter = attempts
	limiter = rate.NewLimiter(rate.Limit(20), 10)

	secret := ""
	ttl := config.DefaultSessionTTL
	issuer := config.DefaultIssuer
	if cfg != nil {
		secret = cfg.App.SecretKey
		if cfg.Auth.SessionTTL > 0 {
			ttl = cfg.Auth.SessionTTL
		}
		if cfg.Auth.Issuer != "" {
			issuer = cfg.Auth.Issuer
		}
	}
	if secret == "" {
		// Development without APP_SECRET_KEY: sessions do not survive restarts.
		secret = randomDevSecret()
		log.Warn().Msg("APP_SECRET_KEY not set; using an ephemeral session secret")
	}
	tokens = NewTokenService([]byte(secret), ttl, issuer)
}

// POST /api/v1/auth/login
func HandleLogin(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if queries == nil || tokens == nil {
		logger.Error().Msg("Auth handlers not initialized")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if limiter != nil && !limiter.Allow() {
		w.Header().Set("Retry-After", "1")
		apiutil.WriteJSONError(w, http.StatusTooManyRequests, "Too many requests")
		return
	}

	req, err := decodeLoginRequest(r)
	if err != nil {
		apiutil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ip := ratelimit.GetClientIP(r, appConfig != nil && appConfig.App.TrustProxy)
	if loginLimiter != nil {
		if result := loginLimiter.CheckLogin(req.Email, ip); !result.Allowed {
			ratelimit.LogRateLimitExceeded("login", req.Email, ip, result.Reason)
			w.Header().Set("Retry-After", ratelimit.RetryAfterSeconds(result.RetryAfter))
			apiutil.WriteJSONError(w, http.StatusTooManyRequests, "Too many login attempts, try again later")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), authQueryTimeout)
	defer cancel()

	user, err := queries.GetUserByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		logger.Error().Err(err).Msg("Failed to load user for login")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Failed to sign in")
		return
	}

	if errors.Is(err, sql.ErrNoRows) {
		burnPasswordCheck(req.Password)
		recordLoginFailure(r, req.Email, ip)
		apiutil.WriteJSONError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if !VerifyPassword(user.PasswordHash, req.Password) {
		recordLoginFailure(r, req.Email, ip)
		apiutil.WriteJSONError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if loginLimiter != nil {
		loginLimiter.ResetLoginFailures(req.Email)
	}

	authUser := authz.NewAuthUser(user.ID, user.Email, user.Role)
	token, expiresAt, err := tokens.Issue(authUser)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to issue session token")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Failed to sign in")
		return
	}
	SetSessionCookie(w, token, expiresAt)

	logger.Info().Int64("user_id", user.ID).Str("role", user.Role).Msg("User signed in")
	if err := apiutil.WriteJSON(w, http.StatusOK, loginResponse{
		User:      sessionUser{UID: authUser.UID, Email: user.Email, Name: user.Name, Role: authUser.Role},
		Token:     token,
		ExpiresAt: expiresAt,
	}); err != nil {
		logger.Error().Err(err).Msg("Failed to write login response")
	}
}

// POST /api/v1/auth/logout
func HandleLogout(w http.ResponseWriter, r *http.Request) {
	ClearSessionCookie(w)
	if user := authz.UserFromContext(r.Context()); user != nil {
		log.Ctx(r.Context()).Info().Int64("user_id", user.ID).Msg("User signed out")
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/auth/me
func HandleMe(w http.ResponseWriter, r *http.Request) {
	user := authz.UserFromContext(r.Context())
	var payload *sessionUser
	if user != nil {
		payload = &sessionUser{UID: user.UID, Email: user.Email, Role: user.Role}
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"user": payload}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write session response")
	}
}

func decodeLoginRequest(r *http.Request) (loginRequest, error) {
	var req loginRequest
	if apiutil.IsJSONRequest(r) {
		if err := apiutil.DecodeJSON(r, &req); err != nil {
			return req, fmt.Errorf("Invalid JSON body")
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return req, fmt.Errorf("Invalid form body")
		}
		req.Email = r.FormValue("email")
		req.Password = r.FormValue("password")
	}
	req.Email = models.NormalizeEmail(req.Email)
	if err := apiutil.ValidateStruct(req); err != nil {
		return req, err
	}
	return req, nil
}

func recordLoginFailure(r *http.Request, email, ip string) {
	logger := log.Ctx(r.Context())
	logger.Warn().
		Str("identifier", ratelimit.SanitizeIdentifier(email)).
		Str("ip", ip).
		Msg("Failed login attempt")
	if loginLimiter == nil {
		return
	}
	if loginLimiter.RecordLoginFailure(email, ip) {
		ratelimit.LogRateLimitExceeded("login", email, ip, "lockout_started")
	}
}

// EnsureAdmin creates the configured admin account when the users table is
// empty and ADMIN_PASSWORD is set. It reports whether an account was created.
func EnsureAdmin(ctx context.Context, q *dbgen.Queries, cfg *config.Config) (bool, error) {
	return ensureAdmin(ctx, q, cfg, time.Now().UTC())
}

func ensureAdmin(ctx context.Context, q authQueries, cfg *config.Config, now time.Time) (bool, error) {
	if cfg == nil || strings.TrimSpace(cfg.Admin.Password) == "" || strings.TrimSpace(cfg.Admin.Email) == "" {
		return false, nil
	}
	if len(cfg.Admin.Password) < MinPasswordLength {
		return false, fmt.Errorf("ADMIN_PASSWORD must be at least %d characters", MinPasswordLength)
	}

	count, err := q.CountUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	hash, err := HashPassword(cfg.Admin.Password)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	name := strings.TrimSpace(cfg.Admin.Name)
	if name == "" {
		name = "Administrator"
	}
	user, err := q.CreateUser(ctx, dbgen.CreateUserParams{
		Email:        models.NormalizeEmail(cfg.Admin.Email),
		Name:         name,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return false, fmt.Errorf("create admin user: %w", err)
	}
	log.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("Bootstrapped admin user")
	return true, nil
}
