package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/codr1/plantfloor/internal/api/authz"
	"github.com/codr1/plantfloor/internal/config"
	dbgen "github.com/codr1/plantfloor/internal/db/generated"
)

var errAuthConfigMissing = errors.New("auth configuration missing")

type authQueries interface {
	GetUserByEmail(ctx context.Context, email string) (dbgen.User, error)
	GetUserByID(ctx context.Context, id int64) (dbgen.User, error)
	CountUsers(ctx context.Context) (int64, error)
	CreateUser(ctx context.Context, arg dbgen.CreateUserParams) (dbgen.User, error)
}

var (
	appConfig *config.Config
	queries   authQueries
	tokens    *TokenService
)

func cookieName() string {
	if appConfig == nil || appConfig.Auth.CookieName == "" {
		return config.DefaultCookieName
	}
	return appConfig.Auth.CookieName
}

func isSecureCookie() bool {
	return appConfig == nil || !appConfig.IsDevelopment()
}

// SetSessionCookie stores a signed session token in the session cookie.
func SetSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName(),
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecureCookie(),
		SameSite: http.SameSiteLaxMode,
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	if w == nil {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName(),
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecureCookie(),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

// tokenFromRequest prefers an Authorization bearer token over the cookie.
func tokenFromRequest(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		scheme, value, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(value)
		}
	}
	cookie, err := r.Cookie(cookieName())
	if err != nil {
		return ""
	}
	return cookie.Value
}

// UserFromRequest resolves the session identity carried by r. It returns nil,
// nil when the request has no session or the session is no longer valid. The
// user row is reloaded so deleted accounts and role changes apply immediately.
func UserFromRequest(w http.ResponseWriter, r *http.Request) (*authz.AuthUser, error) {
	if r == nil {
		return nil, nil
	}
	token := tokenFromRequest(r)
	if token == "" {
		return nil, nil
	}
	if tokens == nil {
		return nil, errAuthConfigMissing
	}

	claims, err := tokens.Validate(token)
	if err != nil {
		ClearSessionCookie(w)
		return nil, nil
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil || userID <= 0 {
		ClearSessionCookie(w)
		return nil, nil
	}

	if queries == nil {
		return nil, errors.New("auth queries not initialized")
	}
	user, err := queries.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			ClearSessionCookie(w)
			return nil, nil
		}
		return nil, err
	}

	return authz.NewAuthUser(user.ID, user.Email, user.Role), nil
}

func randomDevSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("dev-%d", time.Now().UnixNano())
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
