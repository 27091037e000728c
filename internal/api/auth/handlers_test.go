package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/codr1/plantfloor/internal/api/authz"
	"github.com/codr1/plantfloor/internal/config"
	dbgen "github.com/codr1/plantfloor/internal/db/generated"
	"github.com/codr1/plantfloor/internal/ratelimit"
	"github.com/codr1/plantfloor/internal/testutil"
)

const testPassword = "correct-horse-battery"

func setupAuthTest(t *testing.T) *dbgen.Queries {
	t.Helper()

	database := testutil.NewTestDB(t)

	// Save and restore global state
	prevConfig := appConfig
	prevQueries := queries
	prevTokens := tokens
	prevLimiter := limiter
	prevLoginLimiter := loginLimiter
	t.Cleanup(func() {
		appConfig = prevConfig
		queries = prevQueries
		tokens = prevTokens
		limiter = prevLimiter
		loginLimiter = prevLoginLimiter
	})

	cfg := &config.Config{}
	cfg.App.Environment = "development"
	cfg.App.SecretKey = "test-secret-key"
	cfg.Auth.SessionTTL = time.Hour
	cfg.Auth.CookieName = config.DefaultCookieName
	cfg.Auth.Issuer = config.DefaultIssuer

	attempts := ratelimit.New(&ratelimit.Config{
		SubmitCooldown:     time.Second,
		SubmitMaxPerHour:   10,
		SubmitMaxIPPerHour: 10,
		LoginMaxFailures:   3,
		LoginLockout:       time.Minute,
		LoginMaxIPPerHour:  100,
	})
	t.Cleanup(attempts.Close)

	q := database.Queries
	InitHandlers(q, cfg, attempts)

	hash, err := HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	if _, err := q.CreateUser(context.Background(), dbgen.CreateUserParams{
		Email:        "admin@example.com",
		Name:         "Admin",
		PasswordHash: hash,
		Role:         "admin",
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return q
}

func postLogin(t *testing.T, body string, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	req.RemoteAddr = "203.0.113.9:4000"
	rec := httptest.NewRecorder()
	HandleLogin(rec, req)
	return rec
}

func TestLoginSuccessSetsCookie(t *testing.T) {
	setupAuthTest(t)

	rec := postLogin(t, `{"email":"Admin@Example.com","password":"`+testPassword+`"}`, "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp loginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token == "" || resp.User.Role != "admin" || resp.User.UID == "" {
		t.Fatalf("unexpected login response: %+v", resp)
	}

	var sessionCookie *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == config.DefaultCookieName {
			sessionCookie = cookie
		}
	}
	if sessionCookie == nil || sessionCookie.Value != resp.Token {
		t.Fatal("expected session cookie carrying the token")
	}
	if !sessionCookie.HttpOnly {
		t.Fatal("expected HttpOnly session cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(sessionCookie)
	user, err := UserFromRequest(httptest.NewRecorder(), req)
	if err != nil {
		t.Fatalf("UserFromRequest() error = %v", err)
	}
	if user == nil || user.Email != "admin@example.com" || user.Role != authz.RoleAdmin {
		t.Fatalf("UserFromRequest() = %+v", user)
	}
}

func TestLoginWithForm(t *testing.T) {
	setupAuthTest(t)

	form := url.Values{}
	form.Set("email", "admin@example.com")
	form.Set("password", testPassword)
	rec := postLogin(t, form.Encode(), "application/x-www-form-urlencoded")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	setupAuthTest(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "wrong_password", body: `{"email":"admin@example.com","password":"nope"}`, want: http.StatusUnauthorized},
		{name: "unknown_user", body: `{"email":"ghost@example.com","password":"nope"}`, want: http.StatusUnauthorized},
		{name: "invalid_email", body: `{"email":"ghost","password":"nope"}`, want: http.StatusBadRequest},
		{name: "unknown_field", body: `{"email":"admin@example.com","password":"x","extra":1}`, want: http.StatusBadRequest},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := postLogin(t, test.body, "application/json")
			if rec.Code != test.want {
				t.Fatalf("expected status %d, got %d: %s", test.want, rec.Code, rec.Body.String())
			}
			if len(rec.Result().Cookies()) != 0 {
				t.Fatal("expected no cookies on failed login")
			}
		})
	}
}

func TestLoginLockout(t *testing.T) {
	setupAuthTest(t)

	for i := 0; i < 3; i++ {
		rec := postLogin(t, `{"email":"admin@example.com","password":"wrong"}`, "application/json")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
	}

	rec := postLogin(t, `{"email":"admin@example.com","password":"`+testPassword+`"}`, "application/json")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after lockout, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestUserFromRequestBearerAndDeletedUser(t *testing.T) {
	q := setupAuthTest(t)

	user, err := q.GetUserByEmail(context.Background(), "admin@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	token, _, err := tokens.Issue(authz.NewAuthUser(user.ID, user.Email, user.Role))
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	got, err := UserFromRequest(httptest.NewRecorder(), req)
	if err != nil || got == nil || got.ID != user.ID {
		t.Fatalf("UserFromRequest() = %+v, %v", got, err)
	}

	if _, err := q.DeleteUser(context.Background(), user.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	got, err = UserFromRequest(httptest.NewRecorder(), req)
	if err != nil || got != nil {
		t.Fatalf("UserFromRequest() after delete = %+v, %v; want nil, nil", got, err)
	}
}

func TestUserFromRequestInvalidTokenClearsCookie(t *testing.T) {
	setupAuthTest(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: config.DefaultCookieName, Value: "forged"})
	rec := httptest.NewRecorder()
	user, err := UserFromRequest(rec, req)
	if err != nil || user != nil {
		t.Fatalf("UserFromRequest() = %+v, %v; want nil, nil", user, err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected cleared session cookie, got %+v", cookies)
	}
}

func TestHandleMe(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	HandleMe(rec, req)
	if strings.TrimSpace(rec.Body.String()) != `{"user":null}` {
		t.Fatalf("anonymous body = %s", rec.Body.String())
	}

	ctx := authz.ContextWithUser(req.Context(), authz.NewAuthUser(3, "ed@example.com", authz.RoleEditor))
	rec = httptest.NewRecorder()
	HandleMe(rec, req.WithContext(ctx))
	var payload struct {
		User sessionUser `json:"user"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.User.UID != "3" || payload.User.Role != authz.RoleEditor {
		t.Fatalf("user = %+v", payload.User)
	}
}

func TestHandleLogoutClearsCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	rec := httptest.NewRecorder()
	HandleLogout(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != "" {
		t.Fatalf("expected cleared cookie, got %+v", cookies)
	}
}

func TestEnsureAdmin(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	cfg := &config.Config{}
	cfg.Admin.Email = "Owner@Example.com"
	cfg.Admin.Password = "long-enough-password"

	created, err := EnsureAdmin(ctx, database.Queries, cfg)
	if err != nil || !created {
		t.Fatalf("EnsureAdmin() = %t, %v; want true, nil", created, err)
	}
	user, err := database.Queries.GetUserByEmail(ctx, "owner@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if user.Role != "admin" || !VerifyPassword(user.PasswordHash, cfg.Admin.Password) {
		t.Fatalf("bootstrapped user = %+v", user)
	}

	created, err = EnsureAdmin(ctx, database.Queries, cfg)
	if err != nil || created {
		t.Fatalf("second EnsureAdmin() = %t, %v; want false, nil", created, err)
	}

	cfg.Admin.Password = "short"
	if _, err := EnsureAdmin(ctx, testutil.NewTestDB(t).Queries, cfg); err == nil {
		t.Fatal("expected error for short admin password")
	}
}
