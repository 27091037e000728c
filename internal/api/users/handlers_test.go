package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/codr1/plantfloor/internal/api/auth"
	"github.com/codr1/plantfloor/internal/api/authz"
	dbgen "github.com/codr1/plantfloor/internal/db/generated"
	"github.com/codr1/plantfloor/internal/models"
	"github.com/codr1/plantfloor/internal/testutil"
)

func setupUsers(t *testing.T) *dbgen.Queries {
	t.Helper()

	database := testutil.NewTestDB(t)
	InitHandlers(database.Queries)
	t.Cleanup(func() {
		queries = nil
	})
	return database.Queries
}

func asUser(r *http.Request, id int64, role string) *http.Request {
	user := authz.NewAuthUser(id, "user"+strconv.FormatInt(id, 10)+"@example.com", role)
	return r.WithContext(authz.ContextWithUser(r.Context(), user))
}

func createRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateUser(t *testing.T) {
	q := setupUsers(t)

	recorder := httptest.NewRecorder()
	HandleUserCreate(recorder, asUser(createRequest(`{"email":" Writer@Example.com ","name":"Writer","password":"long-enough-pw","role":"Editor"}`), 1, authz.RoleAdmin))

	if recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d %s", recorder.Code, recorder.Body.String())
	}
	if strings.Contains(recorder.Body.String(), "password") {
		t.Fatalf("response must not expose password data: %s", recorder.Body.String())
	}
	stored, err := q.GetUserByEmail(context.Background(), "writer@example.com")
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if stored.Role != authz.RoleEditor || !auth.VerifyPassword(stored.PasswordHash, "long-enough-pw") {
		t.Fatalf("unexpected stored user: %+v", stored)
	}

	recorder = httptest.NewRecorder()
	HandleUserCreate(recorder, asUser(createRequest(`{"email":"writer@example.com","name":"Again","password":"long-enough-pw","role":"editor"}`), 1, authz.RoleAdmin))
	if recorder.Code != http.StatusConflict {
		t.Fatalf("duplicate status: %d", recorder.Code)
	}
}

func TestCreateUserRejects(t *testing.T) {
	setupUsers(t)

	tests := []struct {
		name string
		body string
		role string
		want int
	}{
		{name: "anonymous", body: `{}`, want: http.StatusUnauthorized},
		{name: "editor", body: `{}`, role: authz.RoleEditor, want: http.StatusForbidden},
		{name: "short_password", body: `{"email":"a@example.com","name":"A","password":"short","role":"editor"}`, role: authz.RoleAdmin, want: http.StatusBadRequest},
		{name: "bad_role", body: `{"email":"a@example.com","name":"A","password":"long-enough-pw","role":"owner"}`, role: authz.RoleAdmin, want: http.StatusBadRequest},
		{name: "bad_email", body: `{"email":"nope","name":"A","password":"long-enough-pw","role":"editor"}`, role: authz.RoleAdmin, want: http.StatusBadRequest},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := createRequest(test.body)
			if test.role != "" {
				req = asUser(req, 1, test.role)
			}
			recorder := httptest.NewRecorder()
			HandleUserCreate(recorder, req)
			if recorder.Code != test.want {
				t.Fatalf("status %d, want %d: %s", recorder.Code, test.want, recorder.Body.String())
			}
		})
	}
}

func TestListAndDeleteUsers(t *testing.T) {
	setupUsers(t)

	var ids []int64
	for _, email := range []string{"first@example.com", "second@example.com"} {
		recorder := httptest.NewRecorder()
		HandleUserCreate(recorder, asUser(createRequest(`{"email":"`+email+`","name":"N","password":"long-enough-pw","role":"admin"}`), 99, authz.RoleAdmin))
		if recorder.Code != http.StatusCreated {
			t.Fatalf("create %s: %d", email, recorder.Code)
		}
		var resp struct {
			User models.User `json:"user"`
		}
		if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		ids = append(ids, resp.User.ID)
	}

	deleteReq := func(actor, target int64) *httptest.ResponseRecorder {
		req := asUser(httptest.NewRequest(http.MethodDelete, "/api/v1/users/"+strconv.FormatInt(target, 10), nil), actor, authz.RoleAdmin)
		req.SetPathValue("id", strconv.FormatInt(target, 10))
		recorder := httptest.NewRecorder()
		HandleUserDelete(recorder, req)
		return recorder
	}

	if rec := deleteReq(ids[0], ids[0]); rec.Code != http.StatusBadRequest {
		t.Fatalf("self delete status: %d", rec.Code)
	}
	if rec := deleteReq(ids[0], ids[1]); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status: %d", rec.Code)
	}
	if rec := deleteReq(ids[0], ids[1]); rec.Code != http.StatusNotFound {
		t.Fatalf("repeat delete status: %d", rec.Code)
	}

	recorder := httptest.NewRecorder()
	HandleUsersList(recorder, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/users", nil), ids[0], authz.RoleAdmin))
	var resp struct {
		Users []models.User `json:"users"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Users) != 1 || resp.Users[0].Email != "first@example.com" {
		t.Fatalf("unexpected users: %+v", resp.Users)
	}
}
