package pages

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codr1/plantfloor/internal/api/authz"
	dbgen "github.com/codr1/plantfloor/internal/db/generated"
	"github.com/codr1/plantfloor/internal/models"
)

type mockPageQueries struct {
	mu     sync.Mutex
	nextID int64
	pages  map[string]dbgen.Page
}

func newMockPageQueries() *mockPageQueries {
	return &mockPageQueries{nextID: 1, pages: make(map[string]dbgen.Page)}
}

func (m *mockPageQueries) DeletePage(ctx context.Context, slug string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pages[slug]; !ok {
		return 0, nil
	}
	delete(m.pages, slug)
	return 1, nil
}

func (m *mockPageQueries) GetPageBySlug(ctx context.Context, slug string) (dbgen.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	page, ok := m.pages[slug]
	if !ok {
		return dbgen.Page{}, sql.ErrNoRows
	}
	return page, nil
}

func (m *mockPageQueries) ListPages(ctx context.Context, arg dbgen.ListPagesParams) ([]dbgen.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var rows []dbgen.Page
	for _, page := range m.pages {
		if arg.Kind.Valid && page.Kind != arg.Kind.String {
			continue
		}
		if !arg.IncludeDrafts && !page.IsPublished {
			continue
		}
		rows = append(rows, page)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	return rows, nil
}

func (m *mockPageQueries) UpsertPage(ctx context.Context, arg dbgen.UpsertPageParams) (dbgen.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	page, ok := m.pages[arg.Slug]
	if !ok {
		page = dbgen.Page{ID: m.nextID, Slug: arg.Slug, CreatedAt: arg.CreatedAt}
		m.nextID++
	}
	page.Kind = arg.Kind
	page.Title = arg.Title
	page.Summary = arg.Summary
	page.Body = arg.Body
	page.ImageUrl = arg.ImageUrl
	page.IsPublished = arg.IsPublished
	page.UpdatedBy = arg.UpdatedBy
	page.UpdatedAt = arg.UpdatedAt
	m.pages[arg.Slug] = page
	return page, nil
}

func (m *mockPageQueries) add(slug, kind string, published bool, createdAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pages[slug] = dbgen.Page{
		ID:          m.nextID,
		Slug:        slug,
		Kind:        kind,
		Title:       strings.ToUpper(slug),
		IsPublished: published,
		UpdatedBy:   "seed",
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	m.nextID++
}

func setupPages(t *testing.T) *mockPageQueries {
	t.Helper()

	mock := newMockPageQueries()
	queries = mock
	t.Cleanup(func() {
		queries = nil
	})

	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	mock.add("about", models.PageKindPage, true, base)
	mock.add("retrofit-case-study", models.PageKindBlog, true, base.Add(time.Hour))
	mock.add("vfd-tuning", models.PageKindBlog, false, base.Add(2*time.Hour))
	mock.add("panel-builds", models.PageKindGallery, true, base.Add(3*time.Hour))
	return mock
}

func withRole(r *http.Request, role string) *http.Request {
	user := authz.NewAuthUser(9, role+"@example.com", role)
	return r.WithContext(authz.ContextWithUser(r.Context(), user))
}

func decodePages(t *testing.T, recorder *httptest.ResponseRecorder) []models.Page {
	t.Helper()
	var resp struct {
		Pages []models.Page `json:"pages"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode pages: %v", err)
	}
	return resp.Pages
}

func TestPagesListHidesDrafts(t *testing.T) {
	setupPages(t)

	tests := []struct {
		name string
		url  string
		role string
		want []string
	}{
		{name: "public_blog", url: "/api/v1/pages?kind=blog", want: []string{"retrofit-case-study"}},
		{name: "editor_blog", url: "/api/v1/pages?kind=blog", role: authz.RoleEditor, want: []string{"vfd-tuning", "retrofit-case-study"}},
		{name: "public_all", url: "/api/v1/pages", want: []string{"panel-builds", "retrofit-case-study", "about"}},
		{name: "gallery", url: "/api/v1/pages?kind=gallery", want: []string{"panel-builds"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, test.url, nil)
			if test.role != "" {
				req = withRole(req, test.role)
			}
			recorder := httptest.NewRecorder()
			HandlePagesList(recorder, req)

			if recorder.Code != http.StatusOK {
				t.Fatalf("status: %d", recorder.Code)
			}
			pages := decodePages(t, recorder)
			if len(pages) != len(test.want) {
				t.Fatalf("got %d pages, want %d", len(pages), len(test.want))
			}
			for i, slug := range test.want {
				if pages[i].Slug != slug {
					t.Fatalf("pages[%d] = %s, want %s", i, pages[i].Slug, slug)
				}
			}
		})
	}
}

func TestPagesListRejectsUnknownKind(t *testing.T) {
	setupPages(t)

	recorder := httptest.NewRecorder()
	HandlePagesList(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/pages?kind=forum", nil))
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", recorder.Code)
	}
}

func TestPageDetailDraftVisibility(t *testing.T) {
	setupPages(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pages/vfd-tuning", nil)
	req.SetPathValue("slug", "vfd-tuning")
	recorder := httptest.NewRecorder()
	HandlePageDetail(recorder, req)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("anonymous draft status: %d", recorder.Code)
	}

	recorder = httptest.NewRecorder()
	HandlePageDetail(recorder, withRole(req, authz.RoleAdmin))
	if recorder.Code != http.StatusOK {
		t.Fatalf("admin draft status: %d", recorder.Code)
	}
}

func TestPageSave(t *testing.T) {
	mock := setupPages(t)

	body := `{"slug":"vfd-tuning","kind":"blog","title":"Tuning VFDs","body":"Start with motor nameplate data.","isPublished":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	HandlePageSave(recorder, withRole(req, authz.RoleEditor))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d %s", recorder.Code, recorder.Body.String())
	}
	saved, err := mock.GetPageBySlug(context.Background(), "vfd-tuning")
	if err != nil {
		t.Fatalf("load page: %v", err)
	}
	if !saved.IsPublished || saved.Title != "Tuning VFDs" || saved.UpdatedBy != "editor@example.com" {
		t.Fatalf("unexpected saved page: %+v", saved)
	}
	if saved.ID != 3 {
		t.Fatalf("expected upsert to keep id 3, got %d", saved.ID)
	}
}

func TestPageSaveRejects(t *testing.T) {
	setupPages(t)

	tests := []struct {
		name string
		body string
		role string
		want int
	}{
		{name: "anonymous", body: `{"slug":"x","kind":"page","title":"X"}`, want: http.StatusUnauthorized},
		{name: "bad_kind", body: `{"slug":"x","kind":"forum","title":"X"}`, role: authz.RoleEditor, want: http.StatusBadRequest},
		{name: "missing_title", body: `{"slug":"x","kind":"page"}`, role: authz.RoleEditor, want: http.StatusBadRequest},
		{name: "bad_slug", body: `{"slug":"x y","kind":"page","title":"X"}`, role: authz.RoleAdmin, want: http.StatusBadRequest},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/pages", strings.NewReader(test.body))
			req.Header.Set("Content-Type", "application/json")
			if test.role != "" {
				req = withRole(req, test.role)
			}
			recorder := httptest.NewRecorder()
			HandlePageSave(recorder, req)
			if recorder.Code != test.want {
				t.Fatalf("status %d, want %d: %s", recorder.Code, test.want, recorder.Body.String())
			}
		})
	}
}

func TestPageDelete(t *testing.T) {
	setupPages(t)

	req := withRole(httptest.NewRequest(http.MethodDelete, "/api/v1/pages/about", nil), authz.RoleEditor)
	req.SetPathValue("slug", "about")

	recorder := httptest.NewRecorder()
	HandlePageDelete(recorder, req)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("status: %d", recorder.Code)
	}

	recorder = httptest.NewRecorder()
	HandlePageDelete(recorder, req)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("second delete status: %d", recorder.Code)
	}
}
