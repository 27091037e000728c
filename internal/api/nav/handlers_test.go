package nav

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/codr1/plantfloor/internal/search"
)

func setupIndex(t *testing.T) {
	t.Helper()

	InitHandlers(search.New([]search.Entry{
		{Title: "Variable Frequency Drives", URL: "/products?category=drives", Summary: "AC drives <fast>", Keywords: []string{"vfd"}},
		{Title: "Contact Us", URL: "/contact", Summary: "Reach the sales desk."},
	}))
	t.Cleanup(func() {
		index = nil
	})
}

func TestHandleSearchJSON(t *testing.T) {
	setupIndex(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=VFD+drives", nil)
	recorder := httptest.NewRecorder()
	HandleSearch(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	var resp struct {
		Results []search.Result `json:"results"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].URL != "/products?category=drives" {
		t.Fatalf("unexpected results: %+v", resp.Results)
	}
	if strings.Contains(recorder.Body.String(), "keywords") {
		t.Fatalf("keywords must not be exposed: %s", recorder.Body.String())
	}
}

func TestHandleSearchEmptyQuery(t *testing.T) {
	setupIndex(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)
	recorder := httptest.NewRecorder()
	HandleSearch(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), `"results":[]`) {
		t.Fatalf("expected empty results, got: %s", recorder.Body.String())
	}
}

func TestHandleSearchBadLimit(t *testing.T) {
	setupIndex(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=vfd&limit=-2", nil)
	recorder := httptest.NewRecorder()
	HandleSearch(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestHandleSearchHTMX(t *testing.T) {
	setupIndex(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nav/search?q=drives", nil)
	req.Header.Set("HX-Request", "true")
	recorder := httptest.NewRecorder()
	HandleSearch(recorder, req)

	body := recorder.Body.String()
	if !strings.Contains(body, `href="/products?category=drives"`) {
		t.Fatalf("expected result link, got: %s", body)
	}
	if strings.Contains(body, "<fast>") || !strings.Contains(body, "&lt;fast&gt;") {
		t.Fatalf("summary must be escaped: %s", body)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/nav/search?q=zzz", nil)
	req.Header.Set("HX-Request", "true")
	recorder = httptest.NewRecorder()
	HandleSearch(recorder, req)
	if !strings.Contains(recorder.Body.String(), "No results") {
		t.Fatalf("expected empty state, got: %s", recorder.Body.String())
	}
}

func TestHandleMenu(t *testing.T) {
	recorder := httptest.NewRecorder()
	HandleMenu(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/nav/menu", nil))

	body := recorder.Body.String()
	for _, href := range []string{`href="/products"`, `href="/quote"`, `href="/blog"`} {
		if !strings.Contains(body, href) {
			t.Fatalf("menu missing %s: %s", href, body)
		}
	}
}
