package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/starford/lisearch/internal/importer"
	"github.com/starford/lisearch/internal/lucky"
	"github.com/starford/lisearch/internal/models"
	"github.com/starford/lisearch/internal/queryservice"
	"github.com/starford/lisearch/internal/store"
)

const exportCSV = "First Name,Last Name,Email Address,Company,Position,Connected On\n" +
	"Jane,Doe,jane@example.com,Acme,Engineer,01 Jan 2024\n" +
	"John,Roe,,Acme,Manager,02 Feb 2024\n" +
	"Ada,Byron,ada@example.com,Babbage & Co,Analyst,03 Mar 2024\n"

type nopNotifier struct{}

func (nopNotifier) Notify(kind, title, detail string) {}
func (nopNotifier) Open(query string)                 {}

// testEnv sets up a temp SQLite store, services, and router for testing.
// authToken="" means disabled mode; non-empty means token mode.
func testEnv(t *testing.T, authToken string) (*store.Store, http.Handler) {
	t.Helper()

	dbFile, err := os.CreateTemp("", "lisearch-api-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	st, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	query := queryservice.NewService(st, logger, queryservice.Options{})
	selector := lucky.NewSelector(st, nopNotifier{}, nopNotifier{}, logger)
	imp := importer.New(st, nopNotifier{}, logger)

	h := NewHandler(st, query, selector, imp)
	router := NewRouter(h, authToken != "", authToken, nil)
	return st, router
}

func doImport(t *testing.T, router http.Handler) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(exportCSV))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("import status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestImportAndGetPage(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(exportCSV))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("import status = %d, body = %s", w.Code, w.Body.String())
	}
	var sum ImportResponse
	_ = json.Unmarshal(w.Body.Bytes(), &sum)
	if sum.Connections != 3 || sum.Companies != 2 || sum.Positions != 3 {
		t.Errorf("summary = %+v", sum)
	}

	req = httptest.NewRequest(http.MethodGet, "/connections?page=1&pageSize=2", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("page status = %d", w.Code)
	}
	var page PageResponse
	_ = json.Unmarshal(w.Body.Bytes(), &page)
	if page.Total != 3 || page.TotalPages != 2 || len(page.Items) != 2 {
		t.Errorf("page = %+v", page)
	}
	if page.Collection != models.CollectionConnections {
		t.Errorf("collection = %q", page.Collection)
	}
}

func TestGetPage_Search(t *testing.T) {
	_, router := testEnv(t, "")
	doImport(t, router)

	req := httptest.NewRequest(http.MethodGet, "/companies?q=acm", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var page PageResponse
	_ = json.Unmarshal(w.Body.Bytes(), &page)
	if page.Total != 1 || len(page.Items) != 1 {
		t.Errorf("total = %d, items = %d, want 1 Acme hit", page.Total, len(page.Items))
	}
}

func TestGetPage_BeyondLastPage(t *testing.T) {
	_, router := testEnv(t, "")
	doImport(t, router)

	req := httptest.NewRequest(http.MethodGet, "/connections?page=99", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var page PageResponse
	_ = json.Unmarshal(w.Body.Bytes(), &page)
	if len(page.Items) != 0 {
		t.Errorf("items = %d, want empty page", len(page.Items))
	}
	if page.Total != 3 {
		t.Errorf("total = %d, want 3", page.Total)
	}
}

func TestGetPage_UnknownCollection(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/bogus", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetRecord(t *testing.T) {
	_, router := testEnv(t, "")
	doImport(t, router)

	req := httptest.NewRequest(http.MethodGet, "/connections/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var c models.Contact
	_ = json.Unmarshal(w.Body.Bytes(), &c)
	if c.FullName != "Jane Doe" {
		t.Errorf("fullName = %q, want Jane Doe", c.FullName)
	}

	req = httptest.NewRequest(http.MethodGet, "/connections/999", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing record status = %d, want 404", w.Code)
	}
}

func TestImport_MalformedPayload(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(""))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestFeelLucky_UntilExhausted(t *testing.T) {
	_, router := testEnv(t, "")
	doImport(t, router)

	picked := map[int64]bool{}
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/lucky/companies", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		var resp LuckyResponse
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Exhausted {
			if len(picked) != 2 {
				t.Errorf("picked %d companies before exhaustion, want 2", len(picked))
			}
			return
		}
		for _, p := range resp.Picks {
			if picked[p.ID] {
				t.Fatalf("company %d picked twice", p.ID)
			}
			picked[p.ID] = true
		}
	}
	t.Fatal("never exhausted")
}

func TestFeelLucky_UnknownCollection(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodPost, "/lucky/bogus", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var cfg ConfigResponse
	_ = json.Unmarshal(w.Body.Bytes(), &cfg)
	if cfg.FeelLuckyGeneratorCounts != store.LuckyCountDefault {
		t.Errorf("default count = %d, want %d", cfg.FeelLuckyGeneratorCounts, store.LuckyCountDefault)
	}

	body, _ := json.Marshal(UpdateConfigRequest{FeelLuckyGeneratorCounts: 7})
	req = httptest.NewRequest(http.MethodPut, "/config", bytes.NewReader(body))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d", w.Code)
	}
	_ = json.Unmarshal(w.Body.Bytes(), &cfg)
	if cfg.FeelLuckyGeneratorCounts != 7 {
		t.Errorf("count after update = %d, want 7", cfg.FeelLuckyGeneratorCounts)
	}

	// Out-of-range values are rejected, not clamped.
	body, _ = json.Marshal(UpdateConfigRequest{FeelLuckyGeneratorCounts: 25})
	req = httptest.NewRequest(http.MethodPut, "/config", bytes.NewReader(body))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("out-of-range status = %d, want 400", w.Code)
	}
}

func TestResetVisited(t *testing.T) {
	st, router := testEnv(t, "")
	doImport(t, router)

	req := httptest.NewRequest(http.MethodPost, "/lucky/companies", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("lucky status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/reset/visited", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("reset status = %d", w.Code)
	}

	visited, err := st.Visited(req.Context(), models.CollectionCompanies)
	if err != nil {
		t.Fatal(err)
	}
	if len(visited) != 0 {
		t.Errorf("visited = %d, want 0 after reset", len(visited))
	}

	// Imported data survives a visited reset.
	n, err := st.Count(req.Context(), models.CollectionConnections)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("connections = %d, want 3", n)
	}
}

func TestResetAll(t *testing.T) {
	st, router := testEnv(t, "")
	doImport(t, router)

	req := httptest.NewRequest(http.MethodPost, "/reset/all", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("reset status = %d", w.Code)
	}

	for _, col := range models.Collections {
		n, err := st.Count(req.Context(), col)
		if err != nil {
			t.Fatal(err)
		}
		if n != 0 {
			t.Errorf("%s = %d, want 0 after full reset", col, n)
		}
	}
}

func TestAuthModes(t *testing.T) {
	_, router := testEnv(t, "sekrit")

	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/config", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/config", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token status = %d, want 200", w.Code)
	}
}
