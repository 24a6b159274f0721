package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/taglog/internal/eventlog"
	"github.com/starford/taglog/internal/tagservice"
	"github.com/starford/taglog/internal/testutil"
)

// testEnv sets up a temp event log, SQLite DB, service, and router for testing.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*eventlog.Log, http.Handler) {
	t.Helper()
	return testEnvWithSSE(t, authToken != "", authToken, nil)
}

// testEnvWithSSE creates a router with an optional SSE handler mounted on /events.
func testEnvWithSSE(t *testing.T, authEnabled bool, token string, sse http.Handler) (*eventlog.Log, http.Handler) {
	t.Helper()
	log := testutil.TestLog(t)
	svc := tagservice.NewService(log, testutil.TestDB(t), nil)
	return log, NewRouter(svc, authEnabled, token, sse)
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v (body = %s)", err, w.Body.String())
	}
	return v
}

func TestFileTags(t *testing.T) {
	log, router := testEnv(t, "")
	_ = log.Info(eventlog.EventTagInjected, "16-10-2026.md", []string{"go", "ops"})

	w := get(t, router, "/files/16-10-2026.md/tags")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	ft := decode[FileTags](t, w)
	if ft.File != "16-10-2026.md" || strings.Join(ft.Tags, ",") != "go,ops" {
		t.Errorf("file tags = %+v", ft)
	}
	if ft.Event != "tag_injected" {
		t.Errorf("event = %q", ft.Event)
	}
}

func TestFileTags_EmptyListIsNotNull(t *testing.T) {
	log, router := testEnv(t, "")
	_ = log.Info(eventlog.EventDailyLogInitialized, "16-10-2026.md", nil)

	w := get(t, router, "/files/16-10-2026.md/tags")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"tags":[]`) {
		t.Errorf("body = %s, want empty tags array", w.Body.String())
	}
}

func TestFileTags_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	w := get(t, router, "/files/nope.md/tags")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing file = %d, want 404", w.Code)
	}
}

func TestListFiles(t *testing.T) {
	log, router := testEnv(t, "")
	_ = log.Info(eventlog.EventTagInjected, "a.md", []string{"go"})
	_ = log.Info(eventlog.EventTagInjected, "b.md", []string{"ops"})

	resp := decode[FileListResponse](t, get(t, router, "/files"))
	if resp.Total != 2 || len(resp.Files) != 2 {
		t.Errorf("files = %+v", resp)
	}

	resp = decode[FileListResponse](t, get(t, router, "/files?tag=ops"))
	if resp.Total != 1 || resp.Files[0].File != "b.md" {
		t.Errorf("filtered files = %+v", resp)
	}
}

func TestTags(t *testing.T) {
	log, router := testEnv(t, "")
	_ = log.Info(eventlog.EventTagInjected, "a.md", []string{"go", "ops"})
	_ = log.Info(eventlog.EventTagInjected, "b.md", []string{"go"})

	tags := decode[TagListResponse](t, get(t, router, "/tags"))
	if len(tags.Tags) != 2 || tags.Tags[0].Tag != "go" || tags.Tags[0].Count != 2 {
		t.Errorf("tags = %+v", tags)
	}

	files := decode[FileListResponse](t, get(t, router, "/tags/ops/files"))
	if files.Total != 1 || files.Files[0].File != "a.md" {
		t.Errorf("tag files = %+v", files)
	}
}

func TestFileHistory(t *testing.T) {
	log, router := testEnv(t, "")
	_ = log.Info(eventlog.EventTagInjected, "x.md", []string{"a"})
	_ = log.Warn(eventlog.EventTagSkipped, "x.md", eventlog.ReasonMalformedFrontMatter)
	_ = log.Info(eventlog.EventTagUpdated, "x.md", []string{"b"})

	resp := decode[HistoryResponse](t, get(t, router, "/files/x.md/history?limit=2"))
	if resp.File != "x.md" || len(resp.Records) != 2 {
		t.Fatalf("history = %+v", resp)
	}
	if resp.Records[0].Event != "tag_updated" || resp.Records[1].Reason != "malformed_front_matter" {
		t.Errorf("records = %+v", resp.Records)
	}
}

func TestFileHistory_UnknownFileIsEmpty(t *testing.T) {
	_, router := testEnv(t, "")

	w := get(t, router, "/files/ghost.md/history")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if resp := decode[HistoryResponse](t, w); len(resp.Records) != 0 {
		t.Errorf("records = %+v", resp.Records)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/tags", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	if w := get(t, router, "/tags"); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/tags", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")

	if w := get(t, router, "/tags"); w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

func blockingSSE() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		<-r.Context().Done()
	})
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "secret", blockingSSE())

	if w := get(t, router, "/events"); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "tok", blockingSSE())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

func TestSSEEvents_NotMountedWithoutHandler(t *testing.T) {
	_, router := testEnv(t, "")

	if w := get(t, router, "/events"); w.Code != http.StatusNotFound {
		t.Errorf("unmounted SSE = %d, want 404", w.Code)
	}
}
