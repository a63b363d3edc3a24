package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/feed-reader/app/feed"
	"github.com/lysyi3m/feed-reader/app/reader"
)

func setupTestServer(t *testing.T, apiAccessKey string) *gin.Engine {
	t.Helper()

	atomPath, err := filepath.Abs(filepath.Join("..", "reader", "testdata", "basic.atom"))
	if err != nil {
		t.Fatal(err)
	}

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "upstream failure", http.StatusInternalServerError)
	}))
	t.Cleanup(upstream.Close)

	feedsDir := t.TempDir()
	configs := map[string]string{
		"atom": fmt.Sprintf("url: %q\n", atomPath),
		"limited": fmt.Sprintf(`url: %q
settings:
  max_items: 1
`, atomPath),
		"filtered": fmt.Sprintf(`url: %q
filters:
  - field: "title"
    excludes: ["test1"]
`, atomPath),
		"disabled": fmt.Sprintf(`url: %q
settings:
  enabled: false
`, atomPath),
		"broken": fmt.Sprintf("url: %q\n", upstream.URL+"/feed.xml"),
	}
	for name, content := range configs {
		if err := os.WriteFile(filepath.Join(feedsDir, name+".yml"), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	configCache := feed.NewConfigCache(feedsDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	r := reader.NewReader(reader.Options{ThrowOnError: true, Feeds: configCache.GetFeedURLs()})
	handler := NewHandler(configCache, r, feed.NewFilterer(), feed.NewGenerator("http://localhost:8080", "test"))

	return NewServer(handler, apiAccessKey)
}

func perform(server *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func TestGetFeed(t *testing.T) {
	server := setupTestServer(t, "")

	w := perform(server, http.MethodGet, "/feeds/atom", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "application/xml") {
		t.Errorf("Expected XML content type, got %s", w.Header().Get("Content-Type"))
	}
	if w.Header().Get("X-Feed-Items") != "2" {
		t.Errorf("Expected 2 items, got %s", w.Header().Get("X-Feed-Items"))
	}

	body := w.Body.String()
	for _, element := range []string{
		"<title>Example Feed</title>",
		"<title>Test1</title>",
		"<link>http://example.org/foo/bar/2</link>",
		`<atom:link href="http://localhost:8080/feeds/atom" rel="self"`,
	} {
		if !strings.Contains(body, element) {
			t.Errorf("Expected body to contain %s", element)
		}
	}
}

func TestGetFeedItems(t *testing.T) {
	server := setupTestServer(t, "")

	w := perform(server, http.MethodGet, "/feeds/atom/items", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var items []ItemResponse
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	if items[0].Title == nil || *items[0].Title != "Test1" {
		t.Errorf("Expected title 'Test1', got %v", items[0].Title)
	}
	if items[0].Content == nil || *items[0].Content != "HTML content" {
		t.Errorf("Expected content 'HTML content', got %v", items[0].Content)
	}
	if items[0].URI == nil || *items[0].URI != "http://example.org/foo/bar/1" {
		t.Errorf("Expected URI http://example.org/foo/bar/1, got %v", items[0].URI)
	}
	if items[1].PublishDate != nil {
		t.Errorf("Expected no publish date on second item, got %v", items[1].PublishDate)
	}
}

func TestGetFeedItemsAppliesSettings(t *testing.T) {
	server := setupTestServer(t, "")

	var items []ItemResponse

	w := perform(server, http.MethodGet, "/feeds/limited/items", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("Expected max_items to cap result at 1, got %d", len(items))
	}

	w = perform(server, http.MethodGet, "/feeds/filtered/items", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(items) != 1 || items[0].Title == nil || *items[0].Title != "Test2" {
		t.Errorf("Expected only Test2 after filtering, got %d items", len(items))
	}
}

func TestGetFeedErrors(t *testing.T) {
	server := setupTestServer(t, "")

	tests := map[string]int{
		"/feeds/unknown":        http.StatusNotFound,
		"/feeds/disabled":       http.StatusNotFound,
		"/feeds/disabled/items": http.StatusNotFound,
		"/feeds/broken":         http.StatusBadGateway,
		"/feeds/broken/items":   http.StatusBadGateway,
	}

	for path, expected := range tests {
		w := perform(server, http.MethodGet, path, nil)
		if w.Code != expected {
			t.Errorf("%s: expected status %d, got %d", path, expected, w.Code)
		}
	}
}

func TestGetHealth(t *testing.T) {
	server := setupTestServer(t, "")

	w := perform(server, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var health map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if health["loaded_configurations"] != float64(5) {
		t.Errorf("Expected 5 loaded configurations, got %v", health["loaded_configurations"])
	}
	if _, ok := health["timestamp"]; !ok {
		t.Error("Expected timestamp in health response")
	}
}

func TestAPIAuthentication(t *testing.T) {
	server := setupTestServer(t, "secret")

	if w := perform(server, http.MethodGet, "/api/feeds", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without key, got %d", w.Code)
	}
	if w := perform(server, http.MethodGet, "/api/feeds", map[string]string{"X-API-Key": "wrong"}); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong key, got %d", w.Code)
	}
	if w := perform(server, http.MethodGet, "/api/feeds", map[string]string{"Authorization": "Bearer secret"}); w.Code != http.StatusOK {
		t.Errorf("Expected 200 with bearer key, got %d", w.Code)
	}

	w := perform(server, http.MethodGet, "/api/feeds", map[string]string{"X-API-Key": "secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var response struct {
		Feeds []map[string]any `json:"feeds"`
		Total int              `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Total != 5 || len(response.Feeds) != 5 {
		t.Errorf("Expected 5 feeds, got %d", response.Total)
	}
	if response.Feeds[0]["name"] != "atom" {
		t.Errorf("Expected feeds sorted by name, got first %v", response.Feeds[0]["name"])
	}
}

func TestAPIDisabledWithoutKey(t *testing.T) {
	server := setupTestServer(t, "")

	if w := perform(server, http.MethodGet, "/api/feeds", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 when API is disabled, got %d", w.Code)
	}
}

func TestAPIReloadFeed(t *testing.T) {
	server := setupTestServer(t, "secret")
	headers := map[string]string{"X-API-Key": "secret"}

	if w := perform(server, http.MethodPost, "/api/feeds/atom/reload", headers); w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if w := perform(server, http.MethodPost, "/api/feeds/unknown/reload", headers); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestFeedNormalizerExtractsOnce(t *testing.T) {
	plain := feed.NewDefaultNormalizer(nil)
	article := feed.NewArticleNormalizer(plain)

	if got := feedNormalizer(plain, feed.ConfigSettings{}); got != feed.Normalizer[*feed.Item](plain) {
		t.Errorf("Expected base normalizer without extract_content, got: %T", got)
	}

	if got := feedNormalizer(plain, feed.ConfigSettings{ExtractContent: true}); !isArticleNormalizer(got) {
		t.Errorf("Expected ArticleNormalizer with extract_content, got: %T", got)
	}

	if got := feedNormalizer(article, feed.ConfigSettings{ExtractContent: true}); got != feed.Normalizer[*feed.Item](article) {
		t.Errorf("Expected extracting reader normalizer to be reused, got: %T", got)
	}
}

func isArticleNormalizer(n feed.Normalizer[*feed.Item]) bool {
	_, ok := n.(*feed.ArticleNormalizer)
	return ok
}
