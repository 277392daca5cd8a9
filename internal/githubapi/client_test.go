package githubapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devbyzero/flowlens-gateway/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg config.GitHubConfig) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg.APIBaseURL = server.URL
	return NewClient(cfg, zap.NewNop())
}

func TestListChangedFiles_FiltersBinaryAndOversized(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widgets/pulls/42/files", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
		  {"filename": "main.go", "status": "modified", "additions": 3, "deletions": 1, "changes": 4, "patch": "@@ -1 +1 @@"},
		  {"filename": "logo.png", "status": "added", "additions": 0, "deletions": 0, "changes": 12},
		  {"filename": "big.go", "status": "modified", "additions": 900, "deletions": 0, "changes": 900, "patch": "this patch is way past the limit"}
		]`))
	}
	client := newTestClient(t, handler, config.GitHubConfig{
		FetchTimeoutSeconds: 2,
		MaxFiles:            50,
		MaxPatchBytes:       20,
	})

	files := client.ListChangedFiles(context.Background(), "acme/widgets", 42)

	require.Len(t, files, 1)
	assert.Equal(t, "main.go", files[0].Filename)
	assert.Equal(t, 3, files[0].Additions)
}

func TestListChangedFiles_CapsFileCount(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
		  {"filename": "a.go", "status": "modified", "changes": 1, "patch": "@@"},
		  {"filename": "b.go", "status": "modified", "changes": 1, "patch": "@@"},
		  {"filename": "c.go", "status": "modified", "changes": 1, "patch": "@@"}
		]`))
	}
	client := newTestClient(t, handler, config.GitHubConfig{
		FetchTimeoutSeconds: 2,
		MaxFiles:            2,
		MaxPatchBytes:       1000,
	})

	files := client.ListChangedFiles(context.Background(), "acme/widgets", 1)
	assert.Len(t, files, 2)
}

func TestListChangedFiles_APIErrorYieldsEmpty(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}
	client := newTestClient(t, handler, config.GitHubConfig{
		FetchTimeoutSeconds: 2,
		MaxFiles:            50,
		MaxPatchBytes:       1000,
	})

	files := client.ListChangedFiles(context.Background(), "acme/widgets", 1)
	assert.Empty(t, files)
}

func TestListChangedFiles_BadFullName(t *testing.T) {
	client := NewClient(config.GitHubConfig{FetchTimeoutSeconds: 2, MaxFiles: 10, MaxPatchBytes: 100}, zap.NewNop())

	assert.Nil(t, client.ListChangedFiles(context.Background(), "not-a-full-name", 1))
	assert.Nil(t, client.ListChangedFiles(context.Background(), "/widgets", 1))
}
