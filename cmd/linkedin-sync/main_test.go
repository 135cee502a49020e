package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--no-color"))

	err := cmd.Execute()

	return out.String(), err
}

func TestCLI_SyncShowHistory(t *testing.T) {
	for _, key := range []string{"LINKEDIN_SYNC_MODE", "LINKEDIN_POSTS_OUTPUT", "LINKEDIN_WEBHOOK_URL"} {
		t.Setenv(key, "")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[Great update](https://www.linkedin.com/posts/dpax_great-update-activity-12345/)
https://www.linkedin.com/posts/dpax_team-offsite-activity-777`))
	}))
	defer server.Close()

	dir := t.TempDir()
	output := filepath.Join(dir, "linkedin-posts.json")
	configPath := filepath.Join(dir, "linkedin-sync.yaml")

	require.NoError(t, os.WriteFile(configPath, []byte(fmt.Sprintf(`
mode: scrape
output: %s
timeout: 5s
history: %s
metricsTextfile: %s
scrape:
  urls:
    - %s/posts
`, output, filepath.Join(dir, "history.db"), filepath.Join(dir, "linkedin_sync.prom"), server.URL)), 0o644))

	out, err := execute(t, "sync", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Synced 2 posts from "+server.URL+"/posts")
	assert.FileExists(t, output)
	assert.FileExists(t, filepath.Join(dir, "linkedin_sync.prom"))

	out, err = execute(t, "show", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Great update")
	assert.Contains(t, out, "Team offsite")
	assert.Contains(t, out, "12345")

	out, err = execute(t, "history", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "updated")
	assert.Contains(t, out, "scrape")
}

func TestCLI_SyncFailure(t *testing.T) {
	for _, key := range []string{"LINKEDIN_SYNC_MODE", "LINKEDIN_POSTS_OUTPUT", "LINKEDIN_WEBHOOK_URL"} {
		t.Setenv(key, "")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "linkedin-sync.yaml")

	require.NoError(t, os.WriteFile(configPath, []byte(fmt.Sprintf(`
output: %s
scrape:
  urls:
    - %s
`, filepath.Join(dir, "linkedin-posts.json"), server.URL)), 0o644))

	_, err := execute(t, "sync", "--config", configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 503")

	_, err = execute(t, "sync", "--config", configPath, "--mode", "webhook")
	assert.ErrorContains(t, err, "webhook endpoint is not configured")

	_, err = execute(t, "history", "--config", configPath)
	assert.ErrorContains(t, err, "run history is not configured")
}

func TestCLI_WebhookConfigWithoutEndpoint(t *testing.T) {
	for _, key := range []string{"LINKEDIN_SYNC_MODE", "LINKEDIN_POSTS_OUTPUT", "LINKEDIN_WEBHOOK_URL"} {
		t.Setenv(key, "")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("https://www.linkedin.com/posts/dpax_quarterly-results-activity-42"))
	}))
	defer server.Close()

	dir := t.TempDir()
	output := filepath.Join(dir, "linkedin-posts.json")
	configPath := filepath.Join(dir, "linkedin-sync.yaml")

	require.NoError(t, os.WriteFile(configPath, []byte(fmt.Sprintf(`
mode: webhook
output: %s
scrape:
  urls:
    - %s
`, output, server.URL)), 0o644))

	_, err := execute(t, "sync", "--config", configPath)
	assert.ErrorContains(t, err, "webhook endpoint is not configured")

	out, err := execute(t, "sync", "--config", configPath, "--mode", "scrape")
	require.NoError(t, err)
	assert.Contains(t, out, "Synced 1 posts")

	out, err = execute(t, "show", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Quarterly results")
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "a -> HTTP 500 …", firstLine("a -> HTTP 500\nb -> HTTP 404"))
	assert.Equal(t, "single", firstLine("single"))
}
