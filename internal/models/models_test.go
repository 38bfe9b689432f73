package models

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mwiater/reviewrag/internal/appconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeOllama(t *testing.T, pulled *[]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"mxbai-embed-large:latest"},{"name":"qwen2.5:7b"}]}`))
		case "/api/pull":
			var body struct {
				Name   string `json:"name"`
				Stream bool   `json:"stream"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.False(t, body.Stream)
			if body.Name == "nope" {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"error":"pull model manifest: file does not exist"}`))
				return
			}
			*pulled = append(*pulled, body.Name)
			_, _ = w.Write([]byte(`{"status":"success"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestListAndPull(t *testing.T) {
	var pulled []string
	server := fakeOllama(t, &pulled)
	host := NewOllamaHost(server.URL+"/", time.Second)

	names, err := host.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"mxbai-embed-large:latest", "qwen2.5:7b"}, names)

	require.NoError(t, host.PullModel(context.Background(), "llama3.2"))
	assert.Equal(t, []string{"llama3.2"}, pulled)

	err = host.PullModel(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file does not exist")
}

func TestRequiredSkipsOtherProviders(t *testing.T) {
	cfg := appconfig.Default()
	cfg.Generation = appconfig.Endpoint{Provider: "openai", Model: "gpt-4o-mini"}

	reqs := Required(&cfg)
	require.Len(t, reqs, 1)
	assert.Equal(t, "embedding", reqs[0].Role)
	assert.Equal(t, appconfig.DefaultEmbeddingModel, reqs[0].Model)
}

func TestCheckAndReport(t *testing.T) {
	server := fakeOllama(t, new([]string))
	reqs := []Requirement{
		{Role: "embedding", Host: server.URL, Model: "mxbai-embed-large"},
		{Role: "generation", Host: server.URL, Model: "llama3.2"},
		{Role: "generation", Host: "http://127.0.0.1:1", Model: "llama3.2"},
	}

	statuses := Check(context.Background(), reqs, time.Second)
	require.Len(t, statuses, 3)
	assert.True(t, statuses[0].Present, "untagged name should match :latest")
	assert.False(t, statuses[1].Present)
	assert.NoError(t, statuses[1].Err)
	assert.Error(t, statuses[2].Err)

	var buf bytes.Buffer
	WriteStatus(&buf, statuses)
	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "\n"))
	assert.Contains(t, out, "installed")
	assert.Contains(t, out, "missing")
	assert.Contains(t, out, "unreachable")
}
