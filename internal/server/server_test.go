package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decko/internal/content"
	"decko/internal/keys"
	"decko/internal/llm"
	"decko/internal/studio"
)

type mockModels struct {
	mu          sync.Mutex
	searchErr   error
	draftErr    error
	imageErr    error
	editErr     error
	lastConfig  content.ImageConfig
	lastPrompt  string
	lastEditSrc *content.Image
}

func (m *mockModels) SearchEvents(ctx context.Context, query string) (*content.SearchResult, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return &content.SearchResult{
		Text:        "Results for " + query,
		SourceLinks: []content.SourceLink{{Title: "Event", URI: "https://example.com/event"}},
	}, nil
}

func (m *mockModels) DraftPost(ctx context.Context, eventText string) (*content.SocialDraft, error) {
	if m.draftErr != nil {
		return nil, m.draftErr
	}
	return &content.SocialDraft{
		Caption:     "Don't miss it! 🎉",
		Hashtags:    []string{"jazz", "live"},
		ImagePrompt: "a jazz band under string lights",
	}, nil
}

func (m *mockModels) GenerateImage(ctx context.Context, prompt string, cfg content.ImageConfig) (*content.Image, error) {
	m.mu.Lock()
	m.lastPrompt = prompt
	m.lastConfig = cfg
	m.mu.Unlock()
	if m.imageErr != nil {
		return nil, m.imageErr
	}
	return &content.Image{Data: []byte("generated"), MIMEType: "image/png"}, nil
}

func (m *mockModels) EditImage(ctx context.Context, source *content.Image, instruction string) (*content.Image, error) {
	m.mu.Lock()
	m.lastEditSrc = source
	m.mu.Unlock()
	if m.editErr != nil {
		return nil, m.editErr
	}
	return &content.Image{Data: []byte("edited"), MIMEType: "image/jpeg"}, nil
}

type testEnv struct {
	server *httptest.Server
	client *http.Client
	models *mockModels
}

func newTestEnv(t *testing.T, models *mockModels, opts Options, newKeys func() studio.KeyManager) *testEnv {
	t.Helper()

	sessions := studio.NewStore(time.Hour, func() *studio.Session {
		var km studio.KeyManager
		if newKeys != nil {
			km = newKeys()
		}
		return studio.NewSession(models, km, content.DefaultImageConfig())
	})
	if opts.AllowedOrigins == nil {
		opts.AllowedOrigins = []string{"*"}
	}

	ts := httptest.NewServer(New(sessions, opts).Handler())
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, client: newClient(t), models: models}
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func (e *testEnv) do(t *testing.T, client *http.Client, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, &mockModels{}, Options{}, nil)

	status, body := env.do(t, env.client, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestStateSetsSessionCookie(t *testing.T) {
	env := newTestEnv(t, &mockModels{}, Options{SessionTTL: time.Hour}, nil)

	resp, err := env.client.Get(env.server.URL + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	var st map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, "DISCOVER", st["view"])
	assert.Equal(t, true, st["hasKey"])
}

func TestSessionCookieRefreshedOnEveryRequest(t *testing.T) {
	env := newTestEnv(t, &mockModels{}, Options{SessionTTL: time.Hour}, nil)

	var ids []string
	for i := 0; i < 3; i++ {
		resp, err := env.client.Get(env.server.URL + "/api/state")
		require.NoError(t, err)
		resp.Body.Close()

		var cookie *http.Cookie
		for _, c := range resp.Cookies() {
			if c.Name == SessionCookie {
				cookie = c
			}
		}
		require.NotNil(t, cookie, "request %d did not set the session cookie", i)
		assert.Equal(t, 3600, cookie.MaxAge)
		ids = append(ids, cookie.Value)
	}

	assert.Equal(t, ids[0], ids[1])
	assert.Equal(t, ids[0], ids[2])
}

func TestSearchDraftAndSendToStudio(t *testing.T) {
	env := newTestEnv(t, &mockModels{}, Options{}, nil)

	status, st := env.do(t, env.client, http.MethodPost, "/api/search", map[string]string{"query": "jazz in Lisbon"})
	require.Equal(t, http.StatusOK, status)
	result := st["searchResult"].(map[string]any)
	assert.Equal(t, "Results for jazz in Lisbon", result["text"])

	status, st = env.do(t, env.client, http.MethodPost, "/api/draft", nil)
	require.Equal(t, http.StatusOK, status)
	draft := st["draft"].(map[string]any)
	assert.Equal(t, "a jazz band under string lights", draft["imagePrompt"])
	assert.Equal(t, "#jazz #live", st["hashtagLine"])

	status, st = env.do(t, env.client, http.MethodPost, "/api/studio", map[string]any{"sendDraft": true})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "STUDIO", st["view"])
	assert.Equal(t, "GENERATE", st["mode"])
	assert.Equal(t, "a jazz band under string lights", st["imagePrompt"])
}

func TestSessionsAreIsolated(t *testing.T) {
	env := newTestEnv(t, &mockModels{}, Options{}, nil)
	other := newClient(t)

	status, _ := env.do(t, env.client, http.MethodPost, "/api/search", map[string]string{"query": "mine"})
	require.Equal(t, http.StatusOK, status)

	_, st := env.do(t, other, http.MethodGet, "/api/state", nil)
	assert.Nil(t, st["searchResult"])
	assert.Equal(t, "", st["query"])

	_, st = env.do(t, env.client, http.MethodGet, "/api/state", nil)
	assert.Equal(t, "mine", st["query"])
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		models     *mockModels
		path       string
		body       any
		wantStatus int
		wantError  string
		wantReauth bool
	}{
		{
			name:       "searchFailure",
			models:     &mockModels{searchErr: errors.New("quota exceeded")},
			path:       "/api/search",
			body:       map[string]string{"query": "jazz"},
			wantStatus: http.StatusBadGateway,
			wantError:  "Search failed. Please check your API limits.",
		},
		{
			name:       "invalidKey",
			models:     &mockModels{imageErr: errors.New("Error 404: Requested entity was not found.")},
			path:       "/api/images/generate",
			body:       map[string]string{"prompt": "poster"},
			wantStatus: http.StatusUnauthorized,
			wantReauth: true,
		},
		{
			name:       "generateFailure",
			models:     &mockModels{imageErr: llm.ErrNoImage},
			path:       "/api/images/generate",
			body:       map[string]string{"prompt": "poster"},
			wantStatus: http.StatusBadGateway,
			wantError:  "Image generation failed.",
		},
		{
			name:       "badAspectRatio",
			models:     &mockModels{},
			path:       "/api/images/generate",
			body:       map[string]string{"prompt": "poster", "aspectRatio": "2:1"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "badView",
			models:     &mockModels{},
			path:       "/api/studio",
			body:       map[string]string{"view": "GALLERY"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "badEditImage",
			models:     &mockModels{},
			path:       "/api/images/edit",
			body:       map[string]string{"image": "not-a-data-url", "instruction": "retro"},
			wantStatus: http.StatusBadRequest,
			wantError:  "image must be a base64 data URL",
		},
		{
			name:       "malformedBody",
			models:     &mockModels{},
			path:       "/api/search",
			body:       "just a string",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.models, Options{}, nil)

			status, body := env.do(t, env.client, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			}
			assert.Equal(t, tt.wantReauth, body["reauth"])
		})
	}
}

func TestGenerateImage(t *testing.T) {
	models := &mockModels{}
	env := newTestEnv(t, models, Options{}, nil)

	status, st := env.do(t, env.client, http.MethodPost, "/api/images/generate", map[string]string{
		"prompt":      "city skyline",
		"aspectRatio": "16:9",
		"resolution":  "2K",
	})
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, "data:image/png;base64,Z2VuZXJhdGVk", st["generatedImage"])
	assert.Equal(t, "city skyline", models.lastPrompt)
	assert.Equal(t, content.ImageConfig{AspectRatio: content.AspectLandscape, Resolution: content.ResolutionHigh}, models.lastConfig)
}

func TestEditImage(t *testing.T) {
	models := &mockModels{}
	env := newTestEnv(t, models, Options{}, nil)
	source := &content.Image{Data: []byte("source"), MIMEType: "image/png"}

	status, st := env.do(t, env.client, http.MethodPost, "/api/images/edit", map[string]string{
		"image":       source.DataURL(),
		"instruction": "add a retro filter",
	})
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, source.DataURL(), st["editSource"])
	assert.Equal(t, "data:image/jpeg;base64,ZWRpdGVk", st["editedImage"])
	require.NotNil(t, models.lastEditSrc)
	assert.Equal(t, []byte("source"), models.lastEditSrc.Data)
}

func TestEditRejectsNonImage(t *testing.T) {
	models := &mockModels{}
	env := newTestEnv(t, models, Options{}, nil)
	notImage := &content.Image{Data: []byte("hello"), MIMEType: "text/plain"}

	status, body := env.do(t, env.client, http.MethodPost, "/api/images/edit", map[string]string{
		"image":       notImage.DataURL(),
		"instruction": "add a retro filter",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "unsupported image type")
	assert.Nil(t, models.lastEditSrc)
}

func TestSelectKey(t *testing.T) {
	env := newTestEnv(t, &mockModels{}, Options{}, func() studio.KeyManager {
		return keys.NewManager(keys.NewMemoryStore(nil), keys.ContextPrompter)
	})

	status, body := env.do(t, env.client, http.MethodGet, "/api/key", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["hasKey"])

	status, body = env.do(t, env.client, http.MethodPost, "/api/key", map[string]string{"apiKey": "  "})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "Key selection cancelled.", body["error"])

	status, body = env.do(t, env.client, http.MethodPost, "/api/key", map[string]string{"apiKey": "my-key"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["hasKey"])

	other := newClient(t)
	_, body = env.do(t, other, http.MethodGet, "/api/key", nil)
	assert.Equal(t, false, body["hasKey"], "a key selected in one session must not leak into another")
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, &mockModels{}, Options{RateLimit: 0.001, Burst: 1}, nil)

	status, _ := env.do(t, env.client, http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, status)

	status, body := env.do(t, env.client, http.MethodGet, "/api/state", nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.NotEmpty(t, body["error"])

	status, _ = env.do(t, env.client, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
}
