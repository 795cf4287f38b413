package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-shed/notes-ai-go/internal/config"
	"github.com/anime-shed/notes-ai-go/internal/controller"
	"github.com/anime-shed/notes-ai-go/internal/functions/functionstest"
	"github.com/anime-shed/notes-ai-go/internal/language"
	"github.com/anime-shed/notes-ai-go/internal/repository"
	"github.com/anime-shed/notes-ai-go/internal/session"
	"github.com/anime-shed/notes-ai-go/internal/storage/storagetest"
	"github.com/anime-shed/notes-ai-go/internal/vision"
	"github.com/anime-shed/notes-ai-go/pkg/validation"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type testServer struct {
	handler  http.Handler
	stub     *functionstest.Stub
	blobs    *storagetest.Memory
	registry *controller.Registry
	verifier *session.TokenVerifier
	blobDir  string
	token    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, nil)
}

func newTestServerWith(t *testing.T, configure func(*config.Config)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		RequestTimeout:     5 * time.Second,
		MaxRequestBodySize: 10 * 1024 * 1024,
		CORSAllowedOrigins: []string{"*"},
		AI:                 config.DefaultAIConfig(),
	}
	if configure != nil {
		configure(cfg)
	}

	stub := functionstest.NewStub()
	blobs := storagetest.NewMemory("https://blobs.test")
	registry := controller.NewRegistry(
		vision.NewService(stub, blobs, cfg.AI),
		language.NewService(stub, cfg.AI),
		nil,
	)

	db, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)

	verifier := session.NewTokenVerifier("test-secret")
	token, err := verifier.Issue("user-1", "ana@example.com")
	require.NoError(t, err)

	blobDir := t.TempDir()
	h := NewHandler(Dependencies{
		Registry: registry,
		Notes:    repository.NewGormNoteRepository(db, validation.NewInputValidator()),
		Verifier: verifier,
		Metrics:  promhttp.Handler(),
		BlobDir:  blobDir,
	}, cfg)

	return &testServer{
		handler:  h,
		stub:     stub,
		blobs:    blobs,
		registry: registry,
		verifier: verifier,
		blobDir:  blobDir,
		token:    token,
	}
}

func (s *testServer) do(t *testing.T, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *testServer) postJSON(t *testing.T, path string, v any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return s.do(t, http.MethodPost, path, "application/json", body)
}

func (s *testServer) postImage(t *testing.T, path, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(imageField, name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return s.do(t, http.MethodPost, path, mw.FormDataContentType(), buf.Bytes())
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "available", decode(t, w)["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestAPIRequiresBearerToken(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic " + s.token},
		{"garbage", "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			s.handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "unauthorized", decode(t, w)["type"])
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/notes", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNotesLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := s.postJSON(t, "/api/notes", map[string]string{"text": "comprar pão"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "user-1", created["userId"])

	w = s.do(t, http.MethodGet, "/api/notes", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var notes []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, "comprar pão", notes[0]["text"])

	w = s.do(t, http.MethodDelete, "/api/notes/"+id, "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodDelete, "/api/notes/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode(t, w)["type"])
}

func TestAddNoteRejectsEmptyText(t *testing.T) {
	s := newTestServer(t)

	w := s.postJSON(t, "/api/notes", map[string]string{"text": "   "})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "validation", body["type"])
	assert.Equal(t, "empty text", body["message"])
}

func TestClassifyImage_SniffsContentType(t *testing.T) {
	s := newTestServer(t)
	s.stub.Returns("classifyImage", map[string]any{
		"labels": []map[string]any{{"description": "cat", "score": 0.92}},
	})

	w := s.postImage(t, "/api/ai/vision/classify", "cat.png", pngHeader)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "labels", body["kind"])
	result := body["result"].(map[string]any)
	assert.True(t, strings.HasPrefix(result["imageUrl"].(string), "https://blobs.test/classify-images/"))

	keys := s.blobs.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasSuffix(keys[0], "_cat.png"))
	assert.Equal(t, "image/png", s.blobs.ContentType(keys[0]))

	calls := s.stub.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, string(calls[0].Payload), `"imageUrl":"https://blobs.test/classify-images/`)
}

func TestVisionWithoutImageRecordsError(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/ai/vision/text", "", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "no image selected", decode(t, w)["message"])

	w = s.do(t, http.MethodGet, "/api/ai/state", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	state := decode(t, w)
	assert.Equal(t, false, state["loading"])
	assert.Equal(t, "no image selected", state["error"])
	assert.Nil(t, state["result"])
	assert.Empty(t, s.stub.Calls())
}

func TestLanguageRoutes(t *testing.T) {
	s := newTestServer(t)
	s.stub.Returns("analyzeSentiment", map[string]any{"score": 0.8, "magnitude": 1.2})
	s.stub.Returns("translateText", map[string]any{"translatedText": "good morning"})
	s.stub.Returns("summarizeText", map[string]any{"summary": "curto"})

	w := s.postJSON(t, "/api/ai/language/sentiment", map[string]any{"text": "que dia lindo"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "sentiment", body["kind"])
	result := body["result"].(map[string]any)
	assert.Equal(t, "neutro", result["sentiment"])
	assert.Equal(t, "Muito Positivo", result["description"])

	w = s.postJSON(t, "/api/ai/language/translate", map[string]any{"text": "bom dia"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result = decode(t, w)["result"].(map[string]any)
	assert.Equal(t, "en", result["targetLanguage"])
	assert.Equal(t, "auto", result["sourceLanguage"])

	w = s.postJSON(t, "/api/ai/language/summarize", map[string]any{"text": "um texto", "maxSentences": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "summary", decode(t, w)["kind"])

	calls := s.stub.Calls()
	require.Len(t, calls, 3)
	assert.JSONEq(t, `{"text":"bom dia","targetLanguage":"en"}`, string(calls[1].Payload))
	assert.JSONEq(t, `{"text":"um texto","maxSentences":2}`, string(calls[2].Payload))
}

func TestLanguageRejectsMalformedBody(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/ai/language/moderate", "application/json", []byte("{"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid request format", decode(t, w)["message"])
}

func TestRemoteFailureKeepsPreviousResult(t *testing.T) {
	s := newTestServer(t)
	s.stub.Returns("extractEntities", map[string]any{
		"entities": []map[string]any{{"type": "PERSON", "name": "Ana"}},
	})
	s.stub.Fails("moderateContent", errors.New("functions/internal"))

	w := s.postJSON(t, "/api/ai/language/entities", map[string]any{"text": "Ana mora em Lisboa"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.postJSON(t, "/api/ai/language/moderate", map[string]any{"text": "olá"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "functions/internal", decode(t, w)["message"])

	w = s.do(t, http.MethodGet, "/api/ai/state", "", nil)
	state := decode(t, w)
	assert.Equal(t, "functions/internal", state["error"])
	envelope := state["result"].(map[string]any)
	assert.Equal(t, "entities", envelope["kind"])
	people := envelope["result"].(map[string]any)["people"].([]any)
	require.Len(t, people, 1)
	assert.Equal(t, "Ana", people[0].(map[string]any)["name"])
}

func TestResetAndLogout(t *testing.T) {
	s := newTestServer(t)
	s.stub.Returns("analyzeSentiment", map[string]any{"score": -0.7})

	w := s.postJSON(t, "/api/ai/language/sentiment", map[string]any{"text": "péssimo"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/ai/reset", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	state := decode(t, s.do(t, http.MethodGet, "/api/ai/state", "", nil))
	assert.Nil(t, state["error"])
	assert.Nil(t, state["result"])
	assert.Equal(t, 1, s.registry.Len())

	w = s.do(t, http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, s.registry.Len())
}

func TestControllersAreScopedPerUser(t *testing.T) {
	s := newTestServer(t)
	s.stub.Returns("summarizeText", map[string]any{"summary": "resumo"})

	w := s.postJSON(t, "/api/ai/language/summarize", map[string]any{"text": "texto"})
	require.Equal(t, http.StatusOK, w.Code)

	other, err := s.verifier.Issue("user-2", "bruno@example.com")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/ai/state", nil)
	req.Header.Set("Authorization", "Bearer "+other)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Nil(t, decode(t, rec)["result"])
	assert.Equal(t, 2, s.registry.Len())
}

func TestLocalBlobsAreServed(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, os.MkdirAll(filepath.Join(s.blobDir, "ai-images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.blobDir, "ai-images", "1_a.png"), pngHeader, 0o644))

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/blobs/ai-images/1_a.png", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pngHeader, w.Body.Bytes())
}

func TestContentTypeFallback(t *testing.T) {
	assert.Equal(t, "image/webp", contentType("image/webp", pngHeader))
	assert.Equal(t, "image/png", contentType("application/octet-stream", pngHeader))
	assert.Equal(t, "image/png", contentType("", pngHeader))
}

func TestAIRequestsAreRateLimitedPerUser(t *testing.T) {
	s := newTestServerWith(t, func(cfg *config.Config) {
		cfg.AIRateLimit = 0.001
		cfg.AIRateBurst = 2
	})
	s.stub.Returns("analyzeSentiment", map[string]any{"score": 0})

	for i := 0; i < 2; i++ {
		w := s.postJSON(t, "/api/ai/language/sentiment", map[string]any{"text": "oi"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := s.postJSON(t, "/api/ai/language/sentiment", map[string]any{"text": "oi"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate_limited", decode(t, w)["type"])
	assert.Len(t, s.stub.Calls(), 2)

	// State and notes stay reachable.
	w = s.do(t, http.MethodGet, "/api/ai/state", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
