package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"research-rag/internal/agent"
	"research-rag/internal/config"
	"research-rag/internal/models"
	"research-rag/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedEmbedder struct{}

func (fixedEmbedder) EmbedText(_ context.Context, _ string) ([]float64, error) {
	return []float64{1, 0}, nil
}

func (fixedEmbedder) EmbedChunks(_ context.Context, chunks []models.Chunk, _ func(int, int)) ([]models.Chunk, error) {
	for i := range chunks {
		chunks[i].Embedding = []float64{1, 0}
	}
	return chunks, nil
}

type fixedGenerator struct{}

func (fixedGenerator) Generate(_ context.Context, _ string) (string, error) {
	return "generated answer [Source 1]", nil
}

func newTestServer(t *testing.T, apiKey string) (*Server, store.Store) {
	t.Helper()

	st := store.NewMemoryStore()
	_, err := st.AddChunks(context.Background(), []models.Chunk{
		{
			Text:      "retrieval augments generation",
			Metadata:  models.ChunkMetadata{ChunkID: 0, Section: "introduction", Page: 1},
			Embedding: []float64{1, 0},
		},
	}, "paper.pdf")
	require.NoError(t, err)

	cfg, err := config.Load("does-not-exist.yaml")
	require.NoError(t, err)
	cfg.Server.APIKey = apiKey

	logger := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	ag := agent.New(st, fixedEmbedder{}, fixedGenerator{}, nil, 3, logger)
	return NewServer(ag, st, logger, cfg), st
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, "")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAskEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, "")

	body := strings.NewReader(`{"question":"what augments generation?"}`)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ask", body))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "generated answer [Source 1]", resp.Answer)
	assert.Equal(t, "what augments generation?", resp.Query)
	require.Len(t, resp.Sources, 1)
	assert.Contains(t, resp.FormattedSources, "paper.pdf")
}

func TestAskEndpointValidation(t *testing.T) {
	srv, _ := newTestServer(t, "")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, "")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.StoreStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalChunks)
	assert.Equal(t, []string{"paper.pdf"}, stats.Documents)
}

func TestDeleteDocumentEndpoint(t *testing.T) {
	srv, st := newTestServer(t, "")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/documents/paper.pdf", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	stats, err := st.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalChunks)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/documents/paper.pdf", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClearEndpoint(t *testing.T) {
	srv, st := newTestServer(t, "")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/clear", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	stats, err := st.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalChunks)
}

func TestAuthRequired(t *testing.T) {
	srv, _ := newTestServer(t, "secret")

	// Health stays public.
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer secret")
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadMissingFile(t *testing.T) {
	srv, _ := newTestServer(t, "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/documents", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
