package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"research-rag/internal/llm"
	"research-rag/internal/models"
	"research-rag/internal/processor"
	"research-rag/internal/store"

	"github.com/go-chi/chi/v5"
)

type askRequest struct {
	Question string `json:"question"`
	NResults int    `json:"n_results"`
	Section  string `json:"section"`
	Filename string `json:"filename"`
}

type askResponse struct {
	Answer           string                   `json:"answer"`
	Sources          []models.RetrievedResult `json:"sources"`
	FormattedSources string                   `json:"formatted_sources"`
	Query            string                   `json:"query"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload ingests one PDF from a multipart form field named "file"
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Processing.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload: "+err.Error())
		return
	}

	result, err := s.agent.IngestDocument(r.Context(), data, header.Filename)
	if err != nil {
		var parseErr *processor.ParseError
		if errors.As(err, &parseErr) {
			writeError(w, http.StatusUnprocessableEntity, parseErr.Error())
			return
		}
		s.log.Error("ingest failed", "file", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to ingest document")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := s.agent.AnswerQuestion(r.Context(), req.Question, req.NResults, store.Filters{
		Section:  req.Section,
		Filename: req.Filename,
	})
	if err != nil {
		s.log.Error("answer failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to answer question")
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		Answer:           answer.Answer,
		Sources:          answer.Sources,
		FormattedSources: llm.FormatSources(answer.Sources),
		Query:            answer.Query,
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	deleted, err := s.store.DeleteDocument(r.Context(), filename)
	if err != nil {
		s.log.Error("delete failed", "file", filename, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "no chunks found for "+filename)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": filename})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.log.Error("stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read stats")
		return
	}
	if stats.Documents == nil {
		stats.Documents = []string{}
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.ClearAll(r.Context()); err != nil {
		s.log.Error("clear failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear store")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
