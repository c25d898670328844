package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/matzehuels/commitcanvas/pkg/errors"
	"github.com/matzehuels/commitcanvas/pkg/gitlog"
	"github.com/matzehuels/commitcanvas/pkg/pipeline"
)

// ingestResponse summarizes a successful POST.
type ingestResponse struct {
	ID        string         `json:"id"`
	Repo      string         `json:"repo"`
	Ref       string         `json:"ref"`
	Stats     pipeline.Stats `json:"stats"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleIngest parses a git log stream from the request body, stores the
// resulting graph, and returns run statistics.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	repo := chi.URLParam(r, "repo")
	ref := r.URL.Query().Get("ref")

	res, err := s.runner.Run(r.Context(), r.Body, pipeline.Options{
		Repo:   repo,
		Ref:    ref,
		Format: pipeline.FormatDOT,
		Logger: s.log,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	rec, err := s.store.Save(r.Context(), repo, resolvedRef(ref), &res.Graph)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ingestResponse{
		ID:        rec.ID,
		Repo:      rec.Repo,
		Ref:       rec.Ref,
		Stats:     res.Stats,
		UpdatedAt: rec.UpdatedAt,
	})
}

// handleGet returns the stored graph for a repo and ref.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	repo := chi.URLParam(r, "repo")
	ref := resolvedRef(r.URL.Query().Get("ref"))

	rec, err := s.store.Get(r.Context(), repo, ref)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleDelete removes the stored graph for a repo and ref.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	repo := chi.URLParam(r, "repo")
	ref := resolvedRef(r.URL.Query().Get("ref"))

	if err := s.store.Delete(r.Context(), repo, ref); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListRefs lists the stored refs for a repo.
func (s *Server) handleListRefs(w http.ResponseWriter, r *http.Request) {
	repo := chi.URLParam(r, "repo")

	recs, err := s.store.List(r.Context(), repo)
	if err != nil {
		s.writeError(w, err)
		return
	}

	type refEntry struct {
		Ref       string    `json:"ref"`
		Commits   int       `json:"commits"`
		UpdatedAt time.Time `json:"updated_at"`
	}
	out := make([]refEntry, 0, len(recs))
	for _, rec := range recs {
		entry := refEntry{Ref: rec.Ref, UpdatedAt: rec.UpdatedAt}
		if rec.Graph != nil {
			entry.Commits = len(rec.Graph.Nodes)
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleRender renders the stored graph as DOT, SVG, or PNG.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	repo := chi.URLParam(r, "repo")
	q := r.URL.Query()
	ref := resolvedRef(q.Get("ref"))

	rec, err := s.store.Get(r.Context(), repo, ref)
	if err != nil {
		s.writeError(w, err)
		return
	}

	format := pipeline.Format(q.Get("format"))
	res, err := s.runner.Render(r.Context(), *rec.Graph, pipeline.Options{
		Repo:     repo,
		Ref:      ref,
		Format:   format,
		Detailed: q.Get("detailed") == "true",
		Logger:   s.log,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	switch {
	case format == pipeline.FormatPNG:
		w.Header().Set("Content-Type", "image/png")
	case format == pipeline.FormatDOT:
		w.Header().Set("Content-Type", "text/vnd.graphviz")
	default:
		w.Header().Set("Content-Type", "image/svg+xml")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifact)
}

// resolvedRef applies the default ref.
func resolvedRef(ref string) string {
	if ref == "" {
		return "HEAD"
	}
	return ref
}

// writeError maps application error codes to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidFormat,
		apperrors.ErrCodeInvalidRepo, apperrors.ErrCodeInvalidLog:
		status = http.StatusBadRequest
	case apperrors.ErrCodeUnsupported:
		status = http.StatusUnsupportedMediaType
	case apperrors.ErrCodeNotFound, apperrors.ErrCodeGraphNotFound, apperrors.ErrCodeFileNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	case apperrors.ErrCodeStorage, apperrors.ErrCodeGraphCorrupt, apperrors.ErrCodeInternal:
		status = http.StatusInternalServerError
	default:
		if errors.Is(err, gitlog.ErrMalformedRecord) {
			code = apperrors.ErrCodeInvalidFormat
			status = http.StatusBadRequest
		}
	}

	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "code", code, "err", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: apperrors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
