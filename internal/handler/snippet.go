package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/html-scratchpad/internal/classifier"
	"github.com/sakif/html-scratchpad/internal/model"
	"github.com/sakif/html-scratchpad/internal/service"
)

// SnippetHandler serves /api/snippets.
type SnippetHandler struct {
	snippets *service.SnippetService
	logger   *slog.Logger
}

func NewSnippetHandler(snippets *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{snippets: snippets, logger: logger}
}

type snippetRequest struct {
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	Description string  `json:"description"`
	FolderID    *string `json:"folderId"`
	IsLocal     bool    `json:"isLocal"`
}

func (req snippetRequest) input() service.SnippetInput {
	return service.SnippetInput{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		FolderID:    req.FolderID,
		IsLocal:     req.IsLocal,
	}
}

type moveRequest struct {
	FolderID *string `json:"folderId"`
}

type classifyResponse struct {
	Snippet *model.Snippet    `json:"snippet"`
	Source  classifier.Source `json:"source"`
}

type classifyAllResponse struct {
	Outcomes []classifier.Outcome `json:"outcomes"`
	Count    int                  `json:"count"`
}

// HandleList returns one page of the caller's snippets.
//
// HTTP: GET /api/snippets?limit=20&offset=0
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, err)
		return
	}

	snippets, err := h.snippets.List(r.Context(), ownerID(r), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}

// HandleGetByID returns one snippet.
//
// HTTP: GET /api/snippets/{id}
func (h *SnippetHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.snippets.GetByID(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleCreate saves a new snippet.
//
// HTTP: POST /api/snippets
// BODY: {"name": "...", "code": "...", "description": "...", "folderId": null}
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req snippetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.snippets.Create(r.Context(), ownerID(r), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snippet)
}

// HandleUpdate replaces a snippet's editable fields.
//
// HTTP: PUT /api/snippets/{id}
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req snippetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.snippets.Update(r.Context(), ownerID(r), chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleDelete removes a snippet.
//
// HTTP: DELETE /api/snippets/{id}
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.snippets.Delete(r.Context(), ownerID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMove puts a snippet into a folder; a null folderId means no folder.
//
// HTTP: PUT /api/snippets/{id}/folder
func (h *SnippetHandler) HandleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.snippets.Move(r.Context(), ownerID(r), chi.URLParam(r, "id"), req.FolderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleAnalysis returns code statistics for a stored snippet.
//
// HTTP: GET /api/snippets/{id}/analysis
func (h *SnippetHandler) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	stats, err := h.snippets.Analyze(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleClassify reclassifies and saves one snippet.
//
// HTTP: POST /api/snippets/{id}/classify
func (h *SnippetHandler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	snippet, source, err := h.snippets.Classify(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, classifyResponse{Snippet: snippet, Source: source})
}

// HandleClassifyAll reclassifies the caller's whole library.
//
// HTTP: POST /api/snippets/classify-all
func (h *SnippetHandler) HandleClassifyAll(w http.ResponseWriter, r *http.Request) {
	outcomes, err := h.snippets.ClassifyAll(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, classifyAllResponse{Outcomes: outcomes, Count: len(outcomes)})
}

// HandleImprove returns an AI-restyled version of the code without saving it.
//
// HTTP: POST /api/snippets/{id}/improve
func (h *SnippetHandler) HandleImprove(w http.ResponseWriter, r *http.Request) {
	result, err := h.snippets.Improve(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleExport downloads the snippet as a standalone HTML file.
//
// HTTP: GET /api/snippets/{id}/export
func (h *SnippetHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.snippets.GetByID(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="zen-%s.html"`, snippet.ID))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(snippet.Code)); err != nil {
		h.logger.Warn("export write failed", slog.String("id", snippet.ID), slog.String("error", err.Error()))
	}
}
