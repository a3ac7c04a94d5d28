package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/html-scratchpad/internal/service"
)

// CurriculumHandler serves /api/curriculums and their steps.
type CurriculumHandler struct {
	curriculums *service.CurriculumService
	logger      *slog.Logger
}

func NewCurriculumHandler(curriculums *service.CurriculumService, logger *slog.Logger) *CurriculumHandler {
	return &CurriculumHandler{curriculums: curriculums, logger: logger}
}

type curriculumRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type stepRequest struct {
	SnippetID string `json:"snippetId"`
	Note      string `json:"note"`
}

type moveStepRequest struct {
	Direction string `json:"direction"`
}

// HandleList returns the caller's curriculums with progress.
//
// HTTP: GET /api/curriculums
func (h *CurriculumHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.curriculums.List(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleCreate adds an empty curriculum.
//
// HTTP: POST /api/curriculums
func (h *CurriculumHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req curriculumRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	v, err := h.curriculums.Create(r.Context(), ownerID(r), req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// HandleGet returns one curriculum.
//
// HTTP: GET /api/curriculums/{id}
func (h *CurriculumHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	v, err := h.curriculums.Get(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleDelete removes a curriculum.
//
// HTTP: DELETE /api/curriculums/{id}
func (h *CurriculumHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.curriculums.Delete(r.Context(), ownerID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAddStep appends a step.
//
// HTTP: POST /api/curriculums/{id}/steps
// BODY: {"snippetId": "...", "note": "..."}
func (h *CurriculumHandler) HandleAddStep(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	v, err := h.curriculums.AddStep(r.Context(), ownerID(r), chi.URLParam(r, "id"), req.SnippetID, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// HandleRemoveStep deletes a step.
//
// HTTP: DELETE /api/curriculums/{id}/steps/{stepID}
func (h *CurriculumHandler) HandleRemoveStep(w http.ResponseWriter, r *http.Request) {
	v, err := h.curriculums.RemoveStep(r.Context(), ownerID(r), chi.URLParam(r, "id"), chi.URLParam(r, "stepID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleToggleStep flips a step's completion.
//
// HTTP: POST /api/curriculums/{id}/steps/{stepID}/toggle
func (h *CurriculumHandler) HandleToggleStep(w http.ResponseWriter, r *http.Request) {
	v, err := h.curriculums.ToggleStep(r.Context(), ownerID(r), chi.URLParam(r, "id"), chi.URLParam(r, "stepID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleMoveStep moves a step one place.
//
// HTTP: POST /api/curriculums/{id}/steps/{stepID}/move
// BODY: {"direction": "up" | "down"}
func (h *CurriculumHandler) HandleMoveStep(w http.ResponseWriter, r *http.Request) {
	var req moveStepRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	v, err := h.curriculums.ReorderStep(r.Context(), ownerID(r),
		chi.URLParam(r, "id"), chi.URLParam(r, "stepID"), req.Direction)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
