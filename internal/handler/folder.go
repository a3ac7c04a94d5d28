package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/html-scratchpad/internal/service"
)

// FolderHandler serves /api/folders.
type FolderHandler struct {
	folders *service.FolderService
	logger  *slog.Logger
}

func NewFolderHandler(folders *service.FolderService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{folders: folders, logger: logger}
}

type folderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parentId"`
}

type folderDeleteResponse struct {
	SnippetsMoved int64 `json:"snippetsMoved"`
}

// HandleList returns the caller's folders.
//
// HTTP: GET /api/folders
func (h *FolderHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	folders, err := h.folders.List(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, folders)
}

// HandleCreate adds a folder.
//
// HTTP: POST /api/folders
func (h *FolderHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req folderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	folder, err := h.folders.Create(r.Context(), ownerID(r), req.Name, req.ParentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, folder)
}

// HandleRename renames a folder.
//
// HTTP: PUT /api/folders/{id}
func (h *FolderHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	var req folderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	folder, err := h.folders.Rename(r.Context(), ownerID(r), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, folder)
}

// HandleDelete removes a folder and reports how many snippets left it.
//
// HTTP: DELETE /api/folders/{id}
func (h *FolderHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	moved, err := h.folders.Delete(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, folderDeleteResponse{SnippetsMoved: moved})
}
