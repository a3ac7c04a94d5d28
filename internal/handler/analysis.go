package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/html-scratchpad/internal/analyzer"
	"github.com/sakif/html-scratchpad/internal/classifier"
	"github.com/sakif/html-scratchpad/internal/model"
	"github.com/sakif/html-scratchpad/internal/service"
)

// AnalysisHandler serves the stateless analysis endpoints and library stats.
// Nothing it computes is stored.
type AnalysisHandler struct {
	classifier *classifier.Classifier
	library    *service.LibraryService
	logger     *slog.Logger
}

func NewAnalysisHandler(cls *classifier.Classifier, library *service.LibraryService, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{classifier: cls, library: library, logger: logger}
}

type codeRequest struct {
	Code string `json:"code"`
}

type rawClassifyResponse struct {
	model.Classification
	Source classifier.Source `json:"source"`
}

// HandleAnalyze returns code statistics for the posted code.
//
// HTTP: POST /api/analyze
// BODY: {"code": "<!DOCTYPE html>..."}
func (h *AnalysisHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analyzer.Analyze(req.Code))
}

// HandleClassify classifies the posted code without saving anything.
//
// HTTP: POST /api/classify
func (h *AnalysisHandler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	c, source := h.classifier.Classify(r.Context(), req.Code)
	writeJSON(w, http.StatusOK, rawClassifyResponse{Classification: c, Source: source})
}

// HandleStats returns whole-library statistics for the caller.
//
// HTTP: GET /api/stats
func (h *AnalysisHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.library.Stats(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
