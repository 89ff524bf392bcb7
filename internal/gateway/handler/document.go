package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"patentai/internal/gateway/repository/draft"
	"patentai/internal/logger"
	"patentai/internal/markup"
)

const maxNormalizeBytes = 2 << 20

// DocumentHandler exposes stored run documents and the markup normalizer.
type DocumentHandler struct {
	drafts draft.Store
	log    *logger.Logger
}

func NewDocumentHandler(drafts draft.Store, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{drafts: drafts, log: logger.OrNop(log)}
}

// HandleGet returns the document of a run as markdown (default) or html.
func (h *DocumentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "markdown"
	}
	if format != "markdown" && format != "html" {
		writeError(w, http.StatusBadRequest, "format must be markdown or html")
		return
	}
	if h.drafts == nil {
		writeError(w, http.StatusNotFound, draft.ErrNotFound.Error())
		return
	}

	doc, err := h.drafts.Get(r.Context(), r.PathValue("id"))
	switch {
	case err == nil:
	case errors.Is(err, draft.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	default:
		h.log.Error("loading draft failed", "run_id", r.PathValue("id"), "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	content := doc.Markdown
	if format == "html" {
		if content, err = markup.ToHTML(doc.Markdown); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"runId":     doc.RunID,
		"office":    doc.Office,
		"format":    format,
		"content":   content,
		"complete":  doc.Complete,
		"warned":    doc.Warned,
		"createdAt": doc.CreatedAt,
	})
}

type normalizeRequest struct {
	Text string `json:"text"`
}

// HandleNormalize converts model markup to the editor's markdown and splits
// it into its sections.
func (h *DocumentHandler) HandleNormalize(w http.ResponseWriter, r *http.Request) {
	var in normalizeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxNormalizeBytes)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	out := markup.ToPortableMarkup(in.Text)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"markdown": out,
		"sections": markup.SplitSections(out),
	})
}
