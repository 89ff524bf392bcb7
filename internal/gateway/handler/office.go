package handler

import (
	"net/http"

	"patentai/internal/patent"
)

type OfficeHandler struct{}

func NewOfficeHandler() *OfficeHandler { return &OfficeHandler{} }

func (h *OfficeHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"offices": patent.Offices(),
	})
}

func (h *OfficeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	office, ok := patent.LookupOffice(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "office not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"office":  office,
	})
}
