package handlers

import (
	"net/http"

	"newssignal/backend-go/internal/models"
)

func (a *API) Sources(w http.ResponseWriter, r *http.Request) {
	resp := models.SourcesResponse{
		TsISO:   nowISO(),
		Stored:  a.store.Len(),
		Sources: []models.SourceReport{},
	}
	if a.pipeline != nil {
		resp.Sources = a.pipeline.Status()
	}
	writeJSON(w, http.StatusOK, resp)
}
