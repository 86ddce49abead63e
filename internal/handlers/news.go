package handlers

import (
	"net/http"
	"strings"
)

func (a *API) News(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	asset := resolveAssetParam(q.Get("asset"), q.Get("pair"))
	category := strings.TrimSpace(q.Get("category"))
	if category == "" {
		category = "all"
	}
	hours := parseIntParam(q.Get("hours"), 24, 1, 720)
	limit := parseIntParam(q.Get("limit"), 50, 1, 500)
	search := strings.TrimSpace(q.Get("q"))

	writeJSON(w, http.StatusOK, a.news.ListNews(asset, category, hours, limit, search))
}

func (a *API) Briefing(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	asset := resolveAssetParam(q.Get("asset"), q.Get("pair"))
	hours := parseIntParam(q.Get("hours"), 24, 1, 720)

	writeJSON(w, http.StatusOK, a.briefing.GetBriefing(r.Context(), asset, hours))
}

func (a *API) Alerts(w http.ResponseWriter, r *http.Request) {
	asset, minutes, minImpact := alertParams(r)
	writeJSON(w, http.StatusOK, a.alerts.GetAlerts(asset, minutes, minImpact))
}

func alertParams(r *http.Request) (string, int, int) {
	q := r.URL.Query()
	asset := resolveAssetParam(q.Get("asset"), q.Get("pair"))
	minutes := parseIntParam(q.Get("minutes"), 180, 1, 10080)
	minImpact := parseIntParam(q.Get("minImpact"), 70, 0, 100)
	return asset, minutes, minImpact
}
