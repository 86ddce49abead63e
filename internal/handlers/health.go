package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"newssignal/backend-go/internal/models"
	"newssignal/backend-go/internal/services"
)

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := []string{}
	missing := []string{}
	depsStatus := map[string]models.DepStatus{}

	names := make([]string, 0, len(a.checks))
	for name := range a.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := a.checks[name](ctx); err != nil {
			missing = append(missing, name+"_unreachable")
			depsStatus[name] = models.DepStatus{Ok: false, Error: err.Error()}
			continue
		}
		deps = append(deps, name)
		depsStatus[name] = models.DepStatus{Ok: true}
	}

	sourcesOK := 0
	var status []models.SourceReport
	if a.pipeline != nil {
		status = a.pipeline.Status()
	}
	for _, s := range status {
		if s.OK() {
			sourcesOK++
		} else {
			missing = append(missing, "source_"+s.Source+"_failing")
		}
	}

	resp := models.HealthResponse{
		Ok:          len(missing) == 0,
		TsISO:       nowISO(),
		Service:     "newssignal",
		Version:     a.version,
		Stored:      a.store.Len(),
		Deps:        deps,
		DepsStatus:  depsStatus,
		DataMissing: missing,
		Features: map[string]bool{
			"ai_summaries_enabled": a.cfg.SummarizerEnabled(),
			"archive_enabled":      a.cfg.ArchiveDSN != "",
			"redis_cache":          services.CacheBackend(a.cache) == "redis",
			"sources_configured":   a.pipeline != nil && len(a.pipeline.SourceNames()) > 0,
		},
	}
	writeJSON(w, http.StatusOK, resp)
}
