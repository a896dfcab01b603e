package handlers

import (
	"net/http"
	"time"

	"dashworker/application/queries"
	"dashworker/pkg/auth"
	"dashworker/pkg/cache"
	"dashworker/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ProjectsHandler serves the cached project list endpoint.
type ProjectsHandler struct {
	service *queries.Service
	cache   *cache.Cache
	ttl     time.Duration
	group   singleflight.Group
	logger  *zap.Logger
}

// NewProjectsHandler creates a new projects handler
func NewProjectsHandler(service *queries.Service, responseCache *cache.Cache, ttl time.Duration, logger *zap.Logger) *ProjectsHandler {
	return &ProjectsHandler{
		service: service,
		cache:   responseCache,
		ttl:     ttl,
		logger:  logger,
	}
}

// List handles GET /v1/projects
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CallerFrom(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	filters := queries.ParseProjectFilters(r.URL.Query())
	key := cache.Key("projects", caller.Fingerprint, filters.Map())

	cachedGet(w, h.cache, &h.group, key, h.ttl, h.logger, "Failed to load projects", func() (interface{}, error) {
		return h.service.FetchProjects(r.Context(), caller.Token, filters)
	})
}
