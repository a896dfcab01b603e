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

// DashboardHandler serves the cached dashboard aggregates endpoint.
type DashboardHandler struct {
	service *queries.Service
	cache   *cache.Cache
	ttl     time.Duration
	group   singleflight.Group
	logger  *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service *queries.Service, responseCache *cache.Cache, ttl time.Duration, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		cache:   responseCache,
		ttl:     ttl,
		logger:  logger,
	}
}

// Get handles GET /v1/dashboard
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CallerFrom(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	filters := queries.ParseDashboardFilters(r.URL.Query())
	key := cache.Key("dashboard", caller.Fingerprint, filters.Map())

	cachedGet(w, h.cache, &h.group, key, h.ttl, h.logger, "Failed to load dashboard", func() (interface{}, error) {
		return h.service.FetchDashboard(r.Context(), caller.Token, filters)
	})
}
