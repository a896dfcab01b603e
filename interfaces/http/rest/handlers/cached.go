package handlers

import (
	"fmt"
	"net/http"
	"time"

	"dashworker/pkg/cache"
	"dashworker/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// cachedGet serves a memoized read endpoint: cache hit returns the stored
// envelope verbatim under X-Cache: HIT; a miss runs fetch once per key
// across concurrent requests, stores the envelope for ttl and tags the
// response MISS with a matching Cache-Control.
func cachedGet(
	w http.ResponseWriter,
	store *cache.Cache,
	group *singleflight.Group,
	key string,
	ttl time.Duration,
	logger *zap.Logger,
	safeMessage string,
	fetch func() (interface{}, error),
) {
	if value, ok := store.Get(key); ok {
		w.Header().Set("X-Cache", "HIT")
		common.RespondJSON(w, http.StatusOK, value)
		return
	}

	value, err, _ := group.Do(key, func() (interface{}, error) {
		envelope, err := fetch()
		if err != nil {
			return nil, err
		}
		store.Set(key, envelope, ttl)
		return envelope, nil
	})
	if err != nil {
		logger.Error("Query failed", zap.Error(err))
		common.RespondError(w, http.StatusInternalServerError, safeMessage)
		return
	}

	w.Header().Set("X-Cache", "MISS")
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(ttl.Seconds())))
	common.RespondJSON(w, http.StatusOK, value)
}
