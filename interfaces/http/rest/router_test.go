package rest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"dashworker/application/queries"
	"dashworker/infrastructure/store"
	"dashworker/interfaces/http/rest/handlers"
	"dashworker/pkg/auth"
	"dashworker/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore is a minimal PostgREST stand-in that counts queries per
// relation.
type fakeStore struct {
	mu     sync.Mutex
	counts map[string]int
	last   *http.Request
	fail   bool
}

func (f *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	relation := r.URL.Path[len("/rest/v1/"):]

	f.mu.Lock()
	f.counts[relation]++
	f.last = r.Clone(r.Context())
	fail := f.fail
	f.mu.Unlock()

	if fail {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch relation {
	case "projects_list_comprehensive_view":
		w.Header().Set("Content-Range", "10-10/42")
		fmt.Fprint(w, `[{"id":"p1","name":"Metro Tunnel","total_workers":12,"created_at":"2024-01-01T00:00:00Z"}]`)
	case "project_dashboard_summary_view":
		fmt.Fprint(w, `[{"project_id":"p1","tier":"tier1","total_workers":12,"total_members":4}]`)
	default:
		fmt.Fprint(w, `[]`)
	}
}

func (f *fakeStore) queryCount(relation string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[relation]
}

func (f *fakeStore) totalQueries() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.counts {
		total += n
	}
	return total
}

func (f *fakeStore) lastRequest() *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// noopTrigger satisfies queries.RefreshTrigger for wiring the resolver.
type noopTrigger struct{}

func (noopTrigger) TriggerView(string) {}

func newGateway(t *testing.T, ratePerMinute int) (http.Handler, *fakeStore) {
	t.Helper()
	fake := &fakeStore{counts: map[string]int{}}
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)

	logger := zap.NewNop()
	client := store.NewClient(ts.URL, "anon-key", 5*time.Second, logger)
	service := queries.NewService(client, queries.NewPatchResolver(noopTrigger{}, logger), logger)
	responseCache := cache.New(64, nil)
	ttl := 30 * time.Second

	router := NewRouter(
		handlers.NewProjectsHandler(service, responseCache, ttl, logger),
		handlers.NewDashboardHandler(service, responseCache, ttl, logger),
		handlers.NewHealthHandler(client, logger),
		auth.NewValidator(""),
		auth.NewRateLimiter(ratePerMinute),
		"*",
		logger,
	)
	return router.Setup(), fake
}

func get(t *testing.T, handler http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGateway_RejectsMissingToken(t *testing.T) {
	handler, fake := newGateway(t, 0)

	for _, path := range []string{"/v1/projects", "/v1/dashboard"} {
		rec := get(t, handler, path, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := httptest.NewRequest(http.MethodGet, "/v1/projects", nil)
	rec.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, rec)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "non-bearer scheme rejected")

	assert.Equal(t, 0, fake.totalQueries(), "unauthenticated requests reach the store zero times")
}

func TestGateway_ProjectsMissThenHit(t *testing.T) {
	handler, fake := newGateway(t, 0)

	first := get(t, handler, "/v1/projects?page=2&pageSize=10&sort=name&dir=desc", "tok")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "public, max-age=30", first.Header().Get("Cache-Control"))
	assert.Contains(t, first.Body.String(), `"totalCount":42`)

	// The one store query carried the pagination range and sort order.
	require.Equal(t, 1, fake.queryCount("projects_list_comprehensive_view"))
	stored := fake.lastRequest()
	assert.Equal(t, "10-19", stored.Header.Get("Range"))
	assert.Equal(t, "name.desc", stored.URL.Query().Get("order"))

	second := get(t, handler, "/v1/projects?page=2&pageSize=10&sort=name&dir=desc", "tok")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String(), "hit returns the cached envelope verbatim")
	assert.Equal(t, 1, fake.queryCount("projects_list_comprehensive_view"), "no second store query")
}

func TestGateway_CacheKeyedPerCaller(t *testing.T) {
	handler, fake := newGateway(t, 0)

	get(t, handler, "/v1/projects", "alice-token")
	rec := get(t, handler, "/v1/projects", "bob-token")

	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"), "a different caller cannot hit another caller's entry")
	assert.Equal(t, 2, fake.queryCount("projects_list_comprehensive_view"))
}

func TestGateway_DashboardServesAggregates(t *testing.T) {
	handler, _ := newGateway(t, 0)

	rec := get(t, handler, "/v1/dashboard?tier=tier1", "tok")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"project_counts"`)
	assert.Contains(t, rec.Body.String(), `"totals"`)
	assert.Contains(t, rec.Body.String(), `"ebaExpiry"`)
}

func TestGateway_StoreFailureIsSafe500(t *testing.T) {
	handler, fake := newGateway(t, 0)
	fake.fail = true

	rec := get(t, handler, "/v1/projects", "tok")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to load projects")
	assert.NotContains(t, rec.Body.String(), "boom", "store error detail never leaks")
}

func TestGateway_RateLimitsPerCaller(t *testing.T) {
	handler, _ := newGateway(t, 2)

	assert.Equal(t, http.StatusOK, get(t, handler, "/v1/projects", "tok").Code)
	assert.Equal(t, http.StatusOK, get(t, handler, "/v1/projects", "tok").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(t, handler, "/v1/projects", "tok").Code)

	// A different caller has an untouched bucket.
	assert.Equal(t, http.StatusOK, get(t, handler, "/v1/projects", "other").Code)
}

func TestGateway_Health(t *testing.T) {
	handler, fake := newGateway(t, 0)

	rec := get(t, handler, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	fake.fail = true
	rec = get(t, handler, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
}
