package refresh

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"dashworker/infrastructure/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore records refresh RPC calls and lets individual functions fail.
type fakeStore struct {
	mu      sync.Mutex
	calls   []string
	failing map[string]bool
}

func (f *fakeStore) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fn := strings.TrimPrefix(r.URL.Path, "/rest/v1/rpc/")
		f.mu.Lock()
		f.calls = append(f.calls, fn)
		fail := f.failing[fn]
		f.mu.Unlock()

		if fail {
			http.Error(w, `{"message":"relation does not exist"}`, http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (f *fakeStore) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newTestRefresher(t *testing.T, fake *fakeStore) *Refresher {
	t.Helper()
	ts := httptest.NewServer(fake.handler())
	t.Cleanup(ts.Close)

	factory := func() *store.Client {
		return store.NewClient(ts.URL, "service-key", 5*time.Second, zap.NewNop())
	}
	return New(factory, "*/10 * * * *", 5*time.Second, zap.NewNop())
}

func TestRunTick_RefreshesAllViews(t *testing.T) {
	fake := &fakeStore{}
	r := newTestRefresher(t, fake)

	r.RunTick(context.Background())

	assert.Equal(t, []string{
		"refresh_patch_project_mapping_view",
		"refresh_projects_list_comprehensive_view",
		"refresh_project_dashboard_summary_view",
		"refresh_employer_list_view",
		"refresh_worker_list_view",
	}, fake.recorded())
}

func TestRunTick_ContinuesPastFailures(t *testing.T) {
	fake := &fakeStore{failing: map[string]bool{
		"refresh_projects_list_comprehensive_view": true,
		"refresh_project_dashboard_summary_view":   true,
	}}
	r := newTestRefresher(t, fake)

	r.RunTick(context.Background())

	// Every view was still attempted despite the two failures.
	assert.Len(t, fake.recorded(), 5)
	assert.Contains(t, fake.recorded(), "refresh_worker_list_view")
}

func TestTriggerView_FireAndForget(t *testing.T) {
	fake := &fakeStore{}
	r := newTestRefresher(t, fake)

	r.TriggerView("patch_project_mapping_view")

	require.Eventually(t, func() bool {
		return len(fake.recorded()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "refresh_patch_project_mapping_view", fake.recorded()[0])
}

func TestTriggerView_FailureIsSwallowed(t *testing.T) {
	fake := &fakeStore{failing: map[string]bool{"refresh_patch_project_mapping_view": true}}
	r := newTestRefresher(t, fake)

	// Must not panic or surface anywhere; the call is only logged.
	r.TriggerView("patch_project_mapping_view")

	require.Eventually(t, func() bool {
		return len(fake.recorded()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPrivilegedClientBuiltOnce(t *testing.T) {
	fake := &fakeStore{}
	ts := httptest.NewServer(fake.handler())
	t.Cleanup(ts.Close)

	var built int
	factory := func() *store.Client {
		built++
		return store.NewClient(ts.URL, "service-key", 5*time.Second, zap.NewNop())
	}
	r := New(factory, "*/10 * * * *", 5*time.Second, zap.NewNop())

	r.RunTick(context.Background())
	r.RunTick(context.Background())

	assert.Equal(t, 1, built)
}
