package refresh

import (
	"context"
	"sync"
	"time"

	"dashworker/infrastructure/store"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Core views back the projects endpoint directly; a tick where both fail is
// reported as a single error. The remaining views are refreshed
// independently so a missing or not-yet-migrated view cannot block the
// others.
var (
	coreViews = []string{
		"patch_project_mapping_view",
		"projects_list_comprehensive_view",
	}
	auxViews = []string{
		"project_dashboard_summary_view",
		"employer_list_view",
		"worker_list_view",
	}
)

// Refresher recomputes materialized views on a cron schedule and on demand.
// All refreshes run under a privileged (service-role) client, built lazily
// on first use and reused afterwards.
type Refresher struct {
	newClient func() *store.Client
	schedule  string
	timeout   time.Duration
	logger    *zap.Logger

	once   sync.Once
	client *store.Client
	cron   *cron.Cron
}

// New creates a refresher. newClient must return a service-role store
// client; it is called at most once.
func New(newClient func() *store.Client, schedule string, timeout time.Duration, logger *zap.Logger) *Refresher {
	return &Refresher{
		newClient: newClient,
		schedule:  schedule,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start registers the cron schedule and begins ticking.
func (r *Refresher) Start() error {
	c := cron.New()
	_, err := c.AddFunc(r.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		r.RunTick(ctx)
	})
	if err != nil {
		return err
	}
	r.cron = c
	c.Start()
	r.logger.Info("Scheduled view refresh started", zap.String("schedule", r.schedule))
	return nil
}

// Stop halts the schedule. In-flight refreshes run to completion.
func (r *Refresher) Stop() {
	if r.cron != nil {
		r.cron.Stop()
	}
}

// RunTick refreshes every known view once. The core pair is treated as a
// unit; auxiliary views fail independently.
func (r *Refresher) RunTick(ctx context.Context) {
	start := time.Now()
	client := r.privileged()

	var coreErrs []error
	for _, view := range coreViews {
		if err := client.Rpc(ctx, rpcName(view), nil); err != nil {
			coreErrs = append(coreErrs, err)
		}
	}
	if len(coreErrs) > 0 {
		r.logger.Error("Core view refresh failed",
			zap.Errors("errors", coreErrs),
		)
	}

	for _, view := range auxViews {
		if err := client.Rpc(ctx, rpcName(view), nil); err != nil {
			r.logger.Warn("View refresh failed",
				zap.String("view", view),
				zap.Error(err),
			)
		}
	}

	r.logger.Info("View refresh tick complete",
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("coreFailed", len(coreErrs) > 0),
	)
}

// TriggerView fires a refresh of a single view in the background. The
// caller never waits on it and failures are only logged.
func (r *Refresher) TriggerView(view string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.privileged().Rpc(ctx, rpcName(view), nil); err != nil {
			r.logger.Warn("Triggered view refresh failed",
				zap.String("view", view),
				zap.Error(err),
			)
			return
		}
		r.logger.Debug("Triggered view refresh complete", zap.String("view", view))
	}()
}

func (r *Refresher) privileged() *store.Client {
	r.once.Do(func() {
		r.client = r.newClient()
	})
	return r.client
}

func rpcName(view string) string {
	return "refresh_" + view
}
