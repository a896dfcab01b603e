package queries

import (
	"context"
	"time"

	apperrors "dashworker/pkg/errors"

	"github.com/google/uuid"
)

const dashboardView = "project_dashboard_summary_view"

const dashboardColumns = "project_id,tier,stage_class,organising_universe," +
	"total_workers,total_members,engaged_employer_count," +
	"eba_active_employer_count,eba_expiry_date"

// FetchDashboard aggregates the per-project dashboard view into counts,
// totals and EBA expiry buckets for the caller's filtered project set.
func (s *Service) FetchDashboard(ctx context.Context, token string, f DashboardFilters) (*DashboardResponse, error) {
	start := time.Now()
	scoped := s.store.WithToken(token)

	resp := &DashboardResponse{
		ProjectCounts: ProjectCounts{
			ByTier:     map[string]int{},
			ByStage:    map[string]int{},
			ByUniverse: map[string]int{},
		},
		Debug: Debug{
			QueryID:        uuid.NewString(),
			AppliedFilters: f.Map(),
		},
	}

	var projectIDs []string
	if len(f.PatchIDs) > 0 {
		ids, method, err := s.resolver.ResolveProjects(ctx, scoped, f.PatchIDs)
		if err != nil {
			return nil, err
		}
		resp.Debug.PatchFilteringMethod = method

		if len(ids) == 0 {
			resp.Debug.QueryTimeMs = time.Since(start).Milliseconds()
			return resp, nil
		}
		projectIDs = ids
	}

	q := scoped.From(dashboardView).Select(dashboardColumns)
	if projectIDs != nil {
		q.In("project_id", projectIDs)
	}
	if f.Tier != "" {
		q.Eq("tier", f.Tier)
	}
	if f.Stage != "" {
		q.Eq("stage_class", f.Stage)
	}
	if f.Universe != "" {
		q.Eq("organising_universe", f.Universe)
	}

	var rows []DashboardRow
	if _, err := q.Execute(ctx, &rows); err != nil {
		return nil, apperrors.NewStoreError("dashboard query failed", err)
	}

	now := time.Now()
	for _, row := range rows {
		resp.Totals.Projects++
		resp.Totals.Workers += row.TotalWorkers
		resp.Totals.Members += row.TotalMembers
		resp.Totals.EngagedEmployers += row.EngagedEmployerCount
		resp.Totals.EBAActiveEmployers += row.EBAActiveEmployerCount

		countNonEmpty(resp.ProjectCounts.ByTier, row.Tier)
		countNonEmpty(resp.ProjectCounts.ByStage, row.StageClass)
		countNonEmpty(resp.ProjectCounts.ByUniverse, row.OrganisingUniverse)

		bucketExpiry(&resp.EBAExpiry, row.EBAExpiryDate, now)
	}

	resp.Debug.QueryTimeMs = time.Since(start).Milliseconds()
	return resp, nil
}

func countNonEmpty(m map[string]int, key string) {
	if key != "" {
		m[key]++
	}
}

// bucketExpiry slots an EBA expiry date into the expired bucket or the
// cumulative 3/6/12 month windows. Unparseable or absent dates are skipped.
func bucketExpiry(buckets *EBAExpiry, raw string, now time.Time) {
	expiry, ok := parseStoreDate(raw)
	if !ok {
		return
	}

	if expiry.Before(now) {
		buckets.Expired++
		return
	}
	if !expiry.After(now.AddDate(0, 3, 0)) {
		buckets.Within3Months++
	}
	if !expiry.After(now.AddDate(0, 6, 0)) {
		buckets.Within6Months++
	}
	if !expiry.After(now.AddDate(1, 0, 0)) {
		buckets.Within12Months++
	}
}

// parseStoreDate accepts the bare date PostgREST emits for date columns as
// well as a full timestamp.
func parseStoreDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}
