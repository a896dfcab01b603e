package queries

import (
	"context"
	"time"

	"dashworker/infrastructure/store"
	"dashworker/pkg/common"
	apperrors "dashworker/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const projectsView = "projects_list_comprehensive_view"

const projectColumns = "id,name,main_job_site_id,tier,organising_universe," +
	"stage_class,eba_category,special_status,first_patch_name,organiser_names," +
	"total_workers,total_members,delegate_count,engaged_employer_count," +
	"eba_active_employer_count,estimated_total,created_at"

// Service executes gateway queries against the backing store. Queries run
// under the caller's token so row-level authorization stays with the store.
type Service struct {
	store    *store.Client
	resolver *PatchResolver
	logger   *zap.Logger
}

// NewService creates the query service around the base store client.
func NewService(storeClient *store.Client, resolver *PatchResolver, logger *zap.Logger) *Service {
	return &Service{
		store:    storeClient,
		resolver: resolver,
		logger:   logger,
	}
}

// FetchProjects runs the filtered, sorted, paginated projects query and
// shapes the result envelope. The patch scoping filter is applied first:
// it can prune the result set to empty before any other filter matters.
func (s *Service) FetchProjects(ctx context.Context, token string, f ProjectFilters) (*ProjectsResponse, error) {
	start := time.Now()
	scoped := s.store.WithToken(token)

	resp := &ProjectsResponse{
		Projects:  []ProjectItem{},
		Summaries: map[string]ProjectSummary{},
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
			// An empty patch scope is a complete answer; skip the view
			// query entirely.
			resp.Pagination = common.BuildPaginationMeta(f.Page, f.PageSize, 0)
			resp.Debug.QueryTimeMs = time.Since(start).Milliseconds()
			return resp, nil
		}
		projectIDs = ids
	}

	q := scoped.From(projectsView).Select(projectColumns).Count()
	if projectIDs != nil {
		q.In("id", projectIDs)
	}
	if f.Q != "" {
		q.Ilike("name", "*"+f.Q+"*")
	}
	if f.Tier != "" {
		q.Eq("tier", f.Tier)
	}
	if f.Universe != "" {
		q.Eq("organising_universe", f.Universe)
	}
	if f.Stage != "" {
		q.Eq("stage_class", f.Stage)
	}
	switch f.Workers {
	case "zero":
		q.Eq("total_workers", "0")
	case "nonzero":
		q.Gt("total_workers", "0")
	}
	if f.Special != "" {
		q.Eq("special_status", f.Special)
	}
	if f.EBA != "" {
		q.Eq("eba_category", f.EBA)
	}

	column, ascending := f.OrderColumn()
	q.Order(column, ascending)

	from := (f.Page - 1) * f.PageSize
	q.Range(from, from+f.PageSize-1)

	var rows []ProjectRow
	total, err := q.Execute(ctx, &rows)
	if err != nil {
		return nil, apperrors.NewStoreError("projects query failed", err)
	}
	if total < 0 {
		total = len(rows)
	}

	for _, row := range rows {
		resp.Projects = append(resp.Projects, projectItem(row))
		resp.Summaries[row.ID] = projectSummary(row)
	}
	resp.Pagination = common.BuildPaginationMeta(f.Page, f.PageSize, total)
	resp.Debug.QueryTimeMs = time.Since(start).Milliseconds()
	return resp, nil
}

func projectItem(row ProjectRow) ProjectItem {
	return ProjectItem{
		ID:                 row.ID,
		Name:               row.Name,
		MainJobSiteID:      row.MainJobSiteID,
		Tier:               row.Tier,
		OrganisingUniverse: row.OrganisingUniverse,
		StageClass:         row.StageClass,
		EBACategory:        row.EBACategory,
		FirstPatchName:     row.FirstPatchName,
		OrganiserNames:     row.OrganiserNames,
		CreatedAt:          row.CreatedAt,
	}
}

func projectSummary(row ProjectRow) ProjectSummary {
	coverage := 0.0
	if row.EngagedEmployerCount > 0 {
		coverage = float64(row.EBAActiveEmployerCount) / float64(row.EngagedEmployerCount) * 100
	}
	return ProjectSummary{
		TotalWorkers:           row.TotalWorkers,
		TotalMembers:           row.TotalMembers,
		DelegateCount:          row.DelegateCount,
		EngagedEmployerCount:   row.EngagedEmployerCount,
		EBAActiveEmployerCount: row.EBAActiveEmployerCount,
		EBACoveragePercent:     coverage,
		EstimatedTotal:         row.EstimatedTotal,
	}
}
