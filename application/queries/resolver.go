package queries

import (
	"context"

	"dashworker/infrastructure/store"
	apperrors "dashworker/pkg/errors"

	"go.uber.org/zap"
)

const (
	mappingView   = "patch_project_mapping_view"
	jobSitesTable = "job_sites"

	// MethodMappingView marks results resolved from the precomputed view.
	MethodMappingView = "mapping_view"
	// MethodFallbackJobSites marks results re-derived from the job_sites
	// source table because the view was stale or empty.
	MethodFallbackJobSites = "fallback_job_sites"
)

// RefreshTrigger fires a background refresh of a single materialized view.
type RefreshTrigger interface {
	TriggerView(view string)
}

// PatchResolver maps patch ids to project ids. It prefers the precomputed
// mapping view and falls back to the authoritative job_sites join when the
// view is stale, empty or erroring; a fallback-sourced result triggers an
// out-of-band refresh of the view.
type PatchResolver struct {
	refresher RefreshTrigger
	logger    *zap.Logger
}

// NewPatchResolver creates a resolver.
func NewPatchResolver(refresher RefreshTrigger, logger *zap.Logger) *PatchResolver {
	return &PatchResolver{
		refresher: refresher,
		logger:    logger,
	}
}

type mappingRow struct {
	PatchID   string `json:"patch_id"`
	ProjectID string `json:"project_id"`
}

// ResolveProjects returns the distinct project ids scoped by the given
// patches, plus the method that produced them. A mapping-view error
// degrades to the fallback path; a fallback error is fatal for the request.
func (r *PatchResolver) ResolveProjects(ctx context.Context, client *store.Client, patchIDs []string) ([]string, string, error) {
	var rows []mappingRow
	_, err := client.From(mappingView).
		Select("patch_id,project_id").
		In("patch_id", patchIDs).
		Execute(ctx, &rows)
	if err != nil {
		r.logger.Warn("Patch mapping view query failed, using job_sites fallback",
			zap.Strings("patchIds", patchIDs),
			zap.Error(err),
		)
		rows = nil
	}

	method := MethodMappingView
	if len(rows) == 0 {
		var sites []struct {
			ProjectID string `json:"project_id"`
		}
		_, err := client.From(jobSitesTable).
			Select("project_id").
			In("patch_id", patchIDs).
			Execute(ctx, &sites)
		if err != nil {
			return nil, "", apperrors.NewFallbackExhausted(err)
		}

		method = MethodFallbackJobSites
		rows = rows[:0]
		for _, site := range sites {
			rows = append(rows, mappingRow{ProjectID: site.ProjectID})
		}

		// The view answered empty for patches the source tables know
		// about (or errored); heal it for subsequent requests.
		r.refresher.TriggerView(mappingView)
	}

	return distinctProjectIDs(rows), method, nil
}

func distinctProjectIDs(rows []mappingRow) []string {
	seen := make(map[string]struct{}, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.ProjectID == "" {
			continue
		}
		if _, dup := seen[row.ProjectID]; dup {
			continue
		}
		seen[row.ProjectID] = struct{}{}
		ids = append(ids, row.ProjectID)
	}
	return ids
}
