package queries

import (
	"time"

	"dashworker/pkg/common"
)

// ProjectRow mirrors the columns read from the comprehensive projects view.
// Unknown or missing fields decode to zero values rather than propagating
// untyped data.
type ProjectRow struct {
	ID                     string    `json:"id"`
	Name                   string    `json:"name"`
	MainJobSiteID          string    `json:"main_job_site_id"`
	Tier                   string    `json:"tier"`
	OrganisingUniverse     string    `json:"organising_universe"`
	StageClass             string    `json:"stage_class"`
	EBACategory            string    `json:"eba_category"`
	SpecialStatus          string    `json:"special_status"`
	FirstPatchName         string    `json:"first_patch_name"`
	OrganiserNames         string    `json:"organiser_names"`
	TotalWorkers           int       `json:"total_workers"`
	TotalMembers           int       `json:"total_members"`
	DelegateCount          int       `json:"delegate_count"`
	EngagedEmployerCount   int       `json:"engaged_employer_count"`
	EBAActiveEmployerCount int       `json:"eba_active_employer_count"`
	EstimatedTotal         int       `json:"estimated_total"`
	CreatedAt              time.Time `json:"created_at"`
}

// ProjectItem is the lightweight record in the projects list.
type ProjectItem struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	MainJobSiteID      string    `json:"mainJobSiteId,omitempty"`
	Tier               string    `json:"tier,omitempty"`
	OrganisingUniverse string    `json:"organisingUniverse,omitempty"`
	StageClass         string    `json:"stageClass,omitempty"`
	EBACategory        string    `json:"ebaCategory,omitempty"`
	FirstPatchName     string    `json:"firstPatchName,omitempty"`
	OrganiserNames     string    `json:"organiserNames,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

// ProjectSummary is the richer per-project block keyed by project id in the
// summaries map.
type ProjectSummary struct {
	TotalWorkers           int     `json:"totalWorkers"`
	TotalMembers           int     `json:"totalMembers"`
	DelegateCount          int     `json:"delegateCount"`
	EngagedEmployerCount   int     `json:"engagedEmployerCount"`
	EBAActiveEmployerCount int     `json:"ebaActiveEmployerCount"`
	EBACoveragePercent     float64 `json:"ebaCoveragePercent"`
	EstimatedTotal         int     `json:"estimatedTotal"`
}

// Debug is the diagnostics block attached to every envelope.
type Debug struct {
	QueryID              string            `json:"queryId"`
	QueryTimeMs          int64             `json:"queryTimeMs"`
	AppliedFilters       map[string]string `json:"appliedFilters"`
	CacheHit             bool              `json:"cacheHit"`
	PatchFilteringMethod string            `json:"patchFilteringMethod,omitempty"`
}

// ProjectsResponse is the full envelope for GET /v1/projects.
type ProjectsResponse struct {
	Projects   []ProjectItem             `json:"projects"`
	Summaries  map[string]ProjectSummary `json:"summaries"`
	Pagination common.PaginationInfo     `json:"pagination"`
	Debug      Debug                     `json:"debug"`
}

// DashboardRow mirrors the per-project dashboard summary view. EBA expiry
// arrives as a bare date string from the store and is parsed during
// aggregation.
type DashboardRow struct {
	ProjectID              string `json:"project_id"`
	Tier                   string `json:"tier"`
	StageClass             string `json:"stage_class"`
	OrganisingUniverse     string `json:"organising_universe"`
	TotalWorkers           int    `json:"total_workers"`
	TotalMembers           int    `json:"total_members"`
	EngagedEmployerCount   int    `json:"engaged_employer_count"`
	EBAActiveEmployerCount int    `json:"eba_active_employer_count"`
	EBAExpiryDate          string `json:"eba_expiry_date"`
}

// ProjectCounts groups project totals by classification.
type ProjectCounts struct {
	ByTier     map[string]int `json:"byTier"`
	ByStage    map[string]int `json:"byStage"`
	ByUniverse map[string]int `json:"byUniverse"`
}

// Totals aggregates headline numbers across the filtered project set.
type Totals struct {
	Projects           int `json:"projects"`
	Workers            int `json:"workers"`
	Members            int `json:"members"`
	EngagedEmployers   int `json:"engagedEmployers"`
	EBAActiveEmployers int `json:"ebaActiveEmployers"`
}

// EBAExpiry buckets projects by how soon their agreement expires. The
// within buckets are cumulative and exclude already-expired agreements.
type EBAExpiry struct {
	Expired        int `json:"expired"`
	Within3Months  int `json:"within3Months"`
	Within6Months  int `json:"within6Months"`
	Within12Months int `json:"within12Months"`
}

// DashboardResponse is the full envelope for GET /v1/dashboard.
type DashboardResponse struct {
	ProjectCounts ProjectCounts `json:"project_counts"`
	Totals        Totals        `json:"totals"`
	EBAExpiry     EBAExpiry     `json:"ebaExpiry"`
	Debug         Debug         `json:"debug"`
}
