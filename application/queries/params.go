package queries

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultPage     = 1
	defaultPageSize = 24
	maxPageSize     = 100
)

// sortColumns whitelists the sortable fields callers may name and maps them
// to view columns. Anything else falls back to creation order, descending.
var sortColumns = map[string]string{
	"name":         "name",
	"workers":      "total_workers",
	"members":      "total_members",
	"delegates":    "delegate_count",
	"eba_coverage": "eba_active_employer_count",
}

// ProjectFilters is the parsed, validated query parameter set for the
// projects endpoint. Constructed once per request and never mutated after.
type ProjectFilters struct {
	Page     int
	PageSize int
	Sort     string
	Dir      string
	Q        string
	PatchIDs []string
	Tier     string
	Universe string
	Stage    string
	Workers  string
	Special  string
	EBA      string
}

// ParseProjectFilters normalizes raw query parameters: pagination is
// defaulted and clamped, free-text search is lower-cased, comma-separated
// lists are split and cleaned.
func ParseProjectFilters(values url.Values) ProjectFilters {
	return ProjectFilters{
		Page:     parsePage(values.Get("page")),
		PageSize: parsePageSize(values.Get("pageSize")),
		Sort:     values.Get("sort"),
		Dir:      parseDir(values.Get("dir")),
		Q:        strings.ToLower(strings.TrimSpace(values.Get("q"))),
		PatchIDs: splitCSV(values.Get("patch")),
		Tier:     values.Get("tier"),
		Universe: values.Get("universe"),
		Stage:    values.Get("stage"),
		Workers:  values.Get("workers"),
		Special:  values.Get("special"),
		EBA:      values.Get("eba"),
	}
}

// OrderColumn resolves the sort parameter against the whitelist, returning
// the view column and direction to apply.
func (f ProjectFilters) OrderColumn() (string, bool) {
	if col, ok := sortColumns[f.Sort]; ok {
		return col, f.Dir == "asc"
	}
	return "created_at", false
}

// Map renders the filter set for cache keying and the debug echo. Only
// set filters appear; page and pageSize always do.
func (f ProjectFilters) Map() map[string]string {
	m := map[string]string{
		"page":     strconv.Itoa(f.Page),
		"pageSize": strconv.Itoa(f.PageSize),
	}
	putNonEmpty(m, "sort", f.Sort)
	putNonEmpty(m, "dir", f.Dir)
	putNonEmpty(m, "q", f.Q)
	putNonEmpty(m, "patch", strings.Join(f.PatchIDs, ","))
	putNonEmpty(m, "tier", f.Tier)
	putNonEmpty(m, "universe", f.Universe)
	putNonEmpty(m, "stage", f.Stage)
	putNonEmpty(m, "workers", f.Workers)
	putNonEmpty(m, "special", f.Special)
	putNonEmpty(m, "eba", f.EBA)
	return m
}

// DashboardFilters is the parsed parameter set for the dashboard endpoint.
type DashboardFilters struct {
	Tier     string
	Stage    string
	Universe string
	PatchIDs []string
}

// ParseDashboardFilters normalizes raw dashboard query parameters.
func ParseDashboardFilters(values url.Values) DashboardFilters {
	return DashboardFilters{
		Tier:     values.Get("tier"),
		Stage:    values.Get("stage"),
		Universe: values.Get("universe"),
		PatchIDs: splitCSV(values.Get("patchIds")),
	}
}

// Map renders the filter set for cache keying and the debug echo.
func (f DashboardFilters) Map() map[string]string {
	m := map[string]string{}
	putNonEmpty(m, "tier", f.Tier)
	putNonEmpty(m, "stage", f.Stage)
	putNonEmpty(m, "universe", f.Universe)
	putNonEmpty(m, "patchIds", strings.Join(f.PatchIDs, ","))
	return m
}

func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil {
		return defaultPage
	}
	if page < 1 {
		return 1
	}
	return page
}

func parsePageSize(raw string) int {
	size, err := strconv.Atoi(raw)
	if err != nil {
		return defaultPageSize
	}
	if size < 1 {
		return 1
	}
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}

func parseDir(raw string) string {
	if raw == "asc" {
		return "asc"
	}
	return "desc"
}

// splitCSV splits a comma-separated parameter, trimming whitespace and
// discarding empty entries.
func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func putNonEmpty(m map[string]string, key, value string) {
	if value != "" {
		m[key] = value
	}
}
