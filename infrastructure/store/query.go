package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Query accumulates PostgREST filter, order and range parameters for a
// single read. Filter methods mutate and return the query for chaining;
// calling them in any order produces the same request.
type Query struct {
	c          *Client
	relation   string
	params     url.Values
	rangeFrom  int
	rangeTo    int
	hasRange   bool
	exactCount bool
}

func newQuery(c *Client, relation string) *Query {
	return &Query{
		c:        c,
		relation: relation,
		params:   url.Values{"select": []string{"*"}},
	}
}

// Select restricts the returned columns.
func (q *Query) Select(columns string) *Query {
	q.params.Set("select", columns)
	return q
}

// Eq adds an equality filter.
func (q *Query) Eq(column, value string) *Query {
	q.params.Add(column, "eq."+value)
	return q
}

// Gt adds a greater-than filter.
func (q *Query) Gt(column, value string) *Query {
	q.params.Add(column, "gt."+value)
	return q
}

// In filters a column to a set of values.
func (q *Query) In(column string, values []string) *Query {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + strings.ReplaceAll(v, `"`, ``) + `"`
	}
	q.params.Add(column, "in.("+strings.Join(quoted, ",")+")")
	return q
}

// Ilike adds a case-insensitive pattern filter. PostgREST uses * as the
// wildcard.
func (q *Query) Ilike(column, pattern string) *Query {
	q.params.Add(column, "ilike."+pattern)
	return q
}

// Order sets the sort column and direction.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.params.Set("order", column+"."+dir)
	return q
}

// Limit caps the number of returned rows.
func (q *Query) Limit(n int) *Query {
	q.params.Set("limit", strconv.Itoa(n))
	return q
}

// Range requests rows [from, to] inclusive via the Range header.
func (q *Query) Range(from, to int) *Query {
	q.rangeFrom = from
	q.rangeTo = to
	q.hasRange = true
	return q
}

// Count asks the store for an exact total row count alongside the page.
func (q *Query) Count() *Query {
	q.exactCount = true
	return q
}

// Execute runs the query and decodes the JSON rows into dest, which must be
// a pointer to a slice. The returned total is the exact row count when
// Count was requested, -1 otherwise.
func (q *Query) Execute(ctx context.Context, dest interface{}) (int, error) {
	reqURL := q.c.baseURL + "/rest/v1/" + q.relation + "?" + q.params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return -1, err
	}
	req.Header.Set("Accept", "application/json")
	q.c.setAuthHeaders(req)
	if q.hasRange {
		req.Header.Set("Range-Unit", "items")
		req.Header.Set("Range", fmt.Sprintf("%d-%d", q.rangeFrom, q.rangeTo))
	}
	if q.exactCount {
		req.Header.Set("Prefer", "count=exact")
	}

	resp, err := q.c.httpc.Do(req)
	if err != nil {
		return -1, fmt.Errorf("query %s: %w", q.relation, err)
	}
	defer resp.Body.Close()

	// 206 is how PostgREST answers ranged reads.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return -1, responseError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return -1, fmt.Errorf("decode %s rows: %w", q.relation, err)
	}

	total := -1
	if q.exactCount {
		total = parseContentRangeTotal(resp.Header.Get("Content-Range"))
	}
	return total, nil
}

// parseContentRangeTotal extracts the total from a Content-Range header of
// the form "0-23/57" or "*/57". Returns -1 when the total is unknown.
func parseContentRangeTotal(header string) int {
	idx := strings.LastIndexByte(header, '/')
	if idx < 0 {
		return -1
	}
	raw := header[idx+1:]
	if raw == "*" || raw == "" {
		return -1
	}
	total, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return total
}
