package search

import (
	"strings"
	"time"

	"tonotes/model"

	"github.com/samber/lo"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// Request is a user search over the notes they can read.
type Request struct {
	QueryText      string
	Tags           []string
	DateRange      *DateRange
	Page           int
	PageSize       int
	Sort           Sort
	RequestingUser string
}

// HasCriteria reports whether the request names anything to search for.
// Requests without criteria are served by a plain listing instead.
func (r Request) HasCriteria() bool {
	return strings.TrimSpace(r.QueryText) != "" || len(r.Tags) > 0 || r.DateRange != nil
}

// Offset is the number of hits skipped before the requested page.
func (r Request) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// DateRange restricts results by creation date. Either end may be open.
// Both ends are calendar days: From covers its whole day from midnight,
// To covers its whole day up to the last millisecond.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Bounds returns the inclusive instant range covered by the calendar days.
// A zero time means the side is open.
func (d DateRange) Bounds() (time.Time, time.Time) {
	var from, to time.Time
	if d.From != nil {
		y, m, day := d.From.Date()
		from = time.Date(y, m, day, 0, 0, 0, 0, d.From.Location()).UTC()
	}
	if d.To != nil {
		y, m, day := d.To.Date()
		to = time.Date(y, m, day, 23, 59, 59, int(999*time.Millisecond), d.To.Location()).UTC()
	}
	return from, to
}

// ParseDateRange builds a DateRange from user supplied strings. Dates are
// accepted as YYYY-MM-DD (UTC) or RFC 3339. Returns nil when both are empty.
func ParseDateRange(from, to string) (*DateRange, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" && to == "" {
		return nil, nil
	}

	var dr DateRange
	if from != "" {
		t, err := ParseDate(from)
		if err != nil {
			return nil, model.NewValidationError("startDate", "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
		}
		dr.From = &t
	}
	if to != "" {
		t, err := ParseDate(to)
		if err != nil {
			return nil, model.NewValidationError("endDate", "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
		}
		dr.To = &t
	}
	return &dr, nil
}

// ParseDate parses YYYY-MM-DD or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// NormalizeRequest trims and clamps a request into the shape the query
// builder expects. It is idempotent.
func NormalizeRequest(req Request) (Request, error) {
	req.RequestingUser = strings.TrimSpace(req.RequestingUser)
	if req.RequestingUser == "" {
		return req, model.NewValidationError("requestingUser", "is required")
	}

	req.QueryText = strings.TrimSpace(req.QueryText)
	req.Tags = NormalizeTags(req.Tags)

	if req.Page < 1 {
		req.Page = 1
	}
	switch {
	case req.PageSize == 0:
		req.PageSize = DefaultPageSize
	case req.PageSize < 1:
		req.PageSize = 1
	case req.PageSize > MaxPageSize:
		req.PageSize = MaxPageSize
	}

	if !req.Sort.valid() {
		req.Sort = DefaultSort
	}

	if req.DateRange != nil {
		if req.DateRange.From == nil && req.DateRange.To == nil {
			req.DateRange = nil
		} else if from, to := req.DateRange.Bounds(); !from.IsZero() && !to.IsZero() && from.After(to) {
			return req, model.NewValidationError("dateRange", "start date is after end date")
		}
	}

	return req, nil
}

// NormalizeTags trims and lower-cases tags, dropping empties and duplicates
// while keeping first-seen order.
func NormalizeTags(tags []string) []string {
	cleaned := lo.FilterMap(tags, func(tag string, _ int) (string, bool) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		return tag, tag != ""
	})
	return lo.Uniq(cleaned)
}

// SplitTags parses the comma separated tag list used by the HTTP API.
func SplitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return NormalizeTags(strings.Split(raw, ","))
}
