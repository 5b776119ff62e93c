// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bloodbridge/bloodbridge/internal/app/store/audit"
	"github.com/bloodbridge/bloodbridge/internal/app/system/httpjson"
	"github.com/bloodbridge/bloodbridge/internal/app/system/normalize"
	"github.com/bloodbridge/bloodbridge/internal/app/system/timeouts"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	dateLayout      = "2006-01-02"
)

// MsgBadDate answers a start or end that is not YYYY-MM-DD.
const MsgBadDate = "start and end must be dates in YYYY-MM-DD form"

// Page is one page of audit events.
type Page struct {
	Events []audit.Event `json:"events"`
	Total  int64         `json:"total"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /audit-events                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeList returns audit events newest first. Query parameters narrow the
// result: userId, actorId, email, category, eventType, start and end (whole
// days, inclusive), page and limit.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, ok := filterFrom(q)
	if !ok {
		httpjson.Message(w, http.StatusBadRequest, MsgBadDate)
		return
	}
	page := positiveInt(q.Get("page"), 1)
	limit := positiveInt(q.Get("limit"), defaultPageSize)
	if limit > maxPageSize {
		limit = maxPageSize
	}
	filter.Limit = int64(limit)
	filter.Offset = int64((page - 1) * limit)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		httpjson.Internal(w, h.Log, "query audit events", err)
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		httpjson.Internal(w, h.Log, "count audit events", err)
		return
	}

	httpjson.OK(w, Page{Events: events, Total: total, Page: page, Limit: limit})
}

func filterFrom(q url.Values) (audit.QueryFilter, bool) {
	f := audit.QueryFilter{
		UserID:    normalize.QueryParam(q.Get("userId")),
		ActorID:   normalize.QueryParam(q.Get("actorId")),
		Email:     normalize.Email(q.Get("email")),
		Category:  normalize.QueryParam(q.Get("category")),
		EventType: normalize.QueryParam(q.Get("eventType")),
	}
	if s := normalize.QueryParam(q.Get("start")); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return f, false
		}
		f.StartTime = &t
	}
	if s := normalize.QueryParam(q.Get("end")); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return f, false
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		f.EndTime = &end
	}
	return f, true
}

func positiveInt(s string, def int) int {
	n, err := strconv.Atoi(normalize.QueryParam(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}
