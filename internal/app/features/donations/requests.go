package donations

import (
	"context"
	"net/http"
	"strings"

	"github.com/bloodbridge/bloodbridge/internal/app/store/queries/publicstats"
	"github.com/bloodbridge/bloodbridge/internal/app/store/queries/requestdonors"
	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/bloodbridge/bloodbridge/internal/app/system/httpjson"
	"github.com/bloodbridge/bloodbridge/internal/app/system/timeouts"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /create-donation-request                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleCreate stores the request as sent. When the body names no requester
// the signed-in user is recorded as one, so the request shows up under
// my-donation-request.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	doc, ok := decodeDocument(w, r)
	if !ok {
		return
	}
	if me, ok := auth.CurrentUser(r); ok {
		if v, _ := doc[models.KeyRequesterEmail].(string); strings.TrimSpace(v) == "" {
			doc[models.KeyRequesterEmail] = me.Email
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.Requests.Create(ctx, doc)
	if err != nil {
		httpjson.Internal(w, h.Log, "create donation request", err)
		return
	}
	httpjson.OK(w, res)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Lists                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeMine lists the caller's requests, each joined with its donor.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := requestdonors.ForRequester(ctx, h.DB, me.Email)
	if err != nil {
		httpjson.Internal(w, h.Log, "my donation requests", err)
		return
	}
	httpjson.OK(w, rows)
}

func (h *Handler) ServeAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Requests.List(ctx)
	if err != nil {
		httpjson.Internal(w, h.Log, "all donation requests", err)
		return
	}
	httpjson.OK(w, list)
}

// ServePublic lists pending requests for anonymous visitors.
func (h *Handler) ServePublic(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Requests.ListPending(ctx)
	if err != nil {
		httpjson.Internal(w, h.Log, "public donation requests", err)
		return
	}
	httpjson.OK(w, list)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Single request                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeOne backs both /details/{id} and /get-donation-request/{id}. An
// unknown id answers 200 with null, which the web client treats as empty.
func (h *Handler) ServeOne(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	doc, err := h.Requests.Get(ctx, id)
	if err != nil {
		httpjson.Internal(w, h.Log, "get donation request", err)
		return
	}
	httpjson.OK(w, doc)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	set, ok := decodeDocument(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.Requests.Update(ctx, id, set)
	if err != nil {
		httpjson.Internal(w, h.Log, "update donation request", err)
		return
	}
	httpjson.OK(w, res)
}

type statusInput struct {
	ID             string `json:"id"`
	DonationStatus string `json:"donationStatus"`
}

// HandleStatus sets donationStatus. The value is not restricted to the
// statuses this service writes itself.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var in statusInput
	if err := httpjson.Decode(w, r, &in); err != nil {
		httpjson.Message(w, http.StatusBadRequest, MsgInvalidBody)
		return
	}
	in.ID = strings.TrimSpace(in.ID)
	in.DonationStatus = strings.TrimSpace(in.DonationStatus)
	switch {
	case in.ID == "":
		httpjson.Message(w, http.StatusBadRequest, MsgIDRequired)
		return
	case in.DonationStatus == "":
		httpjson.Message(w, http.StatusBadRequest, MsgStatusRequired)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.Requests.SetStatus(ctx, in.ID, in.DonationStatus)
	if err != nil {
		httpjson.Internal(w, h.Log, "donation status", err)
		return
	}
	httpjson.OK(w, res)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	me, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.Requests.Delete(ctx, id)
	if err != nil {
		httpjson.Internal(w, h.Log, "delete donation request", err)
		return
	}
	if res.DeletedCount > 0 && me != nil {
		h.AuditLog.RequestDeleted(ctx, r, me.ID, id)
		h.Log.Info("donation request deleted", zap.String("request_id", id), zap.String("actor", me.Email))
	}
	httpjson.OK(w, res)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /public-stats                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "public stats")
	defer cancel()

	stats, err := publicstats.Compute(ctx, h.DB)
	if err != nil {
		httpjson.Internal(w, h.Log, "public stats", err)
		return
	}
	httpjson.OK(w, stats)
}
