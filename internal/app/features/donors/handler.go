// internal/app/features/donors/handler.go
package donors

import (
	"context"
	"errors"
	"net/http"
	"strings"

	donorstore "github.com/bloodbridge/bloodbridge/internal/app/store/donors"
	"github.com/bloodbridge/bloodbridge/internal/app/store/queries/donorhistory"
	userstore "github.com/bloodbridge/bloodbridge/internal/app/store/users"
	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/bloodbridge/bloodbridge/internal/app/system/authz"
	"github.com/bloodbridge/bloodbridge/internal/app/system/httpjson"
	"github.com/bloodbridge/bloodbridge/internal/app/system/normalize"
	"github.com/bloodbridge/bloodbridge/internal/app/system/timeouts"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Response messages.
const (
	MsgInvalidBody        = "Invalid request body"
	MsgDonationIDRequired = "donationId is required"
)

// Handler serves donor commitments and the donor directory.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	Donors *donorstore.Store
	Users  *userstore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		Donors: donorstore.New(db),
		Users:  userstore.New(db),
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /add-donor                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleAdd records a donor commitment. donorEmail and donorName default to
// the signed-in user.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	doc := models.Document{}
	if err := httpjson.Decode(w, r, &doc); err != nil && !errors.Is(err, httpjson.ErrEmptyBody) {
		httpjson.Message(w, http.StatusBadRequest, MsgInvalidBody)
		return
	}
	if doc == nil {
		doc = models.Document{}
	}
	if me, ok := auth.CurrentUser(r); ok {
		setIfBlank(doc, models.KeyDonorEmail, me.Email)
		setIfBlank(doc, "donorName", me.Name)
	}
	// History lookups match on the normalized form.
	if v, ok := doc[models.KeyDonorEmail].(string); ok {
		doc[models.KeyDonorEmail] = normalize.Email(v)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.Donors.Add(ctx, doc)
	if err != nil {
		httpjson.Internal(w, h.Log, "add donor", err)
		return
	}
	httpjson.OK(w, res)
}

func setIfBlank(doc models.Document, key, value string) {
	if v, _ := doc[key].(string); strings.TrimSpace(v) == "" && value != "" {
		doc[key] = value
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| History                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeSummary returns one row per donor: commitment count and latest date.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := donorhistory.Summary(ctx, h.DB)
	if err != nil {
		httpjson.Internal(w, h.Log, "donor history summary", err)
		return
	}
	httpjson.OK(w, rows)
}

// ServeHistory lists one donor's commitments, newest first. Donors see only
// their own; admins see anyone's.
func (h *Handler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	email := normalize.Email(chi.URLParam(r, "email"))
	me, _ := auth.CurrentUser(r)
	if !authz.SameEmailOrAdmin(me, email) {
		httpjson.Message(w, http.StatusForbidden, authz.MsgOwnHistoryOnly)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Donors.ByDonorEmail(ctx, email)
	if err != nil {
		httpjson.Internal(w, h.Log, "donor history", err)
		return
	}
	httpjson.OK(w, list)
}

// ServeByDonation lists the commitments made to ?donationId=.
func (h *Handler) ServeByDonation(w http.ResponseWriter, r *http.Request) {
	donationID := normalize.QueryParam(r.URL.Query().Get("donationId"))
	if donationID == "" {
		httpjson.Message(w, http.StatusBadRequest, MsgDonationIDRequired)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Donors.ByDonationID(ctx, donationID)
	if err != nil {
		httpjson.Internal(w, h.Log, "find donor", err)
		return
	}
	httpjson.OK(w, list)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /get-donors                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeDirectory lists donor accounts without password digests, optionally
// narrowed by bloodGroup, district and upazila.
func (h *Handler) ServeDirectory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := userstore.DonorFilter{
		BloodGroup: bloodGroupParam(q.Get("bloodGroup")),
		District:   normalize.QueryParam(q.Get("district")),
		Upazila:    normalize.QueryParam(q.Get("upazila")),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Users.ListDonors(ctx, filter)
	if err != nil {
		httpjson.Internal(w, h.Log, "get donors", err)
		return
	}
	httpjson.OK(w, list)
}

// bloodGroupParam undoes form decoding of an unescaped "+" (A+ arrives as
// "A ").
func bloodGroupParam(s string) string {
	s = strings.TrimLeft(s, " ")
	s = strings.ReplaceAll(s, " ", "+")
	return strings.ToUpper(s)
}
