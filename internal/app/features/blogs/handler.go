// internal/app/features/blogs/handler.go
package blogs

import (
	"context"
	"errors"
	"net/http"

	blogstore "github.com/bloodbridge/bloodbridge/internal/app/store/blogs"
	"github.com/bloodbridge/bloodbridge/internal/app/system/auditlog"
	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/bloodbridge/bloodbridge/internal/app/system/htmlsanitize"
	"github.com/bloodbridge/bloodbridge/internal/app/system/httpjson"
	"github.com/bloodbridge/bloodbridge/internal/app/system/inputval"
	"github.com/bloodbridge/bloodbridge/internal/app/system/normalize"
	"github.com/bloodbridge/bloodbridge/internal/app/system/timeouts"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Response messages.
const (
	MsgInvalidBody = "Invalid request body"
	MsgInvalidID   = "Invalid blog ID"
)

// Plain-text blog fields. Markup in them is stripped; content keeps a safe
// subset of HTML.
var plainFields = []string{"title", "thumbnail", "author", "authorEmail"}

type Handler struct {
	Log      *zap.Logger
	Blogs    *blogstore.Store
	AuditLog *auditlog.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:      logger,
		Blogs:    blogstore.New(db),
		AuditLog: audit,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /add-blog                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	doc := models.Document{}
	if err := httpjson.Decode(w, r, &doc); err != nil && !errors.Is(err, httpjson.ErrEmptyBody) {
		httpjson.Message(w, http.StatusBadRequest, MsgInvalidBody)
		return
	}
	if doc == nil {
		doc = models.Document{}
	}
	htmlsanitize.SanitizeFields(doc, models.KeyContent)
	for _, k := range plainFields {
		if s, ok := doc[k].(string); ok {
			doc[k] = htmlsanitize.StripTags(s)
		}
	}
	if s, ok := doc[models.KeyStatus].(string); ok {
		doc[models.KeyStatus] = normalize.Status(s)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.Blogs.Create(ctx, doc)
	if err != nil {
		httpjson.Internal(w, h.Log, "add blog", err)
		return
	}
	httpjson.OK(w, res)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Reads                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Blogs.List(ctx)
	if err != nil {
		httpjson.Internal(w, h.Log, "get blogs", err)
		return
	}
	httpjson.OK(w, list)
}

// ServePublished lists published posts for anonymous visitors.
func (h *Handler) ServePublished(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Blogs.ListPublished(ctx)
	if err != nil {
		httpjson.Internal(w, h.Log, "get published blogs", err)
		return
	}
	httpjson.OK(w, list)
}

// ServeOne returns the post, or null when none matches.
func (h *Handler) ServeOne(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	doc, err := h.Blogs.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Internal(w, h.Log, "blog details", err)
		return
	}
	httpjson.OK(w, doc)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Admin writes                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

type statusInput struct {
	ID     string `json:"id" validate:"required,objectid" label:"Blog ID"`
	Status string `json:"status" validate:"required,blogstatus" label:"Status"`
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var in statusInput
	if err := httpjson.Decode(w, r, &in); err != nil && !errors.Is(err, httpjson.ErrEmptyBody) {
		httpjson.Message(w, http.StatusBadRequest, MsgInvalidBody)
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		httpjson.Message(w, http.StatusBadRequest, res.First())
		return
	}
	status := normalize.Status(in.Status)
	me, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.Blogs.SetStatus(ctx, in.ID, status)
	switch {
	case errors.Is(err, blogstore.ErrInvalidID):
		httpjson.Message(w, http.StatusBadRequest, MsgInvalidID)
		return
	case err != nil:
		httpjson.Internal(w, h.Log, "update blog status", err)
		return
	}
	if res.MatchedCount > 0 && me != nil {
		h.AuditLog.BlogStatusChanged(ctx, r, me.ID, in.ID, status)
	}
	httpjson.OK(w, res)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	me, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.Blogs.Delete(ctx, id)
	switch {
	case errors.Is(err, blogstore.ErrInvalidID):
		httpjson.Message(w, http.StatusBadRequest, MsgInvalidID)
		return
	case err != nil:
		httpjson.Internal(w, h.Log, "delete blog", err)
		return
	}
	if res.DeletedCount > 0 && me != nil {
		h.AuditLog.BlogDeleted(ctx, r, me.ID, id)
	}
	httpjson.OK(w, res)
}
