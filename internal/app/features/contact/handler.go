// internal/app/features/contact/handler.go
package contact

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	contactstore "github.com/bloodbridge/bloodbridge/internal/app/store/contacts"
	"github.com/bloodbridge/bloodbridge/internal/app/system/htmlsanitize"
	"github.com/bloodbridge/bloodbridge/internal/app/system/httpjson"
	"github.com/bloodbridge/bloodbridge/internal/app/system/timeouts"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Response messages.
const (
	MsgInvalidBody    = "Invalid request body"
	MsgSaveFailed     = "Failed to save contact message"
	MsgEmptyMessage   = "Message is empty"
	MsgContactUnknown = "Message not found"
)

type Handler struct {
	Log      *zap.Logger
	Contacts *contactstore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Log:      logger,
		Contacts: contactstore.New(db),
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /contact                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleSubmit stores a contact-form message. Every field is plain text.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	doc := models.Document{}
	if err := httpjson.Decode(w, r, &doc); err != nil {
		if errors.Is(err, httpjson.ErrEmptyBody) {
			httpjson.Message(w, http.StatusBadRequest, MsgEmptyMessage)
			return
		}
		httpjson.Message(w, http.StatusBadRequest, MsgInvalidBody)
		return
	}
	if len(doc) == 0 {
		httpjson.Message(w, http.StatusBadRequest, MsgEmptyMessage)
		return
	}
	htmlsanitize.StripAllStrings(doc)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.Contacts.Create(ctx, doc)
	if err != nil {
		h.Log.Error("contact: save message", zap.Error(err))
		httpjson.Message(w, http.StatusInternalServerError, MsgSaveFailed)
		return
	}
	httpjson.OK(w, map[string]any{
		"success": true,
		"id":      res.InsertedID,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Admin inbox                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeList lists messages newest first; ?unread=true hides read ones.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Contacts.List(ctx, unreadOnly)
	if err != nil {
		httpjson.Internal(w, h.Log, "list contacts", err)
		return
	}
	httpjson.OK(w, list)
}

func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := h.Contacts.MarkRead(ctx, chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Internal(w, h.Log, "mark contact read", err)
		return
	}
	if res.MatchedCount == 0 {
		httpjson.Message(w, http.StatusNotFound, MsgContactUnknown)
		return
	}
	httpjson.OK(w, res)
}
