// internal/app/features/donations/handler.go
package donations

import (
	"errors"
	"net/http"

	donationstore "github.com/bloodbridge/bloodbridge/internal/app/store/donations"
	"github.com/bloodbridge/bloodbridge/internal/app/system/auditlog"
	"github.com/bloodbridge/bloodbridge/internal/app/system/httpjson"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Response messages.
const (
	MsgInvalidBody    = "Invalid request body"
	MsgIDRequired     = "id is required"
	MsgStatusRequired = "donationStatus is required"
)

// Handler serves donation requests and the views derived from them.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Requests *donationstore.Store
	AuditLog *auditlog.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		Requests: donationstore.New(db),
		AuditLog: audit,
	}
}

// decodeDocument reads a free-form JSON object. An empty body is an empty
// document.
func decodeDocument(w http.ResponseWriter, r *http.Request) (models.Document, bool) {
	doc := models.Document{}
	if err := httpjson.Decode(w, r, &doc); err != nil && !errors.Is(err, httpjson.ErrEmptyBody) {
		httpjson.Message(w, http.StatusBadRequest, MsgInvalidBody)
		return nil, false
	}
	if doc == nil {
		doc = models.Document{}
	}
	return doc, true
}
