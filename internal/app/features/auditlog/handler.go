// internal/app/features/auditlog/handler.go
package auditlog

import (
	"github.com/bloodbridge/bloodbridge/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the admin view of recorded audit events.
type Handler struct {
	Log    *zap.Logger
	Events *audit.Store
}

// NewHandler constructs an audit log feature handler bound to db.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Log:    logger,
		Events: audit.New(db),
	}
}
