// internal/app/features/users/handler.go
package users

import (
	"github.com/bloodbridge/bloodbridge/internal/app/services/registration"
	userstore "github.com/bloodbridge/bloodbridge/internal/app/store/users"
	"github.com/bloodbridge/bloodbridge/internal/app/system/auditlog"
	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/bloodbridge/bloodbridge/internal/app/system/metrics"
	"github.com/bloodbridge/bloodbridge/internal/app/system/password"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Response messages.
const (
	MsgInvalidBody    = "Invalid request body"
	MsgUserNotFound   = "User not found"
	MsgCreateFailed   = "Failed to create user"
	MsgPasswordLength = "Password must be at least 6 characters"
)

type Handler struct {
	Log          *zap.Logger
	Users        *userstore.Store
	Fetcher      *userstore.Fetcher
	Registration *registration.Service
	Hasher       password.Hasher
	SessionMgr   *auth.SessionManager
	AuditLog     *auditlog.Logger
	Metrics      *metrics.Metrics
}

// NewHandler constructs the users feature handler over db.
func NewHandler(
	db *mongo.Database,
	hasher password.Hasher,
	sessionMgr *auth.SessionManager,
	audit *auditlog.Logger,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Handler {
	users := userstore.New(db)
	return &Handler{
		Log:          logger,
		Users:        users,
		Fetcher:      userstore.NewFetcher(db),
		Registration: registration.New(users, hasher, logger),
		Hasher:       hasher,
		SessionMgr:   sessionMgr,
		AuditLog:     audit,
		Metrics:      m,
	}
}
