// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/bloodbridge/bloodbridge/internal/app/store/audit"
	"github.com/bloodbridge/bloodbridge/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Destination modes for a category.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, logout, password set).
	Auth string
	// Admin controls logging for account and content changes (registration,
	// role/status updates, blog moderation, request deletion).
	Admin string
}

// Logger records audit events to the audit_events collection and/or zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.Email != "" {
		fields = append(fields, zap.String("email", event.Email))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op so handlers can run without auditing.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = ModeAll
	}
	if setting == "" {
		setting = ModeAll
	}
	if setting == ModeOff {
		return
	}

	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}
	if (setting == ModeAll || setting == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func fromRequest(r *http.Request, category, eventType string) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful password login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID, email string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventLoginSuccess)
	e.UserID, e.Email, e.Success = userID, email, true
	l.Log(ctx, e)
}

// LoginFailed logs a rejected password login. eventType is one of the
// audit.EventLoginFailed* constants.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, eventType, userID, email, reason string) {
	e := fromRequest(r, audit.CategoryAuth, eventType)
	e.UserID, e.Email, e.FailureReason = userID, email, reason
	l.Log(ctx, e)
}

// SocialLogin logs a social login attempt.
func (l *Logger) SocialLogin(ctx context.Context, r *http.Request, userID, email string, success bool, reason string) {
	eventType := audit.EventSocialLoginSuccess
	if !success {
		eventType = audit.EventSocialLoginFailed
	}
	e := fromRequest(r, audit.CategoryAuth, eventType)
	e.UserID, e.Email, e.Success, e.FailureReason = userID, email, success, reason
	l.Log(ctx, e)
}

// Logout logs a logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID, email string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventLogout)
	e.UserID, e.Email, e.Success = userID, email, true
	l.Log(ctx, e)
}

// PasswordSet logs a password being set through the set-password flow.
func (l *Logger) PasswordSet(ctx context.Context, r *http.Request, email string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventPasswordSet)
	e.Email, e.Success = email, true
	l.Log(ctx, e)
}

// --- Admin Events ---

// UserRegistered logs a created or claimed account.
func (l *Logger) UserRegistered(ctx context.Context, r *http.Request, userID, email string, claimed bool) {
	eventType := audit.EventUserRegistered
	if claimed {
		eventType = audit.EventUserClaimed
	}
	e := fromRequest(r, audit.CategoryAdmin, eventType)
	e.UserID, e.Email, e.Success = userID, email, true
	l.Log(ctx, e)
}

// RoleChanged logs an admin changing a user's role.
func (l *Logger) RoleChanged(ctx context.Context, r *http.Request, actorID, email, role string) {
	e := fromRequest(r, audit.CategoryAdmin, audit.EventUserRoleChanged)
	e.ActorID, e.Email, e.Success = actorID, email, true
	e.Details = map[string]string{"role": role}
	l.Log(ctx, e)
}

// StatusChanged logs an admin changing a user's account status.
func (l *Logger) StatusChanged(ctx context.Context, r *http.Request, actorID, email, status string) {
	e := fromRequest(r, audit.CategoryAdmin, audit.EventUserStatusChanged)
	e.ActorID, e.Email, e.Success = actorID, email, true
	e.Details = map[string]string{"status": status}
	l.Log(ctx, e)
}

// ProfileUpdated logs a profile update. actorID differs from userID when an
// admin edits someone else's profile.
func (l *Logger) ProfileUpdated(ctx context.Context, r *http.Request, actorID, userID string) {
	e := fromRequest(r, audit.CategoryAdmin, audit.EventProfileUpdated)
	e.ActorID, e.UserID, e.Success = actorID, userID, true
	l.Log(ctx, e)
}

// BlogStatusChanged logs publishing or unpublishing a blog.
func (l *Logger) BlogStatusChanged(ctx context.Context, r *http.Request, actorID, blogID, status string) {
	e := fromRequest(r, audit.CategoryAdmin, audit.EventBlogStatusChanged)
	e.ActorID, e.Success = actorID, true
	e.Details = map[string]string{"blog_id": blogID, "status": status}
	l.Log(ctx, e)
}

// BlogDeleted logs a blog deletion.
func (l *Logger) BlogDeleted(ctx context.Context, r *http.Request, actorID, blogID string) {
	e := fromRequest(r, audit.CategoryAdmin, audit.EventBlogDeleted)
	e.ActorID, e.Success = actorID, true
	e.Details = map[string]string{"blog_id": blogID}
	l.Log(ctx, e)
}

// RequestDeleted logs a donation request deletion.
func (l *Logger) RequestDeleted(ctx context.Context, r *http.Request, actorID, requestID string) {
	e := fromRequest(r, audit.CategoryAdmin, audit.EventRequestDeleted)
	e.ActorID, e.Success = actorID, true
	e.Details = map[string]string{"request_id": requestID}
	l.Log(ctx, e)
}

// AdminSeeded logs creation of the bootstrap admin account at startup.
func (l *Logger) AdminSeeded(ctx context.Context, userID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventAdminSeeded,
		UserID:    userID,
		Email:     email,
		IP:        "startup",
		Success:   true,
	})
}
