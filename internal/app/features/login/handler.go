// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"

	"github.com/bloodbridge/bloodbridge/internal/app/services/authn"
	"github.com/bloodbridge/bloodbridge/internal/app/store/audit"
	"github.com/bloodbridge/bloodbridge/internal/app/system/auditlog"
	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/bloodbridge/bloodbridge/internal/app/system/httpjson"
	"github.com/bloodbridge/bloodbridge/internal/app/system/metrics"
	"github.com/bloodbridge/bloodbridge/internal/app/system/ratelimit"
	"github.com/bloodbridge/bloodbridge/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Response messages.
const (
	MsgInvalidBody       = "Invalid request body"
	MsgInvalidCredential = "Invalid email or password"
	MsgNeedsPassword     = "Please set your password first. Use /set-password endpoint."
	MsgInactive          = "Account is not active. Please contact support."
	MsgUserNotFound      = "User not found"
	MsgUnverified        = "Social identity could not be verified"
	MsgLoginOK           = "Login successful"
	MsgSocialLoginOK     = "Social login successful"
	MsgPasswordSet       = "Password set successfully. You can now log in."
)

// Metric method labels.
const (
	methodPassword = "password"
	methodSocial   = "social"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Auth       *authn.Service
	Limiter    *ratelimit.LoginLimiter // nil disables throttling
	AuditLog   *auditlog.Logger
	Metrics    *metrics.Metrics
}

func NewHandler(
	svc *authn.Service,
	sessionMgr *auth.SessionManager,
	limiter *ratelimit.LoginLimiter,
	audit *auditlog.Logger,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		Auth:       svc,
		Limiter:    limiter,
		AuditLog:   audit,
		Metrics:    m,
	}
}

type credentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	AccessToken string `json:"accessToken"`
}

// decode reads the body. A missing body decodes as empty credentials so the
// service reports which fields are required.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	var in credentials
	if err := httpjson.Decode(w, r, &in); err != nil && !errors.Is(err, httpjson.ErrEmptyBody) {
		httpjson.Message(w, http.StatusBadRequest, MsgInvalidBody)
		return in, false
	}
	return in, true
}

// throttled answers 429 when the limiter rejects the attempt.
func (h *Handler) throttled(ctx context.Context, w http.ResponseWriter, r *http.Request, method, email string) bool {
	if h.Limiter == nil {
		return false
	}
	ok, msg := h.Limiter.Check(r, email)
	if ok {
		return false
	}
	h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedRateLimit, "", email, "rate limited")
	h.Metrics.Login(method, "rate_limited")
	httpjson.Message(w, http.StatusTooManyRequests, msg)
	return true
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.throttled(ctx, w, r, methodPassword, in.Email) {
		return
	}

	user, err := h.Auth.Login(ctx, in.Email, in.Password)
	if err != nil {
		h.loginFailed(ctx, w, r, user, in.Email, err)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, user); err != nil {
		httpjson.Internal(w, h.Log, "login: save session", err)
		return
	}
	h.Auth.RecordLogin(ctx, user)
	if h.Limiter != nil {
		h.Limiter.ResetEmail(user.Email)
	}
	h.AuditLog.LoginSuccess(ctx, r, user.ID, user.Email)
	h.Metrics.Login(methodPassword, "success")

	httpjson.OK(w, map[string]any{
		"message": MsgLoginOK,
		"user":    user.Public(),
	})
}

func (h *Handler) loginFailed(ctx context.Context, w http.ResponseWriter, r *http.Request, who auth.SessionUser, email string, err error) {
	var ve *authn.ValidationError
	switch {
	case errors.As(err, &ve):
		h.Metrics.Login(methodPassword, "invalid_input")
		httpjson.Message(w, http.StatusBadRequest, ve.Message)

	case errors.Is(err, authn.ErrUnknownEmail):
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUnknownEmail, "", email, "unknown email")
		h.Metrics.Login(methodPassword, "invalid_credential")
		httpjson.Message(w, http.StatusUnauthorized, MsgInvalidCredential)

	case errors.Is(err, authn.ErrInvalidCredential):
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedWrongPassword, who.ID, who.Email, "wrong password")
		h.Metrics.Login(methodPassword, "invalid_credential")
		httpjson.Message(w, http.StatusUnauthorized, MsgInvalidCredential)

	case errors.Is(err, authn.ErrNeedsPassword):
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedNeedsPassword, who.ID, who.Email, "no password set")
		h.Metrics.Login(methodPassword, "needs_password")
		httpjson.Write(w, http.StatusForbidden, map[string]any{
			"message":       MsgNeedsPassword,
			"needsPassword": true,
		})

	case errors.Is(err, authn.ErrInactive):
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedInactive, who.ID, who.Email, "account inactive")
		h.Metrics.Login(methodPassword, "inactive")
		httpjson.Message(w, http.StatusForbidden, MsgInactive)

	default:
		h.Metrics.Login(methodPassword, "error")
		httpjson.Internal(w, h.Log, "login", err)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /social-login                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleSocialLogin(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if h.throttled(ctx, w, r, methodSocial, in.Email) {
		return
	}

	user, err := h.Auth.SocialLogin(ctx, in.Email, in.AccessToken)
	var ve *authn.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &ve):
		h.Metrics.Login(methodSocial, "invalid_input")
		httpjson.Message(w, http.StatusBadRequest, ve.Message)
		return
	case errors.Is(err, authn.ErrNotFound):
		h.AuditLog.SocialLogin(ctx, r, "", user.Email, false, "unknown email")
		h.Metrics.Login(methodSocial, "not_found")
		httpjson.Message(w, http.StatusNotFound, MsgUserNotFound)
		return
	case errors.Is(err, authn.ErrUnverified):
		h.AuditLog.SocialLogin(ctx, r, "", user.Email, false, "identity not verified")
		h.Metrics.Login(methodSocial, "unverified")
		httpjson.Message(w, http.StatusUnauthorized, MsgUnverified)
		return
	case errors.Is(err, authn.ErrInactive):
		h.AuditLog.SocialLogin(ctx, r, user.ID, user.Email, false, "account inactive")
		h.Metrics.Login(methodSocial, "inactive")
		httpjson.Message(w, http.StatusForbidden, MsgInactive)
		return
	default:
		h.Metrics.Login(methodSocial, "error")
		httpjson.Internal(w, h.Log, "social login", err)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, user); err != nil {
		httpjson.Internal(w, h.Log, "social login: save session", err)
		return
	}
	h.Auth.RecordLogin(ctx, user)
	h.AuditLog.SocialLogin(ctx, r, user.ID, user.Email, true, "")
	h.Metrics.Login(methodSocial, "success")

	httpjson.OK(w, map[string]any{
		"message": MsgSocialLoginOK,
		"user": map[string]any{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /set-password                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleSetPassword(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.throttled(ctx, w, r, methodPassword, in.Email) {
		return
	}

	err := h.Auth.SetPassword(ctx, in.Email, in.Password)
	var ve *authn.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &ve):
		httpjson.Message(w, http.StatusBadRequest, ve.Message)
		return
	case errors.Is(err, authn.ErrNotFound):
		httpjson.Message(w, http.StatusNotFound, MsgUserNotFound)
		return
	default:
		httpjson.Internal(w, h.Log, "set password", err)
		return
	}

	h.AuditLog.PasswordSet(ctx, r, in.Email)
	httpjson.OK(w, map[string]any{"message": MsgPasswordSet})
}
