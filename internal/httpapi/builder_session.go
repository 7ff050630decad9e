package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/appbuilder/internal/storage"
)

const (
	// BuilderSessionCookieName names the cookie that carries the builder session id.
	BuilderSessionCookieName = "appbuilder_session"

	builderSessionValueKey      = "builder_session_id"
	contextKeyBuilderSessionID  = "httpapi_builder_session_id"
	logEventLoadCookieSession   = "load_cookie_session"
	logEventCreateSession       = "create_session"
	logEventLoadBuilderSession  = "load_builder_session"
	logEventSaveCookieSession   = "save_cookie_session"
	logEventEndSession          = "end_session"
	logFieldSessionID           = "session_id"
	errorValueSessionFailed     = "session_failed"
	errorValueSessionNotFound   = "session_not_found"
	defaultBuilderSessionMaxAge = 24 * time.Hour
)

// BuilderSessionStore persists the configuration owned by each builder session.
type BuilderSessionStore interface {
	Create(ctx context.Context) (storage.SessionState, error)
	Load(ctx context.Context, sessionID string) (storage.SessionState, error)
	Update(ctx context.Context, sessionID string, mutator storage.ConfigurationMutator) (storage.SessionState, error)
	Delete(ctx context.Context, sessionID string) error
}

// BuilderSessionManager binds browser sessions to stored configurations through
// a signed cookie.
type BuilderSessionManager struct {
	logger       *zap.Logger
	cookieStore  *sessions.CookieStore
	sessionStore BuilderSessionStore
}

// NewBuilderSessionManager constructs a BuilderSessionManager. The secret signs
// the session cookie; maxAge bounds the cookie lifetime.
func NewBuilderSessionManager(logger *zap.Logger, sessionStore BuilderSessionStore, secret []byte, maxAge time.Duration) *BuilderSessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxAge <= 0 {
		maxAge = defaultBuilderSessionMaxAge
	}
	cookieStore := sessions.NewCookieStore(secret)
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &BuilderSessionManager{
		logger:       logger,
		cookieStore:  cookieStore,
		sessionStore: sessionStore,
	}
}

// RequireBuilderSession resolves the caller's builder session, starting a new
// one when the cookie is missing or points to a session that no longer exists.
// The cookie is re-issued on every request so its expiry follows activity.
func (manager *BuilderSessionManager) RequireBuilderSession() gin.HandlerFunc {
	return func(context *gin.Context) {
		cookieSession, cookieErr := manager.cookieStore.Get(context.Request, BuilderSessionCookieName)
		if cookieErr != nil {
			manager.logger.Warn(logEventLoadCookieSession, zap.Error(cookieErr))
		}

		sessionID, resolveErr := manager.resolveSessionID(context.Request.Context(), extractString(cookieSession.Values[builderSessionValueKey]))
		if resolveErr != nil {
			context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueSessionFailed})
			return
		}

		cookieSession.Values[builderSessionValueKey] = sessionID
		if saveErr := cookieSession.Save(context.Request, context.Writer); saveErr != nil {
			manager.logger.Error(logEventSaveCookieSession, zap.Error(saveErr))
			context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueSessionFailed})
			return
		}

		context.Set(contextKeyBuilderSessionID, sessionID)
		context.Next()
	}
}

func (manager *BuilderSessionManager) resolveSessionID(ctx context.Context, sessionID string) (string, error) {
	if sessionID != "" {
		_, loadErr := manager.sessionStore.Load(ctx, sessionID)
		if loadErr == nil {
			return sessionID, nil
		}
		if !errors.Is(loadErr, storage.ErrSessionNotFound) {
			manager.logger.Error(logEventLoadBuilderSession, zap.String(logFieldSessionID, sessionID), zap.Error(loadErr))
			return "", loadErr
		}
	}

	state, createErr := manager.sessionStore.Create(ctx)
	if createErr != nil {
		manager.logger.Error(logEventCreateSession, zap.Error(createErr))
		return "", createErr
	}
	manager.logger.Info(logEventCreateSession, zap.String(logFieldSessionID, state.ID))
	return state.ID, nil
}

// EndSession deletes the caller's configuration and expires the cookie.
func (manager *BuilderSessionManager) EndSession(context *gin.Context) {
	sessionID, ok := BuilderSessionIDFromContext(context)
	if !ok {
		context.JSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueSessionNotFound})
		return
	}

	if deleteErr := manager.sessionStore.Delete(context.Request.Context(), sessionID); deleteErr != nil {
		manager.logger.Error(logEventEndSession, zap.String(logFieldSessionID, sessionID), zap.Error(deleteErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueSessionFailed})
		return
	}

	cookieSession, _ := manager.cookieStore.Get(context.Request, BuilderSessionCookieName)
	cookieSession.Options.MaxAge = -1
	delete(cookieSession.Values, builderSessionValueKey)
	if saveErr := cookieSession.Save(context.Request, context.Writer); saveErr != nil {
		manager.logger.Warn(logEventSaveCookieSession, zap.Error(saveErr))
	}

	manager.logger.Info(logEventEndSession, zap.String(logFieldSessionID, sessionID))
	context.Status(http.StatusNoContent)
}

// BuilderSessionIDFromContext returns the session id resolved by RequireBuilderSession.
func BuilderSessionIDFromContext(context *gin.Context) (string, bool) {
	value, exists := context.Get(contextKeyBuilderSessionID)
	if !exists {
		return "", false
	}
	sessionID, ok := value.(string)
	return sessionID, ok && sessionID != ""
}

func extractString(value interface{}) string {
	text, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}
