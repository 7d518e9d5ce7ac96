// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/memberhub/internal/app/system/httpjson"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
 | Session constants                                                           |
 *─────────────────────────────────────────────────────────────────────────────*/

const (
	isAuthKey  = "is_authenticated"
	userIDKey  = "user_id"
	userName   = "user_name"
	userEmail  = "user_email"
	userRole   = "user_role"
	userOrgKey = "user_org_id"
	userOrgs   = "user_org_ids"
)

// SessionUser is what the auth service stores in the session cookie and what
// we inject into r.Context(). Organization IDs are hex strings here; handlers
// convert through authz when they need ObjectIDs.
type SessionUser struct {
	ID              string
	Name            string
	Email           string
	Role            string
	OrganizationID  string   // legacy single-org claim
	OrganizationIDs []string // current multi-org claim
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects a user into the request context, bypassing the
// session machinery. Test helper only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
 | SessionManager                                                              |
 *─────────────────────────────────────────────────────────────────────────────*/

// tokenClaims are the bearer-token claims issued by the auth service.
type tokenClaims struct {
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Role   string   `json:"role"`
	OrgID  string   `json:"org_id,omitempty"`
	OrgIDs []string `json:"org_ids,omitempty"`
	jwt.RegisteredClaims
}

// SessionManager validates the two credentials the external auth service
// issues: the shared session cookie (browser clients) and a signed bearer
// token (API clients). MemberHub never creates either.
type SessionManager struct {
	store       *sessions.CookieStore
	sessionName string
	tokenKey    []byte
	log         *zap.Logger
}

// NewSessionManager builds a SessionManager. sessionKey must match the key
// the auth service signs cookies with; tokenKey may be empty to disable
// bearer-token auth.
func NewSessionManager(sessionKey, sessionName, domain string, secure bool, tokenKey []byte, logger *zap.Logger) (*SessionManager, error) {
	if len(sessionKey) < 32 {
		return nil, errors.New("session key must be at least 32 bytes")
	}
	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   domain,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{
		store:       store,
		sessionName: sessionName,
		tokenKey:    tokenKey,
		log:         logger,
	}, nil
}

// GetSession returns the (possibly new) session for the request.
func (m *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return m.store.Get(r, m.sessionName)
}

// LoadSessionUser injects the user into context if the request carries a
// valid session cookie or bearer token. Requests without credentials pass
// through untouched; RequireSignedIn decides what happens next.
func (m *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := m.userFromSession(r); u != nil {
			next.ServeHTTP(w, withUser(r, u))
			return
		}
		if u := m.userFromBearer(r); u != nil {
			next.ServeHTTP(w, withUser(r, u))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *SessionManager) userFromSession(r *http.Request) *SessionUser {
	sess, err := m.store.Get(r, m.sessionName)
	if err != nil {
		// Undecodable cookie: treat as signed out rather than failing the
		// request; the auth service rotates keys on its own schedule.
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			m.log.Debug("stale session cookie ignored", zap.Error(err))
		} else {
			m.log.Warn("session cookie rejected", zap.Error(err))
		}
		return nil
	}
	if isAuth, _ := sess.Values[isAuthKey].(bool); !isAuth {
		return nil
	}
	return &SessionUser{
		ID:              getString(sess, userIDKey),
		Name:            getString(sess, userName),
		Email:           getString(sess, userEmail),
		Role:            getString(sess, userRole),
		OrganizationID:  getString(sess, userOrgKey),
		OrganizationIDs: getStrings(sess, userOrgs),
	}
}

func (m *SessionManager) userFromBearer(r *http.Request) *SessionUser {
	if len(m.tokenKey) == 0 {
		return nil
	}
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return m.tokenKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		m.log.Warn("bearer token rejected", zap.Error(err))
		return nil
	}
	return &SessionUser{
		ID:              claims.Subject,
		Name:            claims.Name,
		Email:           claims.Email,
		Role:            claims.Role,
		OrganizationID:  claims.OrgID,
		OrganizationIDs: claims.OrgIDs,
	}
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// API callers get a plain 401 envelope; there are no HTML pages to redirect to.
func (m *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
	})
}

// RequireRole ensures there is a user with one of the allowed roles in
// context. Superadmin passes every role check.
func (m *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				httpjson.Error(w, http.StatusUnauthorized, "sign in required")
				return
			}
			role := strings.ToLower(u.Role)
			if role == "superadmin" {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := set[role]; !ok {
				httpjson.Error(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
 | Small helpers                                                               |
 *─────────────────────────────────────────────────────────────────────────────*/

func getString(sess *sessions.Session, key string) string {
	s, _ := sess.Values[key].(string)
	return s
}

func getStrings(sess *sessions.Session, key string) []string {
	switch v := sess.Values[key].(type) {
	case []string:
		return v
	case string:
		if v == "" {
			return nil
		}
		return strings.Split(v, ",")
	default:
		return nil
	}
}
