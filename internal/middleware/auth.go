package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/jobportal-admin/internal/apperrors"
	"github.com/justsurfingit/jobportal-admin/internal/auth"
	"github.com/justsurfingit/jobportal-admin/internal/logger"
	"github.com/justsurfingit/jobportal-admin/internal/models"
	"github.com/justsurfingit/jobportal-admin/internal/response"
)

const sessionKey = "session"

// SessionAuth resolves the Bearer token of a request into an auth.Session.
type SessionAuth struct {
	tokens      *auth.TokenManager
	revocations *auth.RevocationStore
	required    bool
	log         logger.Logger
}

// NewSessionAuth builds the middleware. With required=false requests without
// a token pass through anonymously; a token that is present is still checked.
func NewSessionAuth(tokens *auth.TokenManager, revocations *auth.RevocationStore, required bool, log logger.Logger) *SessionAuth {
	return &SessionAuth{tokens: tokens, revocations: revocations, required: required, log: log}
}

// extractToken strips the "Bearer " prefix. ok is false for any other scheme.
func extractToken(authHeader string) (string, bool) {
	const prefix = "Bearer "
	if len(authHeader) <= len(prefix) || !strings.EqualFold(authHeader[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(authHeader[len(prefix):])
	return token, token != ""
}

func (a *SessionAuth) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if !a.required {
				c.Next()
				return
			}
			response.Abort(c, a.log, apperrors.Unauthorized("Authorization header is required"))
			return
		}

		tokenString, ok := extractToken(header)
		if !ok {
			response.Abort(c, a.log, apperrors.Unauthorized("Authorization header format must be Bearer {token}"))
			return
		}

		session, err := a.tokens.Parse(tokenString)
		if err != nil {
			a.log.Debug("rejected session token", map[string]interface{}{"error": err.Error()})
			response.Abort(c, a.log, apperrors.Unauthorized("Invalid or expired session"))
			return
		}

		revoked, err := a.revocations.IsRevoked(c.Request.Context(), session.TokenID)
		if err != nil {
			response.Abort(c, a.log, apperrors.Internal(err))
			return
		}
		if revoked {
			response.Abort(c, a.log, apperrors.Unauthorized("Session has been logged out"))
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

// SessionFrom returns the session stored by SessionAuth, if any.
func SessionFrom(c *gin.Context) (*auth.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*auth.Session)
	return session, ok
}

// AuthorizeEmail fails with Forbidden when the session belongs to another
// admin. email is compared in its normalized form, the form every lookup
// uses. Anonymous requests (sessions not required) are let through.
func AuthorizeEmail(c *gin.Context, email string) error {
	session, ok := SessionFrom(c)
	if !ok {
		return nil
	}
	if session.Email != models.NormalizeEmail(email) {
		return apperrors.Forbidden("You can only access your own account.")
	}
	return nil
}

// AuthorizeCompany fails with Forbidden unless company is the session
// admin's display name. The match is exact, like the application lookup.
func AuthorizeCompany(c *gin.Context, company string) error {
	session, ok := SessionFrom(c)
	if !ok {
		return nil
	}
	if session.AdminName != company {
		return apperrors.Forbidden("You can only access your own company's applications.")
	}
	return nil
}
