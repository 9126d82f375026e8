package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/authz"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/handler"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/access"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/auth"
)

const (
	ContextStaffID    = "staffID"
	ContextPracticeID = "practiceID"
	ContextStaffEmail = "staffEmail"
)

type AuthMiddleware struct {
	authService   *auth.Service
	accessService *access.Service
}

func NewAuthMiddleware(authService *auth.Service, accessService *access.Service) *AuthMiddleware {
	return &AuthMiddleware{
		authService:   authService,
		accessService: accessService,
	}
}

// Authenticate verifies the JWT and sets staff identity in context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.authService.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		c.Set(ContextStaffID, claims.StaffID.String())
		c.Set(ContextPracticeID, claims.PracticeID.String())
		c.Set(ContextStaffEmail, claims.Email)
		c.Next()
	}
}

// RequireCapability gates a route on an access decision. The target is the
// :id route param when present, otherwise the requester themselves. Every
// denial surfaces as the same generic 403; the specific reason goes to the
// audit log only.
func (m *AuthMiddleware) RequireCapability(capability authz.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		requester, err := uuid.Parse(c.GetString(ContextStaffID))
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid staff ID"))
			c.Abort()
			return
		}

		target := requester
		if raw := c.Param("id"); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid target ID"))
				c.Abort()
				return
			}
			target = parsed
		}

		decision, err := m.accessService.Decide(c.Request.Context(), requester, target, capability)
		if err != nil {
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to evaluate access"))
			c.Abort()
			return
		}

		if !decision.Granted {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("permission denied"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequirePracticeCapability gates a route on holding a capability
// practice-wide, regardless of any route param. Used by routes whose :id
// names a resource rather than a staff member.
func (m *AuthMiddleware) RequirePracticeCapability(capability authz.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		requester, err := uuid.Parse(c.GetString(ContextStaffID))
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid staff ID"))
			c.Abort()
			return
		}

		// The nil target matches no self-service or supervision path, so
		// only a practice-wide role grant can pass.
		decision, err := m.accessService.Decide(c.Request.Context(), requester, uuid.Nil, capability)
		if err != nil {
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to evaluate access"))
			c.Abort()
			return
		}

		if !decision.Granted {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("permission denied"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// StaffID extracts the authenticated staff member's ID from context.
func StaffID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString(ContextStaffID))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// PracticeID extracts the authenticated practice ID from context.
func PracticeID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString(ContextPracticeID))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
