package access

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/authz"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/handler"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/middleware"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/access"
)

type Handler struct {
	service *access.Service
}

func NewHandler(service *access.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	group := r.Group("/access")
	{
		// Decision introspection is admin tooling: it exposes reason
		// codes that normal 403 responses deliberately hide.
		group.POST("/check", auth.RequirePracticeCapability(authz.CapManageUserAccounts), h.Check)
	}
}

// Check evaluates an arbitrary subject/target/capability triple and returns
// the full decision including its reason code.
func (h *Handler) Check(c *gin.Context) {
	var req struct {
		SubjectID  *uuid.UUID `json:"subject_id"`
		TargetID   uuid.UUID  `json:"target_id" binding:"required"`
		Capability string     `json:"capability" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewBindingErrorResponse(err))
		return
	}

	subject, ok := middleware.StaffID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid staff ID"))
		return
	}
	if req.SubjectID != nil {
		subject = *req.SubjectID
	}

	decision, err := h.service.Decide(c.Request.Context(), subject, req.TargetID, authz.Capability(req.Capability))
	if err != nil {
		if errors.Is(err, authz.ErrUnknownCapability) || errors.Is(err, authz.ErrUnknownRole) {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(decision))
}
