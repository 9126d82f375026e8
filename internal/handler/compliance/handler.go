package compliance

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/authz"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/handler"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/middleware"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/model"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/access"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/compliance"
	apperrors "github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/errors"
)

type Handler struct {
	service       *compliance.Service
	accessService *access.Service
}

func NewHandler(service *compliance.Service, accessService *access.Service) *Handler {
	return &Handler{service: service, accessService: accessService}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	view := auth.RequirePracticeCapability(authz.CapViewComplianceDashboard)
	manage := auth.RequirePracticeCapability(authz.CapManageComplianceDeadlines)

	group := r.Group("/compliance/deadlines")
	{
		group.GET("", view, h.ListDeadlines)
		group.POST("", manage, h.CreateDeadline)
		group.GET("/mine", h.ListOwnDeadlines)
		group.GET("/:id", view, h.GetDeadline)
		group.POST("/:id/met", h.MarkMet)
	}
}

func (h *Handler) CreateDeadline(c *gin.Context) {
	var req struct {
		ProviderID   uuid.UUID `json:"provider_id" binding:"required"`
		NoteType     string    `json:"note_type" binding:"required"`
		DeadlineDate time.Time `json:"deadline_date" binding:"required"`
		NotesPending int       `json:"notes_pending"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewBindingErrorResponse(err))
		return
	}

	actor, _ := middleware.StaffID(c)
	practiceID, _ := middleware.PracticeID(c)

	d := &model.ComplianceDeadline{
		PracticeID:   practiceID,
		ProviderID:   req.ProviderID,
		NoteType:     req.NoteType,
		DeadlineDate: req.DeadlineDate,
		NotesPending: req.NotesPending,
	}
	if err := h.service.Create(c.Request.Context(), d, actor); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(d))
}

// ListDeadlines renders the practice dashboard, optionally filtered by
// computed status (?status=overdue).
func (h *Handler) ListDeadlines(c *gin.Context) {
	practiceID, ok := middleware.PracticeID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid practice ID"))
		return
	}

	deadlines, err := h.service.List(c.Request.Context(), practiceID, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(deadlines))
}

// ListOwnDeadlines shows any provider their own obligations, no capability
// required.
func (h *Handler) ListOwnDeadlines(c *gin.Context) {
	requester, ok := middleware.StaffID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid staff ID"))
		return
	}

	deadlines, err := h.service.ListByProvider(c.Request.Context(), requester)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(deadlines))
}

func (h *Handler) GetDeadline(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid deadline ID"))
		return
	}

	d, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("deadline not found"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(d))
}

// MarkMet lets a provider complete their own deadline; completing someone
// else's requires the manage capability.
func (h *Handler) MarkMet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid deadline ID"))
		return
	}

	requester, ok := middleware.StaffID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid staff ID"))
		return
	}

	d, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("deadline not found"))
		return
	}

	if d.ProviderID != requester {
		decision, err := h.accessService.Decide(c.Request.Context(), requester, d.ProviderID, authz.CapManageComplianceDeadlines)
		if err != nil {
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("failed to evaluate access"))
			return
		}
		if !decision.Granted {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("permission denied"))
			return
		}
	}

	if err := h.service.MarkMet(c.Request.Context(), id, requester); err != nil {
		c.JSON(apperrors.HTTPStatusOr(err, http.StatusBadRequest), handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
