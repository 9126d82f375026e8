package supervision

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
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/supervision"
	apperrors "github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/errors"
)

type Handler struct {
	service       *supervision.Service
	accessService *access.Service
}

func NewHandler(service *supervision.Service, accessService *access.Service) *Handler {
	return &Handler{service: service, accessService: accessService}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	manage := auth.RequirePracticeCapability(authz.CapManageSupervision)

	group := r.Group("/supervision")
	{
		group.POST("", manage, h.CreateRelationship)
		group.GET("", manage, h.ListRelationships)
		group.GET("/:id", manage, h.GetRelationship)
		group.POST("/:id/terminate", manage, h.TerminateRelationship)
	}

	// A supervisor's view of their own current scope.
	r.GET("/supervisees", h.ListOwnSupervisees)
}

func (h *Handler) CreateRelationship(c *gin.Context) {
	var req struct {
		SupervisorID uuid.UUID  `json:"supervisor_id" binding:"required"`
		SuperviseeID uuid.UUID  `json:"supervisee_id" binding:"required"`
		StartDate    time.Time  `json:"start_date" binding:"required"`
		EndDate      *time.Time `json:"end_date"`
		Notes        string     `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewBindingErrorResponse(err))
		return
	}

	actor, _ := middleware.StaffID(c)
	practiceID, _ := middleware.PracticeID(c)

	rel := &model.SupervisionRelationship{
		SupervisorID: req.SupervisorID,
		SuperviseeID: req.SuperviseeID,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Notes:        req.Notes,
	}
	if err := h.service.Create(c.Request.Context(), rel, actor, practiceID); err != nil {
		c.JSON(apperrors.HTTPStatusOr(err, http.StatusBadRequest), handler.NewErrorResponse(err.Error()))
		return
	}

	// The supervisor's cached decision context now misses an edge.
	h.accessService.Invalidate(rel.SupervisorID)
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(rel))
}

func (h *Handler) GetRelationship(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid relationship ID"))
		return
	}

	rel, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("relationship not found"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(rel))
}

func (h *Handler) ListRelationships(c *gin.Context) {
	practiceID, ok := middleware.PracticeID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid practice ID"))
		return
	}

	rels, err := h.service.ListForPractice(c.Request.Context(), practiceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(rels))
}

func (h *Handler) TerminateRelationship(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid relationship ID"))
		return
	}

	var req struct {
		EndDate time.Time `json:"end_date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewBindingErrorResponse(err))
		return
	}

	rel, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("relationship not found"))
		return
	}

	actor, _ := middleware.StaffID(c)
	practiceID, _ := middleware.PracticeID(c)
	if err := h.service.Terminate(c.Request.Context(), id, req.EndDate, actor, practiceID); err != nil {
		c.JSON(apperrors.HTTPStatusOr(err, http.StatusBadRequest), handler.NewErrorResponse(err.Error()))
		return
	}

	h.accessService.Invalidate(rel.SupervisorID)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ListOwnSupervisees(c *gin.Context) {
	requester, ok := middleware.StaffID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid staff ID"))
		return
	}

	ids, err := h.service.Supervisees(c.Request.Context(), requester, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(ids))
}
