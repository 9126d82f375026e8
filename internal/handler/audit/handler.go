package audit

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/authz"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/handler"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/middleware"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/model"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/audit"
)

type Handler struct {
	service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	r.GET("/audit-logs", auth.RequirePracticeCapability(authz.CapViewAuditLog), h.ListLogs)
}

func (h *Handler) ListLogs(c *gin.Context) {
	practiceID, ok := middleware.PracticeID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid practice ID"))
		return
	}

	var p model.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewBindingErrorResponse(err))
		return
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > 200 {
		p.PageSize = 50
	}

	logs, err := h.service.List(c.Request.Context(), practiceID, p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(logs))
}
