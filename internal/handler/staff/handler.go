package staff

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/authz"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/handler"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/middleware"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/model"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/access"
	"github.com/Yi-Jacob/mentalspace-ehr-sub009/internal/service/staff"
	apperrors "github.com/Yi-Jacob/mentalspace-ehr-sub009/pkg/errors"
)

type Handler struct {
	service       *staff.Service
	accessService *access.Service
}

func NewHandler(service *staff.Service, accessService *access.Service) *Handler {
	return &Handler{service: service, accessService: accessService}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	manage := auth.RequirePracticeCapability(authz.CapManageUserAccounts)

	staffGroup := r.Group("/staff")
	{
		staffGroup.POST("", manage, h.CreateStaff)
		staffGroup.GET("", manage, h.ListStaff)
		staffGroup.GET("/:id", manage, h.GetStaff)
		staffGroup.PUT("/:id", manage, h.UpdateStaff)
		staffGroup.DELETE("/:id", manage, h.DeleteStaff)

		staffGroup.GET("/:id/roles", manage, h.ListRoles)
		staffGroup.POST("/:id/roles/:role", manage, h.AssignRole)
		staffGroup.DELETE("/:id/roles/:role", manage, h.RemoveRole)
	}

	// Role catalog is readable by any authenticated member.
	r.GET("/roles", h.ListRoleDescriptions)
}

func (h *Handler) CreateStaff(c *gin.Context) {
	var req struct {
		FirstName     string `json:"first_name" binding:"required"`
		LastName      string `json:"last_name" binding:"required"`
		Email         string `json:"email" binding:"required,email"`
		Password      string `json:"password" binding:"required,min=8"`
		LicenseNumber string `json:"license_number"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewBindingErrorResponse(err))
		return
	}

	actor, _ := middleware.StaffID(c)
	practiceID, _ := middleware.PracticeID(c)

	member := &model.StaffMember{
		PracticeID:    practiceID,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		LicenseNumber: req.LicenseNumber,
	}
	if err := h.service.Create(c.Request.Context(), member, req.Password, actor); err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(member))
}

func (h *Handler) GetStaff(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid staff ID"))
		return
	}

	member, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("staff member not found"))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(member))
}

func (h *Handler) ListStaff(c *gin.Context) {
	practiceID, ok := middleware.PracticeID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid practice ID"))
		return
	}

	members, err := h.service.List(c.Request.Context(), practiceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(members))
}

func (h *Handler) UpdateStaff(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid staff ID"))
		return
	}

	member, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("staff member not found"))
		return
	}

	var req struct {
		FirstName     *string            `json:"first_name"`
		LastName      *string            `json:"last_name"`
		LicenseNumber *string            `json:"license_number"`
		Status        *model.StaffStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewBindingErrorResponse(err))
		return
	}

	if req.FirstName != nil {
		member.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		member.LastName = *req.LastName
	}
	if req.LicenseNumber != nil {
		member.LicenseNumber = *req.LicenseNumber
	}
	if req.Status != nil {
		member.Status = *req.Status
	}

	actor, _ := middleware.StaffID(c)
	if err := h.service.Update(c.Request.Context(), member, actor); err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(member))
}

func (h *Handler) DeleteStaff(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid staff ID"))
		return
	}

	actor, _ := middleware.StaffID(c)
	if err := h.service.Delete(c.Request.Context(), id, actor); err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ListRoles(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid staff ID"))
		return
	}

	roles, err := h.service.Roles(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(roles.Names()))
}

func (h *Handler) AssignRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid staff ID"))
		return
	}

	actor, _ := middleware.StaffID(c)
	if err := h.service.AssignRole(c.Request.Context(), id, c.Param("role"), actor); err != nil {
		c.JSON(apperrors.HTTPStatusOr(err, http.StatusBadRequest), handler.NewErrorResponse(err.Error()))
		return
	}

	// Cached decision contexts for this member are now stale.
	h.accessService.Invalidate(id)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) RemoveRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid staff ID"))
		return
	}

	actor, _ := middleware.StaffID(c)
	if err := h.service.RemoveRole(c.Request.Context(), id, c.Param("role"), actor); err != nil {
		c.JSON(apperrors.HTTPStatusOr(err, http.StatusBadRequest), handler.NewErrorResponse(err.Error()))
		return
	}

	h.accessService.Invalidate(id)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

// ListRoleDescriptions renders the fixed role catalog with human-readable
// descriptions.
func (h *Handler) ListRoleDescriptions(c *gin.Context) {
	type roleInfo struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	roles := authz.Roles()
	out := make([]roleInfo, 0, len(roles))
	for _, role := range roles {
		desc, err := authz.Description(role)
		if err != nil {
			continue
		}
		out = append(out, roleInfo{Name: string(role), Description: desc})
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(out))
}
