package admin

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/physiome/admin-api/internal/middleware"
	"github.com/physiome/admin-api/internal/model"
	"github.com/physiome/admin-api/internal/service/admin"
	apperrors "github.com/physiome/admin-api/pkg/errors"
	"github.com/physiome/admin-api/pkg/httputil"
)

// Legacy reject reasons that turn a rejection into a deletion.
const (
	ReasonAdminDelete        = "ADMIN_DELETE"
	ReasonAdminDeletePatient = "ADMIN_DELETE_PATIENT"
)

type Service interface {
	ListTherapists(ctx context.Context) ([]*model.Profile, error)
	ListPendingTherapists(ctx context.Context) ([]*model.Profile, error)
	ListPatients(ctx context.Context) ([]*model.Profile, error)
	DashboardCounts(ctx context.Context) (*model.DashboardCounts, error)
	GetTherapist(ctx context.Context, id string) (*model.Profile, error)
	GetPatient(ctx context.Context, id string) (*model.PatientDetails, error)
	ApproveTherapist(ctx context.Context, id string) (*admin.Result, error)
	DeleteTherapist(ctx context.Context, id string) (*admin.Result, error)
	DeletePatient(ctx context.Context, id string) (*admin.Result, error)
	ManageUser(ctx context.Context, id string, action string, permanent bool) (*admin.Result, error)
	Execute(ctx context.Context, id string, cmd admin.Command) (*admin.Result, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	admins := r.Group("/admin")
	admins.Use(auth.Authenticate(), auth.RequireRoles(model.RoleAdmin))
	{
		admins.GET("/stats", h.DashboardStats)

		admins.GET("/therapists", h.ListTherapists)
		admins.GET("/therapists/pending", h.ListPendingTherapists)
		admins.GET("/therapists/:id", h.GetTherapist)
		admins.PUT("/therapists/:id/approve", h.ApproveTherapist)
		admins.PUT("/therapists/:id/reject", h.RejectTherapist)
		admins.DELETE("/therapists/:id", h.DeleteTherapist)

		admins.GET("/patients", h.ListPatients)
		admins.GET("/patients/:id", h.GetPatient)
		admins.DELETE("/patients/:id", h.DeletePatient)

		admins.PUT("/users/:id", h.ManageUser)
	}
}

type RejectRequest struct {
	Reason    string `json:"reason"`
	Permanent bool   `json:"permanent"`
}

type ManageUserRequest struct {
	Action    string `json:"action" binding:"required"`
	Reason    string `json:"reason"`
	Permanent bool   `json:"permanent"`
}

func (h *Handler) DashboardStats(c *gin.Context) {
	counts, err := h.service.DashboardCounts(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, counts)
}

func (h *Handler) ListTherapists(c *gin.Context) {
	h.respondList(c, h.service.ListTherapists)
}

func (h *Handler) ListPendingTherapists(c *gin.Context) {
	h.respondList(c, h.service.ListPendingTherapists)
}

func (h *Handler) ListPatients(c *gin.Context) {
	h.respondList(c, h.service.ListPatients)
}

func (h *Handler) respondList(c *gin.Context, list func(context.Context) ([]*model.Profile, error)) {
	users, err := list(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, users)
}

func (h *Handler) GetTherapist(c *gin.Context) {
	therapist, err := h.service.GetTherapist(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, therapist)
}

func (h *Handler) GetPatient(c *gin.Context) {
	patient, err := h.service.GetPatient(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patient)
}

func (h *Handler) ApproveTherapist(c *gin.Context) {
	h.respondResult(c)(h.service.ApproveTherapist(c.Request.Context(), c.Param("id")))
}

// RejectTherapist also serves the legacy deletion form, see
// LegacyRejectCommand.
func (h *Handler) RejectTherapist(c *gin.Context) {
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.RespondWithError(c, apperrors.BadRequest("Invalid request body", err))
		return
	}
	h.respondResult(c)(h.service.Execute(c.Request.Context(), c.Param("id"), LegacyRejectCommand(req.Reason, req.Permanent)))
}

func (h *Handler) DeleteTherapist(c *gin.Context) {
	h.respondResult(c)(h.service.DeleteTherapist(c.Request.Context(), c.Param("id")))
}

func (h *Handler) DeletePatient(c *gin.Context) {
	h.respondResult(c)(h.service.DeletePatient(c.Request.Context(), c.Param("id")))
}

func (h *Handler) ManageUser(c *gin.Context) {
	var req ManageUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("Action is required", err))
		return
	}
	h.respondResult(c)(h.service.ManageUser(c.Request.Context(), c.Param("id"), req.Action, req.Permanent))
}

func (h *Handler) respondResult(c *gin.Context) func(*admin.Result, error) {
	return func(res *admin.Result, err error) {
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		if res.User == nil {
			httputil.RespondWithMessage(c, res.Message, nil)
			return
		}
		httputil.RespondWithMessage(c, res.Message, res.User)
	}
}

// LegacyRejectCommand maps the compound reject body onto a command. Only a
// deletion reason together with permanent deletes; ADMIN_DELETE without
// permanent is an ordinary rejection.
func LegacyRejectCommand(reason string, permanent bool) admin.Command {
	switch {
	case reason == ReasonAdminDelete && permanent:
		return admin.Command{Kind: admin.CommandDelete, Role: model.RoleTherapist}
	case reason == ReasonAdminDeletePatient && permanent:
		return admin.Command{Kind: admin.CommandDelete, Role: model.RolePatient, CascadeProfile: true}
	default:
		return admin.Command{Kind: admin.CommandReject, Role: model.RoleTherapist}
	}
}
