package appointment

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/physiome/admin-api/internal/middleware"
	"github.com/physiome/admin-api/internal/model"
	"github.com/physiome/admin-api/internal/service/appointment"
	apperrors "github.com/physiome/admin-api/pkg/errors"
	"github.com/physiome/admin-api/pkg/httputil"
)

type Service interface {
	Book(ctx context.Context, patient *model.User, req model.BookAppointmentRequest) (*appointment.Result, error)
	UpdateStatus(ctx context.Context, actor *model.User, id string, status model.AppointmentStatus) (*appointment.Result, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	appointments := r.Group("/appointments")
	appointments.Use(auth.Authenticate())
	{
		appointments.POST("", auth.RequireRoles(model.RolePatient), h.BookAppointment)
		appointments.PUT("/:id/status", auth.RequireRoles(model.RoleTherapist, model.RoleAdmin), h.UpdateStatus)
	}
}

// AppointmentResponse carries the appointment and, when emails were
// attempted, how their delivery went.
type AppointmentResponse struct {
	Appointment  *model.Appointment    `json:"appointment"`
	Notification *model.DeliveryReport `json:"notification,omitempty"`
}

func (h *Handler) BookAppointment(c *gin.Context) {
	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("Invalid appointment request", err))
		return
	}

	patient, _ := middleware.CurrentUser(c)
	res, err := h.service.Book(c.Request.Context(), patient, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithStatus(c, http.StatusCreated, "Appointment booked successfully", AppointmentResponse{
		Appointment:  res.Appointment,
		Notification: res.Delivery,
	})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req model.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("Invalid appointment status", err))
		return
	}

	actor, _ := middleware.CurrentUser(c)
	res, err := h.service.UpdateStatus(c.Request.Context(), actor, c.Param("id"), req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithMessage(c, "Appointment status updated successfully", AppointmentResponse{
		Appointment:  res.Appointment,
		Notification: res.Delivery,
	})
}
