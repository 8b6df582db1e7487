package notification

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/physiome/admin-api/internal/middleware"
	"github.com/physiome/admin-api/internal/model"
	"github.com/physiome/admin-api/internal/service/notification"
	apperrors "github.com/physiome/admin-api/pkg/errors"
	"github.com/physiome/admin-api/pkg/httputil"
)

type Service interface {
	NotifyContact(ctx context.Context, contact model.ContactSubmission) (*model.DeliveryReport, error)
	VerifyConnection(ctx context.Context) notification.ConnectionResult
	SendTest(ctx context.Context, to string) (*model.DeliveryReport, error)
	Environment() string
}

type Handler struct {
	service Service
	// masked is the diagnostics view of the mail settings, fixed at startup.
	masked map[string]string
	now    func() time.Time
}

func NewHandler(service Service, maskedConfig map[string]string) *Handler {
	return &Handler{service: service, masked: maskedConfig, now: time.Now}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	r.POST("/contact", h.Contact)

	test := r.Group("/test")
	test.Use(auth.Authenticate(), auth.RequireRoles(model.RoleAdmin))
	{
		test.GET("/email-connection", h.EmailConnection)
		test.POST("/send-email", h.SendEmail)
		test.GET("/email-config", h.EmailConfig)
	}
}

// Contact emails a contact form submission to the clinic and acknowledges
// it to the sender.
func (h *Handler) Contact(c *gin.Context) {
	var req model.ContactSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("Please fill in all required fields", err))
		return
	}

	report, err := h.service.NotifyContact(c.Request.Context(), req)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Transient(err))
		return
	}
	httputil.RespondWithMessage(c, "Message sent successfully", report)
}

// DiagnosticResponse is the body of the mail diagnostics endpoints. Error
// and Recipient are null rather than omitted.
type DiagnosticResponse struct {
	Success     bool              `json:"success"`
	Message     string            `json:"message"`
	Recipient   *string           `json:"recipient,omitempty"`
	Error       *string           `json:"error"`
	Config      map[string]string `json:"config,omitempty"`
	Timestamp   string            `json:"timestamp"`
	Environment string            `json:"environment,omitempty"`
}

type SendEmailRequest struct {
	Email string `json:"email" binding:"omitempty,email"`
}

func (h *Handler) EmailConnection(c *gin.Context) {
	result := h.service.VerifyConnection(c.Request.Context())

	resp := h.diagnostic(result.OK, result.Message)
	if result.Error != "" {
		resp.Error = &result.Error
	}
	c.JSON(statusFor(result.OK), resp)
}

func (h *Handler) SendEmail(c *gin.Context) {
	var req SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.RespondWithError(c, apperrors.BadRequest("Invalid email address", err))
		return
	}

	report, err := h.service.SendTest(c.Request.Context(), req.Email)

	ok := err == nil
	msg := "Test email sent successfully"
	if !ok {
		msg = "Test email failed"
	}
	resp := h.diagnostic(ok, msg)
	var recipient string
	if report != nil && len(report.Recipients) > 0 {
		recipient = report.Recipients[0]
	}
	resp.Recipient = &recipient
	if err != nil {
		e := err.Error()
		resp.Error = &e
	}
	c.JSON(statusFor(ok), resp)
}

func (h *Handler) EmailConfig(c *gin.Context) {
	resp := h.diagnostic(true, "Email configuration retrieved")
	resp.Config = h.masked
	resp.Environment = ""
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) diagnostic(ok bool, message string) DiagnosticResponse {
	return DiagnosticResponse{
		Success:     ok,
		Message:     message,
		Timestamp:   h.now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Environment: h.service.Environment(),
	}
}

func statusFor(ok bool) int {
	if ok {
		return http.StatusOK
	}
	return http.StatusInternalServerError
}
