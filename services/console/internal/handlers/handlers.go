package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/haitiwallet/console/libs/auth"
	"github.com/haitiwallet/console/services/console/internal/backend"
	"github.com/haitiwallet/console/services/console/internal/export"
	"github.com/haitiwallet/console/services/console/internal/fees"
	"github.com/haitiwallet/console/services/console/internal/guard"
	"github.com/haitiwallet/console/services/console/internal/service"
	"github.com/haitiwallet/console/services/console/internal/session"
	"github.com/haitiwallet/console/services/console/internal/tabs"
	"github.com/haitiwallet/console/services/console/internal/validation"
	"github.com/haitiwallet/console/services/console/internal/views"
)

type ConsoleService interface {
	Session() session.Info
	View() views.App
	Navigate(raw string) (tabs.Transition, views.App)
	Refresh(ctx context.Context) (*service.Report, error)
	Users(query string, visible int) (views.UsersView, error)

	Login(ctx context.Context, in validation.LoginInput) (*service.Report, error)
	Logout(ctx context.Context) error
	RestoreSuperadmin(ctx context.Context) (*service.Report, error)
	ConsumeHandoff(ctx context.Context, rawURL string) (string, bool, error)

	Register(ctx context.Context, in validation.RegisterInput) (*backend.RegisterResult, error)
	StartOTP(ctx context.Context, in validation.OTPStartInput) (*backend.Message, error)
	RegisterWithOTP(ctx context.Context, in validation.OTPRegisterInput) (string, error)
	ForgotPassword(ctx context.Context, in validation.ForgotInput) (*backend.Message, error)
	ResetPassword(ctx context.Context, in validation.ResetInput) (*backend.Message, error)
	UpdateProfile(ctx context.Context, in validation.ProfileInput) error

	Transfer(ctx context.Context, in validation.TransferInput) error
	Convert(ctx context.Context, in validation.ConvertInput) (*backend.ConvertResult, error)
	CreateTopup(ctx context.Context, in validation.TopupInput) (*service.TopupReceipt, error)
	DecideTopup(ctx context.Context, id int64, in validation.DecisionInput) error
	CreatePartner(ctx context.Context, in validation.PartnerInput) (*backend.Partner, error)
	SetPartnerActive(ctx context.Context, id int64, active bool) error
	Spend(ctx context.Context, in validation.SpendInput) (*backend.SpendResult, error)
	Adjust(ctx context.Context, in validation.AdjustInput) (*backend.AdjustResult, error)
	AdminStats(ctx context.Context, days int) (views.StatsView, error)
	FeePreview(amount, currency string) fees.Preview
	Export(ctx context.Context, domain export.Domain) (*export.File, error)
	Dispatch(ctx context.Context, cmd service.Command, targetID int64, confirmed bool) (*service.DispatchResult, error)
}

type Handler struct {
	Service ConsoleService
	Logger  *slog.Logger
}

type errorResponse struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

// actionResponse carries an action's own result next to the refreshed view.
type actionResponse struct {
	Message string    `json:"message,omitempty"`
	Result  any       `json:"result,omitempty"`
	View    views.App `json:"view"`
}

type activeRequest struct {
	Active *bool `json:"active"`
}

func New(svc ConsoleService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Service: svc, Logger: logger}
}

func (h *Handler) Register(r *gin.Engine, accessToken string) {
	group := r.Group("/", auth.Middleware(accessToken))
	group.GET("/", h.Index)

	group.GET("/session", h.SessionInfo)
	group.POST("/session/login", h.Login)
	group.POST("/session/logout", h.Logout)
	group.POST("/session/restore-superadmin", h.RestoreSuperadmin)

	group.POST("/register", h.RegisterAccount)
	group.POST("/register/otp", h.StartOTP)
	group.POST("/register/verify", h.VerifyOTP)
	group.POST("/password/forgot", h.ForgotPassword)
	group.POST("/password/reset", h.ResetPassword)
	group.PUT("/profile", h.UpdateProfile)

	group.POST("/refresh", h.Refresh)
	group.GET("/views/:tab", h.Navigate)
	group.GET("/fees/preview", h.FeePreview)

	group.POST("/wallet/transfer", h.Transfer)
	group.POST("/wallet/convert", h.Convert)
	group.POST("/topups", h.CreateTopup)
	group.POST("/topups/:id/decide", h.DecideTopup)
	group.POST("/partners", h.CreatePartner)
	group.POST("/partners/spend", h.Spend)
	group.POST("/partners/:id/active", h.SetPartnerActive)

	group.POST("/admin/wallet/adjust", h.Adjust)
	group.GET("/admin/stats", h.AdminStats)
	group.GET("/superadmin/users", h.Users)
	group.POST("/superadmin/users/:id/:command", h.Dispatch)

	group.GET("/export/:domain", h.Export)
}

// Index consumes an impersonation hand-off when present, otherwise renders the view.
func (h *Handler) Index(c *gin.Context) {
	if c.Query(session.HandoffParam) != "" {
		cleaned, ok, err := h.Service.ConsumeHandoff(c.Request.Context(), c.Request.URL.RequestURI())
		if err != nil {
			h.writeError(c, err)
			return
		}
		if ok {
			c.Redirect(http.StatusFound, cleaned)
			return
		}
	}
	c.JSON(http.StatusOK, h.Service.View())
}

func (h *Handler) SessionInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.Session())
}

func (h *Handler) Login(c *gin.Context) {
	var req validation.LoginInput
	if !h.bind(c, &req) {
		return
	}
	report, err := h.Service.Login(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respond(c, "", report)
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.Service.Logout(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	h.respond(c, "", nil)
}

func (h *Handler) RestoreSuperadmin(c *gin.Context) {
	report, err := h.Service.RestoreSuperadmin(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respond(c, "", report)
}

func (h *Handler) RegisterAccount(c *gin.Context) {
	var req validation.RegisterInput
	if !h.bind(c, &req) {
		return
	}
	res, err := h.Service.Register(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respond(c, "", res)
}

func (h *Handler) StartOTP(c *gin.Context) {
	var req validation.OTPStartInput
	if !h.bind(c, &req) {
		return
	}
	res, err := h.Service.StartOTP(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respond(c, res.Message, res)
}

func (h *Handler) VerifyOTP(c *gin.Context) {
	var req validation.OTPRegisterInput
	if !h.bind(c, &req) {
		return
	}
	msg, err := h.Service.RegisterWithOTP(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respond(c, msg, nil)
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req validation.ForgotInput
	if !h.bind(c, &req) {
		return
	}
	res, err := h.Service.ForgotPassword(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respond(c, res.Message, res)
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req validation.ResetInput
	if !h.bind(c, &req) {
		return
	}
	res, err := h.Service.ResetPassword(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respond(c, res.Message, res)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req validation.ProfileInput
	if !h.bind(c, &req) {
		return
	}
	if err := h.Service.UpdateProfile(c.Request.Context(), req); err != nil {
		h.writeError(c, err)
		return
	}
	h.respond(c, "", nil)
}

func (h *Handler) Refresh(c *gin.Context) {
	report, err := h.Service.Refresh(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respond(c, "", report)
}

func (h *Handler) Navigate(c *gin.Context) {
	tr, app := h.Service.Navigate(c.Param("tab"))
	c.JSON(http.StatusOK, gin.H{"transition": tr, "view": app})
}

func (h *Handler) FeePreview(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.FeePreview(c.Query("amount"), c.DefaultQuery("currency", backend.CurrencyHTG)))
}

func (h *Handler) Transfer(c *gin.Context) {
	var req validation.TransferInput
	if !h.bind(c, &req) {
		return
	}
	if err := h.Service.Transfer(c.Request.Context(), req); err != nil {
		h.writeError(c, err)
		return
	}
	h.respond(c, "", nil)
}

func (h *Handler) Convert(c *gin.Context) {
	var req validation.ConvertInput
	if !h.bind(c, &req) {
		return
	}
	res, err := h.Service.Convert(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respond(c, "", res)
}

func (h *Handler) CreateTopup(c *gin.Context) {
	var req validation.TopupInput
	if !h.bind(c, &req) {
		return
	}
	res, err := h.Service.CreateTopup(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respond(c, "", res)
}

func (h *Handler) DecideTopup(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req validation.DecisionInput
	if !h.bind(c, &req) {
		return
	}
	if err := h.Service.DecideTopup(c.Request.Context(), id, req); err != nil {
		h.writeError(c, err)
		return
	}
	h.respond(c, "", nil)
}

func (h *Handler) CreatePartner(c *gin.Context) {
	var req validation.PartnerInput
	if !h.bind(c, &req) {
		return
	}
	res, err := h.Service.CreatePartner(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respond(c, "", res)
}

func (h *Handler) SetPartnerActive(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req activeRequest
	if !h.bind(c, &req) {
		return
	}
	if req.Active == nil {
		h.writeError(c, validation.ValidationErrors{{Field: "active", Message: "Statut requis."}})
		return
	}
	if err := h.Service.SetPartnerActive(c.Request.Context(), id, *req.Active); err != nil {
		h.writeError(c, err)
		return
	}
	h.respond(c, "", nil)
}

func (h *Handler) Spend(c *gin.Context) {
	var req validation.SpendInput
	if !h.bind(c, &req) {
		return
	}
	res, err := h.Service.Spend(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respond(c, "", res)
}

func (h *Handler) Adjust(c *gin.Context) {
	var req validation.AdjustInput
	if !h.bind(c, &req) {
		return
	}
	res, err := h.Service.Adjust(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respond(c, "", res)
}

func (h *Handler) AdminStats(c *gin.Context) {
	days, _ := strconv.Atoi(c.Query("days"))
	stats, err := h.Service.AdminStats(c.Request.Context(), days)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) Users(c *gin.Context) {
	visible, _ := strconv.Atoi(c.Query("visible"))
	v, err := h.Service.Users(c.Query("q"), visible)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) Dispatch(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	cmd, known := service.ParseCommand(c.Param("command"))
	if !known {
		h.writeError(c, validation.ValidationErrors{{Field: "command", Message: "Commande inconnue"}})
		return
	}
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))

	res, err := h.Service.Dispatch(c.Request.Context(), cmd, id, confirmed)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respond(c, "", res)
}

func (h *Handler) Export(c *gin.Context) {
	domain, ok := export.ParseDomain(c.Param("domain"))
	if !ok {
		h.writeError(c, validation.ValidationErrors{{Field: "domain", Message: "Export inconnu"}})
		return
	}
	file, err := h.Service.Export(c.Request.Context(), domain)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func (h *Handler) respond(c *gin.Context, message string, result any) {
	c.JSON(http.StatusOK, actionResponse{Message: message, Result: result, View: h.Service.View()})
}

func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid payload", nil)
		return false
	}
	return true
}

func (h *Handler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid id", nil)
		return 0, false
	}
	return id, true
}

// writeError maps service and backend failures to the console's error codes.
func (h *Handler) writeError(c *gin.Context, err error) {
	var (
		verrs     validation.ValidationErrors
		actionErr *service.ActionError
		apiErr    *backend.APIError
		emptyErr  *export.EmptyError
	)
	switch {
	case errors.As(err, &verrs):
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", verrs.First(), verrs)
	case errors.Is(err, service.ErrNotAuthenticated):
		writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Non authentifié", nil)
	case backend.IsUnauthorized(err):
		writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", messageOf(err), nil)
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrProtectedUser):
		writeError(c, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case errors.Is(err, service.ErrConfirmationRequired):
		writeError(c, http.StatusPreconditionRequired, "CONFIRMATION_REQUIRED", "confirmation required", nil)
	case errors.Is(err, guard.ErrInFlight):
		writeError(c, http.StatusConflict, "DUPLICATE_SUBMISSION", err.Error(), nil)
	case errors.As(err, &emptyErr):
		writeError(c, http.StatusNotFound, "NOTHING_TO_EXPORT", emptyErr.Error(), nil)
	case errors.Is(err, session.ErrNoSuperadminToken),
		errors.Is(err, service.ErrUnknownUser),
		errors.Is(err, service.ErrUnknownCommand):
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	case errors.Is(err, backend.ErrTransport):
		writeError(c, http.StatusBadGateway, "BACKEND_UNAVAILABLE", messageOf(err), nil)
	case errors.As(err, &apiErr):
		writeError(c, http.StatusUnprocessableEntity, "BACKEND_REJECTED", messageOf(err), nil)
	case errors.As(err, &actionErr):
		h.Logger.Error("action failed", "path", c.FullPath(), "error", err)
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", actionErr.Message, nil)
	default:
		h.Logger.Error("request failed", "path", c.FullPath(), "error", err)
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error", nil)
	}
}

// messageOf prefers the operator-facing message of an ActionError.
func messageOf(err error) string {
	var actionErr *service.ActionError
	if errors.As(err, &actionErr) {
		return actionErr.Message
	}
	return err.Error()
}

func writeError(c *gin.Context, status int, code, message string, fields []validation.FieldError) {
	c.JSON(status, errorResponse{Code: code, Message: message, Fields: fields})
}
