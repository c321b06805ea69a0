package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/haitiwallet/console/libs/httpmiddleware"
	"github.com/haitiwallet/console/libs/kafka"
	"github.com/haitiwallet/console/services/console/internal/backend"
	"github.com/haitiwallet/console/services/console/internal/guard"
	"github.com/haitiwallet/console/services/console/internal/session"
	"github.com/haitiwallet/console/services/console/internal/state"
	"github.com/haitiwallet/console/services/console/internal/tabs"
	"github.com/haitiwallet/console/services/console/internal/views"
)

// Backend is the subset of the wallet API the console drives.
type Backend interface {
	Login(ctx context.Context, email, password string) (*backend.LoginResult, error)
	Register(ctx context.Context, req backend.RegisterRequest) (*backend.RegisterResult, error)
	StartPhoneVerification(ctx context.Context, phone string) (*backend.Message, error)
	VerifyRegister(ctx context.Context, req backend.OTPRegisterRequest) (*backend.LoginResult, error)
	ForgotPassword(ctx context.Context, email string) (*backend.Message, error)
	ResetPassword(ctx context.Context, req backend.ResetPasswordRequest) (*backend.Message, error)
	Me(ctx context.Context) (*backend.Profile, error)
	UpdateMe(ctx context.Context, req backend.ProfileUpdate) error
	FX(ctx context.Context) (*backend.FXRates, error)
	Transactions(ctx context.Context) ([]backend.Transaction, error)
	Transfer(ctx context.Context, req backend.TransferRequest) error
	Convert(ctx context.Context, req backend.ConvertRequest) (*backend.ConvertResult, error)
	CreateTopup(ctx context.Context, req backend.TopupCreate) (*backend.TopupRequest, error)
	MyTopups(ctx context.Context) ([]backend.TopupRequest, error)
	PendingTopups(ctx context.Context) ([]backend.TopupRequest, error)
	DecideTopup(ctx context.Context, id int64, req backend.TopupDecision) (*backend.TopupRequest, error)
	Partners(ctx context.Context) ([]backend.Partner, error)
	PartnersAdmin(ctx context.Context) ([]backend.Partner, error)
	CreatePartner(ctx context.Context, req backend.PartnerCreate) (*backend.Partner, error)
	SetPartnerActive(ctx context.Context, id int64, active bool) (*backend.Partner, error)
	SpendAtPartner(ctx context.Context, req backend.SpendRequest) (*backend.SpendResult, error)
	AdjustWallet(ctx context.Context, req backend.AdjustRequest) (*backend.AdjustResult, error)
	AdminStats(ctx context.Context, days int) (*backend.AdminStats, error)
	SuperadminUsers(ctx context.Context) ([]backend.User, error)
	SetUserRole(ctx context.Context, id int64, role backend.Role) error
	SetUserStatus(ctx context.Context, id int64, status string) error
	DeleteUser(ctx context.Context, id int64) error
	Impersonate(ctx context.Context, id int64) (*backend.ImpersonateResult, error)
}

type Options struct {
	PublicURL  string
	AuditTopic string
	StatsDays  int
}

// Console owns the session, the cached state and the active tab of one operator.
type Console struct {
	api      Backend
	session  *session.Session
	store    *state.Store
	tabs     *tabs.Machine
	renderer *views.Renderer
	guard    *guard.Guard
	producer kafka.Publisher
	logger   *slog.Logger
	metrics  *Metrics
	opts     Options
	now      func() time.Time

	cascadeMu sync.Mutex

	usersMu     sync.Mutex
	userQuery   string
	userVisible int
}

func New(api Backend, sess *session.Session, store *state.Store, renderer *views.Renderer, g *guard.Guard, producer kafka.Publisher, logger *slog.Logger, metrics *Metrics, opts Options) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	if renderer == nil {
		renderer = views.NewRenderer(nil, nil, nil, 0)
	}
	if g == nil {
		g = guard.New(0)
	}
	if producer == nil {
		producer = kafka.NopPublisher{}
	}
	if opts.StatsDays <= 0 {
		opts.StatsDays = 30
	}
	return &Console{
		api:      api,
		session:  sess,
		store:    store,
		tabs:     tabs.NewMachine(string(tabs.Dashboard)),
		renderer: renderer,
		guard:    g,
		producer: producer,
		logger:   logger,
		metrics:  metrics,
		opts:     opts,
		now:      time.Now,
	}
}

// Start restores the durable session and, when a token exists, runs the cascade.
func (c *Console) Start(ctx context.Context) (*Report, error) {
	if err := c.session.Restore(ctx); err != nil {
		return nil, err
	}
	return c.Refresh(ctx)
}

func (c *Console) Session() session.Info {
	return c.session.Info()
}

func (c *Console) State() *state.Store {
	return c.store
}

// View renders the current state for the active tab.
func (c *Console) View() views.App {
	in := views.Snapshot(c.store, c.tabs.Active())
	in.Impersonating = c.session.Info().Impersonating

	c.usersMu.Lock()
	in.UserQuery, in.UserVisible = c.userQuery, c.userVisible
	c.usersMu.Unlock()

	return c.renderer.Render(in)
}

func (c *Console) Navigate(raw string) (tabs.Transition, views.App) {
	tr := c.tabs.Navigate(raw)
	return tr, c.View()
}

// Users filters the cached superadmin list. visible grows by one page per "show more".
func (c *Console) Users(query string, visible int) (views.UsersView, error) {
	if err := c.requireRole(backend.Role.IsSuperadmin); err != nil {
		return views.UsersView{}, err
	}
	c.usersMu.Lock()
	c.userQuery, c.userVisible = query, visible
	c.usersMu.Unlock()

	return views.RenderUsers(c.store.Users.Snapshot(), c.store.Users.Err(), query, visible, c.renderer.PageSize), nil
}

func (c *Console) requireLogin() error {
	if !c.session.LoggedIn() {
		return ErrNotAuthenticated
	}
	return nil
}

// requireRole checks the cached role. An empty cache counts as not authenticated.
func (c *Console) requireRole(allowed func(backend.Role) bool) error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	role := c.store.Role()
	if role == "" {
		return ErrNotAuthenticated
	}
	if !allowed(role) {
		return ErrForbidden
	}
	return nil
}

// expire drops the active token and every cache after the backend refused it.
func (c *Console) expire(ctx context.Context) {
	if err := c.session.ClearToken(ctx); err != nil {
		c.logger.Error("clear token failed", "error", err)
	}
	c.store.Reset()
	c.resetUsersFilter()
}

func (c *Console) resetUsersFilter() {
	c.usersMu.Lock()
	c.userQuery, c.userVisible = "", 0
	c.usersMu.Unlock()
}

// fail turns a backend error into an ActionError and expires the session on 401.
func (c *Console) fail(ctx context.Context, action string, err error, fallback string) error {
	if backend.IsUnauthorized(err) {
		c.expire(ctx)
	}
	level := slog.LevelWarn
	if !errors.Is(err, backend.ErrTransport) {
		var apiErr *backend.APIError
		if !errors.As(err, &apiErr) {
			level = slog.LevelError
		}
	}
	c.logger.Log(ctx, level, "action failed", "action", action, "request_id", httpmiddleware.RequestIDFromContext(ctx), "error", err)
	return &ActionError{Action: action, Message: backend.DetailOr(err, fallback), Err: err}
}

func (c *Console) actor() string {
	if p, ok := c.store.Profile(); ok && p.Email != "" {
		return p.Email
	}
	return c.session.Info().Subject
}

func (c *Console) audit(ctx context.Context, action, target, outcome string, detail map[string]string) {
	requestID := httpmiddleware.RequestIDFromContext(ctx)
	eventID := uuid.NewString()
	if requestID != "" {
		eventID = kafka.DeterministicEventID(action, target, outcome, requestID)
	}
	evt, err := kafka.NewAuditEventWithID(eventID, action, c.actor(), target, outcome, requestID)
	if err != nil {
		c.logger.Error("audit event invalid", "action", action, "error", err)
		return
	}
	evt.Detail = detail
	if _, _, err := c.producer.PublishJSON(ctx, c.opts.AuditTopic, evt.EventID, evt); err != nil {
		if c.metrics != nil {
			c.metrics.AuditPublishErr.Inc()
		}
		c.logger.Warn("audit publish failed", "action", action, "error", err)
	}
}
