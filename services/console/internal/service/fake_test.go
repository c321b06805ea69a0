package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/haitiwallet/console/libs/kafka"
	"github.com/haitiwallet/console/libs/logging"
	"github.com/haitiwallet/console/services/console/internal/backend"
	"github.com/haitiwallet/console/services/console/internal/guard"
	"github.com/haitiwallet/console/services/console/internal/session"
	"github.com/haitiwallet/console/services/console/internal/state"
	"github.com/haitiwallet/console/services/console/internal/storage"
	"github.com/shopspring/decimal"
)

var errUnauthorized = &backend.APIError{Op: "test", Status: http.StatusUnauthorized, Detail: "Not authenticated"}

// fakeAPI answers as the identity bound to the caller's current token.
type fakeAPI struct {
	mu       sync.Mutex
	tokens   backend.TokenSource
	profiles map[string]backend.Profile
	logins   map[string]backend.LoginResult

	fxErr    error
	txs      []backend.Transaction
	txErr    error
	topups   []backend.TopupRequest
	pending  []backend.TopupRequest
	partners []backend.Partner
	users    []backend.User

	transferErr error
	adjust      *backend.AdjustResult
	impersonate string

	calls map[string]int
	roles map[int64]backend.Role
	stats map[int64]string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		profiles: map[string]backend.Profile{},
		logins:   map[string]backend.LoginResult{},
		calls:    map[string]int{},
		roles:    map[int64]backend.Role{},
		stats:    map[int64]string{},
	}
}

func (f *fakeAPI) hit(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) current() (backend.Profile, error) {
	p, ok := f.profiles[f.tokens.Token()]
	if !ok {
		return backend.Profile{}, errUnauthorized
	}
	return p, nil
}

func (f *fakeAPI) Login(_ context.Context, email, _ string) (*backend.LoginResult, error) {
	f.hit("login")
	res, ok := f.logins[email]
	if !ok {
		return nil, &backend.APIError{Op: "login", Status: http.StatusUnauthorized, Detail: "Identifiants invalides"}
	}
	return &res, nil
}

func (f *fakeAPI) Register(_ context.Context, req backend.RegisterRequest) (*backend.RegisterResult, error) {
	f.hit("register")
	return &backend.RegisterResult{OK: true, Email: req.Email, Role: backend.RoleUser}, nil
}

func (f *fakeAPI) StartPhoneVerification(context.Context, string) (*backend.Message, error) {
	f.hit("otp_start")
	return &backend.Message{OK: true}, nil
}

func (f *fakeAPI) VerifyRegister(context.Context, backend.OTPRegisterRequest) (*backend.LoginResult, error) {
	f.hit("otp_register")
	return &backend.LoginResult{AccessToken: "otp-token"}, nil
}

func (f *fakeAPI) ForgotPassword(context.Context, string) (*backend.Message, error) {
	f.hit("forgot")
	return &backend.Message{OK: true}, nil
}

func (f *fakeAPI) ResetPassword(context.Context, backend.ResetPasswordRequest) (*backend.Message, error) {
	f.hit("reset")
	return &backend.Message{OK: true}, nil
}

func (f *fakeAPI) Me(context.Context) (*backend.Profile, error) {
	f.hit("me")
	p, err := f.current()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (f *fakeAPI) UpdateMe(context.Context, backend.ProfileUpdate) error {
	f.hit("update_me")
	_, err := f.current()
	return err
}

func (f *fakeAPI) FX(context.Context) (*backend.FXRates, error) {
	f.hit("fx")
	if f.fxErr != nil {
		return nil, f.fxErr
	}
	return &backend.FXRates{SellUSD: decimal.NewFromInt(135), BuyUSD: decimal.NewFromInt(127)}, nil
}

func (f *fakeAPI) Transactions(context.Context) ([]backend.Transaction, error) {
	f.hit("transactions")
	if f.txErr != nil {
		return nil, f.txErr
	}
	return f.txs, nil
}

func (f *fakeAPI) Transfer(context.Context, backend.TransferRequest) error {
	f.hit("transfer")
	if f.transferErr != nil {
		return f.transferErr
	}
	_, err := f.current()
	return err
}

func (f *fakeAPI) Convert(_ context.Context, req backend.ConvertRequest) (*backend.ConvertResult, error) {
	f.hit("convert")
	return &backend.ConvertResult{AmountIn: req.Amount, Direction: req.Direction}, nil
}

func (f *fakeAPI) CreateTopup(_ context.Context, req backend.TopupCreate) (*backend.TopupRequest, error) {
	f.hit("create_topup")
	return &backend.TopupRequest{ID: 77, Status: backend.TopupPending, Amount: req.Amount, Method: req.Method}, nil
}

func (f *fakeAPI) MyTopups(context.Context) ([]backend.TopupRequest, error) {
	f.hit("my_topups")
	return f.topups, nil
}

func (f *fakeAPI) PendingTopups(context.Context) ([]backend.TopupRequest, error) {
	f.hit("pending_topups")
	return f.pending, nil
}

func (f *fakeAPI) DecideTopup(_ context.Context, id int64, req backend.TopupDecision) (*backend.TopupRequest, error) {
	f.hit("decide_topup")
	return &backend.TopupRequest{ID: id, Status: req.Status}, nil
}

func (f *fakeAPI) Partners(context.Context) ([]backend.Partner, error) {
	f.hit("partners")
	return f.partners, nil
}

func (f *fakeAPI) PartnersAdmin(context.Context) ([]backend.Partner, error) {
	f.hit("partners_admin")
	return f.partners, nil
}

func (f *fakeAPI) CreatePartner(_ context.Context, req backend.PartnerCreate) (*backend.Partner, error) {
	f.hit("create_partner")
	return &backend.Partner{ID: 9, Name: req.Name, URL: req.URL, Active: req.Active}, nil
}

func (f *fakeAPI) SetPartnerActive(_ context.Context, id int64, active bool) (*backend.Partner, error) {
	f.hit("partner_active")
	return &backend.Partner{ID: id, Active: active}, nil
}

func (f *fakeAPI) SpendAtPartner(_ context.Context, req backend.SpendRequest) (*backend.SpendResult, error) {
	f.hit("spend")
	return &backend.SpendResult{OK: true, PartnerID: req.PartnerID, Amount: req.Amount}, nil
}

func (f *fakeAPI) AdjustWallet(context.Context, backend.AdjustRequest) (*backend.AdjustResult, error) {
	f.hit("adjust")
	if f.adjust == nil {
		return nil, errors.New("no adjust result")
	}
	return f.adjust, nil
}

func (f *fakeAPI) AdminStats(_ context.Context, days int) (*backend.AdminStats, error) {
	f.hit("admin_stats")
	return &backend.AdminStats{PeriodDays: days}, nil
}

func (f *fakeAPI) SuperadminUsers(context.Context) ([]backend.User, error) {
	f.hit("users")
	return f.users, nil
}

func (f *fakeAPI) SetUserRole(_ context.Context, id int64, role backend.Role) error {
	f.hit("set_role")
	f.roles[id] = role
	return nil
}

func (f *fakeAPI) SetUserStatus(_ context.Context, id int64, status string) error {
	f.hit("set_status")
	f.stats[id] = status
	return nil
}

func (f *fakeAPI) DeleteUser(context.Context, int64) error {
	f.hit("delete_user")
	return nil
}

func (f *fakeAPI) Impersonate(context.Context, int64) (*backend.ImpersonateResult, error) {
	f.hit("impersonate")
	return &backend.ImpersonateResult{AccessToken: f.impersonate}, nil
}

// recordingPublisher keeps every audit event instead of sending it.
type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []kafka.AuditEvent
}

func (p *recordingPublisher) PublishJSON(_ context.Context, _, key string, value any) (int32, int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	if evt, ok := value.(kafka.AuditEvent); ok {
		p.events = append(p.events, evt)
	}
	return 0, int64(len(p.keys)), nil
}

func (p *recordingPublisher) Close() error { return nil }

type harness struct {
	api     *fakeAPI
	store   *storage.MemoryStore
	session *session.Session
	console *Console
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := newFakeAPI()
	mem := storage.NewMemory()
	sess := session.New(mem, logging.Discard())
	api.tokens = sess

	c := New(api, sess, state.NewStore(state.DefaultFX()), nil, guard.New(0), nil, logging.Discard(), nil,
		Options{PublicURL: "http://console.test"})
	return &harness{api: api, store: mem, session: sess, console: c}
}

// signIn stores token as if a previous run had logged in.
func (h *harness) signIn(t *testing.T, token string, p backend.Profile) {
	t.Helper()
	h.api.profiles[token] = p
	if err := h.store.Save(context.Background(), session.KeyToken, token, 0); err != nil {
		t.Fatalf("save token: %v", err)
	}
	if _, err := h.console.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
}

func profile(email string, role backend.Role) backend.Profile {
	return backend.Profile{Email: email, Role: role}
}
