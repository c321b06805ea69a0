package views

import (
	"github.com/haitiwallet/console/services/console/internal/backend"
	"github.com/haitiwallet/console/services/console/internal/fees"
	"github.com/haitiwallet/console/services/console/internal/state"
	"github.com/haitiwallet/console/services/console/internal/tabs"
)

// Input is a point-in-time copy of everything a render needs.
type Input struct {
	Active        tabs.Tab
	Impersonating bool

	Profile    backend.Profile
	HasProfile bool
	FX         backend.FXRates
	FXLive     bool

	Transactions     []backend.Transaction
	TransactionsErr  string
	MyTopups         []backend.TopupRequest
	MyTopupsErr      string
	Pending          []backend.TopupRequest
	PendingErr       string
	Partners         []backend.Partner
	PartnersErr      string
	PartnersAdmin    []backend.Partner
	PartnersAdminErr string
	Users            []backend.User
	UsersErr         string

	UserQuery   string
	UserVisible int
}

// Snapshot copies the store's current contents into an Input.
func Snapshot(s *state.Store, active tabs.Tab) Input {
	profile, ok := s.Profile()
	fx, live := s.FX()
	return Input{
		Active:           active,
		Profile:          profile,
		HasProfile:       ok,
		FX:               fx,
		FXLive:           live,
		Transactions:     s.WalletTx.Snapshot(),
		TransactionsErr:  s.WalletTx.Err(),
		MyTopups:         s.MyTopups.Snapshot(),
		MyTopupsErr:      s.MyTopups.Err(),
		Pending:          s.AdminPending.Snapshot(),
		PendingErr:       s.AdminPending.Err(),
		Partners:         s.Partners.Snapshot(),
		PartnersErr:      s.Partners.Err(),
		PartnersAdmin:    s.PartnersAdmin.Snapshot(),
		PartnersAdminErr: s.PartnersAdmin.Err(),
		Users:            s.Users.Snapshot(),
		UsersErr:         s.Users.Err(),
	}
}

type DashboardPanel struct {
	Balances     Balances      `json:"balances"`
	FeeExplainer *FeeExplainer `json:"fee_explainer,omitempty"`
}

type TopupPanel struct {
	Methods      PaymentDirectory `json:"methods"`
	Mine         MyTopupsView     `json:"mine"`
	FeeExplainer *FeeExplainer    `json:"fee_explainer,omitempty"`
}

type TransferPanel struct {
	Rates backend.FXRates `json:"rates"`
	Live  bool            `json:"live"`
}

type PartnersPanel struct {
	Directory PartnersView `json:"directory"`
	Spend     bool         `json:"spend"`
}

// AdminPanel sections are nil when the role lacks the capability.
type AdminPanel struct {
	Pending  *AdminPendingView `json:"pending,omitempty"`
	Partners *PartnersView     `json:"partners,omitempty"`
	Users    *UsersView        `json:"users,omitempty"`
	Adjust   bool              `json:"adjust"`
	Stats    bool              `json:"stats"`
}

type App struct {
	LoggedIn      bool         `json:"logged_in"`
	Impersonating bool         `json:"impersonating"`
	Layout        tabs.Layout  `json:"layout"`
	Capabilities  []Capability `json:"capabilities"`
	Balances      *Balances    `json:"balances,omitempty"`
	Panel         any          `json:"panel,omitempty"`
}

type Renderer struct {
	Registry *Registry
	Schedule *fees.Schedule
	Payments PaymentDirectory
	PageSize int
}

func NewRenderer(registry *Registry, schedule *fees.Schedule, payments PaymentDirectory, pageSize int) *Renderer {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if schedule == nil {
		schedule = fees.Default()
	}
	if payments == nil {
		payments = DefaultPayments()
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Renderer{Registry: registry, Schedule: schedule, Payments: payments, PageSize: pageSize}
}

func (r *Renderer) Render(in Input) App {
	if !in.HasProfile {
		return App{
			Layout:       tabs.LayoutFor(tabs.Dashboard, false),
			Capabilities: []Capability{},
		}
	}

	caps := r.Registry.For(in.Profile.Role)
	balances := RenderBalances(in.Profile, in.FX)
	app := App{
		LoggedIn:      true,
		Impersonating: in.Impersonating,
		Layout:        tabs.LayoutFor(in.Active, caps.Has(AdminTab)),
		Capabilities:  caps.List(),
		Balances:      &balances,
	}
	app.Panel = r.panel(in, caps, balances)
	return app
}

func (r *Renderer) panel(in Input, caps Capabilities, balances Balances) any {
	var explainer *FeeExplainer
	if caps.Has(FeesExplainer) {
		fe := RenderFeeExplainer(r.Schedule)
		explainer = &fe
	}

	switch in.Active {
	case tabs.Topup:
		return TopupPanel{
			Methods:      r.Payments,
			Mine:         RenderMyTopups(in.MyTopups, in.MyTopupsErr),
			FeeExplainer: explainer,
		}
	case tabs.Transfer:
		return TransferPanel{Rates: in.FX, Live: in.FXLive}
	case tabs.History:
		return RenderHistory(in.Transactions, in.TransactionsErr)
	case tabs.Partners:
		return PartnersPanel{
			Directory: RenderPartners(in.Partners, in.PartnersErr),
			Spend:     caps.Has(SpendBox),
		}
	case tabs.Info:
		return RenderInfo(in.Profile)
	case tabs.Admin:
		if p := r.adminPanel(in, caps); p != nil {
			return p
		}
		return nil
	default:
		return DashboardPanel{Balances: balances, FeeExplainer: explainer}
	}
}

func (r *Renderer) adminPanel(in Input, caps Capabilities) *AdminPanel {
	if !caps.Has(AdminTab) {
		return nil
	}
	p := &AdminPanel{Adjust: caps.Has(AdminAdjust), Stats: caps.Has(AdminStats)}
	if caps.Has(AdminPending) {
		v := RenderAdminPending(in.Pending, in.PendingErr, r.Schedule)
		p.Pending = &v
	}
	if caps.Has(PartnersAdmin) {
		v := RenderPartnersAdmin(in.PartnersAdmin, in.PartnersAdminErr)
		p.Partners = &v
	}
	if caps.Has(SuperadminUsers) {
		v := RenderUsers(in.Users, in.UsersErr, in.UserQuery, in.UserVisible, r.PageSize)
		p.Users = &v
	}
	return p
}
