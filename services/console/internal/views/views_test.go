package views

import (
	"testing"
	"time"

	"github.com/haitiwallet/console/services/console/internal/backend"
	"github.com/haitiwallet/console/services/console/internal/fees"
	"github.com/haitiwallet/console/services/console/internal/tabs"
	"github.com/shopspring/decimal"
)

func at(s string) backend.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return backend.NewTime(t)
}

func TestPartnersPublicShowsActiveOnly(t *testing.T) {
	items := []backend.Partner{
		{ID: 1, Name: "A", Active: true},
		{ID: 2, Name: "B", Active: false},
		{ID: 3, Name: "C", Active: true},
	}

	public := RenderPartners(items, "")
	if len(public.Rows) != 2 {
		t.Fatalf("expected 2 public rows, got %d", len(public.Rows))
	}
	if public.Rows[0].ID != 1 || public.Rows[1].ID != 3 {
		t.Fatalf("unexpected public rows: %+v", public.Rows)
	}

	admin := RenderPartnersAdmin(items, "")
	if len(admin.Rows) != 3 {
		t.Fatalf("expected 3 admin rows, got %d", len(admin.Rows))
	}
	if admin.Rows[1].Toggle == nil || admin.Rows[1].Toggle.Command != "partner_on" {
		t.Fatalf("inactive partner should offer activation: %+v", admin.Rows[1].Toggle)
	}
	if admin.Rows[0].Toggle.Label != "Désactiver" {
		t.Fatalf("active partner label = %q", admin.Rows[0].Toggle.Label)
	}
}

func TestPartnersEmptyTexts(t *testing.T) {
	if v := RenderPartners(nil, ""); v.Empty != "Aucun partenaire" {
		t.Fatalf("empty = %q", v.Empty)
	}
	if v := RenderPartners([]backend.Partner{{ID: 1}}, ""); v.Empty != "Aucun partenaire actif" {
		t.Fatalf("empty = %q", v.Empty)
	}
	if v := RenderPartners(nil, "Erreur chargement partenaires"); v.Error == "" || len(v.Rows) != 0 {
		t.Fatalf("expected inline error, got %+v", v)
	}
}

func TestSplitTopupsDecidedOrdering(t *testing.T) {
	items := []backend.TopupRequest{
		{ID: 1, Status: "APPROVED", DecidedAt: at("2024-01-02T00:00:00Z")},
		{ID: 2, Status: "PENDING", CreatedAt: at("2024-01-05T00:00:00Z")},
		{ID: 3, Status: "REJECTED", CreatedAt: at("2024-01-03T00:00:00Z")},
		{ID: 4, Status: "APPROVED"},
		{ID: 5, Status: "REJECTED", DecidedAt: at("2024-01-04T00:00:00Z")},
	}

	pending, decided := SplitTopups(items)
	if len(pending) != 1 || pending[0].ID != 2 {
		t.Fatalf("unexpected pending: %+v", pending)
	}
	want := []int64{5, 3, 1, 4}
	for i, id := range want {
		if decided[i].ID != id {
			t.Fatalf("decided[%d] = %d, want %d", i, decided[i].ID, id)
		}
	}
}

func TestMyTopupsCapped(t *testing.T) {
	items := make([]backend.TopupRequest, 0, 60)
	for i := 0; i < 60; i++ {
		items = append(items, backend.TopupRequest{ID: int64(i), Status: "PENDING"})
	}
	v := RenderMyTopups(items, "")
	if len(v.Pending) != MyTopupsCap {
		t.Fatalf("expected %d rows, got %d", MyTopupsCap, len(v.Pending))
	}
	if v.DecidedEmpty == "" {
		t.Fatalf("expected decided empty text")
	}
}

func TestHistoryCapped(t *testing.T) {
	txs := make([]backend.Transaction, 0, 75)
	for i := 0; i < 75; i++ {
		txs = append(txs, backend.Transaction{ID: int64(i), Amount: decimal.NewFromInt(1)})
	}
	v := RenderHistory(txs, "")
	if len(v.Rows) != HistoryCap {
		t.Fatalf("expected %d rows, got %d", HistoryCap, len(v.Rows))
	}
	if v.Total != 75 || v.Hint != "75 transaction(s) chargée(s)" {
		t.Fatalf("unexpected total/hint: %d %q", v.Total, v.Hint)
	}
}

func TestAdminPendingUsesBackendFee(t *testing.T) {
	items := []backend.TopupRequest{
		{ID: 1, Status: "PENDING", Currency: "usd", Amount: decimal.NewFromInt(10),
			FeeAmount: decimal.NewNullDecimal(decimal.NewFromInt(2))},
		{ID: 2, Status: "PENDING", Currency: "usd", Amount: decimal.NewFromInt(60)},
	}
	v := RenderAdminPending(items, "", fees.Default())
	if v.Rows[0].Fee != "2.00" || v.Rows[0].FeeEstimated {
		t.Fatalf("row 0 should use backend fee: %+v", v.Rows[0])
	}
	if v.Rows[1].Fee != "5.00" || !v.Rows[1].FeeEstimated || v.Rows[1].Net != "55.00" {
		t.Fatalf("row 1 should be estimated: %+v", v.Rows[1])
	}
	usd := v.Stats.Fees["USD"]
	if !usd.Total.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("usd total = %s", usd.Total)
	}
}

func TestBalancesEquivalent(t *testing.T) {
	p := backend.Profile{
		Email: "a@b.ht", Role: backend.RoleUser,
		Wallet: backend.Amounts{HTG: decimal.NewFromInt(1340), USD: decimal.NewFromInt(5)},
	}
	fx := backend.FXRates{SellUSD: decimal.NewFromInt(134), BuyUSD: decimal.NewFromInt(126)}

	b := RenderBalances(p, fx)
	if b.USDEquivalent != "≈ 10.00" {
		t.Fatalf("equivalent = %q", b.USDEquivalent)
	}
	if b.Who != "a@b.ht (user)" || b.RefCode != "—" {
		t.Fatalf("unexpected identity: %+v", b)
	}
	if RenderBalances(p, backend.FXRates{}).USDEquivalent != "≈ 0.00" {
		t.Fatalf("zero rate should not divide")
	}
}

func TestUsersProtectedSuperadmin(t *testing.T) {
	users := []backend.User{
		{ID: 1, Email: "root@hw.ht", Role: backend.RoleSuperadmin, Status: "active"},
		{ID: 2, Email: "ops@hw.ht", Role: backend.RoleAdmin, Status: "active"},
		{ID: 3, Email: "jean@gmail.com", Role: backend.RoleUser, Status: "suspended"},
	}
	v := RenderUsers(users, "", "", 0, 5)
	if !v.Rows[0].Protected || len(v.Rows[0].Actions) != 0 {
		t.Fatalf("superadmin row must be protected: %+v", v.Rows[0])
	}
	if v.Rows[1].Actions[0].Label != "Retirer admin" {
		t.Fatalf("admin toggle label = %q", v.Rows[1].Actions[0].Label)
	}
	if v.Rows[2].Actions[1].Label != "Ouvrir" {
		t.Fatalf("suspend label = %q", v.Rows[2].Actions[1].Label)
	}
	for _, a := range v.Rows[2].Actions {
		if (a.Command == "ban" || a.Command == "delete") != a.Confirm {
			t.Fatalf("confirm flag wrong on %s", a.Command)
		}
	}
}

func TestUsersSearchAndShowMore(t *testing.T) {
	var users []backend.User
	for i := 0; i < 12; i++ {
		users = append(users, backend.User{ID: int64(i), Email: "user" + id(int64(i)) + "@HW.ht", Role: backend.RoleUser})
	}
	users = append(users, backend.User{ID: 99, Email: "other@x.com", Role: backend.RoleUser})

	v := RenderUsers(users, "", "hw.HT", 0, 5)
	if v.Matched != 12 || len(v.Rows) != 5 || !v.HasMore {
		t.Fatalf("unexpected page: matched=%d rows=%d more=%v", v.Matched, len(v.Rows), v.HasMore)
	}
	if v.Rows[4].Index != 5 {
		t.Fatalf("index = %d", v.Rows[4].Index)
	}

	v = RenderUsers(users, "", "hw.ht", 15, 5)
	if len(v.Rows) != 12 || v.HasMore {
		t.Fatalf("expected all rows, got %d more=%v", len(v.Rows), v.HasMore)
	}
}

func TestPaymentInstructionsFallback(t *testing.T) {
	d := DefaultPayments()
	if d.Instructions("NatCash").Label != "NatCash" {
		t.Fatalf("natcash not resolved")
	}
	if d.Instructions("paypal").To != "438 454 8899" {
		t.Fatalf("unknown method should fall back to interac")
	}
}

func TestRegistryCapabilities(t *testing.T) {
	r := DefaultRegistry()
	if r.For(backend.RoleUser).Has(AdminTab) {
		t.Fatalf("user must not see admin")
	}
	if !r.For(backend.RoleAdmin).Has(AdminPending) || r.For(backend.RoleAdmin).Has(SuperadminUsers) {
		t.Fatalf("admin capabilities wrong")
	}
	if !r.For(backend.RoleSuperadmin).Has(SuperadminUsers) {
		t.Fatalf("superadmin must manage users")
	}
	if len(r.For("").List()) != 0 {
		t.Fatalf("empty role must have no capabilities")
	}
}

func TestRenderRoleGating(t *testing.T) {
	r := NewRenderer(nil, nil, nil, 0)
	in := Input{
		Active:     tabs.Admin,
		HasProfile: true,
		Profile:    backend.Profile{Email: "u@hw.ht", Role: backend.RoleUser},
		FX:         backend.FXRates{SellUSD: decimal.NewFromInt(134), BuyUSD: decimal.NewFromInt(126)},
	}

	app := r.Render(in)
	for _, b := range app.Layout.Buttons {
		if b.Tab == tabs.Admin && !b.Hidden {
			t.Fatalf("admin button visible for user")
		}
	}
	if app.Panel != nil {
		t.Fatalf("user must not get an admin panel, got %#v", app.Panel)
	}

	in.Profile.Role = backend.RoleAdmin
	app = r.Render(in)
	panel, ok := app.Panel.(*AdminPanel)
	if !ok {
		t.Fatalf("expected admin panel, got %T", app.Panel)
	}
	if panel.Pending == nil || panel.Partners == nil || panel.Users != nil {
		t.Fatalf("admin sections wrong: %+v", panel)
	}

	in.Profile.Role = backend.RoleSuperadmin
	panel = r.Render(in).Panel.(*AdminPanel)
	if panel.Users == nil {
		t.Fatalf("superadmin should see users")
	}
}

func TestRenderLoggedOut(t *testing.T) {
	app := NewRenderer(nil, nil, nil, 0).Render(Input{Active: tabs.History})
	if app.LoggedIn || app.Panel != nil || app.Layout.Active != tabs.Dashboard {
		t.Fatalf("unexpected logged-out app: %+v", app)
	}
}
