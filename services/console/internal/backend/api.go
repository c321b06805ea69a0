package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Login posts the form-encoded credentials. It never sends a bearer header.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var out LoginResult
	if err := c.postForm(ctx, "auth.login", "/auth/login", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	var out RegisterResult
	if err := c.doJSON(ctx, "auth.register", http.MethodPost, "/auth/register", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StartPhoneVerification(ctx context.Context, phone string) (*Message, error) {
	var out Message
	body := map[string]string{"phone": phone}
	if err := c.doJSON(ctx, "auth.phone_start", http.MethodPost, "/auth/phone/start", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyRegister(ctx context.Context, req OTPRegisterRequest) (*LoginResult, error) {
	var out LoginResult
	if err := c.doJSON(ctx, "auth.phone_verify_register", http.MethodPost, "/auth/phone/verify_register", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (*Message, error) {
	var out Message
	body := map[string]string{"email": email}
	if err := c.doJSON(ctx, "auth.password_forgot", http.MethodPost, "/auth/password/forgot", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) (*Message, error) {
	var out Message
	if err := c.doJSON(ctx, "auth.password_reset", http.MethodPost, "/auth/password/reset", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var out Profile
	if err := c.getJSON(ctx, "auth.me", "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateMe(ctx context.Context, req ProfileUpdate) error {
	return c.doJSON(ctx, "auth.me_update", http.MethodPut, "/auth/me", nil, req, nil)
}

func (c *Client) FX(ctx context.Context) (*FXRates, error) {
	var out FXRates
	if err := c.getJSON(ctx, "admin.fx", "/admin/fx", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Transactions(ctx context.Context) ([]Transaction, error) {
	return getList[Transaction](ctx, c, "wallet.transactions", "/wallet/transactions", nil)
}

func (c *Client) Transfer(ctx context.Context, req TransferRequest) error {
	return c.doJSON(ctx, "wallet.transfer", http.MethodPost, "/wallet/transfer", nil, req, nil)
}

func (c *Client) Convert(ctx context.Context, req ConvertRequest) (*ConvertResult, error) {
	var out ConvertResult
	if err := c.doJSON(ctx, "wallet.convert", http.MethodPost, "/wallet/convert", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTopup(ctx context.Context, req TopupCreate) (*TopupRequest, error) {
	var out TopupRequest
	if err := c.doJSON(ctx, "topups.request", http.MethodPost, "/topups/request", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyTopups(ctx context.Context) ([]TopupRequest, error) {
	return getList[TopupRequest](ctx, c, "topups.mine", "/topups/mine", nil)
}

func (c *Client) PendingTopups(ctx context.Context) ([]TopupRequest, error) {
	return getList[TopupRequest](ctx, c, "topups.pending", "/topups/pending", nil)
}

func (c *Client) DecideTopup(ctx context.Context, id int64, req TopupDecision) (*TopupRequest, error) {
	var out TopupRequest
	path := "/topups/" + strconv.FormatInt(id, 10) + "/decide"
	if err := c.doJSON(ctx, "topups.decide", http.MethodPost, path, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Partners(ctx context.Context) ([]Partner, error) {
	return getList[Partner](ctx, c, "partners.list", "/partners", nil)
}

func (c *Client) PartnersAdmin(ctx context.Context) ([]Partner, error) {
	return getList[Partner](ctx, c, "partners.admin", "/partners/admin", nil)
}

func (c *Client) CreatePartner(ctx context.Context, req PartnerCreate) (*Partner, error) {
	var out Partner
	if err := c.doJSON(ctx, "partners.create", http.MethodPost, "/partners", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetPartnerActive(ctx context.Context, id int64, active bool) (*Partner, error) {
	var out Partner
	path := "/partners/" + strconv.FormatInt(id, 10) + "/active"
	query := url.Values{"active": {strconv.FormatBool(active)}}
	if err := c.doJSON(ctx, "partners.set_active", http.MethodPost, path, query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SpendAtPartner(ctx context.Context, req SpendRequest) (*SpendResult, error) {
	var out SpendResult
	if err := c.doJSON(ctx, "partners.spend", http.MethodPost, "/partners/spend", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdjustWallet(ctx context.Context, req AdjustRequest) (*AdjustResult, error) {
	var out AdjustResult
	if err := c.doJSON(ctx, "admin.wallet_adjust", http.MethodPost, "/admin/wallet/adjust", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminStats(ctx context.Context, days int) (*AdminStats, error) {
	var out AdminStats
	query := url.Values{"days": {strconv.Itoa(days)}}
	if err := c.getJSON(ctx, "admin.stats", "/admin/stats", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SuperadminUsers(ctx context.Context) ([]User, error) {
	return getList[User](ctx, c, "superadmin.users", "/superadmin/users", nil)
}

func (c *Client) SetUserRole(ctx context.Context, id int64, role Role) error {
	body := map[string]Role{"role": role}
	return c.doJSON(ctx, "superadmin.role", http.MethodPost, userPath(id, "/role"), nil, body, nil)
}

// SetUserStatus sends the status as a query parameter, as the backend expects.
func (c *Client) SetUserStatus(ctx context.Context, id int64, status string) error {
	query := url.Values{"status": {status}}
	return c.doJSON(ctx, "superadmin.status", http.MethodPost, userPath(id, "/status"), query, nil, nil)
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.doJSON(ctx, "superadmin.delete", http.MethodDelete, userPath(id, ""), nil, nil, nil)
}

func (c *Client) Impersonate(ctx context.Context, id int64) (*ImpersonateResult, error) {
	var out ImpersonateResult
	if err := c.doJSON(ctx, "superadmin.impersonate", http.MethodPost, userPath(id, "/impersonate"), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func userPath(id int64, suffix string) string {
	return "/superadmin/users/" + strconv.FormatInt(id, 10) + suffix
}
