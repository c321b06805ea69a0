package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"log/slog"

	"github.com/haitiwallet/console/libs/httpmiddleware"
	"github.com/haitiwallet/console/services/console/internal/backend"
	"github.com/haitiwallet/console/services/console/internal/export"
	"github.com/haitiwallet/console/services/console/internal/fees"
	"github.com/haitiwallet/console/services/console/internal/guard"
	"github.com/haitiwallet/console/services/console/internal/session"
	"github.com/haitiwallet/console/services/console/internal/tabs"
	"github.com/haitiwallet/console/services/console/internal/validation"
	"github.com/haitiwallet/console/services/console/internal/views"
)

const MsgAccountCreated = "Compte créé. Tu peux te connecter."

// submit runs one guarded mutation, records its metrics and audits its success.
func (c *Console) submit(ctx context.Context, action, target string, run func(context.Context) error) error {
	release, err := c.guard.Acquire(guard.Key(action, target))
	if err != nil {
		c.recordAction(action, "duplicate", 0)
		return err
	}
	defer release()

	start := c.now()
	err = run(ctx)
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.recordAction(action, status, c.now().Sub(start))
	if err == nil {
		c.audit(ctx, action, target, "success", nil)
	}
	return err
}

func (c *Console) recordAction(action, status string, latency time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.Actions.WithLabelValues(action, status).Inc()
	if latency > 0 {
		c.metrics.ActionLatency.WithLabelValues(action).Observe(latency.Seconds())
	}
}

// rejected wraps a failed unauthenticated call. It never touches the session.
func (c *Console) rejected(ctx context.Context, action string, err error, fallback string) error {
	c.logger.Warn("action failed", "action", action, "request_id", httpmiddleware.RequestIDFromContext(ctx), "error", err)
	return &ActionError{Action: action, Message: backend.DetailOr(err, fallback), Err: err}
}

func invalid(errs validation.ValidationErrors) error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (c *Console) Login(ctx context.Context, in validation.LoginInput) (*Report, error) {
	email, password, errs := validation.Login(in)
	if err := invalid(errs); err != nil {
		return nil, err
	}

	var report *Report
	err := c.submit(ctx, "login", email, func(ctx context.Context) error {
		res, err := c.api.Login(ctx, email, password)
		if err != nil {
			return c.rejected(ctx, "login", err, "Login failed")
		}
		if err := c.session.SetToken(ctx, res.AccessToken); err != nil {
			return err
		}
		c.store.Reset()
		c.resetUsersFilter()

		role := backend.Role("")
		if res.User != nil {
			role = res.User.Role
		} else if p, err := c.api.Me(ctx); err == nil {
			role = p.Role
		} else {
			c.logger.Debug("role lookup after login failed", "error", err)
		}
		if role.IsSuperadmin() {
			if err := c.session.PromoteSuperadmin(ctx); err != nil {
				return err
			}
		}

		c.tabs.Navigate(string(tabs.Dashboard))
		report, err = c.Refresh(ctx)
		return err
	})
	return report, err
}

func (c *Console) Logout(ctx context.Context) error {
	c.audit(ctx, "logout", "", "success", nil)
	err := c.session.Logout(ctx)
	c.store.Reset()
	c.resetUsersFilter()
	c.tabs.Navigate(string(tabs.Dashboard))
	return err
}

// RestoreSuperadmin puts the preserved superadmin token back in the active slot.
func (c *Console) RestoreSuperadmin(ctx context.Context) (*Report, error) {
	if err := c.session.RestoreSuperadmin(ctx); err != nil {
		return nil, err
	}
	c.store.Reset()
	c.resetUsersFilter()
	c.tabs.Navigate(string(tabs.Dashboard))
	c.audit(ctx, "restore_superadmin", "", "success", nil)
	return c.Refresh(ctx)
}

// ConsumeHandoff adopts an impersonation token found in rawURL and reloads
// everything under that identity. cleaned is rawURL without the parameter.
func (c *Console) ConsumeHandoff(ctx context.Context, rawURL string) (cleaned string, ok bool, err error) {
	token, cleaned, ok := session.ConsumeHandoff(rawURL)
	if !ok {
		return rawURL, false, nil
	}
	if err := c.session.SetToken(ctx, token); err != nil {
		return cleaned, true, err
	}
	c.store.Reset()
	c.resetUsersFilter()
	c.tabs.Navigate(string(tabs.Dashboard))
	if _, err := c.Refresh(ctx); err != nil {
		return cleaned, true, err
	}
	c.audit(ctx, "handoff", c.session.Info().Subject, "success", nil)
	return cleaned, true, nil
}

func (c *Console) Register(ctx context.Context, in validation.RegisterInput) (*backend.RegisterResult, error) {
	req, errs := validation.Register(in)
	if err := invalid(errs); err != nil {
		return nil, err
	}
	var res *backend.RegisterResult
	err := c.submit(ctx, "register", req.Email, func(ctx context.Context) error {
		out, err := c.api.Register(ctx, req)
		if err != nil {
			return c.rejected(ctx, "register", err, "Erreur inscription")
		}
		res = out
		return nil
	})
	return res, err
}

func (c *Console) StartOTP(ctx context.Context, in validation.OTPStartInput) (*backend.Message, error) {
	phone, errs := validation.OTPStart(in)
	if err := invalid(errs); err != nil {
		return nil, err
	}
	var res *backend.Message
	err := c.submit(ctx, "otp_start", phone, func(ctx context.Context) error {
		out, err := c.api.StartPhoneVerification(ctx, phone)
		if err != nil {
			return c.rejected(ctx, "otp_start", err, "Erreur envoi code")
		}
		res = out
		return nil
	})
	return res, err
}

// RegisterWithOTP creates the account. The returned token is not adopted; the
// user logs in afterwards.
func (c *Console) RegisterWithOTP(ctx context.Context, in validation.OTPRegisterInput) (string, error) {
	req, errs := validation.OTPRegister(in)
	if err := invalid(errs); err != nil {
		return "", err
	}
	err := c.submit(ctx, "otp_register", req.Email, func(ctx context.Context) error {
		if _, err := c.api.VerifyRegister(ctx, req); err != nil {
			return c.rejected(ctx, "otp_register", err, "Erreur d'inscription")
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return MsgAccountCreated, nil
}

func (c *Console) ForgotPassword(ctx context.Context, in validation.ForgotInput) (*backend.Message, error) {
	email, errs := validation.Forgot(in)
	if err := invalid(errs); err != nil {
		return nil, err
	}
	var res *backend.Message
	err := c.submit(ctx, "password_forgot", email, func(ctx context.Context) error {
		out, err := c.api.ForgotPassword(ctx, email)
		if err != nil {
			return c.rejected(ctx, "password_forgot", err, "Erreur")
		}
		res = out
		return nil
	})
	return res, err
}

func (c *Console) ResetPassword(ctx context.Context, in validation.ResetInput) (*backend.Message, error) {
	req, errs := validation.Reset(in)
	if err := invalid(errs); err != nil {
		return nil, err
	}
	var res *backend.Message
	err := c.submit(ctx, "password_reset", req.Email, func(ctx context.Context) error {
		out, err := c.api.ResetPassword(ctx, req)
		if err != nil {
			return c.rejected(ctx, "password_reset", err, "Erreur reset")
		}
		res = out
		return nil
	})
	return res, err
}

func (c *Console) UpdateProfile(ctx context.Context, in validation.ProfileInput) error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	req, errs := validation.Profile(in)
	if err := invalid(errs); err != nil {
		return err
	}
	return c.submit(ctx, "profile_update", c.actor(), func(ctx context.Context) error {
		if err := c.api.UpdateMe(ctx, req); err != nil {
			return c.fail(ctx, "profile_update", err, "Erreur")
		}
		c.refreshAfter(ctx)
		return nil
	})
}

// Transfer sends funds and lands the operator on the history tab.
func (c *Console) Transfer(ctx context.Context, in validation.TransferInput) error {
	if err := c.requireLogin(); err != nil {
		return err
	}
	req, errs := validation.Transfer(in)
	if err := invalid(errs); err != nil {
		return err
	}
	return c.submit(ctx, "transfer", req.ToEmail, func(ctx context.Context) error {
		if err := c.api.Transfer(ctx, req); err != nil {
			return c.fail(ctx, "transfer", err, "Erreur transfert")
		}
		c.refreshAfter(ctx)
		c.tabs.Navigate(string(tabs.History))
		return nil
	})
}

func (c *Console) Convert(ctx context.Context, in validation.ConvertInput) (*backend.ConvertResult, error) {
	if err := c.requireLogin(); err != nil {
		return nil, err
	}
	req, errs := validation.Convert(in)
	if err := invalid(errs); err != nil {
		return nil, err
	}
	var res *backend.ConvertResult
	err := c.submit(ctx, "convert", req.Direction, func(ctx context.Context) error {
		out, err := c.api.Convert(ctx, req)
		if err != nil {
			return c.fail(ctx, "convert", err, "Conversion échouée")
		}
		res = out
		c.refreshAfter(ctx)
		return nil
	})
	return res, err
}

type TopupReceipt struct {
	Request      *backend.TopupRequest `json:"request"`
	Instructions views.PaymentMethod   `json:"instructions"`
}

func (c *Console) CreateTopup(ctx context.Context, in validation.TopupInput) (*TopupReceipt, error) {
	if err := c.requireLogin(); err != nil {
		return nil, err
	}
	req, errs := validation.Topup(in)
	if err := invalid(errs); err != nil {
		return nil, err
	}
	var res *TopupReceipt
	err := c.submit(ctx, "topup_request", req.Reference, func(ctx context.Context) error {
		out, err := c.api.CreateTopup(ctx, req)
		if err != nil {
			return c.fail(ctx, "topup_request", err, "Demande échouée")
		}
		res = &TopupReceipt{Request: out, Instructions: c.renderer.Payments.Instructions(req.Method)}
		c.refreshAfter(ctx)
		return nil
	})
	return res, err
}

func (c *Console) DecideTopup(ctx context.Context, id int64, in validation.DecisionInput) error {
	if err := c.requireRole(backend.Role.IsAdmin); err != nil {
		return err
	}
	req, errs := validation.Decision(in)
	if err := invalid(errs); err != nil {
		return err
	}
	return c.submit(ctx, "topup_decide", strconv.FormatInt(id, 10), func(ctx context.Context) error {
		if _, err := c.api.DecideTopup(ctx, id, req); err != nil {
			return c.fail(ctx, "topup_decide", err, msgGenericActionFailed)
		}
		c.refreshAfter(ctx)
		return nil
	})
}

func (c *Console) CreatePartner(ctx context.Context, in validation.PartnerInput) (*backend.Partner, error) {
	if err := c.requireRole(backend.Role.IsAdmin); err != nil {
		return nil, err
	}
	req, errs := validation.Partner(in)
	if err := invalid(errs); err != nil {
		return nil, err
	}
	var res *backend.Partner
	err := c.submit(ctx, "partner_create", req.URL, func(ctx context.Context) error {
		out, err := c.api.CreatePartner(ctx, req)
		if err != nil {
			return c.fail(ctx, "partner_create", err, "Ajout échoué")
		}
		res = out
		c.refreshAfter(ctx)
		return nil
	})
	return res, err
}

func (c *Console) SetPartnerActive(ctx context.Context, id int64, active bool) error {
	if err := c.requireRole(backend.Role.IsAdmin); err != nil {
		return err
	}
	if id <= 0 {
		return validation.ValidationErrors{{Field: "id", Message: "Partenaire requis."}}
	}
	return c.submit(ctx, "partner_active", strconv.FormatInt(id, 10), func(ctx context.Context) error {
		if _, err := c.api.SetPartnerActive(ctx, id, active); err != nil {
			return c.fail(ctx, "partner_active", err, msgGenericActionFailed)
		}
		c.refreshAfter(ctx)
		return nil
	})
}

func (c *Console) Spend(ctx context.Context, in validation.SpendInput) (*backend.SpendResult, error) {
	if err := c.requireLogin(); err != nil {
		return nil, err
	}
	req, errs := validation.Spend(in)
	if err := invalid(errs); err != nil {
		return nil, err
	}
	var res *backend.SpendResult
	err := c.submit(ctx, "partner_spend", strconv.FormatInt(req.PartnerID, 10), func(ctx context.Context) error {
		out, err := c.api.SpendAtPartner(ctx, req)
		if err != nil {
			return c.fail(ctx, "partner_spend", err, "Paiement échoué")
		}
		res = out
		c.refreshAfter(ctx)
		return nil
	})
	return res, err
}

// Adjust credits (positive) or debits (negative) a wallet. New balances come back as
// reported by the backend.
func (c *Console) Adjust(ctx context.Context, in validation.AdjustInput) (*backend.AdjustResult, error) {
	if err := c.requireRole(backend.Role.IsAdmin); err != nil {
		return nil, err
	}
	req, errs := validation.Adjust(in)
	if err := invalid(errs); err != nil {
		return nil, err
	}
	var res *backend.AdjustResult
	err := c.submit(ctx, "wallet_adjust", req.Email, func(ctx context.Context) error {
		out, err := c.api.AdjustWallet(ctx, req)
		if err != nil {
			return c.fail(ctx, "wallet_adjust", err, "Ajustement échoué (backend?)")
		}
		res = out
		c.refreshAfter(ctx)
		return nil
	})
	return res, err
}

func (c *Console) AdminStats(ctx context.Context, days int) (views.StatsView, error) {
	if err := c.requireRole(backend.Role.IsAdmin); err != nil {
		return views.StatsView{}, err
	}
	if days <= 0 {
		days = c.opts.StatsDays
	}
	stats, err := c.api.AdminStats(ctx, days)
	if err != nil {
		return views.StatsView{}, c.fail(ctx, "admin_stats", err, "Erreur")
	}
	return views.RenderAdminStats(*stats), nil
}

func (c *Console) FeePreview(amount, currency string) fees.Preview {
	return c.renderer.Schedule.Preview(validation.ParseAmount(amount), currency)
}

// Export builds a CSV from the cached list only.
func (c *Console) Export(ctx context.Context, domain export.Domain) (*export.File, error) {
	allowed := func(backend.Role) bool { return true }
	if domain == export.PendingTopups {
		allowed = backend.Role.IsAdmin
	}
	if err := c.requireRole(allowed); err != nil {
		return nil, err
	}

	var (
		file *export.File
		err  error
	)
	now := c.now()
	switch domain {
	case export.Transactions:
		file, err = export.WalletTransactions(c.store.WalletTx.Snapshot(), now)
	case export.MyTopups:
		file, err = export.MyTopupRequests(c.store.MyTopups.Snapshot(), now)
	case export.PendingTopups:
		file, err = export.AdminPendingTopups(c.store.AdminPending.Snapshot(), now)
	default:
		return nil, validation.ValidationErrors{{Field: "domain", Message: "Export inconnu"}}
	}

	status := "ok"
	switch {
	case errors.Is(err, export.ErrNothingToExport):
		status = "empty"
	case err != nil:
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.Exports.WithLabelValues(string(domain), status).Inc()
	}
	if err != nil {
		c.logger.Log(ctx, levelFor(status), "export not produced", "domain", domain, "error", err)
		return nil, err
	}
	c.audit(ctx, "export", string(domain), "success", map[string]string{"file": file.Name, "rows": strconv.Itoa(file.Rows)})
	return file, nil
}

func levelFor(status string) slog.Level {
	if status == "empty" {
		return slog.LevelInfo
	}
	return slog.LevelError
}
