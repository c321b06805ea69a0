package views

import (
	"fmt"

	"github.com/haitiwallet/console/services/console/internal/backend"
	"github.com/shopspring/decimal"
)

type Balances struct {
	HTG           string `json:"htg"`
	USD           string `json:"usd"`
	USDEquivalent string `json:"usd_equivalent"`
	RateHint      string `json:"rate_hint"`
	Who           string `json:"who"`
	RefCode       string `json:"ref_code"`
}

// RenderBalances shows the HTG balance also as USD at the sell rate.
func RenderBalances(p backend.Profile, fx backend.FXRates) Balances {
	eq := decimal.Zero
	if fx.SellUSD.IsPositive() {
		eq = p.Wallet.HTG.Div(fx.SellUSD)
	}
	return Balances{
		HTG:           money(p.Wallet.HTG),
		USD:           money(p.Wallet.USD),
		USDEquivalent: "≈ " + money(eq),
		RateHint:      fmt.Sprintf("1 USD ≈ %s HTG (vente) | %s HTG (achat)", money(fx.SellUSD), money(fx.BuyUSD)),
		Who:           fmt.Sprintf("%s (%s)", p.Email, p.Role),
		RefCode:       orDefault(p.RefCode, placeholder),
	}
}

type InfoPanel struct {
	Email         string `json:"email"`
	Role          string `json:"role"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Phone         string `json:"phone"`
	PhoneVerified bool   `json:"phone_verified"`
	RefCode       string `json:"ref_code"`
}

func RenderInfo(p backend.Profile) InfoPanel {
	return InfoPanel{
		Email:         p.Email,
		Role:          string(p.Role),
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Phone:         p.Phone,
		PhoneVerified: p.PhoneVerified,
		RefCode:       orDefault(p.RefCode, placeholder),
	}
}
