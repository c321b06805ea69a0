package backend

import (
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

func (r Role) IsSuperadmin() bool {
	return r == RoleSuperadmin
}

const (
	CurrencyHTG = "htg"
	CurrencyUSD = "usd"

	DirectionHTGToUSD = "htg_to_usd"
	DirectionUSDToHTG = "usd_to_htg"

	TopupPending  = "PENDING"
	TopupApproved = "APPROVED"
	TopupRejected = "REJECTED"

	UserActive    = "active"
	UserSuspended = "suspended"
	UserBanned    = "banned"
)

// Amounts is a per-currency pair used for wallets and statistics.
type Amounts struct {
	HTG decimal.Decimal `json:"htg"`
	USD decimal.Decimal `json:"usd"`
}

type Profile struct {
	Email         string  `json:"email"`
	Role          Role    `json:"role"`
	RefCode       string  `json:"ref_code,omitempty"`
	FirstName     string  `json:"first_name,omitempty"`
	LastName      string  `json:"last_name,omitempty"`
	Phone         string  `json:"phone,omitempty"`
	PhoneVerified bool    `json:"phone_verified,omitempty"`
	Wallet        Amounts `json:"wallet"`
}

type LoginResult struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	User        *Profile `json:"user,omitempty"`
}

type Message struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Ref      string `json:"ref,omitempty"`
}

type RegisterResult struct {
	OK      bool   `json:"ok"`
	Email   string `json:"email"`
	Role    Role   `json:"role"`
	RefCode string `json:"ref_code"`
}

type OTPRegisterRequest struct {
	Phone     string `json:"phone"`
	Code      string `json:"code"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Ref       string `json:"ref,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type ProfileUpdate struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type FXRates struct {
	SellUSD decimal.Decimal `json:"sell_usd"`
	BuyUSD  decimal.Decimal `json:"buy_usd"`
}

type Transaction struct {
	ID        int64           `json:"id"`
	Type      string          `json:"type"`
	Currency  string          `json:"currency"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note"`
	CreatedAt Time            `json:"created_at"`
}

type TransferRequest struct {
	ToEmail  string          `json:"to_email"`
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
	Note     string          `json:"note,omitempty"`
}

type ConvertRequest struct {
	Direction string          `json:"direction"`
	Amount    decimal.Decimal `json:"amount"`
}

type ConvertResult struct {
	FromCurrency string          `json:"from_currency"`
	ToCurrency   string          `json:"to_currency"`
	AmountIn     decimal.Decimal `json:"amount_in"`
	AmountOut    decimal.Decimal `json:"amount_out"`
	RateUsed     decimal.Decimal `json:"rate_used"`
	Direction    string          `json:"direction,omitempty"`
}

type TopupRequest struct {
	ID        int64               `json:"id"`
	UserEmail string              `json:"user_email,omitempty"`
	Status    string              `json:"status"`
	Amount    decimal.Decimal     `json:"amount"`
	FeeAmount decimal.NullDecimal `json:"fee_amount"`
	NetAmount decimal.NullDecimal `json:"net_amount"`
	Currency  string              `json:"currency"`
	Method    string              `json:"method"`
	Reference string              `json:"reference"`
	ProofURL  string              `json:"proof_url,omitempty"`
	Note      string              `json:"note,omitempty"`
	AdminNote string              `json:"admin_note,omitempty"`
	CreatedAt Time                `json:"created_at"`
	DecidedAt Time                `json:"decided_at"`
}

type TopupCreate struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
	ProofURL  string          `json:"proof_url,omitempty"`
	Note      string          `json:"note,omitempty"`
}

type TopupDecision struct {
	Status    string `json:"status"`
	AdminNote string `json:"admin_note,omitempty"`
}

type Partner struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	URL         string `json:"url"`
	LogoURL     string `json:"logo_url,omitempty"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
	CreatedAt   Time   `json:"created_at"`
}

type PartnerCreate struct {
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	URL         string `json:"url"`
	LogoURL     string `json:"logo_url,omitempty"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}

type SpendRequest struct {
	PartnerID int64           `json:"partner_id"`
	Currency  string          `json:"currency"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note,omitempty"`
}

type SpendResult struct {
	OK            bool            `json:"ok"`
	PartnerID     int64           `json:"partner_id"`
	Currency      string          `json:"currency"`
	Amount        decimal.Decimal `json:"amount"`
	NewBalanceHTG decimal.Decimal `json:"new_balance_htg"`
	NewBalanceUSD decimal.Decimal `json:"new_balance_usd"`
	TxID          int64           `json:"tx_id"`
}

type AdjustRequest struct {
	Email    string          `json:"email"`
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
	Note     string          `json:"note,omitempty"`
}

type AdjustResult struct {
	OK            bool            `json:"ok"`
	Email         string          `json:"email"`
	Currency      string          `json:"currency"`
	Amount        decimal.Decimal `json:"amount"`
	NewBalanceHTG decimal.Decimal `json:"new_balance_htg"`
	NewBalanceUSD decimal.Decimal `json:"new_balance_usd"`
	TxID          int64           `json:"tx_id"`
}

type AdminStats struct {
	PeriodDays int     `json:"period_days"`
	Fees       Amounts `json:"fees"`
	Spend      Amounts `json:"spend"`
	TopupsNet  Amounts `json:"topups_net"`
}

type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Status    string `json:"status"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt Time   `json:"created_at"`
}

type ImpersonateResult struct {
	AccessToken string `json:"access_token"`
}
