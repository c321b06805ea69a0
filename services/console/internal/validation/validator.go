package validation

import (
	"strings"

	"github.com/haitiwallet/console/services/console/internal/backend"
	"github.com/shopspring/decimal"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	return "invalid request"
}

// First is the message shown inline, mirroring the single-message forms.
func (v ValidationErrors) First() string {
	if len(v) == 0 {
		return ""
	}
	return v[0].Message
}

func (v *ValidationErrors) add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

func (v ValidationErrors) orNil() ValidationErrors {
	if len(v) == 0 {
		return nil
	}
	return v
}

var TopupMethods = []string{"moncash", "natcash", "interac"}

type LoginInput struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Ref      string `json:"ref"`
}

type OTPStartInput struct {
	Phone string `json:"phone"`
}

type OTPRegisterInput struct {
	Phone     string `json:"phone"`
	Code      string `json:"code"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Ref       string `json:"ref"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type ForgotInput struct {
	Email string `json:"email"`
}

type ResetInput struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type ProfileInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type TransferInput struct {
	ToEmail  string `json:"to_email"`
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
	Note     string `json:"note"`
}

type ConvertInput struct {
	Direction string `json:"direction"`
	Amount    string `json:"amount"`
}

type TopupInput struct {
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Method    string `json:"method"`
	Reference string `json:"reference"`
	ProofURL  string `json:"proof_url"`
	Note      string `json:"note"`
}

type DecisionInput struct {
	Status    string `json:"status"`
	AdminNote string `json:"admin_note"`
}

type PartnerInput struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	URL         string `json:"url"`
	LogoURL     string `json:"logo_url"`
	Description string `json:"description"`
	Active      *bool  `json:"active"`
}

type SpendInput struct {
	PartnerID int64  `json:"partner_id"`
	Currency  string `json:"currency"`
	Amount    string `json:"amount"`
	Note      string `json:"note"`
}

type AdjustInput struct {
	Email    string `json:"email"`
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
	Note     string `json:"note"`
}

func Login(in LoginInput) (email, password string, errs ValidationErrors) {
	email = normalizeEmail(in.Email)
	if email == "" {
		errs.add("email", "Email requis.")
	}
	if in.Password == "" {
		errs.add("password", "Mot de passe requis.")
	}
	return email, in.Password, errs.orNil()
}

func Register(in RegisterInput) (backend.RegisterRequest, ValidationErrors) {
	var errs ValidationErrors
	req := backend.RegisterRequest{
		Email:    normalizeEmail(in.Email),
		Password: strings.TrimSpace(in.Password),
		Ref:      strings.ToUpper(strings.TrimSpace(in.Ref)),
	}
	if len(req.Email) < 5 {
		errs.add("email", "Email requis.")
	}
	if len(req.Password) < 6 {
		errs.add("password", "Mot de passe min 6.")
	}
	return req, errs.orNil()
}

func OTPStart(in OTPStartInput) (string, ValidationErrors) {
	var errs ValidationErrors
	phone := strings.TrimSpace(in.Phone)
	if len(phone) < 8 {
		errs.add("phone", "Numéro invalide.")
	}
	return phone, errs.orNil()
}

func OTPRegister(in OTPRegisterInput) (backend.OTPRegisterRequest, ValidationErrors) {
	var errs ValidationErrors
	req := backend.OTPRegisterRequest{
		Phone:     strings.TrimSpace(in.Phone),
		Code:      strings.TrimSpace(in.Code),
		Email:     normalizeEmail(in.Email),
		Password:  strings.TrimSpace(in.Password),
		Ref:       strings.ToUpper(strings.TrimSpace(in.Ref)),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
	}
	if req.FirstName == "" {
		errs.add("first_name", "Nom et prénom requis.")
	}
	if req.LastName == "" {
		errs.add("last_name", "Nom et prénom requis.")
	}
	if len(req.Phone) < 8 {
		errs.add("phone", "Téléphone invalide.")
	}
	if len(req.Code) < 4 {
		errs.add("code", "Code SMS requis.")
	}
	if len(req.Email) < 5 {
		errs.add("email", "Email requis.")
	}
	if len(req.Password) < 6 {
		errs.add("password", "Mot de passe min 6.")
	}
	return req, errs.orNil()
}

func Forgot(in ForgotInput) (string, ValidationErrors) {
	var errs ValidationErrors
	email := normalizeEmail(in.Email)
	if email == "" {
		errs.add("email", "Email requis.")
	}
	return email, errs.orNil()
}

func Reset(in ResetInput) (backend.ResetPasswordRequest, ValidationErrors) {
	var errs ValidationErrors
	req := backend.ResetPasswordRequest{
		Email:       normalizeEmail(in.Email),
		Token:       strings.TrimSpace(in.Token),
		NewPassword: strings.TrimSpace(in.NewPassword),
	}
	if req.Email == "" || req.Token == "" || req.NewPassword == "" {
		errs.add("form", "Champs requis.")
		return req, errs
	}
	if len(req.NewPassword) < 6 {
		errs.add("new_password", "Mot de passe min 6.")
	}
	return req, errs.orNil()
}

func Profile(in ProfileInput) (backend.ProfileUpdate, ValidationErrors) {
	var errs ValidationErrors
	req := backend.ProfileUpdate{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Phone:     strings.TrimSpace(in.Phone),
	}
	if req.FirstName == "" {
		errs.add("first_name", "Prénom requis.")
	}
	if req.LastName == "" {
		errs.add("last_name", "Nom requis.")
	}
	return req, errs.orNil()
}

func Transfer(in TransferInput) (backend.TransferRequest, ValidationErrors) {
	var errs ValidationErrors
	req := backend.TransferRequest{
		ToEmail:  normalizeEmail(in.ToEmail),
		Currency: normalizeCurrency(in.Currency),
		Note:     strings.TrimSpace(in.Note),
	}
	if req.ToEmail == "" {
		errs.add("to_email", "Destinataire requis.")
	}
	checkCurrency(&errs, req.Currency)
	req.Amount = positiveAmount(&errs, in.Amount)
	return req, errs.orNil()
}

func Convert(in ConvertInput) (backend.ConvertRequest, ValidationErrors) {
	var errs ValidationErrors
	req := backend.ConvertRequest{Direction: strings.ToLower(strings.TrimSpace(in.Direction))}
	if req.Direction != backend.DirectionHTGToUSD && req.Direction != backend.DirectionUSDToHTG {
		errs.add("direction", "Direction invalide.")
	}
	req.Amount = positiveAmount(&errs, in.Amount)
	return req, errs.orNil()
}

func Topup(in TopupInput) (backend.TopupCreate, ValidationErrors) {
	var errs ValidationErrors
	req := backend.TopupCreate{
		Currency:  normalizeCurrency(in.Currency),
		Method:    strings.ToLower(strings.TrimSpace(in.Method)),
		Reference: strings.TrimSpace(in.Reference),
		ProofURL:  strings.TrimSpace(in.ProofURL),
		Note:      strings.TrimSpace(in.Note),
	}
	req.Amount = positiveAmount(&errs, in.Amount)
	checkCurrency(&errs, req.Currency)
	if !contains(TopupMethods, req.Method) {
		errs.add("method", "Méthode invalide.")
	}
	if len(req.Reference) < 3 {
		errs.add("reference", "Référence obligatoire (min 3 caractères)")
	}
	return req, errs.orNil()
}

func Decision(in DecisionInput) (backend.TopupDecision, ValidationErrors) {
	var errs ValidationErrors
	req := backend.TopupDecision{
		Status:    strings.ToUpper(strings.TrimSpace(in.Status)),
		AdminNote: strings.TrimSpace(in.AdminNote),
	}
	switch req.Status {
	case "APPROVE":
		req.Status = backend.TopupApproved
	case "REJECT":
		req.Status = backend.TopupRejected
	}
	if req.Status != backend.TopupApproved && req.Status != backend.TopupRejected {
		errs.add("status", "Décision invalide.")
	}
	return req, errs.orNil()
}

func Partner(in PartnerInput) (backend.PartnerCreate, ValidationErrors) {
	var errs ValidationErrors
	req := backend.PartnerCreate{
		Name:        strings.TrimSpace(in.Name),
		Category:    strings.TrimSpace(in.Category),
		URL:         strings.TrimSpace(in.URL),
		LogoURL:     strings.TrimSpace(in.LogoURL),
		Description: strings.TrimSpace(in.Description),
		Active:      true,
	}
	if in.Active != nil {
		req.Active = *in.Active
	}
	if req.Category == "" {
		req.Category = "autre"
	}
	if len(req.Name) < 2 {
		errs.add("name", "Nom invalide")
	}
	if !strings.HasPrefix(req.URL, "http") {
		errs.add("url", "URL invalide (http/https)")
	}
	return req, errs.orNil()
}

func Spend(in SpendInput) (backend.SpendRequest, ValidationErrors) {
	var errs ValidationErrors
	req := backend.SpendRequest{
		PartnerID: in.PartnerID,
		Currency:  normalizeCurrency(in.Currency),
		Note:      strings.TrimSpace(in.Note),
	}
	if req.PartnerID <= 0 {
		errs.add("partner_id", "Partenaire requis.")
	}
	checkCurrency(&errs, req.Currency)
	req.Amount = positiveAmount(&errs, in.Amount)
	return req, errs.orNil()
}

// Adjust accepts signed amounts: positive credits, negative debits, zero is refused.
func Adjust(in AdjustInput) (backend.AdjustRequest, ValidationErrors) {
	var errs ValidationErrors
	req := backend.AdjustRequest{
		Email:    normalizeEmail(in.Email),
		Currency: normalizeCurrency(in.Currency),
		Note:     strings.TrimSpace(in.Note),
	}
	if len(req.Email) < 5 {
		errs.add("email", "Email invalide")
	}
	checkCurrency(&errs, req.Currency)
	amount, err := decimal.NewFromString(strings.TrimSpace(in.Amount))
	if err != nil || amount.IsZero() {
		errs.add("amount", "Montant invalide (≠ 0)")
	} else {
		req.Amount = amount
	}
	return req, errs.orNil()
}

// ParseAmount is the lenient parse used by previews; bad input reads as zero.
func ParseAmount(raw string) decimal.Decimal {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return amount
}

func positiveAmount(errs *ValidationErrors, raw string) decimal.Decimal {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !amount.IsPositive() {
		errs.add("amount", "Montant invalide")
		return decimal.Zero
	}
	return amount
}

func checkCurrency(errs *ValidationErrors, currency string) {
	if currency != backend.CurrencyHTG && currency != backend.CurrencyUSD {
		errs.add("currency", "Devise invalide (htg/usd)")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeCurrency(currency string) string {
	return strings.ToLower(strings.TrimSpace(currency))
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
