package validation

import (
	"testing"

	"github.com/haitiwallet/console/services/console/internal/backend"
	"github.com/shopspring/decimal"
)

func hasField(errs ValidationErrors, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestTransferValidation(t *testing.T) {
	cases := []struct {
		name  string
		in    TransferInput
		field string
	}{
		{"missing recipient", TransferInput{Currency: "htg", Amount: "10"}, "to_email"},
		{"zero amount", TransferInput{ToEmail: "b@x.io", Currency: "htg", Amount: "0"}, "amount"},
		{"negative amount", TransferInput{ToEmail: "b@x.io", Currency: "htg", Amount: "-3"}, "amount"},
		{"garbage amount", TransferInput{ToEmail: "b@x.io", Currency: "htg", Amount: "abc"}, "amount"},
		{"bad currency", TransferInput{ToEmail: "b@x.io", Currency: "eur", Amount: "1"}, "currency"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, errs := Transfer(tc.in)
			if !hasField(errs, tc.field) {
				t.Fatalf("expected error on %s, got %+v", tc.field, errs)
			}
		})
	}

	req, errs := Transfer(TransferInput{ToEmail: " B@X.io ", Currency: "USD", Amount: "12.5"})
	if errs != nil {
		t.Fatalf("unexpected errors %+v", errs)
	}
	if req.ToEmail != "b@x.io" || req.Currency != backend.CurrencyUSD || !req.Amount.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestConvertDirection(t *testing.T) {
	if _, errs := Convert(ConvertInput{Direction: "eur_to_usd", Amount: "5"}); !hasField(errs, "direction") {
		t.Fatalf("expected direction error")
	}
	if _, errs := Convert(ConvertInput{Direction: "usd_to_htg", Amount: "5"}); errs != nil {
		t.Fatalf("unexpected errors %+v", errs)
	}
}

func TestTopupReference(t *testing.T) {
	_, errs := Topup(TopupInput{Amount: "100", Currency: "htg", Method: "moncash", Reference: "ab"})
	if !hasField(errs, "reference") {
		t.Fatalf("expected reference error")
	}
	if errs.First() != "Référence obligatoire (min 3 caractères)" {
		t.Fatalf("unexpected message %q", errs.First())
	}
	if _, errs := Topup(TopupInput{Amount: "100", Currency: "htg", Method: "paypal", Reference: "abc"}); !hasField(errs, "method") {
		t.Fatalf("expected method error")
	}
	if _, errs := Topup(TopupInput{Amount: "100", Currency: "htg", Method: "MonCash", Reference: "abc"}); errs != nil {
		t.Fatalf("unexpected errors %+v", errs)
	}
}

func TestPartnerRules(t *testing.T) {
	if _, errs := Partner(PartnerInput{Name: "A", URL: "https://a.ht"}); !hasField(errs, "name") {
		t.Fatalf("expected name error")
	}
	if _, errs := Partner(PartnerInput{Name: "Acme", URL: "ftp://a.ht"}); !hasField(errs, "url") {
		t.Fatalf("expected url error")
	}
	req, errs := Partner(PartnerInput{Name: "Acme", URL: "https://a.ht"})
	if errs != nil || !req.Active || req.Category != "autre" {
		t.Fatalf("unexpected partner %+v %+v", req, errs)
	}
}

func TestAdjustSignedAmount(t *testing.T) {
	if _, errs := Adjust(AdjustInput{Email: "a@b.io", Currency: "htg", Amount: "0"}); !hasField(errs, "amount") {
		t.Fatalf("zero adjustment must be refused")
	}
	if _, errs := Adjust(AdjustInput{Email: "a@b", Currency: "htg", Amount: "5"}); !hasField(errs, "email") {
		t.Fatalf("short email must be refused")
	}
	req, errs := Adjust(AdjustInput{Email: "a@b.io", Currency: "usd", Amount: "-25"})
	if errs != nil || !req.Amount.Equal(decimal.NewFromInt(-25)) {
		t.Fatalf("debit should pass, got %+v %+v", req, errs)
	}
}

func TestOTPRegisterRules(t *testing.T) {
	_, errs := OTPRegister(OTPRegisterInput{Phone: "509", Code: "12", Email: "a@b", Password: "123"})
	for _, field := range []string{"first_name", "last_name", "phone", "code", "email", "password"} {
		if !hasField(errs, field) {
			t.Fatalf("expected error on %s, got %+v", field, errs)
		}
	}

	_, errs = OTPRegister(OTPRegisterInput{
		Phone: "50937000000", Code: "123456", Email: "ann@example.com", Password: "secret1",
		FirstName: "Ann", LastName: "Joseph",
	})
	if errs != nil {
		t.Fatalf("unexpected errors %+v", errs)
	}
}

func TestResetRequiresAllFields(t *testing.T) {
	if _, errs := Reset(ResetInput{Email: "a@b.io", Token: "", NewPassword: "secret1"}); errs.First() != "Champs requis." {
		t.Fatalf("unexpected errors %+v", errs)
	}
	if _, errs := Reset(ResetInput{Email: "a@b.io", Token: "123456", NewPassword: "123"}); !hasField(errs, "new_password") {
		t.Fatalf("expected password length error")
	}
}

func TestResetTrimsNewPassword(t *testing.T) {
	req, errs := Reset(ResetInput{Email: " A@B.io ", Token: " 123456 ", NewPassword: "  secret1 \n"})
	if errs != nil {
		t.Fatalf("unexpected errors %+v", errs)
	}
	if req.NewPassword != "secret1" || req.Token != "123456" {
		t.Fatalf("expected trimmed fields, got %+v", req)
	}
	if _, errs := Reset(ResetInput{Email: "a@b.io", Token: "123456", NewPassword: "   "}); errs.First() != "Champs requis." {
		t.Fatalf("blank password should be missing, got %+v", errs)
	}
}

func TestDecisionAliases(t *testing.T) {
	req, errs := Decision(DecisionInput{Status: "approve"})
	if errs != nil || req.Status != backend.TopupApproved {
		t.Fatalf("unexpected decision %+v %+v", req, errs)
	}
	if _, errs := Decision(DecisionInput{Status: "maybe"}); !hasField(errs, "status") {
		t.Fatalf("expected status error")
	}
}
