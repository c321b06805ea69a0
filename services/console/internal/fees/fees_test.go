package fees

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestEstimateTable(t *testing.T) {
	s := Default()
	cases := map[string]string{
		"-5":     "0",
		"0":      "0",
		"0.01":   "1.50",
		"20":     "1.50",
		"20.01":  "3.00",
		"50":     "3.00",
		"50.5":   "5.00",
		"70":     "5.00",
		"70.01":  "7.50",
		"100":    "7.50",
		"100000": "7.50",
	}
	for amount, want := range cases {
		if got := s.Estimate(d(amount)); !got.Equal(d(want)) {
			t.Fatalf("Estimate(%s) = %s, want %s", amount, got, want)
		}
	}
}

func TestEstimateMonotonic(t *testing.T) {
	s := Default()
	prev := decimal.Zero
	for amount := d("-1"); amount.LessThan(d("120")); amount = amount.Add(d("0.25")) {
		fee := s.Estimate(amount)
		if fee.LessThan(prev) {
			t.Fatalf("fee decreased at %s: %s < %s", amount, fee, prev)
		}
		prev = fee
	}
}

func TestUnsortedBracketsAreOrdered(t *testing.T) {
	s := NewSchedule([]Bracket{
		{UpTo: d("70"), Fee: d("5")},
		{UpTo: d("20"), Fee: d("1.5")},
		{UpTo: d("50"), Fee: d("3")},
	}, d("7.5"))
	if got := s.Estimate(d("30")); !got.Equal(d("3")) {
		t.Fatalf("expected 3, got %s", got)
	}
}

func TestPreview(t *testing.T) {
	s := Default()

	p := s.Preview(d("100"), "usd")
	if p.Label != "7.50 USD" || !p.Net.Equal(d("92.50")) {
		t.Fatalf("unexpected preview %+v", p)
	}

	p = s.Preview(d("1"), "htg")
	if p.Label != "1.50 HTG" || !p.Net.IsZero() {
		t.Fatalf("net must floor at zero, got %+v", p)
	}

	p = s.Preview(d("0"), "xyz")
	if p.Label != "—" || p.Currency != "HTG" {
		t.Fatalf("unexpected empty preview %+v", p)
	}
}

func TestEffectivePrefersBackendFee(t *testing.T) {
	s := Default()
	fee, estimated := s.Effective(d("100"), decimal.NewNullDecimal(d("2.25")))
	if estimated || !fee.Equal(d("2.25")) {
		t.Fatalf("expected authoritative 2.25, got %s estimated=%v", fee, estimated)
	}
	fee, estimated = s.Effective(d("100"), decimal.NullDecimal{})
	if !estimated || !fee.Equal(d("7.50")) {
		t.Fatalf("expected estimated 7.50, got %s estimated=%v", fee, estimated)
	}
}

func TestAggregateSeparatesSources(t *testing.T) {
	s := Default()
	agg := s.Aggregate([]Item{
		{Currency: "htg", Amount: d("100"), Fee: decimal.NewNullDecimal(d("2"))},
		{Currency: "htg", Amount: d("10")},
		{Currency: "htg", Amount: d("60")},
		{Currency: "usd", Amount: d("30")},
	})

	htg := agg["HTG"]
	if !htg.Authoritative.Equal(d("2")) || htg.AuthoritativeCount != 1 {
		t.Fatalf("unexpected authoritative part %+v", htg)
	}
	if !htg.Estimated.Equal(d("6.50")) || htg.EstimatedCount != 2 {
		t.Fatalf("unexpected estimated part %+v", htg)
	}
	if !htg.Total.Equal(d("8.50")) {
		t.Fatalf("unexpected total %s", htg.Total)
	}
	if usd := agg["USD"]; !usd.Total.Equal(d("3")) {
		t.Fatalf("unexpected usd total %s", usd.Total)
	}
}
