package fees

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Bracket charges Fee for amounts up to and including UpTo.
type Bracket struct {
	UpTo decimal.Decimal `json:"up_to"`
	Fee  decimal.Decimal `json:"fee"`
}

// Schedule is a flat fee table. Amounts above the last bracket pay Above;
// non-positive amounts pay nothing.
type Schedule struct {
	brackets []Bracket
	above    decimal.Decimal
}

func NewSchedule(brackets []Bracket, above decimal.Decimal) *Schedule {
	sorted := make([]Bracket, len(brackets))
	copy(sorted, brackets)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].UpTo.LessThan(sorted[j].UpTo)
	})
	return &Schedule{brackets: sorted, above: above}
}

// Default is the published HaitiWallet schedule, identical for HTG and USD.
func Default() *Schedule {
	return NewSchedule([]Bracket{
		{UpTo: decimal.NewFromInt(20), Fee: decimal.RequireFromString("1.50")},
		{UpTo: decimal.NewFromInt(50), Fee: decimal.RequireFromString("3.00")},
		{UpTo: decimal.NewFromInt(70), Fee: decimal.RequireFromString("5.00")},
	}, decimal.RequireFromString("7.50"))
}

func (s *Schedule) Brackets() []Bracket {
	out := make([]Bracket, len(s.brackets))
	copy(out, s.brackets)
	return out
}

func (s *Schedule) Above() decimal.Decimal {
	return s.above
}

func (s *Schedule) Estimate(amount decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	idx := sort.Search(len(s.brackets), func(i int) bool {
		return s.brackets[i].UpTo.GreaterThanOrEqual(amount)
	})
	if idx >= len(s.brackets) {
		return s.above
	}
	return s.brackets[idx].Fee
}

// Effective prefers the backend's fee when it sent one.
func (s *Schedule) Effective(amount decimal.Decimal, authoritative decimal.NullDecimal) (fee decimal.Decimal, estimated bool) {
	if authoritative.Valid {
		return authoritative.Decimal, false
	}
	return s.Estimate(amount), true
}

func Net(amount, fee decimal.Decimal) decimal.Decimal {
	net := amount.Sub(fee)
	if net.IsNegative() {
		return decimal.Zero
	}
	return net
}

func CurrencyLabel(currency string) string {
	if strings.EqualFold(strings.TrimSpace(currency), "usd") {
		return "USD"
	}
	return "HTG"
}

type Preview struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Fee      decimal.Decimal `json:"fee"`
	Net      decimal.Decimal `json:"net"`
	Label    string          `json:"label"`
}

func (s *Schedule) Preview(amount decimal.Decimal, currency string) Preview {
	fee := s.Estimate(amount)
	p := Preview{
		Amount:   amount,
		Currency: CurrencyLabel(currency),
		Fee:      fee,
		Net:      Net(amount, fee),
		Label:    "—",
	}
	if amount.IsPositive() {
		p.Label = fee.StringFixed(2) + " " + p.Currency
	}
	return p
}

// Item is one pending request fed into an aggregate.
type Item struct {
	Currency string
	Amount   decimal.Decimal
	Fee      decimal.NullDecimal
}

type Breakdown struct {
	Authoritative      decimal.Decimal `json:"authoritative"`
	Estimated          decimal.Decimal `json:"estimated"`
	Total              decimal.Decimal `json:"total"`
	AuthoritativeCount int             `json:"authoritative_count"`
	EstimatedCount     int             `json:"estimated_count"`
}

// Aggregate sums fees per currency label, keeping backend-reported fees apart from estimates.
func (s *Schedule) Aggregate(items []Item) map[string]Breakdown {
	out := map[string]Breakdown{}
	for _, it := range items {
		key := CurrencyLabel(it.Currency)
		b := out[key]
		fee, estimated := s.Effective(it.Amount, it.Fee)
		if estimated {
			b.Estimated = b.Estimated.Add(fee)
			b.EstimatedCount++
		} else {
			b.Authoritative = b.Authoritative.Add(fee)
			b.AuthoritativeCount++
		}
		b.Total = b.Authoritative.Add(b.Estimated)
		out[key] = b
	}
	return out
}
