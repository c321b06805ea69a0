package views

import (
	"strconv"

	"github.com/haitiwallet/console/services/console/internal/backend"
	"github.com/shopspring/decimal"
)

const (
	placeholder = "—"
	dateLayout  = "2006-01-02 15:04:05"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func date(t backend.Time) string {
	if t.IsZero() {
		return placeholder
	}
	return t.UTC().Format(dateLayout)
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
