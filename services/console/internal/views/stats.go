package views

import (
	"github.com/haitiwallet/console/services/console/internal/backend"
	"github.com/haitiwallet/console/services/console/internal/fees"
	"github.com/shopspring/decimal"
)

type Pair struct {
	HTG string `json:"htg"`
	USD string `json:"usd"`
}

type StatsView struct {
	PeriodDays int  `json:"period_days"`
	Fees       Pair `json:"fees"`
	Spend      Pair `json:"spend"`
	TopupsNet  Pair `json:"topups_net"`
}

func pair(a backend.Amounts) Pair {
	return Pair{HTG: money(a.HTG), USD: money(a.USD)}
}

func RenderAdminStats(s backend.AdminStats) StatsView {
	return StatsView{
		PeriodDays: s.PeriodDays,
		Fees:       pair(s.Fees),
		Spend:      pair(s.Spend),
		TopupsNet:  pair(s.TopupsNet),
	}
}

type FeeExplainer struct {
	Brackets []fees.Bracket `json:"brackets"`
	Above    string         `json:"above"`
	Example  fees.Preview   `json:"example"`
}

func RenderFeeExplainer(schedule *fees.Schedule) FeeExplainer {
	return FeeExplainer{
		Brackets: schedule.Brackets(),
		Above:    money(schedule.Above()),
		Example:  schedule.Preview(decimal.NewFromInt(100), backend.CurrencyHTG),
	}
}
