package views

import (
	"fmt"

	"github.com/haitiwallet/console/services/console/internal/backend"
)

const HistoryCap = 50

type TxRow struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	Type     string `json:"type"`
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
	Note     string `json:"note"`
}

type HistoryView struct {
	Rows  []TxRow `json:"rows"`
	Total int     `json:"total"`
	Hint  string  `json:"hint"`
	Empty string  `json:"empty,omitempty"`
	Error string  `json:"error,omitempty"`
}

func RenderHistory(txs []backend.Transaction, loadErr string) HistoryView {
	if loadErr != "" {
		return HistoryView{Rows: []TxRow{}, Error: loadErr}
	}
	v := HistoryView{
		Rows:  make([]TxRow, 0, min(len(txs), HistoryCap)),
		Total: len(txs),
		Hint:  fmt.Sprintf("%d transaction(s) chargée(s)", len(txs)),
	}
	if len(txs) == 0 {
		v.Empty = "Aucune transaction"
		return v
	}
	for _, tx := range txs[:min(len(txs), HistoryCap)] {
		v.Rows = append(v.Rows, TxRow{
			ID:       id(tx.ID),
			Date:     date(tx.CreatedAt),
			Type:     tx.Type,
			Currency: tx.Currency,
			Amount:   money(tx.Amount),
			Note:     tx.Note,
		})
	}
	return v
}
