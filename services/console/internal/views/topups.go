package views

import (
	"sort"
	"strings"

	"github.com/haitiwallet/console/services/console/internal/backend"
	"github.com/haitiwallet/console/services/console/internal/fees"
)

const MyTopupsCap = 50

// Action is a button bound to a command and a target id.
type Action struct {
	Command string `json:"command"`
	Label   string `json:"label"`
	Target  int64  `json:"target"`
	Confirm bool   `json:"confirm,omitempty"`
}

type TopupRow struct {
	ID        string `json:"id"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Method    string `json:"method"`
	Reference string `json:"reference"`
	Created   string `json:"created"`
	Decided   string `json:"decided,omitempty"`
	Status    string `json:"status"`
	AdminNote string `json:"admin_note,omitempty"`
}

type MyTopupsView struct {
	Pending      []TopupRow `json:"pending"`
	Decided      []TopupRow `json:"decided"`
	PendingEmpty string     `json:"pending_empty,omitempty"`
	DecidedEmpty string     `json:"decided_empty,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// Pill normalises a status for display; anything unknown reads as pending.
func Pill(status string) string {
	switch s := strings.ToUpper(strings.TrimSpace(status)); s {
	case backend.TopupApproved, backend.TopupRejected:
		return s
	default:
		return backend.TopupPending
	}
}

// SplitTopups partitions by status and orders the decided part newest first by
// decided_at, falling back to created_at, then to the epoch.
func SplitTopups(items []backend.TopupRequest) (pending, decided []backend.TopupRequest) {
	for _, t := range items {
		if strings.EqualFold(t.Status, backend.TopupPending) {
			pending = append(pending, t)
		} else {
			decided = append(decided, t)
		}
	}
	sort.SliceStable(decided, func(i, j int) bool {
		return decidedKey(decided[i]) > decidedKey(decided[j])
	})
	return pending, decided
}

func decidedKey(t backend.TopupRequest) int64 {
	switch {
	case !t.DecidedAt.IsZero():
		return t.DecidedAt.UnixNano()
	case !t.CreatedAt.IsZero():
		return t.CreatedAt.UnixNano()
	default:
		return 0
	}
}

func topupRow(t backend.TopupRequest) TopupRow {
	return TopupRow{
		ID:        id(t.ID),
		Amount:    money(t.Amount),
		Currency:  t.Currency,
		Method:    t.Method,
		Reference: t.Reference,
		Created:   date(t.CreatedAt),
		Status:    Pill(t.Status),
	}
}

func RenderMyTopups(items []backend.TopupRequest, loadErr string) MyTopupsView {
	v := MyTopupsView{Pending: []TopupRow{}, Decided: []TopupRow{}}
	if loadErr != "" {
		v.Error = loadErr
		return v
	}

	pending, decided := SplitTopups(items)
	for _, t := range pending[:min(len(pending), MyTopupsCap)] {
		v.Pending = append(v.Pending, topupRow(t))
	}
	for _, t := range decided[:min(len(decided), MyTopupsCap)] {
		row := topupRow(t)
		row.Decided = date(t.DecidedAt)
		row.AdminNote = t.AdminNote
		v.Decided = append(v.Decided, row)
	}
	if len(v.Pending) == 0 {
		v.PendingEmpty = "Aucune demande en attente"
	}
	if len(v.Decided) == 0 {
		v.DecidedEmpty = "Aucun historique"
	}
	return v
}

type PendingRow struct {
	TopupRow
	UserEmail    string   `json:"user_email"`
	Fee          string   `json:"fee"`
	Net          string   `json:"net"`
	FeeEstimated bool     `json:"fee_estimated"`
	Actions      []Action `json:"actions"`
}

type PendingStats struct {
	Count int                       `json:"count"`
	Fees  map[string]fees.Breakdown `json:"fees"`
}

type AdminPendingView struct {
	Rows  []PendingRow `json:"rows"`
	Empty string       `json:"empty,omitempty"`
	Error string       `json:"error,omitempty"`
	Stats PendingStats `json:"stats"`
}

func RenderAdminPending(items []backend.TopupRequest, loadErr string, schedule *fees.Schedule) AdminPendingView {
	v := AdminPendingView{Rows: []PendingRow{}}
	if loadErr != "" {
		v.Error = loadErr
		v.Stats = PendingStats{Fees: map[string]fees.Breakdown{}}
		return v
	}

	agg := make([]fees.Item, 0, len(items))
	for _, t := range items {
		fee, estimated := schedule.Effective(t.Amount, t.FeeAmount)
		v.Rows = append(v.Rows, PendingRow{
			TopupRow:     topupRow(t),
			UserEmail:    t.UserEmail,
			Fee:          money(fee),
			Net:          money(fees.Net(t.Amount, fee)),
			FeeEstimated: estimated,
			Actions: []Action{
				{Command: "approve", Label: "Approuver", Target: t.ID},
				{Command: "reject", Label: "Refuser", Target: t.ID},
			},
		})
		agg = append(agg, fees.Item{Currency: t.Currency, Amount: t.Amount, Fee: t.FeeAmount})
	}
	if len(items) == 0 {
		v.Empty = "Aucune demande en attente"
	}
	v.Stats = PendingStats{Count: len(items), Fees: schedule.Aggregate(agg)}
	return v
}
