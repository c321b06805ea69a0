package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/haitiwallet/console/services/console/internal/backend"
)

var ErrNothingToExport = errors.New("nothing to export")

type Domain string

const (
	Transactions  Domain = "transactions"
	MyTopups      Domain = "topups"
	PendingTopups Domain = "pending"
)

const (
	ContentType = "text/csv; charset=utf-8"
	stampLayout = "2006-01-02_150405"
	dateLayout  = "2006-01-02 15:04:05"
)

var prefixes = map[Domain]string{
	Transactions:  "wallet_transactions",
	MyTopups:      "topup_requests_mine",
	PendingTopups: "topup_pending_admin",
}

var emptyMessages = map[Domain]string{
	Transactions:  "Rien à exporter (aucune transaction chargée).",
	MyTopups:      "Rien à exporter (aucune demande chargée).",
	PendingTopups: "Rien à exporter (aucune demande en attente chargée).",
}

func ParseDomain(raw string) (Domain, bool) {
	d := Domain(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := prefixes[d]
	return d, ok
}

// EmptyError reports an export attempted on an empty cache.
type EmptyError struct {
	Domain Domain
}

func (e *EmptyError) Error() string {
	if msg, ok := emptyMessages[e.Domain]; ok {
		return msg
	}
	return ErrNothingToExport.Error()
}

func (e *EmptyError) Unwrap() error { return ErrNothingToExport }

type File struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Rows        int    `json:"rows"`
	Data        []byte `json:"-"`
}

func FileName(d Domain, at time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefixes[d], at.Format(stampLayout))
}

func WalletTransactions(txs []backend.Transaction, at time.Time) (*File, error) {
	if len(txs) == 0 {
		return nil, &EmptyError{Domain: Transactions}
	}
	header := []string{"ID", "Date", "Type", "Devise", "Montant", "Détails"}
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, []string{
			strconv.FormatInt(tx.ID, 10),
			formatTime(tx.CreatedAt),
			tx.Type,
			tx.Currency,
			tx.Amount.String(),
			tx.Note,
		})
	}
	return build(Transactions, header, rows, at)
}

func MyTopupRequests(topups []backend.TopupRequest, at time.Time) (*File, error) {
	if len(topups) == 0 {
		return nil, &EmptyError{Domain: MyTopups}
	}
	header := []string{"ID", "Statut", "Montant", "Devise", "Méthode", "Référence", "Preuve URL", "Note user", "Note admin", "Créé", "Décidé"}
	rows := make([][]string, 0, len(topups))
	for _, t := range topups {
		rows = append(rows, []string{
			strconv.FormatInt(t.ID, 10),
			strings.ToUpper(t.Status),
			t.Amount.String(),
			t.Currency,
			t.Method,
			t.Reference,
			t.ProofURL,
			t.Note,
			t.AdminNote,
			formatTime(t.CreatedAt),
			formatTime(t.DecidedAt),
		})
	}
	return build(MyTopups, header, rows, at)
}

func AdminPendingTopups(topups []backend.TopupRequest, at time.Time) (*File, error) {
	if len(topups) == 0 {
		return nil, &EmptyError{Domain: PendingTopups}
	}
	header := []string{"ID", "User", "Statut", "Montant", "Devise", "Méthode", "Référence", "Preuve URL", "Note user", "Créé"}
	rows := make([][]string, 0, len(topups))
	for _, t := range topups {
		rows = append(rows, []string{
			strconv.FormatInt(t.ID, 10),
			t.UserEmail,
			strings.ToUpper(t.Status),
			t.Amount.String(),
			t.Currency,
			t.Method,
			t.Reference,
			t.ProofURL,
			t.Note,
			formatTime(t.CreatedAt),
		})
	}
	return build(PendingTopups, header, rows, at)
}

// lineBreaks folds CRLF and bare CR to LF; a csv reader returns LF for both.
var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func build(d Domain, header []string, rows [][]string, at time.Time) (*File, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		for i, cell := range row {
			row[i] = lineBreaks.Replace(cell)
		}
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return &File{
		Name:        FileName(d, at),
		ContentType: ContentType,
		Rows:        len(rows),
		Data:        buf.Bytes(),
	}, nil
}

func formatTime(t backend.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}
