package views

import (
	"github.com/haitiwallet/console/services/console/internal/backend"
)

type PartnerRow struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	URL         string  `json:"url"`
	LogoURL     string  `json:"logo_url,omitempty"`
	Active      bool    `json:"active"`
	Toggle      *Action `json:"toggle,omitempty"`
}

type PartnersView struct {
	Rows  []PartnerRow `json:"rows"`
	Empty string       `json:"empty,omitempty"`
	Error string       `json:"error,omitempty"`
}

func partnerRow(p backend.Partner) PartnerRow {
	return PartnerRow{
		ID:          p.ID,
		Name:        orDefault(p.Name, "Partenaire"),
		Category:    orDefault(p.Category, "autre"),
		Description: p.Description,
		URL:         orDefault(p.URL, placeholder),
		LogoURL:     p.LogoURL,
		Active:      p.Active,
	}
}

// RenderPartners is the public directory: only partners flagged active.
func RenderPartners(items []backend.Partner, loadErr string) PartnersView {
	v := PartnersView{Rows: []PartnerRow{}}
	if loadErr != "" {
		v.Error = loadErr
		return v
	}
	for _, p := range items {
		if !p.Active {
			continue
		}
		v.Rows = append(v.Rows, partnerRow(p))
	}
	switch {
	case len(items) == 0:
		v.Empty = "Aucun partenaire"
	case len(v.Rows) == 0:
		v.Empty = "Aucun partenaire actif"
	}
	return v
}

// RenderPartnersAdmin lists every partner with an on/off toggle.
func RenderPartnersAdmin(items []backend.Partner, loadErr string) PartnersView {
	v := PartnersView{Rows: []PartnerRow{}}
	if loadErr != "" {
		v.Error = loadErr
		return v
	}
	for _, p := range items {
		row := partnerRow(p)
		toggle := Action{Command: "partner_on", Label: "Activer", Target: p.ID}
		if p.Active {
			toggle = Action{Command: "partner_off", Label: "Désactiver", Target: p.ID}
		}
		row.Toggle = &toggle
		v.Rows = append(v.Rows, row)
	}
	if len(items) == 0 {
		v.Empty = "Aucun"
	}
	return v
}
