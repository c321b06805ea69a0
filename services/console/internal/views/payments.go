package views

import "strings"

type PaymentMethod struct {
	Label string `json:"label"`
	To    string `json:"to"`
	How   string `json:"how"`
}

type PaymentDirectory map[string]PaymentMethod

const fallbackMethod = "interac"

func DefaultPayments() PaymentDirectory {
	return PaymentDirectory{
		"moncash": {
			Label: "MonCash",
			To:    "+509 48 07 1798 (MonCash Haiti Wallet)",
			How:   "Envoie via MonCash à ce numéro. Garde le reçu / code et mets-le dans la Référence.",
		},
		"natcash": {
			Label: "NatCash",
			To:    "+509 35 95 8772 (NatCash Haiti Wallet)",
			How:   "Envoie via NatCash à ce numéro. Garde le reçu / code et mets-le dans la Référence.",
		},
		"interac": {
			Label: "Interac",
			To:    "438 454 8899",
			How:   "Envoie un virement Interac à ce numéro. Mets la référence (numéro/ID) dans la Référence.",
		},
	}
}

// Instructions resolves a top-up method; unknown methods fall back to Interac.
func (d PaymentDirectory) Instructions(method string) PaymentMethod {
	if pm, ok := d[strings.ToLower(strings.TrimSpace(method))]; ok {
		return pm
	}
	if pm, ok := d[fallbackMethod]; ok {
		return pm
	}
	return DefaultPayments()[fallbackMethod]
}
