// Package zone classifies Pernambuco destination municipalities per the
// IBGE capital / metropolitan-region membership and assigns the flat
// shipping fee each zone carries.
package zone

import (
	"github.com/shopspring/decimal"

	"github.com/nfemapa/nfe-extractor-service/internal/normalize"
)

const (
	Capital       = "Capital"
	Metropolitana = "Metropolitana"
	Outros        = "Outros"
)

var (
	FreteCapital       = decimal.RequireFromString("165.00")
	FreteMetropolitana = decimal.RequireFromString("170.50")
)

var capitalIBGE = map[string]bool{
	"RECIFE": true,
}

// RMR membership per IBGE, accent-stripped uppercase.
var rmrIBGE = map[string]bool{
	"RECIFE":                  true,
	"OLINDA":                  true,
	"JABOATAO DOS GUARARAPES": true,
	"PAULISTA":                true,
	"CABO DE SANTO AGOSTINHO": true,
	"IPOJUCA":                 true,
	"CAMARAGIBE":              true,
	"SAO LOURENCO DA MATA":    true,
	"ABREU E LIMA":            true,
	"IGARASSU":                true,
	"ITAPISSUMA":              true,
	"ARACOIABA":               true,
	"MORENO":                  true,
	"ILHA DE ITAMARACA":       true,
}

// Classify maps a municipality name to its zone and flat freight fee.
// The fee is nil for Outros. Classification is total: any input yields a
// result, matching is insensitive to case, accents and padding.
func Classify(municipio string) (string, *decimal.Decimal) {
	key := normalize.StripAccentsUpper(municipio)
	if capitalIBGE[key] {
		fee := FreteCapital
		return Capital, &fee
	}
	if rmrIBGE[key] {
		fee := FreteMetropolitana
		return Metropolitana, &fee
	}
	return Outros, nil
}
