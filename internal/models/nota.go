package models

import (
	"github.com/shopspring/decimal"
)

// Nota represents one invoice record pulled out of the text dump. Every
// field except Numero starts empty and is filled at most once during a
// scan pass; values are kept exactly as they appeared in the document
// (Brazilian number formatting included).
type Nota struct {
	Numero     string `json:"numero"`      // Nº
	Nome       string `json:"nome"`        // NOME / RAZÃO SOCIAL
	Endereco   string `json:"endereco"`    // ENDEREÇO
	Bairro     string `json:"bairro"`      // BAIRRO / DISTRITO
	Municipio  string `json:"municipio"`   // MUNICÍPIO (cleaned)
	CEP        string `json:"cep"`         // CEP
	ValorTotal string `json:"valor_total"` // VALOR TOTAL DA NOTA
	Quantidade string `json:"quantidade"`  // QUANTIDADE (unit count)
	PesoBruto  string `json:"peso_bruto"`  // PESO BRUTO
	Telefone   string `json:"telefone"`    // TELEFONE / FAX
	Telefone2  string `json:"telefone2"`   // TELEFONE 2
}

// NotaRow is a Nota after zone classification, in the exact column set
// handed to the tabular-export collaborator.
type NotaRow struct {
	Nota
	Zona       string           `json:"zona"`
	ValorFrete *decimal.Decimal `json:"valor_frete"` // nil for zone Outros
}

// Columns is the export column order. Absent fields serialize as empty.
var Columns = []string{
	"Nº",
	"NOME / RAZÃO SOCIAL",
	"ENDEREÇO",
	"BAIRRO / DISTRITO",
	"MUNICÍPIO",
	"CEP",
	"VALOR TOTAL DA NOTA",
	"QUANTIDADE",
	"PESO BRUTO",
	"TELEFONE / FAX",
	"TELEFONE 2",
	"ZONA",
	"VALOR FRETE",
}

// Values returns the row's cells in Columns order.
func (r *NotaRow) Values() []string {
	frete := ""
	if r.ValorFrete != nil {
		frete = r.ValorFrete.StringFixed(2)
	}
	return []string{
		r.Numero, r.Nome, r.Endereco, r.Bairro, r.Municipio, r.CEP,
		r.ValorTotal, r.Quantidade, r.PesoBruto, r.Telefone, r.Telefone2,
		r.Zona, frete,
	}
}

// GeoPoint is a WGS 84 coordinate for a "municipality, state" key.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// MapPoint is one plotted destination for the map-rendering collaborator.
type MapPoint struct {
	Municipio string  `json:"municipio"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Zona      string  `json:"zona"`
	Entregas  int     `json:"entregas"`
}

// KPIs summarizes one extraction run.
type KPIs struct {
	NotasExtraidas      int             `json:"notas_extraidas"`
	MunicipiosDistintos int             `json:"municipios_distintos"`
	Capital             int             `json:"capital"`
	Metropolitana       int             `json:"metropolitana"`
	Outros              int             `json:"outros"`
	TotalFrete          decimal.Decimal `json:"total_frete"`
}
