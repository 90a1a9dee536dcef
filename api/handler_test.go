package api

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nfemapa/nfe-extractor-service/internal/extract"
	"github.com/nfemapa/nfe-extractor-service/internal/geo"
	"github.com/nfemapa/nfe-extractor-service/internal/models"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	cache := geo.NewCache(filepath.Join(t.TempDir(), "geocache.json"))
	resolver := geo.NewResolver(cache, nil, time.Second)
	config := &models.Config{Port: 8080, Host: "127.0.0.1"}
	return NewHandler(config, cache, resolver)
}

// A page break splits one invoice into two blocks with the same number;
// the pipeline must hand back a single classified row.
func TestProcessTextMergedRecord(t *testing.T) {
	h := newTestHandler(t)

	dump := strings.Join([]string{
		"Nº 000123",
		"NOME / RAZÃO SOCIAL",
		"DISTRIBUIDORA ATLANTICO LTDA",
		"CEP",
		"54410-300",
		"--- quebra de página ---",
		"Nº 000123",
		"MUNICÍPIO",
		"JABOATÃO DOS GUARARAPES",
		"VALOR TOTAL DA NOTA",
		"2.500,00",
	}, "\n")

	result, err := h.processText(dump)
	if err != nil {
		t.Fatalf("processText returned error: %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("rows = %d, want 1 merged record", len(result.Rows))
	}

	row := result.Rows[0]
	if row.Numero != "000123" {
		t.Errorf("Numero = %q, want 000123", row.Numero)
	}
	if row.Nome != "DISTRIBUIDORA ATLANTICO LTDA" {
		t.Errorf("Nome = %q, want backfill from first block", row.Nome)
	}
	if row.CEP != "54410-300" {
		t.Errorf("CEP = %q, want backfill from first block", row.CEP)
	}
	if row.Municipio != "JABOATÃO DOS GUARARAPES" {
		t.Errorf("Municipio = %q", row.Municipio)
	}
	if row.ValorTotal != "2.500,00" {
		t.Errorf("ValorTotal = %q", row.ValorTotal)
	}
	if row.Zona != "Metropolitana" {
		t.Errorf("Zona = %q, want Metropolitana", row.Zona)
	}
	if row.ValorFrete == nil || !row.ValorFrete.Equal(decimal.RequireFromString("170.50")) {
		t.Errorf("ValorFrete = %v, want 170.50", row.ValorFrete)
	}

	k := result.KPIs
	if k.NotasExtraidas != 1 || k.Metropolitana != 1 || k.Capital != 0 || k.Outros != 0 {
		t.Errorf("KPIs = %+v", k)
	}
	if k.MunicipiosDistintos != 1 {
		t.Errorf("MunicipiosDistintos = %d, want 1", k.MunicipiosDistintos)
	}
	if !k.TotalFrete.Equal(decimal.RequireFromString("170.50")) {
		t.Errorf("TotalFrete = %s, want 170.50", k.TotalFrete)
	}
}

func TestProcessTextZoneTotals(t *testing.T) {
	h := newTestHandler(t)

	dump := strings.Join([]string{
		"Nº 1", "MUNICÍPIO", "RECIFE",
		"Nº 2", "MUNICÍPIO", "OLINDA",
		"Nº 3", "MUNICÍPIO", "GARANHUNS",
	}, "\n")

	result, err := h.processText(dump)
	if err != nil {
		t.Fatalf("processText returned error: %v", err)
	}
	k := result.KPIs
	if k.NotasExtraidas != 3 || k.Capital != 1 || k.Metropolitana != 1 || k.Outros != 1 {
		t.Errorf("KPIs = %+v", k)
	}
	if k.MunicipiosDistintos != 3 {
		t.Errorf("MunicipiosDistintos = %d, want 3", k.MunicipiosDistintos)
	}
	if !k.TotalFrete.Equal(decimal.RequireFromString("335.50")) {
		t.Errorf("TotalFrete = %s, want 335.50", k.TotalFrete)
	}
}

func TestProcessTextNoRecords(t *testing.T) {
	h := newTestHandler(t)
	_, err := h.processText("relatório sem marcadores de nota fiscal\n")
	if !errors.Is(err, extract.ErrNoRecords) {
		t.Fatalf("expected ErrNoRecords, got %v", err)
	}
}

func TestBuildMapPoints(t *testing.T) {
	h := newTestHandler(t)

	rows := []models.NotaRow{
		{Nota: models.Nota{Municipio: "JABOATÃO DOS GUARARAPES"}, Zona: "Metropolitana"},
		{Nota: models.Nota{Municipio: "Jaboatao dos Guararapes"}, Zona: "Metropolitana"},
		{Nota: models.Nota{Municipio: "GARANHUNS"}, Zona: "Outros"},
		{Nota: models.Nota{Municipio: ""}, Zona: "Outros"},
	}

	points, naoPlotados := h.buildMapPoints(context.Background(), rows)

	if len(points) != 1 {
		t.Fatalf("points = %d, want 1 (spelling variants collapse)", len(points))
	}
	p := points[0]
	if p.Entregas != 2 {
		t.Errorf("Entregas = %d, want 2", p.Entregas)
	}
	if p.Municipio != "JABOATÃO DOS GUARARAPES, PE" {
		t.Errorf("Municipio = %q", p.Municipio)
	}
	if p.Zona != "Metropolitana" {
		t.Errorf("Zona = %q", p.Zona)
	}
	if p.Lat == 0 || p.Lon == 0 {
		t.Errorf("coordinates not resolved: %+v", p)
	}

	// Without a geocoder, interior cities stay off the map.
	if len(naoPlotados) != 1 || naoPlotados[0] != "GARANHUNS" {
		t.Errorf("naoPlotados = %v, want [GARANHUNS]", naoPlotados)
	}
}

func TestRowToColumns(t *testing.T) {
	frete := decimal.RequireFromString("165.00")
	row := models.NotaRow{
		Nota:       models.Nota{Numero: "42", Municipio: "RECIFE"},
		Zona:       "Capital",
		ValorFrete: &frete,
	}
	out := rowToColumns(&row)
	if out["Nº"] != "42" || out["MUNICÍPIO"] != "RECIFE" {
		t.Errorf("columns = %v", out)
	}
	if out["ZONA"] != "Capital" || out["VALOR FRETE"] != "165.00" {
		t.Errorf("zone columns = %q, %q", out["ZONA"], out["VALOR FRETE"])
	}
	if out["TELEFONE 2"] != "" {
		t.Errorf("absent field = %q, want empty", out["TELEFONE 2"])
	}
}
