package extract

import (
	"testing"

	"github.com/nfemapa/nfe-extractor-service/internal/models"
)

func TestMergeContinuationsPair(t *testing.T) {
	first := models.Nota{
		Numero:   "000123",
		Nome:     "COMERCIAL EXEMPLO LTDA",
		CEP:      "54410-300",
		Telefone: "(81)3456-1234",
	}
	cont := models.Nota{
		Numero:    "000123",
		Nome:      "COMERCIAL EXEMPLO LTDA ME",
		Municipio: "JABOATÃO DOS GUARARAPES",
		PesoBruto: "120,000",
	}

	out := MergeContinuations([]models.Nota{first, cont})
	if len(out) != 1 {
		t.Fatalf("expected 1 merged record, got %d", len(out))
	}

	m := out[0]
	if m.Numero != "000123" {
		t.Errorf("Numero = %q, want %q", m.Numero, "000123")
	}
	// Continuation values win when both blocks carry the field.
	if m.Nome != "COMERCIAL EXEMPLO LTDA ME" {
		t.Errorf("Nome = %q, want continuation value", m.Nome)
	}
	if m.Municipio != "JABOATÃO DOS GUARARAPES" {
		t.Errorf("Municipio = %q, want continuation value", m.Municipio)
	}
	if m.PesoBruto != "120,000" {
		t.Errorf("PesoBruto = %q, want continuation value", m.PesoBruto)
	}
	// Blanks in the continuation backfill from the first block.
	if m.CEP != "54410-300" {
		t.Errorf("CEP = %q, want backfilled %q", m.CEP, "54410-300")
	}
	if m.Telefone != "(81)3456-1234" {
		t.Errorf("Telefone = %q, want backfilled value", m.Telefone)
	}
}

func TestMergeContinuationsPairwiseOnly(t *testing.T) {
	in := []models.Nota{
		{Numero: "7", Nome: "A"},
		{Numero: "7", Nome: "B"},
		{Numero: "7", Nome: "C"},
	}
	out := MergeContinuations(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 records (one merged pair plus leftover), got %d", len(out))
	}
	if out[0].Nome != "B" {
		t.Errorf("merged pair Nome = %q, want %q", out[0].Nome, "B")
	}
	if out[1].Nome != "C" {
		t.Errorf("leftover Nome = %q, want %q", out[1].Nome, "C")
	}
}

func TestMergeContinuationsNonAdjacent(t *testing.T) {
	in := []models.Nota{
		{Numero: "1", Nome: "A"},
		{Numero: "2", Nome: "B"},
		{Numero: "1", Nome: "C"},
	}
	out := MergeContinuations(in)
	if len(out) != 3 {
		t.Fatalf("non-adjacent duplicates must not merge, got %d records", len(out))
	}
}

func TestMergeContinuationsWhitespaceBlank(t *testing.T) {
	in := []models.Nota{
		{Numero: "5", Bairro: "BOA VISTA"},
		{Numero: "5", Bairro: "   "},
	}
	out := MergeContinuations(in)
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	if out[0].Bairro != "BOA VISTA" {
		t.Errorf("Bairro = %q, want whitespace treated as blank and backfilled", out[0].Bairro)
	}
}

func TestMergeContinuationsNoPairs(t *testing.T) {
	in := []models.Nota{{Numero: "1"}, {Numero: "2"}}
	out := MergeContinuations(in)
	if len(out) != 2 {
		t.Fatalf("expected passthrough, got %d records", len(out))
	}
	if out := MergeContinuations(nil); len(out) != 0 {
		t.Fatalf("expected empty output for empty input, got %d", len(out))
	}
}
