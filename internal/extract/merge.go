package extract

import (
	"strings"

	"github.com/nfemapa/nfe-extractor-service/internal/models"
)

// MergeContinuations repairs invoices whose fields were split across a
// page break. Whenever two adjacent records share an invoice number, the
// later block's values win and the earlier block backfills whatever is
// still blank; the pair collapses into one record. Only one level of
// merge is performed: a number split across three or more consecutive
// blocks keeps its third block as a separate record.
func MergeContinuations(notas []models.Nota) []models.Nota {
	out := make([]models.Nota, 0, len(notas))
	for i := 0; i < len(notas); i++ {
		if i+1 < len(notas) && notas[i+1].Numero == notas[i].Numero {
			out = append(out, mergePair(notas[i], notas[i+1]))
			i++
			continue
		}
		out = append(out, notas[i])
	}
	return out
}

// mergePair starts from the continuation block and backfills blanks from
// the first block. The shared number is immutable across the merge.
func mergePair(first, cont models.Nota) models.Nota {
	merged := cont
	merged.Numero = first.Numero
	backfill(&merged.PesoBruto, first.PesoBruto)
	backfill(&merged.Quantidade, first.Quantidade)
	backfill(&merged.Telefone, first.Telefone)
	backfill(&merged.Telefone2, first.Telefone2)
	backfill(&merged.Nome, first.Nome)
	backfill(&merged.Endereco, first.Endereco)
	backfill(&merged.Bairro, first.Bairro)
	backfill(&merged.Municipio, first.Municipio)
	backfill(&merged.CEP, first.CEP)
	backfill(&merged.ValorTotal, first.ValorTotal)
	return merged
}

func backfill(dst *string, src string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = src
	}
}
