package extract

import (
	"errors"
	"regexp"

	"github.com/nfemapa/nfe-extractor-service/internal/models"
)

// ErrNoRecords reports a dump with no invoice markers at all. Individual
// missing fields are never errors; this is the only caller-visible
// failure of a scan.
var ErrNoRecords = errors.New("no invoice markers found in text")

// Invoice marker: "Nº" (or "No") followed by a numeric identifier with
// optional dot/dash separators.
var reMarker = regexp.MustCompile(`(?i)\bN[ºo]\s*([0-9.\-]+)`)

// Scan runs a single forward pass over the dump and returns one Nota per
// detected marker, in document order. An invoice split across a page
// break yields one Nota per block; MergeContinuations repairs those.
func Scan(text string) ([]models.Nota, error) {
	lines := SplitLines(text)

	var notas []models.Nota
	var atual *models.Nota

	for i, line := range lines {
		if m := reMarker.FindStringSubmatch(line); m != nil {
			if atual != nil {
				notas = append(notas, *atual)
			}
			atual = &models.Nota{Numero: m[1]}
			continue
		}
		if atual == nil {
			continue
		}
		look := lookahead{lines: lines, pos: i + 1}
		for _, f := range fields {
			if f.get(atual) != "" {
				continue
			}
			for _, try := range f.strategies {
				if v, ok := try(line, look); ok {
					f.set(atual, v)
					break
				}
			}
		}
	}
	if atual != nil {
		notas = append(notas, *atual)
	}

	if len(notas) == 0 {
		return nil, ErrNoRecords
	}
	return notas, nil
}
