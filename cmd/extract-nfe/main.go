// Command extract-nfe runs the extraction pipeline offline: TXT dump in,
// XLSX and/or JSON out, KPI summary on stdout. Network geocoding is off
// unless -geocode is given; the static fallback table always applies.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nfemapa/nfe-extractor-service/internal/export"
	"github.com/nfemapa/nfe-extractor-service/internal/extract"
	"github.com/nfemapa/nfe-extractor-service/internal/geo"
	"github.com/nfemapa/nfe-extractor-service/internal/models"
	"github.com/nfemapa/nfe-extractor-service/internal/normalize"
	"github.com/nfemapa/nfe-extractor-service/internal/zone"
)

func main() {
	var (
		inPath    = flag.String("in", "", "input TXT dump (required)")
		xlsxPath  = flag.String("xlsx", "", "write XLSX workbook to this path")
		jsonPath  = flag.String("json", "", "write rows as JSON to this path")
		cacheFile = flag.String("geocache", "geocache_pe.json", "coordinate cache file")
		geocode   = flag.Bool("geocode", false, "query Nominatim for unknown municipalities")
	)
	flag.Parse()

	if *inPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	raw, err := os.ReadFile(*inPath)
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}
	text := strings.ToValidUTF8(string(raw), "�")

	notas, err := extract.Scan(text)
	if err != nil {
		log.Fatalf("Extraction failed: %v", err)
	}
	merged := extract.MergeContinuations(notas)

	rows := make([]models.NotaRow, 0, len(merged))
	totalFrete := decimal.Zero
	distinct := map[string]int{}
	for _, n := range merged {
		z, fee := zone.Classify(n.Municipio)
		rows = append(rows, models.NotaRow{Nota: n, Zona: z, ValorFrete: fee})
		if fee != nil {
			totalFrete = totalFrete.Add(*fee)
		}
		if mun := normalize.SanitizeMunicipality(n.Municipio); mun != "" {
			distinct[normalize.StripAccentsUpper(mun)]++
		}
	}

	log.Printf("Notas extraídas: %d", len(rows))
	log.Printf("Municípios distintos: %d", len(distinct))
	log.Printf("Valor total de frete: R$ %s", totalFrete.StringFixed(2))

	if *xlsxPath != "" {
		data, err := export.BuildXLSX(rows)
		if err != nil {
			log.Fatalf("Failed to build XLSX: %v", err)
		}
		if err := os.WriteFile(*xlsxPath, data, 0o644); err != nil {
			log.Fatalf("Failed to write XLSX: %v", err)
		}
		log.Printf("Wrote %s", *xlsxPath)
	}

	if *jsonPath != "" {
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			log.Fatalf("Failed to marshal rows: %v", err)
		}
		if err := os.WriteFile(*jsonPath, data, 0o644); err != nil {
			log.Fatalf("Failed to write JSON: %v", err)
		}
		log.Printf("Wrote %s", *jsonPath)
	}

	// Coordinate resolution summary for the map collaborator
	cache := geo.NewCache(*cacheFile)
	cache.Load()
	var geocoder geo.Geocoder
	if *geocode {
		geocoder = geo.NewNominatimClient(models.GeocodingConfig{})
	}
	resolver := geo.NewResolver(cache, geocoder, time.Second)

	ctx := context.Background()
	var naoPlotados []string
	plotted := 0
	for _, r := range rows {
		mun := normalize.SanitizeMunicipality(r.Municipio)
		if mun == "" {
			continue
		}
		if _, ok := resolver.Resolve(ctx, mun); ok {
			plotted++
		} else {
			naoPlotados = append(naoPlotados, mun)
		}
	}
	log.Printf("Notas com destino plotável: %d", plotted)
	if len(naoPlotados) > 0 {
		fmt.Fprintf(os.Stderr, "Municípios sem coordenadas: %s\n", strings.Join(naoPlotados, ", "))
	}
}
