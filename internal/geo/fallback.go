package geo

import (
	"github.com/nfemapa/nfe-extractor-service/internal/models"
	"github.com/nfemapa/nfe-extractor-service/internal/normalize"
)

// Hand-curated coordinates for the RMR municipalities plus the spelling
// variants that show up in the dumps. Consulted before any network
// geocoding attempt.
var fallbackRaw = map[string]models.GeoPoint{
	"RECIFE, PE":                   {Lat: -8.0476, Lon: -34.8770},
	"OLINDA, PE":                   {Lat: -8.0101, Lon: -34.8545},
	"JABOATÃO DOS GUARARAPES, PE":  {Lat: -8.1120, Lon: -35.0140},
	"PAULISTA, PE":                 {Lat: -7.9400, Lon: -34.8731},
	"CABO DE SANTO AGOSTINHO, PE":  {Lat: -8.2822, Lon: -35.0320},
	"IPOJUCA, PE":                  {Lat: -8.3983, Lon: -35.0639},
	"CAMARAGIBE, PE":               {Lat: -8.0207, Lon: -34.9786},
	"SÃO LOURENÇO DA MATA, PE":     {Lat: -8.0062, Lon: -35.0199},
	"ABREU E LIMA, PE":             {Lat: -7.9007, Lon: -34.9027},
	"IGARASSU, PE":                 {Lat: -7.8340, Lon: -34.9069},
	"ITAPISSUMA, PE":               {Lat: -7.7750, Lon: -34.8954},
	"ARAÇOIABA, PE":                {Lat: -7.7913, Lon: -35.0800},
	"MORENO, PE":                   {Lat: -8.1180, Lon: -35.0920},
	"ILHA DE ITAMARACÁ, PE":        {Lat: -7.7478, Lon: -34.8332},
	// variants
	"JABOATAO DOS GUARARAPES, PE": {Lat: -8.1120, Lon: -35.0140},
	"ILHA DE ITAMARACA, PE":       {Lat: -7.7478, Lon: -34.8332},
	"SAO LOURENCO DA MATA, PE":    {Lat: -8.0062, Lon: -35.0199},
	"PAULISTA, PERNAMBUCO":        {Lat: -7.9400, Lon: -34.8731},
}

var fallbackNorm = func() map[string]models.GeoPoint {
	m := make(map[string]models.GeoPoint, len(fallbackRaw))
	for k, v := range fallbackRaw {
		m[normalize.StripAccentsUpper(k)] = v
	}
	return m
}()

// lookupFallback checks the static table under the accent-stripped key.
func lookupFallback(key string) (models.GeoPoint, bool) {
	p, ok := fallbackNorm[normalize.StripAccentsUpper(key)]
	return p, ok
}
