package extract

import (
	"regexp"
	"strings"

	"github.com/nfemapa/nfe-extractor-service/internal/models"
)

// Brazilian-formatted number: thousands '.', decimals ','.
const numBR = `(\d{1,3}(?:\.\d{3})*(?:,\d+)?|\d+(?:,\d+)?)`

var (
	reLabelNome      = regexp.MustCompile(`(?i)^NOME\s*/\s*RAZÃO SOCIAL$`)
	reLabelEndereco  = regexp.MustCompile(`(?i)^ENDEREÇO$`)
	reLabelBairro    = regexp.MustCompile(`(?i)^BAIRRO\s*/\s*DISTRITO$`)
	reLabelMunicipio = regexp.MustCompile(`(?i)^MUNICÍPIO$`)
	reLabelValor     = regexp.MustCompile(`(?i)^VALOR TOTAL DA NOTA$`)
	reLabelPeso      = regexp.MustCompile(`(?i)^PESO\s+BRUTO$`)
	reLabelTelefone  = regexp.MustCompile(`(?i)^TELEFONE\s*/\s*FAX$`)

	reMunicipioCut = regexp.MustCompile(`\bUF\b|CEP|\bPE\b|\d{2}:\d{2}:\d{2}`)
	reNumBR        = regexp.MustCompile(numBR)
	rePesoInline   = regexp.MustCompile(`(?i)\bPESO\s+BRUTO\b.*?` + numBR)
	reVolumes      = regexp.MustCompile(`(?i)(\d+)\s+VOLUMES`)
	reQuantidade   = regexp.MustCompile(`(?i)\bQUANTIDADE\b`)
	reBareInt      = regexp.MustCompile(`\b(\d+)\b`)
	reCEP          = regexp.MustCompile(`\b\d{5}-\d{3}\b`)
	reTelReject    = regexp.MustCompile(`(?i)^(?:INSCRIÇÃO|DESTINAT[ÁA]RIO)`)
	reInscEstadual = regexp.MustCompile(`(?i)INSCRIÇÃO\s+ESTADUAL`)
	reTelefone2    = regexp.MustCompile(`(?i)TELEFONE\s*2\s*:\s*([^;]*)`)
)

// strategy inspects the current line (and a bounded forward view) and
// yields at most one value for its field.
type strategy func(line string, look lookahead) (string, bool)

// field binds a Nota attribute to its ordered strategy list. Strategies
// are tried in order and only while the attribute is still unset, so the
// first successful one wins for the lifetime of the record.
type field struct {
	get        func(*models.Nota) string
	set        func(*models.Nota, string)
	strategies []strategy
}

// labelLine yields the first non-empty lookahead line after an exact
// (case-insensitive) label line.
func labelLine(label *regexp.Regexp, maxLook int) strategy {
	return func(line string, look lookahead) (string, bool) {
		if !label.MatchString(line) {
			return "", false
		}
		if v := look.next(maxLook); v != "" {
			return v, true
		}
		return "", false
	}
}

func matchNome(line string, look lookahead) (string, bool) {
	return labelLine(reLabelNome, 15)(line, look)
}

func matchEndereco(line string, look lookahead) (string, bool) {
	return labelLine(reLabelEndereco, 15)(line, look)
}

func matchBairro(line string, look lookahead) (string, bool) {
	return labelLine(reLabelBairro, 15)(line, look)
}

// matchMunicipio takes the value line after the MUNICÍPIO label and
// truncates it at the first UF/CEP/"PE" token or embedded HH:MM:SS stamp.
// If truncation eats everything, the untruncated value stands.
func matchMunicipio(line string, look lookahead) (string, bool) {
	v, ok := labelLine(reLabelMunicipio, 15)(line, look)
	if !ok {
		return "", false
	}
	clean := v
	if loc := reMunicipioCut.FindStringIndex(v); loc != nil {
		clean = v[:loc[0]]
	}
	clean = strings.Trim(clean, " -")
	if clean == "" {
		clean = v
	}
	return clean, true
}

// matchValorTotal pulls the first Brazilian-formatted numeric token from
// the value line, shedding any "R$" prefix.
func matchValorTotal(line string, look lookahead) (string, bool) {
	v, ok := labelLine(reLabelValor, 15)(line, look)
	if !ok {
		return "", false
	}
	val := v
	if m := reNumBR.FindStringSubmatch(v); m != nil {
		val = m[1]
	}
	return strings.TrimSpace(strings.ReplaceAll(val, "R$", "")), true
}

// Three-tier PESO BRUTO fallback: label block, inline mention, then the
// last numeric token on VOLUME/NUMERAÇÃO lines.
func matchPesoLabel(line string, look lookahead) (string, bool) {
	v, ok := labelLine(reLabelPeso, 10)(line, look)
	if !ok {
		return "", false
	}
	if m := reNumBR.FindStringSubmatch(v); m != nil {
		return m[1], true
	}
	return "", false
}

func matchPesoInline(line string, _ lookahead) (string, bool) {
	if m := rePesoInline.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	return "", false
}

func matchPesoVolumeLine(line string, _ lookahead) (string, bool) {
	up := strings.ToUpper(line)
	if !strings.Contains(up, "VOLUME") && !strings.Contains(up, "NUMERAÇÃO") {
		return "", false
	}
	all := reNumBR.FindAllString(line, -1)
	if len(all) == 0 {
		return "", false
	}
	return all[len(all)-1], true
}

// Two-tier QUANTIDADE: "<N> VOLUMES" inline, else the QUANTIDADE label
// with "<N> VOLUMES" or a bare integer within five lines.
func matchQuantidadeInline(line string, _ lookahead) (string, bool) {
	if m := reVolumes.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	return "", false
}

func matchQuantidadeLabel(line string, look lookahead) (string, bool) {
	if !reQuantidade.MatchString(line) {
		return "", false
	}
	v := look.next(5)
	if m := reVolumes.FindStringSubmatch(v); m != nil {
		return m[1], true
	}
	if m := reBareInt.FindStringSubmatch(v); m != nil {
		return m[1], true
	}
	return "", false
}

// CEP: a lone "CEP" label searches the lookahead window; otherwise the
// current line is searched directly for the exact NNNNN-NNN token.
func matchCEPLabel(line string, look lookahead) (string, bool) {
	if !strings.EqualFold(line, "CEP") {
		return "", false
	}
	if cep := reCEP.FindString(look.next(15)); cep != "" {
		return cep, true
	}
	return "", false
}

func matchCEPInline(line string, _ lookahead) (string, bool) {
	if strings.EqualFold(line, "CEP") {
		return "", false
	}
	if cep := reCEP.FindString(line); cep != "" {
		return cep, true
	}
	return "", false
}

// TELEFONE / FAX label block. The lookahead value is rejected when the
// next block already started (INSCRIÇÃO / DESTINATÁRIO headers).
func matchTelefoneLabel(line string, look lookahead) (string, bool) {
	if !reLabelTelefone.MatchString(line) {
		return "", false
	}
	v := look.next(6)
	if reTelReject.MatchString(v) {
		return "", false
	}
	if tel := FindPhone(v); tel != "" {
		return tel, true
	}
	if tel := FindPhone(line); tel != "" {
		return tel, true
	}
	return "", false
}

func matchTelefoneInline(line string, _ lookahead) (string, bool) {
	if !strings.Contains(strings.ToUpper(line), "TELEFONE / FAX") {
		return "", false
	}
	if reInscEstadual.MatchString(line) {
		return "", false
	}
	if tel := FindPhone(line); tel != "" {
		return tel, true
	}
	return "", false
}

// TELEFONE 2 only appears on tracking lines ("RASTREAMENTO", "ENTREGAID")
// or with its own literal marker; the value runs to the next semicolon.
func matchTelefone2(line string, _ lookahead) (string, bool) {
	up := strings.ToUpper(line)
	if !strings.Contains(up, "RASTREAMENTO") &&
		!strings.Contains(up, "ENTREGAID") &&
		!strings.Contains(up, "TELEFONE 2") {
		return "", false
	}
	m := reTelefone2.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	valor := strings.TrimSpace(m[1])
	if valor == "" {
		return "", false
	}
	if tel := FindPhone(valor); tel != "" {
		return tel, true
	}
	return "", false
}

// fields is the fixed dispatch order the scanner offers every line to.
var fields = []field{
	{
		get: func(n *models.Nota) string { return n.Nome },
		set: func(n *models.Nota, v string) { n.Nome = v },
		strategies: []strategy{matchNome},
	},
	{
		get: func(n *models.Nota) string { return n.Endereco },
		set: func(n *models.Nota, v string) { n.Endereco = v },
		strategies: []strategy{matchEndereco},
	},
	{
		get: func(n *models.Nota) string { return n.Bairro },
		set: func(n *models.Nota, v string) { n.Bairro = v },
		strategies: []strategy{matchBairro},
	},
	{
		get: func(n *models.Nota) string { return n.Municipio },
		set: func(n *models.Nota, v string) { n.Municipio = v },
		strategies: []strategy{matchMunicipio},
	},
	{
		get: func(n *models.Nota) string { return n.ValorTotal },
		set: func(n *models.Nota, v string) { n.ValorTotal = v },
		strategies: []strategy{matchValorTotal},
	},
	{
		get: func(n *models.Nota) string { return n.PesoBruto },
		set: func(n *models.Nota, v string) { n.PesoBruto = v },
		strategies: []strategy{matchPesoLabel, matchPesoInline, matchPesoVolumeLine},
	},
	{
		get: func(n *models.Nota) string { return n.Quantidade },
		set: func(n *models.Nota, v string) { n.Quantidade = v },
		strategies: []strategy{matchQuantidadeInline, matchQuantidadeLabel},
	},
	{
		get: func(n *models.Nota) string { return n.CEP },
		set: func(n *models.Nota, v string) { n.CEP = v },
		strategies: []strategy{matchCEPLabel, matchCEPInline},
	},
	{
		get: func(n *models.Nota) string { return n.Telefone },
		set: func(n *models.Nota, v string) { n.Telefone = v },
		strategies: []strategy{matchTelefoneLabel, matchTelefoneInline},
	},
	{
		get: func(n *models.Nota) string { return n.Telefone2 },
		set: func(n *models.Nota, v string) { n.Telefone2 = v },
		strategies: []strategy{matchTelefone2},
	},
}
