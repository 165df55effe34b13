package dataset

import (
	"strconv"
	"strings"
)

// missingTokens are cell values treated as absent, matching common CSV exporters.
var missingTokens = map[string]struct{}{
	"":         {},
	"NA":       {},
	"N/A":      {},
	"n/a":      {},
	"NaN":      {},
	"nan":      {},
	"-NaN":     {},
	"-nan":     {},
	"NULL":     {},
	"null":     {},
	"None":     {},
	"<NA>":     {},
	"#N/A":     {},
	"#NA":      {},
	"#N/A N/A": {},
	"1.#IND":   {},
	"-1.#IND":  {},
	"1.#QNAN":  {},
	"-1.#QNAN": {},
}

func isMissing(v string) bool {
	_, ok := missingTokens[v]
	return ok
}

// numberFormat is the separator pair used to read every cell of one column.
// A conflicting format rejects all cells, so the column stays text.
type numberFormat struct {
	dec      rune
	thou     rune
	conflict bool
}

// columnFormat resolves the separators for a column. Explicit options win;
// otherwise the present cells vote, and a column that shows both ',' and '.'
// as the decimal mark is a conflict.
func columnFormat(cells []string, opt Options) numberFormat {
	dec, thou := opt.DecimalSeparator, opt.ThousandsSeparator
	switch {
	case dec != 0 && thou == 0:
		thou = otherMark(dec)
	case dec == 0 && thou != 0:
		dec = otherMark(thou)
	}
	if dec != 0 {
		return numberFormat{dec: dec, thou: thou}
	}
	var commaDec, dotDec int
	for _, c := range cells {
		raw := trimSign(cleanNumber(c))
		commas, dots := strings.Count(raw, ","), strings.Count(raw, ".")
		switch {
		case commas > 0 && dots > 0:
			if strings.LastIndex(raw, ",") > strings.LastIndex(raw, ".") {
				commaDec++
			} else {
				dotDec++
			}
		case commas == 1 && !grouped(raw, ','):
			commaDec++
		case commas > 1 && grouped(raw, ','):
			dotDec++
		case dots == 1 && !grouped(raw, '.'):
			dotDec++
		case dots > 1 && grouped(raw, '.'):
			commaDec++
		}
	}
	switch {
	case commaDec > 0 && dotDec > 0:
		return numberFormat{conflict: true}
	case commaDec > 0:
		return numberFormat{dec: ',', thou: '.'}
	}
	// A lone "1,000" reads as a thousands group.
	return numberFormat{dec: '.', thou: ','}
}

// otherMark pairs a separator with its usual counterpart.
func otherMark(r rune) rune {
	if r == '.' {
		return ','
	}
	return '.'
}

// parse accepts plain and scientific notation, a trailing percent sign and
// thousands groups of exactly three digits in the integer part.
func (f numberFormat) parse(s string) (float64, bool) {
	raw := cleanNumber(s)
	if raw == "" || f.conflict {
		return 0, false
	}
	sign := ""
	if raw[0] == '-' || raw[0] == '+' {
		sign, raw = raw[:1], raw[1:]
	}
	decMark := string(f.dec)
	if strings.Count(raw, decMark) > 1 {
		return 0, false
	}
	intPart, frac, hasFrac := strings.Cut(raw, decMark)
	if f.thou != 0 && strings.ContainsRune(frac, f.thou) {
		return 0, false
	}
	for _, sep := range []rune{f.thou, ' '} {
		if sep == 0 || !strings.ContainsRune(intPart, sep) {
			continue
		}
		if !grouped(intPart, sep) {
			return 0, false
		}
		intPart = strings.ReplaceAll(intPart, string(sep), "")
	}
	num := sign + intPart
	if hasFrac {
		num += "." + frac
	}
	// ParseFloat also takes "Inf" and "NaN" spellings; a number needs a digit.
	if !strings.ContainsAny(num, "0123456789") {
		return 0, false
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func cleanNumber(s string) string {
	raw := strings.TrimSpace(s)
	raw = strings.TrimSuffix(raw, "%")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	return strings.TrimSpace(raw)
}

func trimSign(s string) string {
	return strings.TrimLeft(s, "+-")
}

// grouped reports whether s is digits split by sep into a lead group of one
// to three digits followed by groups of exactly three.
func grouped(s string, sep rune) bool {
	parts := strings.Split(s, string(sep))
	if len(parts) < 2 {
		return false
	}
	for i, p := range parts {
		if p == "" || !allDigits(p) {
			return false
		}
		if i == 0 && len(p) > 3 || i > 0 && len(p) != 3 {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
