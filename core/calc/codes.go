package calc

import "strings"

// ParseCodeSet parses a secondary-procedure-code field. Two source formats
// exist: a bracketed list ("[34.91, 96.04]") and a semicolon-delimited list
// ("34.91;96.04"). The bracketed form takes precedence when present.
func ParseCodeSet(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var parts []string
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		parts = strings.Split(raw[1:len(raw)-1], ",")
	} else {
		parts = strings.Split(raw, ";")
	}

	var codes []string
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `"'`)
		if p != "" {
			codes = append(codes, p)
		}
	}
	return codes
}

// CollectProcedureCodes assembles the lookup set for the technology
// surcharge: the primary procedure code plus the parsed secondary set.
func CollectProcedureCodes(primary, secondary string) []string {
	var codes []string
	if p := strings.TrimSpace(primary); p != "" {
		codes = append(codes, p)
	}
	return append(codes, ParseCodeSet(secondary)...)
}

// MatchesCodeField reports whether code matches a semicolon-joined reference
// code field. Four patterns match: the whole field, the segment before the
// first semicolon, a segment between semicolons, and the segment after the
// last semicolon.
func MatchesCodeField(field, code string) bool {
	return field == code ||
		strings.HasPrefix(field, code+";") ||
		strings.Contains(field, ";"+code+";") ||
		strings.HasSuffix(field, ";"+code)
}
