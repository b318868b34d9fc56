// Package sheet reads values out of loosely-typed spreadsheet rows. Sheet
// column names drift (id_nasabah, ID Nasabah, idNasabah...), so lookups go
// through normalized-key matching instead of fixed field names, and amount
// cells may hold locale-formatted currency strings.
package sheet

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Record is one row of a sheet as decoded from the gateway JSON.
type Record = map[string]any

// normalizeKey lower-cases and strips whitespace, underscores and dots so
// "ID Nasabah", "id_nasabah" and "id.nasabah" all compare equal.
func normalizeKey(k string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(k) {
		switch {
		case r == '_' || r == '.':
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Keys gives a stable scan order; rows decoded from JSON would otherwise
// be visited in random map order.
func Keys(rec Record) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FindValue resolves the intended column for a list of candidate name
// patterns. Exact normalized-key matches always win over partial matches
// (substring in either direction), regardless of scan order.
func FindValue(rec Record, patterns []string) (any, bool) {
	if len(rec) == 0 {
		return nil, false
	}
	keys := Keys(rec)

	normPatterns := make([]string, len(patterns))
	for i, p := range patterns {
		normPatterns[i] = normalizeKey(p)
	}

	for _, k := range keys {
		nk := normalizeKey(k)
		for _, np := range normPatterns {
			if nk == np {
				return rec[k], true
			}
		}
	}
	for _, k := range keys {
		nk := normalizeKey(k)
		for _, np := range normPatterns {
			if np == "" || nk == "" {
				continue
			}
			if strings.Contains(nk, np) || strings.Contains(np, nk) {
				return rec[k], true
			}
		}
	}
	return nil, false
}

// String resolves a pattern list to a trimmed string ("" when absent).
func String(rec Record, patterns []string) string {
	v, ok := FindValue(rec, patterns)
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(Stringify(v))
}

// Number resolves a pattern list through CleanNumber.
func Number(rec Record, patterns []string) float64 {
	v, ok := FindValue(rec, patterns)
	if !ok {
		return 0
	}
	return CleanNumber(v)
}

// Tables converts a decoded JSON data map into typed record lists keyed
// by sheet name. Non-array values and non-object rows are dropped.
func Tables(data map[string]any) map[string][]Record {
	out := make(map[string][]Record, len(data))
	for name, v := range data {
		rows, ok := v.([]any)
		if !ok {
			continue
		}
		list := make([]Record, 0, len(rows))
		for _, row := range rows {
			if rec, ok := row.(map[string]any); ok {
				list = append(list, Record(rec))
			}
		}
		out[name] = list
	}
	return out
}

// Stringify renders a cell value the way the sheet displays it; floats
// that are whole numbers drop the trailing ".0" JSON decoding adds.
func Stringify(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case float64:
		if n == float64(int64(n)) {
			return strconv.FormatInt(int64(n), 10)
		}
		return strconv.FormatFloat(n, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(n)
	default:
		return fmt.Sprint(v)
	}
}

var (
	reRupiah       = regexp.MustCompile(`(?i)rp`)
	reDotThousand  = regexp.MustCompile(`\.\d{3}`)
	reCommaGrouped = regexp.MustCompile(`,\d{3}`)
	reNumResidue   = regexp.MustCompile(`[^0-9.\-]`)
)

// CleanNumber parses an amount cell that may be numeric or a
// locale-formatted currency string. Empty and unparseable values resolve
// to 0 so one malformed cell never aborts a batch.
//
// Separator disambiguation: when both '.' and ',' occur, the more
// frequent one is the thousands separator; a lone separator type is
// treated as thousands grouping only when followed by three digits.
func CleanNumber(v any) float64 {
	var s string
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		s = n
	default:
		s = fmt.Sprint(v)
	}

	s = strings.TrimSpace(reRupiah.ReplaceAllString(s, ""))
	if s == "" {
		return 0
	}

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")
	switch {
	case hasDot && hasComma:
		dots := strings.Count(s, ".")
		commas := strings.Count(s, ",")
		if dots > commas {
			// 1.250.000,50 -> dot groups thousands, comma is decimal
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			// 1,250,000.50 -> comma groups thousands
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasDot && reDotThousand.MatchString(s):
		s = strings.ReplaceAll(s, ".", "") // 25.000 IDR style
	case hasComma && reCommaGrouped.MatchString(s):
		s = strings.ReplaceAll(s, ",", "") // 25,000 US style
	}

	cleaned := reNumResidue.ReplaceAllString(s, "")
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return parsed
}
