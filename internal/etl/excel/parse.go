// warehouse-go/internal/etl/excel/parse.go
package excel

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/alkana/warehouse-go/internal/domain"
)

// headerStrip lists the characters removed when matching headers; SAP
// exports vary punctuation and spacing between report versions.
const headerStrip = " \t\n.:/-()+%"

// NormalizeHeader lowercases a header cell and strips spacing and
// punctuation so "Purch. Order" matches "purchorder".
func NormalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(headerStrip, r) {
			return -1
		}
		return r
	}, s)
}

// CleanCell trims a cell and maps spreadsheet null spellings to "".
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "nan", "none", "null":
		return ""
	}
	return s
}

// Str returns the cleaned cell, nil when blank.
func Str(s string) *string {
	if v := CleanCell(s); v != "" {
		return &v
	}
	return nil
}

// Int parses a cell as an integer, tolerating float renderings like
// "1201.0". Returns nil when blank or unparseable.
func Int(s string) *int {
	f := Float(s)
	if f == nil || math.IsNaN(*f) {
		return nil
	}
	n := int(*f)
	return &n
}

// Float parses a cell as a number, tolerating decimal commas and
// thousands separators. Returns nil when blank or unparseable.
func Float(s string) *float64 {
	v := CleanCell(s)
	if v == "" {
		return nil
	}
	v = strings.ReplaceAll(v, " ", "")
	if strings.Contains(v, ",") {
		if strings.Contains(v, ".") {
			// "1.234,56" vs "1,234.56": the rightmost separator is decimal
			if strings.LastIndex(v, ",") > strings.LastIndex(v, ".") {
				v = strings.ReplaceAll(v, ".", "")
				v = strings.Replace(v, ",", ".", 1)
			} else {
				v = strings.ReplaceAll(v, ",", "")
			}
		} else {
			v = strings.Replace(v, ",", ".", 1)
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

// dateLayouts covers the renderings excelize produces for date cells
// plus the literal formats SAP writes into text columns.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	"01-02-06",
	"1/2/06 15:04",
	"01/02/2006 15:04:05",
}

// Date parses a cell as a timestamp. Returns nil when blank or no known
// layout matches.
func Date(s string) *time.Time {
	v := CleanCell(s)
	if v == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	// excelize may hand back the raw serial for unstyled date cells
	if serial, err := strconv.ParseFloat(v, 64); err == nil && serial > 20000 && serial < 80000 {
		t := excelEpoch.Add(time.Duration(serial * 24 * float64(time.Hour)))
		return &t
	}
	return nil
}

// excelEpoch is day zero of the 1900 date system, adjusted for the
// historical leap-year bug.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// StripLeadingZeros removes the zero padding SAP puts on numeric codes
// ("000000001003352" -> "1003352"). Non-numeric values pass through.
func StripLeadingZeros(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return s
		}
	}
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// RowHash computes the 32-hex MD5 content hash of a row payload. Keys
// are serialized sorted so equal content always hashes equally.
func RowHash(p domain.Payload) string {
	b, _ := json.Marshal(p) // map keys marshal sorted
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// RowHashWithFile folds the source file name into the hash, for sources
// whose business key is not globally unique across files.
func RowHashWithFile(p domain.Payload, sourceFile string) string {
	h := make(domain.Payload, len(p)+1)
	for k, v := range p {
		h[k] = v
	}
	h["source_file"] = sourceFile
	return RowHash(h)
}
