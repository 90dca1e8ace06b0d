// warehouse-go/internal/etl/excel/detect.go
package excel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alkana/warehouse-go/internal/domain"
)

// ErrUnknownFileType is returned when a workbook matches no detection rule.
var ErrUnknownFileType = errors.New("unknown file type")

// maxDetectColumns caps how many header cells detection inspects.
const maxDetectColumns = 30

// Detect classifies a workbook by its first-row headers. Rules run in
// fixed priority order, so a file matching several rules gets the first.
func Detect(path string) (domain.FileType, error) {
	rows, err := sheetRows(path)
	if err != nil {
		return "", err
	}
	var headers []string
	if len(rows) > 0 {
		for i, cell := range rows[0] {
			if i >= maxDetectColumns {
				break
			}
			headers = append(headers, strings.ToLower(strings.TrimSpace(cell)))
		}
	}
	return detectFromHeaders(headers)
}

func detectFromHeaders(headers []string) (domain.FileType, error) {
	joined := "|" + strings.Join(headers, "|") + "|"
	has := func(sub string) bool { return strings.Contains(joined, sub) }

	switch {
	case has("order") && has("batch") && has("material number"):
		return domain.FileTypeCooispi, nil
	case has("material document") && has("material"):
		return domain.FileTypeMb51, nil
	case has("purch. order") || has("purch order"):
		return domain.FileTypeZrmm024, nil
	case has("billing doc") || has("billing document"):
		return domain.FileTypeZrsd002, nil
	case has("delivery") && has("sold-to party"):
		return domain.FileTypeZrsd004, nil
	case (has("material") || has("material code")) && has("distribution channel") &&
		(has("ph 1") || has("ph 2") || has("ph1") || has("ph2")):
		return domain.FileTypeZrsd006, nil
	case has("customer name") && has("total target") && has("total realization"):
		return domain.FileTypeZrfi005, nil
	case has("salesman name") && has("semester") && has("target"):
		return domain.FileTypeTarget, nil
	case has("process order") && has("batch") && (has("lossess") || has("tonase")):
		return domain.FileTypeZrpp062, nil
	}

	if len(headers) > 10 {
		headers = headers[:10]
	}
	return "", fmt.Errorf("%w: headers found: %s", ErrUnknownFileType, strings.Join(headers, ", "))
}
