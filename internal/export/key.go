// Package export keeps per-user daily xlsx artifacts in object storage
// mirroring the clock-event log. Artifacts are load-append-rewrite: the
// store has no partial-append primitive, so every append reads the latest
// version, adds one row, and replaces the whole object.
package export

import (
	"fmt"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// XLSXContentType is the MIME type for workbook uploads.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PNGContentType is the MIME type for signature uploads.
const PNGContentType = "image/png"

// DateLayout is the calendar-day component of every storage key.
const DateLayout = "02-01-2006"

var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Sanitize strips diacritics and replaces every non-alphanumeric rune
// with an underscore, producing a storage-safe path segment.
func Sanitize(s string) string {
	folded, _, err := transform.String(foldDiacritics, s)
	if err != nil {
		folded = s
	}
	out := make([]rune, 0, len(folded))
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out = append(out, r)
		} else {
			out = append(out, '_')
		}
	}
	return string(out)
}

// UserFolder derives the per-user folder segment, "name_pin" sanitized.
func UserFolder(name, pin string) string {
	return fmt.Sprintf("%s_%s", Sanitize(name), pin)
}

// FormatDate renders a timestamp as the DD-MM-YYYY key segment.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ArtifactKey builds the deterministic storage key of a user's daily
// clock sheet: {facility}/{folder}/{date}/fichajes_{date}_{folder}.xlsx.
func ArtifactKey(facilityID, userFolder, date string) string {
	return fmt.Sprintf("%s/%s/%s/fichajes_%s_%s.xlsx", facilityID, userFolder, date, date, userFolder)
}

// SignatureKey builds the storage key of a signature image, placed next
// to the same day's clock sheet.
func SignatureKey(facilityID, userFolder, date, kind string) string {
	return fmt.Sprintf("%s/%s/%s/firma_%s_%s.png", facilityID, userFolder, date, kind, userFolder)
}
