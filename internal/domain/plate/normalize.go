package plate

import (
	"strings"
)

// MinTokenLength is the shortest normalized token accepted on the watchlist.
const MinTokenLength = 4

// Normalize converts a raw plate string to its canonical token: uppercase,
// alphanumeric only. Every character outside [A-Z0-9] is dropped, so
// "ab-123 aa" and "AB 123.AA" normalize to the same token.
func Normalize(raw string) string {
	upper := strings.ToUpper(raw)
	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
