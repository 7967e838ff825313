package archive

import (
	"strings"

	"github.com/kennygrant/sanitize"
)

// SanitizeFileName turns name into a string that is safe to use as a file name
// on common filesystems. Each '_' separated field is cleaned with
// sanitize.BaseName, so spaces become '-', accents are transliterated and
// path separators or reserved characters are dropped, while the '_' field
// separators and the extension survive. Returns "" if nothing usable is left.
func SanitizeFileName(name string) string {
	fields := strings.Split(strings.TrimSpace(name), "_")
	for i, f := range fields {
		fields[i] = sanitize.BaseName(strings.TrimSpace(f))
	}
	s := strings.Join(fields, "_")
	if strings.Trim(s, "-_.") == "" {
		return ""
	}
	return s
}
