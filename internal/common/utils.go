package common

import "strings"

// WithTrailingSlash returns dir with exactly one trailing "/" appended when
// it is missing.
func WithTrailingSlash(dir string) string {
	if strings.HasSuffix(dir, "/") {
		return dir
	}
	return dir + "/"
}

// SanitizeFileName maps s onto a name safe for any filesystem: letters,
// digits, '-', '_' and '.' survive, runs of anything else collapse to '_'.
func SanitizeFileName(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "plot"
	}
	return out
}
