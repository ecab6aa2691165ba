package attachment

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Sanitize reduces a client-supplied filename to a flat, ASCII-only name.
// Accents are folded, path separators and whitespace become underscores,
// anything outside [A-Za-z0-9_.-] is dropped and leading or trailing dots
// and underscores are trimmed. The result may be empty.
func Sanitize(name string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(name) {
		switch {
		case r == '/' || r == '\\':
			b.WriteRune(' ')
		case r < 0x80:
			b.WriteRune(r)
		}
	}

	joined := strings.Join(strings.Fields(b.String()), "_")
	out := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_' || r == '.' || r == '-':
			return r
		default:
			return -1
		}
	}, joined)
	return strings.Trim(out, "._")
}

func sanitizeExt(ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	ext = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, ext)
	if ext == "" {
		return ""
	}
	if len(ext) > maxExtLength {
		ext = ext[:maxExtLength]
	}
	return "." + ext
}

func lastPathElement(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		return name[i+1:]
	}
	return name
}
