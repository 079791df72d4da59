package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Field limits shared by the client pipeline and the server validator.
const (
	MaxFieldLen   = 500
	MaxEmailLen   = 254
	MaxUserAgent  = 200
	MinNameLen    = 2
	MaxNameLen    = 50
	MinMessageLen = 10
	MaxMessageLen = 1000
)

var (
	// Requires at least one dotted domain label, so "a@b" is rejected.
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)

	// Indian mobile numbers: 10 digits, first digit 6-9.
	phoneRe    = regexp.MustCompile(`^[6-9]\d{9}$`)
	nonDigitRe = regexp.MustCompile(`\D`)

	// Deny lists are a heuristic only; real protection is output encoding at
	// render time plus the server-side re-validation.
	clientDenyRe = regexp.MustCompile(`(?i)<script|javascript:|onerror=|onclick=`)
	serverDenyRe = regexp.MustCompile(`(?i)<script|javascript:|onerror=|onclick=|<iframe|eval\(|expression\(`)
)

var emittedEntities = []string{"&lt;", "&gt;", "&quot;", "&#x27;", "&amp;"}

// SanitizeEncode trims, entity-encodes HTML metacharacters and truncates to
// MaxFieldLen. It is idempotent: ampersands that already start one of the
// entities it emits are left alone, and a truncation never severs an entity.
func SanitizeEncode(s string) string {
	s = strings.TrimSpace(s)

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&#x27;")
		case '&':
			if entityAt(s, i) {
				b.WriteByte('&')
			} else {
				b.WriteString("&amp;")
			}
		default:
			b.WriteByte(c)
		}
	}

	out := b.String()
	if len(out) > MaxFieldLen {
		out = out[:MaxFieldLen]
		if i := strings.LastIndexByte(out, '&'); i >= 0 && !strings.Contains(out[i:], ";") {
			out = out[:i]
		}
	}
	return strings.TrimSpace(out)
}

func entityAt(s string, i int) bool {
	for _, e := range emittedEntities {
		if strings.HasPrefix(s[i:], e) {
			return true
		}
	}
	return false
}

// SanitizeStrip trims, deletes HTML metacharacters outright and truncates to
// MaxFieldLen. Used for storage, which is not a render context.
func SanitizeStrip(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '\'', '"', '&':
			return -1
		}
		return r
	}, s)
	if len(s) > MaxFieldLen {
		s = s[:MaxFieldLen]
		for !utf8.ValidString(s) {
			s = s[:len(s)-1]
		}
	}
	return strings.TrimSpace(s)
}

// ValidEmail reports whether email matches the address pattern and the
// overall length cap.
func ValidEmail(email string) bool {
	return len(email) <= MaxEmailLen && emailRe.MatchString(email)
}

// NormalizePhone strips every non-digit character.
func NormalizePhone(phone string) string {
	return nonDigitRe.ReplaceAllString(phone, "")
}

// ValidPhone reports whether phone normalizes to a valid Indian mobile
// number, e.g. "+91 98765-43210" passes and "12345" does not.
func ValidPhone(phone string) bool {
	return phoneRe.MatchString(NormalizePhone(phone))
}

// NameLengthOK reports whether a name-like field is 2-50 characters long.
func NameLengthOK(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= MinNameLen && n <= MaxNameLen
}

// MessageLengthOK reports whether a contact message is 10-1000 characters.
func MessageLengthOK(message string) bool {
	n := utf8.RuneCountInString(message)
	return n >= MinMessageLen && n <= MaxMessageLen
}

// SuspiciousClient scans free-text input with the client deny list.
func SuspiciousClient(s string) bool {
	return clientDenyRe.MatchString(s)
}

// SuspiciousServer scans joined field values with the wider server deny list.
func SuspiciousServer(s string) bool {
	return serverDenyRe.MatchString(s)
}

// TruncateUserAgent bounds a user-agent string to MaxUserAgent bytes.
func TruncateUserAgent(ua string) string {
	if len(ua) > MaxUserAgent {
		return ua[:MaxUserAgent]
	}
	return ua
}
