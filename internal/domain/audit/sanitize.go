package audit

import "strings"

// Placeholder substituted for stripped input values
const Placeholder = "[REDACTED]"

// sensitiveFields are argument names whose values never reach the audit
// log, whatever they contain.
var sensitiveFields = map[string]bool{
	"email":    true,
	"nric":     true,
	"phone":    true,
	"password": true,
	"token":    true,
	"secret":   true,
	"key":      true,
}

// SanitizeInput strips known-sensitive fields from caller-supplied tool
// arguments before an entry is constructed. The store still performs its
// own defensive scan afterwards; this pass handles the names we know about
// regardless of value shape.
func SanitizeInput(input map[string]string) map[string]string {
	if input == nil {
		return nil
	}
	sanitized := make(map[string]string, len(input))
	for k, v := range input {
		if sensitiveFields[strings.ToLower(k)] {
			sanitized[k] = Placeholder
			continue
		}
		sanitized[k] = v
	}
	return sanitized
}
