package masking

import "strings"

const maskToken = "****"

// MaskSecret redacts a secret while keeping a minimal suffix for auditing.
func MaskSecret(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-4:]
}

// MaskEmail keeps the first character of the local part and the domain,
// e.g. j****@example.com.
func MaskEmail(value string) string {
	trimmed := strings.TrimSpace(value)
	at := strings.LastIndex(trimmed, "@")
	if at <= 0 {
		return MaskSecret(trimmed)
	}
	return trimmed[:1] + maskToken + trimmed[at:]
}

// SanitizeMetadata copies audit metadata, dropping credential keys and
// masking personal values.
func SanitizeMetadata(input map[string]any) map[string]any {
	out := make(map[string]any, len(input))
	for key, value := range input {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		lower := strings.ToLower(key)
		switch {
		case strings.Contains(lower, "password"), strings.Contains(lower, "token"):
			continue
		case strings.Contains(lower, "email"):
			if s, ok := value.(string); ok {
				value = MaskEmail(s)
			}
		case strings.Contains(lower, "secret"), strings.Contains(lower, "key"):
			if s, ok := value.(string); ok {
				value = MaskSecret(s)
			}
		}
		out[key] = value
	}
	return out
}
