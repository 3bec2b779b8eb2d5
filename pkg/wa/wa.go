package wa

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultBaseURL is the WhatsApp click-to-chat endpoint.
const DefaultBaseURL = "https://wa.me"

// NormalizePhone rewrites an Indonesian phone number into the bare
// international form wa.me expects: a leading "0" becomes "62", an
// already-international "62..." passes through, anything else gets the
// "62" prefix. Separator characters are stripped first.
func NormalizePhone(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	cleaned = strings.TrimPrefix(cleaned, "+")

	if cleaned == "" {
		return "", fmt.Errorf("empty phone number")
	}

	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("phone number %q contains non-digit characters", raw)
		}
	}

	switch {
	case strings.HasPrefix(cleaned, "62"):
		return cleaned, nil
	case strings.HasPrefix(cleaned, "0"):
		return "62" + cleaned[1:], nil
	default:
		return "62" + cleaned, nil
	}
}

// BuildLink returns the wa.me deep link for an already-normalised number.
// Opening the link is the caller's concern; there is no delivery guarantee.
func BuildLink(baseURL, phone, message string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return fmt.Sprintf("%s/%s?text=%s", strings.TrimRight(baseURL, "/"), phone, url.QueryEscape(message))
}
