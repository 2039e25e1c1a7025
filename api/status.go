package api

import "strings"

// StatusStyle is how a visit status is drawn
type StatusStyle struct {
	Icon  string
	Color string
}

// StatusConfig maps a visit status, case-insensitively, to its icon and colour.
// Unknown statuses are shown as rejected.
func StatusConfig(status string) StatusStyle {
	switch strings.ToUpper(status) {
	case StatusCheckedIn, StatusApproved:
		return StatusStyle{Icon: "checkmark", Color: "#10b981"}
	case StatusCheckedOut:
		return StatusStyle{Icon: "log-out", Color: "#3b82f6"}
	case StatusPending:
		return StatusStyle{Icon: "time-outline", Color: "#f59e0b"}
	case StatusFlagged:
		return StatusStyle{Icon: "flag", Color: "#ef4444"}
	default:
		return StatusStyle{Icon: "close", Color: "#ef4444"}
	}
}

// StatusColor is StatusConfig(status).Color
func StatusColor(status string) string {
	return StatusConfig(status).Color
}

// ImageURL resolves a stored path against baseURL. Absolute http and data
// URLs are returned unchanged, backslashes become slashes.
func ImageURL(baseURL, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http") || strings.HasPrefix(path, "data:") {
		return path
	}
	normalized := strings.ReplaceAll(path, `\`, "/")
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	return strings.TrimRight(baseURL, "/") + normalized
}

// Initials returns up to two upper-case initials of name, or "S"
func Initials(name string) string {
	var initials []rune
	for _, part := range strings.Fields(name) {
		initials = append(initials, []rune(part)[0])
		if len(initials) == 2 {
			break
		}
	}
	if len(initials) == 0 {
		return "S"
	}
	return strings.ToUpper(string(initials))
}
