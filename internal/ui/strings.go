package ui

import "strings"

// truncate shortens value to limit runes, ending with "..." when cut.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// truncateMiddle shortens value by cutting its middle. Paths keep their file
// extension.
func truncateMiddle(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 || value == "" {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	ellipsis := []rune("…/")
	if limit <= len(ellipsis)+1 {
		return string(runes[:limit])
	}

	lastSlash := max(strings.LastIndex(value, "/"), strings.LastIndex(value, "\\"))
	if lastDot := strings.LastIndex(value, "."); lastSlash >= 0 && lastDot > lastSlash {
		ext := []rune(value[lastDot:])
		base := []rune(value[:lastDot])
		baseLimit := limit - len(ext) - len(ellipsis)
		if len(ext) < 10 && len(ext) < limit/2 && baseLimit > 1 {
			prefix := baseLimit / 2
			suffix := baseLimit - prefix
			return string(base[:prefix]) + string(ellipsis) + string(base[len(base)-suffix:]) + string(ext)
		}
	}

	keep := limit - len(ellipsis)
	prefix := keep / 2
	suffix := keep - prefix
	return string(runes[:prefix]) + string(ellipsis) + string(runes[len(runes)-suffix:])
}

// padRight pads s with spaces to width runes.
func padRight(s string, width int) string {
	n := len([]rune(s))
	if width <= 0 || n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
