package domain

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// SafeDivide returns n/d, or def when d is zero.
func SafeDivide(n, d, def float64) float64 {
	if d == 0 {
		return def
	}

	return n / d
}

var memoryUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatMemorySize renders a byte count with binary units.
func FormatMemorySize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}

	size := float64(bytes)
	unit := 0

	for size >= 1024 && unit < len(memoryUnits)-1 {
		size /= 1024
		unit++
	}

	if unit == 0 {
		return fmt.Sprintf("%d B", bytes)
	}

	return fmt.Sprintf("%.2f %s", size, memoryUnits[unit])
}

// FormatPercentage renders v as a percentage. Values in [0, 1] are treated
// as fractions.
func FormatPercentage(v float64, decimals int) string {
	if v >= 0 && v <= 1 {
		v *= 100
	}

	return strconv.FormatFloat(v, 'f', decimals, 64) + "%"
}

// TruncateString shortens s to at most maxLen runes, ending with suffix.
func TruncateString(s string, maxLen int, suffix string) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}

	keep := maxLen - utf8.RuneCountInString(suffix)
	if keep < 0 {
		keep = 0
	}

	return string([]rune(s)[:keep]) + suffix
}

// FormatThousands renders n with comma group separators.
func FormatThousands(n int) string {
	s := strconv.Itoa(n)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder

	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}

		b.WriteRune(r)
	}

	if neg {
		return "-" + b.String()
	}

	return b.String()
}

// QualityLabel is a completeness grade and its display color.
type QualityLabel struct {
	Label string
	Color string
}

// QualityLabelFor grades a completeness percentage.
func QualityLabelFor(completeness float64) QualityLabel {
	switch {
	case completeness >= 95:
		return QualityLabel{Label: "Excellent", Color: "#2ecc71"}
	case completeness >= 80:
		return QualityLabel{Label: "Good", Color: "#f1c40f"}
	case completeness >= 60:
		return QualityLabel{Label: "Fair", Color: "#e67e22"}
	default:
		return QualityLabel{Label: "Critical", Color: "#e74c3c"}
	}
}
