package calculator

import (
	"regexp"
	"strconv"
)

var durationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?$`)

// ParseISODurationToMinutes converts a PT<N>H<N>M token into total minutes.
// Malformed tokens yield 0.
func ParseISODurationToMinutes(token string) int {
	m := durationPattern.FindStringSubmatch(token)
	if m == nil {
		return 0
	}
	hours := atoiOrZero(m[1])
	minutes := atoiOrZero(m[2])
	total := hours*60 + minutes
	if total < 0 {
		return 0
	}
	return total
}

func atoiOrZero(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
