package moderation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDuration extends time.ParseDuration with day ("3d") and week ("2w")
// units, which moderators use far more often than hours.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, fmt.Errorf("duración vacía")
	}

	unit := s[len(s)-1]
	if unit == 'd' || unit == 'w' {
		n, err := strconv.ParseFloat(s[:len(s)-1], 64)
		if err != nil {
			return 0, fmt.Errorf("duración inválida: %q", s)
		}
		if n < 0 {
			return 0, fmt.Errorf("duración negativa: %q", s)
		}
		mult := 24 * time.Hour
		if unit == 'w' {
			mult = 7 * 24 * time.Hour
		}
		return time.Duration(n * float64(mult)), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("duración inválida: %q", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("duración negativa: %q", s)
	}
	return d, nil
}
