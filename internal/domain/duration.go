package domain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var isoDurationRe = regexp.MustCompile(`^P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseDuration converts an ISO-8601 duration such as PT1H2M3S or P1DT2M
// into seconds. Live streams report P0D.
func ParseDuration(iso string) (int64, error) {
	m := isoDurationRe.FindStringSubmatch(iso)
	if m == nil || iso == "P" || strings.HasSuffix(iso, "T") {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q", iso)
	}

	units := []int64{7 * 24 * 3600, 24 * 3600, 3600, 60, 1}
	var total int64
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid ISO-8601 duration %q: %w", iso, err)
		}
		if n > (math.MaxInt64-total)/unit {
			return 0, fmt.Errorf("ISO-8601 duration %q overflows", iso)
		}
		total += n * unit
	}
	return total, nil
}
