package common

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultValidity is granted when a plan's validity string cannot be parsed.
const DefaultValidity = time.Hour

var validityUnits = map[string]time.Duration{
	"Hour":  time.Hour,
	"Hours": time.Hour,
	"Day":   24 * time.Hour,
	"Days":  24 * time.Hour,
	"Week":  7 * 24 * time.Hour,
	"Weeks": 7 * 24 * time.Hour,
}

// ParseValidity converts a plan validity such as "2 Hours" or "1 Day" into a
// duration. Unit keywords are case-sensitive. Malformed input never fails: it
// yields DefaultValidity with defaulted set so callers can report the catalog error.
func ParseValidity(validity string) (d time.Duration, defaulted bool) {
	fields := strings.Fields(validity)
	if len(fields) != 2 {
		return DefaultValidity, true
	}

	n, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || n <= 0 {
		return DefaultValidity, true
	}

	unit, ok := validityUnits[fields[1]]
	if !ok {
		return DefaultValidity, true
	}

	if n > int64(math.MaxInt64/unit) {
		return DefaultValidity, true
	}

	return time.Duration(n) * unit, false
}
