package utils

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var sizeRe = regexp.MustCompile(`^([0-9]+) ?([KMGTPE]i?)?B?$`)

var sizeUnits = map[string]int64{
	"":   1,
	"K":  1e3,
	"M":  1e6,
	"G":  1e9,
	"T":  1e12,
	"P":  1e15,
	"E":  1e18,
	"Ki": 1 << 10,
	"Mi": 1 << 20,
	"Gi": 1 << 30,
	"Ti": 1 << 40,
	"Pi": 1 << 50,
	"Ei": 1 << 60,
}

// Parses a byte size such as "512", "64KB" or "100 MiB".
// Signs, fractions and sizes that overflow int64 are rejected.
func ParseSize(size string) (int64, error) {
	parts := sizeRe.FindStringSubmatch(strings.TrimSpace(size))
	if parts == nil {
		return 0, fmt.Errorf("%w: invalid size %q", ErrParse, size)
	}

	value, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid size %q", ErrParse, size)
	}

	unit := sizeUnits[parts[2]]
	if value > math.MaxInt64/unit {
		return 0, fmt.Errorf("%w: size %q is too large", ErrParse, size)
	}

	return value * unit, nil
}

// Returns the size in the largest binary unit that keeps it above one.
func HumanByteSize(byteSize int64) string {
	if byteSize < 0 {
		return "-" + HumanByteSize(-byteSize)
	}

	units := []struct {
		unit   string
		format string
	}{
		{"B", "%.0f%s"},
		{"KiB", "%.0f%s"},
		{"MiB", "%.1f%s"},
		{"GiB", "%.2f%s"},
		{"TiB", "%.2f%s"},
		{"PiB", "%.2f%s"},
		{"EiB", "%.2f%s"},
	}

	index := 0
	size := float64(byteSize)

	for size >= 1024 && index < len(units)-1 {
		size /= 1024
		index++
	}

	return fmt.Sprintf(units[index].format, size, units[index].unit)
}
