package config

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/iwvelando/brrrr-analyzer/pkg/constants"
	"github.com/rotisserie/eris"
)

var sizeUnits = map[string]int64{
	"":   1,
	"B":  1,
	"K":  1 << 10,
	"KB": 1 << 10,
	"M":  1 << 20,
	"MB": 1 << 20,
	"G":  1 << 30,
	"GB": 1 << 30,
}

// ParseSize converts a human-friendly byte string such as "256K" or "10M"
// into bytes. An empty string is the default body size.
func ParseSize(value string) (int64, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return constants.DefaultMaxBodySizeBytes, nil
	}

	split := strings.IndexFunc(trimmed, func(r rune) bool { return !unicode.IsDigit(r) })
	if split == -1 {
		split = len(trimmed)
	}
	if split == 0 {
		return 0, eris.Errorf("invalid size: %s", value)
	}

	n, err := strconv.ParseInt(trimmed[:split], 10, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid size value %q", value)
	}
	multiplier, ok := sizeUnits[strings.TrimSpace(trimmed[split:])]
	if !ok {
		return 0, eris.Errorf("unsupported size unit in %q", value)
	}
	if n > (1<<63-1)/multiplier {
		return 0, eris.Errorf("size overflow for value %s", value)
	}
	return n * multiplier, nil
}
