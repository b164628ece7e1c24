package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLimitArg parses an optional positive count argument. An empty
// argument yields def; values above limit are rejected.
func ParseLimitArg(args string, def, limit int) (int, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.Fields(s)[0])
	if err != nil {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	if n < 1 || n > limit {
		return 0, fmt.Errorf("count must be between 1 and %d", limit)
	}
	return n, nil
}
