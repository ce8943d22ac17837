package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrPreconditionRequired indicates a write arrived without the
// mandatory If-Match header.
var ErrPreconditionRequired = errors.New("missing If-Match header (expected current version)")

// ErrBadPrecondition indicates the If-Match header did not carry a
// positive integer version.
var ErrBadPrecondition = errors.New("invalid If-Match header (expected positive integer version)")

// ParseIfMatch extracts the expected version from an If-Match header.
// Both bare and quoted tokens are accepted:
//
//	If-Match: 3
//	If-Match: "3"
func ParseIfMatch(header string) (int, error) {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return 0, ErrPreconditionRequired
	}

	if strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) && len(raw) >= 2 {
		raw = raw[1 : len(raw)-1]
	}

	version, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ErrBadPrecondition
	}
	if version <= 0 {
		return 0, ErrBadPrecondition
	}
	return version, nil
}

// ETagValue formats a version as a quoted entity tag so callers can
// chain the response header straight into the next If-Match.
func ETagValue(version int) string {
	return fmt.Sprintf("%q", strconv.Itoa(version))
}
