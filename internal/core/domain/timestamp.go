package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Timestamp is an object store timestamp in units of 10 microseconds,
// the finest resolution the store records.
type Timestamp int64

const (
	// timestampUnitsPerSecond is the number of Timestamp units in a second.
	timestampUnitsPerSecond = 100000

	// timestampFractionDigits is the number of significant fractional digits.
	timestampFractionDigits = 5

	// timestampUnitsPerMilli is the number of Timestamp units in a millisecond.
	timestampUnitsPerMilli = 100
)

// ParseTimestamp parses a decimal seconds value such as "1500000000.12345".
// An "_<hex>" offset suffix is accepted and ignored. Digits beyond the store's
// resolution are truncated, never rounded, so a later conversion to
// milliseconds floors the exact value.
func ParseTimestamp(s string) (Timestamp, error) {
	raw := strings.TrimSpace(s)
	if i := strings.IndexByte(raw, '_'); i >= 0 {
		raw = raw[:i]
	}
	if raw == "" {
		return 0, fmt.Errorf("%w: empty timestamp", ErrInvalidInput)
	}

	whole, frac, _ := strings.Cut(raw, ".")
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return 0, fmt.Errorf("%w: malformed timestamp %q", ErrInvalidInput, s)
	}

	seconds, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: timestamp %q: %w", ErrInvalidInput, s, err)
	}

	if len(frac) > timestampFractionDigits {
		frac = frac[:timestampFractionDigits]
	}
	frac += strings.Repeat("0", timestampFractionDigits-len(frac))
	units, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: timestamp %q: %w", ErrInvalidInput, s, err)
	}

	if seconds > (math.MaxInt64-units)/timestampUnitsPerSecond {
		return 0, fmt.Errorf("%w: timestamp %q out of range", ErrInvalidInput, s)
	}
	return Timestamp(seconds*timestampUnitsPerSecond + units), nil
}

// TimestampFromTime converts a wall clock time.
func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp(t.UnixNano() / (int64(time.Second) / timestampUnitsPerSecond))
}

// Milliseconds floors the timestamp to the index's millisecond resolution.
func (t Timestamp) Milliseconds() int64 {
	v := int64(t)
	ms := v / timestampUnitsPerMilli
	if v%timestampUnitsPerMilli < 0 {
		ms--
	}
	return ms
}

// String returns the store's normal form, e.g. "1500000000.12345".
func (t Timestamp) String() string {
	v := int64(t)
	return fmt.Sprintf("%010d.%05d", v/timestampUnitsPerSecond, v%timestampUnitsPerSecond)
}

// DecodeTimestamps splits a combined row timestamp into the content,
// content-type and metadata timestamps.
//
// The encoding is the content timestamp followed by up to two signed hex
// deltas, each relative to the previous timestamp: "t1", "t1+d2" or
// "t1+d2-d3". Missing deltas repeat the previous timestamp.
func DecodeTimestamps(encoded string) (content, contentType, meta Timestamp, err error) {
	var parts []string
	var signs []int64
	for _, pos := range strings.Split(encoded, "+") {
		for i, part := range strings.Split(pos, "-") {
			parts = append(parts, part)
			if i == 0 {
				signs = append(signs, 1)
			} else {
				signs = append(signs, -1)
			}
		}
	}

	content, err = ParseTimestamp(parts[0])
	if err != nil {
		return 0, 0, 0, err
	}

	contentType = content
	if len(parts) > 1 {
		delta, err := parseDelta(parts[1], encoded)
		if err != nil {
			return 0, 0, 0, err
		}
		contentType = content + Timestamp(signs[1]*delta)
	}

	meta = contentType
	if len(parts) > 2 {
		delta, err := parseDelta(parts[2], encoded)
		if err != nil {
			return 0, 0, 0, err
		}
		meta = contentType + Timestamp(signs[2]*delta)
	}

	return content, contentType, meta, nil
}

func parseDelta(part, encoded string) (int64, error) {
	delta, err := strconv.ParseInt(part, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed timestamp delta in %q", ErrInvalidInput, encoded)
	}
	return delta, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
