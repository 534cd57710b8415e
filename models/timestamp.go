package models

import (
	"fmt"
	"strconv"
	"time"
)

// Millis is a Unix-epoch timestamp held internally in milliseconds.
//
// The legacy mobile client for this product wrote timestamps in either seconds
// or milliseconds depending on platform. Values above 10^12 are taken as
// milliseconds, anything else as seconds. Encoding always re-emits
// milliseconds, and new documents carry SchemaVersion so future readers can
// retire the heuristic.
type Millis int64

const millisThreshold int64 = 1_000_000_000_000

func NowMillis() Millis {
	return Millis(time.Now().UnixMilli())
}

func (m Millis) Time() time.Time {
	return time.UnixMilli(int64(m))
}

func (m Millis) IsZero() bool { return m == 0 }

// NormalizeEpoch converts a raw numeric timestamp of unknown unit to milliseconds.
func NormalizeEpoch(raw int64) Millis {
	if raw == 0 {
		return 0
	}
	if raw > millisThreshold {
		return Millis(raw)
	}
	return Millis(raw * 1000)
}

func (m Millis) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(m), 10)), nil
}

func (m *Millis) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*m = 0
		return nil
	}
	// The other client may emit floats (JS numbers); accept both forms.
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		*m = NormalizeEpoch(i)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	*m = NormalizeEpoch(int64(f))
	return nil
}

// MillisFromAny normalizes a timestamp decoded from a generic document value.
func MillisFromAny(v any) Millis {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return NormalizeEpoch(int64(t))
	case int64:
		return NormalizeEpoch(t)
	case int:
		return NormalizeEpoch(int64(t))
	case Millis:
		return t
	case string:
		if i, err := strconv.ParseInt(t, 10, 64); err == nil {
			return NormalizeEpoch(i)
		}
	}
	return 0
}
