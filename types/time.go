package types

import "time"

// Timestamp is a point in time as whole seconds since the Unix epoch plus
// a nanosecond offset. It is informational: the runtime never reads block
// time during execution.
type Timestamp struct {
	Seconds int64 `cramberry:"1" json:"seconds"`
	Nanos   int32 `cramberry:"2" json:"nanos"`
}

// TimeToTimestamp converts t.
func TimeToTimestamp(t time.Time) Timestamp {
	return Timestamp{
		Seconds: t.Unix(),
		Nanos:   int32(t.Nanosecond()),
	}
}

// ToTime converts ts to a UTC time.Time.
func (ts Timestamp) ToTime() time.Time {
	return time.Unix(ts.Seconds, int64(ts.Nanos)).UTC()
}

// IsZero reports whether ts is unset.
func (ts Timestamp) IsZero() bool {
	return ts == Timestamp{}
}
