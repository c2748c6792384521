package model

import (
	"time"
)

// TimestampLayout is the clock format used inside the users store.
const TimestampLayout = "2006-01-02 15:04:05"

// Timestamp is a time.Time that marshals as "YYYY-MM-DD HH:MM:SS".
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Truncate(time.Second)}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(TimestampLayout) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(`"`+TimestampLayout+`"`, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) String() string {
	return t.Format(TimestampLayout)
}
