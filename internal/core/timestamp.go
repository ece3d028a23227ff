package core

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/Code-Hex/synchro"
	"github.com/Code-Hex/synchro/tz"
)

// Timestamp holds a chat message time in whichever representation the
// acquisition source delivered: integer microseconds since epoch (the chat
// replay path) or an ISO-8601 string (the Data API path). The original
// representation is preserved so exports can pass strings through unchanged.
type Timestamp struct {
	usec  int64
	iso   string
	isISO bool
}

// TimestampUsec builds a Timestamp from epoch microseconds.
func TimestampUsec(usec int64) Timestamp {
	return Timestamp{usec: usec}
}

// TimestampISO builds a Timestamp from an ISO-8601 string. The string is
// kept verbatim; parse failures surface only at render time.
func TimestampISO(iso string) Timestamp {
	return Timestamp{iso: iso, isISO: true}
}

// IsISO reports whether the timestamp came in as an ISO-8601 string.
func (t Timestamp) IsISO() bool { return t.isISO }

// Usec returns epoch microseconds. ISO-form timestamps are converted; an
// unparseable string yields 0.
func (t Timestamp) Usec() int64 {
	if !t.isISO {
		return t.usec
	}
	parsed, err := synchro.ParseISO[tz.UTC](t.iso)
	if err != nil {
		return 0
	}
	return parsed.StdTime().UnixMicro()
}

// Clock renders the timestamp as HH:MM:SS wall time in UTC. Unparseable
// ISO strings are returned verbatim rather than dropped.
func (t Timestamp) Clock() string {
	if t.isISO {
		parsed, err := synchro.ParseISO[tz.UTC](t.iso)
		if err != nil {
			return t.iso
		}
		return parsed.StdTime().Format("15:04:05")
	}
	return time.UnixMicro(t.usec).UTC().Format("15:04:05")
}

// ISO renders an ISO-8601 timestamp. String-form values pass through
// unchanged; microsecond values are formatted as RFC 3339 UTC.
func (t Timestamp) ISO() string {
	if t.isISO {
		return t.iso
	}
	return time.UnixMicro(t.usec).UTC().Format(time.RFC3339)
}

// MarshalJSON keeps the source representation: a JSON string for ISO-form
// timestamps, a JSON number of microseconds otherwise.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.isISO {
		return json.Marshal(t.iso)
	}
	return []byte(strconv.FormatInt(t.usec, 10)), nil
}

// UnmarshalJSON accepts either representation.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = TimestampISO(s)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = TimestampUsec(n)
	return nil
}
