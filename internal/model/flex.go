package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// FlexID accepts identifiers encoded either as JSON strings or numbers.
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	// Mongo extended JSON: {"$oid": "..."}
	if b[0] == '{' {
		var oid struct {
			OID string `json:"$oid"`
		}
		if err := json.Unmarshal(b, &oid); err != nil {
			return err
		}
		*f = FlexID(oid.OID)
		return nil
	}
	*f = FlexID(string(b))
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FlexTime accepts RFC 3339 strings, zone-less timestamps, bare dates and
// epoch milliseconds. Anything else decodes to the zero time rather than
// failing the whole payload.
type FlexTime struct {
	time.Time
}

func (f *FlexTime) UnmarshalJSON(b []byte) error {
	f.Time = time.Time{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		f.Time = ParseTime(s)
		return nil
	}
	if b[0] == '{' {
		var d struct {
			Date json.RawMessage `json:"$date"`
		}
		if err := json.Unmarshal(b, &d); err == nil && len(d.Date) > 0 {
			return f.UnmarshalJSON(d.Date)
		}
		return nil
	}
	if ms, err := strconv.ParseInt(string(b), 10, 64); err == nil {
		f.Time = time.UnixMilli(ms)
	}
	return nil
}

// Ptr returns nil for the zero time.
func (f FlexTime) Ptr() *time.Time {
	if f.IsZero() {
		return nil
	}
	t := f.Time
	return &t
}

// ParseTime tries every accepted layout. Zone-less values are read as local time.
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339Nano {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return t
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms)
	}
	return time.Time{}
}
