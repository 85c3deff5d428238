package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// timeLayout is fixed-width so that SQLite's text comparison and ordering
// agree with chronological order.
const timeLayout = "2006-01-02T15:04:05.000000Z"

var parseLayouts = []string{
	timeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// StringList is an ordered list of strings stored as TEXT[] on Postgres and
// as a JSON array on SQLite.
type StringList []string

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("store: cannot scan %T into StringList", src)
	}
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "" || raw == "null":
		*l = StringList{}
		return nil
	case strings.HasPrefix(raw, "["):
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return fmt.Errorf("store: decode string list: %w", err)
		}
		if out == nil {
			out = []string{}
		}
		*l = out
		return nil
	default:
		var arr pq.StringArray
		if err := arr.Scan([]byte(raw)); err != nil {
			return fmt.Errorf("store: decode string array: %w", err)
		}
		if arr == nil {
			arr = pq.StringArray{}
		}
		*l = StringList(arr)
		return nil
	}
}

// Value implements driver.Valuer with the JSON encoding. Postgres values are
// converted by the query builder before they reach the driver.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Time is a UTC timestamp column that scans from both drivers' encodings.
type Time struct {
	time.Time
}

// NewTime wraps t, normalized to UTC with microsecond precision.
func NewTime(t time.Time) Time {
	return Time{Time: t.UTC().Truncate(time.Microsecond)}
}

// Scan implements sql.Scanner.
func (t *Time) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("store: cannot scan %T into Time", src)
	}
}

func (t *Time) parse(s string) error {
	for _, layout := range parseLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("store: unrecognized timestamp %q", s)
}

// Value implements driver.Valuer.
func (t Time) Value() (driver.Value, error) {
	return t.UTC().Format(timeLayout), nil
}

// bindValue adapts portable column types to the driver in use.
func (d *DB) bindValue(v any) any {
	switch val := v.(type) {
	case StringList:
		return d.bindList([]string(val))
	case []string:
		return d.bindList(val)
	case Time:
		return d.bindTime(val.Time)
	case time.Time:
		return d.bindTime(val)
	}
	return v
}

func (d *DB) bindList(l []string) any {
	if d.driver == Postgres {
		if l == nil {
			l = []string{}
		}
		return pq.StringArray(l)
	}
	v, _ := StringList(l).Value()
	return v
}

func (d *DB) bindTime(t time.Time) any {
	if d.driver == Postgres {
		return t.UTC()
	}
	return t.UTC().Format(timeLayout)
}
