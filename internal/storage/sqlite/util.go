package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// nullableJSON encodes a string list as JSON, mapping empty to SQL NULL so
// the schema distinguishes "no parents" from "empty list".
func nullableJSON(list []string) (any, error) {
	if len(list) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// nullableString maps "" to SQL NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// decodeJSONList decodes a nullable JSON array column into a string slice.
func decodeJSONList(col sql.NullString, dst *[]string) error {
	if !col.Valid || col.String == "" {
		*dst = nil
		return nil
	}
	return json.Unmarshal([]byte(col.String), dst)
}

// parseTime accepts the timestamp formats SQLite hands back depending on how
// the value was written.
func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
