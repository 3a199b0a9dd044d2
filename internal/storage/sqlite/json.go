package sqlite

import (
	"database/sql"
	"encoding/json"
	"strings"
)

// Topics, tags and source id lists are kept as JSON-serialized arrays in
// TEXT columns, matching the on-disk format of the original database files.

func encodeStrings(list []string) string {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// decodeStrings treats malformed stored data as an empty list rather than
// failing the read.
func decodeStrings(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return []string{}
	}
	var list []string
	if err := json.Unmarshal([]byte(raw.String), &list); err != nil {
		return []string{}
	}
	if list == nil {
		return []string{}
	}
	return list
}

func encodeIDs(ids []int64) string {
	if ids == nil {
		ids = []int64{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeIDs(raw sql.NullString) []int64 {
	if !raw.Valid || raw.String == "" {
		return []int64{}
	}
	var ids []int64
	if err := json.Unmarshal([]byte(raw.String), &ids); err != nil {
		return []int64{}
	}
	if ids == nil {
		return []int64{}
	}
	return ids
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func likePattern(s string) string {
	return "%" + s + "%"
}
